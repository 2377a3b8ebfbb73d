package repl

import (
	"reflect"
	"testing"
)

func TestNewCompleter_Defaults(t *testing.T) {
	c := NewCompleter()

	essential := []string{"get", "hgetall", "zsize", "scan", "multi", "exec", "help", "exit"}
	for _, cmd := range essential {
		if got := c.Complete(cmd); len(got) == 0 || got[0] != cmd {
			t.Errorf("default completer missing %q (got %v)", cmd, got)
		}
	}
}

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter("HGETALL", "hget", "hmget", "get", "get")

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{name: "prefix", prefix: "hg", want: []string{"hget", "hgetall"}},
		{name: "case insensitive", prefix: "HM", want: []string{"hmget"}},
		{name: "exact", prefix: "get", want: []string{"get"}},
		{name: "no match", prefix: "zz", want: nil},
		{name: "empty prefix lists all", prefix: "", want: []string{"get", "hget", "hgetall", "hmget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Complete(tt.prefix)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}
