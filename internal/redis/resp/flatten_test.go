package resp

import (
	"reflect"
	"testing"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want []any
	}{
		{
			name: "scalars unchanged",
			args: []any{"a", 1, 2.5, true},
			want: []any{"a", 1, 2.5, true},
		},
		{
			name: "nested lists keep order",
			args: []any{"k", []any{"a", []string{"b", "c"}}, []int{1, 2}},
			want: []any{"k", "a", "b", "c", 1, 2},
		},
		{
			name: "ordered options emit keys",
			args: []any{"z", KV{{Key: "LIMIT", Value: []any{0, 10}}, {Key: "WITHSCORES", Value: nil}}},
			want: []any{"z", "LIMIT", 0, 10, "WITHSCORES", nil},
		},
		{
			name: "string keyed map in sorted order",
			args: []any{map[string]any{"b": 2, "a": 1}},
			want: []any{"a", 1, "b", 2},
		},
		{
			name: "integer keyed map is positional",
			args: []any{map[int]string{1: "y", 0: "x"}},
			want: []any{"x", "y"},
		},
		{
			name: "bytes are scalar",
			args: []any{[]byte("raw")},
			want: []any{[]byte("raw")},
		},
		{
			name: "empty",
			args: nil,
			want: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flatten(tt.args...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}
