package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newJSON(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

// ============================================================
// Construction and Levels
// ============================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"default config", DefaultConfig()},
		{"json format", Config{Level: "debug", Format: "json"}},
		{"text format", Config{Level: "info", Format: "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newJSON(t, "debug")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("connected", "addr", "127.0.0.1:6379")

			entry := decode(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["addr"] != "127.0.0.1:6379" {
				t.Errorf("addr = %v", entry["addr"])
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newJSON(t, "info")

	l.With("conn_id", "01J0000000000000000000000").Info("reconnect")

	if got := decode(t, buf)["conn_id"]; got != "01J0000000000000000000000" {
		t.Errorf("conn_id = %v", got)
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newJSON(t, "error")

	l.Info("filtered")
	if buf.Len() > 0 {
		t.Error("info should be filtered at error level")
	}

	SetLevel("debug")
	t.Cleanup(func() { SetLevel("info") })

	l.Info("visible")
	if buf.Len() == 0 {
		t.Error("info should be logged after level changed to debug")
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"DEBUG", "debug"},
		{"info", "info"},
		{"warning", "warn"},
		{"ERROR", "error"},
		{"bogus", "info"},
		{"", "info"},
	}

	t.Cleanup(func() { SetLevel("info") })
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevel(tt.input)
			if got := GetLevel(); got != tt.want {
				t.Errorf("GetLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("dropped")
	l.With("k", "v").WithContext(context.Background()).Info("dropped")
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}

	l, buf := newJSON(t, "info")
	prev := Default()
	SetDefault(l)
	t.Cleanup(func() { SetDefault(prev) })

	Default().Info("via default")
	if buf.Len() == 0 {
		t.Error("SetDefault did not replace the default logger")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("pipeline flushed", "commands", 3)

	out := buf.String()
	if !strings.Contains(out, "pipeline flushed") || !strings.Contains(out, "commands=3") {
		t.Errorf("unexpected text output: %s", out)
	}
}
