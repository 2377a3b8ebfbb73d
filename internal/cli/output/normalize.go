package output

import (
	"errors"

	"github.com/hail-framework/framework-sub003/internal/redis/command"
	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// ScanResult is the encoded form of a command.ScanPage.
type ScanResult struct {
	Cursor uint64         `json:"cursor" yaml:"cursor"`
	Items  []any          `json:"items,omitempty" yaml:"items,omitempty"`
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ErrorResult is the encoded form of a failed command.
type ErrorResult struct {
	Error string `json:"error" yaml:"error"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Normalize converts reply values into plain data for the structured
// encoders. Scan pages, redirects and errors become documented shapes;
// containers are converted recursively.
func Normalize(v any) any {
	switch t := v.(type) {
	case command.ScanPage:
		out := ScanResult{Cursor: t.Cursor}
		if t.Fields != nil {
			out.Fields = normalizeMap(t.Fields)
		} else {
			out.Items = normalizeSlice(t.Items)
		}
		return out
	case *resp.Redirect:
		return t.String()
	case error:
		out := ErrorResult{Error: t.Error()}
		var se *resp.ServerError
		if errors.As(t, &se) {
			out.Kind = se.Kind
		}
		return out
	case []any:
		return normalizeSlice(t)
	case map[string]any:
		return normalizeMap(t)
	default:
		return v
	}
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = Normalize(v)
	}
	return out
}

func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = Normalize(v)
	}
	return out
}
