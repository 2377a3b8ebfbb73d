package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hail-framework/framework-sub003/internal/redis/command"
	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// TextFormatter renders replies the way redis-cli does.
type TextFormatter struct{}

// Format writes one reply.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	var b strings.Builder
	writeText(&b, data, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeText(b *strings.Builder, v any, indent string) {
	switch t := v.(type) {
	case nil:
		b.WriteString("(nil)\n")
	case bool:
		if t {
			b.WriteString("OK\n")
		} else {
			b.WriteString("(false)\n")
		}
	case string:
		b.WriteString(strconv.Quote(t) + "\n")
	case int64:
		fmt.Fprintf(b, "(integer) %d\n", t)
	case float64:
		fmt.Fprintf(b, "(double) %s\n", strconv.FormatFloat(t, 'f', -1, 64))
	case *resp.Redirect:
		fmt.Fprintf(b, "(redirect) %s\n", t)
	case error:
		fmt.Fprintf(b, "(error) %s\n", t)
	case []any:
		writeList(b, t, indent)
	case map[string]any:
		writePairs(b, len(t), sortedKeys(t), func(k string) any { return t[k] }, indent)
	case map[string]float64:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		writePairs(b, len(t), keys, func(k string) any { return t[k] }, indent)
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		writePairs(b, len(t), keys, func(k string) any { return t[k] }, indent)
	case command.ScanPage:
		fmt.Fprintf(b, "1) \"%d\"\n", t.Cursor)
		b.WriteString(indent + "2) ")
		if t.Fields != nil {
			writeText(b, t.Fields, indent+"   ")
		} else {
			writeText(b, t.Items, indent+"   ")
		}
	default:
		fmt.Fprintf(b, "%v\n", t)
	}
}

func writeList(b *strings.Builder, items []any, indent string) {
	if len(items) == 0 {
		b.WriteString("(empty array)\n")
		return
	}
	width := len(strconv.Itoa(len(items)))
	for i, item := range items {
		if i > 0 {
			b.WriteString(indent)
		}
		label := fmt.Sprintf("%*d) ", width, i+1)
		b.WriteString(label)
		writeText(b, item, indent+strings.Repeat(" ", len(label)))
	}
}

func writePairs(b *strings.Builder, n int, keys []string, get func(string) any, indent string) {
	if n == 0 {
		b.WriteString("(empty hash)\n")
		return
	}
	width := len(strconv.Itoa(n))
	for i, k := range keys {
		if i > 0 {
			b.WriteString(indent)
		}
		label := fmt.Sprintf("%*d) %s => ", width, i+1, strconv.Quote(k))
		b.WriteString(label)
		writeText(b, get(k), indent+strings.Repeat(" ", width+2))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
