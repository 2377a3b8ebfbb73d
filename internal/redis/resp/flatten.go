package resp

import (
	"reflect"
	"sort"
)

// Pair is one entry of an ordered option list.
type Pair struct {
	Key   string
	Value any
}

// KV is an ordered list of key/value pairs. Flatten emits each key before
// its value, which is how Redis sub-options such as `LIMIT offset count`
// are spelled on the wire.
type KV []Pair

// Flatten walks args depth first and returns the flat wire argument list.
//
// Slices and arrays (except []byte) are expanded in order. For KV and
// string-keyed maps every key is emitted before its value is descended into;
// maps are walked in sorted key order. Integer-keyed maps are positional, so
// only their values are emitted. Scalars are appended verbatim.
func Flatten(args ...any) []any {
	return appendFlat(make([]any, 0, len(args)), args)
}

func appendFlat(out []any, v any) []any {
	switch t := v.(type) {
	case nil, string, []byte:
		return append(out, v)
	case []any:
		for _, e := range t {
			out = appendFlat(out, e)
		}
		return out
	case []string:
		for _, s := range t {
			out = append(out, s)
		}
		return out
	case KV:
		for _, p := range t {
			out = append(out, p.Key)
			out = appendFlat(out, p.Value)
		}
		return out
	case map[string]any:
		for _, k := range sortedKeys(t) {
			out = append(out, k)
			out = appendFlat(out, t[k])
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			out = appendFlat(out, rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		return appendMap(out, rv)
	default:
		return append(out, v)
	}
}

func appendMap(out []any, rv reflect.Value) []any {
	keys := rv.MapKeys()
	switch rv.Type().Key().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
		for _, k := range keys {
			out = appendFlat(out, rv.MapIndex(k).Interface())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
		for _, k := range keys {
			out = appendFlat(out, rv.MapIndex(k).Interface())
		}
	default:
		sort.Slice(keys, func(i, j int) bool { return formatArg(keys[i].Interface()) < formatArg(keys[j].Interface()) })
		for _, k := range keys {
			out = append(out, k.Interface())
			out = appendFlat(out, rv.MapIndex(k).Interface())
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
