package command

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// shapeEval turns (script, keys, args) into (script, numkeys, keys..., args...).
// A caller that already passes numkeys gets the arguments through unchanged.
func shapeEval(args []any) ([]any, Tracked, error) {
	if len(args) == 0 {
		return nil, Tracked{}, fmt.Errorf("%w: eval requires a script", ErrInvalidArgs)
	}
	if len(args) > 1 {
		if _, ok := asInt(args[1]); ok {
			return resp.Flatten(args...), Tracked{}, nil
		}
	}

	var keys, argv []any
	if len(args) > 1 {
		keys = listOrSingle(args[1])
	}
	if len(args) > 2 {
		argv = resp.Flatten(args[2:]...)
	}

	out := make([]any, 0, 2+len(keys)+len(argv))
	out = append(out, args[0], len(keys))
	out = append(out, keys...)
	out = append(out, argv...)
	return out, Tracked{}, nil
}

// shapeZStore turns (dest, keys, {weights, aggregate}) into
// (dest, numkeys, keys..., WEIGHTS w..., AGGREGATE a).
func shapeZStore(args []any) ([]any, Tracked, error) {
	if len(args) < 2 {
		return nil, Tracked{}, fmt.Errorf("%w: destination and keys required", ErrInvalidArgs)
	}
	keys, ok := asList(args[1])
	if !ok {
		return resp.Flatten(args...), Tracked{}, nil
	}
	if len(args) > 3 {
		return nil, Tracked{}, fmt.Errorf("%w: unexpected arguments after options", ErrInvalidArgs)
	}

	out := make([]any, 0, 2+len(keys))
	out = append(out, args[0], len(keys))
	out = append(out, keys...)

	if len(args) == 3 && args[2] != nil {
		opts, ok := asOptions(args[2])
		if !ok {
			return nil, Tracked{}, fmt.Errorf("%w: options must be a map", ErrInvalidArgs)
		}
		if w, ok := lookup(opts, "weights"); ok {
			if weights, ok := asList(w); ok && len(weights) > 0 {
				out = append(out, "WEIGHTS")
				out = append(out, weights...)
			}
		}
		if a, ok := lookup(opts, "aggregate"); ok && a != nil {
			out = append(out, "AGGREGATE", strings.ToUpper(resp.FormatArg(a)))
		}
	}
	return out, Tracked{}, nil
}

// shapeSet expands the optional third argument of SET: an integer is a TTL
// in seconds, a duration a TTL in milliseconds, and an option map becomes
// flag/value tokens (boolean true emits the bare flag).
func shapeSet(args []any) ([]any, Tracked, error) {
	if len(args) < 3 {
		return resp.Flatten(args...), Tracked{}, nil
	}

	out := []any{args[0], args[1]}
	switch third := args[2].(type) {
	case time.Duration:
		out = append(out, "PX", third.Milliseconds())
	default:
		if ttl, ok := asInt(third); ok {
			out = append(out, "EX", ttl)
			break
		}
		opts, ok := asOptions(third)
		if !ok {
			out = append(out, resp.Flatten(third)...)
			break
		}
		for _, p := range opts {
			flag := strings.ToUpper(p.Key)
			switch v := p.Value.(type) {
			case nil:
				out = append(out, flag)
			case bool:
				if v {
					out = append(out, flag)
				}
			default:
				out = append(out, flag)
				out = append(out, resp.Flatten(v)...)
			}
		}
	}
	out = append(out, resp.Flatten(args[3:]...)...)
	return out, Tracked{}, nil
}

// shapeScan builds `[key] cursor [MATCH pattern] [COUNT n]`. The cursor is
// tracked so the reply page can be matched to the request.
func shapeScan(withKey bool) argShaper {
	return func(args []any) ([]any, Tracked, error) {
		var out []any
		i := 0
		if withKey {
			if len(args) == 0 {
				return nil, Tracked{}, fmt.Errorf("%w: key required", ErrInvalidArgs)
			}
			out = append(out, args[0])
			i++
		}

		var cursor uint64
		if len(args) > i {
			c, err := parseCursor(args[i])
			if err != nil {
				return nil, Tracked{}, err
			}
			cursor = c
			i++
		}
		out = append(out, strconv.FormatUint(cursor, 10))

		if len(args) > i {
			if args[i] != nil {
				if pattern := resp.FormatArg(args[i]); pattern != "" {
					out = append(out, "MATCH", pattern)
				}
			}
			i++
		}
		if len(args) > i {
			if n, ok := asInt(args[i]); ok && n > 0 {
				out = append(out, "COUNT", n)
			}
			i++
		}
		if len(args) > i {
			return nil, Tracked{}, fmt.Errorf("%w: too many scan arguments", ErrInvalidArgs)
		}
		return out, Tracked{Cursor: cursor}, nil
	}
}

// shapeZRange expands a trailing options value: true or {withscores: true}
// appends WITHSCORES, {limit: [offset, count]} appends LIMIT offset count.
func shapeZRange(args []any) ([]any, Tracked, error) {
	if len(args) <= 3 {
		return resp.Flatten(args...), Tracked{}, nil
	}

	out := []any{args[0], args[1], args[2]}
	var (
		tracked Tracked
		limit   []any
	)

	switch v := args[3].(type) {
	case bool:
		tracked.WithScores = v
	default:
		opts, ok := asOptions(v)
		if !ok {
			// Raw tokens such as "WITHSCORES", "LIMIT", 0, 10.
			rest := resp.Flatten(args[3:]...)
			for _, tok := range rest {
				if s, ok := tok.(string); ok && strings.EqualFold(s, "withscores") {
					tracked.WithScores = true
				}
			}
			return append(out, rest...), tracked, nil
		}
		if ws, ok := lookup(opts, "withscores"); ok {
			tracked.WithScores = truthy(ws)
		}
		if l, ok := lookup(opts, "limit"); ok && l != nil {
			var ok bool
			limit, ok = asList(l)
			if !ok || len(limit) != 2 {
				return nil, Tracked{}, fmt.Errorf("%w: limit must be [offset, count]", ErrInvalidArgs)
			}
		}
	}
	if len(args) > 4 {
		return nil, Tracked{}, fmt.Errorf("%w: unexpected arguments after options", ErrInvalidArgs)
	}

	if tracked.WithScores {
		out = append(out, "WITHSCORES")
	}
	if limit != nil {
		out = append(out, "LIMIT", limit[0], limit[1])
	}
	return out, tracked, nil
}

// shapeMGet accepts variadic keys or a single key list.
func shapeMGet(args []any) ([]any, Tracked, error) {
	keys := resp.Flatten(args...)
	if len(keys) == 0 {
		return nil, Tracked{}, fmt.Errorf("%w: at least one key required", ErrInvalidArgs)
	}
	return keys, Tracked{}, nil
}

// shapeHMSet expands (key, {field: value}) into alternating tokens.
func shapeHMSet(args []any) ([]any, Tracked, error) {
	if len(args) == 2 {
		if fields, ok := asOptions(args[1]); ok {
			out := make([]any, 0, 1+2*len(fields))
			out = append(out, args[0])
			for _, p := range fields {
				out = append(out, p.Key, p.Value)
			}
			return out, Tracked{}, nil
		}
	}
	return resp.Flatten(args...), Tracked{}, nil
}

// shapeHMGet tracks the requested fields so the reply can be zipped.
func shapeHMGet(args []any) ([]any, Tracked, error) {
	if len(args) < 2 {
		return nil, Tracked{}, fmt.Errorf("%w: key and fields required", ErrInvalidArgs)
	}
	fields := resp.Flatten(args[1:]...)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = resp.FormatArg(f)
	}

	out := make([]any, 0, 1+len(fields))
	out = append(out, args[0])
	out = append(out, fields...)
	return out, Tracked{Fields: names}, nil
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func parseCursor(v any) (uint64, error) {
	switch c := v.(type) {
	case nil:
		return 0, nil
	case uint64:
		return c, nil
	case ScanPage:
		return c.Cursor, nil
	case string:
		n, err := strconv.ParseUint(c, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid cursor %q", ErrInvalidArgs, c)
		}
		return n, nil
	}
	if n, ok := asInt(v); ok && n >= 0 {
		return uint64(n), nil
	}
	return 0, fmt.Errorf("%w: invalid cursor %v", ErrInvalidArgs, v)
}

// asList flattens list-like values. Scalars and []byte are not lists.
func asList(v any) ([]any, bool) {
	switch v.(type) {
	case nil, string, []byte, resp.KV:
		return nil, false
	case []any, []string:
		return resp.Flatten(v), true
	}
	k := reflect.ValueOf(v).Kind()
	if k == reflect.Slice || k == reflect.Array {
		return resp.Flatten(v), true
	}
	return nil, false
}

func listOrSingle(v any) []any {
	if v == nil {
		return nil
	}
	if l, ok := asList(v); ok {
		return l
	}
	return []any{v}
}

// asOptions converts string-keyed maps to ordered pairs (sorted by key).
func asOptions(v any) (resp.KV, bool) {
	switch m := v.(type) {
	case resp.KV:
		return m, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(resp.KV, 0, len(m))
		for _, k := range keys {
			out = append(out, resp.Pair{Key: k, Value: m[k]})
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	out := make(resp.KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, resp.Pair{Key: k, Value: rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()})
	}
	return out, true
}

func lookup(opts resp.KV, key string) (any, bool) {
	for _, p := range opts {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	default:
		return true
	}
}
