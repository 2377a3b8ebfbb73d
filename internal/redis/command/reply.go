package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// ScanPage is one page of a SCAN family iteration. Pass Cursor (or the page
// itself) back as the cursor argument to fetch the next page.
type ScanPage struct {
	Cursor uint64
	// Items holds the elements returned by SCAN and SSCAN.
	Items []any
	// Fields holds the field/value (HSCAN) or member/score (ZSCAN) pairs.
	Fields map[string]any
}

// Done reports whether the server signalled the end of the iteration.
func (p ScanPage) Done() bool {
	return p.Cursor == 0
}

type replyShaper func(inv Invocation, raw any) (any, error)

var replyShapers = map[string]replyShaper{
	"hgetall":          shapeHashReply,
	"config":           shapeHashReply,
	"info":             shapeInfoReply,
	"ttl":              shapeTTLReply,
	"hmget":            shapeHMGetReply,
	"scan":             shapeScanReply(false),
	"sscan":            shapeScanReply(false),
	"hscan":            shapeScanReply(true),
	"zscan":            shapeScanReply(true),
	"zrange":           shapeScoredReply,
	"zrevrange":        shapeScoredReply,
	"zrangebyscore":    shapeScoredReply,
	"zrevrangebyscore": shapeScoredReply,
}

// Shape converts a raw reply into the result callers of inv expect.
// A nil reply (a queued command) and reply shapes a shaper does not
// recognize, such as a deferred false, are returned untouched.
func Shape(inv Invocation, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	shaper, ok := replyShapers[inv.Name]
	if !ok {
		return raw, nil
	}
	return shaper(inv, raw)
}

func shapeHashReply(_ Invocation, raw any) (any, error) {
	arr, ok := raw.([]any)
	if !ok {
		return raw, nil
	}
	return pairsToMap(arr)
}

func shapeInfoReply(_ Invocation, raw any) (any, error) {
	text, ok := raw.(string)
	if !ok {
		return raw, nil
	}
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\r\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		out[k] = v
	}
	return out, nil
}

// shapeTTLReply collapses "no expiry" to false. A missing key (-2) is
// returned as is.
func shapeTTLReply(_ Invocation, raw any) (any, error) {
	if n, ok := raw.(int64); ok && n == -1 {
		return false, nil
	}
	return raw, nil
}

func shapeHMGetReply(inv Invocation, raw any) (any, error) {
	arr, ok := raw.([]any)
	if !ok {
		return raw, nil
	}
	fields := inv.Tracked.Fields
	if len(arr) != len(fields) {
		return nil, fmt.Errorf("%w: hmget requested %d fields, got %d values", resp.ErrProtocol, len(fields), len(arr))
	}
	out := make(map[string]any, len(fields))
	for i, f := range fields {
		out[f] = arr[i]
	}
	return out, nil
}

func shapeScanReply(paired bool) replyShaper {
	return func(_ Invocation, raw any) (any, error) {
		arr, ok := raw.([]any)
		if !ok {
			return raw, nil
		}
		if len(arr) != 2 {
			return nil, fmt.Errorf("%w: scan reply has %d elements", resp.ErrProtocol, len(arr))
		}

		cursor, err := strconv.ParseUint(resp.FormatArg(arr[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid scan cursor %v", resp.ErrProtocol, arr[0])
		}
		page := ScanPage{Cursor: cursor}

		items, _ := arr[1].([]any)
		if !paired {
			if items == nil {
				items = []any{}
			}
			page.Items = items
			return page, nil
		}

		fields, err := pairsToMap(items)
		if err != nil {
			return nil, err
		}
		page.Fields = fields
		return page, nil
	}
}

func shapeScoredReply(inv Invocation, raw any) (any, error) {
	if !inv.Tracked.WithScores {
		return raw, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return raw, nil
	}
	if len(arr)%2 != 0 {
		return nil, fmt.Errorf("%w: odd member/score list of %d elements", resp.ErrProtocol, len(arr))
	}
	out := make(map[string]float64, len(arr)/2)
	for i := 0; i < len(arr); i += 2 {
		score, err := strconv.ParseFloat(resp.FormatArg(arr[i+1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid score %v", resp.ErrProtocol, arr[i+1])
		}
		out[resp.FormatArg(arr[i])] = score
	}
	return out, nil
}

func pairsToMap(arr []any) (map[string]any, error) {
	if len(arr)%2 != 0 {
		return nil, fmt.Errorf("%w: odd key/value list of %d elements", resp.ErrProtocol, len(arr))
	}
	out := make(map[string]any, len(arr)/2)
	for i := 0; i < len(arr); i += 2 {
		out[resp.FormatArg(arr[i])] = arr[i+1]
	}
	return out, nil
}
