package command

import (
	"errors"
	"sort"
	"strings"

	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// ErrInvalidArgs reports call arguments that do not fit the command's shape.
var ErrInvalidArgs = errors.New("command: invalid arguments")

// Tracked holds caller-supplied values that the raw reply alone cannot
// reconstruct.
type Tracked struct {
	// Fields are the requested fields of HMGET, in request order.
	Fields []string
	// WithScores is set when a z*range* call asked for scores.
	WithScores bool
	// Cursor is the cursor sent with a SCAN family call.
	Cursor uint64
}

// Invocation is one normalized command.
type Invocation struct {
	Name    string
	Args    []any
	Tracked Tracked
}

// Wire returns the full wire argument list, command name first.
func (inv Invocation) Wire() []any {
	out := make([]any, 0, len(inv.Args)+1)
	out = append(out, inv.Name)
	return append(out, inv.Args...)
}

// argShaper converts call arguments into wire arguments.
type argShaper func(args []any) ([]any, Tracked, error)

var aliases = map[string]string{
	"zsize":   "zcard",
	"zdelete": "zrem",
}

var argShapers = map[string]argShaper{
	"eval":             shapeEval,
	"evalsha":          shapeEval,
	"zunionstore":      shapeZStore,
	"zinterstore":      shapeZStore,
	"set":              shapeSet,
	"scan":             shapeScan(false),
	"hscan":            shapeScan(true),
	"sscan":            shapeScan(true),
	"zscan":            shapeScan(true),
	"zrange":           shapeZRange,
	"zrevrange":        shapeZRange,
	"zrangebyscore":    shapeZRange,
	"zrevrangebyscore": shapeZRange,
	"mget":             shapeMGet,
	"hmset":            shapeHMSet,
	"hmget":            shapeHMGet,
}

// Normalize maps a method name and its call arguments to an Invocation.
func Normalize(name string, args ...any) (Invocation, error) {
	name = strings.ToLower(name)
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	inv := Invocation{Name: name}
	shaper, ok := argShapers[name]
	if !ok {
		inv.Args = resp.Flatten(args...)
		return inv, nil
	}

	wire, tracked, err := shaper(args)
	if err != nil {
		return Invocation{}, err
	}
	inv.Args = wire
	inv.Tracked = tracked
	return inv, nil
}

// Known returns the names with special argument or reply handling, sorted.
func Known() []string {
	seen := make(map[string]struct{}, len(argShapers)+len(replyShapers)+len(aliases))
	for n := range argShapers {
		seen[n] = struct{}{}
	}
	for n := range replyShapers {
		seen[n] = struct{}{}
	}
	for n := range aliases {
		seen[n] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
