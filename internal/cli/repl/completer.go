package repl

import (
	"sort"
	"strings"

	"github.com/hail-framework/framework-sub003/internal/redis/command"
)

// Builtins are handled by the REPL itself.
var Builtins = []string{"help", "history", "exit", "quit"}

var commonCommands = []string{
	"append", "auth", "dbsize", "decr", "decrby", "del", "echo", "exists",
	"expire", "flushdb", "get", "getset", "hdel", "hexists", "hget", "hincrby",
	"hkeys", "hlen", "hset", "hvals", "incr", "incrby", "keys", "lindex",
	"llen", "lpop", "lpush", "lrange", "ping", "publish", "rpop", "rpush",
	"sadd", "scard", "select", "setex", "setnx", "sismember", "smembers",
	"srem", "strlen", "type", "unwatch", "watch", "zadd", "zincrby", "zrank",
	"zscore",
	"pipeline", "multi", "exec", "discard",
}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over names, or over every command the
// client knows plus the REPL builtins when names is empty.
func NewCompleter(names ...string) *Completer {
	if len(names) == 0 {
		names = append(append(append([]string(nil), command.Known()...), commonCommands...), Builtins...)
	}

	seen := make(map[string]struct{}, len(names))
	cmds := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(n)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		cmds = append(cmds, n)
	}
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
