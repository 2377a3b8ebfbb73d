// Package main provides the entry point for redis-cli.
//
// redis-cli talks RESP to a Redis server over TCP or a Unix socket:
//
//   - one command: redis-cli do get key
//   - batches from stdin: redis-cli pipeline < cmds.txt
//   - transactions: redis-cli multi [--immediate] < cmds.txt
//   - Pub/Sub: redis-cli subscribe news sport
//   - interactive shell: redis-cli (or redis-cli repl)
//
// Usage:
//
//	redis-cli [global flags] [command] [args]
//	redis-cli -u tcp://127.0.0.1:6380 -a secret -n 2 do hgetall user:1
//	REDIS_ADDRESS=unix:///var/run/redis.sock redis-cli -o json do info
package main
