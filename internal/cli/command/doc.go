// Package command defines the redis-cli commands.
//
// It uses urfave/cli/v2 for parsing. Configuration is layered by
// confloader: YAML file, then REDIS_* environment variables, then flags.
//
//   - root.go: application, global flags, per-run session
//   - config.go: configuration schema and loading
//   - do.go: one command
//   - batch.go: pipeline and multi, commands read from stdin
//   - subscribe.go: subscribe and psubscribe
//   - repl.go: interactive mode
//   - version.go: build information
package command
