// Package repl provides the interactive mode of redis-cli.
//
//   - repl.go: read-eval-print loop over an Executor
//   - split.go: redis-cli style argument splitting with quotes
//   - completer.go: command name completion
//   - history.go: command history persistence
package repl
