// Package logger provides structured logging for the Redis client and its
// command-line tools.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: construction, output format and the process-wide level
//   - context.go: carrying a logger through a context.Context
//   - redact.go: masking of credentials before they reach the output
//
// Passwords never reach the output: attributes whose key names a credential
// are replaced, AUTH command lines keep only the verb, and the userinfo of
// redis:// URLs is masked.
package logger
