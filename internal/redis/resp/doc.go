// Package resp implements the client side of the Redis serialization protocol.
//
// It covers both directions of a RESP2 connection:
//
//   - flatten.go: flattening nested argument structures into a wire argument list
//   - encode.go: request framing (`*<n>\r\n$<len>\r\n<payload>\r\n...`)
//   - reader.go: reading one reply (status, error, integer, bulk, multi-bulk)
//   - request.go: decoding request frames, the server-side view used by test doubles
//
// Replies are returned as plain Go values:
//
//	+OK            -> true
//	+QUEUED        -> true, or nil when queued statuses are suppressed
//	+<other>       -> string
//	:<n>           -> int64
//	$<n>           -> string (binary safe)
//	$-1 / *-1      -> false
//	*<n>           -> []any
//	-MOVED / -ASK  -> *Redirect (cluster mode only)
//	-<error>       -> *ServerError, or false when errors are deferred
//
// RESP3 is not supported.
package resp
