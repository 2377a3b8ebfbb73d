// Package command absorbs Redis's per-command argument and reply conventions.
//
// Normalize maps a method name and call arguments to an Invocation: the
// canonical wire name, the flat wire arguments, and the tracked side values
// that Shape later needs to turn the raw reply into the result callers
// expect (maps for HGETALL/HMGET/INFO, scored maps for ZRANGE WITHSCORES,
// cursor pages for the SCAN family).
//
// Both directions are driven by closed tables keyed by lower-case command
// name. Names missing from the tables pass through unchanged.
package command
