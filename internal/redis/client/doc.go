// Package client is a synchronous Redis client speaking RESP2 over one TCP
// or Unix-domain socket.
//
// A Client owns exactly one connection and runs one operation at a time.
// Commands go through Execute, which normalizes arguments, writes the
// request, reads the reply and reshapes it per command (see package
// command). Three execution modes share the one read path:
//
//   - Immediate: each command is written and its reply read at once.
//   - Pipelining: commands are buffered and flushed in a single write by
//     Exec; replies are read back in submission order.
//   - Pipelining with MULTI: as above, with the queued commands' results
//     unpacked from the EXEC reply.
//
// MULTI may also be issued in immediate mode, in which case each command is
// sent as it is made and EXEC returns the results.
//
// Inside batches, error replies become false placeholders so one failing
// command cannot shift the results of the others. In immediate mode they
// are returned as *resp.ServerError.
//
// A connection closed by the server is re-established before the next
// write, except while a WATCH or an immediate-mode MULTI is active. Then
// the call fails with ErrTransactionLost, and so does every later command
// until Exec or Discard ends the transaction.
//
// A Client is not safe for concurrent use. Abort is the exception: it may
// be called from another goroutine to unblock a pending read.
package client
