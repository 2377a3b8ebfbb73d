package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

var (
	// ErrConnection matches a *ConnectError.
	ErrConnection = errors.New("redis: connection failed")

	// ErrDisconnected reports a stream that ended or failed. The connection
	// is dropped and the next command reconnects.
	ErrDisconnected = errors.New("redis: disconnected")

	// ErrTimedOut reports a read that exceeded the read timeout. The
	// connection is dropped since the stream position is unknown.
	ErrTimedOut = errors.New("redis: read timed out")

	// ErrTransactionLost reports a connection that died while WATCH or an
	// immediate-mode MULTI was active. Commands are refused with it until
	// Exec or Discard ends the transaction.
	ErrTransactionLost = errors.New("redis: connection lost during transaction")

	// ErrTransactionAborted reports an EXEC that returned no results,
	// because a watched key changed or the server refused the transaction.
	ErrTransactionAborted = errors.New("redis: transaction aborted")

	ErrPipelineActive = errors.New("redis: pipeline already active")
	ErrMultiActive    = errors.New("redis: transaction already active")
	ErrSubscribed     = errors.New("redis: connection is in subscribe mode")
	ErrNotSubscribed  = errors.New("redis: connection is not subscribed")
)

// ConnectError reports that Connect gave up.
type ConnectError struct {
	// Attempts is the number of consecutive failed attempts, including
	// those of earlier Connect calls.
	Attempts int
	Address  string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("redis: connect to %s failed after %d attempts: %v", e.Address, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

func (e *ConnectError) Is(target error) bool {
	return target == ErrConnection
}

// classify maps a stream failure to ErrTimedOut or ErrDisconnected.
// Protocol errors are returned unchanged.
func classify(err error) error {
	switch {
	case errors.Is(err, resp.ErrProtocol), errors.Is(err, resp.ErrLimitExceeded):
		return err
	case isTimeout(err):
		return fmt.Errorf("%w: %w", ErrTimedOut, err)
	default:
		return fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
