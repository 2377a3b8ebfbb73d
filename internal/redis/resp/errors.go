package resp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrProtocol reports a reply stream that cannot be parsed. The stream is
	// desynchronized after this error and the connection must be dropped.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded reports input beyond one of the Max* limits.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ServerError is an error reply ("-ERR ...") sent by the server.
type ServerError struct {
	// Kind is the leading upper-case token, e.g. ERR, WRONGTYPE, NOSCRIPT.
	Kind    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return e.Kind + " " + e.Message
}

// parseServerError splits an error line (without the leading '-').
func parseServerError(line string) *ServerError {
	kind, msg, _ := strings.Cut(line, " ")
	return &ServerError{Kind: kind, Message: msg}
}

// Redirect is a cluster redirection (MOVED or ASK) returned as a value
// when the reader runs in cluster mode.
type Redirect struct {
	Kind string // MOVED or ASK
	Slot int
	Addr string
}

func (r *Redirect) String() string {
	return fmt.Sprintf("%s %d %s", r.Kind, r.Slot, r.Addr)
}

// parseRedirect parses "MOVED <slot> <host:port>" style errors.
func parseRedirect(e *ServerError) (*Redirect, bool) {
	if e.Kind != "MOVED" && e.Kind != "ASK" {
		return nil, false
	}
	slotStr, addr, ok := strings.Cut(e.Message, " ")
	if !ok {
		return nil, false
	}
	slot, err := strconv.Atoi(slotStr)
	if err != nil {
		return nil, false
	}
	return &Redirect{Kind: e.Kind, Slot: slot, Addr: addr}, true
}
