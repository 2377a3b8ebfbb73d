package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Protocol limits.
const (
	// MaxLineLen limits a single header, status or error line (64KB).
	MaxLineLen = 64 * 1024

	// MaxBulkLen matches the server's default proto-max-bulk-len (512MB).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen limits the element count of one multi-bulk header.
	MaxArrayLen = 16 * 1024 * 1024

	// maxPrealloc caps the slice capacity reserved from a header; longer
	// arrays grow as elements arrive.
	maxPrealloc = 1024
)

// ReadOptions controls how error and status replies are surfaced.
type ReadOptions struct {
	// Command is the lower-case name of the command the reply belongs to.
	Command string

	// SuppressQueued turns +QUEUED into nil instead of true.
	SuppressQueued bool

	// Deferred turns error replies into false instead of returning them.
	// Batches use it so one failing command cannot break reply ordering.
	Deferred bool

	// Cluster returns MOVED/ASK errors as *Redirect values.
	Cluster bool
}

// ReadReply reads one complete reply from r.
//
// Server errors are returned as *ServerError unless opts says otherwise.
// Stream failures (io.EOF, timeouts) are returned unwrapped so callers can
// classify them; malformed input wraps ErrProtocol.
func ReadReply(r *bufio.Reader, opts ReadOptions) (any, error) {
	line, err := readLine(r, MaxLineLen)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	switch line[0] {
	case '+':
		return readStatus(line[1:], opts), nil
	case '-':
		return readError(line[1:], opts)
	case ':':
		n, err := strconv.ParseInt(line[1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid integer %q", ErrProtocol, line[1:])
		}
		return n, nil
	case '$':
		return readBulk(r, line[1:])
	case '*':
		return readMultiBulk(r, line[1:], opts)
	default:
		return nil, fmt.Errorf("%w: unexpected reply prefix %q", ErrProtocol, line[0])
	}
}

func readStatus(s string, opts ReadOptions) any {
	switch s {
	case "OK":
		return true
	case "QUEUED":
		if opts.SuppressQueued {
			return nil
		}
		return true
	default:
		return s
	}
}

func readError(line string, opts ReadOptions) (any, error) {
	serr := parseServerError(line)
	if opts.Deferred {
		return false, nil
	}
	if serr.Kind == "NOSCRIPT" && opts.Command == "evalsha" {
		return nil, nil
	}
	if opts.Cluster {
		if redirect, ok := parseRedirect(serr); ok {
			return redirect, nil
		}
	}
	return nil, serr
}

func readBulk(r *bufio.Reader, header string) (any, error) {
	n, err := strconv.Atoi(header)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, header)
	}
	if n == -1 {
		return false, nil
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, n)
	}
	if n > MaxBulkLen {
		return nil, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return string(buf[:n]), nil
}

func readMultiBulk(r *bufio.Reader, header string, opts ReadOptions) (any, error) {
	n, err := strconv.Atoi(header)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid multi-bulk length %q", ErrProtocol, header)
	}
	if n == -1 {
		return false, nil
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid multi-bulk length %d", ErrProtocol, n)
	}
	if n > MaxArrayLen {
		return nil, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	// Elements of an EXEC result are per-command outcomes; one failed
	// command must not discard the others.
	elemOpts := ReadOptions{Command: opts.Command, Deferred: opts.Deferred || opts.Command == "exec", Cluster: opts.Cluster}

	out := make([]any, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		v, err := ReadReply(r, elemOpts)
		if err != nil {
			var serr *ServerError
			if errors.As(err, &serr) {
				// Nested error replies are values; the stream stays in sync.
				out = append(out, serr)
				continue
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		return "", err
	}

	if len(buf) > maxLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}
