package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// Dialer opens stream connections. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// conn is one established socket and its read buffer.
type conn struct {
	id string
	nc net.Conn
	r  *bufio.Reader
	// db is the database currently selected on the socket.
	db int
}

func newConn(nc net.Conn) *conn {
	return &conn{
		id: ulid.Make().String(),
		nc: nc,
		r:  bufio.NewReaderSize(nc, 16*1024),
	}
}

// alive reports whether the peer has not closed the socket. Buffered but
// unread bytes count as alive; the next read deals with them.
func (cn *conn) alive() bool {
	if cn.r.Buffered() > 0 {
		return true
	}
	// An expired deadline from the previous read would fail the check.
	_ = cn.nc.SetReadDeadline(time.Time{})
	return peekAlive(cn.nc)
}

// Connect establishes the connection if there is none. A parked persistent
// connection is adopted first when configured. Otherwise up to
// MaxConnectRetries+1 attempts are made, spaced by RetryInterval; the
// returned *ConnectError counts every consecutive failure since the last
// successful connect.
func (c *Client) Connect(ctx context.Context) error {
	if c.cn != nil {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	network, addr, _ := ParseAddress(c.cfg.Address)

	if c.cfg.Persistent {
		if cn := c.adopt(ctx, network, addr); cn != nil {
			c.install(cn)
			return nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxConnectRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		nc, err := c.dial(ctx, network, addr)
		if err != nil {
			c.failures++
			lastErr = err
			c.metrics.IncConnectFailure()
			c.log.Warn("connect attempt failed",
				"attempt", attempt+1,
				"failures", c.failures,
				"error", err,
			)
			continue
		}

		c.failures = 0
		cn := newConn(nc)
		if err := c.handshake(ctx, cn); err != nil {
			_ = nc.Close()
			c.log.Error("connection setup failed", "conn_id", cn.id, "error", err)
			return err
		}
		c.install(cn)
		c.log.Debug("connected", "conn_id", cn.id, "network", network)
		return nil
	}

	return &ConnectError{Attempts: c.failures, Address: c.cfg.Address, Err: lastErr}
}

func (c *Client) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	return c.dialer.DialContext(ctx, network, addr)
}

// handshake authenticates and selects the database on a fresh socket. Both
// commands go out in one write.
func (c *Client) handshake(ctx context.Context, cn *conn) error {
	var frames [][]any
	if len(c.authArgs) > 0 {
		frames = append(frames, append([]any{"auth"}, c.authArgs...))
	}
	if c.database != 0 {
		frames = append(frames, []any{"select", c.database})
	}
	if len(frames) == 0 {
		return nil
	}

	var buf []byte
	for _, f := range frames {
		buf = resp.AppendCommand(buf, f)
	}

	deadline := c.readDeadline(ctx)
	if deadline.IsZero() && c.cfg.Timeout > 0 {
		deadline = time.Now().Add(c.cfg.Timeout)
	}
	_ = cn.nc.SetDeadline(deadline)
	defer func() { _ = cn.nc.SetDeadline(time.Time{}) }()

	if _, err := cn.nc.Write(buf); err != nil {
		return classify(err)
	}
	for range frames {
		if _, err := resp.ReadReply(cn.r, resp.ReadOptions{}); err != nil {
			var se *resp.ServerError
			if errors.As(err, &se) {
				return se
			}
			return classify(err)
		}
	}
	cn.db = c.database
	return nil
}

func (c *Client) install(cn *conn) {
	c.mu.Lock()
	c.cn = cn
	c.mu.Unlock()
	c.log = c.baseLog.With("conn_id", cn.id)
}

// drop closes and forgets the current socket.
func (c *Client) drop() {
	c.mu.Lock()
	cn := c.cn
	c.cn = nil
	c.mu.Unlock()
	if cn != nil {
		_ = cn.nc.Close()
	}
}

// fail handles a stream or protocol error: the socket is dropped, batch
// and transaction state is reset, and the classified error is returned.
// A failure under WATCH or an immediate-mode MULTI is wrapped with
// ErrTransactionLost and latched until Exec or Discard.
func (c *Client) fail(err error) error {
	classified := classify(err)
	if errors.Is(classified, resp.ErrProtocol) || errors.Is(classified, resp.ErrLimitExceeded) {
		c.log.Error("protocol error, dropping connection", "error", err)
	} else {
		c.log.Warn("connection failed", "error", err)
	}
	lost := c.transactionOpen()
	c.drop()
	c.resetState()
	if lost {
		c.txLost = true
		c.log.Error("connection lost during transaction", "error", err)
		return fmt.Errorf("%w: %w", ErrTransactionLost, classified)
	}
	return classified
}

// transactionOpen reports whether server-side transaction state would be
// lost with the connection.
func (c *Client) transactionOpen() bool {
	return c.watching || (c.mode == modeImmediate && c.multi)
}

// readDeadline is the earlier of the read timeout and the ctx deadline. A
// subscribed connection waits for messages without a read timeout.
func (c *Client) readDeadline(ctx context.Context) time.Time {
	var d time.Time
	if c.readTimeout > 0 && !c.subscribed {
		d = time.Now().Add(c.readTimeout)
	}
	if dl, ok := ctx.Deadline(); ok && (d.IsZero() || dl.Before(d)) {
		d = dl
	}
	return d
}

// write sends one frame, reconnecting first if the server closed the
// socket since the last exchange.
func (c *Client) write(ctx context.Context, frame []byte) error {
	if c.cn != nil && !c.cn.alive() {
		lost := c.transactionOpen()
		c.drop()
		if lost {
			c.resetState()
			c.txLost = true
			c.log.Error("connection closed by server during transaction")
			return ErrTransactionLost
		}
		c.log.Info("connection closed by server, reconnecting")
		c.metrics.IncReconnect()
	}
	if c.cn == nil {
		if err := c.Connect(ctx); err != nil {
			return err
		}
	}

	var deadline time.Time
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}
	_ = c.cn.nc.SetWriteDeadline(deadline)
	if _, err := c.cn.nc.Write(frame); err != nil {
		return c.fail(err)
	}
	return nil
}

// read reads one reply. Error replies come back as *resp.ServerError and
// leave the connection intact; any other error drops it.
func (c *Client) read(ctx context.Context, opts resp.ReadOptions) (any, error) {
	cn := c.cn
	if cn == nil {
		return nil, ErrDisconnected
	}
	_ = cn.nc.SetReadDeadline(c.readDeadline(ctx))

	raw, err := resp.ReadReply(cn.r, opts)
	if err != nil {
		var se *resp.ServerError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, c.fail(err)
	}
	return raw, nil
}
