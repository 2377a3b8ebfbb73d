package client

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hail-framework/framework-sub003/internal/redis/command"
	"github.com/hail-framework/framework-sub003/internal/redis/resp"
	"github.com/hail-framework/framework-sub003/internal/telemetry/logger"
	"github.com/hail-framework/framework-sub003/internal/telemetry/metric"
)

type mode int

const (
	modeImmediate mode = iota
	modePipeline
	modeTransaction
)

func (m mode) String() string {
	switch m {
	case modePipeline:
		return "pipeline"
	case modeTransaction:
		return "transaction"
	default:
		return "immediate"
	}
}

// Client is a single-connection Redis client.
type Client struct {
	cfg     Config
	dialer  Dialer
	baseLog logger.Logger
	log     logger.Logger
	metrics *metric.Registry
	limiter *rate.Limiter

	// mu guards cn against Abort.
	mu sync.Mutex
	cn *conn

	failures    int
	readTimeout time.Duration
	authArgs    []any
	database    int

	mode     mode
	multi    bool
	watching bool
	// txLost refuses commands after a transaction died with its
	// connection, until the caller ends it with Exec or Discard.
	txLost bool

	// pending and buf move in lockstep while buffering: one invocation per
	// encoded frame. In immediate-mode MULTI, pending holds the commands
	// the server queued and buf stays empty.
	pending []command.Invocation
	buf     []byte

	subscribed bool
	sub        subState
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.baseLog = l
	}
}

// WithMetrics records command and connection metrics on reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(c *Client) {
		c.metrics = reg
	}
}

// WithDialer replaces the network dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// New creates a client. No connection is made until the first command or
// an explicit Connect. A nil cfg uses DefaultConfig.
func New(cfg *Config, opts ...Option) *Client {
	c := &Client{cfg: DefaultConfig()}
	if cfg != nil {
		c.cfg = *cfg
	}
	c.dialer = &net.Dialer{}
	c.baseLog = logger.Default()
	for _, opt := range opts {
		opt(c)
	}

	c.baseLog = c.baseLog.With("component", "redis", "addr", c.cfg.Address)
	c.log = c.baseLog
	c.readTimeout = c.cfg.ReadTimeout
	c.database = c.cfg.Database
	if c.cfg.Password != "" {
		if c.cfg.Username != "" {
			c.authArgs = []any{c.cfg.Username, c.cfg.Password}
		} else {
			c.authArgs = []any{c.cfg.Password}
		}
	}

	limit := rate.Inf
	if c.cfg.RetryInterval > 0 {
		limit = rate.Every(c.cfg.RetryInterval)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	return c
}

// Close releases the connection. A persistent client in a clean state
// parks the socket for reuse instead of closing it.
func (c *Client) Close() error {
	cn := c.cn
	if cn == nil {
		return nil
	}
	parkable := c.cfg.Persistent && c.mode == modeImmediate && !c.multi && !c.watching && !c.subscribed

	c.mu.Lock()
	c.cn = nil
	c.mu.Unlock()
	c.resetState()

	if parkable && c.park(cn) {
		c.log.Debug("parked persistent connection")
		return nil
	}
	return cn.nc.Close()
}

// Abort closes the socket so that a read blocked in another goroutine
// returns. It is the only method safe for concurrent use.
func (c *Client) Abort() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cn == nil {
		return nil
	}
	return c.cn.nc.Close()
}

// IsConnected reports whether a socket is held.
func (c *Client) IsConnected() bool {
	return c.cn != nil
}

// ConnID returns the id of the held connection, or "" when disconnected.
func (c *Client) ConnID() string {
	if c.cn == nil {
		return ""
	}
	return c.cn.id
}

// SetReadTimeout changes the per-read timeout. Zero or negative disables
// it. It applies from the next read.
func (c *Client) SetReadTimeout(d time.Duration) {
	c.readTimeout = d
}

// Execute runs one command and returns its normalized reply. While a
// pipeline or transaction is being built the command is buffered and
// Execute returns (nil, nil).
//
// The names pipeline, multi, exec and discard drive the execution mode;
// exec returns []any. unsubscribe and punsubscribe are routed to the
// subscription loop while subscribed.
func (c *Client) Execute(ctx context.Context, name string, args ...any) (any, error) {
	switch strings.ToLower(name) {
	case "pipeline":
		return nil, c.Pipeline()
	case "multi":
		return nil, c.Multi(ctx)
	case "exec":
		res, err := c.Exec(ctx)
		if err != nil {
			return nil, err
		}
		return res, nil
	case "discard":
		return nil, c.Discard(ctx)
	case "unsubscribe", "punsubscribe":
		if c.subscribed {
			return nil, c.unsubscribe(strings.ToLower(name), stringArgs(args))
		}
	case "subscribe", "psubscribe":
		switch {
		case c.subscribed:
			return nil, c.addSubscription(strings.ToLower(name), stringArgs(args))
		case c.mode != modeImmediate:
			return nil, ErrPipelineActive
		case c.multi:
			return nil, ErrMultiActive
		}
	}
	if c.subscribed {
		return nil, ErrSubscribed
	}
	if c.txLost {
		return nil, ErrTransactionLost
	}

	inv, err := command.Normalize(name, args...)
	if err != nil {
		return nil, err
	}
	if c.mode != modeImmediate {
		c.enqueue(inv)
		return nil, nil
	}

	raw, err := c.exchange(ctx, inv, resp.ReadOptions{SuppressQueued: c.multi})
	if err != nil {
		return nil, err
	}
	if c.multi && raw == nil {
		c.pending = append(c.pending, inv)
		return nil, nil
	}
	return c.shape(inv, raw)
}

// exchange writes one command and reads its reply in immediate mode.
func (c *Client) exchange(ctx context.Context, inv command.Invocation, opts resp.ReadOptions) (any, error) {
	opts.Command = inv.Name
	opts.Cluster = c.cfg.Cluster

	c.log.Debug("command", "command", inv.Name, "args", logger.RedactArgs(inv.Name, inv.Args))
	start := time.Now()
	if err := c.write(ctx, resp.EncodeCommand(inv.Wire()...)); err != nil {
		c.metrics.ObserveCommand(inv.Name, 0, err)
		return nil, err
	}
	raw, err := c.read(ctx, opts)
	c.metrics.ObserveCommand(inv.Name, time.Since(start), err)
	return raw, err
}

// shape reshapes a raw reply and tracks connection-level side effects. A
// reply inconsistent with its command is a protocol error and drops the
// connection.
func (c *Client) shape(inv command.Invocation, raw any) (any, error) {
	c.applyEffects(inv, raw)
	v, err := command.Shape(inv, raw)
	if err != nil {
		return nil, c.fail(err)
	}
	return v, nil
}

// applyEffects mirrors server-side session state that must survive a
// reconnect or that decides whether one is allowed.
func (c *Client) applyEffects(inv command.Invocation, raw any) {
	if raw != true {
		return
	}
	switch inv.Name {
	case "watch":
		c.watching = true
	case "unwatch", "discard":
		c.watching = false
	case "select":
		if len(inv.Args) == 1 {
			if db, err := strconv.Atoi(resp.FormatArg(inv.Args[0])); err == nil {
				c.database = db
				if c.cn != nil {
					c.cn.db = db
				}
			}
		}
	case "auth":
		c.authArgs = append([]any(nil), inv.Args...)
	}
}

// resetState returns to immediate mode and forgets every batch,
// transaction and subscription flag.
func (c *Client) resetState() {
	c.mode = modeImmediate
	c.multi = false
	c.watching = false
	c.pending = nil
	c.buf = c.buf[:0]
	c.subscribed = false
	c.sub = subState{}
	c.txLost = false
}

func stringArgs(args []any) []string {
	flat := resp.Flatten(args...)
	out := make([]string, len(flat))
	for i, a := range flat {
		out[i] = resp.FormatArg(a)
	}
	return out
}
