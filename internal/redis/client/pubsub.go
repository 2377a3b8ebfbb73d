package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hail-framework/framework-sub003/internal/redis/command"
	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// Message is one Pub/Sub delivery.
type Message struct {
	// Kind is "message" or "pmessage".
	Kind string
	// Pattern is the matching pattern of a pmessage, empty otherwise.
	Pattern string
	Channel string
	Payload string
}

// MessageHandler is called for every delivered message. It runs on the
// subscribing goroutine and may call Unsubscribe, PUnsubscribe or Execute
// with subscribe, psubscribe, unsubscribe and punsubscribe. Returning an
// error ends the loop and drops the connection.
type MessageHandler func(c *Client, m Message) error

type subState struct {
	// expected counts confirmations still owed for requests made from
	// inside the loop.
	expected int
	// all is set after an unsubscribe without arguments, whose
	// confirmation count is only known to the server.
	all bool
	// count is the subscription count last reported by the server.
	count int64
}

// Subscribe subscribes to channels and blocks delivering messages to h
// until every subscription is dropped, h returns an error, ctx is done or
// the connection fails.
func (c *Client) Subscribe(ctx context.Context, channels []string, h MessageHandler) error {
	return c.subscribe(ctx, "subscribe", channels, h)
}

// PSubscribe is Subscribe for glob patterns.
func (c *Client) PSubscribe(ctx context.Context, patterns []string, h MessageHandler) error {
	return c.subscribe(ctx, "psubscribe", patterns, h)
}

// Unsubscribe drops the given channel subscriptions, or all of them when
// none are named. It only sends the request; the confirmation is consumed
// by the running loop.
func (c *Client) Unsubscribe(channels ...string) error {
	if !c.subscribed {
		return ErrNotSubscribed
	}
	return c.unsubscribe("unsubscribe", channels)
}

// PUnsubscribe is Unsubscribe for patterns.
func (c *Client) PUnsubscribe(patterns ...string) error {
	if !c.subscribed {
		return ErrNotSubscribed
	}
	return c.unsubscribe("punsubscribe", patterns)
}

func (c *Client) subscribe(ctx context.Context, kind string, targets []string, h MessageHandler) error {
	switch {
	case c.subscribed:
		return ErrSubscribed
	case c.txLost:
		return ErrTransactionLost
	case c.mode != modeImmediate:
		return ErrPipelineActive
	case c.multi:
		return ErrMultiActive
	case len(targets) == 0:
		return fmt.Errorf("%w: %s needs at least one target", command.ErrInvalidArgs, kind)
	case h == nil:
		return fmt.Errorf("%w: %s needs a handler", command.ErrInvalidArgs, kind)
	}

	args := make([]any, 0, len(targets)+1)
	args = append(args, kind)
	for _, t := range targets {
		args = append(args, t)
	}
	if err := c.write(ctx, resp.EncodeCommand(args...)); err != nil {
		return err
	}

	for range targets {
		raw, err := c.read(ctx, resp.ReadOptions{Command: kind})
		if err != nil {
			return err
		}
		conf, ok := parseConfirmation(raw)
		if !ok || conf.kind != kind {
			return c.fail(fmt.Errorf("%w: unexpected %s confirmation %v", resp.ErrProtocol, kind, raw))
		}
		c.sub.count = conf.count
	}
	c.subscribed = true
	c.log.Debug("subscribed", "kind", kind, "targets", len(targets))

	return c.listen(ctx, h)
}

func (c *Client) listen(ctx context.Context, h MessageHandler) error {
	// A blocked read only returns on socket activity, so cancellation
	// closes the socket.
	stop := context.AfterFunc(ctx, func() { _ = c.Abort() })
	defer stop()

	for c.subscribed {
		raw, err := c.read(ctx, resp.ReadOptions{})
		var se *resp.ServerError
		if errors.As(err, &se) {
			return c.fail(fmt.Errorf("%w: error reply while subscribed: %w", resp.ErrProtocol, se))
		}
		if err != nil {
			c.subscribed = false
			c.sub = subState{}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		if m, ok := parseMessage(raw); ok {
			c.metrics.IncMessage(m.Kind)
			if err := h(c, m); err != nil {
				c.log.Warn("message handler failed, dropping subscription", "channel", m.Channel, "error", err)
				c.drop()
				c.resetState()
				return err
			}
			continue
		}

		conf, ok := parseConfirmation(raw)
		if !ok || (c.sub.expected == 0 && !c.sub.all) {
			return c.fail(fmt.Errorf("%w: unexpected reply while subscribed: %v", resp.ErrProtocol, raw))
		}
		if c.sub.expected > 0 {
			c.sub.expected--
		}
		c.sub.count = conf.count
		if conf.count == 0 && strings.HasSuffix(conf.kind, "unsubscribe") {
			c.subscribed = false
			c.sub = subState{}
			c.log.Debug("unsubscribed from all targets")
		}
	}
	return nil
}

// unsubscribe sends an (p)unsubscribe request from inside the loop.
func (c *Client) unsubscribe(kind string, targets []string) error {
	if err := c.sendSub(kind, targets); err != nil {
		return err
	}
	if len(targets) == 0 {
		c.sub.all = true
	} else {
		c.sub.expected += len(targets)
	}
	return nil
}

// addSubscription sends a (p)subscribe request from inside the loop.
func (c *Client) addSubscription(kind string, targets []string) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s needs at least one target", command.ErrInvalidArgs, kind)
	}
	if err := c.sendSub(kind, targets); err != nil {
		return err
	}
	c.sub.expected += len(targets)
	return nil
}

// sendSub writes on the subscribed socket. It never reconnects: a new
// socket would carry none of the subscriptions.
func (c *Client) sendSub(kind string, targets []string) error {
	if c.cn == nil {
		return ErrDisconnected
	}
	args := make([]any, 0, len(targets)+1)
	args = append(args, kind)
	for _, t := range targets {
		args = append(args, t)
	}
	if _, err := c.cn.nc.Write(resp.EncodeCommand(args...)); err != nil {
		return c.fail(err)
	}
	return nil
}

type confirmation struct {
	kind  string
	count int64
}

func parseConfirmation(raw any) (confirmation, bool) {
	arr, ok := raw.([]any)
	if !ok || len(arr) != 3 {
		return confirmation{}, false
	}
	kind, ok := arr[0].(string)
	if !ok {
		return confirmation{}, false
	}
	switch kind {
	case "subscribe", "psubscribe", "unsubscribe", "punsubscribe":
	default:
		return confirmation{}, false
	}
	count, ok := arr[2].(int64)
	if !ok {
		return confirmation{}, false
	}
	return confirmation{kind: kind, count: count}, true
}

func parseMessage(raw any) (Message, bool) {
	arr, ok := raw.([]any)
	if !ok || len(arr) == 0 {
		return Message{}, false
	}
	kind, _ := arr[0].(string)
	str := func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	}

	switch {
	case kind == "message" && len(arr) == 3:
		ch, ok1 := str(arr[1])
		payload, ok2 := str(arr[2])
		if ok1 && ok2 {
			return Message{Kind: kind, Channel: ch, Payload: payload}, true
		}
	case kind == "pmessage" && len(arr) == 4:
		pat, ok1 := str(arr[1])
		ch, ok2 := str(arr[2])
		payload, ok3 := str(arr[3])
		if ok1 && ok2 && ok3 {
			return Message{Kind: kind, Pattern: pat, Channel: ch, Payload: payload}, true
		}
	}
	return Message{}, false
}
