package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/hail-framework/framework-sub003/internal/redis/command"
	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// Pipeline starts buffering commands until Exec or Discard.
func (c *Client) Pipeline() error {
	switch {
	case c.subscribed:
		return ErrSubscribed
	case c.txLost:
		return ErrTransactionLost
	case c.mode != modeImmediate:
		return ErrPipelineActive
	case c.multi:
		return ErrMultiActive
	}
	c.mode = modePipeline
	c.pending = c.pending[:0]
	c.buf = c.buf[:0]
	return nil
}

// Multi starts a transaction. Inside a pipeline MULTI is buffered like any
// other command; in immediate mode it is sent at once and the following
// commands are queued by the server as they are made.
func (c *Client) Multi(ctx context.Context) error {
	switch {
	case c.subscribed:
		return ErrSubscribed
	case c.txLost:
		return ErrTransactionLost
	case c.multi:
		return ErrMultiActive
	}

	if c.mode == modePipeline {
		c.enqueue(command.Invocation{Name: "multi"})
		c.multi = true
		c.mode = modeTransaction
		return nil
	}

	if _, err := c.exchange(ctx, command.Invocation{Name: "multi"}, resp.ReadOptions{}); err != nil {
		return err
	}
	c.multi = true
	c.pending = c.pending[:0]
	return nil
}

// Exec runs the pipeline or transaction and returns one result per
// command, in submission order. Failed commands yield false. Commands
// queued inside MULTI contribute the elements of the EXEC reply.
//
// ErrTransactionAborted means EXEC returned no results: a watched key
// changed or the server refused the queued commands. ErrTransactionLost
// means the connection died while the transaction was open.
func (c *Client) Exec(ctx context.Context) ([]any, error) {
	if c.txLost {
		c.txLost = false
		return nil, ErrTransactionLost
	}
	defer func() { c.txLost = false }()

	switch {
	case c.subscribed:
		return nil, ErrSubscribed
	case c.mode != modeImmediate:
		return c.flush(ctx)
	case c.multi:
		return c.execImmediate(ctx)
	}

	// EXEC without MULTI: let the server report it.
	_, err := c.exchange(ctx, command.Invocation{Name: "exec"}, resp.ReadOptions{})
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: exec without multi", resp.ErrProtocol)
}

// Discard abandons the pipeline or transaction. A buffered pipeline or a
// lost transaction is dropped without any I/O; an immediate-mode MULTI
// sends DISCARD.
func (c *Client) Discard(ctx context.Context) error {
	if c.txLost {
		c.txLost = false
		return nil
	}

	switch {
	case c.subscribed:
		return ErrSubscribed
	case c.mode != modeImmediate:
		c.mode = modeImmediate
		c.multi = false
		c.pending = nil
		c.buf = c.buf[:0]
		return nil
	}

	inv := command.Invocation{Name: "discard"}
	raw, err := c.exchange(ctx, inv, resp.ReadOptions{})
	c.multi = false
	c.pending = nil
	c.txLost = false
	if err != nil {
		return err
	}
	c.applyEffects(inv, raw)
	return nil
}

func (c *Client) enqueue(inv command.Invocation) {
	c.pending = append(c.pending, inv)
	c.buf = resp.AppendCommand(c.buf, inv.Wire())
}

// flush writes the whole buffer in one write and reads one reply per
// pending command.
func (c *Client) flush(ctx context.Context) ([]any, error) {
	if c.mode == modeTransaction {
		c.enqueue(command.Invocation{Name: "exec"})
	}
	pending := c.pending
	frame := c.buf
	c.mode = modeImmediate
	c.multi = false
	c.pending = nil
	c.buf = nil

	results := make([]any, 0, len(pending))
	if len(pending) == 0 {
		return results, nil
	}
	c.metrics.ObservePipeline(len(pending))
	c.log.Debug("flushing batch", "commands", len(pending), "bytes", len(frame))

	if err := c.write(ctx, frame); err != nil {
		return nil, err
	}

	txStart := -1
	for i, inv := range pending {
		raw, err := c.read(ctx, resp.ReadOptions{
			Command:        inv.Name,
			SuppressQueued: txStart >= 0,
			Deferred:       true,
			Cluster:        c.cfg.Cluster,
		})
		if err != nil {
			return nil, err
		}

		switch {
		case inv.Name == "multi" && txStart < 0:
			txStart = i + 1
		case inv.Name == "exec" && txStart >= 0:
			queued := pending[txStart:i]
			txStart = -1
			c.watching = false
			elems, err := c.unpackExec(queued, raw)
			if err != nil {
				return nil, err
			}
			results = append(results, elems...)
		case txStart >= 0:
			// QUEUED (nil) or a rejected command (false); the outcome
			// arrives with EXEC.
			c.metrics.ObserveCommand(inv.Name, 0, nil)
		default:
			c.metrics.ObserveCommand(inv.Name, 0, nil)
			v, err := c.shape(inv, raw)
			if err != nil {
				return nil, err
			}
			results = append(results, v)
		}
	}
	return results, nil
}

func (c *Client) execImmediate(ctx context.Context) ([]any, error) {
	queued := c.pending
	c.multi = false
	c.pending = nil

	raw, err := c.exchange(ctx, command.Invocation{Name: "exec"}, resp.ReadOptions{})
	c.watching = false
	if err != nil {
		var se *resp.ServerError
		if errors.As(err, &se) && se.Kind == "EXECABORT" {
			return nil, fmt.Errorf("%w: %w", ErrTransactionAborted, se)
		}
		return nil, err
	}
	return c.unpackExec(queued, raw)
}

// unpackExec pairs the EXEC reply elements with the queued commands.
func (c *Client) unpackExec(queued []command.Invocation, raw any) ([]any, error) {
	elems, ok := raw.([]any)
	if !ok {
		return nil, ErrTransactionAborted
	}
	if len(elems) != len(queued) {
		return nil, c.fail(fmt.Errorf("%w: exec returned %d results for %d queued commands",
			resp.ErrProtocol, len(elems), len(queued)))
	}

	out := make([]any, len(elems))
	for i, el := range elems {
		v, err := c.shape(queued[i], el)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
