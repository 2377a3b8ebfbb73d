package client

import (
	"context"
	"errors"

	"github.com/hail-framework/framework-sub003/internal/telemetry/metric"
	"github.com/hail-framework/framework-sub003/pkg/cmap"
)

// parked holds persistent connections between uses, keyed by address and
// persistence id. Pop and SetIfAbsent make hand-over atomic, so one parked
// socket is never adopted by two clients.
var parked = cmap.New[string, *conn]()

func parkKey(network, addr, id string) string {
	return network + "://" + addr + "#" + id
}

// park stores cn for reuse. It reports false if another connection already
// holds the slot.
func (c *Client) park(cn *conn) bool {
	network, addr, err := ParseAddress(c.cfg.Address)
	if err != nil {
		return false
	}
	return parked.SetIfAbsent(parkKey(network, addr, c.cfg.PersistentID), cn)
}

// adopt takes a parked connection for this client's key. A connection the
// server closed meanwhile is discarded. The configured database is
// re-selected if the parked socket sits on another one.
func (c *Client) adopt(ctx context.Context, network, addr string) *conn {
	cn, ok := parked.Pop(parkKey(network, addr, c.cfg.PersistentID))
	if !ok {
		return nil
	}
	if !cn.alive() {
		_ = cn.nc.Close()
		c.log.Debug("discarded dead persistent connection", "conn_id", cn.id)
		return nil
	}
	if cn.db != c.database {
		saved := c.authArgs
		c.authArgs = nil
		err := c.handshake(ctx, cn)
		c.authArgs = saved
		if err != nil {
			_ = cn.nc.Close()
			c.log.Warn("persistent connection setup failed", "conn_id", cn.id, "error", err)
			return nil
		}
	}
	c.log.Debug("reusing persistent connection", "conn_id", cn.id)
	return cn
}

// ParkedConnections returns the number of parked persistent connections.
func ParkedConnections() int {
	return parked.Count()
}

// ClosePersistent closes every parked persistent connection.
func ClosePersistent() error {
	var errs []error
	for _, cn := range parked.Drain() {
		if err := cn.nc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RegisterMetrics exposes the parked connection count on reg.
func RegisterMetrics(reg *metric.Registry) {
	reg.MustRegister(metric.NewParkedCollector(ParkedConnections))
}
