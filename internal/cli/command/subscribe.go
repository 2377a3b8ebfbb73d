package command

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hail-framework/framework-sub003/internal/infra/confloader"
	"github.com/hail-framework/framework-sub003/internal/infra/shutdown"
	"github.com/hail-framework/framework-sub003/internal/redis/client"
	"github.com/hail-framework/framework-sub003/internal/telemetry/logger"
)

// SubscribeCommand listens on channels until interrupted.
func SubscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Print messages published to channels",
		ArgsUsage: "CHANNEL...",
		Action:    subscribeAction("subscribe"),
	}
}

// PSubscribeCommand listens on glob patterns until interrupted.
func PSubscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "psubscribe",
		Usage:     "Print messages published to channels matching patterns",
		ArgsUsage: "PATTERN...",
		Action:    subscribeAction("psubscribe"),
	}
}

// messageReply renders a message the way the server sends it.
func messageReply(m client.Message) []any {
	if m.Kind == "pmessage" {
		return []any{m.Kind, m.Pattern, m.Channel, m.Payload}
	}
	return []any{m.Kind, m.Channel, m.Payload}
}

func subscribeAction(kind string) cli.ActionFunc {
	return func(c *cli.Context) error {
		sess, err := getSession(c)
		if err != nil {
			return err
		}
		targets := c.Args().Slice()
		if len(targets) == 0 {
			return errors.New(kind + ": at least one target required")
		}

		stopWatch := watchConfig(sess)
		defer stopWatch()

		// SIGINT and SIGTERM abort the blocked read.
		var finished, interrupted atomic.Bool
		sh := shutdown.NewHandler(5 * time.Second)
		sh.OnShutdown(func(context.Context) error {
			if finished.Load() {
				return nil
			}
			interrupted.Store(true)
			return sess.client.Abort()
		})
		go func() { _ = sh.Wait(context.Background()) }()
		defer func() {
			sh.Trigger()
			<-sh.Done()
		}()

		handler := func(cl *client.Client, m client.Message) error {
			logger.L(logger.WithConnID(c.Context, cl.ConnID())).Debug("message received",
				"channel", m.Channel, "bytes", len(m.Payload))
			return sess.formatter.Format(c.App.Writer, messageReply(m))
		}
		if kind == "psubscribe" {
			err = sess.client.PSubscribe(c.Context, targets, handler)
		} else {
			err = sess.client.Subscribe(c.Context, targets, handler)
		}
		finished.Store(true)

		if interrupted.Load() {
			sess.log.Info("subscription interrupted")
			return nil
		}
		return err
	}
}

// watchConfig reloads the log level when the config file changes. It
// returns a function that stops watching.
func watchConfig(sess *session) func() {
	path := sess.loader.FilePath()
	if path == "" {
		return func() {}
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(sess.log))
	if err != nil {
		sess.log.Warn("config watcher unavailable", "error", err)
		return func() {}
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return func() {}
	}

	w.OnChange(func(string) {
		cfg := DefaultConfig()
		if err := sess.loader.Load(&cfg); err != nil {
			sess.log.Warn("config reload failed", "error", err)
			return
		}
		if sess.loader.GetString("log.level") == "" {
			return
		}
		logger.SetLevel(cfg.Log.Level)
		sess.log.Info("config reloaded", "level", logger.GetLevel(), "keys", len(sess.loader.Keys()))
	})
	w.StartAsync()

	return func() { _ = w.Stop() }
}
