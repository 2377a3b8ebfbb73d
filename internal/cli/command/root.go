package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hail-framework/framework-sub003/internal/cli/output"
	"github.com/hail-framework/framework-sub003/internal/infra/buildinfo"
	"github.com/hail-framework/framework-sub003/internal/infra/confloader"
	"github.com/hail-framework/framework-sub003/internal/redis/client"
	"github.com/hail-framework/framework-sub003/internal/telemetry/logger"
	"github.com/hail-framework/framework-sub003/internal/telemetry/metric"
)

const sessionKey = "session"

var registerParked sync.Once

// session is the state shared by the commands of one run.
type session struct {
	cfg       Config
	loader    *confloader.Loader
	log       logger.Logger
	client    *client.Client
	formatter output.Formatter
	metrics   *http.Server
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "redis-cli",
		Usage:   "Redis command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			DoCommand(),
			PipelineCommand(),
			MultiCommand(),
			SubscribeCommand(),
			PSubscribeCommand(),
			REPLCommand(),
			VersionCommand(),
		},
		Before: setup,
		After:  teardown,
		Action: replAction,
	}
}

// globalFlags returns the global CLI flags. Each flag maps onto a config
// key and only overrides it when given.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"C"},
			Usage:   "YAML configuration file",
		},
		&cli.StringFlag{
			Name:    "address",
			Aliases: []string{"u"},
			Usage:   "server address: tcp://host:port, host:port or unix:///path",
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "ACL username",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"a"},
			Usage:   "password for AUTH",
		},
		&cli.IntFlag{
			Name:    "db",
			Aliases: []string{"n"},
			Usage:   "database number",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "connect timeout",
		},
		&cli.DurationFlag{
			Name:  "read-timeout",
			Usage: "per-reply read timeout, 0 to wait forever",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "extra connection attempts after a failure",
		},
		&cli.DurationFlag{
			Name:  "retry-interval",
			Usage: "minimum spacing between connection attempts",
		},
		&cli.BoolFlag{
			Name:  "persistent",
			Usage: "reuse a parked connection within the process",
		},
		&cli.BoolFlag{
			Name:    "cluster",
			Aliases: []string{"c"},
			Usage:   "return MOVED/ASK redirections as replies",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "log format: text, json",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve Prometheus metrics on this address",
		},
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"address":        "address",
	"user":           "username",
	"password":       "password",
	"db":             "database",
	"timeout":        "timeout",
	"read-timeout":   "read_timeout",
	"retries":        "max_connect_retries",
	"retry-interval": "retry_interval",
	"persistent":     "persistent",
	"cluster":        "cluster",
	"output":         "output",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"metrics-addr":   "metrics.addr",
}

// flagOverrides collects the flags that were set explicitly.
func flagOverrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for name, key := range flagKeys {
		if !c.IsSet(name) {
			continue
		}
		out[key] = c.Value(name)
	}
	return out
}

func setup(c *cli.Context) error {
	cfg, loader, err := LoadConfig(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}

	logCfg := cfg.Log
	logCfg.Output = c.App.ErrWriter
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	sess := &session{
		cfg:       cfg,
		loader:    loader,
		log:       log,
		formatter: output.NewFormatter(format),
	}

	opts := []client.Option{client.WithLogger(log)}
	if cfg.Metrics.Addr != "" {
		reg := metric.Global()
		registerParked.Do(func() { client.RegisterMetrics(reg) })
		opts = append(opts, client.WithMetrics(reg))
		if sess.metrics, err = serveMetrics(cfg.Metrics.Addr, reg, log); err != nil {
			return err
		}
	}
	sess.client = client.New(&cfg.Config, opts...)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[sessionKey] = sess
	c.Context = logger.WithLogger(c.Context, log)
	return nil
}

func teardown(c *cli.Context) error {
	sess, ok := c.App.Metadata[sessionKey].(*session)
	if !ok {
		return nil
	}
	var errs []error
	if err := sess.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := client.ClosePersistent(); err != nil {
		errs = append(errs, err)
	}
	if sess.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := sess.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// serveMetrics starts the /metrics endpoint in the background.
func serveMetrics(addr string, reg *metric.Registry, log logger.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}

func getSession(c *cli.Context) (*session, error) {
	sess, ok := c.App.Metadata[sessionKey].(*session)
	if !ok {
		return nil, errors.New("redis-cli is not initialized")
	}
	return sess, nil
}

// stringsToArgs converts command-line words into Execute arguments.
func stringsToArgs(words []string) []any {
	args := make([]any, len(words))
	for i, w := range words {
		args[i] = w
	}
	return args
}
