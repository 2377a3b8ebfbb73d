package client

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// DefaultPort is used when an address names a host only.
const DefaultPort = "6379"

// Config holds connection settings. Field tags follow the confloader keys.
type Config struct {
	// Address is tcp://host:port, unix:///path/to.sock, host:port, or an
	// absolute socket path.
	Address string `koanf:"address"`

	// Timeout bounds each connection attempt.
	Timeout time.Duration `koanf:"timeout"`

	// ReadTimeout bounds each reply read. Zero or negative disables it.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// Username and Password are sent with AUTH on every (re)connect.
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// Database is selected on every (re)connect when non-zero.
	Database int `koanf:"database"`

	// Persistent parks the connection on Close for reuse by a later client
	// with the same address and PersistentID.
	Persistent   bool   `koanf:"persistent"`
	PersistentID string `koanf:"persistent_id"`

	// MaxConnectRetries is the number of extra attempts made by one Connect.
	MaxConnectRetries int `koanf:"max_connect_retries"`

	// RetryInterval is the minimum spacing between connection attempts.
	RetryInterval time.Duration `koanf:"retry_interval"`

	// Cluster returns MOVED and ASK replies as *resp.Redirect values.
	Cluster bool `koanf:"cluster"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Address:       "tcp://127.0.0.1:" + DefaultPort,
		Timeout:       5 * time.Second,
		RetryInterval: 100 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if _, _, err := ParseAddress(c.Address); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.Database < 0 {
		errs = append(errs, fmt.Errorf("database %d must not be negative", c.Database))
	}
	if c.MaxConnectRetries < 0 {
		errs = append(errs, errors.New("max_connect_retries must not be negative"))
	}
	if c.RetryInterval < 0 {
		errs = append(errs, errors.New("retry_interval must not be negative"))
	}
	if c.Username != "" && c.Password == "" {
		errs = append(errs, errors.New("username requires a password"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}

// ParseAddress splits an address into a network ("tcp" or "unix") and a
// dial address.
func ParseAddress(address string) (network, addr string, err error) {
	switch {
	case address == "":
		return "", "", errors.New("address is empty")
	case strings.HasPrefix(address, "unix://"):
		path := strings.TrimPrefix(address, "unix://")
		if path == "" {
			return "", "", fmt.Errorf("address %q has no socket path", address)
		}
		return "unix", path, nil
	case strings.HasPrefix(address, "/"):
		return "unix", address, nil
	case strings.HasPrefix(address, "tcp://"):
		address = strings.TrimPrefix(address, "tcp://")
	case strings.Contains(address, "://"):
		return "", "", fmt.Errorf("address %q has an unsupported scheme", address)
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		// Host without a port.
		if strings.Contains(err.Error(), "missing port") {
			return "tcp", net.JoinHostPort(strings.Trim(address, "[]"), DefaultPort), nil
		}
		return "", "", fmt.Errorf("address %q: %w", address, err)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return "tcp", net.JoinHostPort(host, port), nil
}
