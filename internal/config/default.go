package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultRenewPath               = "/token/renew"
	DefaultTimeout                 = 30 * time.Second
	DefaultTokenDuration           = 20 * time.Minute
	DefaultRenewMargin             = time.Minute
	DefaultInactivityCheckInterval = time.Minute

	DefaultBackend     = "badger"
	DefaultGCInterval  = "10m"
	DefaultRedisAddr   = "127.0.0.1:6379"
	DefaultRedisPrefix = "x2conn:"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultOutput    = "table"
)

// HomeDir returns the x2conn state directory (~/.x2conn).
func HomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".x2conn"
	}
	return filepath.Join(homeDir, ".x2conn")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// DefaultDataDir returns the default badger directory.
func DefaultDataDir() string {
	return filepath.Join(HomeDir(), "data")
}

// Default returns the default client configuration.
func Default() *ClientConfig {
	return &ClientConfig{
		API: APISection{
			RenewPath: DefaultRenewPath,
			Timeout:   DefaultTimeout,
		},
		Session: SessionSection{
			TokenDuration:           DefaultTokenDuration,
			RenewMargin:             DefaultRenewMargin,
			InactivityCheckInterval: DefaultInactivityCheckInterval,
		},
		Storage: StorageSection{
			Backend:    DefaultBackend,
			Dir:        DefaultDataDir(),
			GCInterval: DefaultGCInterval,
			Redis: RedisSection{
				Addr:   DefaultRedisAddr,
				Prefix: DefaultRedisPrefix,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Output: DefaultOutput,
	}
}
