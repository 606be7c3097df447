package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/x2conn/internal/storage"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ClientConfig) error {
	if err := verifyAPI(&cfg.API); err != nil {
		return err
	}
	if err := verifySession(&cfg.Session); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if !logger.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Log.Format)
	}
	switch cfg.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("output %q is not one of table, json, yaml", cfg.Output)
	}
	return nil
}

func verifyAPI(cfg *APISection) error {
	if cfg.RenewPath == "" || !strings.HasPrefix(cfg.RenewPath, "/") {
		return errors.New("api.renew_path must start with /")
	}
	if cfg.ConfigPath != "" && !strings.HasPrefix(cfg.ConfigPath, "http://") && !strings.HasPrefix(cfg.ConfigPath, "https://") {
		return errors.New("api.config_path must be an http(s) URL")
	}
	if cfg.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	if cfg.RequestsPerSecond < 0 {
		return errors.New("api.requests_per_second must not be negative")
	}
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		return errors.New("api.tls.cert_file and api.tls.key_file must be set together")
	}
	return nil
}

func verifySession(cfg *SessionSection) error {
	if cfg.TokenDuration <= 0 {
		return errors.New("session.token_duration must be positive")
	}
	if cfg.RenewMargin < 0 || cfg.RenewMargin >= cfg.TokenDuration {
		return errors.New("session.renew_margin must be in [0, token_duration)")
	}
	if cfg.InactivityCheckInterval < 0 {
		return errors.New("session.inactivity_check_interval must not be negative")
	}
	if cfg.InactivityTimeout < 0 {
		return errors.New("session.inactivity_timeout must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case "", storage.BackendMemory:
	case storage.BackendBadger:
		if cfg.Dir == "" {
			return errors.New("storage.dir is required for the badger backend")
		}
	case storage.BackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, badger, redis", cfg.Backend)
	}
	return nil
}
