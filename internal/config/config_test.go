package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/x2conn/internal/storage"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.RenewPath != DefaultRenewPath {
		t.Errorf("RenewPath = %q, want %q", cfg.API.RenewPath, DefaultRenewPath)
	}
	if cfg.Session.TokenDuration != 20*time.Minute {
		t.Errorf("TokenDuration = %v, want 20m", cfg.Session.TokenDuration)
	}
	if cfg.Session.RenewMargin != time.Minute {
		t.Errorf("RenewMargin = %v, want 1m", cfg.Session.RenewMargin)
	}
	if cfg.Storage.Backend != DefaultBackend {
		t.Errorf("Backend = %q, want %q", cfg.Storage.Backend, DefaultBackend)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("default config should verify: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://api.example.com
  headers:
    X-App: portal
session:
  token_duration: 30m
  inactivity_timeout: 5m
storage:
  backend: memory
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("X2CONN_SESSION_RENEW_MARGIN", "2m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Headers["X-App"] != "portal" {
		t.Errorf("Headers = %v", cfg.API.Headers)
	}
	if cfg.Session.TokenDuration != 30*time.Minute {
		t.Errorf("TokenDuration = %v, want 30m", cfg.Session.TokenDuration)
	}
	if cfg.Session.InactivityTimeout != 5*time.Minute {
		t.Errorf("InactivityTimeout = %v, want 5m", cfg.Session.InactivityTimeout)
	}
	if cfg.Session.RenewMargin != 2*time.Minute {
		t.Errorf("RenewMargin = %v, env should override", cfg.Session.RenewMargin)
	}
	if cfg.API.RenewPath != DefaultRenewPath {
		t.Errorf("RenewPath default lost: %q", cfg.API.RenewPath)
	}
	if cfg.Storage.Backend != storage.BackendMemory {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() should fail for a missing explicit file")
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.TokenDuration != DefaultTokenDuration {
		t.Errorf("TokenDuration = %v", cfg.Session.TokenDuration)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string
	}{
		{"renew path", func(c *ClientConfig) { c.API.RenewPath = "token/renew" }, "api.renew_path"},
		{"config path scheme", func(c *ClientConfig) { c.API.ConfigPath = "/cfg.json" }, "api.config_path"},
		{"negative rps", func(c *ClientConfig) { c.API.RequestsPerSecond = -1 }, "requests_per_second"},
		{"tls cert without key", func(c *ClientConfig) { c.API.TLS.CertFile = "client.crt" }, "api.tls"},
		{"zero duration", func(c *ClientConfig) { c.Session.TokenDuration = 0 }, "token_duration"},
		{"margin too large", func(c *ClientConfig) { c.Session.RenewMargin = c.Session.TokenDuration }, "renew_margin"},
		{"negative timeout", func(c *ClientConfig) { c.Session.InactivityTimeout = -time.Second }, "inactivity_timeout"},
		{"unknown backend", func(c *ClientConfig) { c.Storage.Backend = "etcd" }, "storage.backend"},
		{"badger without dir", func(c *ClientConfig) { c.Storage.Dir = "" }, "storage.dir"},
		{"redis without addr", func(c *ClientConfig) {
			c.Storage.Backend = storage.BackendRedis
			c.Storage.Redis.Addr = ""
		}, "storage.redis.addr"},
		{"log level", func(c *ClientConfig) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *ClientConfig) { c.Log.Format = "xml" }, "log.format"},
		{"output", func(c *ClientConfig) { c.Output = "csv" }, "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Storage.EncryptionKey = "super-secret-key-1234567890"
	cfg.Storage.Redis.Password = "redis-pass"
	cfg.API.Headers = map[string]string{"X-Api-Key": "abcdef123", "X-App": "portal"}

	sanitized := Sanitize(cfg)

	// Original should be unchanged
	if cfg.Storage.EncryptionKey != "super-secret-key-1234567890" {
		t.Error("Original config should not be modified")
	}
	if cfg.API.Headers["X-Api-Key"] != "abcdef123" {
		t.Error("Original headers should not be modified")
	}

	if sanitized.Storage.EncryptionKey == cfg.Storage.EncryptionKey {
		t.Error("Sanitized config should mask the encryption key")
	}
	if len(sanitized.Storage.EncryptionKey) != len(cfg.Storage.EncryptionKey) {
		t.Errorf("Masked key length = %d, want %d", len(sanitized.Storage.EncryptionKey), len(cfg.Storage.EncryptionKey))
	}
	if sanitized.Storage.Redis.Password != "re******ss" {
		t.Errorf("Redis password = %q", sanitized.Storage.Redis.Password)
	}
	if sanitized.API.Headers["X-Api-Key"] != "ab*****23" {
		t.Errorf("X-Api-Key = %q", sanitized.API.Headers["X-Api-Key"])
	}
	if sanitized.API.Headers["X-App"] != "portal" {
		t.Errorf("X-App = %q", sanitized.API.Headers["X-App"])
	}
}

func TestMaskSecret_Short(t *testing.T) {
	if got := maskSecret("abc"); got != "****" {
		t.Errorf("maskSecret(abc) = %q", got)
	}
}

func TestStorageConfig(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = "/tmp/x2"
	cfg.Storage.GCInterval = "5m"
	cfg.Storage.EncryptionKey = "k"

	sc := cfg.StorageConfig()
	if sc.Backend != storage.BackendBadger || sc.Badger.Dir != "/tmp/x2" {
		t.Errorf("storage config = %+v", sc)
	}
	if sc.Badger.Badger.GCInterval != "5m" {
		t.Errorf("GCInterval = %q", sc.Badger.Badger.GCInterval)
	}
	if sc.Redis.Prefix != DefaultRedisPrefix || sc.EncryptionKey != "k" {
		t.Errorf("redis/encryption not carried: %+v", sc)
	}
}

func TestTLSOptions(t *testing.T) {
	cfg := Default()
	if !cfg.TLSOptions().IsZero() {
		t.Error("default TLS options not zero")
	}

	cfg.API.TLS = TLSSection{CAFile: "ca.pem", CertFile: "c.crt", KeyFile: "c.key", ServerName: "api"}
	opts := cfg.TLSOptions()
	if opts.CAFile != "ca.pem" || opts.CertFile != "c.crt" || opts.KeyFile != "c.key" || opts.ServerName != "api" {
		t.Errorf("TLSOptions() = %+v", opts)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() with full TLS section = %v", err)
	}
}
