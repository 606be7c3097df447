package config

import "time"

// ClientConfig is the root configuration for x2conn.
type ClientConfig struct {
	API     APISection     `koanf:"api" yaml:"api"`
	Session SessionSection `koanf:"session" yaml:"session"`
	Storage StorageSection `koanf:"storage" yaml:"storage"`
	Log     LogSection     `koanf:"log" yaml:"log"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics"`

	// Output is the default CLI output format (table, json, yaml).
	Output string `koanf:"output" yaml:"output"`
}

// APISection configures the remote X2 API.
type APISection struct {
	// BaseURL is used directly when set.
	BaseURL string `koanf:"base_url" yaml:"base_url"`

	// ConfigPath is a URL serving a JSON document with the environment.
	ConfigPath string `koanf:"config_path" yaml:"config_path"`

	// Environment applies when BaseURL is given without ConfigPath.
	Environment string `koanf:"environment" yaml:"environment"`

	// Headers are sent with every request.
	Headers map[string]string `koanf:"headers" yaml:"headers"`

	// RenewPath is the token renewal endpoint.
	RenewPath string `koanf:"renew_path" yaml:"renew_path"`

	Timeout           time.Duration `koanf:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second" yaml:"requests_per_second"`

	TLS TLSSection `koanf:"tls" yaml:"tls"`
}

// TLSSection configures the HTTPS transport to the API.
type TLSSection struct {
	CAFile             string `koanf:"ca_file" yaml:"ca_file,omitempty"`
	CADir              string `koanf:"ca_dir" yaml:"ca_dir,omitempty"`
	CertFile           string `koanf:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile            string `koanf:"key_file" yaml:"key_file,omitempty"`
	ServerName         string `koanf:"server_name" yaml:"server_name,omitempty"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`
}

// SessionSection configures the token lifecycle.
type SessionSection struct {
	TokenDuration           time.Duration `koanf:"token_duration" yaml:"token_duration"`
	RenewMargin             time.Duration `koanf:"renew_margin" yaml:"renew_margin"`
	InactivityCheckInterval time.Duration `koanf:"inactivity_check_interval" yaml:"inactivity_check_interval"`

	// InactivityTimeout ends the session after this long without activity.
	// Zero leaves the decision to the renewal timer.
	InactivityTimeout time.Duration `koanf:"inactivity_timeout" yaml:"inactivity_timeout"`

	// WatchInactivity enables activity gating at startup.
	WatchInactivity bool `koanf:"watch_inactivity" yaml:"watch_inactivity"`
}

// StorageSection configures where the token is persisted.
type StorageSection struct {
	// Backend is memory, badger or redis.
	Backend string `koanf:"backend" yaml:"backend"`

	// Dir is the badger data directory.
	Dir string `koanf:"dir" yaml:"dir"`

	// GCInterval is the badger value log GC interval.
	GCInterval string `koanf:"gc_interval" yaml:"gc_interval"`

	Redis RedisSection `koanf:"redis" yaml:"redis"`

	// EncryptionKey seals the token at rest when set.
	EncryptionKey string `koanf:"encryption_key" yaml:"encryption_key"`
}

// RedisSection configures the redis backend.
type RedisSection struct {
	Addr     string        `koanf:"addr" yaml:"addr"`
	Password string        `koanf:"password" yaml:"password"`
	DB       int           `koanf:"db" yaml:"db"`
	Prefix   string        `koanf:"prefix" yaml:"prefix"`
	TTL      time.Duration `koanf:"ttl" yaml:"ttl"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// MetricsSection configures the Prometheus endpoint of keepalive.
type MetricsSection struct {
	// Addr is the listen address; empty disables the endpoint.
	Addr string `koanf:"addr" yaml:"addr"`
}
