package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/yndnr/x2conn/internal/infra/confloader"
	"github.com/yndnr/x2conn/internal/infra/tlsroots"
	"github.com/yndnr/x2conn/internal/storage"
)

// Load reads path over the defaults, then X2CONN_* variables.
// A missing file at the default path is not an error; an explicit
// path must exist.
func Load(path string) (*ClientConfig, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return nil, fmt.Errorf("config file: %w", err)
		}
		path = ""
	}

	cfg := Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StorageConfig converts the storage section for storage.Open.
func (c *ClientConfig) StorageConfig() storage.Config {
	kv := storage.DefaultKVConfig(c.Storage.Dir)
	if c.Storage.GCInterval != "" {
		kv.Badger.GCInterval = c.Storage.GCInterval
	}
	return storage.Config{
		Backend: c.Storage.Backend,
		Badger:  kv,
		Redis: storage.RedisConfig{
			Addr:     c.Storage.Redis.Addr,
			Password: c.Storage.Redis.Password,
			DB:       c.Storage.Redis.DB,
			Prefix:   c.Storage.Redis.Prefix,
			TTL:      c.Storage.Redis.TTL,
		},
		EncryptionKey: c.Storage.EncryptionKey,
	}
}

// TLSOptions converts the api.tls section for tlsroots.NewClientConfig.
func (c *ClientConfig) TLSOptions() tlsroots.Options {
	t := c.API.TLS
	return tlsroots.Options{
		CAFile:             t.CAFile,
		CADir:              t.CADir,
		CertFile:           t.CertFile,
		KeyFile:            t.KeyFile,
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}
}
