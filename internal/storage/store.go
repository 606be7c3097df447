package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/x2conn/internal/storage/memory"
)

// TokenKey is the key the token is stored under in every backend.
const TokenKey = "token"

// Common errors
var (
	ErrClosed         = errors.New("token store closed")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// TokenStore is durable single-slot persistence for the session token.
type TokenStore interface {
	// Get returns the stored token. ok is false when nothing is stored.
	Get(ctx context.Context) (token string, ok bool, err error)

	// Set overwrites the stored token.
	Set(ctx context.Context, token string) error

	// Clear removes the token; a subsequent Get reports ok == false.
	Clear(ctx context.Context) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Config selects and configures a TokenStore backend.
type Config struct {
	// Backend is one of memory, badger, redis. Default: memory.
	Backend string

	// Badger configures the badger backend.
	Badger KVConfig

	// Redis configures the redis backend.
	Redis RedisConfig

	// EncryptionKey, when set, wraps the backend in a SealedTokenStore.
	EncryptionKey string
}

// Opened is a TokenStore together with the function releasing its resources.
type Opened struct {
	TokenStore
	close func() error
}

// Close releases the backend.
func (o *Opened) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// Open builds the TokenStore described by cfg.
func Open(cfg Config, logger *slog.Logger) (*Opened, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store   TokenStore
		closeFn func() error
	)

	switch cfg.Backend {
	case "", BackendMemory:
		store = memory.NewTokenStore()
	case BackendBadger:
		b, err := NewBadgerTokenStore(cfg.Badger, logger)
		if err != nil {
			return nil, err
		}
		store, closeFn = b, b.Close
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = NewRedisTokenStore(client, cfg.Redis)
		closeFn = client.Close
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	if cfg.EncryptionKey != "" {
		sealed, err := NewSealedTokenStore(store, []byte(cfg.EncryptionKey))
		if err != nil {
			if closeFn != nil {
				_ = closeFn()
			}
			return nil, err
		}
		store = sealed
	}

	logger.Debug("token store opened", "backend", cfg.Backend, "sealed", cfg.EncryptionKey != "")
	return &Opened{TokenStore: store, close: closeFn}, nil
}
