package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// BadgerTokenStore persists the token in an embedded Badger database.
type BadgerTokenStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	closed     atomic.Bool

	metricsTotalSize  prometheus.Gauge
	metricsLastGCTime prometheus.Gauge
	metricsWrites     *prometheus.CounterVec

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewBadgerTokenStore opens (or creates) the database in cfg.Dir.
func NewBadgerTokenStore(cfg KVConfig, logger *slog.Logger) (*BadgerTokenStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.BlockCacheSize = cfg.Badger.CacheSize
	opts.ValueLogFileSize = cfg.Badger.ValueLogFileSize
	opts.SyncWrites = cfg.Badger.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerTokenStore{
		db:     db,
		cfg:    cfg.Badger,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go s.gcLoop()

	logger.Debug("badger token store opened", "dir", cfg.Dir)
	return s, nil
}

// Get returns the stored token.
func (s *BadgerTokenStore) Get(_ context.Context) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(TokenKey))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("badger: get token: %w", err)
	}
	return string(value), true, nil
}

// Set overwrites the stored token.
func (s *BadgerTokenStore) Set(_ context.Context, token string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(TokenKey), []byte(token))
	})
	s.observeWrite("set", err)
	if err != nil {
		return fmt.Errorf("badger: set token: %w", err)
	}
	return nil
}

// Clear removes the stored token.
func (s *BadgerTokenStore) Clear(_ context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(TokenKey))
	})
	s.observeWrite("clear", err)
	if err != nil {
		return fmt.Errorf("badger: clear token: %w", err)
	}
	return nil
}

// GC runs value log garbage collection until nothing more can be rewritten.
func (s *BadgerTokenStore) GC() error {
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
	}
	s.lastGCTime.Store(time.Now().UnixMilli())
	return nil
}

// Close stops the GC loop and closes the database. It is safe to call twice.
func (s *BadgerTokenStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
		s.logger.Debug("badger token store closed")
	})
	return err
}

// RegisterMetrics registers store metrics with Prometheus.
// Returns the store for method chaining.
func (s *BadgerTokenStore) RegisterMetrics(registry prometheus.Registerer) *BadgerTokenStore {
	s.metricsTotalSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "x2conn",
		Subsystem: "token_store",
		Name:      "size_bytes",
		Help:      "Badger token store size in bytes (LSM + value log)",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "x2conn",
		Subsystem: "token_store",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value log GC run",
	})
	s.metricsWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "x2conn",
		Subsystem: "token_store",
		Name:      "writes_total",
		Help:      "Token store writes by operation and result",
	}, []string{"op", "result"})

	registry.MustRegister(s.metricsTotalSize, s.metricsLastGCTime, s.metricsWrites)
	s.refreshMetrics()
	return s
}

func (s *BadgerTokenStore) observeWrite(op string, err error) {
	if s.metricsWrites == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metricsWrites.WithLabelValues(op, result).Inc()
}

func (s *BadgerTokenStore) refreshMetrics() {
	if s.metricsTotalSize == nil {
		return
	}
	lsm, vlog := s.db.Size()
	s.metricsTotalSize.Set(float64(lsm + vlog))
	if last := s.lastGCTime.Load(); last > 0 {
		s.metricsLastGCTime.Set(float64(last) / 1000.0)
	}
}

// gcLoop runs periodic garbage collection.
func (s *BadgerTokenStore) gcLoop() {
	defer close(s.doneCh)

	interval, err := time.ParseDuration(s.cfg.GCInterval)
	if err != nil || interval <= 0 {
		s.logger.Warn("invalid gc_interval, using default 10m", "value", s.cfg.GCInterval)
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.GC(); err != nil {
				s.logger.Error("token store gc failed", "error", err)
			}
			s.refreshMetrics()
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
