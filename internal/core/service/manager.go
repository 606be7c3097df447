package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yndnr/x2conn/internal/connection"
	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/internal/infra/buildinfo"
	"github.com/yndnr/x2conn/internal/infra/clock"
	"github.com/yndnr/x2conn/internal/storage"
	"github.com/yndnr/x2conn/internal/storage/memory"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
	"github.com/yndnr/x2conn/internal/telemetry/metric"
)

// API paths.
const (
	PathToken             = "/token"
	PathCurrentUser       = "/user/current"
	PathSendPasswordReset = "/user/send-password-reset/"
	PathResetPassword     = "/user/reset-password/"
	PathUpdatePassword    = "/user/update-password/"
	DefaultRenewPath      = "/token/renew"
	DefaultRenewMargin    = time.Minute
	defaultRequestTimeout = 30 * time.Second
)

// Options configures a Manager. Zero values get defaults.
type Options struct {
	// Store persists the token. Default: process memory.
	Store storage.TokenStore

	// Clock drives the session timers. Default: the system clock.
	Clock clock.Clock

	Logger  logger.Logger
	Metrics *metric.Registry

	// HTTPClient is the transport. Default: a client with Timeout.
	HTTPClient *http.Client

	// Timeout bounds each request, including renewals started by timers.
	Timeout time.Duration

	// UserAgent overrides "x2conn/{version}".
	UserAgent string

	// TokenDuration is the token lifetime granted by the API. Default 20m.
	TokenDuration time.Duration

	// RenewMargin moves the renewal timer ahead of expiry. Default 1m.
	RenewMargin time.Duration

	// InactivityCheckInterval is the check cadence. Default 1m.
	InactivityCheckInterval time.Duration

	// InactivityTimeout forces logout after this long without activity.
	InactivityTimeout time.Duration

	// RenewPath is the renewal endpoint. Default /token/renew.
	RenewPath string

	// RequestsPerSecond limits outgoing requests. Zero means unlimited.
	RequestsPerSecond float64
}

func (o Options) withDefaults() Options {
	if o.Store == nil {
		o.Store = memory.NewTokenStore()
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultRequestTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = buildinfo.UserAgent()
	}
	if o.TokenDuration <= 0 {
		o.TokenDuration = domain.DefaultTokenDuration
	}
	if o.RenewMargin <= 0 || o.RenewMargin >= o.TokenDuration {
		o.RenewMargin = DefaultRenewMargin
		if o.RenewMargin >= o.TokenDuration {
			o.RenewMargin = o.TokenDuration / 10
		}
	}
	if o.InactivityCheckInterval <= 0 {
		o.InactivityCheckInterval = DefaultInactivityCheckInterval
	}
	if o.RenewPath == "" {
		o.RenewPath = DefaultRenewPath
	}
	return o
}

// Manager owns one client session against the X2 API.
type Manager struct {
	opts      Options
	store     storage.TokenStore
	clock     clock.Clock
	logger    logger.Logger
	metrics   *metric.Registry
	monitor   *ActivityMonitor
	scheduler *Scheduler
	events    *EventBus
	group     singleflight.Group

	mu       sync.Mutex
	env      domain.EnvironmentConfig
	client   *connection.HTTPClient
	session  domain.Session
	username string
	closed   bool
}

// NewManager creates an uninitialised, unauthenticated manager.
func NewManager(opts Options) (*Manager, error) {
	opts = opts.withDefaults()

	m := &Manager{
		opts:    opts,
		store:   opts.Store,
		clock:   opts.Clock,
		logger:  opts.Logger.With("component", "session"),
		metrics: opts.Metrics,
		monitor: NewActivityMonitor(),
	}
	m.events = NewEventBus(m.logger)
	m.scheduler = NewScheduler(opts.Clock, SchedulerConfig{
		RenewAfter:        opts.TokenDuration - opts.RenewMargin,
		CheckInterval:     opts.InactivityCheckInterval,
		InactivityTimeout: opts.InactivityTimeout,
	}, m.monitor, (*managerHooks)(m), m.logger)

	if err := m.metrics.Register(metric.NewCollector(m.state)); err != nil {
		m.logger.Warn("session collector not registered", "error", err)
	}
	m.metrics.SetAuthenticated(false)

	return m, nil
}

// Environment returns the resolved environment tag, or "" before Init.
func (m *Manager) Environment() domain.Environment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.env.Environment
}

// IsProd reports whether the environment is PROD.
func (m *Manager) IsProd() bool {
	return m.Environment() == domain.EnvProd
}

// EnvironmentConfig returns a copy of the resolved configuration.
func (m *Manager) EnvironmentConfig() domain.EnvironmentConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyEnv(m.env)
}

// Session returns a snapshot of the session.
func (m *Manager) Session() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// IsAuthenticated reports whether a token is held.
func (m *Manager) IsAuthenticated() bool {
	return m.Session().IsAuthenticated()
}

// Username returns the user of the current login, if known.
func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.username
}

// TimersPending reports which session timers are armed.
func (m *Manager) TimersPending() (renew, check bool) {
	return m.scheduler.Pending()
}

// Subscribe registers h for a lifecycle event.
func (m *Manager) Subscribe(name domain.EventName, h Handler) (unsubscribe func()) {
	return m.events.Subscribe(name, h)
}

// WatchForInactivity enables activity gating of renewals. Idempotent.
func (m *Manager) WatchForInactivity() {
	m.monitor.Enable()
}

// RecordActivity reports user activity. It has no effect until
// WatchForInactivity has been called.
func (m *Manager) RecordActivity() {
	m.monitor.RecordActivity()
}

// Close stops the timers without touching the persisted token, so the next
// process can restore the session. Operations after Close fail.
func (m *Manager) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.scheduler.Stop()
	m.logger.Debug("session manager closed", "generation", m.session.Generation)
	return nil
}

// Get performs an authenticated GET relative to the base URL.
func (m *Manager) Get(ctx context.Context, path string, opts ...connection.RequestOption) (*connection.Response, error) {
	return m.do(ctx, http.MethodGet, path, opts)
}

// Post performs an authenticated POST relative to the base URL.
func (m *Manager) Post(ctx context.Context, path string, opts ...connection.RequestOption) (*connection.Response, error) {
	return m.do(ctx, http.MethodPost, path, opts)
}

// Put performs an authenticated PUT relative to the base URL.
func (m *Manager) Put(ctx context.Context, path string, opts ...connection.RequestOption) (*connection.Response, error) {
	return m.do(ctx, http.MethodPut, path, opts)
}

// Delete performs an authenticated DELETE relative to the base URL.
func (m *Manager) Delete(ctx context.Context, path string, opts ...connection.RequestOption) (*connection.Response, error) {
	return m.do(ctx, http.MethodDelete, path, opts)
}

// do sends a request through the session. A non-2xx response is returned
// together with a RequestError wrapping its *connection.StatusError.
func (m *Manager) do(ctx context.Context, method, path string, opts []connection.RequestOption) (*connection.Response, error) {
	client, err := m.httpClient()
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(ctx, method, path, opts...)
	if err != nil {
		return nil, domain.ErrTransport.WithCause(err)
	}
	if err := resp.Err(); err != nil {
		return resp, domain.ErrRequestFailed.WithDetails(method + " " + path).WithCause(err)
	}
	return resp, nil
}

// httpClient returns the client configured by Init.
func (m *Manager) httpClient() (*connection.HTTPClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, domain.ErrNotInitialized.WithDetails("manager closed")
	}
	if m.client == nil {
		return nil, domain.ErrNotInitialized
	}
	return m.client, nil
}

// newClient builds the transport for a resolved environment. The token is
// read at send time so requests always carry the current one.
func (m *Manager) newClient(env domain.EnvironmentConfig) *connection.HTTPClient {
	return connection.NewHTTPClient(connection.Config{
		BaseURL:           env.BaseURL,
		Headers:           env.Headers,
		UserAgent:         m.opts.UserAgent,
		Timeout:           m.opts.Timeout,
		RequestsPerSecond: m.opts.RequestsPerSecond,
		Client:            m.opts.HTTPClient,
		Token:             m.currentToken,
		Observer:          m.metrics.ObserveRequest,
	})
}

func (m *Manager) currentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token
}

func (m *Manager) state() metric.SessionState {
	renew, check := m.scheduler.Pending()
	s := m.Session()
	return metric.SessionState{
		Authenticated: s.IsAuthenticated(),
		Generation:    s.Generation,
		Remaining:     s.Remaining(m.clock.Now()),
		RenewPending:  renew,
		CheckPending:  check,
	}
}

func (m *Manager) emit(name domain.EventName, payload any) {
	m.events.Emit(domain.Event{Name: name, At: m.clock.Now(), Payload: payload})
}

func copyEnv(env domain.EnvironmentConfig) domain.EnvironmentConfig {
	out := env
	if env.Headers != nil {
		out.Headers = make(map[string]string, len(env.Headers))
		for k, v := range env.Headers {
			out.Headers[k] = v
		}
	}
	if env.Extra != nil {
		out.Extra = make(map[string]any, len(env.Extra))
		for k, v := range env.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
