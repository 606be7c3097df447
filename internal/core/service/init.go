package service

import (
	"context"
	"strings"

	"github.com/yndnr/x2conn/internal/connection"
	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/internal/infra/confloader"
)

// Keys read from the remote configuration document.
const (
	keyEnvironment = "environment"
	keyEnvAlias    = "env"
	keyBaseURL     = "baseUrl"
	keyHeaders     = "headers"
)

// HTTPConfig supplies the API endpoint directly.
type HTTPConfig struct {
	BaseURL string
	Headers map[string]string
	// Environment is used when no remote configuration is fetched.
	// Default: DEV.
	Environment string
}

// InitConfig names the configuration sources. At least one must be set.
// With both, HTTP wins for the base URL and headers and the remote
// document supplies the environment.
type InitConfig struct {
	HTTP       *HTTPConfig
	ConfigPath string
}

// InitResult describes the resolved configuration.
type InitResult struct {
	BaseURL     string
	Environment domain.Environment
	Headers     map[string]string
	// Restored is true when a persisted token was picked up.
	Restored bool
}

// Init resolves the environment and restores a persisted session.
// Repeating Init with an equivalent configuration is a no-op; a
// configuration resolving elsewhere fails with a ConfigError.
func (m *Manager) Init(ctx context.Context, cfg InitConfig) (*InitResult, error) {
	env, err := m.resolve(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrNotInitialized.WithDetails("manager closed")
	}
	if !m.env.IsZero() {
		current := copyEnv(m.env)
		m.mu.Unlock()
		if current.Conflicts(env) {
			return nil, domain.ErrConfigConflict.WithDetails(
				"initialised for " + current.BaseURL + " (" + string(current.Environment) + "), got " +
					env.BaseURL + " (" + string(env.Environment) + ")")
		}
		return &InitResult{BaseURL: current.BaseURL, Environment: current.Environment, Headers: current.Headers}, nil
	}
	m.env = env
	m.client = m.newClient(env)
	m.mu.Unlock()

	m.logger.Info("session manager initialised", "base_url", env.BaseURL, "environment", string(env.Environment))

	result := &InitResult{
		BaseURL:     env.BaseURL,
		Environment: env.Environment,
		Headers:     copyEnv(env).Headers,
	}
	result.Restored = m.restore(ctx)
	return result, nil
}

// restore re-establishes a session from the token store.
func (m *Manager) restore(ctx context.Context) bool {
	token, ok, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Warn("token store read failed, starting unauthenticated", "error", err)
		return false
	}
	if !ok || token == "" {
		return false
	}

	m.mu.Lock()
	if m.session.IsAuthenticated() {
		m.mu.Unlock()
		return false
	}
	expiresAt := m.clock.Now().Add(m.opts.TokenDuration)
	m.session = domain.Session{
		Token:      token,
		ExpiresAt:  expiresAt,
		Generation: m.session.Generation + 1,
	}
	gen := m.session.Generation
	m.scheduler.Start(gen)
	m.mu.Unlock()

	m.metrics.SetAuthenticated(true)
	m.logger.Info("session restored", "generation", gen, "expires_at", expiresAt)
	m.emit(domain.EventLogin, domain.LoginEvent{ExpiresAt: expiresAt, Restored: true})
	return true
}

// resolve merges the configuration sources into an EnvironmentConfig.
func (m *Manager) resolve(ctx context.Context, cfg InitConfig) (domain.EnvironmentConfig, error) {
	if cfg.HTTP == nil && cfg.ConfigPath == "" {
		return domain.EnvironmentConfig{}, domain.ErrConfigUnresolvable.WithDetails("neither http config nor config path given")
	}

	loader := confloader.NewLoader()

	if cfg.ConfigPath != "" {
		if err := m.fetchRemote(ctx, cfg.ConfigPath, loader); err != nil {
			return domain.EnvironmentConfig{}, err
		}
	}

	if cfg.HTTP != nil {
		overlay := map[string]any{}
		if cfg.HTTP.BaseURL != "" {
			overlay[keyBaseURL] = cfg.HTTP.BaseURL
		}
		if len(cfg.HTTP.Headers) > 0 {
			headers := make(map[string]any, len(cfg.HTTP.Headers))
			for k, v := range cfg.HTTP.Headers {
				headers[k] = v
			}
			overlay[keyHeaders] = headers
		}
		if cfg.ConfigPath == "" {
			environment := cfg.HTTP.Environment
			if environment == "" {
				environment = string(domain.EnvDev)
			}
			overlay[keyEnvironment] = environment
		}
		if err := loader.LoadMap(overlay); err != nil {
			return domain.EnvironmentConfig{}, domain.ErrConfigMalformed.WithCause(err)
		}
	}

	environment := loader.GetString(keyEnvironment)
	if environment == "" {
		environment = loader.GetString(keyEnvAlias)
	}
	if strings.TrimSpace(environment) == "" {
		return domain.EnvironmentConfig{}, domain.ErrConfigMalformed.WithDetails("environment missing")
	}

	baseURL := loader.GetString(keyBaseURL)
	if baseURL == "" && cfg.ConfigPath != "" {
		origin, err := connection.Origin(cfg.ConfigPath)
		if err != nil {
			return domain.EnvironmentConfig{}, domain.ErrConfigUnresolvable.WithCause(err)
		}
		baseURL = origin
	}
	baseURL = connection.NormalizeBaseURL(baseURL)
	if baseURL == "" {
		return domain.EnvironmentConfig{}, domain.ErrConfigUnresolvable.WithDetails("no base url")
	}

	env := domain.EnvironmentConfig{
		BaseURL:     baseURL,
		Environment: domain.ParseEnvironment(environment),
	}
	if headers := loader.GetStringMap(keyHeaders); len(headers) > 0 {
		env.Headers = headers
	}
	for k, v := range loader.Raw() {
		switch k {
		case keyEnvironment, keyEnvAlias, keyBaseURL, keyHeaders:
			continue
		}
		if env.Extra == nil {
			env.Extra = make(map[string]any)
		}
		env.Extra[k] = v
	}
	return env, nil
}

// fetchRemote performs the single unauthenticated configuration GET.
func (m *Manager) fetchRemote(ctx context.Context, configPath string, loader *confloader.Loader) error {
	if _, err := connection.Origin(configPath); err != nil {
		return domain.ErrConfigUnresolvable.WithCause(err)
	}

	client := connection.NewHTTPClient(connection.Config{
		UserAgent: m.opts.UserAgent,
		Timeout:   m.opts.Timeout,
		Client:    m.opts.HTTPClient,
		Observer:  m.metrics.ObserveRequest,
	})
	resp, err := client.Get(ctx, configPath, connection.WithoutAuth())
	if err != nil {
		return domain.ErrConfigFetch.WithDetails(configPath).WithCause(err)
	}
	if err := resp.Err(); err != nil {
		return domain.ErrConfigFetch.WithDetails(configPath).WithCause(err)
	}
	var doc map[string]any
	if err := resp.Decode(&doc); err != nil {
		return domain.ErrConfigMalformed.WithDetails(configPath).WithCause(err)
	}
	if err := loader.LoadMap(doc); err != nil {
		return domain.ErrConfigMalformed.WithDetails(configPath).WithCause(err)
	}
	return nil
}
