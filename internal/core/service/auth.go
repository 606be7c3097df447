package service

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/x2conn/internal/connection"
	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
)

// LoginResult describes a new session.
type LoginResult struct {
	Username   string
	ExpiresAt  time.Time
	Generation uint64
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token and starts the renewal loop.
// On failure the current session, if any, is left untouched.
func (m *Manager) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx = logger.WithOperation(logger.WithLogger(ctx, m.logger), "login")
	client, err := m.httpClient()
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(ctx, PathToken,
		connection.WithJSON(credentials{Username: username, Password: password}),
		connection.WithoutAuth(),
	)
	if err != nil {
		m.metrics.LoginResult(false)
		return nil, domain.ErrTransport.WithCause(err)
	}
	if err := resp.Err(); err != nil {
		m.metrics.LoginResult(false)
		m.logger.Info("login rejected", "username", username, "status", resp.StatusCode)
		return nil, domain.ErrInvalidCredentials.WithCause(err)
	}

	var body tokenResponse
	if err := resp.Decode(&body); err != nil || body.Token == "" {
		m.metrics.LoginResult(false)
		e := domain.ErrInvalidCredentials.WithDetails("response carried no token")
		if err != nil {
			e = e.WithCause(err)
		}
		return nil, e
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrNotInitialized.WithDetails("manager closed")
	}
	expiresAt := m.clock.Now().Add(m.opts.TokenDuration)
	m.session = domain.Session{
		Token:      body.Token,
		ExpiresAt:  expiresAt,
		Generation: m.session.Generation + 1,
	}
	m.username = username
	gen := m.session.Generation
	m.persistLocked(ctx, body.Token)
	m.scheduler.Start(gen)
	m.mu.Unlock()

	m.metrics.LoginResult(true)
	m.metrics.SetAuthenticated(true)
	logger.L(ctx).Info("logged in", "username", username, "generation", gen, "expires_at", expiresAt)
	m.emit(domain.EventLogin, domain.LoginEvent{Username: username, ExpiresAt: expiresAt})

	return &LoginResult{Username: username, ExpiresAt: expiresAt, Generation: gen}, nil
}

// Logout ends the session, clears the persisted token and stops the
// timers. It always succeeds and may be called when already logged out.
func (m *Manager) Logout(ctx context.Context) error {
	m.end(ctx, 0, domain.LogoutRequested)
	return nil
}

// GetSession returns the profile of the current user. A token rejected
// by the server (401/403) ends the session before the error is returned.
// Concurrent calls for the same session share one request.
func (m *Manager) GetSession(ctx context.Context) (domain.User, error) {
	client, err := m.httpClient()
	if err != nil {
		return nil, err
	}
	s := m.Session()
	if !s.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}

	// The shared call outlives any single caller's cancellation.
	ch := m.group.DoChan("session/"+strconv.FormatUint(s.Generation, 10), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.Timeout)
		defer cancel()
		return m.fetchUser(fetchCtx, client, s.Generation)
	})
	select {
	case <-ctx.Done():
		return nil, domain.ErrTransport.WithCause(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(domain.User), nil
	}
}

func (m *Manager) fetchUser(ctx context.Context, client *connection.HTTPClient, gen uint64) (domain.User, error) {
	resp, err := client.Get(ctx, PathCurrentUser)
	if err != nil {
		return nil, domain.ErrTransport.WithCause(err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		m.end(ctx, gen, domain.LogoutTokenRejected)
		return nil, domain.ErrTokenRejected.WithCause(resp.Err())
	case !resp.OK():
		return nil, domain.ErrRequestFailed.WithDetails("GET " + PathCurrentUser).WithCause(resp.Err())
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, domain.ErrRequestFailed.WithDetails("GET " + PathCurrentUser).WithCause(err)
	}
	return user, nil
}

// end terminates the session of generation gen, or whatever session is
// current when gen is 0. It reports whether it acted.
func (m *Manager) end(ctx context.Context, gen uint64, reason domain.LogoutReason) bool {
	m.mu.Lock()
	if gen != 0 && (m.session.Generation != gen || !m.session.IsAuthenticated()) {
		m.mu.Unlock()
		m.logger.Warn("ignoring expiry of superseded session", "generation", gen, "reason", string(reason))
		return false
	}

	wasAuthenticated := m.session.IsAuthenticated()
	m.scheduler.Stop()
	m.session = domain.Session{Generation: m.session.Generation + 1}
	m.username = ""
	m.monitor.Consume()
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("token store clear failed", "error", err)
	}
	newGen := m.session.Generation
	m.mu.Unlock()

	m.metrics.SetAuthenticated(false)
	if wasAuthenticated {
		m.metrics.Logout(string(reason))
		m.logger.Info("logged out", "reason", string(reason), "generation", newGen)
	}

	if reason == domain.LogoutInactivity {
		m.emit(domain.EventInactivity, nil)
	}
	m.emit(domain.EventLogout, domain.LogoutEvent{Reason: reason})
	return true
}

// persistLocked writes the token; failures are logged because the
// in-memory session stays valid.
func (m *Manager) persistLocked(ctx context.Context, token string) {
	if err := m.store.Set(ctx, token); err != nil {
		m.logger.Warn("token store write failed", "error", err)
	}
}
