package service

import (
	"context"

	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
)

// managerHooks adapts Manager to SchedulerHooks without exporting the
// callbacks on Manager itself.
type managerHooks Manager

func (h *managerHooks) Renew(gen uint64) {
	(*Manager)(h).renew(gen)
}

func (h *managerHooks) Expire(gen uint64, reason domain.LogoutReason) {
	m := (*Manager)(h)
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.Timeout)
	defer cancel()
	m.end(ctx, gen, reason)
}

// renew extends the session of generation gen. A failed call ends that
// session; a response arriving after the session changed is discarded.
func (m *Manager) renew(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.Timeout)
	defer cancel()
	ctx = logger.WithOperation(logger.WithLogger(ctx, m.logger), "renew")

	m.mu.Lock()
	client, closed := m.client, m.closed
	current := m.session
	m.mu.Unlock()

	if closed || client == nil || current.Generation != gen || !current.IsAuthenticated() {
		return
	}

	resp, err := client.Post(ctx, m.opts.RenewPath)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		m.metrics.RenewalResult(false)
		logger.L(ctx).Warn("token renewal failed", "generation", gen, "error", domain.ErrRenewalFailed.WithCause(err))
		m.end(ctx, gen, domain.LogoutRenewalFailed)
		return
	}

	var body tokenResponse
	if len(resp.Body) > 0 {
		if err := resp.Decode(&body); err != nil {
			m.logger.Debug("renewal response not decoded", "error", err)
		}
	}

	m.mu.Lock()
	if m.closed || m.session.Generation != gen || !m.session.IsAuthenticated() {
		m.mu.Unlock()
		m.logger.Warn("discarding renewal for superseded session", "generation", gen)
		return
	}
	expiresAt := m.clock.Now().Add(m.opts.TokenDuration)
	m.session.ExpiresAt = expiresAt
	rotated := body.Token != "" && body.Token != m.session.Token
	if rotated {
		m.session.Token = body.Token
		m.persistLocked(ctx, body.Token)
	}
	m.scheduler.Start(gen)
	m.mu.Unlock()

	m.metrics.RenewalResult(true)
	logger.L(ctx).Debug("token renewed", "generation", gen, "expires_at", expiresAt, "token_rotated", rotated)
	m.emit(domain.EventRenew, domain.RenewEvent{ExpiresAt: expiresAt, Rotated: rotated})
}
