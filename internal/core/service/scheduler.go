package service

import (
	"sync"
	"time"

	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/internal/infra/clock"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
)

// DefaultInactivityCheckInterval is the inactivity-check cadence.
const DefaultInactivityCheckInterval = time.Minute

// SchedulerConfig configures the two session timers.
type SchedulerConfig struct {
	// RenewAfter is the delay from Start to the renewal callback.
	RenewAfter time.Duration

	// CheckInterval is the inactivity-check cadence. It must be shorter
	// than RenewAfter; otherwise half of RenewAfter is used.
	CheckInterval time.Duration

	// InactivityTimeout forces expiry after this long without activity,
	// checked at CheckInterval granularity. Zero disables the hard timeout.
	InactivityTimeout time.Duration
}

// normalize fills defaults and enforces CheckInterval < RenewAfter.
func (c SchedulerConfig) normalize() SchedulerConfig {
	if c.RenewAfter <= 0 {
		c.RenewAfter = domain.DefaultTokenDuration - time.Minute
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultInactivityCheckInterval
	}
	if c.CheckInterval >= c.RenewAfter {
		c.CheckInterval = c.RenewAfter / 2
	}
	if c.InactivityTimeout < 0 {
		c.InactivityTimeout = 0
	}
	return c
}

// SchedulerHooks is what the scheduler drives. Both hooks are called
// without any scheduler lock held.
type SchedulerHooks interface {
	// Renew asks for a token renewal for generation gen. On success the
	// hook restarts the scheduler; on failure it ends the session.
	Renew(gen uint64)

	// Expire ends the session of generation gen.
	Expire(gen uint64, reason domain.LogoutReason)
}

// Scheduler owns the renewal timer and the inactivity-check timer. At most
// one of each is pending at any time.
type Scheduler struct {
	clock   clock.Clock
	cfg     SchedulerConfig
	monitor *ActivityMonitor
	hooks   SchedulerHooks
	logger  logger.Logger

	mu         sync.Mutex
	gen        uint64
	renewTimer clock.Timer
	checkTimer clock.Timer
	// renewSeq and checkSeq identify the live timer of each kind. A
	// callback whose captured sequence differs was cancelled after firing.
	renewSeq uint64
	checkSeq uint64

	activeSinceRenewal bool
	lastActive         time.Time
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(clk clock.Clock, cfg SchedulerConfig, monitor *ActivityMonitor, hooks SchedulerHooks, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		clock:   clk,
		cfg:     cfg.normalize(),
		monitor: monitor,
		hooks:   hooks,
		logger:  log,
	}
}

// Config returns the effective configuration.
func (s *Scheduler) Config() SchedulerConfig {
	return s.cfg
}

// Start cancels any pending timers and schedules both for generation gen.
// Starting a new generation also resets the inactivity bookkeeping;
// restarting the same generation after a renewal keeps the time of the
// last observed activity.
func (s *Scheduler) Start(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	now := s.clock.Now()
	if gen != s.gen || s.lastActive.IsZero() {
		s.lastActive = now
	}
	s.gen = gen
	s.activeSinceRenewal = false

	s.scheduleRenewLocked()
	s.scheduleCheckLocked()

	s.logger.Debug("session timers started",
		"generation", gen,
		"renew_in", s.cfg.RenewAfter,
		"check_every", s.cfg.CheckInterval,
	)
}

// Stop cancels both timers. It is safe to call when already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Pending reports which timers are armed.
func (s *Scheduler) Pending() (renew, check bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renewTimer != nil, s.checkTimer != nil
}

func (s *Scheduler) stopLocked() {
	if s.renewTimer != nil {
		s.renewTimer.Stop()
		s.renewTimer = nil
	}
	if s.checkTimer != nil {
		s.checkTimer.Stop()
		s.checkTimer = nil
	}
	s.renewSeq++
	s.checkSeq++
}

func (s *Scheduler) scheduleRenewLocked() {
	s.renewSeq++
	gen, seq := s.gen, s.renewSeq
	s.renewTimer = s.clock.AfterFunc(s.cfg.RenewAfter, func() { s.onRenew(gen, seq) })
}

func (s *Scheduler) scheduleCheckLocked() {
	s.checkSeq++
	gen, seq := s.gen, s.checkSeq
	s.checkTimer = s.clock.AfterFunc(s.cfg.CheckInterval, func() { s.onCheck(gen, seq) })
}

// onRenew decides between renewal and expiry. Activity counts if any
// inactivity check saw it since the last renewal or if it is pending now.
func (s *Scheduler) onRenew(gen, seq uint64) {
	s.mu.Lock()
	if seq != s.renewSeq || gen != s.gen {
		s.mu.Unlock()
		return
	}
	// The check timer belongs to this renewal window; Start re-arms it.
	s.stopLocked()

	// Consumed unconditionally so activity after the last check does not
	// leak into the next window.
	pending := s.monitor.Consume()
	active := s.activeSinceRenewal || pending
	expire := s.monitor.Enabled() && !active
	s.mu.Unlock()

	if expire {
		s.logger.Info("no activity since last renewal", "generation", gen)
		s.hooks.Expire(gen, domain.LogoutInactivity)
		return
	}
	s.hooks.Renew(gen)
}

func (s *Scheduler) onCheck(gen, seq uint64) {
	s.mu.Lock()
	if seq != s.checkSeq || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.checkTimer = nil

	now := s.clock.Now()
	if s.monitor.Consume() {
		s.activeSinceRenewal = true
		s.lastActive = now
	}

	idle := now.Sub(s.lastActive)
	if s.cfg.InactivityTimeout > 0 && s.monitor.Enabled() && idle >= s.cfg.InactivityTimeout {
		s.stopLocked()
		s.mu.Unlock()

		s.logger.Info("inactivity timeout reached", "generation", gen, "idle", idle)
		s.hooks.Expire(gen, domain.LogoutInactivity)
		return
	}

	s.scheduleCheckLocked()
	s.mu.Unlock()
}
