package service

import "sync/atomic"

// ActivityMonitor tracks whether the user did anything since it was last
// consulted. It is disabled until Enable is called; while disabled,
// RecordActivity has no effect.
type ActivityMonitor struct {
	enabled atomic.Bool
	active  atomic.Bool
}

// NewActivityMonitor creates a disabled monitor.
func NewActivityMonitor() *ActivityMonitor {
	return &ActivityMonitor{}
}

// Enable turns on activity tracking. Calling it again is a no-op.
func (a *ActivityMonitor) Enable() {
	a.enabled.Store(true)
}

// Disable turns off tracking and drops any unconsumed activity.
func (a *ActivityMonitor) Disable() {
	a.enabled.Store(false)
	a.active.Store(false)
}

// Enabled reports whether tracking is on.
func (a *ActivityMonitor) Enabled() bool {
	return a.enabled.Load()
}

// RecordActivity marks that the user was active.
func (a *ActivityMonitor) RecordActivity() {
	if a.enabled.Load() {
		a.active.Store(true)
	}
}

// Consume returns whether activity was recorded since the previous call
// and resets the flag in the same atomic step.
func (a *ActivityMonitor) Consume() bool {
	return a.active.Swap(false)
}
