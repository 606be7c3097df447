package service

import "testing"

func TestActivityMonitor_DisabledByDefault(t *testing.T) {
	a := NewActivityMonitor()
	if a.Enabled() {
		t.Fatal("monitor should start disabled")
	}

	a.RecordActivity()
	if a.Consume() {
		t.Error("activity recorded while disabled should be ignored")
	}
}

func TestActivityMonitor_ConsumeResets(t *testing.T) {
	a := NewActivityMonitor()
	a.Enable()
	a.Enable()

	a.RecordActivity()
	a.RecordActivity()
	if !a.Consume() {
		t.Fatal("Consume() = false after activity")
	}
	if a.Consume() {
		t.Error("second Consume() should return false")
	}
}

func TestActivityMonitor_DisableDropsPending(t *testing.T) {
	a := NewActivityMonitor()
	a.Enable()
	a.RecordActivity()

	a.Disable()
	if a.Enabled() {
		t.Error("Enabled() = true after Disable")
	}
	if a.Consume() {
		t.Error("pending activity should be dropped by Disable")
	}
}
