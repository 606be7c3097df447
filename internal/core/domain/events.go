package domain

import "time"

// EventName identifies a session lifecycle transition.
type EventName string

// Lifecycle events.
const (
	EventLogin      EventName = "login"
	EventLogout     EventName = "logout"
	EventRenew      EventName = "renew"
	EventInactivity EventName = "inactivity"
)

// LogoutReason records why a session ended.
type LogoutReason string

// Logout reasons.
const (
	LogoutRequested     LogoutReason = "requested"
	LogoutInactivity    LogoutReason = "inactivity"
	LogoutRenewalFailed LogoutReason = "renewal_failed"
	LogoutTokenRejected LogoutReason = "token_rejected"
)

// Event is delivered to subscribers after the transition is committed.
type Event struct {
	Name    EventName
	At      time.Time
	Payload any
}

// LoginEvent is the payload of EventLogin.
type LoginEvent struct {
	Username  string
	ExpiresAt time.Time
	// Restored is true when the session came from the token store at Init.
	Restored bool
}

// LogoutEvent is the payload of EventLogout.
type LogoutEvent struct {
	Reason LogoutReason
}

// RenewEvent is the payload of EventRenew.
type RenewEvent struct {
	ExpiresAt time.Time
	// Rotated is true when the server issued a new token.
	Rotated bool
}
