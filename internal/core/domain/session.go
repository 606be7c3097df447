// Package domain defines the core domain models for x2conn.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTokenDuration is the lifetime granted to a token by the X2 API.
const DefaultTokenDuration = 20 * time.Minute

// Session is the client-side view of the current authentication state.
//
// The zero value is the initial Unauthenticated state.
type Session struct {
	// Token is the bearer credential; empty means absent.
	Token string `json:"-"`

	// ExpiresAt is when the token lapses unless renewed. Zero when absent.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Generation is bumped on every login, restore and logout. Asynchronous
	// work started under an older generation must not touch the session.
	Generation uint64 `json:"generation"`
}

// IsAuthenticated reports whether a token is held.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Remaining returns the time left before expiry, or zero.
func (s Session) Remaining(now time.Time) time.Duration {
	if !s.IsAuthenticated() || s.ExpiresAt.IsZero() {
		return 0
	}
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// AuthorizationHeader returns the Authorization header value for the token.
func (s Session) AuthorizationHeader() string {
	if !s.IsAuthenticated() {
		return ""
	}
	return "Bearer " + s.Token
}

// Environment tags the deployment the API belongs to.
type Environment string

// Known environments.
const (
	EnvDev     Environment = "DEV"
	EnvStaging Environment = "STAGING"
	EnvProd    Environment = "PROD"
)

// ParseEnvironment normalizes an environment tag. Unknown tags are kept
// upper-cased rather than rejected.
func ParseEnvironment(s string) Environment {
	return Environment(strings.ToUpper(strings.TrimSpace(s)))
}

// EnvironmentConfig is the resolved API configuration. It is set once by
// Init and never mutated afterwards.
type EnvironmentConfig struct {
	BaseURL     string            `json:"base_url" yaml:"base_url"`
	Environment Environment       `json:"environment" yaml:"environment"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Extra       map[string]any    `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// IsZero reports whether the config has not been resolved yet.
func (c EnvironmentConfig) IsZero() bool {
	return c.BaseURL == "" && c.Environment == ""
}

// Conflicts reports whether other resolves to a different endpoint or environment.
func (c EnvironmentConfig) Conflicts(other EnvironmentConfig) bool {
	return strings.TrimRight(c.BaseURL, "/") != strings.TrimRight(other.BaseURL, "/") ||
		c.Environment != other.Environment
}

// User is the profile returned by /user/current. The X2 API does not publish
// a fixed schema, so fields are kept as decoded JSON values.
type User map[string]any

// ID returns the user identifier (`_id`, falling back to `id`).
func (u User) ID() string {
	return u.stringField("_id", "id")
}

// Account returns the account identifier.
func (u User) Account() string {
	return u.stringField("account")
}

// Email returns the user email, if present.
func (u User) Email() string {
	return u.stringField("email")
}

func (u User) stringField(keys ...string) string {
	for _, k := range keys {
		if v, ok := u[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}
