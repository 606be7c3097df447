package domain

import (
	"testing"
	"time"
)

func TestSession_ZeroValue(t *testing.T) {
	var s Session
	if s.IsAuthenticated() {
		t.Error("zero session should not be authenticated")
	}
	if s.AuthorizationHeader() != "" {
		t.Errorf("AuthorizationHeader() = %q, want empty", s.AuthorizationHeader())
	}
	if s.Remaining(time.Now()) != 0 {
		t.Error("zero session should have no remaining time")
	}
}

func TestSession_Authenticated(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{Token: "1234", ExpiresAt: now.Add(DefaultTokenDuration)}

	if !s.IsAuthenticated() {
		t.Fatal("session with token should be authenticated")
	}
	if got := s.AuthorizationHeader(); got != "Bearer 1234" {
		t.Errorf("AuthorizationHeader() = %q, want %q", got, "Bearer 1234")
	}
	if got := s.Remaining(now); got != 20*time.Minute {
		t.Errorf("Remaining() = %v, want 20m", got)
	}
	if got := s.Remaining(now.Add(time.Hour)); got != 0 {
		t.Errorf("Remaining() after expiry = %v, want 0", got)
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"dev", EnvDev},
		{" PROD ", EnvProd},
		{"Staging", EnvStaging},
		{"qa", Environment("QA")},
	}
	for _, tt := range tests {
		if got := ParseEnvironment(tt.in); got != tt.want {
			t.Errorf("ParseEnvironment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnvironmentConfig_Conflicts(t *testing.T) {
	base := EnvironmentConfig{BaseURL: "http://localhost:8080", Environment: EnvDev}

	if base.Conflicts(EnvironmentConfig{BaseURL: "http://localhost:8080/", Environment: EnvDev}) {
		t.Error("trailing slash should not be a conflict")
	}
	if !base.Conflicts(EnvironmentConfig{BaseURL: "http://localhost:9090", Environment: EnvDev}) {
		t.Error("different base URL should conflict")
	}
	if !base.Conflicts(EnvironmentConfig{BaseURL: "http://localhost:8080", Environment: EnvProd}) {
		t.Error("different environment should conflict")
	}
	if !(EnvironmentConfig{}).IsZero() {
		t.Error("empty config should be zero")
	}
}

func TestUser_Fields(t *testing.T) {
	u := User{"_id": 1234.0, "account": "acc-1", "email": "foo@baz"}
	if u.ID() != "1234" {
		t.Errorf("ID() = %q, want %q", u.ID(), "1234")
	}
	if u.Account() != "acc-1" {
		t.Errorf("Account() = %q", u.Account())
	}
	if u.Email() != "foo@baz" {
		t.Errorf("Email() = %q", u.Email())
	}

	fallback := User{"id": "u-9"}
	if fallback.ID() != "u-9" {
		t.Errorf("ID() fallback = %q, want %q", fallback.ID(), "u-9")
	}
}
