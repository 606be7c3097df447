package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func TestHash(t *testing.T) {
	h := Hash("1234")
	if len(h) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h))
	}
	if h != Hash("1234") {
		t.Error("Hash is not deterministic")
	}
	if h == Hash("1235") {
		t.Error("different tokens produced the same hash")
	}
}

func TestVerify(t *testing.T) {
	h := Hash("1234")
	if !Verify("1234", h) {
		t.Error("Verify() = false for matching token")
	}
	if Verify("4321", h) {
		t.Error("Verify() = true for wrong token")
	}
	if Verify("1234", "") {
		t.Error("Verify() = true for empty hash")
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("1234")
	if !strings.HasPrefix(fp, FingerprintPrefix) {
		t.Errorf("Fingerprint = %q, want prefix %q", fp, FingerprintPrefix)
	}
	if len(fp) != len(FingerprintPrefix)+12 {
		t.Errorf("Fingerprint length = %d", len(fp))
	}
	if strings.Contains(fp, "1234") {
		t.Error("fingerprint leaks the token")
	}
	if Fingerprint("") != "" {
		t.Error("empty token should have no fingerprint")
	}
}

func TestInspect_JWT(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	iat := exp.Add(-20 * time.Minute)
	raw := signed(t, jwt.MapClaims{
		"sub":  "user-1",
		"iss":  "x2",
		"aud":  "x2-web",
		"exp":  exp.Unix(),
		"iat":  iat.Unix(),
		"role": "admin",
	})

	info, err := Inspect("Bearer " + raw)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Format != FormatJWT || info.Algorithm != "HS256" {
		t.Errorf("Format/Algorithm = %q/%q", info.Format, info.Algorithm)
	}
	if info.Subject != "user-1" || info.Issuer != "x2" {
		t.Errorf("Subject/Issuer = %q/%q", info.Subject, info.Issuer)
	}
	if len(info.Audience) != 1 || info.Audience[0] != "x2-web" {
		t.Errorf("Audience = %v", info.Audience)
	}
	if info.ExpiresAt == nil || !info.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if info.IssuedAt == nil || !info.IssuedAt.Equal(iat) {
		t.Errorf("IssuedAt = %v, want %v", info.IssuedAt, iat)
	}
	if info.NotBefore != nil {
		t.Errorf("NotBefore = %v, want nil", info.NotBefore)
	}
	if info.Claims["role"] != "admin" {
		t.Errorf("Claims = %v", info.Claims)
	}
	if info.Fingerprint != Fingerprint(raw) {
		t.Error("fingerprint should be computed without the Bearer prefix")
	}

	if d, ok := info.ExpiresIn(iat); !ok || d != 20*time.Minute {
		t.Errorf("ExpiresIn() = %v, %v", d, ok)
	}
	if info.Expired(iat) || !info.Expired(exp.Add(time.Second)) {
		t.Error("Expired() wrong around exp")
	}
	if s := info.String(); !strings.Contains(s, "sub=user-1") || !strings.Contains(s, "exp=2030-01-02T03:04:05Z") {
		t.Errorf("String() = %q", s)
	}
}

func TestInspect_Opaque(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"plain", "1234"},
		{"dotted garbage", "a.b.c"},
		{"too many parts", "a.b.c.d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Inspect(tt.token)
			if err != nil {
				t.Fatalf("Inspect() error = %v", err)
			}
			if info.Format != FormatOpaque {
				t.Errorf("Format = %q, want opaque", info.Format)
			}
			if info.Claims != nil || info.ExpiresAt != nil {
				t.Errorf("opaque token has claims: %+v", info)
			}
			if _, ok := info.ExpiresIn(time.Now()); ok {
				t.Error("opaque token reports an expiry")
			}
			if info.Expired(time.Now()) {
				t.Error("opaque token reported expired")
			}
		})
	}
}

func TestInspect_Empty(t *testing.T) {
	for _, in := range []string{"", "  ", "Bearer "} {
		if _, err := Inspect(in); !errors.Is(err, ErrEmpty) {
			t.Errorf("Inspect(%q) error = %v, want ErrEmpty", in, err)
		}
	}
}
