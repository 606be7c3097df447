package token

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token formats.
const (
	FormatJWT    = "jwt"
	FormatOpaque = "opaque"
)

// ErrEmpty is returned by Inspect for an empty token.
var ErrEmpty = errors.New("token: empty")

// Info is what can be learned from a token without contacting the server.
type Info struct {
	Format      string         `json:"format" yaml:"format"`
	Fingerprint string         `json:"fingerprint" yaml:"fingerprint"`
	Algorithm   string         `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Subject     string         `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer      string         `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Audience    []string       `json:"audience,omitempty" yaml:"audience,omitempty"`
	IssuedAt    *time.Time     `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	NotBefore   *time.Time     `json:"not_before,omitempty" yaml:"not_before,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Claims      map[string]any `json:"claims,omitempty" yaml:"claims,omitempty"`
}

// Inspect decodes token. Tokens that are not well-formed JWTs are reported
// as opaque; only an empty token is an error.
func Inspect(token string) (Info, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Info{}, ErrEmpty
	}

	info := Info{Format: FormatOpaque, Fingerprint: Fingerprint(token)}
	if strings.Count(token, ".") != 2 {
		return info, nil
	}

	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return info, nil
	}

	info.Format = FormatJWT
	if parsed.Method != nil {
		info.Algorithm = parsed.Method.Alg()
	}
	info.Subject, _ = claims.GetSubject()
	info.Issuer, _ = claims.GetIssuer()
	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		info.Audience = []string(aud)
	}
	info.IssuedAt = numericTime(claims.GetIssuedAt())
	info.NotBefore = numericTime(claims.GetNotBefore())
	info.ExpiresAt = numericTime(claims.GetExpirationTime())

	info.Claims = make(map[string]any, len(claims))
	maps.Copy(info.Claims, claims)
	return info, nil
}

// ExpiresIn returns the time left until the exp claim, and false when the
// token carries none.
func (i Info) ExpiresIn(now time.Time) (time.Duration, bool) {
	if i.ExpiresAt == nil {
		return 0, false
	}
	return i.ExpiresAt.Sub(now), true
}

// Expired reports whether the exp claim lies before now.
func (i Info) Expired(now time.Time) bool {
	d, ok := i.ExpiresIn(now)
	return ok && d <= 0
}

// String summarises the token on one line.
func (i Info) String() string {
	if i.Format != FormatJWT {
		return fmt.Sprintf("%s token %s", i.Format, i.Fingerprint)
	}
	s := fmt.Sprintf("jwt token %s alg=%s", i.Fingerprint, i.Algorithm)
	if i.Subject != "" {
		s += " sub=" + i.Subject
	}
	if i.ExpiresAt != nil {
		s += " exp=" + i.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return s
}

func numericTime(d *jwt.NumericDate, err error) *time.Time {
	if err != nil || d == nil {
		return nil
	}
	t := d.Time
	return &t
}
