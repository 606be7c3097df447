// Package token inspects bearer tokens held by a session.
//
// Tokens issued by the X2 API are opaque to the client. When a token
// happens to be a JWT, Inspect decodes its claims without verifying the
// signature so that the CLI can show subject and expiry. The result must
// never be used for authorization decisions.
//
// Fingerprint derives a short, stable identifier from a token so it can be
// logged or displayed without exposing the credential:
//
//   - Prefix: sha256:
//   - Body: first 12 hex characters of the SHA-256 hash
package token
