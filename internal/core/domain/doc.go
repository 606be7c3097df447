// Package domain defines the core domain models for x2conn.
//
// Domain models are pure value objects without any IO dependencies.
// This package contains:
//
//   - Session: the client-side view of an authenticated session
//   - EnvironmentConfig: the resolved API endpoint and environment tag
//   - User: the profile returned by the X2 API for the current token
//   - Events: lifecycle event names and payloads
//   - Errors: the error taxonomy (config, auth, request, renewal)
package domain
