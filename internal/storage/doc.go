// Package storage persists the session token across process restarts.
//
// Every backend is a single-slot store keyed by TokenKey:
//
//   - memory.TokenStore: process-local, used by tests and one-shot commands
//   - BadgerTokenStore: embedded on-disk store for a single workstation
//   - RedisTokenStore: shared store for clients running on several hosts
//   - SealedTokenStore: wraps any backend and encrypts the token at rest
//
// Absence is explicit: Get reports ok == false, never an empty token.
package storage
