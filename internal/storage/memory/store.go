package memory

import (
	"context"
	"sync"
)

// TokenStore keeps the token in process memory.
type TokenStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewTokenStore creates an empty in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// NewTokenStoreWith creates a store pre-seeded with token.
func NewTokenStoreWith(token string) *TokenStore {
	return &TokenStore{token: token, set: true}
}

// Get returns the stored token.
func (s *TokenStore) Get(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set, nil
}

// Set overwrites the stored token.
func (s *TokenStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

// Clear removes the token.
func (s *TokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	return nil
}
