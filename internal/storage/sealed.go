package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// CipherType identifies the AEAD used to seal the token.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// hkdfInfo binds derived keys to this use.
const hkdfInfo = "x2conn token store v1"

// ErrSealedFormat is returned when a stored value is not a sealed token.
var ErrSealedFormat = errors.New("sealed token: unrecognised format")

// SealedTokenStore encrypts the token before handing it to the wrapped store.
// Stored values have the form "{cipher}:{base64(nonce|ciphertext)}" so that
// a value sealed on one architecture opens on another.
type SealedTokenStore struct {
	inner   TokenStore
	ciphers map[CipherType]cipher.AEAD
	write   CipherType
}

// NewSealedTokenStore derives a 256-bit key from secret with HKDF-SHA256 and
// picks AES-GCM where the CPU accelerates it, ChaCha20-Poly1305 otherwise.
func NewSealedTokenStore(inner TokenStore, secret []byte) (*SealedTokenStore, error) {
	write := CipherChaCha20
	if hasAESAcceleration() {
		write = CipherAESGCM
	}
	return NewSealedTokenStoreWithCipher(inner, secret, write)
}

// NewSealedTokenStoreWithCipher is NewSealedTokenStore with an explicit write cipher.
func NewSealedTokenStoreWithCipher(inner TokenStore, secret []byte, write CipherType) (*SealedTokenStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("sealed token: empty secret")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("sealed token: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sealed token: aes: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("sealed token: gcm: %w", err)
	}
	chacha, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("sealed token: chacha20: %w", err)
	}

	ciphers := map[CipherType]cipher.AEAD{
		CipherAESGCM:   gcm,
		CipherChaCha20: chacha,
	}
	if _, ok := ciphers[write]; !ok {
		return nil, fmt.Errorf("sealed token: unknown cipher type: %s", write)
	}

	return &SealedTokenStore{inner: inner, ciphers: ciphers, write: write}, nil
}

// Get opens the stored token.
func (s *SealedTokenStore) Get(ctx context.Context) (string, bool, error) {
	sealed, ok, err := s.inner.Get(ctx)
	if err != nil || !ok {
		return "", ok, err
	}
	token, err := s.open(sealed)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Set seals and stores the token.
func (s *SealedTokenStore) Set(ctx context.Context, token string) error {
	sealed, err := s.seal(token)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, sealed)
}

// Clear removes the stored token.
func (s *SealedTokenStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

func (s *SealedTokenStore) seal(token string) (string, error) {
	aead := s.ciphers[s.write]
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("sealed token: nonce: %w", err)
	}
	// Prepend nonce to ciphertext
	ciphertext := aead.Seal(nonce, nonce, []byte(token), []byte(TokenKey))
	return string(s.write) + ":" + base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (s *SealedTokenStore) open(value string) (string, error) {
	kind, encoded, found := strings.Cut(value, ":")
	if !found {
		return "", ErrSealedFormat
	}
	aead, ok := s.ciphers[CipherType(kind)]
	if !ok {
		return "", ErrSealedFormat
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("sealed token: decode: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("sealed token: ciphertext too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(TokenKey))
	if err != nil {
		return "", fmt.Errorf("sealed token: open: %w", err)
	}
	return string(plain), nil
}

// hasAESAcceleration reports whether crypto/aes uses hardware instructions.
// Go uses AES-NI on amd64 and the ARMv8 crypto extensions on arm64.
func hasAESAcceleration() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}
