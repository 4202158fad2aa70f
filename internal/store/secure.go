package store

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

	"golang.org/x/crypto/hkdf"
)

// SecureStore is the secure-enclave-equivalent location: it layers AES-GCM
// encryption over any Store so the legacy userPIN entry is never held in
// plaintext at rest. The data key is derived from the configured master
// secret with HKDF-SHA256.
type SecureStore struct {
	inner Store
	key   []byte
}

const secureKeyPrefix = "secure:"

// NewSecureStore derives the data key and wraps the inner store.
func NewSecureStore(inner Store, masterSecret string) (*SecureStore, error) {
	if masterSecret == "" {
		return nil, fmt.Errorf("vault master secret is required")
	}
	h := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte("device-vault"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	return &SecureStore{inner: inner, key: key}, nil
}

// Get fetches and decrypts the value for key.
func (s *SecureStore) Get(ctx context.Context, key string) (string, error) {
	sealed, err := s.inner.Get(ctx, secureKeyPrefix+key)
	if err != nil {
		return "", err
	}
	plain, err := s.open(sealed)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", key, err)
	}
	return plain, nil
}

// Set encrypts and writes the value for key.
func (s *SecureStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	return s.inner.Set(ctx, secureKeyPrefix+key, sealed)
}

// Delete removes the key.
func (s *SecureStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, secureKeyPrefix+key)
}

func (s *SecureStore) seal(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ct := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(ct), nil
}

func (s *SecureStore) open(sealed string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ct := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
