package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// ErrTokenNotFound is returned when no token is stored for a profile.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore keeps profile tokens outside the profile files.
type TokenStore interface {
	SaveToken(ctx context.Context, profile, token string) error
	LoadToken(ctx context.Context, profile string) (string, error)
	DeleteToken(ctx context.Context, profile string) error
}

// KeyringService is the OS keyring service name for profile tokens.
const KeyringService = "xcsh"

// KeyringTokenStore stores tokens in the OS keyring, one entry per profile.
type KeyringTokenStore struct {
	service string
}

// NewKeyringTokenStore creates a keyring store. An empty service uses
// KeyringService.
func NewKeyringTokenStore(service string) *KeyringTokenStore {
	if service == "" {
		service = KeyringService
	}
	return &KeyringTokenStore{service: service}
}

// SaveToken stores token for profile.
func (k *KeyringTokenStore) SaveToken(_ context.Context, profile, token string) error {
	if err := keyring.Set(k.service, profile, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// LoadToken returns the token of profile.
func (k *KeyringTokenStore) LoadToken(_ context.Context, profile string) (string, error) {
	token, err := keyring.Get(k.service, profile)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to retrieve token from keyring: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token of profile. A missing entry is not an error.
func (k *KeyringTokenStore) DeleteToken(_ context.Context, profile string) error {
	if err := keyring.Delete(k.service, profile); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps tokens for the lifetime of the process.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

// SaveToken stores token for profile.
func (m *MemoryTokenStore) SaveToken(_ context.Context, profile, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[profile] = token
	return nil
}

// LoadToken returns the token of profile.
func (m *MemoryTokenStore) LoadToken(_ context.Context, profile string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[profile]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// DeleteToken removes the token of profile.
func (m *MemoryTokenStore) DeleteToken(_ context.Context, profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, profile)
	return nil
}
