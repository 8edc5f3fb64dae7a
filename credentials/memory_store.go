package credentials

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is the session scope: credentials vanish with the process.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemoryStore creates an empty session-scoped store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]string),
	}
}

// Load returns a copy of the stored pair
func (m *MemoryStore) Load(_ context.Context) (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	access, refresh := m.slots[AccessTokenKey], m.slots[RefreshTokenKey]
	if access == "" && refresh == "" {
		return nil, ErrNotFound
	}
	return &oauth2.Token{AccessToken: access, RefreshToken: refresh}, nil
}

// Save overwrites both slots
func (m *MemoryStore) Save(_ context.Context, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots = map[string]string{
		AccessTokenKey:  token.AccessToken,
		RefreshTokenKey: token.RefreshToken,
	}
	return nil
}

// Clear empties both slots
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots = make(map[string]string)
	return nil
}
