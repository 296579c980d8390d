package prefs

import (
	"context"
	"sync"
)

// MemoryStore keeps preferences for the life of the process. It is used
// when Redis is not configured or unreachable.
type MemoryStore struct {
	mu     sync.RWMutex
	themes map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{themes: make(map[string]string)}
}

func (s *MemoryStore) GetTheme(_ context.Context, clientID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.themes[clientID], nil
}

func (s *MemoryStore) SetTheme(_ context.Context, clientID, theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themes[clientID] = theme
	return nil
}
