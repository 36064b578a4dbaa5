package auth

import (
	"context"
	"sync"
)

// MemoryHintStore keeps the role hint in process memory
type MemoryHintStore struct {
	mu   sync.RWMutex
	role Role
}

// NewMemoryHintStore returns an empty in-memory hint store
func NewMemoryHintStore() *MemoryHintStore {
	return &MemoryHintStore{}
}

func (m *MemoryHintStore) GetRole(_ context.Context) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role, nil
}

func (m *MemoryHintStore) SetRole(_ context.Context, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = role
	return nil
}

func (m *MemoryHintStore) ClearRole(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = RoleUnknown
	return nil
}
