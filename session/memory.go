package session

import (
	"context"
	"sync"

	"github.com/stockease/client-go/core"
)

// MemoryStore is an in-memory implementation of Store. It is the default
// backend and mirrors tab-scoped browser storage: the session lives for the
// lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	current Session
	logger  core.Logger
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logger: &core.NoOpLogger{},
	}
}

// SetLogger configures the logger for this store
func (m *MemoryStore) SetLogger(logger core.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Get returns the stored session, or the zero session when none is stored
func (m *MemoryStore) Get(ctx context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, nil
}

// Set replaces the stored session
func (m *MemoryStore) Set(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s

	m.logger.Debug("Session stored", map[string]interface{}{
		"operation": "session_set",
		"username":  s.Username,
		"role":      s.Role,
	})
	return nil
}

// Clear removes the stored session. Idempotent.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Session{}

	m.logger.Debug("Session cleared", map[string]interface{}{
		"operation": "session_clear",
	})
	return nil
}
