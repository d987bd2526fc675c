package store

import (
	"context"
	"sync"
	"time"

	"lumiere-assistant-backend/internal/session"
)

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*session.State
	maxMessages int
}

func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*session.State),
		maxMessages: maxMessages,
	}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*session.State, bool, error) {
	if sessionID == "" {
		return nil, false, ErrInvalidSessionID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return nil, false, nil
	}
	return st.Clone(), true, nil
}

func (m *MemoryStore) Put(_ context.Context, sessionID string, st *session.State) error {
	if sessionID == "" {
		return ErrInvalidSessionID
	}
	c := st.Clone()
	c.TrimHistory(m.maxMessages)
	c.UpdatedAt = time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = c
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
