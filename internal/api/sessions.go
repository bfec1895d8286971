package api

import (
	"sync"

	"github.com/pders01/aihub/internal/content"
)

// SessionStore is durable storage for the signed-in session. Only the
// Client writes to it.
type SessionStore interface {
	Load() (*content.Session, error)
	Save(*content.Session) error
	Clear() error
}

// MemorySessions keeps the session in memory. It is the default when no
// store is configured, and what tests use.
type MemorySessions struct {
	mu      sync.Mutex
	session *content.Session
}

func NewMemorySessions(initial *content.Session) *MemorySessions {
	return &MemorySessions{session: initial}
}

func (m *MemorySessions) Load() (*content.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *MemorySessions) Save(s *content.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.session = &cp
	return nil
}

func (m *MemorySessions) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
