package session

import (
	"sync"

	"github.com/google/uuid"
)

// ============================================================
// Session Manager
// ============================================================

// Manager keeps the live sessions indexed by token.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session and returns it with a fresh token.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := newSession(uuid.NewString())
	m.sessions[s.token] = s
	return s
}

// Get resolves a token to its session.
func (m *Manager) Get(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	return s, ok
}

// Remove drops a session entirely.
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
}
