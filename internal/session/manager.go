package session

import (
	"sync"

	"github.com/google/uuid"
)

// Builder constructs a session for a freshly assigned id. The manager owns
// id assignment so callers cannot collide.
type Builder func(id string) *Session

// Manager owns the live sessions, keyed by uuid. Sessions are explicit
// objects; nothing here is a singleton.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	build    Builder
}

func NewManager(build Builder) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		build:    build,
	}
}

// Create builds and registers a new session.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := m.build(id)
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

// Get returns the session for an id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Remove drops a session from the registry. The session itself needs no
// teardown; the evaluation engine is shared and outlives it.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// IDs lists the registered session ids in no particular order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	return out
}
