package memory

import (
	"sync"

	"ecoquest-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.SessionHandle
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.SessionHandle),
	}
}

func (s *SessionStore) Put(handle *app.SessionHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[handle.ID()] = handle
}

func (s *SessionStore) Get(sessionID string) (*app.SessionHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.sessions[sessionID]
	return handle, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
