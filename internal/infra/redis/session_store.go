package redis

import (
	"context"
	"sync"
	"time"

	"ecoquest-service/internal/app"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Handles stay in a local map because timers and subscribers are in-process;
// Redis only carries a liveness marker per session (value: quiz id) so other
// instances and operators can see what is running.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
	mu       sync.RWMutex
	sessions map[string]*app.SessionHandle
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*app.SessionHandle),
	}
}

func (s *SessionStore) Put(handle *app.SessionHandle) {
	quizID := handle.State().QuizID

	s.mu.Lock()
	s.sessions[handle.ID()] = handle
	s.mu.Unlock()

	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(handle.ID()), quizID, s.ttl).Err(); err != nil {
		s.logger.Warn("mark session live failed", zap.String("session_id", handle.ID()), zap.Error(err))
	}
}

func (s *SessionStore) Get(sessionID string) (*app.SessionHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.sessions[sessionID]
	return handle, ok
}

// Delete is called with the session's own lock held and must not call back into the handle.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.client.Del(context.Background(), s.key(sessionID)).Err(); err != nil {
		s.logger.Warn("clear session marker failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Live counts sessions marked live in Redis across all instances.
func (s *SessionStore) Live(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "quiz:session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
