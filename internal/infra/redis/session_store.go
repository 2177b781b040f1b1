package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"movie-quiz/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Presenters live in-process; Redis only carries a liveness marker per game so
// other tooling can see how many games are running. Markers expire after ttl
// unless KeepAlive refreshes them.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
	mu       sync.RWMutex
	sessions map[string]*app.GameSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*app.GameSession),
	}
}

func (s *SessionStore) Add(session *app.GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	// best-effort liveness marker
	err := s.client.Set(context.Background(), s.key(session.ID), session.StartedAt.UTC().Format(time.RFC3339), s.ttl).Err()
	if err != nil {
		s.logger.Warn("mark session live", "session", session.ID, "error", err)
	}
}

func (s *SessionStore) Get(id string) (*app.GameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	if err := s.client.Del(context.Background(), s.key(id)).Err(); err != nil {
		s.logger.Warn("clear session marker", "session", id, "error", err)
	}
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// KeepAlive refreshes the markers of running games every half ttl until ctx is done.
func (s *SessionStore) KeepAlive(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *SessionStore) refresh(ctx context.Context) {
	s.mu.RLock()
	sessions := make([]*app.GameSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	if len(sessions) == 0 {
		return
	}
	pipe := s.client.Pipeline()
	for _, session := range sessions {
		pipe.Set(ctx, s.key(session.ID), session.StartedAt.UTC().Format(time.RFC3339), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("refresh session markers", "sessions", len(sessions), "error", err)
	}
}

func (s *SessionStore) key(id string) string {
	return "moviequiz:session:" + id
}
