package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"movie-quiz/internal/domain"
)

// SessionRepository tracks the games currently being played (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *GameSession)
	Get(id string) (*GameSession, bool)
	Remove(id string)
	Count() int
}

// GameSession is one player's running game: a presenter and the loop it lives on.
type GameSession struct {
	ID        string
	StartedAt time.Time
	Presenter *QuizPresenter
	loop      *Loop
}

// Close tears the presenter down and stops its loop.
func (s *GameSession) Close() {
	s.Presenter.Close()
	// let the close task run before the loop goes away
	done := make(chan struct{})
	if s.loop.Post(func() { close(done) }) {
		select {
		case <-done:
		case <-s.loop.Done():
		case <-time.After(time.Second):
		}
	}
	s.loop.Stop()
}

// GameService starts and ends single-player games sharing one question source
// and one statistics store.
type GameService struct {
	sessions SessionRepository
	source   func() QuestionSource
	stats    Statistics
	opts     PresenterOptions
	logger   *slog.Logger
}

// NewGameService builds a service. newSource is called once per game so each
// player gets an independent question stream.
func NewGameService(sessions SessionRepository, newSource func() QuestionSource, stats Statistics, opts PresenterOptions) *GameService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GameService{
		sessions: sessions,
		source:   newSource,
		stats:    stats,
		opts:     opts,
		logger:   logger,
	}
}

// StartGame creates a session rendering to display and begins loading questions.
// The session runs until ctx is done or EndGame is called.
func (s *GameService) StartGame(ctx context.Context, display Display) *GameSession {
	id := uuid.NewString()
	opts := s.opts
	opts.Logger = s.logger.With("session", id)

	loop := NewLoop(0)
	presenter := NewQuizPresenter(loop, s.source(), s.stats, display, opts)
	session := &GameSession{
		ID:        id,
		StartedAt: time.Now(),
		Presenter: presenter,
		loop:      loop,
	}
	go loop.Run(ctx)

	s.sessions.Add(session)
	presenter.Start()
	s.logger.Info("game started", "session", id, "active", s.sessions.Count())
	return session
}

// EndGame closes and forgets a session.
func (s *GameService) EndGame(id string) error {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Close()
	s.sessions.Remove(id)
	s.logger.Info("game ended", "session", id, "active", s.sessions.Count())
	return nil
}

// Statistics exposes the lifetime statistics all games write to.
func (s *GameService) Statistics(ctx context.Context) (domain.AggregateStatistics, error) {
	return s.stats.Snapshot(ctx)
}

// ActiveGames reports how many sessions are registered.
func (s *GameService) ActiveGames() int {
	return s.sessions.Count()
}
