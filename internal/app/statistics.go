package app

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"movie-quiz/internal/domain"
)

// KeyValueStore is the durable scalar storage statistics are kept in.
// SetMany must apply all values or none.
type KeyValueStore interface {
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string) error
}

// Persisted statistics keys.
const (
	KeyCorrectAnswers  = "correctAnswers"
	KeyQuestionsCount  = "questionsCount"
	KeyGamesCount      = "gamesCount"
	KeyBestGameCorrect = "bestGameCorrect"
	KeyBestGameTotal   = "bestGameTotal"
	KeyBestGameDate    = "bestGameDate"
)

var statisticsKeys = []string{
	KeyCorrectAnswers,
	KeyQuestionsCount,
	KeyGamesCount,
	KeyBestGameCorrect,
	KeyBestGameTotal,
	KeyBestGameDate,
}

// StatisticsStore accumulates round results into lifetime statistics.
type StatisticsStore struct {
	kv     KeyValueStore
	prefix string

	// mu serializes read-modify-write cycles; readers take it too so they never
	// interleave with a Store in progress.
	mu sync.RWMutex
}

// NewStatisticsStore keeps statistics in kv, namespacing every key with prefix.
func NewStatisticsStore(kv KeyValueStore, prefix string) *StatisticsStore {
	return &StatisticsStore{kv: kv, prefix: prefix}
}

// Store folds result into the lifetime counters and the best game.
func (s *StatisticsStore) Store(ctx context.Context, result domain.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.read(ctx)
	if err != nil {
		return err
	}

	stats.CorrectAnswers += result.Correct
	stats.QuestionsCount += result.Total
	stats.GamesCount++
	if stats.BestGame.IsZero() || result.IsBetterThan(stats.BestGame) {
		stats.BestGame = result
	}

	if err := s.kv.SetMany(ctx, s.encode(stats)); err != nil {
		return fmt.Errorf("store statistics: %w", err)
	}
	return nil
}

// Snapshot returns all persisted statistics at once.
func (s *StatisticsStore) Snapshot(ctx context.Context) (domain.AggregateStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(ctx)
}

func (s *StatisticsStore) TotalAccuracy(ctx context.Context) (float64, error) {
	stats, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return stats.TotalAccuracy(), nil
}

func (s *StatisticsStore) BestGame(ctx context.Context) (domain.GameResult, error) {
	stats, err := s.Snapshot(ctx)
	if err != nil {
		return domain.GameResult{}, err
	}
	return stats.BestGame, nil
}

func (s *StatisticsStore) GamesCount(ctx context.Context) (int, error) {
	stats, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return stats.GamesCount, nil
}

func (s *StatisticsStore) read(ctx context.Context) (domain.AggregateStatistics, error) {
	keys := make([]string, len(statisticsKeys))
	for i, k := range statisticsKeys {
		keys[i] = s.key(k)
	}
	raw, err := s.kv.GetMany(ctx, keys...)
	if err != nil {
		return domain.AggregateStatistics{}, fmt.Errorf("read statistics: %w", err)
	}
	return domain.AggregateStatistics{
		CorrectAnswers: parseInt(raw[s.key(KeyCorrectAnswers)]),
		QuestionsCount: parseInt(raw[s.key(KeyQuestionsCount)]),
		GamesCount:     parseInt(raw[s.key(KeyGamesCount)]),
		BestGame: domain.GameResult{
			Correct: parseInt(raw[s.key(KeyBestGameCorrect)]),
			Total:   parseInt(raw[s.key(KeyBestGameTotal)]),
			Date:    parseTime(raw[s.key(KeyBestGameDate)]),
		},
	}, nil
}

func (s *StatisticsStore) encode(stats domain.AggregateStatistics) map[string]string {
	return map[string]string{
		s.key(KeyCorrectAnswers):  strconv.Itoa(stats.CorrectAnswers),
		s.key(KeyQuestionsCount):  strconv.Itoa(stats.QuestionsCount),
		s.key(KeyGamesCount):      strconv.Itoa(stats.GamesCount),
		s.key(KeyBestGameCorrect): strconv.Itoa(stats.BestGame.Correct),
		s.key(KeyBestGameTotal):   strconv.Itoa(stats.BestGame.Total),
		s.key(KeyBestGameDate):    stats.BestGame.Date.UTC().Format(time.RFC3339Nano),
	}
}

func (s *StatisticsStore) key(name string) string {
	return s.prefix + name
}

// absent or corrupt values read as zero
func parseInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}
