package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"movie-quiz/internal/app"
	"movie-quiz/internal/domain"
	"movie-quiz/internal/infra/memory"
)

func TestStatisticsStoreEmpty(t *testing.T) {
	ctx := context.Background()
	store := app.NewStatisticsStore(memory.NewKVStore(), "")

	stats, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.GamesCount)
	assert.True(t, stats.BestGame.IsZero())
	assert.Equal(t, time.Unix(0, 0).UTC(), stats.BestGame.Date)

	acc, err := store.TotalAccuracy(ctx)
	require.NoError(t, err)
	assert.Zero(t, acc)
}

func TestStatisticsStoreAccumulates(t *testing.T) {
	ctx := context.Background()
	store := app.NewStatisticsStore(memory.NewKVStore(), "stats:")
	day := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	results := []domain.GameResult{
		{Correct: 6, Total: 10, Date: day},
		{Correct: 8, Total: 10, Date: day.Add(time.Hour)},
		{Correct: 8, Total: 10, Date: day.Add(2 * time.Hour)},
		{Correct: 3, Total: 10, Date: day.Add(3 * time.Hour)},
	}
	for i, r := range results {
		require.NoError(t, store.Store(ctx, r))

		games, err := store.GamesCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, i+1, games)
	}

	stats, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, stats.CorrectAnswers)
	assert.Equal(t, 40, stats.QuestionsCount)

	best, err := store.BestGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, best.Correct)
	assert.True(t, best.Date.Equal(day.Add(time.Hour)), "tie keeps the earlier game, got %v", best.Date)

	acc, err := store.TotalAccuracy(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 62.5, acc, 1e-9)
}

func TestStatisticsStoreFirstGameBecomesBest(t *testing.T) {
	ctx := context.Background()
	store := app.NewStatisticsStore(memory.NewKVStore(), "")
	played := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Store(ctx, domain.GameResult{Correct: 0, Total: 10, Date: played}))

	best, err := store.BestGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, best.Total)
	assert.True(t, best.Date.Equal(played))
}

func TestStatisticsStoreUsesPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	store := app.NewStatisticsStore(kv, "moviequiz:")

	require.NoError(t, store.Store(ctx, domain.GameResult{Correct: 4, Total: 10, Date: time.Now()}))

	raw, err := kv.GetMany(ctx, "moviequiz:gamesCount", "moviequiz:correctAnswers", "gamesCount")
	require.NoError(t, err)
	assert.Equal(t, "1", raw["moviequiz:gamesCount"])
	assert.Equal(t, "4", raw["moviequiz:correctAnswers"])
	assert.NotContains(t, raw, "gamesCount")
}

func TestStatisticsStoreIgnoresCorruptValues(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	require.NoError(t, kv.SetMany(ctx, map[string]string{
		app.KeyGamesCount:   "two",
		app.KeyBestGameDate: "yesterday",
	}))
	store := app.NewStatisticsStore(kv, "")

	stats, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.GamesCount)
	assert.Equal(t, time.Unix(0, 0).UTC(), stats.BestGame.Date)
}

func TestStatisticsStoreWrapsBackendErrors(t *testing.T) {
	store := app.NewStatisticsStore(failingKV{}, "")

	err := store.Store(context.Background(), domain.GameResult{Correct: 1, Total: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBackend))
}

var errBackend = errors.New("backend down")

type failingKV struct{}

func (failingKV) GetMany(context.Context, ...string) (map[string]string, error) {
	return nil, errBackend
}

func (failingKV) SetMany(context.Context, map[string]string) error {
	return errBackend
}
