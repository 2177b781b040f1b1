package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
quiz:
  questions_amount: 5
  source: imdb
  imdb:
    api_key: k_123
statistics:
  backend: redis
redis:
  addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Quiz.QuestionsAmount)
	assert.Equal(t, SourceIMDb, cfg.Quiz.Source)
	assert.Equal(t, "k_123", cfg.Quiz.IMDb.APIKey)
	assert.Equal(t, BackendRedis, cfg.Statistics.Backend)
	// untouched sections keep their defaults
	assert.Equal(t, "1s", cfg.Quiz.FeedbackDelay)
	assert.Equal(t, "moviequiz:stats:", cfg.Statistics.KeyPrefix)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"unknown source":       "quiz:\n  source: ftp\n",
		"imdb without key":     "quiz:\n  source: imdb\n",
		"redis without addr":   "statistics:\n  backend: redis\n",
		"postgres without url": "statistics:\n  backend: postgres\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
}
