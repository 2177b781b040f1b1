package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Movie sources.
const (
	SourceStatic   = "static"
	SourceIMDb     = "imdb"
	SourcePostgres = "postgres"
)

// Statistics backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Quiz struct {
		QuestionsAmount int    `yaml:"questions_amount"`
		FeedbackDelay   string `yaml:"feedback_delay"`
		MoviesTTL       string `yaml:"movies_ttl"`
		Source          string `yaml:"source"`
		IMDb            struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"imdb"`
	} `yaml:"quiz"`
	Statistics struct {
		Backend    string `yaml:"backend"`
		SQLitePath string `yaml:"sqlite_path"`
		KeyPrefix  string `yaml:"key_prefix"`
	} `yaml:"statistics"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Default is the configuration used when no file exists.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "color"
	cfg.Quiz.QuestionsAmount = 10
	cfg.Quiz.FeedbackDelay = "1s"
	cfg.Quiz.MoviesTTL = "10m"
	cfg.Quiz.Source = SourceStatic
	cfg.Statistics.Backend = BackendSQLite
	cfg.Statistics.SQLitePath = "moviequiz.db"
	cfg.Statistics.KeyPrefix = "moviequiz:stats:"
	cfg.Redis.TTL = "10m"
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown sources and backends.
func (c Config) Validate() error {
	switch c.Quiz.Source {
	case SourceStatic, SourcePostgres:
	case SourceIMDb:
		if c.Quiz.IMDb.APIKey == "" {
			return errors.New("quiz.imdb.api_key is required for the imdb source")
		}
	default:
		return fmt.Errorf("unknown quiz.source %q", c.Quiz.Source)
	}
	if c.Quiz.Source == SourcePostgres && c.Postgres.URL == "" {
		return errors.New("postgres.url is required for the postgres source")
	}

	switch c.Statistics.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis statistics backend")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres.url is required for the postgres statistics backend")
		}
	default:
		return fmt.Errorf("unknown statistics.backend %q", c.Statistics.Backend)
	}
	if c.Quiz.QuestionsAmount < 0 {
		return fmt.Errorf("quiz.questions_amount must not be negative, got %d", c.Quiz.QuestionsAmount)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
