package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"movie-quiz/internal/app"
	"movie-quiz/internal/config"
	"movie-quiz/internal/infra/imdb"
	"movie-quiz/internal/infra/memory"
	"movie-quiz/internal/infra/postgres"
	redisinfra "movie-quiz/internal/infra/redis"
	"movie-quiz/internal/infra/sqlite"
)

// backends holds the connections the configured sources and stores share.
type backends struct {
	redis  *redis.Client
	pool   *pgxpool.Pool
	sqlite *sqlite.KVStore
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	if cfg.Statistics.Backend == config.BackendSQLite {
		store, err := sqlite.Open(ctx, cfg.Statistics.SQLitePath)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		b.sqlite = store
	}
	return b, nil
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.sqlite != nil {
		_ = b.sqlite.Close()
	}
}

func (b *backends) statistics(cfg config.Config) (*app.StatisticsStore, error) {
	var kv app.KeyValueStore
	switch cfg.Statistics.Backend {
	case config.BackendMemory:
		kv = memory.NewKVStore()
	case config.BackendSQLite:
		kv = b.sqlite
	case config.BackendRedis:
		kv = redisinfra.NewKVStore(b.redis)
	case config.BackendPostgres:
		kv = postgres.NewKVStore(b.pool)
	default:
		return nil, fmt.Errorf("unknown statistics backend %q", cfg.Statistics.Backend)
	}
	return app.NewStatisticsStore(kv, cfg.Statistics.KeyPrefix), nil
}

// questionSources returns a factory of per-game question sources sharing one
// cached movie list. withImages is false for displays that cannot show posters.
func (b *backends) questionSources(cfg config.Config, logger *slog.Logger, withImages bool) (func() app.QuestionSource, error) {
	var (
		loader memory.MovieLoader
		images app.ImageLoader
	)
	switch cfg.Quiz.Source {
	case config.SourceStatic:
		loader = memory.NewStaticMovieLoader(memory.SampleMovies())
	case config.SourceIMDb:
		client := imdb.NewClient(cfg.Quiz.IMDb.BaseURL, cfg.Quiz.IMDb.APIKey, nil)
		loader = client
		if withImages {
			images = client
		}
	case config.SourcePostgres:
		loader = postgres.NewMovieLoader(b.pool)
	default:
		return nil, fmt.Errorf("unknown quiz source %q", cfg.Quiz.Source)
	}

	ttl := config.TTLDuration(cfg.Quiz.MoviesTTL, 10*time.Minute)
	var movies app.MovieRepository
	if b.redis != nil {
		movies = redisinfra.NewMovieRepository(b.redis, loader, ttl)
	} else {
		movies = memory.NewMovieRepository(loader, ttl)
	}
	return func() app.QuestionSource {
		return app.NewQuestionFactory(movies, images, logger)
	}, nil
}

// sessions returns the session repository; Redis liveness markers are kept
// fresh until ctx is done.
func (b *backends) sessions(ctx context.Context, cfg config.Config, logger *slog.Logger) app.SessionRepository {
	if b.redis != nil {
		store := redisinfra.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), logger)
		go store.KeepAlive(ctx)
		return store
	}
	return memory.NewSessionStore()
}

func presenterOptions(cfg config.Config, logger *slog.Logger) app.PresenterOptions {
	return app.PresenterOptions{
		QuestionsAmount: cfg.Quiz.QuestionsAmount,
		FeedbackDelay:   config.TTLDuration(cfg.Quiz.FeedbackDelay, app.DefaultFeedbackDelay),
		Logger:          logger,
	}
}
