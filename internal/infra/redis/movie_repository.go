package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"movie-quiz/internal/domain"
)

// MovieLoader fetches the movie list from a backing source (HTTP API, database).
type MovieLoader interface {
	LoadMovies(ctx context.Context) ([]domain.Movie, error)
}

// DefaultMoviesKey holds the JSON-encoded movie list.
const DefaultMoviesKey = "moviequiz:movies"

const loadTimeout = 30 * time.Second

// MovieRepository caches the movie list in Redis and falls back to a loader on cache miss.
type MovieRepository struct {
	client *redis.Client
	loader MovieLoader
	key    string
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewMovieRepository(client *redis.Client, loader MovieLoader, ttl time.Duration) *MovieRepository {
	return &MovieRepository{
		client: client,
		loader: loader,
		key:    DefaultMoviesKey,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *MovieRepository) GetMovies(ctx context.Context) ([]domain.Movie, error) {
	if movies, ok := r.cached(ctx); ok {
		return movies, nil
	}

	// detached from the first caller: other games may be waiting on this flight
	ch := r.sf.DoChan(r.key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		// Re-check cache in case another goroutine filled it.
		if movies, ok := r.cached(loadCtx); ok {
			return movies, nil
		}

		movies, err := r.loader.LoadMovies(loadCtx)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(movies)
		if err != nil {
			return nil, err
		}
		// cache write is best effort; the loaded list is still usable
		_ = r.client.Set(loadCtx, r.key, raw, r.ttlWithJitter()).Err()
		return movies, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Movie), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *MovieRepository) cached(ctx context.Context) ([]domain.Movie, bool) {
	// redis.Nil and transport errors alike fall through to the loader
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		return nil, false
	}
	var movies []domain.Movie
	if err := json.Unmarshal(raw, &movies); err != nil || len(movies) == 0 {
		return nil, false
	}
	return movies, true
}

func (r *MovieRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
