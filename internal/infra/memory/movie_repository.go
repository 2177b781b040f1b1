package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"movie-quiz/internal/domain"
)

// MovieLoader fetches the movie list from a backing source (HTTP API, database).
type MovieLoader interface {
	LoadMovies(ctx context.Context) ([]domain.Movie, error)
}

const moviesFlightKey = "movies"

// loadTimeout bounds one shared movie list load.
const loadTimeout = 30 * time.Second

// MovieRepository caches the movie list with a TTL to avoid repeated fetches.
type MovieRepository struct {
	loader MovieLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	movies    []domain.Movie
	expiresAt time.Time
}

func NewMovieRepository(loader MovieLoader, ttl time.Duration) *MovieRepository {
	return &MovieRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *MovieRepository) GetMovies(ctx context.Context) ([]domain.Movie, error) {
	now := r.clock()

	r.mu.RLock()
	if r.movies != nil && r.expiresAt.After(now) {
		movies := r.movies
		r.mu.RUnlock()
		return movies, nil
	}
	r.mu.RUnlock()

	// the flight is shared by every waiting game, so it runs detached from the
	// first caller's context; each caller still gives up on its own ctx
	ch := r.sf.DoChan(moviesFlightKey, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.movies != nil && r.expiresAt.After(now) {
			movies := r.movies
			r.mu.RUnlock()
			return movies, nil
		}
		r.mu.RUnlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		movies, err := r.loader.LoadMovies(loadCtx)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(r.ttlWithJitter())
		r.mu.Lock()
		r.movies = movies
		r.expiresAt = expiresAt
		r.mu.Unlock()
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

func (r *MovieRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticMovieLoader is a loader backed by a fixed list (useful for tests/offline play).
type StaticMovieLoader struct {
	movies []domain.Movie
}

func NewStaticMovieLoader(movies []domain.Movie) *StaticMovieLoader {
	return &StaticMovieLoader{movies: movies}
}

func (l *StaticMovieLoader) LoadMovies(_ context.Context) ([]domain.Movie, error) {
	if len(l.movies) == 0 {
		return nil, domain.ErrNoMovies
	}
	out := make([]domain.Movie, len(l.movies))
	copy(out, l.movies)
	return out, nil
}

// SampleMovies is the built-in offline movie list.
func SampleMovies() []domain.Movie {
	return []domain.Movie{
		{ID: "tt0068646", Title: "The Godfather", Rating: 9.2},
		{ID: "tt0468569", Title: "The Dark Knight", Rating: 9.0},
		{ID: "tt0266697", Title: "Kill Bill", Rating: 8.1},
		{ID: "tt0848228", Title: "The Avengers", Rating: 8.0},
		{ID: "tt1431045", Title: "Deadpool", Rating: 8.0},
		{ID: "tt9243804", Title: "The Green Knight", Rating: 6.6},
		{ID: "tt10954652", Title: "Old", Rating: 5.8},
		{ID: "tt8852130", Title: "The Ice Age Adventures of Buck Wild", Rating: 4.3},
		{ID: "tt5259822", Title: "Tesla", Rating: 5.1},
		{ID: "tt8368406", Title: "Vivarium", Rating: 5.8},
	}
}
