package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"movie-quiz/internal/domain"
)

// MovieRepository returns the movie list questions are drawn from (cached).
type MovieRepository interface {
	GetMovies(ctx context.Context) ([]domain.Movie, error)
}

// ImageLoader fetches poster bytes.
type ImageLoader interface {
	LoadImage(ctx context.Context, url string) ([]byte, error)
}

const (
	minRatingThreshold = 5
	maxRatingThreshold = 9
)

// QuestionFactory turns movies into "is the rating greater than N?" questions.
type QuestionFactory struct {
	movies MovieRepository
	images ImageLoader
	logger *slog.Logger

	mu     sync.Mutex
	rnd    *rand.Rand
	loaded []domain.Movie
}

// NewQuestionFactory builds a QuestionSource over movies. images may be nil, in
// which case questions carry no poster.
func NewQuestionFactory(movies MovieRepository, images ImageLoader, logger *slog.Logger) *QuestionFactory {
	return NewQuestionFactoryWithRand(movies, images, logger, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuestionFactoryWithRand is used by tests for deterministic questions.
func NewQuestionFactoryWithRand(movies MovieRepository, images ImageLoader, logger *slog.Logger, rnd *rand.Rand) *QuestionFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionFactory{
		movies: movies,
		images: images,
		logger: logger,
		rnd:    rnd,
	}
}

// LoadData fetches the movie list.
func (f *QuestionFactory) LoadData(ctx context.Context) error {
	movies, err := f.movies.GetMovies(ctx)
	if err != nil {
		return fmt.Errorf("load movies: %w", err)
	}
	if len(movies) == 0 {
		return domain.ErrNoMovies
	}
	f.mu.Lock()
	f.loaded = movies
	f.mu.Unlock()
	return nil
}

// NextQuestion draws a random movie. It returns (nil, nil) before LoadData succeeded.
func (f *QuestionFactory) NextQuestion(ctx context.Context) (*domain.Question, error) {
	f.mu.Lock()
	if len(f.loaded) == 0 {
		f.mu.Unlock()
		return nil, nil
	}
	movie := f.loaded[f.rnd.Intn(len(f.loaded))]
	threshold := minRatingThreshold + f.rnd.Intn(maxRatingThreshold-minRatingThreshold+1)
	f.mu.Unlock()

	var image []byte
	if f.images != nil && movie.ImageURL != "" {
		data, err := f.images.LoadImage(ctx, movie.ImageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("failed to load poster", "movie", movie.ID, "error", err)
		} else {
			image = data
		}
	}

	return &domain.Question{
		Image:         image,
		Text:          fmt.Sprintf("Is the rating of this movie greater than %d?", threshold),
		CorrectAnswer: movie.Rating > float64(threshold),
	}, nil
}
