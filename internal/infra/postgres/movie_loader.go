package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"movie-quiz/internal/domain"
)

// MovieLoader loads the movie list from the movies table.
type MovieLoader struct {
	pool *pgxpool.Pool
}

func NewMovieLoader(pool *pgxpool.Pool) *MovieLoader {
	return &MovieLoader{pool: pool}
}

func (l *MovieLoader) LoadMovies(ctx context.Context) ([]domain.Movie, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, title, rating, image_url FROM movies ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		var m domain.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Rating, &m.ImageURL); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read movies: %w", err)
	}
	if len(movies) == 0 {
		return nil, domain.ErrNoMovies
	}
	return movies, nil
}

// SeedMovies replaces the movies table contents, keeping list order as rank.
func SeedMovies(ctx context.Context, pool *pgxpool.Pool, movies []domain.Movie) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM movies`); err != nil {
		return fmt.Errorf("clear movies: %w", err)
	}
	for i, m := range movies {
		_, err := tx.Exec(ctx,
			`INSERT INTO movies (id, rank, title, rating, image_url) VALUES ($1, $2, $3, $4, $5)`,
			m.ID, i+1, m.Title, m.Rating, m.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("insert movie %s: %w", m.ID, err)
		}
	}
	return tx.Commit(ctx)
}
