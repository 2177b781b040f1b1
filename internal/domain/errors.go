package domain

import "errors"

var (
	// ErrNoMovies is returned when the movie source produced an empty list.
	ErrNoMovies = errors.New("no movies available")
	// ErrMovieListUnavailable wraps failures reported by a remote movie list provider.
	ErrMovieListUnavailable = errors.New("movie list unavailable")
	// ErrSessionNotFound is returned when a game session is not registered.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrPresenterClosed is returned by presenter queries after Close.
	ErrPresenterClosed = errors.New("presenter closed")
)
