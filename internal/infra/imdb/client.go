// Package imdb loads the top-250 movie list and poster images over HTTP.
package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"movie-quiz/internal/domain"
)

const (
	DefaultBaseURL = "https://tv-api.com"
	defaultTimeout = 10 * time.Second
	// posters above this size are rejected
	maxImageBytes = 8 << 20
)

type topMoviesResponse struct {
	Items        []movieItem `json:"items"`
	ErrorMessage string      `json:"errorMessage"`
}

type movieItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Rating string `json:"imDbRating"`
	Image  string `json:"image"`
}

// Client implements both the movie loader and the image loader.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

func (c *Client) LoadMovies(ctx context.Context) ([]domain.Movie, error) {
	endpoint := c.baseURL + "/en/API/Top250Movies/" + url.PathEscape(c.apiKey)
	body, err := c.get(ctx, endpoint, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMovieListUnavailable, err)
	}

	var resp topMoviesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode top movies: %w", err)
	}
	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrMovieListUnavailable, resp.ErrorMessage)
	}
	if len(resp.Items) == 0 {
		return nil, domain.ErrNoMovies
	}

	movies := make([]domain.Movie, 0, len(resp.Items))
	for _, item := range resp.Items {
		movies = append(movies, domain.Movie{
			ID:       item.ID,
			Title:    item.Title,
			Rating:   parseRating(item.Rating),
			ImageURL: item.Image,
		})
	}
	return movies, nil
}

func (c *Client) LoadImage(ctx context.Context, imageURL string) ([]byte, error) {
	data, err := c.get(ctx, imageURL, maxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	return data, nil
}

// get returns the response body; limit <= 0 means unbounded.
func (c *Client) get(ctx context.Context, endpoint string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("response exceeds %d bytes", limit)
	}
	return data, nil
}

func parseRating(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
