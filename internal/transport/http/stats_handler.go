package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"movie-quiz/internal/app"
	"movie-quiz/internal/domain"
)

type statisticsResponse struct {
	domain.AggregateStatistics
	TotalAccuracy float64 `json:"totalAccuracy"`
	ActiveGames   int     `json:"activeGames"`
}

// NewRouter mounts the health check, the statistics endpoint and the game websocket.
func NewRouter(service *app.GameService, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ws := NewWSHandler(service, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/statistics", statisticsHandler(service, logger))
	r.Get("/ws", ws.ServeWS)
	return r
}

func statisticsHandler(service *app.GameService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := service.Statistics(r.Context())
		if err != nil {
			logger.Error("read statistics", "error", err, "request_id", middleware.GetReqID(r.Context()))
			http.Error(w, "statistics unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statisticsResponse{
			AggregateStatistics: stats,
			TotalAccuracy:       stats.TotalAccuracy(),
			ActiveGames:         service.ActiveGames(),
		})
	}
}
