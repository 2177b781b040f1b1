package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"movie-quiz/internal/app"
	transport "movie-quiz/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the websocket server.
func NewStartCmd(configPath, port, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Serve games over websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, *logLevel)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag, levelFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig(configPath, levelFlag)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	stats, err := b.statistics(cfg)
	if err != nil {
		return err
	}
	sources, err := b.questionSources(cfg, logger, true)
	if err != nil {
		return err
	}
	keepAliveCtx, stopKeepAlive := context.WithCancel(ctx)
	defer stopKeepAlive()
	service := app.NewGameService(b.sessions(keepAliveCtx, cfg, logger), sources, stats, presenterOptions(cfg, logger))

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(service, logger),
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting movie quiz server", "port", finalPort, "source", cfg.Quiz.Source, "statistics", cfg.Statistics.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
