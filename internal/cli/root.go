package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"movie-quiz/internal/config"
	"movie-quiz/internal/logging"
)

var (
	port       string
	configPath string
	logLevel   string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "movie-quiz",
		Short:        "Movie rating quiz: ten yes/no questions per round, lifetime statistics",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (start)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "debug, info, warn or error")
	cmd.AddCommand(NewPlayCmd(&configPath, &logLevel))
	cmd.AddCommand(NewStartCmd(&configPath, &port, &logLevel))
	cmd.AddCommand(NewMigrateCmd(&configPath, &logLevel))
	return cmd
}

// loadConfig reads the config and builds the process logger from it; a
// non-empty levelFlag wins over the configured level.
func loadConfig(path, levelFlag string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if levelFlag != "" {
		cfg.Log.Level = levelFlag
	}
	logger := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
