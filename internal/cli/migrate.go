package cli

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"movie-quiz/internal/config"
	"movie-quiz/internal/domain"
	"movie-quiz/internal/infra/memory"
	"movie-quiz/internal/infra/postgres"
	pgmigrations "movie-quiz/internal/infra/postgres/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath, logLevel *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, logger, err := loadConfig(*configPath, *logLevel)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
				return err
			}
			if seed {
				return seedMovies(ctx, cfg, logger)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the built-in movie list into the movies table")
	return cmd
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.Postgres.URL == "" {
		return errors.New("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("no new migrations")
		return nil
	}
	logger.Info("migrations applied", "group", group.String())
	return nil
}

func seedMovies(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	movies := memory.SampleMovies()
	if len(movies) == 0 {
		return domain.ErrNoMovies
	}
	if err := postgres.SeedMovies(ctx, pool, movies); err != nil {
		return err
	}
	logger.Info("movies seeded", "count", len(movies))
	return nil
}
