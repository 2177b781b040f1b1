// Package migrations holds the bun migrations for the movies and statistics tables.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
