package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mbolis/cart-survey/log"
)

const migrationsTable = "survey_schema_migrations"

//go:embed migrations
var responseMigrations embed.FS

// migrateResponses brings the survey_response table up to the latest
// embedded schema version.
func migrateResponses(db *sql.DB) error {
	src, err := iofs.New(responseMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("migrations target: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}

	switch err := migrator.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("migrations version: %w", err)
	}
	if dirty {
		return fmt.Errorf("survey_response schema is dirty at version %d", version)
	}
	log.Debugf("database.migrate: survey_response schema at version %d", version)
	return nil
}
