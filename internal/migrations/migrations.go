// Package migrations creates the documents table used by the PostgreSQL store.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// Source returns the embedded migrations as a golang-migrate source driver.
func Source() (source.Driver, error) {
	driver, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	return driver, nil
}

// RunMigrations brings the documents schema up to date.
// If autoMigrate is false, it only reports the current version.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	sourceDriver, err := Source()
	if err != nil {
		return err
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		if !autoMigrate {
			return fmt.Errorf("documents schema is dirty at version %d; enable store.auto_migrate to re-apply it", version)
		}
		rewind := rerunVersion(sourceDriver, version)
		slog.Warn("[Migrations] Documents schema is dirty, re-applying interrupted migration",
			"version", version,
			"rewind_to", rewind,
		)
		if err := m.Force(rewind); err != nil {
			return fmt.Errorf("failed to rewind dirty migration %d: %w", version, err)
		}
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migration disabled, skipping migrations", "current_version", version)
		return nil
	}

	slog.Info("[Migrations] Running database migrations", "current_version", version)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("[Migrations] Database schema is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get updated migration version: %w", err)
	}

	slog.Info("[Migrations] Database migrations completed successfully",
		"from_version", version,
		"to_version", newVersion,
	)
	return nil
}

// rerunVersion is the version to record so that Up applies the dirty
// migration again: the one before it in src, or none. The documents
// migrations only use IF [NOT] EXISTS, so a partially applied one can run twice.
func rerunVersion(src source.Driver, dirty uint) int {
	prev, err := src.Prev(dirty)
	if err != nil {
		return database.NilVersion
	}
	return int(prev)
}
