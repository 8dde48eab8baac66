package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Required by the library implementation.
)

// BusyTimeoutMillis bounds how long a write waits on a lock held by another
// connection, e.g. a cron job racing an HTTP refresh.
const BusyTimeoutMillis = 5000

// Database keeps the last known state between restarts. Every table holds a
// single row that is overwritten.
type Database struct {
	db  *sql.DB
	log *slog.Logger
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

func New(ctx context.Context, dbPath string, log *slog.Logger) (*Database, error) {
	dbFile, err := open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	if err = migrateUp(ctx, dbFile, dbPath, log); err != nil {
		return nil, errors.Join(err, dbFile.Close())
	}

	return &Database{db: dbFile, log: log}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func open(ctx context.Context, dbPath string) (*sql.DB, error) {
	dbFile, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open DB file: %w", err)
	}

	if err = dbFile.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping DB: %w", err), dbFile.Close())
	}

	return dbFile, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}

	return fmt.Sprintf("%s%s_busy_timeout=%d&_journal_mode=WAL", dbPath, sep, BusyTimeoutMillis)
}

func migrateUp(ctx context.Context, dbFile *sql.DB, dbPath string, log *slog.Logger) error {
	dbInstance, err := sqlite3.WithInstance(dbFile, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, "sqlite3", dbInstance)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	migrateErr := m.Up()

	fields := []any{"dbPath", dbPath}
	if version, dirty, versionErr := m.Version(); versionErr == nil {
		fields = append(fields, "version", version, "dirty", dirty)
	} else if !errors.Is(versionErr, migrate.ErrNilVersion) {
		log.WarnContext(ctx, "Failed to fetch migration version",
			"error", versionErr,
			"dbPath", dbPath)
	}

	switch {
	case migrateErr == nil:
		log.InfoContext(ctx, "DB is migrated", fields...)
	case errors.Is(migrateErr, migrate.ErrNoChange):
		log.InfoContext(ctx, "No migrations to apply", fields...)
	default:
		return fmt.Errorf("apply migrations: %w", migrateErr)
	}

	return nil
}
