package storage

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func newMigrationLogger() *migrationLogger {
	return &migrationLogger{
		logger:  slog.Default().With("op", "migrate"),
		verbose: true,
	}
}

func (ml *migrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *migrationLogger) Verbose() bool {
	return ml.verbose
}

// Migrate applies the bundled migrations to the database at dsn.
// Both URL and keyword/value forms of dsn are accepted.
//
// Migrations only create missing tables and columns, so running it on
// every startup is safe.
func Migrate(dsn string) error {
	const op = "storage.Migrate"

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	driver, err := openMigrationDriver(dsn)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := up(m); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MigrateFrom applies migrations read from sourceURL, e.g. file:///migrations.
func MigrateFrom(sourceURL, dsn string) error {
	const op = "storage.MigrateFrom"

	driver, err := openMigrationDriver(dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "pgx5", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := up(m); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// openMigrationDriver opens a dedicated pool for the migrate driver.
// Closing the driver closes the pool.
func openMigrationDriver(dsn string) (database.Driver, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid dsn: %w", err)
	}

	db := stdlib.OpenDB(*connConfig)
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return driver, nil
}

func up(m *migrate.Migrate) (err error) {
	m.Log = newMigrationLogger()

	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return nil
		}
		return err
	}
	m.Log.Printf("migration applied")
	return nil
}
