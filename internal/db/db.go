package db

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/Simplici0/shopfloor/internal/config"
)

// Open opens the configured database and validates connectivity.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case config.DriverSQLite:
		return OpenSQLite(dsn)
	case config.DriverPostgres:
		return OpenPostgres(dsn)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// OpenSQLite opens a SQLite database, sets recommended pragmas, and validates connectivity.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}

// OpenPostgres opens a Postgres database through the pgx driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres database: %w", err)
	}

	return db, nil
}
