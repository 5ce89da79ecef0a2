package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/Simplici0/shopfloor/internal/config"
)

//go:embed sql/*.sql
var files embed.FS

const migrationsDir = "sql"

// Up runs all pending embedded migrations for the given driver.
func Up(db *sql.DB, driver string) error {
	dialect, err := dialectFor(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(files)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

func dialectFor(driver string) (string, error) {
	switch driver {
	case config.DriverSQLite:
		return "sqlite3", nil
	case config.DriverPostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("no migration dialect for driver %q", driver)
}
