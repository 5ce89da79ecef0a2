// Package store implements the typed reads and writes of the back-office
// over database/sql. The same queries run on SQLite and Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Simplici0/shopfloor/internal/config"
)

// Store is the database/sql backed repository of quotes, machines,
// shipments and settings.
type Store struct {
	db     *sql.DB
	driver string
}

// New returns a Store on db. driver selects the placeholder style.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) exec(ctx context.Context, e execer, query string, args ...any) error {
	_, err := e.ExecContext(ctx, s.rebind(query), args...)
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
