package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/shopfloor/internal/settings"
)

// GetSetting returns a numeric setting or settings.ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (float64, error) {
	var value float64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM settings WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, settings.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting inserts or replaces a numeric setting.
func (s *Store) SetSetting(ctx context.Context, key string, value float64) error {
	err := s.exec(ctx, s.db, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
