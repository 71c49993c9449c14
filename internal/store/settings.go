package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/notesh/internal/apperr"
)

// ConfigValue returns the stored value for key.
func (db *DB) ConfigValue(ctx context.Context, key string) (string, error) {
	var v string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("setting %q: %w", key, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("store: get setting: %w", err)
	}
	return v, nil
}

// SetConfigValue stores value under key, replacing any previous value.
func (db *DB) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("store: set setting: %w", err)
	}
	return nil
}

// AllConfig returns every stored setting.
func (db *DB) AllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("store: all settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
