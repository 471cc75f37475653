package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_settings_store.go -package=mocks faqbot-ai/internal/storage SettingsStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SettingsStore defines the interface for the key-value settings store.
// Values are opaque JSON blobs; typed normalization happens in the
// settings package at the read boundary.
type SettingsStore interface {
	// Get returns the raw JSON value stored under key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (json.RawMessage, error)
	// Set stores the raw JSON value under key, replacing any previous value.
	Set(ctx context.Context, key string, value json.RawMessage) error
}

// SettingsRepo provides methods for settings operations.
// It implements the SettingsStore interface.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the raw JSON value stored under key.
func (r *SettingsRepo) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query setting %q: %w", key, err)
	}

	return json.RawMessage(value), nil
}

// Set stores the raw JSON value under key.
func (r *SettingsRepo) Set(ctx context.Context, key string, value json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}
