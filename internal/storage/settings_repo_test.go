package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) *SettingsRepo {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewSettingsRepo(db)
}

func TestSettingsRepo_GetMissingKey(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Get(context.Background(), "settings")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSettingsRepo_SetAndGet(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	value := json.RawMessage(`{"contactLink": "https://example.com/contact"}`)
	if err := repo.Set(ctx, "settings", value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := repo.Get(ctx, "settings")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Get() = %s, want %s", got, value)
	}
}

func TestSettingsRepo_SetReplacesValue(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "settings", json.RawMessage(`{"v": 1}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(ctx, "settings", json.RawMessage(`{"v": 2}`)); err != nil {
		t.Fatalf("Set() second call error = %v", err)
	}

	got, err := repo.Get(ctx, "settings")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"v": 2}` {
		t.Errorf("Get() = %s, want replaced value", got)
	}
}

func TestSettingsRepo_KeysAreIndependent(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "settings", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(ctx, "collections", json.RawMessage(`[]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := repo.Get(ctx, "collections")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Get() = %s, want []", got)
	}
}
