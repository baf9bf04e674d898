package repositories

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestSQLiteDocumentRepository(t *testing.T) {
	ctx := context.Background()
	a := models.Track{ID: "a", Title: "Alpha", Author: "Chan A", Thumbnail: "https://i.ytimg.com/a.jpg"}
	b := models.Track{ID: "b", Title: "Beta"}

	t.Run("Get missing document returns empty lists", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSQLiteDocumentRepository(db)
		doc, err := repo.Get(ctx, "nobody")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Queue == nil || doc.LikedSongs == nil {
			t.Fatal("expected non-nil lists")
		}
		if len(doc.Queue) != 0 || len(doc.LikedSongs) != 0 {
			t.Errorf("expected empty document, got %+v", doc)
		}
	})

	t.Run("SaveField round trip", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSQLiteDocumentRepository(db)
		if err := repo.SaveField(ctx, "u1", models.FieldQueue, []models.Track{a, b}); err != nil {
			t.Fatalf("failed to save queue: %v", err)
		}

		doc, err := repo.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to get document: %v", err)
		}
		if len(doc.Queue) != 2 || doc.Queue[0] != a || doc.Queue[1] != b {
			t.Errorf("unexpected queue %+v", doc.Queue)
		}
		if len(doc.LikedSongs) != 0 {
			t.Errorf("expected liked songs to stay empty, got %+v", doc.LikedSongs)
		}
	})

	t.Run("merge write leaves the other field untouched", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSQLiteDocumentRepository(db)
		if err := repo.SaveField(ctx, "u1", models.FieldQueue, []models.Track{a}); err != nil {
			t.Fatalf("failed to save queue: %v", err)
		}
		if err := repo.SaveField(ctx, "u1", models.FieldLikedSongs, []models.Track{b}); err != nil {
			t.Fatalf("failed to save liked songs: %v", err)
		}
		if err := repo.SaveField(ctx, "u1", models.FieldQueue, []models.Track{b, a}); err != nil {
			t.Fatalf("failed to overwrite queue: %v", err)
		}

		doc, err := repo.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to get document: %v", err)
		}
		if len(doc.Queue) != 2 || doc.Queue[0].ID != "b" {
			t.Errorf("expected latest queue [b a], got %+v", doc.Queue)
		}
		if len(doc.LikedSongs) != 1 || doc.LikedSongs[0].ID != "b" {
			t.Errorf("expected liked songs [b], got %+v", doc.LikedSongs)
		}
	})

	t.Run("nil payload clears a list", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSQLiteDocumentRepository(db)
		if err := repo.SaveField(ctx, "u1", models.FieldLikedSongs, []models.Track{a}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if err := repo.SaveField(ctx, "u1", models.FieldLikedSongs, nil); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		doc, _ := repo.Get(ctx, "u1")
		if doc.LikedSongs == nil || len(doc.LikedSongs) != 0 {
			t.Errorf("expected empty liked songs, got %+v", doc.LikedSongs)
		}
	})

	t.Run("users are isolated", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSQLiteDocumentRepository(db)
		if err := repo.SaveField(ctx, "u1", models.FieldQueue, []models.Track{a}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		doc, err := repo.Get(ctx, "u2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc.Queue) != 0 {
			t.Errorf("expected u2 to have an empty queue, got %+v", doc.Queue)
		}
	})

	t.Run("rejects empty user and unknown field", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSQLiteDocumentRepository(db)
		if _, err := repo.Get(ctx, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := repo.SaveField(ctx, "u1", models.Field("history"), nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("closed database reports store errors", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSQLiteDocumentRepository(db)
		repo.Close()

		if _, err := repo.Get(ctx, "u1"); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore from Get, got %v", err)
		}
		if err := repo.SaveField(ctx, "u1", models.FieldQueue, nil); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore from SaveField, got %v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		cfg := shared.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "docs.db")}
		store, err := Open(ctx, cfg)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer store.Close()

		if _, ok := store.(*SQLiteDocumentRepository); !ok {
			t.Errorf("expected sqlite repository, got %T", store)
		}
		if err := store.SaveField(ctx, "u1", models.FieldQueue, []models.Track{{ID: "x"}}); err != nil {
			t.Errorf("expected migrated schema, got %v", err)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := Open(ctx, shared.DatabaseConfig{Driver: "mongo"}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
