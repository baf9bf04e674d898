// package repositories provides the per-user document store behind the persistence gateway.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentStore reads and merge-writes per-user documents.
type DocumentStore interface {
	// Get returns the user's document. A user without a stored document gets empty lists and no error.
	Get(ctx context.Context, userID string) (*models.Document, error)

	// SaveField replaces exactly one list of the user's document, creating the document when missing.
	// The other list is left untouched.
	SaveField(ctx context.Context, userID string, field models.Field, tracks []models.Track) error

	Close() error
}

// column maps a document field to its storage column.
func column(field models.Field) (string, error) {
	switch field {
	case models.FieldQueue:
		return "queue", nil
	case models.FieldLikedSongs:
		return "liked_songs", nil
	default:
		return "", fmt.Errorf("%w: unknown field %q", shared.ErrInvalidInput, field)
	}
}

func encodeTracks(tracks []models.Track) ([]byte, error) {
	if tracks == nil {
		tracks = []models.Track{}
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tracks: %w", err)
	}
	return data, nil
}

func decodeTracks(data []byte) ([]models.Track, error) {
	tracks := []models.Track{}
	if len(data) == 0 {
		return tracks, nil
	}
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode tracks: %w", err)
	}
	return tracks, nil
}

func validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrNotAuthenticated)
	}
	return nil
}

// Open connects the store selected by cfg.Driver and prepares its schema.
func Open(ctx context.Context, cfg shared.DatabaseConfig) (DocumentStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewSQLiteDocumentRepository(db), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		repo := NewPostgresDocumentRepository(pool, pool.Close)
		if err := repo.AutoMigrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

var _ DocumentStore = (*SQLiteDocumentRepository)(nil)

// SQLiteDocumentRepository implements [DocumentStore] on the user_documents table.
type SQLiteDocumentRepository struct {
	db *sql.DB
}

// NewSQLiteDocumentRepository creates a repository over a migrated database.
func NewSQLiteDocumentRepository(db *sql.DB) *SQLiteDocumentRepository {
	return &SQLiteDocumentRepository{db: db}
}

// Get retrieves a user's document.
func (r *SQLiteDocumentRepository) Get(ctx context.Context, userID string) (*models.Document, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	var queue, liked string
	err := r.db.QueryRowContext(ctx,
		`SELECT queue, liked_songs FROM user_documents WHERE user_id = ?`, userID,
	).Scan(&queue, &liked)
	if err == sql.ErrNoRows {
		return (&models.Document{}).Normalize(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query document: %v", shared.ErrStore, err)
	}

	doc := &models.Document{}
	if doc.Queue, err = decodeTracks([]byte(queue)); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStore, err)
	}
	if doc.LikedSongs, err = decodeTracks([]byte(liked)); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStore, err)
	}
	return doc, nil
}

// SaveField upserts one list of the user's document.
func (r *SQLiteDocumentRepository) SaveField(ctx context.Context, userID string, field models.Field, tracks []models.Track) error {
	if err := validateUser(userID); err != nil {
		return err
	}
	col, err := column(field)
	if err != nil {
		return err
	}
	data, err := encodeTracks(tracks)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO user_documents (user_id, %[1]s, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET %[1]s = excluded.%[1]s, updated_at = CURRENT_TIMESTAMP
	`, col)

	if _, err := r.db.ExecContext(ctx, query, userID, string(data)); err != nil {
		return fmt.Errorf("%w: failed to save %s: %v", shared.ErrStore, field, err)
	}
	return nil
}

// Close closes the underlying database.
func (r *SQLiteDocumentRepository) Close() error {
	return r.db.Close()
}
