package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxDB is the subset of *pgxpool.Pool used by [PostgresDocumentRepository].
//
// pgxmock pools satisfy it in tests.
type PgxDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DocumentStore = (*PostgresDocumentRepository)(nil)

// PostgresDocumentRepository implements [DocumentStore] with jsonb columns.
type PostgresDocumentRepository struct {
	db    PgxDB
	close func()
}

// NewPostgresDocumentRepository wraps db; closer, when non-nil, runs on Close.
func NewPostgresDocumentRepository(db PgxDB, closer func()) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db, close: closer}
}

// AutoMigrate creates the documents table when missing.
func (r *PostgresDocumentRepository) AutoMigrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_documents (
			user_id TEXT PRIMARY KEY,
			queue JSONB NOT NULL DEFAULT '[]'::jsonb,
			liked_songs JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to migrate postgres schema: %v", shared.ErrStore, err)
	}
	return nil
}

// Get retrieves a user's document.
func (r *PostgresDocumentRepository) Get(ctx context.Context, userID string) (*models.Document, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	var queue, liked []byte
	err := r.db.QueryRow(ctx,
		`SELECT queue, liked_songs FROM user_documents WHERE user_id = $1`, userID,
	).Scan(&queue, &liked)
	if errors.Is(err, pgx.ErrNoRows) {
		return (&models.Document{}).Normalize(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query document: %v", shared.ErrStore, err)
	}

	doc := &models.Document{}
	if doc.Queue, err = decodeTracks(queue); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStore, err)
	}
	if doc.LikedSongs, err = decodeTracks(liked); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStore, err)
	}
	return doc, nil
}

// SaveField upserts one list of the user's document.
func (r *PostgresDocumentRepository) SaveField(ctx context.Context, userID string, field models.Field, tracks []models.Track) error {
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
		INSERT INTO user_documents (user_id, %[1]s)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET %[1]s = EXCLUDED.%[1]s, updated_at = now()
	`, col)

	if _, err := r.db.Exec(ctx, query, userID, string(data)); err != nil {
		return fmt.Errorf("%w: failed to save %s: %v", shared.ErrStore, field, err)
	}
	return nil
}

// Close releases the pool.
func (r *PostgresDocumentRepository) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}
