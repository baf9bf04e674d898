// Package repositories implements the remote document store: one record per user holding two independently written
// lists, the queue and the liked songs.
//
// Key Implementations:
//   - [SQLiteDocumentRepository] : default store on the embedded migrations in internal/shared/sql
//   - [PostgresDocumentRepository] : hosted store on pgx with jsonb columns, schema created by AutoMigrate
//
// Both implement [DocumentStore]. Writes are merge-writes: SaveField replaces one column with an upsert keyed by
// user id, so saving the queue never clobbers liked songs and vice versa. A user without a row reads as two empty
// lists. [Open] picks the implementation from the database.driver setting.
package repositories
