package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the chunks table and its retrieval indexes. The table
// is written by the indexing side; this service only reads from it, but owns
// the DDL so a fresh database comes up searchable.
func EnsureSchema(ctx context.Context, db *sql.DB, vectorDim int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS pg_trgm`); err != nil {
		return fmt.Errorf("enable pg_trgm: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}

	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id TEXT PRIMARY KEY,
	file_path TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	chunk_type TEXT NOT NULL DEFAULT '',
	complexity INTEGER NOT NULL DEFAULT 0,
	content TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	text_embedding vector(%d),
	code_embedding vector(%d),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chunks_content_trgm ON chunks USING gin (content gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_chunks_name_trgm ON chunks USING gin (name gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_chunks_language ON chunks(language);
CREATE INDEX IF NOT EXISTS idx_chunks_text_embedding ON chunks USING hnsw (text_embedding vector_cosine_ops);
CREATE INDEX IF NOT EXISTS idx_chunks_code_embedding ON chunks USING hnsw (code_embedding vector_cosine_ops);
`, vectorDim, vectorDim)

	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
