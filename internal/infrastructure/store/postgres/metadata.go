package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// MetadataRepository reads chunk metadata snapshots in batch for hydration.
type MetadataRepository struct {
	db *sql.DB
}

func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

func (r *MetadataRepository) GetMetadata(ctx context.Context, chunkIDs []string) (map[string]domain.ChunkMetadata, error) {
	if len(chunkIDs) == 0 {
		return map[string]domain.ChunkMetadata{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT chunk_id, language, chunk_type, file_path, name, complexity, content
FROM chunks
WHERE chunk_id = ANY($1)
`, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("metadata query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.ChunkMetadata, len(chunkIDs))
	for rows.Next() {
		var id string
		var meta domain.ChunkMetadata
		if err := rows.Scan(&id, &meta.Language, &meta.ChunkType, &meta.FilePath, &meta.Name, &meta.Complexity, &meta.Content); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		out[id] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata: %w", err)
	}
	return out, nil
}
