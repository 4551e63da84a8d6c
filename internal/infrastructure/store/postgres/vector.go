package postgres

import (
	"context"
	"database/sql"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// VectorRepository performs ANN retrieval over the pgvector embedding
// columns. Each query domain maps to its own column; hybrid routing happens
// above this layer.
type VectorRepository struct {
	db *sql.DB
}

func NewVectorRepository(db *sql.DB) *VectorRepository {
	return &VectorRepository{db: db}
}

func (r *VectorRepository) ANNSearch(ctx context.Context, vector []float32, d domain.QueryDomain, filter domain.SearchFilter, limit, breadth int) ([]domain.RankedHit, error) {
	column, err := embeddingColumn(d)
	if err != nil {
		return nil, err
	}

	args := []any{pgvector.NewVector(vector)}
	clauses := []string{fmt.Sprintf("%s IS NOT NULL", column)}
	clauses, args, err = appendFilter(clauses, args, filter)
	if err != nil {
		return nil, err
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
SELECT chunk_id, %s <=> $1 AS distance
FROM chunks
%s
ORDER BY distance ASC, chunk_id ASC
LIMIT $%d
`, column, whereClause(clauses), len(args))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ann tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// ef_search bounds how many index entries the HNSW scan visits.
	if breadth > 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", breadth)); err != nil {
			return nil, fmt.Errorf("set ann breadth: %w", err)
		}
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ann query: %w", err)
	}
	defer rows.Close()

	var hits []domain.RankedHit
	for rows.Next() {
		var hit domain.RankedHit
		if err := rows.Scan(&hit.ChunkID, &hit.RawScore); err != nil {
			return nil, fmt.Errorf("scan ann hit: %w", err)
		}
		hit.Rank = len(hits) + 1
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ann hits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ann tx: %w", err)
	}
	return hits, nil
}

func embeddingColumn(d domain.QueryDomain) (string, error) {
	switch d {
	case domain.DomainText:
		return "text_embedding", nil
	case domain.DomainCode:
		return "code_embedding", nil
	default:
		return "", fmt.Errorf("no embedding column for domain %q", d)
	}
}
