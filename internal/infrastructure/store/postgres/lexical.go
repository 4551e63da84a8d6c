package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// LexicalRepository retrieves candidates by trigram similarity over chunk
// content and names. Queries too short to form trigrams go through the
// prefix path instead.
type LexicalRepository struct {
	db *sql.DB
}

func NewLexicalRepository(db *sql.DB) *LexicalRepository {
	return &LexicalRepository{db: db}
}

func (r *LexicalRepository) FuzzySearch(ctx context.Context, keywords []string, filter domain.SearchFilter, limit int) ([]domain.RankedHit, error) {
	needle := strings.Join(keywords, " ")
	if strings.TrimSpace(needle) == "" {
		return nil, nil
	}

	args := []any{needle}
	clauses := []string{"(content % $1 OR name % $1)"}
	clauses, args, err := appendFilter(clauses, args, filter)
	if err != nil {
		return nil, err
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
SELECT chunk_id, GREATEST(similarity(content, $1), similarity(name, $1)) AS score
FROM chunks
%s
ORDER BY score DESC, chunk_id ASC
LIMIT $%d
`, whereClause(clauses), len(args))

	return r.queryHits(ctx, query, args)
}

func (r *LexicalRepository) PrefixSearch(ctx context.Context, prefix string, filter domain.SearchFilter, limit int) ([]domain.RankedHit, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, nil
	}

	args := []any{escapeLike(prefix) + "%"}
	clauses := []string{"name ILIKE $1"}
	clauses, args, err := appendFilter(clauses, args, filter)
	if err != nil {
		return nil, err
	}
	args = append(args, limit)

	// Shorter names are tighter matches for the same prefix.
	query := fmt.Sprintf(`
SELECT chunk_id, 1.0 / (1 + length(name)) AS score
FROM chunks
%s
ORDER BY score DESC, chunk_id ASC
LIMIT $%d
`, whereClause(clauses), len(args))

	return r.queryHits(ctx, query, args)
}

func (r *LexicalRepository) queryHits(ctx context.Context, query string, args []any) ([]domain.RankedHit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lexical query: %w", err)
	}
	defer rows.Close()

	var hits []domain.RankedHit
	for rows.Next() {
		var hit domain.RankedHit
		if err := rows.Scan(&hit.ChunkID, &hit.RawScore); err != nil {
			return nil, fmt.Errorf("scan lexical hit: %w", err)
		}
		hit.Rank = len(hits) + 1
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lexical hits: %w", err)
	}
	return hits, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
