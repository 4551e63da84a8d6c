package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// appendFilter renders the set predicates of a SearchFilter as conjunctive
// WHERE clauses, continuing the positional-argument numbering from args.
func appendFilter(clauses []string, args []any, filter domain.SearchFilter) ([]string, []any, error) {
	if filter.Language != "" {
		args = append(args, filter.Language)
		clauses = append(clauses, fmt.Sprintf("language = $%d", len(args)))
	}
	if filter.ChunkType != "" {
		args = append(args, filter.ChunkType)
		clauses = append(clauses, fmt.Sprintf("chunk_type = $%d", len(args)))
	}
	if filter.MinComplexity > 0 {
		args = append(args, filter.MinComplexity)
		clauses = append(clauses, fmt.Sprintf("complexity >= $%d", len(args)))
	}
	if filter.MaxComplexity > 0 {
		args = append(args, filter.MaxComplexity)
		clauses = append(clauses, fmt.Sprintf("complexity <= $%d", len(args)))
	}
	if len(filter.Metadata) > 0 {
		raw, err := json.Marshal(filter.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal metadata filter: %w", err)
		}
		args = append(args, string(raw))
		clauses = append(clauses, fmt.Sprintf("metadata @> $%d::jsonb", len(args)))
	}
	return clauses, args, nil
}

func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}
