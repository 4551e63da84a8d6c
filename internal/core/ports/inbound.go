package ports

import (
	"context"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// SearchService is the inbound contract for the hybrid search pipeline.
type SearchService interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}
