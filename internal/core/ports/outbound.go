package ports

import (
	"context"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// EmbeddingProvider turns query text into a vector for one embedding space.
// Calls are latency-bounded by the caller's context.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string, d domain.QueryDomain) ([]float32, error)
}

// LexicalStore performs fuzzy/trigram candidate retrieval. PrefixSearch is the
// explicit fallback for queries below the minimum trigram length.
type LexicalStore interface {
	FuzzySearch(ctx context.Context, keywords []string, filter domain.SearchFilter, limit int) ([]domain.RankedHit, error)
	PrefixSearch(ctx context.Context, prefix string, filter domain.SearchFilter, limit int) ([]domain.RankedHit, error)
}

// VectorStore performs approximate nearest-neighbor retrieval over one
// embedding column. Results come back ascending by distance. breadth is the
// recall/latency trade-off knob (higher = better recall, slower).
type VectorStore interface {
	ANNSearch(ctx context.Context, vector []float32, d domain.QueryDomain, filter domain.SearchFilter, limit, breadth int) ([]domain.RankedHit, error)
}

// GraphTraverser walks the dependency graph from a chunk. The collaborator
// guarantees cycle safety and depth enforcement; this core treats it as a
// black box.
type GraphTraverser interface {
	Traverse(ctx context.Context, chunkID string, direction domain.GraphDirection, relation string, maxDepth int) ([]domain.GraphRelation, error)
}

// MetadataStore reads chunk metadata snapshots in batch.
type MetadataStore interface {
	GetMetadata(ctx context.Context, chunkIDs []string) (map[string]domain.ChunkMetadata, error)
}

// SearchEvent is the audit record published after every completed request.
type SearchEvent struct {
	RequestID      string   `json:"request_id"`
	QueryHash      string   `json:"query_hash"`
	Status         string   `json:"status"`
	ResultCount    int      `json:"result_count"`
	DegradedStages []string `json:"degraded_stages,omitempty"`
	DurationMS     float64  `json:"duration_ms"`
}

// EventPublisher emits search audit events. Best effort: failures are logged
// by the caller and never affect the response.
type EventPublisher interface {
	PublishSearchPerformed(ctx context.Context, event SearchEvent) error
}
