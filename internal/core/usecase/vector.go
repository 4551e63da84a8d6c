package usecase

import (
	"context"
	"sort"

	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/core/ports"
)

// DefaultRecallBreadth is the default approximate-search breadth. Higher
// values trade latency for recall.
const DefaultRecallBreadth = 100

// VectorEngine retrieves candidates by approximate nearest-neighbor search,
// routing the query to the embedding space(s) its domain selects. A hybrid
// query yields two independent ranked sources; they are never pre-merged.
type VectorEngine struct {
	store          ports.VectorStore
	defaultBreadth int
	defaultPool    int
}

func NewVectorEngine(store ports.VectorStore, breadth, poolLimit int) *VectorEngine {
	if breadth <= 0 {
		breadth = DefaultRecallBreadth
	}
	if poolLimit <= 0 {
		poolLimit = domain.DefaultPoolLimit
	}
	return &VectorEngine{
		store:          store,
		defaultBreadth: breadth,
		defaultPool:    poolLimit,
	}
}

// Search returns zero, one or two ranked sources. A domain whose vector the
// analyzer could not compute is skipped silently; a store failure surfaces as
// ErrStoreUnavailable so the pipeline can degrade to lexical-only retrieval.
func (e *VectorEngine) Search(ctx context.Context, q *domain.AnalyzedQuery, limit, breadth int) ([]domain.RankedList, error) {
	if limit <= 0 || limit > e.defaultPool {
		limit = e.defaultPool
	}
	if breadth <= 0 {
		breadth = e.defaultBreadth
	}

	var spaces []domain.QueryDomain
	switch q.Domain {
	case domain.DomainText:
		spaces = []domain.QueryDomain{domain.DomainText}
	case domain.DomainCode:
		spaces = []domain.QueryDomain{domain.DomainCode}
	case domain.DomainHybrid:
		spaces = []domain.QueryDomain{domain.DomainText, domain.DomainCode}
	}

	out := make([]domain.RankedList, 0, len(spaces))
	for _, space := range spaces {
		if !q.HasVector(space) {
			continue
		}
		vector := q.TextVector
		source := domain.SourceVectorText
		if space == domain.DomainCode {
			vector = q.CodeVector
			source = domain.SourceVectorCode
		}

		hits, err := e.store.ANNSearch(ctx, vector, space, q.Filter, limit, breadth)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStoreUnavailable, "vector search", err)
		}
		out = append(out, domain.RankedList{Source: source, Hits: rankByDistance(hits)})
	}
	return out, nil
}

// rankByDistance orders hits ascending by distance (chunk_id ascending on
// ties) and assigns 1-indexed ranks.
func rankByDistance(hits []domain.RankedHit) []domain.RankedHit {
	out := make([]domain.RankedHit, len(hits))
	copy(out, hits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore < out[j].RawScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
