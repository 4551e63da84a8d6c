package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/core/ports"
)

const (
	DefaultExpandTopN  = 50
	DefaultGraphFanOut = 8
	MaxExpansionDepth  = 3
	RelationCalls      = "calls"
	RelationCalledBy   = "called_by"
)

// GraphExpander annotates top fused results with their dependency
// neighborhood. Strictly additive: it never reorders or drops primary results,
// and a traversal failure for one result only leaves that result's context
// empty. Cycle safety and depth enforcement belong to the traversal
// collaborator.
type GraphExpander struct {
	traverser ports.GraphTraverser
	topN      int
	fanOut    int
}

func NewGraphExpander(traverser ports.GraphTraverser, topN, fanOut int) *GraphExpander {
	if topN <= 0 || topN > DefaultExpandTopN {
		topN = DefaultExpandTopN
	}
	if fanOut <= 0 {
		fanOut = DefaultGraphFanOut
	}
	return &GraphExpander{
		traverser: traverser,
		topN:      topN,
		fanOut:    fanOut,
	}
}

// Expand mutates results in place, attaching a GraphContext to up to topN of
// them. relation filters traversal to one relation kind; empty means both.
func (e *GraphExpander) Expand(ctx context.Context, results []domain.CandidateResult, depth int, relation string) {
	if depth <= 0 {
		depth = 1
	}
	if depth > MaxExpansionDepth {
		depth = MaxExpansionDepth
	}

	n := len(results)
	if n > e.topN {
		n = e.topN
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.fanOut)
	for i := 0; i < n; i++ {
		group.Go(func() error {
			results[i].GraphContext = e.expandOne(groupCtx, results[i].ChunkID, depth, relation)
			return nil
		})
	}
	_ = group.Wait()
}

func (e *GraphExpander) expandOne(ctx context.Context, chunkID string, depth int, relation string) *domain.GraphContext {
	related := make([]domain.GraphRelation, 0, 8)

	if relation == "" || relation == RelationCalls {
		callees, err := e.traverser.Traverse(ctx, chunkID, domain.DirectionCallees, RelationCalls, depth)
		if err != nil {
			slog.Warn("graph_expansion_failed", "chunk_id", chunkID, "direction", string(domain.DirectionCallees), "error", err)
		} else {
			related = append(related, callees...)
		}
	}
	if relation == "" || relation == RelationCalledBy {
		callers, err := e.traverser.Traverse(ctx, chunkID, domain.DirectionCallers, RelationCalledBy, depth)
		if err != nil {
			slog.Warn("graph_expansion_failed", "chunk_id", chunkID, "direction", string(domain.DirectionCallers), "error", err)
		} else {
			related = append(related, callers...)
		}
	}

	return &domain.GraphContext{Related: dedupeRelations(related, chunkID)}
}

// dedupeRelations drops self references and duplicate (chunk, relation) pairs,
// keeping the shallower hop.
func dedupeRelations(relations []domain.GraphRelation, selfID string) []domain.GraphRelation {
	type key struct {
		chunkID  string
		relation string
	}
	seen := make(map[key]int, len(relations))
	out := make([]domain.GraphRelation, 0, len(relations))
	for _, r := range relations {
		if r.ChunkID == selfID {
			continue
		}
		k := key{chunkID: r.ChunkID, relation: r.Relation}
		if idx, ok := seen[k]; ok {
			if r.Depth < out[idx].Depth {
				out[idx].Depth = r.Depth
			}
			continue
		}
		seen[k] = len(out)
		out = append(out, r)
	}
	return out
}
