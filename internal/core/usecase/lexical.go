package usecase

import (
	"context"
	"sort"

	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/core/ports"
)

// DefaultMinTrigramChars is the minimum effective query length for trigram
// matching; shorter queries switch to explicit prefix mode instead of failing.
const DefaultMinTrigramChars = 3

// LexicalEngine retrieves candidates by fuzzy string similarity. The
// similarity has no term-frequency or length normalization, so long documents
// can outrank short exact matches; fusion compensates for that downstream.
type LexicalEngine struct {
	store       ports.LexicalStore
	minTrigram  int
	defaultPool int
}

func NewLexicalEngine(store ports.LexicalStore, minTrigramChars, poolLimit int) *LexicalEngine {
	if minTrigramChars <= 0 {
		minTrigramChars = DefaultMinTrigramChars
	}
	if poolLimit <= 0 {
		poolLimit = domain.DefaultPoolLimit
	}
	return &LexicalEngine{
		store:       store,
		minTrigram:  minTrigramChars,
		defaultPool: poolLimit,
	}
}

// Search returns one ranked source for fusion. Store failures come back as
// ErrStoreUnavailable so the pipeline can degrade to vector-only retrieval.
func (e *LexicalEngine) Search(ctx context.Context, q *domain.AnalyzedQuery, limit int) (domain.RankedList, error) {
	if limit <= 0 || limit > e.defaultPool {
		limit = e.defaultPool
	}

	var (
		hits []domain.RankedHit
		err  error
	)
	if len([]rune(q.EffectiveQuery)) < e.minTrigram {
		hits, err = e.store.PrefixSearch(ctx, q.EffectiveQuery, q.Filter, limit)
	} else {
		hits, err = e.store.FuzzySearch(ctx, q.Keywords, q.Filter, limit)
	}
	if err != nil {
		return domain.RankedList{}, domain.WrapError(domain.ErrStoreUnavailable, "lexical search", err)
	}

	return domain.RankedList{Source: domain.SourceLexical, Hits: rankHits(hits)}, nil
}

// rankHits re-asserts deterministic ordering (score descending, chunk_id
// ascending) and assigns 1-indexed ranks regardless of store ordering.
func rankHits(hits []domain.RankedHit) []domain.RankedHit {
	out := make([]domain.RankedHit, len(hits))
	copy(out, hits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore > out[j].RawScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
