package usecase

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// ErrNoSources marks fusion over zero ranked lists: there was no searchable
// strategy at all, which callers must surface distinctly from zero matches.
var ErrNoSources = errors.New("no ranked sources to fuse")

// FuseRanked applies weighted Reciprocal Rank Fusion over any number of ranked
// sources. It is a pure function of (sources, cfg): identical inputs always
// produce identical output including tie order. Each occurrence of a chunk at
// 1-indexed rank r in source i with weight w_i contributes w_i/(k+r); absence
// contributes nothing. Ties break by chunk_id lexical order.
func FuseRanked(sources []domain.RankedList, cfg domain.FusionConfig) ([]domain.CandidateResult, error) {
	cfg = cfg.Normalize()
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	acc := make(map[string]*domain.CandidateResult)
	for _, source := range sources {
		weight := 1.0
		if w, ok := cfg.Weights[source.Source]; ok && w > 0 {
			weight = w
		}
		for i, hit := range source.Hits {
			if i >= cfg.PoolLimit {
				break
			}
			if hit.Rank != i+1 {
				return nil, domain.WrapError(domain.ErrInternal, "fuse ranked lists",
					fmt.Errorf("source %q: hit %q has rank %d at position %d", source.Source, hit.ChunkID, hit.Rank, i+1))
			}
			candidate := acc[hit.ChunkID]
			if candidate == nil {
				candidate = &domain.CandidateResult{ChunkID: hit.ChunkID}
				acc[hit.ChunkID] = candidate
			}
			candidate.FusedScore += weight / float64(cfg.K+hit.Rank)
			candidate.Sources = append(candidate.Sources, domain.SourceContribution{
				Source:   source.Source,
				Rank:     hit.Rank,
				RawScore: hit.RawScore,
			})
		}
	}

	out := make([]domain.CandidateResult, 0, len(acc))
	for _, candidate := range acc {
		out = append(out, *candidate)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})

	for i := range out {
		out[i].FusionRank = i + 1
		out[i].FinalScore = out[i].FusedScore
	}
	return out, nil
}
