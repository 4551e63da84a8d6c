package usecase

import (
	"crypto/sha256"
	"sort"
	"strings"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// exactMatchBoost is the multiplicative bonus for results whose content
// contains the raw query verbatim (case-insensitive).
const exactMatchBoost = 0.25

// Rerank applies deterministic heuristic adjustments to the fused (and
// optionally graph-expanded) list: exact-substring boost, content-hash
// de-duplication keeping the highest-fused-score instance, stable tie-break by
// fusion rank, truncation to topK. Idempotent: the final score is recomputed
// from the fused score each time, so reranking its own output is a no-op.
func Rerank(q *domain.AnalyzedQuery, fused []domain.CandidateResult, topK int) []domain.CandidateResult {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	if topK > domain.MaxTopK {
		topK = domain.MaxTopK
	}

	out := dedupeByContent(fused)

	needle := strings.ToLower(strings.TrimSpace(q.RawQuery))
	for i := range out {
		final := out[i].FusedScore
		if needle != "" && out[i].Metadata.Content != "" &&
			strings.Contains(strings.ToLower(out[i].Metadata.Content), needle) {
			final *= 1 + exactMatchBoost
		}
		out[i].FinalScore = final
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		return out[i].FusionRank < out[j].FusionRank
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// dedupeByContent collapses results with byte-identical content, keeping the
// highest-fused-score instance. Results without content are always kept.
func dedupeByContent(results []domain.CandidateResult) []domain.CandidateResult {
	out := make([]domain.CandidateResult, 0, len(results))
	best := make(map[[32]byte]int, len(results))
	for _, r := range results {
		if r.Metadata.Content == "" {
			out = append(out, r)
			continue
		}
		hash := sha256.Sum256([]byte(r.Metadata.Content))
		if idx, ok := best[hash]; ok {
			kept := out[idx]
			if r.FusedScore > kept.FusedScore ||
				(r.FusedScore == kept.FusedScore && r.FusionRank < kept.FusionRank) {
				out[idx] = r
			}
			continue
		}
		best[hash] = len(out)
		out = append(out, r)
	}
	return out
}
