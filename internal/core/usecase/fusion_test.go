package usecase

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

func rankedList(source string, ids ...string) domain.RankedList {
	hits := make([]domain.RankedHit, len(ids))
	for i, id := range ids {
		hits[i] = domain.RankedHit{ChunkID: id, Rank: i + 1}
	}
	return domain.RankedList{Source: source, Hits: hits}
}

func fusedOrder(results []domain.CandidateResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ChunkID
	}
	return out
}

func TestFuseRankedWorkedExample(t *testing.T) {
	// k=60: A=1/61+1/62, C=1/63+1/61, B=1/62, D=1/63.
	sources := []domain.RankedList{
		rankedList(domain.SourceLexical, "A", "B", "C"),
		rankedList(domain.SourceVectorCode, "C", "A", "D"),
	}

	fused, err := FuseRanked(sources, domain.FusionConfig{K: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"A", "C", "B", "D"}
	if got := fusedOrder(fused); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}

	wantScoreA := 1.0/61 + 1.0/62
	if math.Abs(fused[0].FusedScore-wantScoreA) > 1e-12 {
		t.Fatalf("expected A score %.6f, got %.6f", wantScoreA, fused[0].FusedScore)
	}
}

func TestFuseRankedSingleSourcePreservesOrder(t *testing.T) {
	source := rankedList(domain.SourceVectorText, "x", "m", "a", "z")

	fused, err := FuseRanked([]domain.RankedList{source}, domain.FusionConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"x", "m", "a", "z"}
	if got := fusedOrder(fused); !reflect.DeepEqual(got, want) {
		t.Fatalf("single-source fusion must preserve source order, got %v", got)
	}
}

func TestFuseRankedNoSources(t *testing.T) {
	_, err := FuseRanked(nil, domain.FusionConfig{})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

func TestFuseRankedUniqueChunkIDs(t *testing.T) {
	sources := []domain.RankedList{
		rankedList(domain.SourceLexical, "a", "b", "c"),
		rankedList(domain.SourceVectorText, "c", "b", "a"),
		rankedList(domain.SourceVectorCode, "b", "d"),
	}

	fused, err := FuseRanked(sources, domain.FusionConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool, len(fused))
	for _, r := range fused {
		if seen[r.ChunkID] {
			t.Fatalf("chunk %q appears twice in fused output", r.ChunkID)
		}
		seen[r.ChunkID] = true
	}
	if len(fused) != 4 {
		t.Fatalf("expected 4 distinct chunks, got %d", len(fused))
	}
}

func TestFuseRankedDeterministicIncludingTies(t *testing.T) {
	// Disjoint single-hit sources at the same rank tie exactly; the tie must
	// break by chunk_id on every invocation.
	sources := []domain.RankedList{
		rankedList(domain.SourceLexical, "zeta"),
		rankedList(domain.SourceVectorText, "alpha"),
		rankedList(domain.SourceVectorCode, "mid"),
	}

	first, err := FuseRanked(sources, domain.FusionConfig{K: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if got := fusedOrder(first); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected tie-break by chunk_id %v, got %v", want, got)
	}

	for i := 0; i < 50; i++ {
		again, err := FuseRanked(sources, domain.FusionConfig{K: 60})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(fusedOrder(again), fusedOrder(first)) {
			t.Fatalf("fusion output differs between identical invocations: %v vs %v", fusedOrder(again), fusedOrder(first))
		}
	}
}

func TestFuseRankedWeights(t *testing.T) {
	sources := []domain.RankedList{
		rankedList(domain.SourceLexical, "lex-only"),
		rankedList(domain.SourceVectorText, "vec-only"),
	}
	cfg := domain.FusionConfig{
		K:       60,
		Weights: map[string]float64{domain.SourceVectorText: 3.0},
	}

	fused, err := FuseRanked(sources, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fused[0].ChunkID != "vec-only" {
		t.Fatalf("expected weighted source to win, got %q first", fused[0].ChunkID)
	}
}

func TestFuseRankedMalformedRankIsFatal(t *testing.T) {
	source := domain.RankedList{
		Source: domain.SourceLexical,
		Hits: []domain.RankedHit{
			{ChunkID: "a", Rank: 1},
			{ChunkID: "b", Rank: 5},
		},
	}

	_, err := FuseRanked([]domain.RankedList{source}, domain.FusionConfig{})
	if !domain.IsKind(err, domain.ErrInternal) {
		t.Fatalf("expected ErrInternal for malformed rank data, got %v", err)
	}
}

func TestFuseRankedPoolLimit(t *testing.T) {
	source := rankedList(domain.SourceLexical, "a", "b", "c", "d", "e")

	fused, err := FuseRanked([]domain.RankedList{source}, domain.FusionConfig{PoolLimit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fused) != 3 {
		t.Fatalf("expected pool limit to bound candidates at 3, got %d", len(fused))
	}
}

func TestFuseRankedRecordsSourceContributions(t *testing.T) {
	sources := []domain.RankedList{
		rankedList(domain.SourceLexical, "a", "b"),
		rankedList(domain.SourceVectorCode, "b", "a"),
	}

	fused, err := FuseRanked(sources, domain.FusionConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range fused {
		if len(r.Sources) != 2 {
			t.Fatalf("chunk %q: expected contributions from 2 sources, got %d", r.ChunkID, len(r.Sources))
		}
	}
}
