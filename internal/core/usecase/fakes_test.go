package usecase

import (
	"context"
	"errors"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

type fakeEmbedder struct {
	vectors map[domain.QueryDomain][]float32
	fail    map[domain.QueryDomain]error
	calls   []domain.QueryDomain
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string, d domain.QueryDomain) ([]float32, error) {
	f.calls = append(f.calls, d)
	if err, ok := f.fail[d]; ok {
		return nil, err
	}
	if v, ok := f.vectors[d]; ok {
		return v, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeLexicalStore struct {
	fuzzyHits  []domain.RankedHit
	prefixHits []domain.RankedHit
	err        error

	fuzzyCalls  int
	prefixCalls int
	lastPrefix  string
}

func (f *fakeLexicalStore) FuzzySearch(_ context.Context, _ []string, _ domain.SearchFilter, _ int) ([]domain.RankedHit, error) {
	f.fuzzyCalls++
	return f.fuzzyHits, f.err
}

func (f *fakeLexicalStore) PrefixSearch(_ context.Context, prefix string, _ domain.SearchFilter, _ int) ([]domain.RankedHit, error) {
	f.prefixCalls++
	f.lastPrefix = prefix
	return f.prefixHits, f.err
}

type fakeVectorStore struct {
	hitsByDomain map[domain.QueryDomain][]domain.RankedHit
	err          error
	queried      []domain.QueryDomain
}

func (f *fakeVectorStore) ANNSearch(_ context.Context, _ []float32, d domain.QueryDomain, _ domain.SearchFilter, _, _ int) ([]domain.RankedHit, error) {
	f.queried = append(f.queried, d)
	if f.err != nil {
		return nil, f.err
	}
	return f.hitsByDomain[d], nil
}

type fakeTraverser struct {
	relations map[string]map[domain.GraphDirection][]domain.GraphRelation
	failFor   map[string]error
}

func (f *fakeTraverser) Traverse(_ context.Context, chunkID string, direction domain.GraphDirection, _ string, _ int) ([]domain.GraphRelation, error) {
	if err, ok := f.failFor[chunkID]; ok {
		return nil, err
	}
	byDirection, ok := f.relations[chunkID]
	if !ok {
		return nil, nil
	}
	return byDirection[direction], nil
}

type fakeMetadataStore struct {
	snapshots map[string]domain.ChunkMetadata
	err       error
}

func (f *fakeMetadataStore) GetMetadata(_ context.Context, ids []string) (map[string]domain.ChunkMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.ChunkMetadata, len(ids))
	for _, id := range ids {
		if snapshot, ok := f.snapshots[id]; ok {
			out[id] = snapshot
		}
	}
	return out, nil
}

var errStoreDown = errors.New("connection refused")
