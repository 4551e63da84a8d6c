package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/core/ports"
)

const (
	StageAnalyze   = "analyze"
	StageLexical   = "lexical"
	StageVector    = "vector"
	StageFusion    = "fusion"
	StageExpansion = "expansion"
	StageRerank    = "rerank"
)

// DefaultHydrateLimit bounds how many fused candidates get a metadata
// snapshot before rerank.
const DefaultHydrateLimit = 200

// PipelineConfig is the read-only per-process configuration of the pipeline.
type PipelineConfig struct {
	Fusion       domain.FusionConfig
	StageTimeout time.Duration
	// OverallTimeout is the request ceiling; past it the pipeline returns
	// best-effort partial results instead of blocking.
	OverallTimeout time.Duration
	HydrateLimit   int
}

func (c PipelineConfig) normalize() PipelineConfig {
	out := c
	out.Fusion = out.Fusion.Normalize()
	if out.StageTimeout <= 0 {
		out.StageTimeout = 2 * time.Second
	}
	if out.OverallTimeout <= 0 {
		out.OverallTimeout = 2 * out.StageTimeout
	}
	if out.HydrateLimit <= 0 {
		out.HydrateLimit = DefaultHydrateLimit
	}
	return out
}

// SearchPipeline wires the analyzer, both retrieval engines, fusion, graph
// expansion and rerank into the single public search operation. It holds no
// mutable cross-request state.
type SearchPipeline struct {
	analyzer *QueryAnalyzer
	lexical  *LexicalEngine
	vector   *VectorEngine
	expander *GraphExpander
	metadata ports.MetadataStore
	events   ports.EventPublisher
	cfg      PipelineConfig
}

func NewSearchPipeline(
	analyzer *QueryAnalyzer,
	lexical *LexicalEngine,
	vector *VectorEngine,
	expander *GraphExpander,
	metadata ports.MetadataStore,
	events ports.EventPublisher,
	cfg PipelineConfig,
) *SearchPipeline {
	return &SearchPipeline{
		analyzer: analyzer,
		lexical:  lexical,
		vector:   vector,
		expander: expander,
		metadata: metadata,
		events:   events,
		cfg:      cfg.normalize(),
	}
}

// stageOutcome carries one retrieval stage's result across the join point.
type stageOutcome struct {
	stage   string
	sources []domain.RankedList
	tookMS  float64
	err     error
}

func (p *SearchPipeline) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.cfg.OverallTimeout)
	defer cancel()

	topK := req.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	if topK > domain.MaxTopK {
		topK = domain.MaxTopK
	}

	latency := make(map[string]float64, 6)
	var warnings []string
	var degraded []string

	analyzeStart := time.Now()
	analyzed, err := p.analyzer.Analyze(ctx, req.Query, req.Filter)
	latency[StageAnalyze] = msSince(analyzeStart)
	if err != nil {
		return nil, err
	}
	if analyzed.Truncated {
		warnings = append(warnings, "query_truncated")
	}
	for _, d := range analyzed.EmbeddingUnavailable {
		warnings = append(warnings, "embedding_unavailable:"+string(d))
	}

	fusionCfg := p.cfg.Fusion
	if req.FusionK > 0 {
		fusionCfg.K = req.FusionK
	}

	sources, stageDegraded := p.retrieve(ctx, req, analyzed, latency)
	degraded = append(degraded, stageDegraded...)

	if len(sources) == 0 {
		// No searchable strategy is a labeled outcome, not an error.
		resp := &domain.SearchResponse{
			Results:        []domain.CandidateResult{},
			QueryDomain:    analyzed.Domain,
			StageLatencyMS: latency,
			DegradedStages: degraded,
			Status:         domain.StatusNoStrategy,
			Warnings:       warnings,
		}
		p.publishEvent(analyzed, resp, time.Since(start))
		return resp, nil
	}

	fusionStart := time.Now()
	fused, err := FuseRanked(sources, fusionCfg)
	latency[StageFusion] = msSince(fusionStart)
	if err != nil {
		if errors.Is(err, ErrNoSources) {
			// Unreachable given the emptiness check above; keep the invariant loud.
			return nil, domain.WrapError(domain.ErrInternal, "search pipeline", err)
		}
		slog.Error("fusion_invariant_violation", "error", err)
		return nil, err
	}
	totalCandidates := len(fused)

	if err := p.hydrateMetadata(ctx, fused); err != nil {
		slog.Warn("metadata_hydration_failed", "error", err)
		warnings = append(warnings, "metadata_unavailable")
	}

	if req.EnableGraphExpansion && p.expander != nil {
		expandStart := time.Now()
		p.expander.Expand(ctx, fused, req.GraphExpansionDepth, "")
		latency[StageExpansion] = msSince(expandStart)
	}

	rerankStart := time.Now()
	results := Rerank(analyzed, fused, topK)
	latency[StageRerank] = msSince(rerankStart)

	status := domain.StatusOK
	if len(degraded) > 0 {
		status = domain.StatusDegraded
	}

	resp := &domain.SearchResponse{
		Results:         results,
		TotalCandidates: totalCandidates,
		QueryDomain:     analyzed.Domain,
		StageLatencyMS:  latency,
		DegradedStages:  degraded,
		Status:          status,
		Warnings:        warnings,
	}
	p.publishEvent(analyzed, resp, time.Since(start))
	return resp, nil
}

// retrieve runs the enabled retrieval stages concurrently, each under its own
// timeout, and joins whichever completed. A single stage failure degrades; it
// never escapes as an error. The join itself is bounded by ctx: a stage whose
// collaborator ignores cancellation is abandoned at the request ceiling and
// counted as degraded instead of stalling the whole search.
func (p *SearchPipeline) retrieve(
	ctx context.Context,
	req domain.SearchRequest,
	analyzed *domain.AnalyzedQuery,
	latency map[string]float64,
) (sources []domain.RankedList, degraded []string) {
	outcomes := make(chan stageOutcome, 2)
	retrieveStart := time.Now()
	var launched []string

	if req.Lexical() {
		launched = append(launched, StageLexical)
		go func() {
			stageStart := time.Now()
			stageCtx, stageCancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
			defer stageCancel()
			list, err := p.lexical.Search(stageCtx, analyzed, p.cfg.Fusion.PoolLimit)
			outcome := stageOutcome{
				stage:  StageLexical,
				tookMS: msSince(stageStart),
				err:    normalizeStageErr(StageLexical, err, stageCtx),
			}
			if outcome.err == nil {
				outcome.sources = []domain.RankedList{list}
			}
			outcomes <- outcome
		}()
	}
	if req.Vector() {
		launched = append(launched, StageVector)
		go func() {
			stageStart := time.Now()
			stageCtx, stageCancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
			defer stageCancel()
			lists, err := p.vector.Search(stageCtx, analyzed, p.cfg.Fusion.PoolLimit, req.RecallBreadth)
			outcome := stageOutcome{
				stage:  StageVector,
				tookMS: msSince(stageStart),
				err:    normalizeStageErr(StageVector, err, stageCtx),
			}
			if outcome.err == nil {
				outcome.sources = lists
			}
			outcomes <- outcome
		}()
	}

	joined := make(map[string]bool, len(launched))
	for len(joined) < len(launched) {
		select {
		case outcome := <-outcomes:
			joined[outcome.stage] = true
			latency[outcome.stage] = outcome.tookMS
			if outcome.err != nil {
				slog.Warn("stage_degraded", "stage", outcome.stage, "error", outcome.err)
				degraded = append(degraded, outcome.stage)
				continue
			}
			sources = append(sources, outcome.sources...)
		case <-ctx.Done():
			// Request ceiling hit before every stage came back. Whatever has
			// not joined is written off; its goroutine drains into the
			// buffered channel when (if) the collaborator finally returns.
			for _, stage := range launched {
				if joined[stage] {
					continue
				}
				err := domain.WrapError(domain.ErrStageTimeout, stage, ctx.Err())
				slog.Warn("stage_abandoned", "stage", stage, "error", err)
				latency[stage] = msSince(retrieveStart)
				degraded = append(degraded, stage)
			}
			return sources, degraded
		}
	}
	return sources, degraded
}

func normalizeStageErr(stage string, err error, stageCtx context.Context) error {
	if err == nil {
		return nil
	}
	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrStageTimeout, stage, err)
	}
	return err
}

// hydrateMetadata attaches snapshots to the head of the fused list so rerank
// can boost and de-duplicate on content.
func (p *SearchPipeline) hydrateMetadata(ctx context.Context, fused []domain.CandidateResult) error {
	if p.metadata == nil || len(fused) == 0 {
		return nil
	}
	n := len(fused)
	if n > p.cfg.HydrateLimit {
		n = p.cfg.HydrateLimit
	}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, fused[i].ChunkID)
	}

	snapshots, err := p.metadata.GetMetadata(ctx, ids)
	if err != nil {
		return fmt.Errorf("get metadata: %w", err)
	}
	for i := 0; i < n; i++ {
		if snapshot, ok := snapshots[fused[i].ChunkID]; ok {
			fused[i].Metadata = snapshot
		}
	}
	return nil
}

func (p *SearchPipeline) publishEvent(analyzed *domain.AnalyzedQuery, resp *domain.SearchResponse, took time.Duration) {
	if p.events == nil {
		return
	}
	hash := sha256.Sum256([]byte(analyzed.EffectiveQuery))
	event := ports.SearchEvent{
		QueryHash:      hex.EncodeToString(hash[:8]),
		Status:         string(resp.Status),
		ResultCount:    len(resp.Results),
		DegradedStages: resp.DegradedStages,
		DurationMS:     float64(took.Microseconds()) / 1000.0,
	}

	go func() {
		publishCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := p.events.PublishSearchPerformed(publishCtx, event); err != nil {
			slog.Warn("search_event_publish_failed", "error", err)
		}
	}()
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
