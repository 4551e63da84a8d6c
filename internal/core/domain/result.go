package domain

// Source names identify ranked lists fed into fusion. Vector search in hybrid
// mode contributes two independent sources, one per embedding space.
const (
	SourceLexical    = "lexical"
	SourceVectorText = "vector_text"
	SourceVectorCode = "vector_code"
)

// RankedHit is a single store result: 1-indexed rank plus the store's raw score
// (fuzzy similarity for lexical, distance for vector search).
type RankedHit struct {
	ChunkID  string
	Rank     int
	RawScore float64
}

// RankedList is one ordered retrieval source for fusion.
type RankedList struct {
	Source string
	Hits   []RankedHit
}

// SourceContribution records how one source ranked a fused chunk, kept on the
// final result for observability.
type SourceContribution struct {
	Source   string  `json:"source"`
	Rank     int     `json:"rank"`
	RawScore float64 `json:"raw_score"`
}

// ChunkMetadata is a read-only snapshot from the metadata store.
type ChunkMetadata struct {
	Language   string `json:"language,omitempty"`
	ChunkType  string `json:"chunk_type,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
	Name       string `json:"name,omitempty"`
	Complexity int    `json:"complexity,omitempty"`
	Content    string `json:"-"`
}

// GraphDirection selects traversal direction in the dependency graph.
type GraphDirection string

const (
	DirectionCallers GraphDirection = "callers"
	DirectionCallees GraphDirection = "callees"
)

// GraphRelation is a single related chunk reference discovered by expansion.
type GraphRelation struct {
	ChunkID  string `json:"chunk_id"`
	Relation string `json:"relation"`
	Depth    int    `json:"depth"`
}

// GraphContext is the dependency neighborhood attached to a result. Strictly
// additive: it never changes the primary ranking.
type GraphContext struct {
	Related []GraphRelation `json:"related"`
}

// CandidateResult is the per-request unit flowing through fusion, expansion and
// rerank. Destroyed at request end, never persisted.
type CandidateResult struct {
	ChunkID      string               `json:"chunk_id"`
	FusedScore   float64              `json:"fused_score"`
	FinalScore   float64              `json:"final_score"`
	FusionRank   int                  `json:"-"`
	Sources      []SourceContribution `json:"sources"`
	Metadata     ChunkMetadata        `json:"metadata"`
	GraphContext *GraphContext        `json:"graph_context,omitempty"`
}

// SearchStatus is the overall outcome of one search request.
type SearchStatus string

const (
	StatusOK SearchStatus = "ok"
	// StatusDegraded: at least one retrieval strategy failed but another served.
	StatusDegraded SearchStatus = "degraded"
	// StatusNoStrategy: every strategy failed or was disabled. Terminal, not an error.
	StatusNoStrategy SearchStatus = "no_strategy_available"
)

// SearchResponse is the full envelope returned by the pipeline.
type SearchResponse struct {
	Results         []CandidateResult  `json:"results"`
	TotalCandidates int                `json:"total_candidates"`
	QueryDomain     QueryDomain        `json:"query_domain"`
	StageLatencyMS  map[string]float64 `json:"latency_ms"`
	DegradedStages  []string           `json:"degraded_stages"`
	Status          SearchStatus       `json:"status"`
	Warnings        []string           `json:"warnings,omitempty"`
}
