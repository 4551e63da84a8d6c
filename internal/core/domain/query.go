package domain

// QueryDomain classifies a query into one of the two embedding spaces, or both.
// The set is closed: every switch over it must handle exactly these three values.
type QueryDomain string

const (
	DomainText   QueryDomain = "text"
	DomainCode   QueryDomain = "code"
	DomainHybrid QueryDomain = "hybrid"
)

// QueryIntent is a coarse hint about what kind of chunk the caller is after.
type QueryIntent string

const (
	IntentFunction QueryIntent = "function"
	IntentClass    QueryIntent = "class"
	IntentImport   QueryIntent = "import"
	IntentConcept  QueryIntent = "concept"
)

// SearchFilter narrows retrieval to chunks matching every set predicate.
type SearchFilter struct {
	Language      string            `json:"language,omitempty"`
	ChunkType     string            `json:"chunk_type,omitempty"`
	MinComplexity int               `json:"min_complexity,omitempty"`
	MaxComplexity int               `json:"max_complexity,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// AnalyzedQuery is the analyzer's output consumed by every retrieval stage.
// It is transient, created once per request and never stored.
type AnalyzedQuery struct {
	RawQuery       string
	EffectiveQuery string
	Keywords       []string
	Intent         QueryIntent
	Domain         QueryDomain
	Filter         SearchFilter

	TextVector []float32
	CodeVector []float32

	Truncated            bool
	EmbeddingUnavailable []QueryDomain
}

// HasVector reports whether the analyzer produced a vector for the given space.
func (q *AnalyzedQuery) HasVector(d QueryDomain) bool {
	switch d {
	case DomainText:
		return len(q.TextVector) > 0
	case DomainCode:
		return len(q.CodeVector) > 0
	default:
		return false
	}
}

// SearchRequest is the single public entrypoint payload of the pipeline.
type SearchRequest struct {
	Query                string       `json:"query"`
	Filter               SearchFilter `json:"filter"`
	TopK                 int          `json:"top_k"`
	EnableGraphExpansion bool         `json:"enable_graph_expansion"`
	GraphExpansionDepth  int          `json:"graph_expansion_depth"`
	FusionK              int          `json:"fusion_k"`
	UseLexical           *bool        `json:"use_lexical,omitempty"`
	UseVector            *bool        `json:"use_vector,omitempty"`
	RecallBreadth        int          `json:"recall_breadth"`
}

// Lexical reports whether the lexical strategy is enabled (default true).
func (r SearchRequest) Lexical() bool {
	return r.UseLexical == nil || *r.UseLexical
}

// Vector reports whether the vector strategy is enabled (default true).
func (r SearchRequest) Vector() bool {
	return r.UseVector == nil || *r.UseVector
}

// FusionConfig holds the rank-fusion tunables.
type FusionConfig struct {
	K         int
	Weights   map[string]float64
	PoolLimit int
}

const (
	DefaultFusionK   = 60
	DefaultPoolLimit = 1000
	DefaultTopK      = 10
	MaxTopK          = 100
)

// Normalize fills zero fields with defaults.
func (c FusionConfig) Normalize() FusionConfig {
	out := c
	if out.K <= 0 {
		out.K = DefaultFusionK
	}
	if out.PoolLimit <= 0 {
		out.PoolLimit = DefaultPoolLimit
	}
	return out
}
