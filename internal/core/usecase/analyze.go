package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/core/ports"
)

const (
	DefaultMaxQueryChars = 500
	DefaultEmbedTimeout  = 5 * time.Second
)

// QueryAnalyzer turns raw query text into keywords, an intent tag, a domain
// classification and embedding vectors for the selected space(s).
type QueryAnalyzer struct {
	embedder     ports.EmbeddingProvider
	maxChars     int
	embedTimeout time.Duration
}

func NewQueryAnalyzer(embedder ports.EmbeddingProvider, maxChars int, embedTimeout time.Duration) *QueryAnalyzer {
	if maxChars <= 0 {
		maxChars = DefaultMaxQueryChars
	}
	if embedTimeout <= 0 {
		embedTimeout = DefaultEmbedTimeout
	}
	return &QueryAnalyzer{
		embedder:     embedder,
		maxChars:     maxChars,
		embedTimeout: embedTimeout,
	}
}

func (a *QueryAnalyzer) Analyze(ctx context.Context, raw string, filter domain.SearchFilter) (*domain.AnalyzedQuery, error) {
	effective := strings.TrimSpace(raw)
	if effective == "" {
		return nil, domain.WrapError(domain.ErrInvalidQuery, "analyze query", errors.New("empty or whitespace-only query"))
	}

	truncated := false
	if runes := []rune(effective); len(runes) > a.maxChars {
		effective = strings.TrimSpace(string(runes[:a.maxChars]))
		truncated = true
	}

	out := &domain.AnalyzedQuery{
		RawQuery:       raw,
		EffectiveQuery: effective,
		Keywords:       extractKeywords(effective),
		Intent:         detectIntent(effective),
		Domain:         detectDomain(effective),
		Filter:         normalizeFilter(filter),
		Truncated:      truncated,
	}

	a.embedForDomain(ctx, out)
	return out, nil
}

// embedForDomain fills the vector(s) the detected domain needs. A provider
// timeout or error leaves that space's vector absent and flags it; analysis
// itself never fails on embeddings.
func (a *QueryAnalyzer) embedForDomain(ctx context.Context, q *domain.AnalyzedQuery) {
	needs := []domain.QueryDomain{}
	switch q.Domain {
	case domain.DomainText:
		needs = append(needs, domain.DomainText)
	case domain.DomainCode:
		needs = append(needs, domain.DomainCode)
	case domain.DomainHybrid:
		needs = append(needs, domain.DomainText, domain.DomainCode)
	}

	for _, d := range needs {
		embedCtx, cancel := context.WithTimeout(ctx, a.embedTimeout)
		vector, err := a.embedder.Embed(embedCtx, q.EffectiveQuery, d)
		cancel()
		if err != nil || len(vector) == 0 {
			slog.Warn("embedding_unavailable", "domain", string(d), "error", err)
			q.EmbeddingUnavailable = append(q.EmbeddingUnavailable, d)
			continue
		}
		switch d {
		case domain.DomainText:
			q.TextVector = vector
		case domain.DomainCode:
			q.CodeVector = vector
		}
	}
}

var (
	callPattern       = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\s*\(`)
	assignmentPattern = regexp.MustCompile(`(:=|==|!=|\+=|-=|->|=>)`)
	codeKeywords      = map[string]struct{}{
		"def": {}, "class": {}, "import": {}, "function": {}, "func": {},
		"return": {}, "struct": {}, "interface": {}, "var": {}, "const": {},
	}
)

// detectDomain classifies the query by code-syntax markers. Two or more strong
// signals in a short query reads as code, one signal as mixed, none as text.
func detectDomain(q string) domain.QueryDomain {
	signals := 0
	if callPattern.MatchString(q) {
		signals++
	}
	if assignmentPattern.MatchString(q) {
		signals++
	}
	if strings.ContainsAny(q, "{}[];") {
		signals++
	}
	for _, word := range strings.Fields(strings.ToLower(q)) {
		if _, ok := codeKeywords[word]; ok {
			signals++
			break
		}
	}

	words := len(strings.Fields(q))
	switch {
	case signals == 0:
		return domain.DomainText
	case signals >= 2 && words <= 8:
		return domain.DomainCode
	default:
		return domain.DomainHybrid
	}
}

func detectIntent(q string) domain.QueryIntent {
	lower := strings.ToLower(q)
	fields := strings.Fields(lower)
	has := func(word string) bool {
		for _, f := range fields {
			if f == word {
				return true
			}
		}
		return false
	}

	switch {
	case has("import") || has("package") || has("dependency"):
		return domain.IntentImport
	case has("class") || has("struct") || has("interface") || has("type"):
		return domain.IntentClass
	case has("func") || has("function") || has("def") || has("method") || callPattern.MatchString(q):
		return domain.IntentFunction
	default:
		return domain.IntentConcept
	}
}

// extractKeywords lowercases, splits on non-alphanumeric runes and dedupes
// while preserving first-seen order.
func extractKeywords(q string) []string {
	tokens := splitAlphaNumLower(q)
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) < 2 {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

func normalizeFilter(f domain.SearchFilter) domain.SearchFilter {
	out := f
	out.Language = strings.ToLower(strings.TrimSpace(f.Language))
	out.ChunkType = strings.ToLower(strings.TrimSpace(f.ChunkType))
	if out.MinComplexity < 0 {
		out.MinComplexity = 0
	}
	if out.MaxComplexity < 0 {
		out.MaxComplexity = 0
	}
	if out.MaxComplexity > 0 && out.MinComplexity > out.MaxComplexity {
		out.MinComplexity, out.MaxComplexity = out.MaxComplexity, out.MinComplexity
	}
	if len(f.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(f.Metadata))
		for k, v := range f.Metadata {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			out.Metadata[k] = v
		}
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
