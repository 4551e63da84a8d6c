package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkoval/code-search-engine/internal/config"
	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/observability/metrics"
)

type searchServiceStub struct {
	resp *domain.SearchResponse
	err  error
	got  domain.SearchRequest
}

func (s *searchServiceStub) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestHandler(cfg config.Config, stub *searchServiceStub) http.Handler {
	return NewRouter(cfg, stub, nil).Handler()
}

func postSearch(t *testing.T, handler http.Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestSearchReturnsResultsWithRequestID(t *testing.T) {
	stub := &searchServiceStub{
		resp: &domain.SearchResponse{
			Results: []domain.CandidateResult{
				{ChunkID: "chunk-a", FusedScore: 0.03, FinalScore: 0.03},
			},
			TotalCandidates: 1,
			QueryDomain:     domain.DomainHybrid,
			Status:          domain.StatusOK,
		},
	}
	// Real metrics so the full record path runs, query-domain counter included.
	handler := NewRouter(config.Config{}, stub, metrics.NewHTTPServerMetrics("code-search-api")).Handler()

	res := postSearch(t, handler, map[string]any{"query": "token validation", "top_k": 5})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}

	var resp domain.SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != domain.StatusOK || len(resp.Results) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.QueryDomain != domain.DomainHybrid {
		t.Fatalf("expected query domain in response, got %q", resp.QueryDomain)
	}
	if stub.got.Query != "token validation" || stub.got.TopK != 5 {
		t.Fatalf("request not passed through: %+v", stub.got)
	}
}

func TestSearchRejectsBodyMissingQuery(t *testing.T) {
	stub := &searchServiceStub{resp: &domain.SearchResponse{Status: domain.StatusOK}}
	handler := newTestHandler(config.Config{}, stub)

	res := postSearch(t, handler, map[string]any{"top_k": 5})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", res.Code)
	}
	if stub.got.Query != "" {
		t.Fatalf("handler must not be reached on validation failure")
	}
}

func TestSearchRejectsMalformedJSON(t *testing.T) {
	handler := newTestHandler(config.Config{}, &searchServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", res.Code)
	}
}

func TestSearchMapsInvalidQueryTo400(t *testing.T) {
	stub := &searchServiceStub{
		err: domain.WrapError(domain.ErrInvalidQuery, "analyze", errors.New("query is empty")),
	}
	handler := newTestHandler(config.Config{}, stub)

	res := postSearch(t, handler, map[string]any{"query": " "})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSearchMapsStoreUnavailableTo503(t *testing.T) {
	stub := &searchServiceStub{
		err: domain.WrapError(domain.ErrStoreUnavailable, "search", errors.New("connection refused")),
	}
	handler := newTestHandler(config.Config{}, stub)

	res := postSearch(t, handler, map[string]any{"query": "parse config"})
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestSearchNoStrategyOutcomeIsStill200(t *testing.T) {
	stub := &searchServiceStub{
		resp: &domain.SearchResponse{
			Results:        []domain.CandidateResult{},
			Status:         domain.StatusNoStrategy,
			DegradedStages: []string{"lexical", "vector"},
		},
	}
	handler := newTestHandler(config.Config{}, stub)

	res := postSearch(t, handler, map[string]any{"query": "parse config"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for no_strategy_available outcome, got %d", res.Code)
	}

	var resp domain.SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != domain.StatusNoStrategy {
		t.Fatalf("expected no_strategy_available status, got %q", resp.Status)
	}
}

func TestSearchRejectsWrongMethod(t *testing.T) {
	handler := newTestHandler(config.Config{}, &searchServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestHealthzReportsOK(t *testing.T) {
	handler := newTestHandler(config.Config{}, &searchServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}
