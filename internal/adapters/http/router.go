package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dkoval/code-search-engine/internal/config"
	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/core/ports"
	"github.com/dkoval/code-search-engine/internal/observability/metrics"
)

const serviceName = "code-search-api"

type Router struct {
	cfg     config.Config
	search  ports.SearchService
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, search ports.SearchService, m *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:     cfg,
		search:  search,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.searchHandler)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = requestValidationMiddleware(handler)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = backpressureMiddleware(handler, defaultMaxInFlight, defaultBackpressureWait)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) searchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	resp, err := rt.search.Search(r.Context(), req)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		if status >= 500 {
			slog.Error("search_failed",
				"request_id", requestIDFromContext(r.Context()),
				"error", err,
			)
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordSearchOutcome(serviceName, string(resp.Status), resp.TotalCandidates, len(resp.Results))
		rt.metrics.RecordQueryDomain(serviceName, string(resp.QueryDomain))
		for stage, tookMS := range resp.StageLatencyMS {
			rt.metrics.RecordStageDuration(serviceName, stage, tookMS)
		}
		for _, stage := range resp.DegradedStages {
			rt.metrics.RecordDegradedStage(serviceName, stage)
		}
		if req.EnableGraphExpansion {
			rt.metrics.RecordGraphExpansion(serviceName)
		}
	}

	slog.Info("search_completed",
		"request_id", requestIDFromContext(r.Context()),
		"status", resp.Status,
		"results", len(resp.Results),
		"candidates", resp.TotalCandidates,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
