package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchTotal         *prometheus.CounterVec
	searchDomainTotal   *prometheus.CounterVec
	stageDuration       *prometheus.HistogramVec
	degradedStagesTotal *prometheus.CounterVec
	candidatePoolSize   *prometheus.HistogramVec
	resultCount         *prometheus.HistogramVec
	graphExpansionTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cse",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cse",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total completed search requests by outcome.",
		},
		[]string{"service", "status"},
	)
	searchDomainTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cse",
			Subsystem: "search",
			Name:      "domain_requests_total",
			Help:      "Total search requests by detected query domain.",
		},
		[]string{"service", "domain"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cse",
			Subsystem: "search",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"service", "stage"},
	)
	degradedStagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cse",
			Subsystem: "search",
			Name:      "degraded_stages_total",
			Help:      "Total stage failures absorbed by degradation.",
		},
		[]string{"service", "stage"},
	)
	candidatePoolSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cse",
			Subsystem: "search",
			Name:      "candidate_pool_size",
			Help:      "Distribution of fused candidate pool sizes per request.",
			Buckets:   []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)
	resultCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cse",
			Subsystem: "search",
			Name:      "result_count",
			Help:      "Distribution of returned results per request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
		},
		[]string{"service"},
	)
	graphExpansionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cse",
			Subsystem: "search",
			Name:      "graph_expansion_total",
			Help:      "Total requests that ran graph expansion.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchDomainTotal,
		stageDuration,
		degradedStagesTotal,
		candidatePoolSize,
		resultCount,
		graphExpansionTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		searchTotal:         searchTotal,
		searchDomainTotal:   searchDomainTotal,
		stageDuration:       stageDuration,
		degradedStagesTotal: degradedStagesTotal,
		candidatePoolSize:   candidatePoolSize,
		resultCount:         resultCount,
		graphExpansionTotal: graphExpansionTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordSearchOutcome(service, status string, candidates, results int) {
	if status == "" {
		status = "unknown"
	}
	m.searchTotal.WithLabelValues(service, status).Inc()
	m.candidatePoolSize.WithLabelValues(service).Observe(float64(candidates))
	m.resultCount.WithLabelValues(service).Observe(float64(results))
}

func (m *HTTPServerMetrics) RecordQueryDomain(service, domain string) {
	if domain == "" {
		domain = "unknown"
	}
	m.searchDomainTotal.WithLabelValues(service, domain).Inc()
}

func (m *HTTPServerMetrics) RecordStageDuration(service, stage string, durationMS float64) {
	m.stageDuration.WithLabelValues(service, stage).Observe(durationMS / 1000.0)
}

func (m *HTTPServerMetrics) RecordDegradedStage(service, stage string) {
	m.degradedStagesTotal.WithLabelValues(service, stage).Inc()
}

func (m *HTTPServerMetrics) RecordGraphExpansion(service string) {
	m.graphExpansionTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
