package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MCPServerMetrics struct {
	registry *prometheus.Registry

	toolCallsTotal *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	toolInFlight   prometheus.Gauge
}

func NewMCPServerMetrics(service string) *MCPServerMetrics {
	registry := prometheus.NewRegistry()

	toolCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cse",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total MCP tool calls by status.",
		},
		[]string{"service", "tool", "status"},
	)
	toolDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cse",
			Subsystem: "mcp",
			Name:      "tool_call_duration_seconds",
			Help:      "MCP tool call duration in seconds by tool.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "tool"},
	)
	toolInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cse",
			Subsystem: "mcp",
			Name:      "tool_calls_in_flight",
			Help:      "Number of in-flight MCP tool calls.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(toolCallsTotal, toolDuration, toolInFlight)

	return &MCPServerMetrics{
		registry:       registry,
		toolCallsTotal: toolCallsTotal,
		toolDuration:   toolDuration,
		toolInFlight:   toolInFlight,
	}
}

func (m *MCPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MCPServerMetrics) StartToolCall() {
	m.toolInFlight.Inc()
}

func (m *MCPServerMetrics) FinishToolCall(service, tool string, duration time.Duration, err error) {
	m.toolInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.toolCallsTotal.WithLabelValues(service, tool, status).Inc()
	m.toolDuration.WithLabelValues(service, tool).Observe(duration.Seconds())
}
