package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/dkoval/code-search-engine/internal/adapters/mcp"
	"github.com/dkoval/code-search-engine/internal/bootstrap"
	"github.com/dkoval/code-search-engine/internal/config"
	"github.com/dkoval/code-search-engine/internal/observability/logging"
	"github.com/dkoval/code-search-engine/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol; logs go to stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "code-search-mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	toolMetrics := metrics.NewMCPServerMetrics("code-search-mcp")
	go func() {
		slog.Info("mcp_metrics_listening", "port", cfg.MCPMetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", toolMetrics.Handler())
		if err := http.ListenAndServe(":"+cfg.MCPMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("mcp_metrics_server_error", "error", err)
		}
	}()

	server := mcpadapter.NewServer(app.Search, toolMetrics)
	slog.Info("mcp_serving_stdio")
	if err := server.Serve(ctx); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
