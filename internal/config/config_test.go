package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("SEARCH_TOP_K", "")
	t.Setenv("FUSION_RRF_K", "")
	t.Setenv("FUSION_POOL_LIMIT", "")
	t.Setenv("RECALL_BREADTH", "")
	t.Setenv("LEXICAL_MIN_TRIGRAM", "")

	cfg := Load()
	if cfg.SearchTopK != 10 {
		t.Fatalf("expected default top k 10, got %d", cfg.SearchTopK)
	}
	if cfg.FusionK != 60 {
		t.Fatalf("expected default fusion rrf k 60, got %d", cfg.FusionK)
	}
	if cfg.FusionPoolLimit != 1000 {
		t.Fatalf("expected default pool limit 1000, got %d", cfg.FusionPoolLimit)
	}
	if cfg.RecallBreadth != 100 {
		t.Fatalf("expected default recall breadth 100, got %d", cfg.RecallBreadth)
	}
	if cfg.LexicalMinTrigram != 3 {
		t.Fatalf("expected default min trigram 3, got %d", cfg.LexicalMinTrigram)
	}
}

func TestLoadParsesRetrievalOverrides(t *testing.T) {
	t.Setenv("SEARCH_TOP_K", "25")
	t.Setenv("FUSION_RRF_K", "75")
	t.Setenv("RECALL_BREADTH", "300")
	t.Setenv("GRAPH_EXPANSION_ENABLED", "false")

	cfg := Load()
	if cfg.SearchTopK != 25 {
		t.Fatalf("expected top k 25, got %d", cfg.SearchTopK)
	}
	if cfg.FusionK != 75 {
		t.Fatalf("expected fusion rrf k 75, got %d", cfg.FusionK)
	}
	if cfg.RecallBreadth != 300 {
		t.Fatalf("expected recall breadth 300, got %d", cfg.RecallBreadth)
	}
	if cfg.GraphExpansionOn {
		t.Fatalf("expected graph expansion disabled")
	}
}

func TestLoadOverlaysConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("fusion_rrf_k: 90\nollama_url: http://ollama:11434\nrate_limit_rps: 5.5\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FUSION_RRF_K", "75")

	cfg := Load()
	if cfg.FusionK != 90 {
		t.Fatalf("expected file overlay to win, got fusion rrf k %d", cfg.FusionK)
	}
	if cfg.OllamaURL != "http://ollama:11434" {
		t.Fatalf("unexpected ollama url %q", cfg.OllamaURL)
	}
	if cfg.RateLimitRPS != 5.5 {
		t.Fatalf("unexpected rate limit %v", cfg.RateLimitRPS)
	}
	if cfg.SearchTopK != 10 {
		t.Fatalf("absent file keys must keep env defaults, got top k %d", cfg.SearchTopK)
	}
}

func TestLoadIgnoresMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected env defaults on missing file, got port %q", cfg.APIPort)
	}
}
