package ollama

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

func TestEmbedSelectsModelPerDomain(t *testing.T) {
	var capturedModels []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		model, _ := payload["model"].(string)
		capturedModels = append(capturedModels, model)
		_, _ = w.Write([]byte(`{"embeddings":[[3.0,4.0]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "text-model", "code-model", nil)
	if _, err := client.Embed(context.Background(), "how does auth work", domain.DomainText); err != nil {
		t.Fatalf("Embed(text) error = %v", err)
	}
	if _, err := client.Embed(context.Background(), "func Login(", domain.DomainCode); err != nil {
		t.Fatalf("Embed(code) error = %v", err)
	}
	if len(capturedModels) != 2 || capturedModels[0] != "text-model" || capturedModels[1] != "code-model" {
		t.Fatalf("unexpected models: %v", capturedModels)
	}
}

func TestEmbedNormalizesToUnitLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[3.0,4.0]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "text-model", "code-model", nil)
	vec, err := client.Embed(context.Background(), "anything", domain.DomainText)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-6 {
		t.Fatalf("expected unit-length vector, got norm %v", math.Sqrt(sum))
	}
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector: %v", vec)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "text-model", "code-model", nil)
	_, err := client.Embed(context.Background(), "hello", domain.DomainText)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestEmbedRejectsEmptyEmbeddingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "text-model", "code-model", nil)
	if _, err := client.Embed(context.Background(), "hello", domain.DomainText); err == nil {
		t.Fatalf("expected error for empty embeddings")
	}
}
