package ollama

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/dkoval/code-search-engine/internal/core/domain"
	"github.com/dkoval/code-search-engine/internal/infrastructure/resilience"
)

// Client embeds query text via an Ollama server, using a separate model per
// embedding space: one trained on natural language, one on source code.
type Client struct {
	baseURL    string
	textModel  string
	codeModel  string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, textModel, codeModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		textModel:  textModel,
		codeModel:  codeModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

// Embed returns a unit-length vector for the given embedding space. Vectors
// are normalized here so cosine and inner-product distance stay equivalent
// downstream.
func (c *Client) Embed(ctx context.Context, text string, d domain.QueryDomain) ([]float32, error) {
	model := c.textModel
	if d == domain.DomainCode {
		model = c.codeModel
	}

	request := map[string]any{
		"model": model,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/embed", request, &response, "embed")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.embed", call, classifyEmbedError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result for model %s", model)
	}
	return normalizeUnit(response.Embeddings[0]), nil
}

func normalizeUnit(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
