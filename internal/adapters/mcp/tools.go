package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dkoval/code-search-engine/internal/core/domain"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602
	ErrorCodeInternalError = -32603
	ErrorCodeEmptyQuery    = -32001
	ErrorCodeBackendDown   = -32002
)

func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	req, err := parseSearchRequest(args)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StartToolCall()
	}
	start := time.Now()
	resp, err := s.search.Search(ctx, req)
	if s.metrics != nil {
		s.metrics.FinishToolCall(ServerName, "search_code", time.Since(start), err)
	}
	if err != nil {
		switch {
		case domain.IsKind(err, domain.ErrInvalidQuery):
			return nil, newMCPError(ErrorCodeEmptyQuery, "invalid query", map[string]interface{}{
				"error": err.Error(),
			})
		case domain.IsKind(err, domain.ErrStoreUnavailable):
			return nil, newMCPError(ErrorCodeBackendDown, "retrieval backend unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		default:
			return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return mcp.NewToolResultText(formatJSON(resp)), nil
}

// parseSearchRequest maps loosely-typed tool arguments onto a SearchRequest.
func parseSearchRequest(args map[string]interface{}) (domain.SearchRequest, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return domain.SearchRequest{}, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	topK := getIntDefault(args, "top_k", domain.DefaultTopK)
	if topK < 1 || topK > domain.MaxTopK {
		return domain.SearchRequest{}, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("top_k must be between 1 and %d", domain.MaxTopK), map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	expand, _ := args["enable_graph_expansion"].(bool)
	depth := getIntDefault(args, "graph_expansion_depth", 1)

	req := domain.SearchRequest{
		Query:                query,
		TopK:                 topK,
		EnableGraphExpansion: expand,
		GraphExpansionDepth:  depth,
	}

	if filters, ok := args["filters"].(map[string]interface{}); ok {
		if language, ok := filters["language"].(string); ok {
			req.Filter.Language = language
		}
		if chunkType, ok := filters["chunk_type"].(string); ok {
			req.Filter.ChunkType = chunkType
		}
		req.Filter.MinComplexity = getIntDefault(filters, "min_complexity", 0)
		req.Filter.MaxComplexity = getIntDefault(filters, "max_complexity", 0)
	}
	return req, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func getIntDefault(args map[string]interface{}, key string, fallback int) int {
	// JSON numbers arrive as float64
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	if v, ok := args[key].(int); ok {
		return v
	}
	return fallback
}

func formatJSON(v interface{}) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(raw)
}
