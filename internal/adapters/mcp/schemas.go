package mcpadapter

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchCodeTool returns the tool definition for search_code.
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search the indexed codebase with natural language, code fragments, or a mix of both",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language, code, or hybrid)",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"enable_graph_expansion": map[string]interface{}{
					"type":        "boolean",
					"description": "Attach caller/callee context from the dependency graph to each result",
					"default":     false,
				},
				"graph_expansion_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Traversal depth for graph expansion (1-3)",
					"default":     1,
					"minimum":     1,
					"maximum":     3,
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters to narrow retrieval",
					"properties": map[string]interface{}{
						"language": map[string]interface{}{
							"type":        "string",
							"description": "Filter by source language (e.g. go, python)",
						},
						"chunk_type": map[string]interface{}{
							"type":        "string",
							"description": "Filter by chunk kind (function, class, import, doc)",
						},
						"min_complexity": map[string]interface{}{
							"type":        "integer",
							"description": "Minimum cyclomatic complexity",
							"minimum":     0,
						},
						"max_complexity": map[string]interface{}{
							"type":        "integer",
							"description": "Maximum cyclomatic complexity",
							"minimum":     0,
						},
					},
				},
			},
			Required: []string{"query"},
		},
	}
}
