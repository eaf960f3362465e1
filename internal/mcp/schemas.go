package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Rank a dataset's code passages against a natural-language query using the learned projection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Path to the relevance dataset whose passages form the corpus",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Use the matrix learned by this run; defaults to the most recent run",
				},
				"baseline": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, rank with the plain dot product instead of a learned matrix",
					"default":     false,
				},
			},
			Required: []string{"dataset", "query"},
		},
	}
}

// trainProjectionTool returns the tool definition for train_projection
func trainProjectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "train_projection",
		Description: "Train a projection matrix on a relevance dataset and report baseline vs projected MAP",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"dataset": map[string]interface{}{
					"type":        "string",
					"description": "Path to the relevance dataset",
				},
				"learning_rate": map[string]interface{}{
					"type":        "number",
					"description": "Optimizer step size",
					"default":     0.01,
				},
				"epochs": map[string]interface{}{
					"type":        "integer",
					"description": "Number of training epochs",
					"default":     100,
				},
				"train_fraction": map[string]interface{}{
					"type":        "number",
					"description": "Fraction of pairs used for training; the rest validates",
					"default":     0.8,
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Random seed for shuffling and negative sampling",
					"default":     42,
				},
			},
			Required: []string{"dataset"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "List recent training runs with their baseline and projected MAP scores",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return",
					"default":     10,
				},
			},
		},
	}
}
