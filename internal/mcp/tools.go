package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/querylens/querylens/internal/dataset"
	"github.com/querylens/querylens/internal/pipeline"
	"github.com/querylens/querylens/internal/projection"
	"github.com/querylens/querylens/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeDatasetInvalid = -32001 // Dataset path missing or unparseable
	ErrorCodeEmptyQuery     = -32002 // Query parameter is empty
	ErrorCodeNoTrainedRun   = -32003 // No trained matrix available
)

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	datasetPath, ok := args["dataset"].(string)
	if !ok || datasetPath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "dataset parameter is required", map[string]interface{}{
			"param":  "dataset",
			"reason": "missing or empty",
		})
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	ds, err := dataset.Load(datasetPath)
	if err != nil {
		return nil, newMCPError(ErrorCodeDatasetInvalid, "failed to load dataset", map[string]interface{}{
			"error": err.Error(),
		})
	}

	matrix, runID, err := s.resolveMatrix(ctx, args)
	if err != nil {
		return nil, err
	}

	ranked, err := s.retriever.Retrieve(ctx, query, ds.Corpus(), matrix)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "retrieval failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}

	results := make([]map[string]interface{}, limit)
	for i := 0; i < limit; i++ {
		results[i] = map[string]interface{}{
			"rank":    i + 1,
			"score":   ranked[i].Score,
			"passage": ranked[i].Passage,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":         query,
		"run_id":        runID,
		"total_results": len(ranked),
		"results":       results,
	})), nil
}

// resolveMatrix picks the scoring matrix for a search: explicit run, latest
// run, or nil for baseline.
func (s *Server) resolveMatrix(ctx context.Context, args map[string]interface{}) (*projection.Matrix, string, error) {
	if getBoolDefault(args, "baseline", false) {
		return nil, "", nil
	}

	if runID := getStringDefault(args, "run_id", ""); runID != "" {
		matrix, err := s.store.GetMatrix(ctx, runID)
		if err != nil {
			return nil, "", newMCPError(ErrorCodeNoTrainedRun, "no matrix for run", map[string]interface{}{
				"run_id": runID,
				"error":  err.Error(),
			})
		}
		return matrix, runID, nil
	}

	matrix, runID, err := s.store.LatestMatrix(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		// Nothing trained yet: fall back to baseline ranking.
		return nil, "", nil
	}
	if err != nil {
		return nil, "", newMCPError(ErrorCodeInternalError, "failed to load latest matrix", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return matrix, runID, nil
}

// handleTrainProjection handles the train_projection tool invocation
func (s *Server) handleTrainProjection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	datasetPath, ok := args["dataset"].(string)
	if !ok || datasetPath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "dataset parameter is required", map[string]interface{}{
			"param":  "dataset",
			"reason": "missing or empty",
		})
	}
	if _, err := os.Stat(datasetPath); err != nil {
		return nil, newMCPError(ErrorCodeDatasetInvalid, "dataset not accessible", map[string]interface{}{
			"error": err.Error(),
		})
	}

	report, err := pipeline.Run(ctx, pipeline.Config{
		DatasetPath:          datasetPath,
		LearningRate:         getFloatDefault(args, "learning_rate", 0.01),
		Epochs:               getIntDefault(args, "epochs", 100),
		TrainFraction:        getFloatDefault(args, "train_fraction", 0.8),
		Seed:                 int64(getIntDefault(args, "seed", 42)),
		NegativesPerPositive: 1,
		WarmupWorkers:        4,
		Embedder:             s.embedder,
		Store:                s.store,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "training failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"run_id":        report.RunID,
		"baseline_map":  report.BaselineMAP,
		"projected_map": report.ProjectedMAP,
		"train_pairs":   report.TrainPairs,
		"val_pairs":     report.ValPairs,
		"corpus_size":   report.CorpusSize,
		"duration_ms":   report.Duration.Milliseconds(),
	}
	if n := len(report.Epochs); n > 0 {
		response["final_train_loss"] = report.Epochs[n-1].TrainLoss
		response["final_val_loss"] = report.Epochs[n-1].ValLoss
	}
	if report.PairStats.SkippedExamples > 0 {
		response["skipped_examples"] = report.PairStats.SkippedExamples
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	limit := getIntDefault(args, "limit", 10)
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := make([]map[string]interface{}, len(runs))
	for i, run := range runs {
		entries[i] = map[string]interface{}{
			"run_id":        run.ID,
			"dataset":       run.DatasetPath,
			"provider":      run.Provider,
			"model":         run.Model,
			"baseline_map":  run.BaselineMAP,
			"projected_map": run.ProjectedMAP,
			"epochs":        run.Epochs,
			"created_at":    run.CreatedAt,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"provider": s.embedder.Provider(),
		"model":    s.embedder.Model(),
		"runs":     entries,
	})), nil
}

// newMCPError creates an MCP protocol error; the framework handles encoding.
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

// Error implements the error interface
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a float parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
