package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBoolDefault(t *testing.T) {
	args := map[string]interface{}{
		"set":   true,
		"wrong": "true",
	}

	assert.True(t, getBoolDefault(args, "set", false))
	assert.False(t, getBoolDefault(args, "missing", false))
	assert.True(t, getBoolDefault(args, "missing", true))
	assert.False(t, getBoolDefault(args, "wrong", false))
}

func TestGetIntDefault(t *testing.T) {
	args := map[string]interface{}{
		"json_number": float64(42), // JSON decoding yields float64
		"go_int":      7,
		"wrong":       "42",
	}

	assert.Equal(t, 42, getIntDefault(args, "json_number", 0))
	assert.Equal(t, 7, getIntDefault(args, "go_int", 0))
	assert.Equal(t, 10, getIntDefault(args, "missing", 10))
	assert.Equal(t, 10, getIntDefault(args, "wrong", 10))
	assert.Equal(t, 10, getIntDefault(nil, "anything", 10))
}

func TestGetFloatDefault(t *testing.T) {
	args := map[string]interface{}{
		"rate":  0.05,
		"wrong": "0.05",
	}

	assert.Equal(t, 0.05, getFloatDefault(args, "rate", 0.01))
	assert.Equal(t, 0.01, getFloatDefault(args, "missing", 0.01))
	assert.Equal(t, 0.01, getFloatDefault(args, "wrong", 0.01))
}

func TestGetStringDefault(t *testing.T) {
	args := map[string]interface{}{
		"run_id": "abc",
		"wrong":  42,
	}

	assert.Equal(t, "abc", getStringDefault(args, "run_id", ""))
	assert.Equal(t, "fallback", getStringDefault(args, "missing", "fallback"))
	assert.Equal(t, "fallback", getStringDefault(args, "wrong", "fallback"))
}

func TestMCPErrorMessage(t *testing.T) {
	err := newMCPError(ErrorCodeEmptyQuery, "query parameter is required", map[string]interface{}{
		"param": "query",
	})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
	assert.Contains(t, err.Error(), "-32002")
	assert.Contains(t, err.Error(), "query parameter is required")
}

func TestFormatJSON(t *testing.T) {
	out := formatJSON(map[string]interface{}{
		"run_id": "abc",
		"score":  0.75,
	})

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "abc", decoded["run_id"])
	assert.Equal(t, 0.75, decoded["score"])
}
