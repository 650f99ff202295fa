// Package tools implements the MCP tool handlers that drive Live.
//
// Each tool follows the same shape:
// - A struct with its dependencies (live.Session, journal.Store) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() validates arguments, calls the session and renders a result
//
// Argument problems and "Live did not answer" are tool errors the agent can
// read and act on (mcp.NewToolResultError), never protocol errors.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// requiredInt extracts an integer argument that must be present. Zero is
// a valid value, so presence is checked separately.
func requiredInt(req mcp.CallToolRequest, key string) (int, error) {
	raw, ok := req.GetArguments()[key]
	if !ok {
		return 0, fmt.Errorf("'%s' is required", key)
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		return 0, fmt.Errorf("'%s' must be a number", key)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("'%s' must be a whole number", key)
	}
	return int(f), nil
}

// requiredFloat extracts a number argument that must be present.
func requiredFloat(req mcp.CallToolRequest, key string) (float64, error) {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case nil:
		return 0, fmt.Errorf("'%s' is required", key)
	}
	return 0, fmt.Errorf("'%s' must be a number", key)
}

// requiredInts reads several required integers, stopping at the first
// problem.
func requiredInts(req mcp.CallToolRequest, keys ...string) ([]int, error) {
	out := make([]int, len(keys))
	for i, k := range keys {
		v, err := requiredInt(req, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// optionalBool reports the value of key and whether it was given.
func optionalBool(req mcp.CallToolRequest, key string) (bool, bool) {
	v, ok := req.GetArguments()[key].(bool)
	return v, ok
}

// optionalFloat reports the value of key and whether it was given.
func optionalFloat(req mcp.CallToolRequest, key string) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	return v, ok
}

// liveError turns a session error into a tool error with a hint the agent
// can act on.
func liveError(action string, err error) *mcp.CallToolResult {
	if errors.Is(err, live.ErrNoReply) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"%s: Live did not answer (%v). Check that Live is running with the AbletonOSC "+
				"control surface enabled, and that the indices exist.", action, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
