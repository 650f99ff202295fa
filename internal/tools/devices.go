package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// ─── GetDeviceParametersTool ────────────────────────────────────────────────

// GetDeviceParametersTool handles the get_device_parameters MCP tool.
type GetDeviceParametersTool struct {
	session *live.Session
}

// NewGetDeviceParametersTool creates a GetDeviceParametersTool.
func NewGetDeviceParametersTool(session *live.Session) *GetDeviceParametersTool {
	return &GetDeviceParametersTool{session: session}
}

// Definition returns the MCP tool definition for get_device_parameters.
func (t *GetDeviceParametersTool) Definition() mcp.Tool {
	return mcp.NewTool("get_device_parameters",
		mcp.WithDescription("List every parameter of a device with its index, current value and range."),
		mcp.WithNumber("track",
			mcp.Required(),
			mcp.Description("Track index, starting at 0"),
			mcp.Min(0),
		),
		mcp.WithNumber("device",
			mcp.Required(),
			mcp.Description("Device index on the track, starting at 0 (see list_devices)"),
			mcp.Min(0),
		),
	)
}

// Handle processes the get_device_parameters tool call.
func (t *GetDeviceParametersTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "device")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params, err := t.session.DeviceParameters(ctx, idx[0], idx[1])
	if err != nil {
		return liveError("get device parameters", err), nil
	}
	return jsonResult(params)
}

// ─── SetDeviceParameterTool ─────────────────────────────────────────────────

// SetDeviceParameterTool handles the set_device_parameter MCP tool.
type SetDeviceParameterTool struct {
	session *live.Session
}

// NewSetDeviceParameterTool creates a SetDeviceParameterTool.
func NewSetDeviceParameterTool(session *live.Session) *SetDeviceParameterTool {
	return &SetDeviceParameterTool{session: session}
}

// Definition returns the MCP tool definition for set_device_parameter.
func (t *SetDeviceParameterTool) Definition() mcp.Tool {
	return mcp.NewTool("set_device_parameter",
		mcp.WithDescription("Set a device parameter to a value between 0 and 1."),
		mcp.WithNumber("track", mcp.Required(), mcp.Description("Track index"), mcp.Min(0)),
		mcp.WithNumber("device", mcp.Required(), mcp.Description("Device index on the track"), mcp.Min(0)),
		mcp.WithNumber("parameter", mcp.Required(), mcp.Description("Parameter index (see get_device_parameters)"), mcp.Min(0)),
		mcp.WithNumber("value",
			mcp.Required(),
			mcp.Description("New value, 0 to 1"),
			mcp.Min(0),
			mcp.Max(1),
		),
	)
}

// Handle processes the set_device_parameter tool call.
func (t *SetDeviceParameterTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "device", "parameter")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := requiredFloat(req, "value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if value < 0 || value > 1 {
		return mcp.NewToolResultError("Parameter value must be between 0.0 and 1.0"), nil
	}
	if err := t.session.SetDeviceParameter(idx[0], idx[1], idx[2], value); err != nil {
		return liveError("set device parameter", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Set parameter %d on device %d (track %d) to %g", idx[2], idx[1], idx[0], value)), nil
}
