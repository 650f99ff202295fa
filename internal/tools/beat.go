package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// BeatListenTool handles the beat_listen MCP tool.
type BeatListenTool struct {
	beats *live.BeatTracker
}

// NewBeatListenTool creates a BeatListenTool.
func NewBeatListenTool(beats *live.BeatTracker) *BeatListenTool {
	return &BeatListenTool{beats: beats}
}

// Definition returns the MCP tool definition for beat_listen.
func (t *BeatListenTool) Definition() mcp.Tool {
	return mcp.NewTool("beat_listen",
		mcp.WithDescription(
			"Start or stop following Live's beat while it plays, or report the last beat seen. "+
				"The current beat also appears in the live://session/status resource.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("What to do"),
			mcp.Enum("start", "stop", "status"),
		),
	)
}

// Handle processes the beat_listen tool call.
func (t *BeatListenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch action := req.GetString("action", ""); action {
	case "start":
		t.beats.Start()
		return mcp.NewToolResultText("Listening for beats"), nil
	case "stop":
		t.beats.Stop()
		st := t.beats.State()
		return mcp.NewToolResultText(fmt.Sprintf("Stopped listening after %d beats", st.Received)), nil
	case "status":
		return jsonResult(t.beats.State())
	default:
		return mcp.NewToolResultError(fmt.Sprintf("'action' must be start, stop or status, got %q", action)), nil
	}
}
