package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// ─── PingTool ───────────────────────────────────────────────────────────────

// PingTool handles the ping MCP tool.
type PingTool struct {
	session *live.Session
}

// NewPingTool creates a PingTool.
func NewPingTool(session *live.Session) *PingTool {
	return &PingTool{session: session}
}

// Definition returns the MCP tool definition for ping.
func (t *PingTool) Definition() mcp.Tool {
	return mcp.NewTool("ping",
		mcp.WithDescription(
			"Check that Live is reachable through AbletonOSC and report the round-trip time. "+
				"Run this first if other tools report that Live did not answer.",
		),
	)
}

// Handle processes the ping tool call.
func (t *PingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rtt, err := t.session.Ping(ctx)
	if err != nil {
		return liveError("ping", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Live is connected (round trip %s)", rtt.Round(time.Microsecond))), nil
}

// ─── SessionInfoTool ────────────────────────────────────────────────────────

// SessionInfoTool handles the get_session_info MCP tool.
type SessionInfoTool struct {
	session *live.Session
}

// NewSessionInfoTool creates a SessionInfoTool.
func NewSessionInfoTool(session *live.Session) *SessionInfoTool {
	return &SessionInfoTool{session: session}
}

// Definition returns the MCP tool definition for get_session_info.
func (t *SessionInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("get_session_info",
		mcp.WithDescription(
			"Summarize the Live set: version, tempo, play state, and the number of tracks and scenes. "+
				"Set 'include_tracks' to also list track names.",
		),
		mcp.WithBoolean("include_tracks",
			mcp.Description("Also list every track name"),
		),
	)
}

type sessionInfo struct {
	live.Info
	TrackNames []string `json:"track_names,omitempty"`
}

// Handle processes the get_session_info tool call.
func (t *SessionInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := t.session.Info(ctx)
	if err != nil {
		return liveError("get session info", err), nil
	}
	out := sessionInfo{Info: info}

	if withTracks, _ := optionalBool(req, "include_tracks"); withTracks {
		for i := 0; i < info.Tracks; i++ {
			name, err := t.session.TrackName(ctx, i)
			if err != nil {
				return liveError(fmt.Sprintf("get name of track %d", i), err), nil
			}
			out.TrackNames = append(out.TrackNames, name)
		}
	}
	return jsonResult(out)
}
