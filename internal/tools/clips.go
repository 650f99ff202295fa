package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

func slotParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("track",
			mcp.Required(),
			mcp.Description("Track index, starting at 0"),
			mcp.Min(0),
		),
		mcp.WithNumber("slot",
			mcp.Required(),
			mcp.Description("Clip slot index (scene row), starting at 0"),
			mcp.Min(0),
		),
	}
}

// ─── CreateClipTool ─────────────────────────────────────────────────────────

// CreateClipTool handles the create_clip MCP tool.
type CreateClipTool struct {
	session *live.Session
}

// NewCreateClipTool creates a CreateClipTool.
func NewCreateClipTool(session *live.Session) *CreateClipTool {
	return &CreateClipTool{session: session}
}

// Definition returns the MCP tool definition for create_clip.
func (t *CreateClipTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Create an empty MIDI clip in a clip slot, optionally naming it."),
	}
	opts = append(opts, slotParams()...)
	opts = append(opts,
		mcp.WithNumber("length",
			mcp.Description("Clip length in beats (default 4)"),
			mcp.Min(0.25),
			mcp.DefaultNumber(4),
		),
		mcp.WithString("name",
			mcp.Description("Clip name"),
		),
	)
	return mcp.NewTool("create_clip", opts...)
}

// Handle processes the create_clip tool call.
func (t *CreateClipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	length := req.GetFloat("length", 4)

	if err := t.session.CreateClip(idx[0], idx[1], length); err != nil {
		return liveError("create clip", err), nil
	}
	if name := req.GetString("name", ""); name != "" {
		if err := t.session.SetClipName(idx[0], idx[1], name); err != nil {
			return liveError("name clip", err), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Created %g-beat clip in track %d, slot %d", length, idx[0], idx[1])), nil
}

// ─── GetClipTool ────────────────────────────────────────────────────────────

// GetClipTool handles the get_clip MCP tool.
type GetClipTool struct {
	session *live.Session
}

// NewGetClipTool creates a GetClipTool.
func NewGetClipTool(session *live.Session) *GetClipTool {
	return &GetClipTool{session: session}
}

// Definition returns the MCP tool definition for get_clip.
func (t *GetClipTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Read the name and length in beats of the clip in a clip slot."),
	}, slotParams()...)
	return mcp.NewTool("get_clip", opts...)
}

type clipInfo struct {
	Track  int     `json:"track"`
	Slot   int     `json:"slot"`
	Name   string  `json:"name"`
	Length float64 `json:"length"`
}

// Handle processes the get_clip tool call.
func (t *GetClipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := t.session.ClipName(ctx, idx[0], idx[1])
	if err != nil {
		return liveError("get clip name", err), nil
	}
	length, err := t.session.ClipLength(ctx, idx[0], idx[1])
	if err != nil {
		return liveError("get clip length", err), nil
	}
	return jsonResult(clipInfo{Track: idx[0], Slot: idx[1], Name: name, Length: length})
}

// ─── FireClipTool ───────────────────────────────────────────────────────────

// FireClipTool handles the fire_clip MCP tool.
type FireClipTool struct {
	session *live.Session
}

// NewFireClipTool creates a FireClipTool.
func NewFireClipTool(session *live.Session) *FireClipTool {
	return &FireClipTool{session: session}
}

// Definition returns the MCP tool definition for fire_clip.
func (t *FireClipTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Launch the clip in a clip slot."),
	}, slotParams()...)
	return mcp.NewTool("fire_clip", opts...)
}

// Handle processes the fire_clip tool call.
func (t *FireClipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.session.FireClip(idx[0], idx[1]); err != nil {
		return liveError("fire clip", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Fired clip at track %d, slot %d", idx[0], idx[1])), nil
}

// ─── StopClipsTool ──────────────────────────────────────────────────────────

// StopClipsTool handles the stop_clips MCP tool.
type StopClipsTool struct {
	session *live.Session
}

// NewStopClipsTool creates a StopClipsTool.
func NewStopClipsTool(session *live.Session) *StopClipsTool {
	return &StopClipsTool{session: session}
}

// Definition returns the MCP tool definition for stop_clips.
func (t *StopClipsTool) Definition() mcp.Tool {
	return mcp.NewTool("stop_clips",
		mcp.WithDescription("Stop clips on a track. Give 'slot' to stop only that clip."),
		mcp.WithNumber("track",
			mcp.Required(),
			mcp.Description("Track index, starting at 0"),
			mcp.Min(0),
		),
		mcp.WithNumber("slot",
			mcp.Description("Clip slot to stop; omit to stop every clip on the track"),
			mcp.Min(0),
		),
	)
}

// Handle processes the stop_clips tool call.
func (t *StopClipsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	track, err := requiredInt(req, "track")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := req.GetArguments()["slot"]; ok {
		slot, err := requiredInt(req, "slot")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := t.session.StopClip(track, slot); err != nil {
			return liveError("stop clip", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Stopped clip at track %d, slot %d", track, slot)), nil
	}
	if err := t.session.StopTrackClips(track); err != nil {
		return liveError("stop clips", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Stopped all clips on track %d", track)), nil
}

// ─── DeleteClipTool ─────────────────────────────────────────────────────────

// DeleteClipTool handles the delete_clip MCP tool.
type DeleteClipTool struct {
	session *live.Session
}

// NewDeleteClipTool creates a DeleteClipTool.
func NewDeleteClipTool(session *live.Session) *DeleteClipTool {
	return &DeleteClipTool{session: session}
}

// Definition returns the MCP tool definition for delete_clip.
func (t *DeleteClipTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Delete the clip in a clip slot. Use undo to bring it back."),
	}, slotParams()...)
	return mcp.NewTool("delete_clip", opts...)
}

// Handle processes the delete_clip tool call.
func (t *DeleteClipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.session.DeleteClip(idx[0], idx[1]); err != nil {
		return liveError("delete clip", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted clip at track %d, slot %d", idx[0], idx[1])), nil
}
