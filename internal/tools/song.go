package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// Agent-facing tempo range. Live itself accepts 20-999.
const minToolTempo, maxToolTempo = 60.0, 200.0

// ─── PlayTool ───────────────────────────────────────────────────────────────

// PlayTool handles the play MCP tool.
type PlayTool struct {
	session *live.Session
}

// NewPlayTool creates a PlayTool.
func NewPlayTool(session *live.Session) *PlayTool {
	return &PlayTool{session: session}
}

// Definition returns the MCP tool definition for play.
func (t *PlayTool) Definition() mcp.Tool {
	return mcp.NewTool("play",
		mcp.WithDescription("Start playback. Set 'continue' to resume from the current position instead of the start marker."),
		mcp.WithBoolean("continue",
			mcp.Description("Resume from the playhead rather than restarting"),
		),
	)
}

// Handle processes the play tool call.
func (t *PlayTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if resume, _ := optionalBool(req, "continue"); resume {
		t.session.Continue()
		return mcp.NewToolResultText("Playback resumed"), nil
	}
	t.session.Play()
	return mcp.NewToolResultText("Playback started"), nil
}

// ─── StopTool ───────────────────────────────────────────────────────────────

// StopTool handles the stop MCP tool.
type StopTool struct {
	session *live.Session
}

// NewStopTool creates a StopTool.
func NewStopTool(session *live.Session) *StopTool {
	return &StopTool{session: session}
}

// Definition returns the MCP tool definition for stop.
func (t *StopTool) Definition() mcp.Tool {
	return mcp.NewTool("stop",
		mcp.WithDescription("Stop playback."),
	)
}

// Handle processes the stop tool call.
func (t *StopTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.session.Stop()
	return mcp.NewToolResultText("Playback stopped"), nil
}

// ─── SetTempoTool ───────────────────────────────────────────────────────────

// SetTempoTool handles the set_tempo MCP tool.
type SetTempoTool struct {
	session *live.Session
}

// NewSetTempoTool creates a SetTempoTool.
func NewSetTempoTool(session *live.Session) *SetTempoTool {
	return &SetTempoTool{session: session}
}

// Definition returns the MCP tool definition for set_tempo.
func (t *SetTempoTool) Definition() mcp.Tool {
	return mcp.NewTool("set_tempo",
		mcp.WithDescription("Set the song tempo in BPM (60-200)."),
		mcp.WithNumber("bpm",
			mcp.Required(),
			mcp.Description("Tempo in beats per minute"),
			mcp.Min(minToolTempo),
			mcp.Max(maxToolTempo),
		),
	)
}

// Handle processes the set_tempo tool call.
func (t *SetTempoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bpm, err := requiredFloat(req, "bpm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if bpm < minToolTempo || bpm > maxToolTempo {
		return mcp.NewToolResultError(fmt.Sprintf("BPM %g is out of valid range (%g-%g)", bpm, minToolTempo, maxToolTempo)), nil
	}
	if err := t.session.SetTempo(bpm); err != nil {
		return liveError("set tempo", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Tempo set to %g BPM", bpm)), nil
}

// ─── GetTempoTool ───────────────────────────────────────────────────────────

// GetTempoTool handles the get_tempo MCP tool.
type GetTempoTool struct {
	session *live.Session
}

// NewGetTempoTool creates a GetTempoTool.
func NewGetTempoTool(session *live.Session) *GetTempoTool {
	return &GetTempoTool{session: session}
}

// Definition returns the MCP tool definition for get_tempo.
func (t *GetTempoTool) Definition() mcp.Tool {
	return mcp.NewTool("get_tempo",
		mcp.WithDescription("Read the current song tempo in BPM."),
	)
}

// Handle processes the get_tempo tool call.
func (t *GetTempoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bpm, err := t.session.Tempo(ctx)
	if err != nil {
		return liveError("get tempo", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Current tempo: %g BPM", bpm)), nil
}

// ─── SetSongPositionTool ────────────────────────────────────────────────────

// SetSongPositionTool handles the set_song_position MCP tool.
type SetSongPositionTool struct {
	session *live.Session
}

// NewSetSongPositionTool creates a SetSongPositionTool.
func NewSetSongPositionTool(session *live.Session) *SetSongPositionTool {
	return &SetSongPositionTool{session: session}
}

// Definition returns the MCP tool definition for set_song_position.
func (t *SetSongPositionTool) Definition() mcp.Tool {
	return mcp.NewTool("set_song_position",
		mcp.WithDescription("Move the playhead to a position in beats."),
		mcp.WithNumber("beats",
			mcp.Required(),
			mcp.Description("Position in beats from the start of the arrangement"),
			mcp.Min(0),
		),
	)
}

// Handle processes the set_song_position tool call.
func (t *SetSongPositionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	beats, err := requiredFloat(req, "beats")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.session.SetSongTime(beats); err != nil {
		return liveError("set song position", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Playhead moved to beat %g", beats)), nil
}

// ─── UndoTool / RedoTool ────────────────────────────────────────────────────

// UndoTool handles the undo MCP tool.
type UndoTool struct {
	session *live.Session
}

// NewUndoTool creates an UndoTool.
func NewUndoTool(session *live.Session) *UndoTool {
	return &UndoTool{session: session}
}

// Definition returns the MCP tool definition for undo.
func (t *UndoTool) Definition() mcp.Tool {
	return mcp.NewTool("undo",
		mcp.WithDescription("Undo the last operation in Live."),
	)
}

// Handle processes the undo tool call.
func (t *UndoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.session.Undo()
	return mcp.NewToolResultText("Undo sent"), nil
}

// RedoTool handles the redo MCP tool.
type RedoTool struct {
	session *live.Session
}

// NewRedoTool creates a RedoTool.
func NewRedoTool(session *live.Session) *RedoTool {
	return &RedoTool{session: session}
}

// Definition returns the MCP tool definition for redo.
func (t *RedoTool) Definition() mcp.Tool {
	return mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone operation in Live."),
	)
}

// Handle processes the redo tool call.
func (t *RedoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.session.Redo()
	return mcp.NewToolResultText("Redo sent"), nil
}
