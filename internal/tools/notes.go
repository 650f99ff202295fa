package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// maxNotesPerCall bounds one add_notes request.
const maxNotesPerCall = 1024

// ─── AddNotesTool ───────────────────────────────────────────────────────────

// AddNotesTool handles the add_notes MCP tool.
type AddNotesTool struct {
	session *live.Session
}

// NewAddNotesTool creates an AddNotesTool.
func NewAddNotesTool(session *live.Session) *AddNotesTool {
	return &AddNotesTool{session: session}
}

// Definition returns the MCP tool definition for add_notes.
func (t *AddNotesTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Write MIDI notes into an existing clip. Times are in beats from the clip start. " +
				"Existing notes are kept; use clear_notes first to replace them.",
		),
	}
	opts = append(opts, slotParams()...)
	opts = append(opts,
		mcp.WithArray("notes",
			mcp.Required(),
			mcp.Description("Notes to add"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"pitch":      map[string]any{"type": "integer", "minimum": 0, "maximum": 127, "description": "MIDI pitch, 60 is middle C"},
					"start_time": map[string]any{"type": "number", "minimum": 0, "description": "Start in beats"},
					"duration":   map[string]any{"type": "number", "exclusiveMinimum": 0, "description": "Length in beats"},
					"velocity":   map[string]any{"type": "integer", "minimum": 1, "maximum": 127},
					"mute":       map[string]any{"type": "boolean"},
				},
				"required": []string{"pitch", "start_time", "duration", "velocity"},
			}),
		),
	)
	return mcp.NewTool("add_notes", opts...)
}

// Handle processes the add_notes tool call.
func (t *AddNotesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := parseNotesArg(req.GetArguments()["notes"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	batches, err := t.session.AddNotes(ctx, idx[0], idx[1], notes)
	if err != nil {
		return liveError("add notes", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Added %d notes to track %d, slot %d (%d messages)", len(notes), idx[0], idx[1], batches)), nil
}

// parseNotesArg decodes the raw "notes" argument into notes.
func parseNotesArg(raw any) ([]live.Note, error) {
	if raw == nil {
		return nil, fmt.Errorf("'notes' is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("'notes' is not valid JSON: %v", err)
	}
	var notes []live.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("'notes' must be an array of {pitch, start_time, duration, velocity, mute}: %v", err)
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("'notes' must not be empty")
	}
	if len(notes) > maxNotesPerCall {
		return nil, fmt.Errorf("'notes' has %d entries, at most %d per call", len(notes), maxNotesPerCall)
	}
	return notes, nil
}

// ─── GetNotesTool ───────────────────────────────────────────────────────────

// GetNotesTool handles the get_notes MCP tool.
type GetNotesTool struct {
	session *live.Session
}

// NewGetNotesTool creates a GetNotesTool.
func NewGetNotesTool(session *live.Session) *GetNotesTool {
	return &GetNotesTool{session: session}
}

// Definition returns the MCP tool definition for get_notes.
func (t *GetNotesTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Read every MIDI note in a clip."),
	}, slotParams()...)
	return mcp.NewTool("get_notes", opts...)
}

// Handle processes the get_notes tool call.
func (t *GetNotesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := t.session.Notes(ctx, idx[0], idx[1])
	if err != nil {
		return liveError("get notes", err), nil
	}
	return jsonResult(notes)
}

// ─── ClearNotesTool ─────────────────────────────────────────────────────────

// ClearNotesTool handles the clear_notes MCP tool.
type ClearNotesTool struct {
	session *live.Session
}

// NewClearNotesTool creates a ClearNotesTool.
func NewClearNotesTool(session *live.Session) *ClearNotesTool {
	return &ClearNotesTool{session: session}
}

// Definition returns the MCP tool definition for clear_notes.
func (t *ClearNotesTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Remove every MIDI note from a clip."),
	}, slotParams()...)
	return mcp.NewTool("clear_notes", opts...)
}

// Handle processes the clear_notes tool call.
func (t *ClearNotesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requiredInts(req, "track", "slot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.session.ClearNotes(idx[0], idx[1]); err != nil {
		return liveError("clear notes", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared notes in track %d, slot %d", idx[0], idx[1])), nil
}
