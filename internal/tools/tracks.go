package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// ─── CreateTrackTool ────────────────────────────────────────────────────────

// CreateTrackTool handles the create_track MCP tool.
type CreateTrackTool struct {
	session *live.Session
}

// NewCreateTrackTool creates a CreateTrackTool.
func NewCreateTrackTool(session *live.Session) *CreateTrackTool {
	return &CreateTrackTool{session: session}
}

// Definition returns the MCP tool definition for create_track.
func (t *CreateTrackTool) Definition() mcp.Tool {
	return mcp.NewTool("create_track",
		mcp.WithDescription(
			"Append a new track to the Live set and optionally name it. "+
				"Returns the new track's index for MIDI and audio tracks.",
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Track type"),
			mcp.Enum(string(live.TrackMIDI), string(live.TrackAudio), string(live.TrackReturn)),
		),
		mcp.WithString("name",
			mcp.Description("Track name"),
		),
	)
}

// Handle processes the create_track tool call.
func (t *CreateTrackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := live.ParseTrackKind(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError("'type' must be one of: midi, audio, return"), nil
	}
	name := strings.TrimSpace(req.GetString("name", ""))

	idx, err := t.session.CreateTrack(ctx, kind, name)
	if err != nil {
		return liveError("create track", err), nil
	}

	label := name
	if label == "" {
		label = "unnamed"
	}
	if idx < 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Created %s track (%s)", kind, label)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created %s track %d (%s)", kind, idx, label)), nil
}

// ─── SetTrackTool ───────────────────────────────────────────────────────────

// SetTrackTool handles the set_track MCP tool.
type SetTrackTool struct {
	session *live.Session
}

// NewSetTrackTool creates a SetTrackTool.
func NewSetTrackTool(session *live.Session) *SetTrackTool {
	return &SetTrackTool{session: session}
}

// Definition returns the MCP tool definition for set_track.
func (t *SetTrackTool) Definition() mcp.Tool {
	return mcp.NewTool("set_track",
		mcp.WithDescription(
			"Change a track's name or mixer settings. Only the provided fields are changed.",
		),
		mcp.WithNumber("track",
			mcp.Required(),
			mcp.Description("Track index, starting at 0"),
			mcp.Min(0),
		),
		mcp.WithString("name",
			mcp.Description("New track name"),
		),
		mcp.WithNumber("volume",
			mcp.Description("Volume from 0 to 1 (0.85 is 0 dB)"),
			mcp.Min(0),
			mcp.Max(1),
		),
		mcp.WithNumber("pan",
			mcp.Description("Panning from -1 (left) to 1 (right)"),
			mcp.Min(-1),
			mcp.Max(1),
		),
		mcp.WithBoolean("mute", mcp.Description("Mute the track")),
		mcp.WithBoolean("solo", mcp.Description("Solo the track")),
		mcp.WithBoolean("arm", mcp.Description("Arm the track for recording")),
	)
}

// Handle processes the set_track tool call. Every field is validated
// before anything is sent.
func (t *SetTrackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	track, err := requiredInt(req, "track")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var ops []func() error
	var changed []string

	if name := req.GetString("name", ""); name != "" {
		ops = append(ops, func() error { return t.session.SetTrackName(track, name) })
		changed = append(changed, fmt.Sprintf("name=%q", name))
	}
	if v, ok := optionalFloat(req, "volume"); ok {
		if v < 0 || v > 1 {
			return mcp.NewToolResultError("'volume' must be between 0 and 1"), nil
		}
		ops = append(ops, func() error { return t.session.SetTrackVolume(track, v) })
		changed = append(changed, fmt.Sprintf("volume=%g", v))
	}
	if v, ok := optionalFloat(req, "pan"); ok {
		if v < -1 || v > 1 {
			return mcp.NewToolResultError("'pan' must be between -1 and 1"), nil
		}
		ops = append(ops, func() error { return t.session.SetTrackPanning(track, v) })
		changed = append(changed, fmt.Sprintf("pan=%g", v))
	}
	for _, flag := range []struct {
		key string
		set func(int, bool) error
	}{
		{"mute", t.session.SetTrackMute},
		{"solo", t.session.SetTrackSolo},
		{"arm", t.session.SetTrackArm},
	} {
		if v, ok := optionalBool(req, flag.key); ok {
			set := flag.set
			ops = append(ops, func() error { return set(track, v) })
			changed = append(changed, fmt.Sprintf("%s=%t", flag.key, v))
		}
	}

	if len(ops) == 0 {
		return mcp.NewToolResultError("at least one of name, volume, pan, mute, solo, arm is required"), nil
	}
	for _, op := range ops {
		if err := op(); err != nil {
			return liveError("set track", err), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("Track %d updated: %s", track, strings.Join(changed, ", "))), nil
}

// ─── ListDevicesTool ────────────────────────────────────────────────────────

// ListDevicesTool handles the list_devices MCP tool.
type ListDevicesTool struct {
	session *live.Session
}

// NewListDevicesTool creates a ListDevicesTool.
func NewListDevicesTool(session *live.Session) *ListDevicesTool {
	return &ListDevicesTool{session: session}
}

// Definition returns the MCP tool definition for list_devices.
func (t *ListDevicesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_devices",
		mcp.WithDescription("List the devices on a track, in chain order, with their indices."),
		mcp.WithNumber("track",
			mcp.Required(),
			mcp.Description("Track index, starting at 0"),
			mcp.Min(0),
		),
	)
}

// Handle processes the list_devices tool call.
func (t *ListDevicesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	track, err := requiredInt(req, "track")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names, err := t.session.TrackDevices(ctx, track)
	if err != nil {
		return liveError("list devices", err), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Track %d has no devices", track)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Devices on track %d:\n", track)
	for i, n := range names {
		fmt.Fprintf(&b, "  %d. %s\n", i, n)
	}
	return mcp.NewToolResultText(b.String()), nil
}
