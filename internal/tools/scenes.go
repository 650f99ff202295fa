package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// ─── FireSceneTool ──────────────────────────────────────────────────────────

// FireSceneTool handles the fire_scene MCP tool.
type FireSceneTool struct {
	session *live.Session
}

// NewFireSceneTool creates a FireSceneTool.
func NewFireSceneTool(session *live.Session) *FireSceneTool {
	return &FireSceneTool{session: session}
}

// Definition returns the MCP tool definition for fire_scene.
func (t *FireSceneTool) Definition() mcp.Tool {
	return mcp.NewTool("fire_scene",
		mcp.WithDescription("Launch every clip in a scene row."),
		mcp.WithNumber("scene",
			mcp.Required(),
			mcp.Description("Scene index, starting at 0"),
			mcp.Min(0),
		),
	)
}

// Handle processes the fire_scene tool call.
func (t *FireSceneTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scene, err := requiredInt(req, "scene")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.session.FireScene(scene); err != nil {
		return liveError("fire scene", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Fired scene %d", scene)), nil
}

// ─── CreateSceneTool ────────────────────────────────────────────────────────

// CreateSceneTool handles the create_scene MCP tool.
type CreateSceneTool struct {
	session *live.Session
}

// NewCreateSceneTool creates a CreateSceneTool.
func NewCreateSceneTool(session *live.Session) *CreateSceneTool {
	return &CreateSceneTool{session: session}
}

// Definition returns the MCP tool definition for create_scene.
func (t *CreateSceneTool) Definition() mcp.Tool {
	return mcp.NewTool("create_scene",
		mcp.WithDescription("Insert a new scene, optionally naming it. Appends by default."),
		mcp.WithNumber("index",
			mcp.Description("Where to insert the scene; -1 or omitted appends"),
			mcp.Min(-1),
		),
		mcp.WithString("name",
			mcp.Description("Scene name"),
		),
	)
}

// Handle processes the create_scene tool call. Naming an appended scene
// needs the scene count, so it costs one round trip.
func (t *CreateSceneTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := intArg(req, "index", -1)
	name := req.GetString("name", "")

	if err := t.session.CreateScene(index); err != nil {
		return liveError("create scene", err), nil
	}
	if name == "" {
		return mcp.NewToolResultText("Scene created"), nil
	}

	at := index
	if at < 0 {
		n, err := t.session.SceneCount(ctx)
		if err != nil {
			return liveError("scene created but could not be named", err), nil
		}
		at = n - 1
	}
	if err := t.session.SetSceneName(at, name); err != nil {
		return liveError("name scene", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Scene %d created (%s)", at, name)), nil
}
