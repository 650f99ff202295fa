// Package prompts implements MCP prompt handlers for the Live bridge.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

// SketchPrompt handles the live-sketch MCP prompt.
// It guides the AI through turning an idea into tracks, clips and notes.
type SketchPrompt struct{}

// NewSketchPrompt creates a SketchPrompt.
func NewSketchPrompt() *SketchPrompt {
	return &SketchPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *SketchPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("live-sketch",
		mcp.WithPromptDescription(
			"Sketch a musical idea in the open Live set: "+
				"set the tempo, create MIDI tracks and clips, and write the notes.",
		),
		mcp.WithArgument("idea",
			mcp.ArgumentDescription("What to sketch, e.g. 'four bar house groove with bass and chords'"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("tempo",
			mcp.ArgumentDescription("Tempo in BPM. Default: keep the current tempo"),
		),
	)
}

// Handle processes the live-sketch prompt request.
func (p *SketchPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	idea := "a short loop"
	tempoStep := "Keep the current tempo (read it with `get_tempo`)."
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["idea"]; ok && v != "" {
			idea = v
		}
		if v, ok := args["tempo"]; ok && v != "" {
			bpm, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("tempo %q is not a number", v)
			}
			tempoStep = fmt.Sprintf("Run `set_tempo` with bpm=%g.", bpm)
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Sketch in Live: %s", idea),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to sketch %s in my open Ableton Live set.\n\n"+
						"Please:\n"+
						"1. Run `ping` to make sure Live answers, then `get_session_info` with include_tracks=true\n"+
						"2. %s\n"+
						"3. Create one MIDI track per part with `create_track`, naming each part\n"+
						"4. Create a clip for each part with `create_clip` and write it with `add_notes`\n"+
						"5. Fire the clips with `fire_scene` or `fire_clip` and tell me what you wrote\n\n"+
						"If a tool says Live did not answer, check `exchange_history` with view=stats "+
						"before retrying, and do not repeat calls on addresses Live never answers.",
					idea, tempoStep,
				)),
			},
		},
	}, nil
}
