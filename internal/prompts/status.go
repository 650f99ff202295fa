package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the live-status MCP prompt.
// It instructs the AI to read and present the state of the Live set.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("live-status",
		mcp.WithPromptDescription(
			"Check the connection to Live and summarize the open set.",
		),
	)
}

// Handle processes the live-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Live Set Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `ping` to check that Live answers.\n\n" +
						"Then:\n" +
						"1. Run `get_session_info` with include_tracks=true and show tempo, play state, tracks and scenes\n" +
						"2. Run `exchange_history` with view=stats and point out any address Live never answered\n" +
						"3. If Live did not answer, tell me to check that AbletonOSC is enabled as a control surface",
				),
			},
		},
	}, nil
}
