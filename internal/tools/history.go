package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/journal"
)

// ExchangeHistoryTool handles the exchange_history MCP tool.
type ExchangeHistoryTool struct {
	store *journal.Store
}

// NewExchangeHistoryTool creates an ExchangeHistoryTool with the given journal.
func NewExchangeHistoryTool(store *journal.Store) *ExchangeHistoryTool {
	return &ExchangeHistoryTool{store: store}
}

// Definition returns the MCP tool definition for exchange_history.
func (t *ExchangeHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("exchange_history",
		mcp.WithDescription(
			"Show recent request/reply exchanges with Live, or per-address statistics. "+
				"Use 'stats' to find addresses Live never answers, so you can stop calling tools that depend on them.",
		),
		mcp.WithString("view",
			mcp.Description("recent (default) or stats"),
			mcp.Enum("recent", "stats"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum exchanges to show for 'recent' (default 20)"),
			mcp.Min(1),
			mcp.Max(500),
		),
		mcp.WithString("address",
			mcp.Description("Only show exchanges waiting on this reply address"),
		),
	)
}

// Handle processes the exchange_history tool call.
func (t *ExchangeHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch view := req.GetString("view", "recent"); view {
	case "stats":
		stats, err := t.store.Stats()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read journal: %v", err)), nil
		}
		return jsonResult(stats)
	case "recent":
	default:
		return mcp.NewToolResultError(fmt.Sprintf("'view' must be recent or stats, got %q", view)), nil
	}

	limit := intArg(req, "limit", 20)
	address := req.GetString("address", "")
	entries, err := t.store.Recent(limit, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read journal: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No exchanges recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Recent exchanges (%d)\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s %s → %s", e.CreatedAt, e.Request, e.Args, e.Outcome)
		if e.Outcome == "replied" {
			fmt.Fprintf(&b, " %s", e.ReplyArgs)
		}
		fmt.Fprintf(&b, " (%.1f ms)\n", e.LatencyMS)
	}
	return mcp.NewToolResultText(b.String()), nil
}
