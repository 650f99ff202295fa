// Package resources implements MCP resource handlers for the Live bridge.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (live://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ableton-mcp/internal/correlator"
	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// StatusURI addresses the bridge status resource.
const StatusURI = "live://session/status"

// Endpoint is the part of correlator.Client the status resource reads.
type Endpoint interface {
	Config() correlator.Config
	Pending() int
	Closed() bool
	Latest(address string) ([]any, bool)
}

// Handler manages Live resource endpoints.
type Handler struct {
	endpoint    Endpoint
	beats       *live.BeatTracker
	journalPath string
}

// NewHandler creates a resource Handler. beats may be nil, and an empty
// journalPath means the journal is disabled.
func NewHandler(endpoint Endpoint, beats *live.BeatTracker, journalPath string) *Handler {
	return &Handler{endpoint: endpoint, beats: beats, journalPath: journalPath}
}

// Status is the JSON body of the status resource.
type Status struct {
	Host         string          `json:"host"`
	SendPort     int             `json:"send_port"`
	ReceivePort  int             `json:"receive_port"`
	ReplyPattern string          `json:"reply_pattern"`
	ReplyTimeout string          `json:"reply_timeout"`
	Pending      int             `json:"pending_replies"`
	Closed       bool            `json:"closed"`
	Journal      string          `json:"journal,omitempty"`
	Beat         *live.BeatState `json:"beat,omitempty"`
	LastBeat     []any           `json:"last_beat,omitempty"`
}

// StatusResource returns the MCP resource definition for bridge status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		StatusURI,
		"Live Bridge Status",
		mcp.WithResourceDescription("OSC endpoints, replies waiting to be read, and the last beat seen"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current bridge status as JSON. It never talks
// to Live, so it answers even when Live is down.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	cfg := h.endpoint.Config()
	st := Status{
		Host:         cfg.Host,
		SendPort:     cfg.SendPort,
		ReceivePort:  cfg.ReceivePort,
		ReplyPattern: cfg.ReplyPattern,
		ReplyTimeout: cfg.ReplyTimeout.String(),
		Pending:      h.endpoint.Pending(),
		Closed:       h.endpoint.Closed(),
		Journal:      h.journalPath,
	}
	if h.beats != nil {
		b := h.beats.State()
		st.Beat = &b
	}
	// Peek only; the slot belongs to whoever asks for the beat next.
	if args, ok := h.endpoint.Latest(live.BeatAddress); ok {
		st.LastBeat = args
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
