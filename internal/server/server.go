// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the OSC endpoints and the
// journal, builds the Live session, and injects them into the tools,
// prompts and resources that depend on them. No business logic lives
// here, only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/ableton-mcp/internal/config"
	"github.com/HendryAvila/ableton-mcp/internal/correlator"
	"github.com/HendryAvila/ableton-mcp/internal/journal"
	"github.com/HendryAvila/ableton-mcp/internal/live"
	"github.com/HendryAvila/ableton-mcp/internal/prompts"
	"github.com/HendryAvila/ableton-mcp/internal/resources"
	"github.com/HendryAvila/ableton-mcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name reported to clients.
const Name = "ableton-mcp"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the OSC endpoints and the journal
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call even if New failed.
func New(cfg config.Config, logger *zap.Logger) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// --- Journal ---
	//
	// The journal is an independent subsystem: if it fails to open, the
	// Live tools keep working. We log a warning and skip exchange_history.

	store := openJournal(cfg, logger)
	var opts []correlator.Option
	if store != nil {
		opts = append(opts, correlator.WithObserver(store.Observer(logger)))
	}

	// --- OSC endpoints ---

	client, err := correlator.Open(cfg.Correlator(), logger, opts...)
	if err != nil {
		closeJournal(store, logger)
		return nil, noop, fmt.Errorf("opening OSC endpoints: %w", err)
	}

	s, err := build(client, store, cfg.Live(), logger)
	if err != nil {
		_ = client.Close()
		closeJournal(store, logger)
		return nil, noop, err
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing OSC endpoints", zap.Error(err))
		}
		closeJournal(store, logger)
	}
	return s, cleanup, nil
}

// build registers every component on a new MCP server. client may be
// backed by any transport; store may be nil.
func build(client *correlator.Client, store *journal.Store, opts live.Options, logger *zap.Logger) (*server.MCPServer, error) {
	session := live.NewSession(client, logger, opts)
	beats, err := live.NewBeatTracker(session)
	if err != nil {
		return nil, fmt.Errorf("subscribing to beats: %w", err)
	}

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerSongTools(s, session)
	registerTrackTools(s, session)
	registerClipTools(s, session)

	beatTool := tools.NewBeatListenTool(beats)
	s.AddTool(beatTool.Definition(), beatTool.Handle)

	journalPath := ""
	if store != nil {
		journalPath = store.Path()
		historyTool := tools.NewExchangeHistoryTool(store)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	// --- Register prompts ---

	sketchPrompt := prompts.NewSketchPrompt()
	s.AddPrompt(sketchPrompt.Definition(), sketchPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(client, beats, journalPath)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	go checkLive(session, logger)
	return s, nil
}

// checkLive checks once that Live answers. Tools are registered either way;
// a silent Live only earns a warning so the server can start before Live.
func checkLive(session *live.Session, logger *zap.Logger) {
	rtt, err := session.Ping(context.Background())
	if err != nil {
		logger.Warn("Live did not answer the startup ping; is AbletonOSC enabled?", zap.Error(err))
		return
	}
	logger.Info("connected to Live", zap.Duration("rtt", rtt))
}

func openJournal(cfg config.Config, logger *zap.Logger) *journal.Store {
	if cfg.DisableJournal {
		logger.Info("exchange journal disabled by configuration")
		return nil
	}
	store, err := journal.New(cfg.Journal())
	if err != nil {
		logger.Warn("journal subsystem disabled", zap.Error(err))
		return nil
	}
	return store
}

func closeJournal(store *journal.Store, logger *zap.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("journal store close", zap.Error(err))
	}
}

// noop is the cleanup returned when New fails.
func noop() {}

// --- Tool groups ---

func registerSongTools(s *server.MCPServer, session *live.Session) {
	play := tools.NewPlayTool(session)
	s.AddTool(play.Definition(), play.Handle)

	stop := tools.NewStopTool(session)
	s.AddTool(stop.Definition(), stop.Handle)

	setTempo := tools.NewSetTempoTool(session)
	s.AddTool(setTempo.Definition(), setTempo.Handle)

	getTempo := tools.NewGetTempoTool(session)
	s.AddTool(getTempo.Definition(), getTempo.Handle)

	position := tools.NewSetSongPositionTool(session)
	s.AddTool(position.Definition(), position.Handle)

	undo := tools.NewUndoTool(session)
	s.AddTool(undo.Definition(), undo.Handle)

	redo := tools.NewRedoTool(session)
	s.AddTool(redo.Definition(), redo.Handle)

	ping := tools.NewPingTool(session)
	s.AddTool(ping.Definition(), ping.Handle)

	info := tools.NewSessionInfoTool(session)
	s.AddTool(info.Definition(), info.Handle)

	fireScene := tools.NewFireSceneTool(session)
	s.AddTool(fireScene.Definition(), fireScene.Handle)

	createScene := tools.NewCreateSceneTool(session)
	s.AddTool(createScene.Definition(), createScene.Handle)
}

func registerTrackTools(s *server.MCPServer, session *live.Session) {
	createTrack := tools.NewCreateTrackTool(session)
	s.AddTool(createTrack.Definition(), createTrack.Handle)

	setTrack := tools.NewSetTrackTool(session)
	s.AddTool(setTrack.Definition(), setTrack.Handle)

	listDevices := tools.NewListDevicesTool(session)
	s.AddTool(listDevices.Definition(), listDevices.Handle)

	getParams := tools.NewGetDeviceParametersTool(session)
	s.AddTool(getParams.Definition(), getParams.Handle)

	setParam := tools.NewSetDeviceParameterTool(session)
	s.AddTool(setParam.Definition(), setParam.Handle)
}

func registerClipTools(s *server.MCPServer, session *live.Session) {
	createClip := tools.NewCreateClipTool(session)
	s.AddTool(createClip.Definition(), createClip.Handle)

	getClip := tools.NewGetClipTool(session)
	s.AddTool(getClip.Definition(), getClip.Handle)

	fireClip := tools.NewFireClipTool(session)
	s.AddTool(fireClip.Definition(), fireClip.Handle)

	stopClips := tools.NewStopClipsTool(session)
	s.AddTool(stopClips.Definition(), stopClips.Handle)

	deleteClip := tools.NewDeleteClipTool(session)
	s.AddTool(deleteClip.Definition(), deleteClip.Handle)

	addNotes := tools.NewAddNotesTool(session)
	s.AddTool(addNotes.Definition(), addNotes.Handle)

	getNotes := tools.NewGetNotesTool(session)
	s.AddTool(getNotes.Definition(), getNotes.Handle)

	clearNotes := tools.NewClearNotesTool(session)
	s.AddTool(clearNotes.Definition(), clearNotes.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to drive Live through this server.
func serverInstructions() string {
	return `You have access to ableton-mcp, which controls a running Ableton Live set
through the AbletonOSC remote script.

## BEFORE YOU START

Call ping first. If Live does not answer, ask the user to open Live and
enable AbletonOSC under Preferences > Link, Tempo & MIDI > Control Surface.
Do not keep calling tools while Live is silent.

## INDICES

Tracks, clip slots, scenes, devices and parameters are all 0-based. Use
get_session_info with include_tracks=true to see what exists, and
list_devices / get_device_parameters before changing a device.

## WRITING MUSIC

1. create_track (midi) returns the new track's index
2. create_clip on that track and a free slot, with a length in beats
3. add_notes with pitch (60 = middle C), start_time and duration in beats,
   velocity 1-127
4. fire_clip or fire_scene to hear it

add_notes keeps existing notes; clear_notes first to replace a part.

## WHEN THINGS FAIL

"Live did not answer" means the reply did not arrive within the timeout.
Usually an index does not exist or the Live version does not support that
command. exchange_history with view=stats lists addresses Live never
answers; stop calling tools that depend on them.

Commands such as play, stop and set_tempo are fire-and-forget: success
means the message was sent, not that Live applied it. Read the value back
(get_tempo, get_session_info, get_clip) when it matters.`
}
