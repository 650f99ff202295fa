package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HendryAvila/ableton-mcp/internal/correlator"
	"github.com/HendryAvila/ableton-mcp/internal/journal"
	"github.com/HendryAvila/ableton-mcp/internal/live"
	"github.com/HendryAvila/ableton-mcp/internal/testutil"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

type env struct {
	sim     *testutil.LiveSim
	session *live.Session
	journal *journal.Store
}

// newEnv wires a session to a simulated Live set, with the journal
// observing every exchange.
func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, testutil.NewLiveSim())
}

func newEnvWith(t *testing.T, sim *testutil.LiveSim) *env {
	t.Helper()
	store, err := journal.New(journal.Config{DataDir: t.TempDir(), MaxEntries: 100})
	require.NoError(t, err, "failed to create journal")
	t.Cleanup(func() { _ = store.Close() })

	cfg := correlator.DefaultConfig()
	cfg.ReplyTimeout = 150 * time.Millisecond
	c, err := correlator.New(sim, cfg, zap.NewNop(), correlator.WithObserver(store.Observer(nil)))
	require.NoError(t, err, "failed to create correlator")
	t.Cleanup(func() { _ = c.Close() })

	opts := live.DefaultOptions()
	opts.Timeout = 150 * time.Millisecond
	opts.SendRate = 0
	opts.SettleDelay = 5 * time.Millisecond
	return &env{sim: sim, session: live.NewSession(c, zap.NewNop(), opts), journal: store}
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

type handler interface {
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func call(t *testing.T, h handler, args map[string]interface{}) (string, bool) {
	t.Helper()
	r, err := h.Handle(context.Background(), makeReq(args))
	require.NoError(t, err, "unexpected protocol error")
	return resultText(r), r.IsError
}

func mustOK(t *testing.T, h handler, args map[string]interface{}) string {
	t.Helper()
	text, isErr := call(t, h, args)
	require.False(t, isErr, "unexpected tool error: %s", text)
	return text
}

func mustFail(t *testing.T, h handler, args map[string]interface{}, want string) {
	t.Helper()
	text, isErr := call(t, h, args)
	require.True(t, isErr, "expected tool error, got: %s", text)
	assert.Contains(t, text, want)
}

// ─── Definitions ─────────────────────────────────────────────────────────────

func TestDefinitions_Names(t *testing.T) {
	e := newEnv(t)
	beats, err := live.NewBeatTracker(e.session)
	require.NoError(t, err)

	defs := map[string]mcp.Tool{
		"play":                  NewPlayTool(e.session).Definition(),
		"stop":                  NewStopTool(e.session).Definition(),
		"set_tempo":             NewSetTempoTool(e.session).Definition(),
		"get_tempo":             NewGetTempoTool(e.session).Definition(),
		"set_song_position":     NewSetSongPositionTool(e.session).Definition(),
		"undo":                  NewUndoTool(e.session).Definition(),
		"redo":                  NewRedoTool(e.session).Definition(),
		"ping":                  NewPingTool(e.session).Definition(),
		"get_session_info":      NewSessionInfoTool(e.session).Definition(),
		"create_track":          NewCreateTrackTool(e.session).Definition(),
		"set_track":             NewSetTrackTool(e.session).Definition(),
		"list_devices":          NewListDevicesTool(e.session).Definition(),
		"get_device_parameters": NewGetDeviceParametersTool(e.session).Definition(),
		"set_device_parameter":  NewSetDeviceParameterTool(e.session).Definition(),
		"create_clip":           NewCreateClipTool(e.session).Definition(),
		"get_clip":              NewGetClipTool(e.session).Definition(),
		"fire_clip":             NewFireClipTool(e.session).Definition(),
		"stop_clips":            NewStopClipsTool(e.session).Definition(),
		"delete_clip":           NewDeleteClipTool(e.session).Definition(),
		"add_notes":             NewAddNotesTool(e.session).Definition(),
		"get_notes":             NewGetNotesTool(e.session).Definition(),
		"clear_notes":           NewClearNotesTool(e.session).Definition(),
		"fire_scene":            NewFireSceneTool(e.session).Definition(),
		"create_scene":          NewCreateSceneTool(e.session).Definition(),
		"beat_listen":           NewBeatListenTool(beats).Definition(),
		"exchange_history":      NewExchangeHistoryTool(e.journal).Definition(),
	}
	for name, def := range defs {
		assert.Equal(t, name, def.Name)
		assert.NotEmpty(t, def.Description, "tool %s has no description", name)
	}
}

func TestDefinitions_RequiredArgs(t *testing.T) {
	e := newEnv(t)
	def := NewSetDeviceParameterTool(e.session).Definition()
	assert.Equal(t, []string{"track", "device", "parameter", "value"}, def.InputSchema.Required)

	def = NewGetClipTool(e.session).Definition()
	assert.Equal(t, []string{"track", "slot"}, def.InputSchema.Required)
}

// ─── Song ────────────────────────────────────────────────────────────────────

func TestSetTempoTool(t *testing.T) {
	e := newEnv(t)
	tool := NewSetTempoTool(e.session)

	text := mustOK(t, tool, map[string]interface{}{"bpm": 132.0})
	assert.Contains(t, text, "132 BPM")
	e.sim.Inspect(func(st *testutil.SimState) {
		assert.Equal(t, 132.0, st.Tempo)
	})

	mustFail(t, tool, map[string]interface{}{"bpm": 250.0}, "out of valid range")
	mustFail(t, tool, map[string]interface{}{"bpm": 59.0}, "out of valid range")
	mustFail(t, tool, map[string]interface{}{}, "'bpm' is required")
	mustFail(t, tool, map[string]interface{}{"bpm": "fast"}, "must be a number")
}

func TestGetTempoTool(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, "Current tempo: 120 BPM", mustOK(t, NewGetTempoTool(e.session), nil))
}

func TestGetTempoTool_NoLive(t *testing.T) {
	sim := testutil.NewLiveSim()
	sim.Silence("/live/song/get/tempo")
	e := newEnvWith(t, sim)

	mustFail(t, NewGetTempoTool(e.session), nil, "Live did not answer")
}

func TestPlayStopTools(t *testing.T) {
	e := newEnv(t)

	mustOK(t, NewPlayTool(e.session), nil)
	e.sim.Inspect(func(st *testutil.SimState) {
		assert.True(t, st.Playing, "expected playing")
	})
	mustOK(t, NewStopTool(e.session), nil)
	text := mustOK(t, NewPlayTool(e.session), map[string]interface{}{"continue": true})
	assert.Equal(t, "Playback resumed", text)
	assert.Len(t, e.sim.SentTo("/live/song/continue_playing"), 1)
}

func TestSetSongPositionTool(t *testing.T) {
	e := newEnv(t)
	tool := NewSetSongPositionTool(e.session)
	mustOK(t, tool, map[string]interface{}{"beats": 32.0})
	e.sim.Inspect(func(st *testutil.SimState) {
		assert.Equal(t, 32.0, st.SongTime)
	})
	mustFail(t, tool, map[string]interface{}{"beats": -4.0}, "negative")
}

func TestUndoRedoTools(t *testing.T) {
	e := newEnv(t)
	mustOK(t, NewUndoTool(e.session), nil)
	mustOK(t, NewRedoTool(e.session), nil)
	e.sim.Inspect(func(st *testutil.SimState) {
		assert.Equal(t, 1, st.Undos)
		assert.Equal(t, 1, st.Redos)
	})
}

func TestPingTool(t *testing.T) {
	e := newEnv(t)
	text := mustOK(t, NewPingTool(e.session), nil)
	assert.True(t, strings.HasPrefix(text, "Live is connected"), "text = %q", text)
}

func TestSessionInfoTool(t *testing.T) {
	e := newEnv(t)
	text := mustOK(t, NewSessionInfoTool(e.session), map[string]interface{}{"include_tracks": true})

	var got struct {
		Version    string   `json:"version"`
		Tempo      float64  `json:"tempo"`
		Tracks     int      `json:"tracks"`
		Scenes     int      `json:"scenes"`
		TrackNames []string `json:"track_names"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &got), "invalid JSON %q", text)
	assert.Equal(t, "12.1", got.Version)
	assert.Equal(t, 120.0, got.Tempo)
	assert.Equal(t, 2, got.Tracks)
	assert.Equal(t, 8, got.Scenes)
	require.Len(t, got.TrackNames, 2)
	assert.Equal(t, "1-MIDI", got.TrackNames[0])
}

// ─── Tracks ──────────────────────────────────────────────────────────────────

func TestCreateTrackTool(t *testing.T) {
	e := newEnv(t)
	tool := NewCreateTrackTool(e.session)

	text := mustOK(t, tool, map[string]interface{}{"type": "midi", "name": "Lead"})
	assert.Equal(t, "Created midi track 2 (Lead)", text)
	text = mustOK(t, tool, map[string]interface{}{"type": "return", "name": "Delay"})
	assert.Equal(t, "Created return track (Delay)", text)
	mustFail(t, tool, map[string]interface{}{"type": "group"}, "must be one of")
}

func TestSetTrackTool(t *testing.T) {
	e := newEnv(t)
	tool := NewSetTrackTool(e.session)

	text := mustOK(t, tool, map[string]interface{}{
		"track": 1.0, "name": "Drums", "volume": 0.7, "pan": 0.5, "mute": true, "solo": false,
	})
	assert.Contains(t, text, `name="Drums"`)
	assert.Contains(t, text, "mute=true")
	e.sim.Inspect(func(st *testutil.SimState) {
		tr := st.Tracks[1]
		assert.Equal(t, "Drums", tr.Name)
		assert.Equal(t, 0.7, tr.Volume)
		assert.Equal(t, 0.5, tr.Panning)
		assert.True(t, tr.Mute)
		assert.False(t, tr.Solo)
	})

	mustFail(t, tool, map[string]interface{}{"track": 0.0}, "at least one of")
	mustFail(t, tool, map[string]interface{}{"name": "x"}, "'track' is required")
	mustFail(t, tool, map[string]interface{}{"track": 0.5, "mute": true}, "whole number")
	mustFail(t, tool, map[string]interface{}{"track": 0.0, "volume": 2.0}, "between 0 and 1")
}

func TestSetTrackTool_ValidatesBeforeSending(t *testing.T) {
	e := newEnv(t)
	mustFail(t, NewSetTrackTool(e.session), map[string]interface{}{
		"track": 0.0, "name": "Keep", "pan": 3.0,
	}, "'pan'")
	assert.Empty(t, e.sim.SentTo("/live/track/set/name"), "name sent despite invalid pan")
}

func TestListDevicesTool(t *testing.T) {
	e := newEnv(t)
	tool := NewListDevicesTool(e.session)

	assert.Contains(t, mustOK(t, tool, map[string]interface{}{"track": 0.0}), "0. Operator")
	assert.Equal(t, "Track 1 has no devices", mustOK(t, tool, map[string]interface{}{"track": 1.0}))
	mustFail(t, tool, map[string]interface{}{"track": 7.0}, "Live did not answer")
}

// ─── Devices ─────────────────────────────────────────────────────────────────

func TestDeviceParameterTools(t *testing.T) {
	e := newEnv(t)

	mustOK(t, NewSetDeviceParameterTool(e.session), map[string]interface{}{
		"track": 0.0, "device": 0.0, "parameter": 1.0, "value": 0.75,
	})
	text := mustOK(t, NewGetDeviceParametersTool(e.session), map[string]interface{}{"track": 0.0, "device": 0.0})

	var params []live.Parameter
	require.NoError(t, json.Unmarshal([]byte(text), &params))
	require.Len(t, params, 2)
	assert.Equal(t, "Filter Freq", params[1].Name)
	assert.Equal(t, 0.75, params[1].Value)

	mustFail(t, NewSetDeviceParameterTool(e.session), map[string]interface{}{
		"track": 0.0, "device": 0.0, "parameter": 1.0, "value": 1.5,
	}, "between 0.0 and 1.0")
	mustFail(t, NewSetDeviceParameterTool(e.session), map[string]interface{}{
		"track": 0.0, "device": 0.0, "value": 0.5,
	}, "'parameter' is required")
}

// ─── Clips and notes ─────────────────────────────────────────────────────────

func TestClipTools(t *testing.T) {
	e := newEnv(t)
	slot := map[string]interface{}{"track": 0.0, "slot": 2.0}

	text := mustOK(t, NewCreateClipTool(e.session), map[string]interface{}{
		"track": 0.0, "slot": 2.0, "length": 8.0, "name": "Hook",
	})
	assert.Equal(t, "Created 8-beat clip in track 0, slot 2", text)
	e.sim.Inspect(func(st *testutil.SimState) {
		c := st.Tracks[0].Clips[2]
		if assert.NotNil(t, c) {
			assert.Equal(t, 8.0, c.Length)
			assert.Equal(t, "Hook", c.Name)
		}
	})

	mustOK(t, NewFireClipTool(e.session), slot)
	mustOK(t, NewStopClipsTool(e.session), slot)
	assert.Len(t, e.sim.SentTo("/live/clip_slot/stop"), 1)
	mustOK(t, NewStopClipsTool(e.session), map[string]interface{}{"track": 0.0})
	e.sim.Inspect(func(st *testutil.SimState) {
		assert.Equal(t, 1, st.Tracks[0].StopAllClipsCalls)
	})

	mustOK(t, NewDeleteClipTool(e.session), slot)
	e.sim.Inspect(func(st *testutil.SimState) {
		assert.Nil(t, st.Tracks[0].Clips[2], "clip should be deleted")
	})
}

func TestGetClipTool(t *testing.T) {
	e := newEnv(t)
	tool := NewGetClipTool(e.session)

	mustOK(t, NewCreateClipTool(e.session), map[string]interface{}{
		"track": 1.0, "slot": 3.0, "length": 6.0, "name": "Pad",
	})
	text := mustOK(t, tool, map[string]interface{}{"track": 1.0, "slot": 3.0})
	assert.JSONEq(t, `{"track":1,"slot":3,"name":"Pad","length":6}`, text)

	mustFail(t, tool, map[string]interface{}{"track": 1.0, "slot": 4.0}, "Live did not answer")
	mustFail(t, tool, map[string]interface{}{"track": 1.0}, "'slot' is required")
}

func TestCreateClipTool_DefaultLength(t *testing.T) {
	e := newEnv(t)
	text := mustOK(t, NewCreateClipTool(e.session), map[string]interface{}{"track": 1.0, "slot": 0.0})
	assert.Contains(t, text, "4-beat")
}

func TestNoteTools(t *testing.T) {
	e := newEnv(t)
	mustOK(t, NewCreateClipTool(e.session), map[string]interface{}{"track": 0.0, "slot": 0.0})

	notes := []interface{}{
		map[string]interface{}{"pitch": 60.0, "start_time": 0.0, "duration": 1.0, "velocity": 100.0},
		map[string]interface{}{"pitch": 64.0, "start_time": 1.0, "duration": 0.5, "velocity": 90.0, "mute": true},
	}
	text := mustOK(t, NewAddNotesTool(e.session), map[string]interface{}{"track": 0.0, "slot": 0.0, "notes": notes})
	assert.Equal(t, "Added 2 notes to track 0, slot 0 (1 messages)", text)

	text = mustOK(t, NewGetNotesTool(e.session), map[string]interface{}{"track": 0.0, "slot": 0.0})
	var got []live.Note
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, []live.Note{
		{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100},
		{Pitch: 64, StartTime: 1, Duration: 0.5, Velocity: 90, Mute: true},
	}, got)

	mustOK(t, NewClearNotesTool(e.session), map[string]interface{}{"track": 0.0, "slot": 0.0})
	text = mustOK(t, NewGetNotesTool(e.session), map[string]interface{}{"track": 0.0, "slot": 0.0})
	assert.Equal(t, "[]", strings.TrimSpace(text), "expected no notes")
}

func TestAddNotesTool_BadInput(t *testing.T) {
	e := newEnv(t)
	tool := NewAddNotesTool(e.session)
	base := func(notes interface{}) map[string]interface{} {
		return map[string]interface{}{"track": 0.0, "slot": 0.0, "notes": notes}
	}

	mustFail(t, tool, map[string]interface{}{"track": 0.0, "slot": 0.0}, "'notes' is required")
	mustFail(t, tool, base([]interface{}{}), "must not be empty")
	mustFail(t, tool, base("C E G"), "must be an array")
	mustFail(t, tool, base([]interface{}{
		map[string]interface{}{"pitch": 200.0, "start_time": 0.0, "duration": 1.0, "velocity": 100.0},
	}), "pitch 200")

	assert.Empty(t, e.sim.SentTo("/live/clip/add/notes"), "notes sent despite bad input")
}

// ─── Scenes ──────────────────────────────────────────────────────────────────

func TestSceneTools(t *testing.T) {
	e := newEnv(t)

	text := mustOK(t, NewCreateSceneTool(e.session), map[string]interface{}{"name": "Drop"})
	assert.Equal(t, "Scene 8 created (Drop)", text)
	mustOK(t, NewFireSceneTool(e.session), map[string]interface{}{"scene": 8.0})
	e.sim.Inspect(func(st *testutil.SimState) {
		assert.Equal(t, "Drop", st.Scenes[8])
		assert.Equal(t, []int{8}, st.FiredScenes)
	})
	mustFail(t, NewFireSceneTool(e.session), nil, "'scene' is required")
}

// ─── Beat ────────────────────────────────────────────────────────────────────

func TestBeatListenTool(t *testing.T) {
	e := newEnv(t)
	beats, err := live.NewBeatTracker(e.session)
	require.NoError(t, err)
	tool := NewBeatListenTool(beats)

	mustOK(t, tool, map[string]interface{}{"action": "start"})
	e.sim.Beat(4)
	require.Eventually(t, func() bool { return beats.State().Received > 0 }, time.Second, 5*time.Millisecond)

	text := mustOK(t, tool, map[string]interface{}{"action": "status"})
	assert.Contains(t, text, `"beat": 4`)
	assert.Contains(t, text, `"listening": true`)
	text = mustOK(t, tool, map[string]interface{}{"action": "stop"})
	assert.Equal(t, "Stopped listening after 1 beats", text)
	mustFail(t, tool, map[string]interface{}{"action": "pause"}, "must be start, stop or status")
}

// ─── History ─────────────────────────────────────────────────────────────────

func TestExchangeHistoryTool(t *testing.T) {
	sim := testutil.NewLiveSim()
	sim.Silence("/live/song/get/is_playing")
	e := newEnvWith(t, sim)
	tool := NewExchangeHistoryTool(e.journal)

	assert.Equal(t, "No exchanges recorded yet.", mustOK(t, tool, nil))

	_, err := e.session.Tempo(context.Background())
	require.NoError(t, err)
	_, err = e.session.IsPlaying(context.Background())
	require.Error(t, err, "expected no reply for is_playing")

	text := mustOK(t, tool, map[string]interface{}{"limit": 10.0})
	assert.Contains(t, text, "/live/song/get/tempo [] → replied [120]")
	assert.Contains(t, text, "/live/song/get/is_playing [] → timeout")

	text = mustOK(t, tool, map[string]interface{}{"view": "stats"})
	var stats journal.Stats
	require.NoError(t, json.Unmarshal([]byte(text), &stats))
	assert.Equal(t, 2, stats.TotalExchanges)
	assert.Equal(t, []string{"/live/song/get/is_playing"}, stats.NeverAnswered)

	mustFail(t, tool, map[string]interface{}{"view": "graph"}, "'view' must be")
}
