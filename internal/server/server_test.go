package server

import (
	"context"
	"encoding/json"
	"net"
	"sort"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HendryAvila/ableton-mcp/internal/config"
	"github.com/HendryAvila/ableton-mcp/internal/correlator"
	"github.com/HendryAvila/ableton-mcp/internal/journal"
	"github.com/HendryAvila/ableton-mcp/internal/live"
	"github.com/HendryAvila/ableton-mcp/internal/testutil"
)

var liveTools = []string{
	"add_notes", "beat_listen", "clear_notes", "create_clip", "create_scene",
	"create_track", "delete_clip", "fire_clip", "fire_scene", "get_clip",
	"get_device_parameters", "get_notes", "get_session_info", "get_tempo",
	"list_devices", "ping", "play", "redo", "set_device_parameter",
	"set_song_position", "set_tempo", "set_track", "stop", "stop_clips", "undo",
}

// rpc sends one JSON-RPC request and decodes the result into out.
func rpc(t *testing.T, s *mcpserver.MCPServer, method string, params any, out any) {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	resp := s.HandleMessage(context.Background(), raw)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope), "invalid response %s", data)
	require.Nil(t, envelope.Error, "%s failed", method)
	require.NoError(t, json.Unmarshal(envelope.Result, out), "decoding %s result", method)
}

func toolNames(t *testing.T, s *mcpserver.MCPServer) []string {
	t.Helper()
	var res struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	rpc(t, s, "tools/list", nil, &res)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

func simServer(t *testing.T, withJournal bool) (*mcpserver.MCPServer, *testutil.LiveSim) {
	t.Helper()
	sim := testutil.NewLiveSim()

	var store *journal.Store
	var opts []correlator.Option
	if withJournal {
		var err error
		store, err = journal.New(journal.Config{DataDir: t.TempDir(), MaxEntries: 10})
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		opts = append(opts, correlator.WithObserver(store.Observer(nil)))
	}

	cfg := correlator.DefaultConfig()
	cfg.ReplyTimeout = 200 * time.Millisecond
	client, err := correlator.New(sim, cfg, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	lopts := live.DefaultOptions()
	lopts.Timeout = 200 * time.Millisecond
	s, err := build(client, store, lopts, zap.NewNop())
	require.NoError(t, err)
	return s, sim
}

func TestBuild_RegistersTools(t *testing.T) {
	s, _ := simServer(t, true)

	want := append([]string{"exchange_history"}, liveTools...)
	sort.Strings(want)
	assert.Equal(t, want, toolNames(t, s))
}

func TestBuild_WithoutJournal(t *testing.T) {
	s, _ := simServer(t, false)

	got := toolNames(t, s)
	assert.NotContains(t, got, "exchange_history")
	assert.Len(t, got, len(liveTools))
}

func TestBuild_CallTool(t *testing.T) {
	s, sim := simServer(t, true)

	var res struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	rpc(t, s, "tools/call", map[string]any{
		"name":      "set_tempo",
		"arguments": map[string]any{"bpm": 98},
	}, &res)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	assert.Equal(t, "Tempo set to 98 BPM", res.Content[0].Text)
	sim.Inspect(func(st *testutil.SimState) {
		assert.Equal(t, 98.0, st.Tempo)
	})
}

func TestBuild_GetClipOverRPC(t *testing.T) {
	s, _ := simServer(t, false)

	var res struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	rpc(t, s, "tools/call", map[string]any{
		"name":      "create_clip",
		"arguments": map[string]any{"track": 0, "slot": 1, "length": 2, "name": "Riff"},
	}, &res)
	require.False(t, res.IsError)

	rpc(t, s, "tools/call", map[string]any{
		"name":      "get_clip",
		"arguments": map[string]any{"track": 0, "slot": 1},
	}, &res)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	assert.JSONEq(t, `{"track":0,"slot":1,"name":"Riff","length":2}`, res.Content[0].Text)
}

func TestBuild_PromptsAndResources(t *testing.T) {
	s, _ := simServer(t, true)

	var prompts struct {
		Prompts []struct {
			Name string `json:"name"`
		} `json:"prompts"`
	}
	rpc(t, s, "prompts/list", nil, &prompts)
	assert.Len(t, prompts.Prompts, 2)

	var read struct {
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	}
	rpc(t, s, "resources/read", map[string]any{"uri": "live://session/status"}, &read)
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, `"reply_pattern": "/live/*"`)
}

func TestServerInstructions(t *testing.T) {
	text := serverInstructions()
	for _, want := range []string{"ping", "exchange_history", "add_notes"} {
		assert.Contains(t, text, want)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func testConfig(t *testing.T) config.Config {
	cfg := config.DefaultConfig()
	cfg.SendPort = freePort(t)
	cfg.ReceivePort = freePort(t)
	cfg.ReplyTimeout = config.Duration{Duration: 50 * time.Millisecond}
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	s, cleanup, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.Len(t, toolNames(t, s), len(liveTools)+1)
}

func TestNew_JournalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.DisableJournal = true

	s, cleanup, err := New(cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	assert.Len(t, toolNames(t, s), len(liveTools), "exchange_history should be skipped")
}

func TestNew_PortInUse(t *testing.T) {
	busy, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig(t)
	cfg.ReceivePort = busy.LocalAddr().(*net.UDPAddr).Port

	_, cleanup, err := New(cfg, zap.NewNop())
	require.Error(t, err, "expected error for a receive port in use")
	require.NotNil(t, cleanup, "cleanup must never be nil")
	cleanup()
}
