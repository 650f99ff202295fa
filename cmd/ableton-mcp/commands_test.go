package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/ableton-mcp/internal/correlator"
	"github.com/HendryAvila/ableton-mcp/internal/journal"
	"github.com/HendryAvila/ableton-mcp/internal/osc"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRootCmd(t *testing.T) {
	root := rootCmd()
	require.NotNil(t, root)
	assert.Equal(t, "ableton-mcp", root.Use)

	for _, name := range []string{"config", "host", "send-port", "receive-port", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing flag %s", name)
	}

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "ping", "send", "history", "config", "version"}, names)
}

func TestSendCmd(t *testing.T) {
	cmd := sendCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "send [address] [args...]", cmd.Use)

	wait := cmd.Flags().Lookup("wait")
	require.NotNil(t, wait)
	assert.Equal(t, "w", wait.Shorthand)
	require.NotNil(t, cmd.Flags().Lookup("timeout"))
}

func TestHistoryCmd(t *testing.T) {
	cmd := historyCmd()
	require.NotNil(t, cmd)
	limit := cmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)
	require.NotNil(t, cmd.Flags().Lookup("stats"))
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ableton-mcp vdev\n", out)
}

func TestConfigCmd_FlagsOverride(t *testing.T) {
	out, err := run(t, "config", "--send-port", "12000", "--host", "10.0.0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "send_port: 12000")
	assert.Contains(t, out, "host: 10.0.0.5")
	assert.Contains(t, out, "receive_port: 11001")
}

func TestConfigCmd_FileThenFlags(t *testing.T) {
	path := writeConfig(t, "send_port: 13000\nlog_level: debug\n")
	out, err := run(t, "config", "--config", path, "--log-level", "warn")
	require.NoError(t, err)
	assert.Contains(t, out, "send_port: 13000")
	assert.Contains(t, out, "log_level: warn")
}

func TestConfigCmd_Invalid(t *testing.T) {
	_, err := run(t, "config", "--send-port", "11001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send_port and receive_port")
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"124", int32(124)},
		{"-1", int32(-1)},
		{"0.5", float32(0.5)},
		{"true", true},
		{"False", false},
		{"Drums", "Drums"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseArg(tt.in))
		})
	}
}

func TestSend_FireAndForget(t *testing.T) {
	liveConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer liveConn.Close()
	livePort := liveConn.LocalAddr().(*net.UDPAddr).Port

	out, err := run(t, "send", "/live/song/set/tempo", "124",
		"--send-port", strconv.Itoa(livePort), "--receive-port", strconv.Itoa(freePort(t)))
	require.NoError(t, err)
	assert.Contains(t, out, "sent /live/song/set/tempo 124")

	require.NoError(t, liveConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := liveConn.ReadFrom(buf)
	require.NoError(t, err)
	msgs, err := osc.Decode(buf[:n])
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "/live/song/set/tempo", msgs[0].Address)
	assert.Equal(t, []any{int32(124)}, msgs[0].Args)
}

func TestSend_InvalidAddress(t *testing.T) {
	_, err := run(t, "send", "song/tempo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid OSC address")
}

func TestHistory(t *testing.T) {
	dir := t.TempDir()
	store, err := journal.New(journal.Config{DataDir: dir, MaxEntries: 10})
	require.NoError(t, err)
	_, err = store.Record(correlator.Exchange{
		Request:   "/live/song/get/tempo",
		Reply:     "/live/song/get/tempo",
		ReplyArgs: []any{float32(120)},
		Outcome:   correlator.OutcomeReplied,
		Latency:   3 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	path := writeConfig(t, "data_dir: "+dir+"\n")

	out, err := run(t, "history", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "replied")
	assert.Contains(t, out, "/live/song/get/tempo [] -> [120]")

	out, err = run(t, "history", "--config", path, "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_exchanges": 1`)
}

func TestHistory_Disabled(t *testing.T) {
	path := writeConfig(t, "disable_journal: true\n")
	_, err := run(t, "history", "--config", path)
	require.Error(t, err)
}
