package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig ---

func TestDefaultConfig_MatchesAbletonOSC(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 11000, cfg.SendPort)
	assert.Equal(t, 11001, cfg.ReceivePort)
	assert.Equal(t, 2*time.Second, cfg.ReplyTimeout.Duration)
	assert.Equal(t, "/live/*", cfg.ReplyPattern)
	assert.Equal(t, ".ableton-mcp", filepath.Base(cfg.DataDir))
	assert.Equal(t, 32, cfg.NoteBatchSize)
	assert.Equal(t, 200.0, cfg.SendRate)
	assert.Equal(t, 5000, cfg.JournalMaxEntries)
	assert.NoError(t, cfg.Validate(), "defaults should validate")
}

// --- Load ---

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 11000, cfg.SendPort)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
host: 192.168.1.20
send_port: 12000
reply_timeout: 500ms
shutdown_timeout: 250
note_batch_size: 8
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", cfg.Host)
	assert.Equal(t, 12000, cfg.SendPort)
	assert.Equal(t, 11001, cfg.ReceivePort, "default kept")
	assert.Equal(t, 500*time.Millisecond, cfg.ReplyTimeout.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout.Duration, "bare numbers are milliseconds")
	assert.Equal(t, 8, cfg.NoteBatchSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, "config.yaml", "send_prot: 12000\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeFile(t, "config.yaml", "reply_timeout: soon\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvBeatsYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "send_port: 12000\nhost: 10.0.0.1\n")
	t.Setenv("ABLETON_MCP_SEND_PORT", "13000")
	t.Setenv("ABLETON_MCP_REPLY_TIMEOUT", "750ms")
	t.Setenv("ABLETON_MCP_DISABLE_JOURNAL", "true")
	t.Setenv("ABLETON_MCP_SEND_RATE", "50")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 13000, cfg.SendPort, "env beats YAML")
	assert.Equal(t, "10.0.0.1", cfg.Host, "YAML kept when env is unset")
	assert.Equal(t, 750*time.Millisecond, cfg.ReplyTimeout.Duration)
	assert.True(t, cfg.DisableJournal)
	assert.Equal(t, 50.0, cfg.SendRate)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("ABLETON_MCP_RECEIVE_PORT", "eleven")
	t.Setenv("ABLETON_MCP_LOG_DEV", "maybe")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ABLETON_MCP_RECEIVE_PORT")
	assert.Contains(t, err.Error(), "ABLETON_MCP_LOG_DEV")
}

// --- LoadDotEnv ---

func TestLoadDotEnv_FirstFoundWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "missing.env")
	second := filepath.Join(dir, "present.env")
	require.NoError(t, os.WriteFile(second, []byte("ABLETON_MCP_HOST=10.1.1.1\n"), 0600))
	t.Setenv("ABLETON_MCP_HOST", "")
	require.NoError(t, os.Unsetenv("ABLETON_MCP_HOST"))

	assert.Equal(t, second, LoadDotEnv(first, second))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", cfg.Host, "value from .env")
}

func TestLoadDotEnv_None(t *testing.T) {
	assert.Empty(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

// --- Validate ---

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SendPort = 0
	cfg.ReceivePort = 0
	cfg.ReplyTimeout = Duration{}
	cfg.ReplyPattern = "live"
	cfg.NoteBatchSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"send_port", "receive_port", "both 0", "reply_timeout", "reply_pattern", "note_batch_size"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_DataDirOnlyNeededWithJournal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = ""
	assert.Error(t, cfg.Validate(), "expected data_dir error")
	cfg.DisableJournal = true
	assert.NoError(t, cfg.Validate())
}

// --- Mapping ---

func TestMappings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SendPort = 9000
	cfg.ReplyTimeout = Duration{3 * time.Second}
	cfg.DataDir = "~/music/journal"
	cfg.NoteBatchSize = 16

	cc := cfg.Correlator()
	assert.Equal(t, 9000, cc.SendPort)
	assert.Equal(t, 3*time.Second, cc.ReplyTimeout)
	assert.Equal(t, "/live/*", cc.ReplyPattern)

	jc := cfg.Journal()
	assert.NotEqual(t, byte('~'), jc.DataDir[0], "journal dir not expanded")
	assert.Equal(t, filepath.Join("music", "journal"), filepath.Join(filepath.Base(filepath.Dir(jc.DataDir)), filepath.Base(jc.DataDir)))

	lo := cfg.Live()
	assert.Equal(t, 3*time.Second, lo.Timeout)
	assert.Equal(t, 16, lo.NoteBatchSize)
	assert.Equal(t, 200.0, lo.SendRate)
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "reply_timeout: 2s", "durations marshal as strings")

	path := writeFile(t, "config.yaml", string(data))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back, "round trip changed config")
}
