// Package config loads the server configuration.
//
// Sources are layered, later wins: built-in defaults, a YAML file, a .env
// file, ABLETON_MCP_* environment variables, and finally CLI flags (applied
// by the caller).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"

	"github.com/HendryAvila/ableton-mcp/internal/correlator"
	"github.com/HendryAvila/ableton-mcp/internal/dispatch"
	"github.com/HendryAvila/ableton-mcp/internal/journal"
	"github.com/HendryAvila/ableton-mcp/internal/live"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ABLETON_MCP_"

// Duration is a time.Duration that reads "2s" style strings from YAML.
// Bare numbers are taken as milliseconds.
type Duration struct {
	time.Duration
}

// UnmarshalJSON implements json.Unmarshaler; sigs.k8s.io/yaml goes
// through JSON.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		d.Duration = v
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\" or milliseconds: %s", b)
	}
	d.Duration = time.Duration(ms * float64(time.Millisecond))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Config is the full server configuration.
type Config struct {
	Host        string `json:"host"`
	SendPort    int    `json:"send_port"`
	ReceivePort int    `json:"receive_port"`

	ReplyTimeout    Duration `json:"reply_timeout"`
	ShutdownTimeout Duration `json:"shutdown_timeout"`
	ReplyPattern    string   `json:"reply_pattern"`

	DataDir           string `json:"data_dir"`
	JournalMaxEntries int    `json:"journal_max_entries"`
	DisableJournal    bool   `json:"disable_journal"`

	NoteBatchSize int     `json:"note_batch_size"`
	SendRate      float64 `json:"send_rate"`

	LogLevel string `json:"log_level"`
	LogDev   bool   `json:"log_dev"`
}

// DefaultConfig matches the AbletonOSC remote script's defaults.
func DefaultConfig() Config {
	c := correlator.DefaultConfig()
	j := journal.DefaultConfig()
	l := live.DefaultOptions()
	return Config{
		Host:              c.Host,
		SendPort:          c.SendPort,
		ReceivePort:       c.ReceivePort,
		ReplyTimeout:      Duration{c.ReplyTimeout},
		ShutdownTimeout:   Duration{c.ShutdownTimeout},
		ReplyPattern:      c.ReplyPattern,
		DataDir:           j.DataDir,
		JournalMaxEntries: j.MaxEntries,
		NoteBatchSize:     l.NoteBatchSize,
		SendRate:          l.SendRate,
		LogLevel:          "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. Unknown YAML keys are an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads the first .env file found among paths into the
// process environment. Variables already set are left alone. It returns
// the file used, or "" if none was found.
func LoadDotEnv(paths ...string) string {
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			dst.Duration = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("HOST", &c.Host)
	num("SEND_PORT", &c.SendPort)
	num("RECEIVE_PORT", &c.ReceivePort)
	dur("REPLY_TIMEOUT", &c.ReplyTimeout)
	dur("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	str("REPLY_PATTERN", &c.ReplyPattern)
	str("DATA_DIR", &c.DataDir)
	num("JOURNAL_MAX_ENTRIES", &c.JournalMaxEntries)
	flag("DISABLE_JOURNAL", &c.DisableJournal)
	num("NOTE_BATCH_SIZE", &c.NoteBatchSize)
	str("LOG_LEVEL", &c.LogLevel)
	flag("LOG_DEV", &c.LogDev)
	if v, ok := lookup(EnvPrefix + "SEND_RATE"); ok {
		r, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEND_RATE: %w", EnvPrefix, err))
		} else {
			c.SendRate = r
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("host is empty"))
	}
	for name, p := range map[string]int{"send_port": c.SendPort, "receive_port": c.ReceivePort} {
		if p < 1 || p > 65535 {
			errs = append(errs, fmt.Errorf("%s %d not in 1-65535", name, p))
		}
	}
	if c.SendPort == c.ReceivePort {
		errs = append(errs, fmt.Errorf("send_port and receive_port are both %d", c.SendPort))
	}
	if c.ReplyTimeout.Duration <= 0 {
		errs = append(errs, errors.New("reply_timeout must be positive"))
	}
	if c.ShutdownTimeout.Duration <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if err := dispatch.ValidatePattern(c.ReplyPattern); err != nil {
		errs = append(errs, fmt.Errorf("reply_pattern: %w", err))
	}
	if !c.DisableJournal && strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir is empty"))
	}
	if c.JournalMaxEntries < 1 {
		errs = append(errs, errors.New("journal_max_entries must be at least 1"))
	}
	if c.NoteBatchSize < 1 {
		errs = append(errs, errors.New("note_batch_size must be at least 1"))
	}
	if c.SendRate < 0 {
		errs = append(errs, errors.New("send_rate must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Correlator maps c onto the correlator's settings.
func (c Config) Correlator() correlator.Config {
	return correlator.Config{
		Host:            c.Host,
		SendPort:        c.SendPort,
		ReceivePort:     c.ReceivePort,
		ReplyPattern:    c.ReplyPattern,
		ReplyTimeout:    c.ReplyTimeout.Duration,
		ShutdownTimeout: c.ShutdownTimeout.Duration,
	}
}

// Journal maps c onto the journal's settings.
func (c Config) Journal() journal.Config {
	return journal.Config{
		DataDir:    expandHome(c.DataDir),
		MaxEntries: c.JournalMaxEntries,
	}
}

// Live maps c onto the session options.
func (c Config) Live() live.Options {
	opts := live.DefaultOptions()
	opts.Timeout = c.ReplyTimeout.Duration
	opts.NoteBatchSize = c.NoteBatchSize
	opts.SendRate = c.SendRate
	return opts
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
