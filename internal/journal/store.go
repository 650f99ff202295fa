// Package journal records request/reply exchanges with Live in SQLite.
//
// Every SendAndWait outcome lands here through the correlator's Observer
// hook. The journal answers "what did we ask, what came back, how long did
// it take", and which addresses the remote script never answers.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/ableton-mcp/internal/correlator"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// Entry is one recorded exchange.
type Entry struct {
	ID        int64   `json:"id"`
	Token     string  `json:"token"`
	Request   string  `json:"request"`
	Reply     string  `json:"reply"`
	Args      string  `json:"args"`
	ReplyArgs string  `json:"reply_args,omitempty"`
	Outcome   string  `json:"outcome"`
	LatencyMS float64 `json:"latency_ms"`
	CreatedAt string  `json:"created_at"`
}

// AddressStats aggregates the exchanges waiting on one reply address.
type AddressStats struct {
	Address      string  `json:"address"`
	Total        int     `json:"total"`
	Replied      int     `json:"replied"`
	Timeouts     int     `json:"timeouts"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// Stats holds journal-wide aggregates.
type Stats struct {
	TotalExchanges int            `json:"total_exchanges"`
	Addresses      []AddressStats `json:"addresses"`
	// NeverAnswered lists reply addresses that timed out and never replied.
	NeverAnswered []string `json:"never_answered"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds journal configuration.
type Config struct {
	DataDir    string
	MaxEntries int
	// PruneEvery is how many inserts pass between prunes. Zero means a
	// tenth of MaxEntries. The table may hold up to MaxEntries+PruneEvery-1
	// rows between prunes.
	PruneEvery int
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:    filepath.Join(home, ".ableton-mcp"),
		MaxEntries: 5000,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the exchange journal backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	if cfg.PruneEvery <= 0 {
		cfg.PruneEvery = max(1, cfg.MaxEntries/10)
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "journal.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return filepath.Join(s.cfg.DataDir, "journal.db")
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS exchanges (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			token      TEXT    NOT NULL,
			request    TEXT    NOT NULL,
			reply      TEXT    NOT NULL,
			args       TEXT    NOT NULL DEFAULT '[]',
			reply_args TEXT,
			outcome    TEXT    NOT NULL,
			latency_ms REAL    NOT NULL DEFAULT 0,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_exchanges_reply   ON exchanges(reply);
		CREATE INDEX IF NOT EXISTS idx_exchanges_outcome ON exchanges(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Record stores one exchange. Every PruneEvery-th row id also prunes the
// journal back to MaxEntries.
func (s *Store) Record(ex correlator.Exchange) (int64, error) {
	args, err := encodeArgs(ex.Args)
	if err != nil {
		return 0, fmt.Errorf("journal: encode args: %w", err)
	}
	var replyArgs *string
	if ex.Outcome == correlator.OutcomeReplied {
		v, err := encodeArgs(ex.ReplyArgs)
		if err != nil {
			return 0, fmt.Errorf("journal: encode reply args: %w", err)
		}
		replyArgs = &v
	}
	at := ex.At
	if at.IsZero() {
		at = time.Now()
	}

	res, err := s.db.Exec(
		`INSERT INTO exchanges (token, request, reply, args, reply_args, outcome, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.Token.String(), ex.Request, ex.Reply, args, replyArgs, string(ex.Outcome),
		float64(ex.Latency)/float64(time.Millisecond), formatTime(at),
	)
	if err != nil {
		return 0, fmt.Errorf("journal: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: insert id: %w", err)
	}
	if id%int64(s.cfg.PruneEvery) != 0 {
		return id, nil
	}
	if _, err := s.Prune(); err != nil {
		return id, err
	}
	return id, nil
}

// Prune deletes all but the newest MaxEntries exchanges and reports how
// many rows were removed.
func (s *Store) Prune() (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM exchanges WHERE id NOT IN (
			SELECT id FROM exchanges ORDER BY id DESC LIMIT ?
		)`, s.cfg.MaxEntries)
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	return res.RowsAffected()
}

// Observer returns a correlator.Observer that records every exchange.
// Write failures are logged, never returned to the caller.
func (s *Store) Observer(logger *zap.Logger) correlator.Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("journal")
	return correlator.ObserverFunc(func(ex correlator.Exchange) {
		if _, err := s.Record(ex); err != nil {
			logger.Warn("failed to record exchange",
				zap.String("request", ex.Request),
				zap.Error(err),
			)
		}
	})
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// Recent returns up to limit exchanges, newest first. A non-empty address
// filters on the reply address.
func (s *Store) Recent(limit int, address string) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, token, request, reply, args, reply_args, outcome, latency_ms, created_at
		FROM exchanges`
	args := []any{}
	if address != "" {
		query += " WHERE reply = ?"
		args = append(args, address)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var replyArgs sql.NullString
		if err := rows.Scan(&e.ID, &e.Token, &e.Request, &e.Reply, &e.Args, &replyArgs,
			&e.Outcome, &e.LatencyMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.ReplyArgs = replyArgs.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates the journal per reply address, busiest first.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{Addresses: []AddressStats{}, NeverAnswered: []string{}}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM exchanges").Scan(&stats.TotalExchanges); err != nil {
		return nil, fmt.Errorf("journal: count: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT reply,
		       COUNT(*),
		       SUM(CASE WHEN outcome = 'replied' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN outcome = 'timeout' THEN 1 ELSE 0 END),
		       COALESCE(AVG(CASE WHEN outcome = 'replied' THEN latency_ms END), 0)
		FROM exchanges
		GROUP BY reply
		ORDER BY COUNT(*) DESC, reply`)
	if err != nil {
		return nil, fmt.Errorf("journal: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var a AddressStats
		if err := rows.Scan(&a.Address, &a.Total, &a.Replied, &a.Timeouts, &a.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		stats.Addresses = append(stats.Addresses, a)
		if a.Replied == 0 && a.Timeouts > 0 {
			stats.NeverAnswered = append(stats.NeverAnswered, a.Address)
		}
	}
	return stats, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func encodeArgs(args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
