package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// ─── Types ───────────────────────────────────────────────────────────────────

// Event is one persisted telemetry record.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Method     string         `json:"method,omitempty"`
	DurationMs int64          `json:"durationMs,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	CreatedAt  string         `json:"createdAt"`
}

// Config holds telemetry store configuration.
type Config struct {
	DataDir string
	// MaxEvents caps the table size; older rows are pruned on insert.
	// Zero keeps everything.
	MaxEvents int
}

// DefaultConfig returns the default configuration rooted at dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{DataDir: dataDir, MaxEvents: 10000}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is a Sink backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens (or creates) telemetry.db under cfg.DataDir and runs
// migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("telemetry: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "telemetry.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("telemetry: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("telemetry: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT    NOT NULL UNIQUE,
			name        TEXT    NOT NULL,
			method      TEXT,
			duration_ms INTEGER,
			fields      TEXT,
			created_at  TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Emit persists an event. The well-known "method" and "durationMs" fields
// are lifted into their own columns; everything is also kept as JSON.
func (s *Store) Emit(name string, fields map[string]any) error {
	method, _ := fields["method"].(string)
	var duration sql.NullInt64
	switch d := fields["durationMs"].(type) {
	case int64:
		duration = sql.NullInt64{Int64: d, Valid: true}
	case int:
		duration = sql.NullInt64{Int64: int64(d), Valid: true}
	case float64:
		duration = sql.NullInt64{Int64: int64(d), Valid: true}
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("telemetry: encode fields: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO events (id, name, method, duration_ms, fields, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), name, nullableString(method), duration, string(encoded),
		timeNow().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("telemetry: insert event: %w", err)
	}

	if s.cfg.MaxEvents > 0 {
		if _, err := s.db.Exec(
			`DELETE FROM events WHERE seq <= (SELECT MAX(seq) FROM events) - ?`, s.cfg.MaxEvents,
		); err != nil {
			return fmt.Errorf("telemetry: prune events: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, name, method, duration_ms, fields, created_at FROM events ORDER BY seq DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e        Event
			method   sql.NullString
			duration sql.NullInt64
			fields   sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &method, &duration, &fields, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("telemetry: scan event: %w", err)
		}
		e.Method = method.String
		e.DurationMs = duration.Int64
		if fields.Valid && fields.String != "" {
			_ = json.Unmarshal([]byte(fields.String), &e.Fields)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of stored events with the given name. An empty
// name counts everything.
func (s *Store) Count(name string) (int, error) {
	var n int
	var err error
	if name == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE name = ?`, name).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("telemetry: count events: %w", err)
	}
	return n, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
