// Package archive keeps a local journal of settled turns in SQLite,
// one row per turn. It is written best-effort; a journal failure never
// affects the conversation.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	at           TEXT NOT NULL,
	mode         TEXT NOT NULL,
	provider     TEXT NOT NULL,
	model        TEXT NOT NULL,
	participants INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL,
	ok           INTEGER NOT NULL
);`

// Turn is one journal row.
type Turn struct {
	At           time.Time
	Mode         string
	Provider     string
	Model        string
	Participants int
	Duration     time.Duration
	OK           bool
}

// Log is the turn journal.
type Log struct {
	db *sql.DB
}

func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening turn journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating turn journal schema: %w", err)
	}
	return &Log{db: db}, nil
}

func (l *Log) Record(t Turn) error {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	_, err := l.db.Exec(
		`INSERT INTO turns (at, mode, provider, model, participants, duration_ms, ok)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.At.UTC().Format(time.RFC3339), t.Mode, t.Provider, t.Model,
		t.Participants, t.Duration.Milliseconds(), boolToInt(t.OK),
	)
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}
	return nil
}

// Recent returns up to n turns, newest first.
func (l *Log) Recent(n int) ([]Turn, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := l.db.Query(
		`SELECT at, mode, provider, model, participants, duration_ms, ok
		 FROM turns ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		var at string
		var durMs int64
		var ok int
		if err := rows.Scan(&at, &t.Mode, &t.Provider, &t.Model, &t.Participants, &durMs, &ok); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.At, _ = time.Parse(time.RFC3339, at)
		t.Duration = time.Duration(durMs) * time.Millisecond
		t.OK = ok != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func (l *Log) Close() error {
	return l.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
