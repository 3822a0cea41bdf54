// Package journal keeps a bounded log of committed attribute changes in
// SQLite.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/objtree/internal/object"
)

// Entry is one recorded change.
type Entry struct {
	Seq  int64
	Time time.Time
	Path string
	Old  string
	New  string
}

// Journal appends changes and trims the log to the newest retain rows.
type Journal struct {
	db     *sql.DB
	retain int
}

// Open creates or reuses the journal database at path. retain <= 0
// keeps every row.
func Open(path string, retain int) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// a single connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on journal db: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS changes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at INTEGER NOT NULL,
			path TEXT NOT NULL,
			old TEXT NOT NULL,
			new TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS changes_path ON changes(path);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal tables: %w", err)
	}
	return &Journal{db: db, retain: retain}, nil
}

// Record appends one change.
func (j *Journal) Record(c object.Change) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin journal write: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if _, err := tx.Exec("INSERT INTO changes (at, path, old, new) VALUES (?, ?, ?, ?)",
		time.Now().UnixNano(), c.Path, c.Old, c.New); err != nil {
		return fmt.Errorf("insert change %s: %w", c.Path, err)
	}
	if j.retain > 0 {
		if _, err := tx.Exec(`DELETE FROM changes WHERE seq <= (SELECT MAX(seq) FROM changes) - ?`, j.retain); err != nil {
			return fmt.Errorf("trim journal: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns up to n entries, newest first. A non-empty prefix limits
// the result to paths starting with it.
func (j *Journal) Recent(n int, prefix string) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT seq, at, path, old, new FROM changes
		WHERE path LIKE ? ESCAPE '\'
		ORDER BY seq DESC LIMIT ?`, likePrefix(prefix), n)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.Seq, &at, &e.Path, &e.Old, &e.New); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.Time = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error { return j.db.Close() }

func likePrefix(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%', '_', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, prefix[i])
	}
	return string(escaped) + "%"
}
