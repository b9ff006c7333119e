// Package history keeps a local journal of committed compositions: what was
// typed, what it was rendered as and when.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS commits (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id    TEXT NOT NULL,
    input         TEXT NOT NULL,
    output        TEXT NOT NULL,
    timestamp_ns  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commits_timestamp ON commits(timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_commits_output ON commits(output);
`

// Entry is one committed composition.
type Entry struct {
	ID      int64
	Session uuid.UUID
	Input   string
	Output  string
	At      time.Time
}

// WordCount is an output and how often it was committed.
type WordCount struct {
	Output string
	Input  string
	Count  int
}

// Journal is a SQLite-backed commit log.
type Journal struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// OnCommit records a committed composition.
func (j *Journal) OnCommit(session uuid.UUID, input, output string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO commits (session_id, input, output, timestamp_ns) VALUES (?, ?, ?, ?)`,
		session.String(), input, output, j.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert commit: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, session_id, input, output, timestamp_ns
		FROM commits
		ORDER BY timestamp_ns DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			session string
			ts      int64
		)
		if err := rows.Scan(&e.ID, &session, &e.Input, &e.Output, &ts); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		e.Session, err = uuid.Parse(session)
		if err != nil {
			return nil, fmt.Errorf("commit %d: bad session id: %w", e.ID, err)
		}
		e.At = time.Unix(0, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Top returns the most frequently committed outputs.
func (j *Journal) Top(limit int) ([]WordCount, error) {
	rows, err := j.db.Query(`
		SELECT output, MIN(input), COUNT(*) AS n
		FROM commits
		GROUP BY output
		ORDER BY n DESC, output ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top commits: %w", err)
	}
	defer rows.Close()

	var counts []WordCount
	for rows.Next() {
		var w WordCount
		if err := rows.Scan(&w.Output, &w.Input, &w.Count); err != nil {
			return nil, fmt.Errorf("scan top commit: %w", err)
		}
		counts = append(counts, w)
	}
	return counts, rows.Err()
}

// Count returns the number of entries.
func (j *Journal) Count() (int, error) {
	var n int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM commits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return n, nil
}

// Prune deletes entries older than cutoff and returns how many went.
func (j *Journal) Prune(cutoff time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(`DELETE FROM commits WHERE timestamp_ns < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune commits: %w", err)
	}
	return res.RowsAffected()
}
