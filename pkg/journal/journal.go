// Package journal persists isolation snapshots in SQLite so that a frame
// left isolated by an abrupt termination can be restored on the next start.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/mutate"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// Schema is applied on Open.
const Schema = `
CREATE TABLE IF NOT EXISTS isolation_journal (
	id         TEXT PRIMARY KEY,
	frame_id   TEXT NOT NULL,
	snapshot   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_isolation_journal_created ON isolation_journal(created_at);
`

// Store is the journal database handle. It implements mutate.Journal.
type Store struct {
	DB *sql.DB
}

var _ mutate.Journal = (*Store)(nil)

// Open opens (or creates) the journal database at path and applies the schema.
// Use ":memory:" for a throwaway journal.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("journal: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	// a single connection keeps :memory: databases shared and writes serialized
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: schema: %w", err)
	}

	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Record stores a snapshot and returns its entry id.
func (s *Store) Record(ctx context.Context, frameID string, state *mutate.State) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	id := uuid.NewString()
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO isolation_journal (id, frame_id, snapshot, created_at)
		VALUES (?, ?, ?, ?)`,
		id, frameID, string(data), time.Now().UnixMilli(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Clear removes an entry once its snapshot has been restored.
func (s *Store) Clear(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM isolation_journal WHERE id = ?`, id)
	return err
}

// Entry is a snapshot that was never cleared.
type Entry struct {
	ID        string
	FrameID   string
	State     *mutate.State
	CreatedAt time.Time
}

// Pending returns uncleared entries, oldest first.
func (s *Store) Pending(ctx context.Context) ([]Entry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, frame_id, snapshot, created_at
		FROM isolation_journal
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			raw     string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.FrameID, &raw, &created); err != nil {
			return nil, err
		}
		e.State = &mutate.State{}
		if err := json.Unmarshal([]byte(raw), e.State); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", e.ID, err)
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Recover reapplies every pending snapshot through host and clears it.
// Entries whose frame no longer exists are dropped. It returns the number
// of frames restored.
func (s *Store) Recover(ctx context.Context, host scene.Host) (int, error) {
	entries, err := s.Pending(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, e := range entries {
		frame, err := host.LookupNode(ctx, e.FrameID)
		switch {
		case errors.Is(err, scene.ErrNotFound):
		case err != nil:
			return restored, fmt.Errorf("recover %s: %w", e.FrameID, err)
		default:
			e.State.Restore(inspect.CollectSubtree(frame))
			restored++
		}
		if err := s.Clear(ctx, e.ID); err != nil {
			return restored, err
		}
	}
	return restored, nil
}
