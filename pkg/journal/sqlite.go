package journal

import (
	"context"
	"database/sql"
	"time"
)

// SQLiteStore persists events in SQLite. The caller supplies an already
// opened *sql.DB and is responsible for importing a driver (for example
// "modernc.org/sqlite") and for closing the database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS routing_events (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			machine TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT '',
			target TEXT NOT NULL DEFAULT '',
			task TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_routing_events_run_id ON routing_events(run_id, at);
	`)
	return err
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routing_events (id, run_id, machine, at, type, state, target, task, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.RunID,
		ev.Machine,
		at.UnixNano(),
		string(ev.Type),
		ev.State,
		ev.Target,
		ev.Task,
		ev.Detail,
	)
	return err
}

func (s *SQLiteStore) ListEvents(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, machine, at, type, state, target, task, detail
		FROM routing_events
		WHERE run_id = ?
		ORDER BY at ASC, id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev  Event
			atN int64
			typ string
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Machine, &atN, &typ, &ev.State, &ev.Target, &ev.Task, &ev.Detail); err != nil {
			return nil, err
		}
		ev.At = time.Unix(0, atN)
		ev.Type = EventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}
