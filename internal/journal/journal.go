// Package journal persists store events to SQLite so past requests can be
// listed after the process exits. Store state itself is not persisted.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/sndeals/internal/store"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// FileName is the database file created in the data directory.
const FileName = "journal.db"

// Journal errors.
var (
	ErrDetached        = errors.New("journal is not attached")
	ErrAlreadyAttached = errors.New("journal is already attached")
)

// Entry is one recorded event.
type Entry struct {
	ID         string     `json:"id"`
	Kind       types.Kind `json:"kind"`
	Type       string     `json:"type"`
	Generation uint64     `json:"generation"`
	Error      string     `json:"error,omitempty"`
	RecordedAt time.Time  `json:"recordedAt"`
}

// Query selects entries for Recent. Zero Kind matches every kind; a
// non-positive Limit returns everything.
type Query struct {
	Kind  types.Kind
	Limit int
}

// Journal records events in a SQLite database. It implements store.Handler
// so it can be registered on the event bus next to the containers.
type Journal struct {
	mu       sync.RWMutex
	attached bool
	db       *sql.DB
	now      func() time.Time
	log      logr.Logger
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger used to report write failures from Handle.
func WithLogger(log logr.Logger) Option {
	return func(j *Journal) { j.log = log }
}

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// New returns a detached journal. Call Attach before recording.
func New(opts ...Option) *Journal {
	j := &Journal{now: time.Now, log: logr.Discard()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Attach opens or creates the journal database in dataDir.
func (j *Journal) Attach(dataDir string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.attached {
		return ErrAlreadyAttached
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, FileName))
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("apply journal schema: %w", err)
	}

	j.db = db
	j.attached = true
	return nil
}

// Detach closes the database. It is idempotent.
func (j *Journal) Detach() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.attached {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	j.attached = false
	return err
}

// Record stores ev.
func (j *Journal) Record(ctx context.Context, ev store.Event) error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.attached {
		return ErrDetached
	}

	var gen uint64
	if g, ok := ev.(store.Generational); ok {
		gen = g.Generation()
	}
	var errText sql.NullString
	if f, ok := ev.(store.Failure); ok && f.Failure() != nil {
		errText = sql.NullString{String: f.Failure().Error(), Valid: true}
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO events (entry_id, kind, event_type, generation, error, recorded_at) VALUES (?, ?, ?, ?, ?, ?)",
		newID(), string(ev.Kind()), ev.Type(), int64(gen), errText, j.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", ev.Type(), err)
	}
	return nil
}

// Handle records ev and logs, rather than returns, any failure.
func (j *Journal) Handle(ev store.Event) {
	if err := j.Record(context.Background(), ev); err != nil {
		j.log.Error(err, "journal write failed", "event", ev.Type())
	}
}

// Recent returns entries newest first.
func (j *Journal) Recent(ctx context.Context, q Query) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.attached {
		return nil, ErrDetached
	}

	stmt := "SELECT entry_id, kind, event_type, generation, error, recorded_at FROM events"
	var args []any
	if q.Kind != "" {
		stmt += " WHERE kind = ?"
		args = append(args, string(q.Kind))
	}
	stmt += " ORDER BY recorded_at DESC, entry_id DESC"
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := j.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e          Entry
		kind       string
		gen        int64
		errText    sql.NullString
		recordedAt int64
	)
	if err := rows.Scan(&e.ID, &kind, &e.Type, &gen, &errText, &recordedAt); err != nil {
		return Entry{}, fmt.Errorf("scan journal entry: %w", err)
	}
	e.Kind = types.Kind(kind)
	e.Generation = uint64(gen)
	e.Error = errText.String
	e.RecordedAt = time.Unix(0, recordedAt).UTC()
	return e, nil
}

// newID returns a UUID v7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
