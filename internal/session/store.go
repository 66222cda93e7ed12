package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/pageforge/internal/db"
)

// ErrNotFound is returned when a session ID is unknown.
var ErrNotFound = errors.New("session not found")

// Store persists sessions for a Controller.
type Store interface {
	SaveSession(ctx context.Context, snap Snapshot) error
	AppendMessage(ctx context.Context, sessionID string, seq int, m Message) error
}

const timeLayout = "2006-01-02 15:04:05.000"

// SQLStore keeps sessions and their transcripts in SQLite. Messages are
// only ever inserted, matching the append-only transcript.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a store backed by the given database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

// Record is a persisted session.
type Record struct {
	ID         string    `json:"id"`
	Project    string    `json:"project"`
	Mode       Mode      `json:"mode"`
	Markup     string    `json:"markup"`
	Diagram    string    `json:"diagram,omitempty"`
	Transcript []Message `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary is one row of the session list.
type Summary struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SQLStore) SaveSession(ctx context.Context, snap Snapshot) error {
	now := time.Now().UTC().Format(timeLayout)
	mode := snap.Mode
	if mode == "" {
		mode = ModePreview
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, project, markup, mode, diagram, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project = excluded.project,
			markup = excluded.markup,
			mode = excluded.mode,
			diagram = excluded.diagram,
			updated_at = excluded.updated_at`,
		snap.ID, snap.Project, snap.Markup, string(mode), snap.Diagram, now, now,
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", snap.ID, err)
	}
	return nil
}

func (s *SQLStore) AppendMessage(ctx context.Context, sessionID string, seq int, m Message) error {
	at := m.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_messages (session_id, seq, role, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, seq, string(m.Role), m.Text, at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("appending message %d to session %s: %w", seq, sessionID, err)
	}
	return nil
}

// Load reads a session and its full transcript.
func (s *SQLStore) Load(ctx context.Context, id string) (*Record, error) {
	var (
		rec                  Record
		mode                 string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project, markup, mode, diagram, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Project, &rec.Markup, &mode, &rec.Diagram, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	rec.Mode = Mode(mode)
	rec.CreatedAt = parseTimestamp(createdAt)
	rec.UpdatedAt = parseTimestamp(updatedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text, created_at FROM session_messages WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("loading transcript for %s: %w", id, err)
	}
	defer rows.Close()

	rec.Transcript = []Message{}
	for rows.Next() {
		var m Message
		var role, at string
		if err := rows.Scan(&role, &m.Text, &at); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = Role(role)
		m.At = parseTimestamp(at)
		rec.Transcript = append(rec.Transcript, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns the most recently updated sessions first. A limit of zero
// or less returns all of them.
func (s *SQLStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.project, s.updated_at,
			(SELECT COUNT(*) FROM session_messages m WHERE m.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC, s.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Project, &updatedAt, &sum.Messages); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.UpdatedAt = parseTimestamp(updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a session and its transcript.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore rebuilds an idle controller from a saved session. opts.ID and
// opts.Project are taken from the record; opts.Store defaults to s.
func (s *SQLStore) Restore(ctx context.Context, id string, backend Backend, opts Options) (*Controller, error) {
	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	opts.ID = rec.ID
	opts.Project = rec.Project
	if opts.Store == nil {
		opts.Store = s
	}

	c := New(backend, opts)
	c.markup = rec.Markup
	c.stable = rec.Markup
	c.diagram = rec.Diagram
	c.transcript = rec.Transcript
	c.saved = len(rec.Transcript)
	if m, err := ParseMode(string(rec.Mode)); err == nil {
		c.mode = m
	}
	return c, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timeLayout, time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
