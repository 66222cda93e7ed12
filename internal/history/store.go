package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/pageforge/internal/db"
)

// timeLayout sorts lexically and keeps millisecond ordering between calls
// made within the same second.
const timeLayout = "2006-01-02 15:04:05.000"

// Store provides persistence for generation history.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts an entry. A missing ID or CreatedAt is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (
			id, created_at, mode, prompt, provider, model, status,
			duration_ms, input_tokens, output_tokens, output_bytes, cost_usd, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.CreatedAt.UTC().Format(timeLayout),
		string(e.Mode),
		e.Prompt,
		e.Provider,
		e.Model,
		string(e.Status),
		e.Duration.Milliseconds(),
		e.InputTokens,
		e.OutputTokens,
		e.OutputBytes,
		e.CostUSD,
		e.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting generation: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, created_at, mode, prompt, provider, model, status,
	duration_ms, input_tokens, output_tokens, output_bytes, cost_usd, error FROM generations`

// Get retrieves a single entry.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting generation %s: %w", id, err)
	}
	return e, nil
}

// Filter controls which entries Query returns. Zero values match everything.
type Filter struct {
	Mode   Mode
	Status Status
	Since  *time.Time
	Limit  int
	Offset int
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, string(filter.Mode))
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying generations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Stats aggregates all recorded entries.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mode, status, COUNT(*), COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost_usd), 0)
		FROM generations GROUP BY mode, status`)
	if err != nil {
		return nil, fmt.Errorf("aggregating generations: %w", err)
	}
	defer rows.Close()

	stats := &Stats{
		ByStatus: make(map[Status]int),
		ByMode:   make(map[Mode]int),
	}
	for rows.Next() {
		var (
			mode, status   string
			count, in, out int
			cost           float64
		)
		if err := rows.Scan(&mode, &status, &count, &in, &out, &cost); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByMode[Mode(mode)] += count
		stats.ByStatus[Status(status)] += count
		stats.InputTokens += in
		stats.OutputTokens += out
		stats.CostUSD += cost
	}
	return stats, rows.Err()
}

// DeleteBefore removes entries older than the given time and returns how
// many were deleted.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM generations WHERE created_at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old generations: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e            Entry
		created      string
		mode, status string
		durationMS   int64
	)

	err := sc.Scan(
		&e.ID, &created, &mode, &e.Prompt, &e.Provider, &e.Model, &status,
		&durationMS, &e.InputTokens, &e.OutputTokens, &e.OutputBytes, &e.CostUSD, &e.Error,
	)
	if err != nil {
		return nil, err
	}

	e.Mode = Mode(mode)
	e.Status = Status(status)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	e.CreatedAt = parseTimestamp(created)
	return &e, nil
}

// parseTimestamp accepts the stored layout as well as the RFC 3339 form the
// driver produces when it hands back a DATETIME column as time.Time.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timeLayout, time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
