package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry statuses.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Entry is one finished request as it lands in history.
type Entry struct {
	ID        string
	Input     string
	Type      string
	Statement string
	Status    string
	Error     string
	Rows      int
	Duration  time.Duration
	StartedAt time.Time
}

// Append records a finished request. A missing ID gets a fresh uuid.
func (s *Store) Append(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO history (id, input, request_type, statement, status, error, row_count, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Input, e.Type, e.Statement, e.Status, e.Error, e.Rows,
		e.Duration.Milliseconds(), e.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryEntries(
		`SELECT id, input, request_type, statement, status, error, row_count, duration_ms, started_at
		 FROM history ORDER BY started_at DESC LIMIT ?`, limit)
}

// Search returns entries whose input or statement contains term,
// newest first.
func (s *Store) Search(term string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + term + "%"
	return s.queryEntries(
		`SELECT id, input, request_type, statement, status, error, row_count, duration_ms, started_at
		 FROM history
		 WHERE input LIKE ? OR statement LIKE ?
		 ORDER BY started_at DESC LIMIT ?`, pattern, pattern, limit)
}

// Prune deletes all but the newest keep entries. Called at startup so
// history honors the configured limit without a write-path check.
func (s *Store) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.Exec(
		`DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY started_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (s *Store) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
			startedAt  string
		)
		if err := rows.Scan(&e.ID, &e.Input, &e.Type, &e.Statement, &e.Status, &e.Error, &e.Rows, &durationMS, &startedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			e.StartedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}
