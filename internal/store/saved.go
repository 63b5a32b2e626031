package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a named query does not exist.
var ErrNotFound = errors.New("not found")

// SavedQuery is a statement kept under a short name for /run.
type SavedQuery struct {
	Name      string
	Statement string
	CreatedAt time.Time
}

// SaveQuery stores the statement under name, replacing any previous
// statement with that name.
func (s *Store) SaveQuery(name, statement string) error {
	_, err := s.db.Exec(
		`INSERT INTO saved_queries (name, statement, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET statement = excluded.statement`,
		name, statement, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save query %q: %w", name, err)
	}
	return nil
}

// GetQuery looks up a saved query by name.
func (s *Store) GetQuery(name string) (SavedQuery, error) {
	var (
		q         SavedQuery
		createdAt string
	)
	err := s.db.QueryRow(
		`SELECT name, statement, created_at FROM saved_queries WHERE name = ?`, name,
	).Scan(&q.Name, &q.Statement, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuery{}, fmt.Errorf("saved query %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return SavedQuery{}, fmt.Errorf("get query %q: %w", name, err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		q.CreatedAt = ts
	}
	return q, nil
}

// ListQueries returns every saved query, alphabetically.
func (s *Store) ListQueries() ([]SavedQuery, error) {
	rows, err := s.db.Query(`SELECT name, statement, created_at FROM saved_queries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	var out []SavedQuery
	for rows.Next() {
		var (
			q         SavedQuery
			createdAt string
		)
		if err := rows.Scan(&q.Name, &q.Statement, &createdAt); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			q.CreatedAt = ts
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return out, nil
}

// DeleteQuery removes a saved query by name.
func (s *Store) DeleteQuery(name string) error {
	res, err := s.db.Exec(`DELETE FROM saved_queries WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete query %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("saved query %q: %w", name, ErrNotFound)
	}
	return nil
}
