package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// ErrReadOnly is returned when a write statement reaches a read-only
// connection. Checked before the driver sees the statement so the
// message stays ours.
var ErrReadOnly = errors.New("database is open read-only")

// Limits bound how much of a result set is materialized. Rows beyond
// MaxRows are never scanned; cells beyond MaxCellBytes are clipped at
// a rune boundary.
type Limits struct {
	MaxRows      int
	MaxCellBytes int
}

// DefaultLimits are sensible bounds for interactive use.
func DefaultLimits() Limits {
	return Limits{MaxRows: 500, MaxCellBytes: 256}
}

// Result is the outcome of one executed statement.
type Result struct {
	Statement string
	Kind      StatementKind
	Elapsed   time.Duration

	// Query results.
	Columns   []string
	Rows      [][]string
	RowCount  int
	Truncated bool

	// Non-query results.
	RowsAffected int64
	LastInsertID int64
}

// Exec runs one statement within the given bounds. Query statements
// stream their rows and observe ctx between every row, so a cancel
// lands mid-scan instead of after the full set. Everything else goes
// through the exec path and reports rows affected.
func (c *Conn) Exec(ctx context.Context, stmt string, lim Limits) (*Result, error) {
	kind := Classify(stmt)
	if c.readOnly && kind != KindQuery {
		return nil, ErrReadOnly
	}

	if lim.MaxRows <= 0 {
		lim.MaxRows = DefaultLimits().MaxRows
	}
	if lim.MaxCellBytes <= 0 {
		lim.MaxCellBytes = DefaultLimits().MaxCellBytes
	}

	start := time.Now()
	res := &Result{Statement: stmt, Kind: kind}

	if kind == KindQuery {
		if err := c.query(ctx, stmt, lim, res); err != nil {
			return nil, err
		}
	} else {
		out, err := c.db.ExecContext(ctx, stmt)
		if err != nil {
			return nil, fmt.Errorf("execute: %w", err)
		}
		// Drivers may not support both; either failing is fine.
		res.RowsAffected, _ = out.RowsAffected()
		res.LastInsertID, _ = out.LastInsertId()
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

func (c *Conn) query(ctx context.Context, stmt string, lim Limits, res *Result) error {
	rows, err := c.db.QueryContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read columns: %w", err)
	}
	res.Columns = cols

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if res.RowCount >= lim.MaxRows {
			res.Truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range raw {
			row[i] = formatValue(v, lim.MaxCellBytes)
		}
		res.Rows = append(res.Rows, row)
		res.RowCount++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	return nil
}

func formatValue(v any, maxBytes int) string {
	var s string
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		s = string(x)
	case string:
		s = x
	case int64:
		s = strconv.FormatInt(x, 10)
	case float64:
		s = strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	case time.Time:
		s = x.Format(time.RFC3339)
	default:
		s = fmt.Sprint(x)
	}
	return clipCell(s, maxBytes)
}

// clipCell cuts the cell at a rune boundary and marks the cut.
func clipCell(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
