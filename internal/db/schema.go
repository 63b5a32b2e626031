package db

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Column describes one column of a table or view.
type Column struct {
	Name    string
	Type    string
	NotNull bool
	PK      bool
}

// Table describes one table or view.
type Table struct {
	Name     string
	Kind     string // "table" or "view"
	RowCount int64  // -1 when not counted
	Columns  []Column
}

// Schema is a point-in-time snapshot of the database structure.
type Schema struct {
	Tables []Table
}

const introspectConcurrency = 4

// Introspect reads all tables and views with their columns, plus row
// counts for tables. Per-table reads fan out and the first failure
// cancels the rest.
func (c *Conn) Introspect(ctx context.Context) (*Schema, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, type FROM sqlite_master
		 WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Kind); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table list: %w", err)
		}
		t.RowCount = -1
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("read table list: %w", err)
	}
	// The cursor must be released before the per-table queries run;
	// the pool has a single connection.
	rows.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(introspectConcurrency)
	for i := range tables {
		g.Go(func() error {
			t := &tables[i]
			cols, err := c.columnsFor(gctx, t.Name)
			if err != nil {
				return err
			}
			t.Columns = cols
			if t.Kind == "table" {
				n, err := c.countRows(gctx, t.Name)
				if err != nil {
					return err
				}
				t.RowCount = n
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Schema{Tables: tables}, nil
}

// columnsFor reads PRAGMA table_info, fully draining the cursor before
// returning so the connection is free for the next query.
func (c *Conn) columnsFor(ctx context.Context, table string) ([]Column, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			col     Column
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		col.NotNull = notNull != 0
		col.PK = pk != 0
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	return cols, nil
}

func (c *Conn) countRows(ctx context.Context, table string) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// DDL renders the schema as compact CREATE statements, one line per
// table. This is what the translation prompt sees.
func (s *Schema) DDL() string {
	var b strings.Builder
	for _, t := range s.Tables {
		if t.Kind == "view" {
			names := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				names[i] = c.Name
			}
			fmt.Fprintf(&b, "CREATE VIEW %s (%s);\n", t.Name, strings.Join(names, ", "))
			continue
		}
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = columnDDL(c)
		}
		fmt.Fprintf(&b, "CREATE TABLE %s (%s);", t.Name, strings.Join(cols, ", "))
		if t.RowCount >= 0 {
			fmt.Fprintf(&b, " -- %d rows", t.RowCount)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func columnDDL(c Column) string {
	parts := []string{c.Name}
	if c.Type != "" {
		parts = append(parts, c.Type)
	}
	if c.PK {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}
