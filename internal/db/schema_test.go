package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrospect(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	for _, stmt := range []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL, total REAL)",
		"CREATE VIEW big_orders AS SELECT id, total FROM orders WHERE total > 100",
		"INSERT INTO users (name) VALUES ('ada'), ('grace')",
		"INSERT INTO orders (user_id, total) VALUES (1, 50), (1, 150), (2, 200)",
	} {
		_, err := c.Exec(ctx, stmt, Limits{})
		require.NoError(t, err)
	}

	schema, err := c.Introspect(ctx)
	require.NoError(t, err)
	require.Len(t, schema.Tables, 3)

	// sqlite_master listing is ordered by name.
	assert.Equal(t, "big_orders", schema.Tables[0].Name)
	assert.Equal(t, "view", schema.Tables[0].Kind)
	assert.EqualValues(t, -1, schema.Tables[0].RowCount)

	orders := schema.Tables[1]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, "table", orders.Kind)
	assert.EqualValues(t, 3, orders.RowCount)
	require.Len(t, orders.Columns, 3)
	assert.True(t, orders.Columns[0].PK)
	assert.True(t, orders.Columns[1].NotNull)
	assert.Equal(t, "REAL", orders.Columns[2].Type)

	users := schema.Tables[2]
	assert.EqualValues(t, 2, users.RowCount)
	assert.Equal(t, "name", users.Columns[1].Name)
}

func TestIntrospect_Empty(t *testing.T) {
	c := openTemp(t)

	schema, err := c.Introspect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, schema.Tables)
	assert.Equal(t, "", schema.DDL())
}

func TestIntrospect_QuotedName(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	_, err := c.Exec(ctx, `CREATE TABLE "odd name" (a INTEGER)`, Limits{})
	require.NoError(t, err)
	_, err = c.Exec(ctx, `INSERT INTO "odd name" VALUES (1)`, Limits{})
	require.NoError(t, err)

	schema, err := c.Introspect(ctx)
	require.NoError(t, err)
	require.Len(t, schema.Tables, 1)
	assert.Equal(t, "odd name", schema.Tables[0].Name)
	assert.EqualValues(t, 1, schema.Tables[0].RowCount)
}

func TestSchema_DDL(t *testing.T) {
	s := &Schema{Tables: []Table{
		{
			Name: "users", Kind: "table", RowCount: 42,
			Columns: []Column{
				{Name: "id", Type: "INTEGER", PK: true},
				{Name: "name", Type: "TEXT", NotNull: true},
				{Name: "email", Type: "TEXT"},
			},
		},
		{
			Name: "big_orders", Kind: "view", RowCount: -1,
			Columns: []Column{{Name: "id"}, {Name: "total"}},
		},
	}}

	want := "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT); -- 42 rows\n" +
		"CREATE VIEW big_orders (id, total);\n"
	assert.Equal(t, want, s.DDL())
}
