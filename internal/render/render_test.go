package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pondside/parley/internal/db"
)

func TestTable_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name string
		res  *db.Result
	}{
		{
			name: "users",
			res: &db.Result{
				Columns: []string{"id", "name", "email"},
				Rows: [][]string{
					{"1", "Alice", "alice@example.com"},
					{"2", "Bob", "bob@example.com"},
				},
				RowCount: 2,
				Elapsed:  3 * time.Millisecond,
			},
		},
		{
			name: "truncated",
			res: &db.Result{
				Columns:   []string{"n"},
				Rows:      [][]string{{"1"}, {"2"}, {"3"}},
				RowCount:  3,
				Truncated: true,
				Elapsed:   1230 * time.Millisecond,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(Table(tt.res, 0)))
		})
	}
}

func TestTable_FitsWidth(t *testing.T) {
	res := &db.Result{
		Columns: []string{"id", "description"},
		Rows: [][]string{
			{"1", "a very long description that would overflow a narrow pane"},
		},
		RowCount: 1,
		Elapsed:  time.Millisecond,
	}

	const width = 24
	out := Table(res, width)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), width, "line %q", line)
	}
	assert.Contains(t, out, "…", "clipped cells should end in an ellipsis")
}

func TestTable_CapsWideColumns(t *testing.T) {
	res := &db.Result{
		Columns:  []string{"blob"},
		Rows:     [][]string{{strings.Repeat("x", 200)}},
		RowCount: 1,
	}

	out := Table(res, 0)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), maxColumnWidth)
	}
}

func TestFooter(t *testing.T) {
	tests := []struct {
		name string
		res  *db.Result
		want string
	}{
		{
			name: "single row",
			res:  &db.Result{Columns: []string{"n"}, RowCount: 1, Elapsed: 2 * time.Millisecond},
			want: "1 row in 2ms",
		},
		{
			name: "rows affected",
			res:  &db.Result{RowsAffected: 4, Elapsed: 12 * time.Millisecond},
			want: "4 rows affected in 12ms",
		},
		{
			name: "one row affected",
			res:  &db.Result{RowsAffected: 1, Elapsed: 2 * time.Millisecond},
			want: "1 row affected in 2ms",
		},
		{
			name: "slow query rounds coarser",
			res:  &db.Result{Columns: []string{"n"}, RowCount: 10, Elapsed: 2347 * time.Millisecond},
			want: "10 rows in 2.35s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Footer(tt.res))
		})
	}
}

func TestCSV(t *testing.T) {
	res := &db.Result{
		Columns: []string{"id", "note"},
		Rows: [][]string{
			{"1", "plain"},
			{"2", `says "hi", twice`},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, CSV(res, &buf))
	assert.Equal(t, "id,note\n1,plain\n2,\"says \"\"hi\"\", twice\"\n", buf.String())
}

func TestCSV_NoColumns(t *testing.T) {
	var buf bytes.Buffer
	err := CSV(&db.Result{RowsAffected: 1}, &buf)
	require.Error(t, err)
}

func TestTSV(t *testing.T) {
	res := &db.Result{
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"1", "Alice"}},
	}
	assert.Equal(t, "id\tname\n1\tAlice\n", TSV(res))
}
