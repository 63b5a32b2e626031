package llm

import (
	"errors"
	"testing"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "sql_fence",
			input: "Here is the query:\n\n```sql\nSELECT name, age FROM users ORDER BY age;\n```\n\nThis lists every user by age.",
			want:  "SELECT name, age FROM users ORDER BY age",
		},
		{
			name:  "sqlite_fence",
			input: "```sqlite\nSELECT COUNT(*) FROM orders\n```",
			want:  "SELECT COUNT(*) FROM orders",
		},
		{
			name:  "fence_same_line",
			input: "```sql SELECT 1```",
			want:  "SELECT 1",
		},
		{
			name:  "plain_fence_with_sql",
			input: "Sure:\n```\nSELECT id FROM users LIMIT 10\n```",
			want:  "SELECT id FROM users LIMIT 10",
		},
		{
			name:    "plain_fence_without_sql",
			input:   "```\nsome prose that is not a statement\n```",
			wantErr: true,
		},
		{
			name:  "sql_tags",
			input: "The statement is <sql>SELECT total FROM orders WHERE id = 3</sql> as requested.",
			want:  "SELECT total FROM orders WHERE id = 3",
		},
		{
			name:  "bare_statement",
			input: "SELECT name FROM users WHERE age > 30",
			want:  "SELECT name FROM users WHERE age > 30",
		},
		{
			name:  "bare_statement_trailing_semicolon",
			input: "  DELETE FROM users WHERE id = 9;\n",
			want:  "DELETE FROM users WHERE id = 9",
		},
		{
			name:  "think_tags_stripped",
			input: "<think>The user wants a count. I should use COUNT(*).</think>\n```sql\nSELECT COUNT(*) FROM users\n```",
			want:  "SELECT COUNT(*) FROM users",
		},
		{
			name:  "multiple_statements_first_wins",
			input: "```sql\nSELECT 1; SELECT 2;\n```",
			want:  "SELECT 1",
		},
		{
			name:  "semicolon_inside_literal",
			input: "```sql\nSELECT * FROM notes WHERE body = 'a;b'\n```",
			want:  "SELECT * FROM notes WHERE body = 'a;b'",
		},
		{
			name:  "lowercase_keyword",
			input: "select id from users",
			want:  "select id from users",
		},
		{
			name:    "prose_only",
			input:   "I cannot answer that question from this schema.",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractSQL(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrNoSQL) {
					t.Fatalf("expected ErrNoSQL, got %v (sql %q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstStatement(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"SELECT 1;", "SELECT 1"},
		{"SELECT 1; SELECT 2", "SELECT 1"},
		{`SELECT '";"' FROM t; DROP TABLE t`, `SELECT '";"' FROM t`},
		{`SELECT "a;b" FROM t`, `SELECT "a;b" FROM t`},
		{"  SELECT 1  ", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := firstStatement(tt.input); got != tt.want {
			t.Errorf("firstStatement(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
