package command

import (
	"testing"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Action
	}{
		{
			name:  "blank input",
			input: "   ",
			want:  Action{Kind: KindNoop},
		},
		{
			name:  "select statement",
			input: "SELECT * FROM users",
			want:  Action{Kind: KindSQL, Text: "SELECT * FROM users"},
		},
		{
			name:  "lowercase keyword",
			input: "pragma table_info(users)",
			want:  Action{Kind: KindSQL, Text: "pragma table_info(users)"},
		},
		{
			name:  "trailing semicolon marks sql",
			input: "something unusual;",
			want:  Action{Kind: KindSQL, Text: "something unusual;"},
		},
		{
			name:  "plain question",
			input: "how many users signed up last week",
			want:  Action{Kind: KindNatural, Text: "how many users signed up last week"},
		},
		{
			name:  "question starting with sql-ish word",
			input: "update me on the sales numbers",
			// "update" is a SQL keyword; the > and ! prefixes exist
			// exactly because of inputs like this.
			want: Action{Kind: KindSQL, Text: "update me on the sales numbers"},
		},
		{
			name:  "bang forces natural language",
			input: "!update me on the sales numbers",
			want:  Action{Kind: KindNatural, Text: "update me on the sales numbers"},
		},
		{
			name:  "angle forces sql",
			input: "> count(*) weirdness",
			want:  Action{Kind: KindSQL, Text: "count(*) weirdness"},
		},
		{
			name:  "slash command without args",
			input: "/help",
			want:  Action{Kind: KindSlash, Name: "help", Args: []string{}},
		},
		{
			name:  "slash command with args",
			input: "/save top-users",
			want:  Action{Kind: KindSlash, Name: "save", Args: []string{"top-users"}},
		},
		{
			name:  "slash command is case insensitive",
			input: "/CONNECT staging",
			want:  Action{Kind: KindSlash, Name: "connect", Args: []string{"staging"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(tt.input)
			if got.Kind != tt.want.Kind {
				t.Errorf("Route(%q).Kind = %v, want %v", tt.input, got.Kind, tt.want.Kind)
			}
			if got.Text != tt.want.Text {
				t.Errorf("Route(%q).Text = %q, want %q", tt.input, got.Text, tt.want.Text)
			}
			if got.Name != tt.want.Name {
				t.Errorf("Route(%q).Name = %q, want %q", tt.input, got.Name, tt.want.Name)
			}
			if len(got.Args) != len(tt.want.Args) {
				t.Errorf("Route(%q).Args = %v, want %v", tt.input, got.Args, tt.want.Args)
			} else {
				for i := range got.Args {
					if got.Args[i] != tt.want.Args[i] {
						t.Errorf("Route(%q).Args[%d] = %q, want %q", tt.input, i, got.Args[i], tt.want.Args[i])
					}
				}
			}
		})
	}
}

func TestLooksLikeSQL(t *testing.T) {
	sql := []string{
		"SELECT 1",
		"with t as (select 1) select * from t",
		"EXPLAIN QUERY PLAN SELECT * FROM users",
		"anything at all;",
	}
	for _, s := range sql {
		if !LooksLikeSQL(s) {
			t.Errorf("LooksLikeSQL(%q) = false, want true", s)
		}
	}

	natural := []string{
		"",
		"who are the top customers",
		"show me everything about orders",
	}
	for _, s := range natural {
		if LooksLikeSQL(s) {
			t.Errorf("LooksLikeSQL(%q) = true, want false", s)
		}
	}
}
