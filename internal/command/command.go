// Package command classifies raw user input. It is a pure router: it
// decides what kind of request a line of input is, never when or how
// it runs.
package command

import (
	"strings"
)

// Kind says what a line of input asks for.
type Kind int

const (
	// KindNoop is blank input; nothing to do.
	KindNoop Kind = iota

	// KindSQL is a statement to run directly.
	KindSQL

	// KindNatural is a question for the model to translate.
	KindNatural

	// KindSlash is a /command with optional arguments.
	KindSlash
)

// Action is the routed form of one line of input.
type Action struct {
	Kind Kind

	// Text is the statement or question, prefix stripped.
	Text string

	// Name and Args are set for slash commands.
	Name string
	Args []string
}

// sqlKeywords are the statement starters that mark input as raw SQL.
var sqlKeywords = map[string]bool{
	"select": true, "insert": true, "update": true, "delete": true,
	"create": true, "drop": true, "alter": true, "replace": true,
	"with": true, "pragma": true, "explain": true, "vacuum": true,
	"begin": true, "commit": true, "rollback": true, "attach": true,
	"detach": true, "analyze": true, "reindex": true,
}

// Route classifies one line of input.
//
// Precedence: blank → Noop; "/" → slash command; ">" forces SQL; "!"
// forces natural language; otherwise input that starts with a SQL
// keyword or ends with ";" is SQL and everything else is a question.
func Route(input string) Action {
	input = strings.TrimSpace(input)
	if input == "" {
		return Action{Kind: KindNoop}
	}

	if strings.HasPrefix(input, "/") {
		fields := strings.Fields(input)
		return Action{
			Kind: KindSlash,
			Name: strings.ToLower(strings.TrimPrefix(fields[0], "/")),
			Args: fields[1:],
		}
	}

	if rest, ok := strings.CutPrefix(input, ">"); ok {
		return Action{Kind: KindSQL, Text: strings.TrimSpace(rest)}
	}
	if rest, ok := strings.CutPrefix(input, "!"); ok {
		return Action{Kind: KindNatural, Text: strings.TrimSpace(rest)}
	}

	if LooksLikeSQL(input) {
		return Action{Kind: KindSQL, Text: input}
	}
	return Action{Kind: KindNatural, Text: input}
}

// LooksLikeSQL reports whether input reads as a statement rather than
// a question.
func LooksLikeSQL(input string) bool {
	input = strings.TrimSpace(input)
	if strings.HasSuffix(input, ";") {
		return true
	}
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false
	}
	return sqlKeywords[strings.ToLower(fields[0])]
}
