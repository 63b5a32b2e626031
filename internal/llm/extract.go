package llm

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoSQL is returned when the model's answer contains nothing that
// looks like a statement.
var ErrNoSQL = errors.New("model response contains no SQL")

var (
	thinkRegex    = regexp.MustCompile(`(?is)<think>.*?</think>`)
	sqlFenceRegex = regexp.MustCompile("(?is)```sql(?:ite)?\\s+(.*?)```")
	anyFenceRegex = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n(.*?)```")
	sqlTagRegex   = regexp.MustCompile(`(?is)<sql>(.*?)</sql>`)
)

var sqlStarters = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"CREATE": true, "DROP": true, "ALTER": true, "WITH": true,
	"PRAGMA": true, "EXPLAIN": true, "REPLACE": true, "VACUUM": true,
	"ANALYZE": true, "VALUES": true,
}

// ExtractSQL pulls the statement out of a model response. Models
// answer in several shapes despite the prompt, so extraction runs in
// stages: a ```sql fence, then any fence whose body starts with a SQL
// keyword, then <sql> tags, then the bare response itself.
func ExtractSQL(response string) (string, error) {
	// Reasoning models wrap deliberation in think tags; none of it is
	// part of the answer.
	cleaned := thinkRegex.ReplaceAllString(response, "")

	if m := sqlFenceRegex.FindStringSubmatch(cleaned); m != nil {
		if sql := firstStatement(m[1]); sql != "" {
			return sql, nil
		}
	}
	if m := anyFenceRegex.FindStringSubmatch(cleaned); m != nil {
		if sql := firstStatement(m[1]); sql != "" && looksLikeSQL(sql) {
			return sql, nil
		}
	}
	if m := sqlTagRegex.FindStringSubmatch(cleaned); m != nil {
		if sql := firstStatement(m[1]); sql != "" {
			return sql, nil
		}
	}
	if sql := firstStatement(cleaned); sql != "" && looksLikeSQL(sql) {
		return sql, nil
	}
	return "", ErrNoSQL
}

// firstStatement trims the candidate to a single statement, cutting at
// the first semicolon that sits outside a quoted literal.
func firstStatement(s string) string {
	s = strings.TrimSpace(s)
	var inSingle, inDouble bool
	for i, r := range s {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if !inSingle && !inDouble {
				return strings.TrimSpace(s[:i])
			}
		}
	}
	return s
}

func looksLikeSQL(s string) bool {
	first := strings.ToUpper(firstToken(s))
	return sqlStarters[first]
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' {
			return s[:i]
		}
	}
	return s
}
