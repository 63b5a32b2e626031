package db

import (
	"strings"
)

// StatementKind buckets a statement by what it does to the database.
type StatementKind int

const (
	// KindQuery reads data and returns rows.
	KindQuery StatementKind = iota

	// KindWrite adds data or objects without destroying anything.
	KindWrite

	// KindDestructive removes or rewrites existing data and is gated
	// behind confirmation.
	KindDestructive

	// KindOther covers statements Parley does not recognize; they run
	// through the exec path without special handling.
	KindOther
)

func (k StatementKind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindWrite:
		return "write"
	case KindDestructive:
		return "destructive"
	default:
		return "other"
	}
}

var queryKeywords = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"EXPLAIN": true,
	"PRAGMA":  true,
	"VALUES":  true,
}

var writeKeywords = map[string]bool{
	"INSERT":  true,
	"CREATE":  true,
	"BEGIN":   true,
	"COMMIT":  true,
	"END":     true,
	"ATTACH":  true,
	"DETACH":  true,
	"ANALYZE": true,
	"REINDEX": true,
}

var destructiveKeywords = map[string]bool{
	"DROP":     true,
	"DELETE":   true,
	"UPDATE":   true,
	"ALTER":    true,
	"REPLACE":  true,
	"TRUNCATE": true,
	"VACUUM":   true,
}

// Classify buckets a statement by its leading keyword, ignoring
// leading whitespace and SQL comments.
func Classify(stmt string) StatementKind {
	kw := Keyword(stmt)
	switch {
	case queryKeywords[kw]:
		return KindQuery
	case destructiveKeywords[kw]:
		return KindDestructive
	case writeKeywords[kw]:
		return KindWrite
	default:
		return KindOther
	}
}

// Keyword extracts the statement's leading keyword in upper case. It
// is the key for session-scoped "always allow" confirmation rules.
func Keyword(stmt string) string {
	s := stripLeadingComments(stmt)
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';' {
			return strings.ToUpper(s[:i])
		}
	}
	return strings.ToUpper(s)
}

// NeedsConfirmation reports whether the statement is gated behind a
// destructive-statement confirmation, and why.
func NeedsConfirmation(stmt string) (bool, string) {
	if Classify(stmt) != KindDestructive {
		return false, ""
	}
	kw := Keyword(stmt)
	if (kw == "DELETE" || kw == "UPDATE") && !hasWhereClause(stmt) {
		return true, kw + " without a WHERE clause affects every row"
	}
	switch kw {
	case "DROP":
		return true, "DROP permanently removes the object and its data"
	case "DELETE":
		return true, "DELETE removes matching rows"
	case "UPDATE":
		return true, "UPDATE rewrites matching rows"
	case "ALTER":
		return true, "ALTER changes the table definition"
	case "REPLACE":
		return true, "REPLACE overwrites conflicting rows"
	case "TRUNCATE":
		return true, "TRUNCATE removes all rows"
	case "VACUUM":
		return true, "VACUUM rebuilds the database file"
	}
	return true, kw + " modifies existing data"
}

// ReturnsRows reports whether the statement should run through the
// query path and produce a row set.
func ReturnsRows(stmt string) bool {
	return Classify(stmt) == KindQuery
}

func hasWhereClause(stmt string) bool {
	upper := strings.ToUpper(stripLeadingComments(stmt))
	for i := 0; i+5 <= len(upper); i++ {
		if upper[i:i+5] != "WHERE" {
			continue
		}
		beforeOK := i == 0 || isSQLSpace(upper[i-1]) || upper[i-1] == ')'
		afterOK := i+5 == len(upper) || isSQLSpace(upper[i+5]) || upper[i+5] == '('
		if beforeOK && afterOK {
			return true
		}
	}
	return false
}

func isSQLSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// stripLeadingComments skips whitespace, line comments, and block
// comments so classification sees the first real token.
func stripLeadingComments(stmt string) string {
	s := strings.TrimLeft(stmt, " \t\n\r")
	for {
		switch {
		case strings.HasPrefix(s, "--"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = strings.TrimLeft(s[nl+1:], " \t\n\r")
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end < 0 {
				return ""
			}
			s = strings.TrimLeft(s[end+2:], " \t\n\r")
		default:
			return s
		}
	}
}
