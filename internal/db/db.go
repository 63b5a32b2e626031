// Package db opens the user's SQLite database and runs statements
// against it with bounded results. It never touches Parley's own
// state database; that lives in internal/store.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Conn is an open handle to the user's database.
type Conn struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// Open opens or creates the SQLite database at path.
//
// The connection pool is capped at one connection: SQLite allows a
// single writer and a second connection only buys SQLITE_BUSY errors.
// A busy timeout covers contention with other processes. The user's
// journal mode is left alone.
func Open(path string) (*Conn, error) {
	return open(path, false)
}

// OpenReadOnly opens the database rejecting all writes at the driver
// level. The file must already exist.
func OpenReadOnly(path string) (*Conn, error) {
	return open(path, true)
}

func open(path string, readOnly bool) (*Conn, error) {
	dsn := path
	if readOnly {
		dsn = "file:" + path + "?mode=ro"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	return &Conn{db: db, path: path, readOnly: readOnly}, nil
}

// Close releases the connection.
func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path reports the database file path, for the sidebar and the file
// watcher.
func (c *Conn) Path() string {
	return c.path
}

// ReadOnly reports whether writes are rejected.
func (c *Conn) ReadOnly() bool {
	return c.readOnly
}
