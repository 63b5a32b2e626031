package cli

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pondside/parley/internal/db"
	"github.com/pondside/parley/internal/watcher"
)

// ErrNoDatabase is returned by units of work when no database is open.
var ErrNoDatabase = errors.New("no database open (use /connect <path>)")

// ConnHolder owns the current database connection. Connections are
// swapped at runtime by /connect, so every reader goes through the
// holder instead of keeping a *db.Conn of its own. Safe for concurrent
// use.
type ConnHolder struct {
	mu      sync.RWMutex
	conn    *db.Conn
	watcher *watcher.FileWatcher
	log     *logrus.Logger
}

// NewConnHolder builds an empty holder. The watcher may be nil for
// one-shot paths that never retarget.
func NewConnHolder(log *logrus.Logger, w *watcher.FileWatcher) *ConnHolder {
	return &ConnHolder{watcher: w, log: log}
}

// SetWatcher attaches the file watcher after construction, for wiring
// orders where the watcher's callback needs services built around the
// holder.
func (h *ConnHolder) SetWatcher(w *watcher.FileWatcher) {
	h.mu.Lock()
	h.watcher = w
	h.mu.Unlock()
}

// Connect opens path and makes it the current connection, closing the
// previous one. The file watcher is retargeted before the swap so a
// change to the new database is never missed.
func (h *ConnHolder) Connect(path string, readOnly bool) error {
	var (
		conn *db.Conn
		err  error
	)
	if readOnly {
		conn, err = db.OpenReadOnly(path)
	} else {
		conn, err = db.Open(path)
	}
	if err != nil {
		return err
	}

	h.mu.RLock()
	w := h.watcher
	h.mu.RUnlock()
	if w != nil {
		if err := w.Watch(conn.Path()); err != nil {
			h.log.WithError(err).Warn("could not watch database file")
		}
	}

	h.mu.Lock()
	old := h.conn
	h.conn = conn
	h.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			h.log.WithError(err).Warn("closing previous connection")
		}
	}

	h.log.WithFields(logrus.Fields{
		"path":      conn.Path(),
		"read_only": readOnly,
	}).Info("database connected")
	return nil
}

// Conn returns the current connection, or false when none is open.
func (h *ConnHolder) Conn() (*db.Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conn, h.conn != nil
}

// Current reports the open connection's path and mode for display.
func (h *ConnHolder) Current() (path string, readOnly bool, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.conn == nil {
		return "", false, false
	}
	return h.conn.Path(), h.conn.ReadOnly(), true
}

// Close releases the current connection if any.
func (h *ConnHolder) Close() error {
	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
