// Package watcher monitors the connected database file and reports
// when another process has written to it, so the schema cache can be
// refreshed. Rapid change bursts are debounced into one callback.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after the last write before the
// change callback fires. SQLite checkpoints touch the file several
// times in a row; one refresh covers all of them.
const DefaultDebounce = 500 * time.Millisecond

// FileWatcher monitors a database file for external writes.
type FileWatcher struct {
	fsw      *fsnotify.Watcher
	log      *logrus.Logger
	debounce time.Duration

	// Debouncing state. The callback runs under timerMu so Close can
	// both synchronize with an in-progress fire and stop future ones.
	timerMu sync.Mutex
	timer   *time.Timer
	closed  bool

	// Callback when the database has settled after a change
	onChange func()

	mu      sync.Mutex
	dbPath  string
	watched string // directory currently registered with fsnotify

	done chan struct{}
}

// New creates a watcher that calls onChange after external writes to
// the database file settle. Call Watch to point it at a database.
func New(log *logrus.Logger, debounce time.Duration, onChange func()) (*FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &FileWatcher{
		fsw:      fsw,
		log:      log,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch points the watcher at a database file, replacing any previous
// target. The containing directory is watched rather than the file
// itself so that journal and WAL siblings are seen too.
func (w *FileWatcher) Watch(dbPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(dbPath)
	if w.watched != "" && w.watched != dir {
		if err := w.fsw.Remove(w.watched); err != nil {
			w.log.WithError(err).Debug("failed to unwatch previous directory")
		}
		w.watched = ""
	}
	if w.watched != dir {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.watched = dir
	}
	w.dbPath = dbPath
	return nil
}

// Close stops the watcher. The change callback will not fire again
// after Close returns.
func (w *FileWatcher) Close() error {
	err := w.fsw.Close()
	<-w.done

	w.timerMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerMu.Unlock()
	return err
}

func (w *FileWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.WithField("file", event.Name).Debug("database file changed")
			w.bump()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("file watcher error")
		}
	}
}

// relevant reports whether the event touches the watched database or
// one of its SQLite sidecar files (-wal, -shm, -journal).
func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	w.mu.Lock()
	dbPath := w.dbPath
	w.mu.Unlock()
	if dbPath == "" {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == filepath.Clean(dbPath) {
		return true
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if name == filepath.Clean(dbPath)+suffix {
			return true
		}
	}
	return false
}

// bump resets the debounce timer. The callback fires once the file
// has been quiet for the full debounce window.
func (w *FileWatcher) bump() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *FileWatcher) fire() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.closed {
		return
	}
	w.timer = nil
	if w.onChange != nil {
		w.onChange()
	}
}
