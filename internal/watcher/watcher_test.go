package watcher

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestWatch_FiresAfterWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := New(newTestLogger(), 20*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(dbPath))
	require.NoError(t, os.WriteFile(dbPath, []byte("xy"), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("change callback never fired")
	}
}

func TestWatch_WalWriteCounts(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := New(newTestLogger(), 20*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(dbPath))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("frame"), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("change callback never fired for WAL write")
	}
}

func TestWatch_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := New(newTestLogger(), 20*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(dbPath))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	select {
	case <-changed:
		t.Fatal("unrelated file triggered the callback")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_Retarget(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	pathA := filepath.Join(dirA, "a.db")
	pathB := filepath.Join(dirB, "b.db")
	require.NoError(t, os.WriteFile(pathA, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("x"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := New(newTestLogger(), 20*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch(pathA))
	require.NoError(t, w.Watch(pathB))

	// Writes to the old target are no longer watched.
	require.NoError(t, os.WriteFile(pathA, []byte("xy"), 0o644))
	select {
	case <-changed:
		t.Fatal("old target triggered the callback")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(pathB, []byte("xy"), 0o644))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("new target never triggered the callback")
	}
}

func TestClose_SilencesPendingCallback(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := New(newTestLogger(), 50*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	require.NoError(t, w.Watch(dbPath))
	require.NoError(t, os.WriteFile(dbPath, []byte("xy"), 0o644))

	// Close lands inside the debounce window; the armed timer must
	// never reach the callback once Close has returned.
	require.NoError(t, w.Close())

	select {
	case <-changed:
		t.Fatal("callback fired after Close")
	case <-time.After(200 * time.Millisecond):
	}
}
