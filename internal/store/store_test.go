package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "parley.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "parley.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parley.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(Entry{Input: "select 1", Type: "sql", Status: StatusOK}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "select 1", entries[0].Input)
}

func TestHistory_AppendAssignsID(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append(Entry{Input: "select 1", Type: "sql", Status: StatusOK}))

	entries, err := s.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].StartedAt.IsZero())
}

func TestHistory_RecentNewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, input := range []string{"first", "second", "third"} {
		require.NoError(t, s.Append(Entry{
			Input:     input,
			Type:      "sql",
			Status:    StatusOK,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Input)
	assert.Equal(t, "second", entries[1].Input)
	assert.Equal(t, "first", entries[2].Input)
}

func TestHistory_RecentLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(Entry{
			Input:     "select 1",
			Type:      "sql",
			Status:    StatusOK,
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := s.Recent(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHistory_PruneKeepsNewest(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(Entry{
			Input:     string(rune('a' + i)),
			Type:      "sql",
			Status:    StatusOK,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	require.NoError(t, s.Prune(2))

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e", entries[0].Input)
	assert.Equal(t, "d", entries[1].Input)

	// Zero keeps everything.
	require.NoError(t, s.Prune(0))
	entries, err = s.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHistory_FieldsRoundtrip(t *testing.T) {
	s := newTestStore(t)

	started := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)
	require.NoError(t, s.Append(Entry{
		ID:        "entry-1",
		Input:     "how many users signed up today",
		Type:      "natural_language",
		Statement: "SELECT COUNT(*) FROM users",
		Status:    StatusError,
		Error:     "no such table: users",
		Rows:      0,
		Duration:  1500 * time.Millisecond,
		StartedAt: started,
	}))

	entries, err := s.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "entry-1", got.ID)
	assert.Equal(t, "how many users signed up today", got.Input)
	assert.Equal(t, "natural_language", got.Type)
	assert.Equal(t, "SELECT COUNT(*) FROM users", got.Statement)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "no such table: users", got.Error)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.True(t, got.StartedAt.Equal(started))
}

func TestHistory_Search(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(Entry{
		Input: "count the users", Type: "natural_language",
		Statement: "SELECT COUNT(*) FROM users",
		Status:    StatusOK, StartedAt: base,
	}))
	require.NoError(t, s.Append(Entry{
		Input: "list all orders", Type: "natural_language",
		Statement: "SELECT * FROM orders",
		Status:    StatusOK, StartedAt: base.Add(time.Minute),
	}))

	byInput, err := s.Search("orders", 10)
	require.NoError(t, err)
	require.Len(t, byInput, 1)
	assert.Equal(t, "list all orders", byInput[0].Input)

	byStatement, err := s.Search("COUNT", 10)
	require.NoError(t, err)
	require.Len(t, byStatement, 1)
	assert.Equal(t, "count the users", byStatement[0].Input)

	none, err := s.Search("invoices", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSavedQueries_CRUD(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveQuery("daily-signups", "SELECT COUNT(*) FROM users WHERE created_at > date('now')"))
	require.NoError(t, s.SaveQuery("all-orders", "SELECT * FROM orders"))

	q, err := s.GetQuery("daily-signups")
	require.NoError(t, err)
	assert.Equal(t, "daily-signups", q.Name)
	assert.Contains(t, q.Statement, "COUNT(*)")
	assert.False(t, q.CreatedAt.IsZero())

	// Same name replaces the statement.
	require.NoError(t, s.SaveQuery("daily-signups", "SELECT 1"))
	q, err = s.GetQuery("daily-signups")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", q.Statement)

	list, err := s.ListQueries()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "all-orders", list[0].Name)
	assert.Equal(t, "daily-signups", list[1].Name)

	require.NoError(t, s.DeleteQuery("all-orders"))
	_, err = s.GetQuery("all-orders")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteQuery("all-orders")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavedQueries_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetQuery("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfiles_LoadMissing(t *testing.T) {
	p, err := LoadProfiles(filepath.Join(t.TempDir(), "connections.yaml"))
	require.NoError(t, err)
	assert.Empty(t, p.Connections)
}

func TestProfiles_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "connections.yaml")

	p := &Profiles{}
	p.Add(Profile{Name: "prod", Path: "/data/prod.db", ReadOnly: true})
	p.Add(Profile{Name: "dev", Path: "/data/dev.db"})
	require.True(t, p.SetDefault("dev"))
	require.NoError(t, p.Save(path))

	loaded, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, loaded.Connections, 2)

	prod, ok := loaded.Find("prod")
	require.True(t, ok)
	assert.Equal(t, "/data/prod.db", prod.Path)
	assert.True(t, prod.ReadOnly)
	assert.False(t, prod.Default)

	def, ok := loaded.DefaultProfile()
	require.True(t, ok)
	assert.Equal(t, "dev", def.Name)
}

func TestProfiles_AddReplacesByName(t *testing.T) {
	p := &Profiles{}
	p.Add(Profile{Name: "dev", Path: "/old.db"})
	p.Add(Profile{Name: "dev", Path: "/new.db"})

	require.Len(t, p.Connections, 1)
	assert.Equal(t, "/new.db", p.Connections[0].Path)
}

func TestProfiles_Remove(t *testing.T) {
	p := &Profiles{}
	p.Add(Profile{Name: "dev", Path: "/dev.db"})

	assert.True(t, p.Remove("dev"))
	assert.False(t, p.Remove("dev"))
	assert.Empty(t, p.Connections)
}

func TestProfiles_DefaultFallsBackToOnly(t *testing.T) {
	p := &Profiles{}
	p.Add(Profile{Name: "solo", Path: "/solo.db"})

	def, ok := p.DefaultProfile()
	require.True(t, ok)
	assert.Equal(t, "solo", def.Name)

	p.Add(Profile{Name: "other", Path: "/other.db"})
	_, ok = p.DefaultProfile()
	assert.False(t, ok)
}

func TestProfiles_SetDefaultClearsOthers(t *testing.T) {
	p := &Profiles{}
	p.Add(Profile{Name: "a", Path: "/a.db", Default: true})
	p.Add(Profile{Name: "b", Path: "/b.db"})

	require.True(t, p.SetDefault("b"))
	a, _ := p.Find("a")
	b, _ := p.Find("b")
	assert.False(t, a.Default)
	assert.True(t, b.Default)

	assert.False(t, p.SetDefault("missing"))
}
