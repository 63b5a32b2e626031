package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pondside/parley/internal/request"
)

func TestLoad_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, m.Load())

	assert.FileExists(t, path)
	assert.Equal(t, DefaultConfig(), m.Get())
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model": "qwen2.5-coder"}`), 0o600))

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	assert.Equal(t, "qwen2.5-coder", m.Get().Model)
	// Unset keys keep their defaults.
	assert.Equal(t, 500, m.Get().MaxRows)
	assert.True(t, m.Get().ConfirmDestructive)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PARLEY_TEST_KEY", "sk-secret")
	t.Setenv("PARLEY_TEST_HOST", "llm.internal")

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"api_key": "${PARLEY_TEST_KEY}", "endpoint": "http://$PARLEY_TEST_HOST:8080"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	assert.Equal(t, "sk-secret", m.Get().APIKey)
	assert.Equal(t, "http://llm.internal:8080", m.Get().Endpoint)
}

func TestLoad_UnsetEnvVarLeftAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "${PARLEY_NO_SUCH_VAR}"}`), 0o600))

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	assert.Equal(t, "${PARLEY_NO_SUCH_VAR}", m.Get().APIKey)
}

func TestLoad_RepairsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"max_rows": 0, "queue_depth": -3, "progress_interval_ms": 0}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	assert.Equal(t, 500, m.Get().MaxRows)
	assert.Equal(t, 10, m.Get().QueueDepth)
	assert.Equal(t, 100, m.Get().ProgressIntervalMS)
}

func TestDefaultConfig_QueueDepthMatchesQueueBound(t *testing.T) {
	// The out-of-box queue bound must be the same whether or not a
	// config file exists.
	assert.Equal(t, request.DefaultMaxDepth, DefaultConfig().QueueDepth)
}

func TestSet_SavesValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	require.NoError(t, m.Set("max_rows", "50"))
	require.NoError(t, m.Set("provider", "openai"))

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 50, reloaded.Get().MaxRows)
	assert.Equal(t, "openai", reloaded.Get().Provider)
}

func TestSet_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	assert.Error(t, m.Set("no_such_key", "x"))
}
