package editor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.yaml")
	data := []byte(`
max_undo_depth: 50
merge_window: 150ms
log_level: debug
inspector:
  enabled: true
  addr: "127.0.0.1:9000"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxUndoDepth)
	assert.Equal(t, Duration(150*time.Millisecond), cfg.MergeWindow)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Inspector.Enabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.Inspector.Addr)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_undo_depth: -1\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
