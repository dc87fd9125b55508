package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Sync.Debounce)
	assert.Equal(t, 5*time.Second, cfg.Sync.Heartbeat)
	assert.Equal(t, 5*time.Second, cfg.Sync.GraceWindow)
	assert.Equal(t, "sqlite", cfg.Local.Driver)
	assert.Equal(t, "jsonbin", cfg.Remote.Backend)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
remote:
  bin_id: from-file
  api_key: file-key
sync:
  heartbeat: 4s
  debounce: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("JSONBIN_API_KEY", "env-key")
	t.Setenv("KANBAN_USER_ID", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://board.example, http://localhost:5173 ,")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Remote.BinID)
	assert.Equal(t, "env-key", cfg.Remote.APIKey)
	assert.Equal(t, 4*time.Second, cfg.Sync.Heartbeat)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, 2, cfg.Session.UserID)
	assert.Equal(t, []string{"https://board.example", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("REMOTE_BACKEND", "ftp")

	_, err := Load("")

	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync: [nope"), 0o600))

	_, err := Load(path)

	assert.Error(t, err)
}
