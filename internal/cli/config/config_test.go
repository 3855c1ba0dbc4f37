package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "collections", cfg.CollectionsDir)
	assert.Equal(t, "localhost:8460", cfg.Addr())
	assert.Empty(t, cfg.History.Path)
	assert.Equal(t, 1000, cfg.History.Keep)
}

func TestLoadFromFile(t *testing.T) {
	dir := inTempDir(t)

	content := `
collections_dir: /srv/tables
server:
  host: 0.0.0.0
  port: 9000
history:
  path: rolls.db
  keep: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fatesmith.yaml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/tables", cfg.CollectionsDir)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, "rolls.db", cfg.History.Path)
	assert.Equal(t, 50, cfg.History.Keep)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fatesmith.yaml"), []byte("server:\n  port: 99999\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fatesmith.yaml"), []byte("\t: nope"), 0o644))

	_, err := Load()
	require.Error(t, err)
}
