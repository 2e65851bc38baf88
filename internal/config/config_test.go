package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "candh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
history:
  db: /var/lib/candh/history.db
  actor: importer
engine:
  location: UTC
output:
  format: json
`)
	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/candh/history.db", cfg.HistoryDB)
	assert.Equal(t, "importer", cfg.Actor)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoadExplicitPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "history:\n  actor: bob\n")
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Actor)
	assert.Equal(t, "text", cfg.Format)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "history:\n  actor: bob\n")
	t.Setenv("CANDH_HISTORY_ACTOR", "carol")
	t.Setenv("CANDH_HISTORY_DB", "env.db")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "carol", cfg.Actor)
	assert.Equal(t, "env.db", cfg.HistoryDB)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "output:\n  format: xml\n")
		_, err := Load("", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), KeyOutputFormat)
	})
	t.Run("location", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "engine:\n  location: Nowhere/Special\n")
		_, err := Load("", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), KeyEngineLocation)
	})
}

func TestLoc(t *testing.T) {
	loc, err := Config{}.Loc()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = Default().Loc()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
