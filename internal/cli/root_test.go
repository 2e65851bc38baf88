package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "candh", cmd.Use)
	assert.Contains(t, cmd.Long, "audit history")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"validate", "copy", "history"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestCopyCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	copyCmd, _, err := cmd.Find([]string{"copy"})
	require.NoError(t, err)

	for _, name := range []string{"source", "dest", "db", "actor", "location", "ignore", "op", "no-history", "metrics"} {
		assert.NotNil(t, copyCmd.Flags().Lookup(name), name)
	}
	out := copyCmd.Flags().Lookup("out")
	require.NotNil(t, out)
	assert.Equal(t, "o", out.Shorthand)
	assert.Equal(t, "update", copyCmd.Flags().Lookup("op").DefValue)
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "validate", schemaDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootAppliesConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "candh.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output:\n  format: json\n"), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--config", cfg, "validate", schemaDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `"status": "ok"`)
}

func TestRootFormatFlagOverridesConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "candh.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output:\n  format: json\n"), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--config", cfg, "--format", "text", "validate", schemaDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ Schema valid")
}

func TestRootMissingConfigFile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "validate", schemaDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRootConfigSuppliesActor(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "candh.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("history:\n  actor: batch\n"), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "copy", schemaDir, "--source", sourceGraph, "--dest", destGraph})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "update Project#1 by batch")
}
