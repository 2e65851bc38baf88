package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "project.cue", `package schema

entity: Project: {
	historizable: true
	properties: {
		title:     {kind: "text"}
		positions: {kind: "collection", target: "Position", mappedBy: "project"}
	}
}
`)
	writeFile(t, dir, "position.cue", `package schema

entity: Position: {
	historizable: true
	properties: number: {kind: "int"}
}
`)

	result, errs := LoadDir(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	require.Len(t, result.Types, 2)
	assert.Equal(t, "Position", result.Types[0].Name)
	assert.Equal(t, "Project", result.Types[1].Name)
	assert.Empty(t, Validate(result.Types))
}

func TestLoadDirErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, errs := LoadDir(filepath.Join(t.TempDir(), "nope"), LoadModeFailFast)
		require.Len(t, errs, 1)
		var loadErr *LoadError
		require.ErrorAs(t, errs[0], &loadErr)
		assert.Equal(t, ErrCodeNotFound, loadErr.Code)
	})

	t.Run("no cue files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "readme.txt", "nothing here")
		_, errs := LoadDir(dir, LoadModeFailFast)
		require.Len(t, errs, 1)
		var loadErr *LoadError
		require.ErrorAs(t, errs[0], &loadErr)
		assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
	})

	t.Run("conflicting values", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.cue", "package schema\n\nentity: A: historizable: true\n")
		writeFile(t, dir, "b.cue", "package schema\n\nentity: A: historizable: false\n")
		_, errs := LoadDir(dir, LoadModeFailFast)
		require.Len(t, errs, 1)
		var loadErr *LoadError
		require.ErrorAs(t, errs[0], &loadErr)
		assert.Equal(t, ErrCodeBuildFailed, loadErr.Code)
	})
}

func TestLoadStringCollectsCompileErrors(t *testing.T) {
	result, errs := LoadString(`
		entity: A: properties: x: {target: "B"}
		entity: B: properties: y: {transient: true}
		entity: C: properties: z: {kind: "int"}
	`)
	require.Len(t, errs, 2)
	for _, err := range errs {
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeCompile, loadErr.Code)
	}
	require.Len(t, result.Types, 1)
	assert.Equal(t, "C", result.Types[0].Name)
}

func TestLoadStringWithoutEntities(t *testing.T) {
	_, errs := LoadString(`other: 1`)
	require.Len(t, errs, 1)
	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNoEntities, loadErr.Code)
}
