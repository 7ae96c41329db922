package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.kdl"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().Runtime.MaxCallDepth, cfg.Runtime.MaxCallDepth)
}

func TestLoad_OverlaysOnlyMentionedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.kdl")
	content := `
runtime {
    max_call_depth 512
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Runtime.MaxCallDepth)
	// Untouched sections keep their defaults.
	assert.Equal(t, defaultConfig().GC.HeapGrowthFactor, cfg.GC.HeapGrowthFactor)
	assert.True(t, cfg.Features.EnableBigInt)
}

func TestLoad_ResolutionRootsResolvedRelativeToConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "lib"), 0o755))
	path := filepath.Join(dir, "engine.kdl")
	content := `
module {
    resolution_roots "./lib"
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Module.ResolutionRoots, 1)
	assert.Equal(t, filepath.Join(dir, "lib"), cfg.Module.ResolutionRoots[0])
}

func TestLoad_RejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.kdl")
	require.NoError(t, os.WriteFile(path, []byte("runtime { max_call_depth "), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadTOML_MatchesKDLShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	content := "[runtime]\nmax_call_depth = 777\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadTOML(path)
	require.NoError(t, err)
	assert.Equal(t, 777, cfg.Runtime.MaxCallDepth)
	assert.True(t, cfg.Features.EnableWeakRef, "unset TOML bool fields keep the default, not the zero value")
}
