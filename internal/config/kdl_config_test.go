package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKDL_Defaults(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, decodeKDL("", cfg))

	assert.Equal(t, 2048, cfg.Runtime.MaxCallDepth)
	assert.False(t, cfg.Runtime.StrictByDefault)
	assert.Equal(t, 2.0, cfg.GC.HeapGrowthFactor)
	assert.True(t, cfg.Features.EnableBigInt)
}

func TestDecodeKDL_Runtime(t *testing.T) {
	kdlContent := `
runtime {
    max_call_depth 4096
    strict_by_default true
}
`
	cfg := defaultConfig()
	require.NoError(t, decodeKDL(kdlContent, cfg))

	assert.Equal(t, 4096, cfg.Runtime.MaxCallDepth)
	assert.True(t, cfg.Runtime.StrictByDefault)
}

func TestDecodeKDL_GC(t *testing.T) {
	kdlContent := `
gc {
    heap_growth_factor 1.5
    trigger_threshold 8192
}
`
	cfg := defaultConfig()
	require.NoError(t, decodeKDL(kdlContent, cfg))

	assert.Equal(t, 1.5, cfg.GC.HeapGrowthFactor)
	assert.Equal(t, 8192, cfg.GC.TriggerThreshold)
}

func TestDecodeKDL_Features(t *testing.T) {
	kdlContent := `
features {
    enable_bigint false
    enable_temporal_stub true
    enable_weak_ref false
}
`
	cfg := defaultConfig()
	require.NoError(t, decodeKDL(kdlContent, cfg))

	assert.False(t, cfg.Features.EnableBigInt)
	assert.True(t, cfg.Features.EnableTemporalStub)
	assert.False(t, cfg.Features.EnableWeakRef)
}

func TestDecodeKDL_ModuleResolutionRoots(t *testing.T) {
	kdlContent := `
module {
    resolution_roots "./lib" "./vendor"
    watch_mode true
    watch_debounce_ms 50
}
`
	cfg := defaultConfig()
	require.NoError(t, decodeKDL(kdlContent, cfg))

	assert.Equal(t, []string{"./lib", "./vendor"}, cfg.Module.ResolutionRoots)
	assert.True(t, cfg.Module.WatchMode)
	assert.Equal(t, 50, cfg.Module.WatchDebounceMs)
}

func TestDecodeKDL_ModuleResolutionRootsBlockForm(t *testing.T) {
	kdlContent := `
module {
    resolution_roots {
        "./lib"
        "./vendor"
    }
}
`
	cfg := defaultConfig()
	require.NoError(t, decodeKDL(kdlContent, cfg))

	assert.Equal(t, []string{"./lib", "./vendor"}, cfg.Module.ResolutionRoots)
}

func TestDecodeKDL_InvalidDocument(t *testing.T) {
	cfg := defaultConfig()
	err := decodeKDL("runtime { max_call_depth ", cfg)
	assert.Error(t, err)
}
