package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := &Config{
		Version: 1,
		Runtime: Runtime{MaxCallDepth: 1024},
		GC:      GC{HeapGrowthFactor: 2.0},
	}

	validator := NewValidator()
	require.NoError(t, validator.ValidateAndSetDefaults(cfg))

	assert.Equal(t, 1024, cfg.Runtime.MaxCallDepth)
	assert.Equal(t, 4096, cfg.GC.TriggerThreshold, "zero TriggerThreshold should get the smart default")
	assert.Equal(t, 200, cfg.Module.WatchDebounceMs)
}

func TestValidateAndSetDefaults_RejectsNegativeCallDepth(t *testing.T) {
	cfg := defaultConfig()
	cfg.Runtime.MaxCallDepth = -1

	err := NewValidator().ValidateAndSetDefaults(cfg)
	assert.Error(t, err)
}

func TestValidateAndSetDefaults_RejectsShrinkingGrowthFactor(t *testing.T) {
	cfg := defaultConfig()
	cfg.GC.HeapGrowthFactor = 0.5

	err := NewValidator().ValidateAndSetDefaults(cfg)
	assert.Error(t, err)
}

func TestValidateAndSetDefaults_RejectsNegativeWatchDebounce(t *testing.T) {
	cfg := defaultConfig()
	cfg.Module.WatchDebounceMs = -5

	err := NewValidator().ValidateAndSetDefaults(cfg)
	assert.Error(t, err)
}

func TestValidateConfig_DefaultsAreValid(t *testing.T) {
	require.NoError(t, ValidateConfig(defaultConfig()))
}
