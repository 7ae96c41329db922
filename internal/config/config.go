// Package config loads and validates the engine's own configuration
// file: call-stack and GC tunables, default strictness, feature
// flags, and module resolution roots. It does not configure anything
// about the scripts the engine runs — those are controlled entirely
// by the source text itself (a "use strict" prologue, import
// specifiers, and so on).
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the engine's own tunable surface, decoded from a KDL (or
// TOML) file and validated before a Context is constructed from it.
type Config struct {
	Version int

	Runtime  Runtime
	GC       GC
	Features FeatureFlags
	Module   Module
}

// Runtime controls VM execution limits and default script mode.
type Runtime struct {
	// MaxCallDepth bounds nested Call/Construct frames before the VM
	// raises a RangeError instead of exhausting the Go stack.
	MaxCallDepth int
	// StrictByDefault is decoded and validated with the rest of the
	// file, but nothing outside this package reads it, so it has no
	// effect on how scripts or modules run.
	StrictByDefault bool
}

// GC controls the heap's growth and collection cadence.
type GC struct {
	// HeapGrowthFactor is the multiplier applied to the current
	// collection trigger after each automatic collection to compute the
	// next one.
	HeapGrowthFactor float64
	// TriggerThreshold is the initial live-cell count that schedules
	// the first collection; later thresholds scale by HeapGrowthFactor.
	TriggerThreshold int
}

// FeatureFlags gates optional engine behavior that an embedder may
// want to disable for a restricted sandbox or a smaller build.
// EnableBigInt and EnableTemporalStub decide whether builtins.Install
// defines BigInt and Temporal; EnableWeakRef is decoded and validated
// but gates nothing, as the engine has no WeakRef built-in.
type FeatureFlags struct {
	EnableBigInt       bool
	EnableTemporalStub bool
	EnableWeakRef      bool
}

// Module controls how bare/relative specifiers resolve to source
// files, and the optional watch-mode reload loop.
type Module struct {
	// ResolutionRoots are searched, in order, for a specifier that
	// does not resolve relative to the importing module.
	ResolutionRoots []string
	// WatchMode and WatchDebounceMs are decoded and validated, but
	// nothing outside this package reads them; internal/module's
	// Watcher takes its debounce as a NewWatcher argument.
	WatchMode       bool
	WatchDebounceMs int
}

// defaultConfig returns the configuration used before any file on
// disk is consulted; Load starts here and overlays whatever the KDL
// document specifies, so an engine config file only needs to mention
// the fields it wants to change.
func defaultConfig() *Config {
	return &Config{
		Version: 1,
		Runtime: Runtime{
			MaxCallDepth:    2048,
			StrictByDefault: false,
		},
		GC: GC{
			HeapGrowthFactor: 2.0,
			TriggerThreshold: 4096,
		},
		Features: FeatureFlags{
			EnableBigInt:       true,
			EnableTemporalStub: false,
			EnableWeakRef:      true,
		},
		Module: Module{
			ResolutionRoots: nil,
			WatchMode:       false,
			WatchDebounceMs: 200,
		},
	}
}

// Load reads the engine config file at path, a KDL document, merging
// its contents over defaultConfig() and validating the result. A
// missing file is not an error — it returns the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := ValidateConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := decodeKDL(string(content), cfg); err != nil {
		return nil, err
	}

	for i, root := range cfg.Module.ResolutionRoots {
		if !filepath.IsAbs(root) {
			abs, err := filepath.Abs(filepath.Join(filepath.Dir(path), root))
			if err == nil {
				cfg.Module.ResolutionRoots[i] = abs
			}
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySmartDefaults fills in zero-valued fields that are cheaper to
// compute from the host than to require in every config file.
func applySmartDefaults(cfg *Config) {
	if cfg.Runtime.MaxCallDepth == 0 {
		cfg.Runtime.MaxCallDepth = 2048
	}
	if cfg.GC.HeapGrowthFactor == 0 {
		cfg.GC.HeapGrowthFactor = 2.0
	}
	if cfg.GC.TriggerThreshold == 0 {
		cfg.GC.TriggerThreshold = 4096
	}
	if cfg.Module.WatchDebounceMs == 0 {
		cfg.Module.WatchDebounceMs = 200
	}
}
