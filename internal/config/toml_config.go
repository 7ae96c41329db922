package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors Config's field layout using TOML section/key
// names so embedders that prefer TOML over KDL for their own build
// tooling don't need to learn a second document format just to
// configure the engine.
type tomlConfig struct {
	Version int `toml:"version"`

	Runtime struct {
		MaxCallDepth    int   `toml:"max_call_depth"`
		StrictByDefault *bool `toml:"strict_by_default"`
	} `toml:"runtime"`

	GC struct {
		HeapGrowthFactor float64 `toml:"heap_growth_factor"`
		TriggerThreshold int     `toml:"trigger_threshold"`
	} `toml:"gc"`

	Features struct {
		EnableBigInt       *bool `toml:"enable_bigint"`
		EnableTemporalStub *bool `toml:"enable_temporal_stub"`
		EnableWeakRef      *bool `toml:"enable_weak_ref"`
	} `toml:"features"`

	Module struct {
		ResolutionRoots []string `toml:"resolution_roots"`
		WatchMode       *bool    `toml:"watch_mode"`
		WatchDebounceMs int      `toml:"watch_debounce_ms"`
	} `toml:"module"`
}

// LoadTOML is the TOML counterpart to Load, for embedders that prefer
// it over KDL. Defaults are merged the same way: only fields present
// in the document override defaultConfig().
func LoadTOML(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := defaultConfig()
		if err := ValidateConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc tomlConfig
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}

	cfg := defaultConfig()
	if doc.Version != 0 {
		cfg.Version = doc.Version
	}
	if doc.Runtime.MaxCallDepth != 0 {
		cfg.Runtime.MaxCallDepth = doc.Runtime.MaxCallDepth
	}
	if doc.Runtime.StrictByDefault != nil {
		cfg.Runtime.StrictByDefault = *doc.Runtime.StrictByDefault
	}
	if doc.GC.HeapGrowthFactor != 0 {
		cfg.GC.HeapGrowthFactor = doc.GC.HeapGrowthFactor
	}
	if doc.GC.TriggerThreshold != 0 {
		cfg.GC.TriggerThreshold = doc.GC.TriggerThreshold
	}
	if doc.Features.EnableBigInt != nil {
		cfg.Features.EnableBigInt = *doc.Features.EnableBigInt
	}
	if doc.Features.EnableTemporalStub != nil {
		cfg.Features.EnableTemporalStub = *doc.Features.EnableTemporalStub
	}
	if doc.Features.EnableWeakRef != nil {
		cfg.Features.EnableWeakRef = *doc.Features.EnableWeakRef
	}
	if len(doc.Module.ResolutionRoots) > 0 {
		cfg.Module.ResolutionRoots = append([]string(nil), doc.Module.ResolutionRoots...)
	}
	if doc.Module.WatchMode != nil {
		cfg.Module.WatchMode = *doc.Module.WatchMode
	}
	if doc.Module.WatchDebounceMs != 0 {
		cfg.Module.WatchDebounceMs = doc.Module.WatchDebounceMs
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
