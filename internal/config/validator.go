package config

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	engerrors "github.com/standardbeagle/jsengine/internal/errors"
)

// configSchema describes the decoded engine config shape so a
// malformed KDL/TOML document (wrong type, negative depth, growth
// factor of zero) is caught before a Context is built from it, the
// same defense-in-depth the MCP tool surface gets from jsonschema-go
// over its own input structs.
func configSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"version": {Type: "integer", Description: "engine config schema version"},
			"runtime": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"max_call_depth":    {Type: "integer", Description: "nested Call/Construct frames before RangeError"},
					"strict_by_default": {Type: "boolean", Description: "treat every script as strict mode"},
				},
			},
			"gc": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"heap_growth_factor": {Type: "number", Description: "collection-trigger growth multiplier"},
					"trigger_threshold":  {Type: "integer", Description: "initial live-cell collection trigger"},
				},
			},
			"features": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"enable_bigint":        {Type: "boolean"},
					"enable_temporal_stub": {Type: "boolean"},
					"enable_weak_ref":      {Type: "boolean"},
				},
			},
			"module": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"resolution_roots":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					"watch_mode":        {Type: "boolean"},
					"watch_debounce_ms": {Type: "integer"},
				},
			},
		},
	}
}

// Validator validates a decoded Config and fills in host-derived
// defaults that are cheaper to compute than to require in a config
// file.
type Validator struct {
	resolved *jsonschema.Resolved
}

// NewValidator resolves the schema once; resolution failure would be
// an engine programming error, not a user config error, so it panics
// the same way a malformed regexp literal would.
func NewValidator() *Validator {
	resolved, err := configSchema().Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("config: schema does not resolve: %v", err))
	}
	return &Validator{resolved: resolved}
}

// ValidateAndSetDefaults validates cfg against the schema, then the
// engine's structural invariants (the schema alone can't express
// "GC.HeapGrowthFactor > 1"), and applies smart defaults.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	raw, err := json.Marshal(structForSchema(cfg))
	if err != nil {
		return engerrors.NewConfigError("config", "", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return engerrors.NewConfigError("config", "", err)
	}
	if err := v.resolved.Validate(instance); err != nil {
		return engerrors.NewConfigError("config", "", err)
	}

	if err := validateRuntime(&cfg.Runtime); err != nil {
		return engerrors.NewConfigError("runtime", "", err)
	}
	if err := validateGC(&cfg.GC); err != nil {
		return engerrors.NewConfigError("gc", "", err)
	}
	if err := validateModule(&cfg.Module); err != nil {
		return engerrors.NewConfigError("module", "", err)
	}

	applySmartDefaults(cfg)
	return nil
}

// structForSchema re-keys Config into the snake_case shape the KDL
// nodes (and the schema above) use, since the Go struct's exported
// field names don't match one-for-one.
func structForSchema(cfg *Config) map[string]any {
	return map[string]any{
		"version": cfg.Version,
		"runtime": map[string]any{
			"max_call_depth":    cfg.Runtime.MaxCallDepth,
			"strict_by_default": cfg.Runtime.StrictByDefault,
		},
		"gc": map[string]any{
			"heap_growth_factor": cfg.GC.HeapGrowthFactor,
			"trigger_threshold":  cfg.GC.TriggerThreshold,
		},
		"features": map[string]any{
			"enable_bigint":        cfg.Features.EnableBigInt,
			"enable_temporal_stub": cfg.Features.EnableTemporalStub,
			"enable_weak_ref":      cfg.Features.EnableWeakRef,
		},
		"module": map[string]any{
			"resolution_roots":  resolutionRootsOrEmpty(cfg.Module.ResolutionRoots),
			"watch_mode":        cfg.Module.WatchMode,
			"watch_debounce_ms": cfg.Module.WatchDebounceMs,
		},
	}
}

// resolutionRootsOrEmpty avoids marshaling a nil slice to JSON null,
// which the schema's "array" type would reject.
func resolutionRootsOrEmpty(roots []string) []string {
	if roots == nil {
		return []string{}
	}
	return roots
}

func validateRuntime(r *Runtime) error {
	if r.MaxCallDepth < 0 {
		return fmt.Errorf("MaxCallDepth cannot be negative, got %d", r.MaxCallDepth)
	}
	return nil
}

func validateGC(g *GC) error {
	if g.HeapGrowthFactor != 0 && g.HeapGrowthFactor <= 1.0 {
		return fmt.Errorf("HeapGrowthFactor must be greater than 1, got %v", g.HeapGrowthFactor)
	}
	if g.TriggerThreshold < 0 {
		return fmt.Errorf("TriggerThreshold cannot be negative, got %d", g.TriggerThreshold)
	}
	return nil
}

func validateModule(m *Module) error {
	if m.WatchDebounceMs < 0 {
		return fmt.Errorf("WatchDebounceMs cannot be negative, got %d", m.WatchDebounceMs)
	}
	return nil
}

// ValidateConfig is a convenience wrapper for Load and LoadTOML.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
