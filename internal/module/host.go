package module

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// Evaluator is the subset of internal/context.Context a Host needs:
// just enough to run module source through the normal
// parse/compile/run pipeline and to intern import.meta's property
// names. Kept as an interface so this package never imports
// internal/context — context already imports internal/module's
// Loader type for its own module-aware Eval entry point, and a cycle
// there would be a design smell, not a convenience.
type Evaluator interface {
	ParseModule(src string) (value.Value, error)
	Interner() *interner.Interner
}

// Host drives one Loader against one Evaluator, caching each
// ModuleId's Record so a diamond-shaped import graph (A and B both
// import C) loads and evaluates C exactly once, matching ECMAScript's
// module-instance-per-realm guarantee.
type Host struct {
	loader Loader
	eval   Evaluator
	cache  map[ModuleId]*Record
}

// NewHost builds a Host for loader against eval.
func NewHost(loader Loader, eval Evaluator) *Host {
	return &Host{loader: loader, eval: eval, cache: map[ModuleId]*Record{}}
}

// Import resolves specifier against referrer, loading and (for
// non-synthetic sources) evaluating the module the first time it is
// seen. Subsequent imports of the same resolved ModuleId return the
// cached Record without reloading or re-running its top-level body.
func (h *Host) Import(referrer ModuleId, specifier string) (*Record, error) {
	id, err := h.loader.Resolve(referrer, specifier)
	if err != nil {
		return nil, err
	}
	if rec, ok := h.cache[id]; ok {
		return rec, nil
	}

	src, err := h.loader.Load(id)
	if err != nil {
		return nil, err
	}

	in := h.eval.Interner()
	meta := value.New(nil)
	rec := &Record{Id: id, Referrer: referrer, Meta: meta}
	h.loader.InitImportMeta(rec, meta, in)

	// Cache before evaluating: a module that imports itself
	// transitively (a dependency cycle) must see the in-progress
	// Record rather than recurse into Import forever.
	h.cache[id] = rec

	if src.IsSynthetic() {
		return rec, nil
	}
	if _, err := h.eval.ParseModule(src.Code); err != nil {
		delete(h.cache, id)
		return nil, err
	}
	return rec, nil
}

// Invalidate drops id from the cache, used by watch mode after a
// source file changes so the next Import re-reads and re-evaluates it.
func (h *Host) Invalidate(id ModuleId) {
	delete(h.cache, id)
}
