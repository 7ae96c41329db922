// Package vm implements the bytecode interpreter: call frames, lexical
// environments, completion records, and the opcode dispatch loop, per
// spec.md §4.4.
package vm

import (
	"github.com/standardbeagle/jsengine/internal/gc"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// EnvKind tags what a lexical scope frame represents, per spec.md §3.
type EnvKind uint8

const (
	EnvFunction EnvKind = iota
	EnvBlock
	EnvWith
	EnvObject
	EnvGlobal
	EnvModule
)

// binding is one cell in an Environment: value, initialized, mutable
// and can_delete from spec.md §3's binding record; there is no
// per-binding strict flag.
type binding struct {
	val         value.Value
	initialized bool // false = in the temporal dead zone
	mutable     bool // false for const
	canDelete   bool // always false: Declare never sets it, and global vars live on the global object instead
}

// Environment is a lexical scope frame. It is the one structure this
// engine routes through internal/gc explicitly: Go's own collector
// would reclaim an ordinary Environment struct correctly on its own,
// but closures routinely form reference cycles through captured
// environments (a closure stored on an object that the environment
// that defined it also reaches), and the embedder-visible `gc()` hook
// (spec.md §8 scenario 5) needs an explicit, queryable notion of
// "live cells" rather than Go's opaque GC. See DESIGN.md for the full
// rationale.
type Environment struct {
	Kind  EnvKind
	Outer gc.Handle // unrooted: reached via this Environment's own Trace

	bindings map[interner.Symbol]*binding
	names    []interner.Symbol // insertion order, for with/global enumeration

	// ObjectRecord backs EnvObject/EnvWith/EnvGlobal environments,
	// where bindings are properties of a real object instead of a
	// dedicated binding-cell table (spec.md §3 "object environment").
	ObjectRecord *value.Object
}

func (e *Environment) Trace(visit func(*gc.Cell)) {
	if c := e.Outer.Cell(); c != nil {
		visit(c)
	}
}

// NewEnvironment allocates a fresh Environment on heap, linked to
// outer (the zero Handle for the global/top environment).
func NewEnvironment(heap *gc.Heap, kind EnvKind, outer gc.Handle) gc.Handle {
	env := &Environment{Kind: kind, Outer: outer.Unroot(), bindings: make(map[interner.Symbol]*binding, 4)}
	return heap.Alloc(env)
}

func asEnvironment(h gc.Handle) *Environment {
	if h.IsNil() {
		return nil
	}
	env, _ := h.Cell().Payload().(*Environment)
	return env
}

// Declare creates a new binding in this environment. mutable is false
// for const bindings; initialized is false for let/const (TDZ) and
// true for var/function/parameter bindings.
func (e *Environment) Declare(name interner.Symbol, mutable, initialized bool) {
	if _, ok := e.bindings[name]; ok {
		return
	}
	e.names = append(e.names, name)
	e.bindings[name] = &binding{mutable: mutable, initialized: initialized, canDelete: false}
}

// Initialize releases a let/const binding's TDZ, setting its value.
func (e *Environment) Initialize(name interner.Symbol, v value.Value) bool {
	b, ok := e.bindings[name]
	if !ok {
		return false
	}
	b.val = v
	b.initialized = true
	return true
}

// GetBinding reads name from this environment only (no outer walk).
// ok is false both when the name is undeclared and when it is
// declared but still in its temporal dead zone — callers distinguish
// via HasBinding if they need to throw a more specific ReferenceError.
func (e *Environment) GetBinding(name interner.Symbol) (value.Value, bool) {
	b, ok := e.bindings[name]
	if !ok || !b.initialized {
		return value.UndefinedValue, false
	}
	return b.val, true
}

// HasBinding reports whether name is declared in this environment,
// regardless of TDZ state.
func (e *Environment) HasBinding(name interner.Symbol) bool {
	_, ok := e.bindings[name]
	return ok
}

// InTDZ reports whether name is declared but not yet initialized.
func (e *Environment) InTDZ(name interner.Symbol) bool {
	b, ok := e.bindings[name]
	return ok && !b.initialized
}

// SetBinding assigns name's value. ok is false when name is not
// declared here; mutableViolation is true, and the value is left
// unchanged, when name is a const binding. There is no strictness
// parameter: the VM reports assignment to const as a TypeError in
// both modes, matching real engines.
func (e *Environment) SetBinding(name interner.Symbol, v value.Value) (ok, mutableViolation bool) {
	b, found := e.bindings[name]
	if !found {
		return false, false
	}
	if !b.mutable {
		return true, true
	}
	b.val = v
	b.initialized = true
	return true, false
}

// Names returns declared binding names in declaration order.
func (e *Environment) Names() []interner.Symbol { return e.names }

// Lookup walks outer environments starting at env, per spec.md's
// BindingLocator resolution. It returns the Environment owning the
// binding (for SetBinding / TDZ checks) or nil if unresolved.
func Lookup(heap *gc.Heap, start gc.Handle, name interner.Symbol) *Environment {
	for h := start; !h.IsNil(); {
		env := asEnvironment(h)
		if env == nil {
			return nil
		}
		if env.ObjectRecord != nil {
			if _, _, ok := env.ObjectRecord.GetOwnProperty(name); ok {
				return env
			}
		} else if env.HasBinding(name) {
			return env
		}
		h = env.Outer
	}
	return nil
}
