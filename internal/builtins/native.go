// Package builtins installs the engine's standard library onto a
// Machine's global object and prototype chain: Object, Array,
// Function, the Map/Set/WeakMap/WeakSet family, BigInt, JSON, and the
// handful of global functions (parseInt, encodeURI, ...) spec.md §1
// calls out as in-scope built-ins. The full Temporal/Intl/RegExp/Date
// surface stays an extension point per spec.md's Non-goals; only a
// feature-flagged Temporal stub (SPEC_FULL.md) is wired here.
package builtins

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// NativeFunc adapts a Go closure to value.Callable, backing both the
// standard library's own methods and the embedding API's
// register_native_function seam (spec.md §6), so host-provided and
// engine-provided functions are indistinguishable to script code.
type NativeFunc struct {
	Name string
	fn   func(this value.Value, args []value.Value) (value.Value, error)
}

func (n *NativeFunc) Call(this value.Value, args []value.Value) (value.Value, error) {
	return n.fn(this, args)
}

// Construct lets a NativeFunc stand in for `new F()` too; most library
// methods never get constructed, but a handful (Object, Array, Number,
// Boolean) route both Call and Construct through the same entry point, since
// the constructor logic doesn't care whether `this` was freshly
// allocated by OpNew or passed explicitly.
func (n *NativeFunc) Construct(args []value.Value, newTarget *value.Object) (value.Value, error) {
	return n.fn(value.UndefinedValue, args)
}

// Def installs a native method/constructor named name on proto/target.
func Def(in *interner.Interner, target *value.Object, name string, arity int, fn func(value.Value, []value.Value) (value.Value, error)) *value.Object {
	o := value.NewWithClass(nil, value.ClassFunction)
	o.Callable = &NativeFunc{Name: name, fn: fn}
	o.DefineDataProperty(interner.SymName, value.Str(name), value.AttrConfigurable)
	o.DefineDataProperty(interner.SymLength, value.Int32(int32(arity)), value.AttrConfigurable)
	target.DefineDataProperty(in.Intern(name), value.ObjectValue(o), value.AttrWritable|value.AttrConfigurable)
	return o
}

// arg returns args[i] or undefined, since almost every native method
// below is more readable written against a fixed-arity signature than
// a bounds-checked slice.
func arg(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.UndefinedValue
	}
	return args[i]
}

// Registry is the set of prototypes and constructors Install builds,
// handed back so internal/context can expose them to the embedder
// (e.g. to recognize a returned Map without re-deriving its shape).
type Registry struct {
	Object   *value.Object
	Array    *value.Object
	Function *value.Object
	String   *value.Object
	Number   *value.Object
	Boolean  *value.Object
	Map      *value.Object
	Set      *value.Object
	WeakMap  *value.Object
	WeakSet  *value.Object
	JSON     *value.Object
}
