package vm

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/jsengine/internal/alloc"
	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/cache"
	"github.com/standardbeagle/jsengine/internal/gc"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/jobqueue"
	"github.com/standardbeagle/jsengine/internal/value"
)

// DefaultMaxCallDepth bounds recursion before the VM raises a
// RangeError rather than exhausting the Go goroutine stack underneath
// it (spec.md §4.4 "stack overflow is a catchable RangeError, not a
// process crash").
const DefaultMaxCallDepth = 2048

// ThrownValue wraps a JS value thrown via `throw`, a runtime TypeError/
// ReferenceError/RangeError the VM itself raises, or a rejected
// `await`ed promise — the single error type that crosses a Go function
// boundary whenever a JS-visible exception is in flight.
type ThrownValue struct{ Value value.Value }

func (t *ThrownValue) Error() string { return "uncaught exception: " + toStringValue(t.Value) }

// Machine is one ECMAScript execution context: its own heap, global
// object/environment, value stack, and job queue (spec.md §5 "a
// multi-threaded embedder must give each thread its own engine").
type Machine struct {
	Heap     *gc.Heap
	Interner *interner.Interner
	Global   *value.Object
	GlobalEnv gc.Handle
	Jobs     *jobqueue.Queue
	PropCache *cache.PropertyCache

	stack        []value.Value
	stackPool    *alloc.SlabAllocator[value.Value]
	frames       []*CallFrame
	maxCallDepth int

	// ErrorFactory, once internal/builtins has installed the real
	// Error/TypeError/RangeError/... prototype chain (internal/jserr),
	// replaces newError's bootstrap placeholder so every throw the VM
	// raises internally is `instanceof` the same constructors script
	// code sees. Nil until Install has run (e.g. during the engine's
	// own bootstrap compile).
	ErrorFactory func(kind, msg string) *value.Object

	// Prototypes wired by internal/builtins.Install so primitive
	// wrapper objects and array literals created by the VM itself
	// (toObject, newArrayValue) chain to the same prototypes script
	// code extends, instead of a bare null-proto object. Nil fields
	// fall back to the previous no-prototype behavior.
	ObjectProto    *value.Object
	ArrayProto     *value.Object
	StringProto    *value.Object
	FunctionProto  *value.Object
	PromiseProto   *value.Object
	GeneratorProto *value.Object
}

// NewMachine constructs a Machine with a fresh heap, global object and
// environment, job queue, and inline property cache. in is the shared
// Interner every CodeBlock this Machine executes was compiled against.
func NewMachine(in *interner.Interner) *Machine {
	heap := gc.NewHeap()
	global := value.New(nil)
	globalEnvHandle := NewEnvironment(heap, EnvGlobal, gc.NilHandle)
	asEnvironment(globalEnvHandle).ObjectRecord = global

	m := &Machine{
		Heap:         heap,
		Interner:     in,
		Global:       global,
		GlobalEnv:    globalEnvHandle,
		Jobs:         jobqueue.New(),
		PropCache:    cache.NewPropertyCache(0),
		stackPool:    alloc.NewSlabAllocatorWithDefaults[value.Value](),
		maxCallDepth: DefaultMaxCallDepth,
	}
	m.stack = m.stackPool.Get(64)
	heap.AddRootProvider(m)
	return m
}

// SetMaxCallDepth overrides DefaultMaxCallDepth, e.g. from an
// embedder's config.Runtime.MaxCallDepth.
func (m *Machine) SetMaxCallDepth(n int) { m.maxCallDepth = n }

// GCRoots implements gc.RootProvider: every environment reachable from
// a live CallFrame, plus the global environment, is a root regardless
// of whether anything else still points to it.
func (m *Machine) GCRoots(visit func(*gc.Cell)) {
	if c := m.GlobalEnv.Cell(); c != nil {
		visit(c)
	}
	for _, f := range m.frames {
		if c := f.Env.Cell(); c != nil {
			visit(c)
		}
		if f.Closure != nil {
			if c := f.Closure.Env.Cell(); c != nil {
				visit(c)
			}
		}
	}
}

// RunScript executes a top-level CodeBlock (script or module body) in
// the global environment and returns its completion value.
func (m *Machine) RunScript(code *bytecode.CodeBlock) (value.Value, error) {
	frame := NewCallFrame(code, len(m.stack), m.GlobalEnv, value.ObjectValue(m.Global))
	for i := 0; i < code.NumLocals; i++ {
		m.stack = append(m.stack, value.UndefinedValue)
	}
	m.frames = append(m.frames, frame)
	comp, err := m.execute(frame)
	m.frames = m.frames[:len(m.frames)-1]
	m.stack = m.stack[:frame.StackBase]
	if err != nil {
		return value.UndefinedValue, err
	}
	if comp.Kind == CompletionThrow {
		return value.UndefinedValue, &ThrownValue{Value: comp.Value}
	}
	return comp.Value, nil
}

// ---- value stack -----------------------------------------------------

func (m *Machine) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() value.Value {
	n := len(m.stack) - 1
	v := m.stack[n]
	m.stack = m.stack[:n]
	return v
}

func (m *Machine) top() value.Value { return m.stack[len(m.stack)-1] }

// popN pops n values off the stack and returns them in original
// (bottom-to-top, i.e. push-order) order.
func (m *Machine) popN(n int) []value.Value {
	if n == 0 {
		return nil
	}
	start := len(m.stack) - n
	out := make([]value.Value, n)
	copy(out, m.stack[start:])
	m.stack = m.stack[:start]
	return out
}

// ---- call frame management -------------------------------------------

func (m *Machine) pushCall(c *Closure, this value.Value, args []value.Value, newTarget *value.Object) *CallFrame {
	base := len(m.stack)
	n := c.Template.Code.NumLocals
	for i := 0; i < n; i++ {
		m.stack = append(m.stack, value.UndefinedValue)
	}
	for i := 0; i < c.Template.ParamCount && i < len(args); i++ {
		m.stack[base+i] = args[i]
	}
	if c.Template.HasRestParam {
		restIdx := c.Template.ParamCount
		var rest []value.Value
		if len(args) > restIdx {
			rest = args[restIdx:]
		}
		if restIdx < n {
			m.stack[base+restIdx] = m.newArrayValue(rest)
		}
	}
	frame := NewCallFrame(c.Template.Code, base, c.Env, this)
	frame.NewTarget = newTarget
	frame.Closure = c
	m.frames = append(m.frames, frame)
	return frame
}

func (m *Machine) popCall() {
	f := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.stack = m.stack[:f.StackBase]
}

// invoke runs an ordinary (non-generator) closure body to completion
// and returns its result value, or spawns a Generator and returns the
// generator object immediately when the closure is a generator
// function (spec.md §4.4's "generators suspend the call, they do not
// run it").
func (m *Machine) invoke(c *Closure, this value.Value, args []value.Value, newTarget *value.Object) (value.Value, error) {
	if len(m.frames) >= m.maxCallDepth {
		return value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("RangeError", "Maximum call stack size exceeded"))}
	}
	if c.Template.IsGenerator {
		g := m.startGenerator(c, this, args)
		obj := value.NewWithClass(m.GeneratorProto, value.ClassObject)
		obj.InternalData = g
		return value.ObjectValue(obj), nil
	}
	frame := m.pushCall(c, this, args, newTarget)
	comp, err := m.execute(frame)
	m.popCall()
	if err != nil {
		return value.UndefinedValue, err
	}
	if comp.Kind == CompletionThrow {
		return value.UndefinedValue, &ThrownValue{Value: comp.Value}
	}
	return comp.Value, nil
}

// ---- errors ------------------------------------------------------------

// wrapError normalizes any error a fallible operation returned into a
// ThrownValue carrying a JS Error object, so every throw site in the
// dispatch loop can treat exceptions uniformly.
func (m *Machine) wrapError(err error) *ThrownValue {
	switch e := err.(type) {
	case *ThrownValue:
		return e
	case *BinaryOpError:
		return &ThrownValue{Value: value.ObjectValue(m.newError("TypeError", e.Msg))}
	default:
		return &ThrownValue{Value: value.ObjectValue(m.newError("Error", err.Error()))}
	}
}

// NewThrownError builds a ThrownValue of the given ECMAScript error
// kind (e.g. "TypeError", "RangeError"), for internal/builtins and
// internal/context to raise spec-shaped exceptions without reaching
// into the VM's unexported error plumbing.
func (m *Machine) NewThrownError(kind, msg string) error {
	return &ThrownValue{Value: value.ObjectValue(m.newError(kind, msg))}
}

// newError builds a minimal Error-shaped object: own name/message/stack
// data properties and no prototype chain. internal/builtins installs
// the real Error.prototype family and is expected to replace callers
// of this with construction through that chain; this stays as the
// VM-internal fallback for errors the interpreter itself raises before
// any such builtin has run (e.g. during bootstrap).
func (m *Machine) newError(name, msg string) *value.Object {
	if m.ErrorFactory != nil {
		return m.ErrorFactory(name, msg)
	}
	o := value.NewWithClass(nil, value.ClassError)
	o.DefineDataProperty(interner.SymName, value.Str(name), value.DefaultDataAttributes())
	o.DefineDataProperty(interner.SymMessage, value.Str(msg), value.DefaultDataAttributes())
	o.DefineDataProperty(interner.SymStack, value.Str(name+": "+msg), value.DefaultDataAttributes())
	return o
}

// referenceError raises a ReferenceError for an unresolved binding,
// suggesting the closest in-scope name by edit distance when one
// exists (spec.md §7's "did you mean" diagnostic).
func (m *Machine) referenceError(f *CallFrame, sym interner.Symbol) error {
	name := m.Interner.Lookup(sym)
	msg := name + " is not defined"
	if suggestion := m.suggestBinding(f, name); suggestion != "" && suggestion != name {
		msg += " (did you mean '" + suggestion + "'?)"
	}
	return &ThrownValue{Value: value.ObjectValue(m.newError("ReferenceError", msg))}
}

func (m *Machine) suggestBinding(f *CallFrame, name string) string {
	var candidates []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			candidates = append(candidates, s)
		}
	}
	for env := asEnvironment(f.Env); env != nil; env = asEnvironment(env.Outer) {
		if env.ObjectRecord != nil {
			for _, s := range env.ObjectRecord.OwnPropertyNames() {
				add(m.Interner.Lookup(s))
			}
			continue
		}
		for _, s := range env.Names() {
			add(m.Interner.Lookup(s))
		}
	}
	best := ""
	var bestScore float32
	for _, c := range candidates {
		score, err := edlib.StringsSimilarity(name, c, edlib.Levenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore, best = score, c
		}
	}
	if bestScore < 0.5 {
		return ""
	}
	return best
}

// handleError routes err to the nearest exception handler covering
// atPC in f's CodeBlock. If one is found, the stack is unwound to the
// handler's StackDepth, the thrown value is pushed (the catch/finally
// block's calling convention expects it there), *pc is updated to the
// handler entry point, and handled is true — the dispatch loop should
// `continue`. If no handler covers atPC, handled is false and comp is
// the Throw completion the caller should return from execute.
func (m *Machine) handleError(f *CallFrame, atPC uint32, err error, pc *uint32) (comp Completion, handled bool) {
	tv := m.wrapError(err)
	h, found := f.Code.HandlerFor(atPC)
	if !found {
		return Throw(tv.Value), false
	}
	m.stack = m.stack[:f.StackBase+int(h.StackDepth)]
	m.push(tv.Value)
	if h.CatchPC != 0 {
		*pc = h.CatchPC
	} else {
		*pc = h.FinallyPC
	}
	return Completion{}, true
}

// ---- binding resolution -------------------------------------------------

// resolveGet implements a BindingLocator's read side. LocatorLocal is
// the fast path — a direct index into this frame's reserved stack
// slots — matching spec.md §9's "the VM never does a name lookup on
// the hot path" goal. The other kinds fall back to the Environment
// chain, resolved by Symbol rather than a precomputed slot offset
// (a documented simplification: see DESIGN.md's Environment entry).
func (m *Machine) resolveGet(f *CallFrame, loc bytecode.BindingLocator) (value.Value, error) {
	switch loc.Kind {
	case bytecode.LocatorLocal:
		return m.stack[f.StackBase+int(loc.Slot)], nil
	case bytecode.LocatorUpvalue:
		env := asEnvironment(f.Env)
		for i := uint32(0); i < loc.Depth && env != nil; i++ {
			env = asEnvironment(env.Outer)
		}
		if env == nil {
			return value.UndefinedValue, m.referenceError(f, loc.Name)
		}
		if env.InTDZ(loc.Name) {
			return value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("ReferenceError",
				"Cannot access '"+m.Interner.Lookup(loc.Name)+"' before initialization"))}
		}
		v, ok := env.GetBinding(loc.Name)
		if !ok {
			return value.UndefinedValue, m.referenceError(f, loc.Name)
		}
		return v, nil
	case bytecode.LocatorGlobal:
		return m.Global.Get(loc.Name, value.ObjectValue(m.Global))
	default: // LocatorDynamic
		env := Lookup(m.Heap, f.Env, loc.Name)
		if env == nil {
			return value.UndefinedValue, m.referenceError(f, loc.Name)
		}
		if env.ObjectRecord != nil {
			return env.ObjectRecord.Get(loc.Name, value.ObjectValue(env.ObjectRecord))
		}
		if env.InTDZ(loc.Name) {
			return value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("ReferenceError",
				"Cannot access '"+m.Interner.Lookup(loc.Name)+"' before initialization"))}
		}
		v, _ := env.GetBinding(loc.Name)
		return v, nil
	}
}

func (m *Machine) resolveSet(f *CallFrame, loc bytecode.BindingLocator, v value.Value) error {
	switch loc.Kind {
	case bytecode.LocatorLocal:
		m.stack[f.StackBase+int(loc.Slot)] = v
		return nil
	case bytecode.LocatorUpvalue:
		env := asEnvironment(f.Env)
		for i := uint32(0); i < loc.Depth && env != nil; i++ {
			env = asEnvironment(env.Outer)
		}
		if env == nil {
			return m.referenceError(f, loc.Name)
		}
		if ok, violation := env.SetBinding(loc.Name, v); !ok {
			return m.referenceError(f, loc.Name)
		} else if violation {
			return &ThrownValue{Value: value.ObjectValue(m.newError("TypeError",
				"Assignment to constant variable."))}
		}
		return nil
	case bytecode.LocatorGlobal:
		return m.Global.Set(loc.Name, v)
	default: // LocatorDynamic
		env := Lookup(m.Heap, f.Env, loc.Name)
		if env == nil {
			// Sloppy-mode implicit global, matching real engines'
			// historical (if regrettable) behavior for bare assignment
			// to an undeclared name.
			return m.Global.Set(loc.Name, v)
		}
		if env.ObjectRecord != nil {
			return env.ObjectRecord.Set(loc.Name, v)
		}
		if ok, violation := env.SetBinding(loc.Name, v); !ok {
			return m.referenceError(f, loc.Name)
		} else if violation {
			return &ThrownValue{Value: value.ObjectValue(m.newError("TypeError",
				"Assignment to constant variable."))}
		}
		return nil
	}
}

// ---- property access / inline cache -------------------------------------

func (m *Machine) toObject(v value.Value) (*value.Object, error) {
	switch v.Kind() {
	case value.Object_:
		return v.AsObject(), nil
	case value.String:
		o := value.NewWithClass(m.StringProto, value.ClassObject)
		o.DefineDataProperty(interner.SymLength, value.Int32(int32(len([]rune(v.AsString())))), value.AttrEnumerable)
		o.InternalData = v.AsString()
		return o, nil
	case value.Undefined, value.Null:
		return nil, &ThrownValue{Value: value.ObjectValue(m.newError("TypeError", "Cannot convert undefined or null to object"))}
	default:
		return value.NewWithClass(m.ObjectProto, value.ClassObject), nil
	}
}

// getProperty implements OpGetProperty, consulting internal/cache's
// inline cache before falling back to Object.Get's full prototype
// walk, and priming the cache on a cacheable own-data-property hit.
func (m *Machine) getProperty(f *CallFrame, pc uint32, objv value.Value, sym interner.Symbol) (value.Value, error) {
	obj, err := m.toObject(objv)
	if err != nil {
		return value.UndefinedValue, err
	}
	site := cache.Site{Code: f.Code, PC: pc}
	if shape := obj.Shape(); shape != nil {
		if slot, ok := m.PropCache.Lookup(site, shape); ok {
			return obj.Slot(slot), nil
		}
	}
	if shape := obj.Shape(); shape != nil {
		if slot, desc, found := shape.Lookup(sym); found && !desc.IsAccessor() {
			m.PropCache.Store(site, shape, slot)
		}
	}
	return obj.Get(sym, objv)
}

func (m *Machine) setProperty(objv value.Value, sym interner.Symbol, v value.Value) error {
	obj, err := m.toObject(objv)
	if err != nil {
		return err
	}
	return obj.Set(sym, v)
}

func (m *Machine) toPropertyKey(v value.Value) interner.Symbol {
	if v.Kind() == value.Symbol {
		return v.AsSymbol()
	}
	return m.Interner.Intern(toStringValue(v))
}

// ---- array / string helpers ---------------------------------------------

func (m *Machine) newArrayValue(elems []value.Value) value.Value {
	o := value.NewWithClass(m.ArrayProto, value.ClassArray)
	for i, v := range elems {
		o.SetElement(uint32(i), v)
	}
	o.SetLength(uint32(len(elems)))
	return value.ObjectValue(o)
}

func concatStrings(parts []value.Value) value.Value {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(toStringValue(p))
	}
	return value.Str(b.String())
}

// ---- iterator protocol ---------------------------------------------------

func (m *Machine) getIterator(v value.Value) (*value.Object, value.Value, error) {
	obj, err := m.toObject(v)
	if err != nil {
		return nil, value.UndefinedValue, err
	}
	iterFnV, err := obj.Get(interner.SymIteratorKey, v)
	if err != nil {
		return nil, value.UndefinedValue, err
	}
	if iterFnV.Kind() != value.Object_ || iterFnV.AsObject().Callable == nil {
		return nil, value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("TypeError", "value is not iterable"))}
	}
	iterV, err := iterFnV.AsObject().Callable.Call(v, nil)
	if err != nil {
		return nil, value.UndefinedValue, err
	}
	if iterV.Kind() != value.Object_ {
		return nil, value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("TypeError", "iterator result is not an object"))}
	}
	iterObj := iterV.AsObject()
	nextFn, err := iterObj.Get(interner.SymNext, iterV)
	if err != nil {
		return nil, value.UndefinedValue, err
	}
	return iterObj, nextFn, nil
}

func (m *Machine) iteratorStep(rec *IteratorRecord) (bool, value.Value, error) {
	if rec.Next.Kind() != value.Object_ || rec.Next.AsObject().Callable == nil {
		return true, value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("TypeError", "iterator has no next method"))}
	}
	resV, err := rec.Next.AsObject().Callable.Call(value.ObjectValue(rec.Object), nil)
	if err != nil {
		return true, value.UndefinedValue, err
	}
	if resV.Kind() != value.Object_ {
		return true, value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("TypeError", "iterator result is not an object"))}
	}
	resObj := resV.AsObject()
	doneV, _ := resObj.Get(interner.SymDone, resV)
	valueV, _ := resObj.Get(interner.SymValue, resV)
	done := doneV.ToBoolean()
	rec.Done = done
	return done, valueV, nil
}

// closeIterator best-effort calls .return() on an abandoned iterator,
// per spec.md §4.4's IteratorClose; a missing or failing return method
// is not itself an error worth surfacing over whatever abrupt
// completion triggered the close.
func (m *Machine) closeIterator(rec IteratorRecord) {
	if rec.Done || rec.Object == nil {
		return
	}
	retV, err := rec.Object.Get(interner.SymReturnKey, value.ObjectValue(rec.Object))
	if err != nil || retV.Kind() != value.Object_ || retV.AsObject().Callable == nil {
		return
	}
	_, _ = retV.AsObject().Callable.Call(value.ObjectValue(rec.Object), nil)
}

// IterableToSlice drains v's @@iterator into a slice, exposed for
// internal/builtins (Array.from, spread, destructuring of arbitrary
// iterables) so it doesn't need to reimplement the iterator protocol.
func (m *Machine) IterableToSlice(v value.Value) ([]value.Value, error) {
	return m.iterableToSlice(v)
}

func (m *Machine) iterableToSlice(v value.Value) ([]value.Value, error) {
	iterObj, nextFn, err := m.getIterator(v)
	if err != nil {
		return nil, err
	}
	rec := IteratorRecord{Object: iterObj, Next: nextFn}
	var out []value.Value
	for {
		done, val, err := m.iteratorStep(&rec)
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		out = append(out, val)
	}
}
