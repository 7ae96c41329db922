package vm

import (
	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/gc"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// CompletionKind tags a CompletionRecord's variant, per spec.md §3.
type CompletionKind uint8

const (
	CompletionNormal CompletionKind = iota
	CompletionReturn
	CompletionThrow
	CompletionBreak
	CompletionContinue
)

// Completion is the VM's CompletionRecord: every opcode handler and
// every frame execution ends in one of these.
type Completion struct {
	Kind      CompletionKind
	Value     value.Value
	TargetPC  uint32 // for Break/Continue pended across a finally
	HasTarget bool
}

func Normal(v value.Value) Completion  { return Completion{Kind: CompletionNormal, Value: v} }
func Return(v value.Value) Completion  { return Completion{Kind: CompletionReturn, Value: v} }
func Throw(v value.Value) Completion   { return Completion{Kind: CompletionThrow, Value: v} }
func (c Completion) IsAbrupt() bool    { return c.Kind != CompletionNormal }

// IteratorRecord is one entry on a CallFrame's iterator stack,
// supporting for-of/for-in iteration and IteratorClose on abrupt
// completion (spec.md §4.4).
type IteratorRecord struct {
	Object *value.Object
	Next   value.Value
	Done   bool
	IsAsync bool
}

// ExceptionFrame records one entry in the frame's active try region,
// layered on top of the CodeBlock's static ExceptionHandler table so
// the VM knows the env depth to restore on unwind.
type ExceptionFrame struct {
	Handler  bytecode.ExceptionHandler
	EnvDepth int // number of environments pushed since try-entry
}

// CallFrame is the VM's execution unit (spec.md §3).
type CallFrame struct {
	Code      *bytecode.CodeBlock
	PC        uint32
	StackBase int
	Env       gc.Handle
	This      value.Value
	NewTarget *value.Object
	Closure   *Closure

	Iterators []IteratorRecord
	ExcStack  []ExceptionFrame
	EnvDepth  int // environments pushed since function entry, for exception-frame bookkeeping

	Pending *Completion // abrupt completion parked while a finally block runs
	gen     *Generator  // non-nil when this frame is a suspended generator body
}

func NewCallFrame(code *bytecode.CodeBlock, stackBase int, env gc.Handle, this value.Value) *CallFrame {
	return &CallFrame{Code: code, StackBase: stackBase, Env: env, This: this}
}

// Closure is the VM's representation of a compiled function value,
// stored in an Object's InternalData when Object.Class is
// ClassFunction (spec.md §3 "Object data ... function").
type Closure struct {
	Template   *bytecode.FunctionTemplate
	Env        gc.Handle // the defining frame's Env, copied as is; the closure adds no root and no finalizer, so Heap.Collect reaches it only through a live frame in GCRoots
	HomeObject *value.Object
	Heap       *gc.Heap
	VM         *Machine
}

// Call implements value.Callable for an ordinary (non-generator,
// non-async) closure: run its body in a fresh CallFrame and return its
// completion value.
func (c *Closure) Call(this value.Value, args []value.Value) (value.Value, error) {
	return c.VM.invoke(c, this, args, nil)
}

// Construct implements value.Callable's [[Construct]]: `this` is a
// fresh ordinary object linked to the function's .prototype, per
// spec.md §4.4's new-expression semantics.
func (c *Closure) Construct(args []value.Value, newTarget *value.Object) (value.Value, error) {
	protoVal, err := newTarget.Get(interner.SymPrototype, value.ObjectValue(newTarget))
	if err != nil {
		return value.UndefinedValue, err
	}
	proto := (*value.Object)(nil)
	if protoVal.Kind() == value.Object_ {
		proto = protoVal.AsObject()
	}
	this := value.New(proto)
	result, err := c.VM.invoke(c, value.ObjectValue(this), args, newTarget)
	if err != nil {
		return value.UndefinedValue, err
	}
	if result.Kind() == value.Object_ {
		return result, nil
	}
	return value.ObjectValue(this), nil
}
