// Package bytecode defines the instruction set and CodeBlock format
// the compiler emits and the VM executes, per spec.md §4.3.
package bytecode

import "github.com/standardbeagle/jsengine/internal/interner"

// Op identifies a single VM instruction. The instruction stream is a
// flat []byte: an Op byte followed by a fixed number of operands,
// decoded by the dispatch loop in internal/vm. Operands are
// little-endian uint32s, except that OpBinary and OpUnary take one
// operand byte and OpUpdate takes two.
type Op byte

const (
	OpNop Op = iota

	// Stack manipulation.
	OpLoadConst  // operand: constant pool index
	OpLoadUndefined
	OpLoadNull
	OpLoadTrue
	OpLoadFalse
	OpDup
	OpPop
	OpSwap

	// Bindings.
	OpGetBinding    // operand: binding locator index
	OpSetBinding    // operand: binding locator index
	OpInitBinding   // operand: binding locator index (let/const TDZ release)
	OpDeclareVar    // operand: binding locator index
	OpPushScope     // enter a new lexical Environment
	OpPopScope

	// Object / property access.
	OpNewObject
	OpNewArray
	OpGetProperty    // operand: constant pool index (property-key Symbol), uses inline cache slot
	OpSetProperty
	OpGetPropertyComputed
	OpSetPropertyComputed
	OpGetPropertyOptional // short-circuits to undefined if the object is null/undefined
	OpDeleteProperty
	OpDefineMethod
	OpDefineGetter
	OpDefineSetter
	OpCopyDataProperties // object spread

	// Arithmetic & comparison — operands select the concrete operator
	// so the VM can dispatch with one switch rather than one opcode
	// per operator (spec.md §9 "dense opcode space").
	OpBinary   // operand: BinaryOp
	OpUnary    // operand: UnaryOp
	OpUpdate   // operand: UpdateOp; second operand: 1 if prefix

	// Control flow. Jump operands are absolute bytecode offsets,
	// patched by the compiler once the jump target is known.
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpJumpIfNullish // for ?? / ?.

	// Calls.
	OpCall      // operand: argument count
	OpCallSpread
	OpNew
	OpNewSpread
	OpReturn
	OpThrow

	// Functions & classes.
	OpMakeFunction // operand: constant pool index of a *FunctionTemplate
	OpMakeArrow
	OpMakeClass
	OpMakeGenerator

	// Iteration protocol.
	OpGetIterator
	OpIteratorNext
	OpIteratorClose

	// Generators / async.
	OpYield
	OpAwait

	// try/catch/finally support. The exception table in CodeBlock maps
	// pc ranges to handler offsets; these opcodes manage the small
	// amount of state the VM can't express purely via the table
	// (finally blocks re-entered for normal/break/continue/return).
	OpPushExceptionFrame
	OpPopExceptionFrame
	OpFinallyReturn // resumes the pended completion after a finally block

	// this / new.target / super.
	OpLoadThis
	OpLoadNewTarget
	OpLoadSuper

	// Template literals.
	OpConcat // operand: number of strings to concatenate

	OpHalt
)

// BinaryOp enumerates the operators OpBinary dispatches on.
type BinaryOp byte

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinExp
	BinEq
	BinNeq
	BinStrictEq
	BinStrictNeq
	BinLt
	BinGt
	BinLe
	BinGe
	BinInstanceOf
	BinIn
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinUShr
)

// UnaryOp enumerates the operators OpUnary dispatches on.
type UnaryOp byte

const (
	UnaryNeg UnaryOp = iota
	UnaryPlus
	UnaryNot
	UnaryBitNot
	UnaryTypeof
	UnaryVoid
	UnaryDelete
)

// UpdateOp distinguishes ++ from --.
type UpdateOp byte

const (
	UpdateIncrement UpdateOp = iota
	UpdateDecrement
)

// LocatorKind distinguishes where a binding physically lives, mirroring
// spec.md §4.3/§4.5's fast-path/slow-path split for variable access.
type LocatorKind byte

const (
	LocatorLocal LocatorKind = iota // stack slot in the current CallFrame
	LocatorUpvalue                   // captured from an enclosing function's Environment
	LocatorGlobal                    // global Environment record, looked up by Symbol
	LocatorDynamic                   // unresolved at compile time (eval / with); looked up by Symbol at runtime
)

// BindingLocator is the compiler's answer to "where does this
// identifier live", precomputed so the VM never does a name lookup on
// the hot path — spec.md §9's named design goal for variable access.
type BindingLocator struct {
	Kind  LocatorKind
	Name  interner.Symbol
	Slot  uint32 // stack slot index for LocatorLocal/LocatorUpvalue
	Depth uint32 // number of enclosing Environments to walk for LocatorUpvalue
}

// ExceptionHandler maps a pc range in the owning CodeBlock to a catch
// and/or finally entry point. The VM walks this table on OpThrow and
// on early exits (return/break/continue) that must still run an
// enclosing finally block.
type ExceptionHandler struct {
	StartPC   uint32
	EndPC     uint32
	CatchPC   uint32 // 0 means no catch clause
	FinallyPC uint32 // 0 means no finally clause
	StackDepth uint32 // value stack depth to restore before the handler runs
}

// LineEntry maps a pc to a source line, used for stack traces.
type LineEntry struct {
	PC   uint32
	Line int
}

// FunctionTemplate is the compile-time description of a function
// literal; the VM instantiates a closure object from one of these plus
// a captured Environment each time OpMakeFunction/OpMakeArrow runs.
type FunctionTemplate struct {
	Name        interner.Symbol
	ParamCount  int
	HasRestParam bool
	IsGenerator bool
	IsAsync     bool
	IsArrow     bool
	IsStrict    bool
	Code        *CodeBlock
}

// CodeBlock is the compiled form of one function body or top-level
// script/module, per spec.md §4.3.
type CodeBlock struct {
	Bytecode  []byte
	Constants []Value // see Value below; indices referenced by OpLoadConst et al.
	Locators  []BindingLocator
	Handlers  []ExceptionHandler
	Lines     []LineEntry
	NumLocals int // stack slots reserved for parameters + local bindings
	SourceName string
}

// Value is the constant-pool element type. The compiler only ever
// places immutable literals and FunctionTemplates into the pool;
// everything else is produced at runtime by the VM via internal/value.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Sym  interner.Symbol
	BigIntDigits string
	Template *FunctionTemplate
}

type ValueKind byte

const (
	ValueKindNumber ValueKind = iota
	ValueKindString
	ValueKindSymbol
	ValueKindBigInt
	ValueKindTemplate
	ValueKindRegExp
)

// LineForPC returns the source line containing pc, or 0 if unknown.
// Lines is kept sorted by PC; a linear scan is fine since stack traces
// are not a hot path.
func (c *CodeBlock) LineForPC(pc uint32) int {
	line := 0
	for _, e := range c.Lines {
		if e.PC > pc {
			break
		}
		line = e.Line
	}
	return line
}

// HandlerFor returns the innermost exception handler covering pc, or
// (ExceptionHandler{}, false) if pc is not protected by a try block.
func (c *CodeBlock) HandlerFor(pc uint32) (ExceptionHandler, bool) {
	best := ExceptionHandler{}
	found := false
	for _, h := range c.Handlers {
		if pc < h.StartPC || pc >= h.EndPC {
			continue
		}
		if !found || (h.EndPC-h.StartPC) < (best.EndPC-best.StartPC) {
			best = h
			found = true
		}
	}
	return best, found
}
