package compiler

import (
	"encoding/binary"

	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/interner"
)

// builder accumulates one CodeBlock's worth of bytecode, constants,
// locators, and line information. One builder exists per function body
// (and one for the top-level script/module), mirroring bytecode.CodeBlock
// one-to-one.
type builder struct {
	code       []byte
	constants  []bytecode.Value
	locators   []bytecode.BindingLocator
	handlers   []bytecode.ExceptionHandler
	lines      []bytecode.LineEntry
	lastLine   int
	sourceName string

	// numConsts dedups simple literal constants (numbers/strings) so a
	// repeated literal in a loop body doesn't grow the pool every pass.
	numConsts map[float64]uint32
	strConsts map[string]uint32
}

func newBuilder(sourceName string) *builder {
	return &builder{
		sourceName: sourceName,
		numConsts:  make(map[float64]uint32),
		strConsts:  make(map[string]uint32),
	}
}

func (b *builder) pos() uint32 { return uint32(len(b.code)) }

func (b *builder) markLine(line int) {
	if line == b.lastLine {
		return
	}
	b.lastLine = line
	b.lines = append(b.lines, bytecode.LineEntry{PC: b.pos(), Line: line})
}

func (b *builder) emit(op bytecode.Op) {
	b.code = append(b.code, byte(op))
}

func (b *builder) emitU32(op bytecode.Op, operand uint32) {
	b.code = append(b.code, byte(op))
	b.appendU32(operand)
}

func (b *builder) appendU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.code = append(b.code, buf[:]...)
}

// reserveU32 writes a placeholder operand and returns its byte offset so
// a jump target can be patched in once it's known.
func (b *builder) reserveU32(op bytecode.Op) uint32 {
	b.code = append(b.code, byte(op))
	at := b.pos()
	b.appendU32(0)
	return at
}

func (b *builder) patchU32(at uint32, v uint32) {
	binary.LittleEndian.PutUint32(b.code[at:at+4], v)
}

func (b *builder) emitByte(v byte) {
	b.code = append(b.code, v)
}

// constNumber returns (allocating if needed) a constant-pool index for a
// numeric literal.
func (b *builder) constNumber(n float64) uint32 {
	if idx, ok := b.numConsts[n]; ok {
		return idx
	}
	idx := uint32(len(b.constants))
	b.constants = append(b.constants, bytecode.Value{Kind: bytecode.ValueKindNumber, Num: n})
	b.numConsts[n] = idx
	return idx
}

func (b *builder) constString(s string) uint32 {
	if idx, ok := b.strConsts[s]; ok {
		return idx
	}
	idx := uint32(len(b.constants))
	b.constants = append(b.constants, bytecode.Value{Kind: bytecode.ValueKindString, Str: s})
	b.strConsts[s] = idx
	return idx
}

func (b *builder) constBigInt(digits string) uint32 {
	idx := uint32(len(b.constants))
	b.constants = append(b.constants, bytecode.Value{Kind: bytecode.ValueKindBigInt, BigIntDigits: digits})
	return idx
}

// constSymbol allocates a fresh constant-pool slot for a property-key
// Symbol. Property keys are not deduped against the literal tables above:
// OpGetProperty/OpSetProperty key straight off this index, and collapsing
// it with constString could let a plain string literal and a property key
// alias the same slot by accident.
func (b *builder) constSymbol(sym interner.Symbol) uint32 {
	idx := uint32(len(b.constants))
	b.constants = append(b.constants, bytecode.Value{Kind: bytecode.ValueKindSymbol, Sym: sym})
	return idx
}

func (b *builder) constTemplate(t *bytecode.FunctionTemplate) uint32 {
	idx := uint32(len(b.constants))
	b.constants = append(b.constants, bytecode.Value{Kind: bytecode.ValueKindTemplate, Template: t})
	return idx
}

// locator allocates a BindingLocator slot and returns its index, the
// operand OpGetBinding/OpSetBinding/OpInitBinding/OpDeclareVar read.
func (b *builder) locator(l bytecode.BindingLocator) uint32 {
	idx := uint32(len(b.locators))
	b.locators = append(b.locators, l)
	return idx
}

// handler allocates an exception-table entry and returns its index, the
// operand OpPushExceptionFrame reads.
func (b *builder) handler(h bytecode.ExceptionHandler) uint32 {
	idx := uint32(len(b.handlers))
	b.handlers = append(b.handlers, h)
	return idx
}

func (b *builder) finish(numLocals int) *bytecode.CodeBlock {
	return &bytecode.CodeBlock{
		Bytecode:   b.code,
		Constants:  b.constants,
		Locators:   b.locators,
		Handlers:   b.handlers,
		Lines:      b.lines,
		NumLocals:  numLocals,
		SourceName: b.sourceName,
	}
}
