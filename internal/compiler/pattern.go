package compiler

import (
	"strconv"

	"github.com/standardbeagle/jsengine/internal/ast"
	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/token"
)

// patternSink tells compilePattern how to consume a leaf binding target.
// Declaration contexts (let/const/var/params/catch) bind through
// identifier alone; plain destructuring assignment also allows a member
// expression target, though this engine only supports the identifier
// case — see assignSink's member field.
type patternSink struct {
	identifier func(name interner.Symbol)
	member     func(me *ast.MemberExpression)
}

// declSink builds leaf bindings the declaration way: declare into the
// current lexical scope (harmless if hoisting already declared it) and
// release its TDZ with the value on top of the stack.
func (c *Compiler) declSink() patternSink {
	return patternSink{
		identifier: func(name interner.Symbol) {
			c.declareLexical(name)
			c.emitBindingInit(name)
		},
	}
}

// assignSink builds leaf bindings the plain-assignment way: store
// through an existing binding, discarding the stored-value result each
// pattern leaf normally leaves behind (OpSetBinding peeks) so the
// pattern as a whole stays stack-neutral. Destructuring assignment into
// a member expression (e.g. `[obj.a] = arr`) is a documented
// limitation — it's rare enough in practice that failing loudly at
// compile time beats silently mis-compiling it.
func (c *Compiler) assignSink() patternSink {
	b := c.fc.b
	return patternSink{
		identifier: func(name interner.Symbol) {
			c.emitSetBinding(name)
			b.emit(bytecode.OpPop)
		},
		member: func(me *ast.MemberExpression) {
			c.fail("destructuring assignment into a member expression target is not supported")
		},
	}
}

// propertyKeySymbol resolves a non-computed property-key node (an
// Identifier or a string/number Literal) to the Symbol OpGetProperty/
// OpSetProperty key off of.
func (c *Compiler) propertyKeySymbol(key ast.Node) interner.Symbol {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name
	case *ast.Literal:
		if k.Kind == token.StringLiteral {
			return c.in.Intern(k.Str)
		}
		return c.in.Intern(formatNumberKey(k.Num))
	case *ast.PrivateIdentifier:
		return k.Name
	}
	c.fail("unsupported property key node %T", key)
	return 0
}

func formatNumberKey(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// compilePattern lowers a (possibly destructuring) binding target,
// consuming exactly one value already on top of the operand stack.
func (c *Compiler) compilePattern(pat ast.Node, sink patternSink) {
	switch p := pat.(type) {
	case *ast.Identifier:
		sink.identifier(p.Name)
	case *ast.MemberExpression:
		if sink.member == nil {
			c.fail("invalid binding target")
			return
		}
		sink.member(p)
	case *ast.AssignmentPattern:
		c.compileDefaultedPattern(p, sink)
	case *ast.ArrayPattern:
		c.compileArrayPattern(p, sink)
	case *ast.ObjectPattern:
		c.compileObjectPattern(p, sink)
	case *ast.RestElement:
		c.compilePattern(p.Argument, sink)
	default:
		c.fail("unsupported binding pattern %T", pat)
	}
}

// compileDefaultedPattern handles an AssignmentPattern (a default value
// on a destructured element or parameter): if the incoming value is
// strictly undefined, the default expression is evaluated and bound
// instead.
func (c *Compiler) compileDefaultedPattern(p *ast.AssignmentPattern, sink patternSink) {
	b := c.fc.b
	// stack: [v]
	b.emit(bytecode.OpDup)           // [v,v]
	b.emit(bytecode.OpLoadUndefined) // [v,v,undefined]
	b.emit(bytecode.OpBinary)
	b.emitByte(byte(bytecode.BinStrictEq)) // [v,bool]
	keepAt := b.reserveU32(bytecode.OpJumpIfFalse) // pops bool; false (not undefined) -> keep v as-is
	// fallthrough: v was undefined, replace it with the default
	b.emit(bytecode.OpPop) // discard v -> []
	c.compileExpr(p.Right) // [defaultVal]
	endAt := b.reserveU32(bytecode.OpJump)
	b.patchU32(keepAt, b.pos())
	// keep-path: stack is [v], untouched
	b.patchU32(endAt, b.pos())
	c.compilePattern(p.Left, sink)
}

// compileArrayPattern destructures an iterable already on top of the
// stack into p's elements, consuming it.
func (c *Compiler) compileArrayPattern(p *ast.ArrayPattern, sink patternSink) {
	b := c.fc.b
	b.emit(bytecode.OpGetIterator) // consumes the iterable; appends an IteratorRecord

	elements := p.Elements
	var rest *ast.RestElement
	if n := len(elements); n > 0 {
		if re, ok := elements[n-1].(*ast.RestElement); ok {
			rest = re
			elements = elements[:n-1]
		}
	}

	for _, el := range elements {
		b.emit(bytecode.OpIteratorNext) // [...,done,val]
		b.emit(bytecode.OpSwap)         // [...,val,done]
		b.emit(bytecode.OpPop)          // [...,val]
		if el == nil {
			b.emit(bytecode.OpPop) // elision: discard
			continue
		}
		c.compilePattern(el, sink)
	}

	if rest != nil {
		b.emit(bytecode.OpNewArray)
		b.appendU32(0) // [arr]
		pushSym := c.in.Intern("push")
		loopStart := b.pos()
		b.emit(bytecode.OpDup) // [arr,arr]
		b.emit(bytecode.OpDup) // [arr,arr,arr]
		b.emit(bytecode.OpIteratorNext) // [arr,arr,arr,done,val]
		b.emit(bytecode.OpSwap)         // [arr,arr,arr,val,done]
		doneAt := b.reserveU32(bytecode.OpJumpIfTrue) // pops done; [arr,arr,arr,val] either way
		// not-done path: call (3rd arr copy).push(val)
		b.emit(bytecode.OpSwap) // [arr,arr,val,arr]
		idx := b.constSymbol(pushSym)
		b.emitU32(bytecode.OpGetProperty, idx) // pops arr(top), pushes fn -> [arr,arr,val,fn]
		b.emit(bytecode.OpSwap)                // [arr,arr,fn,val]
		b.emitU32(bytecode.OpCall, 1)           // pops val,fn,arr(this) -> [arr,length]
		b.emit(bytecode.OpPop)                  // [arr]
		b.emitU32(bytecode.OpJump, loopStart)
		b.patchU32(doneAt, b.pos())
		// done path: [arr,arr,arr,val] (three dup'd copies plus the
		// iterator result) -> drop val and two of the three copies to
		// get back to the single-arr invariant loopStart started with.
		b.emit(bytecode.OpPop) // drop val
		b.emit(bytecode.OpPop) // drop extra arr copy
		b.emit(bytecode.OpPop) // drop extra arr copy
		c.compilePattern(rest.Argument, sink)
	}

	b.emit(bytecode.OpIteratorClose)
}

// compileObjectPattern destructures an object already on top of the
// stack into p's properties, consuming it.
func (c *Compiler) compileObjectPattern(p *ast.ObjectPattern, sink patternSink) {
	b := c.fc.b
	for _, prop := range p.Properties {
		b.emit(bytecode.OpDup) // [src,src]
		if prop.Computed {
			c.compileExpr(prop.Key) // [src,src,keyv]
			b.emit(bytecode.OpGetPropertyComputed) // [src,val]
		} else {
			sym := c.propertyKeySymbol(prop.Key)
			idx := b.constSymbol(sym)
			b.emitU32(bytecode.OpGetProperty, idx) // [src,val]
		}
		c.compilePattern(prop.Value, sink) // consumes val -> [src]
	}
	if p.Rest != nil {
		b.emit(bytecode.OpNewObject) // [src,restObj]
		b.emit(bytecode.OpSwap)      // [restObj,src]
		b.emit(bytecode.OpCopyDataProperties) // pops src, merges into restObj(peek) -> [restObj]
		c.compilePattern(p.Rest, sink)
	} else {
		b.emit(bytecode.OpPop) // discard leftover src
	}
}
