package compiler

import (
	"github.com/standardbeagle/jsengine/internal/ast"
	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/token"
)

// compileExpr lowers expr, leaving exactly one value on the operand
// stack — the expression's value.
func (c *Compiler) compileExpr(expr ast.Node) {
	b := c.fc.b
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Kind {
		case token.StringLiteral:
			idx := b.constString(e.Str)
			b.emitU32(bytecode.OpLoadConst, idx)
		case token.BigIntLiteral:
			idx := b.constBigInt(e.BigInt)
			b.emitU32(bytecode.OpLoadConst, idx)
		default:
			idx := b.constNumber(e.Num)
			b.emitU32(bytecode.OpLoadConst, idx)
		}
	case *ast.BooleanLiteral:
		if e.Value {
			b.emit(bytecode.OpLoadTrue)
		} else {
			b.emit(bytecode.OpLoadFalse)
		}
	case *ast.NullLiteral:
		b.emit(bytecode.OpLoadNull)
	case *ast.RegExpLiteral:
		// A full RegExp engine is out of scope for this pass; a regex
		// literal compiles to an empty object stand-in so code that
		// merely stores/passes one around still works.
		b.emit(bytecode.OpNewObject)
	case *ast.Identifier:
		c.emitGetBinding(e.Name)
	case *ast.ThisExpression:
		if c.fc.isArrow {
			c.emitGetBinding(c.thisSym())
		} else {
			b.emit(bytecode.OpLoadThis)
		}
	case *ast.SuperExpression:
		c.fail("'super' keyword is only valid as a call or member expression")
	case *ast.NewTargetExpression:
		b.emit(bytecode.OpLoadNewTarget)
	case *ast.TemplateLiteral:
		c.compileTemplateLiteral(e)
	case *ast.TaggedTemplate:
		c.compileTaggedTemplate(e)
	case *ast.ArrayExpression:
		c.compileArrayExpression(e)
	case *ast.ObjectExpression:
		c.compileObjectExpression(e)
	case *ast.FunctionExpression:
		c.compileFunctionValue(e.ID, e.Params, e.Body, e.IsGenerator, e.IsAsync, false)
	case *ast.ArrowFunctionExpression:
		c.compileArrowValue(e.Params, e.Body, e.ExpressionBody, e.IsAsync)
	case *ast.ClassExpression:
		c.compileClassValue(e.ID, e.SuperClass, e.Members)
	case *ast.UnaryExpression:
		c.compileUnaryExpression(e)
	case *ast.UpdateExpression:
		c.compileUpdateExpression(e)
	case *ast.BinaryExpression:
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		op, ok := mapBinaryOp(e.Operator)
		if !ok {
			c.fail("unknown binary operator %q", e.Operator)
			return
		}
		b.emit(bytecode.OpBinary)
		b.emitByte(byte(op))
	case *ast.LogicalExpression:
		c.compileLogicalExpression(e)
	case *ast.ConditionalExpression:
		c.compileConditionalExpression(e)
	case *ast.AssignmentExpression:
		c.compileAssignmentExpression(e)
	case *ast.SequenceExpression:
		for i, sub := range e.Expressions {
			c.compileExpr(sub)
			if i != len(e.Expressions)-1 {
				b.emit(bytecode.OpPop)
			}
		}
	case *ast.CallExpression:
		c.compileCallExpression(e)
	case *ast.NewExpression:
		c.compileExpr(e.Callee)
		c.compileCallArgs(e.Arguments, true)
	case *ast.MemberExpression:
		c.compileMemberGet(e)
	case *ast.YieldExpression:
		if e.Argument != nil {
			c.compileExpr(e.Argument)
		} else {
			b.emit(bytecode.OpLoadUndefined)
		}
		b.emit(bytecode.OpYield)
	case *ast.AwaitExpression:
		c.compileExpr(e.Argument)
		b.emit(bytecode.OpAwait)
	case *ast.SpreadElement:
		c.fail("spread syntax is only valid in an array literal, call, or new expression")
	default:
		c.fail("unsupported expression node %T", expr)
	}
}

func (c *Compiler) compileTemplateLiteral(e *ast.TemplateLiteral) {
	b := c.fc.b
	n := 0
	for i, q := range e.Quasis {
		idx := b.constString(q.Cooked)
		b.emitU32(bytecode.OpLoadConst, idx)
		n++
		if i < len(e.Expressions) {
			c.compileExpr(e.Expressions[i])
			n++
		}
	}
	if n == 0 {
		idx := b.constString("")
		b.emitU32(bytecode.OpLoadConst, idx)
		n = 1
	}
	b.emitU32(bytecode.OpConcat, uint32(n))
}

// compileTaggedTemplate is a documented simplification: it calls the
// tag function with the joined template string as a single plain
// argument rather than building the strings/raw arrays a real tagged
// template passes its tag function.
func (c *Compiler) compileTaggedTemplate(e *ast.TaggedTemplate) {
	b := c.fc.b
	b.emit(bytecode.OpLoadUndefined) // this
	c.compileExpr(e.Tag)
	c.compileTemplateLiteral(e.Quasi)
	b.emitU32(bytecode.OpCall, 1)
}

// compileArrayExpression and compileSpreadAppend build the array via
// repeated Array.prototype.push calls — there's no dedicated "append"
// opcode, so three dup'd copies of the array value are threaded through
// each push call (one surviving as the running array, one as the call's
// `this`, one consumed fetching the push function off it).
func (c *Compiler) compileArrayExpression(e *ast.ArrayExpression) {
	b := c.fc.b
	b.emit(bytecode.OpNewArray)
	b.appendU32(0)
	pushSym := c.in.Intern("push")
	for _, el := range e.Elements {
		if el.Value == nil {
			continue // elision: array literal holes are left unset
		}
		if el.Spread {
			c.compileSpreadAppend(el.Value, pushSym)
			continue
		}
		b.emit(bytecode.OpDup) // [arr,arr]
		b.emit(bytecode.OpDup) // [arr,arr,arr]
		idx := b.constSymbol(pushSym)
		b.emitU32(bytecode.OpGetProperty, idx) // [arr,arr,fn]
		c.compileExpr(el.Value)                // [arr,arr,fn,val]
		b.emitU32(bytecode.OpCall, 1)           // [arr,result]
		b.emit(bytecode.OpPop)                  // [arr]
	}
}

func (c *Compiler) compileSpreadAppend(valueExpr ast.Node, pushSym interner.Symbol) {
	b := c.fc.b
	// stack: [arr]
	c.compileExpr(valueExpr)       // [arr,iterable]
	b.emit(bytecode.OpGetIterator) // consumes iterable -> [arr]
	loopStart := b.pos()
	b.emit(bytecode.OpDup)          // [arr,arr]
	b.emit(bytecode.OpDup)          // [arr,arr,arr]
	b.emit(bytecode.OpIteratorNext) // [arr,arr,arr,done,val]
	b.emit(bytecode.OpSwap)         // [arr,arr,arr,val,done]
	doneAt := b.reserveU32(bytecode.OpJumpIfTrue) // pops done -> [arr,arr,arr,val]
	b.emit(bytecode.OpSwap)                       // [arr,arr,val,arr]
	idx := b.constSymbol(pushSym)
	b.emitU32(bytecode.OpGetProperty, idx) // pops top arr, pushes fn -> [arr,arr,val,fn]
	b.emit(bytecode.OpSwap)                // [arr,arr,fn,val]
	b.emitU32(bytecode.OpCall, 1)          // pops val,fn,arr(this) -> [arr,result]
	b.emit(bytecode.OpPop)                 // [arr]
	b.emitU32(bytecode.OpJump, loopStart)
	b.patchU32(doneAt, b.pos())
	// done path: [arr,arr,arr,val] -> drop val and two extra arr copies
	b.emit(bytecode.OpPop)
	b.emit(bytecode.OpPop)
	b.emit(bytecode.OpPop)
	b.emit(bytecode.OpIteratorClose)
}

// compileObjectExpression builds the object left-to-right: init/
// computed properties dup the object, store through Set (which
// re-pushes the stored value, not the object), then pop the leftover
// value; method/accessor/spread properties peek the object instead, so
// they skip the dup/pop dance entirely.
func (c *Compiler) compileObjectExpression(e *ast.ObjectExpression) {
	b := c.fc.b
	b.emit(bytecode.OpNewObject)
	for _, prop := range e.Properties {
		switch prop.Kind {
		case "spread":
			b.emit(bytecode.OpDup) // [obj,obj]
			c.compileExpr(prop.Value)
			b.emit(bytecode.OpCopyDataProperties) // pops src, merges into peeked obj -> [obj]
		case "get", "set", "method":
			b.emit(bytecode.OpDup) // [obj,obj]
			fe := prop.Value.(*ast.FunctionExpression)
			c.compileFunctionValue(nil, fe.Params, fe.Body, fe.IsGenerator, fe.IsAsync, false)
			if prop.Computed {
				c.fail("computed method/accessor names in object literals are not supported")
				return
			}
			sym := c.propertyKeySymbol(prop.Key)
			idx := b.constSymbol(sym)
			switch prop.Kind {
			case "get":
				b.emitU32(bytecode.OpDefineGetter, idx)
			case "set":
				b.emitU32(bytecode.OpDefineSetter, idx)
			default:
				b.emitU32(bytecode.OpDefineMethod, idx)
			}
		default: // "init"
			b.emit(bytecode.OpDup) // [obj,obj]
			if prop.Computed {
				c.compileExpr(prop.Key)
				c.compileExpr(prop.Value)
				b.emit(bytecode.OpSetPropertyComputed) // pops v,k,obj -> pushes v -> [obj,v]
			} else {
				sym := c.propertyKeySymbol(prop.Key)
				idx := b.constSymbol(sym)
				c.compileExpr(prop.Value)
				b.emitU32(bytecode.OpSetProperty, idx) // pops v,obj -> pushes v -> [obj,v]
			}
			b.emit(bytecode.OpPop) // [obj]
		}
	}
}

// compileUnaryExpression special-cases delete: OpUnary's UnaryDelete
// case always reports success without touching the target, so an
// actual deletion has to route through OpDeleteProperty directly
// instead. Deleting a computed property or a bare identifier binding
// has no VM support and is a documented limitation.
func (c *Compiler) compileUnaryExpression(e *ast.UnaryExpression) {
	b := c.fc.b
	if e.Operator == "delete" {
		if me, ok := e.Argument.(*ast.MemberExpression); ok && !me.Computed {
			c.compileExpr(me.Object)
			sym := c.propertyKeySymbol(me.Property)
			idx := b.constSymbol(sym)
			b.emitU32(bytecode.OpDeleteProperty, idx)
			return
		}
		c.fail("delete is only supported on a non-computed member expression")
		return
	}
	c.compileExpr(e.Argument)
	op, ok := mapUnaryOp(e.Operator)
	if !ok {
		c.fail("unknown unary operator %q", e.Operator)
		return
	}
	b.emit(bytecode.OpUnary)
	b.emitByte(byte(op))
}

// hiddenTmpSym returns the scratch lexical binding update-expression
// compilation stashes its result value in — interning is cheap and
// deduped, so it's fine to look it up fresh at each use site.
func (c *Compiler) hiddenTmpSym() interner.Symbol {
	return c.in.Intern("@@tmp@@")
}

// compileUpdateExpression implements ++/-- . OpUpdate leaves [result,
// newVal] on the stack (identical in shape for prefix/postfix — only
// which of the two is "result" differs) but storing newVal back through
// a property access also produces a value on the stack, and there is no
// instruction that reorders three non-adjacent stack slots — so the
// result value is stashed into a hidden binding while the store
// happens, then read back out.
func (c *Compiler) compileUpdateExpression(e *ast.UpdateExpression) {
	b := c.fc.b
	uop := bytecode.UpdateIncrement
	if e.Operator == "--" {
		uop = bytecode.UpdateDecrement
	}
	prefix := byte(0)
	if e.Prefix {
		prefix = 1
	}

	switch target := e.Argument.(type) {
	case *ast.Identifier:
		c.emitGetBinding(target.Name)
		b.emit(bytecode.OpUpdate)
		b.emitByte(byte(uop))
		b.emitByte(prefix)
		// [resultVal,newVal]
		c.emitSetBinding(target.Name) // peeks newVal, stores it, leaves stack unchanged
		b.emit(bytecode.OpPop)        // discard the peeked newVal -> [resultVal]
	case *ast.MemberExpression:
		tmp := c.hiddenTmpSym()
		if target.Computed {
			c.compileExpr(target.Object)
			b.emit(bytecode.OpDup) // [o,o]
			c.compileExpr(target.Property)
			b.emit(bytecode.OpDup) // [o,o,k,k]
			b.emit(bytecode.OpGetPropertyComputed)
			b.emit(bytecode.OpUpdate)
			b.emitByte(byte(uop))
			b.emitByte(prefix)
			// [o,k,resultVal,newVal]
			b.emit(bytecode.OpSwap) // [o,k,newVal,resultVal]
			c.declareLexical(tmp)
			c.emitBindingInit(tmp) // pops resultVal into tmp -> [o,k,newVal]
			b.emit(bytecode.OpSetPropertyComputed)
			b.emit(bytecode.OpPop)
			c.emitGetBinding(tmp)
		} else {
			c.compileExpr(target.Object)
			b.emit(bytecode.OpDup) // [o,o]
			sym := c.propertyKeySymbol(target.Property)
			idx := b.constSymbol(sym)
			b.emitU32(bytecode.OpGetProperty, idx)
			b.emit(bytecode.OpUpdate)
			b.emitByte(byte(uop))
			b.emitByte(prefix)
			// [o,resultVal,newVal]
			b.emit(bytecode.OpSwap) // [o,newVal,resultVal]
			c.declareLexical(tmp)
			c.emitBindingInit(tmp) // pops resultVal -> [o,newVal]
			b.emitU32(bytecode.OpSetProperty, idx)
			b.emit(bytecode.OpPop)
			c.emitGetBinding(tmp)
		}
	default:
		c.fail("invalid update expression target %T", e.Argument)
	}
}

// compileLogicalExpression short-circuits && and || with
// OpJumpIfFalse/OpJumpIfTrue (which always pop) and ?? with
// OpJumpIfNullish (which only pops on the taken branch).
func (c *Compiler) compileLogicalExpression(e *ast.LogicalExpression) {
	b := c.fc.b
	c.compileExpr(e.Left)
	switch e.Operator {
	case "&&":
		b.emit(bytecode.OpDup)
		shortAt := b.reserveU32(bytecode.OpJumpIfFalse) // pops the dup'd test value
		b.emit(bytecode.OpPop)                          // discard the kept-left value; evaluate right instead
		c.compileExpr(e.Right)
		b.patchU32(shortAt, b.pos())
	case "||":
		b.emit(bytecode.OpDup)
		shortAt := b.reserveU32(bytecode.OpJumpIfTrue)
		b.emit(bytecode.OpPop)
		c.compileExpr(e.Right)
		b.patchU32(shortAt, b.pos())
	case "??":
		nullishAt := b.reserveU32(bytecode.OpJumpIfNullish) // pops only if nullish
		endAt := b.reserveU32(bytecode.OpJump)              // not-nullish: keep left as-is
		b.patchU32(nullishAt, b.pos())
		c.compileExpr(e.Right) // nullish path: the jump already popped left
		b.patchU32(endAt, b.pos())
	default:
		c.fail("unknown logical operator %q", e.Operator)
	}
}

func (c *Compiler) compileConditionalExpression(e *ast.ConditionalExpression) {
	b := c.fc.b
	c.compileExpr(e.Test)
	elseAt := b.reserveU32(bytecode.OpJumpIfFalse)
	c.compileExpr(e.Consequent)
	endAt := b.reserveU32(bytecode.OpJump)
	b.patchU32(elseAt, b.pos())
	c.compileExpr(e.Alternate)
	b.patchU32(endAt, b.pos())
}

// compileAssignmentExpression handles plain "=", compound ("+=" etc,
// which read-modify-write through OpBinary with no scratch binding
// needed), the three logical-assignment operators (identifier targets
// only — see compileLogicalAssign), and destructuring ("=" to an array
// or object pattern).
func (c *Compiler) compileAssignmentExpression(e *ast.AssignmentExpression) {
	b := c.fc.b

	switch e.Left.(type) {
	case *ast.ArrayPattern, *ast.ObjectPattern:
		if e.Operator != "=" {
			c.fail("only plain assignment is supported to a destructuring target")
			return
		}
		c.compileExpr(e.Right)
		b.emit(bytecode.OpDup) // keep the whole RHS as the expression's own value
		c.compilePattern(e.Left, c.assignSink())
		return
	}

	if e.Operator == "&&=" || e.Operator == "||=" || e.Operator == "??=" {
		c.compileLogicalAssign(e)
		return
	}

	switch target := e.Left.(type) {
	case *ast.Identifier:
		if e.Operator == "=" {
			c.compileExpr(e.Right)
			c.emitSetBinding(target.Name) // peeks, leaves value on stack
			return
		}
		c.emitGetBinding(target.Name)
		c.compileExpr(e.Right)
		op, ok := compoundBinaryOp(e.Operator)
		if !ok {
			c.fail("unknown compound assignment operator %q", e.Operator)
			return
		}
		b.emit(bytecode.OpBinary)
		b.emitByte(byte(op))
		c.emitSetBinding(target.Name)
	case *ast.MemberExpression:
		c.compileMemberAssign(target, e)
	default:
		c.fail("invalid assignment target %T", e.Left)
	}
}

func (c *Compiler) compileMemberAssign(target *ast.MemberExpression, e *ast.AssignmentExpression) {
	b := c.fc.b
	if e.Operator == "=" {
		c.compileExpr(target.Object)
		if target.Computed {
			c.compileExpr(target.Property)
			c.compileExpr(e.Right)
			b.emit(bytecode.OpSetPropertyComputed)
		} else {
			sym := c.propertyKeySymbol(target.Property)
			idx := b.constSymbol(sym)
			c.compileExpr(e.Right)
			b.emitU32(bytecode.OpSetProperty, idx)
		}
		return
	}
	op, ok := compoundBinaryOp(e.Operator)
	if !ok {
		c.fail("unknown compound assignment operator %q", e.Operator)
		return
	}
	c.compileExpr(target.Object)
	if target.Computed {
		b.emit(bytecode.OpDup) // [o,o]
		c.compileExpr(target.Property)
		b.emit(bytecode.OpDup)                 // [o,o,k,k]
		b.emit(bytecode.OpGetPropertyComputed) // [o,k,cur]
		c.compileExpr(e.Right)
		b.emit(bytecode.OpBinary)
		b.emitByte(byte(op))
		b.emit(bytecode.OpSetPropertyComputed) // pops result,k,o -> pushes result
	} else {
		sym := c.propertyKeySymbol(target.Property)
		idx := b.constSymbol(sym)
		b.emit(bytecode.OpDup) // [o,o]
		b.emitU32(bytecode.OpGetProperty, idx)
		c.compileExpr(e.Right)
		b.emit(bytecode.OpBinary)
		b.emitByte(byte(op))
		b.emitU32(bytecode.OpSetProperty, idx) // pops result,o -> pushes result
	}
}

// compileLogicalAssign supports identifier targets only — member
// targets would need the same scratch-binding trick as update
// expressions and aren't common enough to justify it here.
func (c *Compiler) compileLogicalAssign(e *ast.AssignmentExpression) {
	b := c.fc.b
	target, ok := e.Left.(*ast.Identifier)
	if !ok {
		c.fail("logical assignment to a non-identifier target is not supported")
		return
	}
	c.emitGetBinding(target.Name) // [cur]
	switch e.Operator {
	case "&&=":
		skipAt := b.reserveU32(bytecode.OpJumpIfFalse) // pops cur; false -> keep (re-read below)
		c.compileExpr(e.Right)
		c.emitSetBinding(target.Name)
		endAt := b.reserveU32(bytecode.OpJump)
		b.patchU32(skipAt, b.pos())
		c.emitGetBinding(target.Name)
		b.patchU32(endAt, b.pos())
	case "||=":
		skipAt := b.reserveU32(bytecode.OpJumpIfTrue) // pops cur; true -> keep (re-read below)
		c.compileExpr(e.Right)
		c.emitSetBinding(target.Name)
		endAt := b.reserveU32(bytecode.OpJump)
		b.patchU32(skipAt, b.pos())
		c.emitGetBinding(target.Name)
		b.patchU32(endAt, b.pos())
	case "??=":
		assignAt := b.reserveU32(bytecode.OpJumpIfNullish) // nullish: pops, goes to assign
		endAt := b.reserveU32(bytecode.OpJump)              // not-nullish: cur (still on stack) is the result
		b.patchU32(assignAt, b.pos())
		c.compileExpr(e.Right)
		c.emitSetBinding(target.Name)
		b.patchU32(endAt, b.pos())
	}
}

// compileCallArgs emits an argument list, choosing OpCall/OpNew for a
// plain list or OpCallSpread/OpNewSpread when the list ends in a single
// spread argument. Interspersed or multiple spreads aren't expressible
// with these opcodes and are a documented limitation.
func (c *Compiler) compileCallArgs(args []ast.ArrayElement, construct bool) {
	b := c.fc.b
	spreadIdx := -1
	for i, a := range args {
		if a.Spread {
			spreadIdx = i
		}
	}
	if spreadIdx == -1 {
		for _, a := range args {
			c.compileExpr(a.Value)
		}
		if construct {
			b.emitU32(bytecode.OpNew, uint32(len(args)))
		} else {
			b.emitU32(bytecode.OpCall, uint32(len(args)))
		}
		return
	}
	if spreadIdx != len(args)-1 {
		c.fail("only a single trailing spread argument is supported in a call or new expression")
		return
	}
	for _, a := range args[:spreadIdx] {
		c.compileExpr(a.Value)
	}
	c.compileExpr(args[spreadIdx].Value)
	if construct {
		b.emitU32(bytecode.OpNewSpread, uint32(spreadIdx))
	} else {
		b.emitU32(bytecode.OpCallSpread, uint32(spreadIdx))
	}
}

// compileCallExpression handles super(...) (through the hidden
// @@superctor@@ binding captured around the enclosing class), optional
// calls (obj.method?.()), member-callee calls (this bound to the
// object), and plain calls (this = undefined).
func (c *Compiler) compileCallExpression(e *ast.CallExpression) {
	b := c.fc.b

	if _, ok := e.Callee.(*ast.SuperExpression); ok {
		b.emit(bytecode.OpLoadThis)
		c.emitGetBinding(c.superCtorSym())
		c.compileCallArgs(e.Arguments, false)
		return
	}

	if me, ok := e.Callee.(*ast.MemberExpression); ok {
		c.compileExpr(me.Object)
		b.emit(bytecode.OpDup) // [this,this]
		if me.Computed {
			c.compileExpr(me.Property)
			if me.Optional {
				b.emit(bytecode.OpGetPropertyOptional)
			} else {
				b.emit(bytecode.OpGetPropertyComputed)
			}
		} else {
			sym := c.propertyKeySymbol(me.Property)
			idx := b.constSymbol(sym)
			if me.Optional {
				b.emitU32(bytecode.OpGetPropertyOptional, idx)
			} else {
				b.emitU32(bytecode.OpGetProperty, idx)
			}
		}
		// [this,callee]
		if e.Optional {
			nullishAt := b.reserveU32(bytecode.OpJumpIfNullish) // pops only if nullish
			c.compileCallArgs(e.Arguments, false)
			endAt := b.reserveU32(bytecode.OpJump)
			b.patchU32(nullishAt, b.pos())
			// nullish path: the jump popped callee, leaving [this]; drop it
			b.emit(bytecode.OpPop)
			b.emit(bytecode.OpLoadUndefined)
			b.patchU32(endAt, b.pos())
			return
		}
		c.compileCallArgs(e.Arguments, false)
		return
	}

	b.emit(bytecode.OpLoadUndefined)
	c.compileExpr(e.Callee)
	if e.Optional {
		nullishAt := b.reserveU32(bytecode.OpJumpIfNullish) // pops only if nullish
		c.compileCallArgs(e.Arguments, false)
		endAt := b.reserveU32(bytecode.OpJump)
		b.patchU32(nullishAt, b.pos())
		b.emit(bytecode.OpPop) // nullish path: drop the undefined `this`
		b.emit(bytecode.OpLoadUndefined)
		b.patchU32(endAt, b.pos())
		return
	}
	c.compileCallArgs(e.Arguments, false)
}

// compileMemberGet reads a (possibly optional, possibly computed)
// member expression, including `super.foo`. super.foo resolves through
// the hidden @@superproto@@ binding captured around the whole class
// (see compileClassValue) rather than OpLoadSuper/HomeObject, since the
// VM only ever sets HomeObject on the constructor's own closure — this
// way the superclass prototype is reachable from any method, not just
// the constructor.
func (c *Compiler) compileMemberGet(e *ast.MemberExpression) {
	b := c.fc.b
	if _, ok := e.Object.(*ast.SuperExpression); ok {
		c.emitGetBinding(c.superProtoSym())
		if e.Computed {
			c.compileExpr(e.Property)
			b.emit(bytecode.OpGetPropertyComputed)
		} else {
			sym := c.propertyKeySymbol(e.Property)
			idx := b.constSymbol(sym)
			b.emitU32(bytecode.OpGetProperty, idx)
		}
		return
	}

	c.compileExpr(e.Object)
	if e.Computed {
		if e.Optional {
			nullishAt := b.reserveU32(bytecode.OpJumpIfNullish) // nullish: pops, goes to undefined
			c.compileExpr(e.Property)
			b.emit(bytecode.OpGetPropertyComputed)
			endAt := b.reserveU32(bytecode.OpJump)
			b.patchU32(nullishAt, b.pos())
			b.emit(bytecode.OpLoadUndefined)
			b.patchU32(endAt, b.pos())
			return
		}
		c.compileExpr(e.Property)
		b.emit(bytecode.OpGetPropertyComputed)
		return
	}
	sym := c.propertyKeySymbol(e.Property)
	idx := b.constSymbol(sym)
	if e.Optional {
		b.emitU32(bytecode.OpGetPropertyOptional, idx)
		return
	}
	b.emitU32(bytecode.OpGetProperty, idx)
}
