package compiler

import (
	"github.com/standardbeagle/jsengine/internal/ast"
	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/interner"
)

// Hidden lexical bindings the compiler threads through nested scopes to
// cover cases the bytecode has no dedicated support for: lexical this
// inside arrows, and the super constructor/prototype a subclass's
// members close over. Interning the same string repeatedly is cheap
// (the Interner dedups), so each use site just looks it up fresh.
func (c *Compiler) thisSym() interner.Symbol      { return c.in.Intern("@@this@@") }
func (c *Compiler) superCtorSym() interner.Symbol { return c.in.Intern("@@superctor@@") }
func (c *Compiler) superProtoSym() interner.Symbol { return c.in.Intern("@@superproto@@") }

// compileFunctionValue compiles a named or anonymous function
// declaration/expression into a FunctionTemplate and emits the matching
// OpMakeFunction/OpMakeGenerator against the CURRENT (enclosing)
// builder, leaving the new closure as the expression's value.
func (c *Compiler) compileFunctionValue(id *ast.Identifier, params []*ast.FunctionParam, body *ast.BlockStatement, isGenerator, isAsync, isArrow bool) {
	var name interner.Symbol
	if id != nil {
		name = id.Name
	}
	tmpl := c.compileFunctionTemplate(name, params, body, isGenerator, isAsync, isArrow, nil)
	parentB := c.fc.b
	idx := parentB.constTemplate(tmpl)
	switch {
	case isGenerator:
		parentB.emitU32(bytecode.OpMakeGenerator, idx)
	default:
		parentB.emitU32(bytecode.OpMakeFunction, idx)
	}
}

// compileFunctionTemplate builds a nested builder/funcCtx for a
// function-like body, runs the parameter prologue (establishing
// LocatorLocal reads into the function's own Environment), declares
// the hidden `this` binding for non-arrow bodies, runs prelude (used by
// constructors to forward to super() and run field initializers)
// before the body itself, and appends an implicit `return undefined`.
func (c *Compiler) compileFunctionTemplate(name interner.Symbol, params []*ast.FunctionParam, body *ast.BlockStatement, isGenerator, isAsync, isArrow bool, prelude func()) *bytecode.FunctionTemplate {
	parentFc := c.fc
	fb := newBuilder(c.sourceName)
	fc := newFuncCtx(fb, parentFc)
	fc.inGenerator = isGenerator
	fc.inAsync = isAsync
	fc.isArrow = isArrow
	c.fc = fc
	c.pushScope(true)
	fb.emit(bytecode.OpPushScope)

	if !isArrow {
		fb.emit(bytecode.OpLoadThis)
		c.declareLexical(c.thisSym())
		c.emitBindingInit(c.thisSym())
	}

	paramCount, hasRest := c.compileParamPrologue(params)
	fc.numLocals = paramCount
	if hasRest {
		fc.numLocals++
	}

	if prelude != nil {
		prelude()
	}

	c.compileTopLevel(body.Body, false)
	fb.emit(bytecode.OpLoadUndefined)
	fb.emit(bytecode.OpReturn)

	code := fb.finish(fc.numLocals)
	c.popScope()
	c.fc = parentFc

	return &bytecode.FunctionTemplate{
		Name:         name,
		ParamCount:   paramCount,
		HasRestParam: hasRest,
		IsGenerator:  isGenerator,
		IsAsync:      isAsync,
		IsArrow:      isArrow,
		Code:         code,
	}
}

// compileParamPrologue reads each parameter out of its raw
// LocatorLocal stack slot and binds it into the function's own
// Environment, applying default values and the rest parameter (which
// must be last) along the way.
func (c *Compiler) compileParamPrologue(params []*ast.FunctionParam) (paramCount int, hasRest bool) {
	fb := c.fc.b
	for i, p := range params {
		if rest, ok := p.Pattern.(*ast.RestElement); ok {
			loc := bytecode.BindingLocator{Kind: bytecode.LocatorLocal, Slot: uint32(i)}
			idx := fb.locator(loc)
			fb.emitU32(bytecode.OpGetBinding, idx)
			c.compilePattern(rest.Argument, c.declSink())
			return i, true
		}

		loc := bytecode.BindingLocator{Kind: bytecode.LocatorLocal, Slot: uint32(i)}
		idx := fb.locator(loc)
		fb.emitU32(bytecode.OpGetBinding, idx)

		if p.Default != nil {
			fb.emit(bytecode.OpDup)
			fb.emit(bytecode.OpLoadUndefined)
			fb.emit(bytecode.OpBinary)
			fb.emitByte(byte(bytecode.BinStrictEq))
			keepAt := fb.reserveU32(bytecode.OpJumpIfFalse)
			fb.emit(bytecode.OpPop)
			c.compileExpr(p.Default)
			endAt := fb.reserveU32(bytecode.OpJump)
			fb.patchU32(keepAt, fb.pos())
			fb.patchU32(endAt, fb.pos())
		}

		c.compilePattern(p.Pattern, c.declSink())
	}
	return len(params), false
}

// compileArrowValue is compileFunctionValue's counterpart for arrows,
// which never declare the hidden `this` binding (so ThisExpression
// resolves it as an upvalue through the enclosing function/script) and
// additionally support a bare-expression concise body.
func (c *Compiler) compileArrowValue(params []*ast.FunctionParam, bodyNode ast.Node, exprBody bool, isAsync bool) {
	parentFc := c.fc
	fb := newBuilder(c.sourceName)
	fc := newFuncCtx(fb, parentFc)
	fc.inAsync = isAsync
	fc.isArrow = true
	c.fc = fc
	c.pushScope(true)
	fb.emit(bytecode.OpPushScope)

	paramCount, hasRest := c.compileParamPrologue(params)
	fc.numLocals = paramCount
	if hasRest {
		fc.numLocals++
	}

	if exprBody {
		c.compileExpr(bodyNode)
		fb.emit(bytecode.OpReturn)
	} else {
		blk := bodyNode.(*ast.BlockStatement)
		c.compileTopLevel(blk.Body, false)
		fb.emit(bytecode.OpLoadUndefined)
		fb.emit(bytecode.OpReturn)
	}

	code := fb.finish(fc.numLocals)
	c.popScope()
	c.fc = parentFc

	tmpl := &bytecode.FunctionTemplate{
		ParamCount:   paramCount,
		HasRestParam: hasRest,
		IsAsync:      isAsync,
		IsArrow:      true,
		Code:         code,
	}
	idx := c.fc.b.constTemplate(tmpl)
	c.fc.b.emitU32(bytecode.OpMakeArrow, idx)
}

// compileClassValue lowers a class expression/declaration to a single
// closure value (the constructor function). Both the super constructor
// and the superclass's prototype are captured once, in a wrapper scope
// around the whole class, as hidden bindings every member (not just the
// constructor) can reach as a plain upvalue — this sidesteps the fact
// that the VM only ever sets a closure's HomeObject on the constructor
// (see OpLoadSuper/makeClass), so relying on OpLoadSuper for `super.foo`
// inside an ordinary method would silently resolve to undefined.
func (c *Compiler) compileClassValue(id *ast.Identifier, superClass ast.Node, members []*ast.ClassMember) {
	b := c.fc.b
	hasSuper := superClass != nil

	c.pushScope(false)
	b.emit(bytecode.OpPushScope)

	if hasSuper {
		c.compileExpr(superClass)
	} else {
		b.emit(bytecode.OpLoadUndefined)
	}
	b.emit(bytecode.OpDup) // [superV,superV]
	c.declareLexical(c.superCtorSym())
	c.emitBindingInit(c.superCtorSym()) // consumes one copy -> [superV]

	if hasSuper {
		b.emit(bytecode.OpDup) // [superV,superV]
		protoSym := interner.SymPrototype
		idx := b.constSymbol(protoSym)
		b.emitU32(bytecode.OpGetProperty, idx) // pops one copy, pushes superV.prototype -> [superV,superProto]
		c.declareLexical(c.superProtoSym())
		c.emitBindingInit(c.superProtoSym()) // -> [superV]
	} else {
		b.emit(bytecode.OpLoadUndefined)
		c.declareLexical(c.superProtoSym())
		c.emitBindingInit(c.superProtoSym())
	}

	var ctorMember *ast.ClassMember
	var instanceMembers, staticMembers []*ast.ClassMember
	var instanceFields, staticFields []*ast.ClassMember
	for _, m := range members {
		switch {
		case m.Kind == "constructor":
			ctorMember = m
		case m.Kind == "field" && m.IsStatic:
			staticFields = append(staticFields, m)
		case m.Kind == "field":
			instanceFields = append(instanceFields, m)
		case m.IsStatic:
			staticMembers = append(staticMembers, m)
		default:
			instanceMembers = append(instanceMembers, m)
		}
	}

	var ctorName interner.Symbol
	if id != nil {
		ctorName = id.Name
	}
	var ctorParams []*ast.FunctionParam
	ctorBody := &ast.BlockStatement{}
	if ctorMember != nil {
		fe := ctorMember.Value.(*ast.FunctionExpression)
		ctorParams = fe.Params
		ctorBody = fe.Body
	}

	prelude := func() {
		if ctorMember == nil && hasSuper {
			c.compileBareSuperCall()
		}
		for _, f := range instanceFields {
			c.compileFieldInit(f)
		}
	}

	tmpl := c.compileFunctionTemplate(ctorName, ctorParams, ctorBody, false, false, false, prelude)
	idx := b.constTemplate(tmpl)
	b.emitU32(bytecode.OpMakeClass, idx) // pops the remaining superV copy -> [classFn]

	for _, m := range instanceMembers {
		c.compileClassMember(m, true)
	}
	for _, m := range staticMembers {
		c.compileClassMember(m, false)
	}
	for _, f := range staticFields {
		c.compileStaticFieldInit(f)
	}

	b.emit(bytecode.OpPopScope)
	c.popScope()
}

// compileClassMember defines one method/getter/setter onto the
// prototype (instance members) or the class function itself (static
// members), leaving the class function on top of the stack exactly as
// found. Computed member names are restricted to keys propertyKeySymbol
// can resolve at compile time (a documented limitation — a dynamic
// computed key would need re-evaluating at the right point in this
// dup/define choreography, which isn't supported here).
func (c *Compiler) compileClassMember(m *ast.ClassMember, instance bool) {
	b := c.fc.b
	b.emit(bytecode.OpDup) // [classFn,classFn]
	if instance {
		idx := b.constSymbol(interner.SymPrototype)
		b.emitU32(bytecode.OpGetProperty, idx) // [classFn,proto]
	}

	fe := m.Value.(*ast.FunctionExpression)
	c.compileFunctionValue(nil, fe.Params, fe.Body, fe.IsGenerator, fe.IsAsync, false) // [classFn,target,fnVal]

	sym := c.propertyKeySymbol(m.Key)
	idx := b.constSymbol(sym)
	switch m.Kind {
	case "get":
		b.emitU32(bytecode.OpDefineGetter, idx)
	case "set":
		b.emitU32(bytecode.OpDefineSetter, idx)
	default:
		b.emitU32(bytecode.OpDefineMethod, idx)
	}
	b.emit(bytecode.OpPop) // drop target -> [classFn]
}

// compileFieldInit runs inside the constructor's prelude, where `this`
// is already a valid OpLoadThis target (the constructor is never an
// arrow).
func (c *Compiler) compileFieldInit(f *ast.ClassMember) {
	b := c.fc.b
	b.emit(bytecode.OpLoadThis)
	if f.Value != nil {
		c.compileExpr(f.Value)
	} else {
		b.emit(bytecode.OpLoadUndefined)
	}
	sym := c.propertyKeySymbol(f.Key)
	idx := b.constSymbol(sym)
	b.emitU32(bytecode.OpSetProperty, idx) // pops v,this -> pushes v
	b.emit(bytecode.OpPop)
}

// compileStaticFieldInit runs after OpMakeClass with the class function
// on top of the stack, assigning directly onto it.
func (c *Compiler) compileStaticFieldInit(f *ast.ClassMember) {
	b := c.fc.b
	b.emit(bytecode.OpDup) // [classFn,classFn]
	if f.Value != nil {
		c.compileExpr(f.Value)
	} else {
		b.emit(bytecode.OpLoadUndefined)
	}
	sym := c.propertyKeySymbol(f.Key)
	idx := b.constSymbol(sym)
	b.emitU32(bytecode.OpSetProperty, idx) // pops v,classFn(copy) -> pushes v -> [classFn,v]
	b.emit(bytecode.OpPop)                 // [classFn]
}

// compileBareSuperCall synthesizes `super()` for a derived class with
// no explicit constructor.
func (c *Compiler) compileBareSuperCall() {
	b := c.fc.b
	b.emit(bytecode.OpLoadThis)
	c.emitGetBinding(c.superCtorSym())
	b.emitU32(bytecode.OpCall, 0)
	b.emit(bytecode.OpPop)
}
