// Package compiler lowers the parser's AST into the bytecode.CodeBlock
// form internal/vm executes.
//
// Variable binding strategy: rather than doing full closure-capture/
// escape analysis to decide, per variable, whether it's safe to live in
// a raw stack slot (bytecode.LocatorLocal) or must live in a heap
// Environment (bytecode.LocatorUpvalue), every function body pushes its
// own Environment on entry (OpPushScope) and every local variable
// (parameters included) is declared into it. Parameters arrive in raw
// stack slots courtesy of internal/vm's pushCall, so the function
// prologue reads each one with a transient LocatorLocal access and
// immediately re-declares it into the function's Environment. This
// trades the VM's fast same-frame stack-slot path for a much simpler,
// more easily verified implementation; a follow-on optimization pass
// could promote never-captured locals back to LocatorLocal.
package compiler

import (
	"fmt"

	"github.com/standardbeagle/jsengine/internal/ast"
	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/errors"
	"github.com/standardbeagle/jsengine/internal/interner"
)

// Compiler holds the state shared across an entire compile: the
// interner the parser used (so Symbols line up), and the lexical scope
// stack, which spans function boundaries deliberately — see the
// package doc and scope.go.
type Compiler struct {
	in         *interner.Interner
	sourceName string
	scopes     []*lexScope
	fc         *funcCtx
}

// Compile lowers a parsed Program (script or module) into a top-level
// CodeBlock. in must be the same Interner instance used to parse
// program, so identifier Symbols resolve consistently.
func Compile(program *ast.Program, sourceName string, in *interner.Interner) (code *bytecode.CodeBlock, err error) {
	c := &Compiler{in: in, sourceName: sourceName}

	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(compileErr); ok {
				err = errors.NewCompileError(sourceName, "lower", fmt.Errorf("%s", string(ce)))
				return
			}
			panic(r)
		}
	}()

	b := newBuilder(sourceName)
	top := newLexScope(true)
	top.isScriptTop = true
	c.scopes = []*lexScope{top}
	c.fc = newFuncCtx(b, nil)

	c.compileTopLevel(program.Body, true)
	b.emit(bytecode.OpReturn)

	return b.finish(c.fc.numLocals), nil
}

// compileErr is the payload a compile-time fatal inconsistency panics
// with; Compile's deferred recover turns it into a regular error.
type compileErr string

func (c *Compiler) fail(format string, args ...any) {
	panic(compileErr(fmt.Sprintf(format, args...)))
}

// compileTopLevel runs the usual two-pass hoisting compile for a
// script/module/function body's statement list: function declarations
// and var names are declared up front (so forward references and
// recursive functions resolve), then each statement is compiled in
// order. When trackCompletion is set (the outermost script/module body
// only — never a function body, which always returns explicitly) the
// last statement's expression value, if it has one, is left on the
// stack instead of popped, falling back to undefined, so the caller can
// return it as the script's completion value.
func (c *Compiler) compileTopLevel(body []ast.Node, trackCompletion bool) {
	c.hoist(body)
	for _, name := range c.fc.hoistedVars {
		c.emitBindingDeclareVar(name)
	}
	for _, stmt := range body {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok && fd.ID != nil {
			c.emitFunctionHoistInit(fd)
		}
	}
	for i, stmt := range body {
		if trackCompletion && i == len(body)-1 {
			if es, ok := stmt.(*ast.ExpressionStatement); ok {
				c.compileExpr(es.Expression)
				continue
			}
		}
		c.compileStatement(stmt)
	}
	if trackCompletion {
		if len(body) == 0 {
			c.fc.b.emit(bytecode.OpLoadUndefined)
		} else if _, ok := body[len(body)-1].(*ast.ExpressionStatement); !ok {
			c.fc.b.emit(bytecode.OpLoadUndefined)
		}
	}
}

// hoist declares (but does not initialize) every var and function
// declaration reachable in body without descending into nested function
// bodies, matching JS's var/function hoisting semantics, and declares
// (without initializing — TDZ) every let/const/class name at this
// block's own level.
func (c *Compiler) hoist(body []ast.Node) {
	for _, stmt := range body {
		c.hoistStatement(stmt, true)
	}
}

// hoistStatement declares var/function names reachable through stmt
// without crossing into nested function bodies. topLevelOfBlock is true
// for the statements directly in the block being hoisted (so
// let/const/class there are declared too); nested block statements
// still propagate var hoisting upward but not let/const.
func (c *Compiler) hoistStatement(stmt ast.Node, topLevelOfBlock bool) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Kind == ast.Var {
			for _, d := range s.Declarations {
				c.hoistPatternVar(d.ID)
			}
		} else if topLevelOfBlock {
			for _, d := range s.Declarations {
				c.hoistPatternLexical(d.ID)
			}
		}
	case *ast.FunctionDeclaration:
		if topLevelOfBlock && s.ID != nil {
			c.declareVarName(s.ID.Name)
		}
	case *ast.ClassDeclaration:
		if topLevelOfBlock && s.ID != nil {
			c.declareLexical(s.ID.Name)
		}
	case *ast.BlockStatement:
		for _, inner := range s.Body {
			c.hoistStatement(inner, false)
		}
	case *ast.IfStatement:
		c.hoistStatement(s.Consequent, false)
		if s.Alternate != nil {
			c.hoistStatement(s.Alternate, false)
		}
	case *ast.ForStatement:
		if vd, ok := s.Init.(*ast.VariableDeclaration); ok && vd.Kind == ast.Var {
			for _, d := range vd.Declarations {
				c.hoistPatternVar(d.ID)
			}
		}
		c.hoistStatement(s.Body, false)
	case *ast.ForInStatement:
		if vd, ok := s.Left.(*ast.VariableDeclaration); ok && vd.Kind == ast.Var {
			for _, d := range vd.Declarations {
				c.hoistPatternVar(d.ID)
			}
		}
		c.hoistStatement(s.Body, false)
	case *ast.WhileStatement:
		c.hoistStatement(s.Body, false)
	case *ast.DoWhileStatement:
		c.hoistStatement(s.Body, false)
	case *ast.TryStatement:
		for _, inner := range s.Block.Body {
			c.hoistStatement(inner, false)
		}
		if s.Handler != nil {
			for _, inner := range s.Handler.Body.Body {
				c.hoistStatement(inner, false)
			}
		}
		if s.Finalizer != nil {
			for _, inner := range s.Finalizer.Body {
				c.hoistStatement(inner, false)
			}
		}
	case *ast.SwitchStatement:
		for _, cs := range s.Cases {
			for _, inner := range cs.Consequent {
				c.hoistStatement(inner, false)
			}
		}
	case *ast.LabeledStatement:
		c.hoistStatement(s.Body, topLevelOfBlock)
	}
}

func (c *Compiler) hoistPatternVar(pat ast.Node) {
	c.walkPatternNames(pat, func(sym interner.Symbol) {
		c.declareVarName(sym)
	})
}

func (c *Compiler) hoistPatternLexical(pat ast.Node) {
	c.walkPatternNames(pat, func(sym interner.Symbol) {
		c.declareLexical(sym)
	})
}

// walkPatternNames visits every bound identifier name in a (possibly
// destructuring) binding target.
func (c *Compiler) walkPatternNames(pat ast.Node, fn func(interner.Symbol)) {
	switch p := pat.(type) {
	case *ast.Identifier:
		fn(p.Name)
	case *ast.ArrayPattern:
		for _, el := range p.Elements {
			if el != nil {
				c.walkPatternNames(el, fn)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range p.Properties {
			c.walkPatternNames(prop.Value, fn)
		}
		if p.Rest != nil {
			c.walkPatternNames(p.Rest, fn)
		}
	case *ast.RestElement:
		c.walkPatternNames(p.Argument, fn)
	case *ast.AssignmentPattern:
		c.walkPatternNames(p.Left, fn)
	}
}

// emitFunctionHoistInit compiles and binds a hoisted function
// declaration's value ahead of its textual position, so later code
// (including earlier-in-source recursive calls through a wrapper) sees
// it already callable.
func (c *Compiler) emitFunctionHoistInit(fd *ast.FunctionDeclaration) {
	c.compileFunctionValue(fd.ID, fd.Params, fd.Body, fd.IsGenerator, fd.IsAsync, false)
	c.emitBindingInit(fd.ID.Name)
}

// identifierLocator resolves a read/write reference to name into a
// BindingLocator, recording a new locator slot in the current builder.
func (c *Compiler) identifierLocator(name interner.Symbol) bytecode.BindingLocator {
	idx, kind, ok := c.lookupName(name)
	if !ok {
		return bytecode.BindingLocator{Kind: bytecode.LocatorDynamic, Name: name}
	}
	if kind == nameGlobalProp {
		return bytecode.BindingLocator{Kind: bytecode.LocatorGlobal, Name: name}
	}
	return bytecode.BindingLocator{Kind: bytecode.LocatorUpvalue, Name: name, Depth: c.depthTo(idx)}
}

// emitBindingInit emits the OpInitBinding sequence that releases a
// let/const/function/class/catch binding's TDZ with the value already
// on top of the operand stack; it consumes that value.
func (c *Compiler) emitBindingInit(name interner.Symbol) {
	loc := c.identifierLocator(name)
	idx := c.fc.b.locator(loc)
	c.fc.b.emitU32(bytecode.OpInitBinding, idx)
}

// emitBindingDeclareVar emits OpDeclareVar for a var-kind name (no
// value; the binding starts as undefined, or as a raw zeroed stack slot
// for LocatorLocal which pushCall already reserved).
func (c *Compiler) emitBindingDeclareVar(name interner.Symbol) {
	loc := c.identifierLocator(name)
	idx := c.fc.b.locator(loc)
	c.fc.b.emitU32(bytecode.OpDeclareVar, idx)
}

func (c *Compiler) emitGetBinding(name interner.Symbol) {
	loc := c.identifierLocator(name)
	idx := c.fc.b.locator(loc)
	c.fc.b.emitU32(bytecode.OpGetBinding, idx)
}

func (c *Compiler) emitSetBinding(name interner.Symbol) {
	loc := c.identifierLocator(name)
	idx := c.fc.b.locator(loc)
	c.fc.b.emitU32(bytecode.OpSetBinding, idx)
}
