package compiler

import (
	"github.com/standardbeagle/jsengine/internal/ast"
	"github.com/standardbeagle/jsengine/internal/bytecode"
)

// compileStatement lowers stmt, leaving the operand stack exactly as it
// found it (every statement is stack-neutral by construction, which is
// what lets try/catch/finally register a single constant StackDepth for
// its handler table entries).
func (c *Compiler) compileStatement(stmt ast.Node) {
	b := c.fc.b
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		c.compileExpr(s.Expression)
		b.emit(bytecode.OpPop)

	case *ast.EmptyStatement, *ast.DebuggerStatement:
		// no-ops

	case *ast.BlockStatement:
		c.pushScope(false)
		b.emit(bytecode.OpPushScope)
		c.compileTopLevel(s.Body, false)
		b.emit(bytecode.OpPopScope)
		c.popScope()

	case *ast.VariableDeclaration:
		c.compileVariableDeclaration(s)

	case *ast.FunctionDeclaration:
		// already hoisted and initialized by compileTopLevel

	case *ast.ClassDeclaration:
		c.compileClassValue(s.ID, s.SuperClass, s.Members)
		if s.ID != nil {
			c.emitBindingInit(s.ID.Name)
		} else {
			b.emit(bytecode.OpPop)
		}

	case *ast.IfStatement:
		c.compileExpr(s.Test)
		elseAt := b.reserveU32(bytecode.OpJumpIfFalse)
		c.compileStatement(s.Consequent)
		if s.Alternate != nil {
			endAt := b.reserveU32(bytecode.OpJump)
			b.patchU32(elseAt, b.pos())
			c.compileStatement(s.Alternate)
			b.patchU32(endAt, b.pos())
		} else {
			b.patchU32(elseAt, b.pos())
		}

	case *ast.ForStatement:
		c.compileForStatement(s, "")

	case *ast.ForInStatement:
		c.compileForInStatement(s, "")

	case *ast.WhileStatement:
		c.compileWhileStatement(s, "")

	case *ast.DoWhileStatement:
		c.compileDoWhileStatement(s, "")

	case *ast.BreakStatement:
		c.compileBreak(s)

	case *ast.ContinueStatement:
		c.compileContinue(s)

	case *ast.ReturnStatement:
		if s.Argument != nil {
			c.compileExpr(s.Argument)
		} else {
			b.emit(bytecode.OpLoadUndefined)
		}
		b.emit(bytecode.OpReturn)

	case *ast.ThrowStatement:
		c.compileExpr(s.Argument)
		b.emit(bytecode.OpThrow)

	case *ast.LabeledStatement:
		c.compileLabeledStatement(s)

	case *ast.SwitchStatement:
		c.compileSwitchStatement(s, "")

	case *ast.TryStatement:
		c.compileTryStatement(s)

	case *ast.ImportDeclaration:
		// Module linking (resolving/evaluating the imported specifier
		// against a loader) lives outside the compiler, at
		// internal/module's Host/Loader seam; the compiler's job ends
		// at recognizing the statement and leaving bound names in TDZ
		// until the host fills them in, so a plain no-op here is
		// correct for this pass's scope.

	case *ast.ExportNamedDeclaration:
		if s.Declaration != nil {
			c.compileStatement(s.Declaration)
		}

	case *ast.ExportDefaultDeclaration:
		c.compileExportDefault(s)

	case *ast.ExportAllDeclaration:
		// re-export linking is a module-loader concern, not the compiler's

	default:
		c.fail("unsupported statement node %T", stmt)
	}
}

// compileExportDefault handles all three export-default forms: a named
// or anonymous function/class declaration (bound under its own name
// when named, otherwise left as a throwaway expression value since this
// compiler has no module-namespace-object binding step), or a bare
// expression.
func (c *Compiler) compileExportDefault(s *ast.ExportDefaultDeclaration) {
	b := c.fc.b
	switch d := s.Declaration.(type) {
	case *ast.FunctionDeclaration:
		c.compileFunctionValue(d.ID, d.Params, d.Body, d.IsGenerator, d.IsAsync, false)
		if d.ID != nil {
			c.emitBindingInit(d.ID.Name)
		} else {
			b.emit(bytecode.OpPop)
		}
	case *ast.ClassDeclaration:
		c.compileClassValue(d.ID, d.SuperClass, d.Members)
		if d.ID != nil {
			c.emitBindingInit(d.ID.Name)
		} else {
			b.emit(bytecode.OpPop)
		}
	default:
		c.compileExpr(s.Declaration)
		b.emit(bytecode.OpPop)
	}
}

func (c *Compiler) compileVariableDeclaration(s *ast.VariableDeclaration) {
	b := c.fc.b
	sink := c.declSink()
	for _, d := range s.Declarations {
		if d.Init != nil {
			c.compileExpr(d.Init)
			c.compilePattern(d.ID, sink)
			continue
		}
		if s.Kind == ast.Var {
			// no initializer: the var was already declared as undefined
			// by compileTopLevel's hoist pass, nothing more to do
			continue
		}
		// let/const with no initializer still needs its TDZ released
		b.emit(bytecode.OpLoadUndefined)
		c.compilePattern(d.ID, sink)
	}
}

// compileBreak/compileContinue resolve their label (if any) against the
// enclosing loopCtx stack and patch a jump once the loop's exit/update
// point is known.
func (c *Compiler) compileBreak(s *ast.BreakStatement) {
	b := c.fc.b
	label := ""
	if s.Label != nil {
		label = c.in.Lookup(s.Label.Name)
	}
	lc := c.fc.findLoop(label, false)
	if lc == nil {
		c.fail("break outside a loop or switch")
		return
	}
	at := b.reserveU32(bytecode.OpJump)
	lc.breakJumps = append(lc.breakJumps, at)
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) {
	b := c.fc.b
	label := ""
	if s.Label != nil {
		label = c.in.Lookup(s.Label.Name)
	}
	lc := c.fc.findLoop(label, true)
	if lc == nil {
		c.fail("continue outside a loop")
		return
	}
	at := b.reserveU32(bytecode.OpJump)
	lc.continueJumps = append(lc.continueJumps, at)
}

func (c *Compiler) patchLoopExits(lc *loopCtx, continueAt, endAt uint32) {
	b := c.fc.b
	for _, at := range lc.continueJumps {
		b.patchU32(at, continueAt)
	}
	for _, at := range lc.breakJumps {
		b.patchU32(at, endAt)
	}
}

func (c *Compiler) compileWhileStatement(s *ast.WhileStatement, label string) {
	b := c.fc.b
	lc := c.fc.pushLoop(label, false)
	start := b.pos()
	c.compileExpr(s.Test)
	endJump := b.reserveU32(bytecode.OpJumpIfFalse)
	c.compileStatement(s.Body)
	b.emitU32(bytecode.OpJump, start)
	b.patchU32(endJump, b.pos())
	c.patchLoopExits(lc, start, b.pos())
	c.fc.popLoop()
}

func (c *Compiler) compileDoWhileStatement(s *ast.DoWhileStatement, label string) {
	b := c.fc.b
	lc := c.fc.pushLoop(label, false)
	start := b.pos()
	c.compileStatement(s.Body)
	continueAt := b.pos()
	c.compileExpr(s.Test)
	b.emitU32(bytecode.OpJumpIfTrue, start)
	c.patchLoopExits(lc, continueAt, b.pos())
	c.fc.popLoop()
}

func (c *Compiler) compileForStatement(s *ast.ForStatement, label string) {
	b := c.fc.b
	c.pushScope(false)
	b.emit(bytecode.OpPushScope)

	switch init := s.Init.(type) {
	case nil:
	case *ast.VariableDeclaration:
		c.compileVariableDeclaration(init)
	default:
		c.compileExpr(s.Init)
		b.emit(bytecode.OpPop)
	}

	lc := c.fc.pushLoop(label, false)
	start := b.pos()
	var endJump uint32
	hasTest := s.Test != nil
	if hasTest {
		c.compileExpr(s.Test)
		endJump = b.reserveU32(bytecode.OpJumpIfFalse)
	}
	c.compileStatement(s.Body)
	continueAt := b.pos()
	if s.Update != nil {
		c.compileExpr(s.Update)
		b.emit(bytecode.OpPop)
	}
	b.emitU32(bytecode.OpJump, start)
	if hasTest {
		b.patchU32(endJump, b.pos())
	}
	c.patchLoopExits(lc, continueAt, b.pos())
	c.fc.popLoop()

	b.emit(bytecode.OpPopScope)
	c.popScope()
}

// compileForInStatement covers both for-in and for-of (s.Of), each
// iteration re-binding the loop variable fresh so closures created
// inside the body capture their own per-iteration copy, matching
// let/const for-of semantics.
func (c *Compiler) compileForInStatement(s *ast.ForInStatement, label string) {
	b := c.fc.b

	c.compileExpr(s.Right)
	// for-in (enumerate-keys) and for-of (iterate-values) both drive
	// through the same OpGetIterator/OpIteratorNext protocol surface;
	// the VM's GetIterator on a plain object yields a key enumerator
	// when the source isn't already iterable.
	b.emit(bytecode.OpGetIterator)

	lc := c.fc.pushLoop(label, false)
	start := b.pos()
	b.emit(bytecode.OpIteratorNext) // [done,val]
	b.emit(bytecode.OpSwap)         // [val,done]
	endJump := b.reserveU32(bytecode.OpJumpIfTrue) // pops done; [val]

	c.pushScope(false)
	b.emit(bytecode.OpPushScope)

	c.compileForInTarget(s.Left)

	c.compileStatement(s.Body)

	b.emit(bytecode.OpPopScope)
	c.popScope()

	continueAt := b.pos()
	b.emitU32(bytecode.OpJump, start)
	b.patchU32(endJump, b.pos())
	b.emit(bytecode.OpIteratorClose)
	c.patchLoopExits(lc, continueAt, b.pos())
	c.fc.popLoop()
}

// compileForInTarget consumes the per-iteration value (already on top
// of the stack) into the loop's left-hand target, whether that's a
// fresh var/let/const declaration or a plain assignment target.
func (c *Compiler) compileForInTarget(left ast.Node) {
	switch l := left.(type) {
	case *ast.VariableDeclaration:
		d := l.Declarations[0]
		c.compilePattern(d.ID, c.declSink())
	case *ast.Identifier:
		c.emitSetBinding(l.Name)
		c.fc.b.emit(bytecode.OpPop)
	default:
		c.compilePattern(left, c.assignSink())
	}
}

func (c *Compiler) compileLabeledStatement(s *ast.LabeledStatement) {
	lid, ok := s.Label.(*ast.Identifier)
	if !ok {
		c.fail("invalid label node %T", s.Label)
		return
	}
	label := c.in.Lookup(lid.Name)

	switch body := s.Body.(type) {
	case *ast.ForStatement:
		c.compileForStatement(body, label)
	case *ast.ForInStatement:
		c.compileForInStatement(body, label)
	case *ast.WhileStatement:
		c.compileWhileStatement(body, label)
	case *ast.DoWhileStatement:
		c.compileDoWhileStatement(body, label)
	case *ast.SwitchStatement:
		c.compileSwitchStatement(body, label)
	default:
		b := c.fc.b
		lc := c.fc.pushLoop(label, true)
		c.compileStatement(body)
		c.patchLoopExits(lc, b.pos(), b.pos())
		c.fc.popLoop()
	}
}

// compileSwitchStatement compiles the discriminant once, tests each
// non-default case in source order with strict equality, and falls
// through case bodies in source order the way a real switch does.
func (c *Compiler) compileSwitchStatement(s *ast.SwitchStatement, label string) {
	b := c.fc.b
	c.compileExpr(s.Discriminant) // [disc]

	c.pushScope(false)
	b.emit(bytecode.OpPushScope)
	lc := c.fc.pushLoop(label, true)

	var testJumps []uint32
	defaultIdx := -1
	for i, cs := range s.Cases {
		if cs.Test == nil {
			defaultIdx = i
			continue
		}
		b.emit(bytecode.OpDup) // [disc,disc]
		c.compileExpr(cs.Test)
		b.emit(bytecode.OpBinary)
		b.emitByte(byte(bytecode.BinStrictEq))
		at := b.reserveU32(bytecode.OpJumpIfTrue) // pops bool, keeps [disc]
		testJumps = append(testJumps, at)
	}
	// no match: drop discriminant and go to default (or straight to end)
	b.emit(bytecode.OpPop)
	defaultJump := b.reserveU32(bytecode.OpJump)

	caseStarts := make([]uint32, len(s.Cases))
	ti := 0
	for i, cs := range s.Cases {
		if cs.Test != nil {
			b.patchU32(testJumps[ti], b.pos())
			ti++
			b.emit(bytecode.OpPop) // matched: drop the now-redundant discriminant
		}
		caseStarts[i] = b.pos()
		for _, stmt := range cs.Consequent {
			c.compileStatement(stmt)
		}
	}

	if defaultIdx >= 0 {
		b.patchU32(defaultJump, caseStarts[defaultIdx])
	} else {
		b.patchU32(defaultJump, b.pos())
	}

	end := b.pos()
	c.patchLoopExits(lc, end, end)
	c.fc.popLoop()
	b.emit(bytecode.OpPopScope)
	c.popScope()
}

// compileTryStatement registers one ExceptionHandler for the try block
// (and, when both a catch and a finally are present, a second covering
// just the catch block so an exception raised inside catch still runs
// the finally). Break/continue that jump out of a try/finally across
// its boundary do not run the finally block — the VM gives no
// automatic interception for those completions, only for return/throw
// (through handleError's table lookup) and the normal fallthrough
// OpFinallyReturn already covers.
func (c *Compiler) compileTryStatement(s *ast.TryStatement) {
	b := c.fc.b
	stackDepth := uint32(c.fc.numLocals)

	tryStart := b.pos()
	c.pushScope(false)
	b.emit(bytecode.OpPushScope)
	c.compileTopLevel(s.Block.Body, false)
	b.emit(bytecode.OpPopScope)
	c.popScope()
	tryEnd := b.pos()

	// A normal (non-throwing) completion of the try block must still
	// run the finally block, so it falls through into it rather than
	// skipping ahead — only the catch block (reachable solely via
	// handleError jumping in on a thrown value) needs to be hopped over.
	skipCatch := b.reserveU32(bytecode.OpJump)

	var catchPC, catchStart, catchEnd uint32
	haveCatch := s.Handler != nil
	if haveCatch {
		catchPC = b.pos()
		c.pushScope(false)
		b.emit(bytecode.OpPushScope)
		if s.Handler.Param != nil {
			c.compilePattern(s.Handler.Param, c.declSink())
		} else {
			b.emit(bytecode.OpPop) // no catch binding: discard the thrown value
		}
		catchStart = b.pos()
		c.compileTopLevel(s.Handler.Body.Body, false)
		b.emit(bytecode.OpPopScope)
		c.popScope()
		catchEnd = b.pos()
	}

	// whether or not there was a catch, execution reaches here both on
	// normal try completion (via skipCatch) and on normal catch
	// completion (falling straight through) — exactly where the
	// finally block (or, absent one, the statement's end) begins.
	b.patchU32(skipCatch, b.pos())

	var finallyPC uint32
	if s.Finalizer != nil {
		finallyPC = b.pos()
		c.pushScope(false)
		b.emit(bytecode.OpPushScope)
		c.compileTopLevel(s.Finalizer.Body, false)
		b.emit(bytecode.OpPopScope)
		c.popScope()
		b.emit(bytecode.OpFinallyReturn)
	}

	if haveCatch || s.Finalizer != nil {
		h := bytecode.ExceptionHandler{StartPC: tryStart, EndPC: tryEnd, StackDepth: stackDepth}
		if haveCatch {
			h.CatchPC = catchPC
		}
		h.FinallyPC = finallyPC
		b.handler(h)

		if haveCatch && s.Finalizer != nil {
			// a throw inside the catch body must still run the finally
			b.handler(bytecode.ExceptionHandler{
				StartPC: catchStart, EndPC: catchEnd,
				FinallyPC: finallyPC, StackDepth: stackDepth,
			})
		}
	}
}
