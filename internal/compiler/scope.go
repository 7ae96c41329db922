package compiler

import "github.com/standardbeagle/jsengine/internal/interner"

// lexScope mirrors one runtime Environment level. The compiler keeps a
// single stack of these across the whole compile — including across
// nested function bodies — because BindingLocator.Depth is walked
// against the live Environment chain at runtime (internal/vm's
// resolveGet/resolveSet), and that chain is not reset at call-frame
// boundaries: a closure's captured Env keeps right on pointing at its
// defining function's scopes. Depth is therefore "how many Environment
// hops from here", not "how many scopes within this function".
type lexScope struct {
	isFunctionTop bool // var declarations hoist to the nearest one of these
	isScriptTop   bool // the very outermost scope: var/function decls are global-object properties, not Environment bindings
	names         map[interner.Symbol]nameKind
}

// nameKind records, per declared identifier, which BindingLocator.Kind
// a reference to it should use.
type nameKind byte

const (
	nameEnv nameKind = iota
	nameGlobalProp
)

func newLexScope(isFunctionTop bool) *lexScope {
	return &lexScope{isFunctionTop: isFunctionTop, names: make(map[interner.Symbol]nameKind)}
}

// loopCtx tracks the jump-patch lists a break/continue inside a loop or
// switch body needs filled in once the loop's start/end addresses are
// known.
type loopCtx struct {
	label         string // "" if the loop carries no label
	isSwitch      bool   // switch bodies support break but not continue
	breakJumps    []uint32
	continueJumps []uint32
	continueAt    uint32 // patched once the loop's update/condition point is known
	haveContinue  bool
}

// funcCtx holds everything scoped to a single function body (or the
// top-level script/module): its bytecode builder, raw-stack-slot
// counter for the param-transfer prologue, and loop/label bookkeeping.
// It does NOT own the lexical scope stack — that lives on the Compiler
// itself and spans function boundaries, per lexScope's doc comment.
type funcCtx struct {
	b           *builder
	parent      *funcCtx
	numLocals   int
	loops       []*loopCtx
	inGenerator bool
	inAsync     bool
	isArrow     bool
	hoistedVars []interner.Symbol
}

func newFuncCtx(b *builder, parent *funcCtx) *funcCtx {
	return &funcCtx{b: b, parent: parent}
}

func (fc *funcCtx) pushLoop(label string, isSwitch bool) *loopCtx {
	lc := &loopCtx{label: label, isSwitch: isSwitch}
	fc.loops = append(fc.loops, lc)
	return lc
}

func (fc *funcCtx) popLoop() {
	fc.loops = fc.loops[:len(fc.loops)-1]
}

// findLoop resolves a break/continue target. label == "" matches the
// innermost loop (continue) or innermost loop/switch (break).
func (fc *funcCtx) findLoop(label string, forContinue bool) *loopCtx {
	for i := len(fc.loops) - 1; i >= 0; i-- {
		lc := fc.loops[i]
		if label == "" {
			if forContinue && lc.isSwitch {
				continue // switch never matches an unlabeled continue
			}
			return lc
		}
		if lc.label == label {
			return lc
		}
	}
	return nil
}

// pushScope records a new lexical scope. Call sites are also
// responsible for emitting OpPushScope in the bytecode stream; this
// only updates compile-time bookkeeping.
func (c *Compiler) pushScope(isFunctionTop bool) {
	c.scopes = append(c.scopes, newLexScope(isFunctionTop))
}

func (c *Compiler) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Compiler) currentScope() *lexScope {
	return c.scopes[len(c.scopes)-1]
}

// nearestFunctionScopeIndex returns the scope-stack index of the
// nearest enclosing function-top scope (where var declarations land),
// walking outward from the top of the stack.
func (c *Compiler) nearestFunctionScopeIndex() int {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].isFunctionTop {
			return i
		}
	}
	return 0
}

// depthTo returns how many Environment hops separate the current top
// scope from the scope at index idx.
func (c *Compiler) depthTo(idx int) uint32 {
	return uint32(len(c.scopes) - 1 - idx)
}

// declareLexical records name as declared in the current (innermost)
// scope, for shadowing/TDZ bookkeeping purposes. It does not by itself
// emit anything.
func (c *Compiler) declareLexical(name interner.Symbol) {
	c.currentScope().names[name] = nameEnv
}

// declareVarName records name in the nearest function-top scope (or
// the outermost/global scope if none), matching JS var hoisting, and
// returns that scope's index.
func (c *Compiler) declareVarName(name interner.Symbol) int {
	idx := c.nearestFunctionScopeIndex()
	if c.scopes[idx].isScriptTop {
		c.scopes[idx].names[name] = nameGlobalProp
	} else {
		c.scopes[idx].names[name] = nameEnv
	}
	c.fc.hoistedVars = append(c.fc.hoistedVars, name)
	return idx
}

// lookupName walks the scope stack outward from the top looking for
// name, returning the declaring scope's index, its nameKind, and
// whether it was found at all.
func (c *Compiler) lookupName(name interner.Symbol) (int, nameKind, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if kind, ok := c.scopes[i].names[name]; ok {
			return i, kind, true
		}
	}
	return 0, nameEnv, false
}
