package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jsengine/internal/ast"
	"github.com/standardbeagle/jsengine/internal/interner"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p, err := New(src, interner.New())
	require.NoError(t, err)
	prog, err := p.ParseScript()
	require.NoError(t, err)
	return prog
}

func TestParsesVariableDeclaration(t *testing.T) {
	prog := mustParse(t, "let x = 1 + 2;")
	require.Len(t, prog.Body, 1)
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok)
	require.Equal(t, ast.Let, decl.Kind)
	require.Len(t, decl.Declarations, 1)
	bin, ok := decl.Declarations[0].Init.(*ast.BinaryExpression)
	require.True(t, ok)
	require.Equal(t, "+", bin.Operator)
}

func TestArrowFunctionCoverGrammar(t *testing.T) {
	prog := mustParse(t, "const f = (a, b = 1) => a + b;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	arrow, ok := decl.Declarations[0].Init.(*ast.ArrowFunctionExpression)
	require.True(t, ok)
	require.Len(t, arrow.Params, 2)
	require.True(t, arrow.ExpressionBody)
}

func TestParenthesizedExpressionIsNotArrow(t *testing.T) {
	prog := mustParse(t, "(1 + 2);")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	_, ok := stmt.Expression.(*ast.BinaryExpression)
	require.True(t, ok)
}

func TestAsyncArrowFunction(t *testing.T) {
	prog := mustParse(t, "const f = async x => x;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	arrow := decl.Declarations[0].Init.(*ast.ArrowFunctionExpression)
	require.True(t, arrow.IsAsync)
	require.Len(t, arrow.Params, 1)
}

func TestAutomaticSemicolonInsertion(t *testing.T) {
	prog := mustParse(t, "let a = 1\nlet b = 2\n")
	require.Len(t, prog.Body, 2)
}

func TestLabeledBreakThroughNestedLoops(t *testing.T) {
	prog := mustParse(t, "outer: for (;;) { for (;;) { break outer; } }")
	labeled, ok := prog.Body[0].(*ast.LabeledStatement)
	require.True(t, ok)
	_, ok = labeled.Body.(*ast.ForStatement)
	require.True(t, ok)
}

func TestTryCatchFinally(t *testing.T) {
	prog := mustParse(t, "try { f(); } catch (e) { g(e); } finally { h(); }")
	stmt, ok := prog.Body[0].(*ast.TryStatement)
	require.True(t, ok)
	require.NotNil(t, stmt.Handler)
	require.NotNil(t, stmt.Finalizer)
}

func TestObjectAndArrayDestructuring(t *testing.T) {
	prog := mustParse(t, "let { a, b: [c, ...d] } = obj;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	pattern, ok := decl.Declarations[0].ID.(*ast.ObjectPattern)
	require.True(t, ok)
	require.Len(t, pattern.Properties, 2)
}

func TestTemplateLiteralWithSubstitution(t *testing.T) {
	prog := mustParse(t, "let s = `hello ${name}!`;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	tmpl, ok := decl.Declarations[0].Init.(*ast.TemplateLiteral)
	require.True(t, ok)
	require.Len(t, tmpl.Quasis, 2)
	require.Len(t, tmpl.Expressions, 1)
}

func TestClassWithMethodsAndFields(t *testing.T) {
	prog := mustParse(t, "class Point { #x = 0; constructor(x) { this.#x = x; } get x() { return this.#x; } }")
	cls, ok := prog.Body[0].(*ast.ClassDeclaration)
	require.True(t, ok)
	require.Len(t, cls.Members, 3)
}

func TestSyntaxErrorOnMissingConstInitializer(t *testing.T) {
	p, err := New("const x;", interner.New())
	require.NoError(t, err)
	_, err = p.ParseScript()
	require.Error(t, err)
}

func TestIllegalBreakOutsideLoop(t *testing.T) {
	p, err := New("break;", interner.New())
	require.NoError(t, err)
	_, err = p.ParseScript()
	require.Error(t, err)
}
