package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jsengine/internal/context"
)

func eval(t *testing.T, src string) float64 {
	t.Helper()
	ctx := context.New(nil)
	result, err := ctx.Eval(src)
	require.NoError(t, err)
	return result.AsFloat64()
}

func TestCompletionValueIsLastExpressionStatement(t *testing.T) {
	ctx := context.New(nil)
	result, err := ctx.Eval("1 + 2; 3 + 4;")
	require.NoError(t, err)
	assert.Equal(t, float64(7), result.AsFloat64())
}

func TestCompletionValueFallsBackToUndefinedForNonExpression(t *testing.T) {
	ctx := context.New(nil)
	result, err := ctx.Eval("let x = 1;")
	require.NoError(t, err)
	assert.True(t, result.IsUndefined())
}

func TestIfElseBranches(t *testing.T) {
	assert.Equal(t, float64(1), eval(t, "let r; if (true) { r = 1; } else { r = 2; } r;"))
	assert.Equal(t, float64(2), eval(t, "let r; if (false) { r = 1; } else { r = 2; } r;"))
}

func TestWhileLoopAccumulates(t *testing.T) {
	assert.Equal(t, float64(10), eval(t, `
		let i = 0, sum = 0;
		while (i < 5) { sum = sum + i; i = i + 1; }
		sum;
	`))
}

func TestForLoopBreakAndContinue(t *testing.T) {
	assert.Equal(t, float64(6), eval(t, `
		let sum = 0;
		for (let i = 0; i < 10; i = i + 1) {
			if (i === 5) break;
			if (i % 2 === 0) continue;
			sum = sum + i;
		}
		sum;
	`))
}

func TestLabeledBreakExitsOuterLoop(t *testing.T) {
	assert.Equal(t, float64(1), eval(t, `
		let hits = 0;
		outer: for (let i = 0; i < 3; i = i + 1) {
			for (let j = 0; j < 3; j = j + 1) {
				hits = hits + 1;
				break outer;
			}
		}
		hits;
	`))
}

func TestForOfSumsArray(t *testing.T) {
	assert.Equal(t, float64(6), eval(t, `
		let sum = 0;
		for (const v of [1, 2, 3]) { sum = sum + v; }
		sum;
	`))
}

func TestSwitchFallsThroughToDefault(t *testing.T) {
	assert.Equal(t, float64(2), eval(t, `
		let r = 0;
		switch (5) {
		case 1:
			r = 1;
			break;
		default:
			r = 2;
		}
		r;
	`))
}

func TestSwitchFallthroughBetweenCases(t *testing.T) {
	assert.Equal(t, float64(2), eval(t, `
		let r = 0;
		switch (1) {
		case 1:
			r = r + 1;
		case 2:
			r = r + 1;
			break;
		case 3:
			r = r + 100;
		}
		r;
	`))
}

func TestTryCatchRecoversThrownValue(t *testing.T) {
	assert.Equal(t, float64(42), eval(t, `
		let r;
		try {
			throw 42;
		} catch (e) {
			r = e;
		}
		r;
	`))
}

func TestTryFinallyRunsOnNormalCompletion(t *testing.T) {
	assert.Equal(t, float64(2), eval(t, `
		let r = 0;
		try {
			r = 1;
		} finally {
			r = r + 1;
		}
		r;
	`))
}

func TestTryCatchFinallyAllRun(t *testing.T) {
	assert.Equal(t, float64(3), eval(t, `
		let order = 0;
		try {
			order = 1;
			throw "boom";
		} catch (e) {
			order = order + 1;
		} finally {
			order = order + 1;
		}
		order;
	`))
}

func TestThrowInsideCatchStillRunsFinally(t *testing.T) {
	ctx := context.New(nil)
	_, err := ctx.Eval(`
		globalThis.__ran = false;
		try {
			try {
				throw "first";
			} catch (e) {
				throw "second";
			} finally {
				globalThis.__ran = true;
			}
		} catch (e) {}
	`)
	require.NoError(t, err)
	ran, err := ctx.Eval("globalThis.__ran;")
	require.NoError(t, err)
	assert.True(t, ran.AsBool())
}

func TestFunctionDeclarationHoistingSupportsForwardCall(t *testing.T) {
	assert.Equal(t, float64(5), eval(t, "add(2, 3); function add(a, b) { return a + b; }"))
}

func TestClassWithInheritanceAndSuperCall(t *testing.T) {
	assert.Equal(t, float64(30), eval(t, `
		class Base {
			constructor(x) { this.x = x; }
			double() { return this.x * 2; }
		}
		class Derived extends Base {
			constructor(x) { super(x); }
			triple() { return super.double() + this.x; }
		}
		let d = new Derived(10);
		d.triple();
	`))
}

func TestArrowFunctionLexicalThis(t *testing.T) {
	assert.Equal(t, float64(9), eval(t, `
		class Counter {
			constructor() { this.n = 9; }
			getter() { return (() => this.n)(); }
		}
		new Counter().getter();
	`))
}

func TestArrayDestructuringWithRest(t *testing.T) {
	assert.Equal(t, float64(5), eval(t, `
		const [a, ...rest] = [1, 2, 3, 4];
		a + rest.length;
	`))
}

func TestObjectDestructuringWithDefault(t *testing.T) {
	assert.Equal(t, float64(7), eval(t, `
		const { a, b = 5 } = { a: 2 };
		a + b;
	`))
}

func TestSpreadInArrayLiteralAndCall(t *testing.T) {
	assert.Equal(t, float64(6), eval(t, `
		function sum3(a, b, c) { return a + b + c; }
		const parts = [2, 3];
		sum3(1, ...parts);
	`))
}

func TestOptionalChainingShortCircuits(t *testing.T) {
	ctx := context.New(nil)
	result, err := ctx.Eval(`
		let obj = { a: null };
		obj.a?.b?.c;
	`)
	require.NoError(t, err)
	assert.True(t, result.IsUndefined())
}

func TestLogicalAssignmentOperators(t *testing.T) {
	assert.Equal(t, float64(5), eval(t, "let x = null; x ??= 5; x;"))
	assert.Equal(t, float64(2), eval(t, "let x = 0; x ||= 2; x;"))
}
