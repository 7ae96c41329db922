package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jsengine/internal/config"
	engerrors "github.com/standardbeagle/jsengine/internal/errors"
	"github.com/standardbeagle/jsengine/internal/value"
)

func TestEvalArithmetic(t *testing.T) {
	ctx := New(nil)
	result, err := ctx.Eval("1 + 2 * 3;")
	require.NoError(t, err)
	assert.Equal(t, float64(7), result.AsFloat64())
}

func TestEvalSyntaxErrorIsTyped(t *testing.T) {
	ctx := New(nil)
	_, err := ctx.Eval("let = ;")
	require.Error(t, err)
	var pe *engerrors.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestRegisterGlobalVisibleToScript(t *testing.T) {
	ctx := New(nil)
	ctx.RegisterGlobal("greeting", value.Str("hello"))
	result, err := ctx.Eval("greeting + ' world';")
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.AsString())
}

func TestRegisterNativeFunctionCallableFromScript(t *testing.T) {
	ctx := New(nil)
	var seen float64
	ctx.RegisterNativeFunction("recordSum", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		a, b := args[0].AsFloat64(), args[1].AsFloat64()
		seen = a + b
		return value.Number(seen), nil
	})
	result, err := ctx.Eval("recordSum(4, 5);")
	require.NoError(t, err)
	assert.Equal(t, float64(9), result.AsFloat64())
	assert.Equal(t, float64(9), seen)
}

func TestPromiseSettlesAfterRunJobs(t *testing.T) {
	ctx := New(nil)
	_, err := ctx.Eval(`
		globalThis.__settled = "pending";
		Promise.resolve(42).then(function(v) { globalThis.__settled = v; });
	`)
	require.NoError(t, err)
	settled, err := ctx.Eval("globalThis.__settled;")
	require.NoError(t, err)
	assert.Equal(t, float64(42), settled.AsFloat64())
}

func TestConfigMaxCallDepthRejectsRunaway(t *testing.T) {
	cfg := &config.Config{Runtime: config.Runtime{MaxCallDepth: 8}}
	ctx := New(cfg)
	_, err := ctx.Eval(`
		function recurse(n) { return recurse(n + 1); }
		recurse(0);
	`)
	require.Error(t, err)
}
