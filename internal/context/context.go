// Package context is the engine's embedding API: a Context owns one
// Machine, its Interner, and the standard library Install wires onto
// it, and exposes the small surface an embedding Go program drives
// script execution through (spec.md §6) — Eval, ParseModule,
// RegisterGlobal, RegisterNativeFunction, RunJobs. Every exported
// error wraps one of internal/errors' typed stages so a caller can
// distinguish "your script doesn't parse" from "your script threw".
package context

import (
	"github.com/standardbeagle/jsengine/internal/ast"
	"github.com/standardbeagle/jsengine/internal/builtins"
	"github.com/standardbeagle/jsengine/internal/compiler"
	"github.com/standardbeagle/jsengine/internal/config"
	"github.com/standardbeagle/jsengine/internal/errors"
	"github.com/standardbeagle/jsengine/internal/gc"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/module"
	"github.com/standardbeagle/jsengine/internal/parser"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// Context is one independent ECMAScript execution context: its own
// Machine (heap, global object, job queue) and the Interner every
// program it parses/compiles must share. Create one per isolated
// script environment; spec.md §5 requires each concurrent thread to
// get its own Context rather than share a Machine.
type Context struct {
	cfg      *config.Config
	in       *interner.Interner
	Machine  *vm.Machine
	Registry *builtins.Registry

	gcThreshold int
}

// New builds a Context from cfg, constructing the Machine, installing
// the standard library, and wiring the configured call-depth limit and
// initial GC trigger threshold. A nil cfg loads .jsengine.kdl from the
// working directory (all defaults when that file does not exist); if
// the file cannot be read, parsed or validated, a zero Config is used.
func New(cfg *config.Config) *Context {
	if cfg == nil {
		loaded, err := config.Load(".jsengine.kdl")
		if err != nil {
			loaded = &config.Config{}
		}
		cfg = loaded
	}

	in := interner.New()
	m := vm.NewMachine(in)
	if cfg.Runtime.MaxCallDepth > 0 {
		m.SetMaxCallDepth(cfg.Runtime.MaxCallDepth)
	}

	reg := builtins.Install(m, in, cfg)

	threshold := cfg.GC.TriggerThreshold
	if threshold <= 0 {
		threshold = 4096
	}

	return &Context{cfg: cfg, in: in, Machine: m, Registry: reg, gcThreshold: threshold}
}

// Eval parses src as a script, compiles it, and runs it to completion,
// returning the script's completion value. A parse or compile failure
// comes back as *errors.ParseError/*errors.CompileError; a script
// throw comes back as the *vm.ThrownValue the Machine raised.
func (c *Context) Eval(src string) (value.Value, error) {
	return c.run(src, "<eval>", false)
}

// ParseModule parses src as module source (import/export accepted,
// implicitly strict) and runs its top-level body, mirroring Eval. The
// compiler does not read ast.Program.IsModule, so top-level
// declarations bind exactly as they do in a script. Module specifier
// resolution itself lives in
// internal/module; this only compiles source text already read by a
// loader.
func (c *Context) ParseModule(src string) (value.Value, error) {
	return c.run(src, "<module>", true)
}

func (c *Context) run(src, sourceName string, asModule bool) (value.Value, error) {
	p, err := parser.New(src, c.in)
	if err != nil {
		return value.UndefinedValue, errors.NewParseError(sourceName, 0, 0, "", err)
	}

	var program *ast.Program
	if asModule {
		program, err = p.ParseModule()
	} else {
		program, err = p.ParseScript()
	}
	if err != nil {
		return value.UndefinedValue, errors.NewParseError(sourceName, 0, 0, "", err)
	}

	code, err := compiler.Compile(program, sourceName, c.in)
	if err != nil {
		return value.UndefinedValue, errors.NewCompileError(sourceName, "bytecode", err)
	}

	result, err := c.Machine.RunScript(code)
	if err != nil {
		return value.UndefinedValue, err
	}
	if runErr := c.RunJobs(); runErr != nil {
		return result, runErr
	}
	c.maybeCollect()
	return result, nil
}

// RegisterGlobal defines name on the global object, writable and
// configurable like any top-level `var`, so script code can shadow or
// delete a host binding the same way it could its own.
func (c *Context) RegisterGlobal(name string, v value.Value) {
	c.Machine.Global.DefineDataProperty(c.in.Intern(name), v, value.AttrWritable|value.AttrConfigurable)
}

// RegisterNativeFunction exposes a Go function to script under name,
// using the same NativeFunc/Callable seam the standard library's own
// methods are built from — a registered host function is
// indistinguishable from a built-in one to script code.
func (c *Context) RegisterNativeFunction(name string, arity int, fn func(this value.Value, args []value.Value) (value.Value, error)) *value.Object {
	return builtins.Def(c.in, c.Machine.Global, name, arity, fn)
}

// RunJobs drains the Promise reaction / job queue to completion,
// stopping at the first job that returns an error (spec.md §6 "the
// embedder decides when microtasks run" — Eval/ParseModule call this
// once automatically after the top-level script returns, but a host
// event loop driving long-lived promises should call it again after
// each external event).
func (c *Context) RunJobs() error {
	return c.Machine.Jobs.Drain()
}

// ModuleHost builds a module.Host bound to this Context and loader —
// Context already satisfies module.Evaluator (ParseModule + Interner),
// so no adapter is needed between the embedding API and the module
// loader seam spec.md §6 describes separately.
func (c *Context) ModuleHost(loader module.Loader) *module.Host {
	return module.NewHost(loader, c)
}

// Interner returns the Symbol interner this Context's Machine compiles
// and executes against; a module loader or host tool that needs to
// intern a property name before calling RegisterGlobal uses this.
func (c *Context) Interner() *interner.Interner { return c.in }

// Collect runs one GC cycle immediately, independent of the automatic
// threshold check Eval/ParseModule perform after every top-level run.
func (c *Context) Collect() gc.Stats { return c.Machine.Heap.Collect() }

// maybeCollect implements the GC.TriggerThreshold/HeapGrowthFactor
// policy from config.go's doc comments: collect once live cells cross
// the current threshold, then raise the threshold by the growth
// factor so a long-running script doesn't collect every single call.
func (c *Context) maybeCollect() {
	if c.Machine.Heap.LiveCount() < c.gcThreshold {
		return
	}
	c.Machine.Heap.Collect()
	growth := c.cfg.GC.HeapGrowthFactor
	if growth <= 1.0 {
		growth = 2.0
	}
	c.gcThreshold = int(float64(c.gcThreshold) * growth)
}
