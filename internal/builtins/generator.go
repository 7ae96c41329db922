package builtins

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// installGenerator builds Generator.prototype's next/throw/return,
// each one driving the vm.Generator coroutine stored in the instance's
// InternalData (installed by vm's own generator-call path) and
// wrapping its Completion into the {value, done} result object the
// iterator protocol requires.
func installGenerator(m *vm.Machine, in *interner.Interner, objectProto *value.Object) *value.Object {
	proto := value.NewWithClass(objectProto, value.ClassObject)

	step := func(this value.Value, who string, drive func(*vm.Generator) vm.Completion) (value.Value, error) {
		if this.Kind() != value.Object_ {
			return value.UndefinedValue, m.NewThrownError("TypeError", who+" called on non-object")
		}
		g, ok := this.AsObject().InternalData.(*vm.Generator)
		if !ok {
			return value.UndefinedValue, m.NewThrownError("TypeError", who+" called on incompatible receiver")
		}
		comp := drive(g)
		if comp.Kind == vm.CompletionThrow {
			return value.UndefinedValue, &vm.ThrownValue{Value: comp.Value}
		}
		result := value.New(objectProto)
		result.DefineDataProperty(interner.SymValue, comp.Value, value.DefaultDataAttributes())
		result.DefineDataProperty(interner.SymDone, value.Bool(g.Done()), value.DefaultDataAttributes())
		return value.ObjectValue(result), nil
	}

	Def(in, proto, "next", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return step(this, "Generator.prototype.next", func(g *vm.Generator) vm.Completion { return g.Next(arg(args, 0)) })
	})
	Def(in, proto, "throw", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return step(this, "Generator.prototype.throw", func(g *vm.Generator) vm.Completion { return g.Throw(arg(args, 0)) })
	})
	Def(in, proto, "return", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return step(this, "Generator.prototype.return", func(g *vm.Generator) vm.Completion { return g.Return(arg(args, 0)) })
	})
	Def(in, proto, "Symbol.iterator", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})

	return proto
}
