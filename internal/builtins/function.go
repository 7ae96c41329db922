package builtins

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// boundFunc implements value.Callable for Function.prototype.bind's
// result: a permanently partially-applied wrapper around target.
type boundFunc struct {
	target    value.Callable
	boundThis value.Value
	boundArgs []value.Value
}

func (b *boundFunc) Call(this value.Value, args []value.Value) (value.Value, error) {
	return b.target.Call(b.boundThis, append(append([]value.Value{}, b.boundArgs...), args...))
}

func (b *boundFunc) Construct(args []value.Value, newTarget *value.Object) (value.Value, error) {
	full := append(append([]value.Value{}, b.boundArgs...), args...)
	return b.target.Construct(full, newTarget)
}

// installFunction builds Function.prototype's call/apply/bind, the
// three methods every closure and native function alike inherits
// through m.FunctionProto regardless of how it was produced.
func installFunction(m *vm.Machine, in *interner.Interner, objectProto *value.Object) *value.Object {
	proto := value.NewWithClass(objectProto, value.ClassFunction)
	proto.Callable = &NativeFunc{Name: "", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		return value.UndefinedValue, nil
	}}

	Def(in, proto, "call", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		if this.Kind() != value.Object_ || this.AsObject().Callable == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Function.prototype.call called on non-function")
		}
		callThis := arg(args, 0)
		var rest []value.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return this.AsObject().Callable.Call(callThis, rest)
	})
	Def(in, proto, "apply", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		if this.Kind() != value.Object_ || this.AsObject().Callable == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Function.prototype.apply called on non-function")
		}
		callThis := arg(args, 0)
		var rest []value.Value
		if len(args) > 1 && args[1].Kind() == value.Object_ {
			rest = toSlice(args[1].AsObject())
		}
		return this.AsObject().Callable.Call(callThis, rest)
	})
	Def(in, proto, "bind", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		if this.Kind() != value.Object_ || this.AsObject().Callable == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Function.prototype.bind called on non-function")
		}
		boundThis := arg(args, 0)
		var boundArgs []value.Value
		if len(args) > 1 {
			boundArgs = append([]value.Value{}, args[1:]...)
		}
		orig := this.AsObject()
		bf := &boundFunc{target: orig.Callable, boundThis: boundThis, boundArgs: boundArgs}
		o := value.NewWithClass(m.FunctionProto, value.ClassFunction)
		o.Callable = bf
		nameV, _ := orig.Get(interner.SymName, this)
		o.DefineDataProperty(interner.SymName, value.Str("bound "+ToString(nameV)), value.AttrConfigurable)
		return value.ObjectValue(o), nil
	})
	Def(in, proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		name := ""
		if this.Kind() == value.Object_ {
			nameV, _ := this.AsObject().Get(interner.SymName, this)
			name = ToString(nameV)
		}
		return value.Str("function " + name + "() { [native code] }"), nil
	})

	return proto
}
