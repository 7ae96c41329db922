package builtins

import (
	"strconv"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// installBigInt wires the global BigInt function (callable, not
// constructible — `new BigInt(...)` is a TypeError per spec) and
// BigInt.prototype.toString/valueOf, gated by config.FeatureFlags's
// EnableBigInt per SPEC_FULL.md.
func installBigInt(m *vm.Machine, in *interner.Interner, objectProto *value.Object, global *value.Object) {
	proto := value.NewWithClass(objectProto, value.ClassObject)
	Def(in, proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		b, err := bigIntReceiver(m, this)
		if err != nil {
			return value.UndefinedValue, err
		}
		radix := 10
		if len(args) > 0 && !args[0].IsUndefined() {
			radix = int(ToNumber(args[0]))
		}
		if radix == 10 {
			return value.Str(b.String()), nil
		}
		n, _ := strconv.ParseInt(b.String(), 10, 64)
		return value.Str(strconv.FormatInt(n, radix)), nil
	})
	Def(in, proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		if this.Kind() != value.BigInt {
			return value.UndefinedValue, m.NewThrownError("TypeError", "BigInt.prototype.valueOf called on non-BigInt")
		}
		return this, nil
	})

	fn := &NativeFunc{Name: "BigInt", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		switch v.Kind() {
		case value.BigInt:
			return v, nil
		case value.Integer32, value.Float64:
			f := v.AsFloat64()
			if f != float64(int64(f)) {
				return value.UndefinedValue, m.NewThrownError("RangeError", "The number is not a safe integer")
			}
			return value.BigIntValue(value.BigIntFromInt64(int64(f))), nil
		case value.String:
			b, ok := value.BigIntFromString(v.AsString())
			if !ok {
				return value.UndefinedValue, m.NewThrownError("SyntaxError", "Cannot convert string to a BigInt")
			}
			return value.BigIntValue(b), nil
		case value.Boolean:
			if v.AsBool() {
				return value.BigIntValue(value.BigIntFromInt64(1)), nil
			}
			return value.BigIntValue(value.BigIntFromInt64(0)), nil
		default:
			return value.UndefinedValue, m.NewThrownError("TypeError", "Cannot convert value to a BigInt")
		}
	}}
	ctor := value.NewWithClass(nil, value.ClassFunction)
	ctor.Callable = callOnlyFunc{NativeFunc: fn, m: m}
	ctor.DefineDataProperty(interner.SymName, value.Str("BigInt"), value.AttrConfigurable)
	ctor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	global.DefineDataProperty(in.Intern("BigInt"), value.ObjectValue(ctor), value.AttrWritable|value.AttrConfigurable)
}

// callOnlyFunc is a NativeFunc whose Construct throws a TypeError, for
// functions that may be called but not used with `new`.
type callOnlyFunc struct {
	*NativeFunc
	m *vm.Machine
}

func (c callOnlyFunc) Construct(args []value.Value, newTarget *value.Object) (value.Value, error) {
	return value.UndefinedValue, c.m.NewThrownError("TypeError", c.Name+" is not a constructor")
}

func bigIntReceiver(m *vm.Machine, this value.Value) (*value.BigInt, error) {
	if this.Kind() != value.BigInt {
		return nil, m.NewThrownError("TypeError", "not a BigInt")
	}
	return this.AsBigInt(), nil
}
