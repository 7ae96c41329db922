package builtins

import (
	"math"
	"strconv"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// installNumber builds Number.prototype (toString/valueOf/toFixed) and
// the Number constructor with its EPSILON/MAX_SAFE_INTEGER/isInteger
// statics.
func installNumber(in *interner.Interner, objectProto *value.Object) *value.Object {
	proto := value.NewWithClass(objectProto, value.ClassObject)

	self := func(this value.Value) float64 {
		if this.Kind() == value.Integer32 || this.Kind() == value.Float64 {
			return this.AsFloat64()
		}
		if this.Kind() == value.Object_ {
			if f, ok := this.AsObject().InternalData.(float64); ok {
				return f
			}
		}
		return ToNumber(this)
	}

	Def(in, proto, "toString", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		f := self(this)
		radix := 10
		if len(args) > 0 && !args[0].IsUndefined() {
			radix = int(ToNumber(args[0]))
		}
		if radix == 10 {
			return value.Str(FormatNumber(f)), nil
		}
		return value.Str(strconv.FormatInt(int64(f), radix)), nil
	})
	Def(in, proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(self(this)), nil
	})
	Def(in, proto, "toFixed", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		digits := 0
		if len(args) > 0 {
			digits = int(ToNumber(args[0]))
		}
		return value.Str(strconv.FormatFloat(self(this), 'f', digits, 64)), nil
	})

	ctorFn := &NativeFunc{Name: "Number", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(0), nil
		}
		return value.Number(ToNumber(args[0])), nil
	}}
	ctor := value.NewWithClass(nil, value.ClassFunction)
	ctor.Callable = ctorFn
	ctor.DefineDataProperty(interner.SymName, value.Str("Number"), value.AttrConfigurable)
	ctor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(ctor), value.AttrWritable|value.AttrConfigurable)

	ctor.DefineDataProperty(in.Intern("EPSILON"), value.Float(2.220446049250313e-16), 0)
	ctor.DefineDataProperty(in.Intern("MAX_SAFE_INTEGER"), value.Float(9007199254740991), 0)
	ctor.DefineDataProperty(in.Intern("MIN_SAFE_INTEGER"), value.Float(-9007199254740991), 0)
	ctor.DefineDataProperty(in.Intern("POSITIVE_INFINITY"), value.Float(math.Inf(1)), 0)
	ctor.DefineDataProperty(in.Intern("NEGATIVE_INFINITY"), value.Float(math.Inf(-1)), 0)
	ctor.DefineDataProperty(in.Intern("NaN"), value.Float(math.NaN()), 0)

	Def(in, ctor, "isInteger", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if v.Kind() != value.Integer32 && v.Kind() != value.Float64 {
			return value.Bool(false), nil
		}
		f := v.AsFloat64()
		return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)), nil
	})
	Def(in, ctor, "isFinite", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if v.Kind() != value.Integer32 && v.Kind() != value.Float64 {
			return value.Bool(false), nil
		}
		f := v.AsFloat64()
		return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
	})
	Def(in, ctor, "isNaN", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		return value.Bool(v.Kind() == value.Float64 && math.IsNaN(v.AsFloat64())), nil
	})
	Def(in, ctor, "parseFloat", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		f, err := strconv.ParseFloat(ToString(arg(args, 0)), 64)
		if err != nil {
			return value.Float(math.NaN()), nil
		}
		return value.Number(f), nil
	})

	return ctor
}

// installBoolean builds Boolean.prototype and the Boolean constructor.
func installBoolean(in *interner.Interner, objectProto *value.Object) *value.Object {
	proto := value.NewWithClass(objectProto, value.ClassObject)
	self := func(this value.Value) bool {
		if this.Kind() == value.Boolean {
			return this.AsBool()
		}
		if this.Kind() == value.Object_ {
			if b, ok := this.AsObject().InternalData.(bool); ok {
				return b
			}
		}
		return this.ToBoolean()
	}
	Def(in, proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		if self(this) {
			return value.Str("true"), nil
		}
		return value.Str("false"), nil
	})
	Def(in, proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(self(this)), nil
	})

	ctorFn := &NativeFunc{Name: "Boolean", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(arg(args, 0).ToBoolean()), nil
	}}
	ctor := value.NewWithClass(nil, value.ClassFunction)
	ctor.Callable = ctorFn
	ctor.DefineDataProperty(interner.SymName, value.Str("Boolean"), value.AttrConfigurable)
	ctor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(ctor), value.AttrWritable|value.AttrConfigurable)
	return ctor
}
