package builtins

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// installObject builds Object.prototype and the Object constructor's
// static surface (spec.md §4.5's shape/property model is exercised
// directly here: keys()/values()/entries() walk OwnPropertyNames(),
// defineProperty drives DefineDataProperty/DefineAccessorProperty).
func installObject(m *vm.Machine, in *interner.Interner) (*value.Object, *value.Object) {
	proto := value.New(nil)

	Def(in, proto, "hasOwnProperty", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := toObjectArg(m, this)
		if err != nil {
			return value.UndefinedValue, err
		}
		key := propertyKey(in, arg(args, 0))
		_, _, ok := o.GetOwnProperty(key)
		if !ok && o.Class == value.ClassArray {
			if idx, isIdx := parseArrayIndex(in.Lookup(key)); isIdx {
				_, ok = o.GetElement(idx)
			}
		}
		return value.Bool(ok), nil
	})
	Def(in, proto, "isPrototypeOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		target := arg(args, 0)
		if target.Kind() != value.Object_ || this.Kind() != value.Object_ {
			return value.Bool(false), nil
		}
		self := this.AsObject()
		for p := target.AsObject().Proto; p != nil; p = p.Proto {
			if p == self {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	Def(in, proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		if this.Kind() != value.Object_ {
			return value.Str(ToString(this)), nil
		}
		tag := "Object"
		switch this.AsObject().Class {
		case value.ClassArray:
			tag = "Array"
		case value.ClassFunction:
			tag = "Function"
		case value.ClassError:
			tag = "Error"
		}
		return value.Str("[object " + tag + "]"), nil
	})
	Def(in, proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})

	ctorFn := &NativeFunc{Name: "Object", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if v.IsNullish() {
			return value.ObjectValue(value.New(proto)), nil
		}
		o, err := toObjectArg(m, v)
		if err != nil {
			return value.UndefinedValue, err
		}
		return value.ObjectValue(o), nil
	}}
	ctor := value.NewWithClass(nil, value.ClassFunction)
	ctor.Callable = ctorFn
	ctor.DefineDataProperty(interner.SymName, value.Str("Object"), value.AttrConfigurable)
	ctor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(ctor), value.AttrWritable|value.AttrConfigurable)

	Def(in, ctor, "keys", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := toObjectArg(m, arg(args, 0))
		if err != nil {
			return value.UndefinedValue, err
		}
		return newArray(m, enumerableKeys(in, o)), nil
	})
	Def(in, ctor, "values", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := toObjectArg(m, arg(args, 0))
		if err != nil {
			return value.UndefinedValue, err
		}
		var out []value.Value
		for _, k := range enumerableKeys(in, o) {
			v, _ := o.Get(in.Intern(k.AsString()), value.ObjectValue(o))
			out = append(out, v)
		}
		return newArray(m, out), nil
	})
	Def(in, ctor, "entries", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := toObjectArg(m, arg(args, 0))
		if err != nil {
			return value.UndefinedValue, err
		}
		var out []value.Value
		for _, k := range enumerableKeys(in, o) {
			v, _ := o.Get(in.Intern(k.AsString()), value.ObjectValue(o))
			out = append(out, newArray(m, []value.Value{k, v}))
		}
		return newArray(m, out), nil
	})
	Def(in, ctor, "assign", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.UndefinedValue, nil
		}
		target, err := toObjectArg(m, args[0])
		if err != nil {
			return value.UndefinedValue, err
		}
		for _, src := range args[1:] {
			if src.IsNullish() {
				continue
			}
			so, err := toObjectArg(m, src)
			if err != nil {
				return value.UndefinedValue, err
			}
			for _, k := range enumerableKeys(in, so) {
				sym := in.Intern(k.AsString())
				v, _ := so.Get(sym, src)
				if err := target.Set(sym, v); err != nil {
					return value.UndefinedValue, err
				}
			}
		}
		return value.ObjectValue(target), nil
	})
	Def(in, ctor, "freeze", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if v.Kind() == value.Object_ {
			v.AsObject().Extensible = false
		}
		return v, nil
	})
	Def(in, ctor, "isFrozen", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if v.Kind() != value.Object_ {
			return value.Bool(true), nil
		}
		return value.Bool(!v.AsObject().Extensible), nil
	})
	Def(in, ctor, "preventExtensions", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if v.Kind() == value.Object_ {
			v.AsObject().Extensible = false
		}
		return v, nil
	})
	Def(in, ctor, "isExtensible", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		return value.Bool(v.Kind() == value.Object_ && v.AsObject().Extensible), nil
	})
	Def(in, ctor, "getPrototypeOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := toObjectArg(m, arg(args, 0))
		if err != nil {
			return value.UndefinedValue, err
		}
		if o.Proto == nil {
			return value.NullValue, nil
		}
		return value.ObjectValue(o.Proto), nil
	})
	Def(in, ctor, "setPrototypeOf", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if v.Kind() != value.Object_ {
			return v, nil
		}
		p := arg(args, 1)
		if p.Kind() == value.Object_ {
			v.AsObject().Proto = p.AsObject()
		} else {
			v.AsObject().Proto = nil
		}
		return v, nil
	})
	Def(in, ctor, "create", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		p := arg(args, 0)
		var parent *value.Object
		if p.Kind() == value.Object_ {
			parent = p.AsObject()
		}
		o := value.New(parent)
		if len(args) > 1 && args[1].Kind() == value.Object_ {
			if err := applyDescriptors(in, o, args[1].AsObject()); err != nil {
				return value.UndefinedValue, err
			}
		}
		return value.ObjectValue(o), nil
	})
	Def(in, ctor, "defineProperty", 3, func(this value.Value, args []value.Value) (value.Value, error) {
		target := arg(args, 0)
		if target.Kind() != value.Object_ {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Object.defineProperty called on non-object")
		}
		key := propertyKey(in, arg(args, 1))
		desc := arg(args, 2)
		if desc.Kind() != value.Object_ {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Property description must be an object")
		}
		if err := defineOne(in, target.AsObject(), key, desc.AsObject()); err != nil {
			return value.UndefinedValue, err
		}
		return target, nil
	})
	Def(in, ctor, "defineProperties", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		target := arg(args, 0)
		if target.Kind() != value.Object_ {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Object.defineProperties called on non-object")
		}
		if len(args) > 1 && args[1].Kind() == value.Object_ {
			if err := applyDescriptors(in, target.AsObject(), args[1].AsObject()); err != nil {
				return value.UndefinedValue, err
			}
		}
		return target, nil
	})
	Def(in, ctor, "getOwnPropertyNames", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o, err := toObjectArg(m, arg(args, 0))
		if err != nil {
			return value.UndefinedValue, err
		}
		var out []value.Value
		for _, s := range o.OwnPropertyNames() {
			out = append(out, value.Str(in.Lookup(s)))
		}
		return newArray(m, out), nil
	})
	Def(in, ctor, "fromEntries", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		items, err := m.IterableToSlice(arg(args, 0))
		if err != nil {
			return value.UndefinedValue, err
		}
		o := value.New(proto)
		for _, pair := range items {
			if pair.Kind() != value.Object_ {
				continue
			}
			k, _ := pair.AsObject().GetElement(0)
			v, _ := pair.AsObject().GetElement(1)
			o.DefineDataProperty(propertyKey(in, k), v, value.DefaultDataAttributes())
		}
		return value.ObjectValue(o), nil
	})

	return ctor, proto
}

func toObjectArg(m *vm.Machine, v value.Value) (*value.Object, error) {
	if v.Kind() == value.Object_ {
		return v.AsObject(), nil
	}
	if v.IsNullish() {
		return nil, m.NewThrownError("TypeError", "Cannot convert undefined or null to object")
	}
	return value.New(m.ObjectProto), nil
}

func propertyKey(in *interner.Interner, v value.Value) interner.Symbol {
	if v.Kind() == value.Symbol {
		return v.AsSymbol()
	}
	return in.Intern(ToString(v))
}

func parseArrayIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	var n uint32
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + uint32(r-'0')
	}
	return n, true
}

func enumerableKeys(in *interner.Interner, o *value.Object) []value.Value {
	var out []value.Value
	for _, s := range o.OwnPropertyNames() {
		_, desc, ok := o.GetOwnProperty(s)
		if ok && desc.Enumerable() {
			out = append(out, value.Str(in.Lookup(s)))
		}
	}
	return out
}

func applyDescriptors(in *interner.Interner, target *value.Object, descs *value.Object) error {
	for _, s := range descs.OwnPropertyNames() {
		v, _, ok := descs.GetOwnProperty(s)
		if !ok || v.Kind() != value.Object_ {
			continue
		}
		if err := defineOne(in, target, s, v.AsObject()); err != nil {
			return err
		}
	}
	return nil
}

func defineOne(in *interner.Interner, target *value.Object, key interner.Symbol, desc *value.Object) error {
	getSym, setSym := in.Intern("get"), in.Intern("set")
	getV, _, hasGet := desc.GetOwnProperty(getSym)
	setV, _, hasSet := desc.GetOwnProperty(setSym)
	if hasGet || hasSet {
		var get, set *value.Object
		if hasGet && getV.Kind() == value.Object_ {
			get = getV.AsObject()
		}
		if hasSet && setV.Kind() == value.Object_ {
			set = setV.AsObject()
		}
		target.DefineAccessorProperty(key, get, set, descAttrs(desc))
		return nil
	}
	valV, _, _ := desc.GetOwnProperty(in.Intern("value"))
	return target.DefineDataProperty(key, valV, descAttrs(desc))
}

func descAttrs(desc *value.Object) value.Attributes {
	var attrs value.Attributes
	if truthy(desc, "writable") {
		attrs |= value.AttrWritable
	}
	if truthy(desc, "enumerable") {
		attrs |= value.AttrEnumerable
	}
	if truthy(desc, "configurable") {
		attrs |= value.AttrConfigurable
	}
	return attrs
}

func truthy(desc *value.Object, name string) bool {
	// Symbol.String() reads the default table, not the Context's
	// Interner; this still matches because "writable", "enumerable"
	// and "configurable" are primed at the same ids in every Interner.
	for _, s := range desc.OwnPropertyNames() {
		if s.String() == name {
			v, _, _ := desc.GetOwnProperty(s)
			return v.ToBoolean()
		}
	}
	return false
}
