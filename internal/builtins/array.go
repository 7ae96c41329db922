package builtins

import (
	"sort"
	"strings"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// installArray builds Array.prototype and the Array constructor,
// following the teacher's "fast path walks a shape, slow path walks a
// dict" split: an array's own elements are already dense storage on
// value.Object (§4.5 "Dense array storage"), so every method here
// just drives Length()/GetElement/SetElement rather than reinventing
// indexed storage.
func installArray(m *vm.Machine, in *interner.Interner, objectProto *value.Object) *value.Object {
	proto := value.NewWithClass(objectProto, value.ClassArray)

	Def(in, proto, "push", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o := this.AsObject()
		n := o.Length()
		for _, a := range args {
			o.SetElement(n, a)
			n++
		}
		o.SetLength(n)
		return value.Int32(int32(n)), nil
	})
	Def(in, proto, "pop", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		o := this.AsObject()
		n := o.Length()
		if n == 0 {
			return value.UndefinedValue, nil
		}
		v, _ := o.GetElement(n - 1)
		o.DeleteElement(n - 1)
		o.SetLength(n - 1)
		return v, nil
	})
	Def(in, proto, "shift", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		o := this.AsObject()
		n := o.Length()
		if n == 0 {
			return value.UndefinedValue, nil
		}
		first, _ := o.GetElement(0)
		for i := uint32(1); i < n; i++ {
			v, ok := o.GetElement(i)
			if ok {
				o.SetElement(i-1, v)
			} else {
				o.DeleteElement(i - 1)
			}
		}
		o.DeleteElement(n - 1)
		o.SetLength(n - 1)
		return first, nil
	})
	Def(in, proto, "unshift", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o := this.AsObject()
		n := o.Length()
		shift := uint32(len(args))
		for i := n; i > 0; i-- {
			if v, ok := o.GetElement(i - 1); ok {
				o.SetElement(i-1+shift, v)
			}
		}
		for i, a := range args {
			o.SetElement(uint32(i), a)
		}
		o.SetLength(n + shift)
		return value.Int32(int32(n + shift)), nil
	})
	Def(in, proto, "slice", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		o := this.AsObject()
		n := int(o.Length())
		start := clampIndex(arg(args, 0), n, 0)
		end := clampIndex(arg(args, 1), n, n)
		var out []value.Value
		for i := start; i < end; i++ {
			v, _ := o.GetElement(uint32(i))
			out = append(out, v)
		}
		return newArray(m, out), nil
	})
	Def(in, proto, "splice", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		o := this.AsObject()
		n := int(o.Length())
		start := clampIndex(arg(args, 0), n, 0)
		deleteCount := n - start
		if len(args) > 1 {
			dc := int(ToNumber(args[1]))
			if dc < 0 {
				dc = 0
			}
			if dc > n-start {
				dc = n - start
			}
			deleteCount = dc
		}
		items := []value.Value{}
		if len(args) > 2 {
			items = args[2:]
		}
		removed := make([]value.Value, 0, deleteCount)
		for i := 0; i < deleteCount; i++ {
			v, _ := o.GetElement(uint32(start + i))
			removed = append(removed, v)
		}
		tail := make([]value.Value, 0, n-start-deleteCount)
		for i := start + deleteCount; i < n; i++ {
			v, _ := o.GetElement(uint32(i))
			tail = append(tail, v)
		}
		idx := uint32(start)
		for _, v := range items {
			o.SetElement(idx, v)
			idx++
		}
		for _, v := range tail {
			o.SetElement(idx, v)
			idx++
		}
		for i := idx; i < uint32(n); i++ {
			o.DeleteElement(i)
		}
		o.SetLength(idx)
		return newArray(m, removed), nil
	})
	Def(in, proto, "concat", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		out := toSlice(this.AsObject())
		for _, a := range args {
			if a.Kind() == value.Object_ && a.AsObject().Class == value.ClassArray {
				out = append(out, toSlice(a.AsObject())...)
			} else {
				out = append(out, a)
			}
		}
		return newArray(m, out), nil
	})
	Def(in, proto, "join", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			sep = ToString(args[0])
		}
		return value.Str(arrayJoin(this.AsObject(), sep)), nil
	})
	Def(in, proto, "reverse", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		o := this.AsObject()
		s := toSlice(o)
		for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
		for i, v := range s {
			o.SetElement(uint32(i), v)
		}
		return this, nil
	})
	Def(in, proto, "indexOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		target := arg(args, 0)
		o := this.AsObject()
		n := o.Length()
		for i := uint32(0); i < n; i++ {
			v, ok := o.GetElement(i)
			if ok && strictEqualsVal(v, target) {
				return value.Int32(int32(i)), nil
			}
		}
		return value.Int32(-1), nil
	})
	Def(in, proto, "lastIndexOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		target := arg(args, 0)
		o := this.AsObject()
		n := int(o.Length())
		for i := n - 1; i >= 0; i-- {
			v, ok := o.GetElement(uint32(i))
			if ok && strictEqualsVal(v, target) {
				return value.Int32(int32(i)), nil
			}
		}
		return value.Int32(-1), nil
	})
	Def(in, proto, "includes", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		target := arg(args, 0)
		o := this.AsObject()
		n := o.Length()
		for i := uint32(0); i < n; i++ {
			v, _ := o.GetElement(i)
			if value.SameValueZero(v, target) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	Def(in, proto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Array.prototype.forEach: callback is not a function")
		}
		o := this.AsObject()
		n := o.Length()
		cbThis := arg(args, 1)
		for i := uint32(0); i < n; i++ {
			v, _ := o.GetElement(i)
			if _, err := cb.Call(cbThis, []value.Value{v, value.Int32(int32(i)), this}); err != nil {
				return value.UndefinedValue, err
			}
		}
		return value.UndefinedValue, nil
	})
	Def(in, proto, "map", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Array.prototype.map: callback is not a function")
		}
		o := this.AsObject()
		n := o.Length()
		cbThis := arg(args, 1)
		out := make([]value.Value, 0, n)
		for i := uint32(0); i < n; i++ {
			v, _ := o.GetElement(i)
			r, err := cb.Call(cbThis, []value.Value{v, value.Int32(int32(i)), this})
			if err != nil {
				return value.UndefinedValue, err
			}
			out = append(out, r)
		}
		return newArray(m, out), nil
	})
	Def(in, proto, "filter", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Array.prototype.filter: callback is not a function")
		}
		o := this.AsObject()
		n := o.Length()
		cbThis := arg(args, 1)
		var out []value.Value
		for i := uint32(0); i < n; i++ {
			v, _ := o.GetElement(i)
			r, err := cb.Call(cbThis, []value.Value{v, value.Int32(int32(i)), this})
			if err != nil {
				return value.UndefinedValue, err
			}
			if r.ToBoolean() {
				out = append(out, v)
			}
		}
		return newArray(m, out), nil
	})
	Def(in, proto, "find", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Array.prototype.find: callback is not a function")
		}
		o := this.AsObject()
		n := o.Length()
		cbThis := arg(args, 1)
		for i := uint32(0); i < n; i++ {
			v, _ := o.GetElement(i)
			r, err := cb.Call(cbThis, []value.Value{v, value.Int32(int32(i)), this})
			if err != nil {
				return value.UndefinedValue, err
			}
			if r.ToBoolean() {
				return v, nil
			}
		}
		return value.UndefinedValue, nil
	})
	Def(in, proto, "findIndex", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Array.prototype.findIndex: callback is not a function")
		}
		o := this.AsObject()
		n := o.Length()
		cbThis := arg(args, 1)
		for i := uint32(0); i < n; i++ {
			v, _ := o.GetElement(i)
			r, err := cb.Call(cbThis, []value.Value{v, value.Int32(int32(i)), this})
			if err != nil {
				return value.UndefinedValue, err
			}
			if r.ToBoolean() {
				return value.Int32(int32(i)), nil
			}
		}
		return value.Int32(-1), nil
	})
	Def(in, proto, "some", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Array.prototype.some: callback is not a function")
		}
		o := this.AsObject()
		n := o.Length()
		cbThis := arg(args, 1)
		for i := uint32(0); i < n; i++ {
			v, _ := o.GetElement(i)
			r, err := cb.Call(cbThis, []value.Value{v, value.Int32(int32(i)), this})
			if err != nil {
				return value.UndefinedValue, err
			}
			if r.ToBoolean() {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	Def(in, proto, "every", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Array.prototype.every: callback is not a function")
		}
		o := this.AsObject()
		n := o.Length()
		cbThis := arg(args, 1)
		for i := uint32(0); i < n; i++ {
			v, _ := o.GetElement(i)
			r, err := cb.Call(cbThis, []value.Value{v, value.Int32(int32(i)), this})
			if err != nil {
				return value.UndefinedValue, err
			}
			if !r.ToBoolean() {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	Def(in, proto, "reduce", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Array.prototype.reduce: callback is not a function")
		}
		o := this.AsObject()
		n := o.Length()
		i := uint32(0)
		var acc value.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if n == 0 {
				return value.UndefinedValue, m.NewThrownError("TypeError", "Reduce of empty array with no initial value")
			}
			acc, _ = o.GetElement(0)
			i = 1
		}
		for ; i < n; i++ {
			v, _ := o.GetElement(i)
			r, err := cb.Call(value.UndefinedValue, []value.Value{acc, v, value.Int32(int32(i)), this})
			if err != nil {
				return value.UndefinedValue, err
			}
			acc = r
		}
		return acc, nil
	})
	Def(in, proto, "sort", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		o := this.AsObject()
		s := toSlice(o)
		cmp := callableArg(args, 0)
		var sortErr error
		sort.SliceStable(s, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			if cmp != nil {
				r, err := cmp.Call(value.UndefinedValue, []value.Value{s[i], s[j]})
				if err != nil {
					sortErr = err
					return false
				}
				return ToNumber(r) < 0
			}
			return ToString(s[i]) < ToString(s[j])
		})
		if sortErr != nil {
			return value.UndefinedValue, sortErr
		}
		for i, v := range s {
			o.SetElement(uint32(i), v)
		}
		return this, nil
	})
	Def(in, proto, "flat", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		depth := 1
		if len(args) > 0 {
			depth = int(ToNumber(args[0]))
		}
		return newArray(m, flatten(toSlice(this.AsObject()), depth)), nil
	})

	arrayCtorFn := &NativeFunc{Name: "Array", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 1 {
			if n, ok := args[0].AsInt32Fast(); ok && n >= 0 {
				o := value.NewWithClass(proto, value.ClassArray)
				o.SetLength(uint32(n))
				return value.ObjectValue(o), nil
			}
		}
		return newArray(m, args), nil
	}}
	arrayCtor := value.NewWithClass(nil, value.ClassFunction)
	arrayCtor.Callable = arrayCtorFn
	arrayCtor.DefineDataProperty(interner.SymName, value.Str("Array"), value.AttrConfigurable)
	arrayCtor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(arrayCtor), value.AttrWritable|value.AttrConfigurable)

	Def(in, arrayCtor, "isArray", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		return value.Bool(v.Kind() == value.Object_ && v.AsObject().Class == value.ClassArray), nil
	})
	Def(in, arrayCtor, "from", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		src := arg(args, 0)
		mapFn := callableArg(args, 1)
		var items []value.Value
		if src.Kind() == value.Object_ && src.AsObject().Class == value.ClassArray {
			items = toSlice(src.AsObject())
		} else if src.Kind() == value.String {
			for _, r := range src.AsString() {
				items = append(items, value.Str(string(r)))
			}
		} else if src.Kind() == value.Object_ {
			var err error
			items, err = m.IterableToSlice(src)
			if err != nil {
				return value.UndefinedValue, err
			}
		}
		if mapFn != nil {
			for i, v := range items {
				r, err := mapFn.Call(value.UndefinedValue, []value.Value{v, value.Int32(int32(i))})
				if err != nil {
					return value.UndefinedValue, err
				}
				items[i] = r
			}
		}
		return newArray(m, items), nil
	})
	Def(in, arrayCtor, "of", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return newArray(m, args), nil
	})

	return arrayCtor
}

func toSlice(o *value.Object) []value.Value {
	n := o.Length()
	out := make([]value.Value, n)
	for i := uint32(0); i < n; i++ {
		v, _ := o.GetElement(i)
		out[i] = v
	}
	return out
}

func newArray(m *vm.Machine, elems []value.Value) value.Value {
	o := value.NewWithClass(m.ArrayProto, value.ClassArray)
	for i, v := range elems {
		o.SetElement(uint32(i), v)
	}
	o.SetLength(uint32(len(elems)))
	return value.ObjectValue(o)
}

func arrayJoin(o *value.Object, sep string) string {
	n := o.Length()
	parts := make([]string, n)
	for i := uint32(0); i < n; i++ {
		v, ok := o.GetElement(i)
		if !ok || v.IsNullish() {
			parts[i] = ""
			continue
		}
		parts[i] = ToString(v)
	}
	return strings.Join(parts, sep)
}

func clampIndex(v value.Value, n, def int) int {
	if v.IsUndefined() {
		return def
	}
	idx := int(ToNumber(v))
	if idx < 0 {
		idx += n
	}
	if idx < 0 {
		idx = 0
	}
	if idx > n {
		idx = n
	}
	return idx
}

func flatten(items []value.Value, depth int) []value.Value {
	var out []value.Value
	for _, v := range items {
		if depth > 0 && v.Kind() == value.Object_ && v.AsObject().Class == value.ClassArray {
			out = append(out, flatten(toSlice(v.AsObject()), depth-1)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func callableArg(args []value.Value, i int) value.Callable {
	v := arg(args, i)
	if v.Kind() != value.Object_ || v.AsObject().Callable == nil {
		return nil
	}
	return v.AsObject().Callable
}

func strictEqualsVal(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		if (a.Kind() == value.Integer32 || a.Kind() == value.Float64) && (b.Kind() == value.Integer32 || b.Kind() == value.Float64) {
			return a.AsFloat64() == b.AsFloat64()
		}
		return false
	}
	switch a.Kind() {
	case value.Undefined, value.Null:
		return true
	case value.Boolean:
		return a.AsBool() == b.AsBool()
	case value.Integer32, value.Float64:
		return a.AsFloat64() == b.AsFloat64()
	case value.String:
		return a.AsString() == b.AsString()
	case value.Object_:
		return a.AsObject() == b.AsObject()
	default:
		return false
	}
}
