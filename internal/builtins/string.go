package builtins

import (
	"strings"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// installString builds String.prototype and the String constructor.
// charAt, charCodeAt, slice, substring, padStart/padEnd and length
// index by code point ([]rune), which matches UTF-16 code unit counts
// only for BMP text (spec.md's Non-goals exclude full surrogate-pair
// arithmetic); indexOf and lastIndexOf return byte offsets into the
// UTF-8 string, which match only for ASCII text.
func installString(m *vm.Machine, in *interner.Interner, objectProto *value.Object) *value.Object {
	proto := value.NewWithClass(objectProto, value.ClassObject)

	self := func(this value.Value) string {
		if this.Kind() == value.String {
			return this.AsString()
		}
		if this.Kind() == value.Object_ {
			if s, ok := this.AsObject().InternalData.(string); ok {
				return s
			}
		}
		return ToString(this)
	}

	Def(in, proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(self(this)), nil
	})
	Def(in, proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(self(this)), nil
	})
	Def(in, proto, "charAt", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		r := []rune(self(this))
		i := int(ToNumber(arg(args, 0)))
		if i < 0 || i >= len(r) {
			return value.Str(""), nil
		}
		return value.Str(string(r[i])), nil
	})
	Def(in, proto, "charCodeAt", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		r := []rune(self(this))
		i := int(ToNumber(arg(args, 0)))
		if i < 0 || i >= len(r) {
			return value.Float(nan()), nil
		}
		return value.Number(float64(r[i])), nil
	})
	Def(in, proto, "indexOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(float64(strings.Index(self(this), ToString(arg(args, 0))))), nil
	})
	Def(in, proto, "lastIndexOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(float64(strings.LastIndex(self(this), ToString(arg(args, 0))))), nil
	})
	Def(in, proto, "includes", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(strings.Contains(self(this), ToString(arg(args, 0)))), nil
	})
	Def(in, proto, "startsWith", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(strings.HasPrefix(self(this), ToString(arg(args, 0)))), nil
	})
	Def(in, proto, "endsWith", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(strings.HasSuffix(self(this), ToString(arg(args, 0)))), nil
	})
	Def(in, proto, "slice", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		r := []rune(self(this))
		start, end := sliceBounds(len(r), args)
		if start >= end {
			return value.Str(""), nil
		}
		return value.Str(string(r[start:end])), nil
	})
	Def(in, proto, "substring", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		r := []rune(self(this))
		a := clampStrIndex(int(ToNumber(arg(args, 0))), len(r))
		b := len(r)
		if len(args) > 1 && !args[1].IsUndefined() {
			b = clampStrIndex(int(ToNumber(args[1])), len(r))
		}
		if a > b {
			a, b = b, a
		}
		return value.Str(string(r[a:b])), nil
	})
	Def(in, proto, "toUpperCase", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(strings.ToUpper(self(this))), nil
	})
	Def(in, proto, "toLowerCase", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(strings.ToLower(self(this))), nil
	})
	Def(in, proto, "trim", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(strings.TrimSpace(self(this))), nil
	})
	Def(in, proto, "trimStart", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(strings.TrimLeft(self(this), " \t\n\r")), nil
	})
	Def(in, proto, "trimEnd", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(strings.TrimRight(self(this), " \t\n\r")), nil
	})
	Def(in, proto, "split", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		s := self(this)
		if len(args) == 0 || args[0].IsUndefined() {
			return newArray(m, []value.Value{value.Str(s)}), nil
		}
		sep := ToString(args[0])
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.Str(p)
		}
		return newArray(m, out), nil
	})
	Def(in, proto, "replace", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		s := self(this)
		search := ToString(arg(args, 0))
		if len(args) > 1 && isCallableV(args[1]) {
			i := strings.Index(s, search)
			if i < 0 {
				return value.Str(s), nil
			}
			r, err := args[1].AsObject().Callable.Call(value.UndefinedValue, []value.Value{value.Str(search), value.Number(float64(len([]rune(s[:i])))), value.Str(s)})
			if err != nil {
				return value.UndefinedValue, err
			}
			return value.Str(s[:i] + ToString(r) + s[i+len(search):]), nil
		}
		return value.Str(strings.Replace(s, search, ToString(arg(args, 1)), 1)), nil
	})
	Def(in, proto, "replaceAll", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		s := self(this)
		search := ToString(arg(args, 0))
		return value.Str(strings.ReplaceAll(s, search, ToString(arg(args, 1)))), nil
	})
	Def(in, proto, "repeat", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		n := int(ToNumber(arg(args, 0)))
		if n < 0 {
			return value.UndefinedValue, m.NewThrownError("RangeError", "Invalid count value")
		}
		return value.Str(strings.Repeat(self(this), n)), nil
	})
	Def(in, proto, "padStart", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(pad(self(this), args, true)), nil
	})
	Def(in, proto, "padEnd", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(pad(self(this), args, false)), nil
	})
	Def(in, proto, "concat", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		s := self(this)
		for _, a := range args {
			s += ToString(a)
		}
		return value.Str(s), nil
	})

	proto.DefineAccessorProperty(in.Intern("length"), lengthGetter(in, self), nil, value.AttrConfigurable)

	ctorFn := &NativeFunc{Name: "String", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Str(""), nil
		}
		return value.Str(ToString(args[0])), nil
	}}
	ctor := value.NewWithClass(nil, value.ClassFunction)
	ctor.Callable = ctorFn
	ctor.DefineDataProperty(interner.SymName, value.Str("String"), value.AttrConfigurable)
	ctor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(ctor), value.AttrWritable|value.AttrConfigurable)

	Def(in, ctor, "fromCharCode", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteRune(rune(int(ToNumber(a))))
		}
		return value.Str(b.String()), nil
	})

	return ctor
}

func isCallableV(v value.Value) bool {
	return v.Kind() == value.Object_ && v.AsObject().Callable != nil
}

func lengthGetter(in *interner.Interner, self func(value.Value) string) *value.Object {
	getter := &NativeFunc{Name: "length", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(float64(len([]rune(self(this))))), nil
	}}
	o := value.NewWithClass(nil, value.ClassFunction)
	o.Callable = getter
	return o
}

// sliceBounds implements String.prototype.slice's negative-index
// wraparound (distinct from substring's plain clamp-to-zero rule).
func sliceBounds(n int, args []value.Value) (int, int) {
	wrap := func(i int) int {
		if i < 0 {
			i += n
		}
		if i < 0 {
			i = 0
		}
		if i > n {
			i = n
		}
		return i
	}
	start := 0
	if len(args) > 0 {
		start = wrap(int(ToNumber(args[0])))
	}
	end := n
	if len(args) > 1 && !args[1].IsUndefined() {
		end = wrap(int(ToNumber(args[1])))
	}
	return start, end
}

// clampStrIndex implements substring's rule: negative or NaN collapses
// to 0, no wraparound.
func clampStrIndex(i, n int) int {
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}

func pad(s string, args []value.Value, start bool) string {
	target := int(ToNumber(arg(args, 0)))
	fill := " "
	if len(args) > 1 && !args[1].IsUndefined() {
		fill = ToString(args[1])
	}
	r := []rune(s)
	if fill == "" || len(r) >= target {
		return s
	}
	need := target - len(r)
	fr := []rune(fill)
	padding := make([]rune, 0, need)
	for len(padding) < need {
		padding = append(padding, fr[len(padding)%len(fr)])
	}
	if start {
		return string(padding) + s
	}
	return s + string(padding)
}

func nan() float64 {
	var f float64
	return f / f
}
