// Package jsonbuiltin implements the JSON global: parse/stringify
// between the engine's value.Value union and Go's encoding/json, with
// an optional schema-validation hook on the parsed result.
package jsonbuiltin

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// Schema is the optional validation hook passed to Install: a
// JSON.parse result that doesn't match it makes parse throw a
// TypeError, the same defense internal/config runs decoded KDL
// through. internal/builtins passes nil, and Context has no API for
// supplying one.
type Schema struct {
	resolved *jsonschema.Resolved
}

// NewSchema resolves a raw jsonschema.Schema once so Parse's hot path
// never re-resolves it.
func NewSchema(s *jsonschema.Schema) (*Schema, error) {
	r, err := s.Resolve(nil)
	if err != nil {
		return nil, err
	}
	return &Schema{resolved: r}, nil
}

// Install defines the JSON global object with parse/stringify. schema
// may be nil, in which case JSON.parse performs no extra validation.
func Install(m *vm.Machine, in *interner.Interner, objectProto, arrayProto *value.Object, global *value.Object, schema *Schema) {
	jsonObj := value.New(objectProto)

	def(in, jsonObj, "parse", func(this value.Value, args []value.Value) (value.Value, error) {
		text := argString(args, 0)
		var raw any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return value.UndefinedValue, m.NewThrownError("SyntaxError", "JSON.parse: "+err.Error())
		}
		if schema != nil {
			if err := schema.resolved.Validate(raw); err != nil {
				return value.UndefinedValue, m.NewThrownError("TypeError", "JSON.parse: schema validation failed: "+err.Error())
			}
		}
		result := fromAny(m, in, objectProto, arrayProto, raw)
		if len(args) > 1 && isCallable(args[1]) {
			return reviveWalk(in, args[1].AsObject().Callable, value.Str(""), result)
		}
		return result, nil
	})

	def(in, jsonObj, "stringify", func(this value.Value, args []value.Value) (value.Value, error) {
		v := argValue(args, 0)
		indent := ""
		if len(args) > 2 {
			switch args[2].Kind() {
			case value.Integer32, value.Float64:
				n := int(args[2].AsFloat64())
				if n > 10 {
					n = 10
				}
				for i := 0; i < n; i++ {
					indent += " "
				}
			case value.String:
				indent = args[2].AsString()
			}
		}
		seen := map[*value.Object]bool{}
		raw, ok := toAny(in, v, seen)
		if seen[nil] {
			return value.UndefinedValue, m.NewThrownError("TypeError", "JSON.stringify: cyclic object value")
		}
		if !ok {
			return value.UndefinedValue, nil // undefined/function/symbol at top level: JSON.stringify returns undefined
		}
		var out []byte
		var err error
		if indent != "" {
			out, err = json.MarshalIndent(raw, "", indent)
		} else {
			out, err = json.Marshal(raw)
		}
		if err != nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "JSON.stringify: "+err.Error())
		}
		return value.Str(string(out)), nil
	})

	global.DefineDataProperty(in.Intern("JSON"), value.ObjectValue(jsonObj), value.AttrWritable|value.AttrConfigurable)
}

func def(in *interner.Interner, target *value.Object, name string, fn func(value.Value, []value.Value) (value.Value, error)) {
	f := value.NewWithClass(nil, value.ClassFunction)
	f.Callable = nativeFunc(fn)
	f.DefineDataProperty(interner.SymName, value.Str(name), value.AttrConfigurable)
	target.DefineDataProperty(in.Intern(name), value.ObjectValue(f), value.AttrWritable|value.AttrConfigurable)
}

type nativeFunc func(value.Value, []value.Value) (value.Value, error)

func (n nativeFunc) Call(this value.Value, args []value.Value) (value.Value, error) { return n(this, args) }
func (n nativeFunc) Construct(args []value.Value, newTarget *value.Object) (value.Value, error) {
	return value.UndefinedValue, nil
}

func isCallable(v value.Value) bool {
	return v.Kind() == value.Object_ && v.AsObject().Callable != nil
}

func argValue(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.UndefinedValue
}

func argString(args []value.Value, i int) string {
	v := argValue(args, i)
	if v.Kind() == value.String {
		return v.AsString()
	}
	return ""
}

// fromAny converts a decoded JSON value into value.Value, building
// ordinary objects/arrays chained to the live prototypes so
// JSON.parse's result interoperates with the rest of the object model
// (Object.prototype.toString, Array.prototype methods, ...).
func fromAny(m *vm.Machine, in *interner.Interner, objectProto, arrayProto *value.Object, raw any) value.Value {
	switch t := raw.(type) {
	case nil:
		return value.NullValue
	case bool:
		return value.Bool(t)
	case float64:
		return value.Number(t)
	case string:
		return value.Str(t)
	case []any:
		o := value.NewWithClass(arrayProto, value.ClassArray)
		for i, e := range t {
			o.SetElement(uint32(i), fromAny(m, in, objectProto, arrayProto, e))
		}
		return value.ObjectValue(o)
	case map[string]any:
		o := value.New(objectProto)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			o.DefineDataProperty(in.Intern(k), fromAny(m, in, objectProto, arrayProto, t[k]), value.DefaultDataAttributes())
		}
		return value.ObjectValue(o)
	default:
		return value.UndefinedValue
	}
}

// reviveWalk applies JSON.parse's optional reviver to every member of
// the parsed structure, innermost first, per the Walk algorithm.
func reviveWalk(in *interner.Interner, reviver value.Callable, key value.Value, val value.Value) (value.Value, error) {
	if val.Kind() == value.Object_ {
		o := val.AsObject()
		if o.Class == value.ClassArray {
			n := o.Length()
			for i := uint32(0); i < n; i++ {
				elem, _ := o.GetElement(i)
				revived, err := reviveWalk(in, reviver, value.Str(strconv.Itoa(int(i))), elem)
				if err != nil {
					return value.UndefinedValue, err
				}
				if revived.IsUndefined() {
					o.DeleteElement(i)
				} else {
					o.SetElement(i, revived)
				}
			}
		} else {
			for _, name := range o.OwnPropertyNames() {
				child, _ := o.Get(name, val)
				revived, err := reviveWalk(in, reviver, value.Str(in.Lookup(name)), child)
				if err != nil {
					return value.UndefinedValue, err
				}
				if revived.IsUndefined() {
					o.Delete(name)
				} else {
					_ = o.Set(name, revived)
				}
			}
		}
	}
	return reviver.Call(value.UndefinedValue, []value.Value{key, val})
}

// toAny converts a value.Value into a json.Marshal-able Go value,
// following JSON.stringify's rules: functions/undefined/symbols vanish
// (reported via the bool return), cyclic object references are
// rejected the same way V8 throws a TypeError for them.
func toAny(in *interner.Interner, v value.Value, seen map[*value.Object]bool) (any, bool) {
	switch v.Kind() {
	case value.Undefined, value.Symbol:
		return nil, false
	case value.Null:
		return nil, true
	case value.Boolean:
		return v.AsBool(), true
	case value.Integer32, value.Float64:
		f := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, true
		}
		return f, true
	case value.String:
		return v.AsString(), true
	case value.BigInt:
		return nil, false // BigInt is not JSON-serializable; stringify throws in real engines, we drop it
	case value.Object_:
		o := v.AsObject()
		if o.Callable != nil {
			return nil, false
		}
		if seen[o] {
			seen[nil] = true // records the cycle for stringify to report
			return nil, false
		}
		seen[o] = true
		defer delete(seen, o)
		if o.Class == value.ClassArray {
			n := o.Length()
			out := make([]any, n)
			for i := uint32(0); i < n; i++ {
				elem, _ := o.GetElement(i)
				av, ok := toAny(in, elem, seen)
				if !ok {
					av = nil
				}
				out[i] = av
			}
			return out, true
		}
		out := map[string]any{}
		for _, name := range o.OwnPropertyNames() {
			child, _ := o.Get(name, v)
			av, ok := toAny(in, child, seen)
			if !ok {
				continue
			}
			out[in.Lookup(name)] = av
		}
		return out, true
	default:
		return nil, false
	}
}
