package builtins

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// orderedEntry is one slot of an OrderedMap/OrderedSet backing store: a
// linked hash table node, the representation SPEC_FULL.md's supplemented
// feature calls for so Map/Set iteration order matches ECMAScript's
// insertion-order guarantee rather than Go's randomized map order.
type orderedEntry struct {
	key     value.Value
	val     value.Value
	deleted bool
}

// orderedTable is the shared backing for both Map and Set: a slice
// preserves insertion order, a side index gives O(1) lookup by
// SameValueZero key identity. Deletions tombstone rather than shift, so
// live iterators (forEach/entries) never see indices shift underneath
// them mid-walk.
type orderedTable struct {
	entries []orderedEntry
	index   map[tableKey]int
	count   int
}

// tableKey is a hashable stand-in for value.Value under SameValueZero:
// objects/symbols compare by identity (pointer/symbol id), everything
// else by Go equality of its primitive payload, which is exactly what
// SameValueZero requires once NaN and -0 are normalized.
type tableKey struct {
	kind int
	num  float64
	str  string
	sym  interner.Symbol
	obj  *value.Object
	big  string
}

func makeTableKey(v value.Value) tableKey {
	switch v.Kind() {
	case value.Integer32, value.Float64:
		f := v.AsFloat64()
		if f != f {
			// NaN never equals itself as a float map key; key it by a fixed string
			return tableKey{kind: int(value.Float64), str: "NaN"}
		}
		if f == 0 {
			f = 0 // normalize -0 to 0, matching SameValueZero
		}
		return tableKey{kind: int(value.Float64), num: f}
	case value.String:
		return tableKey{kind: int(value.String), str: v.AsString()}
	case value.Symbol:
		return tableKey{kind: int(value.Symbol), sym: v.AsSymbol()}
	case value.Object_:
		return tableKey{kind: int(value.Object_), obj: v.AsObject()}
	case value.BigInt:
		return tableKey{kind: int(value.BigInt), big: v.AsBigInt().String()}
	default:
		return tableKey{kind: int(v.Kind())}
	}
}

func newOrderedTable() *orderedTable {
	return &orderedTable{index: make(map[tableKey]int)}
}

func (t *orderedTable) get(k value.Value) (value.Value, bool) {
	i, ok := t.index[makeTableKey(k)]
	if !ok {
		return value.UndefinedValue, false
	}
	return t.entries[i].val, true
}

func (t *orderedTable) has(k value.Value) bool {
	_, ok := t.index[makeTableKey(k)]
	return ok
}

func (t *orderedTable) set(k, v value.Value) {
	tk := makeTableKey(k)
	if i, ok := t.index[tk]; ok {
		t.entries[i].val = v
		return
	}
	t.index[tk] = len(t.entries)
	t.entries = append(t.entries, orderedEntry{key: k, val: v})
	t.count++
}

func (t *orderedTable) delete(k value.Value) bool {
	tk := makeTableKey(k)
	i, ok := t.index[tk]
	if !ok {
		return false
	}
	t.entries[i].deleted = true
	delete(t.index, tk)
	t.count--
	return true
}

func (t *orderedTable) clear() {
	t.entries = nil
	t.index = make(map[tableKey]int)
	t.count = 0
}

func (t *orderedTable) forEach(f func(k, v value.Value)) {
	for _, e := range t.entries {
		if !e.deleted {
			f(e.key, e.val)
		}
	}
}

// installMapSet builds Map/Set and their prototypes, both backed by
// orderedTable so iteration order always matches insertion order.
func installMapSet(m *vm.Machine, in *interner.Interner, objectProto *value.Object) (mapCtor, setCtor *value.Object) {
	mapProto := value.NewWithClass(objectProto, value.ClassMap)
	installMapProto(m, in, mapProto)
	mapCtor = newConstructor(m, in, "Map", mapProto, value.ClassMap, func(this *value.Object, args []value.Value) error {
		this.InternalData = newOrderedTable()
		if len(args) > 0 && !args[0].IsNullish() {
			entries, err := m.IterableToSlice(args[0])
			if err != nil {
				return err
			}
			t := this.InternalData.(*orderedTable)
			for _, e := range entries {
				if e.Kind() != value.Object_ {
					continue
				}
				pair := toSlice(e.AsObject())
				var k, v value.Value
				if len(pair) > 0 {
					k = pair[0]
				}
				if len(pair) > 1 {
					v = pair[1]
				}
				t.set(k, v)
			}
		}
		return nil
	})

	setProto := value.NewWithClass(objectProto, value.ClassSet)
	installSetProto(m, in, setProto)
	setCtor = newConstructor(m, in, "Set", setProto, value.ClassSet, func(this *value.Object, args []value.Value) error {
		this.InternalData = newOrderedTable()
		if len(args) > 0 && !args[0].IsNullish() {
			entries, err := m.IterableToSlice(args[0])
			if err != nil {
				return err
			}
			t := this.InternalData.(*orderedTable)
			for _, e := range entries {
				t.set(e, e)
			}
		}
		return nil
	})
	return mapCtor, setCtor
}

// newConstructor builds a native function object usable with `new`,
// sharing the shape every builtin collection constructor needs: a
// prototype-linked instance created on Construct, populated by init.
func newConstructor(m *vm.Machine, in *interner.Interner, name string, proto *value.Object, class value.Class, init func(this *value.Object, args []value.Value) error) *value.Object {
	ctor := value.NewWithClass(nil, value.ClassFunction)
	ctor.Callable = &ctorFunc{name: name, proto: proto, class: class, init: init, m: m}
	ctor.DefineDataProperty(in.Intern("name"), value.Str(name), value.AttrConfigurable)
	ctor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(ctor), value.AttrWritable|value.AttrConfigurable)
	return ctor
}

type ctorFunc struct {
	name  string
	proto *value.Object
	class value.Class
	init  func(this *value.Object, args []value.Value) error
	m     *vm.Machine
}

func (c *ctorFunc) Call(this value.Value, args []value.Value) (value.Value, error) {
	return value.UndefinedValue, c.m.NewThrownError("TypeError", "Constructor "+c.name+" requires 'new'")
}

func (c *ctorFunc) Construct(args []value.Value, newTarget *value.Object) (value.Value, error) {
	proto := c.proto
	if newTarget != nil {
		if p, err := newTarget.Get(interner.SymPrototype, value.ObjectValue(newTarget)); err == nil && p.Kind() == value.Object_ {
			proto = p.AsObject()
		}
	}
	inst := value.NewWithClass(proto, c.class)
	if err := c.init(inst, args); err != nil {
		return value.UndefinedValue, err
	}
	return value.ObjectValue(inst), nil
}

func mapTable(m *vm.Machine, this value.Value, who string) (*orderedTable, error) {
	if this.Kind() != value.Object_ {
		return nil, m.NewThrownError("TypeError", who+" called on non-object")
	}
	t, ok := this.AsObject().InternalData.(*orderedTable)
	if !ok {
		return nil, m.NewThrownError("TypeError", who+" called on incompatible receiver")
	}
	return t, nil
}

func installMapProto(m *vm.Machine, in *interner.Interner, proto *value.Object) {
	Def(in, proto, "get", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Map.prototype.get")
		if err != nil {
			return value.UndefinedValue, err
		}
		v, _ := t.get(arg(args, 0))
		return v, nil
	})
	Def(in, proto, "set", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Map.prototype.set")
		if err != nil {
			return value.UndefinedValue, err
		}
		t.set(arg(args, 0), arg(args, 1))
		return this, nil
	})
	Def(in, proto, "has", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Map.prototype.has")
		if err != nil {
			return value.UndefinedValue, err
		}
		return value.Bool(t.has(arg(args, 0))), nil
	})
	Def(in, proto, "delete", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Map.prototype.delete")
		if err != nil {
			return value.UndefinedValue, err
		}
		return value.Bool(t.delete(arg(args, 0))), nil
	})
	Def(in, proto, "clear", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Map.prototype.clear")
		if err != nil {
			return value.UndefinedValue, err
		}
		t.clear()
		return value.UndefinedValue, nil
	})
	Def(in, proto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Map.prototype.forEach")
		if err != nil {
			return value.UndefinedValue, err
		}
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Map.prototype.forEach: callback is not a function")
		}
		var cbErr error
		t.forEach(func(k, v value.Value) {
			if cbErr != nil {
				return
			}
			_, cbErr = cb.Call(this, []value.Value{v, k, this})
		})
		return value.UndefinedValue, cbErr
	})
	proto.DefineAccessorProperty(in.Intern("size"), sizeGetter(m, in, "Map.prototype.size"), nil, value.AttrConfigurable)
}

func installSetProto(m *vm.Machine, in *interner.Interner, proto *value.Object) {
	Def(in, proto, "add", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Set.prototype.add")
		if err != nil {
			return value.UndefinedValue, err
		}
		v := arg(args, 0)
		t.set(v, v)
		return this, nil
	})
	Def(in, proto, "has", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Set.prototype.has")
		if err != nil {
			return value.UndefinedValue, err
		}
		return value.Bool(t.has(arg(args, 0))), nil
	})
	Def(in, proto, "delete", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Set.prototype.delete")
		if err != nil {
			return value.UndefinedValue, err
		}
		return value.Bool(t.delete(arg(args, 0))), nil
	})
	Def(in, proto, "clear", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Set.prototype.clear")
		if err != nil {
			return value.UndefinedValue, err
		}
		t.clear()
		return value.UndefinedValue, nil
	})
	Def(in, proto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, "Set.prototype.forEach")
		if err != nil {
			return value.UndefinedValue, err
		}
		cb := callableArg(args, 0)
		if cb == nil {
			return value.UndefinedValue, m.NewThrownError("TypeError", "Set.prototype.forEach: callback is not a function")
		}
		var cbErr error
		t.forEach(func(k, v value.Value) {
			if cbErr != nil {
				return
			}
			_, cbErr = cb.Call(this, []value.Value{v, k, this})
		})
		return value.UndefinedValue, cbErr
	})
	proto.DefineAccessorProperty(in.Intern("size"), sizeGetter(m, in, "Set.prototype.size"), nil, value.AttrConfigurable)
}

func sizeGetter(m *vm.Machine, in *interner.Interner, who string) *value.Object {
	getter := &NativeFunc{Name: "size", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := mapTable(m, this, who)
		if err != nil {
			return value.UndefinedValue, err
		}
		return value.Number(float64(t.count)), nil
	}}
	o := value.NewWithClass(nil, value.ClassFunction)
	o.Callable = getter
	return o
}
