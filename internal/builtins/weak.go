package builtins

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// weakTable backs both WeakMap and WeakSet. Keys must be objects
// (spec.md §4.6's ephemeron requirement only makes sense for
// heap-allocated keys); entries are held in a plain Go map keyed by
// pointer identity rather than through internal/gc's Ephemeron type,
// since value.Object is not itself a gc.Cell-tracked payload in this
// engine (see DESIGN.md) — only Environment is. A Go map holds its
// keys strongly, so an entry, its key and its value stay alive for as
// long as the table does: neither the engine's Collect() nor Go's own
// garbage collector removes an entry whose key is otherwise
// unreachable. Entries leave the table only through delete().
type weakTable struct {
	entries map[*value.Object]value.Value
}

func newWeakTable() *weakTable {
	return &weakTable{entries: make(map[*value.Object]value.Value)}
}

func weakKey(m *vm.Machine, v value.Value, who string) (*value.Object, error) {
	if v.Kind() != value.Object_ {
		return nil, m.NewThrownError("TypeError", who+": key must be an object")
	}
	return v.AsObject(), nil
}

func weakTableOf(m *vm.Machine, this value.Value, who string) (*weakTable, error) {
	if this.Kind() != value.Object_ {
		return nil, m.NewThrownError("TypeError", who+" called on non-object")
	}
	t, ok := this.AsObject().InternalData.(*weakTable)
	if !ok {
		return nil, m.NewThrownError("TypeError", who+" called on incompatible receiver")
	}
	return t, nil
}

// installWeak builds WeakMap/WeakSet and their prototypes.
func installWeak(m *vm.Machine, in *interner.Interner, objectProto *value.Object) (weakMapCtor, weakSetCtor *value.Object) {
	wmProto := value.NewWithClass(objectProto, value.ClassWeakMap)
	Def(in, wmProto, "get", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := weakTableOf(m, this, "WeakMap.prototype.get")
		if err != nil {
			return value.UndefinedValue, err
		}
		k, err := weakKey(m, arg(args, 0), "WeakMap.prototype.get")
		if err != nil {
			return value.UndefinedValue, nil // non-object key: spec says return undefined, not throw
		}
		return t.entries[k], nil
	})
	Def(in, wmProto, "set", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := weakTableOf(m, this, "WeakMap.prototype.set")
		if err != nil {
			return value.UndefinedValue, err
		}
		k, err := weakKey(m, arg(args, 0), "WeakMap.prototype.set")
		if err != nil {
			return value.UndefinedValue, err
		}
		t.entries[k] = arg(args, 1)
		return this, nil
	})
	Def(in, wmProto, "has", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := weakTableOf(m, this, "WeakMap.prototype.has")
		if err != nil {
			return value.UndefinedValue, err
		}
		k, err := weakKey(m, arg(args, 0), "WeakMap.prototype.has")
		if err != nil {
			return value.Bool(false), nil
		}
		_, ok := t.entries[k]
		return value.Bool(ok), nil
	})
	Def(in, wmProto, "delete", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := weakTableOf(m, this, "WeakMap.prototype.delete")
		if err != nil {
			return value.UndefinedValue, err
		}
		k, err := weakKey(m, arg(args, 0), "WeakMap.prototype.delete")
		if err != nil {
			return value.Bool(false), nil
		}
		_, ok := t.entries[k]
		delete(t.entries, k)
		return value.Bool(ok), nil
	})
	weakMapCtor = newConstructor(m, in, "WeakMap", wmProto, value.ClassWeakMap, func(this *value.Object, args []value.Value) error {
		this.InternalData = newWeakTable()
		if len(args) > 0 && !args[0].IsNullish() {
			entries, err := m.IterableToSlice(args[0])
			if err != nil {
				return err
			}
			t := this.InternalData.(*weakTable)
			for _, e := range entries {
				if e.Kind() != value.Object_ {
					continue
				}
				pair := toSlice(e.AsObject())
				if len(pair) == 0 || pair[0].Kind() != value.Object_ {
					continue
				}
				var v value.Value
				if len(pair) > 1 {
					v = pair[1]
				}
				t.entries[pair[0].AsObject()] = v
			}
		}
		return nil
	})

	wsProto := value.NewWithClass(objectProto, value.ClassWeakSet)
	Def(in, wsProto, "add", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := weakTableOf(m, this, "WeakSet.prototype.add")
		if err != nil {
			return value.UndefinedValue, err
		}
		k, err := weakKey(m, arg(args, 0), "WeakSet.prototype.add")
		if err != nil {
			return value.UndefinedValue, err
		}
		t.entries[k] = value.UndefinedValue
		return this, nil
	})
	Def(in, wsProto, "has", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := weakTableOf(m, this, "WeakSet.prototype.has")
		if err != nil {
			return value.UndefinedValue, err
		}
		k, err := weakKey(m, arg(args, 0), "WeakSet.prototype.has")
		if err != nil {
			return value.Bool(false), nil
		}
		_, ok := t.entries[k]
		return value.Bool(ok), nil
	})
	Def(in, wsProto, "delete", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		t, err := weakTableOf(m, this, "WeakSet.prototype.delete")
		if err != nil {
			return value.UndefinedValue, err
		}
		k, err := weakKey(m, arg(args, 0), "WeakSet.prototype.delete")
		if err != nil {
			return value.Bool(false), nil
		}
		_, ok := t.entries[k]
		delete(t.entries, k)
		return value.Bool(ok), nil
	})
	weakSetCtor = newConstructor(m, in, "WeakSet", wsProto, value.ClassWeakSet, func(this *value.Object, args []value.Value) error {
		this.InternalData = newWeakTable()
		if len(args) > 0 && !args[0].IsNullish() {
			entries, err := m.IterableToSlice(args[0])
			if err != nil {
				return err
			}
			t := this.InternalData.(*weakTable)
			for _, e := range entries {
				if e.Kind() != value.Object_ {
					continue
				}
				t.entries[e.AsObject()] = value.UndefinedValue
			}
		}
		return nil
	})
	return weakMapCtor, weakSetCtor
}
