package value

import "github.com/standardbeagle/jsengine/internal/interner"

// Callable is implemented by anything an Object's Callable field can
// hold: ordinary closures and native (Go-implemented) functions alike,
// per spec.md §4.4/§6. Kept as an interface here so this package never
// imports internal/vm — the VM depends on value, not the reverse.
type Callable interface {
	Call(this Value, args []Value) (Value, error)
	Construct(args []Value, newTarget *Object) (Value, error)
}

// Class tags an object's internal [[Class]]-like identity for
// builtins that need it (Array, Date, RegExp, Map, Set, ...).
type Class uint8

const (
	ClassObject Class = iota
	ClassArray
	ClassFunction
	ClassError
	ClassDate
	ClassRegExp
	ClassMap
	ClassSet
	ClassWeakMap
	ClassWeakSet
	ClassPromise
	ClassSymbolWrapper
	ClassArguments
)

// Object is the engine's single object representation. Fast ordinary
// objects carry a Shape and a parallel slots slice; objects that have
// exceeded the shape's transition budget, or that were constructed
// with a huge number of properties up front, fall back to dict, a
// plain map keyed by Symbol (spec.md §9 dictionary-mode fallback).
type Object struct {
	shape     *Shape
	slots     []Value
	dict      map[interner.Symbol]dictEntry // nil unless in dictionary mode
	elements  map[uint32]Value               // sparse integer-indexed storage
	elemLen   uint32

	Proto      *Object
	Extensible bool
	Class      Class
	Callable   Callable // non-nil for function objects

	// Internal slots used by specific builtins; stored generically so
	// this package doesn't need to know about every builtin's private
	// state (spec.md §6 calls the builtin library itself out of scope).
	InternalData any
}

type dictEntry struct {
	value Value
	desc  PropertyDescriptor
}

// New creates an empty ordinary object with the given prototype.
func New(proto *Object) *Object {
	return &Object{shape: RootShape(), Proto: proto, Extensible: true}
}

// NewWithClass creates an empty object tagged with an internal class,
// for builtins that need [[Class]]-sensitive behavior (Array.isArray,
// Object.prototype.toString, ...).
func NewWithClass(proto *Object, class Class) *Object {
	o := New(proto)
	o.Class = class
	return o
}

// Shape exposes o's current hidden class for internal/cache's inline
// property cache, which keys cached lookups on Shape identity without
// needing to know anything else about Object's internal layout. Nil
// once o has fallen into dictionary mode.
func (o *Object) Shape() *Shape { return o.shape }

// Slot returns the raw data-property value stored at slot, bypassing
// Shape.Lookup entirely. Callers (internal/cache's inline cache) must
// only use this once they have separately confirmed o.Shape() is
// identical to the Shape the slot index was captured against.
func (o *Object) Slot(slot int) Value {
	if o.dict != nil || slot < 0 || slot >= len(o.slots) {
		return UndefinedValue
	}
	return o.slots[slot]
}

// GetOwnProperty looks up name directly on o (no prototype walk).
func (o *Object) GetOwnProperty(name interner.Symbol) (Value, PropertyDescriptor, bool) {
	if o.dict != nil {
		e, ok := o.dict[name]
		return e.value, e.desc, ok
	}
	slot, desc, ok := o.shape.Lookup(name)
	if !ok {
		return UndefinedValue, PropertyDescriptor{}, false
	}
	if desc.IsAccessor() {
		return UndefinedValue, desc, true
	}
	return o.slots[slot], desc, true
}

// Get implements [[Get]]: an own lookup, falling back through the
// prototype chain, finally to undefined.
func (o *Object) Get(name interner.Symbol, receiver Value) (Value, error) {
	for cur := o; cur != nil; cur = cur.Proto {
		val, desc, ok := cur.GetOwnProperty(name)
		if !ok {
			continue
		}
		if desc.IsAccessor() {
			if desc.Get == nil {
				return UndefinedValue, nil
			}
			return desc.Get.Callable.Call(receiver, nil)
		}
		return val, nil
	}
	return UndefinedValue, nil
}

// Set implements a simplified [[Set]]: it does not yet walk to
// accessor setters defined on the prototype chain's own slots beyond
// the first hit, matching the ordinary-object fast path spec.md §4.5
// asks for; Reflect.set's full receiver semantics are a builtin-layer
// concern (out of scope per spec.md §6 Non-goals).
func (o *Object) Set(name interner.Symbol, val Value) error {
	if _, desc, ok := o.GetOwnProperty(name); ok {
		if desc.IsAccessor() {
			if desc.Set == nil {
				return nil // no setter: silently ignored in sloppy mode, TypeError in strict (caller's job)
			}
			_, err := desc.Set.Callable.Call(ObjectValue(o), []Value{val})
			return err
		}
		if !desc.Writable() {
			return nil
		}
		if o.dict != nil {
			e := o.dict[name]
			e.value = val
			o.dict[name] = e
			return nil
		}
		slot, _, _ := o.shape.Lookup(name)
		o.slots[slot] = val
		return nil
	}
	// Walk the prototype chain for an inherited accessor setter before
	// falling through to defining an own data property.
	for p := o.Proto; p != nil; p = p.Proto {
		_, desc, ok := p.GetOwnProperty(name)
		if !ok {
			continue
		}
		if desc.IsAccessor() {
			if desc.Set == nil {
				return nil
			}
			_, err := desc.Set.Callable.Call(ObjectValue(o), []Value{val})
			return err
		}
		break
	}
	return o.DefineDataProperty(name, val, DefaultDataAttributes())
}

// DefineDataProperty adds or overwrites an own data property,
// transitioning this object's Shape (or updating its dictionary
// entry) as needed.
func (o *Object) DefineDataProperty(name interner.Symbol, val Value, attrs Attributes) error {
	if o.dict != nil {
		o.dict[name] = dictEntry{value: val, desc: PropertyDescriptor{Attrs: attrs}}
		return nil
	}
	if slot, desc, ok := o.shape.Lookup(name); ok {
		if desc.IsAccessor() {
			o.convertToDictionary()
			o.dict[name] = dictEntry{value: val, desc: PropertyDescriptor{Attrs: attrs}}
			return nil
		}
		o.slots[slot] = val
		return nil
	}
	if o.shape.IsDictionary() {
		o.convertToDictionary()
		o.dict[name] = dictEntry{value: val, desc: PropertyDescriptor{Attrs: attrs}}
		return nil
	}
	o.shape = o.shape.Transition(name, attrs)
	o.slots = append(o.slots, val)
	return nil
}

// DefineAccessorProperty adds or replaces a get/set pair. Accessor
// functions are per-object state, not structural, so (unlike data
// properties) defining one always moves the object to dictionary mode
// rather than sharing a Shape transition — two objects defining
// "same-named" accessors almost always close over different
// functions, and Shapes are only safe to share when every object that
// reaches one is structurally identical.
func (o *Object) DefineAccessorProperty(name interner.Symbol, get, set *Object, attrs Attributes) {
	attrs |= AttrAccessor
	o.convertToDictionary()
	o.dict[name] = dictEntry{desc: PropertyDescriptor{Attrs: attrs, Get: get, Set: set}}
}

// Delete removes an own property, reporting whether it existed and
// was configurable. Deleting from a shaped object forces dictionary
// mode since Shapes have no notion of removing a slot mid-chain.
func (o *Object) Delete(name interner.Symbol) bool {
	if o.dict != nil {
		e, ok := o.dict[name]
		if !ok {
			return true
		}
		if !e.desc.Configurable() {
			return false
		}
		delete(o.dict, name)
		return true
	}
	_, desc, ok := o.shape.Lookup(name)
	if !ok {
		return true
	}
	if !desc.Configurable() {
		return false
	}
	o.convertToDictionary()
	delete(o.dict, name)
	return true
}

func (o *Object) convertToDictionary() {
	if o.dict != nil {
		return
	}
	d := make(map[interner.Symbol]dictEntry, o.shape.Depth())
	for _, name := range o.shape.OwnPropertyNames() {
		slot, desc, _ := o.shape.Lookup(name)
		val := UndefinedValue
		if !desc.IsAccessor() {
			val = o.slots[slot]
		}
		d[name] = dictEntry{value: val, desc: desc}
	}
	o.dict = d
	o.shape = nil
	o.slots = nil
}

// OwnPropertyNames returns this object's own enumerable-or-not
// property names: in shape (insertion) order for a shaped object, and
// in Go map iteration order, which is unspecified, once the object is
// in dictionary mode. Neither follows spec key ordering (integer
// indices first, then strings in insertion order, then symbols).
func (o *Object) OwnPropertyNames() []interner.Symbol {
	if o.dict != nil {
		names := make([]interner.Symbol, 0, len(o.dict))
		for name := range o.dict {
			names = append(names, name)
		}
		return names
	}
	return o.shape.OwnPropertyNames()
}

// ---- Indexed (array-like) storage ---------------------------------------

func (o *Object) GetElement(idx uint32) (Value, bool) {
	v, ok := o.elements[idx]
	return v, ok
}

func (o *Object) SetElement(idx uint32, val Value) {
	if o.elements == nil {
		o.elements = make(map[uint32]Value)
	}
	o.elements[idx] = val
	if idx+1 > o.elemLen {
		o.elemLen = idx + 1
	}
}

func (o *Object) DeleteElement(idx uint32) {
	delete(o.elements, idx)
}

func (o *Object) Length() uint32 { return o.elemLen }

func (o *Object) SetLength(n uint32) {
	if n < o.elemLen {
		for i := n; i < o.elemLen; i++ {
			delete(o.elements, i)
		}
	}
	o.elemLen = n
}
