// Package jserr builds the ECMAScript error taxonomy spec.md §7
// describes (Syntax/Reference/Type/Range/URI/Eval/Internal) as real,
// catchable JS objects: a constructible Error.prototype chain rooted
// the way every other builtin constructor is, not the VM's bootstrap
// placeholder (internal/vm's own newError, used only before this
// package's Install has run).
package jserr

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// Kind tags which of the seven ECMAScript error constructors produced
// a given instance.
type Kind string

const (
	KindError     Kind = "Error"
	KindSyntax    Kind = "SyntaxError"
	KindReference Kind = "ReferenceError"
	KindType      Kind = "TypeError"
	KindRange     Kind = "RangeError"
	KindURI       Kind = "URIError"
	KindEval      Kind = "EvalError"
)

// Internal errors (spec.md §7's "never observable from script") never
// get a Kind constant here on purpose: they surface to the embedder as
// a Go error from eval(), not as a thrown Value.

// nativeFunc adapts a Go closure to value.Callable so the constructors
// installed below can be called both as `Error(...)` and `new
// Error(...)`, matching every other builtin constructor's dual calling
// convention.
type nativeFunc struct {
	name  string
	arity int
	fn    func(this value.Value, args []value.Value) (value.Value, error)
}

func (n *nativeFunc) Call(this value.Value, args []value.Value) (value.Value, error) {
	return n.fn(this, args)
}

func (n *nativeFunc) Construct(args []value.Value, newTarget *value.Object) (value.Value, error) {
	return n.fn(value.UndefinedValue, args)
}

func newNativeFunc(proto *value.Object, in *interner.Interner, name string, arity int, fn func(value.Value, []value.Value) (value.Value, error)) *value.Object {
	o := value.NewWithClass(proto, value.ClassFunction)
	nf := &nativeFunc{name: name, arity: arity, fn: fn}
	o.Callable = nf
	o.DefineDataProperty(interner.SymName, value.Str(name), value.AttrConfigurable)
	o.DefineDataProperty(interner.SymLength, value.Int32(int32(arity)), value.AttrConfigurable)
	return o
}

// Prototypes holds the prototype object and constructor function for
// every error kind, plus the shared Object.prototype they ultimately
// chain to (needed so Error.prototype itself has a [[Prototype]]).
type Prototypes struct {
	ObjectProto *value.Object
	Ctors       map[Kind]*value.Object
	Protos      map[Kind]*value.Object
	in          *interner.Interner
}

// Install builds the Error/TypeError/RangeError/ReferenceError/
// SyntaxError/URIError/EvalError prototype chain — every subtype's
// prototype chains to Error.prototype, which chains to objectProto —
// defines the seven constructors as global bindings on global, and
// returns the table so the VM can build instances internally (e.g.
// its own TypeError/RangeError throws) through the same chain script
// code sees with `instanceof`.
func Install(global *value.Object, objectProto *value.Object, in *interner.Interner) *Prototypes {
	p := &Prototypes{ObjectProto: objectProto, Ctors: map[Kind]*value.Object{}, Protos: map[Kind]*value.Object{}, in: in}

	errorProto := value.New(objectProto)
	p.Protos[KindError] = errorProto
	errorProto.DefineDataProperty(interner.SymName, value.Str(string(KindError)), value.AttrConfigurable|value.AttrWritable)
	errorProto.DefineDataProperty(interner.SymMessage, value.Str(""), value.AttrConfigurable|value.AttrWritable)
	toStringSym := in.Intern("toString")
	toStringFn := newNativeFunc(nil, in, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(errorToString(this, in)), nil
	})
	errorProto.DefineDataProperty(toStringSym, value.ObjectValue(toStringFn), value.AttrConfigurable|value.AttrWritable)

	errorCtor := p.defineCtor(KindError, errorProto, nil, in)
	p.Ctors[KindError] = errorCtor
	global.DefineDataProperty(in.Intern("Error"), value.ObjectValue(errorCtor), value.AttrConfigurable|value.AttrWritable)
	errorProto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(errorCtor), value.AttrConfigurable|value.AttrWritable)
	errorCtor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(errorProto), 0)

	for _, k := range []Kind{KindSyntax, KindReference, KindType, KindRange, KindURI, KindEval} {
		subProto := value.New(errorProto)
		subProto.DefineDataProperty(interner.SymName, value.Str(string(k)), value.AttrConfigurable|value.AttrWritable)
		p.Protos[k] = subProto
		ctor := p.defineCtor(k, subProto, errorCtor, in)
		p.Ctors[k] = ctor
		subProto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(ctor), value.AttrConfigurable|value.AttrWritable)
		ctor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(subProto), 0)
		global.DefineDataProperty(in.Intern(string(k)), value.ObjectValue(ctor), value.AttrConfigurable|value.AttrWritable)
	}
	return p
}

func (p *Prototypes) defineCtor(k Kind, proto *value.Object, superCtor *value.Object, in *interner.Interner) *value.Object {
	name := string(k)
	ctor := newNativeFunc(nil, in, name, 1, func(this value.Value, args []value.Value) (value.Value, error) {
		msg := ""
		if len(args) > 0 && !args[0].IsUndefined() {
			msg = toStringArg(args[0])
		}
		inst := this
		if inst.Kind() != value.Object_ {
			inst = value.ObjectValue(value.New(proto))
		}
		obj := inst.AsObject()
		obj.Class = value.ClassError
		obj.DefineDataProperty(interner.SymMessage, value.Str(msg), value.AttrConfigurable|value.AttrWritable)
		obj.DefineDataProperty(interner.SymStack, value.Str(name+": "+msg), value.AttrConfigurable|value.AttrWritable)
		if len(args) > 1 && args[1].Kind() == value.Object_ {
			if causeV, _, ok := args[1].AsObject().GetOwnProperty(in.Intern("cause")); ok {
				obj.DefineDataProperty(in.Intern("cause"), causeV, value.AttrConfigurable|value.AttrWritable)
			}
		}
		return inst, nil
	})
	return ctor
}

// New constructs a fresh instance of kind k with message msg, chained
// to the installed prototype, suitable for both `throw` and a host
// function's Err(...) return.
func (p *Prototypes) New(k Kind, msg string) *value.Object {
	proto := p.Protos[k]
	o := value.NewWithClass(proto, value.ClassError)
	o.DefineDataProperty(interner.SymMessage, value.Str(msg), value.AttrConfigurable|value.AttrWritable)
	o.DefineDataProperty(interner.SymStack, value.Str(string(k)+": "+msg), value.AttrConfigurable|value.AttrWritable)
	return o
}

func errorToString(this value.Value, in *interner.Interner) string {
	if this.Kind() != value.Object_ {
		return "Error"
	}
	o := this.AsObject()
	nameV, _ := o.Get(interner.SymName, this)
	msgV, _ := o.Get(interner.SymMessage, this)
	name := "Error"
	if !nameV.IsUndefined() {
		name = toStringArg(nameV)
	}
	msg := toStringArg(msgV)
	if msg == "" {
		return name
	}
	if name == "" {
		return msg
	}
	return name + ": " + msg
}

// toStringArg is a minimal ToString used only for building error
// messages/names, since importing internal/vm here would create an
// import cycle (vm depends on jserr's Prototypes, not the reverse).
func toStringArg(v value.Value) string {
	switch v.Kind() {
	case value.String:
		return v.AsString()
	case value.Undefined:
		return "undefined"
	case value.Null:
		return "null"
	case value.Boolean:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case value.BigInt:
		return v.AsBigInt().String()
	default:
		return v.AsString()
	}
}
