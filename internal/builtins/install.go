package builtins

import (
	"github.com/standardbeagle/jsengine/internal/builtins/jsonbuiltin"
	"github.com/standardbeagle/jsengine/internal/config"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/jserr"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// Install builds the full standard library on m's global object and
// wires every Machine prototype hook (ObjectProto, ArrayProto, ...) so
// VM-internal object creation (literals, `new`, generator/Promise
// construction) chains to the same prototypes script code extends.
// Order matters: Object.prototype must exist before anything that
// chains to it, and the interner's symbol bindings (bindSymbols) must
// run before any ToString/ToNumber call touches an object with a
// toString/valueOf method.
func Install(m *vm.Machine, in *interner.Interner, cfg *config.Config) *Registry {
	bindSymbols(in)

	global := m.Global

	objectCtor, objectProto := installObject(m, in)
	m.ObjectProto = objectProto
	global.Proto = objectProto

	errProtos := jserr.Install(global, objectProto, in)
	m.ErrorFactory = func(kind, msg string) *value.Object { return errProtos.New(jserr.Kind(kind), msg) }

	functionProto := installFunction(m, in, objectProto)
	m.FunctionProto = functionProto

	arrayCtor := installArray(m, in, objectProto)
	arrayProtoV, _ := arrayCtor.Get(interner.SymPrototype, value.ObjectValue(arrayCtor))
	arrayProto := arrayProtoV.AsObject()
	m.ArrayProto = arrayProto

	stringCtor := installString(m, in, objectProto)
	stringProtoV, _ := stringCtor.Get(interner.SymPrototype, value.ObjectValue(stringCtor))
	m.StringProto = stringProtoV.AsObject()

	numberCtor := installNumber(in, objectProto)
	booleanCtor := installBoolean(in, objectProto)

	generatorProto := installGenerator(m, in, objectProto)
	m.GeneratorProto = generatorProto

	promiseCtor := installPromise(m, in, objectProto)
	promiseProtoV, _ := promiseCtor.Get(interner.SymPrototype, value.ObjectValue(promiseCtor))
	m.PromiseProto = promiseProtoV.AsObject()

	mapCtor, setCtor := installMapSet(m, in, objectProto)
	weakMapCtor, weakSetCtor := installWeak(m, in, objectProto)

	installGlobals(m, in, global)

	if cfg.Features.EnableBigInt {
		installBigInt(m, in, objectProto, global)
	}
	if cfg.Features.EnableTemporalStub {
		installTemporalStub(in, objectProto, global)
	}

	var schema *jsonbuiltin.Schema
	jsonbuiltin.Install(m, in, objectProto, arrayProto, global, schema)
	jsonV, _ := global.Get(in.Intern("JSON"), value.ObjectValue(global))
	var jsonObj *value.Object
	if jsonV.Kind() == value.Object_ {
		jsonObj = jsonV.AsObject()
	}

	// No global Function constructor: dynamic code generation (`new
	// Function(...)`) is a Non-goal; every closure still reaches
	// functionProto through its own prototype chain.
	defGlobal(in, global, "Object", objectCtor)
	defGlobal(in, global, "Array", arrayCtor)
	defGlobal(in, global, "String", stringCtor)
	defGlobal(in, global, "Number", numberCtor)
	defGlobal(in, global, "Boolean", booleanCtor)
	defGlobal(in, global, "Map", mapCtor)
	defGlobal(in, global, "Set", setCtor)
	defGlobal(in, global, "WeakMap", weakMapCtor)
	defGlobal(in, global, "WeakSet", weakSetCtor)
	defGlobal(in, global, "Promise", promiseCtor)

	return &Registry{
		Object:   objectCtor,
		Array:    arrayCtor,
		Function: functionProto,
		String:   stringCtor,
		Number:   numberCtor,
		Boolean:  booleanCtor,
		Map:      mapCtor,
		Set:      setCtor,
		WeakMap:  weakMapCtor,
		WeakSet:  weakSetCtor,
		JSON:     jsonObj,
	}
}

func defGlobal(in *interner.Interner, global *value.Object, name string, ctor *value.Object) {
	if ctor == nil {
		return
	}
	global.DefineDataProperty(in.Intern(name), value.ObjectValue(ctor), value.AttrWritable|value.AttrConfigurable)
}
