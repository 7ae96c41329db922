package builtins

import (
	"math"
	"strconv"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// ToString implements the ECMAScript ToString abstract operation for
// object operands too: internal/vm's own toStringValue (unexported,
// and deliberately ignorant of toString()/valueOf() since the VM
// layer predates any builtin prototype) stops at "[object Object]";
// this one calls through to Object.prototype.toString or a
// user-defined override, matching what template literals and
// String(x) actually observe once the standard library is installed.
func ToString(v value.Value) string {
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
	case value.Integer32, value.Float64:
		return FormatNumber(v.AsFloat64())
	case value.BigInt:
		return v.AsBigInt().String()
	case value.Symbol:
		return "Symbol()"
	case value.Object_:
		return objectToString(v.AsObject())
	default:
		return ""
	}
}

// objectToString applies OrdinaryToPrimitive(object, "string"): try
// toString() then valueOf(), falling back to "[object Object]" if
// neither method exists or both return an object.
func objectToString(o *value.Object) string {
	if o.Class == value.ClassArray {
		return arrayJoin(o, ",")
	}
	this := value.ObjectValue(o)
	for _, name := range []interner.Symbol{toStringSymbol, valueOfSymbol} {
		fnV, err := o.Get(name, this)
		if err != nil || fnV.Kind() != value.Object_ || fnV.AsObject().Callable == nil {
			continue
		}
		res, err := fnV.AsObject().Callable.Call(this, nil)
		if err != nil {
			continue
		}
		if res.Kind() != value.Object_ {
			return ToString(res)
		}
	}
	return "[object Object]"
}

// FormatNumber implements ECMAScript's Number::toString radix-10
// algorithm closely enough for ordinary scripts: integral values
// within the safe exponent range print without a decimal point,
// everything else uses Go's shortest round-tripping representation.
func FormatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == 0 {
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToNumber implements ToNumber for the object case ToString above
// handles for strings; primitive coercion mirrors internal/vm's
// unexported toNumber.
func ToNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.Integer32, value.Float64:
		return v.AsFloat64()
	case value.Boolean:
		if v.AsBool() {
			return 1
		}
		return 0
	case value.String:
		s := v.AsString()
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case value.Null:
		return 0
	case value.Object_:
		this := value.ObjectValue(v.AsObject())
		for _, name := range []interner.Symbol{valueOfSymbol, toStringSymbol} {
			fnV, err := v.AsObject().Get(name, this)
			if err != nil || fnV.Kind() != value.Object_ || fnV.AsObject().Callable == nil {
				continue
			}
			res, err := fnV.AsObject().Callable.Call(this, nil)
			if err == nil && res.Kind() != value.Object_ {
				return ToNumber(res)
			}
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

var (
	toStringSymbol interner.Symbol
	valueOfSymbol  interner.Symbol
)

// bindSymbols is called once from Install with the live Interner,
// since the package-level vars above need a concrete table to resolve
// against (there is no "the" interner — every Machine owns its own).
func bindSymbols(in *interner.Interner) {
	toStringSymbol = in.Intern("toString")
	valueOfSymbol = in.Intern("valueOf")
}
