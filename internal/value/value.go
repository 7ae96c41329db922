// Package value implements the engine's tagged Value union and the
// Object/Shape model backing it, per spec.md §4.5.
//
// Value is a small struct rather than an interface so integers and
// floats never escape to the heap on the hot path; Object and
// reference-typed values are carried as a GC-managed pointer in the
// same struct.
package value

import (
	"math"

	"github.com/standardbeagle/jsengine/internal/interner"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	Undefined Kind = iota
	Null
	Boolean
	Integer32 // small-integer fast path; promoted to Float64 on overflow
	Float64
	String
	Symbol
	BigInt
	Object_
)

// Value is the engine's tagged union. Exactly one of the payload
// fields is meaningful for a given Kind:
//
//	Boolean    -> Bool
//	Integer32  -> I32
//	Float64    -> F64
//	String     -> Str
//	Symbol     -> Sym (an interner.Symbol used as a unique Symbol identity)
//	BigInt     -> Big
//	Object_    -> Obj
type Value struct {
	kind Kind
	i32  int32
	f64  float64
	str  string
	sym  interner.Symbol
	big  *BigInt
	obj  *Object
}

func (v Value) Kind() Kind { return v.kind }

var (
	UndefinedValue = Value{kind: Undefined}
	NullValue      = Value{kind: Null}
	TrueValue      = Value{kind: Boolean, i32: 1}
	FalseValue     = Value{kind: Boolean}
)

func Bool(b bool) Value {
	if b {
		return TrueValue
	}
	return FalseValue
}

func Int32(n int32) Value { return Value{kind: Integer32, i32: n} }

func Float(f float64) Value { return Value{kind: Float64, f64: f} }

// Number picks the narrowest representation: an integral float that
// fits in int32 is stored as Integer32 (-0 stays Float64), matching
// spec.md §4.5's "unbox small integers" requirement.
func Number(f float64) Value {
	if f == math.Trunc(f) && !(f == 0 && math.Signbit(f)) && f >= math.MinInt32 && f <= math.MaxInt32 {
		if i32 := int32(f); float64(i32) == f {
			return Int32(i32)
		}
	}
	return Float(f)
}

func Str(s string) Value { return Value{kind: String, str: s} }

func SymbolValue(sym interner.Symbol) Value { return Value{kind: Symbol, sym: sym} }

func BigIntValue(b *BigInt) Value { return Value{kind: BigInt, big: b} }

func ObjectValue(o *Object) Value {
	if o == nil {
		return UndefinedValue
	}
	return Value{kind: Object_, obj: o}
}

func (v Value) IsUndefined() bool { return v.kind == Undefined }
func (v Value) IsNull() bool      { return v.kind == Null }
func (v Value) IsNullish() bool   { return v.kind == Undefined || v.kind == Null }
func (v Value) IsObject() bool    { return v.kind == Object_ }

func (v Value) AsBool() bool { return v.i32 != 0 }

// AsFloat64 returns the numeric payload regardless of which numeric
// Kind holds it; callers must check Kind first.
func (v Value) AsFloat64() float64 {
	if v.kind == Integer32 {
		return float64(v.i32)
	}
	return v.f64
}

func (v Value) AsInt32Fast() (int32, bool) {
	if v.kind == Integer32 {
		return v.i32, true
	}
	return 0, false
}

func (v Value) AsString() string { return v.str }

func (v Value) AsSymbol() interner.Symbol { return v.sym }

func (v Value) AsBigInt() *BigInt { return v.big }

func (v Value) AsObject() *Object { return v.obj }

// ToBoolean implements the ECMAScript ToBoolean abstract operation.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case Undefined, Null:
		return false
	case Boolean:
		return v.i32 != 0
	case Integer32:
		return v.i32 != 0
	case Float64:
		return v.f64 != 0 && !math.IsNaN(v.f64)
	case String:
		return v.str != ""
	case BigInt:
		return !v.big.IsZero()
	default:
		return true // Symbol, Object
	}
}

// SameValueZero implements the SameValueZero algorithm used by Map,
// Set, and WeakMap/WeakSet key comparison (spec.md §4.5/§4.6): like
// strict equality, but NaN equals NaN and there is no -0/+0 distinction
// requirement beyond what Go's float equality already gives bit-for-bit
// identical representations.
func SameValueZero(a, b Value) bool {
	if a.kind != b.kind {
		// Integer32 and Float64 are the same logical Number type.
		if isNumeric(a.kind) && isNumeric(b.kind) {
			return sameValueZeroNumber(a, b)
		}
		return false
	}
	switch a.kind {
	case Undefined, Null:
		return true
	case Boolean:
		return a.i32 == b.i32
	case Integer32, Float64:
		return sameValueZeroNumber(a, b)
	case String:
		return a.str == b.str
	case Symbol:
		return a.sym == b.sym
	case BigInt:
		return a.big.Equal(b.big)
	case Object_:
		return a.obj == b.obj
	default:
		return false
	}
}

func isNumeric(k Kind) bool { return k == Integer32 || k == Float64 }

func sameValueZeroNumber(a, b Value) bool {
	af, bf := a.AsFloat64(), b.AsFloat64()
	if math.IsNaN(af) && math.IsNaN(bf) {
		return true
	}
	return af == bf
}

// TypeOf implements the `typeof` operator's string result.
func (v Value) TypeOf() string {
	switch v.kind {
	case Undefined:
		return "undefined"
	case Null:
		return "object"
	case Boolean:
		return "boolean"
	case Integer32, Float64:
		return "number"
	case String:
		return "string"
	case Symbol:
		return "symbol"
	case BigInt:
		return "bigint"
	case Object_:
		if v.obj.Callable != nil {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}
