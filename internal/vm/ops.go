package vm

import (
	"math"
	"math/big"
	"strconv"

	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// toNumber implements the ToNumber/ToNumeric abstract operation for
// the subset of types this engine's builtin layer produces (spec.md
// §4.4 "Numeric coercion semantics"). It never coerces a BigInt to a
// Number — binary ops check for that mismatch themselves.
func toNumber(v value.Value) float64 {
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
	case value.Undefined:
		return math.NaN()
	case value.Null:
		return 0
	default:
		return math.NaN()
	}
}

func toStringValue(v value.Value) string {
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
		return formatNumber(v.AsFloat64())
	case value.BigInt:
		return v.AsBigInt().String()
	case value.Symbol:
		return "Symbol()"
	default:
		return "[object Object]"
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// BinaryOpError reports an operand-type mismatch a binary opcode
// handler cannot recover from (e.g. mixing BigInt and Number), which
// the caller turns into a TypeError value.
type BinaryOpError struct{ Msg string }

func (e *BinaryOpError) Error() string { return e.Msg }

// EvalBinary implements the dense OpBinary dispatch, spec.md §4.4.
func EvalBinary(op bytecode.BinaryOp, l, r value.Value) (value.Value, error) {
	switch op {
	case bytecode.BinAdd:
		return evalAdd(l, r)
	case bytecode.BinSub:
		return numericOp(l, r, func(a, b float64) float64 { return a - b }, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) })
	case bytecode.BinMul:
		return numericOp(l, r, func(a, b float64) float64 { return a * b }, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) })
	case bytecode.BinDiv:
		return numericOp(l, r, func(a, b float64) float64 { return a / b }, nil)
	case bytecode.BinMod:
		return numericOp(l, r, math.Mod, func(a, b *big.Int) *big.Int { return new(big.Int).Mod(a, b) })
	case bytecode.BinExp:
		return numericOp(l, r, math.Pow, nil)
	case bytecode.BinEq:
		return value.Bool(looseEquals(l, r)), nil
	case bytecode.BinNeq:
		return value.Bool(!looseEquals(l, r)), nil
	case bytecode.BinStrictEq:
		return value.Bool(strictEquals(l, r)), nil
	case bytecode.BinStrictNeq:
		return value.Bool(!strictEquals(l, r)), nil
	case bytecode.BinLt:
		return compareOp(l, r, func(c int) bool { return c < 0 })
	case bytecode.BinGt:
		return compareOp(l, r, func(c int) bool { return c > 0 })
	case bytecode.BinLe:
		return compareOp(l, r, func(c int) bool { return c <= 0 })
	case bytecode.BinGe:
		return compareOp(l, r, func(c int) bool { return c >= 0 })
	case bytecode.BinInstanceOf, bytecode.BinIn:
		// Resolved by the VM directly (evalBinaryOp): `in` needs
		// Interner access to turn the left operand into a property
		// key, which this free-function dispatch table does not have,
		// and `instanceof` is routed to EvalInstanceOf below.
		return value.UndefinedValue, &BinaryOpError{Msg: "instanceof/in must be handled by the VM"}
	case bytecode.BinBitAnd:
		return int32Op(l, r, func(a, b int32) int32 { return a & b })
	case bytecode.BinBitOr:
		return int32Op(l, r, func(a, b int32) int32 { return a | b })
	case bytecode.BinBitXor:
		return int32Op(l, r, func(a, b int32) int32 { return a ^ b })
	case bytecode.BinShl:
		return int32ShiftOp(l, r, func(a int32, n uint) int32 { return a << (n & 31) })
	case bytecode.BinShr:
		return int32ShiftOp(l, r, func(a int32, n uint) int32 { return a >> (n & 31) })
	case bytecode.BinUShr:
		return uint32ShiftOp(l, r, func(a uint32, n uint) uint32 { return a >> (n & 31) })
	}
	return value.UndefinedValue, &BinaryOpError{Msg: "unknown binary operator"}
}

func evalAdd(l, r value.Value) (value.Value, error) {
	lp, rp := toPrimitive(l), toPrimitive(r)
	if lp.Kind() == value.String || rp.Kind() == value.String {
		return value.Str(toStringValue(lp) + toStringValue(rp)), nil
	}
	if lp.Kind() == value.BigInt || rp.Kind() == value.BigInt {
		if lp.Kind() != value.BigInt || rp.Kind() != value.BigInt {
			return value.UndefinedValue, &BinaryOpError{Msg: "Cannot mix BigInt and other types"}
		}
		return value.BigIntValue(lp.AsBigInt().Add(rp.AsBigInt())), nil
	}
	return value.Number(toNumber(lp) + toNumber(rp)), nil
}

// toPrimitive is a minimal ToPrimitive: objects are out of this
// engine's arithmetic fast path (their valueOf/toString are builtin-
// layer concerns, spec.md §6 Non-goals), so an object operand becomes
// its string tag.
func toPrimitive(v value.Value) value.Value {
	if v.Kind() == value.Object_ {
		return value.Str(toStringValue(v))
	}
	return v
}

func numericOp(l, r value.Value, fNum func(a, b float64) float64, fBig func(a, b *big.Int) *big.Int) (value.Value, error) {
	lp, rp := toPrimitive(l), toPrimitive(r)
	if lp.Kind() == value.BigInt || rp.Kind() == value.BigInt {
		if lp.Kind() != value.BigInt || rp.Kind() != value.BigInt {
			return value.UndefinedValue, &BinaryOpError{Msg: "Cannot mix BigInt and other types"}
		}
		if fBig == nil {
			return value.UndefinedValue, &BinaryOpError{Msg: "unsupported BigInt operation"}
		}
		return value.BigIntValue(value.NewBigInt(fBig(bigIntOf(lp), bigIntOf(rp)))), nil
	}
	return value.Number(fNum(toNumber(lp), toNumber(rp))), nil
}

func bigIntOf(v value.Value) *big.Int {
	// BigInt's internal big.Int is not exported; round-trip through
	// its decimal string form, which is exact for integers.
	n := new(big.Int)
	n.SetString(v.AsBigInt().String(), 10)
	return n
}

func int32Of(v value.Value) int32 {
	f := toNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(f)))
}

func int32Op(l, r value.Value, f func(a, b int32) int32) (value.Value, error) {
	return value.Int32(f(int32Of(l), int32Of(r))), nil
}

func int32ShiftOp(l, r value.Value, f func(a int32, n uint) int32) (value.Value, error) {
	return value.Int32(f(int32Of(l), uint(uint32(int32Of(r))))), nil
}

func uint32ShiftOp(l, r value.Value, f func(a uint32, n uint) uint32) (value.Value, error) {
	u := uint32(int32Of(l))
	return value.Number(float64(f(u, uint(uint32(int32Of(r)))))), nil
}

func compareOp(l, r value.Value, pred func(int) bool) (value.Value, error) {
	lp, rp := toPrimitive(l), toPrimitive(r)
	if lp.Kind() == value.String && rp.Kind() == value.String {
		return value.Bool(pred(stringCompare(lp.AsString(), rp.AsString()))), nil
	}
	lf, rf := toNumber(lp), toNumber(rp)
	if math.IsNaN(lf) || math.IsNaN(rf) {
		return value.FalseValue, nil
	}
	c := 0
	switch {
	case lf < rf:
		c = -1
	case lf > rf:
		c = 1
	}
	return value.Bool(pred(c)), nil
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func looseEquals(l, r value.Value) bool {
	if l.Kind() == r.Kind() || (isNum(l.Kind()) && isNum(r.Kind())) {
		return strictEquals(l, r)
	}
	if l.IsNullish() && r.IsNullish() {
		return true
	}
	if l.IsNullish() || r.IsNullish() {
		return false
	}
	// Number/string coercions (spec.md §4.4 loose-equality algorithm,
	// reduced to the primitive subset this engine's fast path covers).
	if isNum(l.Kind()) && r.Kind() == value.String {
		return l.AsFloat64() == toNumber(r)
	}
	if l.Kind() == value.String && isNum(r.Kind()) {
		return toNumber(l) == r.AsFloat64()
	}
	if l.Kind() == value.Boolean {
		return looseEquals(value.Number(toNumber(l)), r)
	}
	if r.Kind() == value.Boolean {
		return looseEquals(l, value.Number(toNumber(r)))
	}
	if l.Kind() == value.Object_ && (isNum(r.Kind()) || r.Kind() == value.String) {
		return looseEquals(toPrimitive(l), r)
	}
	if r.Kind() == value.Object_ && (isNum(l.Kind()) || l.Kind() == value.String) {
		return looseEquals(l, toPrimitive(r))
	}
	return false
}

func isNum(k value.Kind) bool { return k == value.Integer32 || k == value.Float64 }

func strictEquals(l, r value.Value) bool {
	return value.SameValueZero(l, r) && !(bothNaN(l, r))
}

func bothNaN(l, r value.Value) bool {
	// SameValueZero treats NaN == NaN, but strict equality (===) must
	// not; override that one case here.
	if isNum(l.Kind()) && isNum(r.Kind()) {
		lf, rf := l.AsFloat64(), r.AsFloat64()
		return math.IsNaN(lf) && math.IsNaN(rf)
	}
	return false
}

// EvalInstanceOf implements the `instanceof` operator; exported since
// it needs no Interner access (it walks Object.Proto, not property
// keys) but is kept next to EvalIn for symmetry.
func EvalInstanceOf(l, r value.Value) (value.Value, error) {
	if r.Kind() != value.Object_ || r.AsObject().Callable == nil {
		return value.UndefinedValue, &BinaryOpError{Msg: "Right-hand side of 'instanceof' is not callable"}
	}
	if l.Kind() != value.Object_ {
		return value.FalseValue, nil
	}
	protoVal, err := r.AsObject().Get(interner.SymPrototype, r)
	if err != nil {
		return value.UndefinedValue, err
	}
	if protoVal.Kind() != value.Object_ {
		return value.FalseValue, nil
	}
	proto := protoVal.AsObject()
	for p := l.AsObject().Proto; p != nil; p = p.Proto {
		if p == proto {
			return value.TrueValue, nil
		}
	}
	return value.FalseValue, nil
}

// EvalIn implements the `in` operator; sym is the left operand's
// value already converted to a property key by the caller (who owns
// the Interner).
func EvalIn(sym interner.Symbol, r value.Value) (value.Value, error) {
	if r.Kind() != value.Object_ {
		return value.UndefinedValue, &BinaryOpError{Msg: "Cannot use 'in' operator on a non-object"}
	}
	for o := r.AsObject(); o != nil; o = o.Proto {
		if _, _, ok := o.GetOwnProperty(sym); ok {
			return value.TrueValue, nil
		}
	}
	return value.FalseValue, nil
}

// EvalUnary implements OpUnary's operators (spec.md §4.4).
func EvalUnary(op bytecode.UnaryOp, v value.Value) (value.Value, error) {
	switch op {
	case bytecode.UnaryNeg:
		if v.Kind() == value.BigInt {
			return value.BigIntValue(v.AsBigInt().Neg()), nil
		}
		return value.Number(-toNumber(toPrimitive(v))), nil
	case bytecode.UnaryPlus:
		if v.Kind() == value.BigInt {
			return value.UndefinedValue, &BinaryOpError{Msg: "Cannot convert a BigInt to a number"}
		}
		return value.Number(toNumber(toPrimitive(v))), nil
	case bytecode.UnaryNot:
		return value.Bool(!v.ToBoolean()), nil
	case bytecode.UnaryBitNot:
		if v.Kind() == value.BigInt {
			return value.BigIntValue(v.AsBigInt().BitNot()), nil
		}
		return value.Int32(^int32Of(v)), nil
	case bytecode.UnaryTypeof:
		return value.Str(v.TypeOf()), nil
	case bytecode.UnaryVoid:
		return value.UndefinedValue, nil
	case bytecode.UnaryDelete:
		return value.TrueValue, nil // property-targeted delete handled by the caller before reaching here
	}
	return value.UndefinedValue, &BinaryOpError{Msg: "unknown unary operator"}
}
