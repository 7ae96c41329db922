package value

import "math/big"

// BigInt wraps math/big.Int to back the ECMAScript BigInt primitive.
// Values are always normalized (no negative zero, no trailing state)
// so Equal can compare via the underlying big.Int's Cmp.
type BigInt struct {
	v big.Int
}

func NewBigInt(v *big.Int) *BigInt { return &BigInt{v: *v} }

func BigIntFromInt64(n int64) *BigInt {
	b := &BigInt{}
	b.v.SetInt64(n)
	return b
}

func BigIntFromString(digits string) (*BigInt, bool) {
	b := &BigInt{}
	_, ok := b.v.SetString(digits, 0)
	return b, ok
}

func (b *BigInt) IsZero() bool { return b.v.Sign() == 0 }

func (b *BigInt) Equal(o *BigInt) bool { return b.v.Cmp(&o.v) == 0 }

func (b *BigInt) Cmp(o *BigInt) int { return b.v.Cmp(&o.v) }

func (b *BigInt) String() string { return b.v.String() }

func (b *BigInt) Add(o *BigInt) *BigInt { return &BigInt{v: *new(big.Int).Add(&b.v, &o.v)} }
func (b *BigInt) Sub(o *BigInt) *BigInt { return &BigInt{v: *new(big.Int).Sub(&b.v, &o.v)} }
func (b *BigInt) Mul(o *BigInt) *BigInt { return &BigInt{v: *new(big.Int).Mul(&b.v, &o.v)} }

func (b *BigInt) Div(o *BigInt) (*BigInt, error) {
	if o.IsZero() {
		return nil, errDivideByZero
	}
	// ECMAScript BigInt division truncates toward zero, matching
	// big.Int.Quo rather than Div (which floors).
	return &BigInt{v: *new(big.Int).Quo(&b.v, &o.v)}, nil
}

func (b *BigInt) Mod(o *BigInt) (*BigInt, error) {
	if o.IsZero() {
		return nil, errDivideByZero
	}
	return &BigInt{v: *new(big.Int).Rem(&b.v, &o.v)}, nil
}

func (b *BigInt) Neg() *BigInt { return &BigInt{v: *new(big.Int).Neg(&b.v)} }

func (b *BigInt) BitAnd(o *BigInt) *BigInt { return &BigInt{v: *new(big.Int).And(&b.v, &o.v)} }
func (b *BigInt) BitOr(o *BigInt) *BigInt  { return &BigInt{v: *new(big.Int).Or(&b.v, &o.v)} }
func (b *BigInt) BitXor(o *BigInt) *BigInt { return &BigInt{v: *new(big.Int).Xor(&b.v, &o.v)} }
func (b *BigInt) BitNot() *BigInt          { return &BigInt{v: *new(big.Int).Not(&b.v)} }

// Shl/Shr implement BigInt << and >>. A negative count shifts the other
// way (x << -n is x >> n, as ECMAScript defines); a count outside
// ±2^20, or outside int64, is rejected with errShiftOutOfRange.
func (b *BigInt) Shl(count *BigInt) (*BigInt, error) {
	n, ok := shiftCount(count)
	if !ok {
		return nil, errShiftOutOfRange
	}
	if n < 0 {
		return b.shiftRight(uint(-n)), nil
	}
	return &BigInt{v: *new(big.Int).Lsh(&b.v, uint(n))}, nil
}

func (b *BigInt) Shr(count *BigInt) (*BigInt, error) {
	n, ok := shiftCount(count)
	if !ok {
		return nil, errShiftOutOfRange
	}
	if n < 0 {
		return &BigInt{v: *new(big.Int).Lsh(&b.v, uint(-n))}, nil
	}
	return b.shiftRight(uint(n)), nil
}

func (b *BigInt) shiftRight(n uint) *BigInt {
	// big.Int.Rsh is an arithmetic shift for negative receivers
	// already (two's-complement semantics), matching ECMAScript's
	// BigInt >> operator.
	return &BigInt{v: *new(big.Int).Rsh(&b.v, n)}
}

func shiftCount(count *BigInt) (int64, bool) {
	if !count.v.IsInt64() {
		return 0, false
	}
	n := count.v.Int64()
	if n > 1<<20 || n < -(1<<20) {
		return 0, false // reject absurd shift counts rather than hang allocating
	}
	return n, true
}

type bigIntError string

func (e bigIntError) Error() string { return string(e) }

const (
	errDivideByZero    = bigIntError("Division by zero")
	errShiftOutOfRange = bigIntError("BigInt shift amount out of range")
)
