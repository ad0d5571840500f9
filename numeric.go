package formulas

import (
	"cmp"
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// NumericalOperations supplies arithmetic over a numeric representation T.
// Every stage of compilation and evaluation is parameterized by one.
//
// Implementations must treat their arguments as immutable: results are always
// new values, so a T held by a tree node may be shared between evaluations.
type NumericalOperations[T any] interface {
	// Zero and One are the additive and multiplicative identities. They are
	// also the false and true results of comparisons and boolean operators.
	Zero() T
	One() T
	// FromInt converts an integer literal.
	FromInt(n int64) T
	// FromFloat64 and Float64 convert to and from float64, for functions that
	// have no exact implementation in T.
	FromFloat64(f float64) T
	Float64(x T) float64

	Add(x, y T) T
	Subtract(x, y T) T
	Multiply(x, y T) T
	Negate(x T) T
	Divide(x, y T) (T, error)
	Modulo(x, y T) (T, error)
	Pow(x, y T) (T, error)

	// Compare returns -1, 0, or +1 as x is less than, equal to, or greater
	// than y. ok is false if x and y are unordered, as when either is a NaN,
	// in which case every ordering comparison between them is false.
	Compare(x, y T) (c int, ok bool)
	// Equal reports whether x and y are the same number.
	Equal(x, y T) bool

	// ParseFloat parses a floating-point literal which uses decimal as its
	// decimal separator.
	ParseFloat(s string, decimal rune) (T, error)
}

// ExactMath may be implemented by NumericalOperations which can compute
// these functions in T without converting through float64. The default
// functions use it when it is available.
type ExactMath[T any] interface {
	Sqrt(x T) (T, error)
	Exp(x T) T
	// Log is the natural logarithm.
	Log(x T) (T, error)
	Pi() T
	// Trunc rounds toward zero.
	Trunc(x T) T
}

// Float64Ops implements NumericalOperations for float64 with IEEE 754
// semantics. Division by zero gives an infinity rather than an error.
type Float64Ops struct{}

var (
	_ NumericalOperations[float64] = Float64Ops{}
	_ ExactMath[float64]           = Float64Ops{}
)

func (Float64Ops) Zero() float64                 { return 0 }
func (Float64Ops) One() float64                  { return 1 }
func (Float64Ops) FromInt(n int64) float64       { return float64(n) }
func (Float64Ops) FromFloat64(f float64) float64 { return f }
func (Float64Ops) Float64(x float64) float64     { return x }
func (Float64Ops) Add(x, y float64) float64      { return x + y }
func (Float64Ops) Subtract(x, y float64) float64 { return x - y }
func (Float64Ops) Multiply(x, y float64) float64 { return x * y }
func (Float64Ops) Negate(x float64) float64      { return -x }
func (Float64Ops) Equal(x, y float64) bool       { return x == y }

func (Float64Ops) Divide(x, y float64) (float64, error) {
	return x / y, nil
}

func (Float64Ops) Modulo(x, y float64) (float64, error) {
	return math.Mod(x, y), nil
}

func (Float64Ops) Pow(x, y float64) (float64, error) {
	return math.Pow(x, y), nil
}

func (Float64Ops) Compare(x, y float64) (int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	return cmp.Compare(x, y), true
}

func (Float64Ops) Sqrt(x float64) (float64, error) { return math.Sqrt(x), nil }
func (Float64Ops) Exp(x float64) float64           { return math.Exp(x) }
func (Float64Ops) Log(x float64) (float64, error)  { return math.Log(x), nil }
func (Float64Ops) Pi() float64                     { return math.Pi }
func (Float64Ops) Trunc(x float64) float64         { return math.Trunc(x) }

func (Float64Ops) ParseFloat(s string, decimal rune) (float64, error) {
	s = normalizeDecimal(s, decimal)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range literals become infinities.
		if errors.Is(err, strconv.ErrRange) {
			return f, nil
		}
		return 0, err
	}
	return f, nil
}

// DefaultPrec is the precision of BigFloatOps when none is given.
const DefaultPrec = 64

// BigFloatOps implements NumericalOperations for arbitrary-precision
// *big.Float values. Operations that would produce NaN, such as 0/0, fail with
// a *DomainError.
type BigFloatOps struct {
	// Prec is the precision in bits of results. If zero, DefaultPrec is used.
	Prec uint
}

var (
	_ NumericalOperations[*big.Float] = BigFloatOps{}
	_ ExactMath[*big.Float]           = BigFloatOps{}
)

func (o BigFloatOps) prec() uint {
	if o.Prec == 0 {
		return DefaultPrec
	}
	return o.Prec
}

func (o BigFloatOps) new() *big.Float {
	return new(big.Float).SetPrec(o.prec())
}

func (o BigFloatOps) Zero() *big.Float { return o.new() }

func (o BigFloatOps) One() *big.Float { return o.new().SetInt64(1) }

func (o BigFloatOps) FromInt(n int64) *big.Float { return o.new().SetInt64(n) }

// FromFloat64 converts f. Like big.Float.SetFloat64, it panics with
// big.ErrNaN if f is NaN.
func (o BigFloatOps) FromFloat64(f float64) *big.Float {
	return o.new().SetFloat64(f)
}

func (o BigFloatOps) Float64(x *big.Float) float64 {
	f, _ := x.Float64()
	return f
}

func (o BigFloatOps) Add(x, y *big.Float) *big.Float      { return o.new().Add(x, y) }
func (o BigFloatOps) Subtract(x, y *big.Float) *big.Float { return o.new().Sub(x, y) }
func (o BigFloatOps) Multiply(x, y *big.Float) *big.Float { return o.new().Mul(x, y) }
func (o BigFloatOps) Negate(x *big.Float) *big.Float      { return o.new().Neg(x) }
func (o BigFloatOps) Compare(x, y *big.Float) (int, bool) { return x.Cmp(y), true }
func (o BigFloatOps) Equal(x, y *big.Float) bool          { return x.Cmp(y) == 0 }

func (o BigFloatOps) Divide(x, y *big.Float) (*big.Float, error) {
	// Guard against invalid divisions, 0/0 or inf/inf.
	if x.Sign() == 0 && y.Sign() == 0 || x.IsInf() && y.IsInf() {
		return nil, &DomainError{X: y, Arg: 2, Func: "/"}
	}
	return o.new().Quo(x, y), nil
}

// Modulo computes x - y*trunc(x/y), which has the sign of x like math.Mod.
func (o BigFloatOps) Modulo(x, y *big.Float) (*big.Float, error) {
	if y.Sign() == 0 || x.IsInf() {
		return nil, &DomainError{X: y, Arg: 2, Func: "%"}
	}
	if y.IsInf() {
		return o.new().Set(x), nil
	}
	q := new(big.Float).SetPrec(o.prec() + 64).Quo(x, y)
	if q.IsInf() {
		return nil, &DomainError{X: y, Arg: 2, Func: "%"}
	}
	i, _ := q.Int(nil)
	q.SetInt(i)
	q.Mul(q, y)
	return o.new().Sub(x, q), nil
}

// Pow computes x^y. Integer exponents are computed exactly by repeated
// squaring, and negative bases are allowed only with integer exponents.
func (o BigFloatOps) Pow(x, y *big.Float) (*big.Float, error) {
	switch {
	case y.Sign() == 0:
		return o.One(), nil
	case x.Sign() == 0:
		if y.Sign() < 0 {
			return o.new().SetInf(false), nil
		}
		return o.new(), nil
	case x.IsInf():
		if x.Signbit() && !y.IsInt() {
			return nil, &DomainError{X: x, Arg: 1, Func: "^"}
		}
		if y.Sign() < 0 {
			return o.new(), nil
		}
		return o.new().SetInf(x.Signbit() && oddInt(y)), nil
	case y.IsInt() && !y.IsInf():
		if n, acc := y.Int64(); acc == big.Exact {
			return o.powInt(x, n), nil
		}
	case x.Cmp(big.NewFloat(1)) == 0:
		// 1^inf is 1, but bigfloat would multiply inf by log(1) = 0.
		return o.One(), nil
	}
	if x.Signbit() {
		if !y.IsInt() {
			return nil, &DomainError{X: x, Arg: 1, Func: "^"}
		}
		// Negative base with a huge integer exponent: compute |x|^y and fix
		// the sign from the parity of y.
		r := o.new().Set(bigfloat.Pow(o.new(), new(big.Float).Abs(x), y))
		if oddInt(y) {
			r.Neg(r)
		}
		return r, nil
	}
	// bigfloat.Pow doesn't always return its first argument.
	return o.new().Set(bigfloat.Pow(o.new(), x, y)), nil
}

// oddInt reports whether y is an odd integer.
func oddInt(y *big.Float) bool {
	if y.IsInf() || !y.IsInt() {
		return false
	}
	i, _ := y.Int(nil)
	return i.Bit(0) == 1
}

func (o BigFloatOps) powInt(x *big.Float, n int64) *big.Float {
	u := uint64(n)
	if n < 0 {
		u = -u
	}
	p := o.prec() + 64
	r := new(big.Float).SetPrec(p).SetInt64(1)
	b := new(big.Float).SetPrec(p).Set(x)
	for u > 0 {
		if u&1 == 1 {
			r.Mul(r, b)
		}
		b.Mul(b, b)
		u >>= 1
	}
	if n < 0 {
		r.Quo(new(big.Float).SetPrec(p).SetInt64(1), r)
	}
	return o.new().Set(r)
}

func (o BigFloatOps) Sqrt(x *big.Float) (*big.Float, error) {
	switch {
	case x.Sign() < 0:
		return nil, &DomainError{X: x, Arg: 1, Func: "sqrt"}
	case x.Sign() == 0:
		// Keeps the sign of -0, as math.Sqrt does.
		return o.new().Set(x), nil
	}
	return o.new().Sqrt(x), nil
}

func (o BigFloatOps) Exp(x *big.Float) *big.Float {
	return bigfloat.Exp(o.new(), x)
}

func (o BigFloatOps) Log(x *big.Float) (*big.Float, error) {
	switch x.Sign() {
	case -1:
		return nil, &DomainError{X: x, Arg: 1, Func: "log"}
	case 0:
		// bigfloat panics on -0.
		return o.new().SetInf(true), nil
	}
	return bigfloat.Log(o.new(), x), nil
}

func (o BigFloatOps) Pi() *big.Float {
	return bigfloat.Pi(o.new())
}

func (o BigFloatOps) Trunc(x *big.Float) *big.Float {
	if x.IsInf() || x.IsInt() {
		return o.new().Set(x)
	}
	i, _ := x.Int(nil)
	return o.new().SetInt(i)
}

func (o BigFloatOps) ParseFloat(s string, decimal rune) (*big.Float, error) {
	s = normalizeDecimal(s, decimal)
	r, _, err := o.new().Parse(s, 10)
	switch {
	case err == nil:
		return r, nil
	case err.Error() == "exponent overflow",
		strings.HasSuffix(err.Error(), ": value out of range"):
		// There isn't realistically any better way to detect this error.
		return o.new().SetInf(strings.HasPrefix(s, "-")), nil
	default:
		return nil, err
	}
}

// normalizeDecimal rewrites a literal using decimal as its separator into the
// form strconv and math/big understand.
func normalizeDecimal(s string, decimal rune) string {
	if decimal == '.' || decimal == 0 {
		return s
	}
	if strings.ContainsRune(s, '.') {
		// A '.' in a non-'.' locale is not a decimal point. Keep it so that
		// parsing fails as it should.
		s = strings.ReplaceAll(s, ".", "\x00")
	}
	return strings.ReplaceAll(s, string(decimal), ".")
}
