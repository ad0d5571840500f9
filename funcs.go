package formulas

import (
	"errors"
	"math"
	"math/big"
	"math/rand/v2"
	"slices"
)

// RegisterDefaultFunctions adds the standard functions to funcs:
//
//	sin cos tan csc sec cot asin acos atan acot
//	loge log10 logn(x, base) sqrt abs
//	ceiling floor truncate round
//	if(cond, then, else)
//	ifless(a, b, then, else) ifmore(a, b, then, else) ifequal(a, b, then, else)
//	max min avg median sum (one or more arguments)
//	random() (uniform in [0, 1), not idempotent)
//
// Trigonometric functions compute through float64. The others are exact in T
// when ops implements ExactMath.
func RegisterDefaultFunctions[T any](funcs *FunctionRegistry[T], ops NumericalOperations[T]) error {
	lib := library[T]{ops: ops}
	lib.exact, _ = ops.(ExactMath[T])
	for _, f := range lib.functions() {
		if err := funcs.Register(f.Name, f.Arity, f.Idempotent, f.Call); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefaultConstants adds e and pi to consts. Neither is overwritable.
func RegisterDefaultConstants[T any](consts *ConstantRegistry[T], ops NumericalOperations[T]) error {
	e, pi := ops.FromFloat64(math.E), ops.FromFloat64(math.Pi)
	if x, ok := ops.(ExactMath[T]); ok {
		e, pi = x.Exp(ops.One()), x.Pi()
	}
	if err := consts.Register("e", e, false); err != nil {
		return err
	}
	return consts.Register("pi", pi, false)
}

// library builds the default functions for one numeric type.
type library[T any] struct {
	ops   NumericalOperations[T]
	exact ExactMath[T]
}

func (l library[T]) functions() []FunctionInfo[T] {
	return []FunctionInfo[T]{
		{Name: "sin", Arity: 1, Idempotent: true, Call: l.float("sin", math.Sin)},
		{Name: "cos", Arity: 1, Idempotent: true, Call: l.float("cos", math.Cos)},
		{Name: "tan", Arity: 1, Idempotent: true, Call: l.float("tan", math.Tan)},
		{Name: "csc", Arity: 1, Idempotent: true, Call: l.float("csc", func(x float64) float64 { return 1 / math.Sin(x) })},
		{Name: "sec", Arity: 1, Idempotent: true, Call: l.float("sec", func(x float64) float64 { return 1 / math.Cos(x) })},
		{Name: "cot", Arity: 1, Idempotent: true, Call: l.float("cot", func(x float64) float64 { return 1 / math.Tan(x) })},
		{Name: "asin", Arity: 1, Idempotent: true, Call: l.float("asin", math.Asin)},
		{Name: "acos", Arity: 1, Idempotent: true, Call: l.float("acos", math.Acos)},
		{Name: "atan", Arity: 1, Idempotent: true, Call: l.float("atan", math.Atan)},
		{Name: "acot", Arity: 1, Idempotent: true, Call: l.float("acot", func(x float64) float64 { return math.Atan(1 / x) })},

		{Name: "loge", Arity: 1, Idempotent: true, Call: l.loge},
		{Name: "log10", Arity: 1, Idempotent: true, Call: l.log10},
		{Name: "logn", Arity: 2, Idempotent: true, Call: l.logn},
		{Name: "sqrt", Arity: 1, Idempotent: true, Call: l.sqrt},
		{Name: "abs", Arity: 1, Idempotent: true, Call: l.abs},

		{Name: "truncate", Arity: 1, Idempotent: true, Call: l.rounding("truncate", math.Trunc, l.trunc)},
		{Name: "floor", Arity: 1, Idempotent: true, Call: l.rounding("floor", math.Floor, l.floor)},
		{Name: "ceiling", Arity: 1, Idempotent: true, Call: l.rounding("ceiling", math.Ceil, l.ceil)},
		{Name: "round", Arity: 1, Idempotent: true, Call: l.rounding("round", math.RoundToEven, l.round)},

		{Name: "if", Arity: 3, Idempotent: true, Call: l.ifelse},
		{Name: "ifless", Arity: 4, Idempotent: true, Call: l.compare(func(c int) bool { return c < 0 })},
		{Name: "ifmore", Arity: 4, Idempotent: true, Call: l.compare(func(c int) bool { return c > 0 })},
		{Name: "ifequal", Arity: 4, Idempotent: true, Call: l.ifequal},

		{Name: "max", Arity: Variadic, Idempotent: true, Call: l.extreme(1)},
		{Name: "min", Arity: Variadic, Idempotent: true, Call: l.extreme(-1)},
		{Name: "sum", Arity: Variadic, Idempotent: true, Call: l.sum},
		{Name: "avg", Arity: Variadic, Idempotent: true, Call: l.avg},
		{Name: "median", Arity: Variadic, Idempotent: true, Call: l.median},

		{Name: "random", Arity: 0, Idempotent: false, Call: l.random},
	}
}

// float wraps a function of one float64 into a Func. NaN results which T
// cannot represent become domain errors.
func (l library[T]) float(name string, f func(float64) float64) Func[T] {
	return func(args []T) (r T, err error) {
		defer func() {
			x := recover()
			if x == nil {
				return
			}
			if e, ok := x.(error); ok && errors.As(e, new(big.ErrNaN)) {
				var zero T
				r, err = zero, &DomainError{X: args[0], Arg: 1, Func: name}
				return
			}
			panic(x)
		}()
		return l.ops.FromFloat64(f(l.ops.Float64(args[0]))), nil
	}
}

func (l library[T]) loge(args []T) (T, error) {
	if l.exact == nil {
		return l.float("loge", math.Log)(args)
	}
	return l.exact.Log(args[0])
}

func (l library[T]) log10(args []T) (T, error) {
	if l.exact == nil {
		return l.float("log10", math.Log10)(args)
	}
	return l.logbase(args[0], l.ops.FromInt(10))
}

func (l library[T]) logn(args []T) (T, error) {
	if l.exact == nil {
		f := func(x float64) float64 { return math.Log(x) / math.Log(l.ops.Float64(args[1])) }
		return l.float("logn", f)(args)
	}
	return l.logbase(args[0], args[1])
}

// logbase computes the logarithm of x in the given base using exact math.
func (l library[T]) logbase(x, base T) (T, error) {
	var zero T
	n, err := l.exact.Log(x)
	if err != nil {
		return zero, err
	}
	d, err := l.exact.Log(base)
	if err != nil {
		return zero, err
	}
	return l.ops.Divide(n, d)
}

func (l library[T]) sqrt(args []T) (T, error) {
	if l.exact == nil {
		return l.float("sqrt", math.Sqrt)(args)
	}
	return l.exact.Sqrt(args[0])
}

func (l library[T]) abs(args []T) (T, error) {
	if l.less(args[0], l.ops.Zero()) {
		return l.ops.Negate(args[0]), nil
	}
	return args[0], nil
}

// rounding selects the exact implementation of a rounding function when one
// is available.
func (l library[T]) rounding(name string, f func(float64) float64, exact func(T) T) Func[T] {
	if l.exact == nil {
		return l.float(name, f)
	}
	return func(args []T) (T, error) {
		return exact(args[0]), nil
	}
}

func (l library[T]) trunc(x T) T {
	return l.exact.Trunc(x)
}

func (l library[T]) floor(x T) T {
	t := l.exact.Trunc(x)
	if l.less(x, t) {
		return l.ops.Subtract(t, l.ops.One())
	}
	return t
}

func (l library[T]) ceil(x T) T {
	t := l.exact.Trunc(x)
	if l.less(t, x) {
		return l.ops.Add(t, l.ops.One())
	}
	return t
}

// round rounds half to even.
func (l library[T]) round(x T) T {
	ops := l.ops
	if ops.Equal(x, l.exact.Trunc(x)) {
		// Integers and infinities.
		return x
	}
	f := l.floor(x)
	half, _ := ops.Divide(ops.One(), ops.FromInt(2))
	switch c, ok := ops.Compare(ops.Subtract(x, f), half); {
	case !ok, c < 0:
		return f
	case c > 0:
		return ops.Add(f, ops.One())
	}
	q, _ := ops.Divide(f, ops.FromInt(2))
	if ops.Equal(l.exact.Trunc(q), q) {
		return f
	}
	return ops.Add(f, ops.One())
}

func (l library[T]) ifelse(args []T) (T, error) {
	if !l.ops.Equal(args[0], l.ops.Zero()) {
		return args[1], nil
	}
	return args[2], nil
}

// compare returns a function choosing its third argument if pred holds for
// the comparison of its first two and its fourth otherwise. Unordered
// arguments choose the fourth.
func (l library[T]) compare(pred func(int) bool) Func[T] {
	return func(args []T) (T, error) {
		if c, ok := l.ops.Compare(args[0], args[1]); ok && pred(c) {
			return args[2], nil
		}
		return args[3], nil
	}
}

func (l library[T]) ifequal(args []T) (T, error) {
	if l.ops.Equal(args[0], args[1]) {
		return args[2], nil
	}
	return args[3], nil
}

// extreme returns a function selecting the greatest argument when sign is 1
// or the least when it is -1. If any argument is a NaN, the result is NaN.
func (l library[T]) extreme(sign int) Func[T] {
	return func(args []T) (T, error) {
		if x, ok := l.nan(args); ok {
			return x, nil
		}
		r := args[0]
		for _, x := range args[1:] {
			if c, _ := l.ops.Compare(x, r); c*sign > 0 {
				r = x
			}
		}
		return r, nil
	}
}

func (l library[T]) sum(args []T) (T, error) {
	r := l.ops.Zero()
	for _, x := range args {
		r = l.ops.Add(r, x)
	}
	return r, nil
}

func (l library[T]) avg(args []T) (T, error) {
	s, _ := l.sum(args)
	return l.ops.Divide(s, l.ops.FromInt(int64(len(args))))
}

// median returns the middle argument, or the mean of the two middle arguments
// when there is an even number of them.
func (l library[T]) median(args []T) (T, error) {
	if x, ok := l.nan(args); ok {
		return x, nil
	}
	s := slices.Clone(args)
	slices.SortFunc(s, func(x, y T) int {
		c, _ := l.ops.Compare(x, y)
		return c
	})
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m], nil
	}
	return l.avg(s[m-1 : m+1])
}

// less reports whether x is ordered before y.
func (l library[T]) less(x, y T) bool {
	c, ok := l.ops.Compare(x, y)
	return ok && c < 0
}

// nan returns the first argument which is unordered with itself.
func (l library[T]) nan(args []T) (T, bool) {
	for _, x := range args {
		if _, ok := l.ops.Compare(x, x); !ok {
			return x, true
		}
	}
	var zero T
	return zero, false
}

func (l library[T]) random(args []T) (T, error) {
	return l.ops.FromFloat64(rand.Float64()), nil
}
