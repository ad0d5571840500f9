package formulas

import (
	"errors"
	"math/big"
)

// Executor evaluates operation trees.
//
// An Executor must not modify the tree it evaluates, so that one optimized tree
// can be evaluated concurrently with different variables.
type Executor[T any] interface {
	// Execute evaluates the tree rooted at n. Variables are resolved against
	// vars and then consts, either of which may be nil; binding a variable
	// with the name of a constant which is not overwritable is an error.
	// Function calls are resolved against funcs. Errors are *EvaluationError.
	Execute(n *Node[T], funcs *FunctionRegistry[T], consts *ConstantRegistry[T], vars map[string]T) (T, error)
}

// Interpreter is an Executor that walks the tree recursively. It is safe for
// concurrent use.
type Interpreter[T any] struct {
	ops NumericalOperations[T]
}

var _ Executor[float64] = (*Interpreter[float64])(nil)

// NewInterpreter creates an interpreter computing with ops.
func NewInterpreter[T any](ops NumericalOperations[T]) *Interpreter[T] {
	return &Interpreter[T]{ops: ops}
}

// Execute evaluates the tree rooted at n. The result may share memory with
// literals in the tree and must be copied before it is modified in place.
func (in *Interpreter[T]) Execute(n *Node[T], funcs *FunctionRegistry[T], consts *ConstantRegistry[T], vars map[string]T) (r T, err error) {
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		// big.Float panics with ErrNaN for operations like Inf-Inf.
		var nan big.ErrNaN
		if e, ok := x.(error); ok && errors.As(e, &nan) {
			var zero T
			r, err = zero, &EvaluationError{Err: nan}
			return
		}
		panic(x)
	}()
	ev := evaluation[T]{ops: in.ops, funcs: funcs, consts: consts, vars: vars}
	return ev.eval(n)
}

// evaluation holds the environment of one call to Execute.
type evaluation[T any] struct {
	ops    NumericalOperations[T]
	funcs  *FunctionRegistry[T]
	consts *ConstantRegistry[T]
	vars   map[string]T
}

// eval computes the value of a node.
func (ev *evaluation[T]) eval(n *Node[T]) (T, error) {
	var zero T
	ops := ev.ops
	switch n.kind {
	case KindInteger:
		return ops.FromInt(n.ival), nil
	case KindFloat:
		return n.fval, nil
	case KindVariable:
		return ev.lookup(n.name)
	case KindFunction:
		return ev.call(n)
	case KindNegation:
		x, err := ev.eval(n.left)
		if err != nil {
			return zero, err
		}
		return ops.Negate(x), nil
	case KindAnd:
		x, err := ev.eval(n.left)
		if err != nil {
			return zero, err
		}
		if ops.Equal(x, ops.Zero()) {
			return ops.Zero(), nil
		}
		y, err := ev.eval(n.right)
		if err != nil {
			return zero, err
		}
		return ev.truth(!ops.Equal(y, ops.Zero())), nil
	case KindOr:
		x, err := ev.eval(n.left)
		if err != nil {
			return zero, err
		}
		if !ops.Equal(x, ops.Zero()) {
			return ops.One(), nil
		}
		y, err := ev.eval(n.right)
		if err != nil {
			return zero, err
		}
		return ev.truth(!ops.Equal(y, ops.Zero())), nil
	}

	if !n.kind.Binary() {
		panic("formulas: invalid node kind " + n.kind.String())
	}
	x, err := ev.eval(n.left)
	if err != nil {
		return zero, err
	}
	y, err := ev.eval(n.right)
	if err != nil {
		return zero, err
	}
	switch n.kind {
	case KindAddition:
		return ops.Add(x, y), nil
	case KindSubtraction:
		return ops.Subtract(x, y), nil
	case KindMultiplication:
		return ops.Multiply(x, y), nil
	case KindDivision:
		return wrapDomain(ops.Divide(x, y))
	case KindModulo:
		return wrapDomain(ops.Modulo(x, y))
	case KindExponentiation:
		return wrapDomain(ops.Pow(x, y))
	case KindGreaterThan:
		c, ok := ops.Compare(x, y)
		return ev.truth(ok && c > 0), nil
	case KindGreaterOrEqual:
		c, ok := ops.Compare(x, y)
		return ev.truth(ok && c >= 0), nil
	case KindLessThan:
		c, ok := ops.Compare(x, y)
		return ev.truth(ok && c < 0), nil
	case KindLessOrEqual:
		c, ok := ops.Compare(x, y)
		return ev.truth(ok && c <= 0), nil
	case KindEqual:
		return ev.truth(ops.Equal(x, y)), nil
	case KindNotEqual:
		return ev.truth(!ops.Equal(x, y)), nil
	default:
		panic("formulas: invalid AST node " + n.kind.String())
	}
}

// lookup resolves a variable. Constants which are not overwritable take
// precedence over bindings of the same name, and binding one is an error.
func (ev *evaluation[T]) lookup(name string) (T, error) {
	c, isConst := ev.consts.Lookup(name)
	v, isVar := ev.vars[name]
	switch {
	case isConst && !c.Overwritable && isVar:
		var zero T
		return zero, &EvaluationError{Name: name, Err: ErrConstantOverwrite}
	case isVar:
		return v, nil
	case isConst:
		return c.Value, nil
	default:
		var zero T
		return zero, &EvaluationError{Name: name, Err: ErrUnboundVariable}
	}
}

// call evaluates the arguments of a function node and then calls it.
func (ev *evaluation[T]) call(n *Node[T]) (T, error) {
	var zero T
	fn, ok := ev.funcs.Lookup(n.name)
	if !ok {
		return zero, &EvaluationError{Name: n.name, Err: ErrUnknownFunction}
	}
	if !fn.Arity.Accepts(len(n.args)) {
		return zero, &EvaluationError{Name: n.name, Err: ErrArity}
	}
	args := make([]T, len(n.args))
	for i, a := range n.args {
		x, err := ev.eval(a)
		if err != nil {
			return zero, err
		}
		args[i] = x
	}
	r, err := fn.Call(args)
	if err != nil {
		var ee *EvaluationError
		if errors.As(err, &ee) {
			return zero, err
		}
		return zero, &EvaluationError{Name: n.name, Err: err}
	}
	return r, nil
}

func (ev *evaluation[T]) truth(b bool) T {
	if b {
		return ev.ops.One()
	}
	return ev.ops.Zero()
}

// wrapDomain converts an error from a numeric operation to an
// *EvaluationError.
func wrapDomain[T any](r T, err error) (T, error) {
	if err != nil {
		return r, &EvaluationError{Err: err}
	}
	return r, nil
}
