package formulas

// Optimizer folds constant subtrees of operation trees.
type Optimizer[T any] struct {
	exec Executor[T]
	ops  NumericalOperations[T]
}

// NewOptimizer creates an optimizer which uses exec to evaluate constant
// subtrees.
func NewOptimizer[T any](exec Executor[T], ops NumericalOperations[T]) *Optimizer[T] {
	return &Optimizer[T]{exec: exec, ops: ops}
}

// Optimize rewrites the tree rooted at n and returns the new root. The tree is
// modified in place, so the caller must use only the returned root afterward
// and must not optimize a tree that is being evaluated concurrently.
//
// Every idempotent subtree which does not depend on variables is replaced by a
// KindFloat literal of its value. Multiplication by a literal zero becomes
// zero, and && and || with a literal operand which decides the result become
// that result, even when the other operand depends on variables or is not
// idempotent. Subtrees whose evaluation fails are kept so that evaluation
// reports the failure.
func (o *Optimizer[T]) Optimize(n *Node[T], funcs *FunctionRegistry[T], consts *ConstantRegistry[T]) *Node[T] {
	if r, ok := o.fold(n, funcs, consts); ok {
		return r
	}
	switch n.kind {
	case KindInteger, KindFloat, KindVariable:
		return n
	case KindNegation:
		n.left = o.Optimize(n.left, funcs, consts)
	case KindMultiplication:
		n.left = o.Optimize(n.left, funcs, consts)
		n.right = o.Optimize(n.right, funcs, consts)
		if o.isZero(n.left) || o.isZero(n.right) {
			return FloatNode(o.ops.Zero())
		}
	case KindAnd:
		n.left = o.Optimize(n.left, funcs, consts)
		if o.isZero(n.left) {
			return FloatNode(o.ops.Zero())
		}
		n.right = o.Optimize(n.right, funcs, consts)
		if o.isZero(n.right) {
			return FloatNode(o.ops.Zero())
		}
	case KindOr:
		n.left = o.Optimize(n.left, funcs, consts)
		if o.isOne(n.left) {
			return FloatNode(o.ops.One())
		}
		n.right = o.Optimize(n.right, funcs, consts)
		if o.isOne(n.right) {
			return FloatNode(o.ops.One())
		}
	case KindFunction:
		for i, a := range n.args {
			n.args[i] = o.Optimize(a, funcs, consts)
		}
	default:
		if !n.kind.Binary() {
			panic("formulas: invalid node kind " + n.kind.String())
		}
		n.left = o.Optimize(n.left, funcs, consts)
		n.right = o.Optimize(n.right, funcs, consts)
	}
	// Children may have folded away the only variables or non-idempotent
	// calls, in which case the node itself is now constant.
	wasConst := !n.vars && n.idem
	n.refresh()
	if !wasConst {
		if r, ok := o.fold(n, funcs, consts); ok {
			return r
		}
	}
	return n
}

// fold evaluates n if it is a non-literal constant subtree.
func (o *Optimizer[T]) fold(n *Node[T], funcs *FunctionRegistry[T], consts *ConstantRegistry[T]) (*Node[T], bool) {
	if n.vars || !n.idem || n.IsLiteral() {
		return nil, false
	}
	r, err := o.exec.Execute(n, funcs, consts, nil)
	if err != nil {
		return nil, false
	}
	return FloatNode(r), true
}

// isZero reports whether n is a literal equal to zero.
func (o *Optimizer[T]) isZero(n *Node[T]) bool {
	switch n.kind {
	case KindInteger:
		return n.ival == 0
	case KindFloat:
		return o.ops.Equal(n.fval, o.ops.Zero())
	}
	return false
}

// isOne reports whether n is a literal equal to one.
func (o *Optimizer[T]) isOne(n *Node[T]) bool {
	switch n.kind {
	case KindInteger:
		return n.ival == 1
	case KindFloat:
		return o.ops.Equal(n.fval, o.ops.One())
	}
	return false
}
