package formulas

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Node is a node in the operation tree of a formula.
//
// Each node caches whether its subtree refers to a variable and whether it is
// idempotent, i.e. whether evaluating it twice with the same bindings always
// gives the same result. Both are computed when the node is constructed.
type Node[T any] struct {
	kind Kind

	ival int64
	fval T
	name string

	left  *Node[T]
	right *Node[T]
	args  []*Node[T]

	vars bool
	idem bool
	// fnidem is whether the called function itself is idempotent.
	fnidem bool
}

// Kind is the operation a node performs.
type Kind int8

const (
	KindNone Kind = iota

	KindInteger  // integer literal
	KindFloat    // literal of the numeric type
	KindVariable // lookup(name)
	KindFunction // call name with args

	KindNegation       // -left
	KindAddition       // left + right
	KindSubtraction    // left - right
	KindMultiplication // left * right
	KindDivision       // left / right
	KindExponentiation // left ^ right
	KindModulo         // left % right

	KindGreaterThan    // left > right
	KindGreaterOrEqual // left >= right
	KindLessThan       // left < right
	KindLessOrEqual    // left <= right
	KindEqual          // left == right
	KindNotEqual       // left != right

	KindAnd // left && right
	KindOr  // left || right
)

//go:generate stringer -type=Kind -trimprefix=Kind

// IntegerNode creates an integer literal.
func IntegerNode[T any](v int64) *Node[T] {
	return &Node[T]{kind: KindInteger, ival: v, idem: true}
}

// FloatNode creates a literal holding a value of the numeric type.
func FloatNode[T any](v T) *Node[T] {
	return &Node[T]{kind: KindFloat, fval: v, idem: true}
}

// VariableNode creates a reference to a variable.
func VariableNode[T any](name string) *Node[T] {
	return &Node[T]{kind: KindVariable, name: name, vars: true, idem: true}
}

// NegationNode creates the negation of x.
func NegationNode[T any](x *Node[T]) *Node[T] {
	n := &Node[T]{kind: KindNegation, left: x}
	n.refresh()
	return n
}

// BinaryNode creates an arithmetic, comparison, or boolean node. Panics if
// kind is not a binary kind.
func BinaryNode[T any](kind Kind, left, right *Node[T]) *Node[T] {
	if !kind.Binary() {
		panic("formulas: " + kind.String() + " is not a binary operation")
	}
	n := &Node[T]{kind: kind, left: left, right: right}
	n.refresh()
	return n
}

// FunctionNode creates a call of a function. idempotent should come from the
// registry entry for the function.
func FunctionNode[T any](name string, idempotent bool, args ...*Node[T]) *Node[T] {
	n := &Node[T]{kind: KindFunction, name: name, args: args, fnidem: idempotent}
	n.refresh()
	return n
}

// refresh recomputes the cached attributes from the node's children.
func (n *Node[T]) refresh() {
	switch n.kind {
	case KindInteger, KindFloat:
		n.vars, n.idem = false, true
	case KindVariable:
		n.vars, n.idem = true, true
	case KindFunction:
		idem, vars := n.fnidem, false
		for _, a := range n.args {
			vars = vars || a.vars
			idem = idem && a.idem
		}
		n.vars, n.idem = vars, idem
	case KindNegation:
		n.vars, n.idem = n.left.vars, n.left.idem
	default:
		n.vars = n.left.vars || n.right.vars
		n.idem = n.left.idem && n.right.idem
	}
}

// Kind returns the operation the node performs.
func (n *Node[T]) Kind() Kind { return n.kind }

// Int returns the value of a KindInteger node.
func (n *Node[T]) Int() int64 { return n.ival }

// Float returns the value of a KindFloat node.
func (n *Node[T]) Float() T { return n.fval }

// Name returns the name of a KindVariable or KindFunction node.
func (n *Node[T]) Name() string { return n.name }

// Left returns the first operand of a unary or binary node.
func (n *Node[T]) Left() *Node[T] { return n.left }

// Right returns the second operand of a binary node.
func (n *Node[T]) Right() *Node[T] { return n.right }

// Args returns the arguments of a KindFunction node. The slice belongs to the
// node and must not be modified.
func (n *Node[T]) Args() []*Node[T] { return n.args }

// DependsOnVariables reports whether any node in the subtree is a variable.
func (n *Node[T]) DependsOnVariables() bool { return n.vars }

// IsIdempotent reports whether the subtree calls no function which may give
// different results for the same arguments.
func (n *Node[T]) IsIdempotent() bool { return n.idem }

// IsLiteral reports whether the node is an integer or numeric literal.
func (n *Node[T]) IsLiteral() bool {
	return n.kind == KindInteger || n.kind == KindFloat
}

// Binary reports whether nodes of kind k have exactly two operands.
func (k Kind) Binary() bool {
	return KindAddition <= k && k <= KindOr
}

// Symbol returns the operator text for k, or the empty string if k is not an
// operator.
func (k Kind) Symbol() string {
	switch k {
	case KindNegation, KindSubtraction:
		return "-"
	case KindAddition:
		return "+"
	case KindMultiplication:
		return "*"
	case KindDivision:
		return "/"
	case KindExponentiation:
		return "^"
	case KindModulo:
		return "%"
	case KindGreaterThan:
		return ">"
	case KindGreaterOrEqual:
		return ">="
	case KindLessThan:
		return "<"
	case KindLessOrEqual:
		return "<="
	case KindEqual:
		return "=="
	case KindNotEqual:
		return "!="
	case KindAnd:
		return "&&"
	case KindOr:
		return "||"
	default:
		return ""
	}
}

// Vars returns the sorted names of the variables in the tree.
func (n *Node[T]) Vars() []string {
	seen := make(map[string]bool)
	n.walk(func(m *Node[T]) {
		if m.kind == KindVariable {
			seen[m.name] = true
		}
	})
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// walk calls f on every node of the tree in pre-order.
func (n *Node[T]) walk(f func(*Node[T])) {
	f(n)
	if n.left != nil {
		n.left.walk(f)
	}
	if n.right != nil {
		n.right.walk(f)
	}
	for _, a := range n.args {
		a.walk(f)
	}
}

// String formats the tree with alternating round and square brackets grouping
// each term.
func (n *Node[T]) String() string {
	var b strings.Builder
	n.format(&b, false)
	return b.String()
}

func (n *Node[T]) format(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch n.kind {
	case KindInteger:
		b.WriteString(strconv.FormatInt(n.ival, 10))
	case KindFloat:
		fmt.Fprint(b, n.fval)
	case KindVariable:
		b.WriteString(n.name)
	case KindFunction:
		b.WriteString(n.name)
		n.fmtargs(b, !square)
	case KindNegation:
		b.WriteByte('-')
		n.left.format(b, !square)
	default:
		if !n.kind.Binary() {
			panic("formulas: invalid node kind " + n.kind.String() + " after writing " + b.String())
		}
		n.left.format(b, !square)
		b.WriteString(" " + n.kind.Symbol() + " ")
		n.right.format(b, !square)
	}
}

func (n *Node[T]) fmtargs(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	for i, a := range n.args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.format(b, !square)
	}
}
