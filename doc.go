// Package formulas reads and evaluates mathematical formulas over a generic
// numeric type.
//
// A formula such as "2 * x^2 + max(y, 3) >= 10 && z != 0" passes through a
// pipeline: a Reader turns the text into tokens, Build turns the tokens into an
// operation tree of Nodes, an Optimizer folds the constant parts of the tree,
// and an Executor evaluates the tree with variable bindings. Engine wraps the
// whole pipeline with default functions and constants and a cache of compiled
// formulas, so that the same formula can be evaluated cheaply for many sets of
// variables.
//
// Numbers are any type with a NumericalOperations implementation. Float64Ops
// computes with float64, and BigFloatOps computes with *big.Float at any
// precision.
//
// Operators from most to least binding are unary minus, ^ (right-associative),
// * / %, + -, the comparisons < <= > >= == !=, &&, and ||. Comparisons and
// boolean operators give 1 for true and 0 for false, and any nonzero operand
// is true.
package formulas
