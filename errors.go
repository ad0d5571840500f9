package formulas

import (
	"errors"
	"fmt"
	"strconv"
)

// ParseError indicates a formula that could not be read or built. It
// implements InputError.
type ParseError struct {
	// Col is the 0-based rune offset of the offending token, or the length of
	// the formula if the formula ended too early.
	Col int
	// Len is the number of runes in the offending token. It may be zero.
	Len int
	// Text is the offending token, if there was one.
	Text string
	// Reason describes the problem.
	Reason string
}

func (err *ParseError) Error() string {
	if err.Text == "" {
		return errpos(err.Col, err.Reason)
	}
	return errpos(err.Col, err.Reason+" "+strconv.Quote(err.Text))
}

func (err *ParseError) Pos() int {
	return err.Col
}

// InputError is an error with position information. Every error resulting from
// invalid formula text implements InputError.
type InputError interface {
	error
	// Pos returns the 0-based rune offset of the token that caused the error.
	Pos() int
}

var _ InputError = (*ParseError)(nil)

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// Sentinel causes of evaluation errors. Use errors.Is to test for them.
var (
	// ErrUnboundVariable means a variable had no binding and no constant of
	// the same name exists.
	ErrUnboundVariable = errors.New("undefined variable")
	// ErrUnknownFunction means a formula called a function missing from the
	// function registry used for evaluation.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrArity means a function was called with a number of arguments it does
	// not accept.
	ErrArity = errors.New("wrong number of arguments")
	// ErrConstantOverwrite means a variable binding tried to replace a
	// constant which is not overwritable.
	ErrConstantOverwrite = errors.New("cannot overwrite constant")
)

// EvaluationError indicates that a formula could not be evaluated.
type EvaluationError struct {
	// Name is the variable or function involved, if any.
	Name string
	// Err is the cause. It is one of the sentinel errors, a *DomainError, or an
	// error returned by a registered function.
	Err error
}

func (err *EvaluationError) Error() string {
	if err.Name == "" {
		return "evaluation failed: " + err.Err.Error()
	}
	return err.Err.Error() + ": " + strconv.Quote(err.Name)
}

func (err *EvaluationError) Unwrap() error {
	return err.Err
}

// DomainError is returned when an operation or function is applied to
// arguments outside its domain.
type DomainError struct {
	// X is the out-of-domain argument.
	X any
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function or operator.
	Func string
}

func (err *DomainError) Error() string {
	r := fmt.Sprint(err.X) + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}
