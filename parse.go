package formulas

import (
	"strconv"
)

// Expr = num | name | Call | Neg | Binary | '(' Expr ')'
// Call = funcname '(' [ Expr { sep Expr } ] ')'
// Neg = '_' Expr
// Binary = Expr op Expr
//
// Operators from most to least binding:
//	_ (unary minus)
//	^ (right-associative)
//	* / %
//	+ -
//	< <= > >= == !=
//	&&
//	||

// Build parses tokens produced by a Reader into an operation tree. funcs
// decides which names followed by an argument list are function calls and how
// many arguments they accept; a nil registry has no functions.
func Build[T any](tokens []Token[T], funcs *FunctionRegistry[T]) (*Node[T], error) {
	if len(tokens) == 0 {
		return nil, &ParseError{Reason: "empty formula"}
	}
	p := parser[T]{toks: tokens, funcs: funcs}
	n, err := p.parseterm(exprprec)
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, itShouldNotHaveEndedThisWay(tok)
	}
	return n, nil
}

// parser holds the state of building one tree.
type parser[T any] struct {
	toks  []Token[T]
	i     int
	funcs *FunctionRegistry[T]
}

// peek returns the next token without consuming it. The second result is false
// at the end of the input.
func (p *parser[T]) peek() (Token[T], bool) {
	if p.i >= len(p.toks) {
		return Token[T]{}, false
	}
	return p.toks[p.i], true
}

// next consumes the next token.
func (p *parser[T]) next() (Token[T], bool) {
	tok, ok := p.peek()
	if ok {
		p.i++
	}
	return tok, ok
}

// end returns the position just past the last token, for errors at the end of
// the input.
func (p *parser[T]) end() int {
	if len(p.toks) == 0 {
		return 0
	}
	last := p.toks[len(p.toks)-1]
	return last.Pos + last.Len
}

// parseterm parses a subexpression whose operators all bind more tightly than
// until. It stops before the first token which cannot continue the
// subexpression, leaving it to the caller.
func (p *parser[T]) parseterm(until operator) (*Node[T], error) {
	n, err := p.parselhs()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			return n, nil
		}
		switch tok.Kind {
		case TokenOperation:
			prec := binop(tok.Op)
			if prec.op == KindNone {
				return nil, &ParseError{Col: tok.Pos, Len: tok.Len, Text: string(tok.Op), Reason: "unexpected unary operator"}
			}
			if !prec.moreBinding(until) {
				return n, nil
			}
			p.i++
			rhs, err := p.parseterm(prec)
			if err != nil {
				return nil, err
			}
			n = BinaryNode(prec.op, n, rhs)
		case TokenRightBracket, TokenSeparator:
			// End of a subexpression. The caller decides whether it is valid.
			return n, nil
		default:
			// Two operands in a row, e.g. "2 x" or "x (y)".
			return nil, &ParseError{Col: tok.Pos, Len: tok.Len, Text: tokenText(tok), Reason: "missing operator before"}
		}
	}
}

// parselhs parses the first operand of a term. Operators here are unary.
func (p *parser[T]) parselhs() (*Node[T], error) {
	tok, ok := p.next()
	if !ok {
		return nil, &ParseError{Col: p.end(), Reason: "missing operand at end of formula"}
	}
	switch tok.Kind {
	case TokenInteger:
		return IntegerNode[T](tok.Int), nil
	case TokenFloat:
		return FloatNode(tok.Float), nil
	case TokenText:
		if open, ok := p.peek(); ok && open.Kind == TokenLeftBracket {
			return p.parsecall(tok)
		}
		return VariableNode[T](tok.Text), nil
	case TokenOperation:
		if tok.Op != UnaryMinus {
			return nil, &ParseError{Col: tok.Pos, Len: tok.Len, Text: string(tok.Op), Reason: "missing operand before operator"}
		}
		rhs, err := p.parseterm(negprec)
		if err != nil {
			return nil, err
		}
		return NegationNode(rhs), nil
	case TokenLeftBracket:
		if end, ok := p.peek(); ok && end.Kind == TokenRightBracket {
			return nil, &ParseError{Col: end.Pos, Len: end.Len, Text: ")", Reason: "no expression up to"}
		}
		n, err := p.parseterm(exprprec)
		if err != nil {
			return nil, err
		}
		end, ok := p.next()
		if !ok {
			return nil, &ParseError{Col: tok.Pos, Len: tok.Len, Text: "(", Reason: "open bracket with no close bracket"}
		}
		if end.Kind != TokenRightBracket {
			return nil, itShouldNotHaveEndedThisWay(end)
		}
		return n, nil
	case TokenRightBracket:
		return nil, &ParseError{Col: tok.Pos, Len: tok.Len, Text: ")", Reason: "missing operand before"}
	case TokenSeparator:
		return nil, &ParseError{Col: tok.Pos, Len: tok.Len, Text: string(tok.Op), Reason: "missing operand before"}
	default:
		panic("formulas: unknown token: " + tok.String())
	}
}

// parsecall parses the argument list of a call to the function named by tok.
// The next token is the opening bracket.
func (p *parser[T]) parsecall(tok Token[T]) (*Node[T], error) {
	fn, ok := p.funcs.Lookup(tok.Text)
	if !ok {
		return nil, &ParseError{Col: tok.Pos, Len: tok.Len, Text: tok.Text, Reason: "unknown function"}
	}
	p.i++ // opening bracket
	var args []*Node[T]
	if end, ok := p.peek(); ok && end.Kind == TokenRightBracket {
		// Niladic call.
		p.i++
	} else {
	loop:
		for {
			arg, err := p.parseterm(exprprec)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			end, ok := p.next()
			switch {
			case !ok:
				return nil, &ParseError{Col: p.end(), Text: tok.Text, Reason: "missing close bracket in call to"}
			case end.Kind == TokenRightBracket:
				break loop
			case end.Kind == TokenSeparator:
				// next argument
			default:
				panic("formulas: argument ended on " + end.String())
			}
		}
	}
	if !fn.Arity.Accepts(len(args)) {
		return nil, &ParseError{
			Col:    tok.Pos,
			Len:    tok.Len,
			Text:   tok.Text,
			Reason: "wrong number of arguments (" + strconv.Itoa(len(args)) + ", want " + fn.Arity.String() + ") in call to",
		}
	}
	return FunctionNode(tok.Text, fn.Idempotent, args...), nil
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression.
func itShouldNotHaveEndedThisWay[T any](tok Token[T]) error {
	switch tok.Kind {
	case TokenRightBracket:
		return &ParseError{Col: tok.Pos, Len: tok.Len, Text: ")", Reason: "close bracket with no open bracket"}
	case TokenSeparator:
		return &ParseError{Col: tok.Pos, Len: tok.Len, Text: string(tok.Op), Reason: "separator outside function call"}
	default:
		panic("formulas: it really should not have ended this way: " + tok.String())
	}
}

// tokenText recovers printable text for a token in an error message.
func tokenText[T any](tok Token[T]) string {
	switch tok.Kind {
	case TokenInteger:
		return strconv.FormatInt(tok.Int, 10)
	case TokenFloat:
		return "number"
	case TokenText:
		return tok.Text
	default:
		return string(tok.Op)
	}
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op Kind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for an operator rune. If there is no such
// binary operator, then the result has an op of KindNone.
func binop(op rune) operator {
	switch op {
	case OpOr:
		return operator{1, false, KindOr}
	case OpAnd:
		return operator{2, false, KindAnd}
	case '<':
		return operator{3, false, KindLessThan}
	case OpLessOrEqual:
		return operator{3, false, KindLessOrEqual}
	case '>':
		return operator{3, false, KindGreaterThan}
	case OpGreaterOrEqual:
		return operator{3, false, KindGreaterOrEqual}
	case OpEqual:
		return operator{3, false, KindEqual}
	case OpNotEqual:
		return operator{3, false, KindNotEqual}
	case '+':
		return operator{4, false, KindAddition}
	case '-':
		return operator{4, false, KindSubtraction}
	case '*':
		return operator{5, false, KindMultiplication}
	case '/':
		return operator{5, false, KindDivision}
	case '%':
		return operator{5, false, KindModulo}
	case '^':
		return operator{6, true, KindExponentiation}
	default:
		return operator{}
	}
}

var (
	// negprec is the precedence of unary minus, which binds more tightly
	// than any binary operator.
	negprec = operator{7, true, KindNegation}
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, true, KindNone}
)
