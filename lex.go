package formulas

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Token is a single lexical element of a formula. Tokens reference their
// source by rune offsets so that errors can point at the offending text.
type Token[T any] struct {
	// Kind selects which of the value fields is meaningful.
	Kind TokenKind
	// Int is the value of a TokenInteger.
	Int int64
	// Float is the value of a TokenFloat.
	Float T
	// Text is the name of a TokenText.
	Text string
	// Op is the operator of a TokenOperation, or the bracket or separator
	// character of the other punctuation kinds. Two-character operators are
	// collapsed to single runes, e.g. "<=" becomes OpLessOrEqual.
	Op rune
	// Pos is the 0-based rune offset of the token in the formula.
	Pos int
	// Len is the number of runes the token spans.
	Len int
}

func (t Token[T]) String() string {
	var v string
	switch t.Kind {
	case TokenInteger:
		v = strconv.FormatInt(t.Int, 10)
	case TokenFloat:
		v = "float"
	case TokenText:
		v = t.Text
	default:
		v = string(t.Op)
	}
	return t.Kind.String() + ":" + v + "@" + strconv.Itoa(t.Pos)
}

// TokenKind is the type of a token.
type TokenKind int8

const (
	TokenNone TokenKind = iota
	// TokenInteger is an integer literal.
	TokenInteger
	// TokenFloat is a floating-point literal.
	TokenFloat
	// TokenText is a variable or function name.
	TokenText
	// TokenOperation is an operator.
	TokenOperation
	// TokenLeftBracket is (.
	TokenLeftBracket
	// TokenRightBracket is ).
	TokenRightBracket
	// TokenSeparator is the locale's function argument separator.
	TokenSeparator
)

//go:generate stringer -type=TokenKind -trimprefix=Token

// Internal operator runes for operators whose source text differs.
const (
	// UnaryMinus is the operator of a '-' that negates rather than subtracts.
	UnaryMinus       = '_'
	OpLessOrEqual    = '≤'
	OpGreaterOrEqual = '≥'
	OpNotEqual       = '≠'
	OpEqual          = '='
	OpAnd            = '&'
	OpOr             = '|'
)

// Locale holds the characters that vary between cultures.
type Locale struct {
	// Decimal separates the integer and fractional parts of a number.
	Decimal rune
	// Separator separates function arguments.
	Separator rune
}

// InvariantLocale writes 1.5 and max(1, 2).
var InvariantLocale = Locale{Decimal: '.', Separator: ','}

// Reader converts formulas into tokens. A Reader holds no mutable state and is
// safe for concurrent use.
type Reader[T any] struct {
	ops NumericalOperations[T]
	loc Locale
}

// NewReader creates a reader that parses numbers with ops according to loc.
// Panics if the locale's separators are unusable.
func NewReader[T any](ops NumericalOperations[T], loc Locale) *Reader[T] {
	if err := loc.Check(); err != nil {
		panic("formulas: " + err.Error())
	}
	return &Reader[T]{ops: ops, loc: loc}
}

// operatorChars are the characters which begin operator and bracket tokens.
const operatorChars = "+-*/^%()<>=!&|"

// Check returns an error if the locale's separators are unusable: missing,
// equal, or characters that can begin another token.
func (loc Locale) Check() error {
	if loc.Decimal == 0 || loc.Separator == 0 || loc.Decimal == loc.Separator {
		return errors.New("invalid locale " + strconv.QuoteRune(loc.Decimal) + "/" + strconv.QuoteRune(loc.Separator))
	}
	for _, r := range [...]rune{loc.Decimal, loc.Separator} {
		if '0' <= r && r <= '9' || isIdentStart(r) || unicode.IsSpace(r) || strings.ContainsRune(operatorChars, r) {
			return errors.New("cannot use " + strconv.QuoteRune(r) + " as a locale separator")
		}
	}
	return nil
}

// Locale returns the locale the reader was created with.
func (r *Reader[T]) Locale() Locale {
	return r.loc
}

// Read scans a formula into tokens. A '-' which begins a formula or follows an
// operator, an opening bracket, or a separator is part of a numeric literal if
// one follows it and is otherwise an UnaryMinus operator.
func (r *Reader[T]) Read(formula string) ([]Token[T], error) {
	if formula == "" {
		return nil, &ParseError{Reason: "empty formula"}
	}
	src := []rune(formula)
	tokens := make([]Token[T], 0, len(src)/2+1)
	// sub is true where a new subexpression starts, so that a '-' is a sign.
	sub := true
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case r.isNumeric(c, true, false, sub):
			tok, end, err := r.scanNum(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			// A bare '-' stays a unary minus, so the next term is still a
			// subexpression start.
			sub = tok.Kind == TokenOperation
			i = end
			continue
		case isIdentStart(c):
			end := i + 1
			for end < len(src) && isIdent(src[end]) {
				end++
			}
			tokens = append(tokens, Token[T]{Kind: TokenText, Text: string(src[i:end]), Pos: i, Len: end - i})
			sub = false
			i = end
			continue
		case c == r.loc.Separator:
			tokens = append(tokens, Token[T]{Kind: TokenSeparator, Op: c, Pos: i, Len: 1})
			sub = true
			i++
			continue
		case unicode.IsSpace(c):
			i++
			continue
		}

		tok := Token[T]{Kind: TokenOperation, Op: c, Pos: i, Len: 1}
		switch c {
		case '-':
			if isUnaryMinus(tokens) {
				tok.Op = UnaryMinus
			}
		case '+', '*', '/', '^', '%', OpLessOrEqual, OpGreaterOrEqual, OpNotEqual:
			// single-character operator
		case '(':
			tok.Kind = TokenLeftBracket
		case ')':
			tok.Kind = TokenRightBracket
		case '<', '>':
			if i+1 < len(src) && src[i+1] == '=' {
				tok.Op, tok.Len = OpLessOrEqual, 2
				if c == '>' {
					tok.Op = OpGreaterOrEqual
				}
			}
		case '!', '&', '|', '=':
			// These are only operators when paired.
			want := c
			if c == '!' {
				want = '='
			}
			if i+1 >= len(src) || src[i+1] != want {
				return nil, invalidToken(src, i)
			}
			tok.Len = 2
			if c == '!' {
				tok.Op = OpNotEqual
			}
		default:
			return nil, invalidToken(src, i)
		}
		tokens = append(tokens, tok)
		sub = tok.Kind != TokenRightBracket
		i += tok.Len
	}
	return tokens, nil
}

// scanNum scans a numeric literal starting at src[start]. The second result is
// the index following the literal.
func (r *Reader[T]) scanNum(src []rune, start int) (Token[T], int, error) {
	i := start + 1
	sci := false
	for i < len(src) && r.isNumeric(src[i], false, src[i-1] == '-', true) {
		if src[i] == 'e' || src[i] == 'E' {
			if sci {
				return Token[T]{}, i, invalidToken(src, i)
			}
			sci = true
			if i+1 < len(src) && src[i+1] == '-' {
				i++
			}
		}
		i++
	}
	text := string(src[start:i])
	tok := Token[T]{Pos: start, Len: i - start}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		tok.Kind, tok.Int = TokenInteger, n
		return tok, i, nil
	}
	if text == "-" {
		// A minus without a number after it, e.g. -(x) or -e.
		tok.Kind, tok.Op = TokenOperation, UnaryMinus
		return tok, i, nil
	}
	f, err := r.ops.ParseFloat(text, r.loc.Decimal)
	if err != nil {
		return Token[T]{}, i, &ParseError{Col: start, Len: i - start, Text: text, Reason: "invalid floating point number"}
	}
	tok.Kind, tok.Float = TokenFloat, f
	return tok, i, nil
}

// isNumeric returns whether c can continue (or, if first, begin) a numeric
// literal. An exponent marker cannot directly follow a minus sign.
func (r *Reader[T]) isNumeric(c rune, first, afterMinus, sub bool) bool {
	switch {
	case c == r.loc.Decimal, '0' <= c && c <= '9':
		return true
	case c == '-':
		return first && sub
	case c == 'e', c == 'E':
		return !first && !afterMinus
	}
	return false
}

func isIdentStart(c rune) bool {
	return c == '$' || unicode.IsLetter(c)
}

func isIdent(c rune) bool {
	return c == '$' || c == '_' || unicode.IsLetter(c) || '0' <= c && c <= '9'
}

// isUnaryMinus reports whether a '-' following tokens negates.
func isUnaryMinus[T any](tokens []Token[T]) bool {
	if len(tokens) == 0 {
		return true
	}
	switch tokens[len(tokens)-1].Kind {
	case TokenFloat, TokenInteger, TokenText, TokenRightBracket:
		return false
	}
	return true
}

func invalidToken(src []rune, i int) error {
	return &ParseError{Col: i, Len: 1, Text: string(src[i]), Reason: "invalid token"}
}
