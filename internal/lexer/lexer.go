package lexer

import (
	"fmt"
	"strings"

	"github.com/agerun/agerun/internal/diag"
)

// Lexer scans a single line of source (an expression, or the
// expression portions of an instruction) into Tokens. It operates on
// one line at a time: spec §4.D tokenizes method source by newline
// before interpreting, so a Lexer never needs to see a newline.
type Lexer struct {
	src  string
	pos  int // byte offset of the next rune to read
	ch   byte
	line int
}

// New creates a Lexer over src, reporting positions as being on line.
func New(src string, line int) *Lexer {
	l := &Lexer{src: src, line: line}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.pos >= len(l.src) {
		l.ch = 0
	} else {
		l.ch = l.src[l.pos]
	}
	l.pos++
}

func (l *Lexer) peekChar() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func isLetter(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

// column reports the 1-based column of the character just consumed by
// readChar (i.e. at start-1 before any reads, so callers capture it
// before consuming a token's first rune).
func (l *Lexer) column(start int) int { return start + 1 }

// Next scans and returns the next Token. At end of input it returns an
// EOF token forever.
func (l *Lexer) Next() Token {
	l.skipWhitespace()
	col := l.column(l.pos - 1)

	switch {
	case l.ch == 0:
		return Token{Kind: EOF, Column: col}
	case isLetter(l.ch):
		return l.readIdent(col)
	case isDigit(l.ch):
		return l.readNumber(col)
	case l.ch == '"':
		return l.readString(col)
	default:
		return l.readOperator(col)
	}
}

func (l *Lexer) readIdent(col int) Token {
	start := l.pos - 1
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return Token{Kind: Ident, Literal: l.src[start : l.pos-1], Column: col}
}

// readNumber implements the digit+ ('.' digit+)? half of
// `number := '-'? digit+ ('.' digit+)?` (spec §4.B); the optional
// leading '-' is handled by the expression parser's primary rule,
// since a bare Lexer can't tell a unary sign from binary subtraction
// (compare "5 - 3" against "5-3") without parser-level context.
func (l *Lexer) readNumber(col int) Token {
	start := l.pos - 1
	for isDigit(l.ch) {
		l.readChar()
	}
	isDouble := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isDouble = true
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	lit := l.src[start : l.pos-1]
	if isDouble {
		return Token{Kind: Double, Literal: lit, Column: col}
	}
	return Token{Kind: Int, Literal: lit, Column: col}
}

// readString implements `string := '"' any-char-except-quote* '"'`.
func (l *Lexer) readString(col int) Token {
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != '"' && l.ch != 0 {
		sb.WriteByte(l.ch)
		l.readChar()
	}
	if l.ch == '"' {
		l.readChar() // consume closing quote
	}
	return Token{Kind: Str, Literal: sb.String(), Column: col}
}

func (l *Lexer) readOperator(col int) Token {
	ch := l.ch
	l.readChar()
	switch ch {
	case '+':
		return Token{Kind: Plus, Literal: "+", Column: col}
	case '-':
		return Token{Kind: Minus, Literal: "-", Column: col}
	case '*':
		return Token{Kind: Star, Literal: "*", Column: col}
	case '/':
		return Token{Kind: Slash, Literal: "/", Column: col}
	case '=':
		return Token{Kind: Eq, Literal: "=", Column: col}
	case '<':
		switch l.ch {
		case '>':
			l.readChar()
			return Token{Kind: Ne, Literal: "<>", Column: col}
		case '=':
			l.readChar()
			return Token{Kind: Le, Literal: "<=", Column: col}
		default:
			return Token{Kind: Lt, Literal: "<", Column: col}
		}
	case '>':
		if l.ch == '=' {
			l.readChar()
			return Token{Kind: Ge, Literal: ">=", Column: col}
		}
		return Token{Kind: Gt, Literal: ">", Column: col}
	case '.':
		return Token{Kind: Dot, Literal: ".", Column: col}
	case ',':
		return Token{Kind: Comma, Literal: ",", Column: col}
	case '(':
		return Token{Kind: LParen, Literal: "(", Column: col}
	case ')':
		return Token{Kind: RParen, Literal: ")", Column: col}
	case ':':
		if l.ch == '=' {
			l.readChar()
			return Token{Kind: Assign, Literal: ":=", Column: col}
		}
		return Token{Kind: Illegal, Literal: ":", Column: col}
	default:
		return Token{Kind: Illegal, Literal: string(ch), Column: col}
	}
}

// Cursor wraps a token stream with one token of lookahead, the same
// shape as go-dws's internal/parser cursor: Peek without consuming,
// Next to advance, and Line for diagnostics.
type Cursor struct {
	toks []Token
	pos  int
	Line int
	Src  string // full line text, for diag.Error source excerpts
}

// NewCursor tokenizes src completely (expression/instruction lines are
// short; there is no benefit to lazy streaming here) and returns a
// ready Cursor.
func NewCursor(src string, line int) *Cursor {
	l := New(src, line)
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == EOF {
			break
		}
	}
	return &Cursor{toks: toks, Line: line, Src: src}
}

// Peek returns the current token without consuming it.
func (c *Cursor) Peek() Token { return c.toks[c.pos] }

// Next returns the current token and advances past it.
func (c *Cursor) Next() Token {
	t := c.toks[c.pos]
	if c.pos < len(c.toks)-1 {
		c.pos++
	}
	return t
}

// Expect consumes the current token if it matches kind, else returns a
// diag.Error at the current column.
func (c *Cursor) Expect(kind Kind) (Token, error) {
	t := c.Peek()
	if t.Kind != kind {
		return t, c.Errorf("expected %s, got %s", kind, t.Kind)
	}
	return c.Next(), nil
}

// Errorf builds a diag.Error positioned at the current token.
func (c *Cursor) Errorf(format string, args ...any) error {
	return &diag.Error{
		Pos:     diag.Position{Line: c.Line, Column: c.Peek().Column},
		Message: fmt.Sprintf(format, args...),
		Source:  c.Src,
	}
}
