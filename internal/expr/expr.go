// Package expr implements the expression grammar of spec §4.B: a
// recursive-descent parser that builds a small AST (Node), and an
// evaluator that walks that AST against a (memory, context, message)
// Env, returning either an owned, freshly created Value or a borrowed
// reference into one of those three roots.
//
// Parsing and evaluation are split, mirroring go-dws's parser/
// interpreter split, so the instruction parser (§4.C) can parse each
// function-call argument once — sharing the same lexer.Cursor it is
// itself consuming tokens from — and the interpreter can evaluate that
// parsed Node against a different Env on every message.
package expr

import (
	"strconv"
	"strings"

	"github.com/agerun/agerun/internal/diag"
	"github.com/agerun/agerun/internal/lexer"
	"github.com/agerun/agerun/internal/value"
)

// Env is the (memory, context, message) triple an expression is
// evaluated against. Memory is mutable; Context and Message are
// borrowed and read-only from the expression evaluator's point of
// view (the instruction layer is the one that mutates Memory).
type Env struct {
	Memory  *value.Value
	Context *value.Value
	Message *value.Value
}

// Result is the evaluator's Either<Owned, Borrowed> return value
// (§9 "Design notes"): every literal, arithmetic, or comparison result
// is Owned; every memory/context/message access is Borrowed.
type Result struct {
	val   *value.Value
	owned bool
}

// Owned wraps a freshly created Value.
func Owned(v *value.Value) Result { return Result{val: v, owned: true} }

// Borrowed wraps a reference into memory/context/message.
func Borrowed(v *value.Value) Result { return Result{val: v, owned: false} }

// Value returns the underlying Value regardless of ownership, for
// callers (comparisons, further arithmetic) that only need to read it.
func (r Result) Value() *value.Value { return r.val }

// IsOwned reports whether the result is a fresh, evaluator-owned Value.
func (r Result) IsOwned() bool { return r.owned }

// TakeOwnership implements the evaluator's take_ownership operation:
// it succeeds only for an Owned result. A Borrowed result is returned
// untouched (ok=false) — callers needing to retain it must Clone
// explicitly, matching spec §4.B's ownership rule and the Open
// Question decision in SPEC_FULL.md (no implicit copy-on-store).
func (r Result) TakeOwnership() (*value.Value, bool) {
	if !r.owned {
		return nil, false
	}
	return r.val, true
}

// NodeKind tags the shape of a parsed expression Node.
type NodeKind int

const (
	NString NodeKind = iota
	NInt
	NDouble
	NAccess
	NBinary
)

// Node is the expression AST: a literal, a memory/context/message
// access, or a binary arithmetic/comparison operation.
type Node struct {
	Kind NodeKind

	Str string
	I   int64
	D   float64

	Root string   // NAccess: "memory" | "context" | "message"
	Path []string // NAccess: dotted path segments, possibly empty

	Op          lexer.Kind // NBinary
	Left, Right *Node
}

// Parse parses a single expression from c, leaving the cursor
// positioned right after the expression (at a comma, a closing paren,
// or EOF) so callers such as the instruction parser can keep reading
// from the same token stream.
func Parse(c *lexer.Cursor) (*Node, error) {
	return parseComparison(c)
}

// ParseString is a convenience for tests and callers that have a whole
// expression string and nothing else to parse from it.
func ParseString(src string, line int) (*Node, error) {
	c := lexer.NewCursor(src, line)
	n, err := Parse(c)
	if err != nil {
		return nil, err
	}
	if c.Peek().Kind != lexer.EOF {
		return nil, c.Errorf("unexpected trailing input %q", c.Peek().Literal)
	}
	return n, nil
}

// Eval evaluates a previously parsed Node against env.
func Eval(n *Node, env Env) (Result, error) {
	switch n.Kind {
	case NString:
		return Owned(value.NewString(n.Str)), nil
	case NInt:
		return Owned(value.NewInt(n.I)), nil
	case NDouble:
		return Owned(value.NewDouble(n.D)), nil
	case NAccess:
		return evalAccess(n, env)
	case NBinary:
		left, err := Eval(n.Left, env)
		if err != nil {
			return Result{}, err
		}
		right, err := Eval(n.Right, env)
		if err != nil {
			return Result{}, err
		}
		switch n.Op {
		case lexer.Eq, lexer.Ne, lexer.Lt, lexer.Le, lexer.Gt, lexer.Ge:
			return Owned(compare(n.Op, left.Value(), right.Value())), nil
		default:
			v, err := arith(n.Op, left.Value(), right.Value())
			if err != nil {
				return Result{}, err
			}
			return Owned(v), nil
		}
	default:
		return Result{}, diag.Errorf(diag.SyntaxError, "malformed expression node")
	}
}

func evalAccess(n *Node, env Env) (Result, error) {
	var base *value.Value
	switch n.Root {
	case "memory":
		base = env.Memory
	case "context":
		base = env.Context
	case "message":
		base = env.Message
	}

	if len(n.Path) == 0 {
		if base == nil {
			return Result{}, diag.Errorf(diag.RuntimeFailure, "%s is not available in this context", n.Root)
		}
		return Borrowed(base), nil
	}

	if base == nil {
		return Result{}, diag.Errorf(diag.RuntimeFailure, "%s is not available in this context", n.Root)
	}
	path := strings.Join(n.Path, ".")
	found, err := value.GetMapData(base, path)
	if err != nil {
		return Result{}, diag.Errorf(diag.RuntimeFailure, "%s.%s: %v", n.Root, path, err)
	}
	return Borrowed(found), nil
}

// --- recursive-descent parsing -------------------------------------

// parseComparison := additive (('=' | '<>' | '<' | '<=' | '>' | '>=') additive)?
func parseComparison(c *lexer.Cursor) (*Node, error) {
	left, err := parseAdditive(c)
	if err != nil {
		return nil, err
	}
	switch c.Peek().Kind {
	case lexer.Eq, lexer.Ne, lexer.Lt, lexer.Le, lexer.Gt, lexer.Ge:
		op := c.Next().Kind
		right, err := parseAdditive(c)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NBinary, Op: op, Left: left, Right: right}, nil
	default:
		return left, nil
	}
}

// parseAdditive := multiplicative (('+' | '-') multiplicative)*
func parseAdditive(c *lexer.Cursor) (*Node, error) {
	left, err := parseMultiplicative(c)
	if err != nil {
		return nil, err
	}
	for {
		op := c.Peek().Kind
		if op != lexer.Plus && op != lexer.Minus {
			return left, nil
		}
		c.Next()
		right, err := parseMultiplicative(c)
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NBinary, Op: op, Left: left, Right: right}
	}
}

// parseMultiplicative := primary (('*' | '/') primary)*
func parseMultiplicative(c *lexer.Cursor) (*Node, error) {
	left, err := parsePrimary(c)
	if err != nil {
		return nil, err
	}
	for {
		op := c.Peek().Kind
		if op != lexer.Star && op != lexer.Slash {
			return left, nil
		}
		c.Next()
		right, err := parsePrimary(c)
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: NBinary, Op: op, Left: left, Right: right}
	}
}

// parsePrimary := string | number | memory-access | '(' expr ')'
func parsePrimary(c *lexer.Cursor) (*Node, error) {
	t := c.Peek()
	switch t.Kind {
	case lexer.Str:
		c.Next()
		return &Node{Kind: NString, Str: t.Literal}, nil

	case lexer.Int:
		c.Next()
		n, _ := strconv.ParseInt(t.Literal, 10, 64)
		return &Node{Kind: NInt, I: n}, nil

	case lexer.Double:
		c.Next()
		f, _ := strconv.ParseFloat(t.Literal, 64)
		return &Node{Kind: NDouble, D: f}, nil

	case lexer.Minus:
		// The lexer always tokenizes '-' as an operator; a leading sign
		// on a number literal (spec: number := '-'? digit+ ...) is
		// disambiguated here, at the start of primary, so "5 - 3" (binary
		// subtraction) and "-3" (a negative literal) both parse correctly.
		c.Next()
		numTok := c.Peek()
		switch numTok.Kind {
		case lexer.Int:
			c.Next()
			n, _ := strconv.ParseInt(numTok.Literal, 10, 64)
			return &Node{Kind: NInt, I: -n}, nil
		case lexer.Double:
			c.Next()
			f, _ := strconv.ParseFloat(numTok.Literal, 64)
			return &Node{Kind: NDouble, D: -f}, nil
		default:
			return nil, c.Errorf("expected a number after unary '-'")
		}

	case lexer.LParen:
		c.Next()
		inner, err := parseComparison(c)
		if err != nil {
			return nil, err
		}
		if _, err := c.Expect(lexer.RParen); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.Ident:
		return parseMemoryAccess(c)

	default:
		return nil, c.Errorf("unexpected token %q", t.Literal)
	}
}

// parseMemoryAccess implements:
//
//	memory-access := ('memory' | 'context' | 'message') ('.' ident)*
//
// A function-call-shaped identifier (ident immediately followed by
// '(') is rejected here: it is how the instruction layer's function
// calls are kept out of expression position (spec §4.B).
func parseMemoryAccess(c *lexer.Cursor) (*Node, error) {
	root := c.Next() // the Ident token

	if c.Peek().Kind == lexer.LParen {
		return nil, c.Errorf("function call %q is not valid in expression position", root.Literal)
	}

	switch root.Literal {
	case "memory", "context", "message":
	default:
		return nil, c.Errorf("unknown identifier %q", root.Literal)
	}

	var segs []string
	for c.Peek().Kind == lexer.Dot {
		c.Next()
		ident, err := c.Expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		segs = append(segs, ident.Literal)
	}

	return &Node{Kind: NAccess, Root: root.Literal, Path: segs}, nil
}
