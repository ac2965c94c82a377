// Package instruction implements the instruction parser of spec §4.C:
// one AST per source line, either an assignment or a call to one of
// seven built-in functions, each of whose arguments is itself an
// expr.Node shared off the same token Cursor.
package instruction

import (
	"github.com/agerun/agerun/internal/expr"
	"github.com/agerun/agerun/internal/lexer"
)

// Func names the seven function-call instruction forms (spec §4.C).
// Assignment has no Func; it is distinguished by Kind.
type Func string

const (
	Send    Func = "send"
	If      Func = "if"
	Parse   Func = "parse"
	Build   Func = "build"
	Method  Func = "method"
	Agent   Func = "agent"
	Destroy Func = "destroy"
)

// Instruction is the parsed form of one method source line.
type Instruction struct {
	// Target, when HasTarget is true, is the memory path an
	// assignment or a function call's result is stored to — with the
	// leading "memory." already stripped (spec §4.C: "the stored path
	// drops the memory. prefix").
	Target    string
	HasTarget bool

	// IsAssign is true for `memory-access := expr` with no function call.
	IsAssign bool
	Expr     *expr.Node // the assignment's RHS, when IsAssign

	// Func / Args hold a function-call instruction; Args are the
	// parsed expr.Node for each comma-separated argument, in order.
	Func Func
	Args []*expr.Node
}

// Parse parses one trimmed, non-blank, non-comment source line into an
// Instruction. Line is the 1-based source line number, used only for
// diagnostics.
func Parse(src string, line int) (*Instruction, error) {
	c := lexer.NewCursor(src, line)
	inst, err := parseInstruction(c)
	if err != nil {
		return nil, err
	}
	if c.Peek().Kind != lexer.EOF {
		return nil, c.Errorf("unexpected trailing input %q after instruction", c.Peek().Literal)
	}
	return inst, nil
}

// parseInstruction implements:
//
//	instr := memory-access ':=' expr
//	       | (memory-access ':=')? func-call
func parseInstruction(c *lexer.Cursor) (*Instruction, error) {
	target, hasTarget, err := tryParseAssignTarget(c)
	if err != nil {
		return nil, err
	}

	if hasTarget {
		// Either `memory.x := <expr>` or `memory.x := <func-call>`.
		if name, isCall := peekFuncCallName(c); isCall {
			fn, args, err := parseFuncCall(c, name)
			if err != nil {
				return nil, err
			}
			return &Instruction{Target: target, HasTarget: true, Func: fn, Args: args}, nil
		}
		node, err := expr.Parse(c)
		if err != nil {
			return nil, err
		}
		return &Instruction{Target: target, HasTarget: true, IsAssign: true, Expr: node}, nil
	}

	name, isCall := peekFuncCallName(c)
	if !isCall {
		return nil, c.Errorf("expected an assignment or a function call")
	}
	fn, args, err := parseFuncCall(c, name)
	if err != nil {
		return nil, err
	}
	return &Instruction{Func: fn, Args: args}, nil
}

// tryParseAssignTarget consumes `memory-access ':='` if present,
// rejecting `context`/`message` as assignment roots (spec §4.C: "Only
// memory is a legal assignment target root"). It does not consume
// anything if no ':=' follows the memory-access.
func tryParseAssignTarget(c *lexer.Cursor) (target string, ok bool, err error) {
	if c.Peek().Kind != lexer.Ident {
		return "", false, nil
	}
	// Snapshot via a throwaway parse: memory-access grammar is just
	// ident ('.' ident)*, so scan it directly without expr.Parse
	// (which would also accept arithmetic after it — we only want the
	// bare path here, immediately followed by ':=').
	save := *c
	root := c.Next()
	if root.Literal != "memory" && root.Literal != "context" && root.Literal != "message" {
		*c = save
		return "", false, nil
	}

	var segs []string
	for c.Peek().Kind == lexer.Dot {
		c.Next()
		ident, err := c.Expect(lexer.Ident)
		if err != nil {
			*c = save
			return "", false, nil
		}
		segs = append(segs, ident.Literal)
	}

	if c.Peek().Kind != lexer.Assign {
		*c = save
		return "", false, nil
	}
	c.Next() // consume ':='

	if root.Literal != "memory" {
		return "", false, c.Errorf("only memory is a valid assignment target, got %q", root.Literal)
	}
	path := joinDotted(segs)
	return path, true, nil
}

func joinDotted(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}

// peekFuncCallName reports whether the cursor is positioned at
// `ident '('` and, if so, which recognized Func it names. It does not
// consume anything.
func peekFuncCallName(c *lexer.Cursor) (Func, bool) {
	if c.Peek().Kind != lexer.Ident {
		return "", false
	}
	name := Func(c.Peek().Literal)
	switch name {
	case Send, If, Parse, Build, Method, Agent, Destroy:
		return name, true
	default:
		return "", false
	}
}

// parseFuncCall parses `name '(' expr (',' expr)* ')'` and validates
// the argument count against the fixed arities of spec §4.C, except
// for `destroy`, which is legitimately one of two arities (agent
// destroy vs. method destroy).
func parseFuncCall(c *lexer.Cursor, name Func) (Func, []*expr.Node, error) {
	c.Next() // the function name ident
	if _, err := c.Expect(lexer.LParen); err != nil {
		return "", nil, err
	}

	var args []*expr.Node
	if c.Peek().Kind != lexer.RParen {
		for {
			n, err := expr.Parse(c)
			if err != nil {
				return "", nil, err
			}
			args = append(args, n)
			if c.Peek().Kind != lexer.Comma {
				break
			}
			c.Next()
		}
	}
	if _, err := c.Expect(lexer.RParen); err != nil {
		return "", nil, err
	}

	want, ok := arity[name]
	if ok && len(args) != want {
		return "", nil, c.Errorf("%s(...) expects %d argument(s), got %d", name, want, len(args))
	}
	if name == Destroy && len(args) != 1 && len(args) != 2 {
		return "", nil, c.Errorf("destroy(...) expects 1 or 2 arguments, got %d", len(args))
	}
	return name, args, nil
}

var arity = map[Func]int{
	Send:   2,
	If:     3,
	Parse:  2,
	Build:  2,
	Method: 3,
	Agent:  3,
	// Destroy has two valid arities, handled specially above.
}
