package expr

import (
	"strings"

	"github.com/agerun/agerun/internal/lexer"
	"github.com/agerun/agerun/internal/value"
)

// arith implements spec §4.B's arithmetic rules for '+','-','*','/':
//
//   - '+' with any String operand always yields a String
//     (concatenation, with numeric operands formatted via
//     value.FormatNumeric first).
//   - otherwise, two Ints yield an Int (integer divide; divide-by-zero
//     is 0); any Double operand promotes the result to Double
//     (divide-by-zero is 0.0); any other operand pairing yields Int 0.
func arith(op lexer.Kind, l, r *value.Value) (*value.Value, error) {
	if op == lexer.Plus && (l.Kind() == value.String || r.Kind() == value.String) {
		return value.NewString(value.FormatNumeric(l) + value.FormatNumeric(r)), nil
	}

	lKind, rKind := l.Kind(), r.Kind()
	bothInt := lKind == value.Int && rKind == value.Int
	numeric := bothInt || (isNumeric(lKind) && isNumeric(rKind))

	if !numeric {
		return value.NewInt(0), nil
	}

	if bothInt {
		a, b := l.AsInt(), r.AsInt()
		switch op {
		case lexer.Plus:
			return value.NewInt(a + b), nil
		case lexer.Minus:
			return value.NewInt(a - b), nil
		case lexer.Star:
			return value.NewInt(a * b), nil
		case lexer.Slash:
			if b == 0 {
				return value.NewInt(0), nil
			}
			return value.NewInt(a / b), nil
		}
	}

	a, b := asFloat(l), asFloat(r)
	switch op {
	case lexer.Plus:
		return value.NewDouble(a + b), nil
	case lexer.Minus:
		return value.NewDouble(a - b), nil
	case lexer.Star:
		return value.NewDouble(a * b), nil
	case lexer.Slash:
		if b == 0 {
			return value.NewDouble(0), nil
		}
		return value.NewDouble(a / b), nil
	}
	return value.NewInt(0), nil
}

func isNumeric(k value.Kind) bool { return k == value.Int || k == value.Double }

func asFloat(v *value.Value) float64 {
	if v.Kind() == value.Int {
		return float64(v.AsInt())
	}
	return v.AsDouble()
}

// compare implements spec §4.B's comparison rules: numeric operands
// promote to Double; pure-string operands compare as raw bytes; any
// mixed pairing coerces both sides to string via value.FormatNumeric
// first. The result is always an owned Int 0 or 1.
func compare(op lexer.Kind, l, r *value.Value) *value.Value {
	var c int
	switch {
	case isNumeric(l.Kind()) && isNumeric(r.Kind()):
		a, b := asFloat(l), asFloat(r)
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		default:
			c = 0
		}
	case l.Kind() == value.String && r.Kind() == value.String:
		c = strings.Compare(l.AsString(), r.AsString())
	default:
		c = strings.Compare(value.FormatNumeric(l), value.FormatNumeric(r))
	}

	var result bool
	switch op {
	case lexer.Eq:
		result = c == 0
	case lexer.Ne:
		result = c != 0
	case lexer.Lt:
		result = c < 0
	case lexer.Le:
		result = c <= 0
	case lexer.Gt:
		result = c > 0
	case lexer.Ge:
		result = c >= 0
	}
	if result {
		return value.NewInt(1)
	}
	return value.NewInt(0)
}
