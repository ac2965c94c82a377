package interp

import (
	"strconv"
	"strings"

	"github.com/agerun/agerun/internal/value"
)

// segment is one piece of a parse/build template: either a literal
// chunk to match/emit verbatim, or a `{name}` placeholder.
type segment struct {
	literal       string
	placeholder   string
	isPlaceholder bool
}

// splitTemplate breaks a template string into alternating literal and
// placeholder segments (spec §4.D: "template contains {name}
// placeholders").
func splitTemplate(tpl string) []segment {
	var segs []segment
	var lit strings.Builder
	for i := 0; i < len(tpl); {
		if tpl[i] == '{' {
			if end := strings.IndexByte(tpl[i:], '}'); end >= 0 {
				if lit.Len() > 0 {
					segs = append(segs, segment{literal: lit.String()})
					lit.Reset()
				}
				segs = append(segs, segment{placeholder: tpl[i+1 : i+end], isPlaceholder: true})
				i += end + 1
				continue
			}
		}
		lit.WriteByte(tpl[i])
		i++
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{literal: lit.String()})
	}
	return segs
}

// matchTemplate implements parse(template, input): literal chunks
// must match input exactly; the text between each pair of literal
// chunks is extracted for the intervening placeholder and coerced
// (int, else double, else string). Any literal mismatch resets the
// result to an empty Map (spec §4.D).
func matchTemplate(tpl, input string) *value.Value {
	segs := splitTemplate(tpl)
	result := value.NewMap()
	pos := 0
	for i, seg := range segs {
		if !seg.isPlaceholder {
			if !strings.HasPrefix(input[pos:], seg.literal) {
				return value.NewMap()
			}
			pos += len(seg.literal)
			continue
		}

		end := len(input)
		if i+1 < len(segs) && !segs[i+1].isPlaceholder && segs[i+1].literal != "" {
			rel := strings.Index(input[pos:], segs[i+1].literal)
			if rel < 0 {
				return value.NewMap()
			}
			end = pos + rel
		}
		token := input[pos:end]
		result.MapSet(seg.placeholder, coerceToken(token)) //nolint:errcheck // result is always a fresh Map
		pos = end
	}
	return result
}

// coerceToken implements the parse() coercion order: integer (strtol
// over the full token), else double (strtod, requires a '.'), else
// String (spec §4.D).
func coerceToken(token string) *value.Value {
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return value.NewInt(n)
	}
	if strings.Contains(token, ".") {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return value.NewDouble(f)
		}
	}
	return value.NewString(token)
}

// substituteTemplate implements build(template, values): each
// placeholder is replaced with its mapped value formatted the way
// FormatNumeric renders numbers; a missing key leaves the literal
// `{name}` in the output (spec §4.D).
func substituteTemplate(tpl string, values *value.Value) *value.Value {
	var sb strings.Builder
	for _, seg := range splitTemplate(tpl) {
		if !seg.isPlaceholder {
			sb.WriteString(seg.literal)
			continue
		}
		v := values.MapGet(seg.placeholder)
		if v == nil {
			sb.WriteString("{" + seg.placeholder + "}")
			continue
		}
		sb.WriteString(value.FormatNumeric(v))
	}
	return value.NewString(sb.String())
}
