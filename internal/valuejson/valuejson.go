// Package valuejson converts between the runtime's Value tree and
// JSON, for the CLI's `inspect` export (spec SPEC_FULL.md §3) and for
// round-tripping an agent's memory through persistence. Construction
// folds sjson.SetRawBytes over the tree rather than hand-assembling
// encoding/json maps; decoding walks a gjson.Result tree back into
// Values, mirroring the shape of go-dws's internal/jsonvalue package
// without its DWScript-specific Kind taxonomy.
package valuejson

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/agerun/agerun/internal/value"
)

// Marshal renders v as compact JSON. Int/Double/String map to their
// natural JSON scalars; List to a JSON array; Map to a JSON object
// whose key order follows v.Keys() (insertion order).
func Marshal(v *value.Value) ([]byte, error) {
	return marshalValue(v)
}

func marshalValue(v *value.Value) ([]byte, error) {
	switch v.Kind() {
	case value.Int:
		return []byte(strconv.FormatInt(v.AsInt(), 10)), nil
	case value.Double:
		s := strconv.FormatFloat(v.AsDouble(), 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			// keep a '.' so Unmarshal reads it back as a Double, not an Int
			s += ".0"
		}
		return []byte(s), nil
	case value.String:
		return json.Marshal(v.AsString())
	case value.List:
		buf := []byte("[]")
		for i, elem := range v.AsList() {
			raw, err := marshalValue(elem)
			if err != nil {
				return nil, err
			}
			buf, err = sjson.SetRawBytes(buf, strconv.Itoa(i), raw)
			if err != nil {
				return nil, fmt.Errorf("valuejson: set index %d: %w", i, err)
			}
		}
		return buf, nil
	case value.Map:
		buf := []byte("{}")
		for _, keyVal := range v.Keys().AsList() {
			key := keyVal.AsString()
			raw, err := marshalValue(v.MapGet(key))
			if err != nil {
				return nil, err
			}
			buf, err = sjson.SetRawBytes(buf, escapeSjsonPath(key), raw)
			if err != nil {
				return nil, fmt.Errorf("valuejson: set key %q: %w", key, err)
			}
		}
		return buf, nil
	default:
		return []byte("0"), nil
	}
}

// escapeSjsonPath escapes the sjson path metacharacters ('.', '*',
// '?', '\\') so an arbitrary map key is always treated as one literal
// path segment.
func escapeSjsonPath(key string) string {
	r := strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`)
	return r.Replace(key)
}

// Unmarshal parses JSON data into a Value tree. JSON objects become
// Maps (in source key order), arrays become Lists, strings become
// Strings, booleans become Int 1/0 (the Value model has no boolean
// variant), and numbers become Int when their literal has no '.' or
// exponent, Double otherwise.
func Unmarshal(data []byte) (*value.Value, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("valuejson: invalid JSON")
	}
	return fromGJSON(gjson.ParseBytes(data)), nil
}

func fromGJSON(r gjson.Result) *value.Value {
	switch r.Type {
	case gjson.String:
		return value.NewString(r.String())
	case gjson.Number:
		if isIntegerLiteral(r.Raw) {
			return value.NewInt(r.Int())
		}
		return value.NewDouble(r.Float())
	case gjson.True:
		return value.NewInt(1)
	case gjson.False:
		return value.NewInt(0)
	case gjson.JSON:
		if r.IsArray() {
			out := value.NewList()
			r.ForEach(func(_, elem gjson.Result) bool {
				out.ListAddLast(fromGJSON(elem)) //nolint:errcheck // out is always a fresh List
				return true
			})
			return out
		}
		out := value.NewMap()
		r.ForEach(func(k, v gjson.Result) bool {
			out.MapSet(k.String(), fromGJSON(v)) //nolint:errcheck // out is always a fresh Map
			return true
		})
		return out
	default:
		return value.NewInt(0)
	}
}

func isIntegerLiteral(raw string) bool {
	return !strings.ContainsAny(raw, ".eE")
}
