// Package value implements the runtime's dynamic data model: a tagged
// sum of Int, Double, String, List, and Map, with deep key-path access
// through nested Maps. Ownership in the original C source is hand
// tracked with own_/ref_/mut_ naming; here it falls out of Go's value
// semantics plus an explicit Clone for the few places (such as the
// interpreter's if() and agent() functions) that need an independent
// subtree; the map/list mutators store the Value they are given.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/agerun/agerun/internal/diag"
)

// Kind tags the variant a Value currently holds.
type Kind int

const (
	Int Kind = iota
	Double
	String
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "Int"
	case Double:
		return "Double"
	case String:
		return "String"
	case List:
		return "List"
	case Map:
		return "Map"
	default:
		return "Unknown"
	}
}

// Value is the tagged sum. Only the fields matching Kind are
// meaningful; the zero Value is Int(0).
type Value struct {
	kind Kind

	i int64
	d float64
	s string

	list []*Value

	entries map[string]*Value
	order   []string // insertion order, for deterministic Keys()/persistence
}

// NewInt constructs an owned Int value.
func NewInt(i int64) *Value { return &Value{kind: Int, i: i} }

// NewDouble constructs an owned Double value.
func NewDouble(d float64) *Value { return &Value{kind: Double, d: d} }

// NewString constructs an owned String value. The content is
// normalized to NFC, matching go-dws's string_helpers.go practice of
// canonicalizing text at construction so later byte-wise comparisons
// behave consistently regardless of the source's composed/decomposed
// form.
func NewString(s string) *Value { return &Value{kind: String, s: norm.NFC.String(s)} }

// NewList constructs an empty owned List value.
func NewList() *Value { return &Value{kind: List} }

// NewMap constructs an empty owned Map value.
func NewMap() *Value { return &Value{kind: Map, entries: map[string]*Value{}} }

// Kind reports the tag of a (possibly nil) Value; a nil Value reports
// Int, matching the "neutral default" rule for null inputs.
func (v *Value) Kind() Kind {
	if v == nil {
		return Int
	}
	return v.kind
}

// AsInt returns the Int payload, or 0 with diag.ErrTypeMismatch-class
// behavior if v is nil or not an Int.
func (v *Value) AsInt() int64 {
	if v == nil || v.kind != Int {
		return 0
	}
	return v.i
}

// AsDouble returns the Double payload, or 0.0 if v is nil or not a Double.
func (v *Value) AsDouble() float64 {
	if v == nil || v.kind != Double {
		return 0
	}
	return v.d
}

// AsString returns the String payload, or "" if v is nil or not a String.
func (v *Value) AsString() string {
	if v == nil || v.kind != String {
		return ""
	}
	return v.s
}

// AsList returns a borrowed slice of the List's elements, or nil.
// Callers must not retain elements past v's lifetime without Clone.
func (v *Value) AsList() []*Value {
	if v == nil || v.kind != List {
		return nil
	}
	return v.list
}

// IsMap reports whether v is a non-nil Map.
func (v *Value) IsMap() bool { return v != nil && v.kind == Map }

// Keys returns an owned List Value containing owned String Values for
// every top-level key of a Map, in insertion order. Spec leaves key
// order unspecified ("some order"); insertion order is chosen so
// persistence and tests are deterministic.
func (v *Value) Keys() *Value {
	out := NewList()
	if v == nil || v.kind != Map {
		return out
	}
	for _, k := range v.order {
		out.list = append(out.list, NewString(k))
	}
	return out
}

// SortedKeys is a convenience for callers (CLI listings) that want a
// stable, locale-independent ordering rather than insertion order.
func (v *Value) SortedKeys() []string {
	if v == nil || v.kind != Map {
		return nil
	}
	keys := append([]string(nil), v.order...)
	sort.Strings(keys)
	return keys
}

// MapGet returns a borrowed reference to the child at key, or nil if v
// is not a Map or the key is absent.
func (v *Value) MapGet(key string) *Value {
	if v == nil || v.kind != Map {
		return nil
	}
	return v.entries[key]
}

// MapSet transfers ownership of child into v under key, replacing any
// existing entry (which is simply dropped — Go's GC reclaims it).
// Returns diag.ErrInvalidArg if v is not a Map.
func (v *Value) MapSet(key string, child *Value) error {
	if v == nil || v.kind != Map {
		return diag.Errorf(diag.InvalidArg, "map_set: target is not a Map")
	}
	if _, exists := v.entries[key]; !exists {
		v.order = append(v.order, key)
	}
	v.entries[key] = child
	return nil
}

// ListAddFirst prepends val to the list, transferring ownership.
func (v *Value) ListAddFirst(val *Value) error {
	if v == nil || v.kind != List {
		return diag.Errorf(diag.InvalidArg, "list_add_first: target is not a List")
	}
	v.list = append([]*Value{val}, v.list...)
	return nil
}

// ListAddLast appends val to the list, transferring ownership.
func (v *Value) ListAddLast(val *Value) error {
	if v == nil || v.kind != List {
		return diag.Errorf(diag.InvalidArg, "list_add_last: target is not a List")
	}
	v.list = append(v.list, val)
	return nil
}

// ListRemoveFirst removes and returns ownership of the first element,
// or nil if the list is empty or v is not a List.
func (v *Value) ListRemoveFirst() *Value {
	if v == nil || v.kind != List || len(v.list) == 0 {
		return nil
	}
	head := v.list[0]
	v.list = v.list[1:]
	return head
}

// ListRemoveLast removes and returns ownership of the last element, or
// nil if the list is empty or v is not a List.
func (v *Value) ListRemoveLast() *Value {
	if v == nil || v.kind != List || len(v.list) == 0 {
		return nil
	}
	last := len(v.list) - 1
	tail := v.list[last]
	v.list = v.list[:last]
	return tail
}

// Clone performs a full recursive deep copy. Because Map/List entries
// are always owned children (no cycles by construction, spec §3/§9),
// this always terminates.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case Int:
		return NewInt(v.i)
	case Double:
		return NewDouble(v.d)
	case String:
		return &Value{kind: String, s: v.s}
	case List:
		out := NewList()
		for _, e := range v.list {
			out.list = append(out.list, e.Clone())
		}
		return out
	case Map:
		out := NewMap()
		for _, k := range v.order {
			out.MapSet(k, v.entries[k].Clone()) //nolint:errcheck // out is always a fresh Map
		}
		return out
	default:
		return NewInt(0)
	}
}

// Equal reports structural equality of variant tag and content.
func Equal(a, b *Value) bool {
	ak, bk := a.Kind(), b.Kind()
	if ak != bk {
		return false
	}
	switch ak {
	case Int:
		return a.AsInt() == b.AsInt()
	case Double:
		return a.AsDouble() == b.AsDouble()
	case String:
		return a.AsString() == b.AsString()
	case List:
		al, bl := a.AsList(), b.AsList()
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !Equal(al[i], bl[i]) {
				return false
			}
		}
		return true
	case Map:
		if len(a.order) != len(b.order) {
			return false
		}
		for _, k := range a.order {
			bv, ok := b.entries[k]
			if !ok || !Equal(a.entries[k], bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FormatNumeric renders Int/Double the way the expression evaluator's
// '+' and comparison operators coerce numbers to strings: integers as
// "%d", doubles as "%.2f" (spec §4.B).
func FormatNumeric(v *Value) string {
	switch v.Kind() {
	case Int:
		return strconv.FormatInt(v.AsInt(), 10)
	case Double:
		return fmt.Sprintf("%.2f", v.AsDouble())
	case String:
		return v.AsString()
	default:
		return ""
	}
}

// Truthy implements the if(cond, ...) truthiness rule: Int != 0,
// Double != 0.0, non-empty String. Lists and Maps are not valid
// conditions and are treated as falsy.
func Truthy(v *Value) bool {
	switch v.Kind() {
	case Int:
		return v.AsInt() != 0
	case Double:
		return v.AsDouble() != 0
	case String:
		return v.AsString() != ""
	default:
		return false
	}
}

// joinPath reconstructs a dotted path from segments, used in error messages.
func joinPath(segs []string) string { return strings.Join(segs, ".") }
