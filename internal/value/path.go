package value

import (
	"strings"

	"github.com/agerun/agerun/internal/diag"
)

// splitPath splits a dotted path into segments, rejecting the empty path.
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, diag.Errorf(diag.InvalidArg, "empty path")
	}
	return strings.Split(path, "."), nil
}

// GetMapData returns a borrowed reference to the Value at path,
// descending through nested Maps (spec §3, §4.A: "get_map_data(path)
// returns a borrowed reference"). A missing intermediate or leaf
// returns (nil, diag.ErrInvalidArg); the expression evaluator reports
// it as a RuntimeFailure, which stops the running method.
func GetMapData(root *Value, path string) (*Value, error) {
	if root == nil {
		return nil, diag.Errorf(diag.InvalidArg, "get_map_data: nil root")
	}
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	cur := root
	for _, seg := range segs {
		if cur.Kind() != Map {
			return nil, diag.Errorf(diag.InvalidArg, "get_map_data: %q is not a Map", joinPath(segs))
		}
		next := cur.MapGet(seg)
		if next == nil {
			return nil, diag.Errorf(diag.InvalidArg, "get_map_data: no value at %q", joinPath(segs))
		}
		cur = next
	}
	return cur, nil
}

// SetMapData transfers ownership of val into the Map at the end of
// path, creating or replacing only the leaf. Spec §3: "intermediate
// Maps must pre-exist — the source does not auto-create them." On
// failure (nil root, non-Map ancestor, missing intermediate) the
// caller is responsible for the fact that val is simply dropped —
// Go's GC reclaims it, unlike the C source's explicit destroy-on-failure.
func SetMapData(root *Value, path string, val *Value) error {
	if root == nil || root.Kind() != Map {
		return diag.Errorf(diag.InvalidArg, "set_map_data: root is not a Map")
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next := cur.MapGet(seg)
		if next == nil || next.Kind() != Map {
			return diag.Errorf(diag.InvalidArg, "set_map_data: intermediate %q does not exist", joinPath(segs))
		}
		cur = next
	}
	return cur.MapSet(segs[len(segs)-1], val)
}
