// Package semver implements the parsing, comparison, compatibility and
// pattern-matching rules spec §4.F needs for method lookup, grounded
// in original_source/modules/agerun_semver.c.
package semver

import (
	"strconv"
	"strings"
)

// Version is a parsed MAJOR.MINOR.PATCH triple. Trailing pre-release
// or build metadata (anything after a '-' or '+') is recognized but
// discarded, matching agerun_semver.c's ar_semver_parse.
type Version struct {
	Major, Minor, Patch int
	// Components counts how many of Major/Minor/Patch were actually
	// present in the source string (1, 2, or 3) — used by
	// MatchesPattern to implement partial-version lookup ("1" or
	// "1.2") the way ar_semver_matches_pattern does.
	Components int
}

// Parse parses a (possibly partial) semver string. "1", "1.2", and
// "1.2.3" are all valid; missing trailing components default to 0.
// A trailing "-prerelease" or "+build" suffix stops the scan without
// failing it.
func Parse(s string) (Version, bool) {
	if s == "" {
		return Version{}, false
	}
	core := s
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core = s[:i]
	}
	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		return Version{}, false
	}
	var v Version
	v.Components = len(parts)
	nums := [3]*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, false
		}
		*nums[i] = n
	}
	return v, true
}

// Compare orders two version strings by major, then minor, then
// patch. An empty string sorts as "null": lower than any valid
// version, and equal to another empty string — matching
// ar_semver_compare's NULL-handling. Two strings that both fail to
// parse fall back to a plain byte comparison.
func Compare(a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	va, okA := Parse(a)
	vb, okB := Parse(b)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return -1
	case !okB:
		return 1
	}
	if va.Major != vb.Major {
		return va.Major - vb.Major
	}
	if va.Minor != vb.Minor {
		return va.Minor - vb.Minor
	}
	return va.Patch - vb.Patch
}

// Compatible reports whether a and b share the same major version
// (spec §4.F / §8: "semver_compatible(a, b) iff major(a) == major(b)").
func Compatible(a, b string) bool {
	va, okA := Parse(a)
	vb, okB := Parse(b)
	return okA && okB && va.Major == vb.Major
}

// MatchesPattern reports whether version satisfies the (possibly
// partial) pattern: every component present in pattern must equal the
// corresponding component of version.
func MatchesPattern(version, pattern string) bool {
	v, ok := Parse(version)
	if !ok {
		return false
	}
	p, ok := Parse(pattern)
	if !ok {
		return false
	}
	if p.Components >= 1 && v.Major != p.Major {
		return false
	}
	if p.Components >= 2 && v.Minor != p.Minor {
		return false
	}
	if p.Components >= 3 && v.Patch != p.Patch {
		return false
	}
	return true
}

// Less reports whether a orders strictly before b (Compare(a,b) < 0).
func Less(a, b string) bool { return Compare(a, b) < 0 }
