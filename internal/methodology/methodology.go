// Package methodology implements the name->version->Method registry
// of spec §4.F: insertion-ordered name buckets, semver-aware lookup,
// and the auto-upgrade hook that moves every agent on an older
// compatible version onto a newly registered one.
package methodology

import (
	"github.com/agerun/agerun/internal/diag"
	"github.com/agerun/agerun/internal/method"
	"github.com/agerun/agerun/internal/semver"
)

// MaxVersionsPerMethod bounds how many versions a single method name
// may accumulate, matching agerun_methodology.c's fixed-size bucket.
const MaxVersionsPerMethod = 64

// ErrDuplicateVersion is returned by Register when the exact
// (name, version) pair is already present. spec.md's source silently
// warns and stores the duplicate anyway; SPEC_FULL.md's Open Question
// decision rejects the duplicate outright instead, which is simpler to
// reason about for callers and avoids two Methods answering to the
// same lookup key.
var ErrDuplicateVersion = diag.Errorf(diag.InvalidArg, "duplicate method version")

// Upgrader is the subset of Agency behavior Register needs to move
// agents off a superseded version onto the new one. Depending on the
// interface rather than *agency.Agency keeps this package free of an
// import cycle (agency's Dispatcher already depends on agent/method).
type Upgrader interface {
	UpdateAgentMethods(oldM, newM *method.Method) int
}

// bucket holds every registered version of one method name, in
// insertion order.
type bucket struct {
	versions []*method.Method
}

// Methodology is the registry. The zero value is not usable; use New.
type Methodology struct {
	names   []string // insertion order, for deterministic listing/persistence
	buckets map[string]*bucket
}

// New constructs an empty registry.
func New() *Methodology {
	return &Methodology{buckets: map[string]*bucket{}}
}

// Register validates m against ErrDuplicateVersion, stores it, and
// then upgrades every agent running an older, semver-compatible
// version of the same name onto m via up (spec §4.F steps 1-2).
func (r *Methodology) Register(m *method.Method, up Upgrader) error {
	b, ok := r.buckets[m.Name()]
	if !ok {
		b = &bucket{}
		r.buckets[m.Name()] = b
		r.names = append(r.names, m.Name())
	}
	for _, existing := range b.versions {
		if existing.Version() == m.Version() {
			return ErrDuplicateVersion
		}
	}
	if len(b.versions) >= MaxVersionsPerMethod {
		return diag.Errorf(diag.CapacityExceeded, "method %q already has %d registered versions", m.Name(), MaxVersionsPerMethod)
	}
	b.versions = append(b.versions, m)

	for _, older := range b.versions[:len(b.versions)-1] {
		if semver.Compatible(older.Version(), m.Version()) && semver.Less(older.Version(), m.Version()) {
			up.UpdateAgentMethods(older, m)
		}
	}
	return nil
}

// Get resolves a (name, version) lookup per spec §4.F:
//   - version == "" selects the latest by semver ordering;
//   - an exact literal is matched by equality;
//   - a partial version ("1", "1.2") restricts candidates to those
//     whose prefix matches and returns the latest among them.
//
// Returns nil if name is unknown or no candidate matches.
func (r *Methodology) Get(name, version string) *method.Method {
	b, ok := r.buckets[name]
	if !ok || len(b.versions) == 0 {
		return nil
	}
	if version == "" {
		return latest(b.versions)
	}
	for _, m := range b.versions {
		if m.Version() == version {
			return m
		}
	}
	var candidates []*method.Method
	for _, m := range b.versions {
		if semver.MatchesPattern(m.Version(), version) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return latest(candidates)
}

func latest(versions []*method.Method) *method.Method {
	best := versions[0]
	for _, m := range versions[1:] {
		if semver.Less(best.Version(), m.Version()) {
			best = m
		}
	}
	return best
}

// Unregister removes the exact (name, version) entry and compacts its
// bucket (spec §4.F: "removes and destroys... compacts the bucket").
// Callers are expected to have already destroyed any agent holding a
// reference to it. Returns false if no such entry exists.
func (r *Methodology) Unregister(name, version string) bool {
	b, ok := r.buckets[name]
	if !ok {
		return false
	}
	for i, m := range b.versions {
		if m.Version() == version {
			b.versions = append(b.versions[:i], b.versions[i+1:]...)
			if len(b.versions) == 0 {
				delete(r.buckets, name)
				r.names = removeString(r.names, name)
			}
			return true
		}
	}
	return false
}

func removeString(ss []string, target string) []string {
	for i, s := range ss {
		if s == target {
			return append(ss[:i], ss[i+1:]...)
		}
	}
	return ss
}

// Reset discards every registered name and version, returning the
// registry to the state New produces. Used by persistence reload,
// which rebuilds methodology state from scratch (spec §4.I: "rebuilds
// methodology, destroying any prior state first").
func (r *Methodology) Reset() {
	r.names = nil
	r.buckets = map[string]*bucket{}
}

// Names returns every registered method name in insertion order.
func (r *Methodology) Names() []string {
	return append([]string(nil), r.names...)
}

// Versions returns every version registered under name, in insertion
// (registration) order, or nil if name is unknown.
func (r *Methodology) Versions(name string) []*method.Method {
	b, ok := r.buckets[name]
	if !ok {
		return nil
	}
	return append([]*method.Method(nil), b.versions...)
}

// All returns every registered Method across every name, grouped by
// insertion order of both name and version — used by persistence save.
func (r *Methodology) All() []*method.Method {
	var out []*method.Method
	for _, name := range r.names {
		out = append(out, r.buckets[name].versions...)
	}
	return out
}
