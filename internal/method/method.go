// Package method defines the immutable (name, version, source) record
// a Methodology registers and an Agent runs (spec §3, §4.E).
package method

import "github.com/agerun/agerun/internal/diag"

const (
	// MaxNameBytes bounds a method name's length (spec §3: "name:
	// string ≤ 63 bytes").
	MaxNameBytes = 63
	// MaxSourceBytes bounds a method source's length (spec §3:
	// "source: string ≤ 16 KiB").
	MaxSourceBytes = 16 * 1024
)

// Method is an immutable named, versioned script. Once constructed its
// fields never change (spec §4.E); the Methodology registry owns the
// only copies agents are allowed to reference.
type Method struct {
	name    string
	version string
	source  string
}

// New validates and constructs a Method. It is the only way to obtain
// one: there is no mutator, matching the "never mutated" invariant.
func New(name, version, source string) (*Method, error) {
	if name == "" {
		return nil, diag.Errorf(diag.InvalidArg, "method name must not be empty")
	}
	if len(name) > MaxNameBytes {
		return nil, diag.Errorf(diag.InvalidArg, "method name exceeds %d bytes", MaxNameBytes)
	}
	if version == "" {
		return nil, diag.Errorf(diag.InvalidArg, "method version must not be empty")
	}
	if len(source) > MaxSourceBytes {
		return nil, diag.Errorf(diag.InvalidArg, "method source exceeds %d bytes", MaxSourceBytes)
	}
	return &Method{name: name, version: version, source: source}, nil
}

// Name returns the method's registered name.
func (m *Method) Name() string { return m.name }

// Version returns the method's semver string.
func (m *Method) Version() string { return m.version }

// Source returns the method's script text.
func (m *Method) Source() string { return m.source }
