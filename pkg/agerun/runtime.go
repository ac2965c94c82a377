// Package agerun is the public facade over the runtime: it wires the
// Methodology registry, the Agency scheduler, the Interpreter, and the
// persistence layer into one cohesive Runtime, the way go-dws's
// cmd/dwscript layer wires lexer→parser→semantic→interp into a single
// entry point per run.
package agerun

import (
	"github.com/agerun/agerun/internal/agency"
	"github.com/agerun/agerun/internal/interp"
	"github.com/agerun/agerun/internal/method"
	"github.com/agerun/agerun/internal/methodology"
	"github.com/agerun/agerun/internal/persist"
	"github.com/agerun/agerun/internal/value"
)

// Runtime is the top-level handle an embedder or the CLI drives: it
// owns one Methodology, one Agency, and the Interpreter that connects
// them to the instruction language.
type Runtime struct {
	dir    string
	meth   *methodology.Methodology
	ag     *agency.Agency
	interp *interp.Interpreter
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithDir sets the persistence directory Save/Load use (spec §6: "a
// working directory containing the two persistence files"). The zero
// value is the process's current directory.
func WithDir(dir string) Option {
	return func(r *Runtime) { r.dir = dir }
}

// New constructs a Runtime with empty Methodology and Agency state.
func New(opts ...Option) *Runtime {
	r := &Runtime{meth: methodology.New(), ag: agency.New(), dir: "."}
	r.interp = interp.New(r.meth, r.ag)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterMethod implements the method(...) instruction's top-level
// equivalent for embedders that want to bootstrap a methodology
// programmatically rather than via a running agent's own method(...)
// call.
func (r *Runtime) RegisterMethod(name, version, source string) error {
	m, err := method.New(name, version, source)
	if err != nil {
		return err
	}
	return r.meth.Register(m, r.ag)
}

// Method looks up a registered method by (name, version); version ""
// selects the latest (spec §4.F).
func (r *Runtime) Method(name, version string) *method.Method {
	return r.meth.Get(name, version)
}

// CreateAgent spawns an agent running the named method version with
// the given context (nil becomes an empty Map), returning its new id.
// Returns 0 if the method is not registered.
func (r *Runtime) CreateAgent(methodName, version string, context *value.Value) int64 {
	m := r.meth.Get(methodName, version)
	if m == nil {
		return 0
	}
	if context == nil {
		context = value.NewMap()
	}
	return r.ag.CreateAgent(m, context).ID()
}

// Send enqueues msg onto the agent named by id. Target 0 is a valid
// sink: the message is dropped and Send reports success.
func (r *Runtime) Send(id int64, msg *value.Value) bool {
	if id == 0 {
		return true
	}
	return r.ag.SendToAgent(id, msg)
}

// Agent exposes the read-only view of a live agent (memory, context,
// method, queue depth) for inspection (the CLI's `inspect` command).
func (r *Runtime) Agent(id int64) Agent {
	a := r.ag.Get(id)
	if a == nil {
		return Agent{}
	}
	return Agent{
		ID:       a.ID(),
		Method:   a.Method(),
		Memory:   a.Memory(),
		Context:  a.Context(),
		QueueLen: a.QueueLen(),
	}
}

// Agents lists every live agent id in ascending order.
func (r *Runtime) Agents() []int64 { return r.ag.AllIDs() }

// DestroyAgent destroys the agent named by id, draining its queue.
func (r *Runtime) DestroyAgent(id int64) bool { return r.ag.DestroyAgent(id) }

// MethodNames lists every registered method name in insertion order.
func (r *Runtime) MethodNames() []string { return r.meth.Names() }

// MethodVersions lists every version registered under name.
func (r *Runtime) MethodVersions(name string) []*method.Method { return r.meth.Versions(name) }

// UnregisterMethod removes a method version, after destroying every
// agent running it (spec §4.F: "callers are expected to have already
// destroyed agents holding references").
func (r *Runtime) UnregisterMethod(name, version string) bool {
	m := r.meth.Get(name, version)
	if m == nil {
		return false
	}
	for _, a := range r.ag.AgentsUsingMethod(m) {
		r.ag.DestroyAgent(a.ID())
	}
	return r.meth.Unregister(name, version)
}

// ProcessNextMessage dispatches exactly one pending message, in
// strict ascending-agent-id order (spec §4.H, §5).
func (r *Runtime) ProcessNextMessage() bool {
	return r.ag.ProcessNextMessage(r.interp)
}

// ProcessAllMessages drains the system, returning the number of
// messages processed.
func (r *Runtime) ProcessAllMessages() int {
	return r.ag.ProcessAllMessages(r.interp)
}

// Save persists methodology and agency state to the Runtime's
// directory (spec §4.I).
func (r *Runtime) Save() error {
	return persist.SaveAll(r.dir, r.meth, r.ag)
}

// Load reloads methodology and agency state from the Runtime's
// directory. A file that is present and valid replaces the matching
// current state; a missing or salvaged file leaves it unchanged.
func (r *Runtime) Load() error {
	return persist.LoadAll(r.dir, r.meth, r.ag)
}

// Agent is a read-only snapshot of a live agent's state for
// inspection, returned by Runtime.Agent.
type Agent struct {
	ID       int64
	Method   *method.Method
	Memory   *value.Value
	Context  *value.Value
	QueueLen int
}
