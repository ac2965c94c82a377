// Package agent implements the Agent data holder of spec §4.G: an id,
// a borrowed method reference, an owned memory Map, a borrowed
// context, a FIFO message queue, and an active flag.
package agent

import (
	"github.com/agerun/agerun/internal/method"
	"github.com/agerun/agerun/internal/value"
)

// Sentinel lifecycle messages (spec §6), ordinary Strings the method
// is free to handle or ignore.
const (
	Wake  = "__wake__"
	Sleep = "__sleep__"
)

// Agent is a pure data holder; the Agency owns creation/destruction
// and the Interpreter is the only thing that mutates Memory.
type Agent struct {
	id      int64
	method  *method.Method // borrowed reference into the Methodology
	memory  *value.Value   // owned Map
	context *value.Value   // borrowed, may be nil
	queue   []*value.Value // owned FIFO
	active  bool
}

// New constructs an Agent already carrying the implicit __wake__
// message spec §3 promises every newly created agent.
func New(id int64, m *method.Method, context *value.Value) *Agent {
	a := &Agent{
		id:      id,
		method:  m,
		memory:  value.NewMap(),
		context: context,
		active:  true,
	}
	a.queue = append(a.queue, value.NewString(Wake))
	return a
}

// Restore reconstructs an Agent from persisted state: a specific id,
// method reference, context, and memory tree, with an empty queue and
// no implicit __wake__ (spec §9's persistence extension: a reloaded
// agent resumes where it left off rather than waking again).
func Restore(id int64, m *method.Method, context, memory *value.Value) *Agent {
	return &Agent{id: id, method: m, memory: memory, context: context, active: true}
}

// ID returns the agent's immutable identifier.
func (a *Agent) ID() int64 { return a.id }

// Memory returns the agent's mutable memory Map.
func (a *Agent) Memory() *value.Value { return a.memory }

// Context returns the agent's borrowed context, or nil.
func (a *Agent) Context() *value.Value { return a.context }

// Method returns the agent's current method reference.
func (a *Agent) Method() *method.Method { return a.method }

// Active reports whether the agent is marked active.
func (a *Agent) Active() bool { return a.active }

// SetActive updates the active flag.
func (a *Agent) SetActive(active bool) { a.active = active }

// HasMessages reports whether the queue is non-empty.
func (a *Agent) HasMessages() bool { return len(a.queue) > 0 }

// QueueLen reports the number of pending messages.
func (a *Agent) QueueLen() int { return len(a.queue) }

// Send enqueues msg, transferring ownership (spec §4.G).
func (a *Agent) Send(msg *value.Value) {
	a.queue = append(a.queue, msg)
}

// GetMessage dequeues and returns ownership of the head message, or
// nil if the queue is empty.
func (a *Agent) GetMessage() *value.Value {
	if len(a.queue) == 0 {
		return nil
	}
	head := a.queue[0]
	a.queue = a.queue[1:]
	return head
}

// DrainMessages discards all remaining queued messages, as happens
// when the Agency destroys an agent (spec §3: "destruction drains and
// drops any remaining queued messages").
func (a *Agent) DrainMessages() {
	a.queue = nil
}

// UpdateMethod swaps the agent's method reference. When
// sendLifecycle is true it enqueues __sleep__ before the swap and
// __wake__ after, per spec §4.G; when false it swaps silently and
// enqueues nothing.
func (a *Agent) UpdateMethod(newMethod *method.Method, sendLifecycle bool) {
	if sendLifecycle {
		a.Send(value.NewString(Sleep))
	}
	a.method = newMethod
	if sendLifecycle {
		a.Send(value.NewString(Wake))
	}
}
