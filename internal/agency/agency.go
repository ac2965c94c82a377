// Package agency implements the Agency scheduler of spec §4.H: the
// registry of live agents, id allocation, FIFO-fair message dispatch,
// and the bulk operations (update_agent_methods, destroy-by-method)
// the Interpreter and Methodology need to drive lifecycle events.
package agency

import (
	"sort"

	"github.com/agerun/agerun/internal/agent"
	"github.com/agerun/agerun/internal/method"
	"github.com/agerun/agerun/internal/value"
)

// Dispatcher runs a single instruction-language message handler
// against an agent's (memory, context, message) environment. The
// Interpreter implements this; Agency only depends on the shape so it
// can stay free of an import cycle with interp.
type Dispatcher interface {
	RunMethod(a *agent.Agent, m *method.Method, msg *value.Value) error
}

// Agency owns every live Agent and the monotonic id counter used to
// create new ones (spec §4.H).
type Agency struct {
	agents map[int64]*agent.Agent
	nextID int64
}

// New constructs an empty Agency with id allocation starting at 1,
// matching ar_agency's default.
func New() *Agency {
	return &Agency{agents: map[int64]*agent.Agent{}, nextID: 1}
}

// CreateAgent allocates a new id, constructs an Agent running m with
// the given (borrowed) context, and registers it. The implicit
// __wake__ message is queued by agent.New itself.
func (a *Agency) CreateAgent(m *method.Method, context *value.Value) *agent.Agent {
	id := a.nextID
	a.nextID++
	ag := agent.New(id, m, context)
	a.agents[id] = ag
	return ag
}

// DestroyAgent removes id from the registry, draining its remaining
// messages. Returns false if id does not name a live agent.
func (a *Agency) DestroyAgent(id int64) bool {
	ag, ok := a.agents[id]
	if !ok {
		return false
	}
	ag.DrainMessages()
	delete(a.agents, id)
	return true
}

// Get returns the agent registered under id, or nil.
func (a *Agency) Get(id int64) *agent.Agent { return a.agents[id] }

// Count reports how many agents are currently registered.
func (a *Agency) Count() int { return len(a.agents) }

// SendToAgent transfers ownership of msg onto id's queue. Returns
// false if id does not name a live agent — the caller (send(0, ...) in
// the Interpreter) is responsible for treating id==0 as a valid "no
// sink" target distinct from this failure.
func (a *Agency) SendToAgent(id int64, msg *value.Value) bool {
	ag, ok := a.agents[id]
	if !ok {
		return false
	}
	ag.Send(msg)
	return true
}

// ids returns every registered agent id in ascending order, the fixed
// dispatch order spec §5 requires ("agents are scanned lowest-id
// first; no round-robin fairness is attempted").
func (a *Agency) ids() []int64 {
	ids := make([]int64, 0, len(a.agents))
	for id := range a.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ProcessNextMessage scans agents lowest-id-first for the first one
// with a pending message, dequeues exactly one, and dispatches it
// through d. Returns false if no agent has a pending message.
func (a *Agency) ProcessNextMessage(d Dispatcher) bool {
	for _, id := range a.ids() {
		ag := a.agents[id]
		if !ag.Active() || !ag.HasMessages() {
			continue
		}
		msg := ag.GetMessage()
		_ = d.RunMethod(ag, ag.Method(), msg)
		return true
	}
	return false
}

// ProcessAllMessages repeatedly calls ProcessNextMessage until the
// queue is dry, returning the number of messages processed (spec §4.H,
// §8: "process_all_messages drains the system and returns the count").
func (a *Agency) ProcessAllMessages(d Dispatcher) int {
	n := 0
	for a.ProcessNextMessage(d) {
		n++
	}
	return n
}

// UpdateAgentMethods moves every agent currently running oldM onto
// newM, sending the lifecycle pair (__sleep__, __wake__) to each (spec
// §4.F: "method upgrade notifies every running instance"). Agents
// running any other method are untouched. Returns the number of agents
// updated.
func (a *Agency) UpdateAgentMethods(oldM, newM *method.Method) int {
	n := 0
	for _, id := range a.ids() {
		ag := a.agents[id]
		if ag.Method() == oldM {
			ag.UpdateMethod(newM, true)
			n++
		}
	}
	return n
}

// AgentsUsingMethod returns, in ascending id order, every agent
// currently running m — used by destroy(name, version) to notify and
// tear down every live instance of a method being unregistered.
func (a *Agency) AgentsUsingMethod(m *method.Method) []*agent.Agent {
	var out []*agent.Agent
	for _, id := range a.ids() {
		ag := a.agents[id]
		if ag.Method() == m {
			out = append(out, ag)
		}
	}
	return out
}

// Restore registers an agent reconstructed by persistence reload under
// its original id, bypassing id allocation. The caller is responsible
// for calling SetNextID afterwards so future CreateAgent calls don't
// collide with restored ids.
func (a *Agency) Restore(ag *agent.Agent) {
	a.agents[ag.ID()] = ag
}

// Reset discards every registered agent and restarts id allocation at
// 1, returning the Agency to the state New produces. Used by
// persistence reload, which rebuilds agent state from scratch.
func (a *Agency) Reset() {
	a.agents = map[int64]*agent.Agent{}
	a.nextID = 1
}

// SetNextID overrides the id counter, used by persistence reload to
// resume allocation above the highest id found in the saved file.
func (a *Agency) SetNextID(next int64) { a.nextID = next }

// NextID reports the id that would be assigned to the next created agent.
func (a *Agency) NextID() int64 { return a.nextID }

// AllIDs returns every registered agent id in ascending order, for
// listing and persistence.
func (a *Agency) AllIDs() []int64 { return a.ids() }
