// Package interp implements the Interpreter of spec §4.D: it runs one
// method's source against one dispatched message, dispatching each
// parsed instruction.Instruction to the operation it names and
// threading the resulting owned/borrowed Value back into memory when
// the instruction has an assignment target.
package interp

import (
	"fmt"
	"strings"

	"github.com/agerun/agerun/internal/agency"
	"github.com/agerun/agerun/internal/agent"
	"github.com/agerun/agerun/internal/diag"
	"github.com/agerun/agerun/internal/expr"
	"github.com/agerun/agerun/internal/instruction"
	"github.com/agerun/agerun/internal/method"
	"github.com/agerun/agerun/internal/methodology"
	"github.com/agerun/agerun/internal/value"
)

// Interpreter ties the Methodology and Agency together so that the
// functional instruction forms (method, agent, destroy) can reach the
// registries they mutate. It implements agency.Dispatcher.
type Interpreter struct {
	meth *methodology.Methodology
	ag   *agency.Agency
}

// New constructs an Interpreter over the given registries.
func New(m *methodology.Methodology, a *agency.Agency) *Interpreter {
	return &Interpreter{meth: m, ag: a}
}

// RunMethod implements agency.Dispatcher: it tokenizes m's source by
// newline, trims each line, skips blanks and '#' comments, and runs
// the remaining lines sequentially against a's memory and context
// and the dispatched msg. Any line failure stops execution for this message
// and is reported as a failure; the agent itself is left untouched
// (spec §4.D: "does not destroy the agent").
func (ip *Interpreter) RunMethod(a *agent.Agent, m *method.Method, msg *value.Value) error {
	lines := strings.Split(m.Source(), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inst, err := instruction.Parse(line, i+1)
		if err != nil {
			return err
		}
		if err := ip.run(inst, a, msg); err != nil {
			return err
		}
	}
	return nil
}

// run executes a single parsed instruction against a's memory/context
// and the dispatched msg, storing the result to inst.Target if present.
func (ip *Interpreter) run(inst *instruction.Instruction, a *agent.Agent, msg *value.Value) error {
	env := expr.Env{Memory: a.Memory(), Context: a.Context(), Message: msg}

	var result *value.Value
	if inst.IsAssign {
		res, err := expr.Eval(inst.Expr, env)
		if err != nil {
			return err
		}
		owned, ok := res.TakeOwnership()
		if !ok {
			return diag.Errorf(diag.RuntimeFailure,
				"assignment requires an owned value; a bare memory/context/message reference cannot be aliased directly")
		}
		result = owned
	} else {
		v, err := ip.runFuncCall(inst, a, env)
		if err != nil {
			return err
		}
		result = v
	}

	if inst.HasTarget {
		return value.SetMapData(env.Memory, inst.Target, result)
	}
	return nil
}

func (ip *Interpreter) runFuncCall(inst *instruction.Instruction, a *agent.Agent, env expr.Env) (*value.Value, error) {
	switch inst.Func {
	case instruction.Send:
		return ip.doSend(inst.Args, env)
	case instruction.If:
		return ip.doIf(inst.Args, env)
	case instruction.Parse:
		return ip.doParse(inst.Args, env)
	case instruction.Build:
		return ip.doBuild(inst.Args, env)
	case instruction.Method:
		return ip.doMethod(inst.Args, env)
	case instruction.Agent:
		return ip.doAgent(inst.Args, env)
	case instruction.Destroy:
		return ip.doDestroy(inst.Args, env)
	default:
		return nil, diag.Errorf(diag.RuntimeFailure, "unknown instruction function %q", inst.Func)
	}
}

// doSend implements send(target, msg) (spec §4.D). Target 0 is a
// valid sink: the message is dropped and the call still reports
// success. A borrowed msg (the evaluator never produced ownership of
// it) is the same ownership limitation assignment hits: the send
// simply is not performed and reports failure, not an error.
func (ip *Interpreter) doSend(args []*expr.Node, env expr.Env) (*value.Value, error) {
	targetRes, err := expr.Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	msgRes, err := expr.Eval(args[1], env)
	if err != nil {
		return nil, err
	}

	id := targetRes.Value().AsInt()
	if id == 0 {
		return value.NewInt(1), nil
	}

	msg, ok := msgRes.TakeOwnership()
	if !ok {
		return value.NewInt(0), nil
	}
	if ip.ag.SendToAgent(id, msg) {
		return value.NewInt(1), nil
	}
	return value.NewInt(0), nil
}

// doIf implements if(cond, t, f) (spec §4.D): both branches are
// evaluated, then the selected one is returned as an owned value,
// deep-copying a borrowed scalar or degrading a borrowed Map/List to
// Int 0 (the source's acknowledged limitation).
func (ip *Interpreter) doIf(args []*expr.Node, env expr.Env) (*value.Value, error) {
	condRes, err := expr.Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	tRes, err := expr.Eval(args[1], env)
	if err != nil {
		return nil, err
	}
	fRes, err := expr.Eval(args[2], env)
	if err != nil {
		return nil, err
	}

	selected := fRes
	if value.Truthy(condRes.Value()) {
		selected = tRes
	}

	if owned, ok := selected.TakeOwnership(); ok {
		return owned, nil
	}
	switch selected.Value().Kind() {
	case value.Map, value.List:
		return value.NewInt(0), nil
	default:
		return selected.Value().Clone(), nil
	}
}

// doParse implements parse(template, input) (spec §4.D).
func (ip *Interpreter) doParse(args []*expr.Node, env expr.Env) (*value.Value, error) {
	tplRes, err := expr.Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	inputRes, err := expr.Eval(args[1], env)
	if err != nil {
		return nil, err
	}
	return matchTemplate(tplRes.Value().AsString(), inputRes.Value().AsString()), nil
}

// doBuild implements build(template, values) (spec §4.D).
func (ip *Interpreter) doBuild(args []*expr.Node, env expr.Env) (*value.Value, error) {
	tplRes, err := expr.Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	valuesRes, err := expr.Eval(args[1], env)
	if err != nil {
		return nil, err
	}
	return substituteTemplate(tplRes.Value().AsString(), valuesRes.Value()), nil
}

// doMethod implements method(name, source, version) (spec §4.D).
func (ip *Interpreter) doMethod(args []*expr.Node, env expr.Env) (*value.Value, error) {
	nameRes, err := expr.Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	sourceRes, err := expr.Eval(args[1], env)
	if err != nil {
		return nil, err
	}
	versionRes, err := expr.Eval(args[2], env)
	if err != nil {
		return nil, err
	}

	m, err := method.New(nameRes.Value().AsString(), versionString(versionRes.Value()), sourceRes.Value().AsString())
	if err != nil {
		return value.NewInt(0), nil
	}
	if err := ip.meth.Register(m, ip.ag); err != nil {
		return value.NewInt(0), nil
	}
	return value.NewInt(1), nil
}

// doAgent implements agent(method-name, version, context) (spec §4.D).
func (ip *Interpreter) doAgent(args []*expr.Node, env expr.Env) (*value.Value, error) {
	nameRes, err := expr.Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	versionRes, err := expr.Eval(args[1], env)
	if err != nil {
		return nil, err
	}
	contextRes, err := expr.Eval(args[2], env)
	if err != nil {
		return nil, err
	}

	m := ip.meth.Get(nameRes.Value().AsString(), versionString(versionRes.Value()))
	if m == nil {
		return value.NewInt(0), nil
	}

	var ctx *value.Value
	if cv := contextRes.Value(); cv.IsMap() {
		ctx = cv.Clone()
	} else {
		ctx = value.NewMap()
	}

	a := ip.ag.CreateAgent(m, ctx)
	return value.NewInt(a.ID()), nil
}

// doDestroy implements both destroy(id) and destroy(name, version)
// (spec §4.D), distinguished by argument count.
func (ip *Interpreter) doDestroy(args []*expr.Node, env expr.Env) (*value.Value, error) {
	switch len(args) {
	case 1:
		idRes, err := expr.Eval(args[0], env)
		if err != nil {
			return nil, err
		}
		if ip.ag.DestroyAgent(idRes.Value().AsInt()) {
			return value.NewInt(1), nil
		}
		return value.NewInt(0), nil

	case 2:
		nameRes, err := expr.Eval(args[0], env)
		if err != nil {
			return nil, err
		}
		versionRes, err := expr.Eval(args[1], env)
		if err != nil {
			return nil, err
		}
		name := nameRes.Value().AsString()
		version := versionRes.Value().AsString()

		m := ip.meth.Get(name, version)
		if m == nil {
			return value.NewInt(0), nil
		}
		for _, victim := range ip.ag.AgentsUsingMethod(m) {
			victim.Send(value.NewString(agent.Sleep))
			ip.ag.DestroyAgent(victim.ID())
		}
		ip.meth.Unregister(name, version)
		return value.NewInt(1), nil

	default:
		return nil, diag.Errorf(diag.RuntimeFailure, "destroy(...) expects 1 or 2 arguments, got %d", len(args))
	}
}

// versionString implements spec §4.D's "version String or Int (Int N
// formatted as \"N.0.0\")" coercion, shared by method() and agent().
func versionString(v *value.Value) string {
	if v.Kind() == value.Int {
		return fmt.Sprintf("%d.0.0", v.AsInt())
	}
	return v.AsString()
}
