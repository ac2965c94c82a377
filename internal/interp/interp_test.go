package interp

import (
	"errors"
	"testing"

	"github.com/agerun/agerun/internal/agency"
	"github.com/agerun/agerun/internal/diag"
	"github.com/agerun/agerun/internal/method"
	"github.com/agerun/agerun/internal/methodology"
	"github.com/agerun/agerun/internal/value"
)

func newFixture(t *testing.T) (*Interpreter, *methodology.Methodology, *agency.Agency) {
	t.Helper()
	m := methodology.New()
	a := agency.New()
	return New(m, a), m, a
}

func mustMethod(t *testing.T, name, version, source string) *method.Method {
	t.Helper()
	meth, err := method.New(name, version, source)
	if err != nil {
		t.Fatalf("method.New: %v", err)
	}
	return meth
}

func TestAssignmentStoresOwnedLiteral(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.x := 1 + 2`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	msg := a.GetMessage() // the implicit __wake__

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := a.Memory().MapGet("x").AsInt(); got != 3 {
		t.Fatalf("memory.x = %d, want 3", got)
	}
}

func TestAssignmentOfBareMemoryAliasFails(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.x := message`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	msg := value.NewString("hello")

	err := ip.RunMethod(a, a.Method(), msg)
	if !errors.Is(err, diag.ErrRuntimeFailure) {
		t.Fatalf("got %v, want ErrRuntimeFailure", err)
	}
}

func TestSendDropsOnTargetZero(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.result := send(0, message)`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	msg := value.NewString("payload")

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := a.Memory().MapGet("result").AsInt(); got != 1 {
		t.Fatalf("result = %d, want 1", got)
	}
}

func TestSendMovesMessageToTargetAgent(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.result := send(memory.target, "hi")`)
	meth.Register(m, ag)

	target := ag.CreateAgent(m, nil)
	target.GetMessage() // drain its own wake

	sender := ag.CreateAgent(m, nil)
	sender.Memory().MapSet("target", value.NewInt(target.ID()))
	msg := sender.GetMessage()

	if err := ip.RunMethod(sender, sender.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := sender.Memory().MapGet("result").AsInt(); got != 1 {
		t.Fatalf("result = %d, want 1", got)
	}
	if !target.HasMessages() {
		t.Fatal("target agent should have received the message")
	}
	if got := target.GetMessage().AsString(); got != "hi" {
		t.Fatalf("delivered message = %q, want hi", got)
	}
}

func TestIfSelectsBranchAndDegradesBorrowedMap(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.result := if(1, memory.sub, 0)`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	sub := value.NewMap()
	sub.MapSet("a", value.NewInt(1))
	a.Memory().MapSet("sub", sub)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	result := a.Memory().MapGet("result")
	if result.Kind() != value.Int || result.AsInt() != 0 {
		t.Fatalf("borrowed Map branch should degrade to Int 0, got %v %v", result.Kind(), result.AsInt())
	}
}

func TestIfSelectsScalarBranchAndDeepCopiesBorrow(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.result := if(0, 1, memory.fallback)`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	a.Memory().MapSet("fallback", value.NewString("default"))
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := a.Memory().MapGet("result").AsString(); got != "default" {
		t.Fatalf("result = %q, want default", got)
	}
}

func TestParseExtractsTypedFields(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.fields := parse("user:{name} age:{age}", "user:ann age:30")`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	fields := a.Memory().MapGet("fields")
	if got := fields.MapGet("name").AsString(); got != "ann" {
		t.Fatalf("name = %q, want ann", got)
	}
	if got := fields.MapGet("age").AsInt(); got != 30 {
		t.Fatalf("age = %d, want 30", got)
	}
}

func TestParseLiteralMismatchYieldsEmptyMap(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.fields := parse("user:{name}", "nope")`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := a.Memory().MapGet("fields").Keys(); len(got.AsList()) != 0 {
		t.Fatalf("expected empty map on mismatch, got %d keys", len(got.AsList()))
	}
}

func TestBuildSubstitutesAndLeavesMissingPlaceholder(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", `memory.text := build("hi {name}, you are {age}", memory.fields)`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	fields := value.NewMap()
	fields.MapSet("name", value.NewString("ann"))
	a.Memory().MapSet("fields", fields)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	want := "hi ann, you are {age}"
	if got := a.Memory().MapGet("text").AsString(); got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestMethodRegistersWithIntVersionCoercion(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "bootstrap", "1.0.0", `memory.ok := method("greeter", "send(0, message)", 1)`)
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := a.Memory().MapGet("ok").AsInt(); got != 1 {
		t.Fatalf("ok = %d, want 1", got)
	}
	if got := meth.Get("greeter", "1.0.0"); got == nil {
		t.Fatal("greeter 1.0.0 should be registered")
	}
}

func TestAgentCreatesWithClonedContext(t *testing.T) {
	ip, meth, ag := newFixture(t)
	greeter := mustMethod(t, "greeter", "1.0.0", `memory.noop := 1`)
	meth.Register(greeter, ag)

	bootstrap := mustMethod(t, "bootstrap", "1.0.0",
		`memory.new_id := agent("greeter", "1.0.0", memory.ctx)`)
	meth.Register(bootstrap, ag)
	a := ag.CreateAgent(bootstrap, nil)
	ctx := value.NewMap()
	ctx.MapSet("seed", value.NewInt(7))
	a.Memory().MapSet("ctx", ctx)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	newID := a.Memory().MapGet("new_id").AsInt()
	if newID == 0 {
		t.Fatal("agent() should have returned a nonzero id")
	}
	child := ag.Get(newID)
	if child == nil {
		t.Fatal("new agent should be registered with the agency")
	}
	if got := child.Context().MapGet("seed").AsInt(); got != 7 {
		t.Fatalf("child context seed = %d, want 7", got)
	}
	// mutating the caller's context map must not affect the child's clone
	ctx.MapSet("seed", value.NewInt(99))
	if got := child.Context().MapGet("seed").AsInt(); got != 7 {
		t.Fatalf("child context should be an independent clone, got %d", got)
	}
}

func TestDestroyAgentByID(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "bootstrap", "1.0.0", `memory.ok := destroy(memory.target)`)
	meth.Register(m, ag)
	victim := ag.CreateAgent(m, nil)
	a := ag.CreateAgent(m, nil)
	a.Memory().MapSet("target", value.NewInt(victim.ID()))
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := a.Memory().MapGet("ok").AsInt(); got != 1 {
		t.Fatalf("ok = %d, want 1", got)
	}
	if ag.Get(victim.ID()) != nil {
		t.Fatal("victim agent should have been destroyed")
	}
}

func TestDestroyMethodNotifiesAndUnregisters(t *testing.T) {
	ip, meth, ag := newFixture(t)
	greeter := mustMethod(t, "greeter", "1.0.0", `memory.noop := 1`)
	meth.Register(greeter, ag)
	instance := ag.CreateAgent(greeter, nil)
	instance.GetMessage() // drain wake

	bootstrap := mustMethod(t, "bootstrap", "1.0.0", `memory.ok := destroy("greeter", "1.0.0")`)
	meth.Register(bootstrap, ag)
	a := ag.CreateAgent(bootstrap, nil)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := a.Memory().MapGet("ok").AsInt(); got != 1 {
		t.Fatalf("ok = %d, want 1", got)
	}
	if ag.Get(instance.ID()) != nil {
		t.Fatal("every agent running the unregistered method should be destroyed")
	}
	if meth.Get("greeter", "1.0.0") != nil {
		t.Fatal("method should be unregistered")
	}
}

func TestRunMethodStopsOnLineFailureWithoutDestroyingAgent(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", "memory.ok := 1\nmemory.bad := memory.missing\nmemory.unreached := 2")
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err == nil {
		t.Fatal("expected a runtime failure from the missing path")
	}
	if got := a.Memory().MapGet("ok").AsInt(); got != 1 {
		t.Fatalf("lines before the failure should still have run, ok = %d", got)
	}
	if a.Memory().MapGet("unreached") != nil {
		t.Fatal("lines after the failure should not have run")
	}
	if ag.Get(a.ID()) == nil {
		t.Fatal("a line failure should not destroy the agent")
	}
}

func TestSkipsBlankAndCommentLines(t *testing.T) {
	ip, meth, ag := newFixture(t)
	m := mustMethod(t, "echo", "1.0.0", "\n  # a comment\nmemory.x := 5\n")
	meth.Register(m, ag)
	a := ag.CreateAgent(m, nil)
	msg := a.GetMessage()

	if err := ip.RunMethod(a, a.Method(), msg); err != nil {
		t.Fatalf("RunMethod: %v", err)
	}
	if got := a.Memory().MapGet("x").AsInt(); got != 5 {
		t.Fatalf("x = %d, want 5", got)
	}
}
