package agerun

import (
	"testing"

	"github.com/agerun/agerun/internal/value"
)

func TestRuntimeRegisterAndCreateAgent(t *testing.T) {
	r := New()
	if err := r.RegisterMethod("echo", "1.0.0", "send(0, message)"); err != nil {
		t.Fatalf("RegisterMethod: %v", err)
	}
	id := r.CreateAgent("echo", "", nil)
	if id == 0 {
		t.Fatal("expected a non-zero agent id")
	}
	if got := r.Agent(id).ID; got != id {
		t.Fatalf("Agent(%d).ID = %d", id, got)
	}
}

func TestRuntimeCreateAgentUnknownMethodReturnsZero(t *testing.T) {
	r := New()
	if id := r.CreateAgent("ghost", "", nil); id != 0 {
		t.Fatalf("CreateAgent with unknown method = %d, want 0", id)
	}
}

func TestRuntimeSendToZeroIsASink(t *testing.T) {
	r := New()
	if !r.Send(0, value.NewInt(1)) {
		t.Fatal("Send to agent 0 should report success")
	}
}

func TestRuntimeProcessAllMessagesDrainsWake(t *testing.T) {
	r := New()
	r.RegisterMethod("echo", "1.0.0", "send(0, message)")
	r.CreateAgent("echo", "", nil)
	if n := r.ProcessAllMessages(); n != 1 {
		t.Fatalf("ProcessAllMessages = %d, want 1", n)
	}
	if r.ProcessNextMessage() {
		t.Fatal("expected no more pending messages")
	}
}

func TestRuntimeUnregisterMethodDestroysDependentAgents(t *testing.T) {
	r := New()
	r.RegisterMethod("echo", "1.0.0", "send(0, message)")
	id := r.CreateAgent("echo", "", nil)
	if !r.UnregisterMethod("echo", "1.0.0") {
		t.Fatal("UnregisterMethod should succeed")
	}
	if r.Agent(id).Method != nil {
		t.Fatal("expected the dependent agent to have been destroyed")
	}
}

func TestRuntimeSaveLoadRoundTripsState(t *testing.T) {
	dir := t.TempDir()
	r := New(WithDir(dir))
	r.RegisterMethod("echo", "1.0.0", "send(0, message)")
	id := r.CreateAgent("echo", "", nil)
	r.ProcessAllMessages()
	r.Agent(id).Memory.MapSet("seen", value.NewInt(1))

	if err := r.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r2 := New(WithDir(dir))
	if err := r2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	restored := r2.Agent(id)
	if restored.Method == nil {
		t.Fatal("expected the agent to survive Save/Load")
	}
	if got := restored.Memory.MapGet("seen").AsInt(); got != 1 {
		t.Fatalf("restored memory.seen = %d, want 1", got)
	}
}

func TestRuntimeMethodNamesAndVersions(t *testing.T) {
	r := New()
	r.RegisterMethod("echo", "1.0.0", "send(0, message)")
	r.RegisterMethod("echo", "1.1.0", "send(0, message)")
	names := r.MethodNames()
	if len(names) != 1 || names[0] != "echo" {
		t.Fatalf("MethodNames = %v", names)
	}
	if got := r.MethodVersions("echo"); len(got) != 2 {
		t.Fatalf("MethodVersions = %d, want 2", len(got))
	}
}

func TestRuntimeDestroyAgent(t *testing.T) {
	r := New()
	r.RegisterMethod("echo", "1.0.0", "send(0, message)")
	id := r.CreateAgent("echo", "", nil)
	if !r.DestroyAgent(id) {
		t.Fatal("DestroyAgent should succeed")
	}
	if r.DestroyAgent(id) {
		t.Fatal("DestroyAgent on an already-destroyed agent should fail")
	}
}
