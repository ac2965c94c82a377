package value

import "testing"

func TestConstructorsAndAccessors(t *testing.T) {
	if got := NewInt(42).AsInt(); got != 42 {
		t.Fatalf("AsInt() = %d, want 42", got)
	}
	if got := NewDouble(3.5).AsDouble(); got != 3.5 {
		t.Fatalf("AsDouble() = %v, want 3.5", got)
	}
	if got := NewString("hi").AsString(); got != "hi" {
		t.Fatalf("AsString() = %q, want %q", got, "hi")
	}
}

func TestAccessorTypeMismatchReturnsNeutralDefault(t *testing.T) {
	s := NewString("not an int")
	if got := s.AsInt(); got != 0 {
		t.Fatalf("AsInt() on String = %d, want 0", got)
	}
	if got := s.AsDouble(); got != 0 {
		t.Fatalf("AsDouble() on String = %v, want 0", got)
	}
	i := NewInt(5)
	if got := i.AsString(); got != "" {
		t.Fatalf("AsString() on Int = %q, want empty", got)
	}
}

func TestNilValueIsNeutral(t *testing.T) {
	var v *Value
	if v.Kind() != Int {
		t.Fatalf("nil.Kind() = %v, want Int", v.Kind())
	}
	if v.AsInt() != 0 || v.AsString() != "" || v.AsDouble() != 0 {
		t.Fatalf("nil accessors did not return neutral defaults")
	}
}

func TestMapSetGetRoundTrip(t *testing.T) {
	m := NewMap()
	if err := m.MapSet("x", NewInt(14)); err != nil {
		t.Fatalf("MapSet: %v", err)
	}
	got := m.MapGet("x")
	if got.AsInt() != 14 {
		t.Fatalf("MapGet(x) = %v, want 14", got)
	}

	// Replacing a key drops the old child and installs the new one.
	if err := m.MapSet("x", NewString("now a string")); err != nil {
		t.Fatalf("MapSet replace: %v", err)
	}
	if got := m.MapGet("x").AsString(); got != "now a string" {
		t.Fatalf("MapGet(x) after replace = %q", got)
	}
}

func TestMapSetOnNonMapFails(t *testing.T) {
	i := NewInt(1)
	if err := i.MapSet("x", NewInt(2)); err == nil {
		t.Fatal("MapSet on non-Map should fail")
	}
}

func TestDeepPathSetGet(t *testing.T) {
	root := NewMap()
	inner := NewMap()
	root.MapSet("user", inner) //nolint:errcheck

	if err := SetMapData(root, "user.name", NewString("Alice")); err != nil {
		t.Fatalf("SetMapData: %v", err)
	}
	got, err := GetMapData(root, "user.name")
	if err != nil {
		t.Fatalf("GetMapData: %v", err)
	}
	if got.AsString() != "Alice" {
		t.Fatalf("GetMapData = %q, want Alice", got.AsString())
	}
}

func TestDeepPathDoesNotAutoCreateIntermediates(t *testing.T) {
	root := NewMap()
	if err := SetMapData(root, "user.name", NewString("Alice")); err == nil {
		t.Fatal("SetMapData should fail when an intermediate Map is missing")
	}
}

func TestDeepPathMissingReturnsError(t *testing.T) {
	root := NewMap()
	if _, err := GetMapData(root, "missing.path"); err == nil {
		t.Fatal("GetMapData on a missing path should fail")
	}
}

func TestListMutators(t *testing.T) {
	l := NewList()
	l.ListAddLast(NewInt(1))  //nolint:errcheck
	l.ListAddLast(NewInt(2))  //nolint:errcheck
	l.ListAddFirst(NewInt(0)) //nolint:errcheck

	got := l.AsList()
	if len(got) != 3 || got[0].AsInt() != 0 || got[1].AsInt() != 1 || got[2].AsInt() != 2 {
		t.Fatalf("unexpected list contents: %v", got)
	}

	first := l.ListRemoveFirst()
	if first.AsInt() != 0 {
		t.Fatalf("ListRemoveFirst() = %v, want 0", first.AsInt())
	}
	last := l.ListRemoveLast()
	if last.AsInt() != 2 {
		t.Fatalf("ListRemoveLast() = %v, want 2", last.AsInt())
	}
	if len(l.AsList()) != 1 {
		t.Fatalf("list should have one element left, got %d", len(l.AsList()))
	}
}

func TestListRemoveOnEmptyReturnsNil(t *testing.T) {
	l := NewList()
	if l.ListRemoveFirst() != nil || l.ListRemoveLast() != nil {
		t.Fatal("removing from an empty list should return nil")
	}
}

func TestKeysPreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.MapSet("b", NewInt(1)) //nolint:errcheck
	m.MapSet("a", NewInt(2)) //nolint:errcheck
	m.MapSet("c", NewInt(3)) //nolint:errcheck

	keys := m.Keys().AsList()
	want := []string{"b", "a", "c"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() length = %d, want %d", len(keys), len(want))
	}
	for i, k := range want {
		if keys[i].AsString() != k {
			t.Fatalf("Keys()[%d] = %q, want %q", i, keys[i].AsString(), k)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewMap()
	inner := NewList()
	inner.ListAddLast(NewInt(1)) //nolint:errcheck
	m.MapSet("items", inner)     //nolint:errcheck

	clone := m.Clone()
	clone.MapGet("items").ListAddLast(NewInt(2)) //nolint:errcheck

	if len(m.MapGet("items").AsList()) != 1 {
		t.Fatal("mutating a clone must not affect the original")
	}
	if len(clone.MapGet("items").AsList()) != 2 {
		t.Fatal("clone mutation did not apply")
	}
}

func TestEqual(t *testing.T) {
	a := NewMap()
	a.MapSet("x", NewInt(1)) //nolint:errcheck
	b := a.Clone()
	if !Equal(a, b) {
		t.Fatal("clone should be structurally equal to original")
	}
	b.MapSet("x", NewInt(2)) //nolint:errcheck
	if Equal(a, b) {
		t.Fatal("values with different content should not be equal")
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    *Value
		want bool
	}{
		{NewInt(0), false},
		{NewInt(1), true},
		{NewDouble(0), false},
		{NewDouble(0.1), true},
		{NewString(""), false},
		{NewString("x"), true},
		{NewList(), false},
		{NewMap(), false},
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestFormatNumeric(t *testing.T) {
	if got := FormatNumeric(NewInt(42)); got != "42" {
		t.Errorf("FormatNumeric(Int) = %q, want 42", got)
	}
	if got := FormatNumeric(NewDouble(3.5)); got != "3.50" {
		t.Errorf("FormatNumeric(Double) = %q, want 3.50", got)
	}
}
