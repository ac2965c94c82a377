package valuejson

import (
	"testing"

	"github.com/agerun/agerun/internal/value"
)

func TestMarshalScalars(t *testing.T) {
	cases := []struct {
		v    *value.Value
		want string
	}{
		{value.NewInt(42), "42"},
		{value.NewDouble(1.5), "1.5"},
		{value.NewString("hi"), `"hi"`},
	}
	for _, c := range cases {
		got, err := Marshal(c.v)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(got) != c.want {
			t.Errorf("Marshal(%v) = %s, want %s", c.v, got, c.want)
		}
	}
}

func TestMarshalMapAndList(t *testing.T) {
	m := value.NewMap()
	m.MapSet("name", value.NewString("ann"))
	l := value.NewList()
	l.ListAddLast(value.NewInt(1))
	l.ListAddLast(value.NewInt(2))
	m.MapSet("nums", l)

	got, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"name":"ann","nums":[1,2]}`
	if string(got) != want {
		t.Fatalf("Marshal(map) = %s, want %s", got, want)
	}
}

func TestRoundTripMapThroughJSON(t *testing.T) {
	original := value.NewMap()
	original.MapSet("name", value.NewString("ann"))
	original.MapSet("age", value.NewInt(30))
	original.MapSet("score", value.NewDouble(2.5))
	nested := value.NewMap()
	nested.MapSet("active", value.NewInt(1))
	original.MapSet("nested", nested)

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !value.Equal(original, got) {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, original)
	}
}

func TestUnmarshalRejectsInvalidJSON(t *testing.T) {
	if _, err := Unmarshal([]byte("not json")); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}

func TestUnmarshalBooleanBecomesInt(t *testing.T) {
	got, err := Unmarshal([]byte(`{"flag": true}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v := got.MapGet("flag"); v.Kind() != value.Int || v.AsInt() != 1 {
		t.Fatalf("flag = %v, want Int 1", v)
	}
}

func TestEscapesKeysContainingDots(t *testing.T) {
	m := value.NewMap()
	m.MapSet("a.b", value.NewInt(1))

	data, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v := got.MapGet("a.b"); v.AsInt() != 1 {
		t.Fatalf("a.b = %v, want Int 1", v)
	}
}
