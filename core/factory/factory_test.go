package factory

import (
	"strings"
	"testing"
)

type sample struct{ Limit int }

type sampleConf struct {
	Limit int `json:"limit"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("sample", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{Limit: c.Limit}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "sample", Conf: map[string]any{"limit": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Limit != 3 {
		t.Fatalf("expected 3 got %d", inst.Limit)
	}
}

// Test duplicate registration, empty names and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("", func(map[string]any) (int, error) { return 3, nil }); err == nil {
		t.Fatal("expected empty name error")
	}
	if err := reg.Register("nilfac", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	_, err := reg.Create(ModuleConfig{Type: "y"})
	if err == nil {
		t.Fatal("expected unknown type error")
	}
	if !strings.Contains(err.Error(), `unknown type "y"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry_Types(t *testing.T) {
	reg := NewRegistry[string]()
	for _, name := range []string{"b", "a", "c"} {
		n := name
		if err := reg.Register(n, func(map[string]any) (string, error) { return n, nil }); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	got := reg.Types()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("types: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("types not sorted: %v", got)
		}
	}
}
