package engine

import (
	"context"
	"testing"
)

func exec(t *testing.T, e *MemoryEngine, cmd string) {
	t.Helper()
	if err := e.ExecuteCommand(context.Background(), cmd); err != nil {
		t.Fatalf("ExecuteCommand(%q): %v", cmd, err)
	}
}

// ─── ExecuteCommand ────────────────────────────────────────────────────────

func TestExecuteCommand_BindsAssignment(t *testing.T) {
	e := NewMemoryEngine("graphing")
	exec(t, e, "a := 1")

	v, err := e.ObjectValue(context.Background(), "a")
	if err != nil {
		t.Fatalf("ObjectValue: %v", err)
	}
	if v != "1" {
		t.Errorf("expected %q, got %q", "1", v)
	}
}

func TestExecuteCommand_RebindKeepsOrder(t *testing.T) {
	e := NewMemoryEngine("graphing")
	exec(t, e, "a := 1")
	exec(t, e, "b := 2")
	exec(t, e, "a := 3")

	names, _ := e.ObjectNames(context.Background())
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected [a b], got %v", names)
	}
	v, _ := e.ObjectValue(context.Background(), "a")
	if v != "3" {
		t.Errorf("expected rebound value 3, got %q", v)
	}
}

func TestExecuteCommand_FunctionDefinitionBindsBareName(t *testing.T) {
	e := NewMemoryEngine("graphing")
	exec(t, e, "f(x) := x^2")

	v, err := e.ObjectValue(context.Background(), "f")
	if err != nil {
		t.Fatalf("expected object bound under bare name: %v", err)
	}
	if v != "x^2" {
		t.Errorf("expected %q, got %q", "x^2", v)
	}
}

func TestExecuteCommand_NonAssignmentOnlyLogged(t *testing.T) {
	e := NewMemoryEngine("graphing")
	exec(t, e, "ZoomIn(2)")

	names, _ := e.ObjectNames(context.Background())
	if len(names) != 0 {
		t.Errorf("non-assignment must not bind objects, got %v", names)
	}
	log := e.CommandLog()
	if len(log) != 1 || log[0] != "ZoomIn(2)" {
		t.Errorf("unexpected command log: %v", log)
	}
}

func TestExecuteCommand_BlankRejected(t *testing.T) {
	e := NewMemoryEngine("graphing")
	if err := e.ExecuteCommand(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank command")
	}
	if len(e.CommandLog()) != 0 {
		t.Error("blank command must not be logged")
	}
}

func TestObjectValue_Undefined(t *testing.T) {
	e := NewMemoryEngine("graphing")
	if _, err := e.ObjectValue(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for undefined object")
	}
}

// ─── SetMode ───────────────────────────────────────────────────────────────

func TestSetMode(t *testing.T) {
	e := NewMemoryEngine("graphing")
	if err := e.SetMode(context.Background(), "geometry"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if e.Mode() != "geometry" {
		t.Errorf("expected geometry, got %q", e.Mode())
	}
	if err := e.SetMode(context.Background(), "astrology"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if e.Mode() != "geometry" {
		t.Errorf("failed SetMode must not change mode, got %q", e.Mode())
	}
}

func TestNewMemoryEngine_UnknownModeFallsBack(t *testing.T) {
	e := NewMemoryEngine("nope")
	if e.Mode() != DefaultMode {
		t.Errorf("expected %q, got %q", DefaultMode, e.Mode())
	}
}

// ─── BoundName / splitAssignment ───────────────────────────────────────────

func TestBoundName(t *testing.T) {
	cases := []struct {
		cmd  string
		want string
	}{
		{"a := 1", "a"},
		{"f(x) := x^2", "f"},
		{"  p := (1, 2)  ", "p"},
		{"ZoomIn(2)", ""},
		{":= 5", ""},
		{"a :=", ""},
		{"two words := 1", ""},
	}
	for _, tc := range cases {
		if got := BoundName(tc.cmd); got != tc.want {
			t.Errorf("BoundName(%q) = %q, want %q", tc.cmd, got, tc.want)
		}
	}
}

// ─── Mode registry ─────────────────────────────────────────────────────────

func TestFindMode_CaseInsensitive(t *testing.T) {
	if FindMode("Graphing") == nil {
		t.Error("expected case-insensitive match")
	}
	if FindMode("astrology") != nil {
		t.Error("expected nil for unknown mode")
	}
}

func TestResolveMode_Fallback(t *testing.T) {
	if got := ResolveMode("").Name; got != DefaultMode {
		t.Errorf("expected %q, got %q", DefaultMode, got)
	}
	if !ResolveMode("cas").PersistentResults {
		t.Error("cas should keep persistent results")
	}
	if ResolveMode("scientific").PersistentResults {
		t.Error("scientific must not keep persistent results")
	}
}
