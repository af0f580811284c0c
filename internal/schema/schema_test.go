package schema

import (
	"encoding/json"
	"testing"
)

// ─── EngineSnapshot ────────────────────────────────────────────────────────

func TestSnapshotRender_Empty(t *testing.T) {
	var snap EngineSnapshot
	if got := snap.Render(); got != NoObjectsMarker {
		t.Errorf("expected marker, got %q", got)
	}
}

func TestSnapshotRender_Entries(t *testing.T) {
	snap := EngineSnapshot{Entries: []ObjectEntry{
		{Name: "a", Value: "1"},
		{Name: "f", Value: "x^2"},
	}}
	want := "a = 1\nf = x^2"
	if got := snap.Render(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// ─── Turns ─────────────────────────────────────────────────────────────────

func TestTurnConstructors(t *testing.T) {
	u := NewUserTurn("hi")
	if u.Role != RoleUser || u.Action || u.Timestamp.IsZero() {
		t.Errorf("unexpected user turn %+v", u)
	}
	a := NewAssistantTurn("hello")
	if a.Role != RoleAssistant || a.Action {
		t.Errorf("unexpected assistant turn %+v", a)
	}
	act := NewActionTurn("did it")
	if act.Role != RoleAssistant || !act.Action {
		t.Errorf("unexpected action turn %+v", act)
	}
}

// ─── Tool definition ───────────────────────────────────────────────────────

func TestRunCommandsTool_WireMap(t *testing.T) {
	wire := RunCommandsTool().ToWireMap()
	if wire["type"] != "function" {
		t.Errorf("expected function type, got %v", wire["type"])
	}
	fn, ok := wire["function"].(map[string]any)
	if !ok {
		t.Fatalf("missing function block: %v", wire)
	}
	if fn["name"] != ToolRunCommands {
		t.Errorf("unexpected tool name %v", fn["name"])
	}

	params, ok := fn["parameters"].(map[string]any)
	if !ok {
		t.Fatalf("parameters not a decoded object: %v", fn["parameters"])
	}
	props, _ := params["properties"].(map[string]any)
	if props["commands"] == nil {
		t.Error("schema must declare the commands property")
	}
	required, _ := params["required"].([]any)
	if len(required) != 1 || required[0] != "commands" {
		t.Errorf("only commands should be required, got %v", required)
	}
}

func TestToWireMap_BadSchemaFallsBack(t *testing.T) {
	d := ToolDefinition{Name: "x", Parameters: json.RawMessage("{broken")}
	wire := d.ToWireMap()
	fn := wire["function"].(map[string]any)
	params, ok := fn["parameters"].(map[string]any)
	if !ok || params["type"] != "object" {
		t.Errorf("expected empty object schema fallback, got %v", fn["parameters"])
	}
}
