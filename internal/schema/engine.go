package schema

import "context"

// Engine is the adapter contract for the external mathematics engine.
// All four operations are fallible; callers must tolerate an absent adapter
// (nil Engine) by degrading to an empty snapshot and skipped dispatch.
type Engine interface {
	// ObjectNames enumerates all currently-defined named objects.
	ObjectNames(ctx context.Context) ([]string, error)
	// ObjectValue reads the display value of a named object.
	ObjectValue(ctx context.Context, name string) (string, error)
	// ExecuteCommand runs one command string in engine-native syntax.
	// The command is not validated here; the engine reports failures.
	ExecuteCommand(ctx context.Context, command string) error
	// SetMode switches the engine's active mode/perspective.
	SetMode(ctx context.Context, mode string) error
}

// ObjectEntry is one named object and its display value.
type ObjectEntry struct {
	Name  string
	Value string
}

// EngineSnapshot is a textual summary of the engine's named objects,
// rebuilt fresh on every turn so the model's context stays accurate.
type EngineSnapshot struct {
	Entries []ObjectEntry
}

// NoObjectsMarker is rendered when the engine holds no objects or is
// unavailable, so the model is never shown an empty context block.
const NoObjectsMarker = "(no objects defined)"

// Render formats the snapshot as one "name = value" line per object.
func (s EngineSnapshot) Render() string {
	if len(s.Entries) == 0 {
		return NoObjectsMarker
	}
	out := ""
	for i, e := range s.Entries {
		if i > 0 {
			out += "\n"
		}
		out += e.Name + " = " + e.Value
	}
	return out
}
