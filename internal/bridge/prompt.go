package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tangentchat/tangent/internal/engine"
	"github.com/tangentchat/tangent/internal/schema"
)

// systemInstructions builds the fixed per-turn system prompt from the
// session language and the engine's active mode.
func systemInstructions(loc Locale, mode engine.ModeSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are tangent, an assistant panel next to an interactive mathematics engine, currently in %s mode.\n", mode.DisplayName)
	sb.WriteString("When the user asks for something the engine can do, call the run_commands tool with commands in the engine's native syntax. Answer questions that need no engine action in prose.\n")
	fmt.Fprintf(&sb, "Reply only in %s.\n", loc.Name)
	if mode.PersistentResults {
		fmt.Fprintf(&sb, "The %s mode keeps named, persistent results. Use assignment syntax (name := expression) instead of bare expressions so every result stays addressable by name.\n", mode.DisplayName)
	}
	return sb.String()
}

// contextBlock renders the engine snapshot for the model.
func contextBlock(snap schema.EngineSnapshot) string {
	return "Current engine objects:\n" + snap.Render()
}

// buildSnapshot reads the engine's named objects and their display values.
// Rebuilt fresh every turn, never cached. An absent or failing engine yields
// an empty snapshot (rendered as the no-objects marker) instead of failing
// the turn.
func buildSnapshot(ctx context.Context, eng schema.Engine) schema.EngineSnapshot {
	var snap schema.EngineSnapshot
	if eng == nil {
		return snap
	}
	names, err := eng.ObjectNames(ctx)
	if err != nil {
		slog.Warn("engine snapshot failed", "err", err)
		return snap
	}
	for _, name := range names {
		value, err := eng.ObjectValue(ctx, name)
		if err != nil {
			slog.Warn("engine object read failed", "object", name, "err", err)
			continue
		}
		snap.Entries = append(snap.Entries, schema.ObjectEntry{Name: name, Value: value})
	}
	return snap
}
