package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tangentchat/tangent/internal/engine"
	"github.com/tangentchat/tangent/internal/schema"
)

// ─── systemInstructions ────────────────────────────────────────────────────

func TestSystemInstructions_PersistentMode(t *testing.T) {
	got := systemInstructions(ResolveLocale("en"), *engine.FindMode("graphing"))
	if !strings.Contains(got, "Graphing") {
		t.Errorf("expected mode display name, got %q", got)
	}
	if !strings.Contains(got, "Reply only in English.") {
		t.Errorf("expected language directive, got %q", got)
	}
	if !strings.Contains(got, ":=") {
		t.Errorf("persistent mode should carry the assignment directive, got %q", got)
	}
}

func TestSystemInstructions_ScientificMode(t *testing.T) {
	got := systemInstructions(ResolveLocale("de"), *engine.FindMode("scientific"))
	if strings.Contains(got, ":=") {
		t.Errorf("scientific mode must not carry the assignment directive, got %q", got)
	}
	if !strings.Contains(got, "German") {
		t.Errorf("expected German directive, got %q", got)
	}
}

// ─── buildSnapshot ─────────────────────────────────────────────────────────

func TestBuildSnapshot_NilEngine(t *testing.T) {
	snap := buildSnapshot(context.Background(), nil)
	if snap.Render() != schema.NoObjectsMarker {
		t.Errorf("expected marker, got %q", snap.Render())
	}
}

func TestBuildSnapshot_ReadsInOrder(t *testing.T) {
	eng := engine.NewMemoryEngine("graphing")
	eng.ExecuteCommand(context.Background(), "a := 1")
	eng.ExecuteCommand(context.Background(), "b := a + 1")

	snap := buildSnapshot(context.Background(), eng)
	want := "a = 1\nb = a + 1"
	if snap.Render() != want {
		t.Errorf("expected %q, got %q", want, snap.Render())
	}
}

// failingEngine errors on every call.
type failingEngine struct{}

func (failingEngine) ObjectNames(context.Context) ([]string, error) {
	return nil, errors.New("gone")
}
func (failingEngine) ObjectValue(context.Context, string) (string, error) {
	return "", errors.New("gone")
}
func (failingEngine) ExecuteCommand(context.Context, string) error { return errors.New("gone") }
func (failingEngine) SetMode(context.Context, string) error        { return errors.New("gone") }

func TestBuildSnapshot_EngineFailureYieldsEmpty(t *testing.T) {
	snap := buildSnapshot(context.Background(), failingEngine{})
	if snap.Render() != schema.NoObjectsMarker {
		t.Errorf("expected empty snapshot on failure, got %q", snap.Render())
	}
}

// ─── Locales ───────────────────────────────────────────────────────────────

func TestResolveLocale_ExactAndRegion(t *testing.T) {
	if got := ResolveLocale("de").Code; got != "de" {
		t.Errorf("expected de, got %q", got)
	}
	if got := ResolveLocale("pt-BR").Code; got != "pt" {
		t.Errorf("expected region subtag stripped to pt, got %q", got)
	}
}

func TestResolveLocale_UnknownFallsBack(t *testing.T) {
	if got := ResolveLocale("tlh").Code; got != DefaultLanguage {
		t.Errorf("expected fallback to %q, got %q", DefaultLanguage, got)
	}
	if got := ResolveLocale("").Code; got != DefaultLanguage {
		t.Errorf("expected fallback for empty code, got %q", got)
	}
}

func TestLocales_AllComplete(t *testing.T) {
	for _, code := range Languages() {
		loc := ResolveLocale(code)
		if loc.Name == "" || loc.ActionFallback == "" || loc.ErrorReply == "" || loc.BusyNotice == "" {
			t.Errorf("locale %q has empty fields: %+v", code, loc)
		}
	}
}
