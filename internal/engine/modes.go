// Package engine provides engine-mode metadata and the in-process engine
// implementation used by the CLI, the chat channels, and tests. The
// browser-applet adapter lives in the gateway package.
package engine

import "strings"

// ModeSpec is the metadata record for one engine mode/perspective.
type ModeSpec struct {
	// Name is the canonical mode identifier used in config and commands.
	Name string
	// DisplayName is shown in `tangent status` and prompt text.
	DisplayName string
	// PersistentResults reports whether the mode keeps named, addressable
	// results. When set, the model is instructed to use assignment syntax
	// (name := expression) instead of bare expressions, and the bridge
	// re-reads newly bound names after a command batch.
	PersistentResults bool
}

// modes is the registry. Order = display priority.
var modes = []ModeSpec{
	{Name: "graphing", DisplayName: "Graphing", PersistentResults: true},
	{Name: "geometry", DisplayName: "Geometry", PersistentResults: true},
	{Name: "cas", DisplayName: "CAS", PersistentResults: true},
	{Name: "3d", DisplayName: "3D Graphing", PersistentResults: true},
	{Name: "scientific", DisplayName: "Scientific", PersistentResults: false},
}

// DefaultMode is used when config names no mode or an unknown one.
const DefaultMode = "graphing"

// FindMode returns the spec for name (case-insensitive), or nil.
func FindMode(name string) *ModeSpec {
	n := strings.ToLower(strings.TrimSpace(name))
	for i := range modes {
		if modes[i].Name == n {
			return &modes[i]
		}
	}
	return nil
}

// ResolveMode returns the spec for name, falling back to DefaultMode.
func ResolveMode(name string) ModeSpec {
	if s := FindMode(name); s != nil {
		return *s
	}
	return *FindMode(DefaultMode)
}

// ModeNames returns the canonical names of all registered modes.
func ModeNames() []string {
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.Name
	}
	return names
}
