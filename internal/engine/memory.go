package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// AssignOp is the engine's assignment operator. A command containing it
// binds the name on its left-hand side to the definition on the right.
const AssignOp = ":="

// MemoryEngine is an in-process engine adapter. It records assignment
// commands as named objects without evaluating them: the display value of an
// object is its definition text verbatim. Non-assignment commands are kept
// in a command log only.
//
// Used by the CLI REPL and the chat channels, where no browser applet is
// attached, and by tests.
type MemoryEngine struct {
	mu      sync.Mutex
	order   []string          // insertion order of object names
	objects map[string]string // name -> definition text
	log     []string          // every executed command, in order
	mode    string
}

// NewMemoryEngine creates an empty MemoryEngine in the given mode.
// An empty or unknown mode falls back to DefaultMode.
func NewMemoryEngine(mode string) *MemoryEngine {
	return &MemoryEngine{
		objects: make(map[string]string),
		mode:    ResolveMode(mode).Name,
	}
}

// ObjectNames returns all defined object names in insertion order.
func (e *MemoryEngine) ObjectNames(_ context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.order))
	copy(names, e.order)
	return names, nil
}

// ObjectValue returns the definition text bound to name.
func (e *MemoryEngine) ObjectValue(_ context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.objects[name]
	if !ok {
		return "", fmt.Errorf("object %q not defined", name)
	}
	return v, nil
}

// ExecuteCommand records command. Assignments (name := definition) bind or
// rebind the named object; anything else is appended to the command log.
// Blank commands are rejected.
func (e *MemoryEngine) ExecuteCommand(_ context.Context, command string) error {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return fmt.Errorf("blank command")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, cmd)

	lhs, def, ok := splitAssignment(cmd)
	if !ok {
		return nil
	}
	name := objectName(lhs)
	if _, exists := e.objects[name]; !exists {
		e.order = append(e.order, name)
	}
	e.objects[name] = def
	return nil
}

// SetMode switches the active mode. Unknown modes are rejected.
func (e *MemoryEngine) SetMode(_ context.Context, mode string) error {
	spec := FindMode(mode)
	if spec == nil {
		return fmt.Errorf("unknown mode %q", mode)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = spec.Name
	return nil
}

// Mode returns the active mode name.
func (e *MemoryEngine) Mode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// CommandLog returns a copy of every command executed so far.
func (e *MemoryEngine) CommandLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.log))
	copy(out, e.log)
	return out
}

// splitAssignment splits "name := definition" and reports whether cmd is a
// well-formed assignment: a non-empty single-token name and a non-empty
// definition.
func splitAssignment(cmd string) (name, def string, ok bool) {
	i := strings.Index(cmd, AssignOp)
	if i < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(cmd[:i])
	def = strings.TrimSpace(cmd[i+len(AssignOp):])
	if name == "" || def == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	return name, def, true
}

// BoundName returns the object name an assignment command binds, or ""
// when cmd is not an assignment. Function definitions like "f(x) := x^2"
// bind the bare function name. Used by the bridge to re-read newly bound
// names after a dispatch batch.
func BoundName(cmd string) string {
	lhs, _, ok := splitAssignment(strings.TrimSpace(cmd))
	if !ok {
		return ""
	}
	return objectName(lhs)
}

// objectName reduces an assignment left-hand side to the bare object name:
// "f(x)" becomes "f", plain names pass through.
func objectName(lhs string) string {
	if i := strings.Index(lhs, "("); i > 0 {
		return lhs[:i]
	}
	return lhs
}
