package schema

// SessionConfig carries the per-turn session settings owned by the
// presentation layer: the display language the assistant must reply in and
// the engine's active mode/perspective. Read-only inputs to prompt
// construction; the bridge never mutates them.
type SessionConfig struct {
	Language string `json:"language"`
	Mode     string `json:"mode"`
}
