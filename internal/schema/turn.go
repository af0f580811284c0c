// Package schema contains the core contracts shared across tangent packages.
// Concrete implementations live in their respective packages; this package is
// the single canonical source of truth for every shared type and interface.
package schema

import "time"

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a conversation transcript: a user utterance or one
// piece of the assistant's reaction to it.
//
// Action marks the entry as an action record: the assistant executed engine
// commands rather than only replying with prose.
//
// Turns are appended to an ordered transcript and never mutated or removed.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Action    bool      `json:"action,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserTurn creates a user turn with Timestamp set to now.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text, Timestamp: time.Now()}
}

// NewAssistantTurn creates a plain assistant prose turn.
func NewAssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text, Timestamp: time.Now()}
}

// NewActionTurn creates an assistant turn marked as an action record.
func NewActionTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text, Action: true, Timestamp: time.Now()}
}
