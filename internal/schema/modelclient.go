package schema

import (
	"context"
	"encoding/json"
)

// ToolInvocation is one action request emitted by the model: an ordered batch
// of engine command strings plus an optional human-readable explanation.
// Produced by a ModelClient, consumed exactly once by the bridge within the
// same turn.
type ToolInvocation struct {
	Commands    []string
	Explanation string
}

// ToolDefinition declares one callable tool to the model in OpenAI
// function-calling terms. Parameters holds the raw JSON Schema.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToWireMap serialises the definition into the OpenAI wire-format map.
func (d ToolDefinition) ToWireMap() map[string]any {
	var params any
	if err := json.Unmarshal(d.Parameters, &params); err != nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"parameters":  params,
		},
	}
}

// ModelRequest is one outbound conversation request: fixed system
// instructions, a context block describing current engine state, the user's
// text, and the declared tool set.
type ModelRequest struct {
	System   string
	Context  string
	UserText string
	Tools    []ToolDefinition
}

// ModelResponse is the normalised result of one model call. Text is empty
// when the model produced no prose; Invocations preserves the model's
// emission order and may be empty.
type ModelResponse struct {
	Text        string
	Invocations []ToolInvocation
}

// HasInvocations reports whether the response contains at least one
// tool invocation.
func (r ModelResponse) HasInvocations() bool { return len(r.Invocations) > 0 }

// ModelClient translates one conversation request into exactly one remote
// call and normalises the result. Implementations never retry and never
// touch the engine; all transport, auth, and malformed-response conditions
// surface as errors wrapping ErrModelUnavailable.
type ModelClient interface {
	Respond(ctx context.Context, req ModelRequest) (ModelResponse, error)
}
