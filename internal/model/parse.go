package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tangentchat/tangent/internal/schema"
)

// openAIRespBody is the subset of the OpenAI chat completion response we care about.
type openAIRespBody struct {
	Choices []struct {
		Message struct {
			Content   any `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseOpenAIResponse(raw []byte) (schema.ModelResponse, error) {
	var body openAIRespBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return schema.ModelResponse{}, fmt.Errorf("parse OpenAI response: %w", err)
	}
	if len(body.Choices) == 0 {
		return schema.ModelResponse{}, fmt.Errorf("empty choices in response")
	}

	msg := body.Choices[0].Message

	var out schema.ModelResponse
	if s, ok := msg.Content.(string); ok {
		out.Text = s
	}

	for _, tc := range msg.ToolCalls {
		args, err := repairJSON(tc.Function.Arguments)
		if err != nil {
			slog.Warn("unparseable tool arguments", "tool", tc.Function.Name, "err", err)
			continue
		}
		if inv, ok := normalizeInvocation(tc.Function.Name, args); ok {
			out.Invocations = append(out.Invocations, inv)
		}
	}
	return out, nil
}

// anthropicRespBody models the Anthropic Messages API response.
type anthropicRespBody struct {
	Content []struct {
		Type  string         `json:"type"`
		Text  string         `json:"text"`  // type=text
		Name  string         `json:"name"`  // type=tool_use
		Input map[string]any `json:"input"` // type=tool_use
	} `json:"content"`
}

func parseAnthropicResponse(raw []byte) (schema.ModelResponse, error) {
	var body anthropicRespBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return schema.ModelResponse{}, fmt.Errorf("parse Anthropic response: %w", err)
	}

	var out schema.ModelResponse
	for _, block := range body.Content {
		switch block.Type {
		case "text":
			out.Text += block.Text
		case "tool_use":
			if inv, ok := normalizeInvocation(block.Name, block.Input); ok {
				out.Invocations = append(out.Invocations, inv)
			}
		}
	}
	return out, nil
}

// normalizeInvocation converts raw tool-call arguments into a ToolInvocation.
// Calls to unknown tools, or calls whose "commands" field is not a list of
// strings, are dropped with a warning rather than treated as fatal.
func normalizeInvocation(name string, args map[string]any) (schema.ToolInvocation, bool) {
	if name != schema.ToolRunCommands {
		slog.Warn("ignoring call to undeclared tool", "tool", name)
		return schema.ToolInvocation{}, false
	}

	rawCmds, ok := args["commands"].([]any)
	if !ok {
		slog.Warn("ignoring invocation: commands is not a list", "tool", name)
		return schema.ToolInvocation{}, false
	}

	inv := schema.ToolInvocation{Commands: make([]string, 0, len(rawCmds))}
	for _, c := range rawCmds {
		s, ok := c.(string)
		if !ok {
			slog.Warn("ignoring invocation: non-string command", "tool", name)
			return schema.ToolInvocation{}, false
		}
		inv.Commands = append(inv.Commands, s)
	}
	if expl, ok := args["explanation"].(string); ok {
		inv.Explanation = expl
	}
	return inv, true
}

// repairJSON attempts to unmarshal JSON arguments, retrying after stripping
// trailing garbage. Handles models that emit truncated tool arguments.
func repairJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	// Attempt 1: trim trailing non-JSON characters.
	stripped := strings.TrimRight(raw, " \t\n\r}]")
	if !strings.HasSuffix(stripped, "}") {
		stripped += "}"
	}
	if err := json.Unmarshal([]byte(stripped), &out); err == nil {
		return out, nil
	}

	// Attempt 2: find the last complete JSON object.
	if i := strings.LastIndex(raw, "}"); i >= 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &out); err == nil {
			return out, nil
		}
	}

	return nil, fmt.Errorf("cannot repair JSON: %s", raw)
}
