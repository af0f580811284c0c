package schema

import "encoding/json"

// ToolRunCommands is the single tool declared to the model: execute an
// ordered list of engine command strings, with an optional explanation shown
// to the user as the action record.
const ToolRunCommands = "run_commands"

var runCommandsParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "commands": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Engine commands to execute, in order. Later commands may reference names bound by earlier ones."
    },
    "explanation": {
      "type": "string",
      "description": "Short human-readable summary of what the commands do, in the session language."
    }
  },
  "required": ["commands"]
}`)

// RunCommandsTool returns the declared tool definition.
func RunCommandsTool() ToolDefinition {
	return ToolDefinition{
		Name:        ToolRunCommands,
		Description: "Execute a list of commands in the mathematics engine.",
		Parameters:  runCommandsParams,
	}
}
