package tool

import "genia/assistant/contract"

// Name is the single capability advertised to the model.
const Name = "todo_tool"

// Definition declares the todo tool's schema: action is the only
// required field, task and task_id disambiguate the target.
func Definition() contract.ToolDefinition {
	return contract.ToolDefinition{
		Name:        Name,
		Description: "Manage the user's todo list",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action": map[string]any{
					"type": "string",
					"enum": []string{"add", "list", "complete", "delete"},
				},
				"task": map[string]any{
					"type":        "string",
					"description": "Task text, or a free-text reference to an existing task",
				},
				"task_id": map[string]any{
					"type":        "integer",
					"description": "Explicit task identifier; overrides fuzzy matching",
				},
			},
			"required": []string{"action"},
		},
	}
}
