package contract

// Action is the closed set of operations the todo tool accepts.
type Action string

const (
	ActionAdd      Action = "add"
	ActionList     Action = "list"
	ActionComplete Action = "complete"
	ActionDelete   Action = "delete"
)

// Valid reports whether a is one of the declared tool actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionList, ActionComplete, ActionDelete:
		return true
	}
	return false
}

// TodoRequest is a structured tool invocation extracted from a model
// response. It is built per model turn and never persisted.
type TodoRequest struct {
	Action Action `json:"action"`
	Task   string `json:"task,omitempty"`
	TaskID int64  `json:"task_id,omitempty"`
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// ModelResponse is the outcome of one model call: free text, a tool
// call, or both. Both fields empty means the model produced no usable
// output, which callers must treat as "no answer", not as an error.
type ModelResponse struct {
	Text     string
	ToolCall *ToolCall
}

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation sent to the model. A RoleTool
// message carries the ToolCall it answers plus the JSON-encoded result
// in Content; the model adapter expands it into whatever echo/result
// pair the wire protocol requires.
type Message struct {
	Role     Role
	Content  string
	ToolCall *ToolCall
}

// ToolDefinition declares a callable capability to the model, expressed
// as a JSON-schema parameter object so adapters can map it onto their
// SDK's native tool type.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// RetrievedChunk is one context snippet returned by the retriever, in
// retrieval-rank order (most relevant first).
type RetrievedChunk struct {
	Content string
	Source  string
	Score   float64
}

// Answer is the final product of one question: the model's text plus
// the source labels of the retrieved context it was grounded on.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
