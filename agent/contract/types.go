package contract

// Role identifies the author of a message in the model context.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the model context. Assistant messages may carry
// tool calls; tool messages carry the result for a specific call id.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a model-issued request to invoke a named tool. Arguments is the
// raw JSON object produced by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec describes one callable tool to the model. Parameters is a JSON
// Schema object. Tool names and argument field names are part of the wire
// contract between orchestrator and model; do not rename without versioning.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is fed back to the model as structured data. Validation and
// policy outcomes travel in Error/Result, never as Go errors, so the model
// can relay them and retry with corrected arguments.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Turn is one conversation entry kept in the per-session memory window.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
