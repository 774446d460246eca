package contract

import "context"

// ChatModel is the inference boundary: a full prompt in, either a final text
// message or a message carrying tool calls out.
type ChatModel interface {
	Generate(ctx context.Context, messages []Message) (Message, error)
}

// ToolGateway dispatches one validated tool invocation. Validation and policy
// outcomes come back inside ToolResult; a non-nil error means infrastructure
// failure (store unreachable) and aborts the turn.
type ToolGateway interface {
	Specs() []ToolSpec
	Execute(ctx context.Context, req ToolRequest) (ToolResult, error)
}
