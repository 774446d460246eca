package orchestratornode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/phurits/ordermind/agent/contract"
)

// maxToolRounds bounds tool-call chaining within a single turn. The usual
// shape is one round: tool call, result fed back, final synthesis.
const maxToolRounds = 4

// InvokeModel runs the inference loop: generate, and while the model requests
// tool calls, dispatch them through the gateway and feed the structured
// results back until the model produces a final text reply. The orchestrator
// never interprets tool results itself.
func InvokeModel(
	ctx context.Context,
	in *GraphState,
	model contractx.ChatModel,
	tools contractx.ToolGateway,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	messages := append([]contractx.Message(nil), in.Context...)

	for round := 0; ; round++ {
		msg, err := model.Generate(ctx, messages)
		if err != nil {
			return nil, err
		}

		if len(msg.ToolCalls) == 0 {
			reply := strings.TrimSpace(msg.Content)
			if reply == "" {
				return nil, fmt.Errorf("%w: model returned an empty reply", contractx.ErrSchemaViolation)
			}
			in.Reply = reply
			in.ToolRounds = round
			return in, nil
		}

		if round >= maxToolRounds {
			return nil, fmt.Errorf("%w: tool budget exhausted after %d rounds", contractx.ErrSchemaViolation, round)
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			result, err := dispatchToolCall(ctx, tools, call)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("%w: encode tool result: %v", contractx.ErrValidation, err)
			}
			messages = append(messages, contractx.Message{
				Role:       contractx.RoleTool,
				ToolCallID: call.ID,
				Content:    string(payload),
			})
		}
	}
}

func dispatchToolCall(
	ctx context.Context,
	tools contractx.ToolGateway,
	call contractx.ToolCall,
) (contractx.ToolResult, error) {
	name := strings.TrimSpace(call.Name)
	if name == "" {
		return contractx.ToolResult{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
	}

	args := map[string]any{}
	rawArgs := strings.TrimSpace(call.Arguments)
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			// Malformed arguments are the model's mistake; report them back
			// as data so it can correct itself.
			return contractx.ToolResult{
				Tool:  name,
				Error: fmt.Sprintf("invalid tool arguments: %v", err),
			}, nil
		}
	}

	return tools.Execute(ctx, contractx.ToolRequest{Tool: name, Args: args})
}
