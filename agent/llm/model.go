package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	contractx "github.com/phurits/ordermind/agent/contract"
	metricsx "github.com/phurits/ordermind/pkg/metrics"
	openrouterx "github.com/phurits/ordermind/pkg/openrouter"
)

// Model is the production ChatModel: one Responses API call per Generate,
// with the tool catalogue bound as function tools.
type Model struct {
	client          *openaisdk.Client
	model           string
	temperature     float64
	maxOutputTokens int64
	tools           []responses.ToolUnionParam
	metrics         *metricsx.Metrics
}

var _ contractx.ChatModel = (*Model)(nil)

func New(client *openaisdk.Client, cfg openrouterx.Config, specs []contractx.ToolSpec, m *metricsx.Metrics) (*Model, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		return nil, fmt.Errorf("%w: model name is required", contractx.ErrValidation)
	}

	return &Model{
		client:          client,
		model:           modelName,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxCompletionToken,
		tools:           convertTools(specs),
		metrics:         m,
	}, nil
}

func (m *Model) Generate(ctx context.Context, messages []contractx.Message) (contractx.Message, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(m.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertMessages(messages),
		},
	}
	if m.maxOutputTokens > 0 {
		params.MaxOutputTokens = openaisdk.Int(m.maxOutputTokens)
	}
	if m.temperature > 0 {
		params.Temperature = openaisdk.Float(m.temperature)
	}
	if len(m.tools) > 0 {
		params.Tools = m.tools
	}

	start := time.Now()
	result, err := m.client.Responses.New(ctx, params)
	m.metrics.ObserveModelLatency(time.Since(start))
	if err != nil {
		return contractx.Message{}, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	msg := contractx.Message{
		Role:    contractx.RoleAssistant,
		Content: result.OutputText(),
	}
	for _, item := range result.Output {
		if item.Type != "function_call" {
			continue
		}
		id := item.CallID
		if id == "" {
			id = item.ID
		}
		msg.ToolCalls = append(msg.ToolCalls, contractx.ToolCall{
			ID:        id,
			Name:      item.Name,
			Arguments: item.Arguments,
		})
	}
	return msg, nil
}

func convertMessages(messages []contractx.Message) responses.ResponseInputParam {
	input := make(responses.ResponseInputParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case contractx.RoleSystem:
			input = append(input, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleSystem))
		case contractx.RoleUser:
			input = append(input, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser))
		case contractx.RoleAssistant:
			if msg.Content != "" {
				input = append(input, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
			}
			for _, call := range msg.ToolCalls {
				input = append(input, responses.ResponseInputItemParamOfFunctionCall(call.Arguments, call.ID, call.Name))
			}
		case contractx.RoleTool:
			input = append(input, responses.ResponseInputItemParamOfFunctionCallOutput(msg.ToolCallID, msg.Content))
		}
	}
	return input
}

func convertTools(specs []contractx.ToolSpec) []responses.ToolUnionParam {
	tools := make([]responses.ToolUnionParam, len(specs))
	for i, spec := range specs {
		tools[i] = responses.ToolParamOfFunction(spec.Name, ensureObjectType(spec.Parameters), false)
		if spec.Description != "" {
			function := tools[i].OfFunction
			function.Description = openaisdk.String(spec.Description)
			tools[i].OfFunction = function
		}
	}
	return tools
}

func ensureObjectType(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{"type": "object"}
	}
	if _, hasType := params["type"]; !hasType {
		params["type"] = "object"
	}
	return params
}
