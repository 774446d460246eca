package orchestratornode

import (
	"fmt"

	contractx "github.com/phurits/ordermind/agent/contract"
	memoryx "github.com/phurits/ordermind/agent/memory"
)

func AppendUserTurn(in *GraphState, memory *memoryx.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	memory.Append(in.SessionID, contractx.Turn{
		Role:    contractx.RoleUser,
		Content: in.Text,
	})
	return in, nil
}

// BuildContext assembles the model context: system policy first, then the
// bounded memory window (which already contains the new user message).
func BuildContext(in *GraphState, memory *memoryx.Store, systemPolicy string) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	turns := memory.Turns(in.SessionID)
	context := make([]contractx.Message, 0, len(turns)+1)
	context = append(context, contractx.Message{
		Role:    contractx.RoleSystem,
		Content: systemPolicy,
	})
	for _, turn := range turns {
		context = append(context, contractx.Message{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	in.Context = context
	return in, nil
}

func AppendAssistantTurn(in *GraphState, memory *memoryx.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	memory.Append(in.SessionID, contractx.Turn{
		Role:    contractx.RoleAssistant,
		Content: in.Reply,
	})
	return in, nil
}
