package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/phurits/ordermind/agent/contract"
)

// FinalizeReply closes the turn, producing the graph output from state.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: turn produced no reply", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply}, nil
}
