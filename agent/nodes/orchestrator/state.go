package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/phurits/ordermind/agent/contract"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply string
}

// GraphState flows through one agent turn: validated request, model context,
// and the synthesized reply.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Context []contractx.Message

	Reply      string
	ToolRounds int
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
