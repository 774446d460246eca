package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/phurits/ordermind/agent/contract"
	greetingx "github.com/phurits/ordermind/agent/greeting"
	memoryx "github.com/phurits/ordermind/agent/memory"
	nodex "github.com/phurits/ordermind/agent/nodes/orchestrator"
	"github.com/phurits/ordermind/pkg/metrics"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Orchestrator struct {
	memory *memoryx.Store
	model  contractx.ChatModel
	tools  contractx.ToolGateway

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	systemPolicy string
	metrics      *metrics.Metrics

	now func() time.Time
}

func New(
	model contractx.ChatModel,
	tools contractx.ToolGateway,
	memory *memoryx.Store,
	systemPolicy string,
	m *metrics.Metrics,
) (*Orchestrator, error) {
	if model == nil {
		return nil, errors.New("chat model is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if memory == nil {
		memory = memoryx.NewStore(memoryx.DefaultMaxTurns)
	}
	if strings.TrimSpace(systemPolicy) == "" {
		return nil, errors.New("system policy is required")
	}

	o := &Orchestrator{
		memory:       memory,
		model:        model,
		tools:        tools,
		systemPolicy: systemPolicy,
		metrics:      m,
		now:          time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one conversational turn. Greetings short-circuit with a
// canned reply and never touch memory, the model, or the tool gateway.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrInvalidMessage
	}

	if greetingx.Match(text) {
		o.metrics.ObserveTurn("greeting")
		return greetingx.Reply, nil
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		o.metrics.ObserveTurn("error")
		log.Error().Err(err).Str("session_id", sessionID).Msg("agent turn failed")
		return "", err
	}

	o.metrics.ObserveTurn("ok")
	return out.Reply, nil
}
