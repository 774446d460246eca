package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	contractx "github.com/phurits/ordermind/agent/contract"
	storex "github.com/phurits/ordermind/agent/store"
	metricsx "github.com/phurits/ordermind/pkg/metrics"
)

const (
	ToolCreateOrder       = "create_order"
	ToolGetOrderStatus    = "get_order_status"
	ToolOrdersForCustomer = "orders_for_customer"
	ToolCountOrders       = "count_orders"
	ToolOrdersByStatus    = "orders_by_status"
	ToolDeleteOrder       = "delete_order"
)

type handler func(ctx context.Context, args map[string]any) (any, error)

type entry struct {
	spec   contractx.ToolSpec
	handle handler
}

// Registry is the fixed catalogue of model-callable operations. Every tool
// validates its arguments before any mutation and persists only through the
// order store; validation and policy outcomes are data, not errors.
type Registry struct {
	store   storex.OrderStore
	metrics *metricsx.Metrics

	now        func() time.Time
	newOrderID func() string

	entries map[string]entry
	names   []string
}

var _ contractx.ToolGateway = (*Registry)(nil)

// Option customizes the Registry. Clock and id generation are injectable for
// tests.
type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func WithOrderIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newOrderID = gen
		}
	}
}

func NewRegistry(st storex.OrderStore, m *metricsx.Metrics, opts ...Option) (*Registry, error) {
	if st == nil {
		return nil, errors.New("order store is required")
	}

	r := &Registry{
		store:   st,
		metrics: m,
		now:     time.Now,
		newOrderID: func() string {
			return "O-" + uuid.NewString()
		},
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	r.register(createOrderSpec(), r.createOrder)
	r.register(getOrderStatusSpec(), r.getOrderStatus)
	r.register(ordersForCustomerSpec(), r.ordersForCustomer)
	r.register(countOrdersSpec(), r.countOrders)
	r.register(ordersByStatusSpec(), r.ordersByStatus)
	r.register(deleteOrderSpec(), r.deleteOrder)

	return r, nil
}

func (r *Registry) register(spec contractx.ToolSpec, h handler) {
	r.entries[spec.Name] = entry{spec: spec, handle: h}
	r.names = append(r.names, spec.Name)
}

// Specs returns the catalogue in registration order.
func (r *Registry) Specs() []contractx.ToolSpec {
	specs := make([]contractx.ToolSpec, 0, len(r.names))
	for _, name := range r.names {
		specs = append(specs, r.entries[name].spec)
	}
	return specs
}

// Execute dispatches one tool call. Unknown tools, argument validation
// failures, and optimistic-lock conflicts come back inside the ToolResult so
// the model can relay them; only infrastructure failures return an error.
func (r *Registry) Execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	e, ok := r.entries[req.Tool]
	if !ok {
		r.metrics.ObserveTool(req.Tool, "unknown")
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("unknown tool %q", req.Tool),
		}, nil
	}

	result, err := e.handle(ctx, req.Args)
	switch {
	case err == nil:
		r.metrics.ObserveTool(req.Tool, "ok")
		return contractx.ToolResult{Tool: req.Tool, Result: result}, nil
	case errors.Is(err, contractx.ErrValidation):
		r.metrics.ObserveTool(req.Tool, "invalid")
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}, nil
	case errors.Is(err, storex.ErrVersionConflict):
		r.metrics.ObserveTool(req.Tool, "conflict")
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: "order was modified concurrently, re-read and retry",
		}, nil
	default:
		r.metrics.ObserveTool(req.Tool, "error")
		return contractx.ToolResult{}, err
	}
}

// decodeArgs maps the model's JSON argument object onto a typed request.
func decodeArgs(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: encode tool args: %v", contractx.ErrValidation, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: decode tool args: %v", contractx.ErrValidation, err)
	}
	return nil
}
