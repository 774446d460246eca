package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/phurits/ordermind/agent/contract"
	orderx "github.com/phurits/ordermind/agent/order"
	storex "github.com/phurits/ordermind/agent/store"
)

// StatusUnknown is the sentinel reported for lookups that reference no
// persisted order. It is not a storable order status.
const StatusUnknown = "UNKNOWN"

const statusValues = "NEW|PROCESSING|SHIPPED|DELIVERED|CANCELLED|BACKORDERED"

/* ------------------------------- wire types ------------------------------ */

type CreateOrderRequest struct {
	CustomerID string `json:"customerId"`
	Status     string `json:"status"`
	OrderID    string `json:"orderId,omitempty"`
}

type CreateOrderResponse struct {
	OrderID    string `json:"orderId"`
	CustomerID string `json:"customerId"`
	Status     string `json:"status"`
	Created    bool   `json:"created"`
}

type OrderStatusRequest struct {
	OrderID string `json:"orderId"`
}

type OrderStatusResponse struct {
	OrderID    string  `json:"orderId"`
	CustomerID *string `json:"customerId"`
	Status     string  `json:"status"`
}

type CustomerOrdersRequest struct {
	CustomerID string `json:"customerId"`
}

type OrderSummary struct {
	OrderID    string `json:"orderId"`
	CustomerID string `json:"customerId"`
	Status     string `json:"status"`
}

type CustomerOrdersResponse struct {
	CustomerID string         `json:"customerId"`
	Count      int            `json:"count"`
	Orders     []OrderSummary `json:"orders"`
}

type CountResponse struct {
	Total int64 `json:"total"`
}

type StatusQuery struct {
	Status string `json:"status"`
}

type OrdersByStatusResponse struct {
	Status string         `json:"status"`
	Count  int            `json:"count"`
	Orders []OrderSummary `json:"orders"`
}

type DeleteOrderRequest struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
	Actor   string `json:"actor,omitempty"`
	Confirm bool   `json:"confirm"`
}

type DeleteOrderResult struct {
	OrderID string `json:"orderId,omitempty"`
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func toSummary(o orderx.Order) OrderSummary {
	return OrderSummary{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Status:     string(o.Status),
	}
}

func toSummaries(orders []orderx.Order) []OrderSummary {
	out := make([]OrderSummary, len(orders))
	for i, o := range orders {
		out[i] = toSummary(o)
	}
	return out
}

/* --------------------------------- specs --------------------------------- */

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func createOrderSpec() contractx.ToolSpec {
	return contractx.ToolSpec{
		Name: ToolCreateOrder,
		Description: "Create (or upsert) an order. Required: customerId, status (" + statusValues + "). " +
			"orderId is optional: if missing, generate one.",
		Parameters: objectSchema(map[string]any{
			"customerId": map[string]any{"type": "string", "description": "Owner of the order"},
			"status":     map[string]any{"type": "string", "description": "Order status: " + statusValues},
			"orderId":    map[string]any{"type": "string", "description": "Optional order id; generated when absent"},
		}, "customerId", "status"),
	}
}

func getOrderStatusSpec() contractx.ToolSpec {
	return contractx.ToolSpec{
		Name:        ToolGetOrderStatus,
		Description: "Return order status and owner by orderId",
		Parameters: objectSchema(map[string]any{
			"orderId": map[string]any{"type": "string", "description": "Order id to look up"},
		}, "orderId"),
	}
}

func ordersForCustomerSpec() contractx.ToolSpec {
	return contractx.ToolSpec{
		Name:        ToolOrdersForCustomer,
		Description: "List orders for a given customerId",
		Parameters: objectSchema(map[string]any{
			"customerId": map[string]any{"type": "string", "description": "Customer id to list orders for"},
		}, "customerId"),
	}
}

func countOrdersSpec() contractx.ToolSpec {
	return contractx.ToolSpec{
		Name:        ToolCountOrders,
		Description: "Return total number of orders in the system",
		Parameters:  objectSchema(map[string]any{}),
	}
}

func ordersByStatusSpec() contractx.ToolSpec {
	return contractx.ToolSpec{
		Name:        ToolOrdersByStatus,
		Description: "List orders by status (" + statusValues + ")",
		Parameters: objectSchema(map[string]any{
			"status": map[string]any{"type": "string", "description": "Order status: " + statusValues},
		}, "status"),
	}
}

func deleteOrderSpec() contractx.ToolSpec {
	return contractx.ToolSpec{
		Name: ToolDeleteOrder,
		Description: "Soft-delete an order. Requires explicit confirmation and a short reason. " +
			"Allowed current statuses: NEW, PROCESSING, CANCELLED, BACKORDERED. " +
			"Blocks SHIPPED and DELIVERED. Idempotent if already DELETED.",
		Parameters: objectSchema(map[string]any{
			"orderId": map[string]any{"type": "string", "description": "Order id to delete"},
			"confirm": map[string]any{"type": "boolean", "description": "Must be true to perform the deletion"},
			"reason":  map[string]any{"type": "string", "description": "Short deletion reason, required with confirm:true"},
			"actor":   map[string]any{"type": "string", "description": "Who requested the deletion; defaults to unknown"},
		}, "orderId", "confirm"),
	}
}

/* -------------------------------- handlers ------------------------------- */

func (r *Registry) createOrder(ctx context.Context, args map[string]any) (any, error) {
	var req CreateOrderRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customerId is required", contractx.ErrValidation)
	}
	status, err := orderx.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		orderID = r.newOrderID()
	}

	now := r.now()
	existing, err := r.store.FindByID(ctx, orderID)
	switch {
	case errors.Is(err, storex.ErrOrderNotFound):
		o := orderx.New(orderID, customerID, status, now)
		stampUpsertDeletion(o, now)
		if err := r.store.Save(ctx, o); err != nil {
			return nil, err
		}
		return CreateOrderResponse{
			OrderID:    orderID,
			CustomerID: o.CustomerID,
			Status:     string(o.Status),
			Created:    true,
		}, nil
	case err != nil:
		return nil, err
	}

	// Upsert: an authoritative overwrite of owner and status. This path
	// intentionally skips lifecycle transition checks, so it can also move a
	// DELETED order back to a live status.
	existing.CustomerID = customerID
	existing.Status = status
	if status == orderx.StatusDeleted {
		stampUpsertDeletion(existing, now)
	} else {
		existing.ClearDeletion()
	}
	if err := r.store.Save(ctx, existing); err != nil {
		return nil, err
	}
	return CreateOrderResponse{
		OrderID:    orderID,
		CustomerID: existing.CustomerID,
		Status:     string(existing.Status),
		Created:    false,
	}, nil
}

// stampUpsertDeletion keeps the deletedAt⇔DELETED invariant when an upsert
// writes the DELETED status directly instead of going through delete_order.
// Existing audit fields survive; missing ones get defaults.
func stampUpsertDeletion(o *orderx.Order, now time.Time) {
	if o.Status != orderx.StatusDeleted {
		return
	}
	if o.DeletedAt == nil {
		ts := now.UTC()
		o.DeletedAt = &ts
	}
	if o.DeletedBy == "" {
		o.DeletedBy = "unknown"
	}
}

func (r *Registry) getOrderStatus(ctx context.Context, args map[string]any) (any, error) {
	var req OrderStatusRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: orderId is required", contractx.ErrValidation)
	}

	o, err := r.store.FindByID(ctx, orderID)
	if errors.Is(err, storex.ErrOrderNotFound) {
		return OrderStatusResponse{OrderID: orderID, CustomerID: nil, Status: StatusUnknown}, nil
	}
	if err != nil {
		return nil, err
	}
	customerID := o.CustomerID
	return OrderStatusResponse{
		OrderID:    o.ID,
		CustomerID: &customerID,
		Status:     string(o.Status),
	}, nil
}

func (r *Registry) ordersForCustomer(ctx context.Context, args map[string]any) (any, error) {
	var req CustomerOrdersRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customerId is required", contractx.ErrValidation)
	}

	orders, err := r.store.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	summaries := toSummaries(orders)
	return CustomerOrdersResponse{
		CustomerID: customerID,
		Count:      len(summaries),
		Orders:     summaries,
	}, nil
}

func (r *Registry) countOrders(ctx context.Context, _ map[string]any) (any, error) {
	total, err := r.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return CountResponse{Total: total}, nil
}

func (r *Registry) ordersByStatus(ctx context.Context, args map[string]any) (any, error) {
	var query StatusQuery
	if err := decodeArgs(args, &query); err != nil {
		return nil, err
	}
	status, err := orderx.ParseStatus(query.Status)
	if err != nil {
		return nil, err
	}

	orders, err := r.store.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	summaries := toSummaries(orders)
	return OrdersByStatusResponse{
		Status: string(status),
		Count:  len(summaries),
		Orders: summaries,
	}, nil
}

// deleteOrder enforces the confirmation protocol in the tool itself, so a
// misbehaving model cannot skip the gate: no confirmation or reason, no
// mutation; SHIPPED and DELIVERED never delete.
func (r *Registry) deleteOrder(ctx context.Context, args map[string]any) (any, error) {
	var req DeleteOrderRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}

	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return DeleteOrderResult{
			Deleted: false,
			Message: "orderId is required",
			Status:  StatusUnknown,
		}, nil
	}

	if !req.Confirm {
		return DeleteOrderResult{
			OrderID: orderID,
			Deleted: false,
			Message: "Confirmation required. Re-issue with confirm:true and a reason, e.g., " +
				"delete order " + orderID + " confirm:true reason:'duplicate entry'",
			Status: "PENDING_CONFIRMATION",
		}, nil
	}

	if strings.TrimSpace(req.Reason) == "" {
		return DeleteOrderResult{
			OrderID: orderID,
			Deleted: false,
			Message: "Deletion reason is required.",
			Status:  "REJECTED",
		}, nil
	}

	o, err := r.store.FindByID(ctx, orderID)
	if errors.Is(err, storex.ErrOrderNotFound) {
		return DeleteOrderResult{
			OrderID: orderID,
			Deleted: false,
			Message: "Order not found.",
			Status:  StatusUnknown,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if o.Status == orderx.StatusDeleted {
		return DeleteOrderResult{
			OrderID: o.ID,
			Deleted: true,
			Message: "Order already deleted (idempotent).",
			Status:  string(o.Status),
		}, nil
	}
	if o.Status == orderx.StatusShipped || o.Status == orderx.StatusDelivered {
		return DeleteOrderResult{
			OrderID: o.ID,
			Deleted: false,
			Message: "Deletion blocked for " + string(o.Status) + ". Use cancel/return workflow.",
			Status:  string(o.Status),
		}, nil
	}
	// Unreachable given the enum, but checked anyway.
	if !orderx.Deletable(o.Status) {
		return DeleteOrderResult{
			OrderID: o.ID,
			Deleted: false,
			Message: "Deletion not allowed from status " + string(o.Status),
			Status:  string(o.Status),
		}, nil
	}

	if err := o.MarkDeleted(r.now(), req.Actor, req.Reason); err != nil {
		return nil, err
	}
	if err := r.store.Save(ctx, o); err != nil {
		return nil, err
	}
	return DeleteOrderResult{
		OrderID: o.ID,
		Deleted: true,
		Message: "Order deleted successfully.",
		Status:  string(o.Status),
	}, nil
}
