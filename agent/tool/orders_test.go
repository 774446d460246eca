package tool

import (
	"context"
	"strings"
	"testing"
	"time"

	contractx "github.com/phurits/ordermind/agent/contract"
	orderx "github.com/phurits/ordermind/agent/order"
	storex "github.com/phurits/ordermind/agent/store"
)

func newTestRegistry(t *testing.T) (*Registry, *storex.Memory) {
	t.Helper()

	st := storex.NewMemory()
	seq := 0
	r, err := NewRegistry(st, nil,
		WithClock(func() time.Time {
			seq++
			return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Second)
		}),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r, st
}

func execute(t *testing.T, r *Registry, tool string, args map[string]any) contractx.ToolResult {
	t.Helper()

	res, err := r.Execute(context.Background(), contractx.ToolRequest{Tool: tool, Args: args})
	if err != nil {
		t.Fatalf("Execute(%s): unexpected error: %v", tool, err)
	}
	return res
}

func seedOrder(t *testing.T, st *storex.Memory, id, customer string, status orderx.Status) {
	t.Helper()

	if err := st.Save(context.Background(), orderx.New(id, customer, status, time.Now())); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

/* ------------------------------ create_order ------------------------------ */

func TestCreateOrderGeneratesID(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)
	res := execute(t, r, ToolCreateOrder, map[string]any{
		"customerId": "acme",
		"status":     "PROCESSING",
	})
	if res.Error != "" {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	out := res.Result.(CreateOrderResponse)
	if !out.Created {
		t.Fatal("expected created=true")
	}
	if !strings.HasPrefix(out.OrderID, "O-") {
		t.Fatalf("generated id %q lacks O- prefix", out.OrderID)
	}
	if out.Status != "PROCESSING" {
		t.Fatalf("status = %s", out.Status)
	}

	if ok, _ := st.Exists(context.Background(), out.OrderID); !ok {
		t.Fatal("order not persisted")
	}
}

func TestCreateOrderGeneratedIDsAreFresh(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		out := execute(t, r, ToolCreateOrder, map[string]any{
			"customerId": "acme",
			"status":     "new",
		}).Result.(CreateOrderResponse)
		if !out.Created {
			t.Fatal("expected created=true for a generated id")
		}
		if seen[out.OrderID] {
			t.Fatalf("id %q generated twice", out.OrderID)
		}
		seen[out.OrderID] = true
	}
}

func TestCreateOrderUpsertOverwrites(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)

	first := execute(t, r, ToolCreateOrder, map[string]any{
		"customerId": "acme", "status": "NEW", "orderId": "A-1",
	}).Result.(CreateOrderResponse)
	if !first.Created {
		t.Fatal("first call: expected created=true")
	}

	second := execute(t, r, ToolCreateOrder, map[string]any{
		"customerId": "acme", "status": "BACKORDERED", "orderId": "A-1",
	}).Result.(CreateOrderResponse)
	if second.Created {
		t.Fatal("second call: expected created=false")
	}
	if second.Status != "BACKORDERED" {
		t.Fatalf("second call status = %s, want BACKORDERED", second.Status)
	}

	got, err := st.FindByID(context.Background(), "A-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != orderx.StatusBackordered {
		t.Fatalf("persisted status = %s", got.Status)
	}
}

// The upsert deliberately bypasses lifecycle transition checks: it can move a
// DELETED order back to a live status. Preserved behavior, not a bug.
func TestCreateOrderUpsertResurrectsDeletedOrder(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)
	execute(t, r, ToolCreateOrder, map[string]any{
		"customerId": "acme", "status": "NEW", "orderId": "A-1",
	})
	del := execute(t, r, ToolDeleteOrder, map[string]any{
		"orderId": "A-1", "confirm": true, "reason": "dup",
	}).Result.(DeleteOrderResult)
	if !del.Deleted {
		t.Fatalf("setup delete failed: %+v", del)
	}

	out := execute(t, r, ToolCreateOrder, map[string]any{
		"customerId": "acme", "status": "PROCESSING", "orderId": "A-1",
	}).Result.(CreateOrderResponse)
	if out.Created || out.Status != "PROCESSING" {
		t.Fatalf("unexpected response: %+v", out)
	}

	got, _ := st.FindByID(context.Background(), "A-1")
	if got.Status != orderx.StatusProcessing {
		t.Fatalf("status = %s", got.Status)
	}
	if got.DeletedAt != nil || got.DeletedBy != "" || got.DeleteReason != "" {
		t.Fatalf("delete metadata survived resurrection: %+v", got)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)

	res := execute(t, r, ToolCreateOrder, map[string]any{"customerId": " ", "status": "NEW"})
	if res.Error == "" || !strings.Contains(res.Error, "customerId") {
		t.Fatalf("expected customerId validation error, got %+v", res)
	}

	res = execute(t, r, ToolCreateOrder, map[string]any{"customerId": "acme", "status": "FROZEN"})
	if res.Error == "" || !strings.Contains(res.Error, "unknown status") {
		t.Fatalf("expected status validation error, got %+v", res)
	}

	if n, _ := st.Count(context.Background()); n != 0 {
		t.Fatalf("validation failure mutated storage: count=%d", n)
	}
}

/* ----------------------------- lookups/queries ---------------------------- */

func TestGetOrderStatus(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)
	seedOrder(t, st, "A-1", "acme", orderx.StatusShipped)

	out := execute(t, r, ToolGetOrderStatus, map[string]any{"orderId": "A-1"}).Result.(OrderStatusResponse)
	if out.Status != "SHIPPED" {
		t.Fatalf("status = %s", out.Status)
	}
	if out.CustomerID == nil || *out.CustomerID != "acme" {
		t.Fatalf("customerId = %v", out.CustomerID)
	}
}

func TestGetOrderStatusUnknownIsSentinelNotError(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	res := execute(t, r, ToolGetOrderStatus, map[string]any{"orderId": "nope"})
	if res.Error != "" {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	out := res.Result.(OrderStatusResponse)
	if out.Status != StatusUnknown {
		t.Fatalf("status = %s, want UNKNOWN", out.Status)
	}
	if out.CustomerID != nil {
		t.Fatalf("customerId = %v, want nil", out.CustomerID)
	}
}

func TestOrdersForCustomer(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	for _, id := range []string{"A-1", "A-2"} {
		execute(t, r, ToolCreateOrder, map[string]any{
			"customerId": "acme", "status": "NEW", "orderId": id,
		})
	}
	execute(t, r, ToolCreateOrder, map[string]any{
		"customerId": "other", "status": "NEW", "orderId": "B-1",
	})

	out := execute(t, r, ToolOrdersForCustomer, map[string]any{"customerId": "acme"}).Result.(CustomerOrdersResponse)
	if out.Count != 2 || len(out.Orders) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if out.Orders[0].OrderID != "A-2" || out.Orders[1].OrderID != "A-1" {
		t.Fatalf("not newest-first: %+v", out.Orders)
	}
}

func TestCountOrders(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)
	seedOrder(t, st, "A-1", "acme", orderx.StatusNew)
	seedOrder(t, st, "A-2", "acme", orderx.StatusDeleted)

	out := execute(t, r, ToolCountOrders, nil).Result.(CountResponse)
	if out.Total != 2 {
		t.Fatalf("total = %d, want 2 (soft-deleted orders still count)", out.Total)
	}
}

func TestOrdersByStatusCaseInsensitive(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	created := execute(t, r, ToolCreateOrder, map[string]any{
		"customerId": "acme", "status": "PROCESSING",
	}).Result.(CreateOrderResponse)

	out := execute(t, r, ToolOrdersByStatus, map[string]any{"status": "processing"}).Result.(OrdersByStatusResponse)
	if out.Status != "PROCESSING" {
		t.Fatalf("status = %s", out.Status)
	}
	if out.Count != 1 || out.Orders[0].OrderID != created.OrderID {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestOrdersByStatusInvalid(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	res := execute(t, r, ToolOrdersByStatus, map[string]any{"status": "LOST"})
	if res.Error == "" {
		t.Fatal("expected validation error")
	}
}

/* ---------------------------- deletion protocol --------------------------- */

func deleteArgs(id string, confirm bool, reason string) map[string]any {
	args := map[string]any{"orderId": id, "confirm": confirm}
	if reason != "" {
		args["reason"] = reason
	}
	return args
}

func TestDeleteOrderRequiresOrderID(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	out := execute(t, r, ToolDeleteOrder, deleteArgs("  ", true, "dup")).Result.(DeleteOrderResult)
	if out.Deleted || out.Status != StatusUnknown || out.Message != "orderId is required" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestDeleteOrderConfirmationGate(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)
	seedOrder(t, st, "A-1", "acme", orderx.StatusNew)

	out := execute(t, r, ToolDeleteOrder, deleteArgs("A-1", false, "dup")).Result.(DeleteOrderResult)
	if out.Deleted {
		t.Fatal("unconfirmed delete mutated the order")
	}
	if out.Status != "PENDING_CONFIRMATION" {
		t.Fatalf("status = %s", out.Status)
	}
	if !strings.Contains(out.Message, "confirm:true") {
		t.Fatalf("message should instruct reissue: %q", out.Message)
	}

	// Repeated unconfirmed calls are safe no-ops; nothing is persisted
	// between them.
	execute(t, r, ToolDeleteOrder, deleteArgs("A-1", false, ""))
	got, _ := st.FindByID(context.Background(), "A-1")
	if got.Status != orderx.StatusNew || got.Version != 1 {
		t.Fatalf("storage mutated: %+v", got)
	}
}

func TestDeleteOrderRequiresReason(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)
	seedOrder(t, st, "A-1", "acme", orderx.StatusNew)

	out := execute(t, r, ToolDeleteOrder, deleteArgs("A-1", true, "")).Result.(DeleteOrderResult)
	if out.Deleted || out.Status != "REJECTED" || out.Message != "Deletion reason is required." {
		t.Fatalf("unexpected result: %+v", out)
	}

	got, _ := st.FindByID(context.Background(), "A-1")
	if got.Status != orderx.StatusNew {
		t.Fatalf("storage mutated: %+v", got)
	}
}

func TestDeleteOrderNotFound(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	out := execute(t, r, ToolDeleteOrder, deleteArgs("missing", true, "dup")).Result.(DeleteOrderResult)
	if out.Deleted || out.Status != StatusUnknown || out.Message != "Order not found." {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestDeleteOrderHappyPath(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)
	seedOrder(t, st, "A-1", "acme", orderx.StatusNew)

	out := execute(t, r, ToolDeleteOrder, map[string]any{
		"orderId": "A-1", "confirm": true, "reason": "dup", "actor": "ops",
	}).Result.(DeleteOrderResult)
	if !out.Deleted || out.Status != "DELETED" || out.Message != "Order deleted successfully." {
		t.Fatalf("unexpected result: %+v", out)
	}

	got, _ := st.FindByID(context.Background(), "A-1")
	if got.Status != orderx.StatusDeleted {
		t.Fatalf("status = %s", got.Status)
	}
	if got.DeletedAt == nil || got.DeletedBy != "ops" || got.DeleteReason != "dup" {
		t.Fatalf("audit fields: %+v", got)
	}
}

func TestDeleteOrderIdempotent(t *testing.T) {
	t.Parallel()

	r, st := newTestRegistry(t)
	seedOrder(t, st, "A-1", "acme", orderx.StatusCancelled)

	first := execute(t, r, ToolDeleteOrder, deleteArgs("A-1", true, "dup")).Result.(DeleteOrderResult)
	if !first.Deleted {
		t.Fatalf("first delete failed: %+v", first)
	}

	second := execute(t, r, ToolDeleteOrder, deleteArgs("A-1", true, "dup")).Result.(DeleteOrderResult)
	if !second.Deleted || second.Status != "DELETED" {
		t.Fatalf("second delete not idempotent: %+v", second)
	}
	if second.Message != "Order already deleted (idempotent)." {
		t.Fatalf("message = %q", second.Message)
	}

	got, _ := st.FindByID(context.Background(), "A-1")
	if got.Version != 2 {
		t.Fatalf("second delete wrote to storage: version=%d", got.Version)
	}
}

func TestDeleteOrderBlocksShippedAndDelivered(t *testing.T) {
	t.Parallel()

	for _, status := range []orderx.Status{orderx.StatusShipped, orderx.StatusDelivered} {
		r, st := newTestRegistry(t)
		seedOrder(t, st, "A-1", "acme", status)

		out := execute(t, r, ToolDeleteOrder, deleteArgs("A-1", true, "dup")).Result.(DeleteOrderResult)
		if out.Deleted {
			t.Fatalf("%s order was deleted", status)
		}
		if out.Status != string(status) {
			t.Fatalf("status = %s, want %s", out.Status, status)
		}
		if !strings.Contains(out.Message, "cancel/return") {
			t.Fatalf("message should suggest cancel/return: %q", out.Message)
		}

		got, _ := st.FindByID(context.Background(), "A-1")
		if got.Status != status || got.Version != 1 {
			t.Fatalf("storage mutated for %s: %+v", status, got)
		}
	}
}

func TestDeleteOrderScenarioFromColdStart(t *testing.T) {
	t.Parallel()

	r, _ := newTestRegistry(t)
	execute(t, r, ToolCreateOrder, map[string]any{
		"customerId": "acme", "status": "NEW", "orderId": "X",
	})

	pending := execute(t, r, ToolDeleteOrder, deleteArgs("X", false, "")).Result.(DeleteOrderResult)
	if pending.Deleted || pending.Status != "PENDING_CONFIRMATION" {
		t.Fatalf("step 1: %+v", pending)
	}

	rejected := execute(t, r, ToolDeleteOrder, map[string]any{
		"orderId": "X", "confirm": true, "reason": "",
	}).Result.(DeleteOrderResult)
	if rejected.Deleted || rejected.Status != "REJECTED" {
		t.Fatalf("step 2: %+v", rejected)
	}

	done := execute(t, r, ToolDeleteOrder, deleteArgs("X", true, "dup")).Result.(DeleteOrderResult)
	if !done.Deleted || done.Status != "DELETED" {
		t.Fatalf("step 3: %+v", done)
	}
}
