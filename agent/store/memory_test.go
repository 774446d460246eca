package store

import (
	"context"
	"errors"
	"testing"
	"time"

	orderx "github.com/phurits/ordermind/agent/order"
)

func TestMemorySaveInsertStampsVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	o := orderx.New("O-1", "acme", orderx.StatusNew, time.Now())

	if err := m.Save(ctx, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Version != 1 {
		t.Fatalf("version = %d, want 1", o.Version)
	}

	got, err := m.FindByID(ctx, "O-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CustomerID != "acme" || got.Status != orderx.StatusNew {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestMemorySaveStaleVersionFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	o := orderx.New("O-1", "acme", orderx.StatusNew, time.Now())
	if err := m.Save(ctx, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two readers load the same version; the second writer must lose.
	first, _ := m.FindByID(ctx, "O-1")
	second, _ := m.FindByID(ctx, "O-1")

	first.Status = orderx.StatusProcessing
	if err := m.Save(ctx, first); err != nil {
		t.Fatalf("first writer failed: %v", err)
	}

	second.Status = orderx.StatusCancelled
	if err := m.Save(ctx, second); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	got, _ := m.FindByID(ctx, "O-1")
	if got.Status != orderx.StatusProcessing {
		t.Fatalf("loser overwrote the record: %s", got.Status)
	}
}

func TestMemorySaveInsertExistingIDConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	if err := m.Save(ctx, orderx.New("O-1", "acme", orderx.StatusNew, time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := m.Save(ctx, orderx.New("O-1", "acme", orderx.StatusNew, time.Now()))
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestMemorySaveUpdateMissingOrder(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	o := orderx.New("O-9", "acme", orderx.StatusNew, time.Now())
	o.Version = 3
	if err := m.Save(context.Background(), o); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryFindByCustomerNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"O-1", "O-2", "O-3"} {
		o := orderx.New(id, "acme", orderx.StatusNew, base.Add(time.Duration(i)*time.Hour))
		if err := m.Save(ctx, o); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := m.Save(ctx, orderx.New("O-4", "other", orderx.StatusNew, base)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := m.FindByCustomer(ctx, "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"O-3", "O-2", "O-1"} {
		if got[i].ID != want {
			t.Fatalf("got[%d] = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestMemoryFindByStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	specs := []struct {
		id string
		st orderx.Status
	}{
		{"O-1", orderx.StatusProcessing},
		{"O-2", orderx.StatusShipped},
		{"O-3", orderx.StatusProcessing},
	}
	for i, spec := range specs {
		o := orderx.New(spec.id, "acme", spec.st, base.Add(time.Duration(i)*time.Minute))
		if err := m.Save(ctx, o); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := m.FindByStatus(ctx, orderx.StatusProcessing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "O-3" || got[1].ID != "O-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestMemoryCountAndAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	for _, id := range []string{"O-1", "O-2"} {
		if err := m.Save(ctx, orderx.New(id, "acme", orderx.StatusNew, time.Now())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	n, err := m.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}

	all, err := m.All(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d records, want 2", len(all))
	}
}
