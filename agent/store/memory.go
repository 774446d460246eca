package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	contractx "github.com/phurits/ordermind/agent/contract"
	orderx "github.com/phurits/ordermind/agent/order"
)

type memoryRecord struct {
	order orderx.Order
	seq   int64 // insertion order, tie-break for equal CreatedAt
}

// Memory is an in-process OrderStore with the same optimistic-concurrency
// contract as the Postgres store. Used for tests and DSN-less runs.
type Memory struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	nextSeq int64
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]memoryRecord)}
}

var _ OrderStore = (*Memory)(nil)

func (m *Memory) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[id]
	return ok, nil
}

func (m *Memory) Save(_ context.Context, o *orderx.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("%w: order id is required", contractx.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[o.ID]
	if o.Version == 0 {
		if ok {
			return ErrVersionConflict
		}
		o.Version = 1
		m.nextSeq++
		m.records[o.ID] = memoryRecord{order: *o, seq: m.nextSeq}
		return nil
	}

	if !ok {
		return ErrOrderNotFound
	}
	if existing.order.Version != o.Version {
		return ErrVersionConflict
	}
	o.Version++
	m.records[o.ID] = memoryRecord{order: *o, seq: existing.seq}
	return nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*orderx.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o := rec.order
	return &o, nil
}

func (m *Memory) FindByCustomer(_ context.Context, customerID string) ([]orderx.Order, error) {
	return m.filter(func(o orderx.Order) bool { return o.CustomerID == customerID }), nil
}

func (m *Memory) FindByStatus(_ context.Context, status orderx.Status) ([]orderx.Order, error) {
	return m.filter(func(o orderx.Order) bool { return o.Status == status }), nil
}

func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

func (m *Memory) All(_ context.Context) ([]orderx.Order, error) {
	return m.filter(func(orderx.Order) bool { return true }), nil
}

// filter returns matching orders newest-created first.
func (m *Memory) filter(keep func(orderx.Order) bool) []orderx.Order {
	m.mu.RLock()
	recs := make([]memoryRecord, 0, len(m.records))
	for _, rec := range m.records {
		if keep(rec.order) {
			recs = append(recs, rec)
		}
	}
	m.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]orderx.Order, len(recs))
	for i, rec := range recs {
		out[i] = rec.order
	}
	return out
}
