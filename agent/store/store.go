package store

import (
	"context"
	"errors"

	orderx "github.com/phurits/ordermind/agent/order"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrVersionConflict means the write carried a stale version: another
	// writer got there first. The caller must re-read and re-apply.
	ErrVersionConflict = errors.New("order version conflict")
)

// OrderStore is the persistence contract for order records. No tool bypasses
// it, and nothing here deletes rows physically; DELETED is just a status.
//
// Save semantics: an order with Version 0 is inserted and stamped Version 1.
// Any other version is a compare-and-swap update against the version the
// caller read; a stale version fails with ErrVersionConflict instead of
// silently overwriting.
type OrderStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, o *orderx.Order) error
	FindByID(ctx context.Context, id string) (*orderx.Order, error)
	FindByCustomer(ctx context.Context, customerID string) ([]orderx.Order, error)
	FindByStatus(ctx context.Context, status orderx.Status) ([]orderx.Order, error)
	Count(ctx context.Context) (int64, error)
	All(ctx context.Context) ([]orderx.Order, error)
}
