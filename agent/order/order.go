package order

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/phurits/ordermind/agent/contract"
)

// Status values are wire-visible strings and must round-trip exactly.
type Status string

const (
	StatusNew         Status = "NEW"
	StatusProcessing  Status = "PROCESSING"
	StatusShipped     Status = "SHIPPED"
	StatusDelivered   Status = "DELIVERED"
	StatusCancelled   Status = "CANCELLED"
	StatusBackordered Status = "BACKORDERED"
	StatusDeleted     Status = "DELETED"
)

var statuses = map[Status]bool{
	StatusNew:         true,
	StatusProcessing:  true,
	StatusShipped:     true,
	StatusDelivered:   true,
	StatusCancelled:   true,
	StatusBackordered: true,
	StatusDeleted:     true,
}

// ParseStatus parses a status string case-insensitively. An unrecognized
// value is a validation error, never a default.
func ParseStatus(s string) (Status, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("%w: status is required", contractx.ErrValidation)
	}
	st := Status(strings.ToUpper(trimmed))
	if !statuses[st] {
		return "", fmt.Errorf("%w: unknown status %q", contractx.ErrValidation, s)
	}
	return st, nil
}

// Order is the persisted record. Version is the optimistic-concurrency stamp:
// zero before the first save, incremented by the store on each write.
type Order struct {
	ID           string     `json:"id"`
	CustomerID   string     `json:"customerId"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	DeletedBy    string     `json:"deletedBy,omitempty"`
	DeleteReason string     `json:"deleteReason,omitempty"`
	Version      int64      `json:"version"`
}

func New(id, customerID string, status Status, now time.Time) *Order {
	return &Order{
		ID:         id,
		CustomerID: customerID,
		Status:     status,
		CreatedAt:  now.UTC(),
	}
}

func (o *Order) IsDeleted() bool {
	return o != nil && o.Status == StatusDeleted
}
