package order

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/phurits/ordermind/agent/contract"
)

// Deletable reports whether an order in the given status may be soft-deleted.
// SHIPPED and DELIVERED are blocked unconditionally; DELETED is handled as an
// idempotent no-op by the caller.
func Deletable(s Status) bool {
	switch s {
	case StatusNew, StatusProcessing, StatusCancelled, StatusBackordered:
		return true
	default:
		return false
	}
}

// MarkDeleted performs the soft-delete transition: status becomes DELETED and
// the audit fields are stamped. Reason is required; actor defaults to
// "unknown". The caller is responsible for checking Deletable first.
func (o *Order) MarkDeleted(now time.Time, actor, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: delete reason is required", contractx.ErrValidation)
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "unknown"
	}

	ts := now.UTC()
	o.Status = StatusDeleted
	o.DeletedAt = &ts
	o.DeletedBy = actor
	o.DeleteReason = reason
	return nil
}

// ClearDeletion resets the soft-delete audit fields. Used by the upsert path
// when an authoritative overwrite moves an order out of DELETED, keeping the
// deletedAt⇔DELETED invariant intact.
func (o *Order) ClearDeletion() {
	o.DeletedAt = nil
	o.DeletedBy = ""
	o.DeleteReason = ""
}
