package outbound

import (
	"context"
	"errors"

	"github.com/payflow/payflow/domain/entity"
)

var (
	ErrPayoutNotFound = errors.New("payout not found")
	// ErrStatusConflict means the persisted status no longer matched the
	// transition's precondition when the update was applied.
	ErrStatusConflict = errors.New("payout status changed concurrently")
)

// PayoutFilter narrows payout listings. Status and VendorID are optional and
// AND-combined when both are set.
type PayoutFilter struct {
	Status   *entity.PayoutStatus
	VendorID *string
	Offset   int
	Limit    int
}

// StatusTotal aggregates payouts of one status for the dashboard.
type StatusTotal struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

type PayoutRepository interface {
	// Create persists a new payout together with its CREATED audit entry in
	// one transaction: both are durably recorded or neither is.
	Create(ctx context.Context, payout *entity.Payout, audit *entity.AuditEntry) error
	FindByID(ctx context.Context, id string) (*entity.Payout, error)
	// List returns payouts matching the filter ordered by creation time
	// descending, with the vendor summary populated.
	List(ctx context.Context, filter PayoutFilter) ([]*entity.Payout, error)
	Count(ctx context.Context, filter PayoutFilter) (int, error)
	// ApplyTransition persists an already-applied transition and its audit
	// entry in one transaction. The update is a compare-and-set on
	// expectedStatus; if the persisted row no longer matches, nothing is
	// written and ErrStatusConflict is returned.
	ApplyTransition(ctx context.Context, payout *entity.Payout, expectedStatus entity.PayoutStatus, audit *entity.AuditEntry) error
	// StatusTotals returns per-status count and amount aggregates.
	StatusTotals(ctx context.Context) (map[entity.PayoutStatus]StatusTotal, error)
}
