package outbound

import (
	"context"

	"github.com/payflow/payflow/domain/entity"
)

// AuditRepository is the append-only audit trail. It carries no
// authorization logic of its own; callers validate the action first.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	// ListByPayout returns the entries for a payout ascending by timestamp.
	ListByPayout(ctx context.Context, payoutID string) ([]*entity.AuditEntry, error)
}
