package inbound

import (
	"context"

	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
)

// DashboardMetrics holds per-status payout aggregates plus the active
// vendor count. Every status is present, zero-valued when absent.
type DashboardMetrics struct {
	TotalVendors int                                         `json:"totalVendors"`
	Payouts      map[entity.PayoutStatus]outbound.StatusTotal `json:"payouts"`
}

type DashboardUseCase interface {
	Metrics(ctx context.Context, actor entity.Actor) (*DashboardMetrics, error)
}
