package usecase

import (
	"context"
	"fmt"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/service/logger"
)

type DashboardUseCase struct {
	payoutRepo outbound.PayoutRepository
	vendorRepo outbound.VendorRepository
	logger     logger.Logger
}

func NewDashboardUseCase(payoutRepo outbound.PayoutRepository, vendorRepo outbound.VendorRepository, log logger.Logger) *DashboardUseCase {
	return &DashboardUseCase{payoutRepo: payoutRepo, vendorRepo: vendorRepo, logger: log}
}

// Metrics aggregates payout counts/amounts per status plus the active
// vendor count. Statuses with no payouts are present with zero values.
func (uc *DashboardUseCase) Metrics(ctx context.Context, actor entity.Actor) (*inbound.DashboardMetrics, error) {
	totalVendors, err := uc.vendorRepo.CountActive(ctx)
	if err != nil {
		uc.logger.Error(ctx, "failed to count vendors for dashboard", err, nil)
		return nil, fmt.Errorf("failed to count vendors: %w", err)
	}

	totals, err := uc.payoutRepo.StatusTotals(ctx)
	if err != nil {
		uc.logger.Error(ctx, "failed to aggregate payouts for dashboard", err, nil)
		return nil, fmt.Errorf("failed to aggregate payouts: %w", err)
	}

	payouts := make(map[entity.PayoutStatus]outbound.StatusTotal, len(entity.PayoutStatuses))
	for _, status := range entity.PayoutStatuses {
		payouts[status] = totals[status]
	}

	return &inbound.DashboardMetrics{
		TotalVendors: totalVendors,
		Payouts:      payouts,
	}, nil
}
