package inbound

import (
	"context"

	"github.com/payflow/payflow/domain/entity"
)

type CreatePayoutRequest struct {
	VendorID string  `json:"vendor_id"`
	Amount   float64 `json:"amount"`
	Mode     string  `json:"mode"`
	Note     string  `json:"note"`
}

type ListPayoutsRequest struct {
	Status   string
	VendorID string
	Page     int
	Limit    int
}

type ListPayoutsResponse struct {
	Payouts     []*entity.Payout
	TotalPages  int
	CurrentPage int
}

// PayoutDetail pairs a payout with its full vendor record and ordered
// audit history.
type PayoutDetail struct {
	Payout *entity.Payout
	Vendor *entity.Vendor
	Audits []*entity.AuditEntry
}

type PayoutUseCase interface {
	Create(ctx context.Context, actor entity.Actor, req CreatePayoutRequest) (*entity.Payout, error)
	List(ctx context.Context, actor entity.Actor, req ListPayoutsRequest) (*ListPayoutsResponse, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*PayoutDetail, error)
	Transition(ctx context.Context, actor entity.Actor, id string, action entity.Action) (*entity.Payout, error)
}
