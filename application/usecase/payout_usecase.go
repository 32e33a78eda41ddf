package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/service/logger"
	"github.com/payflow/payflow/pkg/apperror"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// PayoutUseCase drives the payout lifecycle: creation, listing, detail and
// the role-gated transitions, each mirrored by exactly one audit entry.
type PayoutUseCase struct {
	payoutRepo outbound.PayoutRepository
	vendorRepo outbound.VendorRepository
	auditRepo  outbound.AuditRepository
	logger     logger.Logger
}

func NewPayoutUseCase(
	payoutRepo outbound.PayoutRepository,
	vendorRepo outbound.VendorRepository,
	auditRepo outbound.AuditRepository,
	log logger.Logger,
) *PayoutUseCase {
	return &PayoutUseCase{
		payoutRepo: payoutRepo,
		vendorRepo: vendorRepo,
		auditRepo:  auditRepo,
		logger:     log,
	}
}

// Create makes a new Draft payout. OPS only.
func (uc *PayoutUseCase) Create(ctx context.Context, actor entity.Actor, req inbound.CreatePayoutRequest) (*entity.Payout, error) {
	if actor.Role != entity.RoleOps {
		return nil, apperror.NewForbidden("Forbidden — requires role: OPS")
	}

	if strings.TrimSpace(req.VendorID) == "" {
		return nil, apperror.NewValidation("vendor_id is required")
	}
	if req.Amount <= 0 {
		return nil, apperror.NewValidation("Amount must be greater than 0")
	}
	mode := entity.PayoutMode(req.Mode)
	if !entity.ValidPayoutMode(mode) {
		return nil, apperror.NewValidation("mode must be UPI, IMPS, or NEFT")
	}

	vendor, err := uc.vendorRepo.FindByID(ctx, req.VendorID)
	if err != nil {
		if errors.Is(err, outbound.ErrVendorNotFound) {
			return nil, apperror.NewValidation("vendor_id does not reference an existing vendor")
		}
		uc.logger.Error(ctx, "failed to load vendor for payout creation", err, map[string]interface{}{"vendor_id": req.VendorID})
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}

	payout := entity.NewPayout(vendor.ID, req.Amount, mode, req.Note, actor)
	payout.Vendor = &entity.VendorSummary{ID: vendor.ID, Name: vendor.Name, UpiID: vendor.UpiID}
	audit := entity.NewAuditEntry(payout.ID, entity.AuditActionCreated, actor)

	if err := uc.payoutRepo.Create(ctx, payout, audit); err != nil {
		uc.logger.Error(ctx, "failed to create payout", err, map[string]interface{}{"vendor_id": vendor.ID})
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	uc.logger.Info(ctx, "payout created", map[string]interface{}{
		"payout_id": payout.ID,
		"vendor_id": vendor.ID,
		"amount":    payout.Amount,
		"mode":      payout.Mode,
		"actor":     actor.Email,
	})
	return payout, nil
}

// List returns payouts matching the optional status/vendor filter, newest
// first, with offset pagination.
func (uc *PayoutUseCase) List(ctx context.Context, actor entity.Actor, req inbound.ListPayoutsRequest) (*inbound.ListPayoutsResponse, error) {
	page, limit := normalizePagination(req.Page, req.Limit)

	filter := outbound.PayoutFilter{
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if req.Status != "" {
		status := entity.PayoutStatus(req.Status)
		if !entity.ValidPayoutStatus(status) {
			return nil, apperror.NewValidation("unknown status filter")
		}
		filter.Status = &status
	}
	if req.VendorID != "" {
		vendorID := req.VendorID
		filter.VendorID = &vendorID
	}

	total, err := uc.payoutRepo.Count(ctx, filter)
	if err != nil {
		uc.logger.Error(ctx, "failed to count payouts", err, nil)
		return nil, fmt.Errorf("failed to count payouts: %w", err)
	}

	payouts, err := uc.payoutRepo.List(ctx, filter)
	if err != nil {
		uc.logger.Error(ctx, "failed to list payouts", err, nil)
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}

	return &inbound.ListPayoutsResponse{
		Payouts:     payouts,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

// Get returns a payout with its vendor record and full audit history.
func (uc *PayoutUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*inbound.PayoutDetail, error) {
	payout, err := uc.payoutRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, outbound.ErrPayoutNotFound) {
			return nil, apperror.NewNotFound("Payout not found")
		}
		uc.logger.Error(ctx, "failed to load payout", err, map[string]interface{}{"payout_id": id})
		return nil, fmt.Errorf("failed to load payout: %w", err)
	}

	vendor, err := uc.vendorRepo.FindByID(ctx, payout.VendorID)
	if err != nil && !errors.Is(err, outbound.ErrVendorNotFound) {
		uc.logger.Error(ctx, "failed to load vendor for payout", err, map[string]interface{}{"payout_id": id})
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}

	audits, err := uc.auditRepo.ListByPayout(ctx, id)
	if err != nil {
		uc.logger.Error(ctx, "failed to load audit trail", err, map[string]interface{}{"payout_id": id})
		return nil, fmt.Errorf("failed to load audit trail: %w", err)
	}

	return &inbound.PayoutDetail{Payout: payout, Vendor: vendor, Audits: audits}, nil
}

// Transition applies submit/approve/reject. Check order is fixed: action
// known, role allowed, reject reason present, payout exists, status
// precondition holds. A failed transition leaves the payout unchanged.
func (uc *PayoutUseCase) Transition(ctx context.Context, actor entity.Actor, id string, action entity.Action) (*entity.Payout, error) {
	rule, ok := entity.RuleFor(action.Type)
	if !ok {
		return nil, apperror.NewValidation("Invalid action")
	}

	if actor.Role != rule.Role {
		return nil, apperror.NewForbidden(fmt.Sprintf("Forbidden — requires role: %s", rule.Role))
	}

	if err := action.Validate(); err != nil {
		if errors.Is(err, entity.ErrReasonRequired) {
			return nil, apperror.NewMissingField("decision_reason is mandatory when rejecting a payout")
		}
		return nil, apperror.NewValidation(err.Error())
	}

	payout, err := uc.payoutRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, outbound.ErrPayoutNotFound) {
			return nil, apperror.NewNotFound("Payout not found")
		}
		uc.logger.Error(ctx, "failed to load payout for transition", err, map[string]interface{}{"payout_id": id})
		return nil, fmt.Errorf("failed to load payout: %w", err)
	}

	expected := payout.Status
	if _, err := payout.Apply(action); err != nil {
		var invalid *entity.InvalidTransitionError
		if errors.As(err, &invalid) {
			return nil, apperror.NewInvalidTransition(fmt.Sprintf("Cannot %s — current status is %q.", action.Type, invalid.Current))
		}
		return nil, apperror.NewValidation(err.Error())
	}

	audit := entity.NewAuditEntry(payout.ID, rule.AuditAction, actor)
	if err := uc.payoutRepo.ApplyTransition(ctx, payout, expected, audit); err != nil {
		if errors.Is(err, outbound.ErrStatusConflict) {
			// Lost the race to a concurrent transition; re-read for an
			// accurate message and report the precondition failure.
			current, readErr := uc.payoutRepo.FindByID(ctx, id)
			status := expected
			if readErr == nil {
				status = current.Status
			}
			return nil, apperror.NewInvalidTransition(fmt.Sprintf("Cannot %s — current status is %q.", action.Type, status))
		}
		uc.logger.Error(ctx, "failed to persist transition", err, map[string]interface{}{
			"payout_id": id,
			"action":    action.Type,
		})
		return nil, fmt.Errorf("failed to persist transition: %w", err)
	}

	uc.logger.Info(ctx, "payout transitioned", map[string]interface{}{
		"payout_id": payout.ID,
		"action":    action.Type,
		"status":    payout.Status,
		"actor":     actor.Email,
	})
	return payout, nil
}

func normalizePagination(page, limit int) (int, int) {
	if page <= 0 {
		page = defaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func totalPages(total, limit int) int {
	return int(math.Ceil(float64(total) / float64(limit)))
}
