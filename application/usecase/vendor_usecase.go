package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/service/logger"
	"github.com/payflow/payflow/pkg/apperror"
)

// VendorUseCase manages the vendor registry. Vendors are soft-flagged via
// is_active; there is no deactivation operation in the current scope.
type VendorUseCase struct {
	vendorRepo outbound.VendorRepository
	logger     logger.Logger
}

func NewVendorUseCase(vendorRepo outbound.VendorRepository, log logger.Logger) *VendorUseCase {
	return &VendorUseCase{vendorRepo: vendorRepo, logger: log}
}

// Create registers a vendor. OPS only.
func (uc *VendorUseCase) Create(ctx context.Context, actor entity.Actor, req inbound.CreateVendorRequest) (*entity.Vendor, error) {
	if actor.Role != entity.RoleOps {
		return nil, apperror.NewForbidden("Forbidden — requires role: OPS")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperror.NewValidation("Vendor name is required")
	}

	vendor := entity.NewVendor(req.Name, req.UpiID, req.BankAccount, req.IfscCode)
	if err := uc.vendorRepo.Create(ctx, vendor); err != nil {
		uc.logger.Error(ctx, "failed to create vendor", err, map[string]interface{}{"name": vendor.Name})
		return nil, fmt.Errorf("failed to create vendor: %w", err)
	}

	uc.logger.Info(ctx, "vendor created", map[string]interface{}{
		"vendor_id": vendor.ID,
		"name":      vendor.Name,
		"actor":     actor.Email,
	})
	return vendor, nil
}

// List returns active vendors newest first with offset pagination.
func (uc *VendorUseCase) List(ctx context.Context, actor entity.Actor, req inbound.ListVendorsRequest) (*inbound.ListVendorsResponse, error) {
	page, limit := normalizePagination(req.Page, req.Limit)

	total, err := uc.vendorRepo.CountActive(ctx)
	if err != nil {
		uc.logger.Error(ctx, "failed to count vendors", err, nil)
		return nil, fmt.Errorf("failed to count vendors: %w", err)
	}

	vendors, err := uc.vendorRepo.ListActive(ctx, (page-1)*limit, limit)
	if err != nil {
		uc.logger.Error(ctx, "failed to list vendors", err, nil)
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}

	return &inbound.ListVendorsResponse{
		Vendors:     vendors,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}
