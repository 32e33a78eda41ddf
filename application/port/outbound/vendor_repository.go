package outbound

import (
	"context"
	"errors"

	"github.com/payflow/payflow/domain/entity"
)

var ErrVendorNotFound = errors.New("vendor not found")

type VendorRepository interface {
	Create(ctx context.Context, vendor *entity.Vendor) error
	FindByID(ctx context.Context, id string) (*entity.Vendor, error)
	// ListActive returns active vendors ordered by creation time descending.
	ListActive(ctx context.Context, offset, limit int) ([]*entity.Vendor, error)
	CountActive(ctx context.Context) (int, error)
}
