package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
)

type vendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) outbound.VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	query := `
		INSERT INTO vendors (id, name, upi_id, bank_account, ifsc_code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		vendor.ID,
		vendor.Name,
		vendor.UpiID,
		vendor.BankAccount,
		vendor.IfscCode,
		vendor.IsActive,
		vendor.CreatedAt,
		vendor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	return nil
}

func (r *vendorRepository) FindByID(ctx context.Context, id string) (*entity.Vendor, error) {
	query := `
		SELECT id, name, upi_id, bank_account, ifsc_code, is_active, created_at, updated_at
		FROM vendors
		WHERE id = $1
	`

	var vendor entity.Vendor
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&vendor.ID,
		&vendor.Name,
		&vendor.UpiID,
		&vendor.BankAccount,
		&vendor.IfscCode,
		&vendor.IsActive,
		&vendor.CreatedAt,
		&vendor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to find vendor: %w", err)
	}

	return &vendor, nil
}

func (r *vendorRepository) ListActive(ctx context.Context, offset, limit int) ([]*entity.Vendor, error) {
	query := `
		SELECT id, name, upi_id, bank_account, ifsc_code, is_active, created_at, updated_at
		FROM vendors
		WHERE is_active = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*entity.Vendor
	for rows.Next() {
		var vendor entity.Vendor
		err := rows.Scan(
			&vendor.ID,
			&vendor.Name,
			&vendor.UpiID,
			&vendor.BankAccount,
			&vendor.IfscCode,
			&vendor.IsActive,
			&vendor.CreatedAt,
			&vendor.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, &vendor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vendors: %w", err)
	}

	return vendors, nil
}

func (r *vendorRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vendors WHERE is_active = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vendors: %w", err)
	}
	return count, nil
}
