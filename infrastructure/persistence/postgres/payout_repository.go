package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
)

type payoutRepository struct {
	db *sql.DB
}

func NewPayoutRepository(db *sql.DB) outbound.PayoutRepository {
	return &payoutRepository{db: db}
}

// Create inserts the payout and its CREATED audit entry in one transaction.
func (r *payoutRepository) Create(ctx context.Context, payout *entity.Payout, audit *entity.AuditEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO payouts (id, vendor_id, amount, mode, note, status, decision_reason,
			created_by_id, created_by_email, created_by_role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, query,
		payout.ID,
		payout.VendorID,
		payout.Amount,
		string(payout.Mode),
		payout.Note,
		string(payout.Status),
		payout.DecisionReason,
		payout.CreatedBy.ID,
		payout.CreatedBy.Email,
		string(payout.CreatedBy.Role),
		payout.CreatedAt,
		payout.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}

	if err := insertAuditEntry(ctx, tx, audit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payout creation: %w", err)
	}
	return nil
}

func (r *payoutRepository) FindByID(ctx context.Context, id string) (*entity.Payout, error) {
	query := selectPayout + ` WHERE p.id = $1`

	payout, err := scanPayout(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to find payout: %w", err)
	}
	return payout, nil
}

func (r *payoutRepository) List(ctx context.Context, filter outbound.PayoutFilter) ([]*entity.Payout, error) {
	query := selectPayout + ` WHERE 1=1`

	conditions, args := buildPayoutConditions(filter)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY p.created_at DESC"
	argIndex := len(args) + 1
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*entity.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payouts: %w", err)
	}

	return payouts, nil
}

func (r *payoutRepository) Count(ctx context.Context, filter outbound.PayoutFilter) (int, error) {
	query := `SELECT COUNT(*) FROM payouts p WHERE 1=1`

	conditions, args := buildPayoutConditions(filter)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count payouts: %w", err)
	}
	return count, nil
}

// ApplyTransition updates the payout row guarded by a compare-and-set on the
// expected status and appends the audit entry, all in one transaction. Both
// writes land or neither does.
func (r *payoutRepository) ApplyTransition(ctx context.Context, payout *entity.Payout, expectedStatus entity.PayoutStatus, audit *entity.AuditEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE payouts
		SET status = $2, decision_reason = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`

	result, err := tx.ExecContext(ctx, query,
		payout.ID,
		string(payout.Status),
		payout.DecisionReason,
		payout.UpdatedAt,
		string(expectedStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the payout vanished or a concurrent transition won.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM payouts WHERE id = $1)`, payout.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check payout existence: %w", err)
		}
		if !exists {
			return outbound.ErrPayoutNotFound
		}
		return outbound.ErrStatusConflict
	}

	if err := insertAuditEntry(ctx, tx, audit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

func (r *payoutRepository) StatusTotals(ctx context.Context) (map[entity.PayoutStatus]outbound.StatusTotal, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
		FROM payouts
		GROUP BY status
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payouts: %w", err)
	}
	defer rows.Close()

	totals := make(map[entity.PayoutStatus]outbound.StatusTotal)
	for rows.Next() {
		var status string
		var total outbound.StatusTotal
		if err := rows.Scan(&status, &total.Count, &total.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan payout aggregate: %w", err)
		}
		totals[entity.PayoutStatus(status)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payout aggregates: %w", err)
	}

	return totals, nil
}

const selectPayout = `
	SELECT p.id, p.vendor_id, p.amount, p.mode, p.note, p.status, p.decision_reason,
		p.created_by_id, p.created_by_email, p.created_by_role, p.created_at, p.updated_at,
		v.name, v.upi_id
	FROM payouts p
	LEFT JOIN vendors v ON v.id = p.vendor_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayout(row rowScanner) (*entity.Payout, error) {
	var payout entity.Payout
	var vendorName, vendorUpi sql.NullString

	err := row.Scan(
		&payout.ID,
		&payout.VendorID,
		&payout.Amount,
		&payout.Mode,
		&payout.Note,
		&payout.Status,
		&payout.DecisionReason,
		&payout.CreatedBy.ID,
		&payout.CreatedBy.Email,
		&payout.CreatedBy.Role,
		&payout.CreatedAt,
		&payout.UpdatedAt,
		&vendorName,
		&vendorUpi,
	)
	if err != nil {
		return nil, err
	}

	if vendorName.Valid {
		payout.Vendor = &entity.VendorSummary{
			ID:    payout.VendorID,
			Name:  vendorName.String,
			UpiID: vendorUpi.String,
		}
	}

	return &payout, nil
}

func buildPayoutConditions(filter outbound.PayoutFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.VendorID != nil {
		conditions = append(conditions, fmt.Sprintf("p.vendor_id = $%d", argIndex))
		args = append(args, *filter.VendorID)
		argIndex++
	}

	return conditions, args
}

func insertAuditEntry(ctx context.Context, tx *sql.Tx, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO payout_audits (id, payout_id, action, performed_by_id, performed_by_email, performed_by_role, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.ExecContext(ctx, query,
		entry.ID,
		entry.PayoutID,
		string(entry.Action),
		entry.PerformedBy.ID,
		entry.PerformedBy.Email,
		string(entry.PerformedBy.Role),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
