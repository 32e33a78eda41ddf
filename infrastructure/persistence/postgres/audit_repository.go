package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
)

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) outbound.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO payout_audits (id, payout_id, action, performed_by_id, performed_by_email, performed_by_role, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
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

func (r *auditRepository) ListByPayout(ctx context.Context, payoutID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, payout_id, action, performed_by_id, performed_by_email, performed_by_role, timestamp
		FROM payout_audits
		WHERE payout_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, query, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}

func scanAuditEntry(rows *sql.Rows) (*entity.AuditEntry, error) {
	var entry entity.AuditEntry
	err := rows.Scan(
		&entry.ID,
		&entry.PayoutID,
		&entry.Action,
		&entry.PerformedBy.ID,
		&entry.PerformedBy.Email,
		&entry.PerformedBy.Role,
		&entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
