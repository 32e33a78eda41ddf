package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names the transition an audit entry records.
type AuditAction string

const (
	AuditActionCreated   AuditAction = "CREATED"
	AuditActionSubmitted AuditAction = "SUBMITTED"
	AuditActionApproved  AuditAction = "APPROVED"
	AuditActionRejected  AuditAction = "REJECTED"
)

// AuditEntry is an immutable record of one payout lifecycle transition.
// Entries are append-only; no update or delete operation exists.
type AuditEntry struct {
	ID          string      `json:"id"`
	PayoutID    string      `json:"payout_id"`
	Action      AuditAction `json:"action"`
	PerformedBy Actor       `json:"performed_by"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewAuditEntry records an action with a server-assigned timestamp.
func NewAuditEntry(payoutID string, action AuditAction, performedBy Actor) *AuditEntry {
	return &AuditEntry{
		ID:          uuid.NewString(),
		PayoutID:    payoutID,
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   time.Now().UTC(),
	}
}

// NewAuditEntryAt records an action with an explicit timestamp, honored
// verbatim. Used for seeding and backfill.
func NewAuditEntryAt(payoutID string, action AuditAction, performedBy Actor, at time.Time) *AuditEntry {
	entry := NewAuditEntry(payoutID, action, performedBy)
	entry.Timestamp = at
	return entry
}
