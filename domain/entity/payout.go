package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PayoutStatus is the lifecycle status of a payout.
// Draft -> Submitted -> Approved | Rejected; no other edge exists.
type PayoutStatus string

const (
	PayoutStatusDraft     PayoutStatus = "Draft"
	PayoutStatusSubmitted PayoutStatus = "Submitted"
	PayoutStatusApproved  PayoutStatus = "Approved"
	PayoutStatusRejected  PayoutStatus = "Rejected"
)

// PayoutStatuses lists every status in lifecycle order.
var PayoutStatuses = []PayoutStatus{
	PayoutStatusDraft,
	PayoutStatusSubmitted,
	PayoutStatusApproved,
	PayoutStatusRejected,
}

// ValidPayoutStatus reports whether s is a known status.
func ValidPayoutStatus(s PayoutStatus) bool {
	for _, known := range PayoutStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PayoutMode is the transfer rail. Fixed at creation.
type PayoutMode string

const (
	PayoutModeUPI  PayoutMode = "UPI"
	PayoutModeIMPS PayoutMode = "IMPS"
	PayoutModeNEFT PayoutMode = "NEFT"
)

// ValidPayoutMode reports whether m is a known mode.
func ValidPayoutMode(m PayoutMode) bool {
	return m == PayoutModeUPI || m == PayoutModeIMPS || m == PayoutModeNEFT
}

// Payout is a single money-movement request to a vendor, tracked through an
// approval lifecycle. Payouts are never deleted.
type Payout struct {
	ID             string         `json:"id"`
	VendorID       string         `json:"vendor_id"`
	Vendor         *VendorSummary `json:"vendor,omitempty"`
	Amount         float64        `json:"amount"`
	Mode           PayoutMode     `json:"mode"`
	Note           string         `json:"note"`
	Status         PayoutStatus   `json:"status"`
	DecisionReason string         `json:"decision_reason"`
	CreatedBy      Actor          `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewPayout creates a payout in Draft. Input validation (amount, mode,
// vendor existence) belongs to the caller; the constructor only records.
func NewPayout(vendorID string, amount float64, mode PayoutMode, note string, createdBy Actor) *Payout {
	now := time.Now().UTC()
	return &Payout{
		ID:        uuid.NewString(),
		VendorID:  vendorID,
		Amount:    amount,
		Mode:      mode,
		Note:      strings.TrimSpace(note),
		Status:    PayoutStatusDraft,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ActionType names a lifecycle transition.
type ActionType string

const (
	ActionSubmit  ActionType = "submit"
	ActionApprove ActionType = "approve"
	ActionReject  ActionType = "reject"
)

// Action is a tagged transition request. Reason is only meaningful for
// reject, where it becomes the payout's decision_reason.
type Action struct {
	Type   ActionType
	Reason string
}

// TransitionRule binds an action to the role allowed to perform it, the
// status it may be applied from, the status it produces and the audit
// action recorded for it. One table drives every entry point so the unified
// and per-action endpoints cannot drift apart.
type TransitionRule struct {
	Role        Role
	From        PayoutStatus
	To          PayoutStatus
	AuditAction AuditAction
}

var transitionRules = map[ActionType]TransitionRule{
	ActionSubmit:  {Role: RoleOps, From: PayoutStatusDraft, To: PayoutStatusSubmitted, AuditAction: AuditActionSubmitted},
	ActionApprove: {Role: RoleFinance, From: PayoutStatusSubmitted, To: PayoutStatusApproved, AuditAction: AuditActionApproved},
	ActionReject:  {Role: RoleFinance, From: PayoutStatusSubmitted, To: PayoutStatusRejected, AuditAction: AuditActionRejected},
}

// RuleFor returns the transition rule for an action.
func RuleFor(action ActionType) (TransitionRule, bool) {
	rule, ok := transitionRules[action]
	return rule, ok
}

// Domain errors raised by the state machine.
var (
	ErrUnknownAction  = NewDomainError("invalid action")
	ErrReasonRequired = NewDomainError("decision_reason is mandatory when rejecting a payout")
)

// InvalidTransitionError reports an action attempted from a status that does
// not match its precondition.
type InvalidTransitionError struct {
	Action  ActionType
	Current PayoutStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s — current status is %q", e.Action, e.Current)
}

// Validate checks the action payload itself: the action must be known and a
// reject must carry a non-blank reason. Runs before any state is inspected.
func (a Action) Validate() error {
	if _, ok := transitionRules[a.Type]; !ok {
		return ErrUnknownAction
	}
	if a.Type == ActionReject && strings.TrimSpace(a.Reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// Apply performs the transition on the in-memory payout. The status
// precondition is re-checked against the persisted row when saving, so a
// concurrent conflicting transition loses the race there.
func (p *Payout) Apply(a Action) (TransitionRule, error) {
	if err := a.Validate(); err != nil {
		return TransitionRule{}, err
	}
	rule := transitionRules[a.Type]
	if p.Status != rule.From {
		return TransitionRule{}, &InvalidTransitionError{Action: a.Type, Current: p.Status}
	}
	p.Status = rule.To
	if a.Type == ActionReject {
		p.DecisionReason = strings.TrimSpace(a.Reason)
	}
	p.UpdatedAt = time.Now().UTC()
	return rule, nil
}

// DomainError represents a domain-specific error.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}
