package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/payflow/payflow/application/port/inbound"
	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/service/logger"
	"github.com/payflow/payflow/pkg/apperror"
)

// Mock implementations

type mockVendorRepository struct {
	vendors map[string]*entity.Vendor
}

func newMockVendorRepository() *mockVendorRepository {
	return &mockVendorRepository{vendors: make(map[string]*entity.Vendor)}
}

func (m *mockVendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	m.vendors[vendor.ID] = vendor
	return nil
}

func (m *mockVendorRepository) FindByID(ctx context.Context, id string) (*entity.Vendor, error) {
	if vendor, exists := m.vendors[id]; exists {
		return vendor, nil
	}
	return nil, outbound.ErrVendorNotFound
}

func (m *mockVendorRepository) ListActive(ctx context.Context, offset, limit int) ([]*entity.Vendor, error) {
	var active []*entity.Vendor
	for _, vendor := range m.vendors {
		if vendor.IsActive {
			active = append(active, vendor)
		}
	}
	if offset >= len(active) {
		return nil, nil
	}
	end := offset + limit
	if end > len(active) {
		end = len(active)
	}
	return active[offset:end], nil
}

func (m *mockVendorRepository) CountActive(ctx context.Context) (int, error) {
	count := 0
	for _, vendor := range m.vendors {
		if vendor.IsActive {
			count++
		}
	}
	return count, nil
}

type mockAuditRepository struct {
	entries []*entity.AuditEntry
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepository) ListByPayout(ctx context.Context, payoutID string) ([]*entity.AuditEntry, error) {
	var result []*entity.AuditEntry
	for _, entry := range m.entries {
		if entry.PayoutID == payoutID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// mockPayoutRepository keeps payouts in a map and mirrors the real
// repository's compare-and-set semantics, including the shared audit trail.
type mockPayoutRepository struct {
	payouts map[string]*entity.Payout
	audits  *mockAuditRepository
	// forceConflict makes the next ApplyTransition fail as if a concurrent
	// transition had won the race.
	forceConflict bool
}

func newMockPayoutRepository(audits *mockAuditRepository) *mockPayoutRepository {
	return &mockPayoutRepository{payouts: make(map[string]*entity.Payout), audits: audits}
}

func (m *mockPayoutRepository) Create(ctx context.Context, payout *entity.Payout, audit *entity.AuditEntry) error {
	stored := *payout
	m.payouts[payout.ID] = &stored
	return m.audits.Create(ctx, audit)
}

func (m *mockPayoutRepository) FindByID(ctx context.Context, id string) (*entity.Payout, error) {
	stored, exists := m.payouts[id]
	if !exists {
		return nil, outbound.ErrPayoutNotFound
	}
	copy := *stored
	return &copy, nil
}

func (m *mockPayoutRepository) List(ctx context.Context, filter outbound.PayoutFilter) ([]*entity.Payout, error) {
	matched := m.matching(filter)
	if filter.Offset >= len(matched) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func (m *mockPayoutRepository) Count(ctx context.Context, filter outbound.PayoutFilter) (int, error) {
	return len(m.matching(filter)), nil
}

func (m *mockPayoutRepository) ApplyTransition(ctx context.Context, payout *entity.Payout, expectedStatus entity.PayoutStatus, audit *entity.AuditEntry) error {
	stored, exists := m.payouts[payout.ID]
	if !exists {
		return outbound.ErrPayoutNotFound
	}
	if m.forceConflict {
		m.forceConflict = false
		return outbound.ErrStatusConflict
	}
	if stored.Status != expectedStatus {
		return outbound.ErrStatusConflict
	}
	stored.Status = payout.Status
	stored.DecisionReason = payout.DecisionReason
	stored.UpdatedAt = payout.UpdatedAt
	return m.audits.Create(ctx, audit)
}

func (m *mockPayoutRepository) StatusTotals(ctx context.Context) (map[entity.PayoutStatus]outbound.StatusTotal, error) {
	totals := make(map[entity.PayoutStatus]outbound.StatusTotal)
	for _, payout := range m.payouts {
		total := totals[payout.Status]
		total.Count++
		total.Amount += payout.Amount
		totals[payout.Status] = total
	}
	return totals, nil
}

func (m *mockPayoutRepository) matching(filter outbound.PayoutFilter) []*entity.Payout {
	var matched []*entity.Payout
	for _, payout := range m.payouts {
		if filter.Status != nil && payout.Status != *filter.Status {
			continue
		}
		if filter.VendorID != nil && payout.VendorID != *filter.VendorID {
			continue
		}
		matched = append(matched, payout)
	}
	return matched
}

type payoutFixture struct {
	useCase    *PayoutUseCase
	payoutRepo *mockPayoutRepository
	vendorRepo *mockVendorRepository
	auditRepo  *mockAuditRepository
	vendor     *entity.Vendor
	ops        entity.Actor
	finance    entity.Actor
}

func newPayoutFixture() *payoutFixture {
	auditRepo := &mockAuditRepository{}
	payoutRepo := newMockPayoutRepository(auditRepo)
	vendorRepo := newMockVendorRepository()

	vendor := entity.NewVendor("Acme Supplies", "acme@upi", "123456789012", "HDFC0001234")
	vendorRepo.vendors[vendor.ID] = vendor

	return &payoutFixture{
		useCase:    NewPayoutUseCase(payoutRepo, vendorRepo, auditRepo, logger.Noop()),
		payoutRepo: payoutRepo,
		vendorRepo: vendorRepo,
		auditRepo:  auditRepo,
		vendor:     vendor,
		ops:        entity.Actor{ID: "ops-1", Email: "ops@demo.com", Role: entity.RoleOps},
		finance:    entity.Actor{ID: "fin-1", Email: "finance@demo.com", Role: entity.RoleFinance},
	}
}

func (f *payoutFixture) createDraft(t *testing.T) *entity.Payout {
	t.Helper()
	payout, err := f.useCase.Create(context.Background(), f.ops, inbound.CreatePayoutRequest{
		VendorID: f.vendor.ID,
		Amount:   1500,
		Mode:     "UPI",
		Note:     "test payout",
	})
	if err != nil {
		t.Fatalf("Failed to create payout: %v", err)
	}
	return payout
}

func (f *payoutFixture) auditActions(payoutID string) []entity.AuditAction {
	var actions []entity.AuditAction
	for _, entry := range f.auditRepo.entries {
		if entry.PayoutID == payoutID {
			actions = append(actions, entry.Action)
		}
	}
	return actions
}

func TestPayoutUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)

		if payout.Status != entity.PayoutStatusDraft {
			t.Errorf("Expected Draft status, got %s", payout.Status)
		}
		if payout.Vendor == nil || payout.Vendor.Name != "Acme Supplies" {
			t.Errorf("Expected vendor summary, got %+v", payout.Vendor)
		}
		actions := f.auditActions(payout.ID)
		if len(actions) != 1 || actions[0] != entity.AuditActionCreated {
			t.Errorf("Expected exactly one CREATED entry, got %v", actions)
		}
	})

	t.Run("FinanceForbidden", func(t *testing.T) {
		f := newPayoutFixture()
		_, err := f.useCase.Create(ctx, f.finance, inbound.CreatePayoutRequest{
			VendorID: f.vendor.ID, Amount: 100, Mode: "UPI",
		})
		if !apperror.Is(err, apperror.CodeForbidden) {
			t.Errorf("Expected FORBIDDEN, got %v", err)
		}
	})

	t.Run("MissingVendorID", func(t *testing.T) {
		f := newPayoutFixture()
		_, err := f.useCase.Create(ctx, f.ops, inbound.CreatePayoutRequest{Amount: 100, Mode: "UPI"})
		if !apperror.Is(err, apperror.CodeValidation) {
			t.Errorf("Expected VALIDATION_ERROR, got %v", err)
		}
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		f := newPayoutFixture()
		for _, amount := range []float64{0, -50} {
			_, err := f.useCase.Create(ctx, f.ops, inbound.CreatePayoutRequest{
				VendorID: f.vendor.ID, Amount: amount, Mode: "UPI",
			})
			if !apperror.Is(err, apperror.CodeValidation) {
				t.Errorf("Expected VALIDATION_ERROR for amount %v, got %v", amount, err)
			}
		}
	})

	t.Run("UnknownMode", func(t *testing.T) {
		f := newPayoutFixture()
		_, err := f.useCase.Create(ctx, f.ops, inbound.CreatePayoutRequest{
			VendorID: f.vendor.ID, Amount: 100, Mode: "CASH",
		})
		if !apperror.Is(err, apperror.CodeValidation) {
			t.Errorf("Expected VALIDATION_ERROR, got %v", err)
		}
	})

	t.Run("UnknownVendor", func(t *testing.T) {
		f := newPayoutFixture()
		_, err := f.useCase.Create(ctx, f.ops, inbound.CreatePayoutRequest{
			VendorID: "missing", Amount: 100, Mode: "UPI",
		})
		if !apperror.Is(err, apperror.CodeValidation) {
			t.Errorf("Expected VALIDATION_ERROR, got %v", err)
		}
	})
}

func TestPayoutUseCase_TransitionLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("SubmitThenApprove", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)

		submitted, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionSubmit})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if submitted.Status != entity.PayoutStatusSubmitted {
			t.Errorf("Expected Submitted, got %s", submitted.Status)
		}

		approved, err := f.useCase.Transition(ctx, f.finance, payout.ID, entity.Action{Type: entity.ActionApprove})
		if err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
		if approved.Status != entity.PayoutStatusApproved {
			t.Errorf("Expected Approved, got %s", approved.Status)
		}

		actions := f.auditActions(payout.ID)
		want := []entity.AuditAction{entity.AuditActionCreated, entity.AuditActionSubmitted, entity.AuditActionApproved}
		if len(actions) != len(want) {
			t.Fatalf("Expected %d audit entries, got %d", len(want), len(actions))
		}
		for i := range want {
			if actions[i] != want[i] {
				t.Errorf("Audit entry %d: expected %s, got %s", i, want[i], actions[i])
			}
		}
	})

	t.Run("SubmitThenReject", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)

		if _, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionSubmit}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		rejected, err := f.useCase.Transition(ctx, f.finance, payout.ID, entity.Action{Type: entity.ActionReject, Reason: "amount mismatch"})
		if err != nil {
			t.Fatalf("Reject failed: %v", err)
		}
		if rejected.Status != entity.PayoutStatusRejected {
			t.Errorf("Expected Rejected, got %s", rejected.Status)
		}
		if rejected.DecisionReason != "amount mismatch" {
			t.Errorf("Expected decision reason, got %q", rejected.DecisionReason)
		}
	})

	t.Run("ApproveFromDraft", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)

		_, err := f.useCase.Transition(ctx, f.finance, payout.ID, entity.Action{Type: entity.ActionApprove})
		if !apperror.Is(err, apperror.CodeInvalidTransition) {
			t.Errorf("Expected INVALID_STATE_TRANSITION, got %v", err)
		}

		stored, _ := f.payoutRepo.FindByID(ctx, payout.ID)
		if stored.Status != entity.PayoutStatusDraft {
			t.Errorf("Failed transition must not change status, got %s", stored.Status)
		}
		if actions := f.auditActions(payout.ID); len(actions) != 1 {
			t.Errorf("Failed transition must not append audit entries, got %v", actions)
		}
	})

	t.Run("ApproveTwice", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)

		if _, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionSubmit}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if _, err := f.useCase.Transition(ctx, f.finance, payout.ID, entity.Action{Type: entity.ActionApprove}); err != nil {
			t.Fatalf("First approve failed: %v", err)
		}

		_, err := f.useCase.Transition(ctx, f.finance, payout.ID, entity.Action{Type: entity.ActionApprove})
		if !apperror.Is(err, apperror.CodeInvalidTransition) {
			t.Errorf("Expected INVALID_STATE_TRANSITION on second approve, got %v", err)
		}
		if actions := f.auditActions(payout.ID); len(actions) != 3 {
			t.Errorf("Expected 3 audit entries after failed re-approve, got %d", len(actions))
		}
	})

	t.Run("RejectWithoutReason", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)
		if _, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionSubmit}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		_, err := f.useCase.Transition(ctx, f.finance, payout.ID, entity.Action{Type: entity.ActionReject, Reason: "   "})
		if !apperror.Is(err, apperror.CodeMissingField) {
			t.Errorf("Expected MISSING_REQUIRED_FIELD, got %v", err)
		}

		stored, _ := f.payoutRepo.FindByID(ctx, payout.ID)
		if stored.Status != entity.PayoutStatusSubmitted {
			t.Errorf("Failed reject must not change status, got %s", stored.Status)
		}
	})

	t.Run("RoleEnforcement", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)

		if _, err := f.useCase.Transition(ctx, f.finance, payout.ID, entity.Action{Type: entity.ActionSubmit}); !apperror.Is(err, apperror.CodeForbidden) {
			t.Errorf("Expected FORBIDDEN for finance submit, got %v", err)
		}
		if _, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionApprove}); !apperror.Is(err, apperror.CodeForbidden) {
			t.Errorf("Expected FORBIDDEN for ops approve, got %v", err)
		}
		if _, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionReject, Reason: "x"}); !apperror.Is(err, apperror.CodeForbidden) {
			t.Errorf("Expected FORBIDDEN for ops reject, got %v", err)
		}
	})

	t.Run("UnknownAction", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)

		_, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: "escalate"})
		if !apperror.Is(err, apperror.CodeValidation) {
			t.Errorf("Expected VALIDATION_ERROR, got %v", err)
		}
	})

	t.Run("PayoutNotFound", func(t *testing.T) {
		f := newPayoutFixture()
		_, err := f.useCase.Transition(ctx, f.ops, "missing", entity.Action{Type: entity.ActionSubmit})
		if !apperror.Is(err, apperror.CodeNotFound) {
			t.Errorf("Expected NOT_FOUND, got %v", err)
		}
	})

	// Checks run in a fixed order: role before existence, reason before
	// existence. A FINANCE caller probing a random ID learns nothing about
	// whether it exists.
	t.Run("CheckOrdering", func(t *testing.T) {
		f := newPayoutFixture()

		if _, err := f.useCase.Transition(ctx, f.ops, "missing", entity.Action{Type: entity.ActionApprove}); !apperror.Is(err, apperror.CodeForbidden) {
			t.Errorf("Role check must precede existence check, got %v", err)
		}
		if _, err := f.useCase.Transition(ctx, f.finance, "missing", entity.Action{Type: entity.ActionReject}); !apperror.Is(err, apperror.CodeMissingField) {
			t.Errorf("Reason check must precede existence check, got %v", err)
		}
	})

	t.Run("ConcurrentConflict", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)

		f.payoutRepo.forceConflict = true
		_, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionSubmit})
		if !apperror.Is(err, apperror.CodeInvalidTransition) {
			t.Errorf("Expected INVALID_STATE_TRANSITION on lost race, got %v", err)
		}
	})
}

func TestPayoutUseCase_List(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *payoutFixture, n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			payout := entity.NewPayout(f.vendor.ID, float64(100+i), entity.PayoutModeUPI, fmt.Sprintf("payout %d", i), f.ops)
			audit := entity.NewAuditEntry(payout.ID, entity.AuditActionCreated, f.ops)
			if err := f.payoutRepo.Create(ctx, payout, audit); err != nil {
				t.Fatalf("Failed to seed payout: %v", err)
			}
		}
	}

	t.Run("PaginationMath", func(t *testing.T) {
		f := newPayoutFixture()
		seed(t, f, 25)

		res, err := f.useCase.List(ctx, f.ops, inbound.ListPayoutsRequest{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(res.Payouts) != 10 {
			t.Errorf("Expected default limit 10, got %d", len(res.Payouts))
		}
		if res.TotalPages != 3 {
			t.Errorf("Expected 3 pages for 25 payouts, got %d", res.TotalPages)
		}
		if res.CurrentPage != 1 {
			t.Errorf("Expected current page 1, got %d", res.CurrentPage)
		}

		last, err := f.useCase.List(ctx, f.ops, inbound.ListPayoutsRequest{Page: 3})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(last.Payouts) != 5 {
			t.Errorf("Expected 5 payouts on last page, got %d", len(last.Payouts))
		}
	})

	t.Run("PageBeyondTotalIsEmptyNotError", func(t *testing.T) {
		f := newPayoutFixture()
		seed(t, f, 25)

		res, err := f.useCase.List(ctx, f.ops, inbound.ListPayoutsRequest{Page: 99})
		if err != nil {
			t.Fatalf("Out-of-range page must not be an error: %v", err)
		}
		if len(res.Payouts) != 0 {
			t.Errorf("Expected empty list beyond last page, got %d payouts", len(res.Payouts))
		}
		if res.TotalPages != 3 {
			t.Errorf("Expected totalPages unchanged at 3, got %d", res.TotalPages)
		}
		if res.CurrentPage != 99 {
			t.Errorf("Expected requested page echoed, got %d", res.CurrentPage)
		}
	})

	t.Run("NormalizesPageAndLimit", func(t *testing.T) {
		f := newPayoutFixture()
		seed(t, f, 5)

		res, err := f.useCase.List(ctx, f.ops, inbound.ListPayoutsRequest{Page: -3, Limit: 1000})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if res.CurrentPage != 1 {
			t.Errorf("Expected page normalized to 1, got %d", res.CurrentPage)
		}
		if res.TotalPages != 1 {
			t.Errorf("Expected limit capped at 100, got %d pages", res.TotalPages)
		}
	})

	t.Run("StatusFilter", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)
		if _, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionSubmit}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		f.createDraft(t)

		res, err := f.useCase.List(ctx, f.ops, inbound.ListPayoutsRequest{Status: "Submitted"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(res.Payouts) != 1 || res.Payouts[0].Status != entity.PayoutStatusSubmitted {
			t.Errorf("Expected one submitted payout, got %d", len(res.Payouts))
		}
	})

	t.Run("UnknownStatusFilter", func(t *testing.T) {
		f := newPayoutFixture()
		_, err := f.useCase.List(ctx, f.ops, inbound.ListPayoutsRequest{Status: "Pending"})
		if !apperror.Is(err, apperror.CodeValidation) {
			t.Errorf("Expected VALIDATION_ERROR, got %v", err)
		}
	})
}

func TestPayoutUseCase_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newPayoutFixture()
		payout := f.createDraft(t)
		if _, err := f.useCase.Transition(ctx, f.ops, payout.ID, entity.Action{Type: entity.ActionSubmit}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		detail, err := f.useCase.Get(ctx, f.finance, payout.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if detail.Payout.ID != payout.ID {
			t.Errorf("Expected payout %s, got %s", payout.ID, detail.Payout.ID)
		}
		if detail.Vendor == nil || detail.Vendor.ID != f.vendor.ID {
			t.Errorf("Expected vendor %s, got %+v", f.vendor.ID, detail.Vendor)
		}
		if len(detail.Audits) != 2 {
			t.Errorf("Expected 2 audit entries, got %d", len(detail.Audits))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newPayoutFixture()
		_, err := f.useCase.Get(ctx, f.ops, "missing")
		if !apperror.Is(err, apperror.CodeNotFound) {
			t.Errorf("Expected NOT_FOUND, got %v", err)
		}
	})
}
