package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/payflow/payflow/application/port/outbound"
	"github.com/payflow/payflow/domain/entity"
	"github.com/payflow/payflow/infrastructure/persistence/postgres"
)

// Seeds two demo users, a handful of vendors and one payout in every
// lifecycle state, each with a consistent audit trail.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	ctx := context.Background()
	userRepo := postgres.NewUserRepository(db)
	vendorRepo := postgres.NewVendorRepository(db)
	payoutRepo := postgres.NewPayoutRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	ops, err := ensureUser(ctx, userRepo, "ops@demo.com", "ops123", entity.RoleOps)
	if err != nil {
		log.Fatalf("failed to seed ops user: %v", err)
	}
	finance, err := ensureUser(ctx, userRepo, "finance@demo.com", "fin123", entity.RoleFinance)
	if err != nil {
		log.Fatalf("failed to seed finance user: %v", err)
	}

	count, err := vendorRepo.CountActive(ctx)
	if err != nil {
		log.Fatalf("failed to count vendors: %v", err)
	}
	if count > 0 {
		log.Println("vendors already present, skipping demo data")
		return
	}

	vendors := []*entity.Vendor{
		entity.NewVendor("Acme Supplies", "acme@upi", "123456789012", "HDFC0001234"),
		entity.NewVendor("Bharat Logistics", "bharatlog@upi", "987654321098", "ICIC0005678"),
		entity.NewVendor("Chai Point Catering", "chaipoint@upi", "456789012345", "SBIN0009012"),
	}
	for _, v := range vendors {
		if err := vendorRepo.Create(ctx, v); err != nil {
			log.Fatalf("failed to seed vendor %s: %v", v.Name, err)
		}
	}

	opsActor := ops.Snapshot()
	financeActor := finance.Snapshot()
	base := time.Now().UTC().Add(-48 * time.Hour)

	seeds := []struct {
		vendor  *entity.Vendor
		amount  float64
		mode    entity.PayoutMode
		note    string
		status  entity.PayoutStatus
		reason  string
		actions []entity.AuditAction
	}{
		{vendors[0], 1500, entity.PayoutModeUPI, "Office supplies April", entity.PayoutStatusDraft, "",
			[]entity.AuditAction{entity.AuditActionCreated}},
		{vendors[1], 24000, entity.PayoutModeNEFT, "Freight invoice #8841", entity.PayoutStatusSubmitted, "",
			[]entity.AuditAction{entity.AuditActionCreated, entity.AuditActionSubmitted}},
		{vendors[2], 5200, entity.PayoutModeUPI, "Team lunch catering", entity.PayoutStatusApproved, "",
			[]entity.AuditAction{entity.AuditActionCreated, entity.AuditActionSubmitted, entity.AuditActionApproved}},
		{vendors[1], 98000, entity.PayoutModeIMPS, "Disputed freight charge", entity.PayoutStatusRejected, "Amount does not match the invoice",
			[]entity.AuditAction{entity.AuditActionCreated, entity.AuditActionSubmitted, entity.AuditActionRejected}},
	}

	for i, s := range seeds {
		createdAt := base.Add(time.Duration(i) * time.Hour)

		payout := entity.NewPayout(s.vendor.ID, s.amount, s.mode, s.note, opsActor)
		payout.CreatedAt = createdAt
		payout.UpdatedAt = createdAt.Add(time.Duration(len(s.actions)-1) * 10 * time.Minute)
		payout.Status = s.status
		payout.DecisionReason = s.reason

		created := entity.NewAuditEntryAt(payout.ID, entity.AuditActionCreated, opsActor, createdAt)
		if err := payoutRepo.Create(ctx, payout, created); err != nil {
			log.Fatalf("failed to seed payout: %v", err)
		}

		for j, action := range s.actions[1:] {
			actor := opsActor
			if action == entity.AuditActionApproved || action == entity.AuditActionRejected {
				actor = financeActor
			}
			at := createdAt.Add(time.Duration(j+1) * 10 * time.Minute)
			entry := entity.NewAuditEntryAt(payout.ID, action, actor, at)
			if err := auditRepo.Create(ctx, entry); err != nil {
				log.Fatalf("failed to seed audit entry: %v", err)
			}
		}
	}

	fmt.Println("Seeded demo data:")
	fmt.Println("  ops@demo.com / ops123 (OPS)")
	fmt.Println("  finance@demo.com / fin123 (FINANCE)")
	fmt.Printf("  %d vendors, %d payouts\n", len(vendors), len(seeds))
}

func ensureUser(ctx context.Context, repo outbound.UserRepository, email, password string, role entity.Role) (*entity.User, error) {
	existing, err := repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, outbound.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := entity.NewUser(email, string(hash), role)
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
