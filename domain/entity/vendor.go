package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vendor is a payee record. Vendors are never hard-deleted; is_active is a
// soft flag and listings only show active vendors.
type Vendor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UpiID       string    `json:"upi_id"`
	BankAccount string    `json:"bank_account"`
	IfscCode    string    `json:"ifsc_code"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewVendor(name, upiID, bankAccount, ifscCode string) *Vendor {
	now := time.Now().UTC()
	return &Vendor{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		UpiID:       strings.TrimSpace(upiID),
		BankAccount: strings.TrimSpace(bankAccount),
		IfscCode:    strings.TrimSpace(ifscCode),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// VendorSummary is the slim vendor view embedded in payout listings.
type VendorSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	UpiID string `json:"upi_id"`
}
