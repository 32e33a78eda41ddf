package inbound

import (
	"context"

	"github.com/payflow/payflow/domain/entity"
)

type CreateVendorRequest struct {
	Name        string `json:"name"`
	UpiID       string `json:"upi_id"`
	BankAccount string `json:"bank_account"`
	IfscCode    string `json:"ifsc_code"`
}

type ListVendorsRequest struct {
	Page  int
	Limit int
}

type ListVendorsResponse struct {
	Vendors     []*entity.Vendor
	TotalPages  int
	CurrentPage int
}

type VendorUseCase interface {
	Create(ctx context.Context, actor entity.Actor, req CreateVendorRequest) (*entity.Vendor, error)
	List(ctx context.Context, actor entity.Actor, req ListVendorsRequest) (*ListVendorsResponse, error)
}
