package dto

import (
	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/domain/allocation"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// AllocateRequest runs an allocation for one (invoice, run) pair. Strategy
// defaults to AUTO; an explicit strategy bypasses determination.
type AllocateRequest struct {
	RunID    string                     `json:"run_id" validate:"required"`
	Strategy types.AllocationStrategy   `json:"strategy,omitempty"`
	Invoice  allocation.InvoiceSnapshot `json:"invoice"`
}

func (r *AllocateRequest) Validate() error {
	if r.RunID == "" {
		return ierr.NewError("run_id is required").
			WithHint("Please provide a run identifier for the allocation").
			Mark(ierr.ErrValidation)
	}
	if r.Strategy == "" {
		r.Strategy = types.AllocationStrategyAuto
	}
	if err := r.Strategy.Validate(); err != nil {
		return err
	}
	return r.Invoice.Validate()
}

// AllocationResponse is the allocation outcome: per-line allocated amounts
// plus the audit identifier the recognition scheduler keys on
type AllocationResponse struct {
	AuditID            string                     `json:"audit_id"`
	InvoiceID          string                     `json:"invoice_id"`
	RunID              string                     `json:"run_id"`
	Strategy           types.AllocationStrategy   `json:"strategy"`
	Lines              allocation.LineAllocations `json:"lines"`
	TotalInvoiceAmount decimal.Decimal            `json:"total_invoice_amount"`
	TotalDiscount      decimal.Decimal            `json:"total_discount"`
	TotalAllocated     decimal.Decimal            `json:"total_allocated"`
	RoundingAdjustment decimal.Decimal            `json:"rounding_adjustment"`
	CorridorFlag       bool                       `json:"corridor_flag"`
	FlagReason         string                     `json:"flag_reason,omitempty"`
	AppliedDiscounts   []*DiscountAppliedResponse `json:"applied_discounts,omitempty"`
}

// AllocationAuditResponse is the persisted audit record
type AllocationAuditResponse struct {
	*allocation.Audit
}
