package allocation

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// InvoiceSnapshot is the invoice as supplied by the billing subsystem. The
// engine treats line amounts as the pre-discount reference and never
// re-derives them.
type InvoiceSnapshot struct {
	ID          string          `json:"id"`
	ContractID  string          `json:"contract_id"`
	CustomerID  string          `json:"customer_id"`
	InvoiceDate time.Time       `json:"invoice_date"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []InvoiceLine   `json:"lines"`
}

// InvoiceLine is one deliverable on the invoice
type InvoiceLine struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Amount    decimal.Decimal `json:"amount"`
	Qty       decimal.Decimal `json:"qty"`
	UOM       string          `json:"uom,omitempty"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
}

// Validate checks the snapshot is usable as allocation input
func (s *InvoiceSnapshot) Validate() error {
	if s.ID == "" {
		return ierr.NewError("invoice id is required").
			WithHint("Please provide the invoice identifier").
			Mark(ierr.ErrValidation)
	}
	if s.Currency == "" {
		return ierr.NewError("invoice currency is required").
			WithHint("Please provide the invoice currency").
			Mark(ierr.ErrValidation)
	}
	if s.InvoiceDate.IsZero() {
		return ierr.NewError("invoice date is required").
			WithHint("Please provide the invoice date").
			Mark(ierr.ErrValidation)
	}
	if len(s.Lines) == 0 {
		return ierr.NewError("invoice has no lines").
			WithHint("At least one invoice line is required for allocation").
			Mark(ierr.ErrValidation)
	}
	if s.TotalAmount.IsNegative() {
		return ierr.NewError("invoice total must not be negative").
			WithHintf("Invoice %s has a negative total", s.ID).
			Mark(ierr.ErrValidation)
	}
	for _, line := range s.Lines {
		if line.ID == "" || line.ProductID == "" {
			return ierr.NewError("invoice line is missing id or product").
				WithHint("Every invoice line needs an id and a product").
				WithReportableDetails(map[string]any{
					"invoice_id": s.ID,
					"line_id":    line.ID,
				}).
				Mark(ierr.ErrValidation)
		}
		if line.Qty.IsNegative() {
			return ierr.NewError("invoice line quantity must not be negative").
				WithReportableDetails(map[string]any{
					"invoice_id": s.ID,
					"line_id":    line.ID,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// InvoiceSnapshot is persisted on the audit row as a JSONB inputs column
func (s InvoiceSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *InvoiceSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = InvoiceSnapshot{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return ierr.NewError("unsupported scan type for invoice snapshot").
			Mark(ierr.ErrSystem)
	}
	return json.Unmarshal(b, s)
}

// LineAllocation is the allocated amount for one invoice line
type LineAllocation struct {
	LineID    string           `json:"line_id"`
	ProductID string           `json:"product_id"`
	Ssp       *decimal.Decimal `json:"ssp,omitempty"`
	Weight    *decimal.Decimal `json:"weight,omitempty"`
	Amount    decimal.Decimal  `json:"amount"`
}

// LineAllocations is persisted on the audit row as a JSONB results column
type LineAllocations []LineAllocation

func (l LineAllocations) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *LineAllocations) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return ierr.NewError("unsupported scan type for line allocations").
			Mark(ierr.ErrSystem)
	}
	return json.Unmarshal(b, l)
}

// Result is the outcome of one strategy run. It is pure computation output;
// persistence happens on the audit record.
type Result struct {
	Strategy           types.AllocationStrategy
	Lines              LineAllocations
	TotalAllocated     decimal.Decimal
	RoundingAdjustment decimal.Decimal
	Flagged            bool
	FlagReason         string
}

// Audit is the immutable evidence trail for one (invoice, run). It is created
// exactly once; a repeat invocation for the same pair is a conflict.
type Audit struct {
	ID                 string                   `db:"id" json:"id"`
	InvoiceID          string                   `db:"invoice_id" json:"invoice_id"`
	RunID              string                   `db:"run_id" json:"run_id"`
	Strategy           types.AllocationStrategy `db:"strategy" json:"strategy"`
	Method             types.SspMethod          `db:"method" json:"method"`
	Inputs             InvoiceSnapshot          `db:"inputs" json:"inputs"`
	Results            LineAllocations          `db:"results" json:"results"`
	CorridorFlag       bool                     `db:"corridor_flag" json:"corridor_flag"`
	FlagReason         string                   `db:"flag_reason" json:"flag_reason,omitempty"`
	TotalInvoiceAmount decimal.Decimal          `db:"total_invoice_amount" json:"total_invoice_amount"`
	TotalDiscount      decimal.Decimal          `db:"total_discount" json:"total_discount"`
	TotalAllocated     decimal.Decimal          `db:"total_allocated" json:"total_allocated"`
	RoundingAdjustment decimal.Decimal          `db:"rounding_adjustment" json:"rounding_adjustment"`
	ProcessingTimeMs   int64                    `db:"processing_time_ms" json:"processing_time_ms"`

	types.BaseModel
}
