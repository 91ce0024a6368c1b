package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/types"
)

// CorridorBreachResponse is one approved entry whose variance against its
// peer-group median exceeds the alert threshold
type CorridorBreachResponse struct {
	EntryID     string          `json:"entry_id"`
	ProductID   string          `json:"product_id"`
	Currency    string          `json:"currency"`
	Ssp         decimal.Decimal `json:"ssp"`
	MedianSsp   decimal.Decimal `json:"median_ssp"`
	VariancePct decimal.Decimal `json:"variance_pct"`
}

// SspStateSnapshotResponse is a point-in-time integrity artifact: counts of
// catalog entries by currency and by determination method
type SspStateSnapshotResponse struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	TotalEntries int            `json:"total_entries"`
	ByCurrency   map[string]int `json:"by_currency"`
	ByMethod     map[string]int `json:"by_method"`
	ByStatus     map[string]int `json:"by_status"`
}

// ComplianceIssueResponse is one finding for the human review queue
type ComplianceIssueResponse struct {
	Code      types.ComplianceIssueCode `json:"code"`
	Severity  types.ComplianceSeverity  `json:"severity"`
	ProductID string                    `json:"product_id,omitempty"`
	EntryID   string                    `json:"entry_id,omitempty"`
	Message   string                    `json:"message"`
}
