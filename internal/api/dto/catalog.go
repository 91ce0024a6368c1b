package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// CreateSspEntryRequest creates a new DRAFT catalog entry. Out-of-corridor
// prices are rejected unless ForceSave is set with a reason.
type CreateSspEntryRequest struct {
	ProductID       string           `json:"product_id" validate:"required"`
	Currency        string           `json:"currency" validate:"required,len=3"`
	Ssp             decimal.Decimal  `json:"ssp"`
	Method          types.SspMethod  `json:"method" validate:"required"`
	EffectiveFrom   time.Time        `json:"effective_from" validate:"required"`
	EffectiveTo     *time.Time       `json:"effective_to,omitempty"`
	CorridorMinPct  *decimal.Decimal `json:"corridor_min_pct,omitempty"`
	CorridorMaxPct  *decimal.Decimal `json:"corridor_max_pct,omitempty"`
	ForceSave       bool             `json:"force_save,omitempty"`
	ForceSaveReason string           `json:"force_save_reason,omitempty"`
}

func (r *CreateSspEntryRequest) Validate() error {
	if r.ForceSave && r.ForceSaveReason == "" {
		return ierr.NewError("force_save_reason is required when force saving").
			WithHint("Please provide a reason for saving an out-of-corridor price").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToEntry converts the request to a DRAFT catalog entry
func (r *CreateSspEntryRequest) ToEntry(baseModel types.BaseModel) *catalog.Entry {
	return &catalog.Entry{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SSP_ENTRY),
		ProductID:      r.ProductID,
		Currency:       r.Currency,
		Ssp:            r.Ssp,
		Method:         r.Method,
		EffectiveFrom:  r.EffectiveFrom,
		EffectiveTo:    r.EffectiveTo,
		CorridorMinPct: r.CorridorMinPct,
		CorridorMaxPct: r.CorridorMaxPct,
		EntryStatus:    types.SspEntryStatusDraft,
		BaseModel:      baseModel,
	}
}

// SspEntryResponse is the catalog entry response, optionally carrying the
// corridor advisory computed at write time
type SspEntryResponse struct {
	*catalog.Entry
	Corridor *CorridorCheckResponse `json:"corridor,omitempty"`
}

// ListSspEntriesResponse carries all entries for a tenant
type ListSspEntriesResponse struct {
	Items []*SspEntryResponse `json:"items"`
	Total int                 `json:"total"`
}

// CorridorCheckRequest asks whether a candidate price sits inside the
// statistical corridor of its peer group
type CorridorCheckRequest struct {
	ProductID    string          `json:"product_id" validate:"required"`
	Currency     string          `json:"currency" validate:"required,len=3"`
	CandidateSsp decimal.Decimal `json:"candidate_ssp"`
}

// CorridorCheckResponse is the corridor advisory result. Median and variance
// are omitted when the peer group is empty (trivially compliant).
type CorridorCheckResponse struct {
	Compliant   bool             `json:"compliant"`
	MedianSsp   *decimal.Decimal `json:"median_ssp,omitempty"`
	VariancePct *decimal.Decimal `json:"variance_pct,omitempty"`
}
