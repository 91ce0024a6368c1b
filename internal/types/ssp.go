package types

import (
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/samber/lo"
)

// SspMethod indicates how a standalone selling price was determined
type SspMethod string

const (
	// SspMethodObservable indicates a directly observable standalone selling price
	SspMethodObservable SspMethod = "OBSERVABLE"
	// SspMethodBenchmark indicates a price derived from market benchmarks
	SspMethodBenchmark SspMethod = "BENCHMARK"
	// SspMethodAdjCost indicates an adjusted cost-plus-margin estimate
	SspMethodAdjCost SspMethod = "ADJ_COST"
	// SspMethodResidual indicates the price is determined as a contract residual
	SspMethodResidual SspMethod = "RESIDUAL"
)

func (m SspMethod) String() string {
	return string(m)
}

func (m SspMethod) Validate() error {
	allowed := []SspMethod{
		SspMethodObservable,
		SspMethodBenchmark,
		SspMethodAdjCost,
		SspMethodResidual,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid ssp determination method").
			WithHint("Please provide a valid SSP determination method").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SspEntryStatus represents the governance lifecycle of a catalog entry.
// Transitions are one-way: DRAFT -> REVIEWED -> APPROVED, no skipping.
type SspEntryStatus string

const (
	// SspEntryStatusDraft indicates the entry was created and not yet reviewed
	SspEntryStatusDraft SspEntryStatus = "DRAFT"
	// SspEntryStatusReviewed indicates the entry passed review and awaits approval
	SspEntryStatusReviewed SspEntryStatus = "REVIEWED"
	// SspEntryStatusApproved indicates the entry is approved and eligible for
	// relative-SSP allocation; approved entries are immutable except for closing
	// their effective window when superseded
	SspEntryStatusApproved SspEntryStatus = "APPROVED"
)

func (s SspEntryStatus) String() string {
	return string(s)
}

func (s SspEntryStatus) Validate() error {
	allowed := []SspEntryStatus{
		SspEntryStatusDraft,
		SspEntryStatusReviewed,
		SspEntryStatusApproved,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid ssp entry status").
			WithHint("Please provide a valid SSP entry status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanTransitionTo reports whether the one-way lifecycle allows moving to next
func (s SspEntryStatus) CanTransitionTo(next SspEntryStatus) bool {
	switch s {
	case SspEntryStatusDraft:
		return next == SspEntryStatusReviewed
	case SspEntryStatusReviewed:
		return next == SspEntryStatusApproved
	default:
		return false
	}
}
