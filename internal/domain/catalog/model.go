package catalog

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// Entry represents an effective-dated standalone selling price for one
// (product, currency) pair
type Entry struct {
	ID             string               `db:"id" json:"id"`
	ProductID      string               `db:"product_id" json:"product_id"`
	Currency       string               `db:"currency" json:"currency"`
	Ssp            decimal.Decimal      `db:"ssp" json:"ssp"`
	Method         types.SspMethod      `db:"method" json:"method"`
	EffectiveFrom  time.Time            `db:"effective_from" json:"effective_from"`
	EffectiveTo    *time.Time           `db:"effective_to" json:"effective_to,omitempty"`
	CorridorMinPct *decimal.Decimal     `db:"corridor_min_pct" json:"corridor_min_pct,omitempty"`
	CorridorMaxPct *decimal.Decimal     `db:"corridor_max_pct" json:"corridor_max_pct,omitempty"`
	EntryStatus    types.SspEntryStatus `db:"entry_status" json:"entry_status"`

	types.BaseModel
}

// Validate checks the structural invariants of a catalog entry
func (e *Entry) Validate() error {
	if e.ProductID == "" {
		return ierr.NewError("product_id is required").
			WithHint("Please provide a product for the catalog entry").
			Mark(ierr.ErrValidation)
	}
	if e.Currency == "" {
		return ierr.NewError("currency is required").
			WithHint("Please provide a currency for the catalog entry").
			Mark(ierr.ErrValidation)
	}
	if e.Ssp.IsNegative() {
		return ierr.NewError("ssp must not be negative").
			WithHint("Standalone selling prices must be zero or positive").
			WithReportableDetails(map[string]any{
				"product_id": e.ProductID,
				"ssp":        e.Ssp.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if err := e.Method.Validate(); err != nil {
		return err
	}
	if err := e.EntryStatus.Validate(); err != nil {
		return err
	}
	if e.EffectiveFrom.IsZero() {
		return ierr.NewError("effective_from is required").
			WithHint("Please provide an effective start date").
			Mark(ierr.ErrValidation)
	}
	if e.EffectiveTo != nil && e.EffectiveTo.Before(e.EffectiveFrom) {
		return ierr.NewError("effective_to must not precede effective_from").
			WithHint("Please provide a valid effective window").
			WithReportableDetails(map[string]any{
				"effective_from": e.EffectiveFrom,
				"effective_to":   e.EffectiveTo,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsEffectiveAt reports whether asOf falls inside the entry's effective window
func (e *Entry) IsEffectiveAt(asOf time.Time) bool {
	if asOf.Before(e.EffectiveFrom) {
		return false
	}
	if e.EffectiveTo != nil && asOf.After(*e.EffectiveTo) {
		return false
	}
	return true
}

// Overlaps reports whether two effective windows intersect. Open-ended
// windows (nil effective_to) extend to infinity.
func (e *Entry) Overlaps(other *Entry) bool {
	if e.EffectiveTo != nil && e.EffectiveTo.Before(other.EffectiveFrom) {
		return false
	}
	if other.EffectiveTo != nil && other.EffectiveTo.Before(e.EffectiveFrom) {
		return false
	}
	return true
}

// EffectiveEntry selects the APPROVED entry effective at asOf from entries of
// one (product, currency) peer group. If more than one matches (the no-overlap
// invariant should prevent this, but the selection is defensive) the entry with
// the latest effective_from wins. Returns nil when nothing matches.
func EffectiveEntry(entries []*Entry, asOf time.Time) *Entry {
	var candidates []*Entry
	for _, e := range entries {
		if e.EntryStatus != types.SspEntryStatusApproved {
			continue
		}
		if e.IsEffectiveAt(asOf) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].EffectiveFrom.After(candidates[j].EffectiveFrom)
	})
	return candidates[0]
}

// ResolvableEntry selects the entry usable for residual-mode pricing at asOf:
// any status qualifies, but APPROVED entries win over REVIEWED and DRAFT, and
// later effective_from wins within a status.
func ResolvableEntry(entries []*Entry, asOf time.Time) *Entry {
	if approved := EffectiveEntry(entries, asOf); approved != nil {
		return approved
	}

	var candidates []*Entry
	for _, e := range entries {
		if e.IsEffectiveAt(asOf) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	rank := map[types.SspEntryStatus]int{
		types.SspEntryStatusApproved: 0,
		types.SspEntryStatusReviewed: 1,
		types.SspEntryStatusDraft:    2,
	}
	sort.Slice(candidates, func(i, j int) bool {
		if rank[candidates[i].EntryStatus] != rank[candidates[j].EntryStatus] {
			return rank[candidates[i].EntryStatus] < rank[candidates[j].EntryStatus]
		}
		return candidates[i].EffectiveFrom.After(candidates[j].EffectiveFrom)
	})
	return candidates[0]
}
