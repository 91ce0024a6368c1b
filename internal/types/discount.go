package types

import (
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/samber/lo"
)

// DiscountKind represents the family of a discount rule. Each kind has its own
// parameter variant on discount.RuleParams; handling is exhaustive by kind so an
// unsupported kind is a validation error, never a silent no-op.
type DiscountKind string

const (
	// DiscountKindProp applies a flat percentage of the running invoice total
	DiscountKindProp DiscountKind = "PROP"
	// DiscountKindResidual applies a percentage reserved for residual-priced deals
	DiscountKindResidual DiscountKind = "RESIDUAL"
	// DiscountKindTiered applies the percentage of the highest tier the running
	// total meets or exceeds
	DiscountKindTiered DiscountKind = "TIERED"
	// DiscountKindPromo applies a percentage tied to a promotional campaign code
	DiscountKindPromo DiscountKind = "PROMO"
	// DiscountKindPartner applies a percentage negotiated with a reseller partner
	DiscountKindPartner DiscountKind = "PARTNER"
)

func (k DiscountKind) String() string {
	return string(k)
}

func (k DiscountKind) Validate() error {
	allowed := []DiscountKind{
		DiscountKindProp,
		DiscountKindResidual,
		DiscountKindTiered,
		DiscountKindPromo,
		DiscountKindPartner,
	}
	if !lo.Contains(allowed, k) {
		return ierr.NewError("invalid discount kind").
			WithHint("Please provide a valid discount kind").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
