package policy

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// Policy holds the per-tenant allocation configuration. It is read on every
// allocation run and mutated only through administrative updates.
type Policy struct {
	ID                       string             `db:"id" json:"id"`
	Rounding                 types.RoundingMode `db:"rounding" json:"rounding"`
	ResidualAllowed          bool               `db:"residual_allowed" json:"residual_allowed"`
	ResidualEligibleProducts []string           `db:"residual_eligible_products" json:"residual_eligible_products"`
	DefaultMethod            types.SspMethod    `db:"default_method" json:"default_method"`
	CorridorTolerancePct     decimal.Decimal    `db:"corridor_tolerance_pct" json:"corridor_tolerance_pct"`
	AlertThresholdPct        decimal.Decimal    `db:"alert_threshold_pct" json:"alert_threshold_pct"`

	types.BaseModel
}

// Validate checks the structural invariants of a policy
func (p *Policy) Validate() error {
	if err := p.Rounding.Validate(); err != nil {
		return err
	}
	if err := p.DefaultMethod.Validate(); err != nil {
		return err
	}
	if p.CorridorTolerancePct.IsNegative() {
		return ierr.NewError("corridor_tolerance_pct must not be negative").
			WithHint("Corridor tolerance must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if p.AlertThresholdPct.IsNegative() {
		return ierr.NewError("alert_threshold_pct must not be negative").
			WithHint("Alert threshold must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if p.ResidualAllowed && len(p.ResidualEligibleProducts) == 0 {
		return ierr.NewError("residual_eligible_products must not be empty when residual allocation is allowed").
			WithHint("Please list the products eligible for residual allocation").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsResidualEligible reports whether a product may absorb the contract residual
func (p *Policy) IsResidualEligible(productID string) bool {
	return lo.Contains(p.ResidualEligibleProducts, productID)
}
