package bundle

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// WeightTolerance is the allowed deviation of an ACTIVE bundle's component
// weight sum from 1.0
var WeightTolerance = decimal.NewFromFloat(1e-6)

// Bundle is a named composite of weighted component products sold as a single
// catalog unit
type Bundle struct {
	ID            string             `db:"id" json:"id"`
	Sku           string             `db:"sku" json:"sku"`
	Name          string             `db:"name" json:"name"`
	EffectiveFrom time.Time          `db:"effective_from" json:"effective_from"`
	EffectiveTo   *time.Time         `db:"effective_to" json:"effective_to,omitempty"`
	BundleStatus  types.BundleStatus `db:"bundle_status" json:"bundle_status"`
	Components    Components         `db:"components" json:"components"`

	types.BaseModel
}

// Component is one weighted member of a bundle. The component order is
// preserved as stored.
type Component struct {
	ProductID string          `json:"product_id"`
	WeightPct decimal.Decimal `json:"weight_pct"`
	Required  bool            `json:"required"`
	MinQty    int             `json:"min_qty"`
	MaxQty    int             `json:"max_qty"`
}

// Components is stored as a JSONB column
type Components []Component

func (c Components) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *Components) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return ierr.NewError("unsupported scan type for bundle components").
			Mark(ierr.ErrSystem)
	}
	return json.Unmarshal(b, c)
}

// Validate checks the structural invariants of a bundle. An ACTIVE bundle
// whose weights do not sum to 1.0 within WeightTolerance is rejected, never
// silently normalized.
func (b *Bundle) Validate() error {
	if b.Sku == "" {
		return ierr.NewError("sku is required").
			WithHint("Please provide a bundle SKU").
			Mark(ierr.ErrValidation)
	}
	if b.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Please provide a bundle name").
			Mark(ierr.ErrValidation)
	}
	if err := b.BundleStatus.Validate(); err != nil {
		return err
	}
	if len(b.Components) == 0 {
		return ierr.NewError("bundle must have at least one component").
			WithHint("Please provide bundle components").
			Mark(ierr.ErrValidation)
	}

	for _, c := range b.Components {
		if c.ProductID == "" {
			return ierr.NewError("component product_id is required").
				WithHint("Every bundle component needs a product").
				Mark(ierr.ErrValidation)
		}
		if !c.WeightPct.IsPositive() || c.WeightPct.GreaterThan(decimal.NewFromInt(1)) {
			return ierr.NewError("component weight_pct must be in (0, 1]").
				WithHint("Component weights are fractions of the bundle value").
				WithReportableDetails(map[string]any{
					"product_id": c.ProductID,
					"weight_pct": c.WeightPct.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		if c.MinQty < 0 || (c.MaxQty > 0 && c.MaxQty < c.MinQty) {
			return ierr.NewError("component quantity bounds are invalid").
				WithHint("min_qty must be >= 0 and max_qty >= min_qty").
				WithReportableDetails(map[string]any{
					"product_id": c.ProductID,
					"min_qty":    c.MinQty,
					"max_qty":    c.MaxQty,
				}).
				Mark(ierr.ErrValidation)
		}
	}

	if b.BundleStatus == types.BundleStatusActive {
		sum := decimal.Zero
		for _, c := range b.Components {
			sum = sum.Add(c.WeightPct)
		}
		if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(WeightTolerance) {
			return ierr.NewError("component weights must sum to 1.0").
				WithHintf("Component weights sum to %s, expected 1.0", sum.String()).
				WithReportableDetails(map[string]any{
					"sku":        b.Sku,
					"weight_sum": sum.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}

	return nil
}

// IsEffectiveAt reports whether asOf falls inside the bundle's effective window
func (b *Bundle) IsEffectiveAt(asOf time.Time) bool {
	if asOf.Before(b.EffectiveFrom) {
		return false
	}
	if b.EffectiveTo != nil && asOf.After(*b.EffectiveTo) {
		return false
	}
	return true
}

// ComponentLine is a pseudo-line produced by expanding a bundle invoice line
type ComponentLine struct {
	ProductID string
	Qty       decimal.Decimal
	Amount    decimal.Decimal
}

// Expand splits a bundle line's listed amount across components by weight.
// Quantity carries through unchanged: weights are value shares per bundle
// unit, not quantity multipliers.
func (b *Bundle) Expand(qty, amount decimal.Decimal) []ComponentLine {
	lines := make([]ComponentLine, 0, len(b.Components))
	for _, c := range b.Components {
		lines = append(lines, ComponentLine{
			ProductID: c.ProductID,
			Qty:       qty,
			Amount:    amount.Mul(c.WeightPct),
		})
	}
	return lines
}
