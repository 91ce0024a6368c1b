package discount

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// Rule is a discount rule in the per-tenant rule catalog. Lower priority is
// applied first; rules sharing a priority are applied in lexical code order so
// stacking is deterministic regardless of fetch order.
type Rule struct {
	ID             string             `db:"id" json:"id"`
	Kind           types.DiscountKind `db:"kind" json:"kind"`
	Code           string             `db:"code" json:"code"`
	Params         RuleParams         `db:"params" json:"params"`
	Active         bool               `db:"active" json:"active"`
	EffectiveFrom  time.Time          `db:"effective_from" json:"effective_from"`
	EffectiveTo    *time.Time         `db:"effective_to" json:"effective_to,omitempty"`
	Priority       int                `db:"priority" json:"priority"`
	MaxUsageCount  *int               `db:"max_usage_count" json:"max_usage_count,omitempty"`
	MaxUsageAmount *decimal.Decimal   `db:"max_usage_amount" json:"max_usage_amount,omitempty"`

	types.BaseModel
}

// RuleParams is a tagged union keyed by the rule's kind: exactly the variant
// matching the kind must be set. Keeping one struct field per kind (instead of
// a free-form blob) makes unsupported kinds a compile-visible switch case
// rather than a silently ignored branch.
type RuleParams struct {
	Prop     *PropParams     `json:"prop,omitempty"`
	Residual *ResidualParams `json:"residual,omitempty"`
	Tiered   *TieredParams   `json:"tiered,omitempty"`
	Promo    *PromoParams    `json:"promo,omitempty"`
	Partner  *PartnerParams  `json:"partner,omitempty"`
}

// PropParams applies a flat fraction of the running total
type PropParams struct {
	Pct decimal.Decimal `json:"pct"`
}

// ResidualParams applies a fraction reserved for residual-priced contracts
type ResidualParams struct {
	Pct decimal.Decimal `json:"pct"`
}

// TieredParams applies the pct of the highest tier whose threshold the
// running total meets or exceeds
type TieredParams struct {
	Tiers []Tier `json:"tiers"`
}

type Tier struct {
	Threshold decimal.Decimal `json:"threshold"`
	Pct       decimal.Decimal `json:"pct"`
}

// PromoParams applies a fraction tied to a promotional campaign
type PromoParams struct {
	Pct          decimal.Decimal `json:"pct"`
	CampaignCode string          `json:"campaign_code,omitempty"`
}

// PartnerParams applies a fraction negotiated with a reseller partner
type PartnerParams struct {
	Pct       decimal.Decimal `json:"pct"`
	PartnerID string          `json:"partner_id,omitempty"`
}

// RuleParams is stored as a JSONB column
func (p RuleParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *RuleParams) Scan(value interface{}) error {
	if value == nil {
		*p = RuleParams{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return ierr.NewError("unsupported scan type for rule params").
			Mark(ierr.ErrSystem)
	}
	return json.Unmarshal(b, p)
}

func validatePct(pct decimal.Decimal) error {
	if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(1)) {
		return ierr.NewError("pct must be in (0, 1]").
			WithHint("Discount percentages are fractions, e.g. 0.10 for 10%").
			WithReportableDetails(map[string]any{
				"pct": pct.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Validate checks that exactly the variant matching kind is present and that
// its parameters are in range
func (p RuleParams) Validate(kind types.DiscountKind) error {
	variants := 0
	if p.Prop != nil {
		variants++
	}
	if p.Residual != nil {
		variants++
	}
	if p.Tiered != nil {
		variants++
	}
	if p.Promo != nil {
		variants++
	}
	if p.Partner != nil {
		variants++
	}
	if variants != 1 {
		return ierr.NewError("exactly one params variant must be set").
			WithHint("Provide the params variant matching the rule kind").
			WithReportableDetails(map[string]any{
				"kind":     kind,
				"variants": variants,
			}).
			Mark(ierr.ErrValidation)
	}

	switch kind {
	case types.DiscountKindProp:
		if p.Prop == nil {
			return paramsMismatch(kind)
		}
		return validatePct(p.Prop.Pct)
	case types.DiscountKindResidual:
		if p.Residual == nil {
			return paramsMismatch(kind)
		}
		return validatePct(p.Residual.Pct)
	case types.DiscountKindTiered:
		if p.Tiered == nil {
			return paramsMismatch(kind)
		}
		if len(p.Tiered.Tiers) == 0 {
			return ierr.NewError("tiered rule requires at least one tier").
				WithHint("Please provide discount tiers").
				Mark(ierr.ErrValidation)
		}
		prev := decimal.NewFromInt(-1)
		for _, t := range p.Tiered.Tiers {
			if t.Threshold.IsNegative() {
				return ierr.NewError("tier threshold must not be negative").
					WithHint("Tier thresholds are invoice totals").
					Mark(ierr.ErrValidation)
			}
			if t.Threshold.LessThanOrEqual(prev) {
				return ierr.NewError("tier thresholds must be strictly increasing").
					WithHint("Order tiers by ascending threshold").
					Mark(ierr.ErrValidation)
			}
			if err := validatePct(t.Pct); err != nil {
				return err
			}
			prev = t.Threshold
		}
		return nil
	case types.DiscountKindPromo:
		if p.Promo == nil {
			return paramsMismatch(kind)
		}
		return validatePct(p.Promo.Pct)
	case types.DiscountKindPartner:
		if p.Partner == nil {
			return paramsMismatch(kind)
		}
		return validatePct(p.Partner.Pct)
	default:
		return kind.Validate()
	}
}

func paramsMismatch(kind types.DiscountKind) error {
	return ierr.NewError("params variant does not match rule kind").
		WithHintf("A %s rule requires the matching params variant", kind).
		WithReportableDetails(map[string]any{
			"kind": kind,
		}).
		Mark(ierr.ErrValidation)
}

// Validate checks the structural invariants of a rule
func (r *Rule) Validate() error {
	if r.Code == "" {
		return ierr.NewError("code is required").
			WithHint("Please provide a rule code").
			Mark(ierr.ErrValidation)
	}
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	if r.EffectiveFrom.IsZero() {
		return ierr.NewError("effective_from is required").
			WithHint("Please provide an effective start date").
			Mark(ierr.ErrValidation)
	}
	if r.EffectiveTo != nil && r.EffectiveTo.Before(r.EffectiveFrom) {
		return ierr.NewError("effective_to must not precede effective_from").
			WithHint("Please provide a valid effective window").
			Mark(ierr.ErrValidation)
	}
	if r.MaxUsageCount != nil && *r.MaxUsageCount <= 0 {
		return ierr.NewError("max_usage_count must be positive").
			WithHint("Leave max_usage_count unset for unlimited usage").
			Mark(ierr.ErrValidation)
	}
	if r.MaxUsageAmount != nil && !r.MaxUsageAmount.IsPositive() {
		return ierr.NewError("max_usage_amount must be positive").
			WithHint("Leave max_usage_amount unset for unlimited usage").
			Mark(ierr.ErrValidation)
	}
	return r.Params.Validate(r.Kind)
}

// IsEffectiveAt reports whether asOf falls inside the rule's effective window
func (r *Rule) IsEffectiveAt(asOf time.Time) bool {
	if asOf.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && asOf.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// Discount computes the rule's discount against the current running total.
// Discounts stack sequentially: the caller feeds the already-discounted total
// of higher-priority rules, not the original invoice total.
func (r *Rule) Discount(currentTotal decimal.Decimal) (decimal.Decimal, error) {
	if currentTotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	switch r.Kind {
	case types.DiscountKindProp:
		return currentTotal.Mul(r.Params.Prop.Pct), nil
	case types.DiscountKindResidual:
		return currentTotal.Mul(r.Params.Residual.Pct), nil
	case types.DiscountKindTiered:
		// highest threshold the current total meets or exceeds
		pct := decimal.Zero
		for _, t := range r.Params.Tiered.Tiers {
			if currentTotal.GreaterThanOrEqual(t.Threshold) {
				pct = t.Pct
			}
		}
		return currentTotal.Mul(pct), nil
	case types.DiscountKindPromo:
		return currentTotal.Mul(r.Params.Promo.Pct), nil
	case types.DiscountKindPartner:
		return currentTotal.Mul(r.Params.Partner.Pct), nil
	default:
		return decimal.Zero, ierr.NewError("unsupported discount kind").
			WithHintf("Discount kind %s has no computation", r.Kind).
			Mark(ierr.ErrInvalidOperation)
	}
}

// Applied is the append-only record of one rule application to one invoice.
// Rows are written once and never retro-edited.
type Applied struct {
	ID             string          `db:"id" json:"id"`
	InvoiceID      string          `db:"invoice_id" json:"invoice_id"`
	RuleID         string          `db:"rule_id" json:"rule_id"`
	RuleCode       string          `db:"rule_code" json:"rule_code"`
	ComputedAmount decimal.Decimal `db:"computed_amount" json:"computed_amount"`
	Detail         string          `db:"detail" json:"detail,omitempty"`
	AppliedAt      time.Time       `db:"applied_at" json:"applied_at"`
	AppliedBy      string          `db:"applied_by" json:"applied_by"`

	types.BaseModel
}
