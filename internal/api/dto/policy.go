package dto

import (
	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/domain/policy"
	"github.com/vidinfra/revalloc/internal/types"
)

// UpsertSspPolicyRequest replaces the tenant's allocation policy
type UpsertSspPolicyRequest struct {
	Rounding                 types.RoundingMode `json:"rounding" validate:"required"`
	ResidualAllowed          bool               `json:"residual_allowed"`
	ResidualEligibleProducts []string           `json:"residual_eligible_products,omitempty"`
	DefaultMethod            types.SspMethod    `json:"default_method" validate:"required"`
	CorridorTolerancePct     decimal.Decimal    `json:"corridor_tolerance_pct"`
	AlertThresholdPct        decimal.Decimal    `json:"alert_threshold_pct"`
}

// ToPolicy converts the request to a policy model
func (r *UpsertSspPolicyRequest) ToPolicy(baseModel types.BaseModel) *policy.Policy {
	return &policy.Policy{
		ID:                       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SSP_POLICY),
		Rounding:                 r.Rounding,
		ResidualAllowed:          r.ResidualAllowed,
		ResidualEligibleProducts: r.ResidualEligibleProducts,
		DefaultMethod:            r.DefaultMethod,
		CorridorTolerancePct:     r.CorridorTolerancePct,
		AlertThresholdPct:        r.AlertThresholdPct,
		BaseModel:                baseModel,
	}
}

// SspPolicyResponse is the policy response
type SspPolicyResponse struct {
	*policy.Policy
}
