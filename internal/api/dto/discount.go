package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/domain/discount"
	"github.com/vidinfra/revalloc/internal/types"
)

// CreateDiscountRuleRequest creates a new discount rule. Params must carry
// exactly the variant matching Kind.
type CreateDiscountRuleRequest struct {
	Kind           types.DiscountKind  `json:"kind" validate:"required"`
	Code           string              `json:"code" validate:"required"`
	Params         discount.RuleParams `json:"params"`
	Active         bool                `json:"active"`
	EffectiveFrom  time.Time           `json:"effective_from" validate:"required"`
	EffectiveTo    *time.Time          `json:"effective_to,omitempty"`
	Priority       int                 `json:"priority"`
	MaxUsageCount  *int                `json:"max_usage_count,omitempty"`
	MaxUsageAmount *decimal.Decimal    `json:"max_usage_amount,omitempty"`
}

// ToRule converts the request to a rule model
func (r *CreateDiscountRuleRequest) ToRule(baseModel types.BaseModel) *discount.Rule {
	return &discount.Rule{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT_RULE),
		Kind:           r.Kind,
		Code:           r.Code,
		Params:         r.Params,
		Active:         r.Active,
		EffectiveFrom:  r.EffectiveFrom,
		EffectiveTo:    r.EffectiveTo,
		Priority:       r.Priority,
		MaxUsageCount:  r.MaxUsageCount,
		MaxUsageAmount: r.MaxUsageAmount,
		BaseModel:      baseModel,
	}
}

// DiscountRuleResponse is the rule response
type DiscountRuleResponse struct {
	*discount.Rule
}

// ListDiscountRulesResponse carries all rules for a tenant
type ListDiscountRulesResponse struct {
	Items []*DiscountRuleResponse `json:"items"`
	Total int                     `json:"total"`
}

// DiscountAppliedResponse is one recorded rule application
type DiscountAppliedResponse struct {
	*discount.Applied
}
