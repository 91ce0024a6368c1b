package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/domain/discount"
	"github.com/vidinfra/revalloc/internal/types"
	"github.com/vidinfra/revalloc/internal/validator"
)

// DiscountService defines the interface for discount rule operations
type DiscountService interface {
	CreateRule(ctx context.Context, req dto.CreateDiscountRuleRequest) (*dto.DiscountRuleResponse, error)
	GetRule(ctx context.Context, id string) (*dto.DiscountRuleResponse, error)
	ListRules(ctx context.Context) (*dto.ListDiscountRulesResponse, error)

	// ApplyDiscountRules stacks all active rules against the invoice total and
	// returns the total discount plus the application rows to persist. Rules
	// apply in ascending priority, ties broken by lexical code order; each rule
	// sees the total already reduced by its predecessors. Rows are NOT persisted
	// here so the caller can commit them atomically with the allocation audit.
	ApplyDiscountRules(ctx context.Context, invoiceID string, total decimal.Decimal, asOf time.Time) (*DiscountOutcome, error)
}

// DiscountOutcome is the result of stacking the active rules over one invoice
type DiscountOutcome struct {
	TotalDiscount decimal.Decimal
	Applied       []*discount.Applied
}

type discountService struct {
	ServiceParams
}

// NewDiscountService creates a new discount service
func NewDiscountService(params ServiceParams) DiscountService {
	return &discountService{
		ServiceParams: params,
	}
}

func (s *discountService) CreateRule(ctx context.Context, req dto.CreateDiscountRuleRequest) (*dto.DiscountRuleResponse, error) {
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}

	rule := req.ToRule(types.GetDefaultBaseModel(ctx))
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if err := s.RuleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.Logger.Infow("created discount rule",
		"rule_id", rule.ID,
		"code", rule.Code,
		"kind", rule.Kind,
		"priority", rule.Priority,
	)
	return &dto.DiscountRuleResponse{Rule: rule}, nil
}

func (s *discountService) GetRule(ctx context.Context, id string) (*dto.DiscountRuleResponse, error) {
	rule, err := s.RuleRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.DiscountRuleResponse{Rule: rule}, nil
}

func (s *discountService) ListRules(ctx context.Context) (*dto.ListDiscountRulesResponse, error) {
	rules, err := s.RuleRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.DiscountRuleResponse, len(rules))
	for i, rule := range rules {
		items[i] = &dto.DiscountRuleResponse{Rule: rule}
	}
	return &dto.ListDiscountRulesResponse{Items: items, Total: len(items)}, nil
}

func (s *discountService) ApplyDiscountRules(ctx context.Context, invoiceID string, total decimal.Decimal, asOf time.Time) (*DiscountOutcome, error) {
	rules, err := s.RuleRepo.ListActive(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return &DiscountOutcome{TotalDiscount: decimal.Zero}, nil
	}

	// Stacking order must not depend on fetch order
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].Code < rules[j].Code
	})

	ruleIDs := lo.Map(rules, func(r *discount.Rule, _ int) string { return r.ID })
	usage, err := s.AppliedRepo.UsageByRule(ctx, ruleIDs)
	if err != nil {
		return nil, err
	}

	outcome := &DiscountOutcome{TotalDiscount: decimal.Zero}
	running := total
	for _, rule := range rules {
		if s.capReached(rule, usage[rule.ID]) {
			s.Logger.Debugw("skipping capped discount rule",
				"rule_id", rule.ID,
				"code", rule.Code,
			)
			continue
		}

		amount, err := rule.Discount(running)
		if err != nil {
			return nil, err
		}
		if amount.IsZero() {
			continue
		}
		// A usage-amount cap also limits the final application
		if rule.MaxUsageAmount != nil {
			remaining := rule.MaxUsageAmount.Sub(usage[rule.ID].Amount)
			if amount.GreaterThan(remaining) {
				amount = remaining
			}
		}
		if !amount.IsPositive() {
			continue
		}

		outcome.Applied = append(outcome.Applied, &discount.Applied{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT_APPLIED),
			InvoiceID:      invoiceID,
			RuleID:         rule.ID,
			RuleCode:       rule.Code,
			ComputedAmount: amount,
			Detail:         fmt.Sprintf("%s on base %s", rule.Kind, running.String()),
			AppliedAt:      time.Now().UTC(),
			AppliedBy:      types.GetUserID(ctx),
			BaseModel:      types.GetDefaultBaseModel(ctx),
		})
		outcome.TotalDiscount = outcome.TotalDiscount.Add(amount)
		running = running.Sub(amount)
	}

	return outcome, nil
}

// capReached reports whether a rule's usage history exhausts its caps
func (s *discountService) capReached(rule *discount.Rule, usage discount.RuleUsage) bool {
	if rule.MaxUsageCount != nil && usage.Count >= *rule.MaxUsageCount {
		return true
	}
	if rule.MaxUsageAmount != nil && usage.Amount.GreaterThanOrEqual(*rule.MaxUsageAmount) {
		return true
	}
	return false
}
