package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vidinfra/revalloc/internal/domain/discount"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// InMemoryDiscountRuleStore implements discount.RuleRepository
type InMemoryDiscountRuleStore struct {
	mu    sync.RWMutex
	rules map[string]*discount.Rule
}

func NewInMemoryDiscountRuleStore() *InMemoryDiscountRuleStore {
	return &InMemoryDiscountRuleStore{
		rules: make(map[string]*discount.Rule),
	}
}

func copyRule(r *discount.Rule) *discount.Rule {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

func (s *InMemoryDiscountRuleStore) Create(ctx context.Context, rule *discount.Rule) error {
	if rule == nil {
		return ierr.NewError("rule cannot be nil").
			WithHint("Rule cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rules {
		if existing.TenantID == rule.TenantID && existing.Code == rule.Code &&
			existing.EffectiveFrom.Equal(rule.EffectiveFrom) {
			return ierr.NewError("rule already exists").
				WithHintf("A discount rule with code %s already exists for this effective date", rule.Code).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.rules[rule.ID] = copyRule(rule)
	return nil
}

func (s *InMemoryDiscountRuleStore) Update(ctx context.Context, rule *discount.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.ID]
	if !exists || existing.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("rule not found").
			WithHintf("Discount rule %s was not found", rule.ID).
			Mark(ierr.ErrNotFound)
	}
	s.rules[rule.ID] = copyRule(rule)
	return nil
}

func (s *InMemoryDiscountRuleStore) Get(ctx context.Context, id string) (*discount.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists || rule.TenantID != types.GetTenantID(ctx) || rule.Status == types.StatusDeleted {
		return nil, ierr.NewError("rule not found").
			WithHintf("Discount rule %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyRule(rule), nil
}

func (s *InMemoryDiscountRuleStore) List(ctx context.Context) ([]*discount.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*discount.Rule
	for _, rule := range s.rules {
		if rule.TenantID == types.GetTenantID(ctx) && rule.Status != types.StatusDeleted {
			out = append(out, copyRule(rule))
		}
	}
	sortRules(out)
	return out, nil
}

func (s *InMemoryDiscountRuleStore) ListActive(ctx context.Context, asOf time.Time) ([]*discount.Rule, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []*discount.Rule
	for _, rule := range all {
		if rule.Active && rule.IsEffectiveAt(asOf) {
			out = append(out, rule)
		}
	}
	return out, nil
}

func sortRules(rules []*discount.Rule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].Code < rules[j].Code
	})
}

// InMemoryDiscountAppliedStore implements discount.AppliedRepository
type InMemoryDiscountAppliedStore struct {
	mu      sync.RWMutex
	applied map[string]*discount.Applied
}

func NewInMemoryDiscountAppliedStore() *InMemoryDiscountAppliedStore {
	return &InMemoryDiscountAppliedStore{
		applied: make(map[string]*discount.Applied),
	}
}

func (s *InMemoryDiscountAppliedStore) Create(ctx context.Context, a *discount.Applied) error {
	if a == nil {
		return ierr.NewError("application cannot be nil").
			WithHint("Application cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.applied[a.ID] = &copied
	return nil
}

func (s *InMemoryDiscountAppliedStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*discount.Applied, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*discount.Applied
	for _, a := range s.applied {
		if a.TenantID == types.GetTenantID(ctx) && a.InvoiceID == invoiceID && a.Status != types.StatusDeleted {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.Before(out[j].AppliedAt) })
	return out, nil
}

func (s *InMemoryDiscountAppliedStore) UsageByRule(ctx context.Context, ruleIDs []string) (map[string]discount.RuleUsage, error) {
	wanted := make(map[string]struct{}, len(ruleIDs))
	for _, id := range ruleIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	usage := make(map[string]discount.RuleUsage)
	for _, a := range s.applied {
		if a.TenantID != types.GetTenantID(ctx) || a.Status == types.StatusDeleted {
			continue
		}
		if _, ok := wanted[a.RuleID]; !ok {
			continue
		}
		u := usage[a.RuleID]
		u.Count++
		u.Amount = u.Amount.Add(a.ComputedAmount)
		usage[a.RuleID] = u
	}
	return usage, nil
}
