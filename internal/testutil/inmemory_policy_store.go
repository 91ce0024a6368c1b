package testutil

import (
	"context"
	"sync"

	"github.com/vidinfra/revalloc/internal/domain/policy"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// InMemoryPolicyStore implements policy.Repository, keyed by tenant
type InMemoryPolicyStore struct {
	mu       sync.RWMutex
	policies map[string]*policy.Policy
}

func NewInMemoryPolicyStore() *InMemoryPolicyStore {
	return &InMemoryPolicyStore{
		policies: make(map[string]*policy.Policy),
	}
}

func copyPolicy(p *policy.Policy) *policy.Policy {
	if p == nil {
		return nil
	}
	copied := *p
	copied.ResidualEligibleProducts = append([]string(nil), p.ResidualEligibleProducts...)
	return &copied
}

func (s *InMemoryPolicyStore) Upsert(ctx context.Context, p *policy.Policy) error {
	if p == nil {
		return ierr.NewError("policy cannot be nil").
			WithHint("Policy cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.TenantID] = copyPolicy(p)
	return nil
}

func (s *InMemoryPolicyStore) GetByTenant(ctx context.Context) (*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.policies[types.GetTenantID(ctx)]
	if !exists || p.Status == types.StatusDeleted {
		return nil, ierr.NewError("policy not found").
			WithHint("No allocation policy is configured for this tenant").
			Mark(ierr.ErrNotFound)
	}
	return copyPolicy(p), nil
}
