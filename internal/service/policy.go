package service

import (
	"context"
	"time"

	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/cache"
	"github.com/vidinfra/revalloc/internal/domain/policy"
	"github.com/vidinfra/revalloc/internal/types"
	"github.com/vidinfra/revalloc/internal/validator"
)

const policyCacheExpiry = 5 * time.Minute

// PolicyService defines the interface for allocation policy operations
type PolicyService interface {
	UpsertPolicy(ctx context.Context, req dto.UpsertSspPolicyRequest) (*dto.SspPolicyResponse, error)
	GetPolicy(ctx context.Context) (*dto.SspPolicyResponse, error)
}

type policyService struct {
	ServiceParams
}

// NewPolicyService creates a new policy service
func NewPolicyService(params ServiceParams) PolicyService {
	return &policyService{
		ServiceParams: params,
	}
}

func (s *policyService) UpsertPolicy(ctx context.Context, req dto.UpsertSspPolicyRequest) (*dto.SspPolicyResponse, error) {
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}

	p := req.ToPolicy(types.GetDefaultBaseModel(ctx))
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PolicyRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}

	s.Cache.Delete(ctx, s.policyCacheKey(ctx))
	s.Logger.Infow("upserted allocation policy",
		"policy_id", p.ID,
		"rounding", p.Rounding,
		"residual_allowed", p.ResidualAllowed,
	)

	return &dto.SspPolicyResponse{Policy: p}, nil
}

// GetPolicy returns the tenant policy, served from cache when warm. The policy
// is read on every allocation run, so it is the one hot read path.
func (s *policyService) GetPolicy(ctx context.Context) (*dto.SspPolicyResponse, error) {
	key := s.policyCacheKey(ctx)
	if cached, found := s.Cache.Get(ctx, key); found {
		if p, ok := cached.(*policy.Policy); ok {
			return &dto.SspPolicyResponse{Policy: p}, nil
		}
	}

	p, err := s.PolicyRepo.GetByTenant(ctx)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, p, policyCacheExpiry)
	return &dto.SspPolicyResponse{Policy: p}, nil
}

func (s *policyService) policyCacheKey(ctx context.Context) string {
	return cache.GenerateKey(cache.PrefixSspPolicy, types.GetTenantID(ctx))
}
