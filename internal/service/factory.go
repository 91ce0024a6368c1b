package service

import (
	"github.com/vidinfra/revalloc/internal/cache"
	"github.com/vidinfra/revalloc/internal/config"
	"github.com/vidinfra/revalloc/internal/domain/allocation"
	"github.com/vidinfra/revalloc/internal/domain/bundle"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	"github.com/vidinfra/revalloc/internal/domain/discount"
	"github.com/vidinfra/revalloc/internal/domain/policy"
	"github.com/vidinfra/revalloc/internal/logger"
	"github.com/vidinfra/revalloc/internal/postgres"
	"github.com/vidinfra/revalloc/internal/repository"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache

	// Repositories
	CatalogRepo catalog.Repository
	PolicyRepo  policy.Repository
	BundleRepo  bundle.Repository
	RuleRepo    discount.RuleRepository
	AppliedRepo discount.AppliedRepository
	AuditRepo   allocation.Repository
}

// NewServiceParams assembles service dependencies from the repository set
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cacheInstance *cache.InMemoryCache,
	repos repository.Repositories,
) ServiceParams {
	return ServiceParams{
		Logger:      logger,
		Config:      config,
		DB:          db,
		Cache:       cacheInstance,
		CatalogRepo: repos.Catalog,
		PolicyRepo:  repos.Policy,
		BundleRepo:  repos.Bundle,
		RuleRepo:    repos.Rule,
		AppliedRepo: repos.Applied,
		AuditRepo:   repos.Audit,
	}
}
