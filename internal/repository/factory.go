package repository

import (
	"github.com/vidinfra/revalloc/internal/domain/allocation"
	"github.com/vidinfra/revalloc/internal/domain/bundle"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	"github.com/vidinfra/revalloc/internal/domain/discount"
	"github.com/vidinfra/revalloc/internal/domain/policy"
	"github.com/vidinfra/revalloc/internal/logger"
	pgclient "github.com/vidinfra/revalloc/internal/postgres"
	pg "github.com/vidinfra/revalloc/internal/repository/postgres"
)

// Repositories bundles all data access implementations for injection into the
// service layer
type Repositories struct {
	Catalog catalog.Repository
	Policy  policy.Repository
	Bundle  bundle.Repository
	Rule    discount.RuleRepository
	Applied discount.AppliedRepository
	Audit   allocation.Repository
}

// NewRepositories wires the postgres-backed repository set
func NewRepositories(db pgclient.IClient, log *logger.Logger) Repositories {
	return Repositories{
		Catalog: pg.NewCatalogRepository(db, log),
		Policy:  pg.NewPolicyRepository(db, log),
		Bundle:  pg.NewBundleRepository(db, log),
		Rule:    pg.NewDiscountRuleRepository(db, log),
		Applied: pg.NewDiscountAppliedRepository(db, log),
		Audit:   pg.NewAllocationRepository(db, log),
	}
}
