package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vidinfra/revalloc/internal/api"
	v1 "github.com/vidinfra/revalloc/internal/api/v1"
	"github.com/vidinfra/revalloc/internal/cache"
	"github.com/vidinfra/revalloc/internal/config"
	"github.com/vidinfra/revalloc/internal/logger"
	"github.com/vidinfra/revalloc/internal/postgres"
	"github.com/vidinfra/revalloc/internal/repository"
	"github.com/vidinfra/revalloc/internal/service"
	"github.com/vidinfra/revalloc/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.Initialize,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// Repositories
			repository.NewRepositories,

			// Services
			service.NewServiceParams,
			service.NewCatalogService,
			service.NewPolicyService,
			service.NewBundleService,
			service.NewDiscountService,
			service.NewAllocationService,
			service.NewComplianceService,

			// API
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(startServer),
	)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	catalogService service.CatalogService,
	policyService service.PolicyService,
	bundleService service.BundleService,
	discountService service.DiscountService,
	allocationService service.AllocationService,
	complianceService service.ComplianceService,
) api.Handlers {
	return api.Handlers{
		Health:     v1.NewHealthHandler(),
		Catalog:    v1.NewCatalogHandler(catalogService, logger),
		Policy:     v1.NewPolicyHandler(policyService, logger),
		Bundle:     v1.NewBundleHandler(bundleService, logger),
		Discount:   v1.NewDiscountHandler(discountService, logger),
		Allocation: v1.NewAllocationHandler(allocationService, logger),
		Compliance: v1.NewComplianceHandler(complianceService, logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db postgres.IClient,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infof("Starting API server on %s", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			db.Close()
			return nil
		},
	})
}
