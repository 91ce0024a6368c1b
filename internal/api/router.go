package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/vidinfra/revalloc/internal/api/v1"
	"github.com/vidinfra/revalloc/internal/rest/middleware"
)

type Handlers struct {
	Health     *v1.HealthHandler
	Catalog    *v1.CatalogHandler
	Policy     *v1.PolicyHandler
	Bundle     *v1.BundleHandler
	Discount   *v1.DiscountHandler
	Allocation *v1.AllocationHandler
	Compliance *v1.ComplianceHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// SSP catalog routes
	catalog := router.Group("/ssp/entries")
	{
		catalog.POST("", handlers.Catalog.CreateEntry)
		catalog.GET("", handlers.Catalog.ListEntries)
		catalog.GET("/:id", handlers.Catalog.GetEntry)
		catalog.POST("/:id/review", handlers.Catalog.SubmitForReview)
		catalog.POST("/:id/approve", handlers.Catalog.Approve)
	}
	router.POST("/ssp/corridor-check", handlers.Catalog.CheckCorridor)

	// Policy routes
	policy := router.Group("/ssp/policy")
	{
		policy.PUT("", handlers.Policy.UpsertPolicy)
		policy.GET("", handlers.Policy.GetPolicy)
	}

	// Bundle routes
	bundles := router.Group("/bundles")
	{
		bundles.PUT("", handlers.Bundle.UpsertBundle)
		bundles.GET("", handlers.Bundle.ListBundles)
		bundles.GET("/:id", handlers.Bundle.GetBundle)
	}

	// Discount rule routes
	discounts := router.Group("/discounts/rules")
	{
		discounts.POST("", handlers.Discount.CreateRule)
		discounts.GET("", handlers.Discount.ListRules)
		discounts.GET("/:id", handlers.Discount.GetRule)
	}

	// Allocation routes
	allocations := router.Group("/allocations")
	{
		allocations.POST("", handlers.Allocation.Allocate)
		allocations.GET("/:invoice_id", handlers.Allocation.ListAudits)
		allocations.GET("/:invoice_id/runs/:run_id", handlers.Allocation.GetAudit)
	}

	// Compliance routes
	compliance := router.Group("/compliance")
	{
		compliance.GET("/corridor-breaches", handlers.Compliance.ListCorridorBreaches)
		compliance.GET("/snapshot", handlers.Compliance.GetSnapshot)
		compliance.GET("/issues", handlers.Compliance.ListIssues)
	}
}
