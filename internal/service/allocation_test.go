package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/domain/allocation"
	"github.com/vidinfra/revalloc/internal/domain/bundle"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	"github.com/vidinfra/revalloc/internal/domain/discount"
	"github.com/vidinfra/revalloc/internal/domain/policy"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/testutil"
	"github.com/vidinfra/revalloc/internal/types"
)

type AllocationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service     AllocationService
	bundleSvc   BundleService
	discountSvc DiscountService
	params      ServiceParams
	invoiceDate time.Time
}

func TestAllocationService(t *testing.T) {
	suite.Run(t, new(AllocationServiceSuite))
}

func (s *AllocationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.params = ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		DB:          s.GetDB(),
		Cache:       s.GetCache(),
		CatalogRepo: stores.CatalogRepo,
		PolicyRepo:  stores.PolicyRepo,
		BundleRepo:  stores.BundleRepo,
		RuleRepo:    stores.RuleRepo,
		AppliedRepo: stores.AppliedRepo,
		AuditRepo:   stores.AuditRepo,
	}
	s.bundleSvc = NewBundleService(s.params)
	s.discountSvc = NewDiscountService(s.params)
	s.service = NewAllocationService(s.params, s.bundleSvc, s.discountSvc)

	s.invoiceDate = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	s.setupPolicy(types.RoundingModeHalfUp, false, nil)
}

func (s *AllocationServiceSuite) setupPolicy(rounding types.RoundingMode, residualAllowed bool, eligible []string) {
	pol := &policy.Policy{
		ID:                       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SSP_POLICY),
		Rounding:                 rounding,
		ResidualAllowed:          residualAllowed,
		ResidualEligibleProducts: eligible,
		DefaultMethod:            types.SspMethodObservable,
		CorridorTolerancePct:     decimal.NewFromFloat(0.20),
		AlertThresholdPct:        decimal.NewFromFloat(0.25),
		BaseModel:                types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.PolicyRepo.Upsert(s.GetContext(), pol))
}

func (s *AllocationServiceSuite) approveSsp(productID, currency, ssp string) {
	price, err := decimal.NewFromString(ssp)
	s.NoError(err)
	entry := &catalog.Entry{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SSP_ENTRY),
		ProductID:     productID,
		Currency:      currency,
		Ssp:           price,
		Method:        types.SspMethodObservable,
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EntryStatus:   types.SspEntryStatusApproved,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.CatalogRepo.Create(s.GetContext(), entry))
}

func (s *AllocationServiceSuite) invoice(id string, total string, lines ...allocation.InvoiceLine) allocation.InvoiceSnapshot {
	amount, err := decimal.NewFromString(total)
	s.NoError(err)
	return allocation.InvoiceSnapshot{
		ID:          id,
		ContractID:  "contract-1",
		CustomerID:  "cust-1",
		InvoiceDate: s.invoiceDate,
		Currency:    "USD",
		TotalAmount: amount,
		Lines:       lines,
	}
}

func line(id, productID, amount, qty string) allocation.InvoiceLine {
	return allocation.InvoiceLine{
		ID:        id,
		ProductID: productID,
		Amount:    decimal.RequireFromString(amount),
		Qty:       decimal.RequireFromString(qty),
	}
}

func (s *AllocationServiceSuite) TestRelativeAllocationSumsToTotal() {
	s.approveSsp("p1", "USD", "300")
	s.approveSsp("p2", "USD", "100")

	resp, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
		RunID: "run-1",
		Invoice: s.invoice("inv-1", "1000",
			line("l1", "p1", "750", "1"),
			line("l2", "p2", "250", "1"),
		),
	})
	s.NoError(err)
	s.Equal(types.AllocationStrategyRelativeSsp, resp.Strategy)

	sum := decimal.Zero
	for _, l := range resp.Lines {
		sum = sum.Add(l.Amount)
	}
	s.True(sum.Equal(decimal.NewFromInt(1000)), "allocations must sum to total, got %s", sum)
	s.True(resp.Lines[0].Amount.Equal(decimal.NewFromInt(750)))
	s.True(resp.Lines[1].Amount.Equal(decimal.NewFromInt(250)))
	s.False(resp.CorridorFlag)
}

func (s *AllocationServiceSuite) TestSumToTotalUnderBothRoundingModes() {
	for _, rounding := range []types.RoundingMode{types.RoundingModeHalfUp, types.RoundingModeBankers} {
		s.Run(rounding.String(), func() {
			s.SetupTest()
			s.setupPolicy(rounding, false, nil)
			s.approveSsp("p1", "USD", "50")
			s.approveSsp("p2", "USD", "50")
			s.approveSsp("p3", "USD", "50")

			resp, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
				RunID: "run-1",
				Invoice: s.invoice("inv-1", "100",
					line("l1", "p1", "33.33", "1"),
					line("l2", "p2", "33.33", "1"),
					line("l3", "p3", "33.34", "1"),
				),
			})
			s.NoError(err)

			sum := decimal.Zero
			for _, l := range resp.Lines {
				sum = sum.Add(l.Amount)
			}
			s.True(sum.Equal(decimal.NewFromInt(100)),
				"rounding mode %s must preserve the total, got %s", rounding, sum)
		})
	}
}

func (s *AllocationServiceSuite) TestDuplicateRunConflict() {
	s.approveSsp("p1", "USD", "100")

	req := dto.AllocateRequest{
		RunID:   "run-1",
		Invoice: s.invoice("inv-1", "100", line("l1", "p1", "100", "1")),
	}

	_, err := s.service.Allocate(s.GetContext(), req)
	s.NoError(err)

	_, err = s.service.Allocate(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))

	// A different run for the same invoice is a fresh allocation
	req.RunID = "run-2"
	_, err = s.service.Allocate(s.GetContext(), req)
	s.NoError(err)

	audits, err := s.service.ListAudits(s.GetContext(), "inv-1")
	s.NoError(err)
	s.Len(audits, 2)
}

func (s *AllocationServiceSuite) TestUnresolvedPricingFails() {
	s.approveSsp("p1", "USD", "100")

	_, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
		RunID:    "run-1",
		Strategy: types.AllocationStrategyRelativeSsp,
		Invoice: s.invoice("inv-1", "300",
			line("l1", "p1", "100", "1"),
			line("l2", "unknown", "200", "1"),
		),
	})
	s.Error(err)
	s.True(ierr.IsUnresolvedPricing(err))

	// Failed runs must not leave an audit behind
	exists, err := s.params.AuditRepo.ExistsAudit(s.GetContext(), "inv-1", "run-1")
	s.NoError(err)
	s.False(exists)
}

func (s *AllocationServiceSuite) TestAutoPicksResidualWhenPolicyAllows() {
	s.setupPolicy(types.RoundingModeHalfUp, true, []string{"custom"})
	s.approveSsp("p1", "USD", "150")

	resp, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
		RunID: "run-1",
		Invoice: s.invoice("inv-1", "1000",
			line("l1", "p1", "300", "2"),
			line("l2", "custom", "700", "1"),
		),
	})
	s.NoError(err)
	s.Equal(types.AllocationStrategyResidual, resp.Strategy)
	s.True(resp.Lines[0].Amount.Equal(decimal.NewFromInt(300)))
	s.True(resp.Lines[1].Amount.Equal(decimal.NewFromInt(700)))
}

func (s *AllocationServiceSuite) TestResidualClipNegativeRemainder() {
	s.setupPolicy(types.RoundingModeHalfUp, true, []string{"custom"})
	s.approveSsp("p1", "USD", "300")

	resp, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
		RunID:    "run-1",
		Strategy: types.AllocationStrategyResidual,
		Invoice: s.invoice("inv-1", "250",
			line("l1", "p1", "250", "1"),
			line("l2", "custom", "0", "1"),
		),
	})
	s.NoError(err)
	s.True(resp.CorridorFlag)
	s.Equal("negative residual: priced lines exceed invoice total", resp.FlagReason)
	s.True(resp.Lines[1].Amount.IsZero())

	audit, err := s.service.GetAudit(s.GetContext(), "inv-1", "run-1")
	s.NoError(err)
	s.True(audit.CorridorFlag)
	s.True(audit.RoundingAdjustment.Equal(decimal.NewFromInt(-50)))
}

func (s *AllocationServiceSuite) TestDiscountStacking() {
	s.approveSsp("p1", "USD", "100")

	rule := &discount.Rule{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT_RULE),
		Kind:          types.DiscountKindProp,
		Code:          "VOL-10",
		Params:        discount.RuleParams{Prop: &discount.PropParams{Pct: decimal.NewFromFloat(0.10)}},
		Active:        true,
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.RuleRepo.Create(s.GetContext(), rule))

	resp, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
		RunID:   "run-1",
		Invoice: s.invoice("inv-1", "10000", line("l1", "p1", "10000", "1")),
	})
	s.NoError(err)
	s.True(resp.TotalDiscount.Equal(decimal.NewFromInt(1000)))
	s.True(resp.TotalAllocated.Equal(decimal.NewFromInt(9000)))
	s.Len(resp.AppliedDiscounts, 1)

	// The application log commits with the audit
	applied, err := s.params.AppliedRepo.ListByInvoice(s.GetContext(), "inv-1")
	s.NoError(err)
	s.Len(applied, 1)
	s.True(applied[0].ComputedAmount.Equal(decimal.NewFromInt(1000)))
}

func (s *AllocationServiceSuite) TestSequentialStackingOrder() {
	s.approveSsp("p1", "USD", "100")

	mk := func(code string, priority int, pct float64) *discount.Rule {
		return &discount.Rule{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT_RULE),
			Kind:          types.DiscountKindProp,
			Code:          code,
			Params:        discount.RuleParams{Prop: &discount.PropParams{Pct: decimal.NewFromFloat(pct)}},
			Active:        true,
			EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Priority:      priority,
			BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
		}
	}
	s.NoError(s.params.RuleRepo.Create(s.GetContext(), mk("B-SECOND", 1, 0.10)))
	s.NoError(s.params.RuleRepo.Create(s.GetContext(), mk("A-FIRST", 0, 0.10)))

	resp, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
		RunID:   "run-1",
		Invoice: s.invoice("inv-1", "10000", line("l1", "p1", "10000", "1")),
	})
	s.NoError(err)

	// A-FIRST: 10% of 10000 = 1000; B-SECOND: 10% of 9000 = 900
	s.Len(resp.AppliedDiscounts, 2)
	s.Equal("A-FIRST", resp.AppliedDiscounts[0].RuleCode)
	s.True(resp.AppliedDiscounts[0].ComputedAmount.Equal(decimal.NewFromInt(1000)))
	s.Equal("B-SECOND", resp.AppliedDiscounts[1].RuleCode)
	s.True(resp.AppliedDiscounts[1].ComputedAmount.Equal(decimal.NewFromInt(900)))
	s.True(resp.TotalAllocated.Equal(decimal.NewFromInt(8100)))
}

func (s *AllocationServiceSuite) TestBundleExpansion() {
	s.approveSsp("p1", "USD", "100")
	s.approveSsp("p2", "USD", "100")

	b := &bundle.Bundle{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BUNDLE),
		Sku:           "SUITE-STD",
		Name:          "Standard Suite",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		BundleStatus:  types.BundleStatusActive,
		Components: bundle.Components{
			{ProductID: "p1", WeightPct: decimal.NewFromFloat(0.6), Required: true},
			{ProductID: "p2", WeightPct: decimal.NewFromFloat(0.4)},
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.BundleRepo.Create(s.GetContext(), b))

	resp, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
		RunID:   "run-1",
		Invoice: s.invoice("inv-1", "1000", line("l1", "SUITE-STD", "1000", "1")),
	})
	s.NoError(err)

	s.Len(resp.Lines, 2)
	s.Equal("l1:p1", resp.Lines[0].LineID)
	s.Equal("l1:p2", resp.Lines[1].LineID)

	sum := decimal.Zero
	for _, l := range resp.Lines {
		sum = sum.Add(l.Amount)
	}
	s.True(sum.Equal(decimal.NewFromInt(1000)))
}

func (s *AllocationServiceSuite) TestLargeInvoice() {
	lineCount := 1000
	lines := make([]allocation.InvoiceLine, lineCount)
	for i := 0; i < lineCount; i++ {
		productID := fmt.Sprintf("p%d", i)
		s.approveSsp(productID, "USD", "10")
		lines[i] = line(fmt.Sprintf("l%d", i), productID, "10", "1")
	}

	resp, err := s.service.Allocate(s.GetContext(), dto.AllocateRequest{
		RunID:   "run-1",
		Invoice: s.invoice("inv-big", "9999.37", lines...),
	})
	s.NoError(err)
	s.Len(resp.Lines, lineCount)

	sum := decimal.Zero
	for _, l := range resp.Lines {
		sum = sum.Add(l.Amount)
	}
	s.True(sum.Equal(decimal.RequireFromString("9999.37")),
		"large invoice must still sum to total, got %s", sum)
}
