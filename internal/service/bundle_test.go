package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/domain/allocation"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/testutil"
	"github.com/vidinfra/revalloc/internal/types"
)

type BundleServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BundleService
	params  ServiceParams
}

func TestBundleService(t *testing.T) {
	suite.Run(t, new(BundleServiceSuite))
}

func (s *BundleServiceSuite) SetupTest() {
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
	s.service = NewBundleService(s.params)
}

func (s *BundleServiceSuite) upsertRequest(status types.BundleStatus, weights ...string) dto.UpsertBundleRequest {
	components := make([]dto.BundleComponentRequest, len(weights))
	for i, w := range weights {
		components[i] = dto.BundleComponentRequest{
			ProductID: "p" + string(rune('1'+i)),
			WeightPct: decimal.RequireFromString(w),
		}
	}
	return dto.UpsertBundleRequest{
		Sku:           "SUITE-STD",
		Name:          "Standard Suite",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		BundleStatus:  status,
		Components:    components,
	}
}

func (s *BundleServiceSuite) TestUpsertRejectsUnbalancedWeights() {
	_, err := s.service.UpsertBundle(s.GetContext(), s.upsertRequest(types.BundleStatusActive, "0.6", "0.5"))
	s.Error(err)
	s.True(ierr.IsValidation(err))

	resp, err := s.service.UpsertBundle(s.GetContext(), s.upsertRequest(types.BundleStatusActive, "0.6", "0.4"))
	s.NoError(err)
	s.Equal("SUITE-STD", resp.Sku)
}

func (s *BundleServiceSuite) TestUpsertReplacesBySku() {
	first, err := s.service.UpsertBundle(s.GetContext(), s.upsertRequest(types.BundleStatusActive, "0.6", "0.4"))
	s.NoError(err)

	second, err := s.service.UpsertBundle(s.GetContext(), s.upsertRequest(types.BundleStatusActive, "0.5", "0.5"))
	s.NoError(err)
	s.Equal(first.ID, second.ID)

	list, err := s.service.ListBundles(s.GetContext())
	s.NoError(err)
	s.Equal(1, list.Total)
	s.True(list.Items[0].Components[0].WeightPct.Equal(decimal.RequireFromString("0.5")))
}

func (s *BundleServiceSuite) TestExpandInvoiceLines() {
	_, err := s.service.UpsertBundle(s.GetContext(), s.upsertRequest(types.BundleStatusActive, "0.6", "0.4"))
	s.NoError(err)

	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	lines := []allocation.InvoiceLine{
		{ID: "l1", ProductID: "SUITE-STD", Amount: decimal.NewFromInt(1000), Qty: decimal.NewFromInt(2)},
		{ID: "l2", ProductID: "plain", Amount: decimal.NewFromInt(300), Qty: decimal.NewFromInt(1)},
	}

	expanded, err := s.service.ExpandInvoiceLines(s.GetContext(), lines, asOf)
	s.NoError(err)
	s.Len(expanded, 3)

	s.Equal("l1:p1", expanded[0].ID)
	s.True(expanded[0].Amount.Equal(decimal.NewFromInt(600)))
	s.True(expanded[0].Qty.Equal(decimal.NewFromInt(2)))
	s.Equal("l1:p2", expanded[1].ID)
	s.True(expanded[1].Amount.Equal(decimal.NewFromInt(400)))

	// Non-bundle lines pass through untouched
	s.Equal("l2", expanded[2].ID)
	s.True(expanded[2].Amount.Equal(decimal.NewFromInt(300)))
}

func (s *BundleServiceSuite) TestExpandSkipsInactiveAndExpiredBundles() {
	_, err := s.service.UpsertBundle(s.GetContext(), s.upsertRequest(types.BundleStatusRetired, "0.6", "0.4"))
	s.NoError(err)

	lines := []allocation.InvoiceLine{
		{ID: "l1", ProductID: "SUITE-STD", Amount: decimal.NewFromInt(1000), Qty: decimal.NewFromInt(1)},
	}
	expanded, err := s.service.ExpandInvoiceLines(s.GetContext(), lines, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Len(expanded, 1)
	s.Equal("l1", expanded[0].ID)

	// Re-activate but with a window that has already closed
	req := s.upsertRequest(types.BundleStatusActive, "0.6", "0.4")
	closed := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	req.EffectiveTo = &closed
	_, err = s.service.UpsertBundle(s.GetContext(), req)
	s.NoError(err)

	expanded, err = s.service.ExpandInvoiceLines(s.GetContext(), lines, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Len(expanded, 1)
	s.Equal("l1", expanded[0].ID)
}
