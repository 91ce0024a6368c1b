package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	"github.com/vidinfra/revalloc/internal/domain/policy"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/testutil"
	"github.com/vidinfra/revalloc/internal/types"
)

type CatalogServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CatalogService
	params  ServiceParams
}

func TestCatalogService(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
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
	s.service = NewCatalogService(s.params)
	s.seedPolicy("0.20")
}

func (s *CatalogServiceSuite) seedPolicy(tolerance string) {
	pol := &policy.Policy{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SSP_POLICY),
		Rounding:             types.RoundingModeHalfUp,
		DefaultMethod:        types.SspMethodObservable,
		CorridorTolerancePct: decimal.RequireFromString(tolerance),
		AlertThresholdPct:    decimal.RequireFromString("0.25"),
		BaseModel:            types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.PolicyRepo.Upsert(s.GetContext(), pol))
}

func (s *CatalogServiceSuite) seedEntry(status types.SspEntryStatus, ssp string, from time.Time, to *time.Time) *catalog.Entry {
	entry := &catalog.Entry{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SSP_ENTRY),
		ProductID:     "p1",
		Currency:      "USD",
		Ssp:           decimal.RequireFromString(ssp),
		Method:        types.SspMethodObservable,
		EffectiveFrom: from,
		EffectiveTo:   to,
		EntryStatus:   status,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.CatalogRepo.Create(s.GetContext(), entry))
	return entry
}

func (s *CatalogServiceSuite) createRequest(ssp string) dto.CreateSspEntryRequest {
	return dto.CreateSspEntryRequest{
		ProductID:     "p1",
		Currency:      "USD",
		Ssp:           decimal.RequireFromString(ssp),
		Method:        types.SspMethodObservable,
		EffectiveFrom: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *CatalogServiceSuite) TestCreateEntryStartsAsDraft() {
	resp, err := s.service.CreateEntry(s.GetContext(), s.createRequest("100"))
	s.NoError(err)
	s.Equal(types.SspEntryStatusDraft, resp.EntryStatus)
	s.True(resp.Corridor.Compliant)
	s.Nil(resp.Corridor.MedianSsp)
}

func (s *CatalogServiceSuite) TestCreateEntryCorridorAdvisory() {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedEntry(types.SspEntryStatusApproved, "100", jan, nil)

	s.Run("within tolerance passes with advisory", func() {
		resp, err := s.service.CreateEntry(s.GetContext(), s.createRequest("120"))
		s.NoError(err)
		s.True(resp.Corridor.Compliant)
		s.True(resp.Corridor.MedianSsp.Equal(decimal.NewFromInt(100)))
		s.True(resp.Corridor.VariancePct.Equal(decimal.RequireFromString("0.2")))
	})

	s.Run("outside tolerance is rejected", func() {
		s.seedPolicy("0.15")
		_, err := s.service.CreateEntry(s.GetContext(), s.createRequest("120"))
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})

	s.Run("force save persists an out-of-corridor price", func() {
		s.seedPolicy("0.15")
		req := s.createRequest("120")
		req.ForceSave = true
		req.ForceSaveReason = "negotiated enterprise list price"

		resp, err := s.service.CreateEntry(s.GetContext(), req)
		s.NoError(err)
		s.False(resp.Corridor.Compliant)
		s.Equal(types.SspEntryStatusDraft, resp.EntryStatus)
	})

	s.Run("force save without a reason is rejected", func() {
		req := s.createRequest("120")
		req.ForceSave = true
		_, err := s.service.CreateEntry(s.GetContext(), req)
		s.Error(err)
		s.True(ierr.IsValidation(err))
	})
}

func (s *CatalogServiceSuite) TestSubmitForReview() {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Run("moves a draft to reviewed", func() {
		entry := s.seedEntry(types.SspEntryStatusDraft, "100", jan, nil)

		resp, err := s.service.SubmitForReview(s.GetContext(), entry.ID)
		s.NoError(err)
		s.Equal(types.SspEntryStatusReviewed, resp.EntryStatus)
	})

	s.Run("rejects a window overlapping a non-draft peer", func() {
		s.SetupTest()
		s.seedEntry(types.SspEntryStatusApproved, "100", jan, nil)
		draft := s.seedEntry(types.SspEntryStatusDraft, "110", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), nil)

		_, err := s.service.SubmitForReview(s.GetContext(), draft.ID)
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err))
	})

	s.Run("draft peers do not block review", func() {
		s.SetupTest()
		s.seedEntry(types.SspEntryStatusDraft, "100", jan, nil)
		draft := s.seedEntry(types.SspEntryStatusDraft, "110", jan, nil)

		resp, err := s.service.SubmitForReview(s.GetContext(), draft.ID)
		s.NoError(err)
		s.Equal(types.SspEntryStatusReviewed, resp.EntryStatus)
	})

	s.Run("lifecycle is one-way", func() {
		s.SetupTest()
		entry := s.seedEntry(types.SspEntryStatusApproved, "100", jan, nil)

		_, err := s.service.SubmitForReview(s.GetContext(), entry.ID)
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err))
	})
}

func (s *CatalogServiceSuite) TestApprove() {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	s.Run("moves a reviewed entry to approved", func() {
		entry := s.seedEntry(types.SspEntryStatusReviewed, "100", jan, nil)

		resp, err := s.service.Approve(s.GetContext(), entry.ID)
		s.NoError(err)
		s.Equal(types.SspEntryStatusApproved, resp.EntryStatus)
	})

	s.Run("draft cannot skip review", func() {
		s.SetupTest()
		entry := s.seedEntry(types.SspEntryStatusDraft, "100", jan, nil)

		_, err := s.service.Approve(s.GetContext(), entry.ID)
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err))
	})

	s.Run("closes the superseded open-ended window", func() {
		s.SetupTest()
		prior := s.seedEntry(types.SspEntryStatusApproved, "100", jan, nil)
		next := s.seedEntry(types.SspEntryStatusReviewed, "110", jun, nil)

		_, err := s.service.Approve(s.GetContext(), next.ID)
		s.NoError(err)

		closed, err := s.params.CatalogRepo.Get(s.GetContext(), prior.ID)
		s.NoError(err)
		s.NotNil(closed.EffectiveTo)
		s.True(closed.EffectiveTo.Equal(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)))

		// Each window now resolves to its own entry
		effective, err := s.service.GetEffectiveSsp(s.GetContext(), "p1", "USD", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
		s.NoError(err)
		s.Equal(prior.ID, effective.ID)

		effective, err = s.service.GetEffectiveSsp(s.GetContext(), "p1", "USD", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
		s.NoError(err)
		s.Equal(next.ID, effective.ID)
	})
}

func (s *CatalogServiceSuite) TestGetEffectiveSsp() {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.seedEntry(types.SspEntryStatusReviewed, "100", jan, nil)

	// Only APPROVED entries are effective
	entry, err := s.service.GetEffectiveSsp(s.GetContext(), "p1", "USD", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Nil(entry)

	approved := s.seedEntry(types.SspEntryStatusApproved, "110", jan, nil)
	entry, err = s.service.GetEffectiveSsp(s.GetContext(), "p1", "USD", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Equal(approved.ID, entry.ID)
}

func (s *CatalogServiceSuite) TestCorridorCheckWithoutPolicy() {
	s.params.PolicyRepo = testutil.NewInMemoryPolicyStore()
	s.service = NewCatalogService(s.params)
	s.seedEntry(types.SspEntryStatusApproved, "100", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	resp, err := s.service.CheckCorridorCompliance(s.GetContext(), dto.CorridorCheckRequest{
		ProductID:    "p1",
		Currency:     "USD",
		CandidateSsp: decimal.NewFromInt(500),
	})
	s.NoError(err)
	s.True(resp.Compliant)
}
