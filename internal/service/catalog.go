package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// CatalogService defines the interface for SSP catalog operations
type CatalogService interface {
	CreateEntry(ctx context.Context, req dto.CreateSspEntryRequest) (*dto.SspEntryResponse, error)
	GetEntry(ctx context.Context, id string) (*dto.SspEntryResponse, error)
	ListEntries(ctx context.Context) (*dto.ListSspEntriesResponse, error)

	// SubmitForReview moves a DRAFT entry to REVIEWED, enforcing the
	// no-overlap invariant among non-DRAFT peers
	SubmitForReview(ctx context.Context, id string) (*dto.SspEntryResponse, error)
	// Approve moves a REVIEWED entry to APPROVED and closes the effective
	// window of the superseded open-ended entry, if any
	Approve(ctx context.Context, id string) (*dto.SspEntryResponse, error)

	// GetEffectiveSsp returns the APPROVED entry effective at asOf, or nil
	// when none exists; absence is the caller's decision to treat as fatal
	GetEffectiveSsp(ctx context.Context, productID, currency string, asOf time.Time) (*catalog.Entry, error)

	// CheckCorridorCompliance compares a candidate price to the median of its
	// APPROVED peer group
	CheckCorridorCompliance(ctx context.Context, req dto.CorridorCheckRequest) (*dto.CorridorCheckResponse, error)
}

type catalogService struct {
	ServiceParams
}

// NewCatalogService creates a new catalog service
func NewCatalogService(params ServiceParams) CatalogService {
	return &catalogService{
		ServiceParams: params,
	}
}

func (s *catalogService) CreateEntry(ctx context.Context, req dto.CreateSspEntryRequest) (*dto.SspEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry := req.ToEntry(types.GetDefaultBaseModel(ctx))
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	// Corridor check is advisory at write time: an administrator may still
	// force-save an out-of-corridor price with an accepted reason.
	corridor, err := s.CheckCorridorCompliance(ctx, dto.CorridorCheckRequest{
		ProductID:    entry.ProductID,
		Currency:     entry.Currency,
		CandidateSsp: entry.Ssp,
	})
	if err != nil {
		return nil, err
	}
	if !corridor.Compliant {
		if !req.ForceSave {
			return nil, ierr.NewError("candidate ssp is outside the pricing corridor").
				WithHintf("Price %s deviates %s from the peer median %s; set force_save with a reason to persist it",
					entry.Ssp.String(), corridor.VariancePct.String(), corridor.MedianSsp.String()).
				WithReportableDetails(map[string]any{
					"product_id":   entry.ProductID,
					"currency":     entry.Currency,
					"median_ssp":   corridor.MedianSsp.String(),
					"variance_pct": corridor.VariancePct.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		s.Logger.Warnw("force-saving out-of-corridor ssp entry",
			"product_id", entry.ProductID,
			"currency", entry.Currency,
			"variance_pct", corridor.VariancePct.String(),
			"reason", req.ForceSaveReason,
		)
	}

	if err := s.CatalogRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return &dto.SspEntryResponse{Entry: entry, Corridor: corridor}, nil
}

func (s *catalogService) GetEntry(ctx context.Context, id string) (*dto.SspEntryResponse, error) {
	entry, err := s.CatalogRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SspEntryResponse{Entry: entry}, nil
}

func (s *catalogService) ListEntries(ctx context.Context) (*dto.ListSspEntriesResponse, error) {
	entries, err := s.CatalogRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.SspEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = &dto.SspEntryResponse{Entry: entry}
	}
	return &dto.ListSspEntriesResponse{Items: items, Total: len(items)}, nil
}

func (s *catalogService) SubmitForReview(ctx context.Context, id string) (*dto.SspEntryResponse, error) {
	entry, err := s.CatalogRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !entry.EntryStatus.CanTransitionTo(types.SspEntryStatusReviewed) {
		return nil, ierr.NewError("entry cannot be submitted for review").
			WithHintf("Lifecycle transitions are one-way; entry is %s", entry.EntryStatus).
			WithReportableDetails(map[string]any{
				"entry_id": entry.ID,
				"status":   entry.EntryStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	// The no-overlap invariant covers all non-DRAFT entries, so it is
	// enforced when an entry leaves DRAFT.
	if err := s.checkWindowOverlap(ctx, entry); err != nil {
		return nil, err
	}

	entry.EntryStatus = types.SspEntryStatusReviewed
	entry.UpdatedAt = time.Now().UTC()
	entry.UpdatedBy = types.GetUserID(ctx)
	if err := s.CatalogRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	return &dto.SspEntryResponse{Entry: entry}, nil
}

func (s *catalogService) Approve(ctx context.Context, id string) (*dto.SspEntryResponse, error) {
	entry, err := s.CatalogRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !entry.EntryStatus.CanTransitionTo(types.SspEntryStatusApproved) {
		return nil, ierr.NewError("entry cannot be approved").
			WithHintf("Lifecycle transitions are one-way; entry is %s", entry.EntryStatus).
			WithReportableDetails(map[string]any{
				"entry_id": entry.ID,
				"status":   entry.EntryStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		// Close the superseded open-ended APPROVED entry, if one exists.
		// Approved entries are immutable except for this window closure.
		peers, err := s.CatalogRepo.ListByProduct(ctx, entry.ProductID, entry.Currency)
		if err != nil {
			return err
		}
		for _, peer := range peers {
			if peer.ID == entry.ID || peer.EntryStatus != types.SspEntryStatusApproved {
				continue
			}
			if peer.EffectiveTo == nil && peer.EffectiveFrom.Before(entry.EffectiveFrom) {
				closedAt := entry.EffectiveFrom.AddDate(0, 0, -1)
				peer.EffectiveTo = &closedAt
				peer.UpdatedAt = time.Now().UTC()
				peer.UpdatedBy = types.GetUserID(ctx)
				if err := s.CatalogRepo.Update(ctx, peer); err != nil {
					return err
				}
			}
		}

		entry.EntryStatus = types.SspEntryStatusApproved
		entry.UpdatedAt = time.Now().UTC()
		entry.UpdatedBy = types.GetUserID(ctx)
		return s.CatalogRepo.Update(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	return &dto.SspEntryResponse{Entry: entry}, nil
}

func (s *catalogService) GetEffectiveSsp(ctx context.Context, productID, currency string, asOf time.Time) (*catalog.Entry, error) {
	entries, err := s.CatalogRepo.ListByProduct(ctx, productID, currency)
	if err != nil {
		return nil, err
	}
	return catalog.EffectiveEntry(entries, asOf), nil
}

func (s *catalogService) CheckCorridorCompliance(ctx context.Context, req dto.CorridorCheckRequest) (*dto.CorridorCheckResponse, error) {
	entries, err := s.CatalogRepo.ListByProduct(ctx, req.ProductID, req.Currency)
	if err != nil {
		return nil, err
	}

	median, ok := approvedMedian(entries)
	if !ok || median.IsZero() {
		// No approved peers: trivially compliant, nothing to compare against
		return &dto.CorridorCheckResponse{Compliant: true}, nil
	}

	pol, err := s.PolicyRepo.GetByTenant(ctx)
	if err != nil {
		if ierr.IsNotFound(err) {
			// No policy means no configured tolerance to compare against
			return &dto.CorridorCheckResponse{Compliant: true}, nil
		}
		return nil, err
	}

	variance := req.CandidateSsp.Sub(median).Abs().Div(median)
	return &dto.CorridorCheckResponse{
		Compliant:   variance.LessThanOrEqual(pol.CorridorTolerancePct),
		MedianSsp:   &median,
		VariancePct: &variance,
	}, nil
}

func (s *catalogService) checkWindowOverlap(ctx context.Context, entry *catalog.Entry) error {
	peers, err := s.CatalogRepo.ListByProduct(ctx, entry.ProductID, entry.Currency)
	if err != nil {
		return err
	}

	for _, peer := range peers {
		if peer.ID == entry.ID || peer.EntryStatus == types.SspEntryStatusDraft {
			continue
		}
		if entry.Overlaps(peer) {
			return ierr.NewError("effective window overlaps an existing entry").
				WithHintf("Entry %s already covers part of this window for product %s", peer.ID, entry.ProductID).
				WithReportableDetails(map[string]any{
					"entry_id":       entry.ID,
					"conflicting_id": peer.ID,
					"product_id":     entry.ProductID,
					"currency":       entry.Currency,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
	}
	return nil
}

// approvedMedian returns the median ssp across APPROVED entries of one peer
// group; ok is false when the group has no approved entries
func approvedMedian(entries []*catalog.Entry) (decimal.Decimal, bool) {
	var prices []decimal.Decimal
	for _, e := range entries {
		if e.EntryStatus == types.SspEntryStatusApproved {
			prices = append(prices, e.Ssp)
		}
	}
	if len(prices) == 0 {
		return decimal.Zero, false
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].LessThan(prices[j])
	})

	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid], true
	}
	return prices[mid-1].Add(prices[mid]).Div(decimal.NewFromInt(2)), true
}
