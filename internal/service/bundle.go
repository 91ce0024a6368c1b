package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/domain/allocation"
	"github.com/vidinfra/revalloc/internal/domain/bundle"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
	"github.com/vidinfra/revalloc/internal/validator"
)

// BundleService defines the interface for bundle catalog operations
type BundleService interface {
	UpsertBundle(ctx context.Context, req dto.UpsertBundleRequest) (*dto.BundleResponse, error)
	GetBundle(ctx context.Context, id string) (*dto.BundleResponse, error)
	ListBundles(ctx context.Context) (*dto.ListBundlesResponse, error)

	// ExpandInvoiceLines replaces bundle lines with component pseudo-lines,
	// splitting each line amount across components by weight. Lines whose
	// product is not an active bundle SKU pass through unchanged.
	ExpandInvoiceLines(ctx context.Context, lines []allocation.InvoiceLine, asOf time.Time) ([]allocation.InvoiceLine, error)
}

type bundleService struct {
	ServiceParams
}

// NewBundleService creates a new bundle service
func NewBundleService(params ServiceParams) BundleService {
	return &bundleService{
		ServiceParams: params,
	}
}

func (s *bundleService) UpsertBundle(ctx context.Context, req dto.UpsertBundleRequest) (*dto.BundleResponse, error) {
	if err := validator.ValidateRequest(&req); err != nil {
		return nil, err
	}

	b := req.ToBundle(types.GetDefaultBaseModel(ctx))
	if err := b.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.BundleRepo.GetBySku(ctx, b.Sku)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	if existing != nil {
		// Replace in place: the SKU is the stable identity of a bundle
		b.ID = existing.ID
		b.CreatedAt = existing.CreatedAt
		b.CreatedBy = existing.CreatedBy
		if err := s.BundleRepo.Update(ctx, b); err != nil {
			return nil, err
		}
	} else {
		if err := s.BundleRepo.Create(ctx, b); err != nil {
			return nil, err
		}
	}

	s.Logger.Infow("upserted bundle",
		"bundle_id", b.ID,
		"sku", b.Sku,
		"bundle_status", b.BundleStatus,
		"components", len(b.Components),
	)
	return &dto.BundleResponse{Bundle: b}, nil
}

func (s *bundleService) GetBundle(ctx context.Context, id string) (*dto.BundleResponse, error) {
	b, err := s.BundleRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.BundleResponse{Bundle: b}, nil
}

func (s *bundleService) ListBundles(ctx context.Context) (*dto.ListBundlesResponse, error) {
	bundles, err := s.BundleRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.BundleResponse, len(bundles))
	for i, b := range bundles {
		items[i] = &dto.BundleResponse{Bundle: b}
	}
	return &dto.ListBundlesResponse{Items: items, Total: len(items)}, nil
}

func (s *bundleService) ExpandInvoiceLines(ctx context.Context, lines []allocation.InvoiceLine, asOf time.Time) ([]allocation.InvoiceLine, error) {
	bundles, err := s.BundleRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	bySku := make(map[string]*bundle.Bundle, len(bundles))
	for _, b := range bundles {
		if b.BundleStatus == types.BundleStatusActive && b.IsEffectiveAt(asOf) {
			bySku[b.Sku] = b
		}
	}

	expanded := make([]allocation.InvoiceLine, 0, len(lines))
	for _, line := range lines {
		b, ok := bySku[line.ProductID]
		if !ok {
			expanded = append(expanded, line)
			continue
		}

		s.Logger.Debugw("expanding bundle invoice line",
			"line_id", line.ID,
			"sku", b.Sku,
			"components", len(b.Components),
		)
		for _, comp := range b.Expand(line.Qty, line.Amount) {
			expanded = append(expanded, allocation.InvoiceLine{
				// Pseudo-line IDs stay traceable to the original bundle line
				ID:        fmt.Sprintf("%s:%s", line.ID, comp.ProductID),
				ProductID: comp.ProductID,
				Amount:    comp.Amount,
				Qty:       comp.Qty,
				UOM:       line.UOM,
				EndDate:   line.EndDate,
			})
		}
	}
	return expanded, nil
}
