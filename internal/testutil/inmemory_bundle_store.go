package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/vidinfra/revalloc/internal/domain/bundle"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// InMemoryBundleStore implements bundle.Repository
type InMemoryBundleStore struct {
	mu      sync.RWMutex
	bundles map[string]*bundle.Bundle
}

func NewInMemoryBundleStore() *InMemoryBundleStore {
	return &InMemoryBundleStore{
		bundles: make(map[string]*bundle.Bundle),
	}
}

func copyBundle(b *bundle.Bundle) *bundle.Bundle {
	if b == nil {
		return nil
	}
	copied := *b
	copied.Components = append(bundle.Components(nil), b.Components...)
	return &copied
}

func (s *InMemoryBundleStore) Create(ctx context.Context, b *bundle.Bundle) error {
	if b == nil {
		return ierr.NewError("bundle cannot be nil").
			WithHint("Bundle cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bundles {
		if existing.TenantID == b.TenantID && existing.Sku == b.Sku {
			return ierr.NewError("bundle already exists").
				WithHintf("A bundle with SKU %s already exists", b.Sku).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.bundles[b.ID] = copyBundle(b)
	return nil
}

func (s *InMemoryBundleStore) Update(ctx context.Context, b *bundle.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.bundles[b.ID]
	if !exists || existing.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("bundle not found").
			WithHintf("Bundle %s was not found", b.ID).
			Mark(ierr.ErrNotFound)
	}
	s.bundles[b.ID] = copyBundle(b)
	return nil
}

func (s *InMemoryBundleStore) Get(ctx context.Context, id string) (*bundle.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.bundles[id]
	if !exists || b.TenantID != types.GetTenantID(ctx) || b.Status == types.StatusDeleted {
		return nil, ierr.NewError("bundle not found").
			WithHintf("Bundle %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyBundle(b), nil
}

func (s *InMemoryBundleStore) GetBySku(ctx context.Context, sku string) (*bundle.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bundles {
		if b.TenantID == types.GetTenantID(ctx) && b.Sku == sku && b.Status != types.StatusDeleted {
			return copyBundle(b), nil
		}
	}
	return nil, ierr.NewError("bundle not found").
		WithHintf("Bundle with SKU %s was not found", sku).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryBundleStore) List(ctx context.Context) ([]*bundle.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*bundle.Bundle
	for _, b := range s.bundles {
		if b.TenantID == types.GetTenantID(ctx) && b.Status != types.StatusDeleted {
			out = append(out, copyBundle(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sku < out[j].Sku })
	return out, nil
}
