package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/vidinfra/revalloc/internal/domain/catalog"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// InMemoryCatalogStore implements catalog.Repository
type InMemoryCatalogStore struct {
	mu      sync.RWMutex
	entries map[string]*catalog.Entry
}

func NewInMemoryCatalogStore() *InMemoryCatalogStore {
	return &InMemoryCatalogStore{
		entries: make(map[string]*catalog.Entry),
	}
}

func copyEntry(e *catalog.Entry) *catalog.Entry {
	if e == nil {
		return nil
	}
	copied := *e
	return &copied
}

func (s *InMemoryCatalogStore) Create(ctx context.Context, entry *catalog.Entry) error {
	if entry == nil {
		return ierr.NewError("entry cannot be nil").
			WithHint("Entry cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ID]; exists {
		return ierr.NewError("entry already exists").
			WithHintf("A catalog entry with ID %s already exists", entry.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (s *InMemoryCatalogStore) Get(ctx context.Context, id string) (*catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[id]
	if !exists || entry.TenantID != types.GetTenantID(ctx) || entry.Status == types.StatusDeleted {
		return nil, ierr.NewError("entry not found").
			WithHintf("Catalog entry %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyEntry(entry), nil
}

func (s *InMemoryCatalogStore) Update(ctx context.Context, entry *catalog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.entries[entry.ID]
	if !exists || existing.TenantID != types.GetTenantID(ctx) {
		return ierr.NewError("entry not found").
			WithHintf("Catalog entry %s was not found", entry.ID).
			Mark(ierr.ErrNotFound)
	}
	s.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (s *InMemoryCatalogStore) List(ctx context.Context) ([]*catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*catalog.Entry
	for _, entry := range s.entries {
		if entry.TenantID == types.GetTenantID(ctx) && entry.Status != types.StatusDeleted {
			out = append(out, copyEntry(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
	})
	return out, nil
}

func (s *InMemoryCatalogStore) ListByProduct(ctx context.Context, productID, currency string) ([]*catalog.Entry, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []*catalog.Entry
	for _, entry := range all {
		if entry.ProductID == productID && entry.Currency == currency {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *InMemoryCatalogStore) ListByProducts(ctx context.Context, productIDs []string, currency string) (map[string][]*catalog.Entry, error) {
	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*catalog.Entry)
	for _, entry := range all {
		if _, ok := wanted[entry.ProductID]; ok && entry.Currency == currency {
			grouped[entry.ProductID] = append(grouped[entry.ProductID], entry)
		}
	}
	return grouped, nil
}
