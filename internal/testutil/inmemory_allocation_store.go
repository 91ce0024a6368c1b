package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vidinfra/revalloc/internal/domain/allocation"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// InMemoryAllocationStore implements allocation.Repository
type InMemoryAllocationStore struct {
	mu     sync.RWMutex
	audits map[string]*allocation.Audit
}

func NewInMemoryAllocationStore() *InMemoryAllocationStore {
	return &InMemoryAllocationStore{
		audits: make(map[string]*allocation.Audit),
	}
}

func copyAudit(a *allocation.Audit) *allocation.Audit {
	if a == nil {
		return nil
	}
	copied := *a
	copied.Results = append(allocation.LineAllocations(nil), a.Results...)
	return &copied
}

func (s *InMemoryAllocationStore) CreateAudit(ctx context.Context, audit *allocation.Audit) error {
	if audit == nil {
		return ierr.NewError("audit cannot be nil").
			WithHint("Audit cannot be nil").
			Mark(ierr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.audits {
		if existing.TenantID == audit.TenantID &&
			existing.InvoiceID == audit.InvoiceID &&
			existing.RunID == audit.RunID {
			return ierr.NewError("audit already exists").
				WithHintf("Invoice %s was already allocated in run %s", audit.InvoiceID, audit.RunID).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.audits[audit.ID] = copyAudit(audit)
	return nil
}

func (s *InMemoryAllocationStore) GetAudit(ctx context.Context, invoiceID, runID string) (*allocation.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, audit := range s.audits {
		if audit.TenantID == types.GetTenantID(ctx) &&
			audit.InvoiceID == invoiceID && audit.RunID == runID {
			return copyAudit(audit), nil
		}
	}
	return nil, ierr.NewError("audit not found").
		WithHintf("No allocation audit exists for invoice %s in run %s", invoiceID, runID).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryAllocationStore) ExistsAudit(ctx context.Context, invoiceID, runID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, audit := range s.audits {
		if audit.TenantID == types.GetTenantID(ctx) &&
			audit.InvoiceID == invoiceID && audit.RunID == runID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryAllocationStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*allocation.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*allocation.Audit
	for _, audit := range s.audits {
		if audit.TenantID == types.GetTenantID(ctx) && audit.InvoiceID == invoiceID {
			out = append(out, copyAudit(audit))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryAllocationStore) BilledProducts(ctx context.Context, since time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, audit := range s.audits {
		if audit.TenantID != types.GetTenantID(ctx) || audit.CreatedAt.Before(since) {
			continue
		}
		for _, line := range audit.Results {
			seen[line.ProductID] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for productID := range seen {
		out = append(out, productID)
	}
	sort.Strings(out)
	return out, nil
}
