package allocation

import (
	"context"
	"time"
)

// Repository defines the interface for allocation audit data access. Audits
// are append-only: there is no update or delete.
type Repository interface {
	// CreateAudit persists a new audit row. Implementations must fail with an
	// already-exists error when an audit for the same (tenant, invoice, run)
	// exists, enforcing at-most-one completed allocation per pair.
	CreateAudit(ctx context.Context, audit *Audit) error
	GetAudit(ctx context.Context, invoiceID, runID string) (*Audit, error)
	ExistsAudit(ctx context.Context, invoiceID, runID string) (bool, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Audit, error)
	// BilledProducts returns the distinct product IDs seen in allocation
	// results since the given time; used by the compliance checks
	BilledProducts(ctx context.Context, since time.Time) ([]string, error)
}
