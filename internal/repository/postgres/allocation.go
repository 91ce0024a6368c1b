package postgres

import (
	"context"
	"time"

	"github.com/vidinfra/revalloc/internal/domain/allocation"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	pgclient "github.com/vidinfra/revalloc/internal/postgres"
	"github.com/vidinfra/revalloc/internal/types"
)

type allocationRepository struct {
	db     pgclient.IClient
	logger *logger.Logger
}

// NewAllocationRepository creates a postgres-backed allocation audit repository
func NewAllocationRepository(db pgclient.IClient, logger *logger.Logger) allocation.Repository {
	return &allocationRepository{db: db, logger: logger}
}

const auditColumns = `id, invoice_id, run_id, strategy, method, inputs, results,
	corridor_flag, flag_reason, total_invoice_amount, total_discount,
	total_allocated, rounding_adjustment, processing_time_ms,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *allocationRepository) CreateAudit(ctx context.Context, audit *allocation.Audit) error {
	r.logger.Debugw("creating allocation audit",
		"audit_id", audit.ID,
		"invoice_id", audit.InvoiceID,
		"run_id", audit.RunID,
	)

	query := `
		INSERT INTO allocation_audits (` + auditColumns + `)
		VALUES (:id, :invoice_id, :run_id, :strategy, :method, :inputs, :results,
			:corridor_flag, :flag_reason, :total_invoice_amount, :total_discount,
			:total_allocated, :rounding_adjustment, :processing_time_ms,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, audit); err != nil {
		// The unique index on (tenant_id, invoice_id, run_id) is the
		// at-most-one-allocation guarantee
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("Invoice %s was already allocated in run %s", audit.InvoiceID, audit.RunID).
				WithReportableDetails(map[string]any{
					"invoice_id": audit.InvoiceID,
					"run_id":     audit.RunID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return dbError(err, "failed to create allocation audit")
	}
	return nil
}

func (r *allocationRepository) GetAudit(ctx context.Context, invoiceID, runID string) (*allocation.Audit, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM allocation_audits
		WHERE tenant_id = $1 AND invoice_id = $2 AND run_id = $3`

	var audit allocation.Audit
	err := r.db.Querier(ctx).GetContext(ctx, &audit, query,
		types.GetTenantID(ctx), invoiceID, runID)
	if err != nil {
		if isNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("No allocation audit exists for invoice %s in run %s", invoiceID, runID).
				Mark(ierr.ErrNotFound)
		}
		return nil, dbError(err, "failed to get allocation audit")
	}
	return &audit, nil
}

func (r *allocationRepository) ExistsAudit(ctx context.Context, invoiceID, runID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM allocation_audits
			WHERE tenant_id = $1 AND invoice_id = $2 AND run_id = $3
		)`

	var exists bool
	err := r.db.Querier(ctx).GetContext(ctx, &exists, query,
		types.GetTenantID(ctx), invoiceID, runID)
	if err != nil {
		return false, dbError(err, "failed to check allocation audit existence")
	}
	return exists, nil
}

func (r *allocationRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*allocation.Audit, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM allocation_audits
		WHERE tenant_id = $1 AND invoice_id = $2
		ORDER BY created_at`

	var audits []*allocation.Audit
	err := r.db.Querier(ctx).SelectContext(ctx, &audits, query,
		types.GetTenantID(ctx), invoiceID)
	if err != nil {
		return nil, dbError(err, "failed to list allocation audits")
	}
	return audits, nil
}

func (r *allocationRepository) BilledProducts(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT line->>'product_id'
		FROM allocation_audits, jsonb_array_elements(results) AS line
		WHERE tenant_id = $1 AND created_at >= $2`

	var products []string
	err := r.db.Querier(ctx).SelectContext(ctx, &products, query,
		types.GetTenantID(ctx), since)
	if err != nil {
		return nil, dbError(err, "failed to list billed products")
	}
	return products, nil
}
