package postgres

import (
	"context"

	"github.com/lib/pq"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	pgclient "github.com/vidinfra/revalloc/internal/postgres"
	"github.com/vidinfra/revalloc/internal/types"
)

type catalogRepository struct {
	db     pgclient.IClient
	logger *logger.Logger
}

// NewCatalogRepository creates a postgres-backed SSP catalog repository
func NewCatalogRepository(db pgclient.IClient, logger *logger.Logger) catalog.Repository {
	return &catalogRepository{db: db, logger: logger}
}

const catalogColumns = `id, product_id, currency, ssp, method, effective_from, effective_to,
	corridor_min_pct, corridor_max_pct, entry_status,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *catalogRepository) Create(ctx context.Context, entry *catalog.Entry) error {
	r.logger.Debugw("creating ssp catalog entry",
		"entry_id", entry.ID,
		"product_id", entry.ProductID,
		"currency", entry.Currency,
	)

	query := `
		INSERT INTO ssp_catalog_entries (` + catalogColumns + `)
		VALUES (:id, :product_id, :currency, :ssp, :method, :effective_from, :effective_to,
			:corridor_min_pct, :corridor_max_pct, :entry_status,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, entry); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("A catalog entry with ID %s already exists", entry.ID).
				Mark(ierr.ErrAlreadyExists)
		}
		return dbError(err, "failed to create ssp catalog entry")
	}
	return nil
}

func (r *catalogRepository) Get(ctx context.Context, id string) (*catalog.Entry, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM ssp_catalog_entries
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	var entry catalog.Entry
	err := r.db.Querier(ctx).GetContext(ctx, &entry, query,
		id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if isNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Catalog entry %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, dbError(err, "failed to get ssp catalog entry")
	}
	return &entry, nil
}

func (r *catalogRepository) Update(ctx context.Context, entry *catalog.Entry) error {
	query := `
		UPDATE ssp_catalog_entries SET
			ssp = :ssp,
			method = :method,
			effective_from = :effective_from,
			effective_to = :effective_to,
			corridor_min_pct = :corridor_min_pct,
			corridor_max_pct = :corridor_max_pct,
			entry_status = :entry_status,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.Querier(ctx).NamedExecContext(ctx, query, entry)
	if err != nil {
		return dbError(err, "failed to update ssp catalog entry")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return dbError(err, "failed to read update result")
	}
	if rows == 0 {
		return ierr.NewError("catalog entry not found").
			WithHintf("Catalog entry %s was not found", entry.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *catalogRepository) List(ctx context.Context) ([]*catalog.Entry, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM ssp_catalog_entries
		WHERE tenant_id = $1 AND status != $2
		ORDER BY product_id, currency, effective_from`

	var entries []*catalog.Entry
	err := r.db.Querier(ctx).SelectContext(ctx, &entries, query,
		types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, dbError(err, "failed to list ssp catalog entries")
	}
	return entries, nil
}

func (r *catalogRepository) ListByProduct(ctx context.Context, productID, currency string) ([]*catalog.Entry, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM ssp_catalog_entries
		WHERE tenant_id = $1 AND status != $2 AND product_id = $3 AND currency = $4
		ORDER BY effective_from`

	var entries []*catalog.Entry
	err := r.db.Querier(ctx).SelectContext(ctx, &entries, query,
		types.GetTenantID(ctx), types.StatusDeleted, productID, currency)
	if err != nil {
		return nil, dbError(err, "failed to list ssp catalog entries by product")
	}
	return entries, nil
}

func (r *catalogRepository) ListByProducts(ctx context.Context, productIDs []string, currency string) (map[string][]*catalog.Entry, error) {
	if len(productIDs) == 0 {
		return map[string][]*catalog.Entry{}, nil
	}

	query := `
		SELECT ` + catalogColumns + `
		FROM ssp_catalog_entries
		WHERE tenant_id = $1 AND status != $2 AND currency = $3 AND product_id = ANY($4)
		ORDER BY product_id, effective_from`

	var entries []*catalog.Entry
	err := r.db.Querier(ctx).SelectContext(ctx, &entries, query,
		types.GetTenantID(ctx), types.StatusDeleted, currency, pq.Array(productIDs))
	if err != nil {
		return nil, dbError(err, "failed to list ssp catalog entries by products")
	}

	grouped := make(map[string][]*catalog.Entry, len(productIDs))
	for _, entry := range entries {
		grouped[entry.ProductID] = append(grouped[entry.ProductID], entry)
	}
	return grouped, nil
}
