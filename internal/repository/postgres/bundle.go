package postgres

import (
	"context"

	"github.com/vidinfra/revalloc/internal/domain/bundle"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	pgclient "github.com/vidinfra/revalloc/internal/postgres"
	"github.com/vidinfra/revalloc/internal/types"
)

type bundleRepository struct {
	db     pgclient.IClient
	logger *logger.Logger
}

// NewBundleRepository creates a postgres-backed bundle repository
func NewBundleRepository(db pgclient.IClient, logger *logger.Logger) bundle.Repository {
	return &bundleRepository{db: db, logger: logger}
}

const bundleColumns = `id, sku, name, effective_from, effective_to, bundle_status, components,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *bundleRepository) Create(ctx context.Context, b *bundle.Bundle) error {
	r.logger.Debugw("creating bundle", "bundle_id", b.ID, "sku", b.Sku)

	query := `
		INSERT INTO bundles (` + bundleColumns + `)
		VALUES (:id, :sku, :name, :effective_from, :effective_to, :bundle_status, :components,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, b); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("A bundle with SKU %s already exists", b.Sku).
				Mark(ierr.ErrAlreadyExists)
		}
		return dbError(err, "failed to create bundle")
	}
	return nil
}

func (r *bundleRepository) Update(ctx context.Context, b *bundle.Bundle) error {
	query := `
		UPDATE bundles SET
			name = :name,
			effective_from = :effective_from,
			effective_to = :effective_to,
			bundle_status = :bundle_status,
			components = :components,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.Querier(ctx).NamedExecContext(ctx, query, b)
	if err != nil {
		return dbError(err, "failed to update bundle")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return dbError(err, "failed to read update result")
	}
	if rows == 0 {
		return ierr.NewError("bundle not found").
			WithHintf("Bundle %s was not found", b.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *bundleRepository) Get(ctx context.Context, id string) (*bundle.Bundle, error) {
	query := `
		SELECT ` + bundleColumns + `
		FROM bundles
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	var b bundle.Bundle
	err := r.db.Querier(ctx).GetContext(ctx, &b, query,
		id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if isNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Bundle %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, dbError(err, "failed to get bundle")
	}
	return &b, nil
}

func (r *bundleRepository) GetBySku(ctx context.Context, sku string) (*bundle.Bundle, error) {
	query := `
		SELECT ` + bundleColumns + `
		FROM bundles
		WHERE sku = $1 AND tenant_id = $2 AND status != $3`

	var b bundle.Bundle
	err := r.db.Querier(ctx).GetContext(ctx, &b, query,
		sku, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if isNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Bundle with SKU %s was not found", sku).
				Mark(ierr.ErrNotFound)
		}
		return nil, dbError(err, "failed to get bundle by sku")
	}
	return &b, nil
}

func (r *bundleRepository) List(ctx context.Context) ([]*bundle.Bundle, error) {
	query := `
		SELECT ` + bundleColumns + `
		FROM bundles
		WHERE tenant_id = $1 AND status != $2
		ORDER BY sku`

	var bundles []*bundle.Bundle
	err := r.db.Querier(ctx).SelectContext(ctx, &bundles, query,
		types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, dbError(err, "failed to list bundles")
	}
	return bundles, nil
}
