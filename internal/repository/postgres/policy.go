package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/domain/policy"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	pgclient "github.com/vidinfra/revalloc/internal/postgres"
	"github.com/vidinfra/revalloc/internal/types"
)

type policyRepository struct {
	db     pgclient.IClient
	logger *logger.Logger
}

// NewPolicyRepository creates a postgres-backed SSP policy repository
func NewPolicyRepository(db pgclient.IClient, logger *logger.Logger) policy.Repository {
	return &policyRepository{db: db, logger: logger}
}

// policyRow mirrors policy.Policy with driver-scannable array typing
type policyRow struct {
	ID                       string             `db:"id"`
	Rounding                 types.RoundingMode `db:"rounding"`
	ResidualAllowed          bool               `db:"residual_allowed"`
	ResidualEligibleProducts pq.StringArray     `db:"residual_eligible_products"`
	DefaultMethod            types.SspMethod    `db:"default_method"`
	CorridorTolerancePct     decimal.Decimal    `db:"corridor_tolerance_pct"`
	AlertThresholdPct        decimal.Decimal    `db:"alert_threshold_pct"`
	TenantID                 string             `db:"tenant_id"`
	Status                   types.Status       `db:"status"`
	CreatedAt                time.Time          `db:"created_at"`
	UpdatedAt                time.Time          `db:"updated_at"`
	CreatedBy                string             `db:"created_by"`
	UpdatedBy                string             `db:"updated_by"`
}

func (row *policyRow) toPolicy() *policy.Policy {
	return &policy.Policy{
		ID:                       row.ID,
		Rounding:                 row.Rounding,
		ResidualAllowed:          row.ResidualAllowed,
		ResidualEligibleProducts: row.ResidualEligibleProducts,
		DefaultMethod:            row.DefaultMethod,
		CorridorTolerancePct:     row.CorridorTolerancePct,
		AlertThresholdPct:        row.AlertThresholdPct,
		BaseModel: types.BaseModel{
			TenantID:  row.TenantID,
			Status:    row.Status,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			CreatedBy: row.CreatedBy,
			UpdatedBy: row.UpdatedBy,
		},
	}
}

func (r *policyRepository) Upsert(ctx context.Context, p *policy.Policy) error {
	r.logger.Debugw("upserting ssp policy", "policy_id", p.ID, "tenant_id", p.TenantID)

	// One policy per tenant; the unique index on tenant_id carries the upsert
	query := `
		INSERT INTO ssp_policies (
			id, rounding, residual_allowed, residual_eligible_products,
			default_method, corridor_tolerance_pct, alert_threshold_pct,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tenant_id) DO UPDATE SET
			rounding = EXCLUDED.rounding,
			residual_allowed = EXCLUDED.residual_allowed,
			residual_eligible_products = EXCLUDED.residual_eligible_products,
			default_method = EXCLUDED.default_method,
			corridor_tolerance_pct = EXCLUDED.corridor_tolerance_pct,
			alert_threshold_pct = EXCLUDED.alert_threshold_pct,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		p.ID, p.Rounding, p.ResidualAllowed, pq.Array(p.ResidualEligibleProducts),
		p.DefaultMethod, p.CorridorTolerancePct, p.AlertThresholdPct,
		p.TenantID, p.Status, p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy)
	if err != nil {
		return dbError(err, "failed to upsert ssp policy")
	}
	return nil
}

func (r *policyRepository) GetByTenant(ctx context.Context) (*policy.Policy, error) {
	query := `
		SELECT id, rounding, residual_allowed, residual_eligible_products,
			default_method, corridor_tolerance_pct, alert_threshold_pct,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		FROM ssp_policies
		WHERE tenant_id = $1 AND status != $2`

	var row policyRow
	err := r.db.Querier(ctx).GetContext(ctx, &row, query,
		types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if isNoRows(err) {
			return nil, ierr.WithError(err).
				WithHint("No allocation policy is configured for this tenant").
				Mark(ierr.ErrNotFound)
		}
		return nil, dbError(err, "failed to get ssp policy")
	}
	return row.toPolicy(), nil
}
