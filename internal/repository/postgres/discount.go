package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/domain/discount"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/logger"
	pgclient "github.com/vidinfra/revalloc/internal/postgres"
	"github.com/vidinfra/revalloc/internal/types"
)

type discountRuleRepository struct {
	db     pgclient.IClient
	logger *logger.Logger
}

// NewDiscountRuleRepository creates a postgres-backed discount rule repository
func NewDiscountRuleRepository(db pgclient.IClient, logger *logger.Logger) discount.RuleRepository {
	return &discountRuleRepository{db: db, logger: logger}
}

const ruleColumns = `id, kind, code, params, active, effective_from, effective_to,
	priority, max_usage_count, max_usage_amount,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *discountRuleRepository) Create(ctx context.Context, rule *discount.Rule) error {
	r.logger.Debugw("creating discount rule", "rule_id", rule.ID, "code", rule.Code, "kind", rule.Kind)

	query := `
		INSERT INTO discount_rules (` + ruleColumns + `)
		VALUES (:id, :kind, :code, :params, :active, :effective_from, :effective_to,
			:priority, :max_usage_count, :max_usage_amount,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, rule); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("A discount rule with code %s already exists for this effective date", rule.Code).
				Mark(ierr.ErrAlreadyExists)
		}
		return dbError(err, "failed to create discount rule")
	}
	return nil
}

func (r *discountRuleRepository) Update(ctx context.Context, rule *discount.Rule) error {
	query := `
		UPDATE discount_rules SET
			params = :params,
			active = :active,
			effective_from = :effective_from,
			effective_to = :effective_to,
			priority = :priority,
			max_usage_count = :max_usage_count,
			max_usage_amount = :max_usage_amount,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.Querier(ctx).NamedExecContext(ctx, query, rule)
	if err != nil {
		return dbError(err, "failed to update discount rule")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return dbError(err, "failed to read update result")
	}
	if rows == 0 {
		return ierr.NewError("discount rule not found").
			WithHintf("Discount rule %s was not found", rule.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *discountRuleRepository) Get(ctx context.Context, id string) (*discount.Rule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM discount_rules
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	var rule discount.Rule
	err := r.db.Querier(ctx).GetContext(ctx, &rule, query,
		id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if isNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Discount rule %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, dbError(err, "failed to get discount rule")
	}
	return &rule, nil
}

func (r *discountRuleRepository) List(ctx context.Context) ([]*discount.Rule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM discount_rules
		WHERE tenant_id = $1 AND status != $2
		ORDER BY priority, code`

	var rules []*discount.Rule
	err := r.db.Querier(ctx).SelectContext(ctx, &rules, query,
		types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, dbError(err, "failed to list discount rules")
	}
	return rules, nil
}

func (r *discountRuleRepository) ListActive(ctx context.Context, asOf time.Time) ([]*discount.Rule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM discount_rules
		WHERE tenant_id = $1 AND status != $2 AND active = true
			AND effective_from <= $3
			AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY priority, code`

	var rules []*discount.Rule
	err := r.db.Querier(ctx).SelectContext(ctx, &rules, query,
		types.GetTenantID(ctx), types.StatusDeleted, asOf)
	if err != nil {
		return nil, dbError(err, "failed to list active discount rules")
	}
	return rules, nil
}

type discountAppliedRepository struct {
	db     pgclient.IClient
	logger *logger.Logger
}

// NewDiscountAppliedRepository creates a postgres-backed application log repository
func NewDiscountAppliedRepository(db pgclient.IClient, logger *logger.Logger) discount.AppliedRepository {
	return &discountAppliedRepository{db: db, logger: logger}
}

const appliedColumns = `id, invoice_id, rule_id, rule_code, computed_amount, detail,
	applied_at, applied_by,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *discountAppliedRepository) Create(ctx context.Context, applied *discount.Applied) error {
	query := `
		INSERT INTO discount_applied (` + appliedColumns + `)
		VALUES (:id, :invoice_id, :rule_id, :rule_code, :computed_amount, :detail,
			:applied_at, :applied_by,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, applied); err != nil {
		return dbError(err, "failed to record discount application")
	}
	return nil
}

func (r *discountAppliedRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*discount.Applied, error) {
	query := `
		SELECT ` + appliedColumns + `
		FROM discount_applied
		WHERE tenant_id = $1 AND status != $2 AND invoice_id = $3
		ORDER BY applied_at`

	var applications []*discount.Applied
	err := r.db.Querier(ctx).SelectContext(ctx, &applications, query,
		types.GetTenantID(ctx), types.StatusDeleted, invoiceID)
	if err != nil {
		return nil, dbError(err, "failed to list discount applications")
	}
	return applications, nil
}

func (r *discountAppliedRepository) UsageByRule(ctx context.Context, ruleIDs []string) (map[string]discount.RuleUsage, error) {
	if len(ruleIDs) == 0 {
		return map[string]discount.RuleUsage{}, nil
	}

	query := `
		SELECT rule_id, COUNT(*) AS usage_count, COALESCE(SUM(computed_amount), 0) AS usage_amount
		FROM discount_applied
		WHERE tenant_id = $1 AND status != $2 AND rule_id = ANY($3)
		GROUP BY rule_id`

	var rows []struct {
		RuleID      string          `db:"rule_id"`
		UsageCount  int             `db:"usage_count"`
		UsageAmount decimal.Decimal `db:"usage_amount"`
	}
	err := r.db.Querier(ctx).SelectContext(ctx, &rows, query,
		types.GetTenantID(ctx), types.StatusDeleted, pq.Array(ruleIDs))
	if err != nil {
		return nil, dbError(err, "failed to aggregate discount usage")
	}

	usage := make(map[string]discount.RuleUsage, len(rows))
	for _, row := range rows {
		usage[row.RuleID] = discount.RuleUsage{Count: row.UsageCount, Amount: row.UsageAmount}
	}
	return usage, nil
}
