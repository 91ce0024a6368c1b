package discount

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RuleRepository defines the interface for discount rule data access
type RuleRepository interface {
	Create(ctx context.Context, rule *Rule) error
	Update(ctx context.Context, rule *Rule) error
	Get(ctx context.Context, id string) (*Rule, error)
	List(ctx context.Context) ([]*Rule, error)
	// ListActive returns active rules whose effective window covers asOf
	ListActive(ctx context.Context, asOf time.Time) ([]*Rule, error)
}

// RuleUsage is the cumulative application history of one rule
type RuleUsage struct {
	Count  int
	Amount decimal.Decimal
}

// AppliedRepository defines the interface for the append-only application log
type AppliedRepository interface {
	Create(ctx context.Context, applied *Applied) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Applied, error)
	// UsageByRule returns the cumulative count and amount of prior
	// applications per rule ID, used to enforce usage caps
	UsageByRule(ctx context.Context, ruleIDs []string) (map[string]RuleUsage, error)
}
