package policy

import (
	"context"
)

// Repository defines the interface for SSP policy data access.
// There is at most one policy per tenant; the tenant is taken from context.
type Repository interface {
	Upsert(ctx context.Context, policy *Policy) error
	GetByTenant(ctx context.Context) (*Policy, error)
}
