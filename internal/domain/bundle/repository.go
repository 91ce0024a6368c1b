package bundle

import (
	"context"
)

// Repository defines the interface for bundle data access
type Repository interface {
	Create(ctx context.Context, bundle *Bundle) error
	Update(ctx context.Context, bundle *Bundle) error
	Get(ctx context.Context, id string) (*Bundle, error)
	GetBySku(ctx context.Context, sku string) (*Bundle, error)
	List(ctx context.Context) ([]*Bundle, error)
}
