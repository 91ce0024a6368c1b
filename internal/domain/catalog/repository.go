package catalog

import (
	"context"
)

// Repository defines the interface for SSP catalog data access
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	Update(ctx context.Context, entry *Entry) error
	List(ctx context.Context) ([]*Entry, error)
	// ListByProduct returns all entries for one (product, currency) peer group
	ListByProduct(ctx context.Context, productID, currency string) ([]*Entry, error)
	// ListByProducts returns all entries for a set of products in one currency,
	// keyed by product ID. This is the batched read used per allocation run.
	ListByProducts(ctx context.Context, productIDs []string, currency string) (map[string][]*Entry, error)
}
