package dto

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/domain/bundle"
	"github.com/vidinfra/revalloc/internal/types"
)

// UpsertBundleRequest creates or replaces a bundle definition by SKU
type UpsertBundleRequest struct {
	Sku           string                   `json:"sku" validate:"required"`
	Name          string                   `json:"name" validate:"required"`
	EffectiveFrom time.Time                `json:"effective_from" validate:"required"`
	EffectiveTo   *time.Time               `json:"effective_to,omitempty"`
	BundleStatus  types.BundleStatus       `json:"bundle_status" validate:"required"`
	Components    []BundleComponentRequest `json:"components" validate:"required,min=1"`
}

// BundleComponentRequest is one weighted bundle member
type BundleComponentRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	WeightPct decimal.Decimal `json:"weight_pct"`
	Required  bool            `json:"required"`
	MinQty    int             `json:"min_qty"`
	MaxQty    int             `json:"max_qty"`
}

// ToBundle converts the request to a bundle model
func (r *UpsertBundleRequest) ToBundle(baseModel types.BaseModel) *bundle.Bundle {
	return &bundle.Bundle{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BUNDLE),
		Sku:           r.Sku,
		Name:          r.Name,
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		BundleStatus:  r.BundleStatus,
		Components: lo.Map(r.Components, func(c BundleComponentRequest, _ int) bundle.Component {
			return bundle.Component{
				ProductID: c.ProductID,
				WeightPct: c.WeightPct,
				Required:  c.Required,
				MinQty:    c.MinQty,
				MaxQty:    c.MaxQty,
			}
		}),
		BaseModel: baseModel,
	}
}

// BundleResponse is the bundle response
type BundleResponse struct {
	*bundle.Bundle
}

// ListBundlesResponse carries all bundles for a tenant
type ListBundlesResponse struct {
	Items []*BundleResponse `json:"items"`
	Total int               `json:"total"`
}
