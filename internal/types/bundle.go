package types

import (
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/samber/lo"
)

// BundleStatus represents the lifecycle of a bundle definition
type BundleStatus string

const (
	// BundleStatusDraft indicates the bundle is being assembled and is not sellable
	BundleStatusDraft BundleStatus = "DRAFT"
	// BundleStatusActive indicates the bundle is sellable; its component weights
	// must sum to 1.0 within tolerance
	BundleStatusActive BundleStatus = "ACTIVE"
	// BundleStatusRetired indicates the bundle is no longer sellable
	BundleStatusRetired BundleStatus = "RETIRED"
)

func (s BundleStatus) String() string {
	return string(s)
}

func (s BundleStatus) Validate() error {
	allowed := []BundleStatus{
		BundleStatusDraft,
		BundleStatusActive,
		BundleStatusRetired,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid bundle status").
			WithHint("Please provide a valid bundle status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
