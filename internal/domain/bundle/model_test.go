package bundle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

func validBundle() *Bundle {
	return &Bundle{
		ID:            "bndl_test",
		Sku:           "SUITE-STD",
		Name:          "Standard Suite",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		BundleStatus:  types.BundleStatusActive,
		Components: Components{
			{ProductID: "p1", WeightPct: decimal.NewFromFloat(0.6), Required: true},
			{ProductID: "p2", WeightPct: decimal.NewFromFloat(0.4)},
		},
	}
}

func TestBundleValidate(t *testing.T) {
	t.Run("accepts weights summing to one", func(t *testing.T) {
		require.NoError(t, validBundle().Validate())
	})

	t.Run("rejects active bundle with weight sum above one", func(t *testing.T) {
		b := validBundle()
		b.Components[1].WeightPct = decimal.NewFromFloat(0.5)
		err := b.Validate()
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("draft bundle may carry incomplete weights", func(t *testing.T) {
		b := validBundle()
		b.BundleStatus = types.BundleStatusDraft
		b.Components[1].WeightPct = decimal.NewFromFloat(0.2)
		require.NoError(t, b.Validate())
	})

	t.Run("rejects component weight outside unit interval", func(t *testing.T) {
		b := validBundle()
		b.Components[0].WeightPct = decimal.NewFromFloat(1.2)
		require.Error(t, b.Validate())

		b = validBundle()
		b.Components[0].WeightPct = decimal.Zero
		require.Error(t, b.Validate())
	})

	t.Run("rejects inverted quantity bounds", func(t *testing.T) {
		b := validBundle()
		b.Components[0].MinQty = 5
		b.Components[0].MaxQty = 2
		require.Error(t, b.Validate())
	})

	t.Run("rejects empty components", func(t *testing.T) {
		b := validBundle()
		b.Components = nil
		require.Error(t, b.Validate())
	})
}

func TestBundleExpand(t *testing.T) {
	b := validBundle()

	lines := b.Expand(decimal.NewFromInt(3), decimal.NewFromInt(1000))
	require.Len(t, lines, 2)

	assert.Equal(t, "p1", lines[0].ProductID)
	assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(600)))
	assert.True(t, lines[0].Qty.Equal(decimal.NewFromInt(3)))

	assert.Equal(t, "p2", lines[1].ProductID)
	assert.True(t, lines[1].Amount.Equal(decimal.NewFromInt(400)))
	assert.True(t, lines[1].Qty.Equal(decimal.NewFromInt(3)))
}

func TestBundleIsEffectiveAt(t *testing.T) {
	b := validBundle()
	until := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	b.EffectiveTo = &until

	assert.False(t, b.IsEffectiveAt(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, b.IsEffectiveAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, b.IsEffectiveAt(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
}
