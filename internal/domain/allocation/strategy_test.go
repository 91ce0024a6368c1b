package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		places   int32
		mode     types.RoundingMode
		expected string
	}{
		{"half up rounds half away from zero", "0.125", 2, types.RoundingModeHalfUp, "0.13"},
		{"bankers rounds half to even down", "0.125", 2, types.RoundingModeBankers, "0.12"},
		{"bankers rounds half to even up", "0.135", 2, types.RoundingModeBankers, "0.14"},
		{"half up above half", "0.126", 2, types.RoundingModeHalfUp, "0.13"},
		{"bankers above half", "0.126", 2, types.RoundingModeBankers, "0.13"},
		{"zero decimal currency", "1234.5", 0, types.RoundingModeHalfUp, "1235"},
		{"three decimal currency", "1.2345", 3, types.RoundingModeHalfUp, "1.235"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round(dec(tt.amount), tt.places, tt.mode)
			assert.True(t, got.Equal(dec(tt.expected)),
				"got %s, expected %s", got.String(), tt.expected)
		})
	}
}

func TestRelativeSspStrategy(t *testing.T) {
	strategy := &relativeSspStrategy{}

	t.Run("allocates proportionally to ssp x qty", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("1000"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("1"), Ssp: decPtr("300")},
				{LineID: "l2", ProductID: "p2", Qty: dec("1"), Ssp: decPtr("100")},
			},
		}

		result, err := strategy.Allocate(input)
		require.NoError(t, err)
		assert.True(t, result.Lines[0].Amount.Equal(dec("750")))
		assert.True(t, result.Lines[1].Amount.Equal(dec("250")))
		assert.True(t, result.TotalAllocated.Equal(dec("1000")))
	})

	t.Run("quantity scales the weight", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("600"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("2"), Ssp: decPtr("100")},
				{LineID: "l2", ProductID: "p2", Qty: dec("1"), Ssp: decPtr("100")},
			},
		}

		result, err := strategy.Allocate(input)
		require.NoError(t, err)
		assert.True(t, result.Lines[0].Amount.Equal(dec("400")))
		assert.True(t, result.Lines[1].Amount.Equal(dec("200")))
	})

	t.Run("residual cent lands on largest line", func(t *testing.T) {
		// 100 / 3 rounds to 33.33 per line, leaving 0.01
		input := StrategyInput{
			Total:     dec("100"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("1"), Ssp: decPtr("50")},
				{LineID: "l2", ProductID: "p2", Qty: dec("1"), Ssp: decPtr("50")},
				{LineID: "l3", ProductID: "p3", Qty: dec("1"), Ssp: decPtr("50")},
			},
		}

		result, err := strategy.Allocate(input)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, line := range result.Lines {
			sum = sum.Add(line.Amount)
		}
		assert.True(t, sum.Equal(dec("100")), "allocations must sum to the total, got %s", sum)
		// tie on amounts, correction goes to the lowest index
		assert.True(t, result.Lines[0].Amount.Equal(dec("33.34")))
		assert.True(t, result.Lines[1].Amount.Equal(dec("33.33")))
		assert.True(t, result.Lines[2].Amount.Equal(dec("33.33")))
		assert.True(t, result.RoundingAdjustment.Equal(dec("0.01")))
	})

	t.Run("missing ssp fails with unresolved pricing", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("100"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("1"), Ssp: decPtr("50")},
				{LineID: "l2", ProductID: "p2", Qty: dec("1")},
			},
		}

		_, err := strategy.Allocate(input)
		require.Error(t, err)
		assert.True(t, ierr.IsUnresolvedPricing(err))
	})

	t.Run("zero weight denominator fails with unresolved pricing", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("100"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("0"), Ssp: decPtr("50")},
			},
		}

		_, err := strategy.Allocate(input)
		require.Error(t, err)
		assert.True(t, ierr.IsUnresolvedPricing(err))
	})
}

func TestResidualStrategy(t *testing.T) {
	strategy := &residualStrategy{}

	t.Run("eligible line absorbs the remainder", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("1000"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("2"), Ssp: decPtr("150")},
				{LineID: "l2", ProductID: "custom", Qty: dec("1"), ListedAmount: dec("700"), ResidualEligible: true},
			},
		}

		result, err := strategy.Allocate(input)
		require.NoError(t, err)
		assert.True(t, result.Lines[0].Amount.Equal(dec("300")))
		assert.True(t, result.Lines[1].Amount.Equal(dec("700")))
		assert.True(t, result.TotalAllocated.Equal(dec("1000")))
		assert.False(t, result.Flagged)
	})

	t.Run("remainder splits across eligible lines by listed amount", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("900"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("1"), Ssp: decPtr("300")},
				{LineID: "l2", ProductID: "c1", Qty: dec("1"), ListedAmount: dec("400"), ResidualEligible: true},
				{LineID: "l3", ProductID: "c2", Qty: dec("1"), ListedAmount: dec("200"), ResidualEligible: true},
			},
		}

		result, err := strategy.Allocate(input)
		require.NoError(t, err)
		assert.True(t, result.Lines[1].Amount.Equal(dec("400")))
		assert.True(t, result.Lines[2].Amount.Equal(dec("200")))
	})

	t.Run("negative remainder clips eligible lines and flags", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("250"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("1"), Ssp: decPtr("300")},
				{LineID: "l2", ProductID: "custom", Qty: dec("1"), ResidualEligible: true},
			},
		}

		result, err := strategy.Allocate(input)
		require.NoError(t, err)
		assert.True(t, result.Flagged)
		assert.Equal(t, "negative residual: priced lines exceed invoice total", result.FlagReason)
		assert.True(t, result.Lines[1].Amount.IsZero())
		assert.True(t, result.TotalAllocated.Equal(dec("300")))
		assert.True(t, result.RoundingAdjustment.Equal(dec("-50")))
	})

	t.Run("no eligible line fails with unresolved pricing", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("100"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("1"), Ssp: decPtr("100")},
			},
		}

		_, err := strategy.Allocate(input)
		require.Error(t, err)
		assert.True(t, ierr.IsUnresolvedPricing(err))
	})

	t.Run("unpriced non-eligible line allocates zero and flags", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("500"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "p1", Qty: dec("1")},
				{LineID: "l2", ProductID: "custom", Qty: dec("1"), ListedAmount: dec("500"), ResidualEligible: true},
			},
		}

		result, err := strategy.Allocate(input)
		require.NoError(t, err)
		assert.True(t, result.Flagged)
		assert.True(t, result.Lines[0].Amount.IsZero())
		assert.True(t, result.Lines[1].Amount.Equal(dec("500")))
	})

	t.Run("zero listed amounts split the remainder equally", func(t *testing.T) {
		input := StrategyInput{
			Total:     dec("100"),
			Precision: 2,
			Rounding:  types.RoundingModeHalfUp,
			Lines: []PricedLine{
				{LineID: "l1", ProductID: "c1", Qty: dec("1"), ResidualEligible: true},
				{LineID: "l2", ProductID: "c2", Qty: dec("1"), ResidualEligible: true},
			},
		}

		result, err := strategy.Allocate(input)
		require.NoError(t, err)
		assert.True(t, result.Lines[0].Amount.Equal(dec("50")))
		assert.True(t, result.Lines[1].Amount.Equal(dec("50")))
	})
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy(types.AllocationStrategyRelativeSsp)
	require.NoError(t, err)
	assert.Equal(t, types.AllocationStrategyRelativeSsp, s.Name())

	s, err = NewStrategy(types.AllocationStrategyResidual)
	require.NoError(t, err)
	assert.Equal(t, types.AllocationStrategyResidual, s.Name())

	_, err = NewStrategy(types.AllocationStrategyAuto)
	require.Error(t, err)
}
