package allocation

import (
	"github.com/shopspring/decimal"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// PricedLine is an invoice line joined with its resolved catalog state. Bundle
// lines are expanded into component pseudo-lines before this point, so every
// PricedLine references a single product.
type PricedLine struct {
	LineID           string
	ProductID        string
	Qty              decimal.Decimal
	ListedAmount     decimal.Decimal
	Ssp              *decimal.Decimal
	ResidualEligible bool
}

// StrategyInput is the full, already-snapshotted input of one strategy run.
// Strategies are pure: they read nothing beyond this struct and write nothing.
type StrategyInput struct {
	Total     decimal.Decimal // post-discount amount to allocate
	Precision int32           // currency minor-unit decimal places
	Rounding  types.RoundingMode
	Lines     []PricedLine
}

// Strategy splits an invoice total across its lines. Implementations must
// guarantee that allocated amounts sum exactly to the input total, except for
// the flagged negative-residual outcome which is documented on the Result.
type Strategy interface {
	Name() types.AllocationStrategy
	Allocate(input StrategyInput) (*Result, error)
}

// NewStrategy returns the strategy implementation for a resolved (non-AUTO)
// strategy name
func NewStrategy(name types.AllocationStrategy) (Strategy, error) {
	switch name {
	case types.AllocationStrategyRelativeSsp:
		return &relativeSspStrategy{}, nil
	case types.AllocationStrategyResidual:
		return &residualStrategy{}, nil
	default:
		return nil, ierr.NewError("no strategy implementation").
			WithHintf("Strategy %s cannot be executed directly", name).
			Mark(ierr.ErrInvalidOperation)
	}
}

// relativeSspStrategy allocates proportionally to ssp x qty weights
type relativeSspStrategy struct{}

func (s *relativeSspStrategy) Name() types.AllocationStrategy {
	return types.AllocationStrategyRelativeSsp
}

func (s *relativeSspStrategy) Allocate(input StrategyInput) (*Result, error) {
	denominator := decimal.Zero
	extended := make([]decimal.Decimal, len(input.Lines))
	for i, line := range input.Lines {
		if line.Ssp == nil {
			return nil, ierr.NewError("line has no resolved ssp").
				WithHintf("Product %s has no standalone selling price for relative allocation", line.ProductID).
				WithReportableDetails(map[string]any{
					"line_id":    line.LineID,
					"product_id": line.ProductID,
				}).
				Mark(ierr.ErrUnresolvedPricing)
		}
		extended[i] = line.Ssp.Mul(line.Qty)
		denominator = denominator.Add(extended[i])
	}

	if denominator.IsZero() {
		return nil, ierr.NewError("sum of ssp weights is zero").
			WithHint("All lines have zero ssp x qty; relative allocation is undefined").
			Mark(ierr.ErrUnresolvedPricing)
	}

	result := &Result{
		Strategy: s.Name(),
		Lines:    make(LineAllocations, len(input.Lines)),
	}

	allocated := decimal.Zero
	for i, line := range input.Lines {
		weight := extended[i].Div(denominator)
		amount := Round(weight.Mul(input.Total), input.Precision, input.Rounding)
		allocated = allocated.Add(amount)
		result.Lines[i] = LineAllocation{
			LineID:    line.LineID,
			ProductID: line.ProductID,
			Ssp:       line.Ssp,
			Weight:    &weight,
			Amount:    amount,
		}
	}

	// Independent rounding can leave a few minor units of residual. Assign it
	// entirely to the largest line (tie: lowest index) so the bias stays
	// concentrated and auditable.
	residual := input.Total.Sub(allocated)
	if !residual.IsZero() {
		largest := 0
		for i := 1; i < len(result.Lines); i++ {
			if result.Lines[i].Amount.GreaterThan(result.Lines[largest].Amount) {
				largest = i
			}
		}
		result.Lines[largest].Amount = result.Lines[largest].Amount.Add(residual)
		result.RoundingAdjustment = residual
	}

	result.TotalAllocated = input.Total
	return result, nil
}

// residualStrategy allocates priced lines at their own ssp x qty and assigns
// the remaining contract value to the residual-eligible lines
type residualStrategy struct{}

func (s *residualStrategy) Name() types.AllocationStrategy {
	return types.AllocationStrategyResidual
}

func (s *residualStrategy) Allocate(input StrategyInput) (*Result, error) {
	result := &Result{
		Strategy: s.Name(),
		Lines:    make(LineAllocations, len(input.Lines)),
	}

	// Residual-eligible lines absorb the remainder even when they carry an
	// ssp of their own; everything else is priced at ssp x qty. Lines with
	// neither are allocated zero and flagged for review.
	pricedTotal := decimal.Zero
	var eligible []int
	for i, line := range input.Lines {
		result.Lines[i] = LineAllocation{
			LineID:    line.LineID,
			ProductID: line.ProductID,
			Ssp:       line.Ssp,
			Amount:    decimal.Zero,
		}
		switch {
		case line.ResidualEligible:
			eligible = append(eligible, i)
		case line.Ssp != nil:
			amount := Round(line.Ssp.Mul(line.Qty), input.Precision, input.Rounding)
			result.Lines[i].Amount = amount
			pricedTotal = pricedTotal.Add(amount)
		default:
			result.Flagged = true
			result.FlagReason = "line without ssp or residual eligibility allocated zero"
		}
	}

	if len(eligible) == 0 {
		return nil, ierr.NewError("no residual-eligible line on invoice").
			WithHint("Residual allocation requires at least one residual-eligible line").
			Mark(ierr.ErrUnresolvedPricing)
	}

	remainder := input.Total.Sub(pricedTotal)
	if remainder.IsNegative() {
		// Priced lines alone exceed the invoice total, e.g. aggressive bundle
		// discounting. Eligible lines are clipped to zero and the audit is
		// flagged; the sum-to-total invariant is knowingly broken here and
		// the gap recorded as the rounding adjustment.
		result.Flagged = true
		result.FlagReason = "negative residual: priced lines exceed invoice total"
		result.TotalAllocated = pricedTotal
		result.RoundingAdjustment = remainder
		return result, nil
	}

	// Distribute the remainder proportionally to the listed (pre-discount)
	// amounts; equal split when the listed amounts are all zero.
	listedTotal := decimal.Zero
	for _, i := range eligible {
		listedTotal = listedTotal.Add(input.Lines[i].ListedAmount)
	}

	distributed := decimal.Zero
	for _, i := range eligible {
		var share decimal.Decimal
		if listedTotal.IsPositive() {
			share = input.Lines[i].ListedAmount.Div(listedTotal)
		} else {
			share = decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(eligible))))
		}
		amount := Round(remainder.Mul(share), input.Precision, input.Rounding)
		result.Lines[i].Amount = amount
		distributed = distributed.Add(amount)
	}

	// Same largest-line residual correction as relative allocation, applied
	// within the eligible set.
	residual := remainder.Sub(distributed)
	if !residual.IsZero() {
		largest := eligible[0]
		for _, i := range eligible[1:] {
			if result.Lines[i].Amount.GreaterThan(result.Lines[largest].Amount) {
				largest = i
			}
		}
		result.Lines[largest].Amount = result.Lines[largest].Amount.Add(residual)
		result.RoundingAdjustment = residual
	}

	result.TotalAllocated = input.Total
	return result, nil
}
