package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/domain/allocation"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	"github.com/vidinfra/revalloc/internal/domain/discount"
	"github.com/vidinfra/revalloc/internal/domain/policy"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// AllocationService defines the interface for allocation runs
type AllocationService interface {
	// Allocate runs one allocation for an (invoice, run) pair. The pair is
	// idempotency-keyed: a second invocation returns a conflict, never a
	// second audit.
	Allocate(ctx context.Context, req dto.AllocateRequest) (*dto.AllocationResponse, error)
	GetAudit(ctx context.Context, invoiceID, runID string) (*dto.AllocationAuditResponse, error)
	ListAudits(ctx context.Context, invoiceID string) ([]*dto.AllocationAuditResponse, error)
}

type allocationService struct {
	ServiceParams
	bundleSvc   BundleService
	discountSvc DiscountService
}

// NewAllocationService creates a new allocation service
func NewAllocationService(params ServiceParams, bundleSvc BundleService, discountSvc DiscountService) AllocationService {
	return &allocationService{
		ServiceParams: params,
		bundleSvc:     bundleSvc,
		discountSvc:   discountSvc,
	}
}

func (s *allocationService) Allocate(ctx context.Context, req dto.AllocateRequest) (*dto.AllocationResponse, error) {
	started := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	invoice := req.Invoice

	// Early duplicate check keeps the common repeat cheap; the unique index on
	// the audit table remains the authoritative guard under concurrency.
	exists, err := s.AuditRepo.ExistsAudit(ctx, invoice.ID, req.RunID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ierr.NewError("invoice already allocated in this run").
			WithHintf("Invoice %s was already allocated in run %s", invoice.ID, req.RunID).
			WithReportableDetails(map[string]any{
				"invoice_id": invoice.ID,
				"run_id":     req.RunID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	pol, err := s.PolicyRepo.GetByTenant(ctx)
	if err != nil {
		return nil, err
	}

	lines, err := s.bundleSvc.ExpandInvoiceLines(ctx, invoice.Lines, invoice.InvoiceDate)
	if err != nil {
		return nil, err
	}

	productIDs := lo.Uniq(lo.Map(lines, func(l allocation.InvoiceLine, _ int) string {
		return l.ProductID
	}))
	entriesByProduct, err := s.CatalogRepo.ListByProducts(ctx, productIDs, invoice.Currency)
	if err != nil {
		return nil, err
	}

	strategy := req.Strategy
	if strategy == types.AllocationStrategyAuto {
		strategy = DetermineAllocationStrategy(pol, lines, entriesByProduct, invoice.InvoiceDate)
	}

	outcome, err := s.discountSvc.ApplyDiscountRules(ctx, invoice.ID, invoice.TotalAmount, invoice.InvoiceDate)
	if err != nil {
		return nil, err
	}
	allocatable := invoice.TotalAmount.Sub(outcome.TotalDiscount)

	input := allocation.StrategyInput{
		Total:     allocatable,
		Precision: types.GetCurrencyPrecision(invoice.Currency),
		Rounding:  pol.Rounding,
		Lines:     s.priceLines(pol, lines, entriesByProduct, invoice.InvoiceDate, strategy),
	}

	impl, err := allocation.NewStrategy(strategy)
	if err != nil {
		return nil, err
	}
	result, err := impl.Allocate(input)
	if err != nil {
		return nil, err
	}

	audit := &allocation.Audit{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALLOCATION_AUDIT),
		InvoiceID:          invoice.ID,
		RunID:              req.RunID,
		Strategy:           strategy,
		Method:             pol.DefaultMethod,
		Inputs:             invoice,
		Results:            result.Lines,
		CorridorFlag:       result.Flagged,
		FlagReason:         result.FlagReason,
		TotalInvoiceAmount: invoice.TotalAmount,
		TotalDiscount:      outcome.TotalDiscount,
		TotalAllocated:     result.TotalAllocated,
		RoundingAdjustment: result.RoundingAdjustment,
		ProcessingTimeMs:   time.Since(started).Milliseconds(),
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}

	// The audit and the discount application log commit or roll back together
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.AuditRepo.CreateAudit(ctx, audit); err != nil {
			return err
		}
		for _, applied := range outcome.Applied {
			if err := s.AppliedRepo.Create(ctx, applied); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("completed allocation",
		"audit_id", audit.ID,
		"invoice_id", invoice.ID,
		"run_id", req.RunID,
		"strategy", strategy,
		"total_allocated", result.TotalAllocated,
		"flagged", result.Flagged,
		"processing_time_ms", audit.ProcessingTimeMs,
	)

	return &dto.AllocationResponse{
		AuditID:            audit.ID,
		InvoiceID:          invoice.ID,
		RunID:              req.RunID,
		Strategy:           strategy,
		Lines:              result.Lines,
		TotalInvoiceAmount: invoice.TotalAmount,
		TotalDiscount:      outcome.TotalDiscount,
		TotalAllocated:     result.TotalAllocated,
		RoundingAdjustment: result.RoundingAdjustment,
		CorridorFlag:       result.Flagged,
		FlagReason:         result.FlagReason,
		AppliedDiscounts: lo.Map(outcome.Applied, func(a *discount.Applied, _ int) *dto.DiscountAppliedResponse {
			return &dto.DiscountAppliedResponse{Applied: a}
		}),
	}, nil
}

func (s *allocationService) GetAudit(ctx context.Context, invoiceID, runID string) (*dto.AllocationAuditResponse, error) {
	audit, err := s.AuditRepo.GetAudit(ctx, invoiceID, runID)
	if err != nil {
		return nil, err
	}
	return &dto.AllocationAuditResponse{Audit: audit}, nil
}

func (s *allocationService) ListAudits(ctx context.Context, invoiceID string) ([]*dto.AllocationAuditResponse, error) {
	audits, err := s.AuditRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return lo.Map(audits, func(a *allocation.Audit, _ int) *dto.AllocationAuditResponse {
		return &dto.AllocationAuditResponse{Audit: a}
	}), nil
}

// DetermineAllocationStrategy resolves AUTO: relative allocation when every
// line has an approved effective SSP, residual when the policy allows it and at
// least one line is residual-eligible; relative otherwise so the unresolved
// pricing surfaces as an explicit error instead of a silent fallback.
func DetermineAllocationStrategy(
	pol *policy.Policy,
	lines []allocation.InvoiceLine,
	entriesByProduct map[string][]*catalog.Entry,
	asOf time.Time,
) types.AllocationStrategy {
	allApproved := true
	for _, line := range lines {
		if catalog.EffectiveEntry(entriesByProduct[line.ProductID], asOf) == nil {
			allApproved = false
			break
		}
	}
	if allApproved {
		return types.AllocationStrategyRelativeSsp
	}

	if pol.ResidualAllowed {
		for _, line := range lines {
			if pol.IsResidualEligible(line.ProductID) {
				return types.AllocationStrategyResidual
			}
		}
	}
	return types.AllocationStrategyRelativeSsp
}

// priceLines joins expanded invoice lines with their resolved catalog prices.
// Relative allocation only ever sees APPROVED prices; residual allocation may
// fall back to the best non-approved entry for its directly priced lines.
func (s *allocationService) priceLines(
	pol *policy.Policy,
	lines []allocation.InvoiceLine,
	entriesByProduct map[string][]*catalog.Entry,
	asOf time.Time,
	strategy types.AllocationStrategy,
) []allocation.PricedLine {
	priced := make([]allocation.PricedLine, len(lines))
	for i, line := range lines {
		entries := entriesByProduct[line.ProductID]
		var entry *catalog.Entry
		if strategy == types.AllocationStrategyResidual {
			entry = catalog.ResolvableEntry(entries, asOf)
		} else {
			entry = catalog.EffectiveEntry(entries, asOf)
		}

		priced[i] = allocation.PricedLine{
			LineID:           line.ID,
			ProductID:        line.ProductID,
			Qty:              line.Qty,
			ListedAmount:     line.Amount,
			ResidualEligible: pol.ResidualAllowed && pol.IsResidualEligible(line.ProductID),
		}
		if entry != nil {
			ssp := entry.Ssp
			priced[i].Ssp = &ssp
		}
	}
	return priced
}
