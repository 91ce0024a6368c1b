package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/vidinfra/revalloc/internal/api/dto"
	"github.com/vidinfra/revalloc/internal/domain/catalog"
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/vidinfra/revalloc/internal/types"
)

// ComplianceService defines the interface for the advisory compliance checks.
// Findings never block allocation; they feed the human review queue.
type ComplianceService interface {
	// CheckCorridorBreaches returns approved entries whose variance against
	// their peer-group median exceeds the policy alert threshold
	CheckCorridorBreaches(ctx context.Context) ([]*dto.CorridorBreachResponse, error)
	// GenerateSspStateSnapshot produces the point-in-time catalog integrity
	// artifact for audit retention
	GenerateSspStateSnapshot(ctx context.Context) (*dto.SspStateSnapshotResponse, error)
	// CheckSspPolicyCompliance scans for billed products without catalog
	// coverage and for stale drafts
	CheckSspPolicyCompliance(ctx context.Context) ([]*dto.ComplianceIssueResponse, error)
}

type complianceService struct {
	ServiceParams
}

// NewComplianceService creates a new compliance service
func NewComplianceService(params ServiceParams) ComplianceService {
	return &complianceService{
		ServiceParams: params,
	}
}

func (s *complianceService) CheckCorridorBreaches(ctx context.Context) ([]*dto.CorridorBreachResponse, error) {
	pol, err := s.PolicyRepo.GetByTenant(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.CatalogRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	breaches := make([]*dto.CorridorBreachResponse, 0)
	for _, group := range groupByPeer(entries) {
		median, ok := approvedMedian(group)
		if !ok || median.IsZero() {
			continue
		}
		for _, entry := range group {
			if entry.EntryStatus != types.SspEntryStatusApproved {
				continue
			}
			variance := entry.Ssp.Sub(median).Abs().Div(median)
			if variance.GreaterThan(pol.AlertThresholdPct) {
				breaches = append(breaches, &dto.CorridorBreachResponse{
					EntryID:     entry.ID,
					ProductID:   entry.ProductID,
					Currency:    entry.Currency,
					Ssp:         entry.Ssp,
					MedianSsp:   median,
					VariancePct: variance,
				})
			}
		}
	}

	if len(breaches) > 0 {
		s.Logger.Warnw("corridor breaches detected", "count", len(breaches))
	}
	return breaches, nil
}

func (s *complianceService) GenerateSspStateSnapshot(ctx context.Context) (*dto.SspStateSnapshotResponse, error) {
	entries, err := s.CatalogRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &dto.SspStateSnapshotResponse{
		GeneratedAt:  time.Now().UTC(),
		TotalEntries: len(entries),
		ByCurrency:   make(map[string]int),
		ByMethod:     make(map[string]int),
		ByStatus:     make(map[string]int),
	}
	for _, entry := range entries {
		snapshot.ByCurrency[entry.Currency]++
		snapshot.ByMethod[entry.Method.String()]++
		snapshot.ByStatus[entry.EntryStatus.String()]++
	}
	return snapshot, nil
}

func (s *complianceService) CheckSspPolicyCompliance(ctx context.Context) ([]*dto.ComplianceIssueResponse, error) {
	issues := make([]*dto.ComplianceIssueResponse, 0)

	entries, err := s.CatalogRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	covered := lo.SliceToMap(entries, func(e *catalog.Entry) (string, struct{}) {
		return e.ProductID, struct{}{}
	})

	// Billed-but-uncovered products mean revenue is being recognized without
	// a standalone selling price on file
	since := time.Now().UTC().AddDate(0, -3, 0)
	billed, err := s.AuditRepo.BilledProducts(ctx, since)
	if err != nil {
		return nil, err
	}
	for _, productID := range billed {
		if _, ok := covered[productID]; !ok {
			issues = append(issues, &dto.ComplianceIssueResponse{
				Code:      types.ComplianceIssueMissingSsp,
				Severity:  types.ComplianceSeverityMedium,
				ProductID: productID,
				Message:   fmt.Sprintf("product %s is billed but has no catalog entry", productID),
			})
		}
	}

	staleBefore := time.Now().UTC().AddDate(0, 0, -s.Config.Compliance.StaleDraftWindowDays)
	for _, entry := range entries {
		if entry.EntryStatus == types.SspEntryStatusDraft && entry.CreatedAt.Before(staleBefore) {
			issues = append(issues, &dto.ComplianceIssueResponse{
				Code:      types.ComplianceIssueStaleDrafts,
				Severity:  types.ComplianceSeverityLow,
				ProductID: entry.ProductID,
				EntryID:   entry.ID,
				Message: fmt.Sprintf("entry %s has been DRAFT since %s",
					entry.ID, entry.CreatedAt.Format(time.RFC3339)),
			})
		}
	}

	breaches, err := s.CheckCorridorBreaches(ctx)
	if err != nil {
		// A missing policy leaves no corridor to check; other failures abort
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}
	for _, breach := range breaches {
		issues = append(issues, &dto.ComplianceIssueResponse{
			Code:      types.ComplianceIssueCorridorBreach,
			Severity:  types.ComplianceSeverityLow,
			ProductID: breach.ProductID,
			EntryID:   breach.EntryID,
			Message: fmt.Sprintf("approved ssp %s deviates %s from peer median %s",
				breach.Ssp.String(), breach.VariancePct.String(), breach.MedianSsp.String()),
		})
	}

	return issues, nil
}

// groupByPeer partitions catalog entries into (product, currency) peer groups
func groupByPeer(entries []*catalog.Entry) map[string][]*catalog.Entry {
	groups := make(map[string][]*catalog.Entry)
	for _, entry := range entries {
		key := entry.ProductID + ":" + entry.Currency
		groups[key] = append(groups[key], entry)
	}
	return groups
}
