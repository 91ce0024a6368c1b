package types

// ComplianceSeverity grades advisory findings for the review queue
type ComplianceSeverity string

const (
	ComplianceSeverityHigh   ComplianceSeverity = "HIGH"
	ComplianceSeverityMedium ComplianceSeverity = "MEDIUM"
	ComplianceSeverityLow    ComplianceSeverity = "LOW"
)

// ComplianceIssueCode identifies the class of a policy compliance finding
type ComplianceIssueCode string

const (
	// ComplianceIssueMissingSsp flags products that are actively billed but have
	// no catalog entry at all
	ComplianceIssueMissingSsp ComplianceIssueCode = "MISSING_SSP"
	// ComplianceIssueStaleDrafts flags DRAFT entries older than the staleness window
	ComplianceIssueStaleDrafts ComplianceIssueCode = "STALE_DRAFTS"
	// ComplianceIssueCorridorBreach flags approved entries outside the alert corridor
	ComplianceIssueCorridorBreach ComplianceIssueCode = "CORRIDOR_BREACH"
)
