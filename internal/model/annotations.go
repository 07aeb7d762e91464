package model

import "time"

// ConversionStatus describes the outcome of the currency conversion stage.
type ConversionStatus string

// Conversion status constants. ConversionError marks unexpected internal
// failures; failed rate lookups report ConversionServiceUnavailable.
const (
	ConversionNotNeeded          ConversionStatus = "no_conversion_needed"
	ConversionConverted          ConversionStatus = "converted"
	ConversionSkippedNoAmount    ConversionStatus = "skipped_no_amount"
	ConversionServiceUnavailable ConversionStatus = "service_unavailable"
	ConversionError              ConversionStatus = "error"
)

// ConversionAnnotation records the exchange decision for one invoice.
type ConversionAnnotation struct {
	ConvertedAt  time.Time
	ExchangeRate *float64
	JPYAmount    *float64
	Source       string
	Status       ConversionStatus
}

// ApprovalStatus is a terminal approval state. AutoApproved and Approved
// are distinct states with the same downstream effect.
type ApprovalStatus string

// Approval status constants.
const (
	ApprovalAutoApproved ApprovalStatus = "auto_approved"
	ApprovalPending      ApprovalStatus = "pending"
	ApprovalApproved     ApprovalStatus = "approved"
	ApprovalRejected     ApprovalStatus = "rejected"
)

// Tier is an approval escalation level.
type Tier string

// Approval tiers, in ascending order of authority.
const (
	TierNone      Tier = ""
	TierManager   Tier = "manager"
	TierDirector  Tier = "director"
	TierPresident Tier = "president"
)

// tierRank orders tiers so the highest triggered tier wins.
var tierRank = map[Tier]int{
	TierNone:      0,
	TierManager:   1,
	TierDirector:  2,
	TierPresident: 3,
}

// Above reports whether t outranks other.
func (t Tier) Above(other Tier) bool {
	return tierRank[t] > tierRank[other]
}

// ApprovalAnnotation records the approval routing decision.
type ApprovalAnnotation struct {
	Status       ApprovalStatus
	RequiredTier Tier
	Approver     string
	Reason       string
	Note         string
}

// IsApproved reports whether the record may continue to export
// preparation.
func (a ApprovalAnnotation) IsApproved() bool {
	return a.Status == ApprovalAutoApproved || a.Status == ApprovalApproved
}

// ExportAnnotation records the export staging decision.
type ExportAnnotation struct {
	Ready       bool
	BatchID     string
	Category    string
	AccountCode string
	AccountName string
	Note        string
}
