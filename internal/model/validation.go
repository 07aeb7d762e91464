package model

// IssueCategories groups validation findings by the kind of rule that
// produced them.
type IssueCategories struct {
	RequiredFields []string
	DataFormat     []string
	BusinessLogic  []string
}

// ValidationReport is the immutable outcome of running the validation
// engine against one extraction result.
type ValidationReport struct {
	Errors            []string
	Warnings          []string
	Categories        IssueCategories
	CompletenessScore float64
	IsValid           bool
}

// TotalIssues returns the combined error and warning count.
func (v ValidationReport) TotalIssues() int {
	return len(v.Errors) + len(v.Warnings)
}
