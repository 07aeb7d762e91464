package model

import "time"

// ProcessingRecord is the terminal, persistable aggregate for one document.
// A record with Success=false carries the error message and whatever stages
// completed before the failure.
type ProcessingRecord struct {
	Filename     string
	StorageID    string
	StorageURL   string
	Extraction   *ExtractionResult
	Validation   *ValidationReport
	Conversion   *ConversionAnnotation
	Approval     *ApprovalAnnotation
	Export       *ExportAnnotation
	ErrorMessage string
	Mode         Mode
	Elapsed      time.Duration
	InvoiceID    int64
	Success      bool
}

// BatchResult aggregates the outcome of a batch run. Results preserves the
// order of the input documents; counters are derived from Success flags.
type BatchResult struct {
	Results   []ProcessingRecord
	Mode      Mode
	Elapsed   time.Duration
	Total     int
	Succeeded int
	Failed    int
}

// Tally recomputes the derived counters from the result slice.
func (b *BatchResult) Tally() {
	b.Total = len(b.Results)
	b.Succeeded = 0
	for _, r := range b.Results {
		if r.Success {
			b.Succeeded++
		}
	}
	b.Failed = b.Total - b.Succeeded
}
