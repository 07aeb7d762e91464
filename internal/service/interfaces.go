// Package service defines the interfaces for the pipeline's external
// collaborators.
package service

import (
	"context"
	"time"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// Extractor is the AI extraction collaborator. Implementations classify
// their failures: rate-limit errors are retryable, content errors are not.
type Extractor interface {
	Extract(ctx context.Context, content []byte, variant model.PromptVariant) (model.ExtractionResult, error)
}

// StoredObject identifies an uploaded document in object storage.
type StoredObject struct {
	ID  string
	URL string
}

// ObjectStore is the object-storage collaborator.
type ObjectStore interface {
	Upload(ctx context.Context, content []byte, filename string) (StoredObject, error)
	Download(ctx context.Context, id string) ([]byte, error)
}

// InvoiceRow is the flattened shape the persistence collaborator accepts.
type InvoiceRow struct {
	Conversion     *model.ConversionAnnotation
	Approval       *model.ApprovalAnnotation
	Export         *model.ExportAnnotation
	UserID         string
	Filename       string
	StorageID      string
	StorageURL     string
	ErrorMessage   string
	Extraction     model.ExtractionResult
	Validation     model.ValidationReport
	ProcessingTime time.Duration
	Success        bool
}

// InvoiceStore is the relational persistence collaborator. The target
// tables are chosen by the caller from the mode mapping.
type InvoiceStore interface {
	InsertInvoice(ctx context.Context, table string, row InvoiceRow) (int64, error)
	InsertLineItems(ctx context.Context, table string, invoiceID int64, items []model.LineItem) error
	Close() error
}

// RateSource resolves an exchange rate between two currencies. A nil rate
// with a nil error means the source has no rate for the pair.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (*float64, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
