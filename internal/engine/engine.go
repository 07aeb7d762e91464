// Package engine orchestrates the invoice processing pipeline: upload,
// AI extraction, validation, currency conversion, approval routing,
// export staging, and persistence.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/common"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/extract"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/service"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/validation"
)

// Converter annotates an invoice with its JPY conversion outcome.
type Converter interface {
	Convert(ctx context.Context, result model.ExtractionResult) model.ConversionAnnotation
}

// ApprovalEvaluator decides the approval routing for an invoice.
type ApprovalEvaluator interface {
	Evaluate(result model.ExtractionResult, conversion *model.ConversionAnnotation) model.ApprovalAnnotation
}

// ExportPreparer decides the export staging for an invoice.
type ExportPreparer interface {
	Prepare(result model.ExtractionResult, approval *model.ApprovalAnnotation) model.ExportAnnotation
}

// Engine drives documents through the processing pipeline.
type Engine struct {
	objects   service.ObjectStore
	extractor service.Extractor
	invoices  service.InvoiceStore
	converter Converter
	evaluator ApprovalEvaluator
	preparer  ExportPreparer
	logger    *slog.Logger

	retryOpts  service.RetryOptions
	strictMode bool

	mu        sync.Mutex
	callbacks []func(model.ProgressEvent)
	history   []model.ProgressEvent
}

// Config holds configuration options for the engine.
type Config struct {
	RetryOptions service.RetryOptions
	StrictMode   bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		RetryOptions: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// New creates an engine with the given collaborators and the default
// configuration.
func New(objects service.ObjectStore, extractor service.Extractor, invoices service.InvoiceStore, converter Converter, evaluator ApprovalEvaluator, preparer ExportPreparer, logger *slog.Logger) (*Engine, error) {
	return NewWithConfig(objects, extractor, invoices, converter, evaluator, preparer, logger, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(objects service.ObjectStore, extractor service.Extractor, invoices service.InvoiceStore, converter Converter, evaluator ApprovalEvaluator, preparer ExportPreparer, logger *slog.Logger, config Config) (*Engine, error) {
	switch {
	case objects == nil:
		return nil, fmt.Errorf("object store is required")
	case extractor == nil:
		return nil, fmt.Errorf("extractor is required")
	case invoices == nil:
		return nil, fmt.Errorf("invoice store is required")
	case converter == nil:
		return nil, fmt.Errorf("converter is required")
	case evaluator == nil:
		return nil, fmt.Errorf("approval evaluator is required")
	case preparer == nil:
		return nil, fmt.Errorf("export preparer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		objects:    objects,
		extractor:  extractor,
		invoices:   invoices,
		converter:  converter,
		evaluator:  evaluator,
		preparer:   preparer,
		logger:     logger,
		retryOpts:  config.RetryOptions,
		strictMode: config.StrictMode,
	}, nil
}

// OnProgress registers a callback invoked for every progress event.
// Callbacks must be registered before processing starts.
func (e *Engine) OnProgress(fn func(model.ProgressEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks = append(e.callbacks, fn)
}

// ProgressHistory returns a copy of the events emitted so far.
func (e *Engine) ProgressHistory() []model.ProgressEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	history := make([]model.ProgressEvent, len(e.history))
	copy(history, e.history)
	return history
}

// ResetProgress clears the event history.
func (e *Engine) ResetProgress() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}

// ProcessSingle runs one document through the pipeline. The error return
// is reserved for setup problems; per-document failures come back as a
// record with Success=false.
func (e *Engine) ProcessSingle(ctx context.Context, doc model.Document, userID string, mode model.Mode) (model.ProcessingRecord, error) {
	targets, ok := mode.Targets()
	if !ok {
		return model.ProcessingRecord{}, fmt.Errorf("%w: %q", common.ErrUnknownMode, mode)
	}

	return e.processDocument(ctx, doc, userID, mode, targets), nil
}

// ProcessBatch runs documents through the pipeline sequentially. One
// failing document never aborts the batch; its record carries the error.
func (e *Engine) ProcessBatch(ctx context.Context, docs []model.Document, userID string, mode model.Mode) (model.BatchResult, error) {
	targets, ok := mode.Targets()
	if !ok {
		return model.BatchResult{}, fmt.Errorf("%w: %q", common.ErrUnknownMode, mode)
	}
	if len(docs) == 0 {
		return model.BatchResult{}, common.ErrNoDocuments
	}

	start := time.Now()
	result := model.BatchResult{
		Mode:    mode,
		Results: make([]model.ProcessingRecord, 0, len(docs)),
	}

	e.logger.Info("starting batch",
		"documents", len(docs),
		"mode", mode,
		"user_id", userID)

	for i, doc := range docs {
		select {
		case <-ctx.Done():
			// Remaining documents become failed records so the batch
			// stays accountable for every input.
			for _, rest := range docs[i:] {
				result.Results = append(result.Results, model.ProcessingRecord{
					Filename:     rest.Filename,
					Mode:         mode,
					ErrorMessage: ctx.Err().Error(),
				})
			}
			result.Tally()
			result.Elapsed = time.Since(start)
			return result, nil
		default:
		}

		record := e.processDocument(ctx, doc, userID, mode, targets)
		result.Results = append(result.Results, record)
	}

	result.Tally()
	result.Elapsed = time.Since(start)

	e.logger.Info("batch complete",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"elapsed", result.Elapsed)
	return result, nil
}

// processDocument runs the full stage chain for one document.
func (e *Engine) processDocument(ctx context.Context, doc model.Document, userID string, mode model.Mode, targets model.TargetSet) model.ProcessingRecord {
	start := time.Now()
	record := model.ProcessingRecord{
		Filename: doc.Filename,
		Mode:     mode,
	}

	fail := func(stage model.Stage, err error) model.ProcessingRecord {
		stageErr := common.NewStageError(stage, err)
		record.ErrorMessage = stageErr.Error()
		record.Elapsed = time.Since(start)
		e.emit(model.StageFailed, 0, fmt.Sprintf("processing failed: %v", stageErr), map[string]any{
			"filename": doc.Filename,
			"stage":    string(stage),
		})
		e.logger.Error("document processing failed",
			"filename", doc.Filename,
			"stage", stage,
			"error", err)
		return record
	}

	// Upload
	e.emit(model.StageUpload, 10, "uploading document", map[string]any{"filename": doc.Filename})
	stored, err := e.objects.Upload(ctx, doc.Content, doc.Filename)
	if err != nil {
		return fail(model.StageUpload, err)
	}
	record.StorageID = stored.ID
	record.StorageURL = stored.URL
	e.emit(model.StageUpload, 30, "upload complete", map[string]any{"storage_id": stored.ID})

	// Extraction
	e.emit(model.StageExtraction, 40, "extracting invoice data", nil)
	extracted, err := e.extract(ctx, doc.Content, targets.PromptVariant)
	if err != nil {
		return fail(model.StageExtraction, err)
	}
	e.emit(model.StageExtraction, 70, "extraction complete", map[string]any{"issuer": extracted.Issuer})

	// Validation
	e.emit(model.StageValidation, 75, "validating extracted data", nil)
	normalized, report := validation.Validate(extracted, e.strictMode)
	record.Extraction = &normalized
	record.Validation = &report

	// Conversion
	e.emit(model.StageConversion, 80, "converting currency", nil)
	conversion := e.converter.Convert(ctx, normalized)
	record.Conversion = &conversion

	// Approval
	e.emit(model.StageApproval, 85, "evaluating approval requirements", nil)
	approvalResult := e.evaluator.Evaluate(normalized, &conversion)
	record.Approval = &approvalResult

	// Export
	e.emit(model.StageExport, 90, "preparing export staging", nil)
	exportResult := e.preparer.Prepare(normalized, &approvalResult)
	record.Export = &exportResult

	// Persistence
	e.emit(model.StagePersistence, 90, "saving invoice record", nil)
	invoiceID, err := e.persist(ctx, targets, userID, stored, doc, normalized, report, record, time.Since(start))
	if err != nil {
		return fail(model.StagePersistence, err)
	}
	record.InvoiceID = invoiceID
	record.Success = true
	record.Elapsed = time.Since(start)

	e.emit(model.StageCompleted, 100, fmt.Sprintf("processing complete (ID: %d)", invoiceID), map[string]any{
		"invoice_id":      invoiceID,
		"processing_time": record.Elapsed.Seconds(),
	})
	return record
}

// extract calls the AI collaborator under the retry policy: content
// errors abort, rate limits and transient failures retry.
func (e *Engine) extract(ctx context.Context, content []byte, variant model.PromptVariant) (model.ExtractionResult, error) {
	var result model.ExtractionResult
	err := common.WithRetry(ctx, func() error {
		extracted, extractErr := e.extractor.Extract(ctx, content, variant)
		if extractErr != nil {
			if extract.IsContentError(extractErr) {
				return &common.RetryableError{Err: extractErr, Retryable: false}
			}
			return extractErr
		}
		result = extracted
		return nil
	}, e.retryOpts)
	return result, err
}

func (e *Engine) persist(ctx context.Context, targets model.TargetSet, userID string, stored service.StoredObject, doc model.Document, extracted model.ExtractionResult, report model.ValidationReport, record model.ProcessingRecord, elapsed time.Duration) (int64, error) {
	row := service.InvoiceRow{
		UserID:         userID,
		Filename:       doc.Filename,
		StorageID:      stored.ID,
		StorageURL:     stored.URL,
		Extraction:     extracted,
		Validation:     report,
		Conversion:     record.Conversion,
		Approval:       record.Approval,
		Export:         record.Export,
		ProcessingTime: elapsed,
		Success:        true,
	}

	invoiceID, err := e.invoices.InsertInvoice(ctx, targets.InvoiceTable, row)
	if err != nil {
		return 0, err
	}

	if err := e.invoices.InsertLineItems(ctx, targets.LineItemTable, invoiceID, extracted.LineItems); err != nil {
		return 0, err
	}
	return invoiceID, nil
}

// emit records a progress event and notifies subscribers.
func (e *Engine) emit(stage model.Stage, percent int, message string, details map[string]any) {
	event := model.ProgressEvent{
		Timestamp: time.Now(),
		Stage:     stage,
		Percent:   percent,
		Message:   message,
		Details:   details,
	}

	e.mu.Lock()
	e.history = append(e.history, event)
	callbacks := make([]func(model.ProgressEvent), len(e.callbacks))
	copy(callbacks, e.callbacks)
	e.mu.Unlock()

	for _, fn := range callbacks {
		fn(event)
	}
}
