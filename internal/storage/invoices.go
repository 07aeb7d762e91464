package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/service"
)

// invoiceTables whitelists valid invoice table targets. The line item
// table mapping mirrors the mode configuration.
var invoiceTables = map[string]bool{
	"invoices":         true,
	"ocr_test_results": true,
}

var lineItemTables = map[string]bool{
	"invoice_line_items":  true,
	"ocr_test_line_items": true,
}

// InsertInvoice persists one processed invoice and returns its row ID.
func (s *SQLiteStore) InsertInvoice(ctx context.Context, table string, row service.InvoiceRow) (int64, error) {
	if !invoiceTables[table] {
		return 0, fmt.Errorf("invalid invoice table: %s", table)
	}

	keyInfo, err := json.Marshal(row.Extraction.KeyInfo)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal key info: %w", err)
	}
	validationErrors, err := json.Marshal(row.Validation.Errors)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal validation errors: %w", err)
	}
	validationWarnings, err := json.Marshal(row.Validation.Warnings)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal validation warnings: %w", err)
	}

	var exchangeRate, jpyAmount any
	var conversionStatus, conversionSource string
	var approvalStatus, requiredTier, approver, approvalReason string
	var exportReady bool
	var exportBatchID, exportCategory, accountCode, accountName string
	if row.Conversion != nil {
		if row.Conversion.ExchangeRate != nil {
			exchangeRate = *row.Conversion.ExchangeRate
		}
		if row.Conversion.JPYAmount != nil {
			jpyAmount = *row.Conversion.JPYAmount
		}
		conversionStatus = string(row.Conversion.Status)
		conversionSource = row.Conversion.Source
	}
	if row.Approval != nil {
		approvalStatus = string(row.Approval.Status)
		requiredTier = string(row.Approval.RequiredTier)
		approver = row.Approval.Approver
		approvalReason = row.Approval.Reason
	}
	if row.Export != nil {
		exportReady = row.Export.Ready
		exportBatchID = row.Export.BatchID
		exportCategory = row.Export.Category
		accountCode = row.Export.AccountCode
		accountName = row.Export.AccountName
	}

	query := fmt.Sprintf(`INSERT INTO %s (
		file_name, storage_id, storage_url,
		issuer, payer, invoice_number, registration_number,
		currency, amount_inclusive_tax, amount_exclusive_tax,
		issue_date, due_date, key_info,
		validation_errors, validation_warnings, completeness_score, is_valid,
		exchange_rate, jpy_amount, conversion_status, conversion_source,
		approval_status, required_tier, approver, approval_reason,
		export_ready, export_batch_id, export_category, account_code, account_name,
		error_message, processing_time, success, created_by
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)

	result, err := s.db.ExecContext(ctx, query,
		row.Filename, row.StorageID, row.StorageURL,
		row.Extraction.Issuer, row.Extraction.Payer,
		row.Extraction.InvoiceNumber, row.Extraction.RegistrationNumber,
		row.Extraction.Currency,
		string(row.Extraction.AmountInclusiveTax), string(row.Extraction.AmountExclusiveTax),
		row.Extraction.IssueDate, row.Extraction.DueDate, string(keyInfo),
		string(validationErrors), string(validationWarnings),
		row.Validation.CompletenessScore, row.Validation.IsValid,
		exchangeRate, jpyAmount, conversionStatus, conversionSource,
		approvalStatus, requiredTier, approver, approvalReason,
		exportReady, exportBatchID, exportCategory, accountCode, accountName,
		row.ErrorMessage, row.ProcessingTime.Seconds(), row.Success, row.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted invoice ID: %w", err)
	}
	return id, nil
}

// InsertLineItems persists the line items of one invoice.
func (s *SQLiteStore) InsertLineItems(ctx context.Context, table string, invoiceID int64, items []model.LineItem) error {
	if !lineItemTables[table] {
		return fmt.Errorf("invalid line item table: %s", table)
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (
		invoice_id, line_no, description, quantity, unit_price, amount, tax_rate
	) VALUES (?, ?, ?, ?, ?, ?, ?)`, table)

	for i, item := range items {
		_, err := tx.ExecContext(ctx, query,
			invoiceID, i+1, item.Description,
			string(item.Quantity), string(item.UnitPrice),
			string(item.Amount), string(item.TaxRate),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert line item %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit line items: %w", err)
	}
	return nil
}

// StoredInvoice is a persisted invoice row read back from the database.
type StoredInvoice struct {
	ID                int64
	Filename          string
	Issuer            string
	Currency          string
	CompletenessScore float64
	IsValid           bool
	ApprovalStatus    string
	ExportBatchID     string
	Success           bool
	CreatedBy         string
}

// GetInvoice reads back one persisted invoice.
func (s *SQLiteStore) GetInvoice(ctx context.Context, table string, id int64) (*StoredInvoice, error) {
	if !invoiceTables[table] {
		return nil, fmt.Errorf("invalid invoice table: %s", table)
	}

	query := fmt.Sprintf(`SELECT id, file_name, issuer, currency,
		completeness_score, is_valid, approval_status, export_batch_id,
		success, created_by
	FROM %s WHERE id = ?`, table)

	var inv StoredInvoice
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.Filename, &inv.Issuer, &inv.Currency,
		&inv.CompletenessScore, &inv.IsValid, &inv.ApprovalStatus,
		&inv.ExportBatchID, &inv.Success, &inv.CreatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice %d not found in %s", id, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}

// CountLineItems returns the number of line items stored for an invoice.
func (s *SQLiteStore) CountLineItems(ctx context.Context, table string, invoiceID int64) (int, error) {
	if !lineItemTables[table] {
		return 0, fmt.Errorf("invalid line item table: %s", table)
	}

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE invoice_id = ?`, table)
	if err := s.db.QueryRowContext(ctx, query, invoiceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count line items: %w", err)
	}
	return count, nil
}
