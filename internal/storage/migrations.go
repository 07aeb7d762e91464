package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

// invoiceTableSchema is shared by the production and OCR test tables.
const invoiceTableSchema = `(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name TEXT NOT NULL,
	storage_id TEXT,
	storage_url TEXT,
	issuer TEXT,
	payer TEXT,
	invoice_number TEXT,
	registration_number TEXT,
	currency TEXT,
	amount_inclusive_tax TEXT,
	amount_exclusive_tax TEXT,
	issue_date TEXT,
	due_date TEXT,
	key_info TEXT,
	validation_errors TEXT,
	validation_warnings TEXT,
	completeness_score REAL DEFAULT 0,
	is_valid BOOLEAN DEFAULT 0,
	exchange_rate REAL,
	jpy_amount REAL,
	conversion_status TEXT,
	conversion_source TEXT,
	approval_status TEXT,
	required_tier TEXT,
	approver TEXT,
	approval_reason TEXT,
	export_ready BOOLEAN DEFAULT 0,
	export_batch_id TEXT,
	export_category TEXT,
	account_code TEXT,
	account_name TEXT,
	error_message TEXT,
	processing_time REAL DEFAULT 0,
	success BOOLEAN DEFAULT 0,
	created_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

const lineItemTableSchema = `(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_id INTEGER NOT NULL,
	line_no INTEGER NOT NULL,
	description TEXT,
	quantity TEXT,
	unit_price TEXT,
	amount TEXT,
	tax_rate TEXT
)`

var migrations = []Migration{
	{
		Version:     1,
		Description: "Invoice and line item tables",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS invoices ` + invoiceTableSchema,
				`CREATE TABLE IF NOT EXISTS invoice_line_items ` + lineItemTableSchema,
				`CREATE INDEX idx_invoices_issuer ON invoices(issuer)`,
				`CREATE INDEX idx_invoices_created_by ON invoices(created_by)`,
				`CREATE INDEX idx_invoice_line_items_invoice_id ON invoice_line_items(invoice_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "OCR accuracy test tables",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS ocr_test_results ` + invoiceTableSchema,
				`CREATE TABLE IF NOT EXISTS ocr_test_line_items ` + lineItemTableSchema,
				`CREATE INDEX idx_ocr_test_line_items_invoice_id ON ocr_test_line_items(invoice_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
