package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/service"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRow() service.InvoiceRow {
	rate := 150.0
	jpy := 450000.0
	return service.InvoiceRow{
		UserID:     "user-1",
		Filename:   "invoice-001.pdf",
		StorageID:  "docs/invoice-001.pdf",
		StorageURL: "gs://bucket/docs/invoice-001.pdf",
		Extraction: model.ExtractionResult{
			Issuer:             "Acme Cloud Inc",
			Payer:              "株式会社トモノカイ",
			InvoiceNumber:      "INV-001",
			RegistrationNumber: "T1234567890123",
			Currency:           "USD",
			AmountInclusiveTax: "3000",
			AmountExclusiveTax: "3000",
			IssueDate:          "2026-08-01",
			DueDate:            "2026-08-31",
			KeyInfo:            map[string]string{"件名": "クラウド利用料"},
			LineItems: []model.LineItem{
				{Description: "Compute", Quantity: "1", UnitPrice: "2000", Amount: "2000"},
				{Description: "Storage", Quantity: "1", UnitPrice: "1000", Amount: "1000"},
			},
		},
		Validation: model.ValidationReport{
			IsValid:           true,
			CompletenessScore: 90,
			Warnings:          []string{"foreign-currency invoice requires exchange-rate review (USD)"},
		},
		Conversion: &model.ConversionAnnotation{
			Status:       model.ConversionConverted,
			ExchangeRate: &rate,
			JPYAmount:    &jpy,
			Source:       "exchange_rate_api",
			ConvertedAt:  time.Now(),
		},
		Approval: &model.ApprovalAnnotation{
			Status:       model.ApprovalPending,
			RequiredTier: model.TierManager,
			Approver:     "manager@company.com",
			Reason:       "amount meets manager threshold of 300000",
		},
		ProcessingTime: 2500 * time.Millisecond,
		Success:        true,
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.Migrate(context.Background()))
}

func TestInsertInvoice_RoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.InsertInvoice(ctx, "invoices", sampleRow())
	require.NoError(t, err)
	require.Positive(t, id)

	stored, err := store.GetInvoice(ctx, "invoices", id)
	require.NoError(t, err)

	assert.Equal(t, "invoice-001.pdf", stored.Filename)
	assert.Equal(t, "Acme Cloud Inc", stored.Issuer)
	assert.Equal(t, "USD", stored.Currency)
	assert.InDelta(t, 90.0, stored.CompletenessScore, 0.001)
	assert.True(t, stored.IsValid)
	assert.Equal(t, "pending", stored.ApprovalStatus)
	assert.True(t, stored.Success)
	assert.Equal(t, "user-1", stored.CreatedBy)
}

func TestInsertInvoice_TestTableIsSeparate(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.InsertInvoice(ctx, "ocr_test_results", sampleRow())
	require.NoError(t, err)

	_, err = store.GetInvoice(ctx, "invoices", id)
	assert.Error(t, err, "test runs must not appear in the production table")

	stored, err := store.GetInvoice(ctx, "ocr_test_results", id)
	require.NoError(t, err)
	assert.Equal(t, "invoice-001.pdf", stored.Filename)
}

func TestInsertInvoice_RejectsUnknownTable(t *testing.T) {
	store := testStore(t)

	_, err := store.InsertInvoice(context.Background(), "users; DROP TABLE invoices", sampleRow())
	assert.Error(t, err)
}

func TestInsertInvoice_FailedRecord(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	row := service.InvoiceRow{
		UserID:       "user-1",
		Filename:     "broken.pdf",
		ErrorMessage: "unprocessable document (document has no readable pages)",
	}

	id, err := store.InsertInvoice(ctx, "invoices", row)
	require.NoError(t, err)

	stored, err := store.GetInvoice(ctx, "invoices", id)
	require.NoError(t, err)
	assert.False(t, stored.Success)
	assert.Empty(t, stored.Issuer)
}

func TestInsertLineItems(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	row := sampleRow()
	id, err := store.InsertInvoice(ctx, "invoices", row)
	require.NoError(t, err)

	err = store.InsertLineItems(ctx, "invoice_line_items", id, row.Extraction.LineItems)
	require.NoError(t, err)

	count, err := store.CountLineItems(ctx, "invoice_line_items", id)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertLineItems_EmptySliceIsNoOp(t *testing.T) {
	store := testStore(t)

	err := store.InsertLineItems(context.Background(), "invoice_line_items", 1, nil)
	assert.NoError(t, err)
}

func TestInsertLineItems_RejectsUnknownTable(t *testing.T) {
	store := testStore(t)

	err := store.InsertLineItems(context.Background(), "invoices", 1, []model.LineItem{{}})
	assert.Error(t, err, "invoice tables are not valid line item targets")
}

func TestNewSQLiteStore_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}
