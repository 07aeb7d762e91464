package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/service"
)

// MockObjectStore is a test implementation of the ObjectStore interface.
type MockObjectStore struct {
	UploadErr error
	objects   map[string][]byte
	Uploads   int
	mu        sync.Mutex
}

// NewMockObjectStore creates an empty in-memory object store.
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{objects: make(map[string][]byte)}
}

// Upload stores the content in memory.
func (m *MockObjectStore) Upload(_ context.Context, content []byte, filename string) (service.StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UploadErr != nil {
		return service.StoredObject{}, m.UploadErr
	}

	m.Uploads++
	id := fmt.Sprintf("mock/%03d_%s", m.Uploads, filename)
	m.objects[id] = content
	return service.StoredObject{ID: id, URL: "mock://" + id}, nil
}

// Download returns previously uploaded content.
func (m *MockObjectStore) Download(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	return content, nil
}

// MockExtractor is a test implementation of the Extractor interface. It
// returns queued results or errors in call order; when the queue is
// exhausted the last entry repeats.
type MockExtractor struct {
	Results  []model.ExtractionResult
	Errors   []error
	Variants []model.PromptVariant
	calls    int
	mu       sync.Mutex
}

// Extract pops the next queued result.
func (m *MockExtractor) Extract(_ context.Context, _ []byte, variant model.PromptVariant) (model.ExtractionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.Variants = append(m.Variants, variant)

	if idx < len(m.Errors) && m.Errors[idx] != nil {
		return model.ExtractionResult{}, m.Errors[idx]
	}
	if len(m.Results) == 0 {
		return model.ExtractionResult{}, nil
	}
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	return m.Results[idx].Clone(), nil
}

// Calls returns how many times Extract was invoked.
func (m *MockExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockInvoiceStore is a test implementation of the InvoiceStore interface.
type MockInvoiceStore struct {
	InsertErr error
	Rows      map[string][]service.InvoiceRow
	LineItems map[string]map[int64][]model.LineItem
	nextID    int64
	mu        sync.Mutex
}

// NewMockInvoiceStore creates an empty in-memory invoice store.
func NewMockInvoiceStore() *MockInvoiceStore {
	return &MockInvoiceStore{
		Rows:      make(map[string][]service.InvoiceRow),
		LineItems: make(map[string]map[int64][]model.LineItem),
	}
}

// InsertInvoice records the row and returns a synthetic ID.
func (m *MockInvoiceStore) InsertInvoice(_ context.Context, table string, row service.InvoiceRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertErr != nil {
		return 0, m.InsertErr
	}

	m.nextID++
	m.Rows[table] = append(m.Rows[table], row)
	return m.nextID, nil
}

// InsertLineItems records the items under the invoice ID.
func (m *MockInvoiceStore) InsertLineItems(_ context.Context, table string, invoiceID int64, items []model.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LineItems[table] == nil {
		m.LineItems[table] = make(map[int64][]model.LineItem)
	}
	m.LineItems[table][invoiceID] = items
	return nil
}

// Close is a no-op.
func (m *MockInvoiceStore) Close() error { return nil }

// MockRateSource is a test implementation of the RateSource interface.
type MockRateSource struct {
	Err   error
	Rates map[string]float64
}

// Rate looks up the from currency in the configured table.
func (m *MockRateSource) Rate(_ context.Context, from, _ string) (*float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rate, ok := m.Rates[from]
	if !ok {
		return nil, nil
	}
	return &rate, nil
}
