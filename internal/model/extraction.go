// Package model defines the core domain models used throughout the application.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Document is a raw invoice document supplied by the caller. The pipeline
// does not retain it after extraction completes.
type Document struct {
	Filename string
	Content  []byte
	Size     int64
}

// FlexString decodes a JSON string, number, or null into a plain string.
// Extraction output is ragged; numeric fields arrive as either form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	*f = FlexString(string(data))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns the raw value.
func (f FlexString) String() string { return string(f) }

// IsEmpty reports whether no value was extracted.
func (f FlexString) IsEmpty() bool { return strings.TrimSpace(string(f)) == "" }

// Coerce parses the value as a float. The boolean is false when the value
// is empty or not numeric.
func (f FlexString) Coerce() (float64, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LineItem is a single invoice line as extracted by the AI collaborator.
type LineItem struct {
	Description string     `json:"description"`
	Quantity    FlexString `json:"quantity"`
	UnitPrice   FlexString `json:"unit_price"`
	Amount      FlexString `json:"amount"`
	TaxRate     FlexString `json:"tax"`
}

// ExtractionResult holds the structured invoice fields produced by the AI
// collaborator. Validation returns a normalized copy; callers must treat
// the post-validation value as the source of truth.
type ExtractionResult struct {
	Issuer             string            `json:"issuer"`
	Payer              string            `json:"payer"`
	InvoiceNumber      string            `json:"main_invoice_number"`
	RegistrationNumber string            `json:"t_number"`
	Currency           string            `json:"currency"`
	AmountInclusiveTax FlexString        `json:"amount_inclusive_tax"`
	AmountExclusiveTax FlexString        `json:"amount_exclusive_tax"`
	IssueDate          string            `json:"issue_date"`
	DueDate            string            `json:"due_date"`
	KeyInfo            map[string]string `json:"key_info"`
	LineItems          []LineItem        `json:"line_items"`
}

// Clone returns a deep copy of the extraction result.
func (r ExtractionResult) Clone() ExtractionResult {
	out := r
	if r.KeyInfo != nil {
		out.KeyInfo = make(map[string]string, len(r.KeyInfo))
		for k, v := range r.KeyInfo {
			out.KeyInfo[k] = v
		}
	}
	if r.LineItems != nil {
		out.LineItems = make([]LineItem, len(r.LineItems))
		copy(out.LineItems, r.LineItems)
	}
	return out
}

// KeyInfoText flattens the free-form key facts into one searchable string.
func (r ExtractionResult) KeyInfoText() string {
	if len(r.KeyInfo) == 0 {
		return ""
	}
	var b strings.Builder
	for k, v := range r.KeyInfo {
		b.WriteString(k)
		b.WriteByte(' ')
		b.WriteString(v)
		b.WriteByte(' ')
	}
	return b.String()
}
