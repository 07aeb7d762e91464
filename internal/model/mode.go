package model

import "fmt"

// Mode selects the persistence target and the prompt variant for a run.
// It is a closed enum; stringly-typed dispatch is confined to ParseMode.
type Mode string

// Processing modes.
const (
	ModeUpload Mode = "upload"
	ModeTest   Mode = "test"
	ModeBatch  Mode = "batch"
)

// PromptVariant names the extraction prompt used by the AI collaborator.
type PromptVariant string

// Prompt variants per mode.
const (
	PromptInvoiceStandard PromptVariant = "invoice_standard"
	PromptInvoiceTest     PromptVariant = "invoice_test"
)

// TargetSet is the static mapping a mode resolves to: which tables receive
// the record and which prompt the extractor uses.
type TargetSet struct {
	InvoiceTable  string
	LineItemTable string
	PromptVariant PromptVariant
}

var modeTargets = map[Mode]TargetSet{
	ModeUpload: {
		InvoiceTable:  "invoices",
		LineItemTable: "invoice_line_items",
		PromptVariant: PromptInvoiceStandard,
	},
	ModeBatch: {
		InvoiceTable:  "invoices",
		LineItemTable: "invoice_line_items",
		PromptVariant: PromptInvoiceStandard,
	},
	ModeTest: {
		InvoiceTable:  "ocr_test_results",
		LineItemTable: "ocr_test_line_items",
		PromptVariant: PromptInvoiceTest,
	},
}

// Targets returns the persistence and prompt mapping for the mode.
func (m Mode) Targets() (TargetSet, bool) {
	t, ok := modeTargets[m]
	return t, ok
}

// ParseMode converts a raw tag into a Mode. The legacy "ocr_test" tag is
// accepted as ModeTest.
func ParseMode(raw string) (Mode, error) {
	switch raw {
	case string(ModeUpload):
		return ModeUpload, nil
	case string(ModeBatch):
		return ModeBatch, nil
	case string(ModeTest), "ocr_test":
		return ModeTest, nil
	default:
		return "", fmt.Errorf("unknown processing mode %q", raw)
	}
}
