package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "string", input: `"110000"`, want: "110000"},
		{name: "number", input: `110000`, want: "110000"},
		{name: "float", input: `110000.5`, want: "110000.5"},
		{name: "null", input: `null`, want: ""},
		{name: "padded string", input: `"  1500  "`, want: "1500"},
		{name: "empty string", input: `""`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.want, f.String())
		})
	}
}

func TestFlexString_Coerce(t *testing.T) {
	tests := []struct {
		name  string
		value FlexString
		want  float64
		ok    bool
	}{
		{name: "integer", value: "110000", want: 110000, ok: true},
		{name: "decimal", value: "1234.56", want: 1234.56, ok: true},
		{name: "padded", value: " 42 ", want: 42, ok: true},
		{name: "empty", value: "", ok: false},
		{name: "text", value: "ask sales", ok: false},
		{name: "grouped digits", value: "1,000", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Coerce()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestExtractionResult_DecodesMixedTypes(t *testing.T) {
	raw := `{
		"issuer": "株式会社テスト",
		"amount_inclusive_tax": 110000,
		"amount_exclusive_tax": "100000",
		"line_items": [
			{"description": "作業費", "quantity": 1, "unit_price": "100000", "amount": 100000}
		]
	}`

	var result ExtractionResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))

	assert.Equal(t, "株式会社テスト", result.Issuer)
	assert.Equal(t, "110000", result.AmountInclusiveTax.String())
	assert.Equal(t, "100000", result.AmountExclusiveTax.String())
	require.Len(t, result.LineItems, 1)
	assert.Equal(t, "1", result.LineItems[0].Quantity.String())
}

func TestExtractionResult_Clone(t *testing.T) {
	orig := ExtractionResult{
		Issuer:  "Acme",
		KeyInfo: map[string]string{"po": "PO-1"},
		LineItems: []LineItem{
			{Description: "widget", Amount: "100"},
		},
	}

	clone := orig.Clone()
	clone.KeyInfo["po"] = "PO-2"
	clone.LineItems[0].Description = "gadget"

	assert.Equal(t, "PO-1", orig.KeyInfo["po"])
	assert.Equal(t, "widget", orig.LineItems[0].Description)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    Mode
		wantErr bool
	}{
		{raw: "upload", want: ModeUpload},
		{raw: "batch", want: ModeBatch},
		{raw: "test", want: ModeTest},
		{raw: "ocr_test", want: ModeTest},
		{raw: "turbo", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseMode(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMode_Targets(t *testing.T) {
	uploadTargets, ok := ModeUpload.Targets()
	require.True(t, ok)
	assert.Equal(t, "invoices", uploadTargets.InvoiceTable)
	assert.Equal(t, PromptInvoiceStandard, uploadTargets.PromptVariant)

	testTargets, ok := ModeTest.Targets()
	require.True(t, ok)
	assert.Equal(t, "ocr_test_results", testTargets.InvoiceTable)
	assert.Equal(t, "ocr_test_line_items", testTargets.LineItemTable)
	assert.Equal(t, PromptInvoiceTest, testTargets.PromptVariant)

	_, ok = Mode("turbo").Targets()
	assert.False(t, ok)
}
