package extract

// buildInvoiceSchema returns the JSON-Schema (draft 2020-12 subset) the
// model's response must satisfy. Amount fields accept both string and
// number so downstream validation can report coercion problems instead
// of the parser rejecting the whole document.
func buildInvoiceSchema() map[string]any {
	amountProp := map[string]any{"type": []string{"string", "number", "null"}}

	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    amountProp,
			"unit_price":  amountProp,
			"amount":      amountProp,
			"tax":         amountProp,
		},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"issuer":               map[string]any{"type": "string"},
			"payer":                map[string]any{"type": "string"},
			"main_invoice_number":  map[string]any{"type": "string"},
			"t_number":             map[string]any{"type": "string"},
			"currency":             map[string]any{"type": "string"},
			"amount_inclusive_tax": amountProp,
			"amount_exclusive_tax": amountProp,
			"issue_date":           map[string]any{"type": "string"},
			"due_date":             map[string]any{"type": "string"},
			"key_info": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"line_items": map[string]any{
				"type":  "array",
				"items": lineItem,
			},
		},
		"additionalProperties": false,
	}
}
