package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// Parser turns raw model responses into extraction results. By default it
// accepts only a bare JSON document matching the invoice schema; lenient
// parsing additionally recovers JSON wrapped in markdown fences or
// surrounding prose.
type Parser struct {
	schema  *jsonschema.Schema
	lenient bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLenientParsing enables recovery of JSON embedded in fenced code
// blocks or surrounding text.
func WithLenientParsing() ParserOption {
	return func(p *Parser) { p.lenient = true }
}

// NewParser compiles the invoice response schema.
func NewParser(opts ...ParserOption) (*Parser, error) {
	raw, err := json.Marshal(buildInvoiceSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("invoice.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	p := &Parser{schema: schema}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse validates and decodes one model response.
func (p *Parser) Parse(response string) (model.ExtractionResult, error) {
	candidates := []string{strings.TrimSpace(response)}
	if p.lenient {
		candidates = append(candidates, recoverJSON(response)...)
	}

	var lastErr error
	for _, candidate := range candidates {
		result, err := p.parseStrict(candidate)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return model.ExtractionResult{}, &ContentError{
		Err:    lastErr,
		Reason: "response is not a valid invoice document",
	}
}

func (p *Parser) parseStrict(candidate string) (model.ExtractionResult, error) {
	var generic any
	if err := json.Unmarshal([]byte(candidate), &generic); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if err := p.schema.Validate(generic); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("response does not match schema: %w", err)
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

var (
	jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	bareFenceRe = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// recoverJSON extracts JSON candidates from a response that wraps the
// document in markdown fences or prose, in decreasing order of
// confidence.
func recoverJSON(response string) []string {
	var candidates []string

	if m := jsonFenceRe.FindStringSubmatch(response); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := bareFenceRe.FindStringSubmatch(response); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	// Widest braced span, for JSON buried in prose.
	if start := strings.Index(response, "{"); start != -1 {
		if end := strings.LastIndex(response, "}"); end > start {
			candidates = append(candidates, response[start:end+1])
		}
	}

	return candidates
}
