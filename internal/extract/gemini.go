// Package extract calls the Gemini API to pull structured invoice data
// out of PDF documents and parses the model's JSON responses.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

const defaultModelName = "gemini-2.0-flash"

// GeminiExtractor implements the Extractor interface using Google Gemini.
type GeminiExtractor struct {
	client *genai.Client
	model  *genai.GenerativeModel
	parser *Parser
	logger *slog.Logger
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, modelName string, logger *slog.Logger, parserOpts ...ParserOption) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = defaultModelName
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	generativeModel := client.GenerativeModel(modelName)
	generativeModel.ResponseMIMEType = "application/json"
	temperature := float32(0.1)
	generativeModel.Temperature = &temperature

	parser, err := NewParser(parserOpts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &GeminiExtractor{
		client: client,
		model:  generativeModel,
		parser: parser,
		logger: logger,
	}, nil
}

// Extract analyzes a PDF document and returns the structured invoice
// fields. API failures are classified for the retry layer: broken
// documents return a ContentError, rate limits and transient failures
// come back retryable.
func (g *GeminiExtractor) Extract(ctx context.Context, content []byte, variant model.PromptVariant) (model.ExtractionResult, error) {
	if len(content) == 0 {
		return model.ExtractionResult{}, &ContentError{
			Err:    fmt.Errorf("document is empty"),
			Reason: "empty document",
		}
	}

	parts := []genai.Part{
		genai.Text(promptFor(variant)),
		genai.Blob{MIMEType: "application/pdf", Data: content},
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return model.ExtractionResult{}, classifyAPIError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return model.ExtractionResult{}, err
	}

	result, err := g.parser.Parse(text)
	if err != nil {
		g.logger.Error("failed to parse extraction response",
			"variant", variant,
			"error", err)
		return model.ExtractionResult{}, err
	}

	g.logger.Info("document extracted",
		"variant", variant,
		"issuer", result.Issuer,
		"currency", result.Currency)
	return result, nil
}

// responseText flattens the first candidate's text parts.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &ContentError{
			Err:    fmt.Errorf("no response candidates"),
			Reason: "model returned no content",
		}
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}
	return builder.String(), nil
}

// Close releases the underlying API client.
func (g *GeminiExtractor) Close() error {
	return g.client.Close()
}
