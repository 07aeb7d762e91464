package validation

import (
	"strings"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// Field weights: required fields carry most of the score, important fields
// the bulk of the rest, optional fields the remainder.
const (
	requiredWeight  = 60.0
	importantWeight = 30.0
	optionalWeight  = 10.0
)

// CompletenessScore measures how many of the tracked fields are populated,
// weighted by importance, in [0,100]. It is independent of errors and
// warnings.
func CompletenessScore(result model.ExtractionResult) float64 {
	required := []bool{
		present(result.Issuer),
		presentAmount(result.AmountInclusiveTax),
		present(result.Currency),
	}
	important := []bool{
		present(result.Payer),
		present(result.InvoiceNumber),
		present(result.IssueDate),
	}
	optional := []bool{
		present(result.RegistrationNumber),
		presentAmount(result.AmountExclusiveTax),
		present(result.DueDate),
		len(result.LineItems) > 0,
		len(result.KeyInfo) > 0,
	}

	score := tally(required, requiredWeight) +
		tally(important, importantWeight) +
		tally(optional, optionalWeight)

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func tally(fields []bool, weight float64) float64 {
	per := weight / float64(len(fields))
	var score float64
	for _, populated := range fields {
		if populated {
			score += per
		}
	}
	return score
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// presentAmount treats zero as absent; a zero amount is a sentinel for
// "nothing extracted", matching the scoring of the upstream system.
func presentAmount(f model.FlexString) bool {
	v, ok := f.Coerce()
	if !ok {
		return !f.IsEmpty()
	}
	return v != 0
}
