package validation

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// foreignEntityMarkers are legal-entity suffixes that suggest a non-domestic
// issuer needing tax-treatment confirmation.
var foreignEntityMarkers = []string{
	"LLC", "Ltd", "Inc", "Corp", "GmbH", "Limited", "Ireland", "Singapore",
}

// reportBuilder accumulates findings across the rule groups.
type reportBuilder struct {
	report model.ValidationReport
}

func (b *reportBuilder) errorRequired(msg string) {
	b.report.Errors = append(b.report.Errors, msg)
	b.report.Categories.RequiredFields = append(b.report.Categories.RequiredFields, msg)
	b.report.IsValid = false
}

func (b *reportBuilder) errorFormat(msg string) {
	b.report.Errors = append(b.report.Errors, msg)
	b.report.Categories.DataFormat = append(b.report.Categories.DataFormat, msg)
	b.report.IsValid = false
}

func (b *reportBuilder) warnFormat(msg string) {
	b.report.Warnings = append(b.report.Warnings, msg)
	b.report.Categories.DataFormat = append(b.report.Categories.DataFormat, msg)
}

func (b *reportBuilder) warnBusiness(msg string) {
	b.report.Warnings = append(b.report.Warnings, msg)
	b.report.Categories.BusinessLogic = append(b.report.Categories.BusinessLogic, msg)
}

// Validate runs all rule groups against the extraction result and returns a
// normalized copy plus the report. Normalization is idempotent: validating
// an already-normalized result yields an identical report.
func Validate(result model.ExtractionResult, strict bool) (model.ExtractionResult, model.ValidationReport) {
	return validateAt(result, strict, time.Now())
}

func validateAt(result model.ExtractionResult, strict bool, now time.Time) (model.ExtractionResult, model.ValidationReport) {
	normalized := result.Clone()
	b := &reportBuilder{report: model.ValidationReport{IsValid: true}}

	checkFormats(&normalized, b)
	checkAmounts(normalized, b)
	checkDates(normalized, b, now)
	checkForeignCurrency(normalized, b)
	checkLineItems(normalized, b)
	checkRequiredFields(normalized, b)

	if strict && len(b.report.Warnings) > 0 {
		b.report.Errors = append(b.report.Errors, b.report.Warnings...)
		b.report.Warnings = nil
		b.report.IsValid = false
	}

	b.report.CompletenessScore = CompletenessScore(normalized)

	slog.Debug("validation complete",
		"errors", len(b.report.Errors),
		"warnings", len(b.report.Warnings),
		"completeness", b.report.CompletenessScore)

	return normalized, b.report
}

func checkRequiredFields(result model.ExtractionResult, b *reportBuilder) {
	if strings.TrimSpace(result.Issuer) == "" {
		b.errorRequired("required field missing: issuer")
	}
	if result.AmountInclusiveTax.IsEmpty() {
		b.errorRequired("required field missing: tax-inclusive amount")
	}
	if strings.TrimSpace(result.IssueDate) == "" {
		b.errorRequired("required field missing: issue date")
	}
}

// checkFormats normalizes the currency code in place on the copy and
// validates field shapes.
func checkFormats(result *model.ExtractionResult, b *reportBuilder) {
	if raw := result.Currency; strings.TrimSpace(raw) != "" {
		normalized := NormalizeCurrency(raw)
		if normalized != raw {
			slog.Debug("currency normalized", "from", raw, "to", normalized)
			result.Currency = normalized
		}
		if !IsSupportedCurrency(normalized) {
			b.warnFormat(fmt.Sprintf("unsupported currency code: %s (raw: %s)", normalized, raw))
		}
	}

	if !result.AmountInclusiveTax.IsEmpty() {
		if _, ok := result.AmountInclusiveTax.Coerce(); !ok {
			b.errorFormat(fmt.Sprintf("tax-inclusive amount is not numeric: %s", result.AmountInclusiveTax))
		}
	}
	if !result.AmountExclusiveTax.IsEmpty() {
		if _, ok := result.AmountExclusiveTax.Coerce(); !ok {
			b.errorFormat(fmt.Sprintf("tax-exclusive amount is not numeric: %s", result.AmountExclusiveTax))
		}
	}

	if len(result.Issuer) > 100 {
		b.warnFormat(fmt.Sprintf("issuer name is unusually long (%d chars)", len(result.Issuer)))
	}
}

func checkAmounts(result model.ExtractionResult, b *reportBuilder) {
	inclusive, okInc := result.AmountInclusiveTax.Coerce()
	exclusive, okExc := result.AmountExclusiveTax.Coerce()
	foreign := isForeign(result.Currency)

	if okInc && inclusive < 0 {
		b.warnBusiness(fmt.Sprintf("tax-inclusive amount is negative: %.0f (possible refund or adjustment)", inclusive))
	}
	if okInc && inclusive > 10_000_000 {
		b.warnBusiness(fmt.Sprintf("tax-inclusive amount is unusually large: %.0f", inclusive))
	}

	if !okInc || !okExc || inclusive <= 0 || exclusive <= 0 {
		return
	}

	if foreign {
		// Foreign vendors commonly charge no domestic consumption tax, so
		// inclusive == exclusive is the expected pattern.
		if inclusive < exclusive {
			b.warnBusiness(fmt.Sprintf("foreign invoice: tax-inclusive amount (%.0f) is below tax-exclusive amount (%.0f)", inclusive, exclusive))
		}
	} else if inclusive <= exclusive {
		b.warnBusiness(fmt.Sprintf("tax-inclusive amount (%.0f) does not exceed tax-exclusive amount (%.0f)", inclusive, exclusive))
	}

	taxRate := (inclusive - exclusive) / exclusive * 100
	if foreign {
		switch {
		case math.Abs(taxRate) < 0.1:
			// Zero-rate is normal for foreign invoices.
		case taxRate < 0:
			b.warnBusiness(fmt.Sprintf("foreign invoice: implied tax rate is negative: %.1f%%", taxRate))
		case taxRate > 15:
			b.warnBusiness(fmt.Sprintf("foreign invoice: implied tax rate is unusually high: %.1f%%", taxRate))
		}
	} else if taxRate < 5 || taxRate > 15 {
		b.warnBusiness(fmt.Sprintf("implied tax rate is out of range: %.1f%%", taxRate))
	}
}

func checkDates(result model.ExtractionResult, b *reportBuilder, now time.Time) {
	issue, issueOK := parseDate(result.IssueDate)
	due, dueOK := parseDate(result.DueDate)

	if result.IssueDate != "" && !issueOK {
		b.warnFormat(fmt.Sprintf("issue date has an invalid format: %s", result.IssueDate))
	}
	if result.DueDate != "" && !dueOK {
		b.warnFormat(fmt.Sprintf("due date has an invalid format: %s", result.DueDate))
	}

	// Same-day due dates are valid; only strictly-earlier is suspect.
	if issueOK && dueOK && due.Before(issue) {
		b.warnBusiness("due date is earlier than issue date")
	}

	if issueOK {
		if issue.After(now.AddDate(0, 0, 30)) {
			b.warnBusiness("issue date is more than 30 days in the future")
		}
		if issue.Before(now.AddDate(-3, 0, 0)) {
			b.warnBusiness("issue date is more than 3 years in the past")
		}
	}
}

func checkForeignCurrency(result model.ExtractionResult, b *reportBuilder) {
	if !isForeign(result.Currency) {
		return
	}
	b.warnBusiness(fmt.Sprintf("foreign-currency invoice requires exchange-rate review (%s)", result.Currency))
	for _, marker := range foreignEntityMarkers {
		if strings.Contains(result.Issuer, marker) {
			b.warnBusiness("issuer appears to be a foreign entity; confirm consumption-tax treatment")
			break
		}
	}
}

func checkLineItems(result model.ExtractionResult, b *reportBuilder) {
	if len(result.LineItems) == 0 {
		return
	}

	var lineTotal float64
	for i, item := range result.LineItems {
		if item.Amount.IsEmpty() {
			continue
		}
		amount, ok := item.Amount.Coerce()
		if !ok {
			b.warnFormat(fmt.Sprintf("line item %d has a non-numeric amount: %s", i+1, item.Amount))
			continue
		}
		lineTotal += amount
	}

	exclusive, ok := result.AmountExclusiveTax.Coerce()
	if !ok || exclusive <= 0 || lineTotal <= 0 {
		return
	}
	discrepancy := math.Abs(lineTotal-exclusive) / exclusive
	if discrepancy > 0.1 {
		b.warnBusiness(fmt.Sprintf("line-item total (%.0f) deviates %.1f%% from the tax-exclusive amount (%.0f)", lineTotal, discrepancy*100, exclusive))
	}
}

func isForeign(currency string) bool {
	return currency != "" && strings.ToUpper(currency) != "JPY"
}

// parseDate accepts the date-only and RFC 3339 shapes extraction produces.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006/01/02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
