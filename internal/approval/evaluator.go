// Package approval routes invoices to the approval tier their amount,
// vendor, and spend category require.
package approval

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// Rules holds the escalation configuration. The zero value is unusable;
// construct it with DefaultRules and override fields as needed.
type Rules struct {
	// AmountThresholds maps a tier to the minimum JPY amount that
	// triggers it.
	AmountThresholds map[model.Tier]float64
	// CategoryTiers maps a detected category to a fixed tier.
	CategoryTiers map[string]model.Tier
	// CategoryThresholds maps a category to a JPY amount above which
	// manager approval is required.
	CategoryThresholds map[string]float64
	// Approvers maps a tier to the responsible approver identity.
	Approvers map[model.Tier]string
	// BlacklistedVendors escalate straight to director review.
	BlacklistedVendors []string
}

// DefaultRules returns the standard corporate escalation policy.
func DefaultRules() Rules {
	return Rules{
		AmountThresholds: map[model.Tier]float64{
			model.TierManager:   300_000,
			model.TierDirector:  1_000_000,
			model.TierPresident: 5_000_000,
		},
		CategoryTiers: map[string]model.Tier{
			"consulting": model.TierManager,
			"equipment":  model.TierDirector,
		},
		CategoryThresholds: map[string]float64{
			"travel": 50_000,
		},
		Approvers: map[model.Tier]string{
			model.TierManager:   "manager@company.com",
			model.TierDirector:  "director@company.com",
			model.TierPresident: "president@company.com",
		},
	}
}

// Evaluator decides approval routing for processed invoices.
type Evaluator struct {
	logger *slog.Logger
	rules  Rules
}

// NewEvaluator creates an evaluator with the given rules.
func NewEvaluator(rules Rules, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{rules: rules, logger: logger}
}

// check is one triggered escalation rule.
type check struct {
	tier   model.Tier
	reason string
}

// Evaluate determines the approval outcome for one invoice. The conversion
// annotation supplies the JPY amount for foreign invoices; a missing amount
// routes the invoice to pending review rather than failing.
func (e *Evaluator) Evaluate(result model.ExtractionResult, conversion *model.ConversionAnnotation) model.ApprovalAnnotation {
	amount, ok := e.jpyAmount(result, conversion)
	if !ok {
		e.logger.Warn("no usable amount for approval evaluation",
			"issuer", result.Issuer)
		return model.ApprovalAnnotation{
			Status: model.ApprovalPending,
			Note:   "amount unavailable, routed to manual review",
		}
	}

	checks := e.runChecks(result, amount)
	if len(checks) == 0 {
		return model.ApprovalAnnotation{Status: model.ApprovalAutoApproved}
	}

	tier := highestTier(checks)
	reasons := make([]string, 0, len(checks))
	for _, c := range checks {
		reasons = append(reasons, c.reason)
	}

	annotation := model.ApprovalAnnotation{
		Status:       model.ApprovalPending,
		RequiredTier: tier,
		Approver:     e.rules.Approvers[tier],
		Reason:       strings.Join(reasons, "; "),
	}

	e.logger.Info("invoice requires approval",
		"issuer", result.Issuer,
		"amount", amount,
		"tier", tier,
		"approver", annotation.Approver)
	return annotation
}

// jpyAmount picks the amount to evaluate against the thresholds,
// preferring the converted JPY figure for foreign invoices.
func (e *Evaluator) jpyAmount(result model.ExtractionResult, conversion *model.ConversionAnnotation) (float64, bool) {
	if conversion != nil && conversion.JPYAmount != nil {
		return *conversion.JPYAmount, true
	}
	return result.AmountInclusiveTax.Coerce()
}

func (e *Evaluator) runChecks(result model.ExtractionResult, amount float64) []check {
	var checks []check

	for _, tier := range []model.Tier{model.TierManager, model.TierDirector, model.TierPresident} {
		threshold, ok := e.rules.AmountThresholds[tier]
		if ok && amount >= threshold {
			checks = append(checks, check{
				tier:   tier,
				reason: fmt.Sprintf("amount meets %s threshold of %.0f", tier, threshold),
			})
		}
	}

	for _, vendor := range e.rules.BlacklistedVendors {
		if result.Issuer == vendor {
			checks = append(checks, check{
				tier:   model.TierDirector,
				reason: "vendor is blacklisted",
			})
			break
		}
	}

	category := DetectCategory(result)
	if tier, ok := e.rules.CategoryTiers[category]; ok {
		checks = append(checks, check{
			tier:   tier,
			reason: fmt.Sprintf("%s category requires %s approval", category, tier),
		})
	}
	if threshold, ok := e.rules.CategoryThresholds[category]; ok && amount >= threshold {
		checks = append(checks, check{
			tier:   model.TierManager,
			reason: fmt.Sprintf("%s spend of %.0f or more requires approval", category, threshold),
		})
	}

	return checks
}

func highestTier(checks []check) model.Tier {
	highest := model.TierNone
	for _, c := range checks {
		if c.tier.Above(highest) {
			highest = c.tier
		}
	}
	return highest
}

// categoryKeywords maps spend categories to the substrings that signal
// them in the extracted text.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"consulting", []string{"コンサル", "consulting"}},
	{"equipment", []string{"設備", "equipment"}},
	{"travel", []string{"出張", "travel"}},
}

// DetectCategory classifies an invoice by scanning its key info and
// issuer for category keywords. Unmatched invoices are "general".
func DetectCategory(result model.ExtractionResult) string {
	haystack := strings.ToLower(result.KeyInfoText() + " " + result.Issuer)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(haystack, keyword) {
				return entry.category
			}
		}
	}
	return "general"
}
