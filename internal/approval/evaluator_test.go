package approval

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

func testEvaluator(mutate func(*Rules)) *Evaluator {
	rules := DefaultRules()
	if mutate != nil {
		mutate(&rules)
	}
	return NewEvaluator(rules, slog.Default())
}

func invoice(amount model.FlexString) model.ExtractionResult {
	return model.ExtractionResult{
		Issuer:             "株式会社テスト商事",
		Currency:           "JPY",
		AmountInclusiveTax: amount,
	}
}

func TestEvaluate_AmountThresholds(t *testing.T) {
	tests := []struct {
		name       string
		amount     model.FlexString
		wantStatus model.ApprovalStatus
		wantTier   model.Tier
	}{
		{name: "small amount auto-approves", amount: "100000", wantStatus: model.ApprovalAutoApproved, wantTier: model.TierNone},
		{name: "just under manager threshold", amount: "299999", wantStatus: model.ApprovalAutoApproved, wantTier: model.TierNone},
		{name: "manager threshold is inclusive", amount: "300000", wantStatus: model.ApprovalPending, wantTier: model.TierManager},
		{name: "director threshold", amount: "1000000", wantStatus: model.ApprovalPending, wantTier: model.TierDirector},
		{name: "president threshold", amount: "5000000", wantStatus: model.ApprovalPending, wantTier: model.TierPresident},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotation := testEvaluator(nil).Evaluate(invoice(tt.amount), nil)

			assert.Equal(t, tt.wantStatus, annotation.Status)
			assert.Equal(t, tt.wantTier, annotation.RequiredTier)
		})
	}
}

func TestEvaluate_AutoApprovedHasNoReason(t *testing.T) {
	annotation := testEvaluator(nil).Evaluate(invoice("1000"), nil)

	assert.Equal(t, model.ApprovalAutoApproved, annotation.Status)
	assert.True(t, annotation.IsApproved())
	assert.Empty(t, annotation.Reason)
	assert.Empty(t, annotation.Approver)
}

func TestEvaluate_ApproverAssignment(t *testing.T) {
	annotation := testEvaluator(nil).Evaluate(invoice("1500000"), nil)

	assert.Equal(t, model.TierDirector, annotation.RequiredTier)
	assert.Equal(t, "director@company.com", annotation.Approver)
	assert.NotEmpty(t, annotation.Reason)
}

func TestEvaluate_BlacklistedVendor(t *testing.T) {
	evaluator := testEvaluator(func(r *Rules) {
		r.BlacklistedVendors = []string{"株式会社テスト商事"}
	})

	annotation := evaluator.Evaluate(invoice("1000"), nil)

	assert.Equal(t, model.ApprovalPending, annotation.Status)
	assert.Equal(t, model.TierDirector, annotation.RequiredTier)
	assert.Contains(t, annotation.Reason, "blacklisted")
}

func TestEvaluate_CategoryRules(t *testing.T) {
	t.Run("consulting requires manager", func(t *testing.T) {
		result := invoice("10000")
		result.KeyInfo = map[string]string{"内容": "コンサルティング費用"}

		annotation := testEvaluator(nil).Evaluate(result, nil)

		assert.Equal(t, model.ApprovalPending, annotation.Status)
		assert.Equal(t, model.TierManager, annotation.RequiredTier)
	})

	t.Run("equipment requires director", func(t *testing.T) {
		result := invoice("10000")
		result.KeyInfo = map[string]string{"内容": "設備一式"}

		annotation := testEvaluator(nil).Evaluate(result, nil)

		assert.Equal(t, model.TierDirector, annotation.RequiredTier)
	})

	t.Run("travel below threshold auto-approves", func(t *testing.T) {
		result := invoice("49999")
		result.KeyInfo = map[string]string{"内容": "出張旅費"}

		annotation := testEvaluator(nil).Evaluate(result, nil)

		assert.Equal(t, model.ApprovalAutoApproved, annotation.Status)
	})

	t.Run("travel at threshold requires manager", func(t *testing.T) {
		result := invoice("50000")
		result.KeyInfo = map[string]string{"内容": "出張旅費"}

		annotation := testEvaluator(nil).Evaluate(result, nil)

		assert.Equal(t, model.TierManager, annotation.RequiredTier)
	})
}

func TestEvaluate_HighestTierWins(t *testing.T) {
	// Consulting alone is manager, but the amount clears the director
	// threshold, so director review is required.
	result := invoice("1200000")
	result.KeyInfo = map[string]string{"内容": "consulting services"}

	annotation := testEvaluator(nil).Evaluate(result, nil)

	assert.Equal(t, model.TierDirector, annotation.RequiredTier)
	assert.Contains(t, annotation.Reason, "consulting")
}

func TestEvaluate_UsesConvertedJPYAmount(t *testing.T) {
	result := model.ExtractionResult{
		Issuer:             "Acme Cloud Inc",
		Currency:           "USD",
		AmountInclusiveTax: "3000",
	}
	jpy := 450000.0
	conversion := &model.ConversionAnnotation{
		Status:    model.ConversionConverted,
		JPYAmount: &jpy,
	}

	annotation := testEvaluator(nil).Evaluate(result, conversion)

	assert.Equal(t, model.TierManager, annotation.RequiredTier,
		"thresholds apply to the JPY figure, not the raw foreign amount")
}

func TestEvaluate_MissingAmountRoutesToPending(t *testing.T) {
	result := model.ExtractionResult{Issuer: "株式会社テスト商事", Currency: "USD"}

	annotation := testEvaluator(nil).Evaluate(result, nil)

	assert.Equal(t, model.ApprovalPending, annotation.Status)
	assert.Equal(t, model.TierNone, annotation.RequiredTier)
	assert.NotEmpty(t, annotation.Note)
	assert.False(t, annotation.IsApproved())
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name   string
		result model.ExtractionResult
		want   string
	}{
		{
			name:   "japanese consulting keyword",
			result: model.ExtractionResult{KeyInfo: map[string]string{"内容": "月次コンサル費"}},
			want:   "consulting",
		},
		{
			name:   "english keyword is case-insensitive",
			result: model.ExtractionResult{KeyInfo: map[string]string{"desc": "Equipment lease"}},
			want:   "equipment",
		},
		{
			name:   "issuer name is scanned too",
			result: model.ExtractionResult{Issuer: "Global Travel Partners Ltd"},
			want:   "travel",
		},
		{
			name:   "no keyword falls back to general",
			result: model.ExtractionResult{Issuer: "株式会社テスト商事"},
			want:   "general",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCategory(tt.result))
		})
	}
}

func TestDefaultRules_AllTiersHaveApprovers(t *testing.T) {
	rules := DefaultRules()
	for _, tier := range []model.Tier{model.TierManager, model.TierDirector, model.TierPresident} {
		require.NotEmpty(t, rules.Approvers[tier])
	}
}
