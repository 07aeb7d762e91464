// Package export stages approved invoices for accounting export: it maps
// spend categories to ledger accounts, assigns batch IDs, and renders
// staged batches as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// Account is one ledger account mapping target.
type Account struct {
	Code string
	Name string
	Sub  string
}

// defaultCategory is applied when no keyword matches.
const defaultCategory = "一般"

// defaultAccounts is the standard category to ledger account table.
var defaultAccounts = map[string]Account{
	"コンサルティング": {Code: "5201", Name: "支払手数料", Sub: "コンサルティング料"},
	"システム開発":   {Code: "5202", Name: "外注費", Sub: "システム開発費"},
	"広告宣伝":     {Code: "5203", Name: "広告宣伝費"},
	"通信費":      {Code: "5204", Name: "通信費"},
	"出張":       {Code: "5205", Name: "旅費交通費", Sub: "出張費"},
	"備品":       {Code: "5206", Name: "消耗品費", Sub: "事務用品"},
	"家賃":       {Code: "5207", Name: "地代家賃"},
	defaultCategory: {Code: "5201", Name: "支払手数料"},
}

// expenseKeywords maps export categories to their trigger substrings.
var expenseKeywords = []struct {
	category string
	keywords []string
}{
	{"コンサルティング", []string{"コンサル", "consulting", "相談", "アドバイザー"}},
	{"システム開発", []string{"システム", "system", "開発", "development"}},
	{"広告宣伝", []string{"広告", "advertisement", "marketing", "宣伝"}},
	{"通信費", []string{"通信", "telecom", "internet", "phone"}},
	{"出張", []string{"出張", "travel", "交通", "transport"}},
	{"備品", []string{"備品", "supplies", "消耗品", "stationery"}},
	{"家賃", []string{"家賃", "rent", "lease"}},
}

// Preparer stages invoices for export to the accounting system.
type Preparer struct {
	accounts map[string]Account
	logger   *slog.Logger
	now      func() time.Time
}

// NewPreparer creates a preparer with the standard account mapping.
func NewPreparer(logger *slog.Logger) *Preparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preparer{
		accounts: defaultAccounts,
		logger:   logger,
		now:      time.Now,
	}
}

// Prepare decides the export staging outcome for one invoice. Only
// approved invoices are staged; everything else is annotated not-ready
// without failing the pipeline.
func (p *Preparer) Prepare(result model.ExtractionResult, approval *model.ApprovalAnnotation) model.ExportAnnotation {
	if approval == nil || !approval.IsApproved() {
		return model.ExportAnnotation{
			Ready: false,
			Note:  "not staged: invoice is not approved",
		}
	}

	category := detectExpenseCategory(result)
	account, ok := p.accounts[category]
	if !ok {
		p.logger.Warn("unmapped expense category, using default account",
			"category", category)
		account = p.accounts[defaultCategory]
		category = defaultCategory
	}

	annotation := model.ExportAnnotation{
		Ready:       true,
		BatchID:     p.newBatchID(),
		Category:    category,
		AccountCode: account.Code,
		AccountName: account.Name,
	}

	p.logger.Info("invoice staged for export",
		"issuer", result.Issuer,
		"category", category,
		"account_code", account.Code,
		"batch_id", annotation.BatchID)
	return annotation
}

// newBatchID generates a unique batch identifier of the form
// export_batch_<yyyymmddhhmm>_<8 hex chars>.
func (p *Preparer) newBatchID() string {
	timestamp := p.now().Format("200601021504")
	unique := uuid.New().String()[:8]
	return fmt.Sprintf("export_batch_%s_%s", timestamp, unique)
}

// detectExpenseCategory classifies an invoice for account mapping by
// scanning key info and issuer for category keywords.
func detectExpenseCategory(result model.ExtractionResult) string {
	haystack := strings.ToLower(result.KeyInfoText() + " " + result.Issuer)
	for _, entry := range expenseKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(haystack, keyword) {
				return entry.category
			}
		}
	}
	return defaultCategory
}
