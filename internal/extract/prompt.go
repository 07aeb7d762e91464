package extract

import "github.com/gucchon001/invoice-processing-system-sub000/internal/model"

// promptFor returns the extraction prompt for the given variant. The test
// variant asks for the same fields but relaxes the formatting guidance so
// accuracy tests see the model's raw reading.
func promptFor(variant model.PromptVariant) string {
	if variant == model.PromptInvoiceTest {
		return invoiceTestPrompt
	}
	return invoiceStandardPrompt
}

const invoiceStandardPrompt = `あなたは請求書の読み取り専門アシスタントです。
添付されたPDF請求書から以下の項目を抽出し、JSON形式で返してください。

抽出項目:
- issuer: 請求書の発行者名（会社名）
- payer: 請求先の宛名
- main_invoice_number: 請求書番号
- t_number: 適格請求書発行事業者の登録番号（T+13桁）
- currency: 通貨コード（JPY, USD, EUR など）。記号の場合はそのまま記載
- amount_inclusive_tax: 税込金額（数値）
- amount_exclusive_tax: 税抜金額（数値）
- issue_date: 発行日（YYYY-MM-DD形式）
- due_date: 支払期限（YYYY-MM-DD形式）
- key_info: その他の重要情報（振込先、件名、備考など）をキーと値のペアで
- line_items: 明細行の配列。各行は description, quantity, unit_price, amount, tax

ルール:
- 記載がない項目は空文字列、明細がない場合は空配列としてください
- 金額はカンマや通貨記号を除いた数値で返してください
- 推測で値を補わないでください

JSONのみを返してください。`

const invoiceTestPrompt = `あなたは請求書OCRの検証用アシスタントです。
添付されたPDFから読み取れた内容をそのままJSON形式で返してください。

フィールド: issuer, payer, main_invoice_number, t_number, currency,
amount_inclusive_tax, amount_exclusive_tax, issue_date, due_date,
key_info, line_items

読み取れない項目は空文字列としてください。表記の正規化は行わず、
紙面の記載に忠実に抽出してください。JSONのみを返してください。`
