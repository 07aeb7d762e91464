// Package validation implements the invoice validation and normalization
// rule engine. Validate is pure: it returns a normalized copy of the
// extraction result together with the report, and never raises.
package validation

import "strings"

// currencyAliases maps common symbols and spellings to ISO 4217 codes.
var currencyAliases = map[string]string{
	// Yen
	"円": "JPY", "￥": "JPY", "¥": "JPY", "JPY": "JPY", "YEN": "JPY",
	// US dollar
	"ドル": "USD", "＄": "USD", "$": "USD", "USD": "USD", "DOLLAR": "USD",
	"US$": "USD", "US DOLLAR": "USD",
	// Euro
	"€": "EUR", "EUR": "EUR", "EURO": "EUR",
	// Pound sterling
	"£": "GBP", "GBP": "GBP", "POUND": "GBP", "STERLING": "GBP",
	// Australian dollar
	"AUD": "AUD", "A$": "AUD", "AU$": "AUD", "AUSTRALIAN DOLLAR": "AUD",
	// Canadian dollar
	"CAD": "CAD", "C$": "CAD", "CA$": "CAD", "CANADIAN DOLLAR": "CAD",
	// Swiss franc
	"CHF": "CHF", "SWISS FRANC": "CHF", "FR": "CHF", "SFR": "CHF",
}

// supportedCurrencies are the codes the downstream stages understand.
var supportedCurrencies = map[string]struct{}{
	"JPY": {}, "USD": {}, "EUR": {}, "GBP": {}, "AUD": {}, "CAD": {}, "CHF": {},
}

// NormalizeCurrency canonicalizes a raw currency token. Unknown tokens are
// uppercased and passed through.
func NormalizeCurrency(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return token
	}
	if code, ok := currencyAliases[strings.ToUpper(token)]; ok {
		return code
	}
	return strings.ToUpper(token)
}

// IsSupportedCurrency reports whether a normalized code is on the
// supported list.
func IsSupportedCurrency(code string) bool {
	_, ok := supportedCurrencies[code]
	return ok
}
