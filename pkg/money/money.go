// Package money converts between the major-unit float prices carried by
// catalog files and the integer minor-unit amounts stored on cart items.
// All arithmetic goes through shopspring/decimal so that 1290.50 RUB turns
// into exactly 129050 kopecks instead of whatever float64 rounding yields.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PrimaryCurrency is the currency the storefront quotes subtotals in.
const PrimaryCurrency = "RUB"

// currency symbols and codes accepted on catalog entries.
var knownCurrencies = map[string]string{
	"RUB": "RUB",
	"₽":   "RUB",
	"USD": "USD",
	"$":   "USD",
	"EUR": "EUR",
	"€":   "EUR",
}

// NormalizeCurrency maps a currency symbol or code to its ISO code.
// Unrecognized values come back empty with ok=false.
func NormalizeCurrency(raw string) (string, bool) {
	code, ok := knownCurrencies[strings.ToUpper(strings.TrimSpace(raw))]
	return code, ok
}

// ToMinorUnits converts a major-unit amount (e.g. 1290.50) to minor units
// (129050). Fractions beyond two decimal places are rounded half-up, the
// same way the storefront displays them.
func ToMinorUnits(major float64) int64 {
	return decimal.NewFromFloat(major).Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts an integer minor-unit amount back to a decimal
// major-unit value for display and subtotal math.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatMinor renders a minor-unit amount as "1290.50 RUB".
func FormatMinor(minor int64, currency string) string {
	return fmt.Sprintf("%s %s", FromMinorUnits(minor).StringFixed(2), currency)
}
