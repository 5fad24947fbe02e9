package connect

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseMoney parses a decimal money string ("1234.56", "1,234.56") the way
// Wave and Gusto report amounts. Parsing goes through decimal to avoid
// repeating float formatting quirks in the stored value.
func parseMoney(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("parse money: empty string")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

// centsToUnits converts a minor-unit amount (Stripe/Square cents) to units.
func centsToUnits(cents int64) float64 {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).InexactFloat64()
}
