package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// currencyScale maps each supported currency to its number of fractional
// digits. Amounts are stored as fixed-point decimals at exactly this scale.
var currencyScale = map[string]int32{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"NGN": 2,
	"VND": 0,
	"BTC": 8,
	"ETH": 8,
}

// CurrencySupported reports whether the currency code is known.
func CurrencySupported(code string) bool {
	_, ok := currencyScale[code]
	return ok
}

// CurrencyScale returns the fractional digit count for a supported
// currency. The second return is false for unknown codes.
func CurrencyScale(code string) (int32, bool) {
	scale, ok := currencyScale[code]
	return scale, ok
}

// ValidateAmount checks that the amount is strictly positive and does not
// exceed the currency's fractional precision.
func ValidateAmount(amount decimal.Decimal, currency string) error {
	scale, ok := currencyScale[currency]
	if !ok {
		return fmt.Errorf("unsupported currency: %s", currency)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.Exponent() < -scale {
		return fmt.Errorf("amount %s exceeds %s precision of %d decimal places", amount, currency, scale)
	}
	return nil
}

// ParseAmount parses a decimal string and validates it against the
// currency's precision rules.
func ParseAmount(s string, currency string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	if err := ValidateAmount(d, currency); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}
