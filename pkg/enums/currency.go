package enums

import (
	"fmt"
	"strings"
)

// Currency is an ISO-4217 code. The deployment runs a single currency;
// the code travels on orders and ledger entries for reporting.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyINR Currency = "INR"
)

// IsValid applies a shape check; exhaustive ISO validation is not required here.
func (c Currency) IsValid() bool {
	s := string(c)
	return len(s) == 3 && s == strings.ToUpper(s)
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}
