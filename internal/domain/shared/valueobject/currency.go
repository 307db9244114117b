package valueobject

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	CNY Currency = "CNY" // Chinese Yuan (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	HKD Currency = "HKD" // Hong Kong Dollar
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = CNY

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the code is one of the supported currencies
func (c Currency) IsValid() bool {
	switch c {
	case CNY, USD, EUR, HKD:
		return true
	default:
		return false
	}
}

// CurrencyOrDefault returns c, or DefaultCurrency when c is empty
func CurrencyOrDefault(c Currency) Currency {
	if c == "" {
		return DefaultCurrency
	}
	return c
}
