package braintree

import "github.com/shopspring/decimal"

// String returns a pointer to s, for populating optional fields.
func String(s string) *string {
	return &s
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// Decimal parses s as an amount and returns a pointer to it. It panics on
// malformed input, so use it with literals only.
func Decimal(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
