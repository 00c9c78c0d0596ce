package braintree

import (
	"time"

	"braintree/pkg/markup"
)

// CreditCard carries raw card data on requests and the vaulted card's
// details on responses. Prefer a payment method nonce over raw card numbers
// where possible.
type CreditCard struct {
	Number          *string
	ExpirationDate  *string
	ExpirationMonth *string
	ExpirationYear  *string
	CVV             *string
	CardholderName  *string
	Token           *string
	CustomerID      *string
	BillingAddress  *Address

	// Set by the gateway.
	Bin          *string
	Last4        *string
	CardType     *string
	MaskedNumber *string
	Default      *bool
	Expired      *bool
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

// CreditCardSchema maps CreditCard to its wire form. Callers must not modify it.
var CreditCardSchema = &markup.Schema[CreditCard]{
	Name: "credit-card",
	Fields: []markup.Field[CreditCard]{
		markup.Text("number", func(c *CreditCard) **string { return &c.Number }),
		markup.Text("expiration-date", func(c *CreditCard) **string { return &c.ExpirationDate }),
		markup.Text("expiration-month", func(c *CreditCard) **string { return &c.ExpirationMonth }),
		markup.Text("expiration-year", func(c *CreditCard) **string { return &c.ExpirationYear }),
		markup.Text("cvv", func(c *CreditCard) **string { return &c.CVV }),
		markup.Text("cardholder-name", func(c *CreditCard) **string { return &c.CardholderName }),
		markup.Text("token", func(c *CreditCard) **string { return &c.Token }),
		markup.Text("customer-id", func(c *CreditCard) **string { return &c.CustomerID }),
		markup.Nested("billing-address", AddressSchema, func(c *CreditCard) **Address { return &c.BillingAddress }),
		markup.Text("bin", func(c *CreditCard) **string { return &c.Bin }),
		markup.Text("last-4", func(c *CreditCard) **string { return &c.Last4 }),
		markup.Text("card-type", func(c *CreditCard) **string { return &c.CardType }),
		markup.Text("masked-number", func(c *CreditCard) **string { return &c.MaskedNumber }),
		markup.Bool("default", func(c *CreditCard) **bool { return &c.Default }),
		markup.Bool("expired", func(c *CreditCard) **bool { return &c.Expired }),
		markup.Time("created-at", func(c *CreditCard) **time.Time { return &c.CreatedAt }),
		markup.Time("updated-at", func(c *CreditCard) **time.Time { return &c.UpdatedAt }),
	},
}
