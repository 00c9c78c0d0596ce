package braintree

import (
	"time"

	"braintree/pkg/markup"
)

// Customer is a vaulted customer. On create requests CreditCard vaults a card
// along with the customer; on responses it holds the first vaulted card and
// CreditCards holds all of them.
type Customer struct {
	ID                 string
	Company            *string
	Email              *string
	Fax                *string
	FirstName          *string
	LastName           *string
	Phone              *string
	Website            *string
	PaymentMethodNonce *string
	CreditCard         *CreditCard
	CreditCards        []CreditCard
	// CustomFields keys must be valid element names and configured for the
	// merchant beforehand.
	CustomFields map[string]string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func customerFields(idRequired bool) []markup.Field[Customer] {
	id := markup.PlainText("id", func(c *Customer) *string { return &c.ID })
	if idRequired {
		id = id.Required()
	}
	return []markup.Field[Customer]{
		id,
		markup.Text("company", func(c *Customer) **string { return &c.Company }),
		markup.Text("email", func(c *Customer) **string { return &c.Email }),
		markup.Text("fax", func(c *Customer) **string { return &c.Fax }),
		markup.Text("first-name", func(c *Customer) **string { return &c.FirstName }),
		markup.Text("last-name", func(c *Customer) **string { return &c.LastName }),
		markup.Text("phone", func(c *Customer) **string { return &c.Phone }),
		markup.Text("website", func(c *Customer) **string { return &c.Website }),
		markup.Text("payment_method_nonce", func(c *Customer) **string { return &c.PaymentMethodNonce }).
			Alias("payment-method-nonce"),
		markup.Nested("credit_card", CreditCardSchema, func(c *Customer) **CreditCard { return &c.CreditCard }).
			Alias("credit-card", "credit-cards/credit-card"),
		markup.Collection("credit-cards", "credit-card", CreditCardSchema, func(c *Customer) *[]CreditCard { return &c.CreditCards }),
		markup.Mapping("custom_fields", func(c *Customer) *map[string]string { return &c.CustomFields }).
			Alias("custom-fields"),
		markup.Time("created-at", func(c *Customer) **time.Time { return &c.CreatedAt }),
		markup.Time("updated-at", func(c *Customer) **time.Time { return &c.UpdatedAt }),
	}
}

// CustomerSchema maps a Customer returned by the customer endpoints, where
// the id is always present. Callers must not modify it.
var CustomerSchema = &markup.Schema[Customer]{
	Name:   "customer",
	Fields: customerFields(true),
}

// CustomerDetailsSchema maps a Customer whose id may be absent: create
// requests, and the customer embedded in a transaction, whose id is nil for
// guest checkouts. Callers must not modify it.
var CustomerDetailsSchema = &markup.Schema[Customer]{
	Name:   "customer",
	Fields: customerFields(false),
}
