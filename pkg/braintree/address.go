package braintree

import "braintree/pkg/markup"

// Address is a postal address used for billing and shipping.
type Address struct {
	ID                 string
	Company            *string
	CountryCodeAlpha2  *string
	CountryCodeAlpha3  *string
	CountryCodeNumeric *string
	CountryName        *string
	ExtendedAddress    *string
	FirstName          *string
	LastName           *string
	Locality           *string
	PostalCode         *string
	Region             *string
	StreetAddress      *string
}

// AddressSchema maps Address to its wire form. Callers must not modify it.
var AddressSchema = &markup.Schema[Address]{
	Name: "address",
	Fields: []markup.Field[Address]{
		markup.PlainText("id", func(a *Address) *string { return &a.ID }),
		markup.Text("company", func(a *Address) **string { return &a.Company }),
		markup.Text("country-code-alpha2", func(a *Address) **string { return &a.CountryCodeAlpha2 }),
		markup.Text("country-code-alpha3", func(a *Address) **string { return &a.CountryCodeAlpha3 }),
		markup.Text("country-code-numeric", func(a *Address) **string { return &a.CountryCodeNumeric }),
		markup.Text("country-name", func(a *Address) **string { return &a.CountryName }),
		markup.Text("extended-address", func(a *Address) **string { return &a.ExtendedAddress }),
		markup.Text("first-name", func(a *Address) **string { return &a.FirstName }),
		markup.Text("last-name", func(a *Address) **string { return &a.LastName }),
		markup.Text("locality", func(a *Address) **string { return &a.Locality }),
		markup.Text("postal-code", func(a *Address) **string { return &a.PostalCode }),
		markup.Text("region", func(a *Address) **string { return &a.Region }),
		markup.Text("street-address", func(a *Address) **string { return &a.StreetAddress }),
	},
}
