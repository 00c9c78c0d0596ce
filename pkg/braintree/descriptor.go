package braintree

import "braintree/pkg/markup"

// Descriptor is the text that appears on the cardholder's statement.
type Descriptor struct {
	Name  *string
	Phone *string
	URL   *string
}

var DescriptorSchema = &markup.Schema[Descriptor]{
	Name: "descriptor",
	Fields: []markup.Field[Descriptor]{
		markup.Text("name", func(d *Descriptor) **string { return &d.Name }),
		markup.Text("phone", func(d *Descriptor) **string { return &d.Phone }),
		markup.Text("url", func(d *Descriptor) **string { return &d.URL }),
	},
}
