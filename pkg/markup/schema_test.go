package markup

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	SKU      *string
	Quantity *int
}

type testOrder struct {
	ID        *string
	Note      *string
	Paid      *bool
	Total     *decimal.Decimal
	PlacedAt  *time.Time
	Shipping  *testLine
	Lines     []testLine
	Metadata  map[string]string
	Reference *string
}

var testLineSchema = &Schema[testLine]{
	Name: "line",
	Fields: []Field[testLine]{
		Text("sku", func(l *testLine) **string { return &l.SKU }),
		Integer("quantity", func(l *testLine) **int { return &l.Quantity }),
	},
}

var testOrderSchema = &Schema[testOrder]{
	Name: "order",
	Fields: []Field[testOrder]{
		Text("id", func(o *testOrder) **string { return &o.ID }).Required(),
		Text("note", func(o *testOrder) **string { return &o.Note }),
		Bool("paid", func(o *testOrder) **bool { return &o.Paid }),
		Decimal("total", func(o *testOrder) **decimal.Decimal { return &o.Total }),
		Time("placed-at", func(o *testOrder) **time.Time { return &o.PlacedAt }),
		Nested("shipping_line", testLineSchema, func(o *testOrder) **testLine { return &o.Shipping }).
			Alias("shipping-line"),
		Collection("lines", "line", testLineSchema, func(o *testOrder) *[]testLine { return &o.Lines }),
		Mapping("metadata", func(o *testOrder) *map[string]string { return &o.Metadata }),
		Text("reference_id", func(o *testOrder) **string { return &o.Reference }).Alias("reference-id"),
	},
}

func ptr[V any](v V) *V { return &v }

func fullOrder() *testOrder {
	return &testOrder{
		ID:       ptr("ord_1"),
		Note:     ptr("fragile"),
		Paid:     ptr(true),
		Total:    ptr(decimal.RequireFromString("10.00")),
		PlacedAt: ptr(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		Shipping: &testLine{SKU: ptr("ship"), Quantity: ptr(1)},
		Lines: []testLine{
			{SKU: ptr("a"), Quantity: ptr(2)},
			{SKU: ptr("b"), Quantity: ptr(3)},
		},
		Metadata:  map[string]string{"color": "red", "size": "xl"},
		Reference: ptr("ref-9"),
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	want := fullOrder()

	got, err := testOrderSchema.Unmarshal(strings.NewReader(testOrderSchema.Encode(want, "")))
	require.NoError(t, err)

	assert.Equal(t, *want.ID, *got.ID)
	assert.Equal(t, *want.Note, *got.Note)
	assert.Equal(t, *want.Paid, *got.Paid)
	assert.True(t, want.Total.Equal(*got.Total))
	assert.True(t, want.PlacedAt.Equal(*got.PlacedAt))
	assert.Equal(t, want.Shipping, got.Shipping)
	assert.Equal(t, want.Lines, got.Lines)
	assert.Equal(t, want.Metadata, got.Metadata)
	assert.Equal(t, *want.Reference, *got.Reference)
}

func TestSchemaEncode(t *testing.T) {
	t.Run("omits absent fields", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{ID: ptr("x")}, "")
		assert.Equal(t, "<order><id>x</id></order>", out)
	})

	t.Run("uses caller element name", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{ID: ptr("x")}, "purchase")
		assert.Equal(t, "<purchase><id>x</id></purchase>", out)
	})

	t.Run("nil record renders nothing", func(t *testing.T) {
		assert.Empty(t, testOrderSchema.Encode(nil, ""))
	})

	t.Run("typed scalars carry type attribute", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{
			Paid:     ptr(false),
			PlacedAt: ptr(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		}, "")
		assert.Contains(t, out, `<paid type="boolean">false</paid>`)
		assert.Contains(t, out, `<placed-at type="datetime">2024-01-02T03:04:05Z</placed-at>`)
	})

	t.Run("datetime keeps fractional seconds", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{PlacedAt: ptr(time.Date(2024, 1, 2, 3, 4, 5, 120000000, time.UTC))}, "")
		assert.Equal(t, `<order><placed-at type="datetime">2024-01-02T03:04:05.12Z</placed-at></order>`, out)
	})

	t.Run("decimal keeps its scale", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{Total: ptr(decimal.RequireFromString("7.50"))}, "")
		assert.Equal(t, "<order><total>7.50</total></order>", out)
	})

	t.Run("nested record uses field tag", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{Shipping: &testLine{SKU: ptr("s")}}, "")
		assert.Equal(t, "<order><shipping_line><sku>s</sku></shipping_line></order>", out)
	})

	t.Run("collection is a typed array", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{Lines: []testLine{{SKU: ptr("a")}}}, "")
		assert.Equal(t, `<order><lines type="array"><line><sku>a</sku></line></lines></order>`, out)
	})

	t.Run("empty collection is an empty container", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{Lines: []testLine{}}, "")
		assert.Equal(t, `<order><lines type="array"></lines></order>`, out)
	})

	t.Run("mapping keys are sorted and raw", func(t *testing.T) {
		out := testOrderSchema.Encode(&testOrder{Metadata: map[string]string{"b": "2", "a": "<1>"}}, "")
		assert.Equal(t, "<order><metadata><a>&lt;1&gt;</a><b>2</b></metadata></order>", out)
	})
}

func TestTimeRoundTrip(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	tests := []struct {
		name string
		at   time.Time
	}{
		{name: "whole seconds", at: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "nanoseconds", at: time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC)},
		{name: "non-utc offset", at: time.Date(2024, 1, 2, 22, 4, 5, 987654321, zone)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := testOrderSchema.Encode(&testOrder{ID: ptr("1"), PlacedAt: ptr(tt.at)}, "")
			got, err := testOrderSchema.Unmarshal(strings.NewReader(encoded))
			require.NoError(t, err)
			require.NotNil(t, got.PlacedAt)
			assert.True(t, tt.at.Equal(*got.PlacedAt), "want %s, got %s", tt.at, got.PlacedAt)
		})
	}
}

func TestSchemaEscaping(t *testing.T) {
	raw := `Tom & "Jerry" <cat> 'n' mouse`
	encoded := testOrderSchema.Encode(&testOrder{ID: ptr("1"), Note: ptr(raw)}, "")

	assert.NotContains(t, encoded, "<cat>")
	assert.Contains(t, encoded, "&amp;")
	assert.Contains(t, encoded, "&lt;cat&gt;")

	got, err := testOrderSchema.Unmarshal(strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, raw, *got.Note)
}

func TestSchemaEscapingControlCharacters(t *testing.T) {
	encoded := testOrderSchema.Encode(&testOrder{ID: ptr("1"), Note: ptr("a\x01b\x00c\tline\nend\uFFFE")}, "")
	assert.NotContains(t, encoded, "\x01")
	assert.NotContains(t, encoded, "\x00")

	got, err := testOrderSchema.Unmarshal(strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, "a\uFFFDb\uFFFDc\tline\nend\uFFFD", *got.Note)
	assert.Equal(t, "x\uFFFDy", Escape("x\x1fy"))
}

func TestSchemaDecode(t *testing.T) {
	t.Run("missing required field", func(t *testing.T) {
		_, err := testOrderSchema.Unmarshal(strings.NewReader("<order><note>n</note></order>"))

		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "id", missing.Tag)
		assert.Equal(t, "order/id", missing.Path)
	})

	t.Run("optional fields stay absent", func(t *testing.T) {
		got, err := testOrderSchema.Unmarshal(strings.NewReader("<order><id>1</id></order>"))
		require.NoError(t, err)
		assert.Nil(t, got.Note)
		assert.Nil(t, got.Paid)
		assert.Nil(t, got.Shipping)
		assert.Nil(t, got.Lines)
		assert.Nil(t, got.Metadata)
	})

	t.Run("nil attribute is absent", func(t *testing.T) {
		got, err := testOrderSchema.Unmarshal(strings.NewReader(`<order><id>1</id><note nil="true"/></order>`))
		require.NoError(t, err)
		assert.Nil(t, got.Note)
	})

	t.Run("nil attribute on required field is missing", func(t *testing.T) {
		_, err := testOrderSchema.Unmarshal(strings.NewReader(`<order><id nil="true"/></order>`))
		var missing *MissingFieldError
		assert.ErrorAs(t, err, &missing)
	})

	t.Run("aliases are accepted", func(t *testing.T) {
		doc := `<order><id>1</id><shipping-line><sku>s</sku></shipping-line><reference-id>r</reference-id></order>`
		got, err := testOrderSchema.Unmarshal(strings.NewReader(doc))
		require.NoError(t, err)
		require.NotNil(t, got.Shipping)
		assert.Equal(t, "s", *got.Shipping.SKU)
		assert.Equal(t, "r", *got.Reference)
	})

	t.Run("mapping keeps last duplicate", func(t *testing.T) {
		doc := `<order><id>1</id><metadata><k>first</k><k>second</k></metadata></order>`
		got, err := testOrderSchema.Unmarshal(strings.NewReader(doc))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"k": "second"}, got.Metadata)
	})

	t.Run("bad boolean is malformed", func(t *testing.T) {
		_, err := testOrderSchema.Unmarshal(strings.NewReader(`<order><id>1</id><paid type="boolean">maybe</paid></order>`))
		assert.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("nested missing field reports full path", func(t *testing.T) {
		strict := &Schema[testOrder]{
			Name: "order",
			Fields: []Field[testOrder]{
				Nested("shipping", &Schema[testLine]{
					Name:   "line",
					Fields: []Field[testLine]{Text("sku", func(l *testLine) **string { return &l.SKU }).Required()},
				}, func(o *testOrder) **testLine { return &o.Shipping }),
			},
		}
		_, err := strict.Unmarshal(strings.NewReader("<order><shipping></shipping></order>"))
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "order/shipping/sku", missing.Path)
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty body", doc: ""},
		{name: "plain text", doc: "not markup"},
		{name: "mismatched tags", doc: "<order><id>1</order>"},
		{name: "unclosed root", doc: "<order><id>1</id>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.doc)
			assert.True(t, errors.Is(err, ErrMalformedDocument), "got %v", err)
		})
	}

	t.Run("well formed", func(t *testing.T) {
		root, err := ParseString(`<?xml version="1.0" encoding="UTF-8"?><order><id>1</id></order>`)
		require.NoError(t, err)
		assert.Equal(t, "order", root.Tag)
	})
}

func TestRender(t *testing.T) {
	root, err := ParseString("<a><b>x &amp; y</b></a>")
	require.NoError(t, err)
	assert.Equal(t, "<a><b>x &amp; y</b></a>", Render(root))
	assert.Empty(t, Render(nil))
}

func TestFieldAccessors(t *testing.T) {
	f := Text("id", func(o *testOrder) **string { return &o.ID })
	assert.Equal(t, "id", f.Tag())
	assert.False(t, f.IsRequired())
	assert.True(t, f.Required().IsRequired())
	assert.False(t, f.IsRequired(), "Required returns a copy")
}

func TestPlainText(t *testing.T) {
	type record struct{ ID string }
	schema := &Schema[record]{
		Name:   "record",
		Fields: []Field[record]{PlainText("id", func(r *record) *string { return &r.ID }).Required()},
	}

	assert.Equal(t, "<record></record>", schema.Encode(&record{}, ""))
	assert.Equal(t, "<record><id>a&amp;b</id></record>", schema.Encode(&record{ID: "a&b"}, ""))

	got, err := schema.Unmarshal(strings.NewReader("<record><id>a&amp;b</id></record>"))
	require.NoError(t, err)
	assert.Equal(t, "a&b", got.ID)

	_, err = schema.Unmarshal(strings.NewReader("<record></record>"))
	var missing *MissingFieldError
	assert.ErrorAs(t, err, &missing)
}
