package markup

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Type attribute values the gateway uses to disambiguate scalar text.
const (
	TypeBoolean  = "boolean"
	TypeInteger  = "integer"
	TypeDatetime = "datetime"
	TypeArray    = "array"
)

// Schema is the field table for one record type.
type Schema[T any] struct {
	// Name is the element name used when the caller does not supply one.
	Name   string
	Fields []Field[T]
}

// Field maps one record field to a child element. Build fields with the
// constructors in this package (Text, Bool, Nested, ...).
type Field[T any] struct {
	tag      string
	aliases  []string
	required bool
	encode   func(b *strings.Builder, v *T)
	decode   func(el *etree.Element, v *T, path string) error
}

// Tag returns the element name written on encode.
func (f Field[T]) Tag() string { return f.tag }

// IsRequired reports whether decoding fails when the element is absent.
func (f Field[T]) IsRequired() bool { return f.required }

// Required returns a copy of f whose absence fails decoding.
func (f Field[T]) Required() Field[T] {
	f.required = true
	return f
}

// Alias returns a copy of f that also accepts the given lookup paths when
// decoding. Paths may name descendants ("credit-cards/credit-card").
func (f Field[T]) Alias(paths ...string) Field[T] {
	f.aliases = append(append([]string(nil), f.aliases...), paths...)
	return f
}

func (f Field[T]) locate(parent *etree.Element) (*etree.Element, string) {
	for _, p := range append([]string{f.tag}, f.aliases...) {
		var el *etree.Element
		if strings.Contains(p, "/") {
			el = parent.FindElement(p)
		} else {
			el = parent.SelectElement(p)
		}
		if el != nil {
			return el, p
		}
	}
	return nil, f.tag
}

// Encode renders v as a single element named name, or Schema.Name when name
// is empty. A nil v renders nothing.
func (s *Schema[T]) Encode(v *T, name string) string {
	if v == nil {
		return ""
	}
	var b strings.Builder
	s.encodeTo(&b, v, name)
	return b.String()
}

func (s *Schema[T]) encodeTo(b *strings.Builder, v *T, name string) {
	if name == "" {
		name = s.Name
	}
	openElement(b, name, "")
	for _, f := range s.Fields {
		f.encode(b, v)
	}
	closeElement(b, name)
}

// Decode builds a record from el's children.
func (s *Schema[T]) Decode(el *etree.Element) (*T, error) {
	if el == nil {
		return nil, fmt.Errorf("%w: no element", ErrMalformedDocument)
	}
	v := new(T)
	if err := s.decodeInto(el, v, el.Tag); err != nil {
		return nil, err
	}
	return v, nil
}

// Unmarshal parses a document from r and decodes its root element.
func (s *Schema[T]) Unmarshal(r io.Reader) (*T, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return s.Decode(root)
}

func (s *Schema[T]) decodeInto(el *etree.Element, v *T, path string) error {
	for _, f := range s.Fields {
		child, matched := f.locate(el)
		if child == nil || isNil(child) {
			if f.required {
				return &MissingFieldError{Tag: f.tag, Path: joinPath(path, matched)}
			}
			continue
		}
		if err := f.decode(child, v, joinPath(path, matched)); err != nil {
			return err
		}
	}
	return nil
}

// scalar builds a field whose value is a pointer to a text-representable V.
func scalar[T, V any](
	tag, typ string,
	ptr func(*T) **V,
	format func(V) string,
	parse func(string) (V, error),
) Field[T] {
	return Field[T]{
		tag: tag,
		encode: func(b *strings.Builder, v *T) {
			if p := *ptr(v); p != nil {
				writeElement(b, tag, typ, format(*p))
			}
		},
		decode: func(el *etree.Element, v *T, path string) error {
			parsed, err := parse(el.Text())
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMalformedDocument, path, err)
			}
			*ptr(v) = &parsed
			return nil
		},
	}
}

// Text maps a string field.
func Text[T any](tag string, ptr func(*T) **string) Field[T] {
	return scalar(tag, "", ptr,
		func(s string) string { return s },
		func(s string) (string, error) { return s, nil },
	)
}

// PlainText maps a non-pointer string field. The empty string is absent,
// which suits identifiers that are either assigned or not.
func PlainText[T any](tag string, ptr func(*T) *string) Field[T] {
	return Field[T]{
		tag: tag,
		encode: func(b *strings.Builder, v *T) {
			if s := *ptr(v); s != "" {
				writeElement(b, tag, "", s)
			}
		},
		decode: func(el *etree.Element, v *T, _ string) error {
			*ptr(v) = el.Text()
			return nil
		},
	}
}

// Bool maps a boolean field, written with type="boolean".
func Bool[T any](tag string, ptr func(*T) **bool) Field[T] {
	return scalar(tag, TypeBoolean, ptr,
		strconv.FormatBool,
		func(s string) (bool, error) { return strconv.ParseBool(strings.TrimSpace(s)) },
	)
}

// Integer maps an int field, written with type="integer".
func Integer[T any](tag string, ptr func(*T) **int) Field[T] {
	return scalar(tag, TypeInteger, ptr,
		strconv.Itoa,
		func(s string) (int, error) { return strconv.Atoi(strings.TrimSpace(s)) },
	)
}

// Decimal maps a money amount. The scale of the value is preserved, so
// "10.00" is written back as "10.00".
func Decimal[T any](tag string, ptr func(*T) **decimal.Decimal) Field[T] {
	return scalar(tag, "", ptr,
		func(d decimal.Decimal) string {
			places := -d.Exponent()
			if places < 0 {
				places = 0
			}
			return d.StringFixed(places)
		},
		func(s string) (decimal.Decimal, error) { return decimal.NewFromString(strings.TrimSpace(s)) },
	)
}

// Time maps a timestamp, written in RFC 3339 UTC with type="datetime".
// Fractional seconds are kept to the nanosecond.
func Time[T any](tag string, ptr func(*T) **time.Time) Field[T] {
	return scalar(tag, TypeDatetime, ptr,
		func(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) },
		func(s string) (time.Time, error) { return time.Parse(time.RFC3339, strings.TrimSpace(s)) },
	)
}

// Nested maps a field holding another record. The nested record is written
// under tag, which may differ from the nested schema's default name.
func Nested[T, N any](tag string, schema *Schema[N], ptr func(*T) **N) Field[T] {
	return Field[T]{
		tag: tag,
		encode: func(b *strings.Builder, v *T) {
			if n := *ptr(v); n != nil {
				schema.encodeTo(b, n, tag)
			}
		},
		decode: func(el *etree.Element, v *T, path string) error {
			n := new(N)
			if err := schema.decodeInto(el, n, path); err != nil {
				return err
			}
			*ptr(v) = n
			return nil
		},
	}
}

// Collection maps a slice of records held in a type="array" container whose
// children are all named itemTag. A nil slice is absent; an empty slice is
// written as an empty container.
func Collection[T, N any](tag, itemTag string, schema *Schema[N], ptr func(*T) *[]N) Field[T] {
	return Field[T]{
		tag: tag,
		encode: func(b *strings.Builder, v *T) {
			items := *ptr(v)
			if items == nil {
				return
			}
			openElement(b, tag, TypeArray)
			for i := range items {
				schema.encodeTo(b, &items[i], itemTag)
			}
			closeElement(b, tag)
		},
		decode: func(el *etree.Element, v *T, path string) error {
			children := el.SelectElements(itemTag)
			items := make([]N, len(children))
			for i, child := range children {
				if err := schema.decodeInto(child, &items[i], fmt.Sprintf("%s/%s[%d]", path, itemTag, i)); err != nil {
					return err
				}
			}
			*ptr(v) = items
			return nil
		},
	}
}

// Mapping maps caller-defined key/value pairs held under a container
// element, one child per key. Keys are written as element names verbatim,
// so each must already be a valid element name. Keys are emitted in sorted
// order; on decode a repeated key keeps its last value.
func Mapping[T any](tag string, ptr func(*T) *map[string]string) Field[T] {
	return Field[T]{
		tag: tag,
		encode: func(b *strings.Builder, v *T) {
			m := *ptr(v)
			if m == nil {
				return
			}
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			openElement(b, tag, "")
			for _, k := range keys {
				writeElement(b, k, "", m[k])
			}
			closeElement(b, tag)
		},
		decode: func(el *etree.Element, v *T, _ string) error {
			m := make(map[string]string)
			for _, child := range el.ChildElements() {
				m[child.Tag] = child.Text()
			}
			*ptr(v) = m
			return nil
		},
	}
}
