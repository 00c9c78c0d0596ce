// Package markup converts domain records to and from the gateway's XML wire
// format.
//
// Each record type declares a Schema: an ordered table of fields, each naming
// the child element it maps to and how its value is written and read. One
// generic routine walks the table in both directions, so no record carries
// hand-written marshalling code.
//
// Encoding omits absent fields entirely. Decoding is strict only for fields
// marked Required; optional fields that are missing (or sent as nil="true")
// stay absent on the decoded record.
package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// ErrMalformedDocument is returned (wrapped) when a body is not well-formed
// markup or a scalar element holds text that cannot be parsed.
var ErrMalformedDocument = errors.New("malformed document")

// MissingFieldError reports a required element that was not present.
type MissingFieldError struct {
	Tag  string // element name declared by the schema
	Path string // slash-separated location, starting at the root element
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required element %q", e.Path)
}

// Parse reads a whole document and returns its root element.
func Parse(r io.Reader) (*etree.Element, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	return root, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*etree.Element, error) {
	return Parse(strings.NewReader(s))
}

// Render serializes an element subtree back to markup. Used for diagnostics
// on retained error documents.
func Render(el *etree.Element) string {
	if el == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// Escape returns s with markup-significant characters replaced by entities.
// Characters a document may not contain are replaced with U+FFFD.
func Escape(s string) string {
	var b strings.Builder
	escapeTo(&b, s)
	return b.String()
}

func escapeTo(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&#34;")
		case '\'':
			b.WriteString("&#39;")
		case '\r':
			b.WriteString("&#xD;")
		default:
			if !allowedChar(r) {
				r = '\uFFFD'
			}
			b.WriteRune(r)
		}
	}
}

// allowedChar reports whether r is in the XML 1.0 Char production.
func allowedChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// writeElement writes <tag type="typ">text</tag>; typ may be empty.
func writeElement(b *strings.Builder, tag, typ, text string) {
	b.WriteByte('<')
	b.WriteString(tag)
	if typ != "" {
		b.WriteString(` type="`)
		b.WriteString(typ)
		b.WriteByte('"')
	}
	b.WriteByte('>')
	escapeTo(b, text)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

func openElement(b *strings.Builder, tag, typ string) {
	b.WriteByte('<')
	b.WriteString(tag)
	if typ != "" {
		b.WriteString(` type="`)
		b.WriteString(typ)
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

func closeElement(b *strings.Builder, tag string) {
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

// isNil reports whether the gateway marked the element as explicitly empty.
func isNil(el *etree.Element) bool {
	return el.SelectAttrValue("nil", "") == "true"
}

func joinPath(parent, tag string) string {
	if parent == "" {
		return tag
	}
	return parent + "/" + tag
}
