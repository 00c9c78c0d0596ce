package braintree

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"braintree/internal/transport"
	"braintree/pkg/markup"
)

// ErrorKind classifies every failure a gateway operation can return.
type ErrorKind string

const (
	// KindAPI means the gateway answered with a non-success status.
	KindAPI ErrorKind = "api"

	// KindTransport means no response was received: DNS, TLS, reset,
	// cancellation, or an open circuit breaker.
	KindTransport ErrorKind = "transport"

	// KindTestOperationInProduction means a sandbox-only operation was
	// called with production credentials. No request was sent.
	KindTestOperationInProduction ErrorKind = "test_operation_in_production"

	// KindSetup means the gateway could not be constructed.
	KindSetup ErrorKind = "setup"

	// KindMalformedDocument means a response body was not well-formed markup
	// or held an unparsable value.
	KindMalformedDocument ErrorKind = "malformed_document"

	// KindMissingField means a response lacked a required element.
	KindMissingField ErrorKind = "missing_field"

	// KindUnsupportedEncoding means the response used a Content-Encoding
	// other than gzip or identity.
	KindUnsupportedEncoding ErrorKind = "unsupported_encoding"

	// KindInvalidRequest means the call was rejected locally, e.g. an empty id.
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindUnknown is reported for errors this package did not produce.
	KindUnknown ErrorKind = "unknown"
)

// ErrTestOperationInProduction is wrapped by the error testing operations
// return for production credentials.
var ErrTestOperationInProduction = errors.New("testing operations are only available in sandbox")

// Error is returned for every failure other than a gateway error response.
type Error struct {
	Kind    ErrorKind
	Op      string // resource operation, e.g. "transaction.void"
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("braintree [%s]: %s", e.Kind, msg)
	}
	return fmt.Sprintf("braintree %s [%s]: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError is one entry of the gateway's error list.
type ValidationError struct {
	Attribute string
	Code      string
	Message   string
}

var validationErrorSchema = &markup.Schema[ValidationError]{
	Name: "error",
	Fields: []markup.Field[ValidationError]{
		markup.PlainText("attribute", func(v *ValidationError) *string { return &v.Attribute }),
		markup.PlainText("code", func(v *ValidationError) *string { return &v.Code }),
		markup.PlainText("message", func(v *ValidationError) *string { return &v.Message }),
	},
}

// APIError is a non-success response from the gateway.
type APIError struct {
	Op         string
	StatusCode int
	// Message is the gateway's message, or the status text when the body
	// carried none.
	Message string
	// Raw is the parsed response document, nil for an empty body.
	Raw *etree.Element
	// Errors lists every validation error found anywhere in Raw.
	Errors []ValidationError
	// Transaction is set when the gateway declined a transaction and
	// returned it alongside the error.
	Transaction *Transaction
}

func (e *APIError) Error() string {
	return fmt.Sprintf("braintree %s: %d: %s", e.Op, e.StatusCode, e.Message)
}

// KindOf reports the kind of err. It returns "" for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return KindAPI
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is of kind k.
func IsKind(err error, k ErrorKind) bool {
	return KindOf(err) == k
}

// classify wraps a lower-layer failure in an *Error of the matching kind.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		e        *Error
		apiErr   *APIError
		setupErr *transport.SetupError
		encErr   *transport.UnsupportedEncodingError
		missing  *markup.MissingFieldError
	)
	switch {
	case errors.As(err, &e), errors.As(err, &apiErr):
		return err
	case errors.As(err, &setupErr):
		return &Error{Kind: KindSetup, Op: op, Err: err}
	case errors.As(err, &encErr):
		return &Error{Kind: KindUnsupportedEncoding, Op: op, Err: err}
	case errors.As(err, &missing):
		return &Error{Kind: KindMissingField, Op: op, Err: err}
	case errors.Is(err, markup.ErrMalformedDocument):
		return &Error{Kind: KindMalformedDocument, Op: op, Err: err}
	default:
		// Includes *transport.Error and failures reading the body.
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
}
