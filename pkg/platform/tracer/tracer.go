// Package tracer provides a small tracing abstraction for gateway calls.
//
// The gateway emits one span per resource operation without depending on
// OpenTelemetry directly. Two implementations exist:
//   - NoopTracer: default, and for tests
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	//
	// Example:
	//   ctx, span := tr.Start(ctx, tracer.SpanName("transaction", "create"),
	//       tracer.String(tracer.AttrHTTPMethod, "POST"),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// SpanName builds the span name for a resource operation,
// e.g. "braintree.transaction.create".
func SpanName(resource, operation string) string {
	return SpanPrefix + "." + resource + "." + operation
}

const SpanPrefix = "braintree"

// Attribute keys used by the gateway.
const (
	AttrHTTPMethod  = "http.method"
	AttrHTTPPath    = "http.path"
	AttrHTTPStatus  = "http.status_code"
	AttrEnvironment = "braintree.environment"
	AttrMerchantID  = "braintree.merchant_id"
	AttrRequestID   = "braintree.request_id"
	AttrErrorKind   = "error.kind"
	AttrEncoding    = "http.content_encoding"
)

// Event names used by the gateway.
const (
	EventResponseReceived = "response.received"
	EventSandboxGuard     = "sandbox.guard"
)
