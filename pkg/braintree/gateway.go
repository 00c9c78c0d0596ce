// Package braintree is a client for the Braintree payment gateway.
//
// A Gateway is built once from merchant credentials and is safe for
// concurrent use. Each resource operation encodes its request record, sends
// it, and branches on the response status: the designated success status
// decodes into a result record, anything else into an *APIError. Every
// other failure is an *Error whose Kind tells the caller what went wrong.
//
//	gw, err := braintree.New(credentials.Sandbox, merchantID, publicKey, privateKey)
//	txn, err := gw.Transaction().Create(ctx, &braintree.TransactionRequest{
//		Amount: braintree.Decimal("10.00"),
//		PaymentMethodNonce: braintree.String(nonce),
//		Options: &braintree.TransactionOptions{SubmitForSettlement: braintree.Bool(true)},
//	})
package braintree

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"braintree/internal/transport"
	"braintree/pkg/credentials"
	"braintree/pkg/markup"
	"braintree/pkg/platform/circuit"
	"braintree/pkg/platform/metrics"
	"braintree/pkg/platform/tracer"
)

// Version is reported in the User-Agent header.
const Version = "0.4.0"

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer = transport.HTTPDoer

// Gateway is a handle to the gateway API for one merchant.
type Gateway struct {
	creds   credentials.Provider
	client  *transport.Client
	logger  *slog.Logger
	tracer  tracer.Tracer
	metrics *metrics.Metrics
	breaker *circuit.Breaker
}

type options struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	rootCAs    []byte
	logger     *slog.Logger
	tracer     tracer.Tracer
	metrics    *metrics.Metrics
	breaker    *circuit.Breaker
}

// Option configures a Gateway.
type Option func(*options)

// WithHTTPClient replaces the default HTTP client. WithTimeout and
// WithRootCAs have no effect when it is set.
func WithHTTPClient(c HTTPDoer) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithBaseURL targets a different origin than the environment's, such as a
// fake gateway in tests.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithTimeout bounds each call made by the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRootCAs trusts the given PEM bundle instead of the system pool.
func WithRootCAs(pem []byte) Option {
	return func(o *options) {
		o.rootCAs = pem
	}
}

// WithLogger sets the structured logger. Logging is discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer sets the tracer used for per-operation spans.
func WithTracer(t tracer.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithMetrics records per-operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBreaker rejects calls without dialing while b is open.
func WithBreaker(b *circuit.Breaker) Option {
	return func(o *options) {
		o.breaker = b
	}
}

// New builds a Gateway from API key credentials.
func New(env credentials.Environment, merchantID, publicKey, privateKey string, opts ...Option) (*Gateway, error) {
	key, err := credentials.NewAPIKey(env, merchantID, publicKey, privateKey)
	if err != nil {
		return nil, &Error{Kind: KindSetup, Op: "gateway.new", Err: err}
	}
	return NewWithCredentials(key, opts...)
}

// NewWithCredentials builds a Gateway from any credential provider.
func NewWithCredentials(creds credentials.Provider, opts ...Option) (*Gateway, error) {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.tracer == nil {
		o.tracer = tracer.NewNoop()
	}

	client, err := transport.New(transport.Config{
		BaseURL:     o.baseURL,
		Credentials: creds,
		HTTPClient:  o.httpClient,
		UserAgent:   "Braintree Go " + Version,
		Timeout:     o.timeout,
		RootCAs:     o.rootCAs,
		Breaker:     o.breaker,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, classify("gateway.new", err)
	}

	return &Gateway{
		creds:   creds,
		client:  client,
		logger:  o.logger,
		tracer:  o.tracer,
		metrics: o.metrics,
		breaker: o.breaker,
	}, nil
}

// Environment reports which deployment the gateway talks to.
func (g *Gateway) Environment() credentials.Environment {
	return g.creds.Environment()
}

// MerchantURL returns the merchant-scoped base URL requests resolve against.
func (g *Gateway) MerchantURL() string {
	return g.client.MerchantURL()
}

func (g *Gateway) ClientToken() *ClientTokenGateway {
	return &ClientTokenGateway{g}
}

func (g *Gateway) Customer() *CustomerGateway {
	return &CustomerGateway{g}
}

func (g *Gateway) Transaction() *TransactionGateway {
	return &TransactionGateway{g}
}

func (g *Gateway) Subscription() *SubscriptionGateway {
	return &SubscriptionGateway{g}
}

// Testing exposes sandbox-only operations.
func (g *Gateway) Testing() *TestingGateway {
	return &TestingGateway{g}
}

// call describes one resource operation.
type call struct {
	resource string
	op       string
	method   string
	path     string
	body     []byte
	success  []int
}

func (c call) name() string {
	return c.resource + "." + c.op
}

// execute sends c and decodes the response with schema: the success statuses
// decode into *T, any other status into *APIError.
func execute[T any](ctx context.Context, g *Gateway, c call, schema *markup.Schema[T]) (result *T, err error) {
	op := c.name()
	requestID := uuid.NewString()
	start := time.Now()
	status := 0

	ctx, span := g.tracer.Start(ctx, tracer.SpanName(c.resource, c.op),
		tracer.String(tracer.AttrHTTPMethod, c.method),
		tracer.String(tracer.AttrHTTPPath, c.path),
		tracer.String(tracer.AttrEnvironment, g.creds.Environment().String()),
		tracer.String(tracer.AttrMerchantID, g.creds.MerchantID()),
		tracer.String(tracer.AttrRequestID, requestID),
	)
	defer func() {
		if err != nil {
			span.SetAttributes(tracer.String(tracer.AttrErrorKind, string(KindOf(err))))
		}
		span.End(err)
		g.observe(ctx, op, c, requestID, status, time.Since(start), err)
	}()

	resp, err := g.client.Execute(ctx, c.method, c.path, c.body)
	if err != nil {
		return nil, classify(op, err)
	}
	status = resp.StatusCode
	span.SetAttributes(tracer.Int64(tracer.AttrHTTPStatus, int64(status)))
	span.AddEvent(tracer.EventResponseReceived,
		tracer.String(tracer.AttrEncoding, resp.Header.Get("Content-Encoding")),
	)

	if !slices.Contains(c.success, status) {
		return nil, decodeAPIError(op, resp)
	}

	body, err := transport.ReadBody(resp)
	if err != nil {
		return nil, classify(op, err)
	}
	v, err := schema.Unmarshal(bytes.NewReader(body))
	if err != nil {
		return nil, classify(op, err)
	}
	return v, nil
}

func (g *Gateway) observe(ctx context.Context, op string, c call, requestID string, status int, elapsed time.Duration, err error) {
	outcome := metrics.OutcomeSuccess
	level := slog.LevelInfo
	attrs := []any{
		"operation", op,
		"method", c.method,
		"path", c.path,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", requestID,
	}

	var apiErr *APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		outcome = metrics.OutcomeAPIError
		level = slog.LevelWarn
		g.metrics.RecordAPIError(op, strconv.Itoa(apiErr.StatusCode))
		attrs = append(attrs, "error_kind", KindAPI, "message", apiErr.Message)
	case errors.Is(err, transport.ErrCircuitOpen):
		outcome = metrics.OutcomeRejected
		level = slog.LevelWarn
		attrs = append(attrs, "error_kind", KindTransport, "error", err)
	default:
		outcome = metrics.OutcomeFailure
		level = slog.LevelError
		attrs = append(attrs, "error_kind", KindOf(err), "error", err)
	}

	g.metrics.ObserveRequest(op, outcome, elapsed)
	if g.breaker != nil {
		g.metrics.SetCircuitOpen(g.breaker.IsOpen())
	}
	g.logger.Log(ctx, level, "gateway call", attrs...)
}

// decodeAPIError reads a non-success response into an *APIError. A body that
// is present but not markup is reported as malformed.
func decodeAPIError(op string, resp *http.Response) error {
	body, err := transport.ReadBody(resp)
	if err != nil {
		return classify(op, err)
	}

	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(body)) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	root, err := markup.Parse(bytes.NewReader(body))
	if err != nil {
		return classify(op, err)
	}
	apiErr.Raw = root

	apiErr.Message = http.StatusText(resp.StatusCode)
	if msg := root.SelectElement("message"); msg != nil && strings.TrimSpace(msg.Text()) != "" {
		apiErr.Message = strings.TrimSpace(msg.Text())
	}
	for _, el := range root.FindElements(".//error") {
		if ve, err := validationErrorSchema.Decode(el); err == nil {
			apiErr.Errors = append(apiErr.Errors, *ve)
		}
	}
	if el := root.SelectElement("transaction"); el != nil {
		if txn, err := TransactionSchema.Decode(el); err == nil {
			apiErr.Transaction = txn
		}
	}
	return apiErr
}

// idPath joins an escaped identifier into a resource path, e.g.
// idPath("transactions", id, "void") is "transactions/<id>/void".
func idPath(op, collection, id string, action ...string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", &Error{Kind: KindInvalidRequest, Op: op, Message: "id is required"}
	}
	parts := append([]string{collection, url.PathEscape(id)}, action...)
	return strings.Join(parts, "/"), nil
}
