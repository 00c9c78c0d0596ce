// Package transport issues authenticated requests against the merchant-scoped
// gateway API and normalizes the response bodies it returns.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"braintree/pkg/credentials"
	"braintree/pkg/platform/circuit"
)

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks HTTPDoer

const (
	// ContentType is the media type of every request and response body.
	ContentType = "application/xml"

	// DefaultAPIVersion is sent in the X-ApiVersion header.
	DefaultAPIVersion = 4

	// DefaultTimeout bounds a whole exchange when the caller does not supply
	// its own HTTP client.
	DefaultTimeout = 60 * time.Second

	defaultUserAgent = "Braintree Go"
)

// ErrCircuitOpen is returned (wrapped in *Error) when the breaker rejects a
// request without dialing.
var ErrCircuitOpen = errors.New("circuit open")

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	// BaseURL overrides the environment origin, e.g. to target a fake gateway.
	BaseURL     string
	Credentials credentials.Provider
	HTTPClient  HTTPDoer
	UserAgent   string
	APIVersion  int
	Timeout     time.Duration
	// RootCAs is a PEM bundle trusted instead of the system pool. Ignored
	// when HTTPClient is set.
	RootCAs []byte
	Breaker *circuit.Breaker
	// Logger receives breaker transitions. Defaults to discarding.
	Logger *slog.Logger
}

// Client sends requests relative to <base>/merchants/<merchant_id>/.
// It is safe for concurrent use.
type Client struct {
	merchantURL string
	creds       credentials.Provider
	client      HTTPDoer
	userAgent   string
	apiVersion  string
	breaker     *circuit.Breaker
	logger      *slog.Logger
}

// New validates cfg and precomputes the merchant-scoped base URL.
func New(cfg Config) (*Client, error) {
	if cfg.Credentials == nil {
		return nil, &SetupError{Reason: "credentials are required"}
	}

	base := cfg.BaseURL
	if base == "" {
		base = cfg.Credentials.Environment().BaseURL()
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, &SetupError{Reason: "invalid base url", Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &SetupError{Reason: fmt.Sprintf("invalid base url %q", base)}
	}

	client, err := selectHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.APIVersion == 0 {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		merchantURL: strings.TrimRight(u.String(), "/") + "/merchants/" + url.PathEscape(cfg.Credentials.MerchantID()) + "/",
		creds:       cfg.Credentials,
		client:      client,
		userAgent:   cfg.UserAgent,
		apiVersion:  strconv.Itoa(cfg.APIVersion),
		breaker:     cfg.Breaker,
		logger:      cfg.Logger,
	}, nil
}

func selectHTTPClient(cfg Config) (HTTPDoer, error) {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient, nil
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	if len(cfg.RootCAs) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(cfg.RootCAs) {
			return nil, &SetupError{Reason: "no certificates found in root CA bundle"}
		}
		tr.TLSClientConfig.RootCAs = pool
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: tr,
	}, nil
}

// MerchantURL returns the resolved merchant-scoped base URL.
func (c *Client) MerchantURL() string {
	return c.merchantURL
}

// Environment reports the environment of the configured credentials.
func (c *Client) Environment() credentials.Environment {
	return c.creds.Environment()
}

// Execute sends one request. relativePath must already be escaped. A nil
// body sends no payload. The caller owns the returned response body.
func (c *Client) Execute(ctx context.Context, method, relativePath string, body []byte) (*http.Response, error) {
	op := method + " " + relativePath

	if c.breaker != nil && !c.breaker.Allow() {
		return nil, &Error{Op: op, Err: ErrCircuitOpen}
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := newRequest(ctx, method, c.merchantURL+strings.TrimLeft(relativePath, "/"), reader)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	if body != nil {
		req.ContentLength = int64(len(body))
	}

	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("Accept", ContentType)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", c.creds.AuthorizationHeader())
	req.Header.Set("X-ApiVersion", c.apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		// Cancellation by the caller is not a gateway failure.
		if ctx.Err() == nil {
			c.recordFailure(ctx, err)
		}
		return nil, &Error{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		c.recordFailure(ctx, fmt.Errorf("gateway returned %d", resp.StatusCode))
	default:
		c.recordSuccess(ctx)
	}
	return resp, nil
}

// newRequest avoids handing a typed nil *bytes.Reader to net/http.
func newRequest(ctx context.Context, method, target string, body *bytes.Reader) (*http.Request, error) {
	if body == nil {
		return http.NewRequestWithContext(ctx, method, target, nil)
	}
	return http.NewRequestWithContext(ctx, method, target, body)
}

func (c *Client) recordFailure(ctx context.Context, cause error) {
	if c.breaker == nil {
		return
	}
	if change := c.breaker.RecordFailure(); change.Opened {
		c.logger.ErrorContext(ctx, "circuit breaker opened",
			"circuit", c.breaker.Name(),
			"error", cause,
		)
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "circuit breaker closed",
			"circuit", c.breaker.Name(),
		)
	}
}

// Error is a failure before any response was received: DNS, TLS, reset,
// cancellation, or a breaker rejection.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline or network timeout.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// SetupError reports a client that could not be constructed.
type SetupError struct {
	Reason string
	Err    error
}

func (e *SetupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport setup: %s: %v", e.Reason, e.Err)
	}
	return "transport setup: " + e.Reason
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
