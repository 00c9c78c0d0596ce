// Package gatewaytest provides an in-memory fake of the payment gateway API
// for tests and local development. It speaks the same wire format as the
// real service, enforces the same authentication headers, and models the
// transaction life cycle closely enough to drive the client end to end.
package gatewaytest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"braintree/pkg/braintree"
	"braintree/pkg/credentials"
	"braintree/pkg/testutil"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Server is a fake gateway. The zero value is not usable; call New.
type Server struct {
	merchantID string
	authHeader string
	apiVersion string
	signingKey []byte
	now        func() time.Time
	logger     *slog.Logger

	mu            sync.Mutex // guards the stored resources
	transactions  map[string]*braintree.Transaction
	refunded      map[string]bool
	customers     map[string]*braintree.Customer
	subscriptions map[string]*braintree.Subscription

	hookMu   sync.Mutex // guards the test hooks; acquired after mu, never before
	forced   *forcedResponse
	encoding string

	requests atomic.Int64
}

type forcedResponse struct {
	status int
	body   string
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the time source used for timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger logs every request the server handles.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSigningKey sets the HMAC key used to sign client token fingerprints.
func WithSigningKey(key []byte) Option {
	return func(s *Server) {
		if len(key) > 0 {
			s.signingKey = key
		}
	}
}

// New creates a fake gateway accepting the given merchant and key pair.
func New(merchantID, publicKey, privateKey string, opts ...Option) (*Server, error) {
	key, err := credentials.NewAPIKey(credentials.Sandbox, merchantID, publicKey, privateKey)
	if err != nil {
		return nil, err
	}
	s := &Server{
		merchantID:    merchantID,
		authHeader:    key.AuthorizationHeader(),
		apiVersion:    "4",
		signingKey:    []byte(uuid.NewString()),
		now:           time.Now,
		logger:        slog.New(slog.DiscardHandler),
		transactions:  make(map[string]*braintree.Transaction),
		refunded:      make(map[string]bool),
		customers:     make(map[string]*braintree.Customer),
		subscriptions: make(map[string]*braintree.Subscription),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// NewGateway starts a fake gateway on a loopback listener and returns a
// sandbox Gateway pointed at it. Both are torn down with the test.
func NewGateway(t testing.TB, opts ...braintree.Option) (*braintree.Gateway, *Server) {
	t.Helper()

	s, err := New(testutil.MerchantID, testutil.PublicKey, testutil.PrivateKey)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	opts = append([]braintree.Option{braintree.WithBaseURL(ts.URL)}, opts...)
	gw, err := braintree.New(credentials.Sandbox, testutil.MerchantID, testutil.PublicKey, testutil.PrivateKey, opts...)
	require.NoError(t, err)
	return gw, s
}

// Handler returns a router serving /health and the merchant API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.Register(r)
	return r
}

// Register mounts the merchant API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Route("/merchants/{merchantID}", func(r chi.Router) {
		r.Use(s.logRequests, s.authenticate, s.applyForced)

		r.Post("/client_token", s.handleClientToken)

		r.Post("/customers", s.handleCreateCustomer)
		r.Get("/customers/{id}", s.handleFindCustomer)

		r.Post("/transactions", s.handleCreateTransaction)
		r.Get("/transactions/{id}", s.handleFindTransaction)
		r.Put("/transactions/{id}/submit_for_settlement", s.handleSubmitForSettlement)
		r.Put("/transactions/{id}/void", s.handleVoid)
		r.Post("/transactions/{id}/refund", s.handleRefund)
		r.Put("/transactions/{id}/settle", s.handleForceSettlement(braintree.StatusSettled))
		r.Put("/transactions/{id}/settlement_confirm", s.handleForceSettlement(braintree.StatusSettlementConfirmed))
		r.Put("/transactions/{id}/settlement_decline", s.handleForceSettlement(braintree.StatusSettlementDeclined))
		r.Put("/transactions/{id}/settlement_pending", s.handleForceSettlement(braintree.StatusSettlementPending))

		r.Post("/subscriptions", s.handleCreateSubscription)
	})
}

// ForceStatus makes the next authenticated request answer with status and
// body, bypassing the normal handler.
func (s *Server) ForceStatus(status int, body string) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.forced = &forcedResponse{status: status, body: body}
}

// ForceEncoding sets the Content-Encoding of subsequent responses. "gzip"
// compresses every response; any other value is sent as a header over an
// uncompressed body. The empty string restores negotiation on Accept-Encoding.
func (s *Server) ForceEncoding(encoding string) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.encoding = encoding
}

// Ready reports whether the store can be reached before ctx ends and no
// forced response is waiting to replace a genuine one.
func (s *Server) Ready(ctx context.Context) error {
	acquired := make(chan struct{})
	go func() {
		s.mu.Lock()
		close(acquired)
		s.mu.Unlock()
	}()
	select {
	case <-acquired:
	case <-ctx.Done():
		return fmt.Errorf("store busy: %w", ctx.Err())
	}

	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	if s.forced != nil {
		return fmt.Errorf("forced %d response pending", s.forced.status)
	}
	return nil
}

// Requests returns how many merchant API requests reached the server.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// Transaction returns a copy of a stored transaction.
func (s *Server) Transaction(id string) (braintree.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return braintree.Transaction{}, false
	}
	return *t, true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		start := s.now()
		next.ServeHTTP(w, r)
		s.logger.InfoContext(r.Context(), "fake gateway request",
			"method", r.Method,
			"path", r.URL.EscapedPath(),
			"duration_ms", s.now().Sub(start).Milliseconds(),
		)
	})
}

// authenticate mirrors the gateway's request checks: merchant, basic auth,
// API version and content type.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "merchantID") != s.merchantID {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != s.authHeader {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-ApiVersion") != s.apiVersion {
			s.writeError(w, r, http.StatusBadRequest, "Unsupported API version.", "", nil)
			return
		}
		if r.ContentLength > 0 && !strings.HasPrefix(r.Header.Get("Content-Type"), "application/xml") {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) applyForced(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hookMu.Lock()
		forced := s.forced
		s.forced = nil
		s.hookMu.Unlock()

		if forced == nil {
			next.ServeHTTP(w, r)
			return
		}
		s.write(w, r, forced.status, forced.body)
	})
}

// write sends body with the negotiated or forced content encoding. An empty
// body is sent without a document.
func (s *Server) write(w http.ResponseWriter, r *http.Request, status int, body string) {
	s.hookMu.Lock()
	encoding := s.encoding
	s.hookMu.Unlock()
	if encoding == "" && strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		encoding = "gzip"
	}

	if body != "" {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	}
	if encoding != "" {
		w.Header().Set("Content-Encoding", encoding)
	}
	w.WriteHeader(status)

	var out io.Writer = w
	if encoding == "gzip" {
		zw := gzip.NewWriter(w)
		defer zw.Close()
		out = zw
	}
	if body != "" {
		_, _ = io.WriteString(out, body)
	}
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, status int, doc string) {
	s.write(w, r, status, xmlHeader+doc)
}

func (s *Server) newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
