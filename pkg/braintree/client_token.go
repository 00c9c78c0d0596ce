package braintree

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"braintree/pkg/markup"
)

// DefaultClientTokenVersion is requested when ClientTokenRequest.Version is nil.
const DefaultClientTokenVersion = 2

// ClientTokenOptions only apply when CustomerID is set.
type ClientTokenOptions struct {
	FailOnDuplicatePaymentMethod *bool
	MakeDefault                  *bool
	VerifyCard                   *bool
}

var clientTokenOptionsSchema = &markup.Schema[ClientTokenOptions]{
	Name: "options",
	Fields: []markup.Field[ClientTokenOptions]{
		markup.Bool("fail-on-duplicate-payment-method", func(o *ClientTokenOptions) **bool {
			return &o.FailOnDuplicatePaymentMethod
		}),
		markup.Bool("make-default", func(o *ClientTokenOptions) **bool { return &o.MakeDefault }),
		markup.Bool("verify-card", func(o *ClientTokenOptions) **bool { return &o.VerifyCard }),
	},
}

// ClientTokenRequest asks for a token a client SDK uses to talk to the
// gateway directly.
type ClientTokenRequest struct {
	// CustomerID lets Drop-in show the customer's vaulted payment methods.
	CustomerID        *string
	MerchantAccountID *string
	Options           *ClientTokenOptions
	Version           *int
}

// ClientTokenRequestSchema maps ClientTokenRequest to its wire form.
// Callers must not modify it.
var ClientTokenRequestSchema = &markup.Schema[ClientTokenRequest]{
	Name: "client-token",
	Fields: []markup.Field[ClientTokenRequest]{
		markup.Text("customer-id", func(r *ClientTokenRequest) **string { return &r.CustomerID }),
		markup.Text("merchant-account-id", func(r *ClientTokenRequest) **string { return &r.MerchantAccountID }),
		markup.Nested("options", clientTokenOptionsSchema, func(r *ClientTokenRequest) **ClientTokenOptions { return &r.Options }),
		markup.Integer("version", func(r *ClientTokenRequest) **int { return &r.Version }),
	},
}

// ClientToken is the opaque value handed to a client SDK.
type ClientToken struct {
	Value string
}

// ClientTokenSchema maps ClientToken to its wire form. Callers must not modify it.
var ClientTokenSchema = &markup.Schema[ClientToken]{
	Name: "client-token",
	Fields: []markup.Field[ClientToken]{
		markup.PlainText("value", func(t *ClientToken) *string { return &t.Value }).Required(),
	},
}

// ClientTokenFingerprint is the decoded payload of a client token.
type ClientTokenFingerprint struct {
	Version                  int    `json:"version"`
	AuthorizationFingerprint string `json:"authorizationFingerprint"`
	ConfigURL                string `json:"configUrl"`
	MerchantID               string `json:"merchantId"`
	Environment              string `json:"environment"`
	// ExpiresAt is set when the authorization fingerprint is a JWT carrying
	// an exp claim. The signature is not verified.
	ExpiresAt *time.Time `json:"-"`
}

// Fingerprint decodes the token value. Tokens are base64 encoded JSON; the
// fingerprint inside is passed through unverified.
func (t *ClientToken) Fingerprint() (*ClientTokenFingerprint, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(t.Value))
	if err != nil {
		return nil, fmt.Errorf("decode client token: %w", err)
	}

	var fp ClientTokenFingerprint
	if err := json.Unmarshal(raw, &fp); err != nil {
		return nil, fmt.Errorf("decode client token payload: %w", err)
	}

	// Fingerprints may carry a query suffix such as "?customer_id=...".
	token, _, _ := strings.Cut(fp.AuthorizationFingerprint, "?")
	if strings.Count(token, ".") == 2 {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				at := exp.Time.UTC()
				fp.ExpiresAt = &at
			}
		}
	}
	return &fp, nil
}
