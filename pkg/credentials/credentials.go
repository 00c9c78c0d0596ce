// Package credentials holds the merchant identity and authorization material
// used to talk to the gateway.
package credentials

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment selects which gateway deployment a client talks to.
type Environment int

const (
	Sandbox Environment = iota
	Production
)

var baseURLs = map[Environment]string{
	Sandbox:    "https://sandbox.braintreegateway.com",
	Production: "https://www.braintreegateway.com",
}

// BaseURL returns the fixed gateway origin for the environment.
func (e Environment) BaseURL() string {
	return baseURLs[e]
}

func (e Environment) String() string {
	switch e {
	case Sandbox:
		return "sandbox"
	case Production:
		return "production"
	default:
		return fmt.Sprintf("environment(%d)", int(e))
	}
}

// ParseEnvironment accepts "sandbox" or "production", case-insensitively.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sandbox":
		return Sandbox, nil
	case "production":
		return Production, nil
	default:
		return 0, fmt.Errorf("unknown environment %q", s)
	}
}

// Provider is the capability the transport needs from a credential source.
// Implementations must be safe for concurrent use.
type Provider interface {
	Environment() Environment
	MerchantID() string
	// AuthorizationHeader returns the full Authorization header value.
	AuthorizationHeader() string
}

// APIKey authenticates with a public/private key pair over basic auth.
// It is immutable after construction.
type APIKey struct {
	env        Environment
	merchantID string
	publicKey  string
	privateKey string
	authHeader string
}

var _ Provider = (*APIKey)(nil)

type apiKeyInput struct {
	Environment Environment `validate:"oneof=0 1"`
	MerchantID  string      `validate:"required,alphanum"`
	PublicKey   string      `validate:"required,excludes=:"`
	PrivateKey  string      `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewAPIKey validates the inputs and derives the authorization header once.
func NewAPIKey(env Environment, merchantID, publicKey, privateKey string) (*APIKey, error) {
	in := apiKeyInput{
		Environment: env,
		MerchantID:  merchantID,
		PublicKey:   publicKey,
		PrivateKey:  privateKey,
	}
	if err := validate.Struct(in); err != nil {
		return nil, describe(err)
	}

	token := base64.StdEncoding.EncodeToString([]byte(publicKey + ":" + privateKey))
	return &APIKey{
		env:        env,
		merchantID: merchantID,
		publicKey:  publicKey,
		privateKey: privateKey,
		authHeader: "Basic " + token,
	}, nil
}

func (k *APIKey) Environment() Environment { return k.env }

func (k *APIKey) MerchantID() string { return k.merchantID }

// AuthorizationHeader returns the value derived at construction.
func (k *APIKey) AuthorizationHeader() string { return k.authHeader }

// PublicKey is safe to show; the private key has no accessor.
func (k *APIKey) PublicKey() string { return k.publicKey }

// String redacts the private key so credentials can be passed to loggers.
func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{env=%s merchant=%s public=%s private=[REDACTED]}", k.env, k.merchantID, k.publicKey)
}

// GoString keeps %#v from printing the private key.
func (k *APIKey) GoString() string { return k.String() }

// describe turns validator output into one readable error naming the fields.
func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid credentials: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid credentials: %s", strings.Join(fields, ", "))
}
