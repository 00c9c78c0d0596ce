// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"braintree/pkg/credentials"
)

// Client configures a gateway client built by a command.
type Client struct {
	Environment credentials.Environment
	MerchantID  string `validate:"required"`
	PublicKey   string `validate:"required"`
	PrivateKey  string `validate:"required"`
	// BaseURL overrides the environment's origin, e.g. for the fake gateway.
	BaseURL  string        `validate:"omitempty,url"`
	Timeout  time.Duration `validate:"gte=0"`
	LogLevel string        `validate:"oneof=debug info warn error"`
}

// FakeGateway configures the standalone fake gateway.
type FakeGateway struct {
	Addr       string `validate:"required"`
	MerchantID string `validate:"required,alphanum"`
	PublicKey  string `validate:"required"`
	PrivateKey string `validate:"required"`
	// SigningKey signs client token fingerprints. Random when empty.
	SigningKey   string
	MaxBodyBytes int64  `validate:"gt=0"`
	LogLevel     string `validate:"oneof=debug info warn error"`
}

// Defaults for the fake gateway, matching the test fixtures.
const (
	DefaultFakeAddr       = ":8090"
	DefaultFakeMerchantID = "testmerchant"
	DefaultFakePublicKey  = "test-public"
	DefaultFakePrivateKey = "test-private"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultLogLevel       = "info"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ClientFromEnv reads BRAINTREE_* variables. Environment defaults to sandbox.
func ClientFromEnv() (Client, error) {
	env, err := credentials.ParseEnvironment(getEnv("BRAINTREE_ENVIRONMENT", "sandbox"))
	if err != nil {
		return Client{}, fmt.Errorf("BRAINTREE_ENVIRONMENT: %w", err)
	}
	timeout, err := getDuration("BRAINTREE_TIMEOUT", 0)
	if err != nil {
		return Client{}, err
	}

	cfg := Client{
		Environment: env,
		MerchantID:  os.Getenv("BRAINTREE_MERCHANT_ID"),
		PublicKey:   os.Getenv("BRAINTREE_PUBLIC_KEY"),
		PrivateKey:  os.Getenv("BRAINTREE_PRIVATE_KEY"),
		BaseURL:     os.Getenv("BRAINTREE_BASE_URL"),
		Timeout:     timeout,
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", DefaultLogLevel)),
	}
	if err := validate.Struct(cfg); err != nil {
		return Client{}, describe(err)
	}
	return cfg, nil
}

// FakeGatewayFromEnv reads FAKE_GATEWAY_* variables, falling back to the
// fixture credentials so the server starts with no configuration.
func FakeGatewayFromEnv() (FakeGateway, error) {
	cfg := FakeGateway{
		Addr:         getEnv("FAKE_GATEWAY_ADDR", DefaultFakeAddr),
		MerchantID:   getEnv("FAKE_GATEWAY_MERCHANT_ID", DefaultFakeMerchantID),
		PublicKey:    getEnv("FAKE_GATEWAY_PUBLIC_KEY", DefaultFakePublicKey),
		PrivateKey:   getEnv("FAKE_GATEWAY_PRIVATE_KEY", DefaultFakePrivateKey),
		SigningKey:   os.Getenv("FAKE_GATEWAY_SIGNING_KEY"),
		MaxBodyBytes: DefaultMaxBodyBytes,
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", DefaultLogLevel)),
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if err := validate.Struct(cfg); err != nil {
		return FakeGateway{}, describe(err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid config: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}
