package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"braintree/pkg/credentials"
)

// Sandbox card numbers and nonces accepted by the gateway and the fake gateway.
const (
	VisaNumber       = "4111111111111111"
	MastercardNumber = "5555555555554444"
	ExpirationDate   = "12/2030"

	ValidNonce = "fake-valid-nonce"
)

// Amounts in the processor-declined range are refused by the sandbox with a
// processor_declined transaction.
const (
	ApprovedAmount = "10.00"
	DeclinedAmount = "2000.00"
)

// Default sandbox credentials used across tests.
const (
	MerchantID = "testmerchant"
	PublicKey  = "test-public"
	PrivateKey = "test-private"
)

// SandboxCredentials returns validated sandbox credentials.
func SandboxCredentials(t testing.TB) *credentials.APIKey {
	t.Helper()
	return Credentials(t, credentials.Sandbox)
}

// Credentials returns validated credentials for env.
func Credentials(t testing.TB, env credentials.Environment) *credentials.APIKey {
	t.Helper()
	key, err := credentials.NewAPIKey(env, MerchantID, PublicKey, PrivateKey)
	require.NoError(t, err)
	return key
}
