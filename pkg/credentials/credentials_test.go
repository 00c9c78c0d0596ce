package credentials

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIKey(t *testing.T) {
	t.Run("derives basic authorization header", func(t *testing.T) {
		key, err := NewAPIKey(Sandbox, "merchant123", "pub", "priv")
		require.NoError(t, err)

		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("pub:priv"))
		assert.Equal(t, want, key.AuthorizationHeader())
		assert.Equal(t, want, key.AuthorizationHeader(), "header is stable across calls")
		assert.Equal(t, Sandbox, key.Environment())
		assert.Equal(t, "merchant123", key.MerchantID())
		assert.Equal(t, "pub", key.PublicKey())
	})

	tests := []struct {
		name       string
		env        Environment
		merchantID string
		publicKey  string
		privateKey string
		wantField  string
	}{
		{name: "missing merchant", env: Sandbox, publicKey: "p", privateKey: "k", wantField: "MerchantID"},
		{name: "merchant with slash", env: Sandbox, merchantID: "a/b", publicKey: "p", privateKey: "k", wantField: "MerchantID"},
		{name: "missing public key", env: Sandbox, merchantID: "m", privateKey: "k", wantField: "PublicKey"},
		{name: "public key with colon", env: Sandbox, merchantID: "m", publicKey: "p:x", privateKey: "k", wantField: "PublicKey"},
		{name: "missing private key", env: Production, merchantID: "m", publicKey: "p", wantField: "PrivateKey"},
		{name: "unknown environment", env: Environment(7), merchantID: "m", publicKey: "p", privateKey: "k", wantField: "Environment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := NewAPIKey(tt.env, tt.merchantID, tt.publicKey, tt.privateKey)
			require.Error(t, err)
			assert.Nil(t, key)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestAPIKeyRedaction(t *testing.T) {
	key, err := NewAPIKey(Production, "m1", "public-key", "very-secret")
	require.NoError(t, err)

	for _, format := range []string{"%v", "%s", "%+v", "%#v"} {
		out := fmt.Sprintf(format, key)
		assert.False(t, strings.Contains(out, "very-secret"), "format %s leaked: %s", format, out)
	}
	assert.Contains(t, key.String(), "production")
}

func TestEnvironment(t *testing.T) {
	assert.Equal(t, "https://sandbox.braintreegateway.com", Sandbox.BaseURL())
	assert.Equal(t, "https://www.braintreegateway.com", Production.BaseURL())
	assert.Equal(t, "sandbox", Sandbox.String())
	assert.Equal(t, "production", Production.String())
	assert.Equal(t, "environment(9)", Environment(9).String())

	env, err := ParseEnvironment(" Production ")
	require.NoError(t, err)
	assert.Equal(t, Production, env)

	env, err = ParseEnvironment("SANDBOX")
	require.NoError(t, err)
	assert.Equal(t, Sandbox, env)

	_, err = ParseEnvironment("staging")
	assert.Error(t, err)
}
