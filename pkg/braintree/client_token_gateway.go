package braintree

import (
	"context"
	"net/http"
)

// ClientTokenGateway generates client tokens.
type ClientTokenGateway struct {
	gw *Gateway
}

// Generate requests a new client token. A nil request asks for a default
// token of DefaultClientTokenVersion.
func (g *ClientTokenGateway) Generate(ctx context.Context, req *ClientTokenRequest) (*ClientToken, error) {
	r := ClientTokenRequest{}
	if req != nil {
		r = *req
	}
	if r.Version == nil {
		r.Version = Int(DefaultClientTokenVersion)
	}
	return execute(ctx, g.gw, call{
		resource: "client_token",
		op:       "generate",
		method:   http.MethodPost,
		path:     "client_token",
		body:     []byte(ClientTokenRequestSchema.Encode(&r, "")),
		success:  []int{http.StatusCreated},
	}, ClientTokenSchema)
}
