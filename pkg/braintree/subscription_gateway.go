package braintree

import (
	"context"
	"net/http"
)

// SubscriptionGateway manages recurring billing.
type SubscriptionGateway struct {
	gw *Gateway
}

// Create subscribes a payment method to a plan.
func (g *SubscriptionGateway) Create(ctx context.Context, req *SubscriptionRequest) (*Subscription, error) {
	if req == nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "subscription.create", Message: "request is required"}
	}
	r := *req
	if r.Options == nil {
		r.Options = &SubscriptionOptions{StartImmediately: Bool(true)}
	}
	return execute(ctx, g.gw, call{
		resource: "subscription",
		op:       "create",
		method:   http.MethodPost,
		path:     "subscriptions",
		body:     []byte(SubscriptionRequestSchema.Encode(&r, "")),
		success:  []int{http.StatusCreated},
	}, SubscriptionSchema)
}
