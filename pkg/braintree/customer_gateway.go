package braintree

import (
	"context"
	"net/http"
)

// CustomerGateway manages vaulted customers.
type CustomerGateway struct {
	gw *Gateway
}

// Create vaults a customer, along with a card when CreditCard is set.
func (g *CustomerGateway) Create(ctx context.Context, c *Customer) (*Customer, error) {
	if c == nil {
		c = &Customer{}
	}
	return execute(ctx, g.gw, call{
		resource: "customer",
		op:       "create",
		method:   http.MethodPost,
		path:     "customers",
		body:     []byte(CustomerSchema.Encode(c, "")),
		success:  []int{http.StatusCreated},
	}, CustomerSchema)
}

// Find retrieves a customer by id.
func (g *CustomerGateway) Find(ctx context.Context, id string) (*Customer, error) {
	path, err := idPath("customer.find", "customers", id)
	if err != nil {
		return nil, err
	}
	return execute(ctx, g.gw, call{
		resource: "customer",
		op:       "find",
		method:   http.MethodGet,
		path:     path,
		success:  []int{http.StatusOK},
	}, CustomerSchema)
}
