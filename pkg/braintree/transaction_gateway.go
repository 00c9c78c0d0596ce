package braintree

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// TransactionGateway creates and moves transactions through their life cycle.
type TransactionGateway struct {
	gw *Gateway
}

// Create charges a payment method. The money only moves once the
// transaction is submitted for settlement, either with
// Options.SubmitForSettlement or a later SubmitForSettlement call.
func (g *TransactionGateway) Create(ctx context.Context, req *TransactionRequest) (*Transaction, error) {
	if req == nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "transaction.create", Message: "request is required"}
	}
	r := *req
	if r.Type == nil {
		r.Type = String(TransactionTypeSale)
	}
	return execute(ctx, g.gw, call{
		resource: "transaction",
		op:       "create",
		method:   http.MethodPost,
		path:     "transactions",
		body:     []byte(TransactionRequestSchema.Encode(&r, "")),
		success:  []int{http.StatusCreated},
	}, TransactionSchema)
}

// SubmitForSettlement submits an authorized transaction for capture.
func (g *TransactionGateway) SubmitForSettlement(ctx context.Context, id string) (*Transaction, error) {
	return g.transition(ctx, "submit_for_settlement", id)
}

// Void cancels a transaction that is authorized or submitted for settlement.
func (g *TransactionGateway) Void(ctx context.Context, id string) (*Transaction, error) {
	return g.transition(ctx, "void", id)
}

func (g *TransactionGateway) transition(ctx context.Context, action, id string) (*Transaction, error) {
	path, err := idPath("transaction."+action, "transactions", id, action)
	if err != nil {
		return nil, err
	}
	return execute(ctx, g.gw, call{
		resource: "transaction",
		op:       action,
		method:   http.MethodPut,
		path:     path,
		success:  []int{http.StatusOK},
	}, TransactionSchema)
}

// Refund refunds a settled or settling transaction in full. The result is
// the new credit transaction.
func (g *TransactionGateway) Refund(ctx context.Context, id string) (*Transaction, error) {
	return g.refund(ctx, "refund", id, nil)
}

// RefundAmount refunds part of a settled or settling transaction.
func (g *TransactionGateway) RefundAmount(ctx context.Context, id string, amount decimal.Decimal) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, &Error{Kind: KindInvalidRequest, Op: "transaction.refund_amount", Message: "refund amount must be positive"}
	}
	body := refundRequestSchema.Encode(&refundRequest{Amount: &amount}, "")
	return g.refund(ctx, "refund_amount", id, []byte(body))
}

func (g *TransactionGateway) refund(ctx context.Context, op, id string, body []byte) (*Transaction, error) {
	path, err := idPath("transaction."+op, "transactions", id, "refund")
	if err != nil {
		return nil, err
	}
	return execute(ctx, g.gw, call{
		resource: "transaction",
		op:       op,
		method:   http.MethodPost,
		path:     path,
		body:     body,
		success:  []int{http.StatusCreated, http.StatusOK},
	}, TransactionSchema)
}

// Find retrieves a transaction by id.
func (g *TransactionGateway) Find(ctx context.Context, id string) (*Transaction, error) {
	path, err := idPath("transaction.find", "transactions", id)
	if err != nil {
		return nil, err
	}
	return execute(ctx, g.gw, call{
		resource: "transaction",
		op:       "find",
		method:   http.MethodGet,
		path:     path,
		success:  []int{http.StatusOK},
	}, TransactionSchema)
}
