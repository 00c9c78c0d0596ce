package braintree

import (
	"context"
	"net/http"

	"braintree/pkg/credentials"
	"braintree/pkg/platform/tracer"
)

// TestingGateway forces sandbox transactions into settlement states. Every
// operation fails with ErrTestOperationInProduction for production
// credentials, before any request is made.
type TestingGateway struct {
	gw *Gateway
}

// Settle moves a submitted transaction to settled.
func (g *TestingGateway) Settle(ctx context.Context, id string) (*Transaction, error) {
	return g.force(ctx, "settle", id)
}

// SettlementConfirm moves a transaction to settlement_confirmed.
func (g *TestingGateway) SettlementConfirm(ctx context.Context, id string) (*Transaction, error) {
	return g.force(ctx, "settlement_confirm", id)
}

// SettlementDecline moves a transaction to settlement_declined.
func (g *TestingGateway) SettlementDecline(ctx context.Context, id string) (*Transaction, error) {
	return g.force(ctx, "settlement_decline", id)
}

// SettlementPending moves a transaction to settlement_pending.
func (g *TestingGateway) SettlementPending(ctx context.Context, id string) (*Transaction, error) {
	return g.force(ctx, "settlement_pending", id)
}

func (g *TestingGateway) force(ctx context.Context, action, id string) (*Transaction, error) {
	op := "testing." + action
	if g.gw.creds.Environment() != credentials.Sandbox {
		_, span := g.gw.tracer.Start(ctx, tracer.SpanName("testing", action))
		span.AddEvent(tracer.EventSandboxGuard)
		err := &Error{Kind: KindTestOperationInProduction, Op: op, Err: ErrTestOperationInProduction}
		span.End(err)
		g.gw.logger.WarnContext(ctx, "sandbox-only operation refused", "operation", op)
		return nil, err
	}

	path, err := idPath(op, "transactions", id, action)
	if err != nil {
		return nil, err
	}
	return execute(ctx, g.gw, call{
		resource: "testing",
		op:       action,
		method:   http.MethodPut,
		path:     path,
		success:  []int{http.StatusOK},
	}, TransactionSchema)
}
