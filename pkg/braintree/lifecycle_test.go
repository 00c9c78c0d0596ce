package braintree_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"braintree/pkg/braintree"
	"braintree/pkg/credentials"
	"braintree/pkg/gatewaytest"
	"braintree/pkg/testutil"
)

// LifecycleSuite drives the client against the fake gateway over real HTTP.
type LifecycleSuite struct {
	suite.Suite
	ctx    context.Context
	gw     *braintree.Gateway
	server *gatewaytest.Server
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.ctx = context.Background()
	s.gw, s.server = gatewaytest.NewGateway(s.T())
}

func (s *LifecycleSuite) sale(submit bool) *braintree.Transaction {
	txn, err := s.gw.Transaction().Create(s.ctx, &braintree.TransactionRequest{
		Amount:             braintree.Decimal(testutil.ApprovedAmount),
		PaymentMethodNonce: braintree.String(gatewaytest.NonceValid),
		Options:            &braintree.TransactionOptions{SubmitForSettlement: braintree.Bool(submit)},
	})
	s.Require().NoError(err)
	return txn
}

func (s *LifecycleSuite) TestSaleSettleRefund() {
	txn := s.sale(false)
	s.Equal(braintree.StatusAuthorized, *txn.Status)
	s.Equal(braintree.TransactionTypeSale, *txn.Type)
	s.Equal("1000", *txn.ProcessorResponseCode)

	txn, err := s.gw.Transaction().SubmitForSettlement(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal(braintree.StatusSubmittedForSettlement, *txn.Status)

	txn, err = s.gw.Testing().Settle(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal(braintree.StatusSettled, *txn.Status)

	refund, err := s.gw.Transaction().Refund(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal(braintree.TransactionTypeCredit, *refund.Type)
	s.Equal(txn.ID, *refund.RefundedTransactionID)
	s.True(txn.Amount.Equal(*refund.Amount))

	_, err = s.gw.Transaction().Refund(s.ctx, txn.ID)
	var apiErr *braintree.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusUnprocessableEntity, apiErr.StatusCode)
	s.Require().Len(apiErr.Errors, 1)
	s.Equal(gatewaytest.CodeAlreadyRefunded, apiErr.Errors[0].Code)

	found, err := s.gw.Transaction().Find(s.ctx, refund.ID)
	s.Require().NoError(err)
	s.Equal(refund.ID, found.ID)
}

func (s *LifecycleSuite) TestPartialRefund() {
	txn := s.sale(true)
	_, err := s.gw.Testing().Settle(s.ctx, txn.ID)
	s.Require().NoError(err)

	_, err = s.gw.Transaction().RefundAmount(s.ctx, txn.ID, decimal.RequireFromString("50.00"))
	s.True(braintree.IsKind(err, braintree.KindAPI))

	refund, err := s.gw.Transaction().RefundAmount(s.ctx, txn.ID, decimal.RequireFromString("4.00"))
	s.Require().NoError(err)
	s.Equal("4.00", refund.Amount.StringFixed(2))
}

func (s *LifecycleSuite) TestVoid() {
	txn := s.sale(true)

	voided, err := s.gw.Transaction().Void(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal(braintree.StatusVoided, *voided.Status)

	_, err = s.gw.Transaction().SubmitForSettlement(s.ctx, txn.ID)
	var apiErr *braintree.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(gatewaytest.CodeCannotSubmitForSettlement, apiErr.Errors[0].Code)
}

func (s *LifecycleSuite) TestSettlementOutcomes() {
	outcomes := map[string]func(context.Context, string) (*braintree.Transaction, error){
		braintree.StatusSettlementConfirmed: s.gw.Testing().SettlementConfirm,
		braintree.StatusSettlementDeclined:  s.gw.Testing().SettlementDecline,
		braintree.StatusSettlementPending:   s.gw.Testing().SettlementPending,
	}
	for want, op := range outcomes {
		txn := s.sale(true)
		got, err := op(s.ctx, txn.ID)
		s.Require().NoError(err, want)
		s.Equal(want, *got.Status)
	}
}

func (s *LifecycleSuite) TestSettleRequiresSubmission() {
	txn := s.sale(false)
	_, err := s.gw.Testing().Settle(s.ctx, txn.ID)
	var apiErr *braintree.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(gatewaytest.CodeCannotSettle, apiErr.Errors[0].Code)
}

func (s *LifecycleSuite) TestProcessorDecline() {
	_, err := s.gw.Transaction().Create(s.ctx, &braintree.TransactionRequest{
		Amount:             braintree.Decimal(testutil.DeclinedAmount),
		PaymentMethodNonce: braintree.String(gatewaytest.NonceValid),
	})

	var apiErr *braintree.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("Do Not Honor", apiErr.Message)
	s.Require().NotNil(apiErr.Transaction)
	s.Equal(braintree.StatusProcessorDeclined, *apiErr.Transaction.Status)
	s.Equal("2000", *apiErr.Transaction.ProcessorResponseCode)

	stored, ok := s.server.Transaction(apiErr.Transaction.ID)
	s.True(ok)
	s.Equal(braintree.StatusProcessorDeclined, *stored.Status)
}

func (s *LifecycleSuite) TestValidationErrors() {
	_, err := s.gw.Transaction().Create(s.ctx, &braintree.TransactionRequest{
		PaymentMethodNonce: braintree.String(gatewaytest.NonceValid),
	})
	var apiErr *braintree.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("Amount is required.", apiErr.Message)
	s.Equal([]braintree.ValidationError{{
		Attribute: "amount",
		Code:      gatewaytest.CodeAmountRequired,
		Message:   "Amount is required.",
	}}, apiErr.Errors)

	_, err = s.gw.Transaction().Create(s.ctx, &braintree.TransactionRequest{
		Amount:     braintree.Decimal("1.00"),
		CreditCard: &braintree.CreditCard{Number: braintree.String("4111111111111112")},
	})
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(gatewaytest.CodeCardNumberInvalid, apiErr.Errors[0].Code)
}

func (s *LifecycleSuite) TestNotFound() {
	_, err := s.gw.Transaction().Find(s.ctx, "does-not-exist")
	var apiErr *braintree.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
	s.Equal("Not Found", apiErr.Message)
	s.Nil(apiErr.Raw)
}

func (s *LifecycleSuite) TestCustomerVaultAndCharge() {
	cust, err := s.gw.Customer().Create(s.ctx, &braintree.Customer{
		ID:        "cust-1",
		FirstName: braintree.String("Ada"),
		Email:     braintree.String("ada@example.com"),
		CreditCard: &braintree.CreditCard{
			Number:         braintree.String(testutil.MastercardNumber),
			ExpirationDate: braintree.String(testutil.ExpirationDate),
			CVV:            braintree.String("123"),
		},
		CustomFields: map[string]string{"tier": "gold"},
	})
	s.Require().NoError(err)
	s.Equal("cust-1", cust.ID)
	s.Require().Len(cust.CreditCards, 1)
	card := cust.CreditCards[0]
	s.Equal("4444", *card.Last4)
	s.Equal("555555", *card.Bin)
	s.Nil(card.Number)
	s.Nil(card.CVV)
	s.Require().NotNil(cust.CreditCard)
	s.Equal(*card.Token, *cust.CreditCard.Token)
	s.Equal(map[string]string{"tier": "gold"}, cust.CustomFields)

	found, err := s.gw.Customer().Find(s.ctx, "cust-1")
	s.Require().NoError(err)
	s.Equal("Ada", *found.FirstName)

	_, err = s.gw.Customer().Create(s.ctx, &braintree.Customer{ID: "cust-1"})
	var apiErr *braintree.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(gatewaytest.CodeCustomerIDTaken, apiErr.Errors[0].Code)

	txn, err := s.gw.Transaction().Create(s.ctx, &braintree.TransactionRequest{
		Amount:             braintree.Decimal("25.00"),
		PaymentMethodToken: card.Token,
	})
	s.Require().NoError(err)
	s.Equal("4444", *txn.CreditCard.Last4)

	_, err = s.gw.Customer().Find(s.ctx, "nobody")
	s.True(braintree.IsKind(err, braintree.KindAPI))
}

func (s *LifecycleSuite) TestClientToken() {
	token, err := s.gw.ClientToken().Generate(s.ctx, nil)
	s.Require().NoError(err)

	fp, err := token.Fingerprint()
	s.Require().NoError(err)
	s.Equal(braintree.DefaultClientTokenVersion, fp.Version)
	s.Equal(testutil.MerchantID, fp.MerchantID)
	s.NotNil(fp.ExpiresAt)

	_, err = s.gw.ClientToken().Generate(s.ctx, &braintree.ClientTokenRequest{CustomerID: braintree.String("ghost")})
	s.True(braintree.IsKind(err, braintree.KindAPI))
}

func (s *LifecycleSuite) TestSubscription() {
	sub, err := s.gw.Subscription().Create(s.ctx, &braintree.SubscriptionRequest{
		PlanID:             braintree.String("monthly"),
		PaymentMethodNonce: braintree.String(gatewaytest.NonceValid),
	})
	s.Require().NoError(err)
	s.Equal("Active", *sub.Status)
	s.Require().Len(sub.Transactions, 1)
	s.Equal("monthly", *sub.Transactions[0].PlanID)

	pending, err := s.gw.Subscription().Create(s.ctx, &braintree.SubscriptionRequest{
		PlanID:             braintree.String("monthly"),
		PaymentMethodNonce: braintree.String(gatewaytest.NonceValid),
		Options:            &braintree.SubscriptionOptions{StartImmediately: braintree.Bool(false)},
	})
	s.Require().NoError(err)
	s.Equal("Pending", *pending.Status)
	s.Empty(pending.Transactions)
}

func (s *LifecycleSuite) TestForcedResponses() {
	s.server.ForceStatus(http.StatusServiceUnavailable, "")
	_, err := s.gw.Transaction().Find(s.ctx, "any")
	var apiErr *braintree.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("Service Unavailable", apiErr.Message)

	s.server.ForceStatus(http.StatusInternalServerError, "<html>oops</body>")
	_, err = s.gw.Transaction().Find(s.ctx, "any")
	s.Equal(braintree.KindMalformedDocument, braintree.KindOf(err))

	s.server.ForceEncoding("br")
	_, err = s.gw.ClientToken().Generate(s.ctx, nil)
	s.Equal(braintree.KindUnsupportedEncoding, braintree.KindOf(err))

	s.server.ForceEncoding("gzip")
	_, err = s.gw.ClientToken().Generate(s.ctx, nil)
	s.NoError(err)
}

func (s *LifecycleSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.gw.Transaction().Find(ctx, "any")
	s.Equal(braintree.KindTransport, braintree.KindOf(err))
	s.Zero(s.server.Requests())
}

func TestWrongCredentials(t *testing.T) {
	server, err := gatewaytest.New(testutil.MerchantID, testutil.PublicKey, testutil.PrivateKey)
	require.NoError(t, err)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	gw, err := braintree.New(credentials.Sandbox, testutil.MerchantID, testutil.PublicKey, "wrong", braintree.WithBaseURL(ts.URL))
	require.NoError(t, err)
	_, err = gw.Transaction().Find(context.Background(), "x")
	var apiErr *braintree.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}
