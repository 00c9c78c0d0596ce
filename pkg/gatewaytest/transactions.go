package gatewaytest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"braintree/pkg/braintree"
	"braintree/pkg/markup"
	"braintree/pkg/testutil"
)

// Nonces understood by the fake, matching the sandbox's test nonces.
const (
	NonceValid             = testutil.ValidNonce
	NonceProcessorDeclined = "fake-processor-declined-visa-nonce"
)

var (
	declineFloor   = decimal.RequireFromString("2000.00")
	declineCeiling = decimal.RequireFromString("3000.00")
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := braintree.TransactionRequestSchema.Unmarshal(r.Body)
	if err != nil {
		s.writeValidation(w, r, "transaction", "base", CodeMalformedRequest, "Request body is malformed.")
		return
	}

	typ := braintree.TransactionTypeSale
	if req.Type != nil {
		typ = *req.Type
	}
	switch {
	case typ != braintree.TransactionTypeSale && typ != braintree.TransactionTypeCredit:
		s.writeValidation(w, r, "transaction", "type", CodeTransactionTypeInvalid, "Transaction type is invalid.")
		return
	case req.Amount == nil:
		s.writeValidation(w, r, "transaction", "amount", CodeAmountRequired, "Amount is required.")
		return
	case !req.Amount.IsPositive():
		s.writeValidation(w, r, "transaction", "amount", CodeAmountMustBePositive, "Amount must be greater than zero.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	card, declined, ok := s.resolvePaymentMethod(w, r, req)
	if !ok {
		return
	}

	now := s.now().UTC()
	txn := &braintree.Transaction{
		ID:                s.newID(),
		Type:              braintree.String(typ),
		Status:            braintree.String(braintree.StatusAuthorized),
		Amount:            req.Amount,
		CurrencyISOCode:   braintree.String("USD"),
		OrderID:           req.OrderID,
		MerchantAccountID: braintree.String(s.merchantID),
		CreditCard:        card,
		Customer:          req.Customer,
		Billing:           req.Billing,
		Shipping:          req.Shipping,
		Descriptor:        req.Descriptor,
		CustomFields:      req.CustomFields,
		CreatedAt:         &now,
		UpdatedAt:         &now,
	}
	if req.CustomerID != nil {
		txn.Customer = &braintree.Customer{ID: *req.CustomerID}
	}

	if declined || (req.Amount.GreaterThanOrEqual(declineFloor) && req.Amount.LessThan(declineCeiling)) {
		code := "2000"
		if !declined {
			code = req.Amount.Truncate(0).String()
		}
		txn.Status = braintree.String(braintree.StatusProcessorDeclined)
		txn.ProcessorResponseCode = braintree.String(code)
		txn.ProcessorResponseText = braintree.String("Do Not Honor")
		s.transactions[txn.ID] = txn
		s.writeDocument(w, r, http.StatusUnprocessableEntity, errorDocument("Do Not Honor", "", nil, txn))
		return
	}

	txn.ProcessorResponseCode = braintree.String("1000")
	txn.ProcessorResponseText = braintree.String("Approved")
	txn.ProcessorAuthorizationCode = braintree.String(s.newID()[:6])
	if req.Options != nil && req.Options.SubmitForSettlement != nil && *req.Options.SubmitForSettlement {
		txn.Status = braintree.String(braintree.StatusSubmittedForSettlement)
	}
	s.transactions[txn.ID] = txn
	s.writeDocument(w, r, http.StatusCreated, braintree.TransactionSchema.Encode(txn, ""))
}

// resolvePaymentMethod finds the card a transaction charges. It writes the
// validation error itself and reports ok=false when none can be found.
// Callers hold s.mu.
func (s *Server) resolvePaymentMethod(w http.ResponseWriter, r *http.Request, req *braintree.TransactionRequest) (card *braintree.CreditCard, declined, ok bool) {
	switch {
	case req.CreditCard != nil:
		if req.CreditCard.Number == nil || !validCardNumber(*req.CreditCard.Number) {
			s.writeValidation(w, r, "credit-card", "number", CodeCardNumberInvalid, "Credit card number is invalid.")
			return nil, false, false
		}
		c := vaultCard(req.CreditCard, s.newID(), "")
		return &c, false, true

	case req.PaymentMethodNonce != nil:
		c, declined, known := nonceCard(*req.PaymentMethodNonce, s.newID())
		if !known {
			s.writeValidation(w, r, "transaction", "payment_method_nonce", CodePaymentMethodUnknown, "Unknown payment_method_nonce.")
			return nil, false, false
		}
		return c, declined, true

	case req.PaymentMethodToken != nil:
		for _, cust := range s.customers {
			for i := range cust.CreditCards {
				if c := cust.CreditCards[i]; c.Token != nil && *c.Token == *req.PaymentMethodToken {
					return &c, false, true
				}
			}
		}
		s.writeValidation(w, r, "transaction", "payment_method_token", CodePaymentMethodUnknown, "Payment method token is invalid.")
		return nil, false, false

	case req.CustomerID != nil:
		cust, found := s.customers[*req.CustomerID]
		if !found {
			s.writeValidation(w, r, "transaction", "customer_id", CodeCustomerIDInvalid, "Customer ID is invalid.")
			return nil, false, false
		}
		if len(cust.CreditCards) == 0 {
			s.writeValidation(w, r, "transaction", "base", CodePaymentMethodUnknown, "Cannot determine payment method.")
			return nil, false, false
		}
		c := cust.CreditCards[0]
		return &c, false, true

	default:
		s.writeValidation(w, r, "transaction", "base", CodePaymentMethodUnknown, "Cannot determine payment method.")
		return nil, false, false
	}
}

func nonceCard(nonce, token string) (card *braintree.CreditCard, declined, known bool) {
	switch nonce {
	case NonceValid, NonceProcessorDeclined:
		c := vaultCard(&braintree.CreditCard{
			Number:         braintree.String(testutil.VisaNumber),
			ExpirationDate: braintree.String(testutil.ExpirationDate),
		}, token, "")
		return &c, nonce == NonceProcessorDeclined, true
	default:
		return nil, false, false
	}
}

// lookup returns the stored transaction named in the path, or writes 404.
// Callers hold s.mu.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*braintree.Transaction, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return nil, false
	}
	txn, ok := s.transactions[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return nil, false
	}
	return txn, true
}

func (s *Server) handleFindTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeDocument(w, r, http.StatusOK, braintree.TransactionSchema.Encode(txn, ""))
}

// transition moves txn to status when its current status is one of from.
// Callers hold s.mu.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, to, code, message string, from ...string) {
	txn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !hasStatus(txn, from...) {
		s.writeValidation(w, r, "transaction", "base", code, message)
		return
	}
	now := s.now().UTC()
	txn.Status = braintree.String(to)
	txn.UpdatedAt = &now
	s.writeDocument(w, r, http.StatusOK, braintree.TransactionSchema.Encode(txn, ""))
}

func hasStatus(txn *braintree.Transaction, statuses ...string) bool {
	if txn.Status == nil {
		return false
	}
	for _, st := range statuses {
		if *txn.Status == st {
			return true
		}
	}
	return false
}

func (s *Server) handleSubmitForSettlement(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(w, r, braintree.StatusSubmittedForSettlement,
		CodeCannotSubmitForSettlement, "Cannot submit for settlement unless status is authorized.",
		braintree.StatusAuthorized)
}

func (s *Server) handleVoid(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(w, r, braintree.StatusVoided,
		CodeCannotVoid, "Transaction can only be voided if status is authorized or submitted_for_settlement.",
		braintree.StatusAuthorized, braintree.StatusSubmittedForSettlement)
}

func (s *Server) handleForceSettlement(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.transition(w, r, status,
			CodeCannotSettle, "Cannot settle transaction unless it is submitted for settlement.",
			braintree.StatusSubmittedForSettlement, braintree.StatusSettling, braintree.StatusSettlementPending)
	}
}

type refundBody struct {
	Amount  *decimal.Decimal
	OrderID *string
}

var refundBodySchema = &markup.Schema[refundBody]{
	Name: "transaction",
	Fields: []markup.Field[refundBody]{
		markup.Decimal("amount", func(b *refundBody) **decimal.Decimal { return &b.Amount }),
		markup.Text("order-id", func(b *refundBody) **string { return &b.OrderID }),
	},
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var body refundBody
	if r.ContentLength > 0 {
		parsed, err := refundBodySchema.Unmarshal(r.Body)
		if err != nil {
			s.writeValidation(w, r, "transaction", "base", CodeMalformedRequest, "Request body is malformed.")
			return
		}
		body = *parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orig, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !hasStatus(orig, braintree.StatusSettled, braintree.StatusSettling) {
		s.writeValidation(w, r, "transaction", "base", CodeCannotRefund, "Cannot refund transaction unless it is settled.")
		return
	}
	if s.refunded[orig.ID] {
		s.writeValidation(w, r, "transaction", "base", CodeAlreadyRefunded, "Transaction has already been completely refunded.")
		return
	}

	amount := orig.Amount
	if body.Amount != nil {
		if orig.Amount != nil && body.Amount.GreaterThan(*orig.Amount) {
			s.writeValidation(w, r, "transaction", "amount", CodeRefundTooLarge, "Refund amount is too large.")
			return
		}
		amount = body.Amount
	}

	now := s.now().UTC()
	credit := &braintree.Transaction{
		ID:                    s.newID(),
		Type:                  braintree.String(braintree.TransactionTypeCredit),
		Status:                braintree.String(braintree.StatusSubmittedForSettlement),
		Amount:                amount,
		CurrencyISOCode:       orig.CurrencyISOCode,
		OrderID:               body.OrderID,
		MerchantAccountID:     orig.MerchantAccountID,
		RefundedTransactionID: braintree.String(orig.ID),
		CreditCard:            orig.CreditCard,
		Customer:              orig.Customer,
		CreatedAt:             &now,
		UpdatedAt:             &now,
	}
	s.transactions[credit.ID] = credit
	s.refunded[orig.ID] = true
	s.writeDocument(w, r, http.StatusCreated, braintree.TransactionSchema.Encode(credit, ""))
}

func (s *Server) handleClientToken(w http.ResponseWriter, r *http.Request) {
	req := &braintree.ClientTokenRequest{}
	if r.ContentLength > 0 {
		parsed, err := braintree.ClientTokenRequestSchema.Unmarshal(r.Body)
		if err != nil {
			s.writeValidation(w, r, "client_token", "base", CodeMalformedRequest, "Request body is malformed.")
			return
		}
		req = parsed
	}

	claims := jwt.MapClaims{
		"iss": "gatewaytest",
		"sub": s.merchantID,
		"iat": s.now().Unix(),
		"exp": s.now().Add(24 * time.Hour).Unix(),
	}
	if req.CustomerID != nil {
		s.mu.Lock()
		_, found := s.customers[*req.CustomerID]
		s.mu.Unlock()
		if !found {
			s.writeValidation(w, r, "client_token", "customer_id", CodeCustomerIDInvalid,
				"Customer specified by customer_id does not exist")
			return
		}
		claims["customer_id"] = *req.CustomerID
	}

	fingerprint, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	version := braintree.DefaultClientTokenVersion
	if req.Version != nil {
		version = *req.Version
	}
	payload, err := json.Marshal(braintree.ClientTokenFingerprint{
		Version:                  version,
		AuthorizationFingerprint: fingerprint,
		ConfigURL:                "/merchants/" + s.merchantID + "/client_api/v1/configuration",
		MerchantID:               s.merchantID,
		Environment:              "sandbox",
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	token := &braintree.ClientToken{Value: base64.StdEncoding.EncodeToString(payload)}
	s.writeDocument(w, r, http.StatusCreated, braintree.ClientTokenSchema.Encode(token, ""))
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	req, err := braintree.SubscriptionRequestSchema.Unmarshal(r.Body)
	if err != nil {
		s.writeValidation(w, r, "subscription", "base", CodeMalformedRequest, "Request body is malformed.")
		return
	}
	if req.PlanID == nil || *req.PlanID == "" {
		s.writeValidation(w, r, "subscription", "plan_id", CodePlanIDRequired, "Plan ID is required.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var card *braintree.CreditCard
	switch {
	case req.PaymentMethodNonce != nil:
		card, _, _ = nonceCard(*req.PaymentMethodNonce, s.newID())
	case req.PaymentMethodToken != nil:
		for _, cust := range s.customers {
			for i := range cust.CreditCards {
				if c := cust.CreditCards[i]; c.Token != nil && *c.Token == *req.PaymentMethodToken {
					card = &c
				}
			}
		}
	}
	if card == nil {
		s.writeValidation(w, r, "subscription", "payment_method_token", CodePaymentMethodUnknown, "Payment method token is invalid.")
		return
	}

	price := decimal.RequireFromString("10.00")
	if req.Price != nil {
		price = *req.Price
	}
	id := s.newID()
	if req.ID != nil && *req.ID != "" {
		id = *req.ID
	}

	now := s.now().UTC()
	sub := &braintree.Subscription{
		ID:                    id,
		PlanID:                req.PlanID,
		Status:                braintree.String("Pending"),
		Price:                 &price,
		Balance:               braintree.Decimal("0.00"),
		PaymentMethodToken:    card.Token,
		MerchantAccountID:     braintree.String(s.merchantID),
		NumberOfBillingCycles: req.NumberOfBillingCycles,
		NeverExpires:          braintree.Bool(req.NumberOfBillingCycles == nil),
		FirstBillingDate:      braintree.String(now.Format(time.DateOnly)),
		NextBillingDate:       braintree.String(now.AddDate(0, 1, 0).Format(time.DateOnly)),
		Transactions:          []braintree.Transaction{},
		CreatedAt:             &now,
		UpdatedAt:             &now,
	}

	if req.Options == nil || req.Options.StartImmediately == nil || *req.Options.StartImmediately {
		sub.Status = braintree.String("Active")
		sub.CurrentBillingCycle = braintree.Int(1)
		txn := &braintree.Transaction{
			ID:                    s.newID(),
			Type:                  braintree.String(braintree.TransactionTypeSale),
			Status:                braintree.String(braintree.StatusSubmittedForSettlement),
			Amount:                &price,
			CurrencyISOCode:       braintree.String("USD"),
			MerchantAccountID:     braintree.String(s.merchantID),
			PlanID:                req.PlanID,
			SubscriptionID:        braintree.String(id),
			ProcessorResponseCode: braintree.String("1000"),
			ProcessorResponseText: braintree.String("Approved"),
			CreditCard:            card,
			CreatedAt:             &now,
			UpdatedAt:             &now,
		}
		s.transactions[txn.ID] = txn
		sub.Transactions = append(sub.Transactions, *txn)
	}

	s.subscriptions[sub.ID] = sub
	s.writeDocument(w, r, http.StatusCreated, braintree.SubscriptionSchema.Encode(sub, ""))
}
