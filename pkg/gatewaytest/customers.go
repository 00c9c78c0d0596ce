package gatewaytest

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"braintree/pkg/braintree"
)

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	req := &braintree.Customer{}
	if r.ContentLength > 0 {
		parsed, err := braintree.CustomerDetailsSchema.Unmarshal(r.Body)
		if err != nil {
			s.writeValidation(w, r, "customer", "base", CodeMalformedRequest, "Request body is malformed.")
			return
		}
		req = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := req.ID
	if id == "" {
		id = s.newID()
	} else if _, taken := s.customers[id]; taken {
		s.writeValidation(w, r, "customer", "id", CodeCustomerIDTaken, "Customer ID has already been taken.")
		return
	}

	var cards []braintree.CreditCard
	switch {
	case req.CreditCard != nil:
		if req.CreditCard.Number == nil || !validCardNumber(*req.CreditCard.Number) {
			s.writeValidation(w, r, "credit-card", "number", CodeCardNumberInvalid, "Credit card number is invalid.")
			return
		}
		cards = append(cards, vaultCard(req.CreditCard, s.newID(), id))
	case req.PaymentMethodNonce != nil:
		card, _, known := nonceCard(*req.PaymentMethodNonce, s.newID())
		if !known {
			s.writeValidation(w, r, "customer", "payment_method_nonce", CodePaymentMethodUnknown, "Unknown payment_method_nonce.")
			return
		}
		card.CustomerID = braintree.String(id)
		cards = append(cards, *card)
	}

	now := s.now().UTC()
	cust := &braintree.Customer{
		ID:           id,
		Company:      req.Company,
		Email:        req.Email,
		Fax:          req.Fax,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Website:      req.Website,
		CreditCards:  cards,
		CustomFields: req.CustomFields,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
	if cust.CreditCards == nil {
		cust.CreditCards = []braintree.CreditCard{}
	}
	s.customers[id] = cust
	s.writeDocument(w, r, http.StatusCreated, braintree.CustomerSchema.Encode(cust, ""))
}

func (s *Server) handleFindCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	s.mu.Lock()
	cust, ok := s.customers[id]
	var doc string
	if ok {
		doc = braintree.CustomerSchema.Encode(cust, "")
	}
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.writeDocument(w, r, http.StatusOK, doc)
}
