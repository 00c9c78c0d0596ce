package gatewaytest

import (
	"net/http"
	"strings"

	"github.com/beevik/etree"

	"braintree/internal/platform/privacy"
	"braintree/pkg/braintree"
	"braintree/pkg/markup"
)

// Validation error codes returned by the fake.
const (
	CodeAmountRequired            = "81502"
	CodeAmountMustBePositive      = "81531"
	CodeCardNumberInvalid         = "81715"
	CodePaymentMethodUnknown      = "91508"
	CodeCustomerIDInvalid         = "91510"
	CodeTransactionTypeInvalid    = "91523"
	CodeCannotSubmitForSettlement = "91507"
	CodeCannotVoid                = "91504"
	CodeCannotRefund              = "91506"
	CodeAlreadyRefunded           = "91512"
	CodeRefundTooLarge            = "91521"
	CodeCannotSettle              = "91576"
	CodeCustomerIDTaken           = "91609"
	CodePlanIDRequired            = "91903"
	CodeMalformedRequest          = "93101"
)

// errorDocument builds an api-error-response. errs are filed under resource;
// txn, when set, is attached as the declined transaction.
func errorDocument(message, resource string, errs []braintree.ValidationError, txn *braintree.Transaction) string {
	doc := etree.NewDocument()
	root := doc.CreateElement("api-error-response")

	errors := root.CreateElement("errors")
	errors.CreateElement("errors").CreateAttr("type", "array")
	if resource != "" && len(errs) > 0 {
		list := errors.CreateElement(resource).CreateElement("errors")
		list.CreateAttr("type", "array")
		for _, ve := range errs {
			el := list.CreateElement("error")
			el.CreateElement("code").SetText(ve.Code)
			attr := el.CreateElement("attribute")
			attr.CreateAttr("type", "symbol")
			attr.SetText(ve.Attribute)
			el.CreateElement("message").SetText(ve.Message)
		}
	}

	root.CreateElement("message").SetText(message)

	if txn != nil {
		if el, err := markup.ParseString(braintree.TransactionSchema.Encode(txn, "")); err == nil {
			root.AddChild(el)
		}
	}

	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message, resource string, errs []braintree.ValidationError) {
	s.writeDocument(w, r, status, errorDocument(message, resource, errs, nil))
}

// writeValidation answers 422 with a single validation error.
func (s *Server) writeValidation(w http.ResponseWriter, r *http.Request, resource, attribute, code, message string) {
	s.writeError(w, r, http.StatusUnprocessableEntity, message, resource, []braintree.ValidationError{
		{Attribute: attribute, Code: code, Message: message},
	})
}

// vaultCard turns raw card data into what the gateway stores and echoes:
// no full number, no CVV.
func vaultCard(in *braintree.CreditCard, token, customerID string) braintree.CreditCard {
	number := ""
	if in.Number != nil {
		number = *in.Number
	}
	card := braintree.CreditCard{
		Token:          braintree.String(token),
		CardholderName: in.CardholderName,
		BillingAddress: in.BillingAddress,
		Default:        braintree.Bool(true),
		Expired:        braintree.Bool(false),
	}
	if customerID != "" {
		card.CustomerID = braintree.String(customerID)
	}
	if bin := privacy.BIN(number); bin != "" {
		card.Bin = braintree.String(bin)
		card.Last4 = braintree.String(privacy.Last4(number))
		card.MaskedNumber = braintree.String(privacy.MaskPAN(number))
		card.CardType = braintree.String(cardType(number))
	}

	month, year := expiration(in)
	if month != "" {
		card.ExpirationMonth = braintree.String(month)
		card.ExpirationYear = braintree.String(year)
		card.ExpirationDate = braintree.String(month + "/" + year)
	}
	return card
}

func expiration(in *braintree.CreditCard) (month, year string) {
	if in.ExpirationDate != nil {
		m, y, ok := strings.Cut(*in.ExpirationDate, "/")
		if ok {
			return m, y
		}
	}
	if in.ExpirationMonth != nil && in.ExpirationYear != nil {
		return *in.ExpirationMonth, *in.ExpirationYear
	}
	return "", ""
}

func cardType(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case strings.HasPrefix(number, "5"):
		return "MasterCard"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "American Express"
	case strings.HasPrefix(number, "6011"):
		return "Discover"
	default:
		return "Unknown"
	}
}

// validCardNumber applies the Luhn check.
func validCardNumber(number string) bool {
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
