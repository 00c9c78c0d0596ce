package braintree

import (
	"time"

	"github.com/shopspring/decimal"

	"braintree/pkg/markup"
)

// Transaction types.
const (
	TransactionTypeSale   = "sale"
	TransactionTypeCredit = "credit"
)

// Transaction statuses reported by the gateway.
const (
	StatusAuthorizing            = "authorizing"
	StatusAuthorized             = "authorized"
	StatusAuthorizationExpired   = "authorization_expired"
	StatusSubmittedForSettlement = "submitted_for_settlement"
	StatusSettling               = "settling"
	StatusSettled                = "settled"
	StatusSettlementConfirmed    = "settlement_confirmed"
	StatusSettlementDeclined     = "settlement_declined"
	StatusSettlementPending      = "settlement_pending"
	StatusVoided                 = "voided"
	StatusProcessorDeclined      = "processor_declined"
	StatusGatewayRejected        = "gateway_rejected"
	StatusFailed                 = "failed"
)

// TransactionOptions tune how a new transaction is processed.
type TransactionOptions struct {
	SubmitForSettlement              *bool
	StoreInVault                     *bool
	StoreInVaultOnSuccess            *bool
	AddBillingAddressToPaymentMethod *bool
	HoldInEscrow                     *bool
}

var transactionOptionsSchema = &markup.Schema[TransactionOptions]{
	Name: "options",
	Fields: []markup.Field[TransactionOptions]{
		markup.Bool("submit-for-settlement", func(o *TransactionOptions) **bool { return &o.SubmitForSettlement }),
		markup.Bool("store-in-vault", func(o *TransactionOptions) **bool { return &o.StoreInVault }),
		markup.Bool("store-in-vault-on-success", func(o *TransactionOptions) **bool { return &o.StoreInVaultOnSuccess }),
		markup.Bool("add-billing-address-to-payment-method", func(o *TransactionOptions) **bool {
			return &o.AddBillingAddressToPaymentMethod
		}),
		markup.Bool("hold-in-escrow", func(o *TransactionOptions) **bool { return &o.HoldInEscrow }),
	},
}

// TransactionRequest creates a transaction. At a minimum it needs an amount
// and a payment method (card, nonce or vaulted token). Create sends type
// "sale" when Type is unset.
type TransactionRequest struct {
	Amount              *decimal.Decimal
	Type                *string
	OrderID             *string
	MerchantAccountID   *string
	CustomerID          *string
	PaymentMethodNonce  *string
	PaymentMethodToken  *string
	PurchaseOrderNumber *string
	TaxAmount           *decimal.Decimal
	TaxExempt           *bool
	DeviceData          *string
	CreditCard          *CreditCard
	Customer            *Customer
	Billing             *Address
	Shipping            *Address
	Options             *TransactionOptions
	Descriptor          *Descriptor
	CustomFields        map[string]string
}

// TransactionRequestSchema maps TransactionRequest to its wire form.
// Callers must not modify it.
var TransactionRequestSchema = &markup.Schema[TransactionRequest]{
	Name: "transaction",
	Fields: []markup.Field[TransactionRequest]{
		markup.Decimal("amount", func(r *TransactionRequest) **decimal.Decimal { return &r.Amount }),
		markup.Text("type", func(r *TransactionRequest) **string { return &r.Type }),
		markup.Text("order-id", func(r *TransactionRequest) **string { return &r.OrderID }),
		markup.Text("merchant-account-id", func(r *TransactionRequest) **string { return &r.MerchantAccountID }),
		markup.Text("customer-id", func(r *TransactionRequest) **string { return &r.CustomerID }),
		markup.Text("payment-method-nonce", func(r *TransactionRequest) **string { return &r.PaymentMethodNonce }),
		markup.Text("payment-method-token", func(r *TransactionRequest) **string { return &r.PaymentMethodToken }),
		markup.Text("purchase-order-number", func(r *TransactionRequest) **string { return &r.PurchaseOrderNumber }),
		markup.Decimal("tax-amount", func(r *TransactionRequest) **decimal.Decimal { return &r.TaxAmount }),
		markup.Bool("tax-exempt", func(r *TransactionRequest) **bool { return &r.TaxExempt }),
		markup.Text("device-data", func(r *TransactionRequest) **string { return &r.DeviceData }),
		markup.Nested("credit-card", CreditCardSchema, func(r *TransactionRequest) **CreditCard { return &r.CreditCard }),
		markup.Nested("customer", CustomerDetailsSchema, func(r *TransactionRequest) **Customer { return &r.Customer }),
		markup.Nested("billing", AddressSchema, func(r *TransactionRequest) **Address { return &r.Billing }),
		markup.Nested("shipping", AddressSchema, func(r *TransactionRequest) **Address { return &r.Shipping }),
		markup.Nested("options", transactionOptionsSchema, func(r *TransactionRequest) **TransactionOptions { return &r.Options }),
		markup.Nested("descriptor", DescriptorSchema, func(r *TransactionRequest) **Descriptor { return &r.Descriptor }),
		markup.Mapping("custom-fields", func(r *TransactionRequest) *map[string]string { return &r.CustomFields }),
	},
}

// Transaction is the gateway's record of a sale or credit.
type Transaction struct {
	ID                         string
	Type                       *string
	Status                     *string
	Amount                     *decimal.Decimal
	CurrencyISOCode            *string
	OrderID                    *string
	MerchantAccountID          *string
	RefundedTransactionID      *string
	ProcessorResponseCode      *string
	ProcessorResponseText      *string
	ProcessorAuthorizationCode *string
	SettlementBatchID          *string
	PaymentInstrumentType      *string
	PlanID                     *string
	SubscriptionID             *string
	CreditCard                 *CreditCard
	Customer                   *Customer
	Billing                    *Address
	Shipping                   *Address
	Descriptor                 *Descriptor
	CustomFields               map[string]string
	CreatedAt                  *time.Time
	UpdatedAt                  *time.Time
}

// TransactionSchema maps Transaction to its wire form. Callers must not modify it.
var TransactionSchema = &markup.Schema[Transaction]{
	Name: "transaction",
	Fields: []markup.Field[Transaction]{
		markup.PlainText("id", func(t *Transaction) *string { return &t.ID }).Required(),
		markup.Text("type", func(t *Transaction) **string { return &t.Type }),
		markup.Text("status", func(t *Transaction) **string { return &t.Status }),
		markup.Decimal("amount", func(t *Transaction) **decimal.Decimal { return &t.Amount }),
		markup.Text("currency-iso-code", func(t *Transaction) **string { return &t.CurrencyISOCode }),
		markup.Text("order-id", func(t *Transaction) **string { return &t.OrderID }),
		markup.Text("merchant-account-id", func(t *Transaction) **string { return &t.MerchantAccountID }),
		markup.Text("refunded-transaction-id", func(t *Transaction) **string { return &t.RefundedTransactionID }),
		markup.Text("processor-response-code", func(t *Transaction) **string { return &t.ProcessorResponseCode }),
		markup.Text("processor-response-text", func(t *Transaction) **string { return &t.ProcessorResponseText }),
		markup.Text("processor-authorization-code", func(t *Transaction) **string { return &t.ProcessorAuthorizationCode }),
		markup.Text("settlement-batch-id", func(t *Transaction) **string { return &t.SettlementBatchID }),
		markup.Text("payment-instrument-type", func(t *Transaction) **string { return &t.PaymentInstrumentType }),
		markup.Text("plan-id", func(t *Transaction) **string { return &t.PlanID }),
		markup.Text("subscription-id", func(t *Transaction) **string { return &t.SubscriptionID }),
		markup.Nested("credit-card", CreditCardSchema, func(t *Transaction) **CreditCard { return &t.CreditCard }),
		markup.Nested("customer", CustomerDetailsSchema, func(t *Transaction) **Customer { return &t.Customer }),
		markup.Nested("billing", AddressSchema, func(t *Transaction) **Address { return &t.Billing }),
		markup.Nested("shipping", AddressSchema, func(t *Transaction) **Address { return &t.Shipping }),
		markup.Nested("descriptor", DescriptorSchema, func(t *Transaction) **Descriptor { return &t.Descriptor }),
		markup.Mapping("custom-fields", func(t *Transaction) *map[string]string { return &t.CustomFields }),
		markup.Time("created-at", func(t *Transaction) **time.Time { return &t.CreatedAt }),
		markup.Time("updated-at", func(t *Transaction) **time.Time { return &t.UpdatedAt }),
	},
}

// refundRequest is the optional body of a partial refund.
type refundRequest struct {
	Amount  *decimal.Decimal
	OrderID *string
}

var refundRequestSchema = &markup.Schema[refundRequest]{
	Name: "transaction",
	Fields: []markup.Field[refundRequest]{
		markup.Decimal("amount", func(r *refundRequest) **decimal.Decimal { return &r.Amount }),
		markup.Text("order-id", func(r *refundRequest) **string { return &r.OrderID }),
	},
}
