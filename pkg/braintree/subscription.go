package braintree

import (
	"time"

	"github.com/shopspring/decimal"

	"braintree/pkg/markup"
)

// SubscriptionOptions tune how a subscription starts.
type SubscriptionOptions struct {
	StartImmediately *bool
}

var subscriptionOptionsSchema = &markup.Schema[SubscriptionOptions]{
	Name: "options",
	Fields: []markup.Field[SubscriptionOptions]{
		markup.Bool("start-immediately", func(o *SubscriptionOptions) **bool { return &o.StartImmediately }),
	},
}

// SubscriptionRequest subscribes a vaulted payment method or nonce to a
// plan. Create starts the subscription immediately unless Options says
// otherwise.
type SubscriptionRequest struct {
	ID                    *string
	PlanID                *string
	PaymentMethodNonce    *string
	PaymentMethodToken    *string
	MerchantAccountID     *string
	Price                 *decimal.Decimal
	NumberOfBillingCycles *int
	NeverExpires          *bool
	TrialPeriod           *bool
	Options               *SubscriptionOptions
}

// SubscriptionRequestSchema maps SubscriptionRequest to its wire form.
// Callers must not modify it.
var SubscriptionRequestSchema = &markup.Schema[SubscriptionRequest]{
	Name: "subscription",
	Fields: []markup.Field[SubscriptionRequest]{
		markup.Text("id", func(r *SubscriptionRequest) **string { return &r.ID }),
		markup.Text("plan-id", func(r *SubscriptionRequest) **string { return &r.PlanID }),
		markup.Text("payment-method-nonce", func(r *SubscriptionRequest) **string { return &r.PaymentMethodNonce }),
		markup.Text("payment-method-token", func(r *SubscriptionRequest) **string { return &r.PaymentMethodToken }),
		markup.Text("merchant-account-id", func(r *SubscriptionRequest) **string { return &r.MerchantAccountID }),
		markup.Decimal("price", func(r *SubscriptionRequest) **decimal.Decimal { return &r.Price }),
		markup.Integer("number-of-billing-cycles", func(r *SubscriptionRequest) **int { return &r.NumberOfBillingCycles }),
		markup.Bool("never-expires", func(r *SubscriptionRequest) **bool { return &r.NeverExpires }),
		markup.Bool("trial-period", func(r *SubscriptionRequest) **bool { return &r.TrialPeriod }),
		markup.Nested("options", subscriptionOptionsSchema, func(r *SubscriptionRequest) **SubscriptionOptions { return &r.Options }),
	},
}

// Subscription is a recurring billing agreement.
type Subscription struct {
	ID                    string
	PlanID                *string
	Status                *string
	Price                 *decimal.Decimal
	Balance               *decimal.Decimal
	PaymentMethodToken    *string
	MerchantAccountID     *string
	CurrentBillingCycle   *int
	NumberOfBillingCycles *int
	NeverExpires          *bool
	// Billing dates are calendar dates (YYYY-MM-DD) in the merchant's zone.
	FirstBillingDate *string
	NextBillingDate  *string
	Transactions     []Transaction
	CreatedAt        *time.Time
	UpdatedAt        *time.Time
}

// SubscriptionSchema maps Subscription to its wire form. Callers must not modify it.
var SubscriptionSchema = &markup.Schema[Subscription]{
	Name: "subscription",
	Fields: []markup.Field[Subscription]{
		markup.PlainText("id", func(s *Subscription) *string { return &s.ID }).Required(),
		markup.Text("plan-id", func(s *Subscription) **string { return &s.PlanID }),
		markup.Text("status", func(s *Subscription) **string { return &s.Status }),
		markup.Decimal("price", func(s *Subscription) **decimal.Decimal { return &s.Price }),
		markup.Decimal("balance", func(s *Subscription) **decimal.Decimal { return &s.Balance }),
		markup.Text("payment-method-token", func(s *Subscription) **string { return &s.PaymentMethodToken }),
		markup.Text("merchant-account-id", func(s *Subscription) **string { return &s.MerchantAccountID }),
		markup.Integer("current-billing-cycle", func(s *Subscription) **int { return &s.CurrentBillingCycle }),
		markup.Integer("number-of-billing-cycles", func(s *Subscription) **int { return &s.NumberOfBillingCycles }),
		markup.Bool("never-expires", func(s *Subscription) **bool { return &s.NeverExpires }),
		markup.Text("first-billing-date", func(s *Subscription) **string { return &s.FirstBillingDate }),
		markup.Text("next-billing-date", func(s *Subscription) **string { return &s.NextBillingDate }),
		markup.Collection("transactions", "transaction", TransactionSchema, func(s *Subscription) *[]Transaction { return &s.Transactions }),
		markup.Time("created-at", func(s *Subscription) **time.Time { return &s.CreatedAt }),
		markup.Time("updated-at", func(s *Subscription) **time.Time { return &s.UpdatedAt }),
	},
}
