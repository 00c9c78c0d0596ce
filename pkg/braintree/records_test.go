package braintree

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 3, 4, 5, 6, 7, 123456789, time.UTC)

func fullAddress() *Address {
	return &Address{
		ID:                 "addr1",
		Company:            String("Acme & Sons"),
		CountryCodeAlpha2:  String("US"),
		CountryCodeAlpha3:  String("USA"),
		CountryCodeNumeric: String("840"),
		CountryName:        String("United States of America"),
		ExtendedAddress:    String("Suite 5"),
		FirstName:          String("Jane"),
		LastName:           String("Doe"),
		Locality:           String("Chicago"),
		PostalCode:         String("60622"),
		Region:             String("IL"),
		StreetAddress:      String("1 E Main St"),
	}
}

func fullCard() *CreditCard {
	return &CreditCard{
		Number:          String("4111111111111111"),
		ExpirationDate:  String("10/20"),
		ExpirationMonth: String("10"),
		ExpirationYear:  String("20"),
		CVV:             String("123"),
		CardholderName:  String("Jane <Doe>"),
		Token:           String("tok1"),
		CustomerID:      String("cust1"),
		BillingAddress:  fullAddress(),
		Bin:             String("411111"),
		Last4:           String("1111"),
		CardType:        String("Visa"),
		MaskedNumber:    String("411111******1111"),
		Default:         Bool(true),
		Expired:         Bool(false),
		CreatedAt:       &fixedTime,
		UpdatedAt:       &fixedTime,
	}
}

func fullCustomer() *Customer {
	return &Customer{
		ID:                 "cust1",
		Company:            String("Acme"),
		Email:              String("jane@example.com"),
		Fax:                String("555-0100"),
		FirstName:          String("Jane"),
		LastName:           String("Doe"),
		Phone:              String("555-0101"),
		Website:            String("https://example.com/?a=1&b=2"),
		PaymentMethodNonce: String("fake-valid-nonce"),
		CreditCard:         fullCard(),
		CreditCards:        []CreditCard{*fullCard()},
		CustomFields:       map[string]string{"loyalty_tier": "gold", "referrer": "<ads>"},
		CreatedAt:          &fixedTime,
		UpdatedAt:          &fixedTime,
	}
}

func fullTransaction() *Transaction {
	return &Transaction{
		ID:                         "txn1",
		Type:                       String(TransactionTypeSale),
		Status:                     String(StatusSettled),
		Amount:                     Decimal("10.00"),
		CurrencyISOCode:            String("USD"),
		OrderID:                    String("order-1"),
		MerchantAccountID:          String("acct"),
		RefundedTransactionID:      String("txn0"),
		ProcessorResponseCode:      String("1000"),
		ProcessorResponseText:      String("Approved"),
		ProcessorAuthorizationCode: String("ABC123"),
		SettlementBatchID:          String("2024-03-04_acct"),
		PaymentInstrumentType:      String("credit_card"),
		PlanID:                     String("gold"),
		SubscriptionID:             String("sub1"),
		CreditCard:                 fullCard(),
		Customer:                   fullCustomer(),
		Billing:                    fullAddress(),
		Shipping:                   fullAddress(),
		Descriptor:                 &Descriptor{Name: String("ACME*STORE"), Phone: String("5550100"), URL: String("acme.com")},
		CustomFields:               map[string]string{"note": "x"},
		CreatedAt:                  &fixedTime,
		UpdatedAt:                  &fixedTime,
	}
}

func TestTransactionRequestScenario(t *testing.T) {
	req := &TransactionRequest{
		Amount: Decimal("10.00"),
		CreditCard: &CreditCard{
			Number:         String("4111111111111111"),
			ExpirationDate: String("10/20"),
		},
		Options: &TransactionOptions{SubmitForSettlement: Bool(true)},
	}

	want := `<transaction><amount>10.00</amount>` +
		`<credit-card><number>4111111111111111</number><expiration-date>10/20</expiration-date></credit-card>` +
		`<options><submit-for-settlement type="boolean">true</submit-for-settlement></options>` +
		`</transaction>`
	assert.Equal(t, want, TransactionRequestSchema.Encode(req, ""))
}

func TestRecordRoundTrip(t *testing.T) {
	t.Run("address", func(t *testing.T) {
		want := fullAddress()
		got, err := AddressSchema.Unmarshal(strings.NewReader(AddressSchema.Encode(want, "")))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("credit card", func(t *testing.T) {
		want := fullCard()
		got, err := CreditCardSchema.Unmarshal(strings.NewReader(CreditCardSchema.Encode(want, "")))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("customer", func(t *testing.T) {
		want := fullCustomer()
		got, err := CustomerSchema.Unmarshal(strings.NewReader(CustomerSchema.Encode(want, "")))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("transaction", func(t *testing.T) {
		want := fullTransaction()
		got, err := TransactionSchema.Unmarshal(strings.NewReader(TransactionSchema.Encode(want, "")))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("transaction request", func(t *testing.T) {
		want := &TransactionRequest{
			Amount:              Decimal("10.00"),
			Type:                String(TransactionTypeSale),
			OrderID:             String("o1"),
			MerchantAccountID:   String("acct"),
			CustomerID:          String("cust1"),
			PaymentMethodNonce:  String("nonce"),
			PaymentMethodToken:  String("tok"),
			PurchaseOrderNumber: String("po-9"),
			TaxAmount:           Decimal("0.80"),
			TaxExempt:           Bool(false),
			DeviceData:          String(`{"device_session_id":"abc"}`),
			CreditCard:          fullCard(),
			Customer:            fullCustomer(),
			Billing:             fullAddress(),
			Shipping:            fullAddress(),
			Options: &TransactionOptions{
				SubmitForSettlement:              Bool(true),
				StoreInVault:                     Bool(true),
				StoreInVaultOnSuccess:            Bool(false),
				AddBillingAddressToPaymentMethod: Bool(true),
				HoldInEscrow:                     Bool(false),
			},
			Descriptor:   &Descriptor{Name: String("ACME*STORE")},
			CustomFields: map[string]string{"k": "v"},
		}
		got, err := TransactionRequestSchema.Unmarshal(strings.NewReader(TransactionRequestSchema.Encode(want, "")))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("client token request", func(t *testing.T) {
		want := &ClientTokenRequest{
			CustomerID:        String("cust1"),
			MerchantAccountID: String("acct"),
			Options: &ClientTokenOptions{
				FailOnDuplicatePaymentMethod: Bool(true),
				MakeDefault:                  Bool(false),
				VerifyCard:                   Bool(true),
			},
			Version: Int(2),
		}
		got, err := ClientTokenRequestSchema.Unmarshal(strings.NewReader(ClientTokenRequestSchema.Encode(want, "")))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("subscription request", func(t *testing.T) {
		want := &SubscriptionRequest{
			ID:                    String("sub1"),
			PlanID:                String("gold"),
			PaymentMethodNonce:    String("nonce"),
			PaymentMethodToken:    String("tok"),
			MerchantAccountID:     String("acct"),
			Price:                 Decimal("9.99"),
			NumberOfBillingCycles: Int(12),
			NeverExpires:          Bool(false),
			TrialPeriod:           Bool(false),
			Options:               &SubscriptionOptions{StartImmediately: Bool(true)},
		}
		got, err := SubscriptionRequestSchema.Unmarshal(strings.NewReader(SubscriptionRequestSchema.Encode(want, "")))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("subscription", func(t *testing.T) {
		want := &Subscription{
			ID:                    "sub1",
			PlanID:                String("gold"),
			Status:                String("Active"),
			Price:                 Decimal("9.99"),
			Balance:               Decimal("0.00"),
			PaymentMethodToken:    String("tok"),
			MerchantAccountID:     String("acct"),
			CurrentBillingCycle:   Int(1),
			NumberOfBillingCycles: Int(12),
			NeverExpires:          Bool(false),
			FirstBillingDate:      String("2024-03-04"),
			NextBillingDate:       String("2024-04-04"),
			Transactions:          []Transaction{*fullTransaction()},
			CreatedAt:             &fixedTime,
			UpdatedAt:             &fixedTime,
		}
		got, err := SubscriptionSchema.Unmarshal(strings.NewReader(SubscriptionSchema.Encode(want, "")))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestRecordOmitsAbsentFields(t *testing.T) {
	out := CustomerSchema.Encode(&Customer{FirstName: String("Jane")}, "")
	assert.Equal(t, "<customer><first-name>Jane</first-name></customer>", out)

	out = CreditCardSchema.Encode(&CreditCard{Number: String("4111111111111111")}, "credit_card")
	assert.Equal(t, "<credit_card><number>4111111111111111</number></credit_card>", out)
}

func TestCustomerRequestShape(t *testing.T) {
	out := CustomerSchema.Encode(&Customer{
		PaymentMethodNonce: String("n"),
		CreditCard:         &CreditCard{Number: String("4111111111111111")},
		CustomFields:       map[string]string{"tier": "gold"},
	}, "")
	assert.Equal(t, "<customer><payment_method_nonce>n</payment_method_nonce>"+
		"<credit_card><number>4111111111111111</number></credit_card>"+
		"<custom_fields><tier>gold</tier></custom_fields></customer>", out)
}

func TestCustomerResponseDecode(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<customer>
  <id>84521190</id>
  <first-name>Jane</first-name>
  <company nil="true"/>
  <created-at type="datetime">2024-03-04T05:06:07.123456789Z</created-at>
  <custom-fields>
    <tier>gold</tier>
  </custom-fields>
  <credit-cards type="array">
    <credit-card>
      <bin>411111</bin>
      <last-4>1111</last-4>
      <default type="boolean">true</default>
      <billing-address><postal-code>60622</postal-code></billing-address>
    </credit-card>
  </credit-cards>
</customer>`

	got, err := CustomerSchema.Unmarshal(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "84521190", got.ID)
	assert.Equal(t, "Jane", *got.FirstName)
	assert.Nil(t, got.Company)
	assert.True(t, fixedTime.Equal(*got.CreatedAt))
	assert.Equal(t, map[string]string{"tier": "gold"}, got.CustomFields)
	require.Len(t, got.CreditCards, 1)
	assert.Equal(t, "1111", *got.CreditCards[0].Last4)
	require.NotNil(t, got.CreditCard)
	assert.Equal(t, "411111", *got.CreditCard.Bin)
	assert.Equal(t, "60622", *got.CreditCard.BillingAddress.PostalCode)
}

func TestTransactionDecodeGuestCustomer(t *testing.T) {
	doc := `<transaction><id>abc</id><amount>1.50</amount><customer><id nil="true"/><email nil="true"/></customer></transaction>`
	got, err := TransactionSchema.Unmarshal(strings.NewReader(doc))
	require.NoError(t, err)
	require.NotNil(t, got.Customer)
	assert.Empty(t, got.Customer.ID)
	assert.True(t, decimal.RequireFromString("1.5").Equal(*got.Amount))
}

func TestTransactionDecodeRequiresID(t *testing.T) {
	_, err := TransactionSchema.Unmarshal(strings.NewReader(`<transaction><status>settled</status></transaction>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction/id")
}
