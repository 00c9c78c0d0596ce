// Command btctl drives the gateway from the command line: it generates
// client tokens, vaults customers, and walks transactions through their life
// cycle. Credentials come from BRAINTREE_* variables or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"braintree/internal/platform/config"
	"braintree/internal/platform/logger"
	"braintree/pkg/braintree"
	"braintree/pkg/platform/tracer"
)

// maxParallelLookups bounds concurrent requests for txn-find.
const maxParallelLookups = 4

type app struct {
	gw  *braintree.Gateway
	out io.Writer
}

func main() {
	if len(os.Args) < 2 || isHelp(os.Args[1]) {
		printUsage(os.Stdout)
		return
	}

	cfg, err := config.ClientFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := []braintree.Option{
		braintree.WithLogger(logger.New(cfg.LogLevel)),
		braintree.WithTracer(tracer.NewOTel()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, braintree.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, braintree.WithTimeout(cfg.Timeout))
	}
	gw, err := braintree.New(cfg.Environment, cfg.MerchantID, cfg.PublicKey, cfg.PrivateKey, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{gw: gw, out: os.Stdout}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func isHelp(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `btctl - talk to the payment gateway

Usage:
  btctl <command> [flags] [args]

Commands:
  token             Generate a client token
  customer-create   Create a customer, optionally vaulting a card
  customer-find     Look up a customer by id
  txn-create        Create a sale
  txn-find          Look up one or more transactions
  txn-submit        Submit an authorized transaction for settlement
  txn-void          Void a transaction
  txn-refund        Refund a settled transaction, fully or partially
  sandbox-settle    Force a sandbox settlement outcome

Environment:
  BRAINTREE_ENVIRONMENT   sandbox (default) or production
  BRAINTREE_MERCHANT_ID, BRAINTREE_PUBLIC_KEY, BRAINTREE_PRIVATE_KEY
  BRAINTREE_BASE_URL      optional origin override, e.g. http://localhost:8090
  BRAINTREE_TIMEOUT       optional per-request timeout, e.g. 30s

Examples:
  btctl txn-create -amount 10.00 -nonce fake-valid-nonce -submit
  btctl sandbox-settle -outcome settled 8f3k2m1a
  btctl txn-refund -amount 4.00 8f3k2m1a
  btctl txn-find 8f3k2m1a 9a7b6c5d

Use "btctl <command> -h" for more information about a command.`)
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "token":
		return a.token(ctx, rest)
	case "customer-create":
		return a.customerCreate(ctx, rest)
	case "customer-find":
		return a.withID(rest, cmd, func(id string) (any, error) { return a.gw.Customer().Find(ctx, id) })
	case "txn-create":
		return a.txnCreate(ctx, rest)
	case "txn-find":
		return a.txnFind(ctx, rest)
	case "txn-submit":
		return a.withID(rest, cmd, func(id string) (any, error) { return a.gw.Transaction().SubmitForSettlement(ctx, id) })
	case "txn-void":
		return a.withID(rest, cmd, func(id string) (any, error) { return a.gw.Transaction().Void(ctx, id) })
	case "txn-refund":
		return a.txnRefund(ctx, rest)
	case "sandbox-settle":
		return a.sandboxSettle(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q; run btctl help", cmd)
	}
}

func (a *app) token(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	customerID := fs.String("customer-id", "", "Customer whose vaulted methods the token exposes")
	version := fs.Int("version", braintree.DefaultClientTokenVersion, "Client token version")
	decode := fs.Bool("decode", false, "Also print the decoded fingerprint")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := &braintree.ClientTokenRequest{Version: braintree.Int(*version)}
	if *customerID != "" {
		req.CustomerID = braintree.String(*customerID)
	}
	token, err := a.gw.ClientToken().Generate(ctx, req)
	if err != nil {
		return err
	}
	if !*decode {
		return a.print(map[string]string{"client_token": token.Value})
	}
	fp, err := token.Fingerprint()
	if err != nil {
		return err
	}
	return a.print(map[string]any{"client_token": token.Value, "fingerprint": fp})
}

func (a *app) customerCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("customer-create", flag.ContinueOnError)
	id := fs.String("id", "", "Customer id; assigned by the gateway when empty")
	first := fs.String("first-name", "", "First name")
	last := fs.String("last-name", "", "Last name")
	email := fs.String("email", "", "Email address")
	number := fs.String("card-number", "", "Card number to vault")
	expiry := fs.String("card-expiration", "", "Card expiration, MM/YYYY")
	nonce := fs.String("nonce", "", "Payment method nonce to vault")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := &braintree.Customer{
		ID:                 *id,
		FirstName:          optional(*first),
		LastName:           optional(*last),
		Email:              optional(*email),
		PaymentMethodNonce: optional(*nonce),
	}
	if *number != "" {
		c.CreditCard = &braintree.CreditCard{
			Number:         braintree.String(*number),
			ExpirationDate: optional(*expiry),
		}
	}
	cust, err := a.gw.Customer().Create(ctx, c)
	if err != nil {
		return err
	}
	return a.print(cust)
}

func (a *app) txnCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("txn-create", flag.ContinueOnError)
	amount := fs.String("amount", "", "Amount, e.g. 10.00 (required)")
	nonce := fs.String("nonce", "", "Payment method nonce")
	token := fs.String("token", "", "Vaulted payment method token")
	customerID := fs.String("customer-id", "", "Charge the customer's default card")
	orderID := fs.String("order-id", "", "Merchant order id")
	submit := fs.Bool("submit", false, "Submit for settlement immediately")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *amount == "" {
		return errors.New("txn-create: -amount is required")
	}
	amt, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("txn-create: invalid amount: %w", err)
	}

	req := &braintree.TransactionRequest{
		Amount:             &amt,
		PaymentMethodNonce: optional(*nonce),
		PaymentMethodToken: optional(*token),
		CustomerID:         optional(*customerID),
		OrderID:            optional(*orderID),
	}
	if *submit {
		req.Options = &braintree.TransactionOptions{SubmitForSettlement: braintree.Bool(true)}
	}
	txn, err := a.gw.Transaction().Create(ctx, req)
	if err != nil {
		return err
	}
	return a.print(txn)
}

// txnFind looks up every id concurrently and prints them in argument order.
// The first failure cancels the remaining lookups.
func (a *app) txnFind(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("txn-find: at least one transaction id is required")
	}

	results := make([]*braintree.Transaction, len(args))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)
	for i, id := range args {
		g.Go(func() error {
			txn, err := a.gw.Transaction().Find(ctx, id)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			results[i] = txn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(results) == 1 {
		return a.print(results[0])
	}
	return a.print(results)
}

func (a *app) txnRefund(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("txn-refund", flag.ContinueOnError)
	amount := fs.String("amount", "", "Partial refund amount; full refund when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.withID(fs.Args(), "txn-refund", func(id string) (any, error) {
		if *amount == "" {
			return a.gw.Transaction().Refund(ctx, id)
		}
		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		return a.gw.Transaction().RefundAmount(ctx, id, amt)
	})
}

func (a *app) sandboxSettle(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sandbox-settle", flag.ContinueOnError)
	outcome := fs.String("outcome", braintree.StatusSettled,
		"settled, settlement_confirmed, settlement_declined or settlement_pending")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sandbox := a.gw.Testing()
	ops := map[string]func(context.Context, string) (*braintree.Transaction, error){
		braintree.StatusSettled:             sandbox.Settle,
		braintree.StatusSettlementConfirmed: sandbox.SettlementConfirm,
		braintree.StatusSettlementDeclined:  sandbox.SettlementDecline,
		braintree.StatusSettlementPending:   sandbox.SettlementPending,
	}
	op, ok := ops[*outcome]
	if !ok {
		return fmt.Errorf("sandbox-settle: unknown outcome %q", *outcome)
	}
	return a.withID(fs.Args(), "sandbox-settle", func(id string) (any, error) { return op(ctx, id) })
}

func (a *app) withID(args []string, cmd string, fn func(id string) (any, error)) error {
	if len(args) != 1 {
		return fmt.Errorf("%s: exactly one id is required", cmd)
	}
	v, err := fn(args[0])
	if err != nil {
		return err
	}
	return a.print(v)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportError prints the gateway's validation errors when there are any.
func reportError(w io.Writer, err error) {
	var apiErr *braintree.APIError
	if !errors.As(err, &apiErr) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: gateway answered %d: %s\n", apiErr.StatusCode, apiErr.Message)
	for _, ve := range apiErr.Errors {
		fmt.Fprintf(w, "  %s %s: %s\n", ve.Code, strings.TrimSpace(ve.Attribute), ve.Message)
	}
	if apiErr.Transaction != nil {
		fmt.Fprintf(w, "  transaction %s is %s\n", apiErr.Transaction.ID, deref(apiErr.Transaction.Status))
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
