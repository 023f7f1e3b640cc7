package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/config"
	"github.com/codr1/Lodgeicious/internal/db"
	"github.com/codr1/Lodgeicious/internal/pricing"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

type paymentFixture struct {
	database  *db.DB
	simulated *Simulated
	service   *Service
	detail    booking.Detail
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	database := testutil.NewTestDB(t)
	checker := availability.NewChecker(365, time.UTC)
	checker.Now = clock
	carts := cart.NewService(checker, pricing.Rates{TaxRate: decimal.RequireFromString("0.1")}, "USD", time.UTC)
	bookings := &booking.Service{
		Cart:               carts,
		Checker:            checker,
		Hold:               30 * time.Minute,
		CancellationCutoff: 48 * time.Hour,
		CheckInHour:        15,
		CheckOutHour:       11,
		Location:           time.UTC,
		Currency:           "USD",
		Now:                clock,
		NewNumber:          booking.NewNumber,
	}

	acc := testutil.SeedAccommodation(t, database, "pine", nil)
	c, _, err := carts.Ensure(ctx, database.Queries, "", 0)
	if err != nil {
		t.Fatalf("ensure cart: %v", err)
	}
	in, _ := pricing.ParseDate("2026-07-01")
	out, _ := pricing.ParseDate("2026-07-03")
	if _, err := carts.AddStay(ctx, database.Queries, c, acc.ID, in, out, 2); err != nil {
		t.Fatalf("add stay: %v", err)
	}
	detail, err := bookings.CreateFromCart(ctx, database.Queries, c,
		cart.Details{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, 0, config.GatewaySimulated)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	simulated := NewSimulated("http://lodge.test")
	return &paymentFixture{
		database:  database,
		simulated: simulated,
		service:   NewService(NewRegistry(config.GatewaySimulated, simulated), bookings, "http://lodge.test"),
		detail:    detail,
	}
}

func TestBeginRecordsAttempt(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	session, err := f.service.Begin(ctx, f.database.Queries, f.detail, config.GatewaySimulated)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if session.Reference != f.detail.BookingNumber+"-1" {
		t.Fatalf("unexpected reference %q", session.Reference)
	}
	if !strings.HasPrefix(session.RedirectURL, "http://lodge.test/checkout/simulate?") {
		t.Fatalf("unexpected redirect %q", session.RedirectURL)
	}

	second, err := f.service.Begin(ctx, f.database.Queries, f.detail, config.GatewaySimulated)
	if err != nil {
		t.Fatalf("second begin: %v", err)
	}
	if second.Reference != f.detail.BookingNumber+"-2" {
		t.Fatalf("expected a fresh reference per attempt, got %q", second.Reference)
	}

	attempts, err := f.database.Queries.ListPaymentsForBooking(ctx, f.detail.ID)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 2 || attempts[0].Status != PaymentInitiated || attempts[0].AmountCents != f.detail.TotalCents {
		t.Fatalf("unexpected attempts %+v", attempts)
	}

	if _, err := f.service.Begin(ctx, f.database.Queries, f.detail, "paypal"); !errors.Is(err, ErrUnknownGateway) {
		t.Fatalf("expected ErrUnknownGateway, got %v", err)
	}
}

func TestSettleApproved(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	session, err := f.service.Begin(ctx, f.database.Queries, f.detail, config.GatewaySimulated)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	pending, err := f.service.Settle(ctx, f.database.Queries, config.GatewaySimulated, session.Reference)
	if err != nil {
		t.Fatalf("settle pending: %v", err)
	}
	if pending.Status != VerificationPending || pending.Booking.Status != booking.StatusPending {
		t.Fatalf("expected undecided payment to stay pending, got %+v", pending)
	}

	if err := f.simulated.Decide(session.Reference, true); err != nil {
		t.Fatalf("decide: %v", err)
	}
	outcome, err := f.service.Settle(ctx, f.database.Queries, config.GatewaySimulated, session.Reference)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if outcome.Status != PaymentSucceeded || outcome.Booking.Status != booking.StatusConfirmed || outcome.Booking.PaymentStatus != booking.PaymentPaid {
		t.Fatalf("expected confirmed booking, got %+v", outcome)
	}

	again, err := f.service.Settle(ctx, f.database.Queries, config.GatewaySimulated, session.Reference)
	if err != nil || again.Booking.Status != booking.StatusConfirmed {
		t.Fatalf("expected repeated settle to be harmless, got %+v (%v)", again, err)
	}

	if _, err := f.service.Begin(ctx, f.database.Queries, booking.Detail{Booking: outcome.Booking}, config.GatewaySimulated); !errors.Is(err, ErrNotPayable) {
		t.Fatalf("expected paid booking to refuse new attempts, got %v", err)
	}
}

func TestSettleDeclined(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	session, err := f.service.Begin(ctx, f.database.Queries, f.detail, config.GatewaySimulated)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := f.simulated.Decide(session.Reference, false); err != nil {
		t.Fatalf("decide: %v", err)
	}

	outcome, err := f.service.Settle(ctx, f.database.Queries, config.GatewaySimulated, session.Reference)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if outcome.Status != PaymentFailed || outcome.Booking.Status != booking.StatusPending || outcome.Booking.PaymentStatus != booking.PaymentFailed {
		t.Fatalf("expected failed payment on pending booking, got %+v", outcome)
	}

	again, err := f.service.Settle(ctx, f.database.Queries, config.GatewaySimulated, session.Reference)
	if err != nil || again.Status != PaymentFailed || again.Booking.PaymentStatus != booking.PaymentFailed {
		t.Fatalf("expected repeated settle to keep the failure, got %+v (%v)", again, err)
	}

	if _, err := f.service.Settle(ctx, f.database.Queries, config.GatewaySimulated, "nope"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry(config.GatewayStripe,
		NewSimulated(""),
		NewFlutterwave(FlutterwaveConfig{SecretKey: "x"}),
		NewStripe("sk_test", nil),
	)
	names := r.Names()
	want := []string{config.GatewayStripe, config.GatewayFlutterwave, config.GatewaySimulated}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, names)
	}
	if _, err := r.Get("paypal"); !errors.Is(err, ErrUnknownGateway) {
		t.Fatalf("expected ErrUnknownGateway, got %v", err)
	}
}

func TestRegistryFromConfigNeedsSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Payments.Enabled = []string{config.GatewaySimulated, config.GatewayStripe}
	cfg.Payments.DefaultGateway = config.GatewaySimulated
	if _, _, err := RegistryFromConfig(cfg); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without a stripe key, got %v", err)
	}

	cfg.Payments.StripeSecretKey = "sk_test"
	registry, simulated, err := RegistryFromConfig(cfg)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if simulated == nil || len(registry.Names()) != 2 {
		t.Fatalf("expected both gateways registered")
	}
}
