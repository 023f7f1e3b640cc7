package checkout

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/config"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/payments"
	"github.com/codr1/Lodgeicious/internal/pricing"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []string
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, b dbgen.Booking, _ []dbgen.BookingItem) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b.BookingNumber)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.confirmed)
}

type checkoutFixture struct {
	database *db.DB
	carts    *cart.Service
	bookings *booking.Service
	notifier *recordingNotifier
	acc      dbgen.Accommodation
	checkIn  time.Time
}

func setupCheckoutTest(t *testing.T) *checkoutFixture {
	t.Helper()

	testDB := testutil.NewTestDB(t)

	// Save and restore global state
	prevDatabase, prevQueries, prevCarts, prevBookings := database, queries, carts, bookings
	prevPayments, prevSimulated, prevNotifier, prevLocation := paymentSvc, simulated, notifier, location
	t.Cleanup(func() {
		database, queries, carts, bookings = prevDatabase, prevQueries, prevCarts, prevBookings
		paymentSvc, simulated, notifier, location = prevPayments, prevSimulated, prevNotifier, prevLocation
	})

	checker := availability.NewChecker(365, time.UTC)
	cartSvc := cart.NewService(checker, pricing.Rates{TaxRate: decimal.RequireFromString("0.10")}, "USD", time.UTC)
	bookingSvc := &booking.Service{
		Cart:               cartSvc,
		Checker:            checker,
		Hold:               30 * time.Minute,
		CancellationCutoff: 48 * time.Hour,
		CheckInHour:        15,
		CheckOutHour:       11,
		Location:           time.UTC,
		Currency:           "USD",
		Now:                time.Now,
		NewNumber:          booking.NewNumber,
	}
	sim := payments.NewSimulated("http://lodge.test")
	registry := payments.NewRegistry(config.GatewaySimulated, sim)
	recorder := &recordingNotifier{}

	InitHandlers(Deps{
		DB:        testDB,
		Carts:     cartSvc,
		Bookings:  bookingSvc,
		Payments:  payments.NewService(registry, bookingSvc, "http://lodge.test"),
		Simulated: sim,
		Notifier:  recorder,
		Location:  time.UTC,
	})

	return &checkoutFixture{
		database: testDB,
		carts:    cartSvc,
		bookings: bookingSvc,
		notifier: recorder,
		acc:      testutil.SeedAccommodation(t, testDB, "pine", nil),
		checkIn:  time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour),
	}
}

var adaDetails = cart.Details{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}

// newCart returns a cart holding a two night stay.
func (f *checkoutFixture) newCart(t *testing.T, details *cart.Details) dbgen.Cart {
	t.Helper()
	ctx := context.Background()
	c, _, err := f.carts.Ensure(ctx, f.database.Queries, "", 0)
	if err != nil {
		t.Fatalf("ensure cart: %v", err)
	}
	if _, err := f.carts.AddStay(ctx, f.database.Queries, c, f.acc.ID, f.checkIn, f.checkIn.AddDate(0, 0, 2), 2); err != nil {
		t.Fatalf("add stay: %v", err)
	}
	if details != nil {
		if err := f.carts.SaveDetails(ctx, f.database.Queries, c, *details); err != nil {
			t.Fatalf("save details: %v", err)
		}
	}
	return c
}

func do(handler http.HandlerFunc, method, target string, form url.Values, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req = req.WithContext(cart.ContextWithToken(req.Context(), token))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCheckoutRedirectsWithoutCart(t *testing.T) {
	f := setupCheckoutTest(t)

	for name, handler := range map[string]http.HandlerFunc{"details": HandleDetailsPage, "review": HandleReview} {
		rec := do(handler, http.MethodGet, "/checkout", nil, "")
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/cart" {
			t.Fatalf("%s: expected redirect to /cart, got %d %q", name, rec.Code, rec.Header().Get("Location"))
		}
	}

	c := f.newCart(t, nil)
	rec := do(HandleReview, http.MethodGet, "/checkout/review", nil, c.Token)
	if rec.Header().Get("Location") != "/checkout" {
		t.Fatalf("expected review without details to go back to step one, got %q", rec.Header().Get("Location"))
	}
}

func TestDetailsValidation(t *testing.T) {
	f := setupCheckoutTest(t)
	c := f.newCart(t, nil)

	rec := do(HandleDetails, http.MethodPost, "/checkout/details", url.Values{
		"first_name": {"Ada"},
		"email":      {"not-an-email"},
		"phone":      {"call me"},
	}, c.Token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	for _, field := range []string{"last_name", "email", "phone"} {
		if !strings.Contains(rec.Body.String(), `data-field="`+field+`"`) {
			t.Fatalf("expected an error for %s, got %s", field, rec.Body.String())
		}
	}

	rec = do(HandleDetails, http.MethodPost, "/checkout/details", url.Values{
		"first_name": {" Ada "},
		"last_name":  {"Lovelace"},
		"email":      {"Ada@Example.com"},
		"phone":      {"(415) 555-0100"},
	}, c.Token)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/checkout/review" {
		t.Fatalf("expected redirect to review, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	stored, err := f.carts.Load(context.Background(), f.database.Queries, c.Token)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	details := cart.DetailsFromCart(stored)
	if details.FirstName != "Ada" || details.Email != "ada@example.com" || details.Phone != "+14155550100" {
		t.Fatalf("unexpected stored details %+v", details)
	}
}

func TestReviewListsGateways(t *testing.T) {
	f := setupCheckoutTest(t)
	c := f.newCart(t, &adaDetails)

	rec := do(HandleReview, http.MethodGet, "/checkout/review", nil, c.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="gateway" value="simulated" checked`) || !strings.Contains(body, "Test payment") {
		t.Fatalf("expected the simulated gateway option, got %s", body)
	}
	if !strings.Contains(body, "Cabin pine") {
		t.Fatal("expected cart items on the review page")
	}
}

// pay places the booking and returns the simulated gateway reference.
func pay(t *testing.T, c dbgen.Cart) (string, string) {
	t.Helper()
	rec := do(HandlePay, http.MethodPost, "/checkout/pay", url.Values{"gateway": {"simulated"}}, c.Token)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to the gateway, got %d: %s", rec.Code, rec.Body.String())
	}
	target, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse gateway url: %v", err)
	}
	if target.Host != "lodge.test" || target.Path != "/checkout/simulate" {
		t.Fatalf("unexpected gateway url %s", target)
	}
	return target.Query().Get("booking"), target.Query().Get("reference")
}

func decide(t *testing.T, number, reference, decision string) string {
	t.Helper()
	rec := do(HandleSimulate, http.MethodPost, "/checkout/simulate", url.Values{
		"booking":   {number},
		"reference": {reference},
		"decision":  {decision},
	}, "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect back to the lodge, got %d", rec.Code)
	}
	return rec.Header().Get("Location")
}

func TestPayAndConfirm(t *testing.T) {
	f := setupCheckoutTest(t)
	c := f.newCart(t, &adaDetails)

	number, reference := pay(t, c)
	if !booking.LooksLikeNumber(number) || reference == "" {
		t.Fatalf("unexpected booking %q reference %q", number, reference)
	}
	count, err := f.carts.Count(context.Background(), f.database.Queries, c)
	if err != nil || count != 0 {
		t.Fatalf("expected the cart emptied by checkout, got %d %v", count, err)
	}

	page := do(HandleSimulatePage, http.MethodGet, "/checkout/simulate?booking="+number+"&reference="+url.QueryEscape(reference), nil, "")
	// 2 nights at 100.00 + 25.00 cleaning, plus 10% tax.
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), "$247.50") {
		t.Fatalf("expected the simulate page with the total, got %d %s", page.Code, page.Body.String())
	}

	returnURL := decide(t, number, reference, "approve")
	rec := do(HandleReturn, http.MethodGet, returnURL, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "booked") {
		t.Fatalf("expected the confirmation, got %s", rec.Body.String())
	}

	detail, err := f.bookings.GetByNumber(context.Background(), f.database.Queries, number)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if detail.Status != booking.StatusConfirmed || detail.PaymentStatus != booking.PaymentPaid {
		t.Fatalf("expected confirmed and paid, got %s/%s", detail.Status, detail.PaymentStatus)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected one confirmation email, got %d", f.notifier.count())
	}

	// Reloading the return page must not send the email again.
	do(HandleReturn, http.MethodGet, returnURL, nil, "")
	if f.notifier.count() != 1 {
		t.Fatalf("expected still one confirmation email, got %d", f.notifier.count())
	}
}

func TestPayDeclinedOffersRetry(t *testing.T) {
	f := setupCheckoutTest(t)
	c := f.newCart(t, &adaDetails)
	number, reference := pay(t, c)

	rec := do(HandleReturn, http.MethodGet, decide(t, number, reference, "decline"), nil, "")
	body := rec.Body.String()
	if !strings.Contains(body, "Your payment was declined") || !strings.Contains(body, `action="/checkout/retry"`) {
		t.Fatalf("expected a decline with a retry form, got %s", body)
	}
	detail, err := f.bookings.GetByNumber(context.Background(), f.database.Queries, number)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if detail.Status != booking.StatusPending || detail.PaymentStatus != booking.PaymentFailed {
		t.Fatalf("expected pending with a failed payment, got %s/%s", detail.Status, detail.PaymentStatus)
	}

	wrongEmail := do(HandleRetry, http.MethodPost, "/checkout/retry", url.Values{"booking": {number}, "email": {"someone@else.com"}}, "")
	if wrongEmail.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a stranger, got %d", wrongEmail.Code)
	}
	retry := do(HandleRetry, http.MethodPost, "/checkout/retry", url.Values{"booking": {number}, "email": {"ada@example.com"}}, "")
	if retry.Code != http.StatusSeeOther || !strings.Contains(retry.Header().Get("Location"), "/checkout/simulate") {
		t.Fatalf("expected a new gateway redirect, got %d %q", retry.Code, retry.Header().Get("Location"))
	}
	if strings.Contains(retry.Header().Get("Location"), url.QueryEscape(reference)) {
		t.Fatal("expected a fresh payment reference for the retry")
	}
}

func TestPayConflictWhenTaken(t *testing.T) {
	f := setupCheckoutTest(t)
	mine := f.newCart(t, &adaDetails)
	theirs := f.newCart(t, &cart.Details{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"})

	err := f.database.RunInTx(context.Background(), func(tx *db.DB) error {
		_, err := f.bookings.CreateFromCart(context.Background(), tx.Queries, theirs, cart.DetailsFromCart(mustLoad(t, f, theirs.Token)), 0, config.GatewaySimulated)
		return err
	})
	if err != nil {
		t.Fatalf("book the only unit: %v", err)
	}

	rec := do(HandlePay, http.MethodPost, "/checkout/pay", url.Values{"gateway": {"simulated"}}, mine.Token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no longer available") {
		t.Fatalf("expected an availability message, got %s", rec.Body.String())
	}
	count, err := f.carts.Count(context.Background(), f.database.Queries, mine)
	if err != nil || count != 1 {
		t.Fatalf("expected the cart kept for editing, got %d %v", count, err)
	}
}

func mustLoad(t *testing.T, f *checkoutFixture, token string) dbgen.Cart {
	t.Helper()
	c, err := f.carts.Load(context.Background(), f.database.Queries, token)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	return c
}

func TestPayRejectsUnknownGateway(t *testing.T) {
	f := setupCheckoutTest(t)
	c := f.newCart(t, &adaDetails)

	rec := do(HandlePay, http.MethodPost, "/checkout/pay", url.Values{"gateway": {"cash"}}, c.Token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReturnRejectsUnknownPayment(t *testing.T) {
	f := setupCheckoutTest(t)
	c := f.newCart(t, &adaDetails)
	number, _ := pay(t, c)

	rec := do(HandleReturn, http.MethodGet, "/checkout/return?booking="+number+"&gateway=simulated&reference=nope", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	missing := do(HandleReturn, http.MethodGet, "/checkout/return?booking="+number, nil, "")
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", missing.Code)
	}
	sim := do(HandleSimulatePage, http.MethodGet, "/checkout/simulate?reference=nope", nil, "")
	if sim.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", sim.Code)
	}
}
