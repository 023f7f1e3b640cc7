package bookings

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/config"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/pricing"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

type recordingNotifier struct {
	mu        sync.Mutex
	cancelled []string
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, b dbgen.Booking, _ []dbgen.BookingItem, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.BookingNumber)
}

type bookingsFixture struct {
	database *db.DB
	carts    *cart.Service
	service  *booking.Service
	notifier *recordingNotifier
	acc      dbgen.Accommodation
	guest    *authz.AuthUser
	checkIn  time.Time
}

func setupBookingsTest(t *testing.T) *bookingsFixture {
	t.Helper()

	testDB := testutil.NewTestDB(t)

	// Save and restore global state
	prevQueries, prevBookings, prevNotifier, prevLocation := queries, bookings, notifier, location
	t.Cleanup(func() {
		queries, bookings, notifier, location = prevQueries, prevBookings, prevNotifier, prevLocation
	})

	checker := availability.NewChecker(365, time.UTC)
	cartSvc := cart.NewService(checker, pricing.Rates{}, "USD", time.UTC)
	svc := &booking.Service{
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
	recorder := &recordingNotifier{}
	InitHandlers(Deps{Queries: testDB.Queries, Bookings: svc, Notifier: recorder, Location: time.UTC})

	user := testutil.SeedUser(t, testDB, "ada@example.com", authz.RoleGuest, "")
	return &bookingsFixture{
		database: testDB,
		carts:    cartSvc,
		service:  svc,
		notifier: recorder,
		acc:      testutil.SeedAccommodation(t, testDB, "pine", nil),
		guest:    &authz.AuthUser{ID: user.ID, Email: user.Email, Role: authz.RoleGuest},
		checkIn:  time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour),
	}
}

// book creates a pending booking for a two night stay starting at checkIn.
func (f *bookingsFixture) book(t *testing.T, checkIn time.Time, email string, userID int64) booking.Detail {
	t.Helper()
	ctx := context.Background()
	c, _, err := f.carts.Ensure(ctx, f.database.Queries, "", 0)
	if err != nil {
		t.Fatalf("ensure cart: %v", err)
	}
	if _, err := f.carts.AddStay(ctx, f.database.Queries, c, f.acc.ID, checkIn, checkIn.AddDate(0, 0, 2), 2); err != nil {
		t.Fatalf("add stay: %v", err)
	}
	details := cart.Details{FirstName: "Ada", LastName: "Lovelace", Email: email}
	if err := f.carts.SaveDetails(ctx, f.database.Queries, c, details); err != nil {
		t.Fatalf("save details: %v", err)
	}
	detail, err := f.service.CreateFromCart(ctx, f.database.Queries, c, details, userID, config.GatewaySimulated)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return detail
}

func serve(pattern string, handler http.HandlerFunc, req *http.Request, user *authz.AuthUser) *httptest.ResponseRecorder {
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func cancelRequest(number, email string, htmx bool) *http.Request {
	form := url.Values{}
	if email != "" {
		form.Set("email", email)
	}
	req := httptest.NewRequest(http.MethodPost, "/bookings/"+number+"/cancel", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func TestMyBookingsListsOnlyOwnBookings(t *testing.T) {
	f := setupBookingsTest(t)
	mine := f.book(t, f.checkIn, "ada@example.com", f.guest.ID)
	other := f.book(t, f.checkIn.AddDate(0, 0, 7), "grace@example.com", 0)

	rec := serve("GET /bookings", HandleMyBookings, httptest.NewRequest(http.MethodGet, "/bookings", nil), f.guest)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, mine.BookingNumber) {
		t.Fatalf("expected own booking listed, got %s", body)
	}
	if strings.Contains(body, other.BookingNumber) {
		t.Fatal("another guest's booking must not be listed")
	}

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Accept", "application/json")
	jsonRec := serve("GET /bookings", HandleMyBookings, req, f.guest)
	var page models.Page[bookingResponse]
	if err := json.NewDecoder(jsonRec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Number != mine.BookingNumber {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].HoldExpiresAt == nil {
		t.Fatal("pending booking should expose its hold expiry")
	}
}

func TestMyBookingsRequiresLogin(t *testing.T) {
	setupBookingsTest(t)

	rec := serve("GET /bookings", HandleMyBookings, httptest.NewRequest(http.MethodGet, "/bookings", nil), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fbookings" {
		t.Fatalf("unexpected login redirect %q", loc)
	}
}

func TestBookingVisibility(t *testing.T) {
	f := setupBookingsTest(t)
	detail := f.book(t, f.checkIn, "grace@example.com", 0)
	stranger := &authz.AuthUser{ID: f.guest.ID + 100, Email: "eve@example.com", Role: authz.RoleGuest}
	admin := &authz.AuthUser{ID: f.guest.ID + 200, Email: "boss@example.com", Role: authz.RoleAdmin}

	tests := []struct {
		name   string
		target string
		user   *authz.AuthUser
		status int
	}{
		{"matching email", "/bookings/" + detail.BookingNumber + "?email=GRACE%40example.com", nil, http.StatusOK},
		{"wrong email", "/bookings/" + detail.BookingNumber + "?email=eve%40example.com", nil, http.StatusNotFound},
		{"no email", "/bookings/" + detail.BookingNumber, nil, http.StatusNotFound},
		{"stranger", "/bookings/" + detail.BookingNumber, stranger, http.StatusNotFound},
		{"admin", "/bookings/" + detail.BookingNumber, admin, http.StatusOK},
		{"unknown number", "/bookings/LDG-NOPE", admin, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve("GET /bookings/{number}", HandleBooking, httptest.NewRequest(http.MethodGet, tc.target, nil), tc.user)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestBookingDetailOffersCancellation(t *testing.T) {
	f := setupBookingsTest(t)
	detail := f.book(t, f.checkIn, "ada@example.com", f.guest.ID)

	rec := serve("GET /bookings/{number}", HandleBooking, httptest.NewRequest(http.MethodGet, "/bookings/"+detail.BookingNumber, nil), f.guest)
	body := rec.Body.String()
	if !strings.Contains(body, "/bookings/"+detail.BookingNumber+"/cancel") {
		t.Fatalf("expected a cancel form, got %s", body)
	}
	if !strings.Contains(body, "Free cancellation until") {
		t.Fatalf("expected the cancellation deadline, got %s", body)
	}
}

func TestLookup(t *testing.T) {
	f := setupBookingsTest(t)
	detail := f.book(t, f.checkIn, "grace@example.com", 0)

	found := serve("GET /bookings/lookup", HandleLookup, httptest.NewRequest(http.MethodGet,
		"/bookings/lookup?number="+strings.ToLower(detail.BookingNumber)+"&email=grace%40example.com", nil), nil)
	if found.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", found.Code)
	}
	want := "/bookings/" + detail.BookingNumber + "?email=grace%40example.com"
	if loc := found.Header().Get("Location"); loc != want {
		t.Fatalf("expected redirect to %q, got %q", want, loc)
	}

	missed := serve("GET /bookings/lookup", HandleLookup, httptest.NewRequest(http.MethodGet,
		"/bookings/lookup?number="+detail.BookingNumber+"&email=eve%40example.com", nil), nil)
	if missed.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missed.Code)
	}
	if !strings.Contains(missed.Body.String(), "could not find a booking") {
		t.Fatalf("expected lookup error, got %s", missed.Body.String())
	}

	blank := serve("GET /bookings/lookup", HandleLookup, httptest.NewRequest(http.MethodGet, "/bookings/lookup", nil), nil)
	if blank.Code != http.StatusOK {
		t.Fatalf("expected the empty form, got %d", blank.Code)
	}
}

func TestCancelBooking(t *testing.T) {
	f := setupBookingsTest(t)
	detail := f.book(t, f.checkIn, "grace@example.com", 0)

	rec := serve("POST /bookings/{number}/cancel", HandleCancel, cancelRequest(detail.BookingNumber, "grace@example.com", true), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Your booking was cancelled.") {
		t.Fatalf("expected confirmation message, got %s", rec.Body.String())
	}
	updated, err := f.database.Queries.GetBookingByNumber(t.Context(), detail.BookingNumber)
	if err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	if updated.Status != booking.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if len(f.notifier.cancelled) != 1 {
		t.Fatalf("expected one cancellation email, got %d", len(f.notifier.cancelled))
	}

	again := serve("POST /bookings/{number}/cancel", HandleCancel, cancelRequest(detail.BookingNumber, "grace@example.com", true), nil)
	if again.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a second cancel, got %d", again.Code)
	}
}

func TestCancelInsideCutoff(t *testing.T) {
	f := setupBookingsTest(t)
	detail := f.book(t, f.checkIn, "ada@example.com", f.guest.ID)
	f.service.Now = func() time.Time { return detail.StartsAt.Add(-24 * time.Hour) }

	rec := serve("POST /bookings/{number}/cancel", HandleCancel, cancelRequest(detail.BookingNumber, "", true), f.guest)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too close to arrival") {
		t.Fatalf("expected cutoff message, got %s", rec.Body.String())
	}
	if len(f.notifier.cancelled) != 0 {
		t.Fatal("no email should be sent for a refused cancellation")
	}
}

func TestCancelPlainFormRedirects(t *testing.T) {
	f := setupBookingsTest(t)
	detail := f.book(t, f.checkIn, "ada@example.com", f.guest.ID)

	rec := serve("POST /bookings/{number}/cancel", HandleCancel, cancelRequest(detail.BookingNumber, "", false), f.guest)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/bookings/"+detail.BookingNumber {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestCancelByStrangerIsHidden(t *testing.T) {
	f := setupBookingsTest(t)
	detail := f.book(t, f.checkIn, "grace@example.com", 0)

	rec := serve("POST /bookings/{number}/cancel", HandleCancel, cancelRequest(detail.BookingNumber, "eve@example.com", true), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
