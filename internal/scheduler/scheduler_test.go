package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/cart"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/email"
	"github.com/codr1/Lodgeicious/internal/pricing"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

type recordingSender struct {
	mu       sync.Mutex
	subjects []string
	fail     bool
}

func (s *recordingSender) Send(_ context.Context, _, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("ses unavailable")
	}
	s.subjects = append(s.subjects, subject)
	return nil
}

type jobsFixture struct {
	jobs   *Jobs
	carts  *cart.Service
	sender *recordingSender
	clock  *time.Time
}

func newJobsFixture(t *testing.T) *jobsFixture {
	t.Helper()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	nowFn := func() time.Time { return *clock }

	database := testutil.NewTestDB(t)
	checker := availability.NewChecker(365, time.UTC)
	checker.Now = nowFn
	carts := cart.NewService(checker, pricing.Rates{TaxRate: decimal.Zero}, "USD", time.UTC)
	bookings := &booking.Service{
		Cart: carts, Checker: checker, Hold: 30 * time.Minute, CancellationCutoff: 48 * time.Hour,
		CheckInHour: 15, CheckOutHour: 11, Location: time.UTC, Currency: "USD",
		Now: nowFn, NewNumber: booking.NewNumber,
	}
	sender := &recordingSender{}
	return &jobsFixture{
		jobs: &Jobs{
			DB:             database,
			Bookings:       bookings,
			Notifier:       &email.Notifier{Sender: sender, LodgeName: "Pine Lodge", BaseURL: "http://lodge.test", Location: time.UTC},
			CartTTL:        30 * 24 * time.Hour,
			ReminderWindow: 48 * time.Hour,
			Now:            nowFn,
		},
		carts:  carts,
		sender: sender,
		clock:  clock,
	}
}

func (f *jobsFixture) book(t *testing.T, accID int64, in, out string) dbgen.Booking {
	t.Helper()
	ctx := context.Background()
	q := f.jobs.DB.Queries
	c, _, err := f.carts.Ensure(ctx, q, "", 0)
	if err != nil {
		t.Fatalf("ensure cart: %v", err)
	}
	checkIn, _ := pricing.ParseDate(in)
	checkOut, _ := pricing.ParseDate(out)
	if _, err := f.carts.AddStay(ctx, q, c, accID, checkIn, checkOut, 1); err != nil {
		t.Fatalf("add stay: %v", err)
	}
	detail, err := f.jobs.Bookings.CreateFromCart(ctx, q, c,
		cart.Details{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, 0, "simulated")
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return detail.Booking
}

func TestExpireHoldsJob(t *testing.T) {
	f := newJobsFixture(t)
	acc := testutil.SeedAccommodation(t, f.jobs.DB, "pine", nil)
	b := f.book(t, acc.ID, "2026-07-01", "2026-07-03")

	*f.clock = f.clock.Add(time.Hour)
	if err := f.jobs.ExpireHolds(context.Background()); err != nil {
		t.Fatalf("expire holds: %v", err)
	}
	reloaded, err := f.jobs.DB.Queries.GetBooking(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != booking.StatusExpired {
		t.Fatalf("expected expired booking, got %s", reloaded.Status)
	}
}

func TestSendRemindersJob(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()
	acc := testutil.SeedAccommodation(t, f.jobs.DB, "pine", func(p *dbgen.CreateAccommodationParams) { p.Units = 3 })
	soon := f.book(t, acc.ID, "2026-06-02", "2026-06-03")
	if _, err := f.jobs.Bookings.MarkPaid(ctx, f.jobs.DB.Queries, soon.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	f.sender.fail = true
	if err := f.jobs.SendReminders(ctx); err == nil {
		t.Fatalf("expected failed send to be reported")
	}
	f.sender.fail = false

	if err := f.jobs.SendReminders(ctx); err != nil {
		t.Fatalf("send reminders: %v", err)
	}
	if err := f.jobs.SendReminders(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(f.sender.subjects) != 1 || !strings.Contains(f.sender.subjects[0], soon.BookingNumber) {
		t.Fatalf("expected exactly one reminder after retry, got %v", f.sender.subjects)
	}
}

func TestPruneCartsJob(t *testing.T) {
	f := newJobsFixture(t)
	ctx := context.Background()
	c, _, err := f.carts.Ensure(ctx, f.jobs.DB.Queries, "", 0)
	if err != nil {
		t.Fatalf("ensure cart: %v", err)
	}

	f.jobs.Now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	if err := f.jobs.PruneCarts(ctx); err != nil {
		t.Fatalf("prune carts: %v", err)
	}
	if _, err := f.carts.Load(ctx, f.jobs.DB.Queries, c.Token); !errors.Is(err, cart.ErrNoCart) {
		t.Fatalf("expected abandoned cart removed, got %v", err)
	}
}

func TestAddJobValidation(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	noop := func(context.Context) error { return nil }
	if _, err := AddJob(" ", "* * * * *", noop); !errors.Is(err, ErrEmptyJobName) {
		t.Fatalf("expected ErrEmptyJobName, got %v", err)
	}
	if _, err := AddJob("noop", "", noop); !errors.Is(err, ErrEmptyCronExpr) {
		t.Fatalf("expected ErrEmptyCronExpr, got %v", err)
	}
	if _, err := AddJob("noop", "*/5 * * * *", noop); err != nil {
		t.Fatalf("add job: %v", err)
	}
}

func TestRunTaskRecordsFailure(t *testing.T) {
	called := false
	runTask(context.Background(), "failing", func(context.Context) error {
		called = true
		return errors.New("boom")
	})
	if !called {
		t.Fatalf("expected task to run")
	}
}
