package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
)

type sentEmail struct {
	recipient string
	subject   string
	body      string
	ctxErr    error
}

type fakeSender struct {
	mu   sync.Mutex
	sent chan sentEmail
	err  error
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(chan sentEmail, 4)}
}

func (f *fakeSender) Send(ctx context.Context, recipient, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent <- sentEmail{recipient: recipient, subject: subject, body: body, ctxErr: ctx.Err()}
	return f.err
}

func waitForEmail(t *testing.T, ch <-chan sentEmail) sentEmail {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("expected an email to be sent")
		return sentEmail{}
	}
}

func testBooking() (dbgen.Booking, []dbgen.BookingItem) {
	b := dbgen.Booking{
		ID:             1,
		BookingNumber:  "LDG-ABCDEFGH",
		GuestFirstName: "Ada",
		GuestLastName:  "Lovelace",
		GuestEmail:     " ada@example.com ",
		Currency:       "USD",
		TotalCents:     45650,
		Status:         "confirmed",
		PaymentStatus:  "paid",
		StartsAt:       time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC),
	}
	items := []dbgen.BookingItem{
		{Description: "Cabin pine, 2026-07-01 to 2026-07-04 (3 nights, 2 guests)", LineTotalCents: 32500},
	}
	return b, items
}

func newTestNotifier(sender Sender) *Notifier {
	return &Notifier{
		Sender:    sender,
		LodgeName: "Pine Lodge",
		BaseURL:   "https://lodge.test/",
		Location:  time.UTC,
		CancellableUntil: func(b dbgen.Booking) time.Time {
			return b.StartsAt.Add(-48 * time.Hour)
		},
	}
}

func TestBookingConfirmedSurvivesCancelledRequest(t *testing.T) {
	sender := newFakeSender()
	n := newTestNotifier(sender)
	b, items := testBooking()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.BookingConfirmed(ctx, b, items)

	msg := waitForEmail(t, sender.sent)
	if msg.ctxErr != nil {
		t.Fatalf("expected send context detached from the request, got %v", msg.ctxErr)
	}
	if msg.recipient != "ada@example.com" {
		t.Fatalf("unexpected recipient %q", msg.recipient)
	}
	if msg.subject != "Booking LDG-ABCDEFGH confirmed - Pine Lodge" {
		t.Fatalf("unexpected subject %q", msg.subject)
	}
	for _, want := range []string{
		"Hi Ada Lovelace,",
		"- Cabin pine, 2026-07-01 to 2026-07-04 (3 nights, 2 guests): $325.00",
		"Total paid: $456.50",
		"Free cancellation until: Monday, Jun 29, 2026 at 3:00 PM UTC",
		"https://lodge.test/bookings/LDG-ABCDEFGH",
	} {
		if !strings.Contains(msg.body, want) {
			t.Fatalf("expected body to contain %q, got:\n%s", want, msg.body)
		}
	}
}

func TestBookingCancelledMentionsRefund(t *testing.T) {
	sender := newFakeSender()
	n := newTestNotifier(sender)
	b, items := testBooking()
	b.Status = "cancelled"
	b.PaymentStatus = "refund_pending"

	n.BookingCancelled(context.Background(), b, items, "Lake flooding")

	msg := waitForEmail(t, sender.sent)
	if !strings.Contains(msg.body, "Reason: Lake flooding") || !strings.Contains(msg.body, "A refund of $456.50") {
		t.Fatalf("unexpected cancellation body:\n%s", msg.body)
	}
}

func TestArrivalReminderReportsErrors(t *testing.T) {
	sender := newFakeSender()
	sender.err = errors.New("throttled")
	n := newTestNotifier(sender)
	b, items := testBooking()

	if err := n.ArrivalReminder(context.Background(), b, items); err == nil {
		t.Fatalf("expected reminder error to propagate")
	}
	msg := waitForEmail(t, sender.sent)
	if !strings.HasPrefix(msg.subject, "Your stay is coming up (LDG-ABCDEFGH)") {
		t.Fatalf("unexpected reminder subject %q", msg.subject)
	}
}

func TestNotifierSkipsMissingRecipient(t *testing.T) {
	sender := newFakeSender()
	n := newTestNotifier(sender)
	b, items := testBooking()
	b.GuestEmail = "  "

	n.BookingConfirmed(context.Background(), b, items)
	select {
	case msg := <-sender.sent:
		t.Fatalf("expected no email, got %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}

	b.GuestEmail = "guest@example.com"
	var nilNotifier *Notifier
	nilNotifier.BookingConfirmed(context.Background(), b, items)
	nilNotifier.BookingCancelled(context.Background(), b, items, "Cancelled by the lodge.")

	noSender := &Notifier{LodgeName: "Test Lodge", CancellableUntil: func(dbgen.Booking) time.Time {
		t.Fatal("summary built without a sender")
		return time.Time{}
	}}
	noSender.BookingConfirmed(context.Background(), b, items)
	noSender.BookingCancelled(context.Background(), b, items, "")
}
