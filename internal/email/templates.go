package email

import (
	"fmt"
	"strings"
	"time"

	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/pricing"
)

type Message struct {
	Subject string
	Body    string
}

// Summary is what every booking email says about a booking.
type Summary struct {
	LodgeName        string
	BookingNumber    string
	GuestName        string
	Items            []string
	Total            string
	StartsAt         string
	ViewURL          string
	CancellableUntil string
	RefundPending    bool
}

// BuildSummary formats a booking for email in the lodge's timezone.
func BuildSummary(lodgeName, baseURL string, b dbgen.Booking, items []dbgen.BookingItem, cancellableUntil time.Time, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s: %s", item.Description, pricing.FormatCents(item.LineTotalCents, b.Currency)))
	}
	s := Summary{
		LodgeName:     lodgeName,
		BookingNumber: b.BookingNumber,
		GuestName:     strings.TrimSpace(b.GuestFirstName + " " + b.GuestLastName),
		Items:         lines,
		Total:         pricing.FormatCents(b.TotalCents, b.Currency),
		StartsAt:      FormatDateTime(b.StartsAt, loc),
		ViewURL:       fmt.Sprintf("%s/bookings/%s", strings.TrimRight(baseURL, "/"), b.BookingNumber),
		RefundPending: b.PaymentStatus == "refund_pending",
	}
	if !cancellableUntil.IsZero() {
		s.CancellableUntil = FormatDateTime(cancellableUntil, loc)
	}
	return s
}

func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Monday, Jan 2, 2006 at 3:04 PM MST")
}

func BuildConfirmation(s Summary) Message {
	lines := []string{
		fmt.Sprintf("Hi %s,", greetingName(s)),
		"",
		fmt.Sprintf("Your booking %s is confirmed.", s.BookingNumber),
		"",
	}
	lines = append(lines, itemLines(s)...)
	lines = append(lines,
		fmt.Sprintf("Total paid: %s", s.Total),
		fmt.Sprintf("Arrival: %s", s.StartsAt),
	)
	if s.CancellableUntil != "" {
		lines = append(lines, fmt.Sprintf("Free cancellation until: %s", s.CancellableUntil))
	}
	lines = append(lines, "", fmt.Sprintf("View your booking: %s", s.ViewURL))

	return Message{
		Subject: withLodge(fmt.Sprintf("Booking %s confirmed", s.BookingNumber), s.LodgeName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildCancellation(s Summary, reason string) Message {
	lines := []string{
		fmt.Sprintf("Hi %s,", greetingName(s)),
		"",
		fmt.Sprintf("Your booking %s has been cancelled.", s.BookingNumber),
		"",
	}
	lines = append(lines, itemLines(s)...)
	if reason = strings.TrimSpace(reason); reason != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", reason))
	}
	if s.RefundPending {
		lines = append(lines, fmt.Sprintf("A refund of %s is on its way.", s.Total))
	}

	return Message{
		Subject: withLodge(fmt.Sprintf("Booking %s cancelled", s.BookingNumber), s.LodgeName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildReminder(s Summary) Message {
	lines := []string{
		fmt.Sprintf("Hi %s,", greetingName(s)),
		"",
		fmt.Sprintf("We look forward to seeing you on %s.", s.StartsAt),
		"",
	}
	lines = append(lines, itemLines(s)...)
	lines = append(lines, "", fmt.Sprintf("Booking details: %s", s.ViewURL))

	return Message{
		Subject: withLodge(fmt.Sprintf("Your stay is coming up (%s)", s.BookingNumber), s.LodgeName),
		Body:    strings.Join(lines, "\n"),
	}
}

func itemLines(s Summary) []string {
	if len(s.Items) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.Items)+1)
	for _, item := range s.Items {
		out = append(out, "- "+item)
	}
	return append(out, "")
}

func greetingName(s Summary) string {
	if name := strings.TrimSpace(s.GuestName); name != "" {
		return name
	}
	return "there"
}

func withLodge(subject, lodge string) string {
	lodge = strings.TrimSpace(lodge)
	if lodge == "" {
		return subject
	}
	return fmt.Sprintf("%s - %s", subject, lodge)
}
