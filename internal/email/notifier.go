package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
)

const sendTimeout = 5 * time.Second

// Notifier sends booking emails to the guest address on the booking.
type Notifier struct {
	Sender    Sender
	LodgeName string
	BaseURL   string
	Location  *time.Location
	// CancellableUntil reports the guest cancellation deadline for a booking.
	CancellableUntil func(dbgen.Booking) time.Time
}

func (n *Notifier) summary(b dbgen.Booking, items []dbgen.BookingItem) Summary {
	var until time.Time
	if n.CancellableUntil != nil {
		until = n.CancellableUntil(b)
	}
	return BuildSummary(n.LodgeName, n.BaseURL, b, items, until, n.Location)
}

// BookingConfirmed sends the confirmation email in the background.
func (n *Notifier) BookingConfirmed(ctx context.Context, b dbgen.Booking, items []dbgen.BookingItem) {
	if n == nil || n.Sender == nil {
		return
	}
	n.sendAsync(ctx, b, BuildConfirmation(n.summary(b, items)))
}

// BookingCancelled sends the cancellation email in the background.
func (n *Notifier) BookingCancelled(ctx context.Context, b dbgen.Booking, items []dbgen.BookingItem, reason string) {
	if n == nil || n.Sender == nil {
		return
	}
	n.sendAsync(ctx, b, BuildCancellation(n.summary(b, items), reason))
}

// ArrivalReminder sends the reminder and reports failure so the caller can
// retry on the next run.
func (n *Notifier) ArrivalReminder(ctx context.Context, b dbgen.Booking, items []dbgen.BookingItem) error {
	if n == nil || n.Sender == nil {
		return nil
	}
	msg := BuildReminder(n.summary(b, items))
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return n.Sender.Send(sendCtx, strings.TrimSpace(b.GuestEmail), msg.Subject, msg.Body)
}

func (n *Notifier) sendAsync(ctx context.Context, b dbgen.Booking, msg Message) {
	if n == nil || n.Sender == nil {
		return
	}
	recipient := strings.TrimSpace(b.GuestEmail)
	if recipient == "" || msg.Subject == "" {
		return
	}

	logger := log.Ctx(ctx).With().
		Int64("booking_id", b.ID).
		Str("booking_number", b.BookingNumber).
		Logger()

	go func() {
		sendCtx, cancel := newEmailContext(ctx, sendTimeout)
		defer cancel()
		if err := n.Sender.Send(sendCtx, recipient, msg.Subject, msg.Body); err != nil {
			logger.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to send booking email")
			return
		}
		logger.Debug().Str("subject", msg.Subject).Msg("Booking email sent")
	}()
}
