// Package booking turns a cart into a held reservation and moves it through
// its lifecycle: pending, then confirmed and completed, or expired or
// cancelled along the way.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/config"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/metrics"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/pricing"
)

const maxNumberAttempts = 5

var (
	ErrNotFound           = errors.New("booking not found")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
	ErrCancellationWindow = errors.New("booking can no longer be cancelled online")
	ErrNotEnded           = errors.New("booking has not ended yet")
	ErrHoldExpired        = errors.New("booking hold expired before payment")
	ErrDetailsMissing     = errors.New("guest details are incomplete")
)

// Detail is a booking with its line items.
type Detail struct {
	dbgen.Booking
	Items []dbgen.BookingItem
}

func (d Detail) Breakdown() pricing.Breakdown {
	return pricing.Breakdown{
		SubtotalCents:   d.SubtotalCents,
		TaxCents:        d.TaxCents,
		ServiceFeeCents: d.ServiceFeeCents,
		TotalCents:      d.TotalCents,
	}
}

func (d Detail) GuestName() string {
	return strings.TrimSpace(d.GuestFirstName + " " + d.GuestLastName)
}

type Service struct {
	Cart               *cart.Service
	Checker            *availability.Checker
	Hold               time.Duration
	CancellationCutoff time.Duration
	CheckInHour        int
	CheckOutHour       int
	Location           *time.Location
	Currency           string
	Now                func() time.Time
	NewNumber          func() string
}

func NewService(cfg *config.Config, cartSvc *cart.Service, checker *availability.Checker) *Service {
	return &Service{
		Cart:               cartSvc,
		Checker:            checker,
		Hold:               time.Duration(cfg.Booking.PendingHoldMinutes) * time.Minute,
		CancellationCutoff: time.Duration(cfg.Booking.CancellationCutoffHours) * time.Hour,
		CheckInHour:        cfg.Booking.CheckInHour,
		CheckOutHour:       cfg.Booking.CheckOutHour,
		Location:           cfg.Location(),
		Currency:           cfg.Pricing.Currency,
		Now:                time.Now,
		NewNumber:          NewNumber,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

type plannedItem struct {
	params   dbgen.AddBookingItemParams
	startsAt time.Time
	endsAt   time.Time
}

// CreateFromCart re-checks every cart item, stores a pending booking holding
// the inventory and empties the cart. Run it inside a transaction.
func (s *Service) CreateFromCart(ctx context.Context, q dbgen.Querier, c dbgen.Cart, details cart.Details, userID int64, gateway string) (Detail, error) {
	if !details.Complete() {
		return Detail{}, ErrDetailsMissing
	}
	view, err := s.Cart.View(ctx, q, c)
	if err != nil {
		return Detail{}, err
	}
	if view.Empty() {
		return Detail{}, cart.ErrCartEmpty
	}

	planned := make([]plannedItem, 0, len(view.Items))
	for _, item := range view.Items {
		var p plannedItem
		var err error
		if item.IsStay() {
			p, err = s.planStay(ctx, q, item)
		} else {
			p, err = s.planActivity(ctx, q, item)
		}
		if err != nil {
			return Detail{}, err
		}
		planned = append(planned, p)
	}

	now := db.Timestamp(s.now())
	startsAt := lo.MinBy(planned, func(a, b plannedItem) bool { return a.startsAt.Before(b.startsAt) }).startsAt
	endsAt := lo.MaxBy(planned, func(a, b plannedItem) bool { return a.endsAt.After(b.endsAt) }).endsAt
	breakdown := view.Breakdown

	params := dbgen.CreateBookingParams{
		UserID:          sql.NullInt64{Int64: userID, Valid: userID > 0},
		GuestFirstName:  details.FirstName,
		GuestLastName:   details.LastName,
		GuestEmail:      details.Email,
		GuestPhone:      details.Phone,
		SpecialRequests: details.SpecialRequests,
		Gateway:         gateway,
		Currency:        s.Currency,
		SubtotalCents:   breakdown.SubtotalCents,
		TaxCents:        breakdown.TaxCents,
		ServiceFeeCents: breakdown.ServiceFeeCents,
		TotalCents:      breakdown.TotalCents,
		HoldExpiresAt:   now.Add(s.Hold),
		StartsAt:        db.Timestamp(startsAt),
		EndsAt:          db.Timestamp(endsAt),
		CreatedAt:       now,
	}

	var created dbgen.Booking
	for attempt := 1; ; attempt++ {
		params.BookingNumber = s.NewNumber()
		created, err = q.CreateBooking(ctx, params)
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err) && attempt < maxNumberAttempts {
			continue
		}
		return Detail{}, fmt.Errorf("create booking: %w", err)
	}

	items := make([]dbgen.BookingItem, 0, len(planned))
	for _, p := range planned {
		p.params.BookingID = created.ID
		item, err := q.AddBookingItem(ctx, p.params)
		if err != nil {
			return Detail{}, fmt.Errorf("add booking item: %w", err)
		}
		items = append(items, item)
	}

	if err := s.Cart.Clear(ctx, q, c); err != nil {
		return Detail{}, err
	}

	metrics.BookingCreated(gateway, created.TotalCents)
	return Detail{Booking: created, Items: items}, nil
}

func (s *Service) planStay(ctx context.Context, q dbgen.Querier, item cart.Item) (plannedItem, error) {
	row, err := q.GetAccommodation(ctx, item.AccommodationID)
	if err != nil {
		return plannedItem{}, fmt.Errorf("load accommodation %d: %w", item.AccommodationID, err)
	}
	acc := models.AccommodationFromDB(row)
	in, err := pricing.ParseDate(item.CheckIn)
	if err != nil {
		return plannedItem{}, err
	}
	out, err := pricing.ParseDate(item.CheckOut)
	if err != nil {
		return plannedItem{}, err
	}
	result, err := s.Checker.CheckStay(ctx, q, acc, in, out, item.Guests)
	if err != nil {
		return plannedItem{}, err
	}

	return plannedItem{
		params: dbgen.AddBookingItemParams{
			ItemType:        cart.ItemStay,
			AccommodationID: sql.NullInt64{Int64: acc.ID, Valid: true},
			Description: fmt.Sprintf("%s, %s to %s (%d nights, %s)",
				acc.Name, item.CheckIn, item.CheckOut, result.Nights, plural(item.Guests, "guest")),
			CheckIn:        sql.NullString{String: item.CheckIn, Valid: true},
			CheckOut:       sql.NullString{String: item.CheckOut, Valid: true},
			Guests:         item.Guests,
			Nights:         result.Nights,
			UnitPriceCents: result.Line.UnitPriceCents,
			LineTotalCents: result.Line.TotalCents,
		},
		startsAt: s.atHour(in, s.CheckInHour),
		endsAt:   s.atHour(out, s.CheckOutHour),
	}, nil
}

func (s *Service) planActivity(ctx context.Context, q dbgen.Querier, item cart.Item) (plannedItem, error) {
	slot, err := q.GetActivitySlot(ctx, item.SlotID)
	if err != nil {
		return plannedItem{}, fmt.Errorf("load slot %d: %w", item.SlotID, err)
	}
	if _, err := s.Checker.CheckSlot(ctx, q, slot, item.Guests); err != nil {
		return plannedItem{}, err
	}
	line := pricing.ActivityLine(slot.PriceCents, item.Guests)
	return plannedItem{
		params: dbgen.AddBookingItemParams{
			ItemType:       cart.ItemActivity,
			ActivitySlotID: sql.NullInt64{Int64: slot.ID, Valid: true},
			Description: fmt.Sprintf("%s, %s (%s)",
				slot.ActivityName, slot.StartsAt.In(s.location()).Format("Mon 2 Jan 2006 15:04"), plural(item.Guests, "participant")),
			Guests:         item.Guests,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.TotalCents,
		},
		startsAt: slot.StartsAt,
		endsAt:   slot.StartsAt.Add(time.Duration(slot.DurationMinutes) * time.Minute),
	}, nil
}

func (s *Service) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *Service) atHour(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, s.location())
}

func plural(n int64, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (s *Service) Get(ctx context.Context, q dbgen.Querier, id int64) (Detail, error) {
	b, err := q.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, fmt.Errorf("load booking: %w", err)
	}
	return s.withItems(ctx, q, b)
}

func (s *Service) GetByNumber(ctx context.Context, q dbgen.Querier, number string) (Detail, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if !LooksLikeNumber(number) {
		return Detail{}, ErrNotFound
	}
	b, err := q.GetBookingByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, fmt.Errorf("load booking: %w", err)
	}
	return s.withItems(ctx, q, b)
}

func (s *Service) withItems(ctx context.Context, q dbgen.Querier, b dbgen.Booking) (Detail, error) {
	items, err := q.ListBookingItems(ctx, b.ID)
	if err != nil {
		return Detail{}, fmt.Errorf("load booking items: %w", err)
	}
	return Detail{Booking: b, Items: items}, nil
}

// CanView reports whether a viewer may see a booking: its owner, an admin,
// or anyone presenting the guest email.
func CanView(b dbgen.Booking, userID int64, isAdmin bool, email string) bool {
	if isAdmin {
		return true
	}
	if userID > 0 && b.UserID.Valid && b.UserID.Int64 == userID {
		return true
	}
	email = strings.TrimSpace(email)
	return email != "" && strings.EqualFold(email, b.GuestEmail)
}

// MarkPaid confirms a pending booking after a verified payment. Repeated
// calls for an already paid booking are no-ops. A payment that arrives
// after the hold elapsed confirms only if the inventory is still free;
// otherwise the booking expires with a refund owed.
func (s *Service) MarkPaid(ctx context.Context, q dbgen.Querier, bookingID int64) (dbgen.Booking, error) {
	b, err := q.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Booking{}, ErrNotFound
		}
		return dbgen.Booking{}, fmt.Errorf("load booking: %w", err)
	}

	switch b.Status {
	case StatusConfirmed, StatusCompleted:
		if b.PaymentStatus == PaymentPaid {
			return b, nil
		}
		return s.setPaymentStatus(ctx, q, b, PaymentPaid)
	case StatusPending:
		now := s.now()
		if !b.HoldExpiresAt.After(now) {
			free, err := s.stillAvailable(ctx, q, b, now)
			if err != nil {
				return dbgen.Booking{}, err
			}
			if !free {
				expired, err := s.transition(ctx, q, b, StatusExpired, PaymentRefundPending)
				if err != nil {
					return dbgen.Booking{}, err
				}
				return expired, ErrHoldExpired
			}
		}
		return s.transition(ctx, q, b, StatusConfirmed, PaymentPaid)
	case StatusExpired, StatusCancelled:
		if b.PaymentStatus == PaymentRefundPending || b.PaymentStatus == PaymentRefunded {
			return b, ErrHoldExpired
		}
		updated, err := s.setPaymentStatus(ctx, q, b, PaymentRefundPending)
		if err != nil {
			return dbgen.Booking{}, err
		}
		return updated, ErrHoldExpired
	default:
		return b, fmt.Errorf("%w: cannot pay a %s booking", ErrInvalidTransition, b.Status)
	}
}

// MarkPaymentFailed records a declined attempt. The booking stays pending so
// the guest can retry until the hold lapses.
func (s *Service) MarkPaymentFailed(ctx context.Context, q dbgen.Querier, bookingID int64) (dbgen.Booking, error) {
	b, err := q.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Booking{}, ErrNotFound
		}
		return dbgen.Booking{}, fmt.Errorf("load booking: %w", err)
	}
	if b.Status != StatusPending || b.PaymentStatus == PaymentFailed {
		return b, nil
	}
	return s.setPaymentStatus(ctx, q, b, PaymentFailed)
}

func (s *Service) stillAvailable(ctx context.Context, q dbgen.Querier, b dbgen.Booking, now time.Time) (bool, error) {
	items, err := q.ListBookingItems(ctx, b.ID)
	if err != nil {
		return false, fmt.Errorf("load booking items: %w", err)
	}
	ts := db.Timestamp(now)
	for _, item := range items {
		switch {
		case item.AccommodationID.Valid:
			acc, err := q.GetAccommodation(ctx, item.AccommodationID.Int64)
			if err != nil {
				return false, fmt.Errorf("load accommodation: %w", err)
			}
			overlapping, err := q.CountOverlappingStays(ctx, dbgen.CountOverlappingStaysParams{
				AccommodationID: acc.ID,
				CheckIn:         item.CheckIn.String,
				CheckOut:        item.CheckOut.String,
				Now:             ts,
			})
			if err != nil {
				return false, fmt.Errorf("count overlapping stays: %w", err)
			}
			if overlapping >= acc.Units {
				return false, nil
			}
		case item.ActivitySlotID.Valid:
			slot, err := q.GetActivitySlot(ctx, item.ActivitySlotID.Int64)
			if err != nil {
				return false, fmt.Errorf("load slot: %w", err)
			}
			held, err := q.SumHeldSlotParticipants(ctx, dbgen.SumHeldSlotParticipantsParams{
				ActivitySlotID: slot.ID,
				Now:            ts,
			})
			if err != nil {
				return false, fmt.Errorf("sum held participants: %w", err)
			}
			if held+item.Guests > slot.Capacity {
				return false, nil
			}
		default:
			// The listing was deleted after booking.
			return false, nil
		}
	}
	return true, nil
}

// Actor describes who is changing a booking.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// Cancel cancels a pending or confirmed booking. Guests must cancel before
// the cutoff ahead of the earliest stay or slot; admins may cancel any time.
// A paid booking moves to refund_pending.
func (s *Service) Cancel(ctx context.Context, q dbgen.Querier, b dbgen.Booking, actor Actor) (dbgen.Booking, error) {
	if !CanTransition(b.Status, StatusCancelled) {
		return b, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, StatusCancelled)
	}
	if !actor.IsAdmin && !s.CancellableUntil(b).After(s.now()) {
		return b, ErrCancellationWindow
	}
	payment := b.PaymentStatus
	if payment == PaymentPaid {
		payment = PaymentRefundPending
	}
	return s.transition(ctx, q, b, StatusCancelled, payment)
}

// CancellableUntil is the last moment a guest may cancel online.
func (s *Service) CancellableUntil(b dbgen.Booking) time.Time {
	return b.StartsAt.Add(-s.CancellationCutoff)
}

// CanGuestCancel reports whether the guest may still cancel online.
func (s *Service) CanGuestCancel(b dbgen.Booking) bool {
	return CanTransition(b.Status, StatusCancelled) && s.CancellableUntil(b).After(s.now())
}

// Confirm manually confirms a pending booking, e.g. for an offline payment.
func (s *Service) Confirm(ctx context.Context, q dbgen.Querier, b dbgen.Booking) (dbgen.Booking, error) {
	return s.transition(ctx, q, b, StatusConfirmed, b.PaymentStatus)
}

// Complete closes a confirmed booking once its last stay or slot has ended.
func (s *Service) Complete(ctx context.Context, q dbgen.Querier, b dbgen.Booking) (dbgen.Booking, error) {
	if b.Status == StatusConfirmed && s.now().Before(b.EndsAt) {
		return b, ErrNotEnded
	}
	return s.transition(ctx, q, b, StatusCompleted, b.PaymentStatus)
}

// MarkRefunded records that an owed refund was paid out.
func (s *Service) MarkRefunded(ctx context.Context, q dbgen.Querier, b dbgen.Booking) (dbgen.Booking, error) {
	if b.PaymentStatus != PaymentRefundPending {
		return b, fmt.Errorf("%w: no refund pending", ErrInvalidTransition)
	}
	return s.setPaymentStatus(ctx, q, b, PaymentRefunded)
}

// ExpireStale expires every pending booking whose hold has elapsed.
func (s *Service) ExpireStale(ctx context.Context, q dbgen.Querier) ([]dbgen.Booking, error) {
	expired, err := q.ExpirePendingBookings(ctx, db.Timestamp(s.now()))
	if err != nil {
		return nil, fmt.Errorf("expire pending bookings: %w", err)
	}
	for range expired {
		metrics.BookingTransition(StatusPending, StatusExpired)
	}
	return expired, nil
}

// DueReminders lists confirmed bookings whose first stay checks in within
// window and that have not been reminded yet. Activity-only bookings get no
// arrival reminder.
func (s *Service) DueReminders(ctx context.Context, q dbgen.Querier, window time.Duration) ([]dbgen.Booking, error) {
	now := db.Timestamp(s.now())
	windowEnd := now.Add(window)
	candidates, err := q.ListBookingsNeedingReminder(ctx, dbgen.ListBookingsNeedingReminderParams{
		Now:       now,
		WindowEnd: windowEnd,
	})
	if err != nil {
		return nil, err
	}

	var due []dbgen.Booking
	for _, b := range candidates {
		items, err := q.ListBookingItems(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("load items for booking %d: %w", b.ID, err)
		}
		arrival, ok := s.firstCheckIn(items)
		if ok && arrival.After(now) && !arrival.After(windowEnd) {
			due = append(due, b)
		}
	}
	return due, nil
}

// firstCheckIn is the check-in time of the earliest stay among items.
func (s *Service) firstCheckIn(items []dbgen.BookingItem) (time.Time, bool) {
	var first time.Time
	found := false
	for _, item := range items {
		if item.ItemType != cart.ItemStay || !item.CheckIn.Valid {
			continue
		}
		day, err := pricing.ParseDate(item.CheckIn.String)
		if err != nil {
			continue
		}
		at := s.atHour(day, s.CheckInHour)
		if !found || at.Before(first) {
			first, found = at, true
		}
	}
	return first, found
}

func (s *Service) MarkReminded(ctx context.Context, q dbgen.Querier, bookingID int64) error {
	return q.MarkReminderSent(ctx, dbgen.MarkReminderSentParams{Now: db.Timestamp(s.now()), ID: bookingID})
}

func (s *Service) transition(ctx context.Context, q dbgen.Querier, b dbgen.Booking, to, payment string) (dbgen.Booking, error) {
	if !CanTransition(b.Status, to) {
		return b, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	now := db.Timestamp(s.now())
	params := dbgen.TransitionBookingParams{
		Status:        to,
		PaymentStatus: payment,
		UpdatedAt:     now,
		ID:            b.ID,
		FromStatus:    b.Status,
	}
	switch to {
	case StatusConfirmed:
		params.ConfirmedAt = sql.NullTime{Time: now, Valid: true}
	case StatusCancelled:
		params.CancelledAt = sql.NullTime{Time: now, Valid: true}
	}

	updated, err := q.TransitionBooking(ctx, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidTransition, b.BookingNumber)
		}
		return b, fmt.Errorf("update booking status: %w", err)
	}
	metrics.BookingTransition(b.Status, to)
	return updated, nil
}

func (s *Service) setPaymentStatus(ctx context.Context, q dbgen.Querier, b dbgen.Booking, status string) (dbgen.Booking, error) {
	updated, err := q.UpdateBookingPaymentStatus(ctx, dbgen.UpdateBookingPaymentStatusParams{
		PaymentStatus: status,
		UpdatedAt:     db.Timestamp(s.now()),
		ID:            b.ID,
	})
	if err != nil {
		return b, fmt.Errorf("update payment status: %w", err)
	}
	return updated, nil
}
