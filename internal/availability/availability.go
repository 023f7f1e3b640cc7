// Package availability decides whether a stay or an activity slot can still
// be booked. A booking holds inventory while it is confirmed, or pending with
// an unexpired hold.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/pricing"
)

var ErrUnavailable = errors.New("unavailable")

// UnavailableError carries a guest-facing reason.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return e.Reason
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func unavailable(format string, args ...any) error {
	return &UnavailableError{Reason: fmt.Sprintf(format, args...)}
}

// Queries is the slice of the generated querier the checks need.
type Queries interface {
	CountOverlappingStays(ctx context.Context, arg dbgen.CountOverlappingStaysParams) (int64, error)
	SumHeldSlotParticipants(ctx context.Context, arg dbgen.SumHeldSlotParticipantsParams) (int64, error)
}

// Checker applies the booking window rules. Now is injectable for tests.
type Checker struct {
	MaxAdvanceDays int64
	Location       *time.Location
	Now            func() time.Time
}

func NewChecker(maxAdvanceDays int64, loc *time.Location) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{MaxAdvanceDays: maxAdvanceDays, Location: loc, Now: time.Now}
}

func (c *Checker) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// today is the current calendar day at the lodge, as a UTC midnight date.
func (c *Checker) today() time.Time {
	y, m, d := c.now().In(c.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StayResult is what the booking widget shows for a valid request.
type StayResult struct {
	Nights int64
	Line   pricing.Line
}

// CheckStay validates a stay request against the listing rules and current
// inventory. Back-to-back stays do not overlap.
func (c *Checker) CheckStay(ctx context.Context, q Queries, acc models.Accommodation, checkIn, checkOut time.Time, guests int64) (StayResult, error) {
	if !acc.IsActive() {
		return StayResult{}, unavailable("%s is not currently bookable", acc.Name)
	}
	nights, err := pricing.Nights(checkIn, checkOut)
	if err != nil {
		return StayResult{}, unavailable("Check-out must be after check-in")
	}
	if guests < 1 {
		return StayResult{}, unavailable("At least one guest is required")
	}
	if guests > acc.MaxGuests {
		return StayResult{}, unavailable("%s sleeps at most %d guests", acc.Name, acc.MaxGuests)
	}
	if nights < acc.MinNights {
		return StayResult{}, unavailable("%s requires a minimum stay of %d nights", acc.Name, acc.MinNights)
	}

	today := c.today()
	if checkIn.Before(today) {
		return StayResult{}, unavailable("Check-in date is in the past")
	}
	if c.MaxAdvanceDays > 0 && checkIn.After(today.AddDate(0, 0, int(c.MaxAdvanceDays))) {
		return StayResult{}, unavailable("Bookings open at most %d days ahead", c.MaxAdvanceDays)
	}

	overlapping, err := q.CountOverlappingStays(ctx, dbgen.CountOverlappingStaysParams{
		AccommodationID: acc.ID,
		CheckIn:         checkIn.Format(pricing.DateLayout),
		CheckOut:        checkOut.Format(pricing.DateLayout),
		Now:             db.Timestamp(c.now()),
	})
	if err != nil {
		return StayResult{}, fmt.Errorf("count overlapping stays: %w", err)
	}
	if overlapping >= acc.Units {
		return StayResult{}, unavailable("%s is booked for those dates", acc.Name)
	}

	return StayResult{
		Nights: nights,
		Line:   pricing.StayLine(acc.NightlyRateCents, acc.CleaningFeeCents, nights),
	}, nil
}

// CheckSlot validates a participant count against a slot's remaining places
// and returns what is left after the request.
func (c *Checker) CheckSlot(ctx context.Context, q Queries, slot dbgen.GetActivitySlotRow, participants int64) (int64, error) {
	if slot.ActivityStatus != models.StatusActive {
		return 0, unavailable("%s is not currently bookable", slot.ActivityName)
	}
	if participants < 1 {
		return 0, unavailable("At least one participant is required")
	}
	now := c.now()
	if !slot.StartsAt.After(now) {
		return 0, unavailable("This %s session has already started", slot.ActivityName)
	}

	held, err := q.SumHeldSlotParticipants(ctx, dbgen.SumHeldSlotParticipantsParams{
		ActivitySlotID: slot.ID,
		Now:            db.Timestamp(now),
	})
	if err != nil {
		return 0, fmt.Errorf("sum held participants: %w", err)
	}
	remaining := slot.Capacity - held
	if participants > remaining {
		if remaining <= 0 {
			return 0, unavailable("This %s session is full", slot.ActivityName)
		}
		return 0, unavailable("Only %d places left for this %s session", remaining, slot.ActivityName)
	}
	return remaining - participants, nil
}
