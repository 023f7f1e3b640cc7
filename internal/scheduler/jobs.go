package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/config"
	"github.com/codr1/Lodgeicious/internal/db"
	"github.com/codr1/Lodgeicious/internal/email"
)

const (
	JobExpirePendingBookings = "expire_pending_bookings"
	JobPruneAbandonedCarts   = "prune_abandoned_carts"
	JobArrivalReminders      = "arrival_reminders"
)

// Jobs holds what the booking housekeeping jobs need.
type Jobs struct {
	DB             *db.DB
	Bookings       *booking.Service
	Notifier       *email.Notifier
	CartTTL        time.Duration
	ReminderWindow time.Duration
	Now            func() time.Time
}

func NewJobs(cfg *config.Config, database *db.DB, bookings *booking.Service, notifier *email.Notifier) *Jobs {
	return &Jobs{
		DB:             database,
		Bookings:       bookings,
		Notifier:       notifier,
		CartTTL:        time.Duration(cfg.Scheduler.CartTTLHours) * time.Hour,
		ReminderWindow: time.Duration(cfg.Booking.ReminderHoursBefore) * time.Hour,
		Now:            time.Now,
	}
}

// Register adds the housekeeping jobs to the scheduler singleton.
func (j *Jobs) Register(cfg config.SchedulerConfig) error {
	for _, job := range []struct {
		name string
		cron string
		task Task
	}{
		{JobExpirePendingBookings, cfg.ExpireHolds, j.ExpireHolds},
		{JobPruneAbandonedCarts, cfg.PruneCarts, j.PruneCarts},
		{JobArrivalReminders, cfg.Reminders, j.SendReminders},
	} {
		if _, err := AddJob(job.name, job.cron, job.task); err != nil {
			return fmt.Errorf("register %s: %w", job.name, err)
		}
	}
	return nil
}

// ExpireHolds releases inventory held by pending bookings whose hold elapsed.
func (j *Jobs) ExpireHolds(ctx context.Context) error {
	expired, err := j.Bookings.ExpireStale(ctx, j.DB.Queries)
	if err != nil {
		return err
	}
	if len(expired) > 0 {
		numbers := make([]string, 0, len(expired))
		for _, b := range expired {
			numbers = append(numbers, b.BookingNumber)
		}
		log.Ctx(ctx).Info().Strs("booking_numbers", numbers).Msg("Expired unpaid bookings")
	}
	return nil
}

// PruneCarts deletes carts untouched for longer than the cart TTL.
func (j *Jobs) PruneCarts(ctx context.Context) error {
	removed, err := cart.PruneAbandoned(ctx, j.DB.Queries, j.Now(), j.CartTTL)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Ctx(ctx).Info().Int64("carts", removed).Msg("Pruned abandoned carts")
	}
	return nil
}

// SendReminders emails guests whose booking starts within the reminder
// window. A booking is marked only after its email went out, so failures
// are retried on the next run.
func (j *Jobs) SendReminders(ctx context.Context) error {
	logger := log.Ctx(ctx)
	if j.Notifier == nil {
		logger.Debug().Msg("Reminder job skipped: email not configured")
		return nil
	}

	due, err := j.Bookings.DueReminders(ctx, j.DB.Queries, j.ReminderWindow)
	if err != nil {
		return fmt.Errorf("list due reminders: %w", err)
	}

	failed := 0
	for _, b := range due {
		bookingLogger := logger.With().Int64("booking_id", b.ID).Str("booking_number", b.BookingNumber).Logger()
		items, err := j.DB.Queries.ListBookingItems(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("load booking items: %w", err)
		}
		if err := j.Notifier.ArrivalReminder(ctx, b, items); err != nil {
			failed++
			bookingLogger.Error().Err(err).Msg("Failed to send arrival reminder")
			continue
		}
		if err := j.Bookings.MarkReminded(ctx, j.DB.Queries, b.ID); err != nil {
			return fmt.Errorf("mark reminder sent: %w", err)
		}
		bookingLogger.Info().Msg("Arrival reminder sent")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d arrival reminders failed", failed, len(due))
	}
	return nil
}
