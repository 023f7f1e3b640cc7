package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/booking"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/metrics"
)

const (
	PaymentInitiated = "initiated"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

var (
	ErrPaymentNotFound = errors.New("payment attempt not found")
	ErrNotPayable      = errors.New("booking is not awaiting payment")
	ErrAmountMismatch  = errors.New("gateway amount does not cover the booking")
)

// Service starts payment attempts and settles them against bookings.
type Service struct {
	Registry *Registry
	Bookings *booking.Service
	BaseURL  string
}

func NewService(registry *Registry, bookings *booking.Service, baseURL string) *Service {
	return &Service{Registry: registry, Bookings: bookings, BaseURL: baseURL}
}

// Begin asks the gateway for a payment session and records the attempt.
func (s *Service) Begin(ctx context.Context, q dbgen.Querier, detail booking.Detail, gatewayName string) (PaymentSession, error) {
	if detail.Status != booking.StatusPending || detail.PaymentStatus == booking.PaymentPaid {
		return PaymentSession{}, ErrNotPayable
	}
	gateway, err := s.Registry.Get(gatewayName)
	if err != nil {
		return PaymentSession{}, err
	}

	previous, err := q.ListPaymentsForBooking(ctx, detail.ID)
	if err != nil {
		return PaymentSession{}, fmt.Errorf("list payment attempts: %w", err)
	}

	returnURL := fmt.Sprintf("%s/checkout/return?booking=%s&gateway=%s", s.BaseURL, detail.BookingNumber, gateway.Name())
	session, err := gateway.Initiate(ctx, PaymentRequest{
		BookingNumber: detail.BookingNumber,
		Reference:     fmt.Sprintf("%s-%d", detail.BookingNumber, len(previous)+1),
		AmountCents:   detail.TotalCents,
		Currency:      detail.Currency,
		CustomerEmail: detail.GuestEmail,
		CustomerName:  detail.GuestName(),
		CustomerPhone: detail.GuestPhone,
		Lines:         paymentLines(detail),
		ReturnURL:     returnURL,
		CancelURL:     s.BaseURL + "/checkout/review",
	})
	if err != nil {
		metrics.PaymentOutcome(gateway.Name(), "error")
		return PaymentSession{}, err
	}

	if _, err := q.CreatePayment(ctx, dbgen.CreatePaymentParams{
		BookingID:   detail.ID,
		Gateway:     gateway.Name(),
		Reference:   session.Reference,
		AmountCents: detail.TotalCents,
		Currency:    detail.Currency,
		CheckoutUrl: session.RedirectURL,
	}); err != nil {
		return PaymentSession{}, fmt.Errorf("record payment attempt: %w", err)
	}
	metrics.PaymentOutcome(gateway.Name(), PaymentInitiated)
	return session, nil
}

func paymentLines(detail booking.Detail) []LineItem {
	lines := make([]LineItem, 0, len(detail.Items)+2)
	for _, item := range detail.Items {
		lines = append(lines, LineItem{Description: item.Description, AmountCents: item.LineTotalCents})
	}
	if detail.TaxCents > 0 {
		lines = append(lines, LineItem{Description: "Tax", AmountCents: detail.TaxCents})
	}
	if detail.ServiceFeeCents > 0 {
		lines = append(lines, LineItem{Description: "Service fee", AmountCents: detail.ServiceFeeCents})
	}
	return lines
}

// Outcome is the result of settling a payment attempt.
type Outcome struct {
	Payment dbgen.Payment
	Booking dbgen.Booking
	Status  string
}

// Settle verifies an attempt with its gateway and applies the result to the
// payment row and the booking. Settling the same attempt twice is safe.
func (s *Service) Settle(ctx context.Context, q dbgen.Querier, gatewayName, reference string) (Outcome, error) {
	gateway, err := s.Registry.Get(gatewayName)
	if err != nil {
		return Outcome{}, err
	}
	payment, err := q.GetPaymentByReference(ctx, dbgen.GetPaymentByReferenceParams{
		Gateway:   gateway.Name(),
		Reference: reference,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Outcome{}, ErrPaymentNotFound
		}
		return Outcome{}, fmt.Errorf("load payment attempt: %w", err)
	}

	logger := log.Ctx(ctx).With().
		Int64("booking_id", payment.BookingID).
		Str("gateway", gateway.Name()).
		Str("reference", reference).
		Logger()

	outcome := Outcome{Payment: payment, Status: payment.Status}
	if payment.Status == PaymentSucceeded {
		outcome.Booking, err = s.Bookings.MarkPaid(ctx, q, payment.BookingID)
		return outcome, err
	}
	if payment.Status == PaymentFailed {
		outcome.Booking, err = q.GetBooking(ctx, payment.BookingID)
		if err != nil {
			return Outcome{}, fmt.Errorf("load booking: %w", err)
		}
		return outcome, nil
	}

	v, err := gateway.Verify(ctx, reference)
	if err != nil {
		return Outcome{}, err
	}

	switch v.Status {
	case VerificationSucceeded:
		if !v.Covers(payment.AmountCents, payment.Currency) {
			logger.Error().
				Int64("expected_cents", payment.AmountCents).
				Int64("paid_cents", v.AmountCents).
				Str("paid_currency", v.Currency).
				Msg("Gateway amount does not cover booking")
			if err := s.markAttempt(ctx, q, &outcome, PaymentFailed); err != nil {
				return Outcome{}, err
			}
			outcome.Booking, err = s.Bookings.MarkPaymentFailed(ctx, q, payment.BookingID)
			if err != nil {
				return outcome, err
			}
			return outcome, ErrAmountMismatch
		}
		if err := s.markAttempt(ctx, q, &outcome, PaymentSucceeded); err != nil {
			return Outcome{}, err
		}
		outcome.Booking, err = s.Bookings.MarkPaid(ctx, q, payment.BookingID)
		if err != nil {
			logger.Warn().Err(err).Msg("Payment succeeded but booking could not be confirmed")
		}
		return outcome, err
	case VerificationFailed:
		if err := s.markAttempt(ctx, q, &outcome, PaymentFailed); err != nil {
			return Outcome{}, err
		}
		outcome.Booking, err = s.Bookings.MarkPaymentFailed(ctx, q, payment.BookingID)
		return outcome, err
	default:
		outcome.Booking, err = q.GetBooking(ctx, payment.BookingID)
		if err != nil {
			return Outcome{}, fmt.Errorf("load booking: %w", err)
		}
		outcome.Status = VerificationPending
		return outcome, nil
	}
}

func (s *Service) markAttempt(ctx context.Context, q dbgen.Querier, outcome *Outcome, status string) error {
	if outcome.Payment.Status != status {
		if err := q.UpdatePaymentStatus(ctx, dbgen.UpdatePaymentStatusParams{
			Status: status,
			ID:     outcome.Payment.ID,
		}); err != nil {
			return fmt.Errorf("update payment attempt: %w", err)
		}
		metrics.PaymentOutcome(outcome.Payment.Gateway, status)
	}
	outcome.Payment.Status = status
	outcome.Status = status
	return nil
}
