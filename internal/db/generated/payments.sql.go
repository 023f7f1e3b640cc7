package dbgen

import (
	"context"
)

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (booking_id, gateway, reference, amount_cents, currency, checkout_url)
VALUES (?1, ?2, ?3, ?4, ?5, ?6)
RETURNING id, booking_id, gateway, reference, amount_cents, currency, status, checkout_url, created_at, updated_at
`

type CreatePaymentParams struct {
	BookingID   int64
	Gateway     string
	Reference   string
	AmountCents int64
	Currency    string
	CheckoutUrl string
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRowContext(ctx, createPayment,
		arg.BookingID,
		arg.Gateway,
		arg.Reference,
		arg.AmountCents,
		arg.Currency,
		arg.CheckoutUrl,
	)
	return scanPayment(row)
}

const getPaymentByReference = `-- name: GetPaymentByReference :one
SELECT id, booking_id, gateway, reference, amount_cents, currency, status, checkout_url, created_at, updated_at FROM payments WHERE gateway = ?1 AND reference = ?2
`

type GetPaymentByReferenceParams struct {
	Gateway   string
	Reference string
}

func (q *Queries) GetPaymentByReference(ctx context.Context, arg GetPaymentByReferenceParams) (Payment, error) {
	row := q.db.QueryRowContext(ctx, getPaymentByReference, arg.Gateway, arg.Reference)
	return scanPayment(row)
}

const listPaymentsForBooking = `-- name: ListPaymentsForBooking :many
SELECT id, booking_id, gateway, reference, amount_cents, currency, status, checkout_url, created_at, updated_at FROM payments WHERE booking_id = ?1 ORDER BY id
`

func (q *Queries) ListPaymentsForBooking(ctx context.Context, bookingID int64) ([]Payment, error) {
	return queryMany(ctx, q.db, listPaymentsForBooking, scanPayment, bookingID)
}

const updatePaymentStatus = `-- name: UpdatePaymentStatus :exec
UPDATE payments SET status = ?1, updated_at = CURRENT_TIMESTAMP WHERE id = ?2
`

type UpdatePaymentStatusParams struct {
	Status string
	ID     int64
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) error {
	_, err := q.db.ExecContext(ctx, updatePaymentStatus, arg.Status, arg.ID)
	return err
}
