package dbgen

import (
	"context"
	"database/sql"
	"time"
)

const addBookingItem = `-- name: AddBookingItem :one
INSERT INTO booking_items (
    booking_id, item_type, accommodation_id, activity_slot_id, description,
    check_in, check_out, guests, nights, unit_price_cents, line_total_cents
) VALUES (
    ?1, ?2, ?3, ?4, ?5,
    ?6, ?7, ?8, ?9, ?10, ?11
)
RETURNING id, booking_id, item_type, accommodation_id, activity_slot_id, description, check_in, check_out, guests, nights, unit_price_cents, line_total_cents
`

type AddBookingItemParams struct {
	BookingID       int64
	ItemType        string
	AccommodationID sql.NullInt64
	ActivitySlotID  sql.NullInt64
	Description     string
	CheckIn         sql.NullString
	CheckOut        sql.NullString
	Guests          int64
	Nights          int64
	UnitPriceCents  int64
	LineTotalCents  int64
}

func (q *Queries) AddBookingItem(ctx context.Context, arg AddBookingItemParams) (BookingItem, error) {
	row := q.db.QueryRowContext(ctx, addBookingItem,
		arg.BookingID,
		arg.ItemType,
		arg.AccommodationID,
		arg.ActivitySlotID,
		arg.Description,
		arg.CheckIn,
		arg.CheckOut,
		arg.Guests,
		arg.Nights,
		arg.UnitPriceCents,
		arg.LineTotalCents,
	)
	return scanBookingItem(row)
}

const countBookings = `-- name: CountBookings :one
SELECT COUNT(*) FROM bookings
WHERE (?1 = '' OR status = ?1)
  AND (?2 = ''
    OR booking_number LIKE '%' || ?2 || '%'
    OR guest_email LIKE '%' || ?2 || '%'
    OR guest_first_name LIKE '%' || ?2 || '%'
    OR guest_last_name LIKE '%' || ?2 || '%')
`

type CountBookingsParams struct {
	Status string
	Search string
}

func (q *Queries) CountBookings(ctx context.Context, arg CountBookingsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countBookings, arg.Status, arg.Search)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countBookingsCreatedBetween = `-- name: CountBookingsCreatedBetween :one
SELECT COUNT(*) FROM bookings
WHERE created_at >= ?1 AND created_at < ?2
  AND status <> 'expired'
`

type CountBookingsCreatedBetweenParams struct {
	FromTime time.Time
	ToTime   time.Time
}

func (q *Queries) CountBookingsCreatedBetween(ctx context.Context, arg CountBookingsCreatedBetweenParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countBookingsCreatedBetween, arg.FromTime, arg.ToTime)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countBookingsForUser = `-- name: CountBookingsForUser :one
SELECT COUNT(*) FROM bookings WHERE user_id = ?1
`

func (q *Queries) CountBookingsForUser(ctx context.Context, userID sql.NullInt64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countBookingsForUser, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countPendingHolds = `-- name: CountPendingHolds :one
SELECT COUNT(*) FROM bookings WHERE status = 'pending' AND hold_expires_at > ?1
`

func (q *Queries) CountPendingHolds(ctx context.Context, now time.Time) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPendingHolds, now)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createBooking = `-- name: CreateBooking :one
INSERT INTO bookings (
    booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone,
    special_requests, status, payment_status, gateway, currency,
    subtotal_cents, tax_cents, service_fee_cents, total_cents,
    hold_expires_at, starts_at, ends_at, created_at, updated_at
) VALUES (
    ?1, ?2, ?3, ?4, ?5, ?6,
    ?7, 'pending', 'unpaid', ?8, ?9,
    ?10, ?11, ?12, ?13,
    ?14, ?15, ?16, ?17, ?17
)
RETURNING id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at
`

type CreateBookingParams struct {
	BookingNumber   string
	UserID          sql.NullInt64
	GuestFirstName  string
	GuestLastName   string
	GuestEmail      string
	GuestPhone      string
	SpecialRequests string
	Gateway         string
	Currency        string
	SubtotalCents   int64
	TaxCents        int64
	ServiceFeeCents int64
	TotalCents      int64
	HoldExpiresAt   time.Time
	StartsAt        time.Time
	EndsAt          time.Time
	CreatedAt       time.Time
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	row := q.db.QueryRowContext(ctx, createBooking,
		arg.BookingNumber,
		arg.UserID,
		arg.GuestFirstName,
		arg.GuestLastName,
		arg.GuestEmail,
		arg.GuestPhone,
		arg.SpecialRequests,
		arg.Gateway,
		arg.Currency,
		arg.SubtotalCents,
		arg.TaxCents,
		arg.ServiceFeeCents,
		arg.TotalCents,
		arg.HoldExpiresAt,
		arg.StartsAt,
		arg.EndsAt,
		arg.CreatedAt,
	)
	return scanBooking(row)
}

const expirePendingBookings = `-- name: ExpirePendingBookings :many
UPDATE bookings SET status = 'expired', updated_at = ?1
WHERE status = 'pending' AND hold_expires_at <= ?1
RETURNING id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at
`

func (q *Queries) ExpirePendingBookings(ctx context.Context, now time.Time) ([]Booking, error) {
	return queryMany(ctx, q.db, expirePendingBookings, scanBooking, now)
}

const getBooking = `-- name: GetBooking :one
SELECT id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at FROM bookings WHERE id = ?1
`

func (q *Queries) GetBooking(ctx context.Context, id int64) (Booking, error) {
	row := q.db.QueryRowContext(ctx, getBooking, id)
	return scanBooking(row)
}

const getBookingByNumber = `-- name: GetBookingByNumber :one
SELECT id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at FROM bookings WHERE booking_number = ?1
`

func (q *Queries) GetBookingByNumber(ctx context.Context, bookingNumber string) (Booking, error) {
	row := q.db.QueryRowContext(ctx, getBookingByNumber, bookingNumber)
	return scanBooking(row)
}

const listBookingItems = `-- name: ListBookingItems :many
SELECT id, booking_id, item_type, accommodation_id, activity_slot_id, description, check_in, check_out, guests, nights, unit_price_cents, line_total_cents FROM booking_items WHERE booking_id = ?1 ORDER BY id
`

func (q *Queries) ListBookingItems(ctx context.Context, bookingID int64) ([]BookingItem, error) {
	return queryMany(ctx, q.db, listBookingItems, scanBookingItem, bookingID)
}

const listBookings = `-- name: ListBookings :many
SELECT id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at FROM bookings
WHERE (?1 = '' OR status = ?1)
  AND (?2 = ''
    OR booking_number LIKE '%' || ?2 || '%'
    OR guest_email LIKE '%' || ?2 || '%'
    OR guest_first_name LIKE '%' || ?2 || '%'
    OR guest_last_name LIKE '%' || ?2 || '%')
ORDER BY created_at DESC, id DESC
LIMIT ?3 OFFSET ?4
`

type ListBookingsParams struct {
	Status string
	Search string
	Limit  int64
	Offset int64
}

func (q *Queries) ListBookings(ctx context.Context, arg ListBookingsParams) ([]Booking, error) {
	return queryMany(ctx, q.db, listBookings, scanBooking,
		arg.Status,
		arg.Search,
		arg.Limit,
		arg.Offset,
	)
}

const listBookingsForUser = `-- name: ListBookingsForUser :many
SELECT id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at FROM bookings
WHERE user_id = ?1
ORDER BY created_at DESC, id DESC
LIMIT ?2 OFFSET ?3
`

type ListBookingsForUserParams struct {
	UserID sql.NullInt64
	Limit  int64
	Offset int64
}

func (q *Queries) ListBookingsForUser(ctx context.Context, arg ListBookingsForUserParams) ([]Booking, error) {
	return queryMany(ctx, q.db, listBookingsForUser, scanBooking, arg.UserID, arg.Limit, arg.Offset)
}

const listBookingsNeedingReminder = `-- name: ListBookingsNeedingReminder :many
SELECT id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at FROM bookings b
WHERE b.status = 'confirmed'
  AND b.reminder_sent_at IS NULL
  AND b.starts_at <= ?2
  AND b.ends_at > ?1
  AND EXISTS (
    SELECT 1 FROM booking_items bi
    WHERE bi.booking_id = b.id AND bi.item_type = 'stay'
  )
ORDER BY b.starts_at
`

type ListBookingsNeedingReminderParams struct {
	Now       time.Time
	WindowEnd time.Time
}

func (q *Queries) ListBookingsNeedingReminder(ctx context.Context, arg ListBookingsNeedingReminderParams) ([]Booking, error) {
	return queryMany(ctx, q.db, listBookingsNeedingReminder, scanBooking, arg.Now, arg.WindowEnd)
}

const listUpcomingArrivals = `-- name: ListUpcomingArrivals :many
SELECT id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at FROM bookings
WHERE status = 'confirmed'
  AND starts_at >= ?1 AND starts_at < ?2
ORDER BY starts_at
LIMIT ?3
`

type ListUpcomingArrivalsParams struct {
	FromTime time.Time
	ToTime   time.Time
	Limit    int64
}

func (q *Queries) ListUpcomingArrivals(ctx context.Context, arg ListUpcomingArrivalsParams) ([]Booking, error) {
	return queryMany(ctx, q.db, listUpcomingArrivals, scanBooking, arg.FromTime, arg.ToTime, arg.Limit)
}

const markReminderSent = `-- name: MarkReminderSent :exec
UPDATE bookings SET reminder_sent_at = ?1 WHERE id = ?2
`

type MarkReminderSentParams struct {
	Now time.Time
	ID  int64
}

func (q *Queries) MarkReminderSent(ctx context.Context, arg MarkReminderSentParams) error {
	_, err := q.db.ExecContext(ctx, markReminderSent, arg.Now, arg.ID)
	return err
}

const sumPaidRevenueBetween = `-- name: SumPaidRevenueBetween :one
SELECT CAST(COALESCE(SUM(total_cents), 0) AS INTEGER) AS revenue
FROM bookings
WHERE payment_status = 'paid'
  AND confirmed_at >= ?1 AND confirmed_at < ?2
`

type SumPaidRevenueBetweenParams struct {
	FromTime time.Time
	ToTime   time.Time
}

func (q *Queries) SumPaidRevenueBetween(ctx context.Context, arg SumPaidRevenueBetweenParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumPaidRevenueBetween, arg.FromTime, arg.ToTime)
	var revenue int64
	err := row.Scan(&revenue)
	return revenue, err
}

const transitionBooking = `-- name: TransitionBooking :one
UPDATE bookings SET
    status = ?1,
    payment_status = ?2,
    confirmed_at = COALESCE(?3, confirmed_at),
    cancelled_at = COALESCE(?4, cancelled_at),
    updated_at = ?5
WHERE id = ?6 AND status = ?7
RETURNING id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at
`

type TransitionBookingParams struct {
	Status        string
	PaymentStatus string
	ConfirmedAt   sql.NullTime
	CancelledAt   sql.NullTime
	UpdatedAt     time.Time
	ID            int64
	FromStatus    string
}

func (q *Queries) TransitionBooking(ctx context.Context, arg TransitionBookingParams) (Booking, error) {
	row := q.db.QueryRowContext(ctx, transitionBooking,
		arg.Status,
		arg.PaymentStatus,
		arg.ConfirmedAt,
		arg.CancelledAt,
		arg.UpdatedAt,
		arg.ID,
		arg.FromStatus,
	)
	return scanBooking(row)
}

const updateBookingPaymentStatus = `-- name: UpdateBookingPaymentStatus :one
UPDATE bookings SET payment_status = ?1, updated_at = ?2
WHERE id = ?3
RETURNING id, booking_number, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, status, payment_status, gateway, currency, subtotal_cents, tax_cents, service_fee_cents, total_cents, hold_expires_at, starts_at, ends_at, reminder_sent_at, confirmed_at, cancelled_at, created_at, updated_at
`

type UpdateBookingPaymentStatusParams struct {
	PaymentStatus string
	UpdatedAt     time.Time
	ID            int64
}

func (q *Queries) UpdateBookingPaymentStatus(ctx context.Context, arg UpdateBookingPaymentStatusParams) (Booking, error) {
	row := q.db.QueryRowContext(ctx, updateBookingPaymentStatus, arg.PaymentStatus, arg.UpdatedAt, arg.ID)
	return scanBooking(row)
}
