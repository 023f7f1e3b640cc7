package dbgen

// Row scanners shared by the query files. Column order matches the table
// definitions in internal/db/migrations.

import "context"

type scanner interface {
	Scan(dest ...interface{}) error
}

func queryMany[T any](ctx context.Context, db DBTX, query string, scan func(scanner) (T, error), args ...interface{}) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []T
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanUser(row scanner) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.FirstName,
		&i.LastName,
		&i.Phone,
		&i.Role,
		&i.Status,
		&i.ClerkUserID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanAccommodation(row scanner) (Accommodation, error) {
	var i Accommodation
	err := row.Scan(
		&i.ID,
		&i.Slug,
		&i.Name,
		&i.Description,
		&i.UnitType,
		&i.MaxGuests,
		&i.Bedrooms,
		&i.NightlyRateCents,
		&i.CleaningFeeCents,
		&i.Units,
		&i.MinNights,
		&i.ImageUrl,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanActivity(row scanner) (Activity, error) {
	var i Activity
	err := row.Scan(
		&i.ID,
		&i.Slug,
		&i.Name,
		&i.Description,
		&i.Category,
		&i.DurationMinutes,
		&i.PriceCents,
		&i.Capacity,
		&i.ImageUrl,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanActivitySlot(row scanner) (ActivitySlot, error) {
	var i ActivitySlot
	err := row.Scan(
		&i.ID,
		&i.ActivityID,
		&i.StartsAt,
		&i.Capacity,
		&i.CreatedAt,
	)
	return i, err
}

func scanCart(row scanner) (Cart, error) {
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.Token,
		&i.UserID,
		&i.GuestFirstName,
		&i.GuestLastName,
		&i.GuestEmail,
		&i.GuestPhone,
		&i.SpecialRequests,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanCartItem(row scanner) (CartItem, error) {
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.ItemType,
		&i.AccommodationID,
		&i.ActivitySlotID,
		&i.CheckIn,
		&i.CheckOut,
		&i.Guests,
		&i.CreatedAt,
	)
	return i, err
}

func scanBooking(row scanner) (Booking, error) {
	var i Booking
	err := row.Scan(
		&i.ID,
		&i.BookingNumber,
		&i.UserID,
		&i.GuestFirstName,
		&i.GuestLastName,
		&i.GuestEmail,
		&i.GuestPhone,
		&i.SpecialRequests,
		&i.Status,
		&i.PaymentStatus,
		&i.Gateway,
		&i.Currency,
		&i.SubtotalCents,
		&i.TaxCents,
		&i.ServiceFeeCents,
		&i.TotalCents,
		&i.HoldExpiresAt,
		&i.StartsAt,
		&i.EndsAt,
		&i.ReminderSentAt,
		&i.ConfirmedAt,
		&i.CancelledAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanBookingItem(row scanner) (BookingItem, error) {
	var i BookingItem
	err := row.Scan(
		&i.ID,
		&i.BookingID,
		&i.ItemType,
		&i.AccommodationID,
		&i.ActivitySlotID,
		&i.Description,
		&i.CheckIn,
		&i.CheckOut,
		&i.Guests,
		&i.Nights,
		&i.UnitPriceCents,
		&i.LineTotalCents,
	)
	return i, err
}

func scanPayment(row scanner) (Payment, error) {
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.BookingID,
		&i.Gateway,
		&i.Reference,
		&i.AmountCents,
		&i.Currency,
		&i.Status,
		&i.CheckoutUrl,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanString(row scanner) (string, error) {
	var s string
	err := row.Scan(&s)
	return s, err
}
