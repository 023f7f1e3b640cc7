package dbgen

import (
	"context"
	"database/sql"
	"time"
)

const addCartItem = `-- name: AddCartItem :one
INSERT INTO cart_items (cart_id, item_type, accommodation_id, activity_slot_id, check_in, check_out, guests)
VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7)
RETURNING id, cart_id, item_type, accommodation_id, activity_slot_id, check_in, check_out, guests, created_at
`

type AddCartItemParams struct {
	CartID          int64
	ItemType        string
	AccommodationID sql.NullInt64
	ActivitySlotID  sql.NullInt64
	CheckIn         sql.NullString
	CheckOut        sql.NullString
	Guests          int64
}

func (q *Queries) AddCartItem(ctx context.Context, arg AddCartItemParams) (CartItem, error) {
	row := q.db.QueryRowContext(ctx, addCartItem,
		arg.CartID,
		arg.ItemType,
		arg.AccommodationID,
		arg.ActivitySlotID,
		arg.CheckIn,
		arg.CheckOut,
		arg.Guests,
	)
	return scanCartItem(row)
}

const clearCart = `-- name: ClearCart :exec
DELETE FROM cart_items WHERE cart_id = ?1
`

func (q *Queries) ClearCart(ctx context.Context, cartID int64) error {
	_, err := q.db.ExecContext(ctx, clearCart, cartID)
	return err
}

const countCartItems = `-- name: CountCartItems :one
SELECT COUNT(*) FROM cart_items WHERE cart_id = ?1
`

func (q *Queries) CountCartItems(ctx context.Context, cartID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCartItems, cartID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createCart = `-- name: CreateCart :one
INSERT INTO carts (token, user_id) VALUES (?1, ?2)
RETURNING id, token, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, created_at, updated_at
`

type CreateCartParams struct {
	Token  string
	UserID sql.NullInt64
}

func (q *Queries) CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error) {
	row := q.db.QueryRowContext(ctx, createCart, arg.Token, arg.UserID)
	return scanCart(row)
}

const deleteAbandonedCarts = `-- name: DeleteAbandonedCarts :execrows
DELETE FROM carts WHERE datetime(updated_at) < datetime(?1)
`

func (q *Queries) DeleteAbandonedCarts(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAbandonedCarts, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCartItem = `-- name: DeleteCartItem :execrows
DELETE FROM cart_items WHERE id = ?1 AND cart_id = ?2
`

type DeleteCartItemParams struct {
	ID     int64
	CartID int64
}

func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCartItem, arg.ID, arg.CartID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getCartByToken = `-- name: GetCartByToken :one
SELECT id, token, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, created_at, updated_at FROM carts WHERE token = ?1
`

func (q *Queries) GetCartByToken(ctx context.Context, token string) (Cart, error) {
	row := q.db.QueryRowContext(ctx, getCartByToken, token)
	return scanCart(row)
}

const getCartItem = `-- name: GetCartItem :one
SELECT id, cart_id, item_type, accommodation_id, activity_slot_id, check_in, check_out, guests, created_at FROM cart_items WHERE id = ?1 AND cart_id = ?2
`

type GetCartItemParams struct {
	ID     int64
	CartID int64
}

func (q *Queries) GetCartItem(ctx context.Context, arg GetCartItemParams) (CartItem, error) {
	row := q.db.QueryRowContext(ctx, getCartItem, arg.ID, arg.CartID)
	return scanCartItem(row)
}

const getLatestCartForUser = `-- name: GetLatestCartForUser :one
SELECT id, token, user_id, guest_first_name, guest_last_name, guest_email, guest_phone, special_requests, created_at, updated_at FROM carts WHERE user_id = ?1
ORDER BY updated_at DESC, id DESC
LIMIT 1
`

func (q *Queries) GetLatestCartForUser(ctx context.Context, userID sql.NullInt64) (Cart, error) {
	row := q.db.QueryRowContext(ctx, getLatestCartForUser, userID)
	return scanCart(row)
}

const listCartItems = `-- name: ListCartItems :many
SELECT
    ci.id,
    ci.cart_id,
    ci.item_type,
    ci.accommodation_id,
    ci.activity_slot_id,
    ci.check_in,
    ci.check_out,
    ci.guests,
    ci.created_at,
    acc.name AS accommodation_name,
    acc.slug AS accommodation_slug,
    acc.nightly_rate_cents,
    acc.cleaning_fee_cents,
    act.id AS activity_id,
    act.name AS activity_name,
    act.slug AS activity_slug,
    act.price_cents AS activity_price_cents,
    s.starts_at AS slot_starts_at
FROM cart_items ci
LEFT JOIN accommodations acc ON acc.id = ci.accommodation_id
LEFT JOIN activity_slots s ON s.id = ci.activity_slot_id
LEFT JOIN activities act ON act.id = s.activity_id
WHERE ci.cart_id = ?1
ORDER BY ci.id
`

type ListCartItemsRow struct {
	ID                 int64
	CartID             int64
	ItemType           string
	AccommodationID    sql.NullInt64
	ActivitySlotID     sql.NullInt64
	CheckIn            sql.NullString
	CheckOut           sql.NullString
	Guests             int64
	CreatedAt          time.Time
	AccommodationName  sql.NullString
	AccommodationSlug  sql.NullString
	NightlyRateCents   sql.NullInt64
	CleaningFeeCents   sql.NullInt64
	ActivityID         sql.NullInt64
	ActivityName       sql.NullString
	ActivitySlug       sql.NullString
	ActivityPriceCents sql.NullInt64
	SlotStartsAt       sql.NullTime
}

func (q *Queries) ListCartItems(ctx context.Context, cartID int64) ([]ListCartItemsRow, error) {
	return queryMany(ctx, q.db, listCartItems, func(row scanner) (ListCartItemsRow, error) {
		var i ListCartItemsRow
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
			&i.AccommodationName,
			&i.AccommodationSlug,
			&i.NightlyRateCents,
			&i.CleaningFeeCents,
			&i.ActivityID,
			&i.ActivityName,
			&i.ActivitySlug,
			&i.ActivityPriceCents,
			&i.SlotStartsAt,
		)
		return i, err
	}, cartID)
}

const setCartUser = `-- name: SetCartUser :exec
UPDATE carts SET user_id = ?1, updated_at = CURRENT_TIMESTAMP WHERE id = ?2
`

type SetCartUserParams struct {
	UserID sql.NullInt64
	ID     int64
}

func (q *Queries) SetCartUser(ctx context.Context, arg SetCartUserParams) error {
	_, err := q.db.ExecContext(ctx, setCartUser, arg.UserID, arg.ID)
	return err
}

const touchCart = `-- name: TouchCart :exec
UPDATE carts SET updated_at = CURRENT_TIMESTAMP WHERE id = ?1
`

func (q *Queries) TouchCart(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, touchCart, id)
	return err
}

const updateCartDetails = `-- name: UpdateCartDetails :exec
UPDATE carts SET
    guest_first_name = ?1,
    guest_last_name = ?2,
    guest_email = ?3,
    guest_phone = ?4,
    special_requests = ?5,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?6
`

type UpdateCartDetailsParams struct {
	GuestFirstName  sql.NullString
	GuestLastName   sql.NullString
	GuestEmail      sql.NullString
	GuestPhone      sql.NullString
	SpecialRequests sql.NullString
	ID              int64
}

func (q *Queries) UpdateCartDetails(ctx context.Context, arg UpdateCartDetailsParams) error {
	_, err := q.db.ExecContext(ctx, updateCartDetails,
		arg.GuestFirstName,
		arg.GuestLastName,
		arg.GuestEmail,
		arg.GuestPhone,
		arg.SpecialRequests,
		arg.ID,
	)
	return err
}

const updateCartItemGuests = `-- name: UpdateCartItemGuests :execrows
UPDATE cart_items SET guests = ?1 WHERE id = ?2 AND cart_id = ?3
`

type UpdateCartItemGuestsParams struct {
	Guests int64
	ID     int64
	CartID int64
}

func (q *Queries) UpdateCartItemGuests(ctx context.Context, arg UpdateCartItemGuestsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateCartItemGuests, arg.Guests, arg.ID, arg.CartID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
