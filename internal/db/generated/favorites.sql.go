package dbgen

import (
	"context"
)

const addFavorite = `-- name: AddFavorite :exec
INSERT OR IGNORE INTO favorites (user_id, item_type, item_id) VALUES (?1, ?2, ?3)
`

type AddFavoriteParams struct {
	UserID   int64
	ItemType string
	ItemID   int64
}

func (q *Queries) AddFavorite(ctx context.Context, arg AddFavoriteParams) error {
	_, err := q.db.ExecContext(ctx, addFavorite, arg.UserID, arg.ItemType, arg.ItemID)
	return err
}

const isFavorite = `-- name: IsFavorite :one
SELECT COUNT(*) FROM favorites WHERE user_id = ?1 AND item_type = ?2 AND item_id = ?3
`

type IsFavoriteParams AddFavoriteParams

func (q *Queries) IsFavorite(ctx context.Context, arg IsFavoriteParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, isFavorite, arg.UserID, arg.ItemType, arg.ItemID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listFavoriteAccommodations = `-- name: ListFavoriteAccommodations :many
SELECT a.id, a.slug, a.name, a.description, a.unit_type, a.max_guests, a.bedrooms, a.nightly_rate_cents, a.cleaning_fee_cents, a.units, a.min_nights, a.image_url, a.status, a.created_at, a.updated_at FROM favorites f
JOIN accommodations a ON a.id = f.item_id
WHERE f.user_id = ?1 AND f.item_type = 'accommodation'
ORDER BY f.created_at DESC
`

func (q *Queries) ListFavoriteAccommodations(ctx context.Context, userID int64) ([]Accommodation, error) {
	return queryMany(ctx, q.db, listFavoriteAccommodations, scanAccommodation, userID)
}

const listFavoriteActivities = `-- name: ListFavoriteActivities :many
SELECT a.id, a.slug, a.name, a.description, a.category, a.duration_minutes, a.price_cents, a.capacity, a.image_url, a.status, a.created_at, a.updated_at FROM favorites f
JOIN activities a ON a.id = f.item_id
WHERE f.user_id = ?1 AND f.item_type = 'activity'
ORDER BY f.created_at DESC
`

func (q *Queries) ListFavoriteActivities(ctx context.Context, userID int64) ([]Activity, error) {
	return queryMany(ctx, q.db, listFavoriteActivities, scanActivity, userID)
}

const listFavoriteIDs = `-- name: ListFavoriteIDs :many
SELECT item_type, item_id FROM favorites WHERE user_id = ?1
`

type ListFavoriteIDsRow struct {
	ItemType string
	ItemID   int64
}

func (q *Queries) ListFavoriteIDs(ctx context.Context, userID int64) ([]ListFavoriteIDsRow, error) {
	return queryMany(ctx, q.db, listFavoriteIDs, func(row scanner) (ListFavoriteIDsRow, error) {
		var i ListFavoriteIDsRow
		err := row.Scan(&i.ItemType, &i.ItemID)
		return i, err
	}, userID)
}

const removeFavorite = `-- name: RemoveFavorite :execrows
DELETE FROM favorites WHERE user_id = ?1 AND item_type = ?2 AND item_id = ?3
`

type RemoveFavoriteParams AddFavoriteParams

func (q *Queries) RemoveFavorite(ctx context.Context, arg RemoveFavoriteParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, removeFavorite, arg.UserID, arg.ItemType, arg.ItemID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
