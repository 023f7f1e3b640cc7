package dbgen

import (
	"context"
	"time"
)

const countAccommodations = `-- name: CountAccommodations :one
SELECT COUNT(*) FROM accommodations
WHERE (?1 = '' OR name LIKE '%' || ?1 || '%' OR description LIKE '%' || ?1 || '%')
  AND (?2 = '' OR unit_type = ?2)
  AND (?3 = 0 OR max_guests >= ?3)
  AND (?4 = 0 OR nightly_rate_cents <= ?4)
  AND (?5 = '' OR status = ?5)
`

type CountAccommodationsParams struct {
	Search       string
	UnitType     string
	Guests       int64
	MaxRateCents int64
	Status       string
}

func (q *Queries) CountAccommodations(ctx context.Context, arg CountAccommodationsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAccommodations,
		arg.Search,
		arg.UnitType,
		arg.Guests,
		arg.MaxRateCents,
		arg.Status,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countOverlappingStays = `-- name: CountOverlappingStays :one
SELECT COUNT(*) FROM booking_items bi
JOIN bookings b ON b.id = bi.booking_id
WHERE bi.item_type = 'stay'
  AND bi.accommodation_id = ?1
  AND bi.check_in < ?2
  AND bi.check_out > ?3
  AND (b.status = 'confirmed' OR (b.status = 'pending' AND b.hold_expires_at > ?4))
`

type CountOverlappingStaysParams struct {
	AccommodationID int64
	CheckOut        string
	CheckIn         string
	Now             time.Time
}

func (q *Queries) CountOverlappingStays(ctx context.Context, arg CountOverlappingStaysParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countOverlappingStays,
		arg.AccommodationID,
		arg.CheckOut,
		arg.CheckIn,
		arg.Now,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAccommodation = `-- name: CreateAccommodation :one
INSERT INTO accommodations (
    slug, name, description, unit_type, max_guests, bedrooms,
    nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status
) VALUES (
    ?1, ?2, ?3, ?4, ?5, ?6,
    ?7, ?8, ?9, ?10, ?11, ?12
)
RETURNING id, slug, name, description, unit_type, max_guests, bedrooms, nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status, created_at, updated_at
`

type CreateAccommodationParams struct {
	Slug             string
	Name             string
	Description      string
	UnitType         string
	MaxGuests        int64
	Bedrooms         int64
	NightlyRateCents int64
	CleaningFeeCents int64
	Units            int64
	MinNights        int64
	ImageUrl         string
	Status           string
}

func (q *Queries) CreateAccommodation(ctx context.Context, arg CreateAccommodationParams) (Accommodation, error) {
	row := q.db.QueryRowContext(ctx, createAccommodation,
		arg.Slug,
		arg.Name,
		arg.Description,
		arg.UnitType,
		arg.MaxGuests,
		arg.Bedrooms,
		arg.NightlyRateCents,
		arg.CleaningFeeCents,
		arg.Units,
		arg.MinNights,
		arg.ImageUrl,
		arg.Status,
	)
	return scanAccommodation(row)
}

const getAccommodation = `-- name: GetAccommodation :one
SELECT id, slug, name, description, unit_type, max_guests, bedrooms, nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status, created_at, updated_at FROM accommodations WHERE id = ?1
`

func (q *Queries) GetAccommodation(ctx context.Context, id int64) (Accommodation, error) {
	row := q.db.QueryRowContext(ctx, getAccommodation, id)
	return scanAccommodation(row)
}

const getAccommodationBySlug = `-- name: GetAccommodationBySlug :one
SELECT id, slug, name, description, unit_type, max_guests, bedrooms, nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status, created_at, updated_at FROM accommodations WHERE slug = ?1
`

func (q *Queries) GetAccommodationBySlug(ctx context.Context, slug string) (Accommodation, error) {
	row := q.db.QueryRowContext(ctx, getAccommodationBySlug, slug)
	return scanAccommodation(row)
}

const listAccommodationUnitTypes = `-- name: ListAccommodationUnitTypes :many
SELECT DISTINCT unit_type FROM accommodations WHERE status = 'active' ORDER BY unit_type
`

func (q *Queries) ListAccommodationUnitTypes(ctx context.Context) ([]string, error) {
	return queryMany(ctx, q.db, listAccommodationUnitTypes, scanString)
}

const listAccommodations = `-- name: ListAccommodations :many
SELECT id, slug, name, description, unit_type, max_guests, bedrooms, nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status, created_at, updated_at FROM accommodations
WHERE (?1 = '' OR name LIKE '%' || ?1 || '%' OR description LIKE '%' || ?1 || '%')
  AND (?2 = '' OR unit_type = ?2)
  AND (?3 = 0 OR max_guests >= ?3)
  AND (?4 = 0 OR nightly_rate_cents <= ?4)
  AND (?5 = '' OR status = ?5)
ORDER BY name, id
LIMIT ?6 OFFSET ?7
`

type ListAccommodationsParams struct {
	Search       string
	UnitType     string
	Guests       int64
	MaxRateCents int64
	Status       string
	Limit        int64
	Offset       int64
}

func (q *Queries) ListAccommodations(ctx context.Context, arg ListAccommodationsParams) ([]Accommodation, error) {
	return queryMany(ctx, q.db, listAccommodations, scanAccommodation,
		arg.Search,
		arg.UnitType,
		arg.Guests,
		arg.MaxRateCents,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
}

const listFeaturedAccommodations = `-- name: ListFeaturedAccommodations :many
SELECT id, slug, name, description, unit_type, max_guests, bedrooms, nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status, created_at, updated_at FROM accommodations
WHERE status = 'active'
ORDER BY created_at DESC, id DESC
LIMIT ?1
`

func (q *Queries) ListFeaturedAccommodations(ctx context.Context, limit int64) ([]Accommodation, error) {
	return queryMany(ctx, q.db, listFeaturedAccommodations, scanAccommodation, limit)
}

const updateAccommodation = `-- name: UpdateAccommodation :one
UPDATE accommodations SET
    slug = ?1,
    name = ?2,
    description = ?3,
    unit_type = ?4,
    max_guests = ?5,
    bedrooms = ?6,
    nightly_rate_cents = ?7,
    cleaning_fee_cents = ?8,
    units = ?9,
    min_nights = ?10,
    image_url = ?11,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?12
RETURNING id, slug, name, description, unit_type, max_guests, bedrooms, nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status, created_at, updated_at
`

type UpdateAccommodationParams struct {
	Slug             string
	Name             string
	Description      string
	UnitType         string
	MaxGuests        int64
	Bedrooms         int64
	NightlyRateCents int64
	CleaningFeeCents int64
	Units            int64
	MinNights        int64
	ImageUrl         string
	ID               int64
}

func (q *Queries) UpdateAccommodation(ctx context.Context, arg UpdateAccommodationParams) (Accommodation, error) {
	row := q.db.QueryRowContext(ctx, updateAccommodation,
		arg.Slug,
		arg.Name,
		arg.Description,
		arg.UnitType,
		arg.MaxGuests,
		arg.Bedrooms,
		arg.NightlyRateCents,
		arg.CleaningFeeCents,
		arg.Units,
		arg.MinNights,
		arg.ImageUrl,
		arg.ID,
	)
	return scanAccommodation(row)
}

const updateAccommodationStatus = `-- name: UpdateAccommodationStatus :one
UPDATE accommodations SET status = ?1, updated_at = CURRENT_TIMESTAMP WHERE id = ?2
RETURNING id, slug, name, description, unit_type, max_guests, bedrooms, nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status, created_at, updated_at
`

type UpdateAccommodationStatusParams struct {
	Status string
	ID     int64
}

func (q *Queries) UpdateAccommodationStatus(ctx context.Context, arg UpdateAccommodationStatusParams) (Accommodation, error) {
	row := q.db.QueryRowContext(ctx, updateAccommodationStatus, arg.Status, arg.ID)
	return scanAccommodation(row)
}

const upsertAccommodation = `-- name: UpsertAccommodation :one
INSERT INTO accommodations (
    slug, name, description, unit_type, max_guests, bedrooms,
    nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status
) VALUES (
    ?1, ?2, ?3, ?4, ?5, ?6,
    ?7, ?8, ?9, ?10, ?11, ?12
)
ON CONFLICT (slug) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    unit_type = excluded.unit_type,
    max_guests = excluded.max_guests,
    bedrooms = excluded.bedrooms,
    nightly_rate_cents = excluded.nightly_rate_cents,
    cleaning_fee_cents = excluded.cleaning_fee_cents,
    units = excluded.units,
    min_nights = excluded.min_nights,
    image_url = excluded.image_url,
    status = excluded.status,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, slug, name, description, unit_type, max_guests, bedrooms, nightly_rate_cents, cleaning_fee_cents, units, min_nights, image_url, status, created_at, updated_at
`

type UpsertAccommodationParams CreateAccommodationParams

func (q *Queries) UpsertAccommodation(ctx context.Context, arg UpsertAccommodationParams) (Accommodation, error) {
	row := q.db.QueryRowContext(ctx, upsertAccommodation,
		arg.Slug,
		arg.Name,
		arg.Description,
		arg.UnitType,
		arg.MaxGuests,
		arg.Bedrooms,
		arg.NightlyRateCents,
		arg.CleaningFeeCents,
		arg.Units,
		arg.MinNights,
		arg.ImageUrl,
		arg.Status,
	)
	return scanAccommodation(row)
}
