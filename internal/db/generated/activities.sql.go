package dbgen

import (
	"context"
)

const countActivities = `-- name: CountActivities :one
SELECT COUNT(*) FROM activities
WHERE (?1 = '' OR name LIKE '%' || ?1 || '%' OR description LIKE '%' || ?1 || '%')
  AND (?2 = '' OR category = ?2)
  AND (?3 = 0 OR capacity >= ?3)
  AND (?4 = 0 OR price_cents <= ?4)
  AND (?5 = '' OR status = ?5)
`

type CountActivitiesParams struct {
	Search        string
	Category      string
	Participants  int64
	MaxPriceCents int64
	Status        string
}

func (q *Queries) CountActivities(ctx context.Context, arg CountActivitiesParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countActivities,
		arg.Search,
		arg.Category,
		arg.Participants,
		arg.MaxPriceCents,
		arg.Status,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createActivity = `-- name: CreateActivity :one
INSERT INTO activities (
    slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status
) VALUES (
    ?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9
)
RETURNING id, slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status, created_at, updated_at
`

type CreateActivityParams struct {
	Slug            string
	Name            string
	Description     string
	Category        string
	DurationMinutes int64
	PriceCents      int64
	Capacity        int64
	ImageUrl        string
	Status          string
}

func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) (Activity, error) {
	row := q.db.QueryRowContext(ctx, createActivity,
		arg.Slug,
		arg.Name,
		arg.Description,
		arg.Category,
		arg.DurationMinutes,
		arg.PriceCents,
		arg.Capacity,
		arg.ImageUrl,
		arg.Status,
	)
	return scanActivity(row)
}

const getActivity = `-- name: GetActivity :one
SELECT id, slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status, created_at, updated_at FROM activities WHERE id = ?1
`

func (q *Queries) GetActivity(ctx context.Context, id int64) (Activity, error) {
	row := q.db.QueryRowContext(ctx, getActivity, id)
	return scanActivity(row)
}

const getActivityBySlug = `-- name: GetActivityBySlug :one
SELECT id, slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status, created_at, updated_at FROM activities WHERE slug = ?1
`

func (q *Queries) GetActivityBySlug(ctx context.Context, slug string) (Activity, error) {
	row := q.db.QueryRowContext(ctx, getActivityBySlug, slug)
	return scanActivity(row)
}

const listActivities = `-- name: ListActivities :many
SELECT id, slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status, created_at, updated_at FROM activities
WHERE (?1 = '' OR name LIKE '%' || ?1 || '%' OR description LIKE '%' || ?1 || '%')
  AND (?2 = '' OR category = ?2)
  AND (?3 = 0 OR capacity >= ?3)
  AND (?4 = 0 OR price_cents <= ?4)
  AND (?5 = '' OR status = ?5)
ORDER BY name, id
LIMIT ?6 OFFSET ?7
`

type ListActivitiesParams struct {
	Search        string
	Category      string
	Participants  int64
	MaxPriceCents int64
	Status        string
	Limit         int64
	Offset        int64
}

func (q *Queries) ListActivities(ctx context.Context, arg ListActivitiesParams) ([]Activity, error) {
	return queryMany(ctx, q.db, listActivities, scanActivity,
		arg.Search,
		arg.Category,
		arg.Participants,
		arg.MaxPriceCents,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
}

const listActivityCategories = `-- name: ListActivityCategories :many
SELECT DISTINCT category FROM activities WHERE status = 'active' ORDER BY category
`

func (q *Queries) ListActivityCategories(ctx context.Context) ([]string, error) {
	return queryMany(ctx, q.db, listActivityCategories, scanString)
}

const listFeaturedActivities = `-- name: ListFeaturedActivities :many
SELECT id, slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status, created_at, updated_at FROM activities
WHERE status = 'active'
ORDER BY created_at DESC, id DESC
LIMIT ?1
`

func (q *Queries) ListFeaturedActivities(ctx context.Context, limit int64) ([]Activity, error) {
	return queryMany(ctx, q.db, listFeaturedActivities, scanActivity, limit)
}

const updateActivity = `-- name: UpdateActivity :one
UPDATE activities SET
    slug = ?1,
    name = ?2,
    description = ?3,
    category = ?4,
    duration_minutes = ?5,
    price_cents = ?6,
    capacity = ?7,
    image_url = ?8,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?9
RETURNING id, slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status, created_at, updated_at
`

type UpdateActivityParams struct {
	Slug            string
	Name            string
	Description     string
	Category        string
	DurationMinutes int64
	PriceCents      int64
	Capacity        int64
	ImageUrl        string
	ID              int64
}

func (q *Queries) UpdateActivity(ctx context.Context, arg UpdateActivityParams) (Activity, error) {
	row := q.db.QueryRowContext(ctx, updateActivity,
		arg.Slug,
		arg.Name,
		arg.Description,
		arg.Category,
		arg.DurationMinutes,
		arg.PriceCents,
		arg.Capacity,
		arg.ImageUrl,
		arg.ID,
	)
	return scanActivity(row)
}

const updateActivityStatus = `-- name: UpdateActivityStatus :one
UPDATE activities SET status = ?1, updated_at = CURRENT_TIMESTAMP WHERE id = ?2
RETURNING id, slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status, created_at, updated_at
`

type UpdateActivityStatusParams struct {
	Status string
	ID     int64
}

func (q *Queries) UpdateActivityStatus(ctx context.Context, arg UpdateActivityStatusParams) (Activity, error) {
	row := q.db.QueryRowContext(ctx, updateActivityStatus, arg.Status, arg.ID)
	return scanActivity(row)
}

const upsertActivity = `-- name: UpsertActivity :one
INSERT INTO activities (
    slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status
) VALUES (
    ?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9
)
ON CONFLICT (slug) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    category = excluded.category,
    duration_minutes = excluded.duration_minutes,
    price_cents = excluded.price_cents,
    capacity = excluded.capacity,
    image_url = excluded.image_url,
    status = excluded.status,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, slug, name, description, category, duration_minutes, price_cents, capacity, image_url, status, created_at, updated_at
`

type UpsertActivityParams CreateActivityParams

func (q *Queries) UpsertActivity(ctx context.Context, arg UpsertActivityParams) (Activity, error) {
	row := q.db.QueryRowContext(ctx, upsertActivity,
		arg.Slug,
		arg.Name,
		arg.Description,
		arg.Category,
		arg.DurationMinutes,
		arg.PriceCents,
		arg.Capacity,
		arg.ImageUrl,
		arg.Status,
	)
	return scanActivity(row)
}
