package dbgen

import (
	"context"
	"time"
)

const createActivitySlot = `-- name: CreateActivitySlot :one
INSERT INTO activity_slots (activity_id, starts_at, capacity)
VALUES (?1, ?2, ?3)
RETURNING id, activity_id, starts_at, capacity, created_at
`

type CreateActivitySlotParams struct {
	ActivityID int64
	StartsAt   time.Time
	Capacity   int64
}

func (q *Queries) CreateActivitySlot(ctx context.Context, arg CreateActivitySlotParams) (ActivitySlot, error) {
	row := q.db.QueryRowContext(ctx, createActivitySlot, arg.ActivityID, arg.StartsAt, arg.Capacity)
	return scanActivitySlot(row)
}

const deleteActivitySlot = `-- name: DeleteActivitySlot :execrows
DELETE FROM activity_slots WHERE id = ?1 AND activity_id = ?2
`

type DeleteActivitySlotParams struct {
	ID         int64
	ActivityID int64
}

func (q *Queries) DeleteActivitySlot(ctx context.Context, arg DeleteActivitySlotParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteActivitySlot, arg.ID, arg.ActivityID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getActivitySlot = `-- name: GetActivitySlot :one
SELECT
    s.id,
    s.activity_id,
    s.starts_at,
    s.capacity,
    s.created_at,
    a.name AS activity_name,
    a.slug AS activity_slug,
    a.status AS activity_status,
    a.price_cents,
    a.duration_minutes
FROM activity_slots s
JOIN activities a ON a.id = s.activity_id
WHERE s.id = ?1
`

type GetActivitySlotRow struct {
	ID              int64
	ActivityID      int64
	StartsAt        time.Time
	Capacity        int64
	CreatedAt       time.Time
	ActivityName    string
	ActivitySlug    string
	ActivityStatus  string
	PriceCents      int64
	DurationMinutes int64
}

func (q *Queries) GetActivitySlot(ctx context.Context, id int64) (GetActivitySlotRow, error) {
	row := q.db.QueryRowContext(ctx, getActivitySlot, id)
	var i GetActivitySlotRow
	err := row.Scan(
		&i.ID,
		&i.ActivityID,
		&i.StartsAt,
		&i.Capacity,
		&i.CreatedAt,
		&i.ActivityName,
		&i.ActivitySlug,
		&i.ActivityStatus,
		&i.PriceCents,
		&i.DurationMinutes,
	)
	return i, err
}

const listUpcomingSlots = `-- name: ListUpcomingSlots :many
SELECT
    s.id,
    s.activity_id,
    s.starts_at,
    s.capacity,
    s.created_at,
    CAST(COALESCE((
        SELECT SUM(bi.guests) FROM booking_items bi
        JOIN bookings b ON b.id = bi.booking_id
        WHERE bi.activity_slot_id = s.id
          AND (b.status = 'confirmed' OR (b.status = 'pending' AND b.hold_expires_at > ?1))
    ), 0) AS INTEGER) AS held_participants
FROM activity_slots s
WHERE s.activity_id = ?2
  AND s.starts_at > ?1
ORDER BY s.starts_at
LIMIT ?3
`

type ListUpcomingSlotsParams struct {
	Now        time.Time
	ActivityID int64
	Limit      int64
}

type ListUpcomingSlotsRow struct {
	ID               int64
	ActivityID       int64
	StartsAt         time.Time
	Capacity         int64
	CreatedAt        time.Time
	HeldParticipants int64
}

func (q *Queries) ListUpcomingSlots(ctx context.Context, arg ListUpcomingSlotsParams) ([]ListUpcomingSlotsRow, error) {
	return queryMany(ctx, q.db, listUpcomingSlots, func(row scanner) (ListUpcomingSlotsRow, error) {
		var i ListUpcomingSlotsRow
		err := row.Scan(
			&i.ID,
			&i.ActivityID,
			&i.StartsAt,
			&i.Capacity,
			&i.CreatedAt,
			&i.HeldParticipants,
		)
		return i, err
	}, arg.Now, arg.ActivityID, arg.Limit)
}

const sumHeldSlotParticipants = `-- name: SumHeldSlotParticipants :one
SELECT CAST(COALESCE(SUM(bi.guests), 0) AS INTEGER) AS held
FROM booking_items bi
JOIN bookings b ON b.id = bi.booking_id
WHERE bi.activity_slot_id = ?1
  AND (b.status = 'confirmed' OR (b.status = 'pending' AND b.hold_expires_at > ?2))
`

type SumHeldSlotParticipantsParams struct {
	ActivitySlotID int64
	Now            time.Time
}

func (q *Queries) SumHeldSlotParticipants(ctx context.Context, arg SumHeldSlotParticipantsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumHeldSlotParticipants, arg.ActivitySlotID, arg.Now)
	var held int64
	err := row.Scan(&held)
	return held, err
}

const upsertActivitySlot = `-- name: UpsertActivitySlot :one
INSERT INTO activity_slots (activity_id, starts_at, capacity)
VALUES (?1, ?2, ?3)
ON CONFLICT (activity_id, starts_at) DO UPDATE SET capacity = excluded.capacity
RETURNING id, activity_id, starts_at, capacity, created_at
`

type UpsertActivitySlotParams CreateActivitySlotParams

func (q *Queries) UpsertActivitySlot(ctx context.Context, arg UpsertActivitySlotParams) (ActivitySlot, error) {
	row := q.db.QueryRowContext(ctx, upsertActivitySlot, arg.ActivityID, arg.StartsAt, arg.Capacity)
	return scanActivitySlot(row)
}
