package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
)

// SeedAccommodation inserts an active cabin with sensible defaults. The
// mutate hook adjusts params before insert.
func SeedAccommodation(t *testing.T, database *db.DB, slug string, mutate func(*dbgen.CreateAccommodationParams)) dbgen.Accommodation {
	t.Helper()

	params := dbgen.CreateAccommodationParams{
		Slug:             slug,
		Name:             "Cabin " + slug,
		Description:      "Lakeside cabin",
		UnitType:         "cabin",
		MaxGuests:        4,
		Bedrooms:         2,
		NightlyRateCents: 10000,
		CleaningFeeCents: 2500,
		Units:            1,
		MinNights:        1,
		Status:           "active",
	}
	if mutate != nil {
		mutate(&params)
	}
	acc, err := database.Queries.CreateAccommodation(context.Background(), params)
	if err != nil {
		t.Fatalf("seed accommodation %s: %v", slug, err)
	}
	return acc
}

// SeedActivity inserts an active activity and one slot starting at startsAt.
func SeedActivity(t *testing.T, database *db.DB, slug string, startsAt time.Time, capacity int64) (dbgen.Activity, dbgen.ActivitySlot) {
	t.Helper()

	ctx := context.Background()
	activity, err := database.Queries.CreateActivity(ctx, dbgen.CreateActivityParams{
		Slug:            slug,
		Name:            "Activity " + slug,
		Description:     "Guided outing",
		Category:        "outdoor",
		DurationMinutes: 120,
		PriceCents:      4500,
		Capacity:        capacity,
		Status:          "active",
	})
	if err != nil {
		t.Fatalf("seed activity %s: %v", slug, err)
	}
	slot, err := database.Queries.CreateActivitySlot(ctx, dbgen.CreateActivitySlotParams{
		ActivityID: activity.ID,
		StartsAt:   startsAt.UTC().Truncate(time.Second),
		Capacity:   capacity,
	})
	if err != nil {
		t.Fatalf("seed slot for %s: %v", slug, err)
	}
	return activity, slot
}

// SeedUser inserts an active user with the given role and an optional bcrypt hash.
func SeedUser(t *testing.T, database *db.DB, email, role, passwordHash string) dbgen.User {
	t.Helper()

	user, err := database.Queries.CreateUser(context.Background(), dbgen.CreateUserParams{
		Email:        email,
		PasswordHash: sql.NullString{String: passwordHash, Valid: passwordHash != ""},
		FirstName:    "Test",
		LastName:     fmt.Sprintf("User %s", role),
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}
