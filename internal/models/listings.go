// internal/models/listings.go
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	maxListingNameLength = 120
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func IsSlug(value string) bool {
	return slugRegex.MatchString(value)
}

// Slugify lowercases a name and joins its alphanumeric runs with hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

type Accommodation struct {
	ID               int64     `json:"id"`
	Slug             string    `json:"slug"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	UnitType         string    `json:"unit_type"`
	MaxGuests        int64     `json:"max_guests"`
	Bedrooms         int64     `json:"bedrooms"`
	NightlyRateCents int64     `json:"nightly_rate_cents"`
	CleaningFeeCents int64     `json:"cleaning_fee_cents"`
	Units            int64     `json:"units"`
	MinNights        int64     `json:"min_nights"`
	ImageURL         string    `json:"image_url,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (a Accommodation) IsActive() bool { return a.Status == StatusActive }

func (a Accommodation) Validate() error {
	if err := validateListingBasics(a.Slug, a.Name, a.Status); err != nil {
		return err
	}
	if strings.TrimSpace(a.UnitType) == "" {
		return fmt.Errorf("unit_type is required")
	}
	if a.MaxGuests < 1 {
		return fmt.Errorf("max_guests must be at least 1")
	}
	if a.Bedrooms < 0 {
		return fmt.Errorf("bedrooms must be 0 or greater")
	}
	if a.NightlyRateCents < 0 {
		return fmt.Errorf("nightly_rate must be 0 or greater")
	}
	if a.CleaningFeeCents < 0 {
		return fmt.Errorf("cleaning_fee must be 0 or greater")
	}
	if a.Units < 1 {
		return fmt.Errorf("units must be at least 1")
	}
	if a.MinNights < 1 {
		return fmt.Errorf("min_nights must be at least 1")
	}
	return nil
}

func AccommodationFromDB(row dbgen.Accommodation) Accommodation {
	return Accommodation{
		ID:               row.ID,
		Slug:             row.Slug,
		Name:             row.Name,
		Description:      row.Description,
		UnitType:         row.UnitType,
		MaxGuests:        row.MaxGuests,
		Bedrooms:         row.Bedrooms,
		NightlyRateCents: row.NightlyRateCents,
		CleaningFeeCents: row.CleaningFeeCents,
		Units:            row.Units,
		MinNights:        row.MinNights,
		ImageURL:         row.ImageUrl,
		Status:           row.Status,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

type Activity struct {
	ID              int64     `json:"id"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	DurationMinutes int64     `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	Capacity        int64     `json:"capacity"`
	ImageURL        string    `json:"image_url,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (a Activity) IsActive() bool { return a.Status == StatusActive }

func (a Activity) Validate() error {
	if err := validateListingBasics(a.Slug, a.Name, a.Status); err != nil {
		return err
	}
	if strings.TrimSpace(a.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if a.DurationMinutes < 1 {
		return fmt.Errorf("duration_minutes must be at least 1")
	}
	if a.PriceCents < 0 {
		return fmt.Errorf("price must be 0 or greater")
	}
	if a.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1")
	}
	return nil
}

func ActivityFromDB(row dbgen.Activity) Activity {
	return Activity{
		ID:              row.ID,
		Slug:            row.Slug,
		Name:            row.Name,
		Description:     row.Description,
		Category:        row.Category,
		DurationMinutes: row.DurationMinutes,
		PriceCents:      row.PriceCents,
		Capacity:        row.Capacity,
		ImageURL:        row.ImageUrl,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

// ActivitySlot is a dated session of an activity with its remaining places.
type ActivitySlot struct {
	ID         int64     `json:"id"`
	ActivityID int64     `json:"activity_id"`
	StartsAt   time.Time `json:"starts_at"`
	Capacity   int64     `json:"capacity"`
	Held       int64     `json:"held"`
	Remaining  int64     `json:"remaining"`
}

func (s ActivitySlot) SoldOut() bool { return s.Remaining <= 0 }

func SlotFromUpcomingRow(row dbgen.ListUpcomingSlotsRow) ActivitySlot {
	remaining := row.Capacity - row.HeldParticipants
	if remaining < 0 {
		remaining = 0
	}
	return ActivitySlot{
		ID:         row.ID,
		ActivityID: row.ActivityID,
		StartsAt:   row.StartsAt,
		Capacity:   row.Capacity,
		Held:       row.HeldParticipants,
		Remaining:  remaining,
	}
}

func validateListingBasics(slug, name, status string) error {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return fmt.Errorf("name is required")
	}
	if len(trimmedName) > maxListingNameLength {
		return fmt.Errorf("name must be %d characters or fewer", maxListingNameLength)
	}
	if !IsSlug(slug) {
		return fmt.Errorf("slug must be lowercase letters, numbers and single hyphens")
	}
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("status must be active or inactive")
	}
	return nil
}
