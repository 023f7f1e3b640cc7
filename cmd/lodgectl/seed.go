// cmd/lodgectl/seed.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/pricing"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load accommodations and activities from a catalog file",
	Long: `Load a YAML catalog into the database.

Listings are matched by slug, so running seed again updates existing rows
instead of duplicating them. Slot times are read in the lodge timezone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolveTarget()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		catalog, err := parseCatalog(data)
		if err != nil {
			return err
		}

		database, err := db.New(t.path)
		if err != nil {
			return err
		}
		defer database.Close()

		result, err := seedCatalog(cmd.Context(), database, catalog, t.location)
		if err != nil {
			return err
		}
		log.Info().
			Int("accommodations", result.Accommodations).
			Int("activities", result.Activities).
			Int("slots", result.Slots).
			Str("file", seedFile).
			Msg("Catalog loaded")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "catalog.yaml", "catalog YAML file")
}

type catalogFile struct {
	Accommodations []catalogAccommodation `yaml:"accommodations"`
	Activities     []catalogActivity      `yaml:"activities"`
}

type catalogAccommodation struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	UnitType    string `yaml:"unit_type"`
	MaxGuests   int64  `yaml:"max_guests"`
	Bedrooms    int64  `yaml:"bedrooms"`
	NightlyRate string `yaml:"nightly_rate"`
	CleaningFee string `yaml:"cleaning_fee"`
	Units       int64  `yaml:"units"`
	MinNights   int64  `yaml:"min_nights"`
	ImageURL    string `yaml:"image_url"`
	Status      string `yaml:"status"`
}

type catalogActivity struct {
	Slug            string        `yaml:"slug"`
	Name            string        `yaml:"name"`
	Description     string        `yaml:"description"`
	Category        string        `yaml:"category"`
	DurationMinutes int64         `yaml:"duration_minutes"`
	Price           string        `yaml:"price"`
	Capacity        int64         `yaml:"capacity"`
	ImageURL        string        `yaml:"image_url"`
	Status          string        `yaml:"status"`
	Slots           []catalogSlot `yaml:"slots"`
}

type catalogSlot struct {
	StartsAt string `yaml:"starts_at"`
	// Capacity defaults to the activity's capacity.
	Capacity int64 `yaml:"capacity"`
}

type seedResult struct {
	Accommodations int
	Activities     int
	Slots          int
}

func parseCatalog(data []byte) (catalogFile, error) {
	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return catalogFile{}, fmt.Errorf("parse catalog: %w", err)
	}
	return catalog, nil
}

var slotLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

func parseSlotTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range slotLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid starts_at %q", raw)
}

func (c catalogAccommodation) toModel() (models.Accommodation, error) {
	acc := models.Accommodation{
		Slug:        strings.TrimSpace(c.Slug),
		Name:        strings.TrimSpace(c.Name),
		Description: c.Description,
		UnitType:    strings.TrimSpace(c.UnitType),
		MaxGuests:   c.MaxGuests,
		Bedrooms:    c.Bedrooms,
		Units:       c.Units,
		MinNights:   c.MinNights,
		ImageURL:    c.ImageURL,
		Status:      c.Status,
	}
	if acc.Slug == "" {
		acc.Slug = models.Slugify(acc.Name)
	}
	if acc.Status == "" {
		acc.Status = models.StatusActive
	}
	if acc.Units == 0 {
		acc.Units = 1
	}
	if acc.MinNights == 0 {
		acc.MinNights = 1
	}
	var err error
	if acc.NightlyRateCents, err = pricing.ParseMajorUnits(c.NightlyRate); err != nil {
		return acc, fmt.Errorf("nightly_rate: %w", err)
	}
	if strings.TrimSpace(c.CleaningFee) != "" {
		if acc.CleaningFeeCents, err = pricing.ParseMajorUnits(c.CleaningFee); err != nil {
			return acc, fmt.Errorf("cleaning_fee: %w", err)
		}
	}
	return acc, acc.Validate()
}

func (c catalogActivity) toModel() (models.Activity, error) {
	act := models.Activity{
		Slug:            strings.TrimSpace(c.Slug),
		Name:            strings.TrimSpace(c.Name),
		Description:     c.Description,
		Category:        strings.ToLower(strings.TrimSpace(c.Category)),
		DurationMinutes: c.DurationMinutes,
		Capacity:        c.Capacity,
		ImageURL:        c.ImageURL,
		Status:          c.Status,
	}
	if act.Slug == "" {
		act.Slug = models.Slugify(act.Name)
	}
	if act.Status == "" {
		act.Status = models.StatusActive
	}
	var err error
	if act.PriceCents, err = pricing.ParseMajorUnits(c.Price); err != nil {
		return act, fmt.Errorf("price: %w", err)
	}
	return act, act.Validate()
}

// seedCatalog upserts the whole catalog in one transaction. Any invalid entry
// leaves the database untouched.
func seedCatalog(ctx context.Context, database *db.DB, catalog catalogFile, loc *time.Location) (seedResult, error) {
	var result seedResult
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		for i, entry := range catalog.Accommodations {
			acc, err := entry.toModel()
			if err != nil {
				return fmt.Errorf("accommodation %d (%s): %w", i+1, entry.Name, err)
			}
			if _, err := tx.Queries.UpsertAccommodation(ctx, dbgen.UpsertAccommodationParams{
				Slug:             acc.Slug,
				Name:             acc.Name,
				Description:      acc.Description,
				UnitType:         acc.UnitType,
				MaxGuests:        acc.MaxGuests,
				Bedrooms:         acc.Bedrooms,
				NightlyRateCents: acc.NightlyRateCents,
				CleaningFeeCents: acc.CleaningFeeCents,
				Units:            acc.Units,
				MinNights:        acc.MinNights,
				ImageUrl:         acc.ImageURL,
				Status:           acc.Status,
			}); err != nil {
				return fmt.Errorf("save accommodation %s: %w", acc.Slug, err)
			}
			result.Accommodations++
		}

		for i, entry := range catalog.Activities {
			act, err := entry.toModel()
			if err != nil {
				return fmt.Errorf("activity %d (%s): %w", i+1, entry.Name, err)
			}
			row, err := tx.Queries.UpsertActivity(ctx, dbgen.UpsertActivityParams{
				Slug:            act.Slug,
				Name:            act.Name,
				Description:     act.Description,
				Category:        act.Category,
				DurationMinutes: act.DurationMinutes,
				PriceCents:      act.PriceCents,
				Capacity:        act.Capacity,
				ImageUrl:        act.ImageURL,
				Status:          act.Status,
			})
			if err != nil {
				return fmt.Errorf("save activity %s: %w", act.Slug, err)
			}
			result.Activities++

			for _, slot := range entry.Slots {
				startsAt, err := parseSlotTime(slot.StartsAt, loc)
				if err != nil {
					return fmt.Errorf("activity %s: %w", act.Slug, err)
				}
				capacity := slot.Capacity
				if capacity == 0 {
					capacity = act.Capacity
				}
				if capacity < 1 {
					return fmt.Errorf("activity %s: slot capacity must be at least 1", act.Slug)
				}
				if _, err := tx.Queries.UpsertActivitySlot(ctx, dbgen.UpsertActivitySlotParams{
					ActivityID: row.ID,
					StartsAt:   db.Timestamp(startsAt),
					Capacity:   capacity,
				}); err != nil {
					return fmt.Errorf("save slot %s for %s: %w", slot.StartsAt, act.Slug, err)
				}
				result.Slots++
			}
		}
		return nil
	})
	if err != nil {
		return seedResult{}, err
	}
	return result, nil
}
