// Package catalog lists and looks up the lodge's accommodations and
// activities.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/pricing"
)

var ErrNotFound = errors.New("listing not found")

const (
	KindAccommodation = "accommodation"
	KindActivity      = "activity"

	FeaturedLimit     = 6
	UpcomingSlotLimit = 20
)

// ListFilter narrows a listing. Kind is the unit type for accommodations and
// the category for activities. An empty Status matches every listing.
type ListFilter struct {
	Search        string
	Kind          string
	Guests        int64
	MaxPriceCents int64
	Status        string
	Page          int64
	PerPage       int64
}

// Query encodes the filter back into URL values, without paging.
func (f ListFilter) Query() url.Values {
	values := url.Values{}
	if f.Search != "" {
		values.Set("q", f.Search)
	}
	if f.Kind != "" {
		values.Set("type", f.Kind)
	}
	if f.Guests > 0 {
		values.Set("guests", strconv.FormatInt(f.Guests, 10))
	}
	if f.MaxPriceCents > 0 {
		values.Set("max_price", pricing.MajorUnits(f.MaxPriceCents).StringFixed(2))
	}
	return values
}

// FilterFromQuery reads a public listing filter. Unparseable numbers are
// ignored rather than rejected.
func FilterFromQuery(values url.Values) ListFilter {
	page, perPage := models.PagingFromQuery(values)
	filter := ListFilter{
		Search:  strings.TrimSpace(values.Get("q")),
		Kind:    strings.TrimSpace(values.Get("type")),
		Status:  models.StatusActive,
		Page:    page,
		PerPage: perPage,
	}
	if guests, err := strconv.ParseInt(strings.TrimSpace(values.Get("guests")), 10, 64); err == nil && guests > 0 {
		filter.Guests = guests
	}
	if maxPrice, err := pricing.ParseMajorUnits(values.Get("max_price")); err == nil && maxPrice > 0 {
		filter.MaxPriceCents = maxPrice
	}
	return filter
}

func (f ListFilter) normalized() ListFilter {
	f.Page, f.PerPage = models.NormalizePaging(f.Page, f.PerPage)
	return f
}

func ListAccommodations(ctx context.Context, q dbgen.Querier, filter ListFilter) (models.Page[models.Accommodation], error) {
	filter = filter.normalized()
	rows, err := q.ListAccommodations(ctx, dbgen.ListAccommodationsParams{
		Search:       filter.Search,
		UnitType:     filter.Kind,
		Guests:       filter.Guests,
		MaxRateCents: filter.MaxPriceCents,
		Status:       filter.Status,
		Limit:        filter.PerPage,
		Offset:       models.Offset(filter.Page, filter.PerPage),
	})
	if err != nil {
		return models.Page[models.Accommodation]{}, fmt.Errorf("list accommodations: %w", err)
	}
	total, err := q.CountAccommodations(ctx, dbgen.CountAccommodationsParams{
		Search:       filter.Search,
		UnitType:     filter.Kind,
		Guests:       filter.Guests,
		MaxRateCents: filter.MaxPriceCents,
		Status:       filter.Status,
	})
	if err != nil {
		return models.Page[models.Accommodation]{}, fmt.Errorf("count accommodations: %w", err)
	}
	return models.Page[models.Accommodation]{
		Items:   lo.Map(rows, func(row dbgen.Accommodation, _ int) models.Accommodation { return models.AccommodationFromDB(row) }),
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
	}, nil
}

func ListActivities(ctx context.Context, q dbgen.Querier, filter ListFilter) (models.Page[models.Activity], error) {
	filter = filter.normalized()
	rows, err := q.ListActivities(ctx, dbgen.ListActivitiesParams{
		Search:        filter.Search,
		Category:      filter.Kind,
		Participants:  filter.Guests,
		MaxPriceCents: filter.MaxPriceCents,
		Status:        filter.Status,
		Limit:         filter.PerPage,
		Offset:        models.Offset(filter.Page, filter.PerPage),
	})
	if err != nil {
		return models.Page[models.Activity]{}, fmt.Errorf("list activities: %w", err)
	}
	total, err := q.CountActivities(ctx, dbgen.CountActivitiesParams{
		Search:        filter.Search,
		Category:      filter.Kind,
		Participants:  filter.Guests,
		MaxPriceCents: filter.MaxPriceCents,
		Status:        filter.Status,
	})
	if err != nil {
		return models.Page[models.Activity]{}, fmt.Errorf("count activities: %w", err)
	}
	return models.Page[models.Activity]{
		Items:   lo.Map(rows, func(row dbgen.Activity, _ int) models.Activity { return models.ActivityFromDB(row) }),
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
	}, nil
}

func GetAccommodationBySlug(ctx context.Context, q dbgen.Querier, slug string) (models.Accommodation, error) {
	row, err := q.GetAccommodationBySlug(ctx, slug)
	if err != nil {
		return models.Accommodation{}, notFound(err, "accommodation")
	}
	return models.AccommodationFromDB(row), nil
}

func GetAccommodation(ctx context.Context, q dbgen.Querier, id int64) (models.Accommodation, error) {
	row, err := q.GetAccommodation(ctx, id)
	if err != nil {
		return models.Accommodation{}, notFound(err, "accommodation")
	}
	return models.AccommodationFromDB(row), nil
}

func GetActivityBySlug(ctx context.Context, q dbgen.Querier, slug string) (models.Activity, error) {
	row, err := q.GetActivityBySlug(ctx, slug)
	if err != nil {
		return models.Activity{}, notFound(err, "activity")
	}
	return models.ActivityFromDB(row), nil
}

func GetActivity(ctx context.Context, q dbgen.Querier, id int64) (models.Activity, error) {
	row, err := q.GetActivity(ctx, id)
	if err != nil {
		return models.Activity{}, notFound(err, "activity")
	}
	return models.ActivityFromDB(row), nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// ListUpcomingSlots returns the sessions starting after from, with the places
// still open.
func ListUpcomingSlots(ctx context.Context, q dbgen.Querier, activityID int64, from time.Time, limit int64) ([]models.ActivitySlot, error) {
	if limit <= 0 {
		limit = UpcomingSlotLimit
	}
	rows, err := q.ListUpcomingSlots(ctx, dbgen.ListUpcomingSlotsParams{
		Now:        db.Timestamp(from),
		ActivityID: activityID,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list upcoming slots: %w", err)
	}
	return lo.Map(rows, func(row dbgen.ListUpcomingSlotsRow, _ int) models.ActivitySlot {
		return models.SlotFromUpcomingRow(row)
	}), nil
}

// Featured is the home page selection, newest first.
type Featured struct {
	Accommodations []models.Accommodation
	Activities     []models.Activity
}

func LoadFeatured(ctx context.Context, q dbgen.Querier) (Featured, error) {
	accs, err := q.ListFeaturedAccommodations(ctx, FeaturedLimit)
	if err != nil {
		return Featured{}, fmt.Errorf("list featured accommodations: %w", err)
	}
	acts, err := q.ListFeaturedActivities(ctx, FeaturedLimit)
	if err != nil {
		return Featured{}, fmt.Errorf("list featured activities: %w", err)
	}
	return Featured{
		Accommodations: lo.Map(accs, func(row dbgen.Accommodation, _ int) models.Accommodation { return models.AccommodationFromDB(row) }),
		Activities:     lo.Map(acts, func(row dbgen.Activity, _ int) models.Activity { return models.ActivityFromDB(row) }),
	}, nil
}

// Favorites is the set of listings a user saved, keyed by kind and id.
type Favorites map[string]bool

func FavoriteKey(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}

func (f Favorites) Has(kind string, id int64) bool {
	return f[FavoriteKey(kind, id)]
}

// LoadFavorites returns an empty set for anonymous visitors.
func LoadFavorites(ctx context.Context, q dbgen.Querier, userID int64) (Favorites, error) {
	if userID <= 0 {
		return Favorites{}, nil
	}
	rows, err := q.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return lo.SliceToMap(rows, func(row dbgen.ListFavoriteIDsRow) (string, bool) {
		return FavoriteKey(row.ItemType, row.ItemID), true
	}), nil
}

// IsKind reports whether kind names a favoritable listing type.
func IsKind(kind string) bool {
	return kind == KindAccommodation || kind == KindActivity
}
