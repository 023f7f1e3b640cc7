package catalog

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

func TestFilterFromQuery(t *testing.T) {
	filter := FilterFromQuery(url.Values{
		"q":         {"  lake "},
		"type":      {"cabin"},
		"guests":    {"3"},
		"max_price": {"150.50"},
		"page":      {"0"},
		"per_page":  {"500"},
	})

	if filter.Search != "lake" || filter.Kind != "cabin" || filter.Guests != 3 {
		t.Fatalf("unexpected filter %+v", filter)
	}
	if filter.MaxPriceCents != 15050 {
		t.Fatalf("expected 15050 cents, got %d", filter.MaxPriceCents)
	}
	if filter.Page != 1 || filter.PerPage != models.DefaultPerPage {
		t.Fatalf("expected normalized paging, got page=%d per_page=%d", filter.Page, filter.PerPage)
	}
	if filter.Status != models.StatusActive {
		t.Fatalf("public filter must only show active listings")
	}

	garbage := FilterFromQuery(url.Values{"guests": {"many"}, "max_price": {"cheap"}})
	if garbage.Guests != 0 || garbage.MaxPriceCents != 0 {
		t.Fatalf("expected garbage to be ignored, got %+v", garbage)
	}
}

func TestListAccommodationsFilters(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.SeedAccommodation(t, database, "birch", func(p *dbgen.CreateAccommodationParams) {
		p.Name = "Birch Cabin"
		p.MaxGuests = 2
	})
	testutil.SeedAccommodation(t, database, "aspen", func(p *dbgen.CreateAccommodationParams) {
		p.Name = "Aspen Suite"
		p.UnitType = "suite"
		p.MaxGuests = 6
		p.NightlyRateCents = 30000
	})
	testutil.SeedAccommodation(t, database, "closed", func(p *dbgen.CreateAccommodationParams) {
		p.Name = "Closed Cabin"
		p.Status = models.StatusInactive
	})

	all, err := ListAccommodations(ctx, database.Queries, ListFilter{Status: models.StatusActive})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 2 || len(all.Items) != 2 {
		t.Fatalf("expected 2 active listings, got %d", all.Total)
	}
	if all.Items[0].Name != "Aspen Suite" {
		t.Fatalf("expected name ordering, got %s first", all.Items[0].Name)
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"guests", ListFilter{Guests: 4}, []string{"aspen"}},
		{"unit type", ListFilter{Kind: "cabin"}, []string{"birch"}},
		{"max rate", ListFilter{MaxPriceCents: 20000}, []string{"birch"}},
		{"search", ListFilter{Search: "suite"}, []string{"aspen"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Status = models.StatusActive
			page, err := ListAccommodations(ctx, database.Queries, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(page.Items) != len(tt.want) {
				t.Fatalf("expected %v, got %d items", tt.want, len(page.Items))
			}
			for i, slug := range tt.want {
				if page.Items[i].Slug != slug {
					t.Fatalf("expected %s at %d, got %s", slug, i, page.Items[i].Slug)
				}
			}
		})
	}

	everything, err := ListAccommodations(ctx, database.Queries, ListFilter{})
	if err != nil {
		t.Fatalf("list all statuses: %v", err)
	}
	if everything.Total != 3 {
		t.Fatalf("expected 3 listings with no status filter, got %d", everything.Total)
	}
}

func TestListActivitiesPaging(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	startsAt := time.Now().Add(48 * time.Hour)

	for _, slug := range []string{"archery", "canoe", "hike"} {
		testutil.SeedActivity(t, database, slug, startsAt, 8)
	}

	page, err := ListActivities(ctx, database.Queries, ListFilter{Status: models.StatusActive, Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 1 {
		t.Fatalf("expected 1 of 3 on page 2, got %d of %d", len(page.Items), page.Total)
	}
	if page.Items[0].Slug != "hike" {
		t.Fatalf("expected hike on page 2, got %s", page.Items[0].Slug)
	}
	if page.TotalPages() != 2 || page.HasNext() || !page.HasPrev() {
		t.Fatalf("unexpected paging flags for %+v", page)
	}
}

func TestGetBySlugNotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	if _, err := GetAccommodationBySlug(ctx, database.Queries, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetActivityBySlug(ctx, database.Queries, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUpcomingSlots(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	activity, _ := testutil.SeedActivity(t, database, "canoe", now.Add(24*time.Hour), 6)
	if _, err := database.Queries.CreateActivitySlot(ctx, dbgen.CreateActivitySlotParams{
		ActivityID: activity.ID,
		StartsAt:   now.Add(-time.Hour).UTC().Truncate(time.Second),
		Capacity:   6,
	}); err != nil {
		t.Fatalf("create past slot: %v", err)
	}

	slots, err := ListUpcomingSlots(ctx, database.Queries, activity.ID, now, 0)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected only the future slot, got %d", len(slots))
	}
	if slots[0].Remaining != 6 || slots[0].SoldOut() {
		t.Fatalf("expected 6 open places, got %+v", slots[0])
	}
}

func TestLoadFavorites(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.SeedAccommodation(t, database, "pine", nil)
	user := testutil.SeedUser(t, database, "fan@example.com", "guest", "")
	if err := database.Queries.AddFavorite(ctx, dbgen.AddFavoriteParams{UserID: user.ID, ItemType: KindAccommodation, ItemID: acc.ID}); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	favs, err := LoadFavorites(ctx, database.Queries, user.ID)
	if err != nil {
		t.Fatalf("load favorites: %v", err)
	}
	if !favs.Has(KindAccommodation, acc.ID) || favs.Has(KindActivity, acc.ID) {
		t.Fatalf("unexpected favorites %v", favs)
	}

	anon, err := LoadFavorites(ctx, database.Queries, 0)
	if err != nil || len(anon) != 0 {
		t.Fatalf("expected empty set for anonymous visitors, got %v %v", anon, err)
	}
}
