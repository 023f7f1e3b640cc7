package catalog

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/pricing"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

func setupCatalogTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)

	// Save and restore global state
	prevQueries, prevChecker, prevCurrency, prevLocation := queries, checker, currency, location
	t.Cleanup(func() {
		queries, checker, currency, location = prevQueries, prevChecker, prevCurrency, prevLocation
	})

	InitHandlers(Deps{
		Queries:  database.Queries,
		Checker:  availability.NewChecker(365, time.UTC),
		Currency: "USD",
		Location: time.UTC,
	})
	return database
}

func serve(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHomeShowsFeaturedListings(t *testing.T) {
	database := setupCatalogTest(t)
	testutil.SeedAccommodation(t, database, "pine", nil)
	testutil.SeedActivity(t, database, "canoe", time.Now().Add(48*time.Hour), 8)

	rec := serve("GET /{$}", HandleHome, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", `href="/accommodations/pine"`, `href="/activities/canoe"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in home page", want)
		}
	}
}

func TestAccommodationsFragmentForHTMX(t *testing.T) {
	database := setupCatalogTest(t)
	testutil.SeedAccommodation(t, database, "pine", nil)
	testutil.SeedAccommodation(t, database, "hidden", func(p *dbgen.CreateAccommodationParams) {
		p.Status = models.StatusInactive
	})

	req := httptest.NewRequest(http.MethodGet, "/accommodations?guests=2", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve("GET /accommodations", HandleAccommodations, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Fatal("htmx requests must get a fragment")
	}
	if !strings.Contains(body, `id="listing-grid"`) || !strings.Contains(body, "/accommodations/pine") {
		t.Fatalf("expected listing grid with pine, got %s", body)
	}
	if strings.Contains(body, "/accommodations/hidden") {
		t.Fatal("inactive listings must not be shown")
	}
}

func TestAccommodationDetail(t *testing.T) {
	database := setupCatalogTest(t)
	acc := testutil.SeedAccommodation(t, database, "pine", nil)
	testutil.SeedAccommodation(t, database, "hidden", func(p *dbgen.CreateAccommodationParams) {
		p.Status = models.StatusInactive
	})

	rec := serve("GET /accommodations/{slug}", HandleAccommodation, httptest.NewRequest(http.MethodGet, "/accommodations/pine", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/v1/accommodations/"+strconv.FormatInt(acc.ID, 10)+"/quote") {
		t.Fatal("expected the booking widget to quote against this accommodation")
	}

	for _, slug := range []string{"missing", "hidden"} {
		rec := serve("GET /accommodations/{slug}", HandleAccommodation, httptest.NewRequest(http.MethodGet, "/accommodations/"+slug, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", slug, rec.Code)
		}
	}
}

func TestActivityDetailListsSlots(t *testing.T) {
	database := setupCatalogTest(t)
	_, slot := testutil.SeedActivity(t, database, "canoe", time.Now().Add(48*time.Hour), 8)

	rec := serve("GET /activities/{slug}", HandleActivity, httptest.NewRequest(http.MethodGet, "/activities/canoe", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "slot-"+strconv.FormatInt(slot.ID, 10)) || !strings.Contains(body, "8 places left") {
		t.Fatalf("expected the slot with 8 places, got %s", body)
	}
}

func TestAccommodationsAPI(t *testing.T) {
	database := setupCatalogTest(t)
	for _, slug := range []string{"alder", "birch", "cedar"} {
		testutil.SeedAccommodation(t, database, slug, nil)
	}

	rec := serve("GET /api/v1/accommodations", HandleAccommodationsAPI, httptest.NewRequest(http.MethodGet, "/api/v1/accommodations?per_page=2&page=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page models.Page[models.Accommodation]
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 3 || page.Page != 2 || page.PerPage != 2 || len(page.Items) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].Slug != "cedar" {
		t.Fatalf("expected cedar on page 2, got %s", page.Items[0].Slug)
	}
}

func quoteRequest(accID int64, query string, jsonAccept bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accommodations/"+strconv.FormatInt(accID, 10)+"/quote?"+query, nil)
	if jsonAccept {
		req.Header.Set("Accept", "application/json")
	}
	return req
}

func TestQuote(t *testing.T) {
	database := setupCatalogTest(t)
	acc := testutil.SeedAccommodation(t, database, "pine", nil)
	checkIn := time.Now().UTC().AddDate(0, 0, 10).Format(pricing.DateLayout)
	checkOut := time.Now().UTC().AddDate(0, 0, 13).Format(pricing.DateLayout)

	rec := serve("GET /api/v1/accommodations/{id}/quote", HandleQuote,
		quoteRequest(acc.ID, "check_in="+checkIn+"&check_out="+checkOut+"&guests=2", true))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var quote quoteResponse
	if err := json.NewDecoder(rec.Body).Decode(&quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 3 nights at 100.00 plus a 25.00 cleaning fee.
	if !quote.Available || quote.Nights != 3 || quote.LineTotalCents != 32500 {
		t.Fatalf("unexpected quote %+v", quote)
	}

	tooMany := serve("GET /api/v1/accommodations/{id}/quote", HandleQuote,
		quoteRequest(acc.ID, "check_in="+checkIn+"&check_out="+checkOut+"&guests=9", false))
	if tooMany.Code != http.StatusOK || !strings.Contains(tooMany.Body.String(), "sleeps at most 4 guests") {
		t.Fatalf("expected the guest limit message, got %d %s", tooMany.Code, tooMany.Body.String())
	}

	noDates := serve("GET /api/v1/accommodations/{id}/quote", HandleQuote, quoteRequest(acc.ID, "", false))
	if !strings.Contains(noDates.Body.String(), "Choose your dates") {
		t.Fatalf("expected a prompt for dates, got %s", noDates.Body.String())
	}

	missing := serve("GET /api/v1/accommodations/{id}/quote", HandleQuote, quoteRequest(acc.ID+100, "", false))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown accommodation, got %d", missing.Code)
	}
}

func TestFavoriteHeartsForSignedInUser(t *testing.T) {
	database := setupCatalogTest(t)
	acc := testutil.SeedAccommodation(t, database, "pine", nil)
	user := testutil.SeedUser(t, database, "fan@example.com", authz.RoleGuest, "")
	if err := database.Queries.AddFavorite(t.Context(), dbgen.AddFavoriteParams{UserID: user.ID, ItemType: "accommodation", ItemID: acc.ID}); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/accommodations", nil)
	req = req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: user.ID, Role: authz.RoleGuest}))
	rec := serve("GET /accommodations", HandleAccommodations, req)

	if !strings.Contains(rec.Body.String(), `aria-pressed="true"`) {
		t.Fatalf("expected a pressed heart for the saved listing, got %s", rec.Body.String())
	}
}
