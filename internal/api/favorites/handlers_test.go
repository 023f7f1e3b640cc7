package favorites

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
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

func setupFavoritesTest(t *testing.T) (*db.DB, *authz.AuthUser) {
	t.Helper()

	database := testutil.NewTestDB(t)

	// Save and restore global state
	prevQueries, prevCurrency := queries, currency
	t.Cleanup(func() {
		queries, currency = prevQueries, prevCurrency
	})

	InitHandlers(Deps{Queries: database.Queries, Currency: "USD"})

	user := testutil.SeedUser(t, database, "fan@example.com", authz.RoleGuest, "")
	return database, &authz.AuthUser{ID: user.ID, Email: user.Email, Role: authz.RoleGuest}
}

func serve(pattern string, handler http.HandlerFunc, req *http.Request, user *authz.AuthUser) *httptest.ResponseRecorder {
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func toggleRequest(kind string, id int64) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/favorites/"+kind+"/"+strconv.FormatInt(id, 10), nil)
	req.Header.Set("HX-Request", "true")
	return req
}

func TestToggleFavorite(t *testing.T) {
	database, user := setupFavoritesTest(t)
	acc := testutil.SeedAccommodation(t, database, "pine", nil)

	on := serve("POST /favorites/{kind}/{id}", HandleToggle, toggleRequest("accommodation", acc.ID), user)
	if on.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", on.Code)
	}
	if !strings.Contains(on.Body.String(), `aria-pressed="true"`) {
		t.Fatalf("expected a pressed heart, got %s", on.Body.String())
	}
	count, err := database.Queries.IsFavorite(t.Context(), dbgen.IsFavoriteParams{UserID: user.ID, ItemType: "accommodation", ItemID: acc.ID})
	if err != nil || count != 1 {
		t.Fatalf("expected favorite stored, got %d %v", count, err)
	}

	off := serve("POST /favorites/{kind}/{id}", HandleToggle, toggleRequest("accommodation", acc.ID), user)
	if !strings.Contains(off.Body.String(), `aria-pressed="false"`) {
		t.Fatalf("expected an unpressed heart, got %s", off.Body.String())
	}
	count, err = database.Queries.IsFavorite(t.Context(), dbgen.IsFavoriteParams{UserID: user.ID, ItemType: "accommodation", ItemID: acc.ID})
	if err != nil || count != 0 {
		t.Fatalf("expected favorite removed, got %d %v", count, err)
	}
}

func TestToggleFavoriteRejects(t *testing.T) {
	database, user := setupFavoritesTest(t)
	acc := testutil.SeedAccommodation(t, database, "pine", nil)

	tests := []struct {
		name   string
		req    *http.Request
		user   *authz.AuthUser
		status int
	}{
		{"anonymous htmx gets a login redirect", toggleRequest("accommodation", acc.ID), nil, http.StatusNoContent},
		{"unknown kind", toggleRequest("boat", acc.ID), user, http.StatusNotFound},
		{"missing listing", toggleRequest("activity", acc.ID+50), user, http.StatusNotFound},
		{"bad id", toggleRequest("accommodation", 0), user, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve("POST /favorites/{kind}/{id}", HandleToggle, tc.req, tc.user)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}

	anon := serve("POST /favorites/{kind}/{id}", HandleToggle, toggleRequest("accommodation", acc.ID), nil)
	if !strings.HasPrefix(anon.Header().Get("HX-Redirect"), "/login") {
		t.Fatalf("expected redirect to login, got %q", anon.Header().Get("HX-Redirect"))
	}
}

func TestListFavorites(t *testing.T) {
	database, user := setupFavoritesTest(t)
	acc := testutil.SeedAccommodation(t, database, "pine", nil)
	hidden := testutil.SeedAccommodation(t, database, "hidden", func(p *dbgen.CreateAccommodationParams) {
		p.Status = models.StatusInactive
	})
	act, _ := testutil.SeedActivity(t, database, "canoe", time.Now().Add(48*time.Hour), 6)
	for _, fav := range []dbgen.AddFavoriteParams{
		{UserID: user.ID, ItemType: "accommodation", ItemID: acc.ID},
		{UserID: user.ID, ItemType: "accommodation", ItemID: hidden.ID},
		{UserID: user.ID, ItemType: "activity", ItemID: act.ID},
	} {
		if err := database.Queries.AddFavorite(t.Context(), fav); err != nil {
			t.Fatalf("add favorite: %v", err)
		}
	}

	page := serve("GET /favorites", HandleFavorites, httptest.NewRequest(http.MethodGet, "/favorites", nil), user)
	if page.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", page.Code)
	}
	body := page.Body.String()
	if !strings.Contains(body, "/accommodations/pine") || !strings.Contains(body, "/activities/canoe") {
		t.Fatalf("expected both favorites listed, got %s", body)
	}
	if strings.Contains(body, "/accommodations/hidden") {
		t.Fatal("inactive listings must not be shown")
	}

	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve("GET /favorites", HandleFavorites, req, user)
	var resp listResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Accommodations) != 1 || len(resp.Activities) != 1 {
		t.Fatalf("unexpected favorites %+v", resp)
	}
}

func TestListFavoritesAnonymousRedirects(t *testing.T) {
	setupFavoritesTest(t)

	rec := serve("GET /favorites", HandleFavorites, httptest.NewRequest(http.MethodGet, "/favorites", nil), nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Ffavorites" {
		t.Fatalf("unexpected login redirect %q", loc)
	}
}
