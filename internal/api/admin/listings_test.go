package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/config"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

func accommodationForm(name, slug string) url.Values {
	return url.Values{
		"name":         {name},
		"slug":         {slug},
		"description":  {"Quiet cabin by the creek"},
		"unit_type":    {"cabin"},
		"max_guests":   {"4"},
		"bedrooms":     {"2"},
		"nightly_rate": {"145.50"},
		"cleaning_fee": {"30"},
		"units":        {"2"},
		"min_nights":   {"2"},
	}
}

func TestSaveAccommodationCreatesAndUpdates(t *testing.T) {
	f := setupAdminTest(t)
	ctx := context.Background()

	rec := serve("POST /admin/accommodations", HandleSaveAccommodation,
		postForm("/admin/accommodations", accommodationForm("Birch Cabin", ""), false), f.admin)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/accommodations" {
		t.Fatalf("expected 303 to list, got %d %q: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}
	created, err := f.database.Queries.GetAccommodationBySlug(ctx, "birch-cabin")
	if err != nil {
		t.Fatalf("expected slug derived from name: %v", err)
	}
	if created.NightlyRateCents != 14550 || created.CleaningFeeCents != 3000 || created.Status != models.StatusActive {
		t.Fatalf("unexpected accommodation: %+v", created)
	}

	form := accommodationForm("Birch Cabin", "birch-cabin")
	form.Set("nightly_rate", "160")
	form.Set("status", models.StatusInactive)
	req := postForm("/admin/accommodations/"+strconv.FormatInt(created.ID, 10), form, false)
	req.Header.Set("Accept", "application/json")
	rec = serve("POST /admin/accommodations/{id}", HandleSaveAccommodation, req, f.admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var saved models.Accommodation
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode accommodation: %v", err)
	}
	if saved.NightlyRateCents != 16000 || saved.Status != models.StatusInactive {
		t.Fatalf("expected updated rate and status, got %+v", saved)
	}
}

func TestSaveAccommodationValidation(t *testing.T) {
	f := setupAdminTest(t)

	tests := []struct {
		name   string
		mutate func(url.Values)
		want   int
		text   string
	}{
		{name: "zero guests", mutate: func(v url.Values) { v.Set("max_guests", "0") }, want: http.StatusBadRequest, text: "max_guests"},
		{name: "bad rate", mutate: func(v url.Values) { v.Set("nightly_rate", "cheap") }, want: http.StatusBadRequest, text: "nightly_rate"},
		{name: "missing unit type", mutate: func(v url.Values) { v.Del("unit_type") }, want: http.StatusBadRequest, text: "unit_type is required"},
		{name: "slug taken", mutate: func(v url.Values) { v.Set("slug", f.acc.Slug) }, want: http.StatusConflict, text: slugTakenReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := accommodationForm("Alder Cabin", "alder")
			tt.mutate(form)
			rec := serve("POST /admin/accommodations", HandleSaveAccommodation,
				postForm("/admin/accommodations", form, true), f.admin)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.text) {
				t.Fatalf("expected %q in response", tt.text)
			}
		})
	}

	if _, err := f.database.Queries.GetAccommodationBySlug(context.Background(), "alder"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected nothing saved, got %v", err)
	}

	missing := serve("POST /admin/accommodations/{id}", HandleSaveAccommodation,
		postForm("/admin/accommodations/9999", accommodationForm("Ghost", "ghost"), false), f.admin)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown listing, got %d", missing.Code)
	}
}

func TestAccommodationStatusToggle(t *testing.T) {
	f := setupAdminTest(t)
	path := "/admin/accommodations/" + strconv.FormatInt(f.acc.ID, 10) + "/status"

	rec := serve("POST /admin/accommodations/{id}/status", HandleAccommodationStatus,
		postForm(path, url.Values{"status": {models.StatusInactive}}, false), f.admin)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	stored, err := f.database.Queries.GetAccommodation(context.Background(), f.acc.ID)
	if err != nil {
		t.Fatalf("get accommodation: %v", err)
	}
	if stored.Status != models.StatusInactive {
		t.Fatalf("expected inactive, got %s", stored.Status)
	}

	list := serve("GET /admin/accommodations", HandleAccommodations,
		httptest.NewRequest(http.MethodGet, "/admin/accommodations?status=inactive", nil), f.admin)
	if !strings.Contains(list.Body.String(), stored.Name) {
		t.Fatalf("expected inactive listing in admin list")
	}

	bad := serve("POST /admin/accommodations/{id}/status", HandleAccommodationStatus,
		postForm(path, url.Values{"status": {"archived"}}, false), f.admin)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.Code)
	}
}

func TestSaveActivityCreates(t *testing.T) {
	f := setupAdminTest(t)
	form := url.Values{
		"name":             {"Sunrise Kayak"},
		"description":      {"Paddle the lake at dawn"},
		"category":         {"Water"},
		"duration_minutes": {"90"},
		"price":            {"55"},
		"capacity":         {"8"},
	}
	req := postForm("/admin/activities", form, false)
	req.Header.Set("Accept", "application/json")
	rec := serve("POST /admin/activities", HandleSaveActivity, req, f.admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var act models.Activity
	if err := json.Unmarshal(rec.Body.Bytes(), &act); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if act.Slug != "sunrise-kayak" || act.Category != "water" || act.PriceCents != 5500 {
		t.Fatalf("unexpected activity: %+v", act)
	}
}

func slotForm(startsAt time.Time, capacity string) url.Values {
	return url.Values{
		"starts_at": {startsAt.UTC().Format("2006-01-02T15:04")},
		"capacity":  {capacity},
	}
}

func TestSlotsAddAndConflicts(t *testing.T) {
	f := setupAdminTest(t)
	first := time.Now().UTC().AddDate(0, 0, 5).Truncate(time.Hour)
	act, _ := testutil.SeedActivity(t, f.database, "kayak", first, 6)
	path := slotsURL(act.ID)

	next := first.AddDate(0, 0, 1)
	rec := serve("POST /admin/activities/{id}/slots", HandleAddSlot, postForm(path, slotForm(next, "10"), true), f.admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `id="activity-slots"`) {
		t.Fatalf("expected slots panel fragment")
	}

	tests := []struct {
		name string
		form url.Values
		want int
	}{
		{name: "duplicate start", form: slotForm(next, "4"), want: http.StatusConflict},
		{name: "past start", form: slotForm(time.Now().Add(-time.Hour), "4"), want: http.StatusBadRequest},
		{name: "zero capacity", form: slotForm(next.AddDate(0, 0, 1), "0"), want: http.StatusBadRequest},
		{name: "missing start", form: url.Values{"capacity": {"4"}}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve("POST /admin/activities/{id}/slots", HandleAddSlot, postForm(path, tt.form, true), f.admin)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	list := serve("GET /admin/activities/{id}/slots", HandleSlots, getJSON(path), f.admin)
	var slots []models.ActivitySlot
	if err := json.Unmarshal(list.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
}

func TestDeleteSlotRefusedWhileHeld(t *testing.T) {
	f := setupAdminTest(t)
	ctx := context.Background()
	startsAt := time.Now().UTC().AddDate(0, 0, 5).Truncate(time.Hour)
	act, held := testutil.SeedActivity(t, f.database, "kayak", startsAt, 6)
	free, err := f.database.Queries.CreateActivitySlot(ctx, dbgen.CreateActivitySlotParams{
		ActivityID: act.ID,
		StartsAt:   startsAt.AddDate(0, 0, 1),
		Capacity:   6,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	c, _, err := f.carts.Ensure(ctx, f.database.Queries, "", 0)
	if err != nil {
		t.Fatalf("ensure cart: %v", err)
	}
	if _, err := f.carts.AddActivity(ctx, f.database.Queries, c, held.ID, 2); err != nil {
		t.Fatalf("add activity: %v", err)
	}
	details := cart.Details{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}
	if err := f.carts.SaveDetails(ctx, f.database.Queries, c, details); err != nil {
		t.Fatalf("save details: %v", err)
	}
	if _, err := f.service.CreateFromCart(ctx, f.database.Queries, c, details, 0, config.GatewaySimulated); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	deletePath := func(slotID int64) string {
		return slotsURL(act.ID) + "/" + strconv.FormatInt(slotID, 10) + "/delete"
	}
	rec := serve("POST /admin/activities/{id}/slots/{slotID}/delete", HandleDeleteSlot,
		postForm(deletePath(held.ID), url.Values{}, true), f.admin)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "booked guests") {
		t.Fatalf("expected 409 for held slot, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve("POST /admin/activities/{id}/slots/{slotID}/delete", HandleDeleteSlot,
		postForm(deletePath(free.ID), url.Values{}, false), f.admin)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := f.database.Queries.GetActivitySlot(ctx, free.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected slot removed, got %v", err)
	}

	rec = serve("POST /admin/activities/{id}/slots/{slotID}/delete", HandleDeleteSlot,
		postForm(deletePath(free.ID), url.Values{}, true), f.admin)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for removed slot, got %d", rec.Code)
	}
}
