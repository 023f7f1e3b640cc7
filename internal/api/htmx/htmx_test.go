package htmx

import (
	"net/http/httptest"
	"testing"
)

func TestWantsFragment(t *testing.T) {
	req := httptest.NewRequest("GET", "/cart", nil)
	if WantsFragment(req) {
		t.Fatal("plain request must not want a fragment")
	}
	req.Header.Set("HX-Request", "true")
	if !WantsFragment(req) {
		t.Fatal("htmx request should want a fragment")
	}
	req.Header.Set("HX-Boosted", "true")
	if WantsFragment(req) {
		t.Fatal("boosted navigation wants a full page")
	}
}

func TestCurrentPath(t *testing.T) {
	req := httptest.NewRequest("GET", "/favorites/accommodation/1", nil)
	req.Header.Set("HX-Current-URL", "http://localhost:8080/accommodations/lake-cabin?check_in=2026-07-01")
	if got := CurrentPath(req); got != "/accommodations/lake-cabin?check_in=2026-07-01" {
		t.Fatalf("unexpected current path %q", got)
	}
}
