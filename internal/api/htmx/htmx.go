package htmx

import (
	"net/http"
	"net/url"
	"strings"
)

func IsRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

// IsBoosted reports a boosted navigation, which still wants a full page.
func IsBoosted(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Boosted"), "true")
}

// WantsFragment is true for htmx swaps that target part of the page.
func WantsFragment(r *http.Request) bool {
	return IsRequest(r) && !IsBoosted(r)
}

// CurrentPath returns the path of the page that issued the htmx request.
func CurrentPath(r *http.Request) string {
	raw := r.Header.Get("HX-Current-URL")
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.RequestURI()
}

func Redirect(w http.ResponseWriter, target string) {
	w.Header().Set("HX-Redirect", target)
}

// Trigger fires a client-side event after the swap, e.g. "cart-updated".
func Trigger(w http.ResponseWriter, event string) {
	w.Header().Set("HX-Trigger", event)
}
