package apiutil

import (
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/api/htmx"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/templates/layouts"
)

const cartCookieTTL = 30 * 24 * time.Hour

// RenderPage sends htmx swaps the bare content and everything else the full
// layout around it.
func RenderPage(w http.ResponseWriter, r *http.Request, status int, title string, content templ.Component) bool {
	component := content
	if !htmx.WantsFragment(r) {
		component = layouts.Base(layouts.Page{
			Title: title,
			User:  authz.UserFromContext(r.Context()),
		}, content)
	}
	return RenderHTMLComponentStatus(r.Context(), w, status, component, nil, "Failed to render "+title, "Failed to render page")
}

// SetCartCookie stores the cart token for a month; carts untouched that
// long are pruned anyway.
func SetCartCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cart.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(cartCookieTTL),
		MaxAge:   int(cartCookieTTL.Seconds()),
	})
}
