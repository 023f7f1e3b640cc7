package layouts

import (
	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

// LodgeName is shown in the title bar and footer; set once at startup.
var LodgeName = "Lodgeicious"

type Page struct {
	Title string
	User  *authz.AuthUser
	Flash string
}

func (p Page) title() string {
	if p.Title == "" {
		return LodgeName
	}
	return p.Title + " | " + LodgeName
}

// swapErrorsScript lets htmx swap validation and conflict responses so
// forms can show their errors in place.
const swapErrorsScript = `<script>document.addEventListener("htmx:beforeSwap",function(e){var s=e.detail.xhr.status;if(s===400||s===401||s===403||s===409||s===422||s===429){e.detail.shouldSwap=true;e.detail.isError=false;}});</script>`

// Base wraps content in the full document with the site navigation.
func Base(page Page, content templ.Component) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.Printf(`<title>%s</title>`, page.title())
		b.Raw(`<link rel="stylesheet" href="/static/css/main.css">`)
		b.Raw(`<script src="https://unpkg.com/htmx.org@1.9.12" defer></script>`)
		b.Raw(swapErrorsScript)
		b.Raw(`</head><body hx-boost="true">`)
		b.Render(Nav(page))
		b.Raw(`<main id="main" class="container">`)
		b.Render(ui.Alert("info", page.Flash))
		b.Render(content)
		b.Raw(`</main>`)
		b.Printf(`<footer class="footer">&copy; %s</footer>`, LodgeName)
		b.Raw(`</body></html>`)
	})
}

// Nav is the top bar. The cart badge loads itself and refreshes on the
// cart-updated event.
func Nav(page Page) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<header class="nav"><a class="brand" href="/">%s</a><nav>`, LodgeName)
		b.Raw(`<a href="/accommodations">Stays</a><a href="/activities">Activities</a>`)
		b.Raw(`<a href="/cart" class="cart-link">Cart <span id="cart-badge" hx-get="/cart/badge" hx-trigger="load, cart-updated from:body" hx-swap="innerHTML"></span></a>`)
		if page.User == nil {
			b.Raw(`<a href="/bookings/lookup">Find a booking</a><a href="/login">Sign in</a><a href="/register">Register</a>`)
		} else {
			b.Raw(`<a href="/favorites">Favorites</a><a href="/bookings">My bookings</a>`)
			if page.User.IsAdmin() {
				b.Raw(`<a href="/admin">Admin</a>`)
			}
			b.Printf(`<form method="post" action="/logout" class="inline"><button type="submit">Sign out %s</button></form>`, page.User.FirstName)
		}
		b.Raw(`</nav></header>`)
	})
}
