package catalog

import (
	"fmt"

	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/catalog"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

const gridID = "#listing-grid"

func HomePage(data HomeData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section class="hero"><h1>Stay by the lake</h1>`)
		b.Raw(`<form action="/accommodations" method="get" class="search"><input type="search" name="q" placeholder="Search stays">`)
		b.Raw(`<input type="number" name="guests" min="1" placeholder="Guests"><button type="submit">Search</button></form></section>`)

		b.Raw(`<section><h2>Featured stays</h2><div class="grid">`)
		for _, acc := range data.Featured.Accommodations {
			b.Render(AccommodationCard(acc, data.Favorites.Has(catalog.KindAccommodation, acc.ID), data.LoggedIn, data.Currency))
		}
		b.Raw(`</div><a href="/accommodations">All stays</a></section>`)

		b.Raw(`<section><h2>Things to do</h2><div class="grid">`)
		for _, act := range data.Featured.Activities {
			b.Render(ActivityCard(act, data.Favorites.Has(catalog.KindActivity, act.ID), data.LoggedIn, data.Currency))
		}
		b.Raw(`</div><a href="/activities">All activities</a></section>`)
	})
}

// FavoriteButton toggles in place. Anonymous visitors get a sign-in link.
func FavoriteButton(kind string, id int64, on, loggedIn bool) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		if !loggedIn {
			b.Raw(`<a class="favorite" href="/login" title="Sign in to save favorites">&#9825;</a>`)
			return
		}
		icon, label := ui.Safe("&#9825;"), "Save"
		if on {
			icon, label = ui.Safe("&#9829;"), "Saved"
		}
		b.Printf(`<button type="button" class="favorite" hx-post="/favorites/%s/%d" hx-swap="outerHTML" aria-pressed="%t" title="%s">%s</button>`,
			kind, id, on, label, icon)
	})
}

func AccommodationCard(acc models.Accommodation, favorite, loggedIn bool, currency string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<article class="card" id="accommodation-%d">`, acc.ID)
		if acc.ImageURL != "" {
			b.Printf(`<img src="%s" alt="%s" loading="lazy">`, acc.ImageURL, acc.Name)
		}
		b.Printf(`<h3><a href="/accommodations/%s">%s</a></h3>`, acc.Slug, acc.Name)
		b.Printf(`<p class="meta">%s &middot; sleeps %d &middot; %d bedrooms</p>`, acc.UnitType, acc.MaxGuests, acc.Bedrooms)
		b.Printf(`<p class="price">%s <small>/ night</small></p>`, ui.Money(acc.NightlyRateCents, currency))
		b.Render(FavoriteButton(catalog.KindAccommodation, acc.ID, favorite, loggedIn))
		b.Raw(`</article>`)
	})
}

func ActivityCard(act models.Activity, favorite, loggedIn bool, currency string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<article class="card" id="activity-%d">`, act.ID)
		if act.ImageURL != "" {
			b.Printf(`<img src="%s" alt="%s" loading="lazy">`, act.ImageURL, act.Name)
		}
		b.Printf(`<h3><a href="/activities/%s">%s</a></h3>`, act.Slug, act.Name)
		b.Printf(`<p class="meta">%s &middot; %d min</p>`, act.Category, act.DurationMinutes)
		b.Printf(`<p class="price">%s <small>/ person</small></p>`, ui.Money(act.PriceCents, currency))
		b.Render(FavoriteButton(catalog.KindActivity, act.ID, favorite, loggedIn))
		b.Raw(`</article>`)
	})
}

func filterForm(action, kindLabel string, kinds []string, filter catalog.ListFilter, guestsLabel string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<form class="filters" action="%s" method="get" hx-get="%s" hx-target="%s" hx-select="%s" hx-swap="outerHTML" hx-push-url="true" hx-trigger="submit, change delay:300ms">`,
			action, action, gridID, gridID)
		b.Render(ui.Input("Search", "search", "q", filter.Search, false))
		options := [][2]string{{"", "Any"}}
		for _, kind := range kinds {
			options = append(options, [2]string{kind, kind})
		}
		b.Render(ui.Select(kindLabel, "type", filter.Kind, options))
		guests := ""
		if filter.Guests > 0 {
			guests = ui.Itoa(filter.Guests)
		}
		b.Render(ui.Input(guestsLabel, "number", "guests", guests, false))
		maxPrice := ""
		if filter.MaxPriceCents > 0 {
			maxPrice = filter.Query().Get("max_price")
		}
		b.Render(ui.Input("Max price", "number", "max_price", maxPrice, false))
		b.Raw(`<button type="submit">Filter</button></form>`)
	})
}

func AccommodationsPage(data AccommodationListData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section><h1>Stays</h1>`)
		b.Render(filterForm("/accommodations", "Type", data.UnitTypes, data.Filter, "Guests"))
		b.Render(AccommodationGrid(data))
		b.Raw(`</section>`)
	})
}

func AccommodationGrid(data AccommodationListData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<div id="listing-grid">`)
		if len(data.Page.Items) == 0 {
			b.Raw(`<p class="empty">No stays match your search.</p>`)
		} else {
			b.Raw(`<div class="grid">`)
			for _, acc := range data.Page.Items {
				b.Render(AccommodationCard(acc, data.Favorites.Has(catalog.KindAccommodation, acc.ID), data.LoggedIn, data.Currency))
			}
			b.Raw(`</div>`)
		}
		b.Render(ui.Pagination(ui.Pager{
			Page:       data.Page.Page,
			TotalPages: data.Page.TotalPages(),
			Total:      data.Page.Total,
			BaseURL:    "/accommodations",
			Query:      data.Query,
			Target:     gridID,
		}))
		b.Raw(`</div>`)
	})
}

func ActivitiesPage(data ActivityListData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section><h1>Activities</h1>`)
		b.Render(filterForm("/activities", "Category", data.Categories, data.Filter, "Participants"))
		b.Render(ActivityGrid(data))
		b.Raw(`</section>`)
	})
}

func ActivityGrid(data ActivityListData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<div id="listing-grid">`)
		if len(data.Page.Items) == 0 {
			b.Raw(`<p class="empty">No activities match your search.</p>`)
		} else {
			b.Raw(`<div class="grid">`)
			for _, act := range data.Page.Items {
				b.Render(ActivityCard(act, data.Favorites.Has(catalog.KindActivity, act.ID), data.LoggedIn, data.Currency))
			}
			b.Raw(`</div>`)
		}
		b.Render(ui.Pagination(ui.Pager{
			Page:       data.Page.Page,
			TotalPages: data.Page.TotalPages(),
			Total:      data.Page.Total,
			BaseURL:    "/activities",
			Query:      data.Query,
			Target:     gridID,
		}))
		b.Raw(`</div>`)
	})
}

// AccommodationDetail carries the booking widget: date and guest changes
// re-quote after a short pause, submit adds the stay to the cart.
func AccommodationDetail(data AccommodationDetailData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		acc := data.Accommodation
		b.Printf(`<article class="listing"><header><h1>%s</h1>`, acc.Name)
		b.Render(FavoriteButton(catalog.KindAccommodation, acc.ID, data.Favorite, data.LoggedIn))
		b.Raw(`</header>`)
		if acc.ImageURL != "" {
			b.Printf(`<img src="%s" alt="%s">`, acc.ImageURL, acc.Name)
		}
		b.Printf(`<p>%s</p>`, acc.Description)
		b.Printf(`<ul class="facts"><li>%s</li><li>Sleeps %d</li><li>%d bedrooms</li><li>Minimum stay %d nights</li></ul>`,
			acc.UnitType, acc.MaxGuests, acc.Bedrooms, acc.MinNights)
		b.Printf(`<p class="price">%s / night`, ui.Money(acc.NightlyRateCents, data.Currency))
		if acc.CleaningFeeCents > 0 {
			b.Printf(` + %s cleaning`, ui.Money(acc.CleaningFeeCents, data.Currency))
		}
		b.Raw(`</p>`)

		quoteURL := fmt.Sprintf("/api/v1/accommodations/%d/quote", acc.ID)
		b.Raw(`<form id="booking-widget" method="post" action="/cart/stays" hx-post="/cart/stays" hx-target="#widget-result" hx-swap="innerHTML">`)
		b.Printf(`<input type="hidden" name="accommodation_id" value="%d">`, acc.ID)
		b.Printf(`<div hx-get="%s" hx-trigger="change delay:400ms" hx-include="#booking-widget" hx-target="#quote" hx-swap="innerHTML">`, quoteURL)
		b.Printf(`<label>Check-in <input type="date" name="check_in" min="%s" max="%s" required></label>`, data.MinDate, data.MaxDate)
		b.Printf(`<label>Check-out <input type="date" name="check_out" min="%s" max="%s" required></label>`, data.MinDate, data.MaxDate)
		b.Printf(`<label>Guests <input type="number" name="guests" min="1" max="%d" value="1" required></label>`, acc.MaxGuests)
		b.Raw(`</div><div id="quote" aria-live="polite"></div>`)
		b.Raw(`<button type="submit">Add to cart</button><div id="widget-result"></div></form></article>`)
	})
}

// Quote is the booking widget result fragment.
func Quote(data QuoteData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		if !data.Available {
			b.Printf(`<p class="quote unavailable">%s</p>`, data.Message)
			return
		}
		nights := "nights"
		if data.Nights == 1 {
			nights = "night"
		}
		b.Printf(`<p class="quote available">%d %s &middot; %s <small>before tax and fees</small></p>`,
			data.Nights, nights, ui.Money(data.LineCents, data.Currency))
	})
}

func ActivityDetail(data ActivityDetailData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		act := data.Activity
		b.Printf(`<article class="listing"><header><h1>%s</h1>`, act.Name)
		b.Render(FavoriteButton(catalog.KindActivity, act.ID, data.Favorite, data.LoggedIn))
		b.Raw(`</header>`)
		if act.ImageURL != "" {
			b.Printf(`<img src="%s" alt="%s">`, act.ImageURL, act.Name)
		}
		b.Printf(`<p>%s</p>`, act.Description)
		b.Printf(`<ul class="facts"><li>%s</li><li>%d minutes</li><li>%s per person</li></ul>`,
			act.Category, act.DurationMinutes, ui.Money(act.PriceCents, data.Currency))

		b.Raw(`<h2>Upcoming sessions</h2>`)
		if len(data.Slots) == 0 {
			b.Raw(`<p class="empty">No sessions are scheduled yet.</p>`)
		}
		b.Raw(`<ul class="slots">`)
		for _, slot := range data.Slots {
			b.Printf(`<li id="slot-%d"><span>%s</span> `, slot.ID, ui.DateTime(slot.StartsAt))
			if slot.SoldOut() {
				b.Raw(`<span class="sold-out">Full</span></li>`)
				continue
			}
			b.Printf(`<span>%d places left</span>`, slot.Remaining)
			b.Printf(`<form method="post" action="/cart/activities" hx-post="/cart/activities" hx-target="#slot-result-%d" class="inline">`, slot.ID)
			b.Printf(`<input type="hidden" name="slot_id" value="%d">`, slot.ID)
			b.Printf(`<input type="number" name="participants" min="1" max="%d" value="1" aria-label="Participants">`, slot.Remaining)
			b.Printf(`<button type="submit">Add</button></form><span id="slot-result-%d"></span></li>`, slot.ID)
		}
		b.Raw(`</ul></article>`)
	})
}
