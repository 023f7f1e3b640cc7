package admin

import (
	"net/url"
	"time"

	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/models"
	bookingstempl "github.com/codr1/Lodgeicious/internal/templates/components/bookings"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

var navLinks = [][2]string{
	{"/admin", "Dashboard"},
	{"/admin/bookings", "Bookings"},
	{"/admin/accommodations", "Accommodations"},
	{"/admin/activities", "Activities"},
	{"/admin/users", "Users"},
}

func nav(active string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<nav class="admin-nav">`)
		for _, link := range navLinks {
			current := ""
			if link[0] == active {
				current = ` aria-current="page"`
			}
			b.Printf(`<a href="%s"%s>%s</a>`, link[0], ui.Safe(current), link[1])
		}
		b.Raw(`</nav>`)
	})
}

func localTime(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

var listingStatusOptions = [][2]string{
	{"", "Any status"},
	{models.StatusActive, "Active"},
	{models.StatusInactive, "Inactive"},
}

// searchForm renders the filter bar shared by the admin tables. It swaps the
// table in place and keeps the URL in sync.
func searchForm(action, target, search string, statusName, status string, statuses [][2]string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<form class="filters" method="get" action="%s" hx-get="%s" hx-target="%s" hx-select="%s" hx-swap="outerHTML" hx-push-url="true">`,
			action, action, target, target)
		b.Printf(`<input type="search" name="q" value="%s" placeholder="Search">`, search)
		if statuses != nil {
			b.Render(ui.Select("Status", statusName, status, statuses))
		}
		b.Raw(`<button type="submit">Filter</button></form>`)
	})
}

func filterQuery(search, status string) url.Values {
	values := url.Values{}
	if search != "" {
		values.Set("q", search)
	}
	if status != "" {
		values.Set("status", status)
	}
	return values
}

func DashboardPage(data DashboardData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Render(nav("/admin"))
		b.Raw(`<section id="admin-dashboard"><h1>Dashboard</h1><div class="stats">`)
		b.Printf(`<div class="stat"><span class="label">Bookings today</span><strong data-stat="bookings-today">%d</strong></div>`, data.BookingsToday)
		b.Printf(`<div class="stat"><span class="label">Bookings this month</span><strong data-stat="bookings-month">%d</strong></div>`, data.BookingsThisMonth)
		b.Printf(`<div class="stat"><span class="label">Revenue this month</span><strong data-stat="revenue-month">%s</strong></div>`, ui.Money(data.RevenueThisMonthCents, data.Currency))
		b.Printf(`<div class="stat"><span class="label">Pending holds</span><strong data-stat="pending-holds">%d</strong></div>`, data.PendingHolds)
		b.Raw(`</div><h2>Upcoming arrivals</h2>`)
		if len(data.Arrivals) == 0 {
			b.Raw(`<p class="empty">No arrivals in the next week.</p></section>`)
			return
		}
		b.Raw(`<table><thead><tr><th>Arrives</th><th>Booking</th><th>Guest</th><th>Status</th></tr></thead><tbody>`)
		for _, bk := range data.Arrivals {
			b.Printf(`<tr><td>%s</td><td><a href="/admin/bookings/%d">%s</a></td><td>%s %s</td><td>`,
				ui.DateTime(localTime(bk.StartsAt, data.Location)), bk.ID, bk.BookingNumber, bk.GuestFirstName, bk.GuestLastName)
			b.Render(bookingstempl.StatusBadge(bk.Status))
			b.Raw(`</td></tr>`)
		}
		b.Raw(`</tbody></table></section>`)
	})
}

var bookingStatusOptions = func() [][2]string {
	options := [][2]string{{"", "Any status"}}
	for _, status := range booking.Statuses {
		options = append(options, [2]string{status, bookingstempl.StatusLabel(status)})
	}
	return options
}()

func BookingsPage(data BookingsData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Render(nav("/admin/bookings"))
		b.Raw(`<section id="admin-bookings"><h1>Bookings</h1>`)
		b.Render(searchForm("/admin/bookings", "#admin-bookings", data.Search, "status", data.Status, bookingStatusOptions))
		if len(data.Page.Items) == 0 {
			b.Raw(`<p class="empty">No bookings match.</p></section>`)
			return
		}
		b.Raw(`<table><thead><tr><th>Number</th><th>Guest</th><th>Email</th><th>Starts</th><th>Status</th><th>Payment</th><th>Total</th></tr></thead><tbody>`)
		for _, bk := range data.Page.Items {
			b.Printf(`<tr><td><a href="/admin/bookings/%d">%s</a></td><td>%s %s</td><td>%s</td><td>%s</td><td>`,
				bk.ID, bk.BookingNumber, bk.GuestFirstName, bk.GuestLastName, bk.GuestEmail, ui.Date(localTime(bk.StartsAt, data.Location)))
			b.Render(bookingstempl.StatusBadge(bk.Status))
			b.Raw(`</td><td>`)
			b.Render(bookingstempl.StatusBadge(bk.PaymentStatus))
			b.Printf(`</td><td>%s</td></tr>`, ui.Money(bk.TotalCents, bk.Currency))
		}
		b.Raw(`</tbody></table>`)
		b.Render(ui.Pagination(ui.Pager{
			Page:       data.Page.Page,
			TotalPages: data.Page.TotalPages(),
			Total:      data.Page.Total,
			BaseURL:    "/admin/bookings",
			Query:      filterQuery(data.Search, data.Status),
			Target:     "#admin-bookings",
		}))
		b.Raw(`</section>`)
	})
}

func BookingDetailPage(data BookingDetailData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Render(nav("/admin/bookings"))
		b.Raw(`<section id="admin-booking"><h1>Booking</h1>`)
		b.Render(ui.Alert("success", data.Message))
		b.Render(ui.Alert("error", data.Error))
		b.Render(bookingstempl.Summary(data.Detail, data.Location))
		if data.Detail.GuestPhone != "" {
			b.Printf(`<p>Phone: %s</p>`, data.Detail.GuestPhone)
		}
		if data.Detail.Status == booking.StatusPending {
			b.Printf(`<p>Hold expires %s.</p>`, ui.DateTime(localTime(data.Detail.HoldExpiresAt, data.Location)))
		}

		if len(data.Actions) > 0 {
			b.Printf(`<form class="actions" method="post" action="/admin/bookings/%d/status" hx-post="/admin/bookings/%d/status" hx-target="#admin-booking" hx-select="#admin-booking" hx-swap="outerHTML">`,
				data.Detail.ID, data.Detail.ID)
			for _, action := range data.Actions {
				class := ""
				if action.Danger {
					class = ` class="danger"`
				}
				b.Printf(`<button type="submit" name="action" value="%s"%s>%s</button>`, action.Value, ui.Safe(class), action.Label)
			}
			b.Raw(`</form>`)
		}

		b.Raw(`<h2>Payments</h2>`)
		if len(data.Payments) == 0 {
			b.Raw(`<p class="empty">No payment attempts.</p></section>`)
			return
		}
		b.Raw(`<table><thead><tr><th>Started</th><th>Gateway</th><th>Reference</th><th>Amount</th><th>Status</th></tr></thead><tbody>`)
		for _, p := range data.Payments {
			b.Printf(`<tr><td>%s</td><td>%s</td><td><code>%s</code></td><td>%s</td><td>%s</td></tr>`,
				ui.DateTime(localTime(p.CreatedAt, data.Location)), p.Gateway, p.Reference, ui.Money(p.AmountCents, p.Currency), p.Status)
		}
		b.Raw(`</tbody></table></section>`)
	})
}
