package bookings

import (
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/booking"
	carttempl "github.com/codr1/Lodgeicious/internal/templates/components/cart"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

var statusLabels = map[string]string{
	booking.StatusPending:   "Awaiting payment",
	booking.StatusConfirmed: "Confirmed",
	booking.StatusCompleted: "Completed",
	booking.StatusCancelled: "Cancelled",
	booking.StatusExpired:   "Expired",

	booking.PaymentUnpaid:        "Unpaid",
	booking.PaymentPaid:          "Paid",
	booking.PaymentFailed:        "Payment failed",
	booking.PaymentRefundPending: "Refund pending",
	booking.PaymentRefunded:      "Refunded",
}

func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

func StatusBadge(status string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<span class="status status-%s">%s</span>`, status, StatusLabel(status))
	})
}

func localTime(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

// Summary lists a booking's items and totals. Checkout's confirmation page
// and the booking pages share it.
func Summary(detail booking.Detail, loc *time.Location) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<div class="booking-summary">`)
		b.Printf(`<p class="booking-number">Booking <strong>%s</strong> `, detail.BookingNumber)
		b.Render(StatusBadge(detail.Status))
		if detail.PaymentStatus != booking.PaymentUnpaid {
			b.Render(StatusBadge(detail.PaymentStatus))
		}
		b.Raw(`</p>`)
		b.Printf(`<p>%s &middot; %s</p>`, detail.GuestName(), detail.GuestEmail)
		b.Printf(`<p class="dates">%s to %s</p>`, ui.DateTime(localTime(detail.StartsAt, loc)), ui.DateTime(localTime(detail.EndsAt, loc)))

		b.Raw(`<table class="items"><thead><tr><th>Item</th><th>Guests</th><th>Total</th></tr></thead><tbody>`)
		for _, item := range detail.Items {
			b.Printf(`<tr><td>%s</td><td>%d</td><td>%s</td></tr>`, item.Description, item.Guests, ui.Money(item.LineTotalCents, detail.Currency))
		}
		b.Raw(`</tbody></table>`)
		b.Render(carttempl.Totals(detail.Breakdown(), detail.Currency))
		if strings.TrimSpace(detail.SpecialRequests) != "" {
			b.Printf(`<p class="requests"><strong>Requests:</strong> %s</p>`, detail.SpecialRequests)
		}
		b.Raw(`</div>`)
	})
}

func ListPage(data ListData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section id="my-bookings"><h1>My bookings</h1>`)
		if len(data.Page.Items) == 0 {
			b.Raw(`<p class="empty">No bookings yet. <a href="/accommodations">Find a stay</a>.</p>`)
			b.Raw(`<p>Booked without an account? <a href="/bookings/lookup">Look up a booking</a>.</p></section>`)
			return
		}
		b.Raw(`<table><thead><tr><th>Number</th><th>Dates</th><th>Status</th><th>Total</th></tr></thead><tbody>`)
		for _, bk := range data.Page.Items {
			b.Printf(`<tr><td><a href="/bookings/%s">%s</a></td><td>%s</td><td>`, bk.BookingNumber, bk.BookingNumber, ui.Date(localTime(bk.StartsAt, data.Location)))
			b.Render(StatusBadge(bk.Status))
			b.Printf(`</td><td>%s</td></tr>`, ui.Money(bk.TotalCents, bk.Currency))
		}
		b.Raw(`</tbody></table>`)
		b.Render(ui.Pagination(ui.Pager{
			Page:       data.Page.Page,
			TotalPages: data.Page.TotalPages(),
			Total:      data.Page.Total,
			BaseURL:    "/bookings",
			Target:     "#my-bookings",
		}))
		b.Raw(`</section>`)
	})
}

func DetailPage(data DetailData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section id="booking-detail"><h1>Your booking</h1>`)
		b.Render(ui.Alert("success", data.Message))
		b.Render(ui.Alert("error", data.Error))
		b.Render(Summary(data.Detail, data.Location))
		if data.Detail.Status == booking.StatusPending {
			b.Printf(`<p>We hold these dates until %s.</p>`, ui.DateTime(localTime(data.Detail.HoldExpiresAt, data.Location)))
		}
		if data.CanCancel {
			b.Printf(`<form method="post" action="/bookings/%s/cancel" hx-post="/bookings/%s/cancel" hx-target="#booking-detail" hx-swap="outerHTML" hx-confirm="Cancel this booking?">`,
				data.Detail.BookingNumber, data.Detail.BookingNumber)
			if data.Email != "" {
				b.Printf(`<input type="hidden" name="email" value="%s">`, data.Email)
			}
			b.Printf(`<p>Free cancellation until %s.</p><button type="submit" class="danger">Cancel booking</button></form>`,
				ui.DateTime(localTime(data.CancellableUntil, data.Location)))
		}
		b.Raw(`</section>`)
	})
}

func LookupPage(data LookupData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section class="lookup"><h1>Find your booking</h1>`)
		b.Render(ui.Alert("error", data.Error))
		b.Raw(`<form method="get" action="/bookings/lookup">`)
		b.Render(ui.Input("Booking number", "text", "number", data.Number, true))
		b.Render(ui.Input("Email used for the booking", "email", "email", data.Email, true))
		b.Raw(`<button type="submit">Find booking</button></form></section>`)
	})
}
