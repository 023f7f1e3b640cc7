package checkout

import (
	"net/url"

	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/booking"
	bookingstempl "github.com/codr1/Lodgeicious/internal/templates/components/bookings"
	carttempl "github.com/codr1/Lodgeicious/internal/templates/components/cart"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

var stepNames = []string{"Details", "Review", "Payment", "Confirmation"}

// Steps is the progress header; current counts from 1.
func Steps(current int) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<ol class="steps">`)
		for i, name := range stepNames {
			class := ""
			switch {
			case i+1 < current:
				class = "done"
			case i+1 == current:
				class = "current"
			}
			b.Printf(`<li class="%s">%s</li>`, class, name)
		}
		b.Raw(`</ol>`)
	})
}

func DetailsPage(data DetailsData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section id="checkout"><h1>Checkout</h1>`)
		b.Render(Steps(1))
		b.Render(ui.Alert("error", data.Error))
		b.Render(ui.FieldErrors(data.Errors))
		b.Raw(`<form method="post" action="/checkout/details" hx-post="/checkout/details" hx-target="#checkout" hx-swap="outerHTML">`)
		b.Render(ui.Input("First name", "text", "first_name", data.Details.FirstName, true))
		b.Render(ui.Input("Last name", "text", "last_name", data.Details.LastName, true))
		b.Render(ui.Input("Email", "email", "email", data.Details.Email, true))
		b.Render(ui.Input("Phone (optional)", "tel", "phone", data.Details.Phone, false))
		b.Printf(`<label>Special requests <textarea name="special_requests" rows="3" maxlength="1000">%s</textarea></label>`, data.Details.SpecialRequests)
		b.Raw(`<button type="submit">Continue to review</button></form></section>`)
	})
}

func gatewayRadios(b *ui.Writer, gateways []GatewayOption, selected string) {
	b.Raw(`<fieldset class="gateways"><legend>Pay with</legend>`)
	for i, g := range gateways {
		checked := ""
		if g.Name == selected || (selected == "" && i == 0) {
			checked = " checked"
		}
		b.Printf(`<label><input type="radio" name="gateway" value="%s"%s> %s</label>`, g.Name, ui.Safe(checked), g.Label)
	}
	b.Raw(`</fieldset>`)
}

func ReviewPage(data ReviewData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section id="checkout"><h1>Review your booking</h1>`)
		b.Render(Steps(2))
		b.Render(ui.Alert("error", data.Error))

		b.Raw(`<table class="items"><thead><tr><th>Item</th><th>When</th><th>Guests</th><th>Total</th></tr></thead><tbody>`)
		for _, item := range data.View.Items {
			when := item.CheckIn + " to " + item.CheckOut
			if !item.IsStay() {
				when = ui.DateTime(item.StartsAt)
			}
			b.Printf(`<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>`, item.Title, when, item.Guests, ui.Money(item.LineTotalCents, data.View.Currency))
		}
		b.Raw(`</tbody></table>`)
		b.Render(carttempl.Totals(data.View.Breakdown, data.View.Currency))

		d := data.View.Details
		b.Printf(`<p class="guest">%s %s &middot; %s`, d.FirstName, d.LastName, d.Email)
		if d.Phone != "" {
			b.Printf(` &middot; %s`, d.Phone)
		}
		b.Raw(` <a href="/checkout">Edit</a></p>`)

		b.Raw(`<form method="post" action="/checkout/pay" hx-post="/checkout/pay" hx-target="#checkout" hx-swap="outerHTML">`)
		gatewayRadios(b, data.Gateways, data.Selected)
		b.Raw(`<button type="submit">Place booking and pay</button></form></section>`)
	})
}

func ConfirmationPage(data ConfirmationData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section id="checkout">`)
		switch data.Outcome {
		case OutcomePaid:
			b.Raw(`<h1>You're booked</h1>`)
			b.Render(Steps(4))
			b.Raw(`<p>A confirmation email is on its way.</p>`)
		case OutcomePending:
			b.Raw(`<h1>Payment processing</h1>`)
			b.Render(Steps(3))
			b.Raw(`<p>The payment provider has not confirmed your payment yet. Refresh this page in a moment.</p>`)
		case OutcomeRefund:
			b.Raw(`<h1>We could not hold your booking</h1>`)
		default:
			b.Raw(`<h1>Payment not completed</h1>`)
			b.Render(Steps(3))
		}
		b.Render(ui.Alert("error", data.Message))
		b.Render(bookingstempl.Summary(data.Detail, data.Location))

		if data.Outcome == OutcomeFailed && data.Detail.Status == booking.StatusPending && len(data.Gateways) > 0 {
			b.Raw(`<form method="post" action="/checkout/retry">`)
			b.Printf(`<input type="hidden" name="booking" value="%s"><input type="hidden" name="email" value="%s">`, data.Detail.BookingNumber, data.Detail.GuestEmail)
			gatewayRadios(b, data.Gateways, data.Detail.Gateway)
			b.Raw(`<button type="submit">Try again</button></form>`)
		}
		b.Printf(`<p><a href="/bookings/%s?email=%s">View booking</a></p></section>`, data.Detail.BookingNumber, url.QueryEscape(data.Detail.GuestEmail))
	})
}

// SimulatePage stands in for a hosted payment page in development.
func SimulatePage(data SimulateData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section class="simulate"><h1>Test payment</h1>`)
		b.Printf(`<p>Booking %s: <strong>%s</strong></p>`, data.BookingNumber, ui.Money(data.AmountCents, data.Currency))
		b.Raw(`<form method="post" action="/checkout/simulate">`)
		b.Printf(`<input type="hidden" name="reference" value="%s"><input type="hidden" name="booking" value="%s">`, data.Reference, data.BookingNumber)
		b.Raw(`<button type="submit" name="decision" value="approve">Pay</button> `)
		b.Raw(`<button type="submit" name="decision" value="decline" class="secondary">Decline</button></form></section>`)
	})
}
