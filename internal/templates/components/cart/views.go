package cart

import (
	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/pricing"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

func CartPage(data PageData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section><h1>Your cart</h1>`)
		b.Render(CartPanel(data))
		b.Raw(`</section>`)
	})
}

// CartPanel is the swappable body of the cart page.
func CartPanel(data PageData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		view := data.View
		b.Raw(`<div id="cart">`)
		b.Render(ui.Alert("error", data.Error))
		if view.Empty() {
			b.Raw(`<p class="empty">Your cart is empty. <a href="/accommodations">Find a stay</a> or <a href="/activities">an activity</a>.</p></div>`)
			return
		}

		b.Raw(`<table class="cart"><thead><tr><th>Item</th><th>When</th><th>Guests</th><th>Price</th><th></th></tr></thead><tbody>`)
		for _, item := range view.Items {
			b.Render(itemRow(item, view.Currency))
		}
		b.Raw(`</tbody></table>`)
		b.Render(Totals(view.Breakdown, view.Currency))
		b.Raw(`<div class="actions">`)
		b.Raw(`<button type="button" class="link" hx-delete="/cart" hx-target="#cart" hx-swap="outerHTML" hx-confirm="Remove everything from your cart?">Empty cart</button>`)
		if data.CanCheckout {
			b.Raw(`<a class="button primary" href="/checkout">Checkout</a>`)
		}
		b.Raw(`</div></div>`)
	})
}

func itemRow(item cart.Item, currency string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<tr id="cart-item-%d">`, item.ID)
		if item.IsStay() {
			b.Printf(`<td><a href="/accommodations/%s">%s</a></td>`, item.Slug, item.Title)
			b.Printf(`<td>%s to %s<br><small>%d nights</small></td>`, displayDate(item.CheckIn), displayDate(item.CheckOut), item.Nights)
		} else {
			b.Printf(`<td><a href="/activities/%s">%s</a></td>`, item.Slug, item.Title)
			b.Printf(`<td>%s</td>`, ui.DateTime(item.StartsAt))
		}
		b.Printf(`<td><form hx-post="/cart/items/%d" hx-target="#cart" hx-swap="outerHTML" hx-trigger="change">`, item.ID)
		b.Printf(`<input type="number" name="guests" min="1" value="%d" aria-label="Guests"></form></td>`, item.Guests)
		b.Printf(`<td>%s</td>`, ui.Money(item.LineTotalCents, currency))
		b.Printf(`<td><button type="button" class="link" hx-delete="/cart/items/%d" hx-target="#cart" hx-swap="outerHTML">Remove</button></td></tr>`, item.ID)
	})
}

func displayDate(raw string) string {
	d, err := pricing.ParseDate(raw)
	if err != nil {
		return raw
	}
	return ui.Date(d)
}

// Totals is the money summary shared by the cart and the checkout review.
func Totals(breakdown pricing.Breakdown, currency string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<dl class="totals">`)
		b.Printf(`<dt>Subtotal</dt><dd>%s</dd>`, ui.Money(breakdown.SubtotalCents, currency))
		b.Printf(`<dt>Tax</dt><dd>%s</dd>`, ui.Money(breakdown.TaxCents, currency))
		if breakdown.ServiceFeeCents > 0 {
			b.Printf(`<dt>Service fee</dt><dd>%s</dd>`, ui.Money(breakdown.ServiceFeeCents, currency))
		}
		b.Printf(`<dt class="total">Total</dt><dd class="total">%s</dd>`, ui.Money(breakdown.TotalCents, currency))
		b.Raw(`</dl>`)
	})
}

// Added answers an add-to-cart form in place.
func Added(data AddedData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		if data.Error != "" {
			b.Render(ui.Alert("error", data.Error))
			return
		}
		b.Printf(`<div class="alert alert-success" role="status">%s was added. <a href="/cart">View cart (%d)</a></div>`, data.Title, data.Count)
	})
}

// Badge is the item count in the header; nothing for an empty cart.
func Badge(count int64) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		if count > 0 {
			b.Printf(`<span class="badge">%d</span>`, count)
		}
	})
}
