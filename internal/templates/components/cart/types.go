package cart

import "github.com/codr1/Lodgeicious/internal/cart"

type PageData struct {
	View  cart.View
	Error string
	// CanCheckout is false while the cart is empty.
	CanCheckout bool
}

type AddedData struct {
	Title string
	Count int64
	Error string
}
