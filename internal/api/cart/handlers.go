// internal/api/cart/handlers.go
package cart

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/api/htmx"
	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/cart"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/metrics"
	carttempl "github.com/codr1/Lodgeicious/internal/templates/components/cart"
)

const (
	cartQueryTimeout = 5 * time.Second

	// UpdatedEvent refreshes the header badge.
	UpdatedEvent = "cart-updated"
)

var (
	queries       *dbgen.Queries
	carts         *cart.Service
	secureCookies bool
)

type Deps struct {
	Queries       *dbgen.Queries
	Carts         *cart.Service
	SecureCookies bool
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(deps Deps) {
	queries = deps.Queries
	carts = deps.Carts
	secureCookies = deps.SecureCookies
}

func ready(w http.ResponseWriter, r *http.Request) bool {
	if queries == nil || carts == nil {
		log.Ctx(r.Context()).Error().Msg("Cart handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	return true
}

// currentCart loads the request's cart. ok is false when the browser has none
// yet, which callers treat as an empty cart.
func currentCart(ctx context.Context) (dbgen.Cart, bool, error) {
	c, err := carts.Load(ctx, queries, cart.TokenFromContext(ctx))
	if errors.Is(err, cart.ErrNoCart) {
		return dbgen.Cart{}, false, nil
	}
	if err != nil {
		return dbgen.Cart{}, false, err
	}
	return c, true, nil
}

// ensureCart creates the cart on first add and hands the browser its cookie.
func ensureCart(ctx context.Context, w http.ResponseWriter) (dbgen.Cart, error) {
	c, created, err := carts.Ensure(ctx, queries, cart.TokenFromContext(ctx), authz.UserID(ctx))
	if err != nil {
		return dbgen.Cart{}, err
	}
	if created {
		apiutil.SetCartCookie(w, c.Token, secureCookies)
	}
	return c, nil
}

func loadView(ctx context.Context) (cart.View, error) {
	c, ok, err := currentCart(ctx)
	if err != nil {
		return cart.View{}, err
	}
	if !ok {
		return cart.View{Currency: carts.Currency}, nil
	}
	return carts.View(ctx, queries, c)
}

// GET /cart
func HandleCartPage(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), cartQueryTimeout)
	defer cancel()

	view, err := loadView(ctx)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load cart")
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Cart", carttempl.CartPage(carttempl.PageData{
		View:        view,
		CanCheckout: !view.Empty(),
	}))
}

// GET /api/v1/cart
func HandleCartAPI(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), cartQueryTimeout)
	defer cancel()

	view, err := loadView(ctx)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load cart")
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if view.Items == nil {
		view.Items = []cart.Item{}
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, view); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write cart JSON")
	}
}

// GET /cart/badge
func HandleBadge(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), cartQueryTimeout)
	defer cancel()

	var count int64
	c, ok, err := currentCart(ctx)
	if err == nil && ok {
		count, err = carts.Count(ctx, queries, c)
	}
	if err != nil {
		// The badge is decorative; an empty one is better than an error box.
		log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to count cart items")
		count = 0
	}
	apiutil.RenderHTMLComponent(r.Context(), w, carttempl.Badge(count), nil, "Failed to render cart badge", "Failed to render cart badge")
}

// POST /cart/stays
func HandleAddStay(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	logger := log.Ctx(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	accID, err := apiutil.ParsePositiveInt64Field(r.FormValue("accommodation_id"), "accommodation_id")
	if err != nil {
		writeAddError(w, r, err)
		return
	}
	checkIn, err := apiutil.ParseDateField(r.FormValue("check_in"), "check_in")
	if err != nil {
		writeAddError(w, r, err)
		return
	}
	checkOut, err := apiutil.ParseDateField(r.FormValue("check_out"), "check_out")
	if err != nil {
		writeAddError(w, r, err)
		return
	}
	guests, err := apiutil.ParsePositiveInt64Field(r.FormValue("guests"), "guests")
	if err != nil {
		writeAddError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cartQueryTimeout)
	defer cancel()

	c, err := ensureCart(ctx, w)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create cart")
		http.Error(w, "Failed to update cart", http.StatusInternalServerError)
		return
	}
	item, err := carts.AddStay(ctx, queries, c, accID, checkIn, checkOut, guests)
	if err != nil {
		writeAddError(w, r, err)
		return
	}
	metrics.CartAddition(cart.ItemStay)
	logger.Info().Int64("cart_id", c.ID).Int64("accommodation_id", accID).Msg("Stay added to cart")
	writeAdded(w, r, c, item)
}

// POST /cart/activities
func HandleAddActivity(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	logger := log.Ctx(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	slotID, err := apiutil.ParsePositiveInt64Field(r.FormValue("slot_id"), "slot_id")
	if err != nil {
		writeAddError(w, r, err)
		return
	}
	participants, err := apiutil.ParsePositiveInt64Field(r.FormValue("participants"), "participants")
	if err != nil {
		writeAddError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cartQueryTimeout)
	defer cancel()

	c, err := ensureCart(ctx, w)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create cart")
		http.Error(w, "Failed to update cart", http.StatusInternalServerError)
		return
	}
	item, err := carts.AddActivity(ctx, queries, c, slotID, participants)
	if err != nil {
		writeAddError(w, r, err)
		return
	}
	metrics.CartAddition(cart.ItemActivity)
	logger.Info().Int64("cart_id", c.ID).Int64("slot_id", slotID).Msg("Activity added to cart")
	writeAdded(w, r, c, item)
}

func writeAdded(w http.ResponseWriter, r *http.Request, c dbgen.Cart, item dbgen.CartItem) {
	ctx := r.Context()
	view, err := carts.View(ctx, queries, c)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to load cart")
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}

	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusCreated, view); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to write cart JSON")
		}
		return
	}
	if !htmx.IsRequest(r) {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	title := "Your selection"
	for _, it := range view.Items {
		if it.ID == item.ID {
			title = it.Title
			break
		}
	}
	htmx.Trigger(w, UpdatedEvent)
	apiutil.RenderHTMLComponent(ctx, w, carttempl.Added(carttempl.AddedData{Title: title, Count: int64(view.Count())}), nil,
		"Failed to render cart confirmation", "Failed to render cart")
}

// addErrorStatus maps cart and availability errors onto statuses.
func addErrorStatus(err error) (int, string) {
	var fieldErr apiutil.FieldError
	var unavailable *availability.UnavailableError
	switch {
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, fieldErr.Error()
	case errors.As(err, &unavailable):
		return http.StatusConflict, unavailable.Reason
	case errors.Is(err, cart.ErrNotFound):
		return http.StatusNotFound, "That listing is no longer available"
	default:
		return http.StatusInternalServerError, "Failed to update cart"
	}
}

func writeAddError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := addErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to update cart")
	}
	switch {
	case apiutil.WantsJSON(r):
		_ = apiutil.WriteJSON(w, status, map[string]string{"error": message})
	case htmx.IsRequest(r):
		apiutil.RenderHTMLComponentStatus(r.Context(), w, status, carttempl.Added(carttempl.AddedData{Error: message}), nil,
			"Failed to render cart error", "Failed to render cart")
	default:
		http.Error(w, message, status)
	}
}

// POST /cart/items/{id}
func HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	itemID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid cart item ID", http.StatusBadRequest)
		return
	}
	guests, err := apiutil.ParsePositiveInt64Field(r.FormValue("guests"), "guests")
	if err != nil {
		writePanelError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cartQueryTimeout)
	defer cancel()

	c, ok, err := currentCart(ctx)
	if err != nil {
		writePanelError(w, r, err)
		return
	}
	if !ok {
		writePanelError(w, r, cart.ErrNotFound)
		return
	}
	if err := carts.UpdateItem(ctx, queries, c, itemID, guests); err != nil {
		writePanelError(w, r, err)
		return
	}
	writePanel(w, r, http.StatusOK, "")
}

// DELETE /cart/items/{id}
func HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	itemID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid cart item ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cartQueryTimeout)
	defer cancel()

	c, ok, err := currentCart(ctx)
	if err != nil {
		writePanelError(w, r, err)
		return
	}
	if !ok {
		writePanelError(w, r, cart.ErrNotFound)
		return
	}
	if err := carts.RemoveItem(ctx, queries, c, itemID); err != nil {
		writePanelError(w, r, err)
		return
	}
	htmx.Trigger(w, UpdatedEvent)
	writePanel(w, r, http.StatusOK, "")
}

// DELETE /cart
func HandleClearCart(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), cartQueryTimeout)
	defer cancel()

	c, ok, err := currentCart(ctx)
	if err != nil {
		writePanelError(w, r, err)
		return
	}
	if ok {
		if err := carts.Clear(ctx, queries, c); err != nil {
			writePanelError(w, r, err)
			return
		}
	}
	htmx.Trigger(w, UpdatedEvent)
	writePanel(w, r, http.StatusOK, "")
}

// writePanel answers cart edits with the refreshed cart: JSON for API
// clients, the #cart panel for htmx and a redirect otherwise.
func writePanel(w http.ResponseWriter, r *http.Request, status int, message string) {
	ctx := r.Context()
	if !apiutil.WantsJSON(r) && !htmx.IsRequest(r) && message == "" {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	view, err := loadView(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to load cart")
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if apiutil.WantsJSON(r) {
		payload := map[string]any{"cart": view}
		if message != "" {
			payload["error"] = message
		}
		_ = apiutil.WriteJSON(w, status, payload)
		return
	}
	apiutil.RenderHTMLComponentStatus(ctx, w, status, carttempl.CartPanel(carttempl.PageData{
		View:        view,
		Error:       message,
		CanCheckout: !view.Empty(),
	}), nil, "Failed to render cart", "Failed to render cart")
}

func writePanelError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := addErrorStatus(err)
	if errors.Is(err, cart.ErrNotFound) {
		message = "That item is no longer in your cart"
	}
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to update cart")
		http.Error(w, message, status)
		return
	}
	if !apiutil.WantsJSON(r) && !htmx.IsRequest(r) {
		http.Error(w, strings.TrimSpace(message), status)
		return
	}
	writePanel(w, r, status, message)
}
