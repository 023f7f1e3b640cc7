// internal/api/checkout/handlers.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/cognito"
	"github.com/codr1/Lodgeicious/internal/config"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/payments"
	checkouttempl "github.com/codr1/Lodgeicious/internal/templates/components/checkout"
)

const (
	checkoutQueryTimeout = 5 * time.Second
	// Gateway calls get longer than local queries.
	gatewayTimeout = 20 * time.Second

	maxNameLength     = 100
	maxRequestsLength = 1000
)

// Notifier sends the booking confirmation once a payment settles.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b dbgen.Booking, items []dbgen.BookingItem)
}

var (
	database   *db.DB
	queries    *dbgen.Queries
	carts      *cart.Service
	bookings   *booking.Service
	paymentSvc *payments.Service
	simulated  *payments.Simulated
	notifier   Notifier
	location   = time.UTC
)

type Deps struct {
	DB        *db.DB
	Carts     *cart.Service
	Bookings  *booking.Service
	Payments  *payments.Service
	Simulated *payments.Simulated
	Notifier  Notifier
	Location  *time.Location
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(deps Deps) {
	database = deps.DB
	if deps.DB != nil {
		queries = deps.DB.Queries
	}
	carts = deps.Carts
	bookings = deps.Bookings
	paymentSvc = deps.Payments
	simulated = deps.Simulated
	notifier = deps.Notifier
	if deps.Location != nil {
		location = deps.Location
	}
}

func ready(w http.ResponseWriter, r *http.Request) bool {
	if database == nil || carts == nil || bookings == nil || paymentSvc == nil {
		log.Ctx(r.Context()).Error().Msg("Checkout handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	return true
}

// loadCart returns the browser's cart and its view. ok is false when there
// is nothing to check out.
func loadCart(ctx context.Context) (dbgen.Cart, cart.View, bool, error) {
	c, err := carts.Load(ctx, queries, cart.TokenFromContext(ctx))
	if err != nil {
		if errors.Is(err, cart.ErrNoCart) {
			return dbgen.Cart{}, cart.View{}, false, nil
		}
		return dbgen.Cart{}, cart.View{}, false, err
	}
	view, err := carts.View(ctx, queries, c)
	if err != nil {
		return dbgen.Cart{}, cart.View{}, false, err
	}
	return c, view, !view.Empty(), nil
}

func gatewayOptions() []checkouttempl.GatewayOption {
	names := paymentSvc.Registry.Names()
	options := make([]checkouttempl.GatewayOption, 0, len(names))
	for _, name := range names {
		options = append(options, checkouttempl.GatewayOption{Name: name, Label: payments.Label(name)})
	}
	return options
}

// GET /checkout
func HandleDetailsPage(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), checkoutQueryTimeout)
	defer cancel()

	_, view, ok, err := loadCart(ctx)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load cart for checkout")
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !ok {
		apiutil.Redirect(w, r, "/cart")
		return
	}

	details := view.Details
	if user := authz.UserFromContext(r.Context()); user != nil {
		if details.FirstName == "" {
			details.FirstName = user.FirstName
		}
		if details.LastName == "" {
			details.LastName = user.LastName
		}
		if details.Email == "" {
			details.Email = user.Email
		}
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Checkout", checkouttempl.DetailsPage(checkouttempl.DetailsData{Details: details}))
}

func parseDetails(r *http.Request) (cart.Details, map[string]string) {
	d := cart.Details{
		FirstName:       strings.TrimSpace(r.FormValue("first_name")),
		LastName:        strings.TrimSpace(r.FormValue("last_name")),
		Email:           apiutil.NormalizeEmail(r.FormValue("email")),
		Phone:           strings.TrimSpace(r.FormValue("phone")),
		SpecialRequests: strings.TrimSpace(r.FormValue("special_requests")),
	}
	errs := make(map[string]string)
	if d.FirstName == "" {
		errs["first_name"] = "is required"
	} else if len(d.FirstName) > maxNameLength {
		errs["first_name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	if d.LastName == "" {
		errs["last_name"] = "is required"
	} else if len(d.LastName) > maxNameLength {
		errs["last_name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	if !apiutil.ValidEmail(d.Email) {
		errs["email"] = "must be a valid email address"
	}
	if d.Phone != "" {
		normalized := cognito.NormalizePhone(d.Phone)
		if normalized == "" {
			errs["phone"] = "must be a valid phone number"
		} else {
			d.Phone = normalized
		}
	}
	if len(d.SpecialRequests) > maxRequestsLength {
		errs["special_requests"] = fmt.Sprintf("must be at most %d characters", maxRequestsLength)
	}
	return d, errs
}

// POST /checkout/details
func HandleDetails(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), checkoutQueryTimeout)
	defer cancel()

	c, _, ok, err := loadCart(ctx)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load cart for checkout")
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !ok {
		apiutil.Redirect(w, r, "/cart")
		return
	}

	details, errs := parseDetails(r)
	if len(errs) > 0 {
		apiutil.RenderPage(w, r, http.StatusBadRequest, "Checkout", checkouttempl.DetailsPage(checkouttempl.DetailsData{
			Details: details,
			Errors:  errs,
		}))
		return
	}
	if err := carts.SaveDetails(ctx, queries, c, details); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("cart_id", c.ID).Msg("Failed to save checkout details")
		http.Error(w, "Failed to save details", http.StatusInternalServerError)
		return
	}
	apiutil.Redirect(w, r, "/checkout/review")
}

// GET /checkout/review
func HandleReview(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), checkoutQueryTimeout)
	defer cancel()

	_, view, ok, err := loadCart(ctx)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load cart for review")
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !ok {
		apiutil.Redirect(w, r, "/cart")
		return
	}
	if !view.Details.Complete() {
		apiutil.Redirect(w, r, "/checkout")
		return
	}
	renderReview(w, r, http.StatusOK, view, r.URL.Query().Get("gateway"), "")
}

func renderReview(w http.ResponseWriter, r *http.Request, status int, view cart.View, selected, message string) {
	apiutil.RenderPage(w, r, status, "Review", checkouttempl.ReviewPage(checkouttempl.ReviewData{
		View:     view,
		Gateways: gatewayOptions(),
		Selected: selected,
		Error:    message,
	}))
}

type payResponse struct {
	BookingNumber string `json:"booking_number"`
	RedirectURL   string `json:"redirect_url"`
}

// POST /checkout/pay
func HandlePay(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	logger := log.Ctx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), checkoutQueryTimeout)
	defer cancel()

	c, view, ok, err := loadCart(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load cart for payment")
		http.Error(w, "Failed to load cart", http.StatusInternalServerError)
		return
	}
	if !ok {
		apiutil.Redirect(w, r, "/cart")
		return
	}

	gateway := strings.TrimSpace(r.FormValue("gateway"))
	if gateway == "" {
		gateway = paymentSvc.Registry.Default()
	}
	if _, err := paymentSvc.Registry.Get(gateway); err != nil {
		renderReview(w, r, http.StatusBadRequest, view, "", "Choose a payment method")
		return
	}

	var detail booking.Detail
	err = database.RunInTx(ctx, func(tx *db.DB) error {
		var err error
		detail, err = bookings.CreateFromCart(ctx, tx.Queries, c, view.Details, authz.UserID(r.Context()), gateway)
		return err
	})
	if err != nil {
		var unavailable *availability.UnavailableError
		switch {
		case errors.As(err, &unavailable):
			logger.Info().Str("reason", unavailable.Reason).Int64("cart_id", c.ID).Msg("Checkout blocked by availability")
			renderReview(w, r, http.StatusConflict, view, gateway,
				"Part of your cart is no longer available: "+unavailable.Reason+". Update your cart and try again.")
		case errors.Is(err, cart.ErrCartEmpty):
			apiutil.Redirect(w, r, "/cart")
		case errors.Is(err, booking.ErrDetailsMissing):
			apiutil.Redirect(w, r, "/checkout")
		default:
			logger.Error().Err(err).Int64("cart_id", c.ID).Msg("Failed to create booking")
			http.Error(w, "Failed to create booking", http.StatusInternalServerError)
		}
		return
	}
	logger.Info().
		Int64("booking_id", detail.ID).
		Str("booking_number", detail.BookingNumber).
		Str("gateway", gateway).
		Int64("total_cents", detail.TotalCents).
		Msg("Booking created")

	beginPayment(w, r, detail, gateway)
}

// beginPayment sends the guest to the gateway, or explains the failure
// with a retry form while the hold lasts.
func beginPayment(w http.ResponseWriter, r *http.Request, detail booking.Detail, gateway string) {
	logger := log.Ctx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	session, err := paymentSvc.Begin(ctx, queries, detail, gateway)
	if err != nil {
		if errors.Is(err, payments.ErrNotPayable) {
			apiutil.Redirect(w, r, bookingURL(detail.Booking))
			return
		}
		logger.Error().Err(err).Str("booking_number", detail.BookingNumber).Str("gateway", gateway).Msg("Failed to start payment")
		renderConfirmation(w, r, http.StatusBadGateway, detail, checkouttempl.OutcomeFailed,
			fmt.Sprintf("We could not reach the payment provider. Your booking is held until %s, so you can try again.",
				detail.HoldExpiresAt.In(location).Format("3:04 PM")))
		return
	}

	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusCreated, payResponse{BookingNumber: detail.BookingNumber, RedirectURL: session.RedirectURL}); err != nil {
			logger.Error().Err(err).Msg("Failed to write payment response")
		}
		return
	}
	apiutil.Redirect(w, r, session.RedirectURL)
}

func bookingURL(b dbgen.Booking) string {
	return "/bookings/" + b.BookingNumber + "?email=" + url.QueryEscape(b.GuestEmail)
}

// POST /checkout/retry
func HandleRetry(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), checkoutQueryTimeout)
	defer cancel()

	detail, err := bookings.GetByNumber(ctx, queries, r.FormValue("booking"))
	if err != nil {
		writeBookingLookupError(w, r, err)
		return
	}
	user := authz.UserFromContext(r.Context())
	if !booking.CanView(detail.Booking, authz.UserID(r.Context()), user.IsAdmin(), r.FormValue("email")) {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	gateway := strings.TrimSpace(r.FormValue("gateway"))
	if gateway == "" {
		gateway = detail.Gateway
	}
	if _, err := paymentSvc.Registry.Get(gateway); err != nil {
		http.Error(w, "Unknown payment method", http.StatusBadRequest)
		return
	}
	beginPayment(w, r, detail, gateway)
}

func writeBookingLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, booking.ErrNotFound) {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load booking")
	http.Error(w, "Failed to load booking", http.StatusInternalServerError)
}

type returnResponse struct {
	BookingNumber string `json:"booking_number"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Outcome       string `json:"outcome"`
}

// GET /checkout/return?booking=&gateway=&reference=
func HandleReturn(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	logger := log.Ctx(r.Context())
	query := r.URL.Query()
	number := query.Get("booking")
	gateway := query.Get("gateway")
	reference := query.Get("reference")
	if reference == "" {
		// Flutterwave appends its own tx_ref to the redirect.
		reference = query.Get("tx_ref")
	}
	if number == "" || gateway == "" || reference == "" {
		http.Error(w, "Missing payment reference", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()

	before, err := bookings.GetByNumber(ctx, queries, number)
	if err != nil {
		writeBookingLookupError(w, r, err)
		return
	}

	outcome, err := paymentSvc.Settle(ctx, queries, gateway, reference)
	if err == nil || errors.Is(err, payments.ErrAmountMismatch) || errors.Is(err, booking.ErrHoldExpired) {
		if outcome.Payment.BookingID != before.ID {
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		}
	}

	result, message := checkouttempl.OutcomePending, ""
	status := http.StatusOK
	switch {
	case errors.Is(err, payments.ErrPaymentNotFound):
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	case errors.Is(err, payments.ErrUnknownGateway):
		http.Error(w, "Unknown payment method", http.StatusBadRequest)
		return
	case errors.Is(err, payments.ErrAmountMismatch):
		result, message = checkouttempl.OutcomeFailed, "The amount charged did not match your booking. You have not been charged for this booking; please try again."
	case errors.Is(err, booking.ErrHoldExpired):
		result, message = checkouttempl.OutcomeRefund, "Your payment arrived after the hold on these dates lapsed and they are no longer free. A full refund is on its way."
	case err != nil:
		logger.Error().Err(err).Str("booking_number", number).Str("gateway", gateway).Msg("Failed to settle payment")
		status, message = http.StatusBadGateway, "We could not confirm your payment with the provider yet. Refresh this page to try again."
	default:
		switch outcome.Status {
		case payments.PaymentSucceeded:
			result = checkouttempl.OutcomePaid
		case payments.PaymentFailed:
			result, message = checkouttempl.OutcomeFailed, "Your payment was declined."
		}
	}

	after, err := bookings.Get(ctx, queries, before.ID)
	if err != nil {
		writeBookingLookupError(w, r, err)
		return
	}
	if result == checkouttempl.OutcomePaid && before.PaymentStatus != booking.PaymentPaid && after.Status == booking.StatusConfirmed {
		logger.Info().Int64("booking_id", after.ID).Str("booking_number", after.BookingNumber).Str("gateway", gateway).Msg("Booking paid")
		if notifier != nil {
			notifier.BookingConfirmed(r.Context(), after.Booking, after.Items)
		}
	}

	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, status, returnResponse{
			BookingNumber: after.BookingNumber,
			Status:        after.Status,
			PaymentStatus: after.PaymentStatus,
			Outcome:       result,
		}); err != nil {
			logger.Error().Err(err).Msg("Failed to write payment result")
		}
		return
	}
	renderConfirmation(w, r, status, after, result, message)
}

func renderConfirmation(w http.ResponseWriter, r *http.Request, status int, detail booking.Detail, outcome, message string) {
	apiutil.RenderPage(w, r, status, "Booking "+detail.BookingNumber, checkouttempl.ConfirmationPage(checkouttempl.ConfirmationData{
		Detail:   detail,
		Location: location,
		Outcome:  outcome,
		Message:  message,
		Gateways: gatewayOptions(),
	}))
}

// GET /checkout/simulate?reference=&booking=
func HandleSimulatePage(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if simulated == nil {
		http.NotFound(w, r)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), checkoutQueryTimeout)
	defer cancel()

	reference := r.URL.Query().Get("reference")
	payment, err := queries.GetPaymentByReference(ctx, dbgen.GetPaymentByReferenceParams{
		Gateway:   config.GatewaySimulated,
		Reference: reference,
	})
	if err != nil {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Test payment", checkouttempl.SimulatePage(checkouttempl.SimulateData{
		Reference:     payment.Reference,
		BookingNumber: r.URL.Query().Get("booking"),
		AmountCents:   payment.AmountCents,
		Currency:      payment.Currency,
	}))
}

// POST /checkout/simulate
func HandleSimulate(w http.ResponseWriter, r *http.Request) {
	if simulated == nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	reference := r.FormValue("reference")
	approve := r.FormValue("decision") == "approve"
	if err := simulated.Decide(reference, approve); err != nil {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}
	log.Ctx(r.Context()).Debug().Str("reference", reference).Bool("approved", approve).Msg("Simulated payment decided")

	target := url.Values{}
	target.Set("booking", r.FormValue("booking"))
	target.Set("gateway", config.GatewaySimulated)
	target.Set("reference", reference)
	http.Redirect(w, r, "/checkout/return?"+target.Encode(), http.StatusSeeOther)
}
