// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/api/htmx"
	"github.com/codr1/Lodgeicious/internal/booking"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	bookingstempl "github.com/codr1/Lodgeicious/internal/templates/components/bookings"
)

const bookingsQueryTimeout = 5 * time.Second

// Notifier tells the guest their booking was cancelled.
type Notifier interface {
	BookingCancelled(ctx context.Context, b dbgen.Booking, items []dbgen.BookingItem, reason string)
}

var (
	queries  *dbgen.Queries
	bookings *booking.Service
	notifier Notifier
	location = time.UTC
)

type Deps struct {
	Queries  *dbgen.Queries
	Bookings *booking.Service
	Notifier Notifier
	Location *time.Location
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(deps Deps) {
	queries = deps.Queries
	bookings = deps.Bookings
	notifier = deps.Notifier
	if deps.Location != nil {
		location = deps.Location
	}
}

func ready(w http.ResponseWriter, r *http.Request) bool {
	if queries == nil || bookings == nil {
		log.Ctx(r.Context()).Error().Msg("Booking handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	return true
}

type itemResponse struct {
	Description    string `json:"description"`
	CheckIn        string `json:"check_in,omitempty"`
	CheckOut       string `json:"check_out,omitempty"`
	Guests         int64  `json:"guests"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type bookingResponse struct {
	Number        string         `json:"booking_number"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"payment_status"`
	Gateway       string         `json:"gateway"`
	Currency      string         `json:"currency"`
	TotalCents    int64          `json:"total_cents"`
	StartsAt      time.Time      `json:"starts_at"`
	EndsAt        time.Time      `json:"ends_at"`
	HoldExpiresAt *time.Time     `json:"hold_expires_at,omitempty"`
	Items         []itemResponse `json:"items,omitempty"`
}

func toResponse(b dbgen.Booking, items []dbgen.BookingItem) bookingResponse {
	resp := bookingResponse{
		Number:        b.BookingNumber,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Gateway:       b.Gateway,
		Currency:      b.Currency,
		TotalCents:    b.TotalCents,
		StartsAt:      b.StartsAt,
		EndsAt:        b.EndsAt,
		Items: lo.Map(items, func(item dbgen.BookingItem, _ int) itemResponse {
			return itemResponse{
				Description:    item.Description,
				CheckIn:        item.CheckIn.String,
				CheckOut:       item.CheckOut.String,
				Guests:         item.Guests,
				LineTotalCents: item.LineTotalCents,
			}
		}),
	}
	if b.Status == booking.StatusPending {
		resp.HoldExpiresAt = &b.HoldExpiresAt
	}
	return resp
}

// GET /bookings
func HandleMyBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireUser(w, r)
	if !ok || !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	page, perPage := models.PagingFromQuery(r.URL.Query())
	owner := sql.NullInt64{Int64: user.ID, Valid: true}
	total, err := queries.CountBookingsForUser(ctx, owner)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to count bookings")
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}
	rows, err := queries.ListBookingsForUser(ctx, dbgen.ListBookingsForUserParams{
		UserID: owner,
		Limit:  perPage,
		Offset: models.Offset(page, perPage),
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list bookings")
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}
	result := models.Page[dbgen.Booking]{Items: rows, Page: page, PerPage: perPage, Total: total}

	if apiutil.WantsJSON(r) {
		resp := models.Page[bookingResponse]{
			Items: lo.Map(rows, func(b dbgen.Booking, _ int) bookingResponse {
				return toResponse(b, nil)
			}),
			Page:    page,
			PerPage: perPage,
			Total:   total,
		}
		if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write bookings response")
		}
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "My bookings", bookingstempl.ListPage(bookingstempl.ListData{
		Page:     result,
		Location: location,
	}))
}

// GET /bookings/lookup
func HandleLookup(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	query := r.URL.Query()
	data := bookingstempl.LookupData{
		Number: strings.ToUpper(strings.TrimSpace(query.Get("number"))),
		Email:  apiutil.NormalizeEmail(query.Get("email")),
	}
	if data.Number == "" && data.Email == "" {
		apiutil.RenderPage(w, r, http.StatusOK, "Find your booking", bookingstempl.LookupPage(data))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	detail, err := bookings.GetByNumber(ctx, queries, data.Number)
	if err != nil && !errors.Is(err, booking.ErrNotFound) {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to look up booking")
		http.Error(w, "Failed to load booking", http.StatusInternalServerError)
		return
	}
	// Unknown numbers and wrong emails look the same.
	if err != nil || data.Email == "" || !booking.CanView(detail.Booking, 0, false, data.Email) {
		data.Error = "We could not find a booking with that number and email."
		apiutil.RenderPage(w, r, http.StatusNotFound, "Find your booking", bookingstempl.LookupPage(data))
		return
	}
	apiutil.Redirect(w, r, detailURL(detail.BookingNumber, data.Email))
}

func detailURL(number, email string) string {
	target := "/bookings/" + number
	if email != "" {
		target += "?email=" + url.QueryEscape(email)
	}
	return target
}

// loadVisible loads the booking named in the path when the viewer may see
// it and writes 404 otherwise, so strangers cannot probe booking numbers.
func loadVisible(ctx context.Context, w http.ResponseWriter, r *http.Request, email string) (booking.Detail, bool) {
	detail, err := bookings.GetByNumber(ctx, queries, r.PathValue("number"))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return booking.Detail{}, false
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load booking")
		http.Error(w, "Failed to load booking", http.StatusInternalServerError)
		return booking.Detail{}, false
	}
	user := authz.UserFromContext(r.Context())
	if !booking.CanView(detail.Booking, authz.UserID(r.Context()), user.IsAdmin(), email) {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return booking.Detail{}, false
	}
	return detail, true
}

// GET /bookings/{number}
func HandleBooking(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	email := apiutil.NormalizeEmail(r.URL.Query().Get("email"))
	detail, ok := loadVisible(ctx, w, r, email)
	if !ok {
		return
	}
	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusOK, toResponse(detail.Booking, detail.Items)); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write booking response")
		}
		return
	}
	renderDetail(w, r, http.StatusOK, detail, email, "", "")
}

func renderDetail(w http.ResponseWriter, r *http.Request, status int, detail booking.Detail, email, message, errMsg string) {
	apiutil.RenderPage(w, r, status, "Booking "+detail.BookingNumber, bookingstempl.DetailPage(bookingstempl.DetailData{
		Detail:           detail,
		Location:         location,
		Email:            email,
		CanCancel:        bookings.CanGuestCancel(detail.Booking),
		CancellableUntil: bookings.CancellableUntil(detail.Booking),
		Message:          message,
		Error:            errMsg,
	}))
}

// POST /bookings/{number}/cancel
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	logger := log.Ctx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	email := apiutil.NormalizeEmail(r.FormValue("email"))
	detail, ok := loadVisible(ctx, w, r, email)
	if !ok {
		return
	}

	user := authz.UserFromContext(r.Context())
	actor := booking.Actor{UserID: authz.UserID(r.Context()), IsAdmin: user.IsAdmin()}
	updated, err := bookings.Cancel(ctx, queries, detail.Booking, actor)
	if err != nil {
		var message string
		switch {
		case errors.Is(err, booking.ErrCancellationWindow):
			message = "This booking is too close to arrival to cancel online. Please contact the lodge."
		case errors.Is(err, booking.ErrInvalidTransition):
			message = "This booking can no longer be cancelled."
		default:
			logger.Error().Err(err).Str("booking_number", detail.BookingNumber).Msg("Failed to cancel booking")
			http.Error(w, "Failed to cancel booking", http.StatusInternalServerError)
			return
		}
		if apiutil.WantsJSON(r) {
			http.Error(w, message, http.StatusConflict)
			return
		}
		renderDetail(w, r, http.StatusConflict, detail, email, "", message)
		return
	}
	logger.Info().
		Int64("booking_id", updated.ID).
		Str("booking_number", updated.BookingNumber).
		Str("payment_status", updated.PaymentStatus).
		Msg("Booking cancelled by guest")
	if notifier != nil {
		notifier.BookingCancelled(r.Context(), updated, detail.Items, "Cancelled at your request.")
	}

	detail.Booking = updated
	switch {
	case apiutil.WantsJSON(r):
		if err := apiutil.WriteJSON(w, http.StatusOK, toResponse(updated, detail.Items)); err != nil {
			logger.Error().Err(err).Msg("Failed to write booking response")
		}
	case !htmx.IsRequest(r):
		http.Redirect(w, r, detailURL(updated.BookingNumber, email), http.StatusSeeOther)
	default:
		message := "Your booking was cancelled."
		if updated.PaymentStatus == booking.PaymentRefundPending {
			message = "Your booking was cancelled. Your refund is being processed."
		}
		renderDetail(w, r, http.StatusOK, detail, email, message, "")
	}
}
