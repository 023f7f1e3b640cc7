// internal/api/admin/bookings.go
package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/booking"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	admintempl "github.com/codr1/Lodgeicious/internal/templates/components/admin"
)

const (
	actionConfirm  = "confirm"
	actionCancel   = "cancel"
	actionComplete = "complete"
	actionRefunded = "refunded"
)

// GET /admin/bookings
func HandleBookings(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	query := r.URL.Query()
	status := strings.TrimSpace(query.Get("status"))
	if status != "" && !booking.IsKnownStatus(status) {
		http.Error(w, "Unknown booking status", http.StatusBadRequest)
		return
	}
	search := strings.TrimSpace(query.Get("q"))
	page, perPage := models.PagingFromQuery(query)

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	total, err := queries.CountBookings(ctx, dbgen.CountBookingsParams{Status: status, Search: search})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to count bookings")
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}
	rows, err := queries.ListBookings(ctx, dbgen.ListBookingsParams{
		Status: status,
		Search: search,
		Limit:  perPage,
		Offset: models.Offset(page, perPage),
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list bookings")
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}
	result := models.Page[dbgen.Booking]{Items: rows, Page: page, PerPage: perPage, Total: total}

	if apiutil.WantsJSON(r) {
		if result.Items == nil {
			result.Items = []dbgen.Booking{}
		}
		if err := apiutil.WriteJSON(w, http.StatusOK, result); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write bookings response")
		}
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Bookings", admintempl.BookingsPage(admintempl.BookingsData{
		Page:     result,
		Status:   status,
		Search:   search,
		Location: location,
	}))
}

// actionsFor lists the status changes an admin may apply to b now.
func actionsFor(b dbgen.Booking) []admintempl.BookingAction {
	var actions []admintempl.BookingAction
	if b.Status == booking.StatusPending {
		actions = append(actions, admintempl.BookingAction{Value: actionConfirm, Label: "Confirm"})
	}
	if booking.CanTransition(b.Status, booking.StatusCompleted) && !now().Before(b.EndsAt) {
		actions = append(actions, admintempl.BookingAction{Value: actionComplete, Label: "Mark completed"})
	}
	if b.PaymentStatus == booking.PaymentRefundPending {
		actions = append(actions, admintempl.BookingAction{Value: actionRefunded, Label: "Mark refunded"})
	}
	if booking.CanTransition(b.Status, booking.StatusCancelled) {
		actions = append(actions, admintempl.BookingAction{Value: actionCancel, Label: "Cancel booking", Danger: true})
	}
	return actions
}

func loadBooking(ctx context.Context, w http.ResponseWriter, r *http.Request) (booking.Detail, bool) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid booking ID", http.StatusBadRequest)
		return booking.Detail{}, false
	}
	detail, err := bookings.Get(ctx, queries, id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return booking.Detail{}, false
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("booking_id", id).Msg("Failed to load booking")
		http.Error(w, "Failed to load booking", http.StatusInternalServerError)
		return booking.Detail{}, false
	}
	return detail, true
}

func renderBooking(ctx context.Context, w http.ResponseWriter, r *http.Request, status int, detail booking.Detail, message, errMsg string) {
	payments, err := queries.ListPaymentsForBooking(ctx, detail.ID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("booking_id", detail.ID).Msg("Failed to list payments")
		http.Error(w, "Failed to load booking", http.StatusInternalServerError)
		return
	}
	apiutil.RenderPage(w, r, status, "Booking "+detail.BookingNumber, admintempl.BookingDetailPage(admintempl.BookingDetailData{
		Detail:   detail,
		Payments: payments,
		Actions:  actionsFor(detail.Booking),
		Location: location,
		Message:  message,
		Error:    errMsg,
	}))
}

// GET /admin/bookings/{id}
func HandleBooking(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) || bookings == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	detail, ok := loadBooking(ctx, w, r)
	if !ok {
		return
	}
	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusOK, detail); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write booking response")
		}
		return
	}
	renderBooking(ctx, w, r, http.StatusOK, detail, "", "")
}

// POST /admin/bookings/{id}/status
func HandleBookingStatus(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) || bookings == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	logger := log.Ctx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	detail, ok := loadBooking(ctx, w, r)
	if !ok {
		return
	}

	action := strings.TrimSpace(r.FormValue("action"))
	var (
		updated dbgen.Booking
		err     error
		message string
	)
	switch action {
	case actionConfirm:
		updated, err = bookings.Confirm(ctx, queries, detail.Booking)
		message = "Booking confirmed."
	case actionCancel:
		actor := booking.Actor{UserID: authz.UserID(r.Context()), IsAdmin: true}
		updated, err = bookings.Cancel(ctx, queries, detail.Booking, actor)
		message = "Booking cancelled."
	case actionComplete:
		updated, err = bookings.Complete(ctx, queries, detail.Booking)
		message = "Booking completed."
	case actionRefunded:
		updated, err = bookings.MarkRefunded(ctx, queries, detail.Booking)
		message = "Refund recorded."
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}
	if err != nil {
		var reason string
		switch {
		case errors.Is(err, booking.ErrNotEnded):
			reason = "This booking has not ended yet."
		case errors.Is(err, booking.ErrInvalidTransition):
			reason = "That change is not allowed for a " + detail.Status + " booking."
		default:
			logger.Error().Err(err).Int64("booking_id", detail.ID).Str("action", action).Msg("Failed to change booking status")
			http.Error(w, "Failed to update booking", http.StatusInternalServerError)
			return
		}
		if apiutil.WantsJSON(r) {
			http.Error(w, reason, http.StatusConflict)
			return
		}
		renderBooking(ctx, w, r, http.StatusConflict, detail, "", reason)
		return
	}
	logger.Info().
		Int64("booking_id", updated.ID).
		Str("booking_number", updated.BookingNumber).
		Str("action", action).
		Str("status", updated.Status).
		Str("payment_status", updated.PaymentStatus).
		Msg("Booking changed by admin")

	if notifier != nil {
		switch action {
		case actionConfirm:
			notifier.BookingConfirmed(r.Context(), updated, detail.Items)
		case actionCancel:
			notifier.BookingCancelled(r.Context(), updated, detail.Items, "Cancelled by the lodge.")
		}
	}

	detail.Booking = updated
	switch {
	case apiutil.WantsJSON(r):
		if err := apiutil.WriteJSON(w, http.StatusOK, detail); err != nil {
			logger.Error().Err(err).Msg("Failed to write booking response")
		}
	case plainForm(r):
		http.Redirect(w, r, "/admin/bookings/"+strconv.FormatInt(updated.ID, 10), http.StatusSeeOther)
	default:
		renderBooking(ctx, w, r, http.StatusOK, detail, message, "")
	}
}
