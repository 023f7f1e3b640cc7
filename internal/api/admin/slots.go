// internal/api/admin/slots.go
package admin

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/htmx"
	"github.com/codr1/Lodgeicious/internal/catalog"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	admintempl "github.com/codr1/Lodgeicious/internal/templates/components/admin"
)

const adminSlotLimit = 100

func slotsData(ctx context.Context, act models.Activity) (admintempl.SlotsData, error) {
	slots, err := catalog.ListUpcomingSlots(ctx, queries, act.ID, now(), adminSlotLimit)
	if err != nil {
		return admintempl.SlotsData{}, err
	}
	return admintempl.SlotsData{Activity: act, Slots: slots, Location: location, Values: url.Values{}}, nil
}

// renderSlots answers slot requests: the panel for htmx, the full page
// otherwise, and the slot list for JSON clients.
func renderSlots(w http.ResponseWriter, r *http.Request, status int, data admintempl.SlotsData) {
	if apiutil.WantsJSON(r) {
		if data.Error != "" || len(data.Errors) > 0 {
			http.Error(w, slotsErrorMessage(data), status)
			return
		}
		slots := data.Slots
		if slots == nil {
			slots = []models.ActivitySlot{}
		}
		if err := apiutil.WriteJSON(w, status, slots); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write slots response")
		}
		return
	}
	if htmx.WantsFragment(r) {
		apiutil.RenderHTMLComponentStatus(r.Context(), w, status, admintempl.SlotsPanel(data), nil,
			"Failed to render slots", "Failed to render slots")
		return
	}
	apiutil.RenderPage(w, r, status, "Slots", admintempl.SlotsPage(data))
}

// plainForm is a browser form post without htmx; it gets a redirect after a
// successful change.
func plainForm(r *http.Request) bool {
	return !htmx.IsRequest(r) && !apiutil.WantsJSON(r)
}

func slotsURL(activityID int64) string {
	return "/admin/activities/" + strconv.FormatInt(activityID, 10) + "/slots"
}

func slotsErrorMessage(data admintempl.SlotsData) string {
	if data.Error != "" {
		return data.Error
	}
	for field, reason := range data.Errors {
		return field + " " + reason
	}
	return ""
}

// GET /admin/activities/{id}/slots
func HandleSlots(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	act, ok := loadActivity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	data, err := slotsData(ctx, act)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("activity_id", act.ID).Msg("Failed to list slots")
		http.Error(w, "Failed to load slots", http.StatusInternalServerError)
		return
	}
	renderSlots(w, r, http.StatusOK, data)
}

// POST /admin/activities/{id}/slots
func HandleAddSlot(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	act, ok := loadActivity(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	errs := map[string]string{}
	startsAt, err := apiutil.ParseDateTimeField(r.FormValue("starts_at"), "starts_at", location)
	if err != nil {
		var fieldErr apiutil.FieldError
		if errors.As(err, &fieldErr) {
			errs[fieldErr.Field] = fieldErr.Reason
		}
	} else if !startsAt.After(now()) {
		errs["starts_at"] = "must be in the future"
	}
	capacity := parseField(errs, r.PostForm, "capacity", apiutil.ParsePositiveInt64Field)

	status := http.StatusCreated
	var message string
	if len(errs) == 0 {
		slot, err := queries.CreateActivitySlot(ctx, dbgen.CreateActivitySlotParams{
			ActivityID: act.ID,
			StartsAt:   db.Timestamp(startsAt),
			Capacity:   capacity,
		})
		switch {
		case db.IsUniqueViolation(err):
			status, message = http.StatusConflict, "A slot already starts at that time."
		case err != nil:
			log.Ctx(r.Context()).Error().Err(err).Int64("activity_id", act.ID).Msg("Failed to create slot")
			http.Error(w, "Failed to add slot", http.StatusInternalServerError)
			return
		default:
			log.Ctx(r.Context()).Info().Int64("activity_id", act.ID).Int64("slot_id", slot.ID).Time("starts_at", slot.StartsAt).Msg("Slot added")
			if plainForm(r) {
				http.Redirect(w, r, slotsURL(act.ID), http.StatusSeeOther)
				return
			}
		}
	} else {
		status = http.StatusBadRequest
	}

	data, err := slotsData(ctx, act)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("activity_id", act.ID).Msg("Failed to list slots")
		http.Error(w, "Failed to load slots", http.StatusInternalServerError)
		return
	}
	if status != http.StatusCreated {
		data.Values = r.PostForm
	}
	data.Errors, data.Error = errs, message
	renderSlots(w, r, status, data)
}

// POST /admin/activities/{id}/slots/{slotID}/delete
func HandleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	act, ok := loadActivity(w, r)
	if !ok {
		return
	}
	slotID, err := apiutil.PathID(r, "slotID")
	if err != nil {
		http.Error(w, "Invalid slot ID", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	status := http.StatusOK
	var message string
	err = database.RunInTx(ctx, func(tx *db.DB) error {
		held, err := tx.Queries.SumHeldSlotParticipants(ctx, dbgen.SumHeldSlotParticipantsParams{
			ActivitySlotID: slotID,
			Now:            db.Timestamp(now()),
		})
		if err != nil {
			return err
		}
		if held > 0 {
			return apiutil.HandlerError{Status: http.StatusConflict, Message: "This slot has booked guests and cannot be removed."}
		}
		removed, err := tx.Queries.DeleteActivitySlot(ctx, dbgen.DeleteActivitySlotParams{ID: slotID, ActivityID: act.ID})
		if err != nil {
			return err
		}
		if removed == 0 {
			return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Slot not found"}
		}
		return nil
	})
	if err != nil {
		var handlerErr apiutil.HandlerError
		if !errors.As(err, &handlerErr) {
			log.Ctx(r.Context()).Error().Err(err).Int64("slot_id", slotID).Msg("Failed to remove slot")
			http.Error(w, "Failed to remove slot", http.StatusInternalServerError)
			return
		}
		if handlerErr.Status == http.StatusNotFound {
			http.Error(w, handlerErr.Message, http.StatusNotFound)
			return
		}
		status, message = handlerErr.Status, handlerErr.Message
	} else {
		log.Ctx(r.Context()).Info().Int64("activity_id", act.ID).Int64("slot_id", slotID).Msg("Slot removed")
		if plainForm(r) {
			http.Redirect(w, r, slotsURL(act.ID), http.StatusSeeOther)
			return
		}
	}

	data, err := slotsData(ctx, act)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("activity_id", act.ID).Msg("Failed to list slots")
		http.Error(w, "Failed to load slots", http.StatusInternalServerError)
		return
	}
	data.Error = message
	renderSlots(w, r, status, data)
}
