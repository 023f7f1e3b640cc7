// internal/api/admin/listings.go
package admin

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/catalog"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/pricing"
	admintempl "github.com/codr1/Lodgeicious/internal/templates/components/admin"
)

const slugTakenReason = "is already used by another listing"

// parseField records a parse failure under its field name.
func parseField(errs map[string]string, values url.Values, field string, parse func(string, string) (int64, error)) int64 {
	value, err := parse(values.Get(field), field)
	if err != nil {
		var fieldErr apiutil.FieldError
		if errors.As(err, &fieldErr) {
			errs[fieldErr.Field] = fieldErr.Reason
		} else {
			errs[field] = err.Error()
		}
	}
	return value
}

func listingSlug(values url.Values) string {
	slug := strings.ToLower(strings.TrimSpace(values.Get("slug")))
	if slug == "" {
		slug = models.Slugify(values.Get("name"))
	}
	return slug
}

func listingStatus(values url.Values) string {
	status := strings.TrimSpace(values.Get("status"))
	if status == "" {
		return models.StatusActive
	}
	return status
}

func listFilter(r *http.Request) catalog.ListFilter {
	query := r.URL.Query()
	page, perPage := models.PagingFromQuery(query)
	status := strings.TrimSpace(query.Get("status"))
	if status != models.StatusActive && status != models.StatusInactive {
		status = ""
	}
	return catalog.ListFilter{
		Search:  strings.TrimSpace(query.Get("q")),
		Status:  status,
		Page:    page,
		PerPage: perPage,
	}
}

func formatMoney(cents int64) string {
	return pricing.MajorUnits(cents).StringFixed(2)
}

func renderForm(w http.ResponseWriter, r *http.Request, status int, title string, page func(admintempl.Form) templ.Component, form admintempl.Form) {
	apiutil.RenderPage(w, r, status, title, page(form))
}

// writeSaveError maps a failed listing save onto the form or a status.
func writeSaveError(w http.ResponseWriter, r *http.Request, err error, title string, page func(admintempl.Form) templ.Component, form admintempl.Form) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "Listing not found", http.StatusNotFound)
	case db.IsUniqueViolation(err):
		form.Errors = map[string]string{"slug": slugTakenReason}
		if apiutil.WantsJSON(r) {
			http.Error(w, "slug "+slugTakenReason, http.StatusConflict)
			return
		}
		renderForm(w, r, http.StatusConflict, title, page, form)
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to save listing")
		http.Error(w, "Failed to save listing", http.StatusInternalServerError)
	}
}

// writeInvalid answers a form that failed validation.
func writeInvalid(w http.ResponseWriter, r *http.Request, title string, page func(admintempl.Form) templ.Component, form admintempl.Form) {
	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": form.Errors, "error": form.Error}); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write validation response")
		}
		return
	}
	renderForm(w, r, http.StatusBadRequest, title, page, form)
}

func parseStatusForm(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid listing ID", http.StatusBadRequest)
		return 0, "", false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return 0, "", false
	}
	status := strings.TrimSpace(r.FormValue("status"))
	if status != models.StatusActive && status != models.StatusInactive {
		http.Error(w, "status must be active or inactive", http.StatusBadRequest)
		return 0, "", false
	}
	return id, status, true
}

// Accommodations

func accommodationValues(acc models.Accommodation) url.Values {
	return url.Values{
		"name":         {acc.Name},
		"slug":         {acc.Slug},
		"description":  {acc.Description},
		"unit_type":    {acc.UnitType},
		"max_guests":   {strconv.FormatInt(acc.MaxGuests, 10)},
		"bedrooms":     {strconv.FormatInt(acc.Bedrooms, 10)},
		"nightly_rate": {formatMoney(acc.NightlyRateCents)},
		"cleaning_fee": {formatMoney(acc.CleaningFeeCents)},
		"units":        {strconv.FormatInt(acc.Units, 10)},
		"min_nights":   {strconv.FormatInt(acc.MinNights, 10)},
		"image_url":    {acc.ImageURL},
		"status":       {acc.Status},
	}
}

func accommodationFromForm(values url.Values) (models.Accommodation, map[string]string, string) {
	errs := map[string]string{}
	acc := models.Accommodation{
		Slug:             listingSlug(values),
		Name:             strings.TrimSpace(values.Get("name")),
		Description:      strings.TrimSpace(values.Get("description")),
		UnitType:         strings.TrimSpace(values.Get("unit_type")),
		MaxGuests:        parseField(errs, values, "max_guests", apiutil.ParsePositiveInt64Field),
		Bedrooms:         parseField(errs, values, "bedrooms", apiutil.ParseNonNegativeInt64Field),
		NightlyRateCents: parseField(errs, values, "nightly_rate", apiutil.ParseMoneyField),
		CleaningFeeCents: parseField(errs, values, "cleaning_fee", apiutil.ParseMoneyField),
		Units:            parseField(errs, values, "units", apiutil.ParsePositiveInt64Field),
		MinNights:        parseField(errs, values, "min_nights", apiutil.ParsePositiveInt64Field),
		ImageURL:         strings.TrimSpace(values.Get("image_url")),
		Status:           listingStatus(values),
	}
	if len(errs) > 0 {
		return acc, errs, ""
	}
	if err := acc.Validate(); err != nil {
		return acc, nil, err.Error()
	}
	return acc, nil, ""
}

// GET /admin/accommodations
func HandleAccommodations(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	filter := listFilter(r)
	page, err := catalog.ListAccommodations(ctx, queries, filter)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list accommodations")
		http.Error(w, "Failed to load accommodations", http.StatusInternalServerError)
		return
	}
	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusOK, page); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write accommodations response")
		}
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Accommodations", admintempl.AccommodationsPage(admintempl.AccommodationsData{
		Page:     page,
		Search:   filter.Search,
		Status:   filter.Status,
		Currency: currency,
	}))
}

// GET /admin/accommodations/new
func HandleNewAccommodation(w http.ResponseWriter, r *http.Request) {
	values := accommodationValues(models.Accommodation{MaxGuests: 2, Bedrooms: 1, Units: 1, MinNights: 1, Status: models.StatusActive})
	values.Set("nightly_rate", "")
	values.Set("cleaning_fee", "0.00")
	apiutil.RenderPage(w, r, http.StatusOK, "New accommodation", admintempl.AccommodationFormPage(admintempl.Form{Values: values}))
}

// GET /admin/accommodations/{id}/edit
func HandleEditAccommodation(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid listing ID", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	acc, err := catalog.GetAccommodation(ctx, queries, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Accommodation not found", http.StatusNotFound)
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("accommodation_id", id).Msg("Failed to load accommodation")
		http.Error(w, "Failed to load accommodation", http.StatusInternalServerError)
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Edit accommodation",
		admintempl.AccommodationFormPage(admintempl.Form{ID: acc.ID, Values: accommodationValues(acc)}))
}

// POST /admin/accommodations
// POST /admin/accommodations/{id}
func HandleSaveAccommodation(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	var id int64
	if r.PathValue("id") != "" {
		parsed, err := apiutil.PathID(r, "id")
		if err != nil {
			http.Error(w, "Invalid listing ID", http.StatusBadRequest)
			return
		}
		id = parsed
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	page := func(f admintempl.Form) templ.Component { return admintempl.AccommodationFormPage(f) }
	form := admintempl.Form{ID: id, Values: r.PostForm}
	acc, errs, message := accommodationFromForm(r.PostForm)
	form.Values.Set("slug", acc.Slug)
	if len(errs) > 0 || message != "" {
		form.Errors, form.Error = errs, message
		writeInvalid(w, r, "Accommodation", page, form)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	var saved dbgen.Accommodation
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		if id == 0 {
			var err error
			saved, err = tx.Queries.CreateAccommodation(ctx, dbgen.CreateAccommodationParams{
				Slug:             acc.Slug,
				Name:             acc.Name,
				Description:      acc.Description,
				UnitType:         acc.UnitType,
				MaxGuests:        acc.MaxGuests,
				Bedrooms:         acc.Bedrooms,
				NightlyRateCents: acc.NightlyRateCents,
				CleaningFeeCents: acc.CleaningFeeCents,
				Units:            acc.Units,
				MinNights:        acc.MinNights,
				ImageUrl:         acc.ImageURL,
				Status:           acc.Status,
			})
			return err
		}
		if _, err := tx.Queries.UpdateAccommodation(ctx, dbgen.UpdateAccommodationParams{
			Slug:             acc.Slug,
			Name:             acc.Name,
			Description:      acc.Description,
			UnitType:         acc.UnitType,
			MaxGuests:        acc.MaxGuests,
			Bedrooms:         acc.Bedrooms,
			NightlyRateCents: acc.NightlyRateCents,
			CleaningFeeCents: acc.CleaningFeeCents,
			Units:            acc.Units,
			MinNights:        acc.MinNights,
			ImageUrl:         acc.ImageURL,
			ID:               id,
		}); err != nil {
			return err
		}
		var err error
		saved, err = tx.Queries.UpdateAccommodationStatus(ctx, dbgen.UpdateAccommodationStatusParams{Status: acc.Status, ID: id})
		return err
	})
	if err != nil {
		writeSaveError(w, r, err, "Accommodation", page, form)
		return
	}
	log.Ctx(r.Context()).Info().Int64("accommodation_id", saved.ID).Str("slug", saved.Slug).Bool("created", id == 0).Msg("Accommodation saved")

	if apiutil.WantsJSON(r) {
		status := http.StatusOK
		if id == 0 {
			status = http.StatusCreated
		}
		if err := apiutil.WriteJSON(w, status, models.AccommodationFromDB(saved)); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write accommodation response")
		}
		return
	}
	apiutil.Redirect(w, r, "/admin/accommodations")
}

// POST /admin/accommodations/{id}/status
func HandleAccommodationStatus(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, status, ok := parseStatusForm(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	saved, err := queries.UpdateAccommodationStatus(ctx, dbgen.UpdateAccommodationStatusParams{Status: status, ID: id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Accommodation not found", http.StatusNotFound)
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("accommodation_id", id).Msg("Failed to update accommodation status")
		http.Error(w, "Failed to update accommodation", http.StatusInternalServerError)
		return
	}
	log.Ctx(r.Context()).Info().Int64("accommodation_id", id).Str("status", status).Msg("Accommodation status changed")
	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusOK, models.AccommodationFromDB(saved)); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write accommodation response")
		}
		return
	}
	apiutil.Redirect(w, r, "/admin/accommodations")
}

// Activities

func activityValues(act models.Activity) url.Values {
	return url.Values{
		"name":             {act.Name},
		"slug":             {act.Slug},
		"description":      {act.Description},
		"category":         {act.Category},
		"duration_minutes": {strconv.FormatInt(act.DurationMinutes, 10)},
		"price":            {formatMoney(act.PriceCents)},
		"capacity":         {strconv.FormatInt(act.Capacity, 10)},
		"image_url":        {act.ImageURL},
		"status":           {act.Status},
	}
}

func activityFromForm(values url.Values) (models.Activity, map[string]string, string) {
	errs := map[string]string{}
	act := models.Activity{
		Slug:            listingSlug(values),
		Name:            strings.TrimSpace(values.Get("name")),
		Description:     strings.TrimSpace(values.Get("description")),
		Category:        strings.ToLower(strings.TrimSpace(values.Get("category"))),
		DurationMinutes: parseField(errs, values, "duration_minutes", apiutil.ParsePositiveInt64Field),
		PriceCents:      parseField(errs, values, "price", apiutil.ParseMoneyField),
		Capacity:        parseField(errs, values, "capacity", apiutil.ParsePositiveInt64Field),
		ImageURL:        strings.TrimSpace(values.Get("image_url")),
		Status:          listingStatus(values),
	}
	if len(errs) > 0 {
		return act, errs, ""
	}
	if err := act.Validate(); err != nil {
		return act, nil, err.Error()
	}
	return act, nil, ""
}

// GET /admin/activities
func HandleActivities(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	filter := listFilter(r)
	page, err := catalog.ListActivities(ctx, queries, filter)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list activities")
		http.Error(w, "Failed to load activities", http.StatusInternalServerError)
		return
	}
	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusOK, page); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write activities response")
		}
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Activities", admintempl.ActivitiesPage(admintempl.ActivitiesData{
		Page:     page,
		Search:   filter.Search,
		Status:   filter.Status,
		Currency: currency,
	}))
}

// GET /admin/activities/new
func HandleNewActivity(w http.ResponseWriter, r *http.Request) {
	values := activityValues(models.Activity{Category: "outdoor", DurationMinutes: 60, Capacity: 8, Status: models.StatusActive})
	values.Set("price", "")
	apiutil.RenderPage(w, r, http.StatusOK, "New activity", admintempl.ActivityFormPage(admintempl.Form{Values: values}))
}

// GET /admin/activities/{id}/edit
func HandleEditActivity(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	act, ok := loadActivity(w, r)
	if !ok {
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Edit activity",
		admintempl.ActivityFormPage(admintempl.Form{ID: act.ID, Values: activityValues(act)}))
}

func loadActivity(w http.ResponseWriter, r *http.Request) (models.Activity, bool) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid listing ID", http.StatusBadRequest)
		return models.Activity{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	act, err := catalog.GetActivity(ctx, queries, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Activity not found", http.StatusNotFound)
			return models.Activity{}, false
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("activity_id", id).Msg("Failed to load activity")
		http.Error(w, "Failed to load activity", http.StatusInternalServerError)
		return models.Activity{}, false
	}
	return act, true
}

// POST /admin/activities
// POST /admin/activities/{id}
func HandleSaveActivity(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	var id int64
	if r.PathValue("id") != "" {
		parsed, err := apiutil.PathID(r, "id")
		if err != nil {
			http.Error(w, "Invalid listing ID", http.StatusBadRequest)
			return
		}
		id = parsed
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	page := func(f admintempl.Form) templ.Component { return admintempl.ActivityFormPage(f) }
	form := admintempl.Form{ID: id, Values: r.PostForm}
	act, errs, message := activityFromForm(r.PostForm)
	form.Values.Set("slug", act.Slug)
	if len(errs) > 0 || message != "" {
		form.Errors, form.Error = errs, message
		writeInvalid(w, r, "Activity", page, form)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	var saved dbgen.Activity
	err := database.RunInTx(ctx, func(tx *db.DB) error {
		if id == 0 {
			var err error
			saved, err = tx.Queries.CreateActivity(ctx, dbgen.CreateActivityParams{
				Slug:            act.Slug,
				Name:            act.Name,
				Description:     act.Description,
				Category:        act.Category,
				DurationMinutes: act.DurationMinutes,
				PriceCents:      act.PriceCents,
				Capacity:        act.Capacity,
				ImageUrl:        act.ImageURL,
				Status:          act.Status,
			})
			return err
		}
		if _, err := tx.Queries.UpdateActivity(ctx, dbgen.UpdateActivityParams{
			Slug:            act.Slug,
			Name:            act.Name,
			Description:     act.Description,
			Category:        act.Category,
			DurationMinutes: act.DurationMinutes,
			PriceCents:      act.PriceCents,
			Capacity:        act.Capacity,
			ImageUrl:        act.ImageURL,
			ID:              id,
		}); err != nil {
			return err
		}
		var err error
		saved, err = tx.Queries.UpdateActivityStatus(ctx, dbgen.UpdateActivityStatusParams{Status: act.Status, ID: id})
		return err
	})
	if err != nil {
		writeSaveError(w, r, err, "Activity", page, form)
		return
	}
	log.Ctx(r.Context()).Info().Int64("activity_id", saved.ID).Str("slug", saved.Slug).Bool("created", id == 0).Msg("Activity saved")

	if apiutil.WantsJSON(r) {
		status := http.StatusOK
		if id == 0 {
			status = http.StatusCreated
		}
		if err := apiutil.WriteJSON(w, status, models.ActivityFromDB(saved)); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write activity response")
		}
		return
	}
	apiutil.Redirect(w, r, "/admin/activities")
}

// POST /admin/activities/{id}/status
func HandleActivityStatus(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	id, status, ok := parseStatusForm(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	saved, err := queries.UpdateActivityStatus(ctx, dbgen.UpdateActivityStatusParams{Status: status, ID: id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Activity not found", http.StatusNotFound)
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("activity_id", id).Msg("Failed to update activity status")
		http.Error(w, "Failed to update activity", http.StatusInternalServerError)
		return
	}
	log.Ctx(r.Context()).Info().Int64("activity_id", id).Str("status", status).Msg("Activity status changed")
	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusOK, models.ActivityFromDB(saved)); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write activity response")
		}
		return
	}
	apiutil.Redirect(w, r, "/admin/activities")
}
