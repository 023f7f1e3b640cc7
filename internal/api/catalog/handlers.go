// internal/api/catalog/handlers.go
package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/catalog"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/pricing"
	catalogtempl "github.com/codr1/Lodgeicious/internal/templates/components/catalog"
)

const catalogQueryTimeout = 5 * time.Second

var (
	queries  *dbgen.Queries
	checker  *availability.Checker
	currency string
	location = time.UTC
)

type Deps struct {
	Queries  *dbgen.Queries
	Checker  *availability.Checker
	Currency string
	Location *time.Location
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(deps Deps) {
	queries = deps.Queries
	checker = deps.Checker
	currency = deps.Currency
	if deps.Location != nil {
		location = deps.Location
	}
}

func queriesReady(w http.ResponseWriter, r *http.Request) bool {
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	return true
}

// favoritesFor loads the signed-in user's favorites. A failure only costs
// the heart icons, so it is logged and the page still renders.
func favoritesFor(ctx context.Context) (catalog.Favorites, bool) {
	userID := authz.UserID(ctx)
	favs, err := catalog.LoadFavorites(ctx, queries, userID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to load favorites")
		favs = catalog.Favorites{}
	}
	return favs, userID > 0
}

// GET /
func HandleHome(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	featured, err := catalog.LoadFeatured(ctx, queries)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load featured listings")
		http.Error(w, "Failed to load listings", http.StatusInternalServerError)
		return
	}
	favs, loggedIn := favoritesFor(ctx)
	apiutil.RenderPage(w, r, http.StatusOK, "", catalogtempl.HomePage(catalogtempl.HomeData{
		Featured:  featured,
		Favorites: favs,
		LoggedIn:  loggedIn,
		Currency:  currency,
	}))
}

// GET /accommodations
func HandleAccommodations(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	filter := catalog.FilterFromQuery(r.URL.Query())
	page, err := catalog.ListAccommodations(ctx, queries, filter)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list accommodations")
		http.Error(w, "Failed to load accommodations", http.StatusInternalServerError)
		return
	}
	unitTypes, err := queries.ListAccommodationUnitTypes(ctx)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list unit types")
		http.Error(w, "Failed to load accommodations", http.StatusInternalServerError)
		return
	}
	favs, loggedIn := favoritesFor(ctx)
	apiutil.RenderPage(w, r, http.StatusOK, "Stays", catalogtempl.AccommodationsPage(catalogtempl.AccommodationListData{
		Page:      page,
		Query:     filter.Query(),
		Filter:    filter,
		UnitTypes: unitTypes,
		Favorites: favs,
		LoggedIn:  loggedIn,
		Currency:  currency,
	}))
}

// GET /accommodations/{slug}
func HandleAccommodation(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	acc, err := catalog.GetAccommodationBySlug(ctx, queries, r.PathValue("slug"))
	if err == nil && !acc.IsActive() {
		err = catalog.ErrNotFound
	}
	if err != nil {
		writeLookupError(w, r, err, "accommodation")
		return
	}

	favs, loggedIn := favoritesFor(ctx)
	today := time.Now().In(location)
	maxDate := ""
	if checker != nil && checker.MaxAdvanceDays > 0 {
		maxDate = today.AddDate(0, 0, int(checker.MaxAdvanceDays)).Format(pricing.DateLayout)
	}
	apiutil.RenderPage(w, r, http.StatusOK, acc.Name, catalogtempl.AccommodationDetail(catalogtempl.AccommodationDetailData{
		Accommodation: acc,
		Favorite:      favs.Has(catalog.KindAccommodation, acc.ID),
		LoggedIn:      loggedIn,
		Currency:      currency,
		MinDate:       today.Format(pricing.DateLayout),
		MaxDate:       maxDate,
	}))
}

// GET /activities
func HandleActivities(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	filter := catalog.FilterFromQuery(r.URL.Query())
	page, err := catalog.ListActivities(ctx, queries, filter)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list activities")
		http.Error(w, "Failed to load activities", http.StatusInternalServerError)
		return
	}
	categories, err := queries.ListActivityCategories(ctx)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list activity categories")
		http.Error(w, "Failed to load activities", http.StatusInternalServerError)
		return
	}
	favs, loggedIn := favoritesFor(ctx)
	apiutil.RenderPage(w, r, http.StatusOK, "Activities", catalogtempl.ActivitiesPage(catalogtempl.ActivityListData{
		Page:       page,
		Query:      filter.Query(),
		Filter:     filter,
		Categories: categories,
		Favorites:  favs,
		LoggedIn:   loggedIn,
		Currency:   currency,
	}))
}

// GET /activities/{slug}
func HandleActivity(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	act, err := catalog.GetActivityBySlug(ctx, queries, r.PathValue("slug"))
	if err == nil && !act.IsActive() {
		err = catalog.ErrNotFound
	}
	if err != nil {
		writeLookupError(w, r, err, "activity")
		return
	}

	slots, err := catalog.ListUpcomingSlots(ctx, queries, act.ID, time.Now(), catalog.UpcomingSlotLimit)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("activity_id", act.ID).Msg("Failed to list slots")
		http.Error(w, "Failed to load activity", http.StatusInternalServerError)
		return
	}
	for i := range slots {
		slots[i].StartsAt = slots[i].StartsAt.In(location)
	}

	favs, loggedIn := favoritesFor(ctx)
	apiutil.RenderPage(w, r, http.StatusOK, act.Name, catalogtempl.ActivityDetail(catalogtempl.ActivityDetailData{
		Activity: act,
		Slots:    slots,
		Favorite: favs.Has(catalog.KindActivity, act.ID),
		LoggedIn: loggedIn,
		Currency: currency,
	}))
}

// GET /api/v1/accommodations
func HandleAccommodationsAPI(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	page, err := catalog.ListAccommodations(ctx, queries, catalog.FilterFromQuery(r.URL.Query()))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list accommodations")
		http.Error(w, "Failed to load accommodations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, page)
}

// GET /api/v1/activities
func HandleActivitiesAPI(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	page, err := catalog.ListActivities(ctx, queries, catalog.FilterFromQuery(r.URL.Query()))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list activities")
		http.Error(w, "Failed to load activities", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, page)
}

// GET /api/v1/activities/{id}/slots
func HandleSlotsAPI(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	activityID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid activity ID", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	act, err := catalog.GetActivity(ctx, queries, activityID)
	if err == nil && !act.IsActive() {
		err = catalog.ErrNotFound
	}
	if err != nil {
		writeLookupError(w, r, err, "activity")
		return
	}
	slots, err := catalog.ListUpcomingSlots(ctx, queries, act.ID, time.Now(), catalog.UpcomingSlotLimit)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("activity_id", act.ID).Msg("Failed to list slots")
		http.Error(w, "Failed to load slots", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, map[string]any{"activity": act, "slots": slots})
}

type quoteResponse struct {
	Available      bool   `json:"available"`
	Reason         string `json:"reason,omitempty"`
	Nights         int64  `json:"nights,omitempty"`
	LineTotalCents int64  `json:"line_total_cents,omitempty"`
	Currency       string `json:"currency"`
}

// GET /api/v1/accommodations/{id}/quote
//
// The booking widget fires this on every debounced change, so incomplete
// input is answered with a prompt rather than an error status.
func HandleQuote(w http.ResponseWriter, r *http.Request) {
	if !queriesReady(w, r) {
		return
	}
	if checker == nil {
		log.Ctx(r.Context()).Error().Msg("Availability checker not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	accID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid accommodation ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	acc, err := catalog.GetAccommodation(ctx, queries, accID)
	if err != nil {
		writeLookupError(w, r, err, "accommodation")
		return
	}

	query := r.URL.Query()
	data := catalogtempl.QuoteData{
		AccommodationID: acc.ID,
		CheckIn:         strings.TrimSpace(query.Get("check_in")),
		CheckOut:        strings.TrimSpace(query.Get("check_out")),
		Currency:        currency,
	}
	data.Guests, _ = strconv.ParseInt(strings.TrimSpace(query.Get("guests")), 10, 64)
	if data.Guests == 0 {
		data.Guests = 1
	}

	checkIn, inErr := pricing.ParseDate(data.CheckIn)
	checkOut, outErr := pricing.ParseDate(data.CheckOut)
	switch {
	case data.CheckIn == "" || data.CheckOut == "":
		data.Message = "Choose your dates to see the price"
	case inErr != nil || outErr != nil:
		data.Message = "Enter dates as YYYY-MM-DD"
	default:
		result, err := checker.CheckStay(ctx, queries, acc, checkIn, checkOut, data.Guests)
		var unavailable *availability.UnavailableError
		switch {
		case errors.As(err, &unavailable):
			data.Message = unavailable.Reason
		case err != nil:
			log.Ctx(r.Context()).Error().Err(err).Int64("accommodation_id", acc.ID).Msg("Failed to check availability")
			http.Error(w, "Failed to check availability", http.StatusInternalServerError)
			return
		default:
			data.Available = true
			data.Nights = result.Nights
			data.LineCents = result.Line.TotalCents
		}
	}

	if apiutil.WantsJSON(r) {
		writeJSON(w, r, quoteResponse{
			Available:      data.Available,
			Reason:         data.Message,
			Nights:         data.Nights,
			LineTotalCents: data.LineCents,
			Currency:       currency,
		})
		return
	}
	apiutil.RenderHTMLComponent(r.Context(), w, catalogtempl.Quote(data), nil, "Failed to render quote", "Failed to render quote")
}

func writeLookupError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, strings.ToUpper(what[:1])+what[1:]+" not found", http.StatusNotFound)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msgf("Failed to load %s", what)
	http.Error(w, "Failed to load "+what, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	if err := apiutil.WriteJSON(w, http.StatusOK, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}
