// internal/api/favorites/handlers.go
package favorites

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/catalog"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	catalogtempl "github.com/codr1/Lodgeicious/internal/templates/components/catalog"
	favoritestempl "github.com/codr1/Lodgeicious/internal/templates/components/favorites"
)

const favoritesQueryTimeout = 5 * time.Second

var (
	queries  *dbgen.Queries
	currency string
)

type Deps struct {
	Queries  *dbgen.Queries
	Currency string
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(deps Deps) {
	queries = deps.Queries
	currency = deps.Currency
}

type toggleResponse struct {
	Kind     string `json:"kind"`
	ID       int64  `json:"id"`
	Favorite bool   `json:"favorite"`
}

type listResponse struct {
	Accommodations []models.Accommodation `json:"accommodations"`
	Activities     []models.Activity      `json:"activities"`
}

// GET /favorites
func HandleFavorites(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), favoritesQueryTimeout)
	defer cancel()

	accRows, err := queries.ListFavoriteAccommodations(ctx, user.ID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list favorite accommodations")
		http.Error(w, "Failed to load favorites", http.StatusInternalServerError)
		return
	}
	actRows, err := queries.ListFavoriteActivities(ctx, user.ID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list favorite activities")
		http.Error(w, "Failed to load favorites", http.StatusInternalServerError)
		return
	}

	data := favoritestempl.PageData{Currency: currency}
	for _, row := range accRows {
		if acc := models.AccommodationFromDB(row); acc.IsActive() {
			data.Accommodations = append(data.Accommodations, acc)
		}
	}
	for _, row := range actRows {
		if act := models.ActivityFromDB(row); act.IsActive() {
			data.Activities = append(data.Activities, act)
		}
	}

	if apiutil.WantsJSON(r) {
		resp := listResponse{Accommodations: data.Accommodations, Activities: data.Activities}
		if resp.Accommodations == nil {
			resp.Accommodations = []models.Accommodation{}
		}
		if resp.Activities == nil {
			resp.Activities = []models.Activity{}
		}
		if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write favorites response")
		}
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Saved", favoritestempl.FavoritesPage(data))
}

// POST /favorites/{kind}/{id}
func HandleToggle(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	kind := r.PathValue("kind")
	if !catalog.IsKind(kind) {
		http.Error(w, "Unknown listing type", http.StatusNotFound)
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid listing ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), favoritesQueryTimeout)
	defer cancel()

	if err := listingExists(ctx, kind, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Listing not found", http.StatusNotFound)
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Str("kind", kind).Int64("item_id", id).Msg("Failed to load listing")
		http.Error(w, "Failed to update favorites", http.StatusInternalServerError)
		return
	}

	on, err := toggle(ctx, user.ID, kind, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("user_id", user.ID).Str("kind", kind).Int64("item_id", id).Msg("Failed to toggle favorite")
		http.Error(w, "Failed to update favorites", http.StatusInternalServerError)
		return
	}
	log.Ctx(r.Context()).Debug().Int64("user_id", user.ID).Str("kind", kind).Int64("item_id", id).Bool("favorite", on).Msg("Favorite toggled")

	if apiutil.WantsJSON(r) {
		if err := apiutil.WriteJSON(w, http.StatusOK, toggleResponse{Kind: kind, ID: id, Favorite: on}); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write favorite response")
		}
		return
	}
	apiutil.RenderHTMLComponent(r.Context(), w, catalogtempl.FavoriteButton(kind, id, on, true), nil,
		"Failed to render favorite button", "Failed to render favorite button")
}

func listingExists(ctx context.Context, kind string, id int64) error {
	if kind == catalog.KindAccommodation {
		_, err := catalog.GetAccommodation(ctx, queries, id)
		return err
	}
	_, err := catalog.GetActivity(ctx, queries, id)
	return err
}

// toggle flips the favorite and reports whether it is now set.
func toggle(ctx context.Context, userID int64, kind string, id int64) (bool, error) {
	params := dbgen.AddFavoriteParams{UserID: userID, ItemType: kind, ItemID: id}
	count, err := queries.IsFavorite(ctx, dbgen.IsFavoriteParams(params))
	if err != nil {
		return false, err
	}
	if count > 0 {
		_, err := queries.RemoveFavorite(ctx, dbgen.RemoveFavoriteParams(params))
		return false, err
	}
	return true, queries.AddFavorite(ctx, params)
}
