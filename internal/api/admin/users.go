// internal/api/admin/users.go
package admin

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/auth"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	admintempl "github.com/codr1/Lodgeicious/internal/templates/components/admin"
)

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u dbgen.User, _ int) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

// GET /admin/users
func HandleUsers(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	query := r.URL.Query()
	search := strings.TrimSpace(query.Get("q"))
	page, perPage := models.PagingFromQuery(query)

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	total, err := queries.CountUsers(ctx, search)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to count users")
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}
	rows, err := queries.ListUsers(ctx, dbgen.ListUsersParams{
		Search: search,
		Limit:  perPage,
		Offset: models.Offset(page, perPage),
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list users")
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}

	if apiutil.WantsJSON(r) {
		resp := models.Page[userResponse]{
			Items:   lo.Map(rows, toUserResponse),
			Page:    page,
			PerPage: perPage,
			Total:   total,
		}
		if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write users response")
		}
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Users", admintempl.UsersPage(admintempl.UsersData{
		Page:          models.Page[dbgen.User]{Items: rows, Page: page, PerPage: perPage, Total: total},
		Search:        search,
		CurrentUserID: authz.UserID(r.Context()),
	}))
}

// changeUser applies update to the user named in the path. Admins cannot
// change their own account.
func changeUser(w http.ResponseWriter, r *http.Request, field, value string, update func(context.Context, int64) (dbgen.User, error)) {
	logger := log.Ctx(r.Context())
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	actor := authz.UserFromContext(r.Context())
	if !authz.CanChangeAccount(actor, id) {
		logger.Warn().Int64("target_user_id", id).Str("field", field).Msg("Refused account change")
		http.Error(w, "You cannot change your own account", http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	user, err := update(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("target_user_id", id).Str("field", field).Msg("Failed to update user")
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	// Sessions carry the role, so any change forces a fresh sign-in.
	auth.EndSessionsForUser(user.ID)
	logger.Info().
		Int64("admin_user_id", actor.ID).
		Int64("target_user_id", user.ID).
		Str(field, value).
		Msg("User account changed")

	switch {
	case apiutil.WantsJSON(r):
		if err := apiutil.WriteJSON(w, http.StatusOK, toUserResponse(user, 0)); err != nil {
			logger.Error().Err(err).Msg("Failed to write user response")
		}
	case plainForm(r):
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	default:
		apiutil.RenderHTMLComponent(r.Context(), w, admintempl.UserRow(user, actor.ID), nil,
			"Failed to render user", "Failed to render user")
	}
}

// POST /admin/users/{id}/role
func HandleUserRole(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	role := strings.TrimSpace(r.FormValue("role"))
	if !authz.IsKnownRole(role) {
		http.Error(w, "Unknown role", http.StatusBadRequest)
		return
	}
	changeUser(w, r, "role", role, func(ctx context.Context, id int64) (dbgen.User, error) {
		return queries.UpdateUserRole(ctx, dbgen.UpdateUserRoleParams{Role: role, ID: id})
	})
}

// POST /admin/users/{id}/status
func HandleUserStatus(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	status := strings.TrimSpace(r.FormValue("status"))
	if !authz.IsKnownUserStatus(status) {
		http.Error(w, "Unknown status", http.StatusBadRequest)
		return
	}
	changeUser(w, r, "status", status, func(ctx context.Context, id int64) (dbgen.User, error) {
		return queries.UpdateUserStatus(ctx, dbgen.UpdateUserStatusParams{Status: status, ID: id})
	})
}
