package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/api/htmx"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WantsJSON reports whether the client asked for JSON rather than HTML.
func WantsJSON(r *http.Request) bool {
	if htmx.IsRequest(r) {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RenderHTMLComponent buffers the component so a failed render can still
// send a clean 500. It returns false when the response was an error.
func RenderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, headers map[string]string, logMsg, errMsg string) bool {
	return RenderHTMLComponentStatus(ctx, w, http.StatusOK, component, headers, logMsg, errMsg)
}

func RenderHTMLComponentStatus(ctx context.Context, w http.ResponseWriter, status int, component templ.Component, headers map[string]string, logMsg, errMsg string) bool {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMsg)
		http.Error(w, errMsg, http.StatusInternalServerError)
		return false
	}

	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to write HTML response")
		return false
	}
	return true
}

// Redirect sends htmx clients an HX-Redirect header and everyone else a 303.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if htmx.IsRequest(r) {
		htmx.Redirect(w, target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// WriteError maps FieldError and HandlerError onto responses; anything else
// is logged and reported as a 500 with fallback as the message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var fieldErr FieldError
	if errors.As(err, &fieldErr) {
		http.Error(w, fieldErr.Error(), http.StatusBadRequest)
		return
	}
	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		if handlerErr.Status >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(handlerErr.Err).Msg(handlerErr.Message)
		}
		http.Error(w, handlerErr.Message, handlerErr.Status)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg(fallback)
	http.Error(w, fallback, http.StatusInternalServerError)
}

// RequireUser writes 401 (or a login redirect for browsers) when the request
// is anonymous.
func RequireUser(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, bool) {
	user, err := authz.RequireUser(r.Context())
	if err != nil {
		if WantsJSON(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return nil, false
		}
		Redirect(w, r, LoginURL(r))
		return nil, false
	}
	return user, true
}

// LoginURL points at the login page with a return path to the current page.
func LoginURL(r *http.Request) string {
	next := r.URL.RequestURI()
	if htmx.IsRequest(r) {
		if current := htmx.CurrentPath(r); current != "" {
			next = current
		}
	}
	return "/login?next=" + urlQueryEscape(next)
}

// RequireAdmin writes 401 or 403 and logs the denial.
func RequireAdmin(w http.ResponseWriter, r *http.Request) bool {
	logger := log.Ctx(r.Context())
	user := authz.UserFromContext(r.Context())
	if err := authz.RequireRole(r.Context(), authz.RoleAdmin); err != nil {
		switch {
		case errors.Is(err, authz.ErrUnauthenticated):
			logger.Warn().Msg("Admin access denied: unauthenticated")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case errors.Is(err, authz.ErrForbidden):
			logEvent := logger.Warn()
			if user != nil {
				logEvent = logEvent.Int64("user_id", user.ID)
			}
			logEvent.Msg("Admin access denied: forbidden")
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			logger.Error().Err(err).Msg("Admin access denied: error")
			http.Error(w, "Failed to authorize request", http.StatusInternalServerError)
		}
		return false
	}
	return true
}
