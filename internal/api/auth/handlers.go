package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/config"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/ratelimit"
	authtempl "github.com/codr1/Lodgeicious/internal/templates/components/auth"
)

const (
	devEnvironment    = "development"
	minPasswordLength = 8
	authQueryTimeout  = 5 * time.Second
)

var (
	appConfig  *config.Config
	queries    *dbgen.Queries
	carts      *cart.Service
	otpClient  OTPClient
	otpLimiter *ratelimit.OTPLimiter
)

// OTPClient is the passwordless provider, Cognito in production.
type OTPClient interface {
	InitiateEmailOTP(ctx context.Context, email string) (string, error)
	VerifyEmailOTP(ctx context.Context, session, email, code string) error
}

type Deps struct {
	Config     *config.Config
	Queries    *dbgen.Queries
	Carts      *cart.Service
	OTP        OTPClient
	OTPLimiter *ratelimit.OTPLimiter
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(deps Deps) {
	appConfig = deps.Config
	queries = deps.Queries
	carts = deps.Carts
	otpClient = deps.OTP
	otpLimiter = deps.OTPLimiter
}

func otpEnabled() bool {
	return otpClient != nil || isDevelopment()
}

func isDevelopment() bool {
	return appConfig != nil && appConfig.App.Environment == devEnvironment
}

func loginData(r *http.Request) authtempl.LoginData {
	data := authtempl.LoginData{
		Next:       apiutil.SafeNext(r.FormValue("next")),
		OTPEnabled: otpEnabled(),
	}
	if appConfig != nil && clerkInitialized {
		data.ClerkSignIn = appConfig.Auth.ClerkSignInURL
	}
	return data
}

// GET /login
func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if authz.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, apiutil.SafeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Sign in", authtempl.LoginPage(loginData(r)))
}

// POST /login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	data := loginData(r)
	data.Email = apiutil.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	if data.Email == "" || password == "" {
		data.Error = "Email and password are required"
		apiutil.RenderPage(w, r, http.StatusBadRequest, "Sign in", authtempl.LoginPage(data))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	user, err := queries.GetUserByEmail(ctx, data.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msg("Failed to look up user for login")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err != nil || !user.PasswordHash.Valid || !VerifyPassword(user.PasswordHash.String, password) {
		logger.Info().Str("email", ratelimit.SanitizeIdentifier(data.Email)).Msg("Login failed")
		data.Error = "Invalid email or password"
		apiutil.RenderPage(w, r, http.StatusUnauthorized, "Sign in", authtempl.LoginPage(data))
		return
	}
	if user.Status != userStatusActive {
		logger.Warn().Int64("user_id", user.ID).Msg("Disabled user attempted login")
		data.Error = "This account has been disabled"
		apiutil.RenderPage(w, r, http.StatusForbidden, "Sign in", authtempl.LoginPage(data))
		return
	}

	if err := signIn(w, r, user, SessionTypePassword); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	apiutil.Redirect(w, r, data.Next)
}

// GET /register
func HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	data := authtempl.RegisterData{Next: apiutil.SafeNext(r.URL.Query().Get("next"))}
	apiutil.RenderPage(w, r, http.StatusOK, "Register", authtempl.RegisterPage(data))
}

type registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

func (reg registration) validate() map[string]string {
	errs := make(map[string]string)
	if reg.FirstName == "" {
		errs["first_name"] = "is required"
	}
	if reg.LastName == "" {
		errs["last_name"] = "is required"
	}
	if !apiutil.ValidEmail(reg.Email) {
		errs["email"] = "must be a valid email address"
	}
	if len(reg.Password) < minPasswordLength {
		errs["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	}
	return errs
}

// POST /register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	reg := registration{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     apiutil.NormalizeEmail(r.FormValue("email")),
		Password:  r.FormValue("password"),
	}
	data := authtempl.RegisterData{
		Next:      apiutil.SafeNext(r.FormValue("next")),
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
	}
	if errs := reg.validate(); len(errs) > 0 {
		data.Errors = errs
		apiutil.RenderPage(w, r, http.StatusBadRequest, "Register", authtempl.RegisterPage(data))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	if _, err := queries.GetUserByEmail(ctx, reg.Email); err == nil {
		data.Error = "An account with that email already exists"
		apiutil.RenderPage(w, r, http.StatusConflict, "Register", authtempl.RegisterPage(data))
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msg("Failed to check existing user")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := queries.CreateUser(ctx, dbgen.CreateUserParams{
		Email:        reg.Email,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Role:         authz.RoleGuest,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create user")
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}
	logger.Info().Int64("user_id", user.ID).Msg("User registered")

	if err := signIn(w, r, user, SessionTypePassword); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	apiutil.Redirect(w, r, data.Next)
}

// POST /logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	ClearSession(w, r)
	apiutil.Redirect(w, r, "/")
}

// signIn starts a session for user and carries the browser's cart over to
// the account.
func signIn(w http.ResponseWriter, r *http.Request, user dbgen.User, sessionType string) error {
	if err := CreateSession(w, user.ID, sessionType); err != nil {
		return err
	}

	authUser := authUserFromRow(user, sessionType)
	if err := SetAuthCookie(w, authUser); err != nil {
		if !errors.Is(err, errAuthConfigMissing) {
			return err
		}
		log.Ctx(r.Context()).Warn().Msg("APP_SECRET_KEY not set; sessions will not survive a restart")
	}

	if carts == nil {
		return nil
	}
	token := cart.TokenFromContext(r.Context())
	c, err := carts.AttachUser(r.Context(), queries, token, user.ID)
	switch {
	case errors.Is(err, cart.ErrNoCart):
		return nil
	case err != nil:
		// The sign-in itself succeeded.
		log.Ctx(r.Context()).Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to attach cart")
		return nil
	}
	if c.Token != token {
		apiutil.SetCartCookie(w, c.Token, isSecureCookie())
	}
	return nil
}
