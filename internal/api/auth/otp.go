package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/cognito"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/ratelimit"
	authtempl "github.com/codr1/Lodgeicious/internal/templates/components/auth"
)

const (
	otpChallengeTTL = 10 * time.Minute
	otpTimeout      = 10 * time.Second
	devCodeDigits   = 6
)

// otpChallenge is the pending state between sending and verifying a code:
// the Cognito session, or the locally generated code in development.
type otpChallenge struct {
	session   string
	devCode   string
	expiresAt time.Time
}

var (
	challengeMu sync.Mutex
	challenges  = make(map[string]otpChallenge)
)

func putChallenge(email string, c otpChallenge) {
	challengeMu.Lock()
	defer challengeMu.Unlock()
	now := time.Now()
	for key, existing := range challenges {
		if existing.expiresAt.Before(now) {
			delete(challenges, key)
		}
	}
	challenges[email] = c
}

func takeChallenge(email string) (otpChallenge, bool) {
	challengeMu.Lock()
	defer challengeMu.Unlock()
	c, ok := challenges[email]
	if !ok || c.expiresAt.Before(time.Now()) {
		delete(challenges, email)
		return otpChallenge{}, false
	}
	return c, true
}

func dropChallenge(email string) {
	challengeMu.Lock()
	delete(challenges, email)
	challengeMu.Unlock()
}

func trustProxy() bool {
	return appConfig != nil && appConfig.Auth.TrustProxy
}

func writeThrottled(w http.ResponseWriter, r *http.Request, result ratelimit.Result, data authtempl.OTPData, verify bool) {
	w.Header().Set("Retry-After", strconv.Itoa(ratelimit.RetryAfterSeconds(result.RetryAfter)))
	data.Error = "Too many attempts. Please try again later."
	component := authtempl.OTPRequestForm(data)
	if verify {
		component = authtempl.OTPVerifyForm(data)
	}
	apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusTooManyRequests, component, nil, "Failed to render OTP form", "Failed to render form")
}

// POST /auth/otp/send
func HandleSendCode(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !otpEnabled() {
		http.Error(w, "One-time codes are not available", http.StatusServiceUnavailable)
		return
	}

	email := apiutil.NormalizeEmail(r.FormValue("email"))
	data := authtempl.OTPData{Email: email, Next: apiutil.SafeNext(r.FormValue("next"))}
	if !apiutil.ValidEmail(email) {
		data.Error = "Enter a valid email address"
		apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusBadRequest, authtempl.OTPRequestForm(data), nil, "Failed to render OTP form", "Failed to render form")
		return
	}

	ip := ratelimit.GetClientIP(r, trustProxy())
	if otpLimiter != nil {
		if result := otpLimiter.CheckSend(email, ip); !result.Allowed {
			ratelimit.LogExceeded("otp_send", email, ip, result.Reason)
			writeThrottled(w, r, result, data, false)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), otpTimeout)
	defer cancel()

	challenge, err := startChallenge(ctx, email)
	if err != nil {
		if errors.Is(err, cognito.ErrThrottled) {
			writeThrottled(w, r, ratelimit.Result{RetryAfter: time.Minute}, data, false)
			return
		}
		logger.Error().Err(err).Str("email", ratelimit.SanitizeIdentifier(email)).Msg("Failed to send one-time code")
		data.Error = "We could not send a code right now"
		apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusBadGateway, authtempl.OTPRequestForm(data), nil, "Failed to render OTP form", "Failed to render form")
		return
	}
	if otpLimiter != nil {
		otpLimiter.RecordSend(email, ip)
	}
	putChallenge(email, challenge)

	data.Message = "We sent a code to " + email
	apiutil.RenderHTMLComponent(r.Context(), w, authtempl.OTPVerifyForm(data), nil, "Failed to render OTP form", "Failed to render form")
}

func startChallenge(ctx context.Context, email string) (otpChallenge, error) {
	expiresAt := time.Now().Add(otpChallengeTTL)
	if otpClient != nil {
		session, err := otpClient.InitiateEmailOTP(ctx, email)
		if err != nil {
			return otpChallenge{}, err
		}
		return otpChallenge{session: session, expiresAt: expiresAt}, nil
	}

	code, err := newDevCode()
	if err != nil {
		return otpChallenge{}, err
	}
	log.Ctx(ctx).Info().Str("email", email).Str("code", code).Msg("Development one-time code")
	return otpChallenge{devCode: code, expiresAt: expiresAt}, nil
}

func newDevCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", devCodeDigits, n.Int64()), nil
}

// POST /auth/otp/verify
func HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		logger.Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	email := apiutil.NormalizeEmail(r.FormValue("email"))
	code := strings.TrimSpace(r.FormValue("code"))
	data := authtempl.OTPData{Email: email, Next: apiutil.SafeNext(r.FormValue("next"))}
	if email == "" || code == "" {
		data.Error = "Enter the code we emailed you"
		apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusBadRequest, authtempl.OTPVerifyForm(data), nil, "Failed to render OTP form", "Failed to render form")
		return
	}

	ip := ratelimit.GetClientIP(r, trustProxy())
	if otpLimiter != nil {
		if result := otpLimiter.CheckVerify(email, ip); !result.Allowed {
			ratelimit.LogExceeded("otp_verify", email, ip, result.Reason)
			writeThrottled(w, r, result, data, true)
			return
		}
	}

	challenge, ok := takeChallenge(email)
	if !ok {
		data.Error = "That code has expired. Request a new one."
		apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusBadRequest, authtempl.OTPRequestForm(data), nil, "Failed to render OTP form", "Failed to render form")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), otpTimeout)
	defer cancel()

	if err := checkChallenge(ctx, challenge, email, code); err != nil {
		if otpLimiter != nil && otpLimiter.RecordVerify(email, ip) {
			dropChallenge(email)
		}
		switch {
		case errors.Is(err, cognito.ErrCodeMismatch):
			data.Error = "That code is not correct"
		case errors.Is(err, cognito.ErrExpiredCode), errors.Is(err, cognito.ErrNotAuthorized):
			dropChallenge(email)
			data.Error = "That code has expired. Request a new one."
		default:
			logger.Error().Err(err).Msg("Failed to verify one-time code")
			data.Error = "We could not verify the code right now"
		}
		apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusUnauthorized, authtempl.OTPVerifyForm(data), nil, "Failed to render OTP form", "Failed to render form")
		return
	}
	dropChallenge(email)
	if otpLimiter != nil {
		otpLimiter.ResetVerify(email)
	}

	user, err := findOrCreateGuest(ctx, email, "", "")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load user after OTP")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	if user.Status != userStatusActive {
		data.Error = "This account has been disabled"
		apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusForbidden, authtempl.OTPRequestForm(data), nil, "Failed to render OTP form", "Failed to render form")
		return
	}

	if err := signIn(w, r, user, SessionTypeOTP); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	apiutil.Redirect(w, r, data.Next)
}

// checkChallenge keeps the challenge in place on a wrong code so the guest
// can retry within the lockout budget.
func checkChallenge(ctx context.Context, c otpChallenge, email, code string) error {
	if c.session != "" {
		err := otpClient.VerifyEmailOTP(ctx, c.session, email, code)
		if errors.Is(err, cognito.ErrCodeMismatch) {
			putChallenge(email, c)
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(c.devCode), []byte(code)) != 1 {
		putChallenge(email, c)
		return cognito.ErrCodeMismatch
	}
	return nil
}

// findOrCreateGuest returns the account for email, creating a guest account
// on first sign-in through a passwordless or third-party provider.
func findOrCreateGuest(ctx context.Context, email, firstName, lastName string) (dbgen.User, error) {
	user, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return dbgen.User{}, err
	}
	if firstName == "" {
		firstName = strings.SplitN(email, "@", 2)[0]
	}
	user, err = queries.CreateUser(ctx, dbgen.CreateUserParams{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      authz.RoleGuest,
	})
	if err != nil {
		return dbgen.User{}, fmt.Errorf("create guest: %w", err)
	}
	log.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("Guest account created on first sign-in")
	return user, nil
}
