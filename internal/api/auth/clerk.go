package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
)

// clerkInitialized indicates whether the Clerk SDK has been initialized
var clerkInitialized bool

// clerkUserLookup fetches the Clerk profile; replaced in tests.
var clerkUserLookup = func(ctx context.Context, id string) (*clerk.User, error) {
	return user.Get(ctx, id)
}

// InitClerk initializes Clerk SDK with the secret key
func InitClerk(secretKey string) {
	if secretKey == "" {
		log.Warn().Msg("Clerk secret key not configured")
		return
	}
	clerk.SetKey(secretKey)
	clerkInitialized = true
	log.Info().Msg("Clerk SDK initialized")
}

// HandleClerkCallback handles the redirect after Clerk authentication.
// It validates the Clerk session, finds or creates the local user, and
// creates a local session.
func HandleClerkCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !clerkInitialized {
		logger.Error().Msg("Clerk not configured")
		http.Error(w, "Authentication service not available", http.StatusServiceUnavailable)
		return
	}

	// Get session claims from Clerk middleware (set by WithClerkSession)
	claims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok || claims == nil {
		logger.Warn().Msg("No Clerk session claims in context")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	clerkUser, err := clerkUserLookup(r.Context(), claims.Subject)
	if err != nil {
		logger.Error().Err(err).Str("clerk_user_id", claims.Subject).Msg("Failed to get Clerk user")
		http.Error(w, "Failed to verify user", http.StatusInternalServerError)
		return
	}

	localUser, err := findLocalUserFromClerk(r.Context(), clerkUser)
	if err != nil {
		if errors.Is(err, errNoClerkEmail) {
			logger.Warn().Str("clerk_user_id", claims.Subject).Msg("Clerk user has no email address")
			http.Error(w, "Your account needs an email address to sign in", http.StatusForbidden)
			return
		}
		logger.Error().Err(err).Msg("Failed to look up local user")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if localUser.Status != userStatusActive {
		logger.Warn().Int64("user_id", localUser.ID).Msg("Disabled user attempted Clerk sign-in")
		http.Error(w, "This account has been disabled", http.StatusForbidden)
		return
	}

	if err := signIn(w, r, localUser, SessionTypeClerk); err != nil {
		logger.Error().Err(err).Int64("user_id", localUser.ID).Msg("Failed to create session")
		http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

var errNoClerkEmail = errors.New("clerk user has no email address")

// findLocalUserFromClerk matches on the linked Clerk ID first, then on the
// primary email, then on any email. A guest is created when nothing matches.
func findLocalUserFromClerk(ctx context.Context, clerkUser *clerk.User) (dbgen.User, error) {
	if queries == nil {
		return dbgen.User{}, errors.New("database not initialized")
	}

	clerkID := sql.NullString{String: clerkUser.ID, Valid: clerkUser.ID != ""}
	if clerkID.Valid {
		existing, err := queries.GetUserByClerkID(ctx, clerkID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return dbgen.User{}, err
		}
	}

	emails := clerkEmails(clerkUser)
	if len(emails) == 0 {
		return dbgen.User{}, errNoClerkEmail
	}

	var local dbgen.User
	found := false
	for _, email := range emails {
		existing, err := queries.GetUserByEmail(ctx, email)
		if err == nil {
			local, found = existing, true
			break
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return dbgen.User{}, err
		}
	}
	if !found {
		created, err := findOrCreateGuest(ctx, emails[0], deref(clerkUser.FirstName), deref(clerkUser.LastName))
		if err != nil {
			return dbgen.User{}, err
		}
		local = created
	}

	if clerkID.Valid && !local.ClerkUserID.Valid {
		if err := queries.SetUserClerkID(ctx, dbgen.SetUserClerkIDParams{ClerkUserID: clerkID, ID: local.ID}); err != nil {
			return dbgen.User{}, err
		}
		local.ClerkUserID = clerkID
	}
	return local, nil
}

// clerkEmails lists the user's addresses, primary first, normalized.
func clerkEmails(clerkUser *clerk.User) []string {
	var emails []string
	if clerkUser.PrimaryEmailAddressID != nil {
		for _, email := range clerkUser.EmailAddresses {
			if email != nil && email.ID == *clerkUser.PrimaryEmailAddressID {
				emails = append(emails, apiutil.NormalizeEmail(email.EmailAddress))
			}
		}
	}
	for _, email := range clerkUser.EmailAddresses {
		if email == nil {
			continue
		}
		normalized := apiutil.NormalizeEmail(email.EmailAddress)
		if normalized == "" || contains(emails, normalized) {
			continue
		}
		emails = append(emails, normalized)
	}
	return emails
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// WithClerkSession is middleware that validates Clerk session tokens
// and adds session claims to the request context
func WithClerkSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !clerkInitialized {
			next.ServeHTTP(w, r)
			return
		}

		// Check for Clerk session cookie
		sessionToken, err := r.Cookie("__session")
		if err != nil {
			// No session cookie, continue without claims
			next.ServeHTTP(w, r)
			return
		}

		// Verify the session token
		claims, err := jwt.Verify(r.Context(), &jwt.VerifyParams{
			Token: sessionToken.Value,
		})
		if err != nil {
			log.Ctx(r.Context()).Debug().Err(err).Msg("Invalid Clerk session token")
			next.ServeHTTP(w, r)
			return
		}

		// Add claims to context
		ctx := clerk.ContextWithSessionClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
