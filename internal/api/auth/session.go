package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/codr1/Lodgeicious/internal/api/authz"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
)

const (
	authCookieName         = "lodgeicious_auth"
	sessionCookieName      = "lodgeicious_session"
	authSessionTTL         = 8 * time.Hour
	sessionTokenBytes      = 32
	sessionCleanupInterval = 15 * time.Minute

	SessionTypePassword = "password"
	SessionTypeOTP      = "otp"
	SessionTypeClerk    = "clerk"

	userStatusActive = authz.UserStatusActive
)

var errAuthConfigMissing = errors.New("auth configuration missing")

type authSession struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	Role        string `json:"role"`
	SessionType string `json:"session_type"`
	ExpiresAt   int64  `json:"exp"`
}

type sessionRecord struct {
	UserID      int64
	SessionType string
	ExpiresAt   time.Time
}

var (
	sessionMu sync.RWMutex
	// Sessions live in memory; the signed cookie carries users across restarts.
	sessionStore       = make(map[string]sessionRecord)
	sessionCleanupOnce sync.Once
)

func isSecureCookie() bool {
	return appConfig == nil || appConfig.App.Environment != "development"
}

// CreateSession starts a new server-side session, replacing any the user
// already had.
func CreateSession(w http.ResponseWriter, userID int64, sessionType string) error {
	if w == nil {
		return errors.New("session requires response writer")
	}

	startSessionCleanup()

	clearExistingSessionsForUser(userID)

	token, err := newSessionToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(authSessionTTL)
	sessionMu.Lock()
	sessionStore[token] = sessionRecord{
		UserID:      userID,
		SessionType: normalizeSessionType(sessionType),
		ExpiresAt:   expiresAt,
	}
	sessionMu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(authSessionTTL.Seconds()),
	})

	return nil
}

// ClearSession drops the server-side session and both cookies.
func ClearSession(w http.ResponseWriter, r *http.Request) {
	if r != nil {
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			deleteSession(cookie.Value)
		}
	}

	ClearSessionCookie(w)
	expireCookie(w, authCookieName)
}

func ClearSessionCookie(w http.ResponseWriter) {
	expireCookie(w, sessionCookieName)
}

func expireCookie(w http.ResponseWriter, name string) {
	if w == nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// SetAuthCookie writes the HMAC-signed fallback cookie.
func SetAuthCookie(w http.ResponseWriter, user *authz.AuthUser) error {
	if w == nil || user == nil {
		return errors.New("auth session requires response and user")
	}

	if appConfig == nil || appConfig.App.SecretKey == "" {
		return errAuthConfigMissing
	}

	expiresAt := time.Now().Add(authSessionTTL).Unix()
	session := authSession{
		UserID:      user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		Role:        user.Role,
		SessionType: normalizeSessionType(user.SessionType),
		ExpiresAt:   expiresAt,
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	encodedPayload := base64.RawURLEncoding.EncodeToString(payload)
	signature, err := signPayload(encodedPayload)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    encodedPayload + "." + signature,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(expiresAt, 0),
		MaxAge:   int(authSessionTTL.Seconds()),
	})

	return nil
}

// UserFromRequest resolves the signed-in user from the session token, then
// from the signed cookie. Either way the user must still be active.
func UserFromRequest(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, error) {
	user, err := userFromSessionToken(w, r)
	if err != nil || user != nil {
		return user, err
	}

	session, err := parseAuthCookie(r)
	if err != nil || session == nil {
		return nil, err
	}

	if queries != nil {
		row, err := queries.GetUserByID(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				expireCookie(w, authCookieName)
				return nil, nil
			}
			return nil, err
		}
		if row.Status != userStatusActive {
			expireCookie(w, authCookieName)
			return nil, nil
		}
		return authUserFromRow(row, session.SessionType), nil
	}

	return &authz.AuthUser{
		ID:          session.UserID,
		Email:       session.Email,
		FirstName:   session.FirstName,
		Role:        session.Role,
		SessionType: session.SessionType,
	}, nil
}

func userFromSessionToken(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, error) {
	if r == nil {
		return nil, nil
	}

	startSessionCleanup()

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	token := cookie.Value
	session, ok := getSession(token)
	if !ok {
		ClearSessionCookie(w)
		return nil, nil
	}

	if queries == nil {
		ClearSessionCookie(w)
		return nil, errors.New("auth queries not initialized")
	}

	user, err := queries.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		deleteSession(token)
		ClearSessionCookie(w)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if user.Status != userStatusActive {
		deleteSession(token)
		ClearSession(w, nil)
		return nil, nil
	}

	return authUserFromRow(user, session.SessionType), nil
}

func authUserFromRow(user dbgen.User, sessionType string) *authz.AuthUser {
	return &authz.AuthUser{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		SessionType: normalizeSessionType(sessionType),
	}
}

func parseAuthCookie(r *http.Request) (*authSession, error) {
	if r == nil {
		return nil, nil
	}

	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	if appConfig == nil || appConfig.App.SecretKey == "" {
		return nil, errAuthConfigMissing
	}

	parts := strings.SplitN(cookie.Value, ".", 2)
	if len(parts) != 2 {
		return nil, errors.New("invalid auth cookie")
	}

	encodedPayload := parts[0]
	signature := parts[1]
	expectedSignature, err := signPayload(encodedPayload)
	if err != nil {
		return nil, err
	}

	if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
		return nil, errors.New("invalid auth cookie signature")
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, err
	}

	var session authSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}

	session.SessionType = normalizeSessionType(session.SessionType)

	if session.ExpiresAt <= time.Now().Unix() {
		return nil, errors.New("auth session expired")
	}

	return &session, nil
}

func normalizeSessionType(sessionType string) string {
	switch sessionType {
	case SessionTypePassword, SessionTypeOTP, SessionTypeClerk:
		return sessionType
	default:
		return SessionTypePassword
	}
}

func signPayload(payload string) (string, error) {
	if appConfig == nil || appConfig.App.SecretKey == "" {
		return "", errAuthConfigMissing
	}

	mac := hmac.New(sha256.New, []byte(appConfig.App.SecretKey))
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func newSessionToken() (string, error) {
	token := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(token), nil
}

func startSessionCleanup() {
	sessionCleanupOnce.Do(func() {
		// Lazy-start cleanup only when sessions are first used.
		go func() {
			ticker := time.NewTicker(sessionCleanupInterval)
			defer ticker.Stop()
			for range ticker.C {
				pruneExpiredSessions()
			}
		}()
	})
}

func pruneExpiredSessions() {
	now := time.Now()
	sessionMu.Lock()
	for token, session := range sessionStore {
		if session.ExpiresAt.Before(now) {
			delete(sessionStore, token)
		}
	}
	sessionMu.Unlock()
}

func clearExistingSessionsForUser(userID int64) {
	sessionMu.Lock()
	for token, session := range sessionStore {
		if session.UserID == userID {
			delete(sessionStore, token)
		}
	}
	sessionMu.Unlock()
}

// EndSessionsForUser signs a user out everywhere, e.g. after an admin disables them.
func EndSessionsForUser(userID int64) {
	clearExistingSessionsForUser(userID)
}

func getSession(token string) (sessionRecord, bool) {
	sessionMu.RLock()
	session, ok := sessionStore[token]
	sessionMu.RUnlock()
	if !ok {
		return sessionRecord{}, false
	}

	if session.ExpiresAt.Before(time.Now()) {
		deleteSession(token)
		return sessionRecord{}, false
	}

	return session, true
}

func deleteSession(token string) {
	sessionMu.Lock()
	delete(sessionStore, token)
	sessionMu.Unlock()
}
