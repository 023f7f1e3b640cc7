package authz

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RoleGuest = "guest"
	RoleAdmin = "admin"

	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

type AuthUser struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	Role        string
	SessionType string
}

func (u *AuthUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// UserID returns the signed-in user's ID, or 0 for anonymous requests.
func UserID(ctx context.Context) int64 {
	if user := UserFromContext(ctx); user != nil {
		return user.ID
	}
	return 0
}

func IsAdmin(ctx context.Context) bool {
	return UserFromContext(ctx).IsAdmin()
}

func SessionTypeFromContext(ctx context.Context) string {
	user := UserFromContext(ctx)
	if user == nil {
		return ""
	}
	return user.SessionType
}

// RequireUser fails with ErrUnauthenticated for anonymous requests.
func RequireUser(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequireRole checks the signed-in user holds role. Admins satisfy every role.
func RequireRole(ctx context.Context, role string) error {
	user, err := RequireUser(ctx)
	if err != nil {
		return err
	}
	if user.Role == role || user.Role == RoleAdmin {
		return nil
	}
	return ErrForbidden
}

// CanChangeAccount reports whether actor may change target's role or status.
// Admins may not demote or disable themselves.
func CanChangeAccount(actor *AuthUser, targetID int64) bool {
	return actor.IsAdmin() && actor.ID != targetID
}

func IsKnownUserStatus(status string) bool {
	return status == UserStatusActive || status == UserStatusDisabled
}

func IsKnownRole(role string) bool {
	return role == RoleGuest || role == RoleAdmin
}
