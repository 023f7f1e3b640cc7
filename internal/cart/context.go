package cart

import "context"

// CookieName holds the opaque cart token.
const CookieName = "lodgeicious_cart"

type tokenContextKey struct{}

func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the request's cart token, or "" before the first add.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}
