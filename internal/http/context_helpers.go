package httpx

import (
	"context"
	"net/http"
)

// Authorizer context headers, populated by the API gateway after it has
// validated the caller's identity. Handlers trust them as pre-validated.
const (
	HeaderAuthUsername  = "X-Auth-Username"
	HeaderAuthSessionID = "X-Auth-Session-Id"
)

// AuthContext is the caller identity extracted from the authorizer headers.
type AuthContext struct {
	Username  string
	SessionID string
}

// Valid reports whether both identity fields are present.
func (a AuthContext) Valid() bool {
	return a.Username != "" && a.SessionID != ""
}

type authContextKey struct{}

// SetAuthInContext stores the caller identity in the request context.
func SetAuthInContext(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// AuthFromContext retrieves the caller identity from the request context.
// The zero value is returned when the authorizer middleware did not run.
func AuthFromContext(ctx context.Context) AuthContext {
	auth, _ := ctx.Value(authContextKey{}).(AuthContext)
	return auth
}

// AuthorizerContext returns a middleware that lifts the gateway's authorizer
// headers into the request context for downstream handlers.
func AuthorizerContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := AuthContext{
				Username:  r.Header.Get(HeaderAuthUsername),
				SessionID: r.Header.Get(HeaderAuthSessionID),
			}
			next.ServeHTTP(w, r.WithContext(SetAuthInContext(r.Context(), auth)))
		})
	}
}
