package auth

import (
	"context"
	"net/http"

	"github.com/sakif/pressroom/internal/identity"
)

// contextKey is an unexported type for context keys in this package.
// A package-private key type means no other package can read or shadow the
// principal we store — collisions are impossible by construction.
type contextKey string

const principalKey contextKey = "principal"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the "token" HttpOnly cookie, validates it, and
// stores the reconstructed identity.Principal in the request context. If
// the token is missing or invalid it returns 401 and stops the chain —
// mutating operations must never proceed without a verified identity.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := extractPrincipal(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"error":{"kind":"auth","message":"you must be signed in"}}`))
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext retrieves the verified request identity.
// Returns (zero, false) for anonymous requests.
//
// Handlers pass the principal EXPLICITLY into the service layer — the
// context is only the hand-off between middleware and handler, never a
// hidden channel the core reads on its own.
func PrincipalFromContext(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok && p.SubjectID != ""
}

// extractPrincipal reads the JWT cookie and validates it.
func extractPrincipal(r *http.Request, tokens *TokenService) (identity.Principal, error) {
	cookie, err := r.Cookie("token")
	if err != nil {
		return identity.Principal{}, err
	}
	return tokens.Validate(cookie.Value)
}
