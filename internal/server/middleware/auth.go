package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notevault/notevault/internal/model"
	"github.com/notevault/notevault/internal/service"
)

// HeaderAPIKey is the request header carrying the credential
// ("<prefix>.<token>").
const HeaderAPIKey = "Api-Key"

type contextKeyAuth string

const authPrincipalKey contextKeyAuth = "auth_principal"

// Authenticate returns an HTTP middleware that resolves the Api-Key header
// to an account. On success the Principal (account ID, key ID, scope) is
// attached to the request context; a missing or unverifiable credential is
// rejected with a 401 JSON error.
//
// Authentication stops here; authorization by scope is enforced per route
// with RequireScope.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := r.Header.Get(HeaderAPIKey)
			if credential == "" {
				writeAuthError(w, http.StatusUnauthorized, "no api key attached to this request")
				return
			}

			principal, err := authSvc.ValidateCredential(r.Context(), credential)
			if err != nil {
				if errors.Is(err, service.ErrInvalidCredentials) {
					writeAuthError(w, http.StatusUnauthorized, "invalid api key")
					return
				}
				writeAuthError(w, http.StatusInternalServerError, "unable to verify api key")
				return
			}

			ctx := context.WithValue(r.Context(), authPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope returns an HTTP middleware that rejects requests whose
// authenticated principal does not hold the required scope (or the "*"
// wildcard) with a 403. It must run after Authenticate.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				writeAuthError(w, http.StatusUnauthorized, "no api key attached to this request")
				return
			}
			if !model.HasScope(principal.Scope, scope) {
				writeAuthError(w, http.StatusForbidden, "api key scope does not permit this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil for unauthenticated requests.
func GetPrincipal(ctx context.Context) *service.Principal {
	if p, ok := ctx.Value(authPrincipalKey).(*service.Principal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: message})
}
