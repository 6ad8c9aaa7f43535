package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc pulls a raw token from a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// ErrorHandlerFunc writes the response for a rejected request.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// Verifier turns a raw token into an identity. Service implements it.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Middleware verifies the bearer token and stores the identity in the
// request context. Rejections go to onError, or a bare 401 when nil.
func Middleware(v Verifier, extract TokenExtractorFunc, onError ErrorHandlerFunc) func(http.Handler) http.Handler {
	if extract == nil {
		extract = BearerTokenExtractor
	}
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extract(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			id, err := v.Verify(token)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects requests whose identity lacks role with ErrForbidden.
// It must run after Middleware.
func RequireRole(role string, onError ErrorHandlerFunc) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok || !id.HasRole(role) {
				onError(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
