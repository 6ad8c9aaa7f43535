package session

import (
	"net/http"
)

// Middleware treats every request as an activity ping: it touches the session
// named by the transport and stores a snapshot in the request context.
// Requests are rejected through onError with ErrMissingSessionID when the id
// is absent, or with a NotFound-class error when the session is gone. A nil
// onError answers with a bare 401.
func (r *Registry) Middleware(t *HeaderTransport, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id, err := t.GetID(req)
			if err != nil {
				onError(w, req, err)
				return
			}
			if err := r.TouchActivity(req.Context(), id); err != nil {
				if IsNotFound(err) {
					t.ClearID(w)
				}
				onError(w, req, err)
				return
			}
			s, ok := r.Session(id)
			if !ok {
				t.ClearID(w)
				onError(w, req, ErrSessionNotFound)
				return
			}
			next.ServeHTTP(w, req.WithContext(WithSession(req.Context(), s)))
		})
	}
}
