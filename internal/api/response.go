package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// Error is an HTTP error with a stable machine-readable code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e Error) Error() string {
	return e.Code
}

var (
	ErrBadRequest         = Error{Status: http.StatusBadRequest, Code: "bad_request", Message: "Malformed request body."}
	ErrUnauthorized       = Error{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Authentication required."}
	ErrTokenExpired       = Error{Status: http.StatusUnauthorized, Code: "token_expired", Message: "Token has expired."}
	ErrInvalidCredentials = Error{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "Invalid credentials."}
	ErrSessionRequired    = Error{Status: http.StatusUnauthorized, Code: "session_required", Message: "Session id header is missing."}
	ErrSessionExpired     = Error{Status: http.StatusUnauthorized, Code: "session_expired", Message: "Session expired, log in again."}
	ErrForbidden          = Error{Status: http.StatusForbidden, Code: "forbidden", Message: "Insufficient permissions."}
	ErrSessionNotFound    = Error{Status: http.StatusNotFound, Code: "session_not_found", Message: "Session not found."}
	ErrTooManyAttempts    = Error{Status: http.StatusTooManyRequests, Code: "too_many_attempts", Message: "Too many failed attempts, try again later."}
	ErrInternal           = Error{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error."}
)

type envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

// writeError renders err. Errors that are not an Error become internal_error.
func writeError(w http.ResponseWriter, err error, meta map[string]any) {
	var apiErr Error
	if !errors.As(err, &apiErr) {
		apiErr = ErrInternal
	}
	if secs, ok := meta["remaining_seconds"].(int); ok && apiErr.Status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, apiErr.Status, envelope{Error: &errorDetail{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Meta:    meta,
	}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
