package session

import (
	"net/http"
	"strings"
)

// DefaultHeader carries the session id between client and server.
const DefaultHeader = "X-Session-ID"

// HeaderTransport reads and writes the session id in an HTTP header. The
// registry itself never looks at requests; HTTP glue uses this to extract the
// id before calling it.
type HeaderTransport struct {
	headerName string
}

// NewHeaderTransport creates a transport for headerName, or DefaultHeader when empty.
func NewHeaderTransport(headerName string) *HeaderTransport {
	if headerName == "" {
		headerName = DefaultHeader
	}
	return &HeaderTransport{headerName: headerName}
}

// GetID extracts the session id. A missing header yields ErrMissingSessionID.
func (t *HeaderTransport) GetID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(t.headerName))
	if id == "" {
		return "", ErrMissingSessionID
	}
	return id, nil
}

// SetID writes the session id to the response.
func (t *HeaderTransport) SetID(w http.ResponseWriter, id string) {
	w.Header().Set(t.headerName, id)
}

// ClearID removes the session id from the response.
func (t *HeaderTransport) ClearID(w http.ResponseWriter) {
	w.Header().Del(t.headerName)
}
