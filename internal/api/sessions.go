package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionguard/pkg/jwt"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/useragent"
)

type sessionView struct {
	SessionID    string    `json:"session_id"`
	UserAgent    string    `json:"user_agent"`
	Device       string    `json:"device"`
	IPAddress    string    `json:"ip_address"`
	IsActive     bool      `json:"is_active"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	Current      bool      `json:"current"`
}

func viewOf(s session.Session, currentID string) sessionView {
	return sessionView{
		SessionID:    s.ID,
		UserAgent:    s.UserAgent,
		Device:       useragent.Describe(s.UserAgent).Label(),
		IPAddress:    s.IPAddress,
		IsActive:     s.IsActive,
		LastActivity: s.LastActivity,
		CreatedAt:    s.CreatedAt,
		Current:      s.ID == currentID,
	}
}

// sessionID writes session_required and returns false when the header is missing.
func (h *handlers) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := h.Transport.GetID(r)
	if err != nil {
		writeError(w, ErrSessionRequired, nil)
		return "", false
	}
	return id, true
}

// sessionError answers requests rejected by the registry middleware.
func (h *handlers) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrMissingSessionID):
		writeError(w, ErrSessionRequired, nil)
	case session.IsNotFound(err):
		writeError(w, ErrSessionExpired, nil)
	default:
		h.Logger.ErrorContext(r.Context(), "session lookup", logger.Error(err))
		writeError(w, err, nil)
	}
}

// ping runs behind the registry middleware, which has already touched the
// session.
func (h *handlers) ping(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	h.Scheduler.MaybeRun(r.Context())
	writeData(w, http.StatusOK, viewOf(s, s.ID))
}

func (h *handlers) markInactive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.Registry.MarkInactive(r.Context(), id); err != nil {
		if session.IsNotFound(err) {
			writeError(w, ErrSessionExpired, nil)
			return
		}
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.Registry.CloseSession(r.Context(), id); err != nil {
		writeError(w, ErrSessionNotFound, nil)
		return
	}
	h.Transport.ClearID(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	id, _ := jwt.GetIdentity(r.Context())
	closed := h.Registry.CloseAllSessionsForUser(r.Context(), id.UserID)
	h.Logger.InfoContext(r.Context(), "user logged out",
		logger.UserID(id.UserID),
		logger.Count("closed", closed),
	)
	h.Transport.ClearID(w)
	writeData(w, http.StatusOK, map[string]int{"closed": closed})
}

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	id, _ := jwt.GetIdentity(r.Context())
	currentID, _ := h.Transport.GetID(r)

	sessions := h.Registry.SessionsForUser(id.UserID)
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, viewOf(s, currentID))
	}
	writeData(w, http.StatusOK, views)
}
