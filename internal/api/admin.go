package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionguard/pkg/cleanup"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/throttle"
)

type statsResponse struct {
	Sessions session.Stats  `json:"sessions"`
	Throttle throttle.Stats `json:"throttle"`
	Cleanup  cleanup.Status `json:"cleanup"`
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, statsResponse{
		Sessions: h.Registry.Stats(),
		Throttle: h.Throttle.Stats(),
		Cleanup:  h.Scheduler.Status(),
	})
}

func (h *handlers) runCleanup(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.Scheduler.RunNow(r.Context()))
}

func (h *handlers) closeUserSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	closed := h.Registry.CloseAllSessionsForUser(r.Context(), userID)
	h.Logger.InfoContext(r.Context(), "sessions closed by admin",
		logger.UserID(userID),
		logger.Count("closed", closed),
	)
	writeData(w, http.StatusOK, map[string]int{"closed": closed})
}
