package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/throttle"
)

type loginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	SessionID       string `json:"session_id"`
	UserID          string `json:"user_id"`
	TookOver        bool   `json:"took_over"`
	ClosedCount     int    `json:"closed_count"`
	ActiveElsewhere bool   `json:"active_elsewhere"`
}

func throttleMeta(st throttle.Status) map[string]any {
	if st.Blocked {
		return map[string]any{"remaining_seconds": st.RemainingSeconds}
	}
	return map[string]any{"attempts_left": st.AttemptsLeft}
}

// login exchanges a credential token for a session, enforcing the
// per-device throttle and the takeover policy.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ua, ip := r.UserAgent(), clientip.FromRequest(r)

	if st := h.Throttle.CheckStatus(ua, ip); st.Blocked {
		writeError(w, ErrTooManyAttempts, throttleMeta(st))
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, nil)
		return
	}

	id, err := h.Verifier.Verify(req.Token)
	if err != nil {
		st := h.Throttle.RecordFailure(ua, ip)
		h.Logger.InfoContext(ctx, "login rejected",
			logger.Error(err),
			logger.Fingerprint(fingerprint.GetFingerprintFromContext(ctx)),
			logger.Count("attempts_left", st.AttemptsLeft),
		)
		if st.Blocked {
			writeError(w, ErrTooManyAttempts, throttleMeta(st))
			return
		}
		writeError(w, ErrInvalidCredentials, throttleMeta(st))
		return
	}

	h.Throttle.Reset(ua, ip)
	takeover := h.Registry.AttemptTakeover(ctx, id.UserID, ua, ip)

	sessionID := h.NewSessionID()
	if err := h.Registry.CreateSession(ctx, id.UserID, sessionID, ua, ip); err != nil {
		if !errors.Is(err, session.ErrStorageIO) {
			h.Logger.ErrorContext(ctx, "create session", logger.Error(err), logger.UserID(id.UserID))
			writeError(w, err, nil)
			return
		}
		h.Logger.WarnContext(ctx, "session not persisted", logger.Error(err), logger.SessionID(sessionID))
	}

	h.Transport.SetID(w, sessionID)
	h.Scheduler.MaybeRun(ctx)

	writeData(w, http.StatusCreated, loginResponse{
		SessionID:       sessionID,
		UserID:          id.UserID,
		TookOver:        takeover.TookOver,
		ClosedCount:     takeover.ClosedCount,
		ActiveElsewhere: h.Registry.IsUserActiveElsewhere(id.UserID, sessionID),
	})
}
