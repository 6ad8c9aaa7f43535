package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

// Reasons a session leaves the registry, used in logs.
const (
	reasonClosed   = "closed"
	reasonExpired  = "expired"
	reasonTakeover = "takeover"
	reasonSweep    = "sweep"
)

// TakeoverResult is the outcome of AttemptTakeover.
type TakeoverResult struct {
	// Allowed is always true: the registry never blocks a login.
	Allowed     bool `json:"allowed"`
	TookOver    bool `json:"took_over"`
	ClosedCount int  `json:"closed_count"`
}

// Stats is a snapshot of the registry.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// Registry is the authoritative set of live sessions. Every mutation is
// serialized by one mutex and mirrored to the Store while the lock is held,
// so operations on the same session id are applied in call order on both
// sides.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store  Store
	config Config
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates a registry and repopulates it from the store. Records that are
// invalid or already stale are discarded and deleted. A store that cannot be
// read yields ErrStorageInit.
func New(ctx context.Context, store Store, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, errors.Join(ErrStorageInit, errors.New("store is required"))
	}

	r := &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		config:   DefaultConfig(),
		clock:    clockwork.NewRealClock(),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	r.logger = r.logger.With(logger.Component("session"))

	if err := r.load(ctx); err != nil {
		return nil, errors.Join(ErrStorageInit, err)
	}
	return r, nil
}

func (r *Registry) load(ctx context.Context) error {
	records, err := r.store.Load(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	discarded := 0
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			discarded++
			r.logger.DebugContext(ctx, "discarding invalid session record", logger.SessionID(rec.SessionID), logger.Error(err))
			r.deleteDurable(ctx, rec.SessionID)
			continue
		}

		s := rec.session()
		// The fingerprint is derived data; recompute it so a stored value can
		// never disagree with the raw inputs it came from.
		s.Fingerprint = fingerprint.FromInputs(s.UserAgent, s.IPAddress)

		if r.isStale(s, now) {
			discarded++
			r.deleteDurable(ctx, s.ID)
			continue
		}
		r.sessions[s.ID] = s
	}

	r.logger.InfoContext(ctx, "session registry loaded",
		logger.Count("loaded", len(r.sessions)),
		logger.Count("discarded", discarded),
	)
	return nil
}

// CreateSession registers a new session for userID. The memory map is updated
// first; if the durable write fails the session stays live and the returned
// error wraps ErrStorageIO.
func (r *Registry) CreateSession(ctx context.Context, userID, sessionID, userAgent, ipAddress string) error {
	if sessionID == "" || userID == "" {
		return ErrInvalidSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	s := &Session{
		ID:               sessionID,
		UserID:           userID,
		Fingerprint:      fingerprint.FromInputs(userAgent, ipAddress),
		UserAgent:        userAgent,
		IPAddress:        ipAddress,
		IsActive:         true,
		LastActivity:     now,
		LastStatusChange: now,
		CreatedAt:        now,
	}
	r.sessions[sessionID] = s

	if err := r.persist(ctx, s); err != nil {
		return errors.Join(ErrStorageIO, err)
	}

	r.logger.InfoContext(ctx, "session created",
		logger.SessionID(sessionID),
		logger.UserID(userID),
		logger.Fingerprint(s.Fingerprint),
	)
	return nil
}

// TouchActivity records activity on a session and marks it active. A stale
// session is removed instead and ErrSessionExpired is returned; a missing one
// yields ErrSessionNotFound.
func (r *Registry) TouchActivity(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, now, err := r.liveLocked(ctx, sessionID)
	if err != nil {
		return err
	}

	if now.After(s.LastActivity) {
		s.LastActivity = now
	}
	if !s.IsActive {
		s.IsActive = true
		s.LastStatusChange = now
	}
	_ = r.persist(ctx, s)
	return nil
}

// MarkInactive flags a session as backgrounded. LastActivity is untouched:
// a background tab still counts as recently active for expiry.
func (r *Registry) MarkInactive(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, now, err := r.liveLocked(ctx, sessionID)
	if err != nil {
		return err
	}

	if s.IsActive {
		s.IsActive = false
		s.LastStatusChange = now
		_ = r.persist(ctx, s)
	}
	return nil
}

// CloseSession removes a session. Closing a missing session returns
// ErrSessionNotFound and changes nothing.
func (r *Registry) CloseSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	r.removeLocked(ctx, sessionID, reasonClosed)
	return nil
}

// CloseAllSessionsForUser removes every session of userID and returns how
// many were closed.
func (r *Registry) CloseAllSessionsForUser(ctx context.Context, userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	for id, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		r.removeLocked(ctx, id, reasonClosed)
		closed++
	}
	return closed
}

// Session returns a copy of a live session.
func (r *Registry) Session(sessionID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok || r.isStale(s, r.clock.Now()) {
		return Session{}, false
	}
	return *s, true
}

// SessionsForUser returns copies of the user's live sessions, most recently
// active first. Stale sessions awaiting a sweep are not listed.
func (r *Registry) SessionsForUser(userID string) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	out := make([]Session, 0)
	for _, s := range r.sessions {
		if s.UserID == userID && !r.isStale(s, now) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

// IsUserActiveElsewhere reports whether userID has another session that is
// not stale and saw activity within RecentActivityWindow. Pass an empty
// excludingSessionID to consider all sessions.
func (r *Registry) IsUserActiveElsewhere(userID, excludingSessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for id, s := range r.sessions {
		if s.UserID != userID || (excludingSessionID != "" && id == excludingSessionID) {
			continue
		}
		if !r.isStale(s, now) && s.IdleFor(now) <= r.config.RecentActivityWindow {
			return true
		}
	}
	return false
}

// AttemptTakeover lets a login from (userAgent, ipAddress) evict the user's
// sessions on other devices that are stale, idle beyond TakeoverGrace, or
// backgrounded. Sessions on the requesting device are never touched. The login
// is always allowed.
func (r *Registry) AttemptTakeover(ctx context.Context, userID, userAgent, ipAddress string) TakeoverResult {
	fp := fingerprint.FromInputs(userAgent, ipAddress)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	closed := 0
	for id, s := range r.sessions {
		if s.UserID != userID || s.Fingerprint == fp {
			continue
		}
		if r.isStale(s, now) || s.IdleFor(now) > r.config.TakeoverGrace || !s.IsActive {
			r.removeLocked(ctx, id, reasonTakeover)
			closed++
		}
	}

	if closed > 0 {
		r.logger.InfoContext(ctx, "sessions taken over",
			logger.UserID(userID),
			logger.Fingerprint(fp),
			logger.Count("closed", closed),
		)
	}

	return TakeoverResult{Allowed: true, TookOver: closed > 0, ClosedCount: closed}
}

// SweepExpired removes every stale session and returns how many were removed.
func (r *Registry) SweepExpired(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	removed := 0
	for id, s := range r.sessions {
		if r.isStale(s, now) {
			r.removeLocked(ctx, id, reasonSweep)
			removed++
		}
	}
	return removed
}

// Stats returns counts of all sessions in memory.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{Total: len(r.sessions)}
	for _, s := range r.sessions {
		if s.IsActive {
			st.Active++
		} else {
			st.Inactive++
		}
	}
	return st
}

// Config returns the effective configuration.
func (r *Registry) Config() Config {
	return r.config
}

// isStale is the only staleness test in the package.
func (r *Registry) isStale(s *Session, now time.Time) bool {
	return now.Sub(s.LastActivity) > r.config.InactivityTimeout
}

// liveLocked returns a non-stale session, removing it first if it went stale.
func (r *Registry) liveLocked(ctx context.Context, sessionID string) (*Session, time.Time, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, time.Time{}, ErrSessionNotFound
	}
	now := r.clock.Now()
	if r.isStale(s, now) {
		r.removeLocked(ctx, sessionID, reasonExpired)
		return nil, now, ErrSessionExpired
	}
	return s, now, nil
}

func (r *Registry) removeLocked(ctx context.Context, sessionID, reason string) {
	delete(r.sessions, sessionID)
	r.deleteDurable(ctx, sessionID)
	r.logger.DebugContext(ctx, "session removed", logger.SessionID(sessionID), logger.Reason(reason))
}

// persist and deleteDurable detach from the caller's cancellation: once memory
// has changed, the mirror must follow even if the client has gone away.
func (r *Registry) persist(ctx context.Context, s *Session) error {
	if err := r.store.Save(context.WithoutCancel(ctx), recordOf(s)); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist session", logger.SessionID(s.ID), logger.Error(err))
		return err
	}
	return nil
}

func (r *Registry) deleteDurable(ctx context.Context, sessionID string) {
	if err := r.store.Delete(context.WithoutCancel(ctx), sessionID); err != nil {
		r.logger.ErrorContext(ctx, "failed to delete session record", logger.SessionID(sessionID), logger.Error(err))
	}
}
