package throttle

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/sessionguard/pkg/fingerprint"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

// Status is what a caller needs to answer a login attempt.
type Status struct {
	Blocked          bool `json:"blocked"`
	RemainingSeconds int  `json:"remaining_seconds"`
	AttemptsLeft     int  `json:"attempts_left"`
}

// Stats counts tracked devices.
type Stats struct {
	Total   int `json:"total"`
	Blocked int `json:"blocked"`
	Active  int `json:"active"`
}

type entry struct {
	attempts       int
	firstAttemptAt time.Time
	lastAttemptAt  time.Time
	blockedUntil   time.Time
}

// Throttle counts failed logins per device fingerprint and blocks a device
// once it reaches MaxAttempts within Window. State is process local; a
// restart clears every block.
type Throttle struct {
	mu      sync.Mutex
	entries map[string]*entry

	config Config
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates a Throttle.
func New(opts ...Option) (*Throttle, error) {
	t := &Throttle{
		entries: make(map[string]*entry),
		config:  DefaultConfig(),
		clock:   clockwork.NewRealClock(),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.config.Validate(); err != nil {
		return nil, err
	}
	t.logger = t.logger.With(logger.Component("throttle"))
	return t, nil
}

// CheckStatus reports the device's state without counting an attempt.
// Entries whose block or window has run out are dropped.
func (t *Throttle) CheckStatus(userAgent, ipAddress string) Status {
	key := fingerprint.FromInputs(userAgent, ipAddress)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	e := t.currentLocked(key, now)
	if e == nil {
		return t.clean()
	}
	if t.isBlocked(e, now) {
		return t.blocked(e, now)
	}
	return Status{AttemptsLeft: t.config.MaxAttempts - e.attempts}
}

// RecordFailure counts a failed login. Failures while blocked are not
// counted. The failure that brings attempts to MaxAttempts starts the block.
func (t *Throttle) RecordFailure(userAgent, ipAddress string) Status {
	key := fingerprint.FromInputs(userAgent, ipAddress)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	e := t.currentLocked(key, now)
	switch {
	case e == nil:
		e = &entry{firstAttemptAt: now}
		t.entries[key] = e
	case t.isBlocked(e, now):
		return t.blocked(e, now)
	}

	e.attempts++
	e.lastAttemptAt = now

	if e.attempts >= t.config.MaxAttempts {
		e.blockedUntil = now.Add(t.config.BlockDuration)
		t.logger.Warn("device blocked after failed logins",
			logger.Fingerprint(key),
			logger.Count("attempts", e.attempts),
			logger.Duration("block", t.config.BlockDuration),
		)
		return t.blocked(e, now)
	}
	return Status{AttemptsLeft: t.config.MaxAttempts - e.attempts}
}

// Reset forgets the device, typically after a successful login.
func (t *Throttle) Reset(userAgent, ipAddress string) {
	key := fingerprint.FromInputs(userAgent, ipAddress)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Sweep drops entries whose block has ended or whose window has elapsed.
// When more than MaxEntries remain, only entries with an attempt inside
// RecentActivity are kept, and if that is still too many, the MaxEntries
// most recent ones. Returns the number of entries removed.
func (t *Throttle) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	before := len(t.entries)

	for key, e := range t.entries {
		if t.expired(e, now) {
			delete(t.entries, key)
		}
	}

	if len(t.entries) > t.config.MaxEntries {
		t.evictLocked(now)
	}

	removed := before - len(t.entries)
	if removed > 0 {
		t.logger.Debug("throttle entries swept", logger.Count("removed", removed), logger.Count("remaining", len(t.entries)))
	}
	return removed
}

func (t *Throttle) evictLocked(now time.Time) {
	for key, e := range t.entries {
		if now.Sub(e.lastAttemptAt) > t.config.RecentActivity {
			delete(t.entries, key)
		}
	}
	if len(t.entries) <= t.config.MaxEntries {
		t.logger.Warn("throttle emergency eviction", logger.Count("remaining", len(t.entries)))
		return
	}

	keys := make([]string, 0, len(t.entries))
	for key := range t.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return t.entries[keys[i]].lastAttemptAt.After(t.entries[keys[j]].lastAttemptAt)
	})
	for _, key := range keys[t.config.MaxEntries:] {
		delete(t.entries, key)
	}
	t.logger.Warn("throttle emergency eviction hit ceiling", logger.Count("remaining", len(t.entries)))
}

// Stats counts entries. Active entries are counting failures but not blocked.
func (t *Throttle) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	st := Stats{Total: len(t.entries)}
	for _, e := range t.entries {
		if t.isBlocked(e, now) {
			st.Blocked++
		} else {
			st.Active++
		}
	}
	return st
}

// Config returns the effective configuration.
func (t *Throttle) Config() Config {
	return t.config
}

// currentLocked returns the entry for key, deleting it first if it expired.
func (t *Throttle) currentLocked(key string, now time.Time) *entry {
	e, ok := t.entries[key]
	if !ok {
		return nil
	}
	if t.expired(e, now) {
		delete(t.entries, key)
		return nil
	}
	return e
}

// expired reports whether e is back to the clean state: a block that has
// ended, or an unblocked count whose window has elapsed.
func (t *Throttle) expired(e *entry, now time.Time) bool {
	if !e.blockedUntil.IsZero() {
		return !now.Before(e.blockedUntil)
	}
	return now.Sub(e.firstAttemptAt) > t.config.Window
}

func (t *Throttle) isBlocked(e *entry, now time.Time) bool {
	return !e.blockedUntil.IsZero() && now.Before(e.blockedUntil)
}

func (t *Throttle) clean() Status {
	return Status{AttemptsLeft: t.config.MaxAttempts}
}

func (t *Throttle) blocked(e *entry, now time.Time) Status {
	return Status{
		Blocked:          true,
		RemainingSeconds: ceilSeconds(e.blockedUntil.Sub(now)),
		AttemptsLeft:     0,
	}
}

// ceilSeconds rounds up so a client is never told it may retry early.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
