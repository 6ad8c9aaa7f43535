package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/sessionguard/pkg/logger"
)

// tickDivisor sets how often Start checks whether a sweep is due.
const tickDivisor = 4

// SessionSweeper removes expired sessions. session.Registry implements it.
type SessionSweeper interface {
	SweepExpired(ctx context.Context) int
}

// ThrottleSweeper removes stale throttle entries. throttle.Throttle implements it.
type ThrottleSweeper interface {
	Sweep() int
}

// Report is the outcome of one sweep.
type Report struct {
	Sessions        int       `json:"sessions"`
	ThrottleEntries int       `json:"throttle_entries"`
	RanAt           time.Time `json:"ran_at"`
}

// Status describes the schedule. NextRunEstimate is now when no sweep has
// run yet. On the wire the interval is reported in whole seconds.
type Status struct {
	LastRun         time.Time     `json:"last_run,omitzero"`
	Interval        time.Duration `json:"-"`
	IntervalSeconds int           `json:"interval_seconds"`
	DueNow          bool          `json:"due_now"`
	NextRunEstimate time.Time     `json:"next_run_estimate"`
	LastReport      Report        `json:"last_report"`
}

// Scheduler debounces sweeps. The periodic loop, on-request triggers and
// admin actions all go through RunNow.
type Scheduler struct {
	runMu sync.Mutex

	mu         sync.RWMutex
	lastRun    time.Time
	lastReport Report

	sessions SessionSweeper
	throttle ThrottleSweeper
	config   Config
	clock    clockwork.Clock
	logger   *slog.Logger
}

// New creates a Scheduler for sessions.
func New(sessions SessionSweeper, opts ...Option) (*Scheduler, error) {
	if sessions == nil {
		return nil, ErrNoSweeper
	}
	s := &Scheduler{
		sessions: sessions,
		config:   DefaultConfig(),
		clock:    clockwork.NewRealClock(),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	s.logger = s.logger.With(logger.Component("cleanup"))
	return s, nil
}

// ShouldRunNow reports whether no sweep has run yet or more than Interval
// has passed since the last one.
func (s *Scheduler) ShouldRunNow() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dueLocked(s.clock.Now())
}

func (s *Scheduler) dueLocked(now time.Time) bool {
	return s.lastRun.IsZero() || now.Sub(s.lastRun) > s.config.Interval
}

// RunNow sweeps unconditionally. Concurrent calls are serialized; a second
// call right after the first finds nothing left to remove.
func (s *Scheduler) RunNow(ctx context.Context) Report {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.clock.Now()
	report := Report{
		Sessions: s.sessions.SweepExpired(ctx),
		RanAt:    start,
	}
	if s.throttle != nil {
		report.ThrottleEntries = s.throttle.Sweep()
	}

	s.mu.Lock()
	s.lastRun = start
	s.lastReport = report
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cleanup finished",
		logger.Count("sessions_removed", report.Sessions),
		logger.Count("throttle_entries_removed", report.ThrottleEntries),
		logger.Duration("took", s.clock.Since(start)),
	)
	return report
}

// MaybeRun sweeps only when ShouldRunNow. It is cheap enough to call on
// every request.
func (s *Scheduler) MaybeRun(ctx context.Context) (Report, bool) {
	if !s.ShouldRunNow() {
		return Report{}, false
	}
	return s.RunNow(ctx), true
}

// Status returns the current schedule.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	next := now
	if !s.lastRun.IsZero() {
		next = s.lastRun.Add(s.config.Interval)
	}
	return Status{
		LastRun:         s.lastRun,
		Interval:        s.config.Interval,
		IntervalSeconds: int(s.config.Interval / time.Second),
		DueNow:          s.dueLocked(now),
		NextRunEstimate: next,
		LastReport:      s.lastReport,
	}
}

// Start runs the periodic trigger until ctx is done. It checks for a due
// sweep several times per Interval and always returns nil.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := s.clock.NewTicker(max(s.config.Interval/tickDivisor, time.Millisecond))
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "cleanup scheduler started", logger.Duration("interval", s.config.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "cleanup scheduler stopped")
			return nil
		case <-ticker.Chan():
			s.MaybeRun(ctx)
		}
	}
}
