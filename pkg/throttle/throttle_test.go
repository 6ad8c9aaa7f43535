package throttle_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/throttle"
)

const (
	ua = "Mozilla/5.0 (X11; Linux x86_64)"
	ip = "192.0.2.44"
)

func setupThrottle(t *testing.T, opts ...throttle.Option) (*throttle.Throttle, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	base := []throttle.Option{
		throttle.WithClock(clock),
		throttle.WithMaxAttempts(4),
		throttle.WithBlockDuration(15 * time.Minute),
		throttle.WithWindow(15 * time.Minute),
	}
	th, err := throttle.New(append(base, opts...)...)
	require.NoError(t, err)
	return th, clock
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := throttle.New(throttle.WithMaxAttempts(0))
	assert.ErrorIs(t, err, throttle.ErrInvalidConfig)

	_, err = throttle.New(throttle.WithWindow(-time.Second))
	assert.ErrorIs(t, err, throttle.ErrInvalidConfig)

	th, err := throttle.New()
	require.NoError(t, err)
	assert.Equal(t, throttle.DefaultConfig(), th.Config())
}

func TestThrottle_CleanDevice(t *testing.T) {
	t.Parallel()

	th, _ := setupThrottle(t)
	assert.Equal(t, throttle.Status{AttemptsLeft: 4}, th.CheckStatus(ua, ip))
	assert.Equal(t, throttle.Stats{}, th.Stats())
}

func TestThrottle_BlocksAtExactlyMaxAttempts(t *testing.T) {
	t.Parallel()

	th, clock := setupThrottle(t)

	for want := 3; want >= 1; want-- {
		st := th.RecordFailure(ua, ip)
		assert.False(t, st.Blocked)
		assert.Equal(t, want, st.AttemptsLeft)
		clock.Advance(time.Second)
	}

	st := th.RecordFailure(ua, ip)
	assert.Equal(t, throttle.Status{Blocked: true, RemainingSeconds: 900, AttemptsLeft: 0}, st)

	st = th.CheckStatus(ua, ip)
	assert.True(t, st.Blocked)
	assert.Equal(t, 900, st.RemainingSeconds)
	assert.Zero(t, st.AttemptsLeft)

	clock.Advance(time.Minute)
	st = th.RecordFailure(ua, ip)
	assert.True(t, st.Blocked, "failures while blocked keep the block")
	assert.Equal(t, 840, st.RemainingSeconds, "and do not extend it")
	assert.Equal(t, throttle.Stats{Total: 1, Blocked: 1}, th.Stats())
}

func TestThrottle_RemainingSecondsRoundUp(t *testing.T) {
	t.Parallel()

	th, clock := setupThrottle(t, throttle.WithMaxAttempts(1), throttle.WithBlockDuration(10*time.Second))
	th.RecordFailure(ua, ip)

	clock.Advance(9*time.Second + 800*time.Millisecond)
	assert.Equal(t, 1, th.CheckStatus(ua, ip).RemainingSeconds)
}

func TestThrottle_BlockExpiry(t *testing.T) {
	t.Parallel()

	th, clock := setupThrottle(t)
	for range 4 {
		th.RecordFailure(ua, ip)
	}

	clock.Advance(15 * time.Minute)
	assert.Equal(t, throttle.Status{AttemptsLeft: 4}, th.CheckStatus(ua, ip))
	assert.Equal(t, 0, th.Stats().Total)

	assert.Equal(t, 3, th.RecordFailure(ua, ip).AttemptsLeft, "counting restarts at 1")
}

func TestThrottle_WindowExpiry(t *testing.T) {
	t.Parallel()

	th, clock := setupThrottle(t)
	th.RecordFailure(ua, ip)
	th.RecordFailure(ua, ip)
	assert.Equal(t, 2, th.CheckStatus(ua, ip).AttemptsLeft)

	clock.Advance(15*time.Minute + time.Second)
	assert.Equal(t, throttle.Status{AttemptsLeft: 4}, th.CheckStatus(ua, ip))
	assert.Equal(t, 0, th.Stats().Total, "entry removed")
}

func TestThrottle_FailureAfterWindowStartsFresh(t *testing.T) {
	t.Parallel()

	th, clock := setupThrottle(t)
	for range 3 {
		th.RecordFailure(ua, ip)
	}

	clock.Advance(16 * time.Minute)
	st := th.RecordFailure(ua, ip)
	assert.False(t, st.Blocked)
	assert.Equal(t, 3, st.AttemptsLeft)
}

func TestThrottle_Reset(t *testing.T) {
	t.Parallel()

	th, _ := setupThrottle(t)
	for range 4 {
		th.RecordFailure(ua, ip)
	}
	require.True(t, th.CheckStatus(ua, ip).Blocked)

	th.Reset(ua, ip)
	assert.Equal(t, throttle.Status{AttemptsLeft: 4}, th.CheckStatus(ua, ip))
	th.Reset(ua, ip)
}

func TestThrottle_DevicesAreIndependent(t *testing.T) {
	t.Parallel()

	th, _ := setupThrottle(t)
	for range 4 {
		th.RecordFailure(ua, ip)
	}

	assert.True(t, th.CheckStatus(ua, ip).Blocked)
	assert.False(t, th.CheckStatus(ua, "192.0.2.45").Blocked)
	assert.False(t, th.CheckStatus("curl/8.0", ip).Blocked)
}

func TestThrottle_Sweep(t *testing.T) {
	t.Parallel()

	th, clock := setupThrottle(t)

	th.RecordFailure(ua, "10.0.0.1")
	for range 4 {
		th.RecordFailure(ua, "10.0.0.2")
	}
	clock.Advance(10 * time.Minute)
	th.RecordFailure(ua, "10.0.0.3")

	clock.Advance(6 * time.Minute)
	assert.Equal(t, 2, th.Sweep(), "window elapsed for .1 and block ended for .2")
	assert.Equal(t, throttle.Stats{Total: 1, Active: 1}, th.Stats())
	assert.Equal(t, 0, th.Sweep())
}

func TestThrottle_SweepEmergencyEviction(t *testing.T) {
	t.Parallel()

	t.Run("keeps only recent entries", func(t *testing.T) {
		th, clock := setupThrottle(t, throttle.WithMaxEntries(5), throttle.WithRecentActivity(time.Minute))

		for i := range 8 {
			th.RecordFailure(ua, fmt.Sprintf("10.1.0.%d", i))
		}
		clock.Advance(2 * time.Minute)
		for i := range 3 {
			th.RecordFailure(ua, fmt.Sprintf("10.2.0.%d", i))
		}

		assert.Equal(t, 8, th.Sweep())
		assert.Equal(t, 3, th.Stats().Total)
		assert.Equal(t, 3, th.CheckStatus(ua, "10.2.0.0").AttemptsLeft)
	})

	t.Run("caps at the ceiling by recency", func(t *testing.T) {
		th, clock := setupThrottle(t, throttle.WithMaxEntries(3), throttle.WithRecentActivity(time.Hour))

		for i := range 6 {
			th.RecordFailure(ua, fmt.Sprintf("10.3.0.%d", i))
			clock.Advance(time.Second)
		}

		assert.Equal(t, 3, th.Sweep())
		assert.Equal(t, 3, th.Stats().Total)
		for i := 3; i < 6; i++ {
			assert.Equal(t, 3, th.CheckStatus(ua, fmt.Sprintf("10.3.0.%d", i)).AttemptsLeft, "newest kept")
		}
		assert.Equal(t, 4, th.CheckStatus(ua, "10.3.0.0").AttemptsLeft, "oldest evicted")
	})
}

func TestThrottle_ConcurrentFailures(t *testing.T) {
	t.Parallel()

	th, _ := setupThrottle(t, throttle.WithMaxAttempts(10))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			th.RecordFailure(ua, ip)
			th.CheckStatus(ua, ip)
		}()
	}
	wg.Wait()

	st := th.CheckStatus(ua, ip)
	assert.True(t, st.Blocked)
	assert.Equal(t, throttle.Stats{Total: 1, Blocked: 1}, th.Stats())
}
