package circuit

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	clock   *clockwork.FakeClock
	breaker *Breaker
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.clock = clockwork.NewFakeClock()
	s.breaker = New("region-primary",
		WithFailureThreshold(3),
		WithSuccessThreshold(2),
		WithCooldown(30*time.Second),
		WithClock(s.clock),
	)
}

// trip records failures until the breaker reports it opened.
func (s *BreakerSuite) trip() {
	for range 3 {
		s.breaker.RecordFailure()
	}
	s.Require().True(s.breaker.IsOpen())
}

// =============================================================================
// Failing over the primary
// =============================================================================

func (s *BreakerSuite) TestPrimaryOutageOpensOnce() {
	s.Equal("region-primary", s.breaker.Name())
	s.Equal(StateClosed, s.breaker.State())

	for i := range 2 {
		useFallback, change := s.breaker.RecordFailure()
		s.False(useFallback, "failure %d stays on the primary", i+1)
		s.Equal(Change{}, change)
		s.True(s.breaker.Allow())
	}

	useFallback, change := s.breaker.RecordFailure()
	s.True(useFallback)
	s.True(change.Opened, "the opening failure reports the transition")
	s.Equal("open", s.breaker.State().String())

	useFallback, change = s.breaker.RecordFailure()
	s.True(useFallback)
	s.Equal(Change{}, change, "later failures do not report it again")
}

func (s *BreakerSuite) TestLookupsBetweenOutagesKeepPrimary() {
	// A successful lookup while closed breaks the failure streak.
	for _, step := range []string{"fail", "fail", "ok", "fail", "fail"} {
		if step == "ok" {
			usePrimary, change := s.breaker.RecordSuccess()
			s.True(usePrimary)
			s.Equal(Change{}, change)
			continue
		}
		s.breaker.RecordFailure()
	}
	s.False(s.breaker.IsOpen())
}

// =============================================================================
// Cooldown probes
// =============================================================================

func (s *BreakerSuite) TestOpenBreakerProbesOncePerCooldown() {
	s.True(s.breaker.Allow(), "closed breaker always calls the primary")
	s.trip()

	s.False(s.breaker.Allow())
	s.clock.Advance(29 * time.Second)
	s.False(s.breaker.Allow())

	s.clock.Advance(time.Second)
	s.True(s.breaker.Allow(), "one probe once the cooldown elapsed")
	s.False(s.breaker.Allow())

	// The failed probe keeps the breaker open; the next probe waits a full
	// cooldown from the last one.
	useFallback, change := s.breaker.RecordFailure()
	s.True(useFallback)
	s.False(change.Opened)
	s.clock.Advance(29 * time.Second)
	s.False(s.breaker.Allow())
	s.clock.Advance(time.Second)
	s.True(s.breaker.Allow())
}

func (s *BreakerSuite) TestRecoveryNeedsConsecutiveProbes() {
	s.trip()

	probe := func() bool {
		s.clock.Advance(30 * time.Second)
		return s.breaker.Allow()
	}

	s.Require().True(probe())
	usePrimary, change := s.breaker.RecordSuccess()
	s.False(usePrimary, "one good probe is not enough")
	s.Equal(Change{}, change)

	s.Require().True(probe())
	s.breaker.RecordFailure()

	s.Require().True(probe())
	usePrimary, _ = s.breaker.RecordSuccess()
	s.False(usePrimary, "a failed probe restarts the success streak")

	s.Require().True(probe())
	usePrimary, change = s.breaker.RecordSuccess()
	s.True(usePrimary)
	s.True(change.Closed, "the closing success reports the transition")
	s.False(s.breaker.IsOpen())
	s.True(s.breaker.Allow())

	// Closed again: the failure count starts from zero.
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()
	s.False(s.breaker.IsOpen())
}

func (s *BreakerSuite) TestResetForgetsOutage() {
	s.trip()
	s.breaker.Reset()

	s.Equal(StateClosed, s.breaker.State())
	s.True(s.breaker.Allow())
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()
	s.False(s.breaker.IsOpen(), "counters were cleared")
}

func TestNonPositiveThresholdsKeepDefaults(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New("catalog", WithFailureThreshold(0), WithSuccessThreshold(-1), WithClock(clock), WithClock(nil))

	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	_, change := b.RecordFailure()
	require.True(t, change.Opened, "default opens on the fifth failure")

	clock.Advance(30 * time.Second)
	assert.True(t, b.Allow(), "default cooldown is 30s on the injected clock")
}
