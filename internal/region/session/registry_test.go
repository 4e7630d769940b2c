package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"alumni/internal/region/cascade"
	"alumni/internal/region/metrics"
	"alumni/internal/region/models"
	"alumni/internal/region/store"
	"alumni/pkg/platform/sentinel"
)

type RegistrySuite struct {
	suite.Suite
	clock    *clockwork.FakeClock
	metrics  *metrics.Metrics
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = clockwork.NewFakeClock()
	s.metrics = metrics.New(prometheus.NewRegistry())
	catalog := store.NewSeededCatalog()

	var err error
	s.registry, err = NewRegistry(func() (*cascade.Controller, error) {
		return cascade.New(catalog, catalog, cascade.WithDebounce(0))
	},
		WithClock(s.clock),
		WithMetrics(s.metrics),
		WithIdleTimeout(10*time.Minute),
	)
	s.Require().NoError(err)
	s.T().Cleanup(s.registry.Close)
}

func (s *RegistrySuite) active() float64 {
	return testutil.ToFloat64(s.metrics.ActiveSelectors)
}

func (s *RegistrySuite) TestNewRequiresFactory() {
	_, err := NewRegistry(nil)
	s.Error(err)
}

func (s *RegistrySuite) TestCreateMountsController() {
	id, c, err := s.registry.Create(context.Background())
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, id)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(c.WaitSettled(ctx))
	s.Equal(models.ListReady, c.State().Options[models.LevelProvince].Status)
	s.Equal(1.0, s.active())
}

func (s *RegistrySuite) TestCreateOutlivesRequestContext() {
	ctx, cancel := context.WithCancel(context.Background())
	_, c, err := s.registry.Create(ctx)
	s.Require().NoError(err)
	cancel()

	s.Never(func() bool {
		return errors.Is(c.OnPostalCodeManualEdit("50161"), cascade.ErrClosed)
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func (s *RegistrySuite) TestCreateFactoryError() {
	boom := errors.New("boom")
	registry, err := NewRegistry(func() (*cascade.Controller, error) { return nil, boom })
	s.Require().NoError(err)

	_, _, err = registry.Create(context.Background())
	s.ErrorIs(err, boom)
	s.Zero(registry.Len())
}

func (s *RegistrySuite) TestGetAndDelete() {
	id, c, err := s.registry.Create(context.Background())
	s.Require().NoError(err)

	got, err := s.registry.Get(id)
	s.Require().NoError(err)
	s.Same(c, got)

	s.Require().NoError(s.registry.Delete(id))
	s.ErrorIs(c.OnPostalCodeManualEdit("1"), cascade.ErrClosed)
	s.Zero(s.active())

	_, err = s.registry.Get(id)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.registry.Delete(id), sentinel.ErrNotFound)
}

func (s *RegistrySuite) TestSweepClosesIdleSessions() {
	idle, idleController, err := s.registry.Create(context.Background())
	s.Require().NoError(err)
	busy, _, err := s.registry.Create(context.Background())
	s.Require().NoError(err)

	s.clock.Advance(6 * time.Minute)
	_, err = s.registry.Get(busy)
	s.Require().NoError(err)
	s.clock.Advance(5 * time.Minute)

	s.Equal(1, s.registry.Sweep())
	_, err = s.registry.Get(idle)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(idleController.OnPostalCodeManualEdit("1"), cascade.ErrClosed)
	_, err = s.registry.Get(busy)
	s.NoError(err)
	s.Equal(1.0, s.active())
}

func (s *RegistrySuite) TestRunSweepsOnTickAndClosesOnExit() {
	_, c, err := s.registry.Create(context.Background())
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.registry.Run(ctx)
		close(done)
	}()

	s.Require().NoError(s.clock.BlockUntilContext(ctx, 1))
	s.Eventually(func() bool {
		s.clock.Advance(5 * time.Minute)
		return s.registry.Len() == 0
	}, time.Second, 10*time.Millisecond)
	s.ErrorIs(c.OnPostalCodeManualEdit("1"), cascade.ErrClosed)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("Run did not return after cancel")
	}
}
