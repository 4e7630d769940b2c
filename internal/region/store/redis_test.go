package store

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"alumni/internal/region/metrics"
	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

type RedisCatalogSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *redis.Client
	source  *countingSource
	metrics *metrics.Metrics
	catalog *RedisCatalog
}

func TestRedisCatalogSuite(t *testing.T) {
	suite.Run(t, new(RedisCatalogSuite))
}

type countingSource struct {
	calls atomic.Int32
	inner providers.RegionDataSource
}

func (c *countingSource) FetchChildren(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	c.calls.Add(1)
	return c.inner.FetchChildren(ctx, level, parentCode)
}

func (s *RedisCatalogSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = s.client.Close() })
	s.source = &countingSource{inner: NewSeededCatalog()}
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.catalog, err = NewRedisCatalog(s.client, s.source, time.Hour,
		WithRedisMetrics(s.metrics),
		WithRedisLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
}

func (s *RedisCatalogSuite) TestNew() {
	s.Run("nil client returns error", func() {
		_, err := NewRedisCatalog(nil, s.source, time.Hour)
		s.Error(err)
	})
	s.Run("nil source returns error", func() {
		_, err := NewRedisCatalog(s.client, nil, time.Hour)
		s.ErrorIs(err, providers.ErrNoSource)
	})
}

func (s *RedisCatalogSuite) TestReadThrough() {
	ctx := context.Background()

	first, err := s.catalog.FetchChildren(ctx, models.LevelRegency, "33")
	s.Require().NoError(err)
	second, err := s.catalog.FetchChildren(ctx, models.LevelRegency, "33")
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(int32(1), s.source.calls.Load())
	s.True(s.mr.Exists("region:children:regency:33"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CatalogStoreHits.WithLabelValues("redis")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CatalogStoreMisses.WithLabelValues("redis")))
}

func (s *RedisCatalogSuite) TestEntriesExpire() {
	ctx := context.Background()
	_, err := s.catalog.FetchChildren(ctx, models.LevelProvince, "")
	s.Require().NoError(err)

	s.mr.FastForward(2 * time.Hour)

	_, err = s.catalog.FetchChildren(ctx, models.LevelProvince, "")
	s.Require().NoError(err)
	s.Equal(int32(2), s.source.calls.Load())
}

func (s *RedisCatalogSuite) TestNotFoundIsNotCached() {
	ctx := context.Background()
	_, err := s.catalog.FetchChildren(ctx, models.LevelRegency, "99")
	s.True(providers.IsNotFound(err))
	s.False(s.mr.Exists("region:children:regency:99"))
}

func (s *RedisCatalogSuite) TestRedisOutageFallsBackToSource() {
	ctx := context.Background()
	s.mr.Close()

	options, err := s.catalog.FetchChildren(ctx, models.LevelRegency, "33")
	s.Require().NoError(err)
	s.True(models.ContainsCode(options, "3374"))
}

func (s *RedisCatalogSuite) TestInvalidate() {
	ctx := context.Background()
	_, err := s.catalog.FetchChildren(ctx, models.LevelRegency, "33")
	s.Require().NoError(err)

	s.Require().NoError(s.catalog.Invalidate(ctx, models.LevelRegency, "33"))
	s.False(s.mr.Exists("region:children:regency:33"))
}

func (s *RedisCatalogSuite) TestEmptyListIsCached() {
	ctx := context.Background()
	s.Require().NoError(s.catalog.Store(ctx, models.LevelDistrict, "3301", nil))

	options, err := s.catalog.FetchChildren(ctx, models.LevelDistrict, "3301")
	s.Require().NoError(err)
	s.Empty(options)
	s.Equal(int32(0), s.source.calls.Load())
}
