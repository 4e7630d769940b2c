package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"alumni/internal/region/metrics"
	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

const redisStoreLabel = "redis"

// RedisCatalog is a read-through cache in front of a RegionDataSource. It
// shares fetched option lists across selector sessions and server replicas.
// Redis failures degrade to the wrapped source instead of failing the fetch.
type RedisCatalog struct {
	client  *redis.Client
	source  providers.RegionDataSource
	ttl     time.Duration
	prefix  string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type RedisOption func(*RedisCatalog)

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(r *RedisCatalog) {
		r.logger = logger
	}
}

func WithRedisMetrics(m *metrics.Metrics) RedisOption {
	return func(r *RedisCatalog) {
		r.metrics = m
	}
}

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisCatalog) {
		r.prefix = prefix
	}
}

func NewRedisCatalog(client *redis.Client, source providers.RegionDataSource, ttl time.Duration, opts ...RedisOption) (*RedisCatalog, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if source == nil {
		return nil, providers.ErrNoSource
	}
	r := &RedisCatalog{
		client: client,
		source: source,
		ttl:    ttl,
		prefix: "region:children:",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *RedisCatalog) key(level models.Level, parentCode string) string {
	return r.prefix + level.String() + ":" + parentCode
}

func (r *RedisCatalog) FetchChildren(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	options, err := r.find(ctx, level, parentCode)
	switch {
	case err == nil:
		r.metrics.RecordStoreHit(redisStoreLabel)
		return options, nil
	case errors.Is(err, redis.Nil):
		r.metrics.RecordStoreMiss(redisStoreLabel)
	default:
		r.metrics.RecordStoreMiss(redisStoreLabel)
		r.logger.WarnContext(ctx, "region redis read failed",
			"level", level.String(),
			"parent", parentCode,
			"error", err,
		)
	}

	options, err = r.source.FetchChildren(ctx, level, parentCode)
	if err != nil {
		return nil, err
	}
	if err := r.Store(ctx, level, parentCode, options); err != nil {
		r.logger.WarnContext(ctx, "region redis write failed",
			"level", level.String(),
			"parent", parentCode,
			"error", err,
		)
	}
	return options, nil
}

func (r *RedisCatalog) find(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	raw, err := r.client.Get(ctx, r.key(level, parentCode)).Bytes()
	if err != nil {
		return nil, err
	}
	var options []models.Option
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("decode cached options: %w", err)
	}
	return options, nil
}

// Store writes an option list with the catalog TTL.
func (r *RedisCatalog) Store(ctx context.Context, level models.Level, parentCode string, options []models.Option) error {
	if options == nil {
		options = []models.Option{}
	}
	payload, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	if err := r.client.Set(ctx, r.key(level, parentCode), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save options: %w", err)
	}
	return nil
}

// Invalidate drops one cached list.
func (r *RedisCatalog) Invalidate(ctx context.Context, level models.Level, parentCode string) error {
	if err := r.client.Del(ctx, r.key(level, parentCode)).Err(); err != nil {
		return fmt.Errorf("invalidate options: %w", err)
	}
	return nil
}
