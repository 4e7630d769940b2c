// Package app assembles the region catalog stack from configuration. It is
// shared by the server and the regionctl tool.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"alumni/internal/platform/config"
	"alumni/internal/platform/redis"
	"alumni/internal/region/metrics"
	"alumni/internal/region/providers"
	"alumni/internal/region/providers/kodepos"
	"alumni/internal/region/providers/wilayah"
	"alumni/internal/region/store"
	"alumni/pkg/platform/circuit"
)

// Catalog is the assembled region data stack.
type Catalog struct {
	// Source serves children lists: upstream, failover and Redis layers
	// applied.
	Source providers.RegionDataSource
	// Origin is Source without the Redis layer, used to warm it.
	Origin providers.RegionDataSource
	// Postal is nil when no configured backend can resolve postal codes.
	Postal providers.PostalCodeResolver

	Redis    *store.RedisCatalog
	Postgres *store.PostgresCatalog

	db          *sql.DB
	redisClient *redis.Client
}

// Checks returns the health checks of the backing services.
func (c *Catalog) Checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if c.redisClient != nil {
		checks["redis"] = c.redisClient.Health
	}
	if c.db != nil {
		checks["postgres"] = c.db.PingContext
	}
	return checks
}

// Close releases connections opened by Build.
func (c *Catalog) Close() error {
	var errs []error
	if c.redisClient != nil {
		errs = append(errs, c.redisClient.Close())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}

// Build wires the catalog. The primary source is the remote catalog when a
// URL is set, else Postgres, else the bundled seed data. Postgres doubles as
// the failover target of a remote primary.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*Catalog, error) {
	c := &Catalog{}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		c.db = db
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		c.Postgres = store.NewPostgresCatalog(db)
		if cfg.Database.Migrate {
			if err := c.Postgres.Migrate(ctx); err != nil {
				return nil, err
			}
		}
	}

	switch {
	case cfg.Catalog.URL != "":
		primary := wilayah.NewClient("wilayah", cfg.Catalog.URL, cfg.Catalog.Timeout)
		var secondary providers.RegionDataSource
		switch {
		case cfg.Catalog.FallbackURL != "":
			secondary = wilayah.NewClient("wilayah-fallback", cfg.Catalog.FallbackURL, cfg.Catalog.Timeout)
		case c.Postgres != nil:
			secondary = c.Postgres
		}
		breaker := circuit.New("region-primary",
			circuit.WithFailureThreshold(cfg.Breaker.FailureThreshold),
			circuit.WithSuccessThreshold(cfg.Breaker.SuccessThreshold),
			circuit.WithCooldown(cfg.Breaker.Cooldown),
		)
		source, err := providers.NewFallbackSource(primary, secondary,
			providers.WithBreaker(breaker),
			providers.WithFallbackLogger(logger),
			providers.WithFallbackMetrics(m),
		)
		if err != nil {
			return nil, err
		}
		c.Origin = source
	case c.Postgres != nil:
		c.Origin = c.Postgres
	default:
		seeded := store.NewSeededCatalog()
		c.Origin = seeded
		c.Postal = seeded
	}

	switch {
	case cfg.Catalog.PostalURL != "":
		c.Postal = kodepos.NewClient("kodepos", cfg.Catalog.PostalURL, cfg.Catalog.Timeout)
	case c.Postgres != nil:
		c.Postal = c.Postgres
	}

	c.Source = c.Origin
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client != nil {
		c.redisClient = client
		rc, err := store.NewRedisCatalog(client.Client, c.Origin, cfg.Catalog.TTL,
			store.WithRedisLogger(logger),
			store.WithRedisMetrics(m),
		)
		if err != nil {
			return nil, err
		}
		c.Redis = rc
		c.Source = rc
	}

	ok = true
	return c, nil
}
