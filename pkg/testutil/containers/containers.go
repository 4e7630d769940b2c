//go:build integration

// Package containers starts the backing services of the region catalog for
// integration tests. Every container is terminated when its test ends.
package containers

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"alumni/internal/platform/config"
	"alumni/internal/platform/redis"
)

const (
	postgresImage = "postgres:16-alpine"
	redisImage    = "redis:7-alpine"
)

// PostgresContainer is a Postgres instance with an open lib/pq pool.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// RedisContainer is a Redis instance with a client built the way the
// service builds its own.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *goredis.Client
}

// owned registers termination of c with t, or fails t when the container
// did not start.
func owned[C testcontainers.Container](t *testing.T, service string, c C, err error) C {
	t.Helper()
	if err != nil {
		t.Fatalf("start %s container: %v", service, err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })
	return c
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	c, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("alumni"),
		tcpostgres.WithUsername("alumni"),
		tcpostgres.WithPassword("alumni"),
		tcpostgres.BasicWaitStrategies(),
	)
	c = owned(t, "postgres", c, err)

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	return &PostgresContainer{Container: c, DSN: dsn, DB: db}
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	c, err := tcredis.Run(ctx, redisImage)
	c = owned(t, "redis", c, err)

	url, err := c.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	client, err := redis.New(ctx, config.RedisConfig{URL: url})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return &RedisContainer{Container: c, URL: url, Client: client.Client}
}

// Truncate empties tables between tests.
func (p *PostgresContainer) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return err
		}
	}
	return nil
}

// FlushAll drops every key.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
