package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"alumni/pkg/platform/strings"
)

// Config is the full runtime configuration of the region selector service.
type Config struct {
	Server   Server
	Catalog  CatalogConfig
	Selector SelectorConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Breaker  BreakerConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// CatalogConfig selects where region data comes from. With no URL and no
// database the seeded in-memory catalog is served.
type CatalogConfig struct {
	URL         string
	FallbackURL string
	PostalURL   string
	Timeout     time.Duration
	TTL         time.Duration
	// WarmProvinces lists province codes crawled into Redis at startup.
	WarmProvinces []string
}

// SelectorConfig tunes every selector session.
type SelectorConfig struct {
	Debounce      time.Duration
	FetchTimeout  time.Duration
	CacheCapacity int
	IdleTimeout   time.Duration
	WaitTimeout   time.Duration
}

// RedisConfig configures the shared catalog cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures the Postgres catalog. An empty URL disables it.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	Migrate      bool
}

// BreakerConfig configures failover from the primary catalog.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			LogLevel:        "info",
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			Timeout: 5 * time.Second,
			TTL:     24 * time.Hour,
		},
		Selector: SelectorConfig{
			Debounce:     400 * time.Millisecond,
			FetchTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Minute,
			WaitTimeout:  5 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 3,
			Cooldown:         30 * time.Second,
		},
	}
}

// FromEnv builds the configuration from environment variables so main stays
// lean. Unset variables keep their defaults; malformed ones are an error.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	e := envReader{lookup: lookup}

	e.str("ALUMNI_ADDR", &cfg.Server.Addr)
	e.str("ALUMNI_LOG_LEVEL", &cfg.Server.LogLevel)
	e.duration("ALUMNI_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	e.str("REGION_CATALOG_URL", &cfg.Catalog.URL)
	e.str("REGION_CATALOG_FALLBACK_URL", &cfg.Catalog.FallbackURL)
	e.str("REGION_POSTAL_URL", &cfg.Catalog.PostalURL)
	e.duration("REGION_CATALOG_TIMEOUT", &cfg.Catalog.Timeout)
	e.duration("REGION_CATALOG_TTL", &cfg.Catalog.TTL)
	if raw, ok := lookup("REGION_WARM_PROVINCES"); ok {
		cfg.Catalog.WarmProvinces = strings.SplitList(raw)
	}

	e.duration("REGION_DEBOUNCE", &cfg.Selector.Debounce)
	e.duration("REGION_FETCH_TIMEOUT", &cfg.Selector.FetchTimeout)
	e.integer("REGION_CACHE_CAPACITY", &cfg.Selector.CacheCapacity)
	e.duration("REGION_SESSION_IDLE_TIMEOUT", &cfg.Selector.IdleTimeout)
	e.duration("REGION_WAIT_TIMEOUT", &cfg.Selector.WaitTimeout)

	e.str("REDIS_URL", &cfg.Redis.URL)
	e.integer("REDIS_POOL_SIZE", &cfg.Redis.PoolSize)
	e.integer("REDIS_MIN_IDLE_CONNS", &cfg.Redis.MinIdleConns)
	e.duration("REDIS_DIAL_TIMEOUT", &cfg.Redis.DialTimeout)
	e.duration("REDIS_READ_TIMEOUT", &cfg.Redis.ReadTimeout)
	e.duration("REDIS_WRITE_TIMEOUT", &cfg.Redis.WriteTimeout)

	e.str("DATABASE_URL", &cfg.Database.URL)
	e.integer("DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	e.boolean("DATABASE_MIGRATE", &cfg.Database.Migrate)

	e.integer("REGION_BREAKER_FAILURES", &cfg.Breaker.FailureThreshold)
	e.integer("REGION_BREAKER_SUCCESSES", &cfg.Breaker.SuccessThreshold)
	e.duration("REGION_BREAKER_COOLDOWN", &cfg.Breaker.Cooldown)

	if e.err != nil {
		return Config{}, e.err
	}
	return cfg, nil
}

// envReader keeps the first parse error so FromEnv reads as a flat list.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok && v != "" {
		*dst = v
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.lookup(key)
	if !ok || v == "" || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = d
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok || v == "" || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.lookup(key)
	if !ok || v == "" || e.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = b
}
