package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"alumni/internal/app"
	"alumni/internal/platform/config"
	"alumni/internal/platform/httpserver"
	"alumni/internal/platform/logger"
	httpmetrics "alumni/internal/platform/metrics"
	"alumni/internal/region/cache"
	"alumni/internal/region/cascade"
	"alumni/internal/region/handler"
	"alumni/internal/region/metrics"
	"alumni/internal/region/session"
	"alumni/internal/region/store"
	httptransport "alumni/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	regionMetrics := metrics.New(prometheus.DefaultRegisterer)

	catalog, err := app.Build(ctx, cfg, log, regionMetrics)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			log.Warn("closing catalog connections", "error", err)
		}
	}()

	if catalog.Redis != nil && len(cfg.Catalog.WarmProvinces) > 0 {
		go warm(ctx, catalog, cfg.Catalog.WarmProvinces, log)
	}

	shared, err := sharedCache(cfg, regionMetrics)
	if err != nil {
		return err
	}
	sessions, err := session.NewRegistry(func() (*cascade.Controller, error) {
		opts := []cascade.Option{
			cascade.WithLogger(log),
			cascade.WithMetrics(regionMetrics),
			cascade.WithDebounce(cfg.Selector.Debounce),
			cascade.WithFetchTimeout(cfg.Selector.FetchTimeout),
		}
		if shared != nil {
			opts = append(opts, cascade.WithCache(shared))
		}
		return cascade.New(catalog.Source, catalog.Postal, opts...)
	},
		session.WithLogger(log),
		session.WithMetrics(regionMetrics),
		session.WithIdleTimeout(cfg.Selector.IdleTimeout),
	)
	if err != nil {
		return err
	}
	go sessions.Run(ctx)

	checks := map[string]httptransport.HealthCheck{}
	for name, check := range catalog.Checks() {
		checks[name] = check
	}
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:   log,
		Metrics:  httpmetrics.New(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
		Checks:   checks,
	}, handler.New(catalog.Source, catalog.Postal, sessions, log, handler.WithWaitTimeout(cfg.Selector.WaitTimeout)))

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting region selector service", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	sessions.Close()
	return nil
}

// sharedCache returns a cache shared by every session, or nil when each
// session keeps its own.
func sharedCache(cfg config.Config, m *metrics.Metrics) (*cache.RegionCache, error) {
	if cfg.Selector.CacheCapacity <= 0 {
		return nil, nil
	}
	return cache.New(
		cache.WithCapacity(cfg.Selector.CacheCapacity),
		cache.WithFetchTimeout(cfg.Selector.FetchTimeout),
		cache.WithMetrics(m),
	)
}

func warm(ctx context.Context, catalog *app.Catalog, provinces []string, log *slog.Logger) {
	stats, err := store.Warm(ctx, catalog.Origin, catalog.Redis, store.WarmOptions{Provinces: provinces})
	if err != nil {
		log.Warn("catalog warm-up failed", "error", err)
		return
	}
	log.Info("catalog warm-up finished",
		"lists", stats.Lists,
		"options", stats.Options,
	)
}
