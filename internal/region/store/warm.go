package store

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

// Sink receives option lists copied out of a source.
type Sink interface {
	Store(ctx context.Context, level models.Level, parentCode string, options []models.Option) error
}

// WarmOptions controls a catalog crawl.
type WarmOptions struct {
	// Provinces restricts the crawl. Empty means every province.
	Provinces []string
	// MaxLevel is the deepest level copied. Nil copies down to villages.
	MaxLevel *models.Level
	// Concurrency bounds parallel fetches per level; defaults to 4.
	Concurrency int
}

// WarmStats counts the lists and options copied per level.
type WarmStats struct {
	Lists   [models.LevelCount]int
	Options [models.LevelCount]int
}

// Warm copies the hierarchy below the selected provinces from source into
// sink, one level at a time. A parent the source no longer knows is skipped;
// any other failure aborts the crawl.
func Warm(ctx context.Context, source providers.RegionDataSource, sink Sink, opts WarmOptions) (WarmStats, error) {
	var stats WarmStats
	depth := models.LevelVillage
	if opts.MaxLevel != nil {
		if !opts.MaxLevel.IsValid() {
			return stats, fmt.Errorf("warm: %w", providers.ErrInvalidRequest)
		}
		depth = *opts.MaxLevel
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	provinces, err := source.FetchChildren(ctx, models.LevelProvince, "")
	if err != nil {
		return stats, fmt.Errorf("fetch provinces: %w", err)
	}
	if err := sink.Store(ctx, models.LevelProvince, "", provinces); err != nil {
		return stats, fmt.Errorf("store provinces: %w", err)
	}
	stats.Lists[models.LevelProvince] = 1
	stats.Options[models.LevelProvince] = len(provinces)

	parents := opts.Provinces
	if len(parents) == 0 {
		parents = codesOf(provinces)
	}

	for level := models.LevelRegency; level <= depth; level++ {
		var (
			mu   sync.Mutex
			next []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for _, parent := range parents {
			g.Go(func() error {
				options, err := source.FetchChildren(gctx, level, parent)
				if providers.IsNotFound(err) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("fetch %s of %s: %w", level, parent, err)
				}
				if err := sink.Store(gctx, level, parent, options); err != nil {
					return fmt.Errorf("store %s of %s: %w", level, parent, err)
				}
				mu.Lock()
				defer mu.Unlock()
				next = append(next, codesOf(options)...)
				stats.Lists[level]++
				stats.Options[level] += len(options)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, err
		}
		parents = next
	}
	return stats, nil
}

func codesOf(options []models.Option) []string {
	codes := make([]string, 0, len(options))
	for _, o := range options {
		codes = append(codes, o.Code)
	}
	return codes
}
