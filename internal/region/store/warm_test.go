package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

func TestWarmCopiesHierarchy(t *testing.T) {
	ctx := context.Background()
	source := NewSeededCatalog()
	sink := NewMemoryCatalog()

	stats, err := Warm(ctx, source, sink, WarmOptions{Provinces: []string{"33"}, Concurrency: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Options[models.LevelProvince])
	assert.Equal(t, 1, stats.Lists[models.LevelRegency])
	assert.Equal(t, 3, stats.Options[models.LevelRegency])
	assert.Equal(t, 4, stats.Options[models.LevelDistrict])

	villages, err := sink.FetchChildren(ctx, models.LevelVillage, "337404")
	require.NoError(t, err)
	assert.True(t, models.ContainsCode(villages, "3374040003"))

	_, err = sink.FetchChildren(ctx, models.LevelRegency, "31")
	require.NoError(t, err, "province list is copied even when the crawl is restricted")
}

func TestWarmStopsAtMaxLevel(t *testing.T) {
	ctx := context.Background()
	levelPtr := func(l models.Level) *models.Level { return &l }

	t.Run("regencies", func(t *testing.T) {
		stats, err := Warm(ctx, NewSeededCatalog(), NewMemoryCatalog(), WarmOptions{MaxLevel: levelPtr(models.LevelRegency)})
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Lists[models.LevelRegency])
		assert.Zero(t, stats.Lists[models.LevelDistrict])
	})

	t.Run("provinces only", func(t *testing.T) {
		source := &countingSource{inner: NewSeededCatalog()}
		sink := NewMemoryCatalog()
		stats, err := Warm(ctx, source, sink, WarmOptions{MaxLevel: levelPtr(models.LevelProvince)})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Lists[models.LevelProvince])
		assert.Equal(t, 2, stats.Options[models.LevelProvince])
		assert.Zero(t, stats.Lists[models.LevelRegency])
		assert.EqualValues(t, 1, source.calls.Load(), "only the province list is fetched")

		_, err = sink.FetchChildren(ctx, models.LevelProvince, "")
		require.NoError(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := Warm(ctx, NewSeededCatalog(), NewMemoryCatalog(), WarmOptions{MaxLevel: levelPtr(models.Level(7))})
		assert.ErrorIs(t, err, providers.ErrInvalidRequest)
	})
}

func TestWarmSkipsUnknownParents(t *testing.T) {
	ctx := context.Background()
	stats, err := Warm(ctx, NewSeededCatalog(), NewMemoryCatalog(), WarmOptions{Provinces: []string{"99", "31"}})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Lists[models.LevelRegency])
}

func TestWarmAbortsOnSourceFailure(t *testing.T) {
	ctx := context.Background()
	failing := providers.SourceFunc(func(ctx context.Context, level models.Level, parent string) ([]models.Option, error) {
		if level == models.LevelProvince {
			return []models.Option{{Code: "33", Name: "JAWA TENGAH"}}, nil
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, "test", "503", nil)
	})

	_, err := Warm(ctx, failing, NewMemoryCatalog(), WarmOptions{})
	require.Error(t, err)
	assert.Equal(t, providers.ErrorProviderOutage, providers.GetCategory(err))
}
