package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
	"alumni/internal/region/providers/contract"
)

func TestMemoryCatalogContract(t *testing.T) {
	catalog := NewSeededCatalog()

	sources := &contract.SourceSuite{Source: catalog, Children: seededChildrenCases, Errors: seededErrorCases}
	sources.Run(t)

	resolvers := &contract.ResolverSuite{Resolver: catalog, Cases: seededPostalCases}
	resolvers.Run(t)
}

func TestMemoryCatalogRemove(t *testing.T) {
	ctx := context.Background()
	catalog := NewSeededCatalog()

	catalog.Remove(models.LevelDistrict, "337404")

	districts, err := catalog.FetchChildren(ctx, models.LevelDistrict, "3374")
	require.NoError(t, err)
	assert.False(t, models.ContainsCode(districts, "337404"))
	assert.True(t, models.ContainsCode(districts, "337401"))

	_, err = catalog.FetchChildren(ctx, models.LevelVillage, "337404")
	assert.True(t, providers.IsNotFound(err))

	postal, err := catalog.ResolvePostalCode(ctx, "3374040003")
	require.NoError(t, err)
	assert.Nil(t, postal)
}

func TestMemoryCatalogStoreReplacesList(t *testing.T) {
	ctx := context.Background()
	catalog := NewMemoryCatalog()

	require.NoError(t, catalog.Store(ctx, models.LevelProvince, "", []models.Option{{Code: "33", Name: "JAWA TENGAH"}}))
	require.NoError(t, catalog.Store(ctx, models.LevelRegency, "33", []models.Option{{Code: "3374", Name: "KOTA SEMARANG"}}))

	regencies, err := catalog.FetchChildren(ctx, models.LevelRegency, "33")
	require.NoError(t, err)
	assert.Equal(t, []models.Option{{Code: "3374", Name: "KOTA SEMARANG"}}, regencies)

	districts, err := catalog.FetchChildren(ctx, models.LevelDistrict, "3374")
	require.NoError(t, err)
	assert.Empty(t, districts)
}
