package providers

import (
	"context"

	"alumni/internal/region/models"
)

// RegionDataSource returns the children of a parent code. For the province
// level the parent code is empty.
type RegionDataSource interface {
	FetchChildren(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error)
}

// PostalCodeResolver maps a village code to its postal code. A nil result
// means no postal code is on record, which is not an error.
type PostalCodeResolver interface {
	ResolvePostalCode(ctx context.Context, villageCode string) (*string, error)
}

// Catalog is a source that can answer both kinds of lookup.
type Catalog interface {
	RegionDataSource
	PostalCodeResolver
}

// SourceFunc adapts a function to RegionDataSource.
type SourceFunc func(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error)

func (f SourceFunc) FetchChildren(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	return f(ctx, level, parentCode)
}

// ValidateRequest rejects queries that can never succeed: an invalid level,
// a parent on the province query, or a missing parent below it.
func ValidateRequest(level models.Level, parentCode string) error {
	if !level.IsValid() {
		return ErrInvalidRequest
	}
	if level == models.LevelProvince && parentCode != "" {
		return ErrInvalidRequest
	}
	if level != models.LevelProvince && parentCode == "" {
		return ErrInvalidRequest
	}
	return nil
}
