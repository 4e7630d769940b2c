package store

import (
	"alumni/internal/region/models"
	"alumni/internal/region/providers"
	"alumni/internal/region/providers/contract"
)

// Contract cases every catalog loaded with SeedCentralJava must pass.
var (
	seededChildrenCases = []contract.ChildrenCase{
		{Name: "provinces", Level: models.LevelProvince, ExpectCodes: []string{"31", "33"}, ExpectFirst: "31"},
		{Name: "central java regencies", Level: models.LevelRegency, ParentCode: "33", ExpectCodes: []string{"3374"}},
		{Name: "semarang districts", Level: models.LevelDistrict, ParentCode: "3374", ExpectCodes: []string{"337404"}},
		{Name: "semarang timur villages", Level: models.LevelVillage, ParentCode: "337404", ExpectCodes: []string{"3374040003"}, ExpectFirst: "3374040001"},
	}

	seededErrorCases = []contract.ErrorCase{
		{Name: "unknown province", Level: models.LevelRegency, ParentCode: "99", ExpectedError: providers.ErrorNotFound},
		{Name: "regency code used as district parent", Level: models.LevelVillage, ParentCode: "3374", ExpectedError: providers.ErrorNotFound},
		{Name: "province with parent", Level: models.LevelProvince, ParentCode: "33", ExpectedError: providers.ErrorInternal},
	}

	seededPostalCases = []contract.PostalCase{
		{Name: "karangtempel", VillageCode: "3374040003", Expect: contract.Ptr("50161")},
		{Name: "village without postal code", VillageCode: "3374040009"},
		{Name: "unknown village", VillageCode: "0000000000"},
	}
)
