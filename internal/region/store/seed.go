package store

import "alumni/internal/region/models"

type seedVillage struct {
	code, name, postal string
}

// SeedCentralJava loads a slice of the Kemendagri catalog around Kota
// Semarang. It backs local development, the CLI default and tests.
func SeedCentralJava(c *MemoryCatalog) {
	c.Add(models.LevelProvince, "", models.Option{Code: "31", Name: "DKI JAKARTA"}, "")
	c.Add(models.LevelProvince, "", models.Option{Code: "33", Name: "JAWA TENGAH"}, "")

	c.Add(models.LevelRegency, "31", models.Option{Code: "3171", Name: "KOTA JAKARTA SELATAN"}, "")
	c.Add(models.LevelRegency, "33", models.Option{Code: "3301", Name: "KABUPATEN CILACAP"}, "")
	c.Add(models.LevelRegency, "33", models.Option{Code: "3372", Name: "KOTA SURAKARTA"}, "")
	c.Add(models.LevelRegency, "33", models.Option{Code: "3374", Name: "KOTA SEMARANG"}, "")

	c.Add(models.LevelDistrict, "3171", models.Option{Code: "317101", Name: "JAGAKARSA"}, "")
	c.Add(models.LevelDistrict, "3372", models.Option{Code: "337201", Name: "LAWEYAN"}, "")
	c.Add(models.LevelDistrict, "3374", models.Option{Code: "337401", Name: "SEMARANG TENGAH"}, "")
	c.Add(models.LevelDistrict, "3374", models.Option{Code: "337404", Name: "SEMARANG TIMUR"}, "")
	c.Add(models.LevelDistrict, "3374", models.Option{Code: "337409", Name: "TEMBALANG"}, "")

	villages := map[string][]seedVillage{
		"317101": {{"3171011001", "JAGAKARSA", "12620"}},
		"337201": {{"3372011001", "PAJANG", "57146"}},
		"337401": {
			{"3374011001", "PEKUNDEN", "50134"},
			{"3374011002", "MIROTO", "50134"},
		},
		"337404": {
			{"3374040001", "KEMIJEN", "50126"},
			{"3374040002", "REJOMULYO", "50124"},
			{"3374040003", "KARANGTEMPEL", "50161"},
			{"3374040009", "BUGANGAN", ""},
		},
		"337409": {{"3374091001", "TEMBALANG", "50275"}},
	}
	for _, district := range []string{"317101", "337201", "337401", "337404", "337409"} {
		for _, v := range villages[district] {
			c.Add(models.LevelVillage, district, models.Option{Code: v.code, Name: v.name}, v.postal)
		}
	}
}

// NewSeededCatalog returns a MemoryCatalog loaded with SeedCentralJava.
func NewSeededCatalog() *MemoryCatalog {
	c := NewMemoryCatalog()
	SeedCentralJava(c)
	return c
}
