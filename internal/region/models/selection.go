package models

// Selection holds the chosen code per level. An empty string is "no
// selection".
type Selection struct {
	Province string `json:"province,omitempty"`
	Regency  string `json:"regency,omitempty"`
	District string `json:"district,omitempty"`
	Village  string `json:"village,omitempty"`
}

// Get returns the code selected at level l.
func (s Selection) Get(l Level) string {
	switch l {
	case LevelProvince:
		return s.Province
	case LevelRegency:
		return s.Regency
	case LevelDistrict:
		return s.District
	case LevelVillage:
		return s.Village
	}
	return ""
}

// Set stores code at level l.
func (s *Selection) Set(l Level, code string) {
	switch l {
	case LevelProvince:
		s.Province = code
	case LevelRegency:
		s.Regency = code
	case LevelDistrict:
		s.District = code
	case LevelVillage:
		s.Village = code
	}
}

// ClearFrom empties level l and every level below it.
func (s *Selection) ClearFrom(l Level) {
	for d := l; d <= LevelVillage; d++ {
		s.Set(d, "")
	}
}

// IsEmpty reports whether no level carries a code.
func (s Selection) IsEmpty() bool {
	return s.Province == "" && s.Regency == "" && s.District == "" && s.Village == ""
}

// Deepest returns the lowest level with a code.
func (s Selection) Deepest() (Level, bool) {
	for l := LevelVillage; l >= LevelProvince; l-- {
		if s.Get(l) != "" {
			return l, true
		}
	}
	return 0, false
}

// FirstOrphan returns the first level whose code is set while an ancestor is
// empty. A consistent selection has none.
func (s Selection) FirstOrphan() (Level, bool) {
	gap := false
	for _, l := range Levels {
		code := s.Get(l)
		if code == "" {
			gap = true
			continue
		}
		if gap {
			return l, true
		}
	}
	return 0, false
}

// Truncated drops every code below the first empty level.
func (s Selection) Truncated() Selection {
	out := s
	for _, l := range Levels {
		if out.Get(l) == "" {
			out.ClearFrom(l)
			break
		}
	}
	return out
}
