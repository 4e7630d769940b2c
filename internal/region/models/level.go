package models

import (
	"fmt"
	"strings"
)

// Level is one tier of the administrative hierarchy. Levels are strictly
// ordered: each level depends on the one before it.
type Level int

const (
	LevelProvince Level = iota
	LevelRegency
	LevelDistrict
	LevelVillage
)

// LevelCount is the number of tiers in the hierarchy.
const LevelCount = 4

// Levels lists every level in dependency order.
var Levels = [LevelCount]Level{LevelProvince, LevelRegency, LevelDistrict, LevelVillage}

var levelNames = [LevelCount]string{"province", "regency", "district", "village"}

// IsValid reports whether l is one of the four known levels.
func (l Level) IsValid() bool {
	return l >= LevelProvince && l <= LevelVillage
}

func (l Level) String() string {
	if !l.IsValid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Parent returns the level l depends on. The province level has no parent.
func (l Level) Parent() (Level, bool) {
	if l <= LevelProvince || !l.IsValid() {
		return 0, false
	}
	return l - 1, true
}

// Child returns the level that depends on l. The village level has no child.
func (l Level) Child() (Level, bool) {
	if l >= LevelVillage || !l.IsValid() {
		return 0, false
	}
	return l + 1, true
}

// Descendants returns every level below l, nearest first.
func (l Level) Descendants() []Level {
	if !l.IsValid() {
		return nil
	}
	out := make([]Level, 0, LevelVillage-l)
	for d := l + 1; d <= LevelVillage; d++ {
		out = append(out, d)
	}
	return out
}

// MarshalText encodes the level by name so JSON payloads read "regency"
// instead of 1.
func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("invalid level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel accepts the level names used on the wire, plus the plural forms
// used in catalog URLs ("regencies").
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "province", "provinces", "provinsi":
		return LevelProvince, nil
	case "regency", "regencies", "kabupaten", "city":
		return LevelRegency, nil
	case "district", "districts", "kecamatan":
		return LevelDistrict, nil
	case "village", "villages", "kelurahan", "desa":
		return LevelVillage, nil
	default:
		return 0, fmt.Errorf("unknown region level %q", s)
	}
}
