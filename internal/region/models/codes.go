package models

import "strings"

// ParentFunc derives the parent code of a code at the given level. It
// reports false when the code carries no usable ancestry.
type ParentFunc func(level Level, code string) (string, bool)

// compact Kemendagri code lengths: 33, 3374, 337404, 3374041003.
var kemendagriLengths = [LevelCount]int{2, 4, 6, 10}

// KemendagriParent derives ancestors from Kemendagri region codes, in either
// dotted ("33.74.04.1003") or compact ("3374041003") form.
func KemendagriParent(level Level, code string) (string, bool) {
	parent, ok := level.Parent()
	if !ok || code == "" {
		return "", false
	}
	if strings.Contains(code, ".") {
		segments := strings.Split(code, ".")
		if len(segments) != int(level)+1 {
			return "", false
		}
		for _, s := range segments {
			if s == "" || !isDigits(s) {
				return "", false
			}
		}
		return strings.Join(segments[:len(segments)-1], "."), true
	}
	if !isDigits(code) || len(code) != kemendagriLengths[level] {
		return "", false
	}
	return code[:kemendagriLengths[parent]], true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// InferAncestors fills empty ancestor levels from the deepest populated
// level upward using parentOf. Codes that are already set are never
// replaced.
func InferAncestors(s Selection, parentOf ParentFunc) Selection {
	if parentOf == nil {
		return s
	}
	out := s
	for l := LevelVillage; l > LevelProvince; l-- {
		code := out.Get(l)
		if code == "" {
			continue
		}
		p, _ := l.Parent()
		if out.Get(p) != "" {
			continue
		}
		if derived, ok := parentOf(l, code); ok {
			out.Set(p, derived)
		}
	}
	return out
}
