// Package strings provides string list utilities for configuration and flags.
package strings

import (
	"strings"
)

// Dedupe trims every value and drops empties and repeats. Order is
// preserved.
//
// Example:
//
//	Dedupe([]string{" 33 ", "31", "33", "", "  "})
//	// Returns: []string{"33", "31"}
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// SplitList splits a comma separated list and dedupes it.
//
// Example:
//
//	SplitList("33, 31,33,,")
//	// Returns: []string{"33", "31"}
func SplitList(raw string) []string {
	return Dedupe(strings.Split(raw, ","))
}
