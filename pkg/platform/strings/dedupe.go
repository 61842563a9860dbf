// Package strings provides string list helpers shared by config parsing.
package strings

import (
	"strings"
)

// DedupeAndTrimLower trims and lowercases each element, then drops empties and
// repeats. First occurrence wins, so order is preserved.
//
//	DedupeAndTrimLower([]string{" File", "redis", "file", ""})
//	// []string{"file", "redis"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		norm := strings.ToLower(strings.TrimSpace(v))
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		result = append(result, norm)
	}
	return result
}
