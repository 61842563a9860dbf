package flatten

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase turns a snake_case attribute name into PascalCase. Only
// underscores split segments, so a namespace such as "custom:tags" keeps its
// colon: "Custom:tags".
func TitleCase(name string, mode TitleCaseMode) string {
	// Casers carry state and are not safe to share across goroutines.
	upper := cases.Upper(language.Und)
	segments := strings.Split(name, "_")

	var b strings.Builder
	b.Grow(len(name))
	b.WriteString(upperFirst(upper, segments[0]))
	b.WriteString(from(segments[0], 1))
	for j := 1; j < len(segments); j++ {
		offset := 1
		if mode == TitleCaseLegacy {
			offset = j
		}
		b.WriteString(upperFirst(upper, segments[j]))
		b.WriteString(from(segments[j], offset))
	}
	return b.String()
}

func upperFirst(c cases.Caser, s string) string {
	for _, r := range s {
		return c.String(string(r))
	}
	return ""
}

// from returns s starting at rune offset n, or "" when s is shorter.
func from(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[pos:]
		}
		i++
	}
	return ""
}
