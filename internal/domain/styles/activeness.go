package styles

import (
	"strings"
	"unicode"
)

// IsPropertyActive reports whether a property carries a user-set value. An
// inline declaration always counts; otherwise the computed value must differ
// from every known default. Unknown properties are treated as defaults.
func IsPropertyActive(property, computedValue string, inlineStyles map[string]string) bool {
	if _, ok := inlineStyles[property]; ok {
		return true
	}

	defaults, known := normalizedDefaults[property]
	if !known {
		return false
	}

	value := normalize(computedValue)
	if value == "" {
		return false
	}
	_, isDefault := defaults[value]
	return !isDefault
}

// GetActiveProperties applies IsPropertyActive to each property.
func GetActiveProperties(properties []string, computedStyles, inlineStyles map[string]string) map[string]bool {
	active := make(map[string]bool, len(properties))
	for _, property := range properties {
		active[property] = IsPropertyActive(property, computedStyles[property], inlineStyles)
	}
	return active
}

// HasSectionActiveProperties reports whether any property of a section is
// active.
func HasSectionActiveProperties(properties []string, active map[string]bool) bool {
	for _, property := range properties {
		if active[property] {
			return true
		}
	}
	return false
}

func normalize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(value) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
