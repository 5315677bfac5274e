package forms

import (
	"net/url"
	"strings"
)

// ValidURL reports whether value is an absolute http(s) URL. Empty values are
// valid; required-ness is checked separately.
func ValidURL(value string) bool {
	if value == "" {
		return true
	}
	parsed, err := url.ParseRequestURI(value)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

// SplitList turns a comma separated input into trimmed, non-empty items.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// JoinList is the inverse of SplitList for re-rendering form values.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}
