package model

import "strings"

// NoInfo is the marker substituted for any field the upstream sources could not provide.
const NoInfo = "No info available"

// News article fallbacks.
const (
	NoTitle       = "No title"
	NoDescription = "No description"
	NoURL         = "#"
	NoNews        = "No news available"
)

// ValueOr returns value, or fallback when value is empty or only whitespace.
func ValueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// IsMarker reports whether value is missing or the NoInfo marker.
func IsMarker(value string) bool {
	return strings.TrimSpace(value) == "" || value == NoInfo
}
