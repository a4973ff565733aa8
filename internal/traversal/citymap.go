// Package traversal implements the listing-page traversal loop: walking
// paginated search results, extracting cards, and deciding when an
// incremental run has caught up with its previous high-water mark.
package traversal

import "strings"

// citySlugOverrides holds the handful of cities whose listing-URL slug
// doesn't match a simple lowercased/hyphenated transform of the city name.
var citySlugOverrides = map[string]string{
	"delhi":      "new-delhi",
	"bangalore":  "bangalore",
	"bengaluru":  "bangalore",
	"mumbai":     "mumbai",
	"navi mumbai": "navi-mumbai",
	"gurgaon":    "gurgaon",
	"gurugram":   "gurgaon",
	"noida":      "noida",
	"greater noida": "greater-noida",
}

// CitySlug resolves city to the URL path segment the listing site expects.
// Falls back to a lowercased, hyphen-joined transform of the input when no
// override is registered.
func CitySlug(city string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	if slug, ok := citySlugOverrides[key]; ok {
		return slug
	}
	return strings.ReplaceAll(key, " ", "-")
}
