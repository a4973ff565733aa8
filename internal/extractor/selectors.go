// Package extractor turns a rendered listing card or PDP document into a
// models.PropertyRecord, using goquery selector chains with regex-based
// fallback scanning when the primary selectors miss.
package extractor

import "regexp"

// placeholderValues are strings a site renders in place of real content;
// extracted text matching one of these (case-insensitively) is discarded.
var placeholderValues = map[string]bool{
	"n/a": true, "na": true, "null": true, "none": true, "--": true, "...": true,
}

// CardSelectors lists, in priority order, the CSS selectors tried for a
// field before falling back to regex scanning of the card's full text.
type CardSelectors struct {
	Title []string
	Price []string
	Area  []string
	URL   []string
	Date  []string
}

// DefaultCardSelectors covers the common class-name conventions seen across
// Indian real-estate listing sites (BEM-ish "card__field" plus generic
// "*[class*=field]" attribute-contains fallbacks).
func DefaultCardSelectors() CardSelectors {
	return CardSelectors{
		Title: []string{
			"h2.card__title", "a.card__title", "*[class*='card'][class*='title']",
			"h2", "h3",
		},
		Price: []string{
			"*[class*='card'][class*='price']", "*[class*='price']",
		},
		Area: []string{
			"*[class*='card'][class*='area']", "*[class*='area']",
		},
		URL: []string{
			"a[class*='card'][href]", "a[href]",
		},
		Date: []string{
			"*[class*='post']", "div[class*='update']", "div[class*='date']",
			"*[class*='ago']", "*[class*='hours']", "*[class*='yesterday']", "*[class*='today']",
		},
	}
}

// premiumClassIndicators maps a card CSS-class substring to a premium type
// label. A card is premium if any of its classes contains one of these keys.
var premiumClassIndicators = map[string]string{
	"preferred-agent":  "preferred_agent",
	"card-luxury":      "luxury",
	"premium-listing":  "premium",
	"card--premium":    "premium",
	"--premium":        "premium",
	"sponsored-card":   "sponsored",
	"--sponsored":      "sponsored",
	"featured":         "featured",
	"highlighted":      "highlighted",
}

// premiumTextIndicators are lower-cased substrings of the card's visible
// text that also mark it premium when no class indicator is present.
var premiumTextIndicators = []string{"premium", "luxury", "featured", "sponsored", "preferred"}

var (
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)₹[\d,.]+\s*(?:crore|lakh|cr|l)\b`),
		regexp.MustCompile(`₹[\d,.]+`),
		regexp.MustCompile(`(?i)\b[\d,.]+\s*(?:crore|lakh)\b`),
		regexp.MustCompile(`(?i)price[:\s]*₹[\d,.]+`),
	}

	areaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d+[\d,.]*\s*(?:sqft|sq\s?ft|sq\.?\s?ft)\b`),
		regexp.MustCompile(`(?i)\b\d+[\d,.]*\s*(?:sq\.?m|sqm)\b`),
		regexp.MustCompile(`(?i)(?:carpet|super|built)[\s:]*\d+[\d,.]*\s*(?:sqft|sq ft)`),
		regexp.MustCompile(`(?i)area[:\s]*\d+[\d,.]*\s*(?:sqft|sq ft)`),
	}

	titlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d+\s*BHK\s.+`),
		regexp.MustCompile(`(?i)\b\d+\s*Bedroom\s.+`),
		regexp.MustCompile(`(?i)(?:Apartment|House|Villa|Plot)\s.+`),
	}

	bhkPattern = regexp.MustCompile(`(?i)(\d+)\s*BHK`)
)

// ContainerSelectors lists, in priority order, the CSS selectors tried to
// locate listing cards on a search-results page. The Traversal Engine
// accepts the first selector returning at least its min-cards threshold,
// per spec §4.6 step c.
var ContainerSelectors = []string{
	"div.mb-srp__card", "div[class*='srp__card']",
	"div[class*='card'][class*='listing']", "div[class*='property-card']",
	"article[class*='card']", "li[class*='listing']",
}

// invalidURLFragments mark a link as not a property detail link.
var invalidURLFragments = []string{"javascript:", "mailto:", "tel:", "void(0)"}

// statusVocabulary is the closed set of values the Status field normalizes
// to; any other status text normalizes to StatusUnspecified and is not kept.
var statusVocabulary = map[string]string{
	"ready to move":   "ready_to_move",
	"under construction": "under_construction",
	"new launch":      "new_launch",
	"resale":          "resale",
}
