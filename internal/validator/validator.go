// Package validator cleans, normalizes, scores, and filters raw
// PropertyRecords extracted by internal/extractor.
package validator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

var (
	digitsPattern   = regexp.MustCompile(`\d+\.?\d*`)
	nonDigitPattern = regexp.MustCompile(`[₹,\s]`)
)

// Validator cleans raw records and applies the session's filter criteria.
type Validator struct {
	filter config.FilterConfig
	stats  Stats
}

// Stats accumulates filter_stats across a session, per spec §3.3/§10.4.
type Stats struct {
	Total    int
	Filtered int
	Excluded int
}

// New builds a Validator bound to filter.
func New(filter config.FilterConfig) *Validator {
	return &Validator{filter: filter}
}

// Stats returns a snapshot of the accumulated filter statistics.
func (v *Validator) Stats() Stats {
	return v.stats
}

// ResetStats zeroes the accumulated filter statistics.
func (v *Validator) ResetStats() {
	v.stats = Stats{}
}

// ValidateAndClean cleans r in place: whitespace collapse, currency/
// thousands-separator stripping, numeric coercion, unit normalization, and
// data_quality_score computation. URLs are left untouched here (relative
// URLs are resolved at extraction time). It is idempotent — re-running it on an already-cleaned
// record changes nothing because every step is a pure function of the
// cleaned value.
func (v *Validator) ValidateAndClean(r *models.PropertyRecord) *models.PropertyRecord {
	r.Title = collapseWhitespace(r.Title)
	r.Locality = collapseWhitespace(r.Locality)
	r.Society = collapseWhitespace(r.Society)
	r.PriceText = strings.TrimSpace(r.PriceText)
	r.AreaText = strings.TrimSpace(r.AreaText)
	r.PostingDateRaw = collapseWhitespace(r.PostingDateRaw)

	var issues []string
	if r.Title == "" {
		issues = append(issues, "missing title")
	}

	if r.PriceText != "" {
		cleanedPrice := nonDigitPattern.ReplaceAllString(r.PriceText, "")
		if !containsDigit(cleanedPrice) {
			issues = append(issues, "invalid price format")
		}
		r.PriceValue, r.PriceUnit = normalizePrice(r.PriceText)
	} else {
		issues = append(issues, "missing price")
	}

	if r.AreaText != "" {
		r.AreaValue, r.AreaUnit = normalizeArea(r.AreaText)
	} else {
		issues = append(issues, "missing area")
	}

	r.DataQualityScore = qualityScore(r)
	r.ValidationIssues = issues

	return r
}

// IsValid reports the spec §3.1 baseline validity rule: a title, or both a
// price and an area.
func (v *Validator) IsValid(r *models.PropertyRecord) bool {
	if r.IsPremium {
		return r.PremiumHasMinimalContent()
	}
	return r.HasMinimalContent()
}

// ApplyFilters evaluates r against the configured FilterConfig and updates
// the accumulated Stats. It always increments Total; Filtered or Excluded
// is incremented exactly once, keeping total = filtered + excluded per
// spec invariant #4.
func (v *Validator) ApplyFilters(r *models.PropertyRecord) bool {
	v.stats.Total++

	if !v.filter.Enabled {
		v.stats.Filtered++
		return true
	}

	if !v.passesPriceFilter(r) || !v.passesAreaFilter(r) ||
		!v.passesPropertyTypeFilter(r) || !v.passesBHKFilter(r) ||
		!v.passesLocalityFilter(r) || v.matchesExcludedKeyword(r) {
		v.stats.Excluded++
		return false
	}

	v.stats.Filtered++
	return true
}

func (v *Validator) passesPriceFilter(r *models.PropertyRecord) bool {
	if v.filter.PriceMinLac == 0 && v.filter.PriceMaxLac == 0 {
		return true
	}
	lac := priceToLac(r.PriceValue, r.PriceUnit)
	if lac == 0 {
		return true // unparseable price skips this filter, per area-filter's "unknown units skip" precedent
	}
	if v.filter.PriceMinLac != 0 && lac < v.filter.PriceMinLac {
		return false
	}
	if v.filter.PriceMaxLac != 0 && lac > v.filter.PriceMaxLac {
		return false
	}
	return true
}

func (v *Validator) passesAreaFilter(r *models.PropertyRecord) bool {
	if v.filter.AreaMinSqft == 0 && v.filter.AreaMaxSqft == 0 {
		return true
	}
	factor, ok := models.SqftFactor(r.AreaUnit)
	if !ok || r.AreaValue == 0 {
		return true
	}
	sqft := r.AreaValue * factor
	if v.filter.AreaMinSqft != 0 && sqft < v.filter.AreaMinSqft {
		return false
	}
	if v.filter.AreaMaxSqft != 0 && sqft > v.filter.AreaMaxSqft {
		return false
	}
	return true
}

func (v *Validator) passesPropertyTypeFilter(r *models.PropertyRecord) bool {
	if len(v.filter.PropertyTypes) == 0 {
		return true
	}
	haystack := strings.ToLower(r.PropertyType)
	for _, t := range v.filter.PropertyTypes {
		if strings.Contains(haystack, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func (v *Validator) passesBHKFilter(r *models.PropertyRecord) bool {
	if len(v.filter.BHKValues) == 0 {
		return true
	}
	combined := strings.ToLower(r.Title + " " + r.AreaText + " " + r.BHK)
	for _, b := range v.filter.BHKValues {
		lb := strings.ToLower(b)
		if strings.Contains(combined, lb) || strings.Contains(combined, lb+" bhk") {
			return true
		}
	}
	return false
}

func (v *Validator) passesLocalityFilter(r *models.PropertyRecord) bool {
	if len(v.filter.Localities) == 0 {
		return true
	}
	combined := strings.ToLower(r.Locality + " " + r.Society)
	for _, loc := range v.filter.Localities {
		if strings.Contains(combined, strings.ToLower(loc)) {
			return true
		}
	}
	return false
}

func (v *Validator) matchesExcludedKeyword(r *models.PropertyRecord) bool {
	if len(v.filter.ExcludeKeywords) == 0 {
		return false
	}
	combined := strings.ToLower(r.Title + " " + r.ExtendedFields["description"])
	for _, kw := range v.filter.ExcludeKeywords {
		if strings.Contains(combined, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// normalizePrice parses text like "₹85 Lakh" or "₹1.2 Crore" into a value
// and unit, normalizing the unit to lac (spec §11 open-question resolution:
// crore is converted to lac at the validator boundary).
func normalizePrice(text string) (float64, models.PriceUnit) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "on request") || strings.Contains(lower, "price on request") {
		return 0, models.PriceUnitOnRequest
	}
	numbers := digitsPattern.FindString(nonDigitPattern.ReplaceAllString(text, ""))
	if numbers == "" {
		return 0, models.PriceUnitUnspecified
	}
	n, err := strconv.ParseFloat(numbers, 64)
	if err != nil {
		return 0, models.PriceUnitUnspecified
	}
	switch {
	case strings.Contains(lower, "crore"):
		return n * 100, models.PriceUnitLac
	case strings.Contains(lower, "lakh") || strings.Contains(lower, "lac"):
		return n, models.PriceUnitLac
	case strings.Contains(lower, "per sqft") || strings.Contains(lower, "/sqft") || strings.Contains(lower, "sq ft"):
		return n, models.PriceUnitPerSqft
	default:
		// bare number with no magnitude word: treat as already in rupees
		// and leave unit unspecified so downstream filters skip it.
		return n, models.PriceUnitUnspecified
	}
}

// priceToLac converts a record's price value+unit into lac, returning 0 if
// the unit cannot be expressed in lac (filters then skip it).
func priceToLac(value float64, unit models.PriceUnit) float64 {
	switch unit {
	case models.PriceUnitLac:
		return value
	case models.PriceUnitCrore:
		return value * 100
	default:
		return 0
	}
}

// normalizeArea parses text like "1450 sqft" or "2.5 Acres" into a value
// and AreaUnit, best-effort from the unit word present in the text.
func normalizeArea(text string) (float64, models.AreaUnit) {
	lower := strings.ToLower(text)
	numbers := digitsPattern.FindString(strings.ReplaceAll(text, ",", ""))
	if numbers == "" {
		return 0, models.AreaUnitUnknown
	}
	n, err := strconv.ParseFloat(numbers, 64)
	if err != nil {
		return 0, models.AreaUnitUnknown
	}
	switch {
	case strings.Contains(lower, "sq yard") || strings.Contains(lower, "sqyd"):
		return n, models.AreaUnitSqYards
	case strings.Contains(lower, "sq m") || strings.Contains(lower, "sqm"):
		return n, models.AreaUnitSqMeters
	case strings.Contains(lower, "acre"):
		return n, models.AreaUnitAcres
	case strings.Contains(lower, "bigha"):
		return n, models.AreaUnitBigha
	case strings.Contains(lower, "katha"):
		return n, models.AreaUnitKatha
	case strings.Contains(lower, "sqft") || strings.Contains(lower, "sq ft"):
		return n, models.AreaUnitSqft
	default:
		return n, models.AreaUnitUnknown
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// qualityScore computes data_quality_score as the filled-field ratio over
// models.CanonicalFields, scaled to 0-100.
func qualityScore(r *models.PropertyRecord) float64 {
	filled := 0
	total := len(models.CanonicalFields)

	nonEmpty := map[string]bool{
		"title":         r.Title != "",
		"price_text":    r.PriceText != "",
		"area_text":     r.AreaText != "",
		"price_value":   r.PriceValue != 0,
		"area_value":    r.AreaValue != 0,
		"locality":      r.Locality != "",
		"society":       r.Society != "",
		"city":          r.City != "",
		"property_type": r.PropertyType != "",
		"bhk":           r.BHK != "",
		"bathrooms":     r.Bathrooms != nil,
		"balconies":     r.Balconies != nil,
		"status":        r.Status != "" && r.Status != models.StatusUnspecified,
		"posting_date_raw": r.PostingDateRaw != "",
		"url":           r.URL != "",
	}

	for _, f := range models.CanonicalFields {
		if nonEmpty[f] {
			filled++
		}
	}
	if total == 0 {
		return 0
	}
	score := (float64(filled) / float64(total)) * 100
	return roundToOneDecimal(score)
}

func roundToOneDecimal(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
