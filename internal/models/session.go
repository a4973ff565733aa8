package models

import (
	"strings"
	"time"
)

// ScrapingMode controls listing sort order, stopping criteria, and whether
// Tracker filtering applies. See spec §3.4.
type ScrapingMode string

const (
	ModeFull        ScrapingMode = "FULL"
	ModeIncremental ScrapingMode = "INCREMENTAL"
	ModeConservative ScrapingMode = "CONSERVATIVE"
	ModeDateRange   ScrapingMode = "DATE_RANGE"
	ModeCustom      ScrapingMode = "CUSTOM"
)

// ParseMode parses a mode keyword case-insensitively, per spec §6.
func ParseMode(s string) (ScrapingMode, error) {
	switch strings.ToLower(s) {
	case "full":
		return ModeFull, nil
	case "incremental":
		return ModeIncremental, nil
	case "conservative":
		return ModeConservative, nil
	case "date_range", "daterange":
		return ModeDateRange, nil
	case "custom":
		return ModeCustom, nil
	default:
		return "", &ConfigError{FilePath: "mode", Cause: errUnknownMode(s)}
	}
}

// UsesSortByDateDescending reports whether the mode appends the "newest
// first" listing query parameter (spec §4.6 step 2).
func (m ScrapingMode) UsesSortByDateDescending() bool {
	switch m {
	case ModeIncremental, ModeConservative, ModeDateRange:
		return true
	default:
		return false
	}
}

// AppliesTrackerFiltering reports whether smart-filtering against the
// Tracker is relevant for this mode. FULL mode still allows force-rescrape
// overrides but does not imply smart filtering by itself.
func (m ScrapingMode) AppliesTrackerFiltering() bool {
	return m != ModeFull
}

// SessionStats holds the per-run counters surfaced to the operator and
// embedded in export metadata. See spec §3.3.
type SessionStats struct {
	SessionID   string       `json:"session_id"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	Mode        ScrapingMode `json:"mode"`
	City        string       `json:"city,omitempty"`

	PagesScraped                int `json:"pages_scraped"`
	PropertiesFound              int `json:"properties_found"`
	PropertiesSaved               int `json:"properties_saved"`
	IndividualPropertiesScraped int `json:"individual_properties_scraped"`

	IncrementalStopped bool   `json:"incremental_stopped"`
	StopReason         string `json:"stop_reason,omitempty"`

	FilterStats FilterStats `json:"filter_stats"`

	DetectionEvents int `json:"detection_events"`
}

// Duration returns EndTime-StartTime, or zero if the session hasn't ended.
func (s SessionStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// FilterStats accumulates filter outcomes across one session (spec §4.4,
// testable property #4: Total = Filtered + Excluded).
type FilterStats struct {
	Total    int `json:"total"`
	Filtered int `json:"filtered"` // passed validation and user filters
	Excluded int `json:"excluded"` // dropped by validation or user filters
}

// Record tallies one record's outcome into the summary.
func (f *FilterStats) Record(passed bool) {
	f.Total++
	if passed {
		f.Filtered++
	} else {
		f.Excluded++
	}
}
