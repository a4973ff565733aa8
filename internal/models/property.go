package models

import "time"

// PriceUnit is the unit a listing's price_value is denominated in.
type PriceUnit string

const (
	PriceUnitLac        PriceUnit = "lac"
	PriceUnitCrore      PriceUnit = "crore"
	PriceUnitPerSqft    PriceUnit = "per_sqft"
	PriceUnitUnspecified PriceUnit = "unspecified"
	PriceUnitOnRequest  PriceUnit = "on_request"
)

// AreaUnit is the unit a listing's area_value is denominated in.
type AreaUnit string

const (
	AreaUnitSqft      AreaUnit = "sqft"
	AreaUnitSqYards   AreaUnit = "sq_yards"
	AreaUnitSqMeters  AreaUnit = "sq_meters"
	AreaUnitAcres     AreaUnit = "acres"
	AreaUnitBigha     AreaUnit = "bigha"
	AreaUnitKatha     AreaUnit = "katha"
	AreaUnitUnknown   AreaUnit = "unspecified"
)

// sqftPerUnit converts one unit of AreaUnit into square feet. Units absent
// from this table are left unconverted by the validator's filter path.
var sqftPerUnit = map[AreaUnit]float64{
	AreaUnitSqft:     1.0,
	AreaUnitSqYards:  9.0,
	AreaUnitSqMeters: 10.7639,
	AreaUnitAcres:    43560.0,
	AreaUnitBigha:    27000.0, // north-Indian bigha approximation, locality-dependent in reality
	AreaUnitKatha:    720.0,
}

// SqftFactor returns the conversion factor to sqft for u, and whether one is known.
func SqftFactor(u AreaUnit) (float64, bool) {
	f, ok := sqftPerUnit[u]
	return f, ok
}

// AreaKind describes what the area_value measures.
type AreaKind string

const (
	AreaKindCarpet      AreaKind = "carpet"
	AreaKindBuiltUp     AreaKind = "built_up"
	AreaKindSuper       AreaKind = "super"
	AreaKindPlot        AreaKind = "plot"
	AreaKindLand        AreaKind = "land"
	AreaKindUnspecified AreaKind = "unspecified"
)

// Status is the construction/possession status of a listing.
type Status string

const (
	StatusReadyToMove          Status = "ready_to_move"
	StatusUnderConstruction    Status = "under_construction"
	StatusNewLaunch            Status = "new_launch"
	StatusResale               Status = "resale"
	StatusPreLaunch            Status = "pre_launch"
	StatusImmediatePossession  Status = "immediate_possession"
	StatusPossessionDated      Status = "possession_dated"
	StatusUnspecified          Status = "unspecified"
)

// PropertyRecord is one scraped listing, refined progressively by the DOM
// extractor, the validator, and (optionally) the PDP work engine.
type PropertyRecord struct {
	URL     string `json:"url"`
	URLHash string `json:"url_hash"`

	Title     string `json:"title"`
	PriceText string `json:"price_text"`
	AreaText  string `json:"area_text"`

	PriceValue float64   `json:"price_value"`
	PriceUnit  PriceUnit `json:"price_unit"`

	AreaValue float64  `json:"area_value"`
	AreaUnit  AreaUnit `json:"area_unit"`
	AreaKind  AreaKind `json:"area_kind"`

	Locality string `json:"locality"`
	Society  string `json:"society"`
	City     string `json:"city"`

	PropertyType string `json:"property_type"`
	BHK          string `json:"bhk"`

	Bathrooms *int `json:"bathrooms,omitempty"`
	Balconies *int `json:"balconies,omitempty"`

	Status Status `json:"status"`

	// PostingDateRawPrimary/Secondary capture both posting-date element
	// positions the target site occasionally renders (see spec's open
	// question on dual posting-date positions). Canonical is whichever
	// parses to the earlier timestamp; the choice is logged, not silent.
	PostingDateRawPrimary   string     `json:"posting_date_raw_primary,omitempty"`
	PostingDateRawSecondary string     `json:"posting_date_raw_secondary,omitempty"`
	PostingDateRaw          string     `json:"posting_date_raw"`
	PostingDateParsed       *time.Time `json:"posting_date_parsed,omitempty"`

	PageNumber      int       `json:"page_number"`
	PositionOnPage  int       `json:"position_on_page"`
	ScrapedAt       time.Time `json:"scraped_at"`
	SessionID       string    `json:"session_id,omitempty"`

	IsPremium          bool     `json:"is_premium"`
	PremiumIndicators  []string `json:"premium_indicators,omitempty"`

	DataQualityScore float64  `json:"data_quality_score"`
	ValidationIssues []string `json:"validation_issues,omitempty"`

	// ExtendedFields is populated only after a PDP visit: amenities,
	// builder_name, specifications, description, and similar free-form data.
	ExtendedFields map[string]string `json:"extended_fields,omitempty"`
}

// ProvenanceFields are excluded from the canonical field list used to
// compute DataQualityScore, per spec §4.4.
var ProvenanceFields = map[string]bool{
	"scraped_at":      true,
	"session_id":      true,
	"page_number":     true,
	"property_index":  true,
}

// CanonicalFields lists the fields that count toward DataQualityScore.
// Centralized here so the validator and any future reporting code agree
// on exactly which fields are "canonical".
var CanonicalFields = []string{
	"title", "price_text", "area_text", "price_value", "area_value",
	"locality", "society", "city", "property_type", "bhk",
	"bathrooms", "balconies", "status", "posting_date_raw", "url",
}

// HasMinimalContent reports whether r has at least a title, or both a price
// and an area — the baseline validity rule from spec §3.1. Premium listings
// use the more lenient PremiumHasMinimalContent instead.
func (r *PropertyRecord) HasMinimalContent() bool {
	if r.Title != "" {
		return true
	}
	return r.PriceText != "" && r.AreaText != ""
}

// PremiumHasMinimalContent is the lenient validity rule for premium cards:
// any one of title/price/area is sufficient (spec §4.3 premium detection).
func (r *PropertyRecord) PremiumHasMinimalContent() bool {
	return r.Title != "" || r.PriceText != "" || r.AreaText != ""
}

// MergeFromPDP overlays PDP-phase fields onto a listing-phase record,
// keyed implicitly by the caller already having matched on URLHash.
// PDP fields win when non-empty; ExtendedFields are merged key-by-key.
func (r *PropertyRecord) MergeFromPDP(pdp *PropertyRecord) {
	if pdp == nil {
		return
	}
	if pdp.Title != "" {
		r.Title = pdp.Title
	}
	if pdp.PriceText != "" {
		r.PriceText = pdp.PriceText
		r.PriceValue = pdp.PriceValue
		r.PriceUnit = pdp.PriceUnit
	}
	if pdp.AreaText != "" {
		r.AreaText = pdp.AreaText
		r.AreaValue = pdp.AreaValue
		r.AreaUnit = pdp.AreaUnit
		r.AreaKind = pdp.AreaKind
	}
	if pdp.Status != "" && pdp.Status != StatusUnspecified {
		r.Status = pdp.Status
	}
	if len(pdp.ExtendedFields) > 0 {
		if r.ExtendedFields == nil {
			r.ExtendedFields = make(map[string]string, len(pdp.ExtendedFields))
		}
		for k, v := range pdp.ExtendedFields {
			r.ExtendedFields[k] = v
		}
	}
}
