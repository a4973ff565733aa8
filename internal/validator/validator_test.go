package validator

import (
	"testing"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

func sampleRecord() *models.PropertyRecord {
	bath := 2
	return &models.PropertyRecord{
		Title:     "  3  BHK   Apartment\nfor Sale  ",
		PriceText: "₹85 Lakh",
		AreaText:  "1,450 sqft",
		Locality:  "Whitefield",
		Society:   "Prestige  Tech Park",
		Bathrooms: &bath,
		URL:       "https://www.example.com/p/abc123",
	}
}

func TestValidateAndClean_CollapsesWhitespace(t *testing.T) {
	v := New(config.FilterConfig{})
	r := v.ValidateAndClean(sampleRecord())

	if r.Title != "3 BHK Apartment for Sale" {
		t.Errorf("unexpected title: %q", r.Title)
	}
	if r.Society != "Prestige Tech Park" {
		t.Errorf("unexpected society: %q", r.Society)
	}
}

func TestValidateAndClean_NormalizesPriceToLac(t *testing.T) {
	v := New(config.FilterConfig{})
	r := v.ValidateAndClean(sampleRecord())

	if r.PriceUnit != models.PriceUnitLac {
		t.Fatalf("expected lac unit, got %v", r.PriceUnit)
	}
	if r.PriceValue != 85 {
		t.Errorf("expected 85 lac, got %v", r.PriceValue)
	}

	crore := &models.PropertyRecord{Title: "x", PriceText: "₹1.2 Crore", AreaText: "1000 sqft"}
	r2 := v.ValidateAndClean(crore)
	if r2.PriceValue != 120 {
		t.Errorf("expected crore converted to 120 lac, got %v", r2.PriceValue)
	}
}

func TestValidateAndClean_NormalizesArea(t *testing.T) {
	v := New(config.FilterConfig{})
	r := v.ValidateAndClean(sampleRecord())

	if r.AreaUnit != models.AreaUnitSqft {
		t.Fatalf("expected sqft unit, got %v", r.AreaUnit)
	}
	if r.AreaValue != 1450 {
		t.Errorf("expected area 1450, got %v", r.AreaValue)
	}
}

func TestValidateAndClean_IsIdempotent(t *testing.T) {
	v := New(config.FilterConfig{})
	once := v.ValidateAndClean(sampleRecord())
	onceCopy := *once
	twice := v.ValidateAndClean(once)

	if onceCopy.Title != twice.Title || onceCopy.PriceValue != twice.PriceValue ||
		onceCopy.AreaValue != twice.AreaValue || onceCopy.DataQualityScore != twice.DataQualityScore {
		t.Error("validate_and_clean is not idempotent")
	}
}

func TestValidateAndClean_QualityScoreBounds(t *testing.T) {
	v := New(config.FilterConfig{})
	full := v.ValidateAndClean(sampleRecord())
	if full.DataQualityScore < 0 || full.DataQualityScore > 100 {
		t.Errorf("quality score out of bounds: %v", full.DataQualityScore)
	}

	empty := v.ValidateAndClean(&models.PropertyRecord{})
	if empty.DataQualityScore < 0 || empty.DataQualityScore > 100 {
		t.Errorf("quality score out of bounds: %v", empty.DataQualityScore)
	}
	if empty.DataQualityScore != 0 {
		t.Errorf("expected 0 for a fully empty record, got %v", empty.DataQualityScore)
	}
}

func TestIsValid_BaselineRule(t *testing.T) {
	v := New(config.FilterConfig{})

	titled := &models.PropertyRecord{Title: "something"}
	if !v.IsValid(titled) {
		t.Error("expected a record with a title to be valid")
	}

	priceArea := &models.PropertyRecord{PriceText: "x", AreaText: "y"}
	if !v.IsValid(priceArea) {
		t.Error("expected a record with price+area to be valid")
	}

	bare := &models.PropertyRecord{PriceText: "x"}
	if v.IsValid(bare) {
		t.Error("expected a price-only record to be invalid")
	}

	premiumBare := &models.PropertyRecord{IsPremium: true, PriceText: "x"}
	if !v.IsValid(premiumBare) {
		t.Error("expected a premium record with only a price to be valid")
	}
}

func TestApplyFilters_NoFilteringIncludesAll(t *testing.T) {
	v := New(config.FilterConfig{Enabled: false})
	r := &models.PropertyRecord{Title: "anything"}

	if !v.ApplyFilters(r) {
		t.Error("expected record to pass when filtering is disabled")
	}
	stats := v.Stats()
	if stats.Total != 1 || stats.Filtered != 1 || stats.Excluded != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestApplyFilters_PriceRange(t *testing.T) {
	cfg := config.FilterConfig{Enabled: true, PriceMaxLac: 100}
	v := New(cfg)

	inRange := &models.PropertyRecord{PriceValue: 85, PriceUnit: models.PriceUnitLac}
	if !v.ApplyFilters(inRange) {
		t.Error("expected 85 lac to pass a max of 100 lac")
	}

	outOfRange := &models.PropertyRecord{PriceValue: 200, PriceUnit: models.PriceUnitLac}
	if v.ApplyFilters(outOfRange) {
		t.Error("expected 200 lac to fail a max of 100 lac")
	}

	stats := v.Stats()
	if stats.Total != 2 || stats.Filtered != 1 || stats.Excluded != 1 {
		t.Errorf("filter-statistics invariant violated: %+v", stats)
	}
}

func TestApplyFilters_PropertyTypeAndExcludeKeywords(t *testing.T) {
	cfg := config.FilterConfig{
		Enabled:         true,
		PropertyTypes:   []string{"apartment"},
		ExcludeKeywords: []string{"under construction"},
	}
	v := New(cfg)

	match := &models.PropertyRecord{Title: "Nice Apartment", PropertyType: "Apartment"}
	if !v.ApplyFilters(match) {
		t.Error("expected apartment-type listing to pass")
	}

	wrongType := &models.PropertyRecord{Title: "Nice Villa", PropertyType: "Villa"}
	if v.ApplyFilters(wrongType) {
		t.Error("expected non-apartment listing to be excluded")
	}

	excludedKeyword := &models.PropertyRecord{Title: "Apartment under construction", PropertyType: "Apartment"}
	if v.ApplyFilters(excludedKeyword) {
		t.Error("expected excluded-keyword listing to be filtered out")
	}
}

func TestApplyFilters_StatisticsInvariant(t *testing.T) {
	cfg := config.FilterConfig{Enabled: true, PriceMaxLac: 100}
	v := New(cfg)

	records := []*models.PropertyRecord{
		{PriceValue: 50, PriceUnit: models.PriceUnitLac},
		{PriceValue: 150, PriceUnit: models.PriceUnitLac},
		{PriceValue: 90, PriceUnit: models.PriceUnitLac},
	}
	for _, r := range records {
		v.ApplyFilters(r)
	}

	stats := v.Stats()
	if stats.Total != stats.Filtered+stats.Excluded {
		t.Errorf("total != filtered + excluded: %+v", stats)
	}
}
