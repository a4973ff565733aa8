package extractor

import (
	"os"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func loadFixture(t *testing.T, name string) *goquery.Selection {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	if err != nil {
		t.Fatalf("open fixture %s: %v", name, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		t.Fatalf("parse fixture %s: %v", name, err)
	}
	return doc.Find(".card").First()
}

func TestExtractCard_Standard(t *testing.T) {
	card := loadFixture(t, "standard_card.html")
	ex := New("www.example.com")

	rec, ok := ex.ExtractCard(card, 1, 1)
	if !ok {
		t.Fatal("expected a usable record")
	}

	if rec.Title == "" {
		t.Error("expected a title")
	}
	if rec.PriceText != "₹85 Lakh" {
		t.Errorf("unexpected price text: %q", rec.PriceText)
	}
	if rec.AreaText != "1450 sqft" {
		t.Errorf("unexpected area text: %q", rec.AreaText)
	}
	if rec.BHK != "3 BHK" {
		t.Errorf("unexpected bhk: %q", rec.BHK)
	}
	if rec.Society != "Prestige Tech Park" {
		t.Errorf("unexpected society: %q", rec.Society)
	}
	if rec.Locality != "Whitefield" {
		t.Errorf("unexpected locality: %q", rec.Locality)
	}
	if rec.Status != "ready_to_move" {
		t.Errorf("unexpected status: %q", rec.Status)
	}
	if rec.Bathrooms == nil || *rec.Bathrooms != 2 {
		t.Errorf("unexpected bathrooms: %v", rec.Bathrooms)
	}
	if rec.Balconies == nil || *rec.Balconies != 1 {
		t.Errorf("unexpected balconies: %v", rec.Balconies)
	}
	if rec.IsPremium {
		t.Error("did not expect this card to be flagged premium")
	}
	if rec.URL == "" {
		t.Error("expected a resolved property url")
	}
}

func TestExtractCard_Premium(t *testing.T) {
	card := loadFixture(t, "premium_card.html")
	ex := New("www.example.com")

	rec, ok := ex.ExtractCard(card, 1, 2)
	if !ok {
		t.Fatal("premium card with only a price should still be usable")
	}
	if !rec.IsPremium {
		t.Error("expected card to be flagged premium")
	}
	if len(rec.PremiumIndicators) == 0 {
		t.Error("expected at least one premium indicator recorded")
	}
}

func TestExtractCard_Empty(t *testing.T) {
	card := loadFixture(t, "empty_card.html")
	ex := New("www.example.com")

	_, ok := ex.ExtractCard(card, 1, 3)
	if ok {
		t.Error("expected a card with no title/price/area to be rejected")
	}
}

func TestExtractPDP(t *testing.T) {
	f, err := os.Open("testdata/pdp_page.html")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	ex := New("www.example.com")
	rec := ex.ExtractPDP(doc)

	if rec.Title == "" {
		t.Error("expected a title from h1")
	}
	if rec.Status != "ready_to_move" {
		t.Errorf("unexpected status: %q", rec.Status)
	}
	if rec.ExtendedFields["furnishing"] != "Semi-Furnished" {
		t.Errorf("unexpected furnishing: %q", rec.ExtendedFields["furnishing"])
	}
	if rec.ExtendedFields["car_parking"] != "1 Covered" {
		t.Errorf("unexpected car_parking: %q", rec.ExtendedFields["car_parking"])
	}
	if rec.PostingDateRawSecondary == "" {
		t.Error("expected a secondary posting date position to be captured")
	}
}

func TestIsValidPropertyURL(t *testing.T) {
	ex := New("www.example.com")

	valid := "/flat-for-sale-in-whitefield-bangalore-pdpid-abc123"
	if !ex.isValidPropertyURL(valid) {
		t.Errorf("expected %q to be valid", valid)
	}

	for _, invalid := range []string{"", "#", "javascript:void(0)", "mailto:[email protected]"} {
		if ex.isValidPropertyURL(invalid) {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
}
