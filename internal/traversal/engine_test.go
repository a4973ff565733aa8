package traversal

import (
	"os"
	"testing"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

func TestCitySlug_Overrides(t *testing.T) {
	cases := map[string]string{
		"Delhi":     "new-delhi",
		"delhi":     "new-delhi",
		"Bengaluru": "bangalore",
		"Pune":      "pune",
		"Navi Mumbai": "navi-mumbai",
	}
	for in, want := range cases {
		if got := CitySlug(in); got != want {
			t.Errorf("CitySlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPageURL(t *testing.T) {
	if got := pageURL("https://x.com/listings", 1); got != "https://x.com/listings" {
		t.Errorf("page 1 should not append a query param, got %q", got)
	}
	if got := pageURL("https://x.com/listings", 3); got != "https://x.com/listings?page=3" {
		t.Errorf("unexpected page url: %q", got)
	}
	if got := pageURL("https://x.com/listings?sort=date_desc", 2); got != "https://x.com/listings?sort=date_desc&page=2" {
		t.Errorf("unexpected page url with existing query: %q", got)
	}
}

func TestBuildBaseURL_SortAppendedForIncrementalModes(t *testing.T) {
	e := &Engine{baseHost: "www.example.com"}

	full := e.buildBaseURL("pune", models.ModeFull)
	if full != "https://www.example.com/property-for-sale-in-pune" {
		t.Errorf("unexpected FULL-mode base url: %q", full)
	}

	incremental := e.buildBaseURL("pune", models.ModeIncremental)
	if incremental != "https://www.example.com/property-for-sale-in-pune?sort=date_desc" {
		t.Errorf("unexpected INCREMENTAL-mode base url: %q", incremental)
	}
}

func TestLocateCards_AcceptsFirstSelectorMeetingThreshold(t *testing.T) {
	e := &Engine{cfg: config.TraversalConfig{MinCardsPerPage: 10}}
	html, err := os.ReadFile("testdata/many_cards.html")
	if err != nil {
		t.Fatal(err)
	}

	cards, err := e.locateCards(string(html))
	if err != nil {
		t.Fatal(err)
	}
	if cards == nil || cards.Length() != 10 {
		t.Fatalf("expected 10 cards, got %v", cards)
	}
}

func TestLocateCards_RejectsBelowThreshold(t *testing.T) {
	e := &Engine{cfg: config.TraversalConfig{MinCardsPerPage: 10}}
	html, err := os.ReadFile("testdata/few_cards.html")
	if err != nil {
		t.Fatal(err)
	}

	cards, err := e.locateCards(string(html))
	if err != nil {
		t.Fatal(err)
	}
	if cards != nil {
		t.Errorf("expected nil when no selector meets the min-cards threshold, got %d cards", cards.Length())
	}
}
