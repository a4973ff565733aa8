package dateparse

import (
	"testing"
	"time"
)

func TestDefault_RelativePhrases(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p := Default{}

	cases := map[string]time.Time{
		"Posted: 2 days ago": now.AddDate(0, 0, -2),
		"3 weeks ago":        now.AddDate(0, 0, -21),
		"1 month ago":        now.AddDate(0, -1, 0),
		"today":              now,
		"Yesterday":          now.AddDate(0, 0, -1),
	}

	for text, want := range cases {
		got, err := p.Parse(text, now)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", text, err)
		}
		if got == nil {
			t.Fatalf("%q: expected a parsed timestamp", text)
		}
		if !got.Equal(want) {
			t.Errorf("%q: got %v, want %v", text, got, want)
		}
	}
}

func TestDefault_Unparseable(t *testing.T) {
	p := Default{}
	got, err := p.Parse("", time.Now())
	if err != nil || got != nil {
		t.Errorf("expected nil/nil for empty text, got %v/%v", got, err)
	}

	got, err = p.Parse("some unrelated text", time.Now())
	if err != nil || got != nil {
		t.Errorf("expected nil/nil for unrecognized text, got %v/%v", got, err)
	}
}

func TestResolveCanonical_PicksEarlier(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	p := Default{}

	_, parsed, chosePrimary := ResolveCanonical(p, "2 days ago", "5 days ago", now)
	if chosePrimary {
		t.Error("expected the secondary (earlier) timestamp to be chosen")
	}
	if parsed == nil || !parsed.Equal(now.AddDate(0, 0, -5)) {
		t.Errorf("unexpected canonical timestamp: %v", parsed)
	}
}

func TestResolveCanonical_FallsBackToWhicheverParses(t *testing.T) {
	now := time.Now()
	p := Default{}

	_, parsed, chosePrimary := ResolveCanonical(p, "unparseable", "3 days ago", now)
	if !parsed.Equal(now.AddDate(0, 0, -3)) {
		t.Errorf("expected secondary's timestamp when primary is unparseable, got %v", parsed)
	}
	if chosePrimary {
		t.Error("expected chosePrimary=false when secondary supplied the only parse")
	}
}
