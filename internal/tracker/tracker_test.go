package tracker

import (
	"testing"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

type fakeStore struct {
	entries map[string]*models.TrackerEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*models.TrackerEntry)}
}

func (f *fakeStore) Get(urlHash string) (*models.TrackerEntry, bool, error) {
	e, ok := f.entries[urlHash]
	if !ok {
		return nil, false, nil
	}
	cp := *e
	return &cp, true, nil
}

func (f *fakeStore) Upsert(entry *models.TrackerEntry) error {
	cp := *entry
	f.entries[entry.URLHash] = &cp
	return nil
}

func (f *fakeStore) Close() error { return nil }

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"HTTPS://WWW.Example.com/listing/123/":                    "https://www.example.com/listing/123",
		"https://example.com/p/1?utm_source=x&id=1":               "https://example.com/p/1?id=1",
		"https://example.com/p/1#section":                         "https://example.com/p/1",
		"https://example.com/p/1":                                 "https://example.com/p/1",
	}
	for in, want := range cases {
		got := NormalizeURL(in)
		if got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeURL_IsStable(t *testing.T) {
	a := NormalizeURL("https://example.com/p/1?b=2&a=1")
	b := NormalizeURL("https://example.com/p/1?a=1&b=2")
	if a != b {
		t.Errorf("expected param-order-independent normalization, got %q vs %q", a, b)
	}
}

func TestHashURL_DeterministicAndDistinct(t *testing.T) {
	h1 := HashURL("https://example.com/p/1")
	h2 := HashURL("https://example.com/p/1")
	h3 := HashURL("https://example.com/p/2")

	if h1 != h2 {
		t.Error("expected identical input to hash identically")
	}
	if h1 == h3 {
		t.Error("expected different URLs to hash differently")
	}
}

func TestSmartFilter_NewURL(t *testing.T) {
	tr := New(newFakeStore(), 60, 30)
	summary, err := tr.SmartFilter([]string{"https://example.com/p/1"}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Counts[models.LabelNew] != 1 || len(summary.Included) != 1 {
		t.Errorf("expected an unseen URL to be labeled NEW and included: %+v", summary)
	}
}

func TestSmartFilter_FailedExtractionIncluded(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	tr := New(store, 60, 30)
	if err := tr.RecordResult("https://example.com/p/1", false, 0, now); err != nil {
		t.Fatal(err)
	}

	summary, err := tr.SmartFilter([]string{"https://example.com/p/1"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Counts[models.LabelFailedExtract] != 1 {
		t.Errorf("expected FAILED-EXTRACTION label: %+v", summary)
	}
}

func TestSmartFilter_LowQualityIncluded(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	tr := New(store, 60, 30)
	if err := tr.RecordResult("https://example.com/p/1", true, 40, now); err != nil {
		t.Fatal(err)
	}

	summary, err := tr.SmartFilter([]string{"https://example.com/p/1"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Counts[models.LabelLowQuality] != 1 {
		t.Errorf("expected LOW-QUALITY label: %+v", summary)
	}
}

func TestSmartFilter_StaleIncluded(t *testing.T) {
	store := newFakeStore()
	past := time.Now().AddDate(0, 0, -40)
	tr := New(store, 60, 30)
	if err := tr.RecordResult("https://example.com/p/1", true, 90, past); err != nil {
		t.Fatal(err)
	}

	summary, err := tr.SmartFilter([]string{"https://example.com/p/1"}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Counts[models.LabelStale] != 1 {
		t.Errorf("expected STALE label: %+v", summary)
	}
}

func TestSmartFilter_SkipGoodExcluded(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	tr := New(store, 60, 30)
	if err := tr.RecordResult("https://example.com/p/1", true, 90, now); err != nil {
		t.Fatal(err)
	}

	summary, err := tr.SmartFilter([]string{"https://example.com/p/1"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Counts[models.LabelSkipGood] != 1 {
		t.Errorf("expected SKIP-GOOD label: %+v", summary)
	}
	if len(summary.Included) != 0 {
		t.Error("expected a fresh, high-quality, successful URL to be skipped")
	}
}

// TestSmartFilter_Soundness exercises spec invariant #5: any URL present in
// the Tracker within TTL, at/above threshold, and successfully extracted
// must be absent from SmartFilter's output.
func TestSmartFilter_Soundness(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	tr := New(store, 60, 30)

	urls := []string{
		"https://example.com/p/1", // good -> skip
		"https://example.com/p/2", // new -> include
	}
	if err := tr.RecordResult(urls[0], true, 75, now); err != nil {
		t.Fatal(err)
	}

	summary, err := tr.SmartFilter(urls, now)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range summary.Included {
		if u == urls[0] {
			t.Error("good, fresh, successful URL must not appear in included output")
		}
	}
	if summary.ReductionPercent() <= 0 {
		t.Error("expected a non-zero volume reduction when at least one URL is skipped")
	}
}

func TestRecordResult_IncrementsScrapeCount(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	tr := New(store, 60, 30)

	if err := tr.RecordResult("https://example.com/p/1", true, 80, now); err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordResult("https://example.com/p/1", true, 85, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	entry, ok, err := store.Get(HashURL(NormalizeURL("https://example.com/p/1")))
	if err != nil || !ok {
		t.Fatalf("expected an entry to exist: ok=%v err=%v", ok, err)
	}
	if entry.ScrapeCount != 2 {
		t.Errorf("expected scrape_count 2, got %d", entry.ScrapeCount)
	}
	if entry.DataQualityScore != 85 {
		t.Errorf("expected latest quality score 85, got %v", entry.DataQualityScore)
	}
}
