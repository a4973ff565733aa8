package tracker

import (
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

// Tracker answers "should this URL be re-scraped?" against a Store,
// applying the smart-filter decision ladder from spec §4.5.
type Tracker struct {
	store            Store
	qualityThreshold float64
	ttlDays          int
}

// New builds a Tracker over store with the given quality threshold (0-100)
// and TTL in days. Zero values fall back to the spec defaults (60, 30).
func New(store Store, qualityThreshold float64, ttlDays int) *Tracker {
	if qualityThreshold == 0 {
		qualityThreshold = 60
	}
	if ttlDays == 0 {
		ttlDays = 30
	}
	return &Tracker{store: store, qualityThreshold: qualityThreshold, ttlDays: ttlDays}
}

// IsScraped reports whether url has any recorded history at all.
func (t *Tracker) IsScraped(url string) (bool, error) {
	_, ok, err := t.store.Get(HashURL(NormalizeURL(url)))
	return ok, err
}

// SmartFilter evaluates each of urls against the decision ladder and
// returns a summary plus the included subset, in input order.
func (t *Tracker) SmartFilter(urls []string, now time.Time) (models.SmartFilterSummary, error) {
	summary := models.SmartFilterSummary{
		Total:  len(urls),
		Counts: make(map[models.SmartFilterLabel]int, 5),
	}

	staleCutoff := now.AddDate(0, 0, -t.ttlDays)

	for _, u := range urls {
		decision, err := t.decide(u, staleCutoff)
		if err != nil {
			return summary, err
		}
		summary.Counts[decision.Label]++
		if decision.Include {
			summary.Included = append(summary.Included, u)
		}
	}

	return summary, nil
}

func (t *Tracker) decide(rawURL string, staleCutoff time.Time) (models.SmartFilterDecision, error) {
	hash := HashURL(NormalizeURL(rawURL))
	entry, ok, err := t.store.Get(hash)
	if err != nil {
		return models.SmartFilterDecision{}, err
	}

	if !ok {
		return models.SmartFilterDecision{URL: rawURL, Include: true, Label: models.LabelNew}, nil
	}
	if !entry.ExtractionSuccess {
		return models.SmartFilterDecision{URL: rawURL, Include: true, Label: models.LabelFailedExtract}, nil
	}
	if entry.DataQualityScore < t.qualityThreshold {
		return models.SmartFilterDecision{URL: rawURL, Include: true, Label: models.LabelLowQuality}, nil
	}
	if entry.LastScrapedAt.Before(staleCutoff) {
		return models.SmartFilterDecision{URL: rawURL, Include: true, Label: models.LabelStale}, nil
	}
	return models.SmartFilterDecision{URL: rawURL, Include: false, Label: models.LabelSkipGood}, nil
}

// RecordResult upserts a scrape attempt's outcome for url. scrapeCount
// tracks the attempt count client-side; SQLStore.Upsert increments the
// persisted counter itself on conflict, so callers pass 1 for new entries.
func (t *Tracker) RecordResult(url string, success bool, qualityScore float64, now time.Time) error {
	normalized := NormalizeURL(url)
	hash := HashURL(normalized)

	existing, ok, err := t.store.Get(hash)
	if err != nil {
		return err
	}

	firstSeen := now
	scrapeCount := 1
	if ok {
		firstSeen = existing.FirstSeenAt
		scrapeCount = existing.ScrapeCount + 1
	}

	return t.store.Upsert(&models.TrackerEntry{
		URLHash:           hash,
		PropertyURL:       normalized,
		FirstSeenAt:       firstSeen,
		LastScrapedAt:     now,
		DataQualityScore:  qualityScore,
		ExtractionSuccess: success,
		ScrapeCount:       scrapeCount,
	})
}
