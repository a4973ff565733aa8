package export

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

// ErrNoRecords is returned by every sink when asked to export an empty
// batch, per spec §4.9 ("if zero records, the exporter emits a warning and
// produces no file").
var ErrNoRecords = errors.New("export: no records to write")

// ScraperVersion is embedded in the JSON metadata envelope. Bumped
// alongside releases; not otherwise consulted by the scraper itself.
const ScraperVersion = "1.0.0"

// Envelope wraps a batch of records with run metadata, per spec §4.9.
type Envelope struct {
	ScrapeTimestamp time.Time               `json:"scrape_timestamp"`
	TotalProperties int                     `json:"total_properties"`
	SessionStats    models.SessionStats     `json:"session_stats"`
	ScraperVersion  string                  `json:"scraper_version"`
	Records         []*models.PropertyRecord `json:"records"`
}

// WriteJSON renders records plus stats as a metadata-enveloped JSON
// document at path, atomically.
func WriteJSON(path string, records []*models.PropertyRecord, stats models.SessionStats, now time.Time) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	env := Envelope{
		ScrapeTimestamp: now,
		TotalProperties: len(records),
		SessionStats:    stats,
		ScraperVersion:  ScraperVersion,
		Records:         records,
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}

	return writeAtomic(path, data)
}
