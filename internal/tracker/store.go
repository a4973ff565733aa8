// Package tracker persists per-URL scrape history and answers the
// smart-filter question that is the scraper's dominant throughput lever.
package tracker

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

// Store is the persistence seam the Tracker operates over. SQLStore is the
// production implementation; tests use an in-memory fake satisfying the
// same interface.
type Store interface {
	Get(urlHash string) (*models.TrackerEntry, bool, error)
	Upsert(entry *models.TrackerEntry) error
	Close() error
}

// SQLStore is a database/sql + lib/pq backed Store, keyed by url_hash with
// an idempotent upsert, mirroring the corpus's postgres-writer idiom.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore connects to dsn, retries the initial ping the way the
// corpus's postgres writer does, and runs additive schema migration.
func OpenSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("tracker: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: ping failed after retries: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("tracker: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tracker_entries (
			url_hash            TEXT PRIMARY KEY,
			property_url        TEXT        NOT NULL,
			first_seen_at       TIMESTAMPTZ NOT NULL,
			last_scraped_at     TIMESTAMPTZ NOT NULL,
			data_quality_score  NUMERIC(5,1) NOT NULL DEFAULT 0,
			extraction_success  BOOLEAN     NOT NULL DEFAULT false,
			scrape_count        INTEGER     NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_tracker_last_scraped ON tracker_entries(last_scraped_at);
		CREATE INDEX IF NOT EXISTS idx_tracker_quality      ON tracker_entries(data_quality_score);
	`)
	return err
}

// Get fetches the entry for urlHash, returning ok=false if no row exists.
func (s *SQLStore) Get(urlHash string) (*models.TrackerEntry, bool, error) {
	row := s.db.QueryRow(`
		SELECT url_hash, property_url, first_seen_at, last_scraped_at,
		       data_quality_score, extraction_success, scrape_count
		FROM tracker_entries WHERE url_hash = $1
	`, urlHash)

	var e models.TrackerEntry
	err := row.Scan(&e.URLHash, &e.PropertyURL, &e.FirstSeenAt, &e.LastScrapedAt,
		&e.DataQualityScore, &e.ExtractionSuccess, &e.ScrapeCount)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("tracker: get: %w", err)
	}
	return &e, true, nil
}

// Upsert inserts or updates entry, keyed by URLHash, incrementing
// scrape_count on conflict. Idempotent by url_hash per spec §4.5.
func (s *SQLStore) Upsert(entry *models.TrackerEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO tracker_entries
			(url_hash, property_url, first_seen_at, last_scraped_at,
			 data_quality_score, extraction_success, scrape_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url_hash) DO UPDATE SET
			last_scraped_at    = EXCLUDED.last_scraped_at,
			data_quality_score = EXCLUDED.data_quality_score,
			extraction_success = EXCLUDED.extraction_success,
			scrape_count       = tracker_entries.scrape_count + 1
	`, entry.URLHash, entry.PropertyURL, entry.FirstSeenAt, entry.LastScrapedAt,
		entry.DataQualityScore, entry.ExtractionSuccess, entry.ScrapeCount)
	if err != nil {
		return fmt.Errorf("tracker: upsert: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
