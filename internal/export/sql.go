package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

// SQLSink writes records to a Postgres table via lib/pq, mirroring the
// corpus's batch-insert-with-placeholders idiom.
type SQLSink struct {
	db *sql.DB
}

// OpenSQLSink connects to dsn and ensures the export table exists.
func OpenSQLSink(dsn string) (*SQLSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("export: sql: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("export: sql: ping: %w", err)
	}

	s := &SQLSink{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("export: sql: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLSink) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS property_records (
			url_hash           TEXT PRIMARY KEY,
			property_url       TEXT,
			title              TEXT,
			price_value        NUMERIC(14,2),
			price_unit         TEXT,
			area_value         NUMERIC(14,2),
			area_unit          TEXT,
			locality           TEXT,
			city               TEXT,
			data_quality_score NUMERIC(5,1),
			session_id         TEXT,
			scraped_at         TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_property_records_city ON property_records(city);
	`)
	return err
}

// Write upserts records by url_hash, batching in groups of 50.
func (s *SQLSink) Write(records []*models.PropertyRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		if err := s.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLSink) insertBatch(batch []*models.PropertyRecord) error {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for c := 0; c < cols; c++ {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		args = append(args,
			r.URLHash, r.URL, r.Title, r.PriceValue, string(r.PriceUnit),
			r.AreaValue, string(r.AreaUnit), r.Locality, r.City,
			r.DataQualityScore, r.SessionID, r.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO property_records
			(url_hash, property_url, title, price_value, price_unit,
			 area_value, area_unit, locality, city, data_quality_score,
			 session_id, scraped_at)
		VALUES %s
		ON CONFLICT (url_hash) DO UPDATE SET
			title              = EXCLUDED.title,
			price_value        = EXCLUDED.price_value,
			data_quality_score = EXCLUDED.data_quality_score,
			scraped_at         = EXCLUDED.scraped_at
	`, strings.Join(valueStrings, ","))

	_, err := s.db.Exec(query, args...)
	return err
}

// Close closes the underlying connection pool.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
