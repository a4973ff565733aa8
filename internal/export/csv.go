package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

var csvHeader = []string{
	"url", "url_hash", "title", "price_text", "price_value", "price_unit",
	"area_text", "area_value", "area_unit", "locality", "society", "city",
	"property_type", "bhk", "bathrooms", "balconies", "status",
	"posting_date_raw", "is_premium", "data_quality_score", "page_number", "scraped_at",
}

// WriteCSV renders records as a single CSV file at path, atomically.
// Per spec §4.9, zero records produces no file and returns ErrNoRecords.
func WriteCSV(path string, records []*models.PropertyRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write(csvRow(r)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return writeAtomic(path, buf.Bytes())
}

func csvRow(r *models.PropertyRecord) []string {
	bathrooms, balconies := "", ""
	if r.Bathrooms != nil {
		bathrooms = strconv.Itoa(*r.Bathrooms)
	}
	if r.Balconies != nil {
		balconies = strconv.Itoa(*r.Balconies)
	}

	return []string{
		r.URL, r.URLHash, r.Title, r.PriceText, formatFloat(r.PriceValue), string(r.PriceUnit),
		r.AreaText, formatFloat(r.AreaValue), string(r.AreaUnit), r.Locality, r.Society, r.City,
		r.PropertyType, r.BHK, bathrooms, balconies, string(r.Status),
		r.PostingDateRaw, strconv.FormatBool(r.IsPremium), formatFloat(r.DataQualityScore),
		strconv.Itoa(r.PageNumber), r.ScrapedAt.Format(time.RFC3339),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
