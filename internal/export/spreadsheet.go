package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

// WriteSpreadsheetBundle writes the "tabular-spreadsheet" sink as three
// CSV files sharing basePath's stem: <base>_records.csv, <base>_summary.csv,
// and <base>_citybreakdown.csv. No xlsx writer appears anywhere in the
// example corpus (see DESIGN.md); this stdlib-only bundle is the
// deliberate substitute.
func WriteSpreadsheetBundle(basePath string, records []*models.PropertyRecord, stats models.SessionStats) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	base := strings.TrimSuffix(basePath, ".csv")

	if err := WriteCSV(base+"_records.csv", records); err != nil {
		return err
	}
	if err := writeSummarySheet(base+"_summary.csv", stats); err != nil {
		return err
	}
	return writeCityBreakdownSheet(base+"_citybreakdown.csv", records)
}

func writeSummarySheet(path string, stats models.SessionStats) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{
		{"metric", "value"},
		{"session_id", stats.SessionID},
		{"mode", string(stats.Mode)},
		{"city", stats.City},
		{"pages_scraped", strconv.Itoa(stats.PagesScraped)},
		{"properties_found", strconv.Itoa(stats.PropertiesFound)},
		{"properties_saved", strconv.Itoa(stats.PropertiesSaved)},
		{"individual_properties_scraped", strconv.Itoa(stats.IndividualPropertiesScraped)},
		{"incremental_stopped", strconv.FormatBool(stats.IncrementalStopped)},
		{"stop_reason", stats.StopReason},
		{"filter_total", strconv.Itoa(stats.FilterStats.Total)},
		{"filter_filtered", strconv.Itoa(stats.FilterStats.Filtered)},
		{"filter_excluded", strconv.Itoa(stats.FilterStats.Excluded)},
		{"detection_events", strconv.Itoa(stats.DetectionEvents)},
		{"duration_seconds", strconv.FormatFloat(stats.Duration().Seconds(), 'f', 1, 64)},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

func writeCityBreakdownSheet(path string, records []*models.PropertyRecord) error {
	counts := make(map[string]int)
	for _, r := range records {
		city := r.City
		if city == "" {
			city = "unspecified"
		}
		counts[city]++
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"city", "record_count"}); err != nil {
		return err
	}
	for city, n := range counts {
		if err := w.Write([]string{city, strconv.Itoa(n)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}
