package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

// Paths collects the output file paths actually written, per requested
// format, for the coordinator's final summary.
type Paths struct {
	CSV         string
	JSON        string
	Spreadsheet []string
	SQLWritten  bool
}

// Export writes records to every sink named in cfg.Formats. When records is
// empty it writes no file and returns ErrNoRecords.
func Export(cfg config.ExportConfig, outputDir, sessionID string, records []*models.PropertyRecord, stats models.SessionStats, now time.Time) (Paths, error) {
	var paths Paths

	if len(records) == 0 {
		return paths, ErrNoRecords
	}

	stem := fmt.Sprintf("estatecrawl_%s", sessionID)

	for _, format := range cfg.Formats {
		switch format {
		case "csv":
			path := filepath.Join(outputDir, stem+".csv")
			if err := WriteCSV(path, records); err != nil {
				return paths, fmt.Errorf("export: csv: %w", err)
			}
			paths.CSV = path

		case "json":
			path := filepath.Join(outputDir, stem+".json")
			if err := WriteJSON(path, records, stats, now); err != nil {
				return paths, fmt.Errorf("export: json: %w", err)
			}
			paths.JSON = path

		case "spreadsheet":
			base := filepath.Join(outputDir, stem)
			if err := WriteSpreadsheetBundle(base, records, stats); err != nil {
				return paths, fmt.Errorf("export: spreadsheet: %w", err)
			}
			paths.Spreadsheet = []string{base + "_records.csv", base + "_summary.csv", base + "_citybreakdown.csv"}

		case "sql":
			if cfg.SQLDSN == "" {
				return paths, fmt.Errorf("export: sql format requested but sql_dsn is empty")
			}
			sink, err := OpenSQLSink(cfg.SQLDSN)
			if err != nil {
				return paths, fmt.Errorf("export: sql: %w", err)
			}
			defer sink.Close()
			if err := sink.Write(records); err != nil {
				return paths, fmt.Errorf("export: sql: write: %w", err)
			}
			paths.SQLWritten = true

		default:
			return paths, fmt.Errorf("export: unknown format %q", format)
		}
	}

	return paths, nil
}
