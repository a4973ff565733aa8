// Package coordinator orchestrates one full scrape session: traversal,
// optional PDP enrichment, a post-merge validation sweep, and export.
package coordinator

import (
	"context"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/antidetect"
	"github.com/RecoveryAshes/estatecrawl/internal/browser"
	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/export"
	"github.com/RecoveryAshes/estatecrawl/internal/extractor"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
	"github.com/RecoveryAshes/estatecrawl/internal/pdp"
	"github.com/RecoveryAshes/estatecrawl/internal/tracker"
	"github.com/RecoveryAshes/estatecrawl/internal/traversal"
	"github.com/RecoveryAshes/estatecrawl/internal/utils"
	"github.com/RecoveryAshes/estatecrawl/internal/validator"
)

// Options are the per-call overrides the CLI passes in, layered on top of
// the merged configuration file per spec §4.8 step 2.
type Options struct {
	City             string
	Mode             models.ScrapingMode
	IndividualPages  bool
	ForceRescrape    bool
	BaseHost         string
	PrevHighWater    *time.Time
}

// Run executes one full session and returns the final record buffer, the
// export paths actually written, and the session stats.
func Run(ctx context.Context, cfg *config.Config, opts Options) ([]*models.PropertyRecord, export.Paths, models.SessionStats, error) {
	sessionID := models.NewSessionID()
	logger := utils.WithSession(sessionID, "coordinator")

	stats := models.SessionStats{
		SessionID: sessionID,
		StartTime: time.Now(),
		Mode:      opts.Mode,
		City:      opts.City,
	}

	var trk *tracker.Tracker
	if cfg.Tracker.Enabled {
		store, err := tracker.OpenSQLStore(cfg.Tracker.DSN)
		if err != nil {
			return nil, export.Paths{}, stats, &models.FatalError{Reason: "opening tracker store", Cause: err}
		}
		defer store.Close()
		trk = tracker.New(store, cfg.Tracker.QualityThreshold, cfg.Tracker.TTLDays)
	}

	if opts.ForceRescrape {
		cfg.PDP.ForceRescrape = true
	}

	session := browser.New(cfg.Browser)
	if err := session.Start(ctx); err != nil {
		return nil, export.Paths{}, stats, &models.FatalError{Reason: "starting browser session", Cause: err}
	}
	defer session.Quit()

	ctrl := antidetect.NewController(antidetect.Config{
		RecentDetectionWindow: time.Duration(cfg.AntiDetect.RecentDetectionWindow) * time.Minute,
		LongSessionPages:      cfg.AntiDetect.LongSessionPages,
		LongSessionMinutes:    cfg.AntiDetect.LongSessionMinutes,
	})

	ex := extractor.New(opts.BaseHost)
	val := validator.New(cfg.Filter)

	tEngine := traversal.New(session, ex, val, ctrl, nil, cfg.Traversal, opts.BaseHost)
	tResult, err := tEngine.Traverse(ctx, opts.City, opts.Mode, opts.PrevHighWater)
	if err != nil {
		if fatal, ok := err.(*models.FatalError); ok {
			return nil, export.Paths{}, finalize(stats, tResult, nil), fatal
		}
		logger.Warn().Err(err).Msg("traversal ended with a non-fatal error")
	}

	stats.PagesScraped = tResult.PagesScraped
	stats.PropertiesFound = len(tResult.Records) + tResult.FilterStats.Excluded
	stats.PropertiesSaved = len(tResult.Records)
	stats.IncrementalStopped = tResult.IncrementalStopped
	stats.StopReason = tResult.StopReason
	stats.FilterStats = tResult.FilterStats
	stats.DetectionEvents = tResult.DetectionEvents

	buffer := make(map[string]*models.PropertyRecord, len(tResult.Records))
	for _, r := range tResult.Records {
		r.URLHash = tracker.HashURL(tracker.NormalizeURL(r.URL))
		r.SessionID = sessionID
		r.ScrapedAt = time.Now()
		buffer[r.URLHash] = r
	}

	var pdpDetails []pdp.Detail
	if opts.IndividualPages {
		urls := make([]string, 0, len(buffer))
		for _, r := range buffer {
			if r.URL != "" {
				urls = append(urls, r.URL)
			}
		}

		pdpEngine := pdp.New(session, ex, val, ctrl, trk, cfg.PDP)
		pdpDetails, err = pdpEngine.ScrapePDPs(ctx, urls, buffer, "")
		if err != nil {
			logger.Warn().Err(err).Msg("pdp stage ended with an error")
		}
		stats.IndividualPropertiesScraped = countSuccesses(pdpDetails)
	}

	records := make([]*models.PropertyRecord, 0, len(buffer))
	for _, r := range buffer {
		r = val.ValidateAndClean(r)
		if !val.IsValid(r) {
			continue // post-PDP validation sweep: dropped rare merge regressions
		}
		records = append(records, r)
	}
	stats.PropertiesSaved = len(records)

	stats.EndTime = time.Now()

	paths, exportErr := export.Export(cfg.Export, cfg.OutputDir, sessionID, records, stats, stats.EndTime)
	if exportErr != nil {
		logger.Warn().Err(exportErr).Msg("export stage ended with an error")
	}

	logger.Info().
		Int("records", len(records)).
		Int("pdp_attempts", len(pdpDetails)).
		Dur("duration", stats.Duration()).
		Msg("session complete")

	return records, paths, stats, nil
}

func countSuccesses(details []pdp.Detail) int {
	n := 0
	for _, d := range details {
		if d.Success {
			n++
		}
	}
	return n
}

func finalize(stats models.SessionStats, tResult traversal.Result, _ []pdp.Detail) models.SessionStats {
	stats.PagesScraped = tResult.PagesScraped
	stats.FilterStats = tResult.FilterStats
	stats.EndTime = time.Now()
	return stats
}
