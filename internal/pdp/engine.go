package pdp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/RecoveryAshes/estatecrawl/internal/antidetect"
	"github.com/RecoveryAshes/estatecrawl/internal/browser"
	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/extractor"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
	"github.com/RecoveryAshes/estatecrawl/internal/tracker"
	"github.com/RecoveryAshes/estatecrawl/internal/utils"
	"github.com/RecoveryAshes/estatecrawl/internal/validator"
)

// Detail is one URL's final outcome, returned by ScrapePDPs for the
// coordinator's summary.
type Detail struct {
	URL     string
	Success bool
	Skipped bool
	Reason  string
}

// Engine dispatches PDP URLs to workers under batch/concurrency control,
// applying smart filtering, cooldown gates, and soft-failure retry.
type Engine struct {
	session    browser.Session
	extractor  *extractor.Extractor
	validator  *validator.Validator
	controller *antidetect.Controller
	tracker    *tracker.Tracker
	cooldown   *CooldownTracker
	resources  *ResourceMonitor
	cfg        config.PDPConfig
	logger     zerolog.Logger

	generation atomic.Int64
}

// New builds a PDP Engine. tr may be nil when the Incremental Tracker is
// disabled; smart filtering and result recording are then skipped. When
// cfg.ResourceAware is set, the worker pool is additionally capped by live
// memory/CPU headroom rather than cfg.Concurrency alone.
func New(session browser.Session, ex *extractor.Extractor, v *validator.Validator, ctrl *antidetect.Controller, tr *tracker.Tracker, cfg config.PDPConfig) *Engine {
	e := &Engine{
		session:    session,
		extractor:  ex,
		validator:  v,
		controller: ctrl,
		tracker:    tr,
		cooldown:   NewCooldownTracker(cfg),
		cfg:        cfg,
		logger:     utils.WithSession("", "pdp"),
	}
	if cfg.ResourceAware {
		e.resources = NewResourceMonitor(ResourceMonitorConfig{
			SafetyReserveBytes:   cfg.SafetyReserveMB * 1024 * 1024,
			SafetyThresholdBytes: cfg.SafetyThresholdMB * 1024 * 1024,
			CPULoadThresholdPct:  cfg.CPULoadThresholdPct,
			MaxConcurrency:       cfg.Concurrency,
			WorkerMemoryBytes:    150 * 1024 * 1024,
		})
	}
	return e
}

// ScrapePDPs drives the full PDP stage: smart filter, batch dispatch,
// per-URL extraction with cooldown/retry discipline, and Tracker updates.
// records is keyed by url_hash and updated in place via MergeFromPDP.
func (e *Engine) ScrapePDPs(ctx context.Context, urls []string, records map[string]*models.PropertyRecord, referer string) ([]Detail, error) {
	if e.resources != nil {
		e.resources.Start(ctx, time.Second)
		defer e.resources.Stop()
	}

	candidates := urls
	if !e.cfg.ForceRescrape && e.tracker != nil {
		summary, err := e.tracker.SmartFilter(urls, time.Now())
		if err != nil {
			return nil, fmt.Errorf("pdp: smart filter: %w", err)
		}
		e.logger.Info().
			Int("total", summary.Total).
			Int("new", summary.Counts[models.LabelNew]).
			Int("failed_extraction", summary.Counts[models.LabelFailedExtract]).
			Int("low_quality", summary.Counts[models.LabelLowQuality]).
			Int("stale", summary.Counts[models.LabelStale]).
			Int("skip_good", summary.Counts[models.LabelSkipGood]).
			Float64("reduction_percent", summary.ReductionPercent()).
			Msg("smart filter applied")
		candidates = summary.Included
	}

	var details []Detail
	batchSize := e.cfg.BatchSize
	if batchSize < 1 {
		batchSize = len(candidates)
		if batchSize == 0 {
			batchSize = 1
		}
	}

	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]
		generation := e.generation.Load()

		batchDetails := e.dispatchBatch(ctx, batch, records, referer, generation)
		details = append(details, batchDetails...)

		e.logBatchQuality(batchDetails, records)

		if end < len(candidates) {
			if err := utils.Sleep(ctx, utils.JitteredDelay(3*time.Second, 6*time.Second)); err != nil {
				return details, err
			}
		}
	}

	return details, nil
}

func (e *Engine) dispatchBatch(ctx context.Context, batch []string, records map[string]*models.PropertyRecord, referer string, generation int64) []Detail {
	concurrency := e.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if e.resources != nil {
		if capped := e.resources.MaxWorkers(); capped < concurrency {
			e.logger.Info().Int("requested", concurrency).Int("capped_to", capped).Msg("throttling pdp concurrency under resource pressure")
			concurrency = capped
		}
	}
	if concurrency > len(batch) {
		concurrency = len(batch)
	}

	details := make([]Detail, len(batch))
	if concurrency <= 1 {
		for i, u := range batch {
			details[i] = e.processURL(ctx, u, records, referer, generation)
		}
		return details
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, u := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()
			details[i] = e.processURL(ctx, u, records, referer, generation)
		}(i, u)
	}
	wg.Wait()
	return details
}

func (e *Engine) processURL(ctx context.Context, rawURL string, records map[string]*models.PropertyRecord, referer string, generation int64) Detail {
	urlHash := tracker.HashURL(tracker.NormalizeURL(rawURL))
	segment := SegmentKey(rawURL)
	now := time.Now()

	if until, ok := e.cooldown.URLCooldownUntil(urlHash); ok && until.After(now) {
		return Detail{URL: rawURL, Skipped: true, Reason: "url_cooldown"}
	}
	if until, ok := e.cooldown.SegmentCooldownUntil(segment); ok && until.After(now) {
		wait := e.cooldown.BoundedSegmentWait(until, now)
		if wait > 0 {
			_ = utils.Sleep(ctx, wait)
		}
		if until.After(time.Now()) {
			return Detail{URL: rawURL, Skipped: true, Reason: "segment_cooldown"}
		}
	}

	if e.cooldown.URLFailureCount(urlHash) >= e.cfg.MaxURLFailures && e.cfg.MaxURLFailures > 0 {
		return Detail{URL: rawURL, Skipped: true, Reason: "max_url_failures_exceeded"}
	}

	_ = utils.Sleep(ctx, utils.JitteredDelay(200*time.Millisecond, 900*time.Millisecond))

	retry := utils.RetryConfig{MaxAttempts: max(1, e.cfg.MaxRetries), BaseDelay: 45 * time.Second}
	var pdpRecord *models.PropertyRecord
	var hardFailure bool

	err := retry.Do(ctx, "pdp:"+urlHash, func() error {
		if e.generation.Load() != generation {
			return fmt.Errorf("session restarted mid-batch, aborting %s", rawURL)
		}

		headers := map[string]string{}
		if referer != "" {
			headers["Referer"] = referer
		}
		nav, err := e.session.Navigate(ctx, rawURL, headers)
		if err != nil {
			return err
		}
		if e.cfg.SimulateHumanGesture {
			_ = e.session.SimulateHumanGesture(ctx)
		}

		if antidetect.Detect(nav.HTML, nav.FinalURL, antidetect.DetectOptions{}) {
			hardFailure = true
			e.cooldown.RecordURLFailure(urlHash, true, time.Now())
			e.cooldown.RecordSegmentFailure(segment, time.Now())
			if hErr := e.controller.HandleDetection(ctx, func(ctx context.Context) error {
				e.generation.Add(1)
				return e.session.Restart(ctx)
			}); hErr != nil {
				return hErr
			}
			return fmt.Errorf("bot detection at %s", rawURL)
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(nav.HTML))
		if err != nil {
			return err
		}
		rec := e.extractor.ExtractPDP(doc)
		rec = e.validator.ValidateAndClean(rec)

		if rec.Title == "" && rec.PriceText == "" {
			e.cooldown.RecordURLFailure(urlHash, false, time.Now())
			return fmt.Errorf("partial extraction at %s: no title or price", rawURL)
		}

		pdpRecord = rec
		return nil
	})

	if err != nil {
		reason := "soft_failure"
		if hardFailure {
			reason = "detection"
		}
		if e.cooldown.URLFailureCount(urlHash) >= e.cfg.MaxURLFailures && e.cfg.MaxURLFailures > 0 {
			reason = "max_url_failures_exceeded"
		}
		return Detail{URL: rawURL, Success: false, Reason: reason}
	}

	if target, ok := records[urlHash]; ok {
		target.MergeFromPDP(pdpRecord)
	} else {
		records[urlHash] = pdpRecord
	}

	e.cooldown.ResetURL(urlHash)
	e.cooldown.ClearSegment(segment)

	if e.tracker != nil {
		_ = e.tracker.RecordResult(rawURL, true, pdpRecord.DataQualityScore, time.Now())
	}

	return Detail{URL: rawURL, Success: true}
}

func (e *Engine) logBatchQuality(details []Detail, records map[string]*models.PropertyRecord) {
	if len(details) == 0 {
		return
	}
	succeeded := 0
	var totalScore float64
	for _, d := range details {
		if !d.Success {
			continue
		}
		succeeded++
		hash := tracker.HashURL(tracker.NormalizeURL(d.URL))
		if r, ok := records[hash]; ok {
			totalScore += r.DataQualityScore
		}
	}
	avg := 0.0
	if succeeded > 0 {
		avg = totalScore / float64(succeeded)
	}
	e.logger.Info().
		Int("batch_size", len(details)).
		Int("succeeded", succeeded).
		Float64("avg_quality_score", avg).
		Msg("batch boundary reached")
}
