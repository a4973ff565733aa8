package traversal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/RecoveryAshes/estatecrawl/internal/antidetect"
	"github.com/RecoveryAshes/estatecrawl/internal/browser"
	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/dateparse"
	"github.com/RecoveryAshes/estatecrawl/internal/extractor"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
	"github.com/RecoveryAshes/estatecrawl/internal/utils"
	"github.com/RecoveryAshes/estatecrawl/internal/validator"
)

// Engine walks a city's paginated search results, feeding each card through
// the DOM Extractor and Validator, and deciding per spec §4.6 when an
// incremental run has caught up with the previous high-water mark.
type Engine struct {
	session    browser.Session
	extractor  *extractor.Extractor
	validator  *validator.Validator
	controller *antidetect.Controller
	dateParser dateparse.Parser
	cfg        config.TraversalConfig
	baseHost   string
	logger     zerolog.Logger
}

// New builds an Engine. baseHost is the listing site's host, used both to
// build page URLs and to resolve relative property links.
func New(session browser.Session, ex *extractor.Extractor, v *validator.Validator, ctrl *antidetect.Controller, dp dateparse.Parser, cfg config.TraversalConfig, baseHost string) *Engine {
	if dp == nil {
		dp = dateparse.Default{}
	}
	return &Engine{
		session:    session,
		extractor:  ex,
		validator:  v,
		controller: ctrl,
		dateParser: dp,
		cfg:        cfg,
		baseHost:   baseHost,
		logger:     utils.WithSession("", "traversal"),
	}
}

// Result is what Traverse returns: the accumulated records plus the
// traversal-relevant slice of SessionStats.
type Result struct {
	Records            []*models.PropertyRecord
	PagesScraped       int
	IncrementalStopped bool
	StopReason         string
	FilterStats        models.FilterStats
	DetectionEvents    int
}

// Traverse runs the paginated listing walk for city in mode, up to
// cfg.MaxPages pages, stopping early when the incremental stop_predicate
// fires (mode != FULL) against prevHighWater, the previous run's newest
// seen posting timestamp.
func (e *Engine) Traverse(ctx context.Context, city string, mode models.ScrapingMode, prevHighWater *time.Time) (Result, error) {
	var result Result
	baseURL := e.buildBaseURL(city, mode)

	consecutiveFailures := 0
	var prevPageFractionOlder float64
	referer := ""

	for page := 1; page <= e.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pageURL := pageURL(baseURL, page)

		html, finalURL, navErr := e.navigateWithRetry(ctx, pageURL, referer)
		if navErr != nil {
			consecutiveFailures++
			e.logger.Warn().Err(navErr).Int("page", page).Msg("page navigation failed")
			if consecutiveFailures > e.cfg.MaxConsecutiveFailures {
				result.StopReason = "consecutive_failures_exceeded"
				return result, &models.FatalError{Reason: result.StopReason, Cause: navErr}
			}
			continue
		}
		referer = pageURL

		if antidetect.Detect(html, finalURL, antidetect.DetectOptions{}) {
			result.DetectionEvents++
			if err := e.controller.HandleDetection(ctx, func(ctx context.Context) error {
				return e.session.Restart(ctx)
			}); err != nil {
				e.logger.Warn().Err(err).Msg("detection recovery aborted")
			}
			consecutiveFailures++
			if consecutiveFailures > e.cfg.MaxConsecutiveFailures {
				result.StopReason = "consecutive_failures_exceeded"
				return result, &models.FatalError{Reason: result.StopReason}
			}
			continue
		}

		cards, err := e.locateCards(html)
		if err != nil || cards == nil {
			consecutiveFailures++
			e.logger.Warn().Int("page", page).Msg("no container selector matched min-cards threshold")
			if consecutiveFailures > e.cfg.MaxConsecutiveFailures {
				result.StopReason = "consecutive_failures_exceeded"
				return result, &models.FatalError{Reason: result.StopReason}
			}
			continue
		}
		consecutiveFailures = 0
		e.controller.ResetFailures()

		cardsFound, cardsSaved, pageFractionOlder := e.processPage(cards, page, prevHighWater, &result)
		result.PagesScraped++
		e.logger.Info().Int("page", page).Int("found", cardsFound).Int("saved", cardsSaved).Msg("page processed")

		if mode != models.ModeFull && prevHighWater != nil {
			// Page 1 has no prior page to clear the hysteresis bar, so per the
			// all-cards-older invariant it stops on the primary threshold alone;
			// page 2+ additionally requires the previous page to have already
			// cleared the (lower) hysteresis bar, to avoid a single noisy page
			// triggering an early stop.
			olderDominant := pageFractionOlder >= e.cfg.IncrementalStopThreshold
			if page > 1 {
				olderDominant = olderDominant && prevPageFractionOlder >= e.cfg.IncrementalHysteresis
			}
			if olderDominant {
				result.IncrementalStopped = true
				result.StopReason = "old_postings_high_water_reached"
				return result, nil
			}
		}
		prevPageFractionOlder = pageFractionOlder

		delay := e.controller.CalculateDelay(page, 2*time.Second, 5*time.Second)
		if err := utils.Sleep(ctx, delay); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (e *Engine) navigateWithRetry(ctx context.Context, url, referer string) (html, finalURL string, err error) {
	headers := map[string]string{}
	if referer != "" {
		headers["Referer"] = referer
	}
	nav, err := e.session.Navigate(ctx, url, headers)
	if err != nil {
		return "", "", err
	}
	return nav.HTML, nav.FinalURL, nil
}

func (e *Engine) locateCards(html string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	minCards := e.cfg.MinCardsPerPage
	if minCards == 0 {
		minCards = 10
	}
	for _, sel := range extractor.ContainerSelectors {
		found := doc.Find(sel)
		if found.Length() >= minCards {
			return found, nil
		}
	}
	return nil, nil
}

// processPage extracts, cleans, and filters every card, appending kept
// records to result and returning (cards_found, cards_saved, fraction in
// [0,1] of sampled top-K cards whose posting date is older than
// prevHighWater — comparable directly against IncrementalStopThreshold and
// IncrementalHysteresis, which are also expressed as fractions).
func (e *Engine) processPage(cards *goquery.Selection, page int, prevHighWater *time.Time, result *Result) (int, int, float64) {
	cardsFound := cards.Length()
	cardsSaved := 0

	topK := e.cfg.TopKForDateSample
	if topK <= 0 {
		topK = 10
	}
	var sampleTimes []time.Time

	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		rec, ok := e.extractor.ExtractCard(card, page, i+1)
		if !ok {
			return true
		}

		if raw, parsed := e.parsePostingDate(rec); parsed != nil {
			rec.PostingDateRaw = raw
			rec.PostingDateParsed = parsed
			if i < topK {
				sampleTimes = append(sampleTimes, *parsed)
			}
		}

		rec = e.validator.ValidateAndClean(rec)
		passes := e.validator.IsValid(rec) && e.validator.ApplyFilters(rec)
		result.FilterStats.Record(passes)
		if passes {
			result.Records = append(result.Records, rec)
			cardsSaved++
		}
		return true
	})

	fractionOlder := 0.0
	if prevHighWater != nil && len(sampleTimes) > 0 {
		older := 0
		for _, t := range sampleTimes {
			if t.Before(*prevHighWater) {
				older++
			}
		}
		fractionOlder = float64(older) / float64(len(sampleTimes))
	}

	return cardsFound, cardsSaved, fractionOlder
}

func (e *Engine) parsePostingDate(rec *models.PropertyRecord) (string, *time.Time) {
	raw, parsed, chosePrimary := dateparse.ResolveCanonical(e.dateParser, rec.PostingDateRawPrimary, rec.PostingDateRawSecondary, time.Now())
	if parsed != nil {
		e.logger.Debug().Bool("chose_primary", chosePrimary).Str("raw", raw).Msg("resolved canonical posting date")
	}
	return raw, parsed
}

func (e *Engine) buildBaseURL(city string, mode models.ScrapingMode) string {
	base := fmt.Sprintf("https://%s/property-for-sale-in-%s", e.baseHost, CitySlug(city))
	if mode.UsesSortByDateDescending() {
		base += "?sort=date_desc"
	}
	return base
}

// pageURL appends the page index for p>1, honoring whatever query string
// base already carries, per spec §4.6 step a.
func pageURL(base string, p int) string {
	if p <= 1 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, p)
}
