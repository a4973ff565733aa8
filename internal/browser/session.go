// Package browser wraps the headless browser backends (go-rod by default,
// chromedp as a configurable fallback) behind a single Session interface so
// the rest of the scraper never imports a browser driver directly.
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
	"github.com/RecoveryAshes/estatecrawl/internal/utils"
)

// NavigateResult is what a Session returns for one page load.
type NavigateResult struct {
	HTML       string
	FinalURL   string
	StatusCode int
}

// Session is a single browser tab/connection lifecycle: start, navigate
// repeatedly, simulate human interaction, and tear down or restart on
// failure. Implementations must be safe to Restart after Quit.
type Session interface {
	Start(ctx context.Context) error
	Navigate(ctx context.Context, url string, headers map[string]string) (*NavigateResult, error)
	SimulateHumanGesture(ctx context.Context) error
	Restart(ctx context.Context) error
	Quit()
}

// New builds a Session for the configured backend. "chromedp" selects the
// fallback backend; anything else (including the empty string) uses rod.
func New(cfg config.BrowserConfig) Session {
	switch cfg.Backend {
	case "chromedp":
		return newChromedpSession(cfg)
	default:
		return newRodSession(cfg)
	}
}

// randomViewport picks one of a handful of common desktop resolutions,
// used when BrowserConfig.RandomizeViewport is set.
func randomViewport() (width, height int) {
	sizes := [][2]int{
		{1920, 1080},
		{1600, 900},
		{1536, 864},
		{1440, 900},
		{1366, 768},
	}
	pick := sizes[rand.Intn(len(sizes))]
	return pick[0], pick[1]
}

// buildExtraHeaders merges caller-supplied headers and referer chaining into
// one map, validating them against the forbidden/illegal header rules before
// returning. The userAgent argument is not applied.
func buildExtraHeaders(userAgent, referer string, extra map[string]string) (map[string]string, error) {
	headers := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		headers[k] = v
	}
	if referer != "" {
		if _, exists := headers["Referer"]; !exists {
			headers["Referer"] = referer
		}
	}

	validator := utils.NewHeaderValidator()
	if err := validator.ValidateExtraHeaders(headers); err != nil {
		return nil, fmt.Errorf("invalid extra headers: %w", err)
	}

	_ = userAgent // not applied: neither backend sets a user agent
	return headers, nil
}

// restartOnFailure decides whether err warrants a full session restart
// rather than a simple per-URL retry, per models.IsRestartTrigger.
func restartOnFailure(err error) bool {
	return err != nil && models.IsRestartTrigger(err.Error())
}

// humanGestureDelay jitters the pause between simulated scroll/move events.
func humanGestureDelay() time.Duration {
	return utils.JitteredDelay(150*time.Millisecond, 600*time.Millisecond)
}
