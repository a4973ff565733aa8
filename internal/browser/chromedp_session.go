package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// chromedpSession is the fallback backend selected by
// BrowserConfig.Backend == "chromedp", used when a site's anti-automation
// posture specifically fingerprints CDP-over-rod but not chromedp, or when
// an operator already has a chromedp-based deployment to reuse. mu serializes
// every method below, since PDP workers share one session whenever
// PDPConfig.Concurrency > 1.
type chromedpSession struct {
	mu sync.Mutex

	cfg          config.BrowserConfig
	allocCancel  context.CancelFunc
	ctxCancel    context.CancelFunc
	browserCtx   context.Context
}

func newChromedpSession(cfg config.BrowserConfig) *chromedpSession {
	return &chromedpSession{cfg: cfg}
}

func (s *chromedpSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *chromedpSession) startLocked(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if s.cfg.BinaryPath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.BinaryPath))
	}
	if s.cfg.RandomizeViewport {
		w, h := randomViewport()
		opts = append(opts, chromedp.WindowSize(w, h))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		allocCancel()
		ctxCancel()
		return fmt.Errorf("start chromedp: %w", err)
	}

	s.allocCancel = allocCancel
	s.ctxCancel = ctxCancel
	s.browserCtx = browserCtx
	return nil
}

func (s *chromedpSession) Navigate(ctx context.Context, url string, headers map[string]string) (*NavigateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx == nil {
		return nil, fmt.Errorf("session not started")
	}

	merged, err := buildExtraHeaders("", "", headers)
	if err != nil {
		return nil, err
	}

	var html, finalURL string
	actions := []chromedp.Action{network.Enable()}
	if len(merged) > 0 {
		hdrs := make(network.Headers, len(merged))
		for k, v := range merged {
			hdrs[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(hdrs))
	}
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.Sleep(300*time.Millisecond),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	)

	runCtx, cancel := context.WithTimeout(s.browserCtx, 45*time.Second)
	defer cancel()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	if finalURL == "" {
		finalURL = url
	}

	return &NavigateResult{HTML: html, FinalURL: finalURL, StatusCode: 200}, nil
}

func (s *chromedpSession) SimulateHumanGesture(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx == nil {
		return fmt.Errorf("session not started")
	}
	runCtx, cancel := context.WithTimeout(s.browserCtx, 10*time.Second)
	defer cancel()

	return chromedp.Run(runCtx,
		chromedp.Evaluate(`window.scrollBy(0, Math.floor(window.innerHeight * 0.4))`, nil),
		chromedp.Sleep(humanGestureDelay()),
	)
}

func (s *chromedpSession) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quitLocked()
	return s.startLocked(ctx)
}

func (s *chromedpSession) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quitLocked()
}

func (s *chromedpSession) quitLocked() {
	if s.ctxCancel != nil {
		s.ctxCancel()
		s.ctxCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.browserCtx = nil
}
